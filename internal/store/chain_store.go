package store

import (
	"encoding/hex"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/kilimba/utxochain/internal/blockchain"
	"github.com/kilimba/utxochain/internal/chainerr"
)

var tipKey = []byte("tip")

func blockKey(id []byte) []byte {
	return append([]byte("blk:"), []byte(hex.EncodeToString(id))...)
}

// ChainStore persists the block chain as a genesis-first linked sequence,
// one badger entry per block, with a "tip" pointer to the current head.
type ChainStore struct {
	db  *badger.DB
	log *zap.Logger
}

// Load returns the full genesis-first chain, or nil if the store is empty.
// A malformed entry fails with InvalidEncoding; a structurally valid but
// semantically invalid chain (failing deep proof or transaction validity)
// fails with InvalidChain.
func (c *ChainStore) Load() (*blockchain.Chain, error) {
	var tipID []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(tipKey)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			tipID = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil {
		return nil, chainerr.Wrap(chainerr.InvalidEncoding, err, "load chain tip pointer")
	}
	if tipID == nil {
		return nil, nil
	}

	chain, err := c.loadChainFromTip(tipID)
	if err != nil {
		return nil, err
	}

	validator := blockchain.NewValidator()
	if !validator.ProofValid(chain, true) {
		return nil, chainerr.New(chainerr.InvalidChain, "stored chain fails proof validity")
	}
	if err := validator.TransactionsValid(chain, true); err != nil {
		return nil, chainerr.Wrap(chainerr.InvalidChain, err, "stored chain fails transaction validity")
	}

	c.log.Debug("loaded chain", zap.Int("blocks", len(chain.Blocks)))
	return chain, nil
}

// LoadTip returns the tip block, or nil if the store is empty.
func (c *ChainStore) LoadTip() (*blockchain.Block, error) {
	chain, err := c.Load()
	if err != nil {
		return nil, err
	}
	if chain == nil {
		return nil, nil
	}
	return chain.Tip(), nil
}

// loadChainFromTip walks PreviousID links from tipID back to genesis and
// returns the chain in genesis-first order.
func (c *ChainStore) loadChainFromTip(tipID []byte) (*blockchain.Chain, error) {
	var blocks []*blockchain.Block

	err := c.db.View(func(txn *badger.Txn) error {
		currentID := tipID
		for {
			item, err := txn.Get(blockKey(currentID))
			if err != nil {
				return chainerr.Wrap(chainerr.InvalidEncoding, err, "load block %x", currentID)
			}
			var raw []byte
			if err := item.Value(func(val []byte) error {
				raw = append([]byte(nil), val...)
				return nil
			}); err != nil {
				return err
			}

			_, block, err := blockchain.BlockFromBytes(raw)
			if err != nil {
				return err
			}
			blocks = append(blocks, block)

			if !block.HasPrevious {
				break
			}
			currentID = append([]byte(nil), block.PreviousID[:]...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(blocks)-1; i < j; i, j = i+1, j-1 {
		blocks[i], blocks[j] = blocks[j], blocks[i]
	}
	return blockchain.NewChain(blocks), nil
}

// SaveChain overwrites the store's tip pointer and persists every block of
// chain that is not already present.
func (c *ChainStore) SaveChain(chain *blockchain.Chain) error {
	tip := chain.Tip()
	if tip == nil {
		return chainerr.New(chainerr.InvalidArgument, "cannot save an empty chain")
	}

	return c.db.Update(func(txn *badger.Txn) error {
		for _, block := range chain.Blocks {
			key := blockKey(block.ID())
			if _, err := txn.Get(key); err == badger.ErrKeyNotFound {
				if err := txn.Set(key, block.Bytes()); err != nil {
					return err
				}
			} else if err != nil {
				return err
			}
		}
		return txn.Set(tipKey, tip.ID())
	})
}
