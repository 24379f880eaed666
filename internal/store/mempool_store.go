package store

import (
	"encoding/hex"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/kilimba/utxochain/internal/blockchain"
	"github.com/kilimba/utxochain/internal/chainerr"
)

func mempoolKey(txID []byte) []byte {
	return append([]byte("mem:"), []byte(hex.EncodeToString(txID))...)
}

// MempoolStore persists the set of transactions waiting to be mined, one
// badger entry per transaction.
type MempoolStore struct {
	db  *badger.DB
	log *zap.Logger
}

// Load returns every waiting transaction. A missing store yields an empty set.
func (m *MempoolStore) Load() ([]*blockchain.Transaction, error) {
	var txs []*blockchain.Transaction

	err := m.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte("mem:")
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(opts.Prefix); it.Next() {
			item := it.Item()
			var raw []byte
			if err := item.Value(func(val []byte) error {
				raw = append([]byte(nil), val...)
				return nil
			}); err != nil {
				return err
			}
			_, tx, err := blockchain.TransactionFromBytes(raw)
			if err != nil {
				return err
			}
			txs = append(txs, tx)
		}
		return nil
	})
	if err != nil {
		return nil, chainerr.Wrap(chainerr.InvalidEncoding, err, "load mempool")
	}
	return txs, nil
}

// Save appends a transaction to the mempool.
func (m *MempoolStore) Save(tx *blockchain.Transaction) error {
	var txID [blockchain.TransactionIDLength]byte
	copy(txID[:], tx.ID())
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set(mempoolKey(txID[:]), tx.Bytes())
	})
}

// Remove drops the given transactions from the mempool, typically called
// after they have been included in a mined block.
func (m *MempoolStore) Remove(txs []*blockchain.Transaction) error {
	return m.db.Update(func(txn *badger.Txn) error {
		for _, tx := range txs {
			if err := txn.Delete(mempoolKey(tx.ID())); err != nil && err != badger.ErrKeyNotFound {
				return err
			}
		}
		return nil
	})
}
