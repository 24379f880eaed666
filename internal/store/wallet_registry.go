package store

import (
	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/kilimba/utxochain/internal/blockchain"
	"github.com/kilimba/utxochain/internal/chainerr"
	"github.com/kilimba/utxochain/internal/wallet"
)

func walletKey(address blockchain.Address) []byte {
	return append([]byte("wallet:"), address[:]...)
}

// WalletRegistry persists wallets keyed by address, refusing to overwrite
// an existing entry and reporting NotFound for unknown addresses — the
// contract §4.7 describes for the wallet-persistence collaborator.
type WalletRegistry struct {
	db  *badger.DB
	log *zap.Logger
}

// Load returns the wallet registered under address, or NotFound.
func (r *WalletRegistry) Load(address blockchain.Address) (*wallet.Wallet, error) {
	var pem []byte
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(walletKey(address))
		if err == badger.ErrKeyNotFound {
			return chainerr.New(chainerr.NotFound, "no wallet registered for address %s", address)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			pem = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return wallet.FromPrivateKeyPEM(pem)
}

// Save persists w under its derived address, refusing to overwrite an
// existing entry with Conflict.
func (r *WalletRegistry) Save(w *wallet.Wallet) error {
	pemBytes, err := w.MarshalPrivateKeyPEM()
	if err != nil {
		return err
	}
	address := w.Address()

	return r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(walletKey(address)); err == nil {
			return chainerr.New(chainerr.Conflict, "wallet already registered for address %s", address)
		} else if err != badger.ErrKeyNotFound {
			return err
		}
		return txn.Set(walletKey(address), pemBytes)
	})
}

// GenerateUnique creates a fresh wallet, regenerating on an address
// collision against the registry, then persists and returns it.
func (r *WalletRegistry) GenerateUnique() (*wallet.Wallet, error) {
	for {
		w, err := wallet.Generate()
		if err != nil {
			return nil, err
		}
		err = r.Save(w)
		if err == nil {
			return w, nil
		}
		if chainerr.Of(err, chainerr.Conflict) {
			r.log.Warn("wallet address collision, regenerating", zap.String("address", w.Address().String()))
			continue
		}
		return nil, err
	}
}
