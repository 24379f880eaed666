// Package store implements the engine's persistence shim: the chain,
// mempool, and wallet registry, all backed by a single embedded
// github.com/dgraph-io/badger/v4 database keyed by prefix — the same
// dependency the teacher's blockchain package opens directly, here
// generalized behind three narrow, purpose-built stores instead of one
// package reaching into *badger.DB fields directly (see DESIGN.md).
package store

import (
	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/kilimba/utxochain/internal/chainerr"
)

// Store wraps a single badger database shared by the chain, mempool, and
// wallet registry stores, each namespaced by key prefix.
type Store struct {
	db  *badger.DB
	log *zap.Logger
}

// Open opens (creating if absent) the badger database rooted at dir.
func Open(dir string, log *zap.Logger) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, chainerr.Wrap(chainerr.InvalidArgument, err, "open store at %s", dir)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{db: db, log: log}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Chain returns a ChainStore backed by this database.
func (s *Store) Chain() *ChainStore {
	return &ChainStore{db: s.db, log: s.log.Named("chain_store")}
}

// Mempool returns a MempoolStore backed by this database.
func (s *Store) Mempool() *MempoolStore {
	return &MempoolStore{db: s.db, log: s.log.Named("mempool_store")}
}

// WalletRegistry returns a WalletRegistry backed by this database.
func (s *Store) WalletRegistry() *WalletRegistry {
	return &WalletRegistry{db: s.db, log: s.log.Named("wallet_registry")}
}
