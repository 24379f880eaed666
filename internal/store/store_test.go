package store

import (
	"testing"

	"github.com/kilimba/utxochain/internal/blockchain"
	"github.com/kilimba/utxochain/internal/chainerr"
	"github.com/kilimba/utxochain/internal/wallet"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := Open(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestChainStoreLoadEmptyReturnsNilChain(t *testing.T) {
	db := openTestStore(t)
	chain, err := db.Chain().Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if chain != nil {
		t.Error("Load on an empty store should return a nil chain")
	}
}

func buildGenesisChain(t *testing.T, recipient *wallet.Wallet) *blockchain.Chain {
	t.Helper()
	coinbase, err := blockchain.NewCoinbaseTransaction(1700000000000, recipient.Address())
	if err != nil {
		t.Fatalf("NewCoinbaseTransaction error: %v", err)
	}
	genesis, err := blockchain.NewGenesisBlock([]*blockchain.Transaction{coinbase}, 1700000000000, 0)
	if err != nil {
		t.Fatalf("NewGenesisBlock error: %v", err)
	}
	// ChainStore.Load deep-validates proof of work, so search for a nonce
	// that satisfies the target.
	for !genesis.ProofValid() {
		genesis.Nonce++
	}
	return blockchain.NewChain([]*blockchain.Block{genesis})
}

func TestChainStoreSaveLoadRoundTrip(t *testing.T) {
	db := openTestStore(t)
	w, err := wallet.Generate()
	if err != nil {
		t.Fatalf("wallet.Generate error: %v", err)
	}
	chain := buildGenesisChain(t, w)

	if err := db.Chain().SaveChain(chain); err != nil {
		t.Fatalf("SaveChain error: %v", err)
	}

	loaded, err := db.Chain().Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if loaded == nil || len(loaded.Blocks) != 1 {
		t.Fatalf("loaded chain has unexpected shape: %+v", loaded)
	}
	if string(loaded.Tip().ID()) != string(chain.Tip().ID()) {
		t.Error("loaded tip should match the saved tip")
	}

	tip, err := db.Chain().LoadTip()
	if err != nil {
		t.Fatalf("LoadTip error: %v", err)
	}
	if string(tip.ID()) != string(chain.Tip().ID()) {
		t.Error("LoadTip should match the saved tip")
	}
}

func TestMempoolStoreSaveLoadRemove(t *testing.T) {
	db := openTestStore(t)
	w, err := wallet.Generate()
	if err != nil {
		t.Fatalf("wallet.Generate error: %v", err)
	}

	outpoint, _ := blockchain.NewTransactionOutpoint(make([]byte, blockchain.TransactionIDLength), 0)
	output, _ := blockchain.NewTransactionOutput(w.Address(), 1)
	tx, err := blockchain.NewTransaction(1700000000000, []blockchain.TransactionInput{blockchain.NewTransactionInput(outpoint)}, []blockchain.TransactionOutput{output})
	if err != nil {
		t.Fatalf("NewTransaction error: %v", err)
	}

	if err := db.Mempool().Save(tx); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	loaded, err := db.Mempool().Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("mempool has %d entries, want 1", len(loaded))
	}

	if err := db.Mempool().Remove(loaded); err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	afterRemove, err := db.Mempool().Load()
	if err != nil {
		t.Fatalf("Load after Remove error: %v", err)
	}
	if len(afterRemove) != 0 {
		t.Errorf("mempool has %d entries after Remove, want 0", len(afterRemove))
	}
}

func TestMempoolStoreRemoveToleratesMissingEntries(t *testing.T) {
	db := openTestStore(t)
	w, err := wallet.Generate()
	if err != nil {
		t.Fatalf("wallet.Generate error: %v", err)
	}
	outpoint, _ := blockchain.NewTransactionOutpoint(make([]byte, blockchain.TransactionIDLength), 0)
	output, _ := blockchain.NewTransactionOutput(w.Address(), 1)
	tx, err := blockchain.NewTransaction(1700000000000, []blockchain.TransactionInput{blockchain.NewTransactionInput(outpoint)}, []blockchain.TransactionOutput{output})
	if err != nil {
		t.Fatalf("NewTransaction error: %v", err)
	}

	if err := db.Mempool().Remove([]*blockchain.Transaction{tx}); err != nil {
		t.Errorf("Remove of an absent transaction should not error, got: %v", err)
	}
}

func TestWalletRegistryLoadMissingIsNotFound(t *testing.T) {
	db := openTestStore(t)
	var addr blockchain.Address
	addr[0] = 0x01

	_, err := db.WalletRegistry().Load(addr)
	if !chainerr.Of(err, chainerr.NotFound) {
		t.Errorf("expected a NotFound error, got: %v", err)
	}
}

func TestWalletRegistrySaveLoadRoundTrip(t *testing.T) {
	db := openTestStore(t)
	w, err := wallet.Generate()
	if err != nil {
		t.Fatalf("wallet.Generate error: %v", err)
	}

	if err := db.WalletRegistry().Save(w); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	loaded, err := db.WalletRegistry().Load(w.Address())
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if loaded.Address() != w.Address() {
		t.Error("loaded wallet should derive the same address")
	}
}

func TestWalletRegistrySaveDuplicateIsConflict(t *testing.T) {
	db := openTestStore(t)
	w, err := wallet.Generate()
	if err != nil {
		t.Fatalf("wallet.Generate error: %v", err)
	}

	if err := db.WalletRegistry().Save(w); err != nil {
		t.Fatalf("first Save error: %v", err)
	}
	err = db.WalletRegistry().Save(w)
	if !chainerr.Of(err, chainerr.Conflict) {
		t.Errorf("expected a Conflict error, got: %v", err)
	}
}

func TestWalletRegistryGenerateUniqueRegistersWallet(t *testing.T) {
	db := openTestStore(t)
	w, err := db.WalletRegistry().GenerateUnique()
	if err != nil {
		t.Fatalf("GenerateUnique error: %v", err)
	}

	loaded, err := db.WalletRegistry().Load(w.Address())
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if loaded.Address() != w.Address() {
		t.Error("GenerateUnique should persist a wallet retrievable by its address")
	}
}
