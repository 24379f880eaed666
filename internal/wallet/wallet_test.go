package wallet

import (
	"testing"

	"github.com/kilimba/utxochain/internal/blockchain"
)

func TestGeneratePublicReprLength(t *testing.T) {
	w, err := Generate()
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if len(w.PublicRepr()) != blockchain.WalletPublicReprLength {
		t.Errorf("PublicRepr length = %d, want %d", len(w.PublicRepr()), blockchain.WalletPublicReprLength)
	}
}

func TestAddressIsStableAndDerived(t *testing.T) {
	w, err := Generate()
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	a1 := w.Address()
	a2 := w.Address()
	if a1 != a2 {
		t.Error("Address() should be stable across calls")
	}
}

func TestPrivateKeyPEMRoundTrip(t *testing.T) {
	w, err := Generate()
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	pemBytes, err := w.MarshalPrivateKeyPEM()
	if err != nil {
		t.Fatalf("MarshalPrivateKeyPEM error: %v", err)
	}

	restored, err := FromPrivateKeyPEM(pemBytes)
	if err != nil {
		t.Fatalf("FromPrivateKeyPEM error: %v", err)
	}
	if restored.Address() != w.Address() {
		t.Error("restored wallet should derive the same address")
	}
}

func TestSignAttachesRecoverableSignature(t *testing.T) {
	w, err := Generate()
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	outpoint, err := blockchain.NewTransactionOutpoint(make([]byte, blockchain.TransactionIDLength), 0)
	if err != nil {
		t.Fatalf("NewTransactionOutpoint error: %v", err)
	}
	output, err := blockchain.NewTransactionOutput(w.Address(), 1)
	if err != nil {
		t.Fatalf("NewTransactionOutput error: %v", err)
	}
	tx, err := blockchain.NewTransaction(0, []blockchain.TransactionInput{blockchain.NewTransactionInput(outpoint)}, []blockchain.TransactionOutput{output})
	if err != nil {
		t.Fatalf("NewTransaction error: %v", err)
	}

	if err := w.Sign(tx); err != nil {
		t.Fatalf("Sign error: %v", err)
	}
	if len(tx.Signatures) != 1 {
		t.Fatalf("transaction has %d signatures, want 1", len(tx.Signatures))
	}
	if tx.Signatures[0].Address() != w.Address() {
		t.Error("signature should resolve to the signing wallet's address")
	}
}

func TestSignTwiceWithSameWalletFails(t *testing.T) {
	w, err := Generate()
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	outpoint, _ := blockchain.NewTransactionOutpoint(make([]byte, blockchain.TransactionIDLength), 0)
	output, _ := blockchain.NewTransactionOutput(w.Address(), 1)
	tx, err := blockchain.NewTransaction(0, []blockchain.TransactionInput{blockchain.NewTransactionInput(outpoint)}, []blockchain.TransactionOutput{output})
	if err != nil {
		t.Fatalf("NewTransaction error: %v", err)
	}

	if err := w.Sign(tx); err != nil {
		t.Fatalf("first Sign error: %v", err)
	}
	if err := w.Sign(tx); err == nil {
		t.Fatal("expected an error when the same wallet signs twice")
	}
}
