package blockchain

import "testing"

func fixedSignature(tag byte) TransactionSignature {
	var ts TransactionSignature
	for i := range ts.WalletPublicRepr {
		ts.WalletPublicRepr[i] = tag
	}
	for i := range ts.Signature {
		ts.Signature[i] = tag
	}
	return ts
}

func TestCoinbaseTransactionInvariants(t *testing.T) {
	var addr Address
	copy(addr[:], []byte("minerone"))

	tx, err := NewCoinbaseTransaction(1700000000000, addr)
	if err != nil {
		t.Fatalf("NewCoinbaseTransaction error: %v", err)
	}
	if !tx.IsCoinbase() {
		t.Error("coinbase transaction should report IsCoinbase() == true")
	}
	if len(tx.Outputs) != 1 || tx.Outputs[0].Amount != CoinbaseReward {
		t.Errorf("coinbase transaction must have exactly one output of %v", CoinbaseReward)
	}
}

func TestTransactionRoundTrip(t *testing.T) {
	var addr Address
	copy(addr[:], []byte("recipient"))

	outpoint, err := NewTransactionOutpoint(make([]byte, TransactionIDLength), 0)
	if err != nil {
		t.Fatalf("NewTransactionOutpoint error: %v", err)
	}
	output, err := NewTransactionOutput(addr, 3.5)
	if err != nil {
		t.Fatalf("NewTransactionOutput error: %v", err)
	}

	tx, err := NewTransaction(1700000000000, []TransactionInput{NewTransactionInput(outpoint)}, []TransactionOutput{output})
	if err != nil {
		t.Fatalf("NewTransaction error: %v", err)
	}
	tx.Signatures = append(tx.Signatures, fixedSignature(0x42))

	rest, decoded, err := TransactionFromBytes(tx.Bytes())
	if err != nil {
		t.Fatalf("TransactionFromBytes error: %v", err)
	}
	if len(rest) != 0 {
		t.Errorf("TransactionFromBytes left %d unconsumed bytes", len(rest))
	}
	if decoded.Timestamp != tx.Timestamp {
		t.Errorf("decoded timestamp = %d, want %d", decoded.Timestamp, tx.Timestamp)
	}
	if string(decoded.ID()) != string(tx.ID()) {
		t.Error("decoded transaction ID should match original")
	}
}

func TestTransactionRejectsZeroInputs(t *testing.T) {
	var addr Address
	output, _ := NewTransactionOutput(addr, 1)
	if _, err := NewTransaction(0, nil, []TransactionOutput{output}); err == nil {
		t.Fatal("expected an error for a non-coinbase transaction with zero inputs")
	}
}

func TestSignRejectsDuplicateSignerForSameWallet(t *testing.T) {
	var addr Address
	outpoint, _ := NewTransactionOutpoint(make([]byte, TransactionIDLength), 0)
	output, _ := NewTransactionOutput(addr, 1)
	tx, err := NewTransaction(0, []TransactionInput{NewTransactionInput(outpoint)}, []TransactionOutput{output})
	if err != nil {
		t.Fatalf("NewTransaction error: %v", err)
	}

	publicRepr := make([]byte, WalletPublicReprLength)
	signFunc := func(txID []byte) ([]byte, error) {
		return make([]byte, SignatureInnerLength), nil
	}

	if err := tx.Sign(publicRepr, signFunc); err != nil {
		t.Fatalf("first Sign call failed: %v", err)
	}
	if err := tx.Sign(publicRepr, signFunc); err == nil {
		t.Fatal("expected an error when the same wallet signs twice")
	}
}

func TestTransactionIDChangesWithContent(t *testing.T) {
	var addrA, addrB Address
	copy(addrA[:], []byte("addressA"))
	copy(addrB[:], []byte("addressB"))

	outpoint, _ := NewTransactionOutpoint(make([]byte, TransactionIDLength), 0)
	outputA, _ := NewTransactionOutput(addrA, 1)
	outputB, _ := NewTransactionOutput(addrB, 1)

	txA, _ := NewTransaction(0, []TransactionInput{NewTransactionInput(outpoint)}, []TransactionOutput{outputA})
	txB, _ := NewTransaction(0, []TransactionInput{NewTransactionInput(outpoint)}, []TransactionOutput{outputB})

	if string(txA.ID()) == string(txB.ID()) {
		t.Error("transactions with different outputs should have different IDs")
	}
}
