package blockchain

import (
	"bytes"
	"testing"
)

func TestOutpointRoundTrip(t *testing.T) {
	txID := bytes.Repeat([]byte{0xAB}, TransactionIDLength)
	out, err := NewTransactionOutpoint(txID, 7)
	if err != nil {
		t.Fatalf("NewTransactionOutpoint error: %v", err)
	}

	encoded := out.Bytes()
	rest, decoded, err := OutpointFromBytes(encoded)
	if err != nil {
		t.Fatalf("OutpointFromBytes error: %v", err)
	}
	if len(rest) != 0 {
		t.Errorf("OutpointFromBytes left %d unconsumed bytes", len(rest))
	}
	if !decoded.Equal(out) {
		t.Errorf("decoded outpoint %+v != original %+v", decoded, out)
	}
}

func TestOutpointRejectsWrongLengthTransactionID(t *testing.T) {
	if _, err := NewTransactionOutpoint([]byte{1, 2, 3}, 0); err == nil {
		t.Fatal("expected an error for a short transaction ID")
	}
}

func TestOutpointEqual(t *testing.T) {
	txID := bytes.Repeat([]byte{1}, TransactionIDLength)
	a, _ := NewTransactionOutpoint(txID, 0)
	b, _ := NewTransactionOutpoint(txID, 0)
	c, _ := NewTransactionOutpoint(txID, 1)

	if !a.Equal(b) {
		t.Error("outpoints with identical fields should be equal")
	}
	if a.Equal(c) {
		t.Error("outpoints with different output indexes should not be equal")
	}
}
