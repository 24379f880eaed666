package blockchain

import "testing"

func TestOutputRoundTrip(t *testing.T) {
	var addr Address
	copy(addr[:], []byte("testaddr"))

	out, err := NewTransactionOutput(addr, 5.5)
	if err != nil {
		t.Fatalf("NewTransactionOutput error: %v", err)
	}

	rest, decoded, err := OutputFromBytes(out.Bytes())
	if err != nil {
		t.Fatalf("OutputFromBytes error: %v", err)
	}
	if len(rest) != 0 {
		t.Errorf("OutputFromBytes left %d unconsumed bytes", len(rest))
	}
	if decoded.Address != out.Address || decoded.Amount != out.Amount {
		t.Errorf("decoded output %+v != original %+v", decoded, out)
	}
}

func TestOutputRejectsNonPositiveAmount(t *testing.T) {
	var addr Address
	for _, amount := range []float32{0, -1, -10.5} {
		if _, err := NewTransactionOutput(addr, amount); err == nil {
			t.Errorf("expected an error for amount %v", amount)
		}
	}
}
