package blockchain

import "github.com/kilimba/utxochain/internal/codec"

// TransactionOutput binds an amount to a recipient address.
type TransactionOutput struct {
	Address Address
	Amount  float32
}

// NewTransactionOutput constructs an output, validating the amount is positive.
func NewTransactionOutput(address Address, amount float32) (TransactionOutput, error) {
	if amount <= 0 {
		return TransactionOutput{}, newInvalidArgument("output amount must be > 0, got %v", amount)
	}
	return TransactionOutput{Address: address, Amount: amount}, nil
}

// Bytes serializes the output as address(8) || amount(f32).
func (out TransactionOutput) Bytes() []byte {
	dst := make([]byte, 0, AddressLength+4)
	dst = append(dst, out.Address[:]...)
	return codec.WriteF32(dst, out.Amount)
}

// OutputFromBytes decodes a TransactionOutput, returning the remaining bytes.
func OutputFromBytes(b []byte) ([]byte, TransactionOutput, error) {
	var out TransactionOutput

	b, addr, err := codec.ReadRaw(b, AddressLength)
	if err != nil {
		return nil, out, wrapInvalidEncoding(err, "output address")
	}
	copy(out.Address[:], addr)

	b, amount, err := codec.ReadF32(b)
	if err != nil {
		return nil, out, wrapInvalidEncoding(err, "output amount")
	}

	if amount <= 0 {
		return nil, out, newInvalidEncoding("decoded output amount must be > 0, got %v", amount)
	}
	out.Amount = amount

	return b, out, nil
}
