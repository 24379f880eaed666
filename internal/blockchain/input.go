package blockchain

// TransactionInput asserts intent to spend a single prior outpoint.
type TransactionInput struct {
	Outpoint TransactionOutpoint
}

// NewTransactionInput constructs an input from the outpoint it spends.
func NewTransactionInput(outpoint TransactionOutpoint) TransactionInput {
	return TransactionInput{Outpoint: outpoint}
}

// Bytes serializes the input as its outpoint.
func (in TransactionInput) Bytes() []byte {
	return in.Outpoint.Bytes()
}

// InputFromBytes decodes a TransactionInput, returning the remaining bytes.
func InputFromBytes(b []byte) ([]byte, TransactionInput, error) {
	b, outpoint, err := OutpointFromBytes(b)
	if err != nil {
		return nil, TransactionInput{}, err
	}
	return b, TransactionInput{Outpoint: outpoint}, nil
}
