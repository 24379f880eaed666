package blockchain

import (
	"crypto/sha256"

	"github.com/kilimba/utxochain/internal/codec"
)

// CoinbaseReward is the fixed amount awarded by a coinbase transaction.
const CoinbaseReward = float32(10.0)

// Transaction moves value from a set of spent outpoints to a set of new outputs.
//
// A Transaction with zero inputs is a coinbase: it must carry exactly one
// output of CoinbaseReward. The variant is inferred from len(Inputs) == 0
// rather than tracked as a separate type, matching how the wire format
// distinguishes the two during decode.
type Transaction struct {
	Timestamp  int64
	Inputs     []TransactionInput
	Outputs    []TransactionOutput
	Signatures []TransactionSignature
}

// NewTransaction constructs a regular (non-coinbase) transaction.
func NewTransaction(timestamp int64, inputs []TransactionInput, outputs []TransactionOutput) (*Transaction, error) {
	if len(inputs) == 0 {
		return nil, newInvalidArgument("non-coinbase transaction must have at least one input")
	}
	if len(outputs) == 0 {
		return nil, newInvalidArgument("transaction must have at least one output")
	}
	if len(inputs) > codec.MaxArrayLen || len(outputs) > codec.MaxArrayLen {
		return nil, newInvalidArgument("transaction exceeds maximum array length %d", codec.MaxArrayLen)
	}
	return &Transaction{
		Timestamp: timestamp,
		Inputs:    append([]TransactionInput(nil), inputs...),
		Outputs:   append([]TransactionOutput(nil), outputs...),
	}, nil
}

// NewCoinbaseTransaction constructs a reward transaction paying address.
func NewCoinbaseTransaction(timestamp int64, address Address) (*Transaction, error) {
	output, err := NewTransactionOutput(address, CoinbaseReward)
	if err != nil {
		return nil, err
	}
	return &Transaction{
		Timestamp: timestamp,
		Outputs:   []TransactionOutput{output},
	}, nil
}

// IsCoinbase reports whether the transaction has no inputs.
func (tx *Transaction) IsCoinbase() bool {
	return len(tx.Inputs) == 0
}

// Sign appends a signature covering the transaction ID, produced by signFunc
// (the wallet layer's RSA-PSS-then-SHA256 routine). A wallet — identified by
// its public representation — may sign at most once.
func (tx *Transaction) Sign(publicRepr []byte, signFunc func(txID []byte) ([]byte, error)) error {
	var candidate Address
	digest := sha256.Sum256(publicRepr)
	copy(candidate[:], digest[:AddressLength])

	for _, sig := range tx.Signatures {
		if sig.Address() == candidate {
			return newInvalidArgument("wallet %s has already signed this transaction", candidate)
		}
	}
	if len(tx.Signatures) >= codec.MaxArrayLen {
		return newInvalidArgument("transaction already carries the maximum of %d signatures", codec.MaxArrayLen)
	}

	txID := tx.ID()
	inner, err := signFunc(txID)
	if err != nil {
		return err
	}

	sig, err := NewTransactionSignature(publicRepr, inner)
	if err != nil {
		return err
	}
	tx.Signatures = append(tx.Signatures, sig)
	return nil
}

// ID returns SHA256 of the transaction's canonical byte encoding.
func (tx *Transaction) ID() []byte {
	digest := sha256.Sum256(tx.Bytes())
	return digest[:]
}

// Bytes serializes the transaction as
// timestamp(i64) || array(inputs) || array(outputs) || array(signatures).
func (tx *Transaction) Bytes() []byte {
	dst := make([]byte, 0, 8+len(tx.Inputs)*34+len(tx.Outputs)*12+len(tx.Signatures)*558)
	dst = codec.WriteI64(dst, tx.Timestamp)

	dst, _ = codec.EncodeArray(dst, tx.Inputs, func(d []byte, in TransactionInput) []byte {
		return append(d, in.Bytes()...)
	})
	dst, _ = codec.EncodeArray(dst, tx.Outputs, func(d []byte, out TransactionOutput) []byte {
		return append(d, out.Bytes()...)
	})
	dst, _ = codec.EncodeArray(dst, tx.Signatures, func(d []byte, sig TransactionSignature) []byte {
		return append(d, sig.Bytes()...)
	})
	return dst
}

// TransactionFromBytes decodes a Transaction, returning the remaining bytes.
// len(inputs) == 0 on the decoded value signals a coinbase transaction.
func TransactionFromBytes(b []byte) ([]byte, *Transaction, error) {
	tx := &Transaction{}

	b, ts, err := codec.ReadI64(b)
	if err != nil {
		return nil, nil, wrapInvalidEncoding(err, "transaction timestamp")
	}
	tx.Timestamp = ts

	b, inputs, err := codec.DecodeArray(b, InputFromBytes)
	if err != nil {
		return nil, nil, wrapInvalidEncoding(err, "transaction inputs")
	}
	tx.Inputs = inputs

	b, outputs, err := codec.DecodeArray(b, OutputFromBytes)
	if err != nil {
		return nil, nil, wrapInvalidEncoding(err, "transaction outputs")
	}
	if len(outputs) == 0 {
		return nil, nil, newInvalidEncoding("transaction has no outputs")
	}
	tx.Outputs = outputs

	b, signatures, err := codec.DecodeArray(b, SignatureFromBytes)
	if err != nil {
		return nil, nil, wrapInvalidEncoding(err, "transaction signatures")
	}
	tx.Signatures = signatures

	if tx.IsCoinbase() {
		if len(tx.Outputs) != 1 || tx.Outputs[0].Amount != CoinbaseReward {
			return nil, nil, newInvalidEncoding("coinbase transaction must have exactly one output of %v", CoinbaseReward)
		}
	}

	return b, tx, nil
}
