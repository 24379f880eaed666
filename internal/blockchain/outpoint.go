package blockchain

import (
	"bytes"
	"encoding/hex"

	"github.com/kilimba/utxochain/internal/codec"
)

// TransactionIDLength is the fixed size, in bytes, of a transaction ID.
const TransactionIDLength = 32

// TransactionOutpoint identifies one output of one prior transaction.
type TransactionOutpoint struct {
	TransactionID [TransactionIDLength]byte
	OutputIndex   uint16
}

// NewTransactionOutpoint constructs an outpoint, validating the transaction ID length.
func NewTransactionOutpoint(transactionID []byte, outputIndex uint16) (TransactionOutpoint, error) {
	var out TransactionOutpoint
	if len(transactionID) != TransactionIDLength {
		return out, newInvalidArgument("outpoint transaction ID must be %d bytes, got %d", TransactionIDLength, len(transactionID))
	}
	copy(out.TransactionID[:], transactionID)
	out.OutputIndex = outputIndex
	return out, nil
}

// Equal reports whether two outpoints reference the same output.
func (o TransactionOutpoint) Equal(other TransactionOutpoint) bool {
	return o.TransactionID == other.TransactionID && o.OutputIndex == other.OutputIndex
}

// Bytes serializes the outpoint as transaction_id(32) || output_index(u16).
func (o TransactionOutpoint) Bytes() []byte {
	dst := make([]byte, 0, TransactionIDLength+2)
	dst = append(dst, o.TransactionID[:]...)
	return codec.WriteU16(dst, o.OutputIndex)
}

// OutpointFromBytes decodes a TransactionOutpoint, returning the remaining bytes.
func OutpointFromBytes(b []byte) ([]byte, TransactionOutpoint, error) {
	var out TransactionOutpoint

	b, txID, err := codec.ReadRaw(b, TransactionIDLength)
	if err != nil {
		return nil, out, wrapInvalidEncoding(err, "outpoint transaction ID")
	}
	copy(out.TransactionID[:], txID)

	b, idx, err := codec.ReadU16(b)
	if err != nil {
		return nil, out, wrapInvalidEncoding(err, "outpoint output index")
	}
	out.OutputIndex = idx

	return b, out, nil
}

func (o TransactionOutpoint) String() string {
	var buf bytes.Buffer
	buf.WriteString(hex.EncodeToString(o.TransactionID[:]))
	return buf.String()
}
