package blockchain

import (
	"bytes"
	"crypto/sha256"

	"github.com/kilimba/utxochain/internal/codec"
	"github.com/kilimba/utxochain/internal/merkle"
)

// HeaderLength is the byte length of a block header preimage:
// previous_id(32) || merkle_root(32) || timestamp(i64) || nonce(i64).
const HeaderLength = TransactionIDLength + TransactionIDLength + 8 + 8

// targetBytes is TARGET = 0x0000 || 0xFF*30: a 32-byte big-endian bound
// with two leading zero bytes. A block ID compares below this value iff
// its first two bytes are both zero and its remaining 30 bytes are not
// all 0xFF.
var targetBytes = func() [32]byte {
	var t [32]byte
	for i := 2; i < 32; i++ {
		t[i] = 0xFF
	}
	return t
}()

// ZeroHash is 32 zero bytes, the previous-block-id sentinel used by the genesis block.
var ZeroHash [TransactionIDLength]byte

// Block is an ordered bundle of transactions anchored to a predecessor by hash.
//
// Chains own their blocks in a flat, ordered slice (see Chain) rather than
// via back-pointers between Block values; PreviousID alone identifies the
// predecessor, so a Block is a plain, linkable value with no parent pointer
// to manage or leak.
type Block struct {
	PreviousID   [TransactionIDLength]byte
	HasPrevious  bool
	Transactions []*Transaction
	Timestamp    int64
	Nonce        int64
}

// NewBlock assembles a block on top of previousID. transactions must place
// exactly one coinbase transaction first.
func NewBlock(previousID [TransactionIDLength]byte, hasPrevious bool, transactions []*Transaction, timestamp int64, nonce int64) (*Block, error) {
	if err := checkCoinbasePlacement(transactions); err != nil {
		return nil, err
	}
	return &Block{
		PreviousID:   previousID,
		HasPrevious:  hasPrevious,
		Transactions: append([]*Transaction(nil), transactions...),
		Timestamp:    timestamp,
		Nonce:        nonce,
	}, nil
}

// NewGenesisBlock assembles the first block of a chain. previous_id is the
// zero hash and previous_block is absent.
func NewGenesisBlock(transactions []*Transaction, timestamp int64, nonce int64) (*Block, error) {
	return NewBlock(ZeroHash, false, transactions, timestamp, nonce)
}

func checkCoinbasePlacement(transactions []*Transaction) error {
	if len(transactions) == 0 {
		return newInvalidArgument("block must contain at least one transaction")
	}
	coinbaseCount := 0
	for i, tx := range transactions {
		if tx.IsCoinbase() {
			coinbaseCount++
			if i != 0 {
				return newInvalidArgument("coinbase transaction must be first in the block")
			}
		}
	}
	if coinbaseCount != 1 {
		return newInvalidArgument("block must contain exactly one coinbase transaction, got %d", coinbaseCount)
	}
	return nil
}

// MerkleRoot is the merkle root over the block's transaction IDs.
func (b *Block) MerkleRoot() []byte {
	leaves := make([][]byte, len(b.Transactions))
	for i, tx := range b.Transactions {
		leaves[i] = tx.ID()
	}
	return merkle.Root(leaves)
}

// Header returns the 80-byte preimage hashed to form the block ID.
func (b *Block) Header() []byte {
	dst := make([]byte, 0, HeaderLength)
	dst = append(dst, b.PreviousID[:]...)
	dst = append(dst, b.MerkleRoot()...)
	dst = codec.WriteI64(dst, b.Timestamp)
	dst = codec.WriteI64(dst, b.Nonce)
	return dst
}

// ID returns SHA256 of the block header.
func (b *Block) ID() []byte {
	digest := sha256.Sum256(b.Header())
	return digest[:]
}

// ProofValid reports whether the block's ID falls below TARGET, i.e. its
// first two bytes are both zero and the rest is not all 0xFF.
func (b *Block) ProofValid() bool {
	id := b.ID()
	return bytes.Compare(id, targetBytes[:]) < 0
}

// Bytes serializes the block as
// previous_id(32) || merkle_root(32) || timestamp(i64) || nonce(i64) || array(transactions).
func (b *Block) Bytes() []byte {
	dst := b.Header()
	dst, _ = codec.EncodeArray(dst, b.Transactions, func(d []byte, tx *Transaction) []byte {
		return append(d, tx.Bytes()...)
	})
	return dst
}

// BlockFromBytes decodes a Block, returning the remaining bytes.
//
// The embedded merkle root is checked against the computed root of the
// parsed transactions, and coinbase placement is re-validated; both
// failures surface as InvalidEncoding.
func BlockFromBytes(b []byte) ([]byte, *Block, error) {
	blk := &Block{}

	b, prevID, err := codec.ReadRaw(b, TransactionIDLength)
	if err != nil {
		return nil, nil, wrapInvalidEncoding(err, "block previous id")
	}
	copy(blk.PreviousID[:], prevID)
	blk.HasPrevious = blk.PreviousID != ZeroHash

	b, merkleRoot, err := codec.ReadRaw(b, TransactionIDLength)
	if err != nil {
		return nil, nil, wrapInvalidEncoding(err, "block merkle root")
	}

	b, ts, err := codec.ReadI64(b)
	if err != nil {
		return nil, nil, wrapInvalidEncoding(err, "block timestamp")
	}
	blk.Timestamp = ts

	b, nonce, err := codec.ReadI64(b)
	if err != nil {
		return nil, nil, wrapInvalidEncoding(err, "block nonce")
	}
	blk.Nonce = nonce

	b, transactions, err := codec.DecodeArray(b, TransactionFromBytes)
	if err != nil {
		return nil, nil, wrapInvalidEncoding(err, "block transactions")
	}
	blk.Transactions = transactions

	if err := checkCoinbasePlacement(blk.Transactions); err != nil {
		return nil, nil, newInvalidEncoding("block coinbase placement: %v", err)
	}

	if !bytes.Equal(blk.MerkleRoot(), merkleRoot) {
		return nil, nil, newInvalidEncoding("block merkle root mismatch")
	}

	return b, blk, nil
}
