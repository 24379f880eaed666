package blockchain

import (
	"encoding/hex"

	"github.com/kilimba/utxochain/internal/codec"
)

// Chain owns an ordered, genesis-first sequence of blocks.
//
// The source represents a chain via back-pointers, each block owning its
// predecessor. Here the chain instead owns a flat slice indexed by
// position, with the tip simply the last element — back-pointers become
// positions, ownership is linear, and cycles are impossible by
// construction (see DESIGN.md).
type Chain struct {
	Blocks []*Block
}

// NewChain wraps a genesis-first block sequence. The caller is responsible
// for having validated linkage; use Validator to check it.
func NewChain(blocks []*Block) *Chain {
	return &Chain{Blocks: append([]*Block(nil), blocks...)}
}

// Tip returns the latest block, or nil if the chain is empty.
func (c *Chain) Tip() *Block {
	if len(c.Blocks) == 0 {
		return nil
	}
	return c.Blocks[len(c.Blocks)-1]
}

// Append adds a new tip on top of the chain, verifying its previous id
// matches the current tip (or the zero hash, for an empty chain).
func (c *Chain) Append(block *Block) error {
	tip := c.Tip()
	if tip == nil {
		if block.HasPrevious {
			return newInvalidArgument("first block of a chain must have no previous block")
		}
	} else {
		var tipID [TransactionIDLength]byte
		copy(tipID[:], tip.ID())
		if !block.HasPrevious || block.PreviousID != tipID {
			return newInvalidArgument("block previous id does not match chain tip")
		}
	}
	c.Blocks = append(c.Blocks, block)
	return nil
}

// TransactionIndex flattens every transaction reachable from the chain into
// a map keyed by transaction id, visiting blocks genesis-first. Later
// insertions win on collision, which the chain's invariants should prevent.
func (c *Chain) TransactionIndex() map[[TransactionIDLength]byte]*Transaction {
	index := make(map[[TransactionIDLength]byte]*Transaction)
	for _, block := range c.Blocks {
		for _, tx := range block.Transactions {
			var id [TransactionIDLength]byte
			copy(id[:], tx.ID())
			index[id] = tx
		}
	}
	return index
}

// UTXOSet computes the outpoint→output mapping up to this chain, optionally
// restricted to outputs whose address appears in addresses (nil means no
// filter). Inputs that reference an outpoint this view never inserted are
// tolerated silently, since a filtered traversal may not have kept it.
func (c *Chain) UTXOSet(addresses map[Address]struct{}) map[TransactionOutpoint]TransactionOutput {
	utxo := make(map[TransactionOutpoint]TransactionOutput)

	for _, block := range c.Blocks {
		for _, tx := range block.Transactions {
			for _, in := range tx.Inputs {
				delete(utxo, in.Outpoint)
			}

			var txID [TransactionIDLength]byte
			copy(txID[:], tx.ID())

			for idx, out := range tx.Outputs {
				if addresses != nil {
					if _, ok := addresses[out.Address]; !ok {
						continue
					}
				}
				outpoint, err := NewTransactionOutpoint(txID[:], uint16(idx))
				if err != nil {
					continue
				}
				utxo[outpoint] = out
			}
		}
	}

	return utxo
}

// Balances sums UTXO amounts grouped by output address.
func (c *Chain) Balances() map[Address]float32 {
	balances := make(map[Address]float32)
	for _, out := range c.UTXOSet(nil) {
		balances[out.Address] += out.Amount
	}
	return balances
}

// Balance returns the spendable total for a single address.
func (c *Chain) Balance(address Address) float32 {
	filter := map[Address]struct{}{address: {}}
	var total float32
	for _, out := range c.UTXOSet(filter) {
		total += out.Amount
	}
	return total
}

// Bytes serializes the chain as the concatenation of its blocks, genesis first.
func (c *Chain) Bytes() []byte {
	var dst []byte
	for _, block := range c.Blocks {
		dst = append(dst, block.Bytes()...)
	}
	return dst
}

// ChainFromBytes decodes a full chain from a concatenated block stream,
// verifying that each non-genesis block's previous id matches the id of
// the block decoded immediately before it. The whole walk runs inside a
// safe-load scope (§4.1) so a malformed stream that slips past the
// explicit bounds checks in BlockFromBytes and panics partway through
// still surfaces as a single InvalidEncoding error, never a crash.
func ChainFromBytes(b []byte) (*Chain, error) {
	return codec.SafeLoad(func() (*Chain, error) {
		var blocks []*Block
		var previousID [TransactionIDLength]byte
		havePrevious := false

		for len(b) > 0 {
			rest, block, err := BlockFromBytes(b)
			if err != nil {
				return nil, err
			}
			b = rest

			if havePrevious {
				if !block.HasPrevious || block.PreviousID != previousID {
					return nil, newInvalidEncoding("chain block %d previous id mismatch", len(blocks))
				}
			} else if block.HasPrevious {
				return nil, newInvalidEncoding("first block of chain must have no previous block")
			}

			copy(previousID[:], block.ID())
			havePrevious = true
			blocks = append(blocks, block)
		}

		return NewChain(blocks), nil
	})
}

// ExportBlock is the human-readable dictionary projection of a Block.
type ExportBlock struct {
	PreviousBlockID  *string          `json:"previous_block_id"`
	TransactionsRoot string           `json:"transactions_root"`
	Timestamp        int64            `json:"timestamp"`
	Nonce            int64            `json:"nonce"`
	Transactions     []ExportTransaction `json:"transactions"`
}

// ExportTransaction is the human-readable dictionary projection of a Transaction.
type ExportTransaction struct {
	Timestamp  int64              `json:"timestamp"`
	Inputs     []ExportInput      `json:"inputs"`
	Outputs    []ExportOutput     `json:"outputs"`
	Signatures []ExportSignature  `json:"signatures"`
}

// ExportInput is the human-readable dictionary projection of a TransactionInput.
type ExportInput struct {
	Outpoint ExportOutpoint `json:"outpoint"`
}

// ExportOutpoint is the human-readable dictionary projection of a TransactionOutpoint.
type ExportOutpoint struct {
	TransactionID string `json:"transaction_id"`
	OutputIndex   uint16 `json:"output_index"`
}

// ExportOutput is the human-readable dictionary projection of a TransactionOutput.
type ExportOutput struct {
	Address string  `json:"address"`
	Amount  float32 `json:"amount"`
}

// ExportSignature is the human-readable dictionary projection of a TransactionSignature.
type ExportSignature struct {
	Script    string `json:"script"`
	Signature string `json:"signature"`
}

func (o TransactionOutpoint) export() ExportOutpoint {
	return ExportOutpoint{TransactionID: hex.EncodeToString(o.TransactionID[:]), OutputIndex: o.OutputIndex}
}

func (in TransactionInput) export() ExportInput {
	return ExportInput{Outpoint: in.Outpoint.export()}
}

func (out TransactionOutput) export() ExportOutput {
	return ExportOutput{Address: out.Address.String(), Amount: out.Amount}
}

func (sig TransactionSignature) export() ExportSignature {
	return ExportSignature{
		Script:    hex.EncodeToString(sig.WalletPublicRepr[:]),
		Signature: hex.EncodeToString(sig.Signature[:]),
	}
}

// Export projects the transaction into its human-readable dictionary form.
func (tx *Transaction) Export() ExportTransaction {
	inputs := make([]ExportInput, len(tx.Inputs))
	for i, in := range tx.Inputs {
		inputs[i] = in.export()
	}
	outputs := make([]ExportOutput, len(tx.Outputs))
	for i, out := range tx.Outputs {
		outputs[i] = out.export()
	}
	signatures := make([]ExportSignature, len(tx.Signatures))
	for i, sig := range tx.Signatures {
		signatures[i] = sig.export()
	}
	return ExportTransaction{
		Timestamp:  tx.Timestamp,
		Inputs:     inputs,
		Outputs:    outputs,
		Signatures: signatures,
	}
}

// Export projects the block into its human-readable dictionary form.
func (b *Block) Export() ExportBlock {
	var prevID *string
	if b.HasPrevious {
		s := hex.EncodeToString(b.PreviousID[:])
		prevID = &s
	}
	transactions := make([]ExportTransaction, len(b.Transactions))
	for i, tx := range b.Transactions {
		transactions[i] = tx.Export()
	}
	return ExportBlock{
		PreviousBlockID:  prevID,
		TransactionsRoot: hex.EncodeToString(b.MerkleRoot()),
		Timestamp:        b.Timestamp,
		Nonce:            b.Nonce,
		Transactions:     transactions,
	}
}

// Export projects the full chain, genesis first.
func (c *Chain) Export() []ExportBlock {
	out := make([]ExportBlock, len(c.Blocks))
	for i, block := range c.Blocks {
		out[i] = block.Export()
	}
	return out
}
