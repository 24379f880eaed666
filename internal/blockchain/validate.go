package blockchain

import (
	"github.com/kilimba/utxochain/internal/chainerr"
	"github.com/kilimba/utxochain/internal/metrics"
)

// Validator runs proof and transaction validity checks over a chain, either
// shallow (tip only) or deep (the whole chain).
type Validator struct{}

// NewValidator constructs a stateless Validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ProofValid checks block.id() < TARGET for the inspected blocks: only the
// tip when deep is false, every block when deep is true.
func (v *Validator) ProofValid(chain *Chain, deep bool) bool {
	if len(chain.Blocks) == 0 {
		return true
	}
	if !deep {
		if chain.Tip().ProofValid() {
			return true
		}
		metrics.ValidationFailures.WithLabelValues(chainerr.InvalidChain.String()).Inc()
		return false
	}
	for _, block := range chain.Blocks {
		if !block.ProofValid() {
			metrics.ValidationFailures.WithLabelValues(chainerr.InvalidChain.String()).Inc()
			return false
		}
	}
	return true
}

// TransactionsValid checks, for the inspected blocks, that every
// transaction satisfies input-existence, no-amount-creation, and
// address-coverage-by-signature against the UTXO view of the chain up to
// and including every earlier transaction in the same block. Only the tip
// block is inspected when deep is false; every block is inspected when deep
// is true.
//
// The UTXO view is threaded through each block's own transaction list (see
// validateBlockTransactions), so two transactions in one block spending the
// same outpoint are caught as a double-spend rather than both validating
// independently against the prior-block view (see DESIGN.md).
func (v *Validator) TransactionsValid(chain *Chain, deep bool) error {
	if len(chain.Blocks) == 0 {
		return nil
	}

	start := len(chain.Blocks) - 1
	if deep {
		start = 0
	}

	prior := NewChain(chain.Blocks[:start])
	for i := start; i < len(chain.Blocks); i++ {
		utxo := prior.UTXOSet(nil)
		if err := validateBlockTransactions(chain.Blocks[i], utxo); err != nil {
			metrics.ValidationFailures.WithLabelValues(errorKind(err)).Inc()
			return err
		}
		prior.Blocks = append(prior.Blocks, chain.Blocks[i])
	}
	return nil
}

// errorKind reports the chainerr.Kind label for err, or "Unknown" if err
// did not originate as a *chainerr.Error.
func errorKind(err error) string {
	var kind chainerr.Kind
	if ce, ok := err.(*chainerr.Error); ok {
		kind = ce.Kind
	} else {
		return "Unknown"
	}
	return kind.String()
}

// validateBlockTransactions checks each transaction in the block in order,
// threading the UTXO view forward as it goes: a transaction's spends are
// removed and its outputs inserted before the next transaction in the same
// block is checked. This corrects the source's documented simplification
// (see DESIGN.md) so that two transactions in one block spending the same
// outpoint are caught as a double-spend rather than both validating
// independently against the prior-block view.
func validateBlockTransactions(block *Block, utxo map[TransactionOutpoint]TransactionOutput) error {
	var txID [TransactionIDLength]byte

	for _, tx := range block.Transactions {
		copy(txID[:], tx.ID())

		if !tx.IsCoinbase() {
			if err := validateTransaction(tx, utxo); err != nil {
				return err
			}
			for _, in := range tx.Inputs {
				delete(utxo, in.Outpoint)
			}
		}

		for idx, out := range tx.Outputs {
			outpoint, err := NewTransactionOutpoint(txID[:], uint16(idx))
			if err != nil {
				return err
			}
			utxo[outpoint] = out
		}
	}
	return nil
}

func validateTransaction(tx *Transaction, utxo map[TransactionOutpoint]TransactionOutput) error {
	var inputTotal float32
	owningAddresses := make(map[Address]struct{})

	for _, in := range tx.Inputs {
		out, ok := utxo[in.Outpoint]
		if !ok {
			return newInvalidChain("transaction %x references unknown or already-spent outpoint %s", tx.ID(), in.Outpoint)
		}
		inputTotal += out.Amount
		owningAddresses[out.Address] = struct{}{}
	}

	var outputTotal float32
	for _, out := range tx.Outputs {
		outputTotal += out.Amount
	}
	if outputTotal > inputTotal {
		return newInvalidChain("transaction %x creates value: inputs=%v outputs=%v", tx.ID(), inputTotal, outputTotal)
	}

	for addr := range owningAddresses {
		covered := false
		for _, sig := range tx.Signatures {
			if sig.Address() == addr {
				covered = true
				break
			}
		}
		if !covered {
			return newInvalidChain("transaction %x has no signature covering address %s", tx.ID(), addr)
		}
	}

	return nil
}
