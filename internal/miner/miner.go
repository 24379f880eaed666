// Package miner implements the parallel proof-of-work nonce search that
// assembles a new tip block.
//
// The teacher's ProofOfWork.Run (blockchain/proof.go) is a single
// sequential loop that rehashes the full block's "init data" on every
// nonce attempt. Per the design notes this reworks that into the faster
// shape: an immutable (previous_id, merkle_root, timestamp) header prefix
// is computed once, and each of P goroutine workers hashes
// SHA256(prefix || nonce_be) directly over its own contiguous slice of the
// 64-bit nonce space, with no re-serialization in the hot loop.
package miner

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kilimba/utxochain/internal/blockchain"
	"github.com/kilimba/utxochain/internal/chainerr"
	"github.com/kilimba/utxochain/internal/metrics"
	"github.com/kilimba/utxochain/internal/wallet"
)

// MaxNonce is the inclusive upper bound of the nonce search space, 2^63-1.
const MaxNonce = math.MaxInt64

// Coordinator runs the nonce search across P workers in batches of size B.
type Coordinator struct {
	Workers   int
	BatchSize int64
	log       *zap.Logger
}

// NewCoordinator constructs a Coordinator, defaulting workers/batchSize to
// 1 when given a non-positive value. A nil logger falls back to a no-op
// logger, matching store.Open's convention.
func NewCoordinator(workers int, batchSize int64, log *zap.Logger) *Coordinator {
	if workers < 1 {
		workers = 1
	}
	if batchSize < 1 {
		batchSize = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{Workers: workers, BatchSize: batchSize, log: log}
}

// candidateBlock assembles a block on top of chain (nil for genesis) from
// the given mempool transactions, validated against the tip's UTXO set,
// plus a coinbase transaction if recipient is non-nil.
func (c *Coordinator) candidateBlock(chain *blockchain.Chain, recipient *wallet.Wallet, mempool []*blockchain.Transaction, timestamp int64) (*blockchain.Block, error) {
	var utxo map[blockchain.TransactionOutpoint]blockchain.TransactionOutput
	var previousID [blockchain.TransactionIDLength]byte
	hasPrevious := false

	if chain != nil && chain.Tip() != nil {
		utxo = chain.UTXOSet(nil)
		copy(previousID[:], chain.Tip().ID())
		hasPrevious = true
	} else {
		utxo = map[blockchain.TransactionOutpoint]blockchain.TransactionOutput{}
	}

	var transactions []*blockchain.Transaction
	if recipient != nil {
		coinbase, err := blockchain.NewCoinbaseTransaction(timestamp, recipient.Address())
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, coinbase)
	}

	for _, tx := range mempool {
		if transactionValidAgainst(tx, utxo) {
			transactions = append(transactions, tx)
		}
	}

	if len(transactions) == 0 {
		return nil, chainerr.New(chainerr.InvalidArgument, "no coinbase and no valid mempool transactions to mine")
	}

	block, err := blockchain.NewBlock(previousID, hasPrevious, transactions, timestamp, 0)
	if err != nil {
		return nil, err
	}

	validator := blockchain.NewValidator()
	extended := blockchain.NewChain(append(append([]*blockchain.Block(nil), chainBlocks(chain)...), block))
	if err := validator.TransactionsValid(extended, false); err != nil {
		return nil, err
	}

	return block, nil
}

func chainBlocks(chain *blockchain.Chain) []*blockchain.Block {
	if chain == nil {
		return nil
	}
	return chain.Blocks
}

// transactionValidAgainst checks input existence, no-amount-creation, and
// address coverage for tx against utxo, mirroring validate.go's per-
// transaction rule but kept local since that check is unexported there.
func transactionValidAgainst(tx *blockchain.Transaction, utxo map[blockchain.TransactionOutpoint]blockchain.TransactionOutput) bool {
	if tx.IsCoinbase() {
		return false
	}
	var inputTotal, outputTotal float32
	owning := make(map[blockchain.Address]struct{})

	for _, in := range tx.Inputs {
		out, ok := utxo[in.Outpoint]
		if !ok {
			return false
		}
		inputTotal += out.Amount
		owning[out.Address] = struct{}{}
	}
	for _, out := range tx.Outputs {
		outputTotal += out.Amount
	}
	if outputTotal > inputTotal {
		return false
	}
	for addr := range owning {
		covered := false
		for _, sig := range tx.Signatures {
			if sig.Address() == addr {
				covered = true
				break
			}
		}
		if !covered {
			return false
		}
	}
	return true
}

// Mine runs the full mining procedure of §4.6: filter the mempool against
// the tip, assemble a candidate with an optional coinbase, and search the
// nonce space in parallel. It returns (nil, nil) if the nonce space is
// exhausted without success.
func (c *Coordinator) Mine(ctx context.Context, chain *blockchain.Chain, recipient *wallet.Wallet, mempool []*blockchain.Transaction, timestamp int64) (*blockchain.Block, error) {
	block, err := c.candidateBlock(chain, recipient, mempool, timestamp)
	if err != nil {
		return nil, err
	}

	prefix := make([]byte, 0, blockchain.TransactionIDLength+blockchain.TransactionIDLength+8)
	prefix = append(prefix, block.PreviousID[:]...)
	prefix = append(prefix, block.MerkleRoot()...)
	var tsBuf [8]byte
	binary.BigEndian.PutUint64(tsBuf[:], uint64(block.Timestamp))
	prefix = append(prefix, tsBuf[:]...)

	nonce, found, err := c.search(ctx, prefix)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	block.Nonce = nonce
	return block, nil
}

// search partitions [0, MaxNonce] into contiguous batches of BatchSize and
// dispatches up to Workers of them concurrently, returning the first
// nonce any worker reports as satisfying the target. Outstanding workers
// are cancelled on first success; cancellation is best-effort, a worker's
// current batch may still run to completion.
func (c *Coordinator) search(ctx context.Context, prefix []byte) (int64, bool, error) {
	searchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	searchStart := time.Now()
	var attempted int64
	defer func() {
		if elapsed := time.Since(searchStart).Seconds(); elapsed > 0 {
			metrics.NonceSearchRate.Set(float64(atomic.LoadInt64(&attempted)) / elapsed)
		}
	}()

	type batch struct{ start, end int64 }
	batches := make(chan batch)
	go func() {
		defer close(batches)
		for start := int64(0); start <= MaxNonce; {
			end := start + c.BatchSize - 1
			if end > MaxNonce || end < start {
				end = MaxNonce
			}
			c.log.Debug("dispatching nonce batch", zap.Int64("start", start), zap.Int64("end", end))
			select {
			case batches <- batch{start: start, end: end}:
			case <-searchCtx.Done():
				return
			}
			if end == MaxNonce {
				return
			}
			start = end + 1
		}
	}()

	type result struct {
		nonce int64
		found bool
	}
	results := make(chan result, c.Workers)
	var wg sync.WaitGroup

	for i := 0; i < c.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for b := range batches {
				select {
				case <-searchCtx.Done():
					return
				default:
				}
				nonce, tried, ok := searchRange(searchCtx, prefix, b.start, b.end)
				atomic.AddInt64(&attempted, tried)
				if ok {
					select {
					case results <- result{nonce: nonce, found: true}:
					case <-searchCtx.Done():
					}
					return
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	select {
	case r, ok := <-results:
		if !ok {
			if err := ctx.Err(); err != nil {
				c.log.Debug("nonce search cancelled")
				return 0, false, err
			}
			c.log.Debug("nonce space exhausted")
			return 0, false, nil
		}
		cancel()
		c.log.Debug("nonce found", zap.Int64("nonce", r.nonce))
		return r.nonce, r.found, nil
	case <-ctx.Done():
		c.log.Debug("nonce search cancelled")
		return 0, false, ctx.Err()
	}
}

// searchRange hashes SHA256(prefix || nonce_be) for every nonce in
// [start, end], returning the first nonce whose hash satisfies the target
// and the number of nonces attempted, for rate instrumentation.
func searchRange(ctx context.Context, prefix []byte, start, end int64) (nonce int64, tried int64, ok bool) {
	buf := make([]byte, len(prefix)+8)
	copy(buf, prefix)

	for n := start; n <= end; n++ {
		select {
		case <-ctx.Done():
			return 0, n - start, false
		default:
		}
		binary.BigEndian.PutUint64(buf[len(prefix):], uint64(n))
		digest := sha256.Sum256(buf)
		if digest[0] == 0 && digest[1] == 0 {
			return n, n - start + 1, true
		}
		if n == end {
			break
		}
	}
	return 0, end - start + 1, false
}
