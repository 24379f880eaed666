package miner

import (
	"context"
	"testing"
	"time"

	"github.com/kilimba/utxochain/internal/blockchain"
	"github.com/kilimba/utxochain/internal/wallet"
)

func TestMineProducesValidGenesisBlock(t *testing.T) {
	recipient, err := wallet.Generate()
	if err != nil {
		t.Fatalf("wallet.Generate error: %v", err)
	}

	c := NewCoordinator(4, 1<<14, nil)
	block, err := c.Mine(context.Background(), nil, recipient, nil, 1700000000000)
	if err != nil {
		t.Fatalf("Mine error: %v", err)
	}
	if block == nil {
		t.Fatal("Mine returned a nil block for an unbounded search")
	}
	if !block.ProofValid() {
		t.Error("mined block does not satisfy the proof-of-work target")
	}
	if block.HasPrevious {
		t.Error("mining against a nil chain should produce a block with no previous id")
	}
	if len(block.Transactions) != 1 || !block.Transactions[0].IsCoinbase() {
		t.Error("mined block should contain exactly the coinbase transaction")
	}
	if block.Transactions[0].Outputs[0].Address != recipient.Address() {
		t.Error("coinbase reward should be paid to the requested recipient")
	}
}

func TestMineRejectsWithNoTransactions(t *testing.T) {
	c := NewCoordinator(1, 1024, nil)
	block, err := c.Mine(context.Background(), nil, nil, nil, 1700000000000)
	if err == nil {
		t.Fatal("expected an error when neither a recipient nor mempool transactions are supplied")
	}
	if block != nil {
		t.Error("expected a nil block alongside the error")
	}
}

func TestMineRespectsCancellation(t *testing.T) {
	recipient, err := wallet.Generate()
	if err != nil {
		t.Fatalf("wallet.Generate error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewCoordinator(2, 1<<20, nil)
	done := make(chan struct{})
	var block *blockchain.Block
	go func() {
		block, err = c.Mine(ctx, nil, recipient, nil, 1700000000000)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Mine did not return promptly after context cancellation")
	}

	if block != nil {
		t.Error("expected a nil block when the context is already cancelled")
	}
	if err == nil {
		t.Error("expected an error when the context is already cancelled")
	}
}

// TestMineSpendsTransferAcrossTwoBlocks drives the chain's three-address
// split end to end: mine a genesis coinbase to a miner wallet, sign a
// transfer spending part of it to a recipient wallet, place that transfer in
// the mempool, and mine a second block awarding its coinbase to a different
// miner wallet. The final balances must show the sender's change, the
// recipient's transfer, and the second coinbase, each at a distinct address.
func TestMineSpendsTransferAcrossTwoBlocks(t *testing.T) {
	miner1, err := wallet.Generate()
	if err != nil {
		t.Fatalf("wallet.Generate miner1 error: %v", err)
	}
	sender := miner1
	recipient, err := wallet.Generate()
	if err != nil {
		t.Fatalf("wallet.Generate recipient error: %v", err)
	}
	miner2, err := wallet.Generate()
	if err != nil {
		t.Fatalf("wallet.Generate miner2 error: %v", err)
	}

	c := NewCoordinator(4, 1<<14, nil)

	genesisBlock, err := c.Mine(context.Background(), nil, miner1, nil, 1700000000000)
	if err != nil {
		t.Fatalf("Mine (genesis) error: %v", err)
	}
	if genesisBlock == nil {
		t.Fatal("Mine (genesis) returned a nil block")
	}
	chain := blockchain.NewChain(nil)
	if err := chain.Append(genesisBlock); err != nil {
		t.Fatalf("Append genesis error: %v", err)
	}

	const transferAmount = float32(4.0)
	coinbaseOutpoint, err := blockchain.NewTransactionOutpoint(genesisBlock.Transactions[0].ID(), 0)
	if err != nil {
		t.Fatalf("NewTransactionOutpoint error: %v", err)
	}
	changeOutput, err := blockchain.NewTransactionOutput(sender.Address(), blockchain.CoinbaseReward-transferAmount)
	if err != nil {
		t.Fatalf("NewTransactionOutput (change) error: %v", err)
	}
	transferOutput, err := blockchain.NewTransactionOutput(recipient.Address(), transferAmount)
	if err != nil {
		t.Fatalf("NewTransactionOutput (transfer) error: %v", err)
	}
	transferTx, err := blockchain.NewTransaction(1700000001000,
		[]blockchain.TransactionInput{blockchain.NewTransactionInput(coinbaseOutpoint)},
		[]blockchain.TransactionOutput{transferOutput, changeOutput},
	)
	if err != nil {
		t.Fatalf("NewTransaction (transfer) error: %v", err)
	}
	if err := sender.Sign(transferTx); err != nil {
		t.Fatalf("Sign (transfer) error: %v", err)
	}

	secondBlock, err := c.Mine(context.Background(), chain, miner2, []*blockchain.Transaction{transferTx}, 1700000002000)
	if err != nil {
		t.Fatalf("Mine (second block) error: %v", err)
	}
	if secondBlock == nil {
		t.Fatal("Mine (second block) returned a nil block")
	}
	if err := chain.Append(secondBlock); err != nil {
		t.Fatalf("Append second block error: %v", err)
	}

	balances := chain.Balances()
	if got, want := balances[sender.Address()], blockchain.CoinbaseReward-transferAmount; got != want {
		t.Errorf("sender balance = %v, want %v", got, want)
	}
	if got, want := balances[recipient.Address()], transferAmount; got != want {
		t.Errorf("recipient balance = %v, want %v", got, want)
	}
	if got, want := balances[miner2.Address()], blockchain.CoinbaseReward; got != want {
		t.Errorf("second miner balance = %v, want %v", got, want)
	}
}
