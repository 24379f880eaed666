// Command utxochaind is the CLI front-end for the UTXO chain engine: five
// commands backed by the internal/blockchain, internal/wallet,
// internal/miner, and internal/store packages. It plays the role the
// teacher's cli.CommandLine plays for its own five-command surface
// (getbalance/createblockchain/send/createwallet/startnode), generalized
// to this engine's commands and rebuilt on flag.FlagSet the same way.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"syscall"
	"time"

	"github.com/vrecan/death/v3"
	"go.uber.org/zap"

	"github.com/kilimba/utxochain/internal/blockchain"
	"github.com/kilimba/utxochain/internal/chainerr"
	"github.com/kilimba/utxochain/internal/metrics"
	"github.com/kilimba/utxochain/internal/miner"
	"github.com/kilimba/utxochain/internal/store"
)

func main() {
	cli := &commandLine{}
	cli.run()
}

type commandLine struct {
	log *zap.Logger
}

func (c *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println(" createwallet - create a new wallet and print its address")
	fmt.Println(" balance -address ADDRESS - show the balance of an address")
	fmt.Println(" transfer -from FROM -to TO -amount AMOUNT - move coins from one address to another")
	fmt.Println(" mempool - list waiting mempool transactions")
	fmt.Println(" mine -address ADDRESS - mine a block, awarding the coinbase to ADDRESS")
}

func (c *commandLine) fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func (c *commandLine) run() {
	logger, err := zap.NewProduction()
	if err != nil {
		logger = zap.NewNop()
	}
	c.log = logger
	defer c.log.Sync()

	if len(os.Args) < 2 {
		c.printUsage()
		runtime.Goexit()
	}

	dataDir := os.Getenv("UTXOCHAIN_DATA_DIR")
	if dataDir == "" {
		dataDir = "./tmp/utxochain"
	}
	metricsAddr := os.Getenv("UTXOCHAIN_METRICS_ADDR")

	db, err := store.Open(dataDir, c.log)
	if err != nil {
		c.fatal(err)
	}
	defer db.Close()

	if metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				c.log.Warn("metrics server stopped", zap.Error(err))
			}
		}()
	}

	createWalletCmd := flag.NewFlagSet("createwallet", flag.ExitOnError)
	balanceCmd := flag.NewFlagSet("balance", flag.ExitOnError)
	transferCmd := flag.NewFlagSet("transfer", flag.ExitOnError)
	mempoolCmd := flag.NewFlagSet("mempool", flag.ExitOnError)
	mineCmd := flag.NewFlagSet("mine", flag.ExitOnError)

	balanceAddress := balanceCmd.String("address", "", "wallet address to inspect")
	transferFrom := transferCmd.String("from", "", "source wallet address")
	transferTo := transferCmd.String("to", "", "destination wallet address")
	transferAmount := transferCmd.Float64("amount", 0, "amount to transfer")
	mineAddress := mineCmd.String("address", "", "address to receive the coinbase reward")
	mineWorkers := mineCmd.Int("workers", runtime.NumCPU(), "number of parallel nonce-search workers")
	mineBatch := mineCmd.Int64("batch", 1<<20, "nonce batch size per worker dispatch")

	switch os.Args[1] {
	case "createwallet":
		must(createWalletCmd.Parse(os.Args[2:]))
	case "balance":
		must(balanceCmd.Parse(os.Args[2:]))
	case "transfer":
		must(transferCmd.Parse(os.Args[2:]))
	case "mempool":
		must(mempoolCmd.Parse(os.Args[2:]))
	case "mine":
		must(mineCmd.Parse(os.Args[2:]))
	default:
		c.printUsage()
		runtime.Goexit()
	}

	switch {
	case createWalletCmd.Parsed():
		c.createWallet(db)
	case balanceCmd.Parsed():
		if *balanceAddress == "" {
			balanceCmd.Usage()
			runtime.Goexit()
		}
		c.balance(db, *balanceAddress)
	case transferCmd.Parsed():
		if *transferFrom == "" || *transferTo == "" {
			transferCmd.Usage()
			runtime.Goexit()
		}
		c.transfer(db, *transferFrom, *transferTo, float32(*transferAmount))
	case mempoolCmd.Parsed():
		c.listMempool(db)
	case mineCmd.Parsed():
		if *mineAddress == "" {
			mineCmd.Usage()
			runtime.Goexit()
		}
		c.mine(db, *mineAddress, *mineWorkers, *mineBatch)
	}
}

func must(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func (c *commandLine) createWallet(db *store.Store) {
	w, err := db.WalletRegistry().GenerateUnique()
	if err != nil {
		c.fatal(err)
	}
	fmt.Println(w.Address().String())
}

func (c *commandLine) balance(db *store.Store, addressHex string) {
	address, err := blockchain.AddressFromHex(addressHex)
	if err != nil {
		c.fatal(err)
	}

	chain, err := db.Chain().Load()
	if err != nil {
		c.fatal(err)
	}
	if chain == nil {
		chain = blockchain.NewChain(nil)
	}
	metrics.UTXOSetSize.Set(float64(len(chain.UTXOSet(nil))))
	fmt.Printf("%.2f\n", chain.Balance(address))
}

func (c *commandLine) transfer(db *store.Store, fromHex, toHex string, amount float32) {
	from, err := blockchain.AddressFromHex(fromHex)
	if err != nil {
		c.fatal(err)
	}
	to, err := blockchain.AddressFromHex(toHex)
	if err != nil {
		c.fatal(err)
	}

	senderWallet, err := db.WalletRegistry().Load(from)
	if err != nil {
		c.fatal(err)
	}

	chain, err := db.Chain().Load()
	if err != nil {
		c.fatal(err)
	}

	tx, err := buildTransferTransaction(chain, from, to, amount, senderWallet.Sign, nowMillis())
	if err != nil {
		c.fatal(err)
	}

	if err := db.Mempool().Save(tx); err != nil {
		c.fatal(err)
	}
	fmt.Printf("%x\n", tx.ID())
}

// buildTransferTransaction assembles and signs a transfer of amount from
// from to to against chain's current UTXO set, selecting inputs from the
// sender's unspent outputs and returning the sender's change as a second
// output when the selected inputs overspend the requested amount.
//
// The balance check runs before any input is selected or transaction is
// built, so a transfer that exceeds the sender's balance fails with
// InsufficientFunds without constructing a transaction at all.
func buildTransferTransaction(chain *blockchain.Chain, from, to blockchain.Address, amount float32, sign func(*blockchain.Transaction) error, timestamp int64) (*blockchain.Transaction, error) {
	if chain == nil {
		return nil, chainerr.New(chainerr.InvalidArgument, "no chain exists yet")
	}

	balance := chain.Balance(from)
	if amount > balance {
		return nil, chainerr.New(chainerr.InsufficientFunds, "balance %v is less than requested amount %v", balance, amount)
	}

	addresses := map[blockchain.Address]struct{}{from: {}}
	utxo := chain.UTXOSet(addresses)

	var inputs []blockchain.TransactionInput
	var spent float32
	for outpoint := range utxo {
		out := utxo[outpoint]
		inputs = append(inputs, blockchain.NewTransactionInput(outpoint))
		spent += out.Amount
		if spent >= amount {
			break
		}
	}

	outputs := []blockchain.TransactionOutput{}
	primary, err := blockchain.NewTransactionOutput(to, amount)
	if err != nil {
		return nil, err
	}
	outputs = append(outputs, primary)
	if spent > amount {
		change, err := blockchain.NewTransactionOutput(from, spent-amount)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, change)
	}

	tx, err := blockchain.NewTransaction(timestamp, inputs, outputs)
	if err != nil {
		return nil, err
	}
	if err := sign(tx); err != nil {
		return nil, err
	}
	return tx, nil
}

func (c *commandLine) listMempool(db *store.Store) {
	txs, err := db.Mempool().Load()
	if err != nil {
		c.fatal(err)
	}
	metrics.MempoolSize.Set(float64(len(txs)))
	for _, tx := range txs {
		fmt.Printf("%x\n", tx.ID())
	}
}

func (c *commandLine) mine(db *store.Store, addressHex string, workers int, batch int64) {
	address, err := blockchain.AddressFromHex(addressHex)
	if err != nil {
		c.fatal(err)
	}

	recipient, err := db.WalletRegistry().Load(address)
	if err != nil {
		c.fatal(err)
	}

	chain, err := db.Chain().Load()
	if err != nil {
		c.fatal(err)
	}

	mempoolTxs, err := db.Mempool().Load()
	if err != nil {
		c.fatal(err)
	}
	metrics.MempoolSize.Set(float64(len(mempoolTxs)))

	ctx, cancel := context.WithCancel(context.Background())
	d := death.NewDeath(syscall.SIGINT, syscall.SIGTERM)
	go d.WaitForDeathWithFunc(func() {
		c.log.Info("shutdown signal received, cancelling mining")
		cancel()
	})

	start := time.Now()
	coordinator := miner.NewCoordinator(workers, batch, c.log)
	block, err := coordinator.Mine(ctx, chain, recipient, mempoolTxs, nowMillis())
	if err != nil {
		c.fatal(err)
	}
	if block == nil {
		fmt.Println("nonce space exhausted, no block produced")
		return
	}
	metrics.MiningDuration.Observe(time.Since(start).Seconds())

	newChain := blockchain.NewChain(chainBlocksOf(chain))
	if err := newChain.Append(block); err != nil {
		c.fatal(err)
	}
	if err := db.Chain().SaveChain(newChain); err != nil {
		c.fatal(err)
	}
	if err := db.Mempool().Remove(minedTransactions(block)); err != nil {
		c.fatal(err)
	}

	metrics.BlocksMined.Inc()
	metrics.ChainHeight.Set(float64(len(newChain.Blocks)))
	metrics.UTXOSetSize.Set(float64(len(newChain.UTXOSet(nil))))
	fmt.Printf("%x\n", block.ID())
}

func chainBlocksOf(chain *blockchain.Chain) []*blockchain.Block {
	if chain == nil {
		return nil
	}
	return chain.Blocks
}

func minedTransactions(block *blockchain.Block) []*blockchain.Transaction {
	var txs []*blockchain.Transaction
	for _, tx := range block.Transactions {
		if !tx.IsCoinbase() {
			txs = append(txs, tx)
		}
	}
	return txs
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
