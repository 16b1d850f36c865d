// Package wallet implements a wallet provider backed by a folder of ECDSA key
// files. It reports the network id, the authorized accounts and produces
// signers, and it notifies subscribers when the network id changes.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ardanlabs/dapp/foundation/nameservice"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Set of errors returned by the wallet.
var (
	ErrUserRejected = errors.New("user rejected the request")
	ErrNoAccount    = errors.New("no authorized account")
)

// defaultPollInterval is how often the network id is checked for changes.
const defaultPollInterval = 5 * time.Second

// ChainReader is the chain access the wallet needs. An ethclient.Client
// satisfies this interface.
type ChainReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
}

// EventHandler defines a function that is called when events
// occur in the wallet.
type EventHandler func(v string, args ...any)

// Approver decides whether a transaction may be signed. Returning false
// rejects the signature with ErrUserRejected.
type Approver func(tx *types.Transaction) bool

// Config represents the configuration required to construct a wallet.
type Config struct {
	Chain        ChainReader
	Names        *nameservice.NameService
	Account      string
	Approve      Approver
	PollInterval time.Duration
	EvHandler    EventHandler
}

// Wallet provides accounts and signers from a key folder.
type Wallet struct {
	chain     ChainReader
	names     *nameservice.NameService
	account   string
	approve   Approver
	poll      time.Duration
	evHandler EventHandler

	mu        sync.Mutex
	handlers  map[int]func(chainID uint64)
	nextID    int
	lastChain uint64
	polling   bool
	shut      chan struct{}
	wg        sync.WaitGroup
}

// New constructs a wallet for use.
func New(cfg Config) (*Wallet, error) {
	if cfg.Chain == nil {
		return nil, errors.New("chain reader is required")
	}

	if cfg.Names == nil {
		return nil, errors.New("name service is required")
	}

	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	poll := cfg.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}

	w := Wallet{
		chain:     cfg.Chain,
		names:     cfg.Names,
		account:   strings.TrimSpace(cfg.Account),
		approve:   cfg.Approve,
		poll:      poll,
		evHandler: ev,
		handlers:  make(map[int]func(uint64)),
	}

	return &w, nil
}

// Shutdown stops the network watcher if it is running.
func (w *Wallet) Shutdown() {
	w.mu.Lock()
	polling := w.polling
	shut := w.shut
	w.polling = false
	w.mu.Unlock()

	if !polling {
		return
	}

	w.evHandler("wallet: shutdown: stop network watcher")
	close(shut)
	w.wg.Wait()
}

// ChainID returns the id of the network the wallet is talking to.
func (w *Wallet) ChainID(ctx context.Context) (uint64, error) {
	id, err := w.chain.ChainID(ctx)
	if err != nil {
		return 0, fmt.Errorf("chain id: %w", err)
	}

	if !id.IsUint64() {
		return 0, fmt.Errorf("chain id %s out of range", id)
	}

	return id.Uint64(), nil
}

// Accounts returns the accounts the wallet is authorized to use. When an
// account is configured only that account is returned.
func (w *Wallet) Accounts(ctx context.Context) ([]common.Address, error) {
	if w.account == "" {
		return w.names.Accounts(), nil
	}

	account, err := w.resolve(w.account)
	if err != nil {
		return nil, err
	}

	return []common.Address{account}, nil
}

// Signer loads the key of the active account and returns transaction
// options bound to the current network id.
func (w *Wallet) Signer(ctx context.Context) (*bind.TransactOpts, error) {
	var account common.Address
	switch w.account {
	case "":
		accounts := w.names.Accounts()
		if len(accounts) == 0 {
			return nil, ErrNoAccount
		}
		account = accounts[0]

	default:
		var err error
		if account, err = w.resolve(w.account); err != nil {
			return nil, err
		}
	}

	path, _ := w.names.KeyPath(account)
	privateKey, err := crypto.LoadECDSA(path)
	if err != nil {
		return nil, fmt.Errorf("loading key for %s: %w", account, err)
	}

	chainID, err := w.chain.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain id: %w", err)
	}

	opts, err := bind.NewKeyedTransactorWithChainID(privateKey, chainID)
	if err != nil {
		return nil, fmt.Errorf("transactor: %w", err)
	}
	opts.Context = ctx

	if w.approve != nil {
		sign := opts.Signer
		approve := w.approve
		opts.Signer = func(from common.Address, tx *types.Transaction) (*types.Transaction, error) {
			if !approve(tx) {
				w.evHandler("wallet: signer: rejected: nonce[%d]", tx.Nonce())
				return nil, ErrUserRejected
			}
			return sign(from, tx)
		}
	}

	w.evHandler("wallet: signer: account[%s]", w.names.Lookup(account))

	return opts, nil
}

// OnChainChanged registers a function that is called with the new network id
// whenever the network changes. The returned function removes the
// registration.
func (w *Wallet) OnChainChanged(fn func(chainID uint64)) (unsubscribe func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := w.nextID
	w.nextID++
	w.handlers[id] = fn

	if !w.polling {
		w.polling = true
		w.shut = make(chan struct{})

		shut := w.shut
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.watchNetwork(shut)
		}()
	}

	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.handlers, id)
	}
}

// =============================================================================

// resolve turns a configured account name or hex address into a known
// account.
func (w *Wallet) resolve(account string) (common.Address, error) {
	if common.IsHexAddress(account) {
		addr := common.HexToAddress(account)
		if _, exists := w.names.KeyPath(addr); exists {
			return addr, nil
		}
		return common.Address{}, fmt.Errorf("%s: %w", account, ErrNoAccount)
	}

	if addr, exists := w.names.Find(account); exists {
		return addr, nil
	}

	return common.Address{}, fmt.Errorf("%s: %w", account, ErrNoAccount)
}

// watchNetwork polls the network id and signals the registered handlers on
// every change.
func (w *Wallet) watchNetwork(shut <-chan struct{}) {
	w.evHandler("wallet: watchNetwork: G started")
	defer w.evHandler("wallet: watchNetwork: G completed")

	ticker := time.NewTicker(w.poll)
	defer ticker.Stop()

	w.checkNetwork()

	for {
		select {
		case <-ticker.C:
			w.checkNetwork()
		case <-shut:
			w.evHandler("wallet: watchNetwork: received shut signal")
			return
		}
	}
}

// checkNetwork reads the network id once and fires handlers if it moved.
func (w *Wallet) checkNetwork() {
	ctx, cancel := context.WithTimeout(context.Background(), w.poll)
	defer cancel()

	chainID, err := w.ChainID(ctx)
	if err != nil {
		w.evHandler("wallet: checkNetwork: ERROR: %s", err)
		return
	}

	w.mu.Lock()
	previous := w.lastChain
	w.lastChain = chainID
	handlers := make([]func(uint64), 0, len(w.handlers))
	for _, fn := range w.handlers {
		handlers = append(handlers, fn)
	}
	w.mu.Unlock()

	if previous == 0 || previous == chainID {
		return
	}

	w.evHandler("wallet: checkNetwork: network changed: %d -> %d", previous, chainID)
	for _, fn := range handlers {
		fn(chainID)
	}
}
