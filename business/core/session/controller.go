// Package session is the core API for a wallet connected session against a
// simple storage contract. It orchestrates connect, read, act and refresh
// cycles and keeps a display binding consistent with the chain.
package session

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ardanlabs/dapp/foundation/blockchain/contract"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// EventHandler defines a function that is called when events
// occur in the processing of session operations.
type EventHandler func(v string, args ...any)

// Provider represents the behavior required from a wallet.
type Provider interface {
	ChainID(ctx context.Context) (uint64, error)
	Accounts(ctx context.Context) ([]common.Address, error)
	Signer(ctx context.Context) (*bind.TransactOpts, error)
	OnChainChanged(fn func(chainID uint64)) (unsubscribe func())
}

// Gateway represents the typed contract calls the controller performs.
type Gateway interface {
	Address() common.Address
	Retrieve(ctx context.Context) (*big.Int, error)
	Owner(ctx context.Context) (common.Address, error)
	Store(ctx context.Context, value *big.Int) (common.Hash, error)
	TransferOwnership(ctx context.Context, newOwner common.Address) (common.Hash, error)
	WaitMined(ctx context.Context, hash common.Hash) error
	StoredEvents(ctx context.Context, window uint64) ([]contract.StoredEvent, error)
}

// Binder constructs a gateway bound to the specified signer.
type Binder func(signer *bind.TransactOpts) (Gateway, error)

// View represents the display surface the controller reports to.
type View interface {
	Render(b Binding)
	SetStatus(msg string)
	Alert(msg string)
	SetWarning(msg string, visible bool)
	SetEnabled(button string, enabled bool)
	Confirm(ctx context.Context, msg string) bool
	ClearInput(input string)
	RenderEvents(rows []EventRow)
	Reload()
}

// =============================================================================

// Set of resources protected by the in-flight guard.
const (
	resConnect  = "connect"
	resRefresh  = "refresh"
	resStore    = "store"
	resTransfer = "transfer"
	resEvents   = "events"
)

// DefaultEventWindow is the number of blocks searched for recent events.
const DefaultEventWindow = 100

// Config represents the configuration required to construct a controller.
type Config struct {
	Provider        Provider
	Binder          Binder
	View            View
	Capabilities    contract.Capabilities
	ContractAddress common.Address
	ExpectedChainID uint64
	NetworkName     string
	Explorer        string
	EventWindow     uint64
	EvHandler       EventHandler
}

// Controller manages the session for a single user.
type Controller struct {
	provider    Provider
	binder      Binder
	view        View
	caps        contract.Capabilities
	contract    common.Address
	expected    uint64
	networkName string
	explorer    string
	window      uint64
	evHandler   EventHandler

	mu          sync.Mutex
	state       State
	session     Session
	gateway     Gateway
	inflight    map[string]bool
	unsubscribe func()

	renderMu sync.Mutex
}

// New constructs a controller for managing a session.
func New(cfg Config) (*Controller, error) {
	if cfg.View == nil {
		return nil, errors.New("view is required")
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	window := cfg.EventWindow
	if window == 0 {
		window = DefaultEventWindow
	}

	networkName := cfg.NetworkName
	if networkName == "" {
		networkName = fmt.Sprintf("chain %d", cfg.ExpectedChainID)
	}

	c := Controller{
		provider:    cfg.Provider,
		binder:      cfg.Binder,
		view:        cfg.View,
		caps:        cfg.Capabilities,
		contract:    cfg.ContractAddress,
		expected:    cfg.ExpectedChainID,
		networkName: networkName,
		explorer:    cfg.Explorer,
		window:      window,
		evHandler:   ev,
		state:       StateDisconnected,
		inflight:    make(map[string]bool),
	}

	return &c, nil
}

// =============================================================================

// Initialize verifies the contract library is usable, checks the network the
// wallet is on and reconnects an already authorized account.
func (c *Controller) Initialize(ctx context.Context) error {
	c.evHandler("session: Initialize: started")
	defer c.evHandler("session: Initialize: completed")

	if c.binder == nil {
		c.view.SetStatus("Contract library failed to load!")
		return newError(KindLoad, ErrLibraryMissing)
	}

	c.view.SetStatus("Contract library loaded successfully!")
	c.render()

	if c.provider == nil {
		c.evHandler("session: Initialize: no wallet provider")
		return nil
	}

	chainID, err := c.provider.ChainID(ctx)
	if err != nil {
		c.evHandler("session: Initialize: chain id: ERROR: %s", err)
		return nil
	}
	c.checkNetwork(chainID)

	accounts, err := c.provider.Accounts(ctx)
	if err != nil {
		c.evHandler("session: Initialize: accounts: ERROR: %s", err)
		return nil
	}

	if len(accounts) == 0 {
		c.evHandler("session: Initialize: no authorized accounts")
		return nil
	}

	return c.Connect(ctx)
}

// Connect acquires a signer from the wallet, binds the contract to it and
// loads the contract data.
func (c *Controller) Connect(ctx context.Context) error {
	c.evHandler("session: Connect: started")
	defer c.evHandler("session: Connect: completed")

	if c.binder == nil {
		return newError(KindLoad, ErrLibraryMissing)
	}

	if c.provider == nil {
		c.view.Alert(fmt.Sprintf("Connect wallet failed: %s", ErrNoProvider))
		return newError(KindConnection, ErrNoProvider)
	}

	if err := c.acquire(resConnect); err != nil {
		return err
	}
	defer c.release(resConnect)

	c.mu.Lock()
	{
		if c.state == StateConnected {
			c.mu.Unlock()
			return nil
		}
		c.state = StateConnecting
	}
	c.mu.Unlock()

	signer, err := c.provider.Signer(ctx)
	if err != nil {
		return c.connectFailed(err)
	}

	gw, err := c.binder(signer)
	if err != nil {
		return c.connectFailed(err)
	}

	addr := signer.From

	c.mu.Lock()
	{
		c.state = StateConnected
		c.gateway = gw
		c.session = Session{Address: &addr}
	}
	c.mu.Unlock()

	c.evHandler("session: Connect: account[%s]", addr)
	c.render()

	// A failed read has already been reported and keeps the connection.
	if err := c.refresh(ctx); err != nil {
		c.evHandler("session: Connect: refresh: ERROR: %s", err)
	}

	c.updateNetworkInfo(ctx)

	c.mu.Lock()
	register := c.unsubscribe == nil
	c.mu.Unlock()

	if register {
		unsubscribe := c.provider.OnChainChanged(func(chainID uint64) {
			c.evHandler("session: chain changed: chainID[%d]", chainID)
			c.view.Reload()
		})

		c.mu.Lock()
		c.unsubscribe = unsubscribe
		c.mu.Unlock()
	}

	return nil
}

// Disconnect drops the session by reloading the display surface.
func (c *Controller) Disconnect() {
	c.evHandler("session: Disconnect: reload")
	c.view.Reload()
}

// Reset drops the session, the bound contract and the chain listener. It is
// the teardown half of a reload.
func (c *Controller) Reset() {
	c.evHandler("session: Reset")

	c.mu.Lock()
	unsubscribe := c.unsubscribe
	{
		c.unsubscribe = nil
		c.state = StateDisconnected
		c.session = Session{}
		c.gateway = nil
	}
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}

	c.view.RenderEvents(nil)
	c.render()
}

// Snapshot returns a copy of the current controller state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		State:        c.state,
		Session:      c.session.Copy(),
		Binding:      Project(c.session, c.caps, c.contract),
		Buttons:      c.buttons(),
		Capabilities: c.caps,
		Contract:     c.contract,
	}
}

// Capabilities returns the capabilities of the configured contract variant.
func (c *Controller) Capabilities() contract.Capabilities {
	return c.caps
}

// =============================================================================

func (c *Controller) connectFailed(err error) error {
	c.mu.Lock()
	c.state = StateDisconnected
	c.mu.Unlock()

	c.evHandler("session: Connect: ERROR: %s", err)
	c.view.Alert(fmt.Sprintf("Connect wallet failed: %s", err))
	c.render()

	return newError(KindConnection, err)
}

func (c *Controller) checkNetwork(chainID uint64) {
	if chainID == c.expected {
		c.view.SetWarning("", false)
		return
	}

	c.evHandler("session: wrong network: chainID[%d] expected[%d]", chainID, c.expected)
	c.view.SetWarning(fmt.Sprintf("Wrong network! Please switch to %s (Chain ID: %d)", c.networkName, c.expected), true)
}

func (c *Controller) updateNetworkInfo(ctx context.Context) {
	chainID, err := c.provider.ChainID(ctx)
	if err != nil {
		c.evHandler("session: network info: ERROR: %s", err)
		chainID = 0
	}

	c.mu.Lock()
	{
		if c.state == StateConnected {
			c.session.ChainID = chainID
		}
	}
	c.mu.Unlock()

	if chainID != 0 {
		c.checkNetwork(chainID)
	}

	c.render()
}

// connected returns the bound gateway and account when a session exists.
func (c *Controller) connected() (Gateway, common.Address, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateConnected || c.gateway == nil || c.session.Address == nil {
		return nil, common.Address{}, newError(KindConnection, ErrNotConnected)
	}

	return c.gateway, *c.session.Address, nil
}

// =============================================================================

// acquire marks the resource as in use and disables its button. A second
// caller gets a busy error.
func (c *Controller) acquire(resource string) error {
	c.mu.Lock()
	if c.inflight[resource] {
		c.mu.Unlock()
		c.evHandler("session: %s: busy", resource)
		return newError(KindBusy, fmt.Errorf("%s: %w", resource, ErrBusy))
	}
	c.inflight[resource] = true
	c.mu.Unlock()

	c.render()
	return nil
}

func (c *Controller) release(resource string) {
	c.mu.Lock()
	delete(c.inflight, resource)
	c.mu.Unlock()

	c.render()
}

// buttons computes button availability. The caller must hold mu.
func (c *Controller) buttons() map[string]bool {
	connected := c.state == StateConnected

	canStore := connected
	if c.caps.HasOwner {
		canStore = connected && c.session.IsOwner
	}

	return map[string]bool{
		ButtonConnect:  c.state == StateDisconnected && !c.inflight[resConnect],
		ButtonStore:    canStore && !c.inflight[resStore],
		ButtonTransfer: connected && c.caps.HasTransfer && c.session.IsOwner && !c.inflight[resTransfer],
	}
}

// render pushes the current binding and button state to the view. The
// state is read while holding renderMu so the last render to reach the view
// always carries the latest state.
func (c *Controller) render() {
	c.renderMu.Lock()
	defer c.renderMu.Unlock()

	c.mu.Lock()
	binding := Project(c.session, c.caps, c.contract)
	buttons := c.buttons()
	c.mu.Unlock()

	c.view.Render(binding)
	for _, btn := range []string{ButtonConnect, ButtonStore, ButtonTransfer} {
		c.view.SetEnabled(btn, buttons[btn])
	}
}
