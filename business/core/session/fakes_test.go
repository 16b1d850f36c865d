package session_test

import (
	"context"
	"math/big"
	"sync"

	"github.com/ardanlabs/dapp/business/core/session"
	"github.com/ardanlabs/dapp/foundation/blockchain/contract"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const expectedChainID = 91342

var (
	contractAddr = common.HexToAddress("0x30bDe02387EA7967b8C75a5189a1b2A61F8F4e22")
	ownerAddr    = common.HexToAddress("0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4")
	otherAddr    = common.HexToAddress("0xF01813E4B85e178A83e29B8E7bF26BD830a25f32")
)

var (
	owned = contract.Capabilities{HasOwner: true, HasTransfer: true, HasEvents: true}
	basic = contract.Capabilities{}
)

// =============================================================================

type provider struct {
	mu           sync.Mutex
	chainID      uint64
	chainErr     error
	accounts     []common.Address
	from         common.Address
	signerErr    error
	handlers     []func(uint64)
	unsubscribed int
}

func (p *provider) ChainID(ctx context.Context) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.chainID, p.chainErr
}

func (p *provider) Accounts(ctx context.Context) ([]common.Address, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.accounts, nil
}

func (p *provider) Signer(ctx context.Context) (*bind.TransactOpts, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.signerErr != nil {
		return nil, p.signerErr
	}
	return &bind.TransactOpts{From: p.from, Context: ctx}, nil
}

func (p *provider) OnChainChanged(fn func(uint64)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers = append(p.handlers, fn)
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.unsubscribed++
	}
}

func (p *provider) fire(chainID uint64) {
	p.mu.Lock()
	handlers := append([]func(uint64){}, p.handlers...)
	p.mu.Unlock()

	for _, fn := range handlers {
		fn(chainID)
	}
}

// =============================================================================

type gateway struct {
	mu          sync.Mutex
	value       *big.Int
	owner       common.Address
	retrieveErr error
	ownerErr    error
	storeErr    error
	transferErr error
	waitErr     error
	events      []contract.StoredEvent
	eventsErr   error
	window      uint64
	calls       map[string]int

	entered chan struct{}
	proceed chan struct{}
}

func newGateway(value int64) *gateway {
	return &gateway{
		value: big.NewInt(value),
		owner: ownerAddr,
		calls: make(map[string]int),
	}
}

func (g *gateway) called(method string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[method]
}

func (g *gateway) Address() common.Address {
	return contractAddr
}

func (g *gateway) Retrieve(ctx context.Context) (*big.Int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls["retrieve"]++
	if g.retrieveErr != nil {
		return nil, g.retrieveErr
	}
	return new(big.Int).Set(g.value), nil
}

func (g *gateway) Owner(ctx context.Context) (common.Address, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls["owner"]++
	return g.owner, g.ownerErr
}

func (g *gateway) Store(ctx context.Context, value *big.Int) (common.Hash, error) {
	g.mu.Lock()
	g.calls["store"]++
	entered, proceed := g.entered, g.proceed
	g.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
		<-proceed
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.storeErr != nil {
		return common.Hash{}, g.storeErr
	}
	g.value = new(big.Int).Set(value)
	return common.HexToHash("0x01"), nil
}

func (g *gateway) TransferOwnership(ctx context.Context, newOwner common.Address) (common.Hash, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls["transfer"]++
	if g.transferErr != nil {
		return common.Hash{}, g.transferErr
	}
	g.owner = newOwner
	return common.HexToHash("0x02"), nil
}

func (g *gateway) WaitMined(ctx context.Context, hash common.Hash) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.waitErr
}

func (g *gateway) StoredEvents(ctx context.Context, window uint64) ([]contract.StoredEvent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.window = window
	return append([]contract.StoredEvent{}, g.events...), g.eventsErr
}

// =============================================================================

type view struct {
	mu             sync.Mutex
	binding        session.Binding
	status         string
	alerts         []string
	warning        string
	warningVisible bool
	buttons        map[string]bool
	confirm        bool
	confirms       []string
	cleared        []string
	rows           []session.EventRow
	reloads        int
}

func newView() *view {
	return &view{buttons: make(map[string]bool), confirm: true}
}

func (v *view) Render(b session.Binding) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.binding = b.Copy()
}

func (v *view) SetStatus(msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.status = msg
}

func (v *view) Alert(msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.alerts = append(v.alerts, msg)
}

func (v *view) SetWarning(msg string, visible bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.warning = msg
	v.warningVisible = visible
}

func (v *view) SetEnabled(button string, enabled bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.buttons[button] = enabled
}

func (v *view) Confirm(ctx context.Context, msg string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.confirms = append(v.confirms, msg)
	return v.confirm
}

func (v *view) ClearInput(input string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cleared = append(v.cleared, input)
}

func (v *view) RenderEvents(rows []session.EventRow) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rows = rows
}

func (v *view) Reload() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.reloads++
}

func (v *view) field(name string) string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.binding[name]
}

func (v *view) enabled(button string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.buttons[button]
}

func (v *view) lastAlert() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.alerts) == 0 {
		return ""
	}
	return v.alerts[len(v.alerts)-1]
}

func (v *view) currentStatus() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status
}

// =============================================================================

type harness struct {
	ctrl *session.Controller
	prov *provider
	gw   *gateway
	view *view
}

func newHarness(caps contract.Capabilities, from common.Address, value int64) harness {
	prov := provider{chainID: expectedChainID, from: from}
	gw := newGateway(value)
	v := newView()

	ctrl, _ := session.New(session.Config{
		Provider: &prov,
		Binder: func(signer *bind.TransactOpts) (session.Gateway, error) {
			return gw, nil
		},
		View:            v,
		Capabilities:    caps,
		ContractAddress: contractAddr,
		ExpectedChainID: expectedChainID,
		NetworkName:     "Giwa Sepolia",
		Explorer:        "https://sepolia-explorer.giwa.io",
	})

	return harness{ctrl: ctrl, prov: &prov, gw: gw, view: v}
}
