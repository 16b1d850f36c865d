package session

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/ardanlabs/dapp/foundation/blockchain/contract"
	"github.com/ethereum/go-ethereum/common"
)

// Refresh reads the stored value and the owner and updates the session.
func (c *Controller) Refresh(ctx context.Context) error {
	if _, _, err := c.connected(); err != nil {
		return err
	}

	if err := c.acquire(resRefresh); err != nil {
		return err
	}
	defer c.release(resRefresh)

	return c.refresh(ctx)
}

func (c *Controller) refresh(ctx context.Context) error {
	gw, addr, err := c.connected()
	if err != nil {
		return err
	}

	value, err := gw.Retrieve(ctx)
	if err != nil {
		return c.readFailed(err)
	}

	var owner *common.Address
	var isOwner bool

	if c.caps.HasOwner {
		o, err := gw.Owner(ctx)
		if err != nil {
			return c.readFailed(err)
		}

		owner = &o
		isOwner = addr == o
	}

	c.mu.Lock()
	{
		// The session was reset or rebound while the reads were running.
		if c.gateway != gw {
			c.mu.Unlock()
			return newError(KindConnection, ErrNotConnected)
		}

		c.session.Value = value
		c.session.Owner = owner
		c.session.IsOwner = isOwner
		c.session.Stale = false
	}
	c.mu.Unlock()

	c.evHandler("session: refresh: value[%s] isOwner[%t]", value, isOwner)
	c.render()

	return nil
}

func (c *Controller) readFailed(err error) error {
	c.mu.Lock()
	c.session.Stale = true
	c.mu.Unlock()

	c.evHandler("session: refresh: ERROR: %s", err)
	c.view.Alert(fmt.Sprintf("Error loading contract data: %s", err))

	return newError(KindRead, err)
}

// =============================================================================

// SubmitStore validates the input and stores it in the contract, waiting for
// the transaction to be mined.
func (c *Controller) SubmitStore(ctx context.Context, input string) (common.Hash, error) {
	c.evHandler("session: SubmitStore: started: input[%s]", input)
	defer c.evHandler("session: SubmitStore: completed")

	value, err := ParseValue(input)
	if err != nil {
		c.view.Alert("Please enter a valid number >= 0")
		return common.Hash{}, newError(KindValidation, err)
	}

	gw, _, err := c.connected()
	if err != nil {
		c.view.SetStatus(fmt.Sprintf("Transaction failed: %s", err))
		return common.Hash{}, err
	}

	if err := c.acquire(resStore); err != nil {
		return common.Hash{}, err
	}
	defer c.release(resStore)

	c.view.SetStatus("Submitting transaction...")

	hash, err := gw.Store(ctx, value)
	if err != nil {
		return common.Hash{}, c.txFailed("Transaction failed", err)
	}

	c.view.SetStatus(fmt.Sprintf("Transaction pending... %s", contract.TxURL(c.explorer, hash)))

	if err := gw.WaitMined(ctx, hash); err != nil {
		return hash, c.txFailed("Transaction failed", err)
	}

	c.evHandler("session: SubmitStore: mined: tx[%s]", hash)
	c.view.SetStatus("Value stored successfully!")

	if err := c.refresh(ctx); err != nil {
		c.evHandler("session: SubmitStore: refresh: ERROR: %s", err)
	}

	c.view.ClearInput(InputValue)

	return hash, nil
}

// SubmitTransferOwnership validates the address, asks for confirmation and
// transfers ownership of the contract, waiting for the transaction to be
// mined.
func (c *Controller) SubmitTransferOwnership(ctx context.Context, input string) (common.Hash, error) {
	c.evHandler("session: SubmitTransferOwnership: started: input[%s]", input)
	defer c.evHandler("session: SubmitTransferOwnership: completed")

	if !c.caps.HasTransfer {
		return common.Hash{}, c.unsupported("Ownership transfer")
	}

	newOwner, err := ParseAddress(input)
	if err != nil {
		c.view.Alert("Invalid Ethereum address")
		return common.Hash{}, newError(KindValidation, err)
	}

	gw, _, err := c.connected()
	if err != nil {
		c.view.SetStatus(fmt.Sprintf("Transfer failed: %s", err))
		return common.Hash{}, err
	}

	if !c.view.Confirm(ctx, fmt.Sprintf("Transfer ownership to %s? This cannot be undone!", newOwner.Hex())) {
		c.evHandler("session: SubmitTransferOwnership: declined")
		return common.Hash{}, newError(KindCancelled, ErrCancelled)
	}

	if err := c.acquire(resTransfer); err != nil {
		return common.Hash{}, err
	}
	defer c.release(resTransfer)

	hash, err := gw.TransferOwnership(ctx, newOwner)
	if err != nil {
		return common.Hash{}, c.txFailed("Transfer failed", err)
	}

	c.view.SetStatus(fmt.Sprintf("Transfer pending... %s", contract.TxURL(c.explorer, hash)))

	if err := gw.WaitMined(ctx, hash); err != nil {
		return hash, c.txFailed("Transfer failed", err)
	}

	c.evHandler("session: SubmitTransferOwnership: mined: tx[%s] owner[%s]", hash, newOwner)
	c.view.SetStatus("Ownership transferred!")

	if err := c.refresh(ctx); err != nil {
		c.evHandler("session: SubmitTransferOwnership: refresh: ERROR: %s", err)
	}

	c.view.ClearInput(InputNewOwner)

	return hash, nil
}

func (c *Controller) txFailed(prefix string, err error) error {
	c.evHandler("session: transaction: ERROR: %s", err)

	if isRejection(err) {
		c.view.SetStatus("User denied transaction.")
		return newError(KindRejected, err)
	}

	c.view.SetStatus(fmt.Sprintf("%s: %s", prefix, err))
	return newError(KindTransaction, err)
}

// =============================================================================

// ListRecentEvents returns the NumberStored events emitted within the recent
// block window, newest first.
func (c *Controller) ListRecentEvents(ctx context.Context) ([]EventRow, error) {
	if !c.caps.HasEvents {
		return nil, c.unsupported("Event history")
	}

	gw, _, err := c.connected()
	if err != nil {
		c.view.Alert(fmt.Sprintf("Could not load events: %s", err))
		return nil, err
	}

	if err := c.acquire(resEvents); err != nil {
		return nil, err
	}
	defer c.release(resEvents)

	events, err := gw.StoredEvents(ctx, c.window)
	if err != nil {
		c.evHandler("session: ListRecentEvents: ERROR: %s", err)
		c.view.Alert(fmt.Sprintf("Could not load events: %s", err))
		return nil, newError(KindRead, err)
	}

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].BlockNumber != events[j].BlockNumber {
			return events[i].BlockNumber > events[j].BlockNumber
		}
		return events[i].LogIndex > events[j].LogIndex
	})

	rows := make([]EventRow, 0, len(events))
	for _, e := range events {
		rows = append(rows, EventRow{
			Text:        fmt.Sprintf("Value stored: %s", e.Value),
			Value:       e.Value.String(),
			TxHash:      e.TxHash.Hex(),
			Link:        contract.TxURL(c.explorer, e.TxHash),
			BlockNumber: e.BlockNumber,
		})
	}

	if len(rows) == 0 {
		rows = append(rows, EventRow{Text: "No recent events found.", Placeholder: true})
	}

	c.view.RenderEvents(rows)

	return rows, nil
}

// =============================================================================

// ReadValue performs a one off read of the stored value.
func (c *Controller) ReadValue(ctx context.Context) (*big.Int, error) {
	gw, _, err := c.connected()
	if err != nil {
		c.view.Alert(fmt.Sprintf("Error: %s", err))
		return nil, err
	}

	value, err := gw.Retrieve(ctx)
	if err != nil {
		c.view.Alert(fmt.Sprintf("Error: %s", err))
		return nil, newError(KindRead, err)
	}

	c.view.Alert(fmt.Sprintf("retrieve() returned: %s", value))

	return value, nil
}

// ReadOwner performs a one off read of the contract owner.
func (c *Controller) ReadOwner(ctx context.Context) (common.Address, error) {
	if !c.caps.HasOwner {
		return common.Address{}, c.unsupported("Owner lookup")
	}

	gw, _, err := c.connected()
	if err != nil {
		c.view.Alert(fmt.Sprintf("Error: %s", err))
		return common.Address{}, err
	}

	owner, err := gw.Owner(ctx)
	if err != nil {
		c.view.Alert(fmt.Sprintf("Error: %s", err))
		return common.Address{}, newError(KindRead, err)
	}

	c.view.Alert(fmt.Sprintf("Current owner: %s", owner.Hex()))

	return owner, nil
}

// Info represents the combined contract reads.
type Info struct {
	Value *big.Int        `json:"value"`
	Owner *common.Address `json:"owner,omitempty"`
}

// ContractInfo reads the value and, when supported, the owner in one go.
func (c *Controller) ContractInfo(ctx context.Context) (Info, error) {
	gw, _, err := c.connected()
	if err != nil {
		c.view.Alert(fmt.Sprintf("Error: %s", err))
		return Info{}, err
	}

	value, err := gw.Retrieve(ctx)
	if err != nil {
		c.view.Alert(fmt.Sprintf("Error: %s", err))
		return Info{}, newError(KindRead, err)
	}

	info := Info{Value: value}
	ownerText := textNotApplicable

	if c.caps.HasOwner {
		owner, err := gw.Owner(ctx)
		if err != nil {
			c.view.Alert(fmt.Sprintf("Error: %s", err))
			return Info{}, newError(KindRead, err)
		}
		info.Owner = &owner
		ownerText = owner.Hex()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Contract Info:\nValue: %s\nOwner: %s", value, ownerText)
	c.view.Alert(b.String())

	return info, nil
}

func (c *Controller) unsupported(feature string) error {
	c.view.Alert(fmt.Sprintf("%s is not supported by this contract", feature))
	return newError(KindUnsupported, fmt.Errorf("%s: %w", strings.ToLower(feature), ErrUnsupported))
}
