// Package contract provides typed access to the simple storage contract
// through the go-ethereum abi and bind packages.
package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Set of errors returned by the contract api.
var (
	ErrUnsupported = errors.New("not supported by this contract")
	ErrReadOnly    = errors.New("no signer bound to contract")
	ErrNoCode      = bind.ErrNoCode
	ErrReverted    = errors.New("transaction reverted")
)

// eventStored is the event emitted on every successful store.
const eventStored = "NumberStored"

// Backend represents the chain access the contract needs. An ethclient.Client
// satisfies this interface.
type Backend interface {
	bind.ContractBackend
	BlockNumber(ctx context.Context) (uint64, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// StoredEvent represents a single NumberStored log.
type StoredEvent struct {
	Value       *big.Int    `json:"value"`
	TxHash      common.Hash `json:"tx_hash"`
	BlockNumber uint64      `json:"block_number"`
	LogIndex    uint        `json:"log_index"`
}

// Config represents the information needed to bind to a deployed contract.
type Config struct {
	Address common.Address
	Variant Variant
	Backend Backend
	Signer  *bind.TransactOpts
}

// Contract is a typed gateway to a deployed storage contract.
type Contract struct {
	address common.Address
	variant Variant
	backend Backend
	bound   *bind.BoundContract
	signer  *bind.TransactOpts
}

// New binds to the contract at the configured address. A nil signer yields a
// read-only contract.
func New(cfg Config) (*Contract, error) {
	if cfg.Backend == nil {
		return nil, errors.New("contract backend is required")
	}

	if cfg.Variant.Name == "" {
		return nil, errors.New("contract variant is required")
	}

	c := Contract{
		address: cfg.Address,
		variant: cfg.Variant,
		backend: cfg.Backend,
		bound:   bind.NewBoundContract(cfg.Address, cfg.Variant.ABI, cfg.Backend, cfg.Backend, cfg.Backend),
		signer:  cfg.Signer,
	}

	return &c, nil
}

// Address returns the address the contract is bound to.
func (c *Contract) Address() common.Address {
	return c.address
}

// Capabilities returns the capability set of the bound variant.
func (c *Contract) Capabilities() Capabilities {
	return c.variant.Caps
}

// Retrieve reads the currently stored value.
func (c *Contract) Retrieve(ctx context.Context) (*big.Int, error) {
	out, err := c.call(ctx, "retrieve")
	if err != nil {
		return nil, err
	}

	value, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("retrieve: unexpected output type %T", out[0])
	}

	return value, nil
}

// Owner reads the owner address of the contract.
func (c *Contract) Owner(ctx context.Context) (common.Address, error) {
	out, err := c.call(ctx, "owner")
	if err != nil {
		return common.Address{}, err
	}

	owner, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("owner: unexpected output type %T", out[0])
	}

	return owner, nil
}

// Store submits a transaction to store the value. The transaction hash is
// returned as soon as the transaction is sent.
func (c *Contract) Store(ctx context.Context, value *big.Int) (common.Hash, error) {
	return c.transact(ctx, "store", value)
}

// TransferOwnership submits a transaction handing the contract to a new owner.
func (c *Contract) TransferOwnership(ctx context.Context, newOwner common.Address) (common.Hash, error) {
	return c.transact(ctx, "transferOwnership", newOwner)
}

// WaitMined blocks until the transaction has a receipt or the context is
// cancelled. A receipt with a failed status is reported as ErrReverted.
func (c *Contract) WaitMined(ctx context.Context, hash common.Hash) error {
	receipt, err := bind.WaitMinedHash(ctx, c.backend, hash)
	if err != nil {
		return err
	}

	if receipt.Status == types.ReceiptStatusFailed {
		return fmt.Errorf("%w: %s", ErrReverted, hash.Hex())
	}

	return nil
}

// StoredEvents returns the NumberStored logs emitted in the last window
// blocks, in chain order (oldest first).
func (c *Contract) StoredEvents(ctx context.Context, window uint64) ([]StoredEvent, error) {
	if _, exists := c.variant.ABI.Events[eventStored]; !exists {
		return nil, fmt.Errorf("%s: %w", eventStored, ErrUnsupported)
	}

	latest, err := c.backend.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("block number: %w", err)
	}

	var from uint64
	if latest > window {
		from = latest - window
	}

	opts := bind.FilterOpts{
		Start:   from,
		End:     &latest,
		Context: ctx,
	}

	logs, sub, err := c.bound.FilterLogs(&opts, eventStored)
	if err != nil {
		return nil, fmt.Errorf("filter logs: %w", err)
	}
	defer sub.Unsubscribe()

	var events []StoredEvent
	for {
		select {
		case log := <-logs:
			ev, err := c.unpackStored(log)
			if err != nil {
				return nil, err
			}
			if ev != nil {
				events = append(events, *ev)
			}

		case <-sub.Err():

			// The subscription is done once every buffered log was handed
			// over. Drain what is still queued.
			for {
				select {
				case log := <-logs:
					ev, err := c.unpackStored(log)
					if err != nil {
						return nil, err
					}
					if ev != nil {
						events = append(events, *ev)
					}
				default:
					return events, nil
				}
			}
		}
	}
}

// =============================================================================

// unpackStored decodes a NumberStored log. Logs removed by a reorg yield nil.
func (c *Contract) unpackStored(log types.Log) (*StoredEvent, error) {
	if log.Removed {
		return nil, nil
	}

	var out struct {
		Num *big.Int
	}
	if err := c.bound.UnpackLog(&out, eventStored, log); err != nil {
		return nil, fmt.Errorf("unpack log %s: %w", log.TxHash.Hex(), err)
	}

	ev := StoredEvent{
		Value:       out.Num,
		TxHash:      log.TxHash,
		BlockNumber: log.BlockNumber,
		LogIndex:    log.Index,
	}

	return &ev, nil
}

// call performs a read-only call of the method through the bound contract.
func (c *Contract) call(ctx context.Context, method string, args ...any) ([]any, error) {
	if _, exists := c.variant.ABI.Methods[method]; !exists {
		return nil, fmt.Errorf("%s: %w", method, ErrUnsupported)
	}

	opts := bind.CallOpts{Context: ctx}
	if c.signer != nil {
		opts.From = c.signer.From
	}

	var out []any
	if err := c.bound.Call(&opts, &out, method, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%s: empty result", method)
	}

	return out, nil
}

// transact signs and sends a state changing call.
func (c *Contract) transact(ctx context.Context, method string, args ...any) (common.Hash, error) {
	if _, exists := c.variant.ABI.Methods[method]; !exists {
		return common.Hash{}, fmt.Errorf("%s: %w", method, ErrUnsupported)
	}

	if c.signer == nil {
		return common.Hash{}, fmt.Errorf("%s: %w", method, ErrReadOnly)
	}

	opts := *c.signer
	opts.Context = ctx

	tx, err := c.bound.Transact(&opts, method, args...)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%s: %w", method, err)
	}

	return tx.Hash(), nil
}

// =============================================================================

// TxURL returns the block explorer link for the transaction hash.
func TxURL(explorer string, hash common.Hash) string {
	return strings.TrimRight(explorer, "/") + "/tx/" + hash.Hex()
}
