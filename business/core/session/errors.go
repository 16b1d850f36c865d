package session

import (
	"errors"
	"strings"

	"github.com/ardanlabs/dapp/foundation/blockchain/contract"
	"github.com/ardanlabs/dapp/foundation/blockchain/wallet"
)

// Kind classifies a controller failure.
type Kind int

// Set of failure kinds.
const (
	KindLoad Kind = iota + 1
	KindConnection
	KindRead
	KindValidation
	KindTransaction
	KindRejected
	KindUnsupported
	KindBusy
	KindCancelled
)

var kindNames = map[Kind]string{
	KindLoad:        "load",
	KindConnection:  "connection",
	KindRead:        "read",
	KindValidation:  "validation",
	KindTransaction: "transaction",
	KindRejected:    "rejected",
	KindUnsupported: "unsupported",
	KindBusy:        "busy",
	KindCancelled:   "cancelled",
}

// String implements the fmt.Stringer interface.
func (k Kind) String() string {
	if name, exists := kindNames[k]; exists {
		return name
	}
	return "unknown"
}

// Set of errors the controller reports.
var (
	ErrLibraryMissing = errors.New("contract library failed to load")
	ErrNoProvider     = errors.New("no wallet provider")
	ErrNotConnected   = errors.New("wallet not connected")
	ErrInvalidValue   = errors.New("value must be a whole number >= 0")
	ErrInvalidAddress = errors.New("invalid account address")
	ErrCancelled      = errors.New("cancelled by user")
	ErrBusy           = errors.New("operation already in progress")
	ErrUnsupported    = contract.ErrUnsupported
)

// Error carries the kind of failure along with the cause.
type Error struct {
	Kind Kind
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Err.Error()
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, err error) error {
	return &Error{Kind: kind, Err: err}
}

// KindOf returns the kind of a controller error, or zero.
func KindOf(err error) Kind {
	var e *Error
	if !errors.As(err, &e) {
		return 0
	}
	return e.Kind
}

// IsKind checks if the error is a controller error of the specified kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// isRejection reports whether the wallet or an external signer refused the
// request.
func isRejection(err error) bool {
	if errors.Is(err, wallet.ErrUserRejected) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, s := range []string{"user rejected", "user denied", "request denied"} {
		if strings.Contains(msg, s) {
			return true
		}
	}

	return false
}
