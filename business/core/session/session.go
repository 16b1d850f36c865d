package session

import (
	"fmt"
	"math/big"

	"github.com/ardanlabs/dapp/foundation/blockchain/contract"
	"github.com/ethereum/go-ethereum/common"
)

// State represents where the controller is in the connection lifecycle.
type State string

// Set of connection states. Connected only goes back to Disconnected
// through a reset.
const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
)

// Set of display fields the binding projects the session onto.
const (
	FieldStatus          = "status"
	FieldNetworkWarning  = "network-warning"
	FieldUserAddress     = "user-address"
	FieldNetworkInfo     = "network-info"
	FieldContractAddress = "contract-address"
	FieldCurrentValue    = "current-value"
	FieldContractOwner   = "contract-owner"
	FieldIsOwner         = "is-owner"
)

// Set of buttons whose availability the controller manages.
const (
	ButtonConnect  = "connect-btn"
	ButtonStore    = "store-btn"
	ButtonTransfer = "transfer-btn"
)

// Set of inputs the controller clears after a successful write.
const (
	InputValue    = "value-input"
	InputNewOwner = "new-owner-input"
)

// Display text for values that have not been read yet.
const (
	textNotConnected   = "Not connected"
	textUnknown        = "Unknown"
	textPending        = "-"
	textNotApplicable  = "N/A"
	textYes            = "Yes"
	textNo             = "No"
	textNoRestrictions = "No restrictions"
)

// Session is what the controller knows about the connected account and the
// contract as of the last successful read.
type Session struct {
	Address *common.Address `json:"address,omitempty"`
	IsOwner bool            `json:"is_owner"`
	ChainID uint64          `json:"chain_id"`
	Value   *big.Int        `json:"value,omitempty"`
	Owner   *common.Address `json:"owner,omitempty"`
	Stale   bool            `json:"stale"`
}

// Copy returns a deep copy of the session.
func (s Session) Copy() Session {
	cpy := s

	if s.Address != nil {
		addr := *s.Address
		cpy.Address = &addr
	}

	if s.Owner != nil {
		owner := *s.Owner
		cpy.Owner = &owner
	}

	if s.Value != nil {
		cpy.Value = new(big.Int).Set(s.Value)
	}

	return cpy
}

// Binding maps a display field to the text shown for it.
type Binding map[string]string

// Copy returns a copy of the binding.
func (b Binding) Copy() Binding {
	cpy := make(Binding, len(b))
	for k, v := range b {
		cpy[k] = v
	}
	return cpy
}

// Project computes the display binding for a session. It is a pure function
// of its inputs.
func Project(s Session, caps contract.Capabilities, contractAddr common.Address) Binding {
	b := Binding{
		FieldUserAddress:     textNotConnected,
		FieldNetworkInfo:     textUnknown,
		FieldContractAddress: contractAddr.Hex(),
		FieldCurrentValue:    textPending,
		FieldContractOwner:   textPending,
		FieldIsOwner:         textPending,
	}

	if s.Address != nil {
		b[FieldUserAddress] = s.Address.Hex()
	}

	if s.ChainID != 0 {
		b[FieldNetworkInfo] = fmt.Sprintf("Chain ID: %d", s.ChainID)
	}

	if s.Value != nil {
		b[FieldCurrentValue] = s.Value.String()
	}

	switch {
	case !caps.HasOwner:
		b[FieldContractOwner] = textNotApplicable
		b[FieldIsOwner] = textNoRestrictions

	case s.Owner != nil:
		b[FieldContractOwner] = s.Owner.Hex()
		b[FieldIsOwner] = textNo
		if s.IsOwner {
			b[FieldIsOwner] = textYes
		}
	}

	return b
}

// EventRow is a single line of the recent events list.
type EventRow struct {
	Text        string `json:"text"`
	Value       string `json:"value,omitempty"`
	TxHash      string `json:"tx_hash,omitempty"`
	Link        string `json:"link,omitempty"`
	BlockNumber uint64 `json:"block_number,omitempty"`
	Placeholder bool   `json:"placeholder,omitempty"`
}

// Snapshot is a point in time copy of the controller state.
type Snapshot struct {
	State        State                 `json:"state"`
	Session      Session               `json:"session"`
	Binding      Binding               `json:"binding"`
	Buttons      map[string]bool       `json:"buttons"`
	Capabilities contract.Capabilities `json:"capabilities"`
	Contract     common.Address        `json:"contract"`
}
