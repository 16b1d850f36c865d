package sessiongrp

import (
	"github.com/ardanlabs/dapp/business/core/session"
	"github.com/ardanlabs/dapp/business/sys/display"
	"github.com/ardanlabs/dapp/foundation/nameservice"
	"github.com/ardanlabs/dapp/foundation/validate"
)

// AppSession represents the session and everything shown for it.
type AppSession struct {
	State          session.State      `json:"state"`
	Account        string             `json:"account,omitempty"`
	AccountName    string             `json:"account_name,omitempty"`
	Session        session.Session    `json:"session"`
	Binding        session.Binding    `json:"binding"`
	Buttons        map[string]bool    `json:"buttons"`
	Status         string             `json:"status"`
	Warning        string             `json:"warning,omitempty"`
	WarningVisible bool               `json:"warning_visible"`
	Alerts         []string           `json:"alerts"`
	Events         []session.EventRow `json:"events"`
}

func toAppSession(snap session.Snapshot, view display.State, ns *nameservice.NameService) AppSession {
	app := AppSession{
		State:          snap.State,
		Session:        snap.Session,
		Binding:        snap.Binding,
		Buttons:        snap.Buttons,
		Status:         view.Status,
		Warning:        view.Warning,
		WarningVisible: view.WarningVisible,
		Alerts:         view.Alerts,
		Events:         view.Events,
	}

	if addr := snap.Session.Address; addr != nil {
		app.Account = addr.Hex()
		if ns != nil {
			if name := ns.Lookup(*addr); name != addr.Hex() {
				app.AccountName = name
			}
		}
	}

	return app
}

// AppTx represents the result of a mined transaction.
type AppTx struct {
	TxHash  string     `json:"tx_hash"`
	Link    string     `json:"link"`
	Session AppSession `json:"session"`
}

// NewStore contains information needed to store a value. The number itself
// is checked by the controller so the display reports it.
type NewStore struct {
	Value string `json:"value" validate:"max=80"`
}

// Validate checks the data in the model is considered clean.
func (ns NewStore) Validate() error {
	return validate.Check(ns)
}

// NewTransfer contains information needed to transfer ownership. Confirm
// must be set for the transfer to go ahead.
type NewTransfer struct {
	NewOwner string `json:"new_owner" validate:"required,ethaddr"`
	Confirm  bool   `json:"confirm"`
}

// Validate checks the data in the model is considered clean.
func (nt NewTransfer) Validate() error {
	return validate.Check(nt)
}

// AppValue represents a one off read of the stored value.
type AppValue struct {
	Value string `json:"value"`
}

// AppOwner represents a one off read of the owner.
type AppOwner struct {
	Owner string `json:"owner"`
	Name  string `json:"name,omitempty"`
}

// AppInfo represents the combined contract reads.
type AppInfo struct {
	Contract    string `json:"contract"`
	Value       string `json:"value"`
	Owner       string `json:"owner,omitempty"`
	HasOwner    bool   `json:"has_owner"`
	HasTransfer bool   `json:"has_transfer"`
	HasEvents   bool   `json:"has_events"`
}
