// Package sessiongrp maintains the group of handlers that drive the wallet
// session against the contract.
package sessiongrp

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ardanlabs/dapp/business/core/session"
	"github.com/ardanlabs/dapp/business/sys/display"
	"github.com/ardanlabs/dapp/business/sys/metrics"
	"github.com/ardanlabs/dapp/business/web/errs"
	"github.com/ardanlabs/dapp/foundation/blockchain/contract"
	"github.com/ardanlabs/dapp/foundation/events"
	"github.com/ardanlabs/dapp/foundation/nameservice"
	"github.com/ardanlabs/dapp/foundation/validate"
	"github.com/ardanlabs/dapp/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of session endpoints.
type Handlers struct {
	Log      *zap.SugaredLogger
	Ctrl     *session.Controller
	Surface  *display.Surface
	NS       *nameservice.NameService
	Evts     *events.Events
	Explorer string
	WS       websocket.Upgrader
}

// Session returns the current session and display state.
func (h Handlers) Session(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.appSession(), http.StatusOK)
}

// Connect connects the wallet and loads the contract data.
func (h Handlers) Connect(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	err := h.Ctrl.Connect(ctx)
	if err := h.record("connect", err); err != nil {
		return err
	}

	return web.Respond(ctx, w, h.appSession(), http.StatusOK)
}

// Refresh reloads the contract data.
func (h Handlers) Refresh(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	err := h.Ctrl.Refresh(ctx)
	if err := h.record("refresh", err); err != nil {
		return err
	}

	return web.Respond(ctx, w, h.appSession(), http.StatusOK)
}

// Disconnect drops the session and starts over.
func (h Handlers) Disconnect(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	h.Ctrl.Disconnect()
	h.record("disconnect", nil)

	return web.Respond(ctx, w, h.appSession(), http.StatusOK)
}

// Store stores a new value in the contract and waits for it to be mined.
func (h Handlers) Store(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var ns NewStore
	if err := web.Decode(r, &ns); err != nil {
		return decodeError(err)
	}

	h.Surface.SetInput(session.InputValue, ns.Value)

	hash, err := h.Ctrl.SubmitStore(ctx, ns.Value)
	if err := h.record("store", err); err != nil {
		return err
	}

	tx := AppTx{
		TxHash:  hash.Hex(),
		Link:    contract.TxURL(h.Explorer, hash),
		Session: h.appSession(),
	}

	return web.Respond(ctx, w, tx, http.StatusOK)
}

// TransferOwnership hands the contract to a new owner and waits for it to be
// mined.
func (h Handlers) TransferOwnership(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if !h.Ctrl.Capabilities().HasTransfer {
		_, err := h.Ctrl.SubmitTransferOwnership(ctx, "")
		return h.record("transfer", err)
	}

	var nt NewTransfer
	if err := web.Decode(r, &nt); err != nil {
		return decodeError(err)
	}

	h.Surface.SetInput(session.InputNewOwner, nt.NewOwner)

	ctx = display.WithConfirmation(ctx, nt.Confirm)

	hash, err := h.Ctrl.SubmitTransferOwnership(ctx, nt.NewOwner)
	if err := h.record("transfer", err); err != nil {
		return err
	}

	tx := AppTx{
		TxHash:  hash.Hex(),
		Link:    contract.TxURL(h.Explorer, hash),
		Session: h.appSession(),
	}

	return web.Respond(ctx, w, tx, http.StatusOK)
}

// RecentEvents returns the values stored in the recent block window.
func (h Handlers) RecentEvents(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	rows, err := h.Ctrl.ListRecentEvents(ctx)
	if err := h.record("events", err); err != nil {
		return err
	}

	return web.Respond(ctx, w, rows, http.StatusOK)
}

// Value performs a one off read of the stored value.
func (h Handlers) Value(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	value, err := h.Ctrl.ReadValue(ctx)
	if err := h.record("value", err); err != nil {
		return err
	}

	return web.Respond(ctx, w, AppValue{Value: value.String()}, http.StatusOK)
}

// Owner performs a one off read of the contract owner.
func (h Handlers) Owner(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	owner, err := h.Ctrl.ReadOwner(ctx)
	if err := h.record("owner", err); err != nil {
		return err
	}

	ao := AppOwner{
		Owner: owner.Hex(),
	}
	if h.NS != nil {
		if name := h.NS.Lookup(owner); name != owner.Hex() {
			ao.Name = name
		}
	}

	return web.Respond(ctx, w, ao, http.StatusOK)
}

// Info reads the value and owner together.
func (h Handlers) Info(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	info, err := h.Ctrl.ContractInfo(ctx)
	if err := h.record("info", err); err != nil {
		return err
	}

	caps := h.Ctrl.Capabilities()
	ai := AppInfo{
		Contract:    h.Ctrl.Snapshot().Contract.Hex(),
		Value:       info.Value.String(),
		HasOwner:    caps.HasOwner,
		HasTransfer: caps.HasTransfer,
		HasEvents:   caps.HasEvents,
	}
	if info.Owner != nil {
		ai.Owner = info.Owner.Hex()
	}

	return web.Respond(ctx, w, ai, http.StatusOK)
}

// Feed handles a web socket to provide display updates to a client.
func (h Handlers) Feed(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// =============================================================================

func (h Handlers) appSession() AppSession {
	return toAppSession(h.Ctrl.Snapshot(), h.Surface.State(), h.NS)
}

// record counts the outcome of the operation and converts a controller
// failure into a trusted web error.
func (h Handlers) record(operation string, err error) error {
	if err == nil {
		metrics.AddOperation(operation, metrics.OutcomeOK)
		return nil
	}

	kind := session.KindOf(err)
	metrics.AddOperation(operation, kind.String())

	status, exists := statusCodes[kind]
	if !exists {
		return fmt.Errorf("%s: %w", operation, err)
	}

	return errs.NewTrustedKind(err, status, kind.String())
}

var statusCodes = map[session.Kind]int{
	session.KindLoad:        http.StatusServiceUnavailable,
	session.KindConnection:  http.StatusServiceUnavailable,
	session.KindRead:        http.StatusBadGateway,
	session.KindValidation:  http.StatusBadRequest,
	session.KindTransaction: http.StatusBadGateway,
	session.KindRejected:    http.StatusForbidden,
	session.KindUnsupported: http.StatusNotImplemented,
	session.KindBusy:        http.StatusConflict,
	session.KindCancelled:   http.StatusPreconditionFailed,
}

// decodeError keeps field validation errors intact and marks everything else
// as a bad request.
func decodeError(err error) error {
	if validate.IsFieldErrors(err) {
		return err
	}

	return errs.NewTrustedKind(err, http.StatusBadRequest, session.KindValidation.String())
}
