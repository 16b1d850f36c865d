// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/ardanlabs/dapp/app/services/dapp/handlers/v1/sessiongrp"
	"github.com/ardanlabs/dapp/business/core/session"
	"github.com/ardanlabs/dapp/business/sys/display"
	"github.com/ardanlabs/dapp/foundation/events"
	"github.com/ardanlabs/dapp/foundation/nameservice"
	"github.com/ardanlabs/dapp/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log      *zap.SugaredLogger
	Ctrl     *session.Controller
	Surface  *display.Surface
	NS       *nameservice.NameService
	Evts     *events.Events
	Explorer string
	Limit    web.Middleware
}

// Routes binds all the version 1 routes.
func Routes(app *web.App, cfg Config) {
	sgh := sessiongrp.Handlers{
		Log:      cfg.Log,
		Ctrl:     cfg.Ctrl,
		Surface:  cfg.Surface,
		NS:       cfg.NS,
		Evts:     cfg.Evts,
		Explorer: cfg.Explorer,
	}

	app.Handle(http.MethodGet, version, "/session", sgh.Session)
	app.Handle(http.MethodPost, version, "/connect", sgh.Connect, cfg.Limit)
	app.Handle(http.MethodPost, version, "/refresh", sgh.Refresh, cfg.Limit)
	app.Handle(http.MethodPost, version, "/disconnect", sgh.Disconnect, cfg.Limit)
	app.Handle(http.MethodPost, version, "/store", sgh.Store, cfg.Limit)
	app.Handle(http.MethodPost, version, "/owner/transfer", sgh.TransferOwnership, cfg.Limit)
	app.Handle(http.MethodGet, version, "/events/recent", sgh.RecentEvents)
	app.Handle(http.MethodGet, version, "/value", sgh.Value)
	app.Handle(http.MethodGet, version, "/owner", sgh.Owner)
	app.Handle(http.MethodGet, version, "/info", sgh.Info)
	app.Handle(http.MethodGet, version, "/feed", sgh.Feed)
}
