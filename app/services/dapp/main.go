package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/ardanlabs/dapp/app/services/dapp/handlers"
	"github.com/ardanlabs/dapp/business/core/session"
	"github.com/ardanlabs/dapp/business/sys/display"
	"github.com/ardanlabs/dapp/foundation/blockchain/contract"
	"github.com/ardanlabs/dapp/foundation/blockchain/wallet"
	"github.com/ardanlabs/dapp/foundation/events"
	"github.com/ardanlabs/dapp/foundation/logger"
	"github.com/ardanlabs/dapp/foundation/nameservice"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("DAPP")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	// This is all the configuration for the application and the default values.
	// Configuration values will be passed through the application as individual
	// values.
	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:120s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			PublicHost      string        `conf:"default:0.0.0.0:8080"`
			CORSOrigin      string        `conf:"default:*"`
			RateLimit       float64       `conf:"default:5,help:write requests per second per client; 0 disables"`
			RateBurst       int           `conf:"default:10"`
		}
		Contract struct {
			Catalog    string `conf:"help:path to a yaml deployment catalog"`
			Deployment string `conf:"default:giwa-sepolia"`
			Address    string
			Variant    string
		}
		Chain struct {
			RPC          string
			ChainID      uint64
			Name         string        `conf:"default:Giwa Sepolia"`
			Explorer     string
			PollInterval time.Duration `conf:"default:2s"`
			EventWindow  uint64        `conf:"default:100"`
			Timeout      time.Duration `conf:"default:90s"`
		}
		Wallet struct {
			Folder   string `conf:"default:zblock/accounts/"`
			Account  string
			Disabled bool
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "simple storage contract session service",
		},
	}

	// Parse will set the defaults and then look for any overriding values
	// in environment variables and command line flags.
	const prefix = "DAPP"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	// Display the current configuration to the logs.
	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Deployment Support

	// The deployment names the contract, the chain it lives on and the
	// explorer used for links. Explicit settings override the catalog.
	dep := contract.DefaultDeployment
	if cfg.Contract.Catalog != "" {
		catalog, err := contract.LoadCatalog(cfg.Contract.Catalog)
		if err != nil {
			return fmt.Errorf("loading deployment catalog: %w", err)
		}

		if dep, err = catalog.Lookup(cfg.Contract.Deployment); err != nil {
			return fmt.Errorf("selecting deployment: %w", err)
		}
	}

	if cfg.Contract.Address != "" {
		dep.Address = cfg.Contract.Address
	}
	if cfg.Contract.Variant != "" {
		dep.Variant = contract.NormalizeVariant(cfg.Contract.Variant)
	}
	if cfg.Chain.RPC != "" {
		dep.RPC = cfg.Chain.RPC
	}
	if cfg.Chain.ChainID != 0 {
		dep.ChainID = cfg.Chain.ChainID
	}
	if cfg.Chain.Explorer != "" {
		dep.Explorer = cfg.Chain.Explorer
	}

	if err := dep.Validate(); err != nil {
		return fmt.Errorf("validating deployment: %w", err)
	}

	log.Infow("startup", "status", "deployment", "name", dep.Name, "address", dep.Address, "variant", dep.Variant, "chainID", dep.ChainID)

	// =========================================================================
	// Name Service Support

	// The nameservice package provides name resolution for account addresses.
	// The names come from the file names in the key folder.
	ns, err := nameservice.New(cfg.Wallet.Folder)
	if err != nil {
		return fmt.Errorf("unable to load account name service: %w", err)
	}

	// Logging the accounts for documentation in the logs.
	for account, name := range ns.Copy() {
		log.Infow("startup", "status", "nameservice", "name", name, "account", account)
	}

	// =========================================================================
	// Chain Support

	client, err := ethclient.Dial(dep.RPC)
	if err != nil {
		return fmt.Errorf("dialing chain node: %w", err)
	}
	defer client.Close()

	// The session packages accept a function of this signature to allow the
	// application to log. These raw messages are also sent to any websocket
	// client that is connected into the system through the events package.
	evts := events.New()
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
		evts.Publish("log", s)
	}

	// Without a key folder there is no wallet, the same as a browser without
	// an extension.
	var provider session.Provider
	if !cfg.Wallet.Disabled {
		w, err := wallet.New(wallet.Config{
			Chain:        client,
			Names:        ns,
			Account:      cfg.Wallet.Account,
			PollInterval: cfg.Chain.PollInterval,
			EvHandler:    ev,
		})
		if err != nil {
			return fmt.Errorf("constructing wallet: %w", err)
		}
		defer w.Shutdown()

		provider = w
	}

	// A missing or broken ABI leaves the binder nil, which the controller
	// reports as a failed library load.
	var binder session.Binder
	variant, err := contract.LookupVariant(dep.Variant)
	switch {
	case err != nil:
		log.Errorw("startup", "status", "contract variant", "ERROR", err)

	default:
		binder = func(signer *bind.TransactOpts) (session.Gateway, error) {
			c, err := contract.New(contract.Config{
				Address:      dep.ContractAddress(),
				Variant:      variant,
				Backend:      client,
				Signer:       signer,
			})
			if err != nil {
				return nil, err
			}
			return c, nil
		}
	}

	// =========================================================================
	// Session Support

	surface := display.New(evts, ev)

	ctrl, err := session.New(session.Config{
		Provider:        provider,
		Binder:          binder,
		View:            surface,
		Capabilities:    variant.Caps,
		ContractAddress: dep.ContractAddress(),
		ExpectedChainID: dep.ChainID,
		NetworkName:     cfg.Chain.Name,
		Explorer:        dep.Explorer,
		EventWindow:     cfg.Chain.EventWindow,
		EvHandler:       ev,
	})
	if err != nil {
		return fmt.Errorf("constructing session controller: %w", err)
	}

	initialize := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Chain.Timeout)
		defer cancel()

		return ctrl.Initialize(ctx)
	}

	// A reload tears the session down and starts over, the same as a page
	// refresh in a browser.
	surface.OnReload(func() {
		ctrl.Reset()
		if err := initialize(); err != nil {
			log.Errorw("reload", "ERROR", err)
		}
	})

	if err := initialize(); err != nil {
		if session.IsKind(err, session.KindLoad) {
			return fmt.Errorf("initializing session: %w", err)
		}
		log.Errorw("startup", "status", "initializing session", "ERROR", err)
	}

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug v1 router started", "host", cfg.Web.DebugHost)

	// The chain node is the only dependency worth checking for readiness.
	ready := func(ctx context.Context) error {
		_, err := client.ChainID(ctx)
		return err
	}

	// Construct the mux for the debug calls.
	debugMux := handlers.DebugMux(build, log, ready)

	// Start the service listening for debug requests.
	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug v1 router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Service Start/Stop Support

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	// =========================================================================
	// Start Public Service

	log.Infow("startup", "status", "initializing V1 public API support")

	// Construct the mux for the public API calls.
	publicMux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown:   shutdown,
		Log:        log,
		Ctrl:       ctrl,
		Surface:    surface,
		NS:         ns,
		Evts:       evts,
		Explorer:   dep.Explorer,
		CORSOrigin: cfg.Web.CORSOrigin,
		RateLimit:  cfg.Web.RateLimit,
		RateBurst:  cfg.Web.RateBurst,
	})

	// Construct a server to service the requests against the mux.
	public := http.Server{
		Addr:         cfg.Web.PublicHost,
		Handler:      publicMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Start the service listening for api requests.
	go func() {
		log.Infow("startup", "status", "public api router started", "host", public.Addr)
		serverErrors <- public.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		// Asking listener to shut down and shed load.
		log.Infow("shutdown", "status", "shutdown public API started")
		if err := public.Shutdown(ctx); err != nil {
			public.Close()
			return fmt.Errorf("could not stop public service gracefully: %w", err)
		}
	}

	return nil
}
