package fakeback

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sqlparrot/sqlparrot/internal/logging"
)

const shutdownTimeout = 5 * time.Second

// App wires the store, engine, authenticator and both transports together
// and owns their lifecycle.
type App struct {
	config *Config
	logger logging.Logger
	store  *Store
	auth   *Authenticator
	engine *Engine
	api    *API
	bridge *Bridge
}

func NewApp(ctx context.Context, cfg *Config, logger logging.Logger) (*App, error) {
	store, err := OpenStore(cfg.Database.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("opening metadata store: %w", err)
	}

	auth, err := NewAuthenticator(store, logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	if err := auth.SeedFromEnv(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("seeding password from environment: %w", err)
	}

	engine, err := NewEngine(ctx, store, cfg.Database.Path, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &App{
		config: cfg,
		logger: logger,
		store:  store,
		auth:   auth,
		engine: engine,
		api:    NewAPI(engine, auth, logger),
		bridge: NewBridge(engine, auth, logger),
	}, nil
}

func (app *App) initSignalHandler(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancel()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancel context.CancelFunc) {
	srv := &http.Server{Addr: app.config.Server.ListenAddr, Handler: app.api.Router()}

	go func() {
		<-ctx.Done()
		shutdownCtx, release := context.WithTimeout(context.Background(), shutdownTimeout)
		defer release()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Warn(ctx, "http server shutdown", "error", err)
		}
	}()

	app.logger.Info(ctx, "http server listening", "addr", app.config.Server.ListenAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, "http server failed", "error", err)
		cancel()
	}
}

func (app *App) startBridge(ctx context.Context, cancel context.CancelFunc) {
	socket := app.config.Bridge.SocketPath

	// A socket file left by an unclean shutdown blocks the listener.
	if err := os.Remove(socket); err != nil && !errors.Is(err, os.ErrNotExist) {
		app.logger.Error(ctx, "removing stale bridge socket", "socket", socket, "error", err)
		cancel()
		return
	}

	l, err := net.Listen("unix", socket)
	if err != nil {
		app.logger.Error(ctx, "bridge listen failed", "socket", socket, "error", err)
		cancel()
		return
	}
	defer os.Remove(socket)

	go func() {
		<-ctx.Done()
		l.Close()
	}()

	app.logger.Info(ctx, "bridge listening", "socket", socket)
	if err := app.bridge.Serve(ctx, l); err != nil {
		app.logger.Error(ctx, "bridge server failed", "error", err)
		cancel()
	}
}

// Run serves both transports until the context is canceled or a signal
// arrives, then shuts down and closes the store.
func (app *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	app.logger.Info(ctx, "starting fake backend",
		"version", backendVersion, "database", app.config.Database.Path)

	app.initSignalHandler(cancel)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancel)
	}()
	go func() {
		defer wg.Done()
		app.startBridge(ctx, cancel)
	}()
	wg.Wait()

	if err := app.store.Close(); err != nil {
		return fmt.Errorf("closing metadata store: %w", err)
	}
	app.logger.Info(ctx, "fake backend stopped")
	return nil
}
