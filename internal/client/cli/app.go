package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sqlparrot/sqlparrot/internal/client/api"
	"github.com/sqlparrot/sqlparrot/internal/client/config"
	"github.com/sqlparrot/sqlparrot/internal/client/session"
	"github.com/sqlparrot/sqlparrot/internal/logging"
)

// Mode is the backend reachability as last observed by the watcher.
type Mode string

const (
	ModeOnline  Mode = "online"
	ModeOffline Mode = "offline"
)

// App wires the transport, the session gate, and the interactive shell.
type App struct {
	config    *config.Config
	logger    logging.Logger
	client    api.Client
	tokens    *session.TokenStore
	gate      *session.Gate
	passwords session.PasswordService
	theme     *Theme
	reader    *bufio.Reader

	mu   sync.Mutex
	mode Mode
}

func NewApp(c *config.Config, logger logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	tokens := session.NewTokenStore()

	apiClient, err := api.NewClient(c.Transport, c.ServerAddr, c.BridgeSocket, c.RequestTimeout, tokens)
	if err != nil {
		return nil, err
	}

	resolver := session.NewStatusResolver(apiClient, c.FailOpen, logger)
	validator := session.NewTokenValidator(apiClient)
	gate := session.NewGate(resolver, validator, tokens, logger)

	theme, known := ThemeByName(c.Theme)
	if !known {
		logger.Warn(context.Background(), "unknown theme, using default", "theme", c.Theme)
	}

	return &App{
		config:    c,
		logger:    logger,
		client:    apiClient,
		tokens:    tokens,
		gate:      gate,
		passwords: session.NewPasswordService(apiClient, tokens, gate),
		theme:     theme,
		reader:    bufio.NewReader(os.Stdin),
		mode:      ModeOnline,
	}, nil
}

// Run decides the initial gate state, starts the reachability watcher, and
// blocks in the shell until the user exits.
func (a *App) Run(ctx context.Context) {
	defer a.client.Close()

	a.theme.Title.Println("SQL Parrot shell (type 'help' for commands)")

	if _, err := a.gate.Decide(ctx); err != nil {
		a.theme.Error.Printf("Cannot determine protection status: %v\n", err)
	}
	a.printGateBanner()

	go a.StartBackendWatcher(ctx, a.config.HealthCheckInterval)

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(os.Stdin))
}

func (a *App) printGateBanner() {
	switch a.gate.State() {
	case session.GateLocked:
		a.theme.Warning.Println("Session locked. Use 'unlock' to enter the UI password.")
	case session.GateOpenUnprotected:
		if a.gate.Status().PasswordSkipped {
			return
		}
		a.theme.Muted.Println("No UI password configured. Use 'set-password' to add one, or 'skip' to dismiss this hint.")
	}
}

func (a *App) isUnlocked() bool {
	return a.gate.State().Open()
}

func (a *App) isProtected() bool {
	return a.gate.Status().Protected()
}

func (a *App) getStatus() string {
	a.mu.Lock()
	mode := a.mode
	a.mu.Unlock()

	s := a.gate.State().String()
	if mode == ModeOffline {
		s += " offline"
	}
	return fmt.Sprintf("(%s)", s)
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mode != mode {
		a.mode = mode
		a.logger.Info(context.Background(), "backend reachability changed", "mode", string(mode))
	}
}

// StartBackendWatcher probes the backend on the given interval and flips the
// shell's online/offline indicator. It never touches the session gate: a
// missed probe must not lock an open session.
func (a *App) StartBackendWatcher(ctx context.Context, interval time.Duration) {

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			probeCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			_, err := a.client.CheckHealth(probeCtx)
			cancel()

			if err != nil {
				a.setMode(ModeOffline)
			} else {
				a.setMode(ModeOnline)
			}

		case <-ctx.Done():
			return
		}
	}
}
