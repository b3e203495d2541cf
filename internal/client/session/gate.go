// Package session implements the client's authentication gate: resolving the
// backend's password protection status, holding the ephemeral session token,
// validating it against the backend, and deciding whether the UI starts
// locked or open.
package session

import (
	"context"
	"sync"

	"github.com/sqlparrot/sqlparrot/internal/logging"
	"github.com/sqlparrot/sqlparrot/internal/models"
)

// GateState is the decided entry state for the client UI.
type GateState int

const (
	// GateLocked: a password is configured and no valid session exists.
	GateLocked GateState = iota
	// GateOpenProtected: a password is configured and this session is
	// authenticated.
	GateOpenProtected
	// GateOpenUnprotected: no password is configured (or protection was
	// explicitly skipped).
	GateOpenUnprotected
)

func (s GateState) String() string {
	switch s {
	case GateOpenProtected:
		return "open (protected)"
	case GateOpenUnprotected:
		return "open (unprotected)"
	default:
		return "locked"
	}
}

// Open reports whether the state allows access to protected operations.
func (s GateState) Open() bool {
	return s == GateOpenProtected || s == GateOpenUnprotected
}

// Gate decides whether the client starts locked or open, by combining the
// resolved protection status, the held token, and the token's validity:
//
//   - no password configured or skipped: open unprotected, any stale token
//     is dropped
//   - password configured, no token held: locked
//   - password configured, token held: open if the backend accepts the token,
//     locked (token silently dropped) if it rejects it, and open with the
//     token kept if the backend cannot be reached
//
// A failed status resolution follows the resolver's fail-open setting.
type Gate struct {
	resolver  *StatusResolver
	validator *TokenValidator
	tokens    *TokenStore
	logger    logging.Logger

	mu     sync.Mutex
	state  GateState
	status models.PasswordStatus
}

func NewGate(resolver *StatusResolver, validator *TokenValidator, tokens *TokenStore, logger logging.Logger) *Gate {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Gate{
		resolver:  resolver,
		validator: validator,
		tokens:    tokens,
		logger:    logger,
		state:     GateLocked,
	}
}

// Decide re-evaluates the gate from scratch and returns the new state.
// A rejected token is dropped without surfacing an error; the caller just
// sees the locked state.
func (g *Gate) Decide(ctx context.Context) (GateState, error) {
	status, err := g.resolver.Resolve(ctx)
	if err != nil {
		g.set(GateLocked, models.PasswordStatus{})
		return GateLocked, err
	}

	if !status.Protected() {
		g.tokens.Purge()
		g.set(GateOpenUnprotected, status)
		return GateOpenUnprotected, nil
	}

	if !g.tokens.Held() {
		g.set(GateLocked, status)
		return GateLocked, nil
	}

	switch verdict := g.validator.Validate(ctx); verdict {
	case TokenValid:
		g.set(GateOpenProtected, status)
		return GateOpenProtected, nil
	case TokenInvalid:
		g.logger.Debug(ctx, "held session token rejected, dropping it")
		g.tokens.Purge()
		g.set(GateLocked, status)
		return GateLocked, nil
	default:
		// Cannot reach the backend to check; do not punish the token.
		g.set(GateOpenProtected, status)
		return GateOpenProtected, nil
	}
}

// State returns the last decided state.
func (g *Gate) State() GateState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Status returns the protection status from the last decision.
func (g *Gate) Status() models.PasswordStatus {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status
}

// Lock drops the session token and locks the gate when a password is
// configured. Without one there is nothing to lock behind, so the gate
// stays open.
func (g *Gate) Lock() GateState {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tokens.Purge()
	if g.status.Protected() {
		g.state = GateLocked
	}
	return g.state
}

func (g *Gate) set(state GateState, status models.PasswordStatus) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = state
	g.status = status
}

// grant marks the session authenticated after a successful password check.
func (g *Gate) grant() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = GateOpenProtected
	g.status.Status = models.PasswordStatusSet
	g.status.PasswordSet = true
}
