package session

import (
	"context"
	"testing"

	"github.com/sqlparrot/sqlparrot/internal/client/api"
	"github.com/sqlparrot/sqlparrot/internal/models"
	"github.com/stretchr/testify/require"
)

/*************
 * Decision table
 *************/

func TestGate_NoPasswordOpensUnprotected(t *testing.T) {
	f := &fakeClient{statusResp: models.UnprotectedStatus()}
	g, tokens := newGate(f)
	tokens.Set("stale-token")

	state, err := g.Decide(context.Background())
	require.NoError(t, err)
	require.Equal(t, GateOpenUnprotected, state)
	require.True(t, state.Open())
	require.False(t, tokens.Held(), "stale token must be dropped")
	require.Zero(t, f.settingsCalls, "no token probe without protection")
}

func TestGate_SkippedOpensUnprotected(t *testing.T) {
	f := &fakeClient{statusResp: skippedStatus()}
	g, _ := newGate(f)

	state, err := g.Decide(context.Background())
	require.NoError(t, err)
	require.Equal(t, GateOpenUnprotected, state)
	require.True(t, g.Status().PasswordSkipped)
}

func TestGate_ProtectedWithoutTokenLocks(t *testing.T) {
	f := &fakeClient{statusResp: setStatus()}
	g, _ := newGate(f)

	state, err := g.Decide(context.Background())
	require.NoError(t, err)
	require.Equal(t, GateLocked, state)
	require.False(t, state.Open())
	require.Zero(t, f.settingsCalls, "nothing to validate without a token")
}

func TestGate_ProtectedWithValidTokenOpens(t *testing.T) {
	f := &fakeClient{statusResp: setStatus()}
	g, tokens := newGate(f)
	tokens.Set("tok-1")

	state, err := g.Decide(context.Background())
	require.NoError(t, err)
	require.Equal(t, GateOpenProtected, state)
	require.Equal(t, 1, f.settingsCalls)
	require.True(t, tokens.Held())
}

func TestGate_RejectedTokenDroppedSilently(t *testing.T) {
	f := &fakeClient{statusResp: setStatus(), settingsErr: api.ErrUnauthorized}
	g, tokens := newGate(f)
	tokens.Set("expired-token")

	state, err := g.Decide(context.Background())
	require.NoError(t, err, "a stale token is not an error condition")
	require.Equal(t, GateLocked, state)
	require.False(t, tokens.Held())
}

func TestGate_IndeterminateProbeKeepsTokenAndOpens(t *testing.T) {
	f := &fakeClient{statusResp: setStatus(), settingsErr: api.ErrUnavailable}
	g, tokens := newGate(f)
	tokens.Set("tok-1")

	state, err := g.Decide(context.Background())
	require.NoError(t, err)
	require.Equal(t, GateOpenProtected, state)
	require.True(t, tokens.Held(), "an unreachable backend must not condemn the token")
}

func TestGate_StatusErrorFailOpen(t *testing.T) {
	f := &fakeClient{statusErr: api.ErrUnavailable}
	g, tokens := newGate(f)
	tokens.Set("tok-1")

	state, err := g.Decide(context.Background())
	require.NoError(t, err)
	require.Equal(t, GateOpenUnprotected, state)
	require.False(t, tokens.Held())
}

func TestGate_StatusErrorFailClosed(t *testing.T) {
	f := &fakeClient{statusErr: api.ErrUnavailable}
	g, _ := newClosedGate(f)

	state, err := g.Decide(context.Background())
	require.ErrorIs(t, err, api.ErrUnavailable)
	require.Equal(t, GateLocked, state)
	require.Equal(t, GateLocked, g.State())
}

/*************
 * Lock and accessors
 *************/

func TestGate_LockDropsTokenAndLocks(t *testing.T) {
	f := &fakeClient{statusResp: setStatus()}
	g, tokens := newGate(f)
	tokens.Set("tok-1")

	_, err := g.Decide(context.Background())
	require.NoError(t, err)
	require.Equal(t, GateOpenProtected, g.State())

	state := g.Lock()
	require.Equal(t, GateLocked, state)
	require.False(t, tokens.Held())
}

func TestGate_LockWithoutPasswordStaysOpen(t *testing.T) {
	f := &fakeClient{statusResp: models.UnprotectedStatus()}
	g, _ := newGate(f)

	_, err := g.Decide(context.Background())
	require.NoError(t, err)

	state := g.Lock()
	require.Equal(t, GateOpenUnprotected, state, "nothing to lock behind without a password")
}

func TestGate_StateReflectsLastDecision(t *testing.T) {
	f := &fakeClient{statusResp: setStatus()}
	g, _ := newGate(f)
	require.Equal(t, GateLocked, g.State(), "gate starts locked")

	_, err := g.Decide(context.Background())
	require.NoError(t, err)
	require.Equal(t, GateLocked, g.State())
	require.True(t, g.Status().PasswordSet)

	f.statusResp = models.UnprotectedStatus()
	_, err = g.Decide(context.Background())
	require.NoError(t, err)
	require.Equal(t, GateOpenUnprotected, g.State())
}

func TestGateStateString(t *testing.T) {
	require.Equal(t, "locked", GateLocked.String())
	require.Equal(t, "open (protected)", GateOpenProtected.String())
	require.Equal(t, "open (unprotected)", GateOpenUnprotected.String())
}
