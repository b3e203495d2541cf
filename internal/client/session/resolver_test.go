package session

import (
	"context"
	"testing"

	"github.com/sqlparrot/sqlparrot/internal/client/api"
	"github.com/sqlparrot/sqlparrot/internal/models"
	"github.com/stretchr/testify/require"
)

func TestResolver_PassesStatusThrough(t *testing.T) {
	f := &fakeClient{statusResp: setStatus()}
	r := NewStatusResolver(f, true, nil)

	status, err := r.Resolve(context.Background())
	require.NoError(t, err)
	require.Equal(t, models.PasswordStatusSet, status.Status)
	require.True(t, status.Protected())
}

func TestResolver_FailOpenFallsBackToUnprotected(t *testing.T) {
	f := &fakeClient{statusErr: api.ErrUnavailable}
	r := NewStatusResolver(f, true, nil)

	status, err := r.Resolve(context.Background())
	require.NoError(t, err)
	require.Equal(t, models.PasswordStatusNotSet, status.Status)
	require.False(t, status.Protected())
}

func TestResolver_FailClosedSurfacesError(t *testing.T) {
	f := &fakeClient{statusErr: api.ErrUnavailable}
	r := NewStatusResolver(f, false, nil)

	_, err := r.Resolve(context.Background())
	require.ErrorIs(t, err, api.ErrUnavailable)
}
