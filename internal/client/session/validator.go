package session

import (
	"context"
	"errors"

	"github.com/sqlparrot/sqlparrot/internal/client/api"
)

// TokenVerdict is the outcome of probing the backend with the held token.
type TokenVerdict int

const (
	// TokenValid: the backend accepted the token.
	TokenValid TokenVerdict = iota
	// TokenInvalid: the backend rejected the token outright.
	TokenInvalid
	// TokenIndeterminate: the probe failed for reasons other than rejection,
	// so nothing can be concluded about the token.
	TokenIndeterminate
)

func (v TokenVerdict) String() string {
	switch v {
	case TokenValid:
		return "valid"
	case TokenInvalid:
		return "invalid"
	default:
		return "indeterminate"
	}
}

// TokenValidator checks whether the held session token is still accepted.
// It probes a cheap authenticated read endpoint rather than a dedicated
// validation route, so it works against any backend version.
type TokenValidator struct {
	client api.Client
}

func NewTokenValidator(client api.Client) *TokenValidator {
	return &TokenValidator{client: client}
}

// Validate probes the backend with the held token attached. Only an explicit
// rejection condemns the token; transport trouble is indeterminate.
func (v *TokenValidator) Validate(ctx context.Context) TokenVerdict {
	_, err := v.client.GetSettings(ctx)
	switch {
	case err == nil:
		return TokenValid
	case errors.Is(err, api.ErrUnauthorized):
		return TokenInvalid
	default:
		return TokenIndeterminate
	}
}
