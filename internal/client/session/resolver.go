package session

import (
	"context"

	"github.com/sqlparrot/sqlparrot/internal/client/api"
	"github.com/sqlparrot/sqlparrot/internal/logging"
	"github.com/sqlparrot/sqlparrot/internal/models"
)

// StatusResolver fetches the backend's password protection status. When the
// backend cannot answer and failOpen is set, an unreachable status check is
// treated as "no password configured" so startup is never wedged behind a
// backend that is still coming up.
type StatusResolver struct {
	client   api.Client
	failOpen bool
	logger   logging.Logger
}

func NewStatusResolver(client api.Client, failOpen bool, logger logging.Logger) *StatusResolver {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &StatusResolver{client: client, failOpen: failOpen, logger: logger}
}

// Resolve returns the current protection status. On a failed status check it
// either falls back to the unprotected status (fail-open, logged as a
// warning) or surfaces the error (fail-closed).
func (r *StatusResolver) Resolve(ctx context.Context) (models.PasswordStatus, error) {
	status, err := r.client.PasswordStatus(ctx)
	if err == nil {
		return status, nil
	}
	if r.failOpen {
		r.logger.Warn(ctx, "password status check failed, assuming unprotected", "error", err)
		return models.UnprotectedStatus(), nil
	}
	return models.PasswordStatus{}, err
}
