package session

import (
	"context"
	"errors"

	"github.com/sqlparrot/sqlparrot/internal/client/api"
)

// MinPasswordLength is the shortest accepted UI password.
const MinPasswordLength = 6

var (
	// ErrPasswordTooShort is returned before any backend call when a new
	// password is below MinPasswordLength.
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	// ErrPasswordMismatch is returned before any backend call when the
	// confirmation does not match the new password.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrCurrentPasswordRequired is returned before any backend call when an
	// operation needs the current password and none was given.
	ErrCurrentPasswordRequired = errors.New("current password is required")
	// ErrInvalidPassword is returned when the backend rejects the password
	// without supplying its own message.
	ErrInvalidPassword = errors.New("invalid password")
)

// PasswordService drives the password lifecycle against the backend.
//
// Contract:
//   - Check: verify the password; on success the session becomes
//     authenticated and any returned token is stored. Fail-closed: a dead
//     backend is an error, never a pass.
//   - Set: establish protection on an unprotected backend.
//   - Change: replace the password, proving knowledge of the current one.
//   - Remove: drop protection, proving knowledge of the current password.
//   - Skip: record that the user declined protection.
//
// Input validation happens before any backend call; validation failures
// never touch the network. After a successful Set, Change, Remove, or Skip
// the gate is re-decided from the fresh backend status.
type PasswordService interface {
	Check(ctx context.Context, password string) error
	Set(ctx context.Context, password, confirm string) error
	Change(ctx context.Context, current, password, confirm string) error
	Remove(ctx context.Context, current string) error
	Skip(ctx context.Context) error
}

type passwordService struct {
	client api.Client
	tokens *TokenStore
	gate   *Gate
}

// NewPasswordService constructs a PasswordService bound to the given
// transport, token store, and gate.
func NewPasswordService(client api.Client, tokens *TokenStore, gate *Gate) PasswordService {
	return &passwordService{client: client, tokens: tokens, gate: gate}
}

// Check submits the password. On success the token from the detailed
// response shape is stored; the bare-boolean shape authenticates without
// one. A rejection keeps the gate locked.
func (p *passwordService) Check(ctx context.Context, password string) error {
	res, err := p.client.CheckPassword(ctx, password)
	if err != nil {
		return err
	}
	if !res.Authenticated {
		return ErrInvalidPassword
	}
	if res.SessionToken != "" {
		p.tokens.Set(res.SessionToken)
	}
	p.gate.grant()
	return nil
}

func (p *passwordService) Set(ctx context.Context, password, confirm string) error {
	if err := validateNewPassword(password, confirm); err != nil {
		return err
	}
	if err := p.client.SetPassword(ctx, password, confirm); err != nil {
		return err
	}
	_, err := p.gate.Decide(ctx)
	return err
}

func (p *passwordService) Change(ctx context.Context, current, password, confirm string) error {
	if current == "" {
		return ErrCurrentPasswordRequired
	}
	if err := validateNewPassword(password, confirm); err != nil {
		return err
	}
	if err := p.client.ChangePassword(ctx, current, password, confirm); err != nil {
		return err
	}
	_, err := p.gate.Decide(ctx)
	return err
}

func (p *passwordService) Remove(ctx context.Context, current string) error {
	if current == "" {
		return ErrCurrentPasswordRequired
	}
	if err := p.client.RemovePassword(ctx, current); err != nil {
		return err
	}
	_, err := p.gate.Decide(ctx)
	return err
}

func (p *passwordService) Skip(ctx context.Context) error {
	if err := p.client.SkipPassword(ctx); err != nil {
		return err
	}
	_, err := p.gate.Decide(ctx)
	return err
}

func validateNewPassword(password, confirm string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	return nil
}
