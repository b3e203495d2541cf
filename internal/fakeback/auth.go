package fakeback

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/sqlparrot/sqlparrot/internal/logging"
	"github.com/sqlparrot/sqlparrot/internal/models"
)

const (
	envPasswordVar    = "SQLPARROT_UI_PASSWORD"
	minPasswordLength = 6
	tokenSubject      = "sqlparrot-ui"
	tokenTTL          = 12 * time.Hour
)

// Authenticator owns the UI password lifecycle. Session tokens are HS256
// JWTs signed with a random per-process secret, so restarting the backend
// invalidates every outstanding token.
type Authenticator struct {
	store  *Store
	logger logging.Logger
	secret []byte

	// envIgnored is written once during SeedFromEnv, before any server
	// goroutine starts.
	envIgnored bool
}

func NewAuthenticator(store *Store, logger logging.Logger) (*Authenticator, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generating token secret: %w", err)
	}
	return &Authenticator{store: store, logger: logger, secret: secret}, nil
}

// SeedFromEnv applies SQLPARROT_UI_PASSWORD. A stored password always wins:
// the env var is then ignored and the password status reports it as such.
func (a *Authenticator) SeedFromEnv(ctx context.Context) error {
	password := os.Getenv(envPasswordVar)
	if password == "" {
		return nil
	}

	hash, _, err := a.store.AuthState(ctx)
	if err != nil {
		return err
	}
	if hash != "" {
		a.envIgnored = true
		a.logger.Warn(ctx, "ignoring environment password: a password is already set", "var", envPasswordVar)
		return nil
	}
	if len(password) < minPasswordLength {
		a.logger.Warn(ctx, "ignoring environment password: below minimum length", "var", envPasswordVar)
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if err := a.store.SetPasswordHash(ctx, string(hashed)); err != nil {
		return err
	}
	a.logger.Info(ctx, "UI password seeded from environment", "var", envPasswordVar)
	return nil
}

// Status derives the current password status. A stored hash wins over the
// skip flag; neither means not-set.
func (a *Authenticator) Status(ctx context.Context) (models.PasswordStatus, error) {
	hash, skipped, err := a.store.AuthState(ctx)
	if err != nil {
		return models.PasswordStatus{}, err
	}

	status := models.PasswordStatus{EnvVarIgnored: a.envIgnored}
	switch {
	case hash != "":
		status.Status = models.PasswordStatusSet
		status.PasswordSet = true
	case skipped:
		status.Status = models.PasswordStatusSkipped
		status.PasswordSkipped = true
	default:
		status.Status = models.PasswordStatusNotSet
	}
	return status, nil
}

// Check verifies the password. A mismatch is not an error: the caller gets
// Authenticated false and decides what to surface. On a match a fresh
// session token is issued.
func (a *Authenticator) Check(ctx context.Context, password string) (models.AuthCheck, error) {
	hash, _, err := a.store.AuthState(ctx)
	if err != nil {
		return models.AuthCheck{}, err
	}
	if hash == "" {
		return models.AuthCheck{}, errors.New("no password is set")
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return models.AuthCheck{}, nil
	}

	token, err := a.issueToken()
	if err != nil {
		return models.AuthCheck{}, fmt.Errorf("issuing session token: %w", err)
	}
	return models.AuthCheck{Authenticated: true, SessionToken: token}, nil
}

// Set establishes protection on an unprotected backend.
func (a *Authenticator) Set(ctx context.Context, password, confirm string) error {
	hash, _, err := a.store.AuthState(ctx)
	if err != nil {
		return err
	}
	if hash != "" {
		return errors.New("a password is already set")
	}
	if err := validatePassword(password, confirm); err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	return a.store.SetPasswordHash(ctx, string(hashed))
}

// Change replaces the password after verifying the current one.
func (a *Authenticator) Change(ctx context.Context, current, password, confirm string) error {
	if err := a.verifyCurrent(ctx, current); err != nil {
		return err
	}
	if err := validatePassword(password, confirm); err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	return a.store.SetPasswordHash(ctx, string(hashed))
}

// Remove drops protection after verifying the current password.
func (a *Authenticator) Remove(ctx context.Context, current string) error {
	if err := a.verifyCurrent(ctx, current); err != nil {
		return err
	}
	return a.store.ClearPassword(ctx)
}

// Skip records that the operator declined protection.
func (a *Authenticator) Skip(ctx context.Context) error {
	hash, _, err := a.store.AuthState(ctx)
	if err != nil {
		return err
	}
	if hash != "" {
		return errors.New("a password is already set")
	}
	return a.store.SetSkipped(ctx, true)
}

func (a *Authenticator) verifyCurrent(ctx context.Context, current string) error {
	hash, _, err := a.store.AuthState(ctx)
	if err != nil {
		return err
	}
	if hash == "" {
		return errors.New("no password is set")
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(current)) != nil {
		return errors.New("current password is incorrect")
	}
	return nil
}

func validatePassword(password, confirm string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	if password != confirm {
		return errors.New("passwords do not match")
	}
	return nil
}

func (a *Authenticator) issueToken() (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   tokenSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	})
	return token.SignedString(a.secret)
}

// ValidateToken checks the signature and expiry of a session token.
func (a *Authenticator) ValidateToken(tokenString string) error {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	})
	if err != nil {
		return err
	}
	if !token.Valid {
		return errors.New("invalid session token")
	}
	return nil
}
