package cli

import (
	"context"
	"errors"
	"os"

	"github.com/awnumar/memguard"
	"github.com/sqlparrot/sqlparrot/internal/client/api"
	"github.com/sqlparrot/sqlparrot/internal/client/session"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword
var getConfirmation = GetConfirmation
var getList = GetList

// Unlock prompts for the UI password and verifies it against the backend.
//
// Verification is fail-closed: an unreachable backend reports an error and
// the session stays locked. On success the gate opens and, when the backend
// issued a session token, it is kept for subsequent requests.
//
// The password is securely wiped before returning.
func (a *App) Unlock(ctx context.Context) error {
	password, err := getPassword(os.Stdout, "Enter UI password")
	if err != nil {
		return err
	}
	defer memguard.WipeBytes(password)

	if err := a.passwords.Check(ctx, string(password)); err != nil {
		if errors.Is(err, api.ErrUnavailable) {
			a.theme.Error.Println("Backend unavailable; cannot verify the password right now.")
		} else {
			a.theme.Error.Printf("Unlock failed: %v\n", err)
		}
		return err
	}

	a.theme.Success.Println("Session unlocked.")
	return nil
}

// Lock drops the session token and returns to the locked screen. Without a
// configured password there is nothing to lock behind.
func (a *App) Lock(ctx context.Context) error {
	if a.gate.Lock() == session.GateLocked {
		a.theme.Info.Println("Session locked.")
	} else {
		a.theme.Muted.Println("No UI password configured; nothing to lock behind.")
	}
	return nil
}

// SkipProtection records that the user declined to set a UI password, which
// silences the first-launch hint on the backend.
func (a *App) SkipProtection(ctx context.Context) error {
	if a.isProtected() {
		a.theme.Warning.Println("A password is already configured.")
		return nil
	}
	if err := a.passwords.Skip(ctx); err != nil {
		a.theme.Error.Printf("Skip failed: %v\n", err)
		return err
	}
	a.theme.Muted.Println("Password protection skipped. You can set one later with 'set-password'.")
	return nil
}
