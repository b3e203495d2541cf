package cli

import (
	"context"
	"os"

	"github.com/awnumar/memguard"
)

// SetupPassword establishes UI password protection. It prompts for the new
// password twice, submits it, and then immediately verifies it so the
// current session ends up authenticated instead of locked out of its own
// new password.
func (a *App) SetupPassword(ctx context.Context) error {
	password, err := getPassword(os.Stdout, "Enter new UI password")
	if err != nil {
		return err
	}
	defer memguard.WipeBytes(password)

	confirm, err := getPassword(os.Stdout, "Confirm new UI password")
	if err != nil {
		return err
	}
	defer memguard.WipeBytes(confirm)

	if err := a.passwords.Set(ctx, string(password), string(confirm)); err != nil {
		a.theme.Error.Printf("Set password failed: %v\n", err)
		return err
	}

	if err := a.passwords.Check(ctx, string(password)); err != nil {
		// Protection is on; the user just has to unlock by hand.
		a.theme.Warning.Printf("Password set, but signing in failed: %v\n", err)
		return nil
	}
	a.theme.Success.Println("Password set, session unlocked.")
	return nil
}

// ChangePassword replaces the UI password, proving knowledge of the current
// one. The session stays authenticated afterwards.
func (a *App) ChangePassword(ctx context.Context) error {
	current, err := getPassword(os.Stdout, "Enter current UI password")
	if err != nil {
		return err
	}
	defer memguard.WipeBytes(current)

	password, err := getPassword(os.Stdout, "Enter new UI password")
	if err != nil {
		return err
	}
	defer memguard.WipeBytes(password)

	confirm, err := getPassword(os.Stdout, "Confirm new UI password")
	if err != nil {
		return err
	}
	defer memguard.WipeBytes(confirm)

	if err := a.passwords.Change(ctx, string(current), string(password), string(confirm)); err != nil {
		a.theme.Error.Printf("Change password failed: %v\n", err)
		return err
	}

	a.theme.Success.Println("Password changed.")
	return nil
}

// RemovePassword drops UI password protection after confirming the current
// password and the user's intent.
func (a *App) RemovePassword(ctx context.Context) error {
	ok, err := getConfirmation(a.reader, "Remove UI password protection?", os.Stdout)
	if err != nil {
		return err
	}
	if !ok {
		a.theme.Muted.Println("Cancelled.")
		return nil
	}

	current, err := getPassword(os.Stdout, "Enter current UI password")
	if err != nil {
		return err
	}
	defer memguard.WipeBytes(current)

	if err := a.passwords.Remove(ctx, string(current)); err != nil {
		a.theme.Error.Printf("Remove password failed: %v\n", err)
		return err
	}

	a.theme.Success.Println("Password removed. The UI is no longer protected.")
	return nil
}
