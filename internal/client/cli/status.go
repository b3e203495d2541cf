package cli

import (
	"context"
	"fmt"
)

// RunStatus decides the gate once, prints the status report, and returns.
// It is the non-interactive counterpart of the shell's status command.
func (a *App) RunStatus(ctx context.Context) error {
	defer a.client.Close()

	if _, err := a.gate.Decide(ctx); err != nil {
		a.theme.Error.Printf("Cannot determine protection status: %v\n", err)
	}
	return a.Status(ctx)
}

// Status prints the session gate state, password protection status, and
// backend health. Metadata details are shown only when unlocked.
func (a *App) Status(ctx context.Context) error {
	a.theme.Title.Println("Session")
	fmt.Printf("  gate:       %s\n", a.gate.State())

	st := a.gate.Status()
	switch {
	case st.Protected():
		fmt.Println("  protection: password set")
	case st.PasswordSkipped:
		fmt.Println("  protection: skipped")
	default:
		fmt.Println("  protection: none")
	}
	if st.EnvVarIgnored {
		a.theme.Warning.Println("  note: SQLPARROT_UI_PASSWORD is set but ignored; a password is already stored")
	}

	health, err := a.client.CheckHealth(ctx)
	if err != nil {
		a.theme.Error.Printf("  backend:    unreachable (%v)\n", err)
		return nil
	}
	fmt.Printf("  backend:    %s on %s\n", health.Version, health.Platform)
	if health.Connected {
		a.theme.Success.Println("  sql server: connected")
		if health.SQLServerVersion != "" {
			fmt.Printf("  version:    %s\n", health.SQLServerVersion)
		}
	} else {
		a.theme.Warning.Println("  sql server: not connected")
	}

	if !a.isUnlocked() {
		return nil
	}

	meta, err := a.client.GetMetadataStatus(ctx)
	if err == nil {
		line := fmt.Sprintf("  metadata:   %s", meta.Mode)
		if meta.Database != "" {
			line += " (" + meta.Database + ")"
		}
		fmt.Println(line)
	}
	return nil
}
