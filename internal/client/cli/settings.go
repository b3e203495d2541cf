package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
)

// ShowSettings prints the backend's application settings.
func (a *App) ShowSettings(ctx context.Context) error {
	s, err := a.client.GetSettings(ctx)
	if err != nil {
		a.theme.Error.Printf("Error: %v\n", err)
		return err
	}

	a.theme.Title.Println("Settings")
	fmt.Printf("  default group:        %s\n", orDash(s.Preferences.DefaultGroup))
	fmt.Printf("  max history entries:  %d\n", s.Preferences.MaxHistoryEntries)
	fmt.Printf("  auto checkpoint:      %t\n", s.Preferences.AutoCreateCheckpoint)
	fmt.Printf("  auto verification:    %t", s.AutoVerification.Enabled)
	if s.AutoVerification.Enabled {
		fmt.Printf(" (every %d min)", s.AutoVerification.IntervalMinutes)
	}
	fmt.Println()
	if s.Connection.Server != "" {
		fmt.Printf("  server:               %s:%d\n", s.Connection.Server, s.Connection.Port)
	}
	return nil
}

// EditSettings walks through each setting; pressing Enter keeps the current
// value. The updated settings are echoed back from the backend.
func (a *App) EditSettings(ctx context.Context) error {
	s, err := a.client.GetSettings(ctx)
	if err != nil {
		a.theme.Error.Printf("Error: %v\n", err)
		return err
	}

	if v, err := getSimpleText(a.reader,
		fmt.Sprintf("Default group (Enter keeps %s)", orDash(s.Preferences.DefaultGroup)), os.Stdout); err != nil {
		return err
	} else if v != "" {
		s.Preferences.DefaultGroup = v
	}

	if v, err := getSimpleText(a.reader,
		fmt.Sprintf("Max history entries (Enter keeps %d)", s.Preferences.MaxHistoryEntries), os.Stdout); err != nil {
		return err
	} else if v != "" {
		n, convErr := strconv.Atoi(v)
		if convErr != nil || n < 1 {
			a.theme.Error.Println("Max history entries must be a positive number.")
			return nil
		}
		s.Preferences.MaxHistoryEntries = n
	}

	if v, err := getConfirmation(a.reader,
		fmt.Sprintf("Create automatic checkpoint after rollback? (currently %t)", s.Preferences.AutoCreateCheckpoint), os.Stdout); err != nil {
		return err
	} else {
		s.Preferences.AutoCreateCheckpoint = v
	}

	if v, err := getConfirmation(a.reader,
		fmt.Sprintf("Enable periodic snapshot verification? (currently %t)", s.AutoVerification.Enabled), os.Stdout); err != nil {
		return err
	} else {
		s.AutoVerification.Enabled = v
	}

	if s.AutoVerification.Enabled {
		if v, err := getSimpleText(a.reader,
			fmt.Sprintf("Verification interval in minutes (Enter keeps %d)", s.AutoVerification.IntervalMinutes), os.Stdout); err != nil {
			return err
		} else if v != "" {
			n, convErr := strconv.Atoi(v)
			if convErr != nil || n < 1 {
				a.theme.Error.Println("Interval must be a positive number of minutes.")
				return nil
			}
			s.AutoVerification.IntervalMinutes = n
		}
	}

	if _, err := a.client.UpdateSettings(ctx, s); err != nil {
		a.theme.Error.Printf("Update settings failed: %v\n", err)
		return err
	}

	a.theme.Success.Println("Settings saved.")
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
