package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
)

// ShowHistory prints recent operations, newest first. An optional numeric
// argument caps the number of entries.
func (a *App) ShowHistory(ctx context.Context, args []string) error {
	limit := 0
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			printlnFn("Usage: history [n]")
			return nil
		}
		limit = n
	}

	entries, err := a.client.GetHistory(ctx, limit)
	if err != nil {
		a.theme.Error.Printf("Error: %v\n", err)
		return err
	}
	if len(entries) == 0 {
		a.theme.Muted.Println("History is empty.")
		return nil
	}

	a.theme.Title.Println("History")
	for _, e := range entries {
		line := fmt.Sprintf("  %s  %-28s", e.Timestamp.Format("2006-01-02 15:04:05"), e.Type)
		if e.UserName != "" {
			line += "  by " + e.UserName
		}
		fmt.Println(line)
		for _, r := range e.Results {
			if r.Success {
				a.theme.Muted.Printf("      %s: ok\n", r.Database)
			} else {
				a.theme.Error.Printf("      %s: %s\n", r.Database, r.Error)
			}
		}
	}
	return nil
}

// ClearHistory wipes the whole operation history after confirmation.
func (a *App) ClearHistory(ctx context.Context) error {
	ok, err := getConfirmation(a.reader, "Clear the entire operation history?", os.Stdout)
	if err != nil {
		return err
	}
	if !ok {
		a.theme.Muted.Println("Cancelled.")
		return nil
	}

	if err := a.client.ClearHistory(ctx); err != nil {
		a.theme.Error.Printf("Clear history failed: %v\n", err)
		return err
	}
	a.theme.Success.Println("History cleared.")
	return nil
}

// TrimHistory drops the oldest entries beyond the configured retention.
func (a *App) TrimHistory(ctx context.Context) error {
	deleted, err := a.client.TrimHistory(ctx)
	if err != nil {
		a.theme.Error.Printf("Trim history failed: %v\n", err)
		return err
	}
	if deleted == 0 {
		a.theme.Muted.Println("History already within the configured limit.")
		return nil
	}
	a.theme.Success.Printf("Trimmed %d history entr%s.\n", deleted, pluralSuffix(deleted))
	return nil
}

func pluralSuffix(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
