package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sqlparrot/sqlparrot/internal/models"
)

// ListSnapshots prints the snapshots of one group, newest first.
func (a *App) ListSnapshots(ctx context.Context) error {
	group, err := a.pickGroup(ctx)
	if err != nil {
		return err
	}

	snaps, err := a.client.GetSnapshots(ctx, group.ID)
	if err != nil {
		a.theme.Error.Printf("Error: %v\n", err)
		return err
	}
	if len(snaps) == 0 {
		a.theme.Muted.Println("No snapshots in this group.")
		return nil
	}

	a.theme.Title.Printf("Snapshots of %q\n", group.Name)
	for _, s := range snaps {
		line := fmt.Sprintf("  %s  #%d  %s  %s", s.ID, s.Sequence, s.DisplayName, s.CreatedAt.Format("2006-01-02 15:04"))
		if s.IsAutomatic {
			line += "  (automatic)"
		}
		fmt.Println(line)
		for _, ds := range s.DatabaseSnapshots {
			marker := "ok"
			if !ds.Success {
				marker = "FAILED"
			}
			a.theme.Muted.Printf("      %s -> %s [%s]\n", ds.Database, ds.SnapshotName, marker)
		}
	}
	return nil
}

// CreateSnapshot snapshots every database of a group in one operation.
func (a *App) CreateSnapshot(ctx context.Context) error {
	group, err := a.pickGroup(ctx)
	if err != nil {
		return err
	}

	name, err := getSimpleText(a.reader, "Snapshot name (Enter for automatic numbering)", os.Stdout)
	if err != nil {
		return err
	}

	snap, err := a.client.CreateSnapshot(ctx, group.ID, name)
	if err != nil {
		a.theme.Error.Printf("Create snapshot failed: %v\n", err)
		return err
	}

	a.theme.Success.Printf("Snapshot %q created.\n", snap.DisplayName)
	for _, ds := range snap.DatabaseSnapshots {
		if ds.Success {
			a.theme.Muted.Printf("  %s -> %s\n", ds.Database, ds.SnapshotName)
		} else {
			a.theme.Error.Printf("  %s FAILED: %s\n", ds.Database, ds.Error)
		}
	}
	return nil
}

// DeleteSnapshot removes one snapshot after confirmation.
func (a *App) DeleteSnapshot(ctx context.Context) error {
	snap, err := a.pickSnapshot(ctx)
	if err != nil {
		return err
	}

	ok, err := getConfirmation(a.reader,
		fmt.Sprintf("Delete snapshot %q?", snap.DisplayName), os.Stdout)
	if err != nil {
		return err
	}
	if !ok {
		a.theme.Muted.Println("Cancelled.")
		return nil
	}

	if err := a.client.DeleteSnapshot(ctx, snap.ID); err != nil {
		a.theme.Error.Printf("Delete snapshot failed: %v\n", err)
		return err
	}
	a.theme.Success.Printf("Snapshot %q deleted.\n", snap.DisplayName)
	return nil
}

// Rollback restores every database of a group to a chosen snapshot. When all
// databases restore, the group's snapshots are consumed and, depending on
// settings, a fresh checkpoint is taken; partial failures are listed
// per database.
func (a *App) Rollback(ctx context.Context) error {
	snap, err := a.pickSnapshot(ctx)
	if err != nil {
		return err
	}

	ok, err := getConfirmation(a.reader,
		fmt.Sprintf("Roll back to %q? This replaces current data.", snap.DisplayName), os.Stdout)
	if err != nil {
		return err
	}
	if !ok {
		a.theme.Muted.Println("Cancelled.")
		return nil
	}

	res, err := a.client.RollbackSnapshot(ctx, snap.ID)
	if err != nil {
		a.theme.Error.Printf("Rollback failed: %v\n", err)
		// Partial results still name the databases that made it.
		printRollbackResult(a.theme, res)
		return err
	}

	a.theme.Success.Printf("Rolled back to %q.\n", snap.DisplayName)
	printRollbackResult(a.theme, res)
	return nil
}

func printRollbackResult(theme *Theme, res models.RollbackResult) {
	for _, r := range res.Results {
		if r.Success {
			theme.Muted.Printf("  restored: %s\n", r.Database)
		} else {
			theme.Error.Printf("  failed:   %s (%s)\n", r.Database, r.Error)
		}
	}
	if res.DatabasesFailed > 0 {
		theme.Warning.Printf("%d of %d databases restored.\n",
			res.DatabasesRestored, res.DatabasesRestored+res.DatabasesFailed)
	}
}

// Verify compares a group's snapshot metadata against the snapshots that
// actually exist on the server, reporting stale metadata and orphaned
// server-side snapshots.
func (a *App) Verify(ctx context.Context) error {
	group, err := a.pickGroup(ctx)
	if err != nil {
		return err
	}

	res, err := a.client.VerifySnapshots(ctx, group.ID)
	if err != nil {
		a.theme.Error.Printf("Verify failed: %v\n", err)
		return err
	}

	if res.Verified {
		a.theme.Success.Printf("All snapshots of %q check out.\n", group.Name)
		return nil
	}

	a.theme.Warning.Printf("Snapshots of %q are inconsistent:\n", group.Name)
	for _, name := range res.StaleMetadata {
		a.theme.Warning.Printf("  stale metadata:    %s\n", name)
	}
	for _, name := range res.OrphanedSnapshots {
		a.theme.Warning.Printf("  orphaned snapshot: %s\n", name)
	}
	if res.Cleaned {
		a.theme.Muted.Println("  stale metadata records were cleaned up")
	}
	return nil
}

// pickSnapshot narrows down to one snapshot: first the group, then the
// snapshot by id, sequence number, or display name.
func (a *App) pickSnapshot(ctx context.Context) (models.Snapshot, error) {
	group, err := a.pickGroup(ctx)
	if err != nil {
		return models.Snapshot{}, err
	}

	snaps, err := a.client.GetSnapshots(ctx, group.ID)
	if err != nil {
		a.theme.Error.Printf("Error: %v\n", err)
		return models.Snapshot{}, err
	}
	if len(snaps) == 0 {
		a.theme.Muted.Println("No snapshots in this group.")
		return models.Snapshot{}, errors.New("no snapshots")
	}

	for _, s := range snaps {
		fmt.Printf("  %s  #%d  %s\n", s.ID, s.Sequence, s.DisplayName)
	}
	key, err := getSimpleText(a.reader, "Snapshot (id, #sequence, or name)", os.Stdout)
	if err != nil {
		return models.Snapshot{}, err
	}

	for _, s := range snaps {
		if s.ID == key ||
			fmt.Sprintf("#%d", s.Sequence) == key ||
			fmt.Sprintf("%d", s.Sequence) == key ||
			strings.EqualFold(s.DisplayName, key) {
			return s, nil
		}
	}
	a.theme.Error.Printf("No snapshot %q.\n", key)
	return models.Snapshot{}, fmt.Errorf("unknown snapshot %q", key)
}
