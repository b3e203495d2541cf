package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sqlparrot/sqlparrot/internal/models"
)

// Databases lists the user databases visible on the SQL Server instance.
func (a *App) Databases(ctx context.Context) error {
	dbs, err := a.client.GetDatabases(ctx)
	if err != nil {
		a.theme.Error.Printf("Error: %v\n", err)
		return err
	}
	if len(dbs) == 0 {
		a.theme.Muted.Println("No user databases found.")
		return nil
	}
	a.theme.Title.Println("Databases")
	for _, db := range dbs {
		line := "  " + db.Name
		if db.Category != "" {
			line += "  [" + db.Category + "]"
		}
		fmt.Println(line)
	}
	return nil
}

// ListGroups prints every snapshot group with its member databases.
func (a *App) ListGroups(ctx context.Context) error {
	groups, err := a.client.GetGroups(ctx)
	if err != nil {
		a.theme.Error.Printf("Error: %v\n", err)
		return err
	}
	if len(groups) == 0 {
		a.theme.Muted.Println("No groups yet. Use 'group create' to add one.")
		return nil
	}
	a.theme.Title.Println("Groups")
	for _, g := range groups {
		fmt.Printf("  %s  %s  (%s)\n", g.ID, g.Name, strings.Join(g.Databases, ", "))
	}
	return nil
}

// CreateGroup prompts for a name and member databases and creates the group.
func (a *App) CreateGroup(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Group name", os.Stdout)
	if err != nil {
		return err
	}
	databases, err := getList(a.reader, "Databases (comma-separated)", os.Stdout)
	if err != nil {
		return err
	}

	group, err := a.client.CreateGroup(ctx, name, databases)
	if err != nil {
		a.theme.Error.Printf("Create group failed: %v\n", err)
		return err
	}
	a.theme.Success.Printf("Group %q created (%s).\n", group.Name, group.ID)
	return nil
}

// EditGroup renames a group or changes its member databases. Removing a
// database discards every snapshot the group holds, so that path asks for
// confirmation first.
func (a *App) EditGroup(ctx context.Context) error {
	group, err := a.pickGroup(ctx)
	if err != nil {
		return err
	}

	name, err := getSimpleText(a.reader, fmt.Sprintf("New name (Enter keeps %q)", group.Name), os.Stdout)
	if err != nil {
		return err
	}
	if name == "" {
		name = group.Name
	}

	databases, err := getList(a.reader, fmt.Sprintf("Databases (Enter keeps %s)", strings.Join(group.Databases, ", ")), os.Stdout)
	if err != nil {
		return err
	}
	if len(databases) == 0 {
		databases = group.Databases
	}

	if removed := missingFrom(group.Databases, databases); len(removed) > 0 {
		ok, err := getConfirmation(a.reader,
			fmt.Sprintf("Removing %s discards all snapshots of this group. Continue?", strings.Join(removed, ", ")),
			os.Stdout)
		if err != nil {
			return err
		}
		if !ok {
			a.theme.Muted.Println("Cancelled.")
			return nil
		}
	}

	updated, err := a.client.UpdateGroup(ctx, group.ID, name, databases)
	if err != nil {
		a.theme.Error.Printf("Update group failed: %v\n", err)
		return err
	}
	a.theme.Success.Printf("Group %q updated.\n", updated.Name)
	return nil
}

// DeleteGroup removes a group and all of its snapshots after confirmation.
func (a *App) DeleteGroup(ctx context.Context) error {
	group, err := a.pickGroup(ctx)
	if err != nil {
		return err
	}

	ok, err := getConfirmation(a.reader,
		fmt.Sprintf("Delete group %q and all of its snapshots?", group.Name), os.Stdout)
	if err != nil {
		return err
	}
	if !ok {
		a.theme.Muted.Println("Cancelled.")
		return nil
	}

	if err := a.client.DeleteGroup(ctx, group.ID); err != nil {
		a.theme.Error.Printf("Delete group failed: %v\n", err)
		return err
	}
	a.theme.Success.Printf("Group %q deleted.\n", group.Name)
	return nil
}

// pickGroup prompts for a group by name or id and resolves it against the
// backend's group list.
func (a *App) pickGroup(ctx context.Context) (models.Group, error) {
	groups, err := a.client.GetGroups(ctx)
	if err != nil {
		a.theme.Error.Printf("Error: %v\n", err)
		return models.Group{}, err
	}
	if len(groups) == 0 {
		a.theme.Muted.Println("No groups yet.")
		return models.Group{}, fmt.Errorf("no groups")
	}

	for _, g := range groups {
		fmt.Printf("  %s  %s\n", g.ID, g.Name)
	}
	key, err := getSimpleText(a.reader, "Group (name or id)", os.Stdout)
	if err != nil {
		return models.Group{}, err
	}

	for _, g := range groups {
		if g.ID == key || strings.EqualFold(g.Name, key) {
			return g, nil
		}
	}
	a.theme.Error.Printf("No group %q.\n", key)
	return models.Group{}, fmt.Errorf("unknown group %q", key)
}

// missingFrom returns the items of old that are absent from new.
func missingFrom(old, new []string) []string {
	keep := make(map[string]struct{}, len(new))
	for _, db := range new {
		keep[db] = struct{}{}
	}
	var missing []string
	for _, db := range old {
		if _, ok := keep[db]; !ok {
			missing = append(missing, db)
		}
	}
	return missing
}
