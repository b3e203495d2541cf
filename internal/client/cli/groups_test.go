package cli

import (
	"bufio"
	"context"
	"io"
	"reflect"
	"testing"

	"github.com/sqlparrot/sqlparrot/internal/models"
)

// stubSimpleText makes getSimpleText return the given lines in order.
func stubSimpleText(t *testing.T, lines ...string) func() {
	t.Helper()
	orig := getSimpleText
	i := 0
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) {
		if i >= len(lines) {
			return "", io.EOF
		}
		line := lines[i]
		i++
		return line, nil
	}
	return func() { getSimpleText = orig }
}

func stubList(t *testing.T, items []string) func() {
	t.Helper()
	orig := getList
	getList = func(_ *bufio.Reader, _ string, _ io.Writer) ([]string, error) { return items, nil }
	return func() { getList = orig }
}

func twoGroups() []models.Group {
	return []models.Group{
		{ID: "g-1", Name: "Alpha", Databases: []string{"Sales", "Staging"}},
		{ID: "g-2", Name: "Beta", Databases: []string{"Warehouse"}},
	}
}

func TestCreateGroup_SendsNameAndDatabases(t *testing.T) {
	c := &fakeClient{}
	a := newTestApp(c)

	restoreT := stubSimpleText(t, "Reporting")
	defer restoreT()
	restoreL := stubList(t, []string{"Sales", "Staging"})
	defer restoreL()

	if err := a.CreateGroup(context.Background()); err != nil {
		t.Fatalf("CreateGroup err: %v", err)
	}
	if c.createdGroupName != "Reporting" {
		t.Fatalf("group name mismatch: %q", c.createdGroupName)
	}
	if !reflect.DeepEqual(c.createdGroupDBs, []string{"Sales", "Staging"}) {
		t.Fatalf("group databases mismatch: %v", c.createdGroupDBs)
	}
}

func TestPickGroup_ByID(t *testing.T) {
	a := newTestApp(&fakeClient{groupsResp: twoGroups()})

	restore := stubSimpleText(t, "g-2")
	defer restore()

	g, err := a.pickGroup(context.Background())
	if err != nil {
		t.Fatalf("pickGroup err: %v", err)
	}
	if g.Name != "Beta" {
		t.Fatalf("picked %q", g.Name)
	}
}

func TestPickGroup_ByNameCaseInsensitive(t *testing.T) {
	a := newTestApp(&fakeClient{groupsResp: twoGroups()})

	restore := stubSimpleText(t, "beta")
	defer restore()

	g, err := a.pickGroup(context.Background())
	if err != nil {
		t.Fatalf("pickGroup err: %v", err)
	}
	if g.ID != "g-2" {
		t.Fatalf("picked %q", g.ID)
	}
}

func TestPickGroup_Unknown(t *testing.T) {
	a := newTestApp(&fakeClient{groupsResp: twoGroups()})

	restore := stubSimpleText(t, "gamma")
	defer restore()

	if _, err := a.pickGroup(context.Background()); err == nil {
		t.Fatalf("want error for unknown group")
	}
}

func TestEditGroup_KeepsEverythingOnEnter(t *testing.T) {
	c := &fakeClient{groupsResp: twoGroups()}
	a := newTestApp(c)

	restoreT := stubSimpleText(t, "Alpha", "")
	defer restoreT()
	restoreL := stubList(t, nil)
	defer restoreL()

	if err := a.EditGroup(context.Background()); err != nil {
		t.Fatalf("EditGroup err: %v", err)
	}
	if c.updatedGroupID != "g-1" || c.updatedGroupName != "Alpha" {
		t.Fatalf("update args: %q %q", c.updatedGroupID, c.updatedGroupName)
	}
	if !reflect.DeepEqual(c.updatedGroupDBs, []string{"Sales", "Staging"}) {
		t.Fatalf("databases changed unexpectedly: %v", c.updatedGroupDBs)
	}
}

func TestEditGroup_RemovalDeclined(t *testing.T) {
	c := &fakeClient{groupsResp: twoGroups()}
	a := newTestApp(c)

	restoreT := stubSimpleText(t, "Alpha", "")
	defer restoreT()
	restoreL := stubList(t, []string{"Sales"})
	defer restoreL()
	restoreC := stubConfirm(t, false)
	defer restoreC()

	if err := a.EditGroup(context.Background()); err != nil {
		t.Fatalf("EditGroup err: %v", err)
	}
	if c.updatedGroupID != "" {
		t.Fatalf("update must not run when the removal is declined")
	}
}

func TestEditGroup_RemovalConfirmed(t *testing.T) {
	c := &fakeClient{groupsResp: twoGroups()}
	a := newTestApp(c)

	restoreT := stubSimpleText(t, "Alpha", "")
	defer restoreT()
	restoreL := stubList(t, []string{"Sales"})
	defer restoreL()
	restoreC := stubConfirm(t, true)
	defer restoreC()

	if err := a.EditGroup(context.Background()); err != nil {
		t.Fatalf("EditGroup err: %v", err)
	}
	if c.updatedGroupID != "g-1" {
		t.Fatalf("expected update, got none")
	}
	if !reflect.DeepEqual(c.updatedGroupDBs, []string{"Sales"}) {
		t.Fatalf("databases: %v", c.updatedGroupDBs)
	}
}

func TestDeleteGroup_Confirmed(t *testing.T) {
	c := &fakeClient{groupsResp: twoGroups()}
	a := newTestApp(c)

	restoreT := stubSimpleText(t, "g-2")
	defer restoreT()
	restoreC := stubConfirm(t, true)
	defer restoreC()

	if err := a.DeleteGroup(context.Background()); err != nil {
		t.Fatalf("DeleteGroup err: %v", err)
	}
	if c.deletedGroupID != "g-2" {
		t.Fatalf("deleted %q", c.deletedGroupID)
	}
}

func TestDeleteGroup_Declined(t *testing.T) {
	c := &fakeClient{groupsResp: twoGroups()}
	a := newTestApp(c)

	restoreT := stubSimpleText(t, "g-2")
	defer restoreT()
	restoreC := stubConfirm(t, false)
	defer restoreC()

	if err := a.DeleteGroup(context.Background()); err != nil {
		t.Fatalf("DeleteGroup err: %v", err)
	}
	if c.deletedGroupID != "" {
		t.Fatalf("delete must not run when declined")
	}
}

func TestMissingFrom(t *testing.T) {
	tests := []struct {
		name string
		old  []string
		new  []string
		want []string
	}{
		{"nothing removed", []string{"a", "b"}, []string{"a", "b", "c"}, nil},
		{"one removed", []string{"a", "b"}, []string{"b"}, []string{"a"}},
		{"all removed", []string{"a", "b"}, nil, []string{"a", "b"}},
		{"empty old", nil, []string{"x"}, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := missingFrom(tc.old, tc.new); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("missingFrom(%v, %v) = %v, want %v", tc.old, tc.new, got, tc.want)
			}
		})
	}
}
