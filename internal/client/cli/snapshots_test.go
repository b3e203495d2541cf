package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/sqlparrot/sqlparrot/internal/models"
)

func twoSnapshots() []models.Snapshot {
	return []models.Snapshot{
		{ID: "s-1", GroupID: "g-1", DisplayName: "Before migration", Sequence: 1},
		{ID: "s-2", GroupID: "g-1", DisplayName: "Automatic", Sequence: 2, IsAutomatic: true},
	}
}

func TestPickSnapshot_BySequence(t *testing.T) {
	a := newTestApp(&fakeClient{groupsResp: twoGroups(), snapshotsResp: twoSnapshots()})

	restore := stubSimpleText(t, "Alpha", "#2")
	defer restore()

	s, err := a.pickSnapshot(context.Background())
	if err != nil {
		t.Fatalf("pickSnapshot err: %v", err)
	}
	if s.ID != "s-2" {
		t.Fatalf("picked %q", s.ID)
	}
}

func TestPickSnapshot_ByBareSequence(t *testing.T) {
	a := newTestApp(&fakeClient{groupsResp: twoGroups(), snapshotsResp: twoSnapshots()})

	restore := stubSimpleText(t, "Alpha", "1")
	defer restore()

	s, err := a.pickSnapshot(context.Background())
	if err != nil {
		t.Fatalf("pickSnapshot err: %v", err)
	}
	if s.ID != "s-1" {
		t.Fatalf("picked %q", s.ID)
	}
}

func TestPickSnapshot_ByName(t *testing.T) {
	a := newTestApp(&fakeClient{groupsResp: twoGroups(), snapshotsResp: twoSnapshots()})

	restore := stubSimpleText(t, "Alpha", "before migration")
	defer restore()

	s, err := a.pickSnapshot(context.Background())
	if err != nil {
		t.Fatalf("pickSnapshot err: %v", err)
	}
	if s.ID != "s-1" {
		t.Fatalf("picked %q", s.ID)
	}
}

func TestCreateSnapshot_OptionalName(t *testing.T) {
	c := &fakeClient{groupsResp: twoGroups()}
	a := newTestApp(c)

	restore := stubSimpleText(t, "Alpha", "")
	defer restore()

	if err := a.CreateSnapshot(context.Background()); err != nil {
		t.Fatalf("CreateSnapshot err: %v", err)
	}
	if c.createdSnapGroup != "g-1" {
		t.Fatalf("group: %q", c.createdSnapGroup)
	}
	if c.createdSnapName != "" {
		t.Fatalf("expected empty name for automatic numbering, got %q", c.createdSnapName)
	}
}

func TestDeleteSnapshot_Confirmed(t *testing.T) {
	c := &fakeClient{groupsResp: twoGroups(), snapshotsResp: twoSnapshots()}
	a := newTestApp(c)

	restoreT := stubSimpleText(t, "Alpha", "s-1")
	defer restoreT()
	restoreC := stubConfirm(t, true)
	defer restoreC()

	if err := a.DeleteSnapshot(context.Background()); err != nil {
		t.Fatalf("DeleteSnapshot err: %v", err)
	}
	if c.deletedSnapshotID != "s-1" {
		t.Fatalf("deleted %q", c.deletedSnapshotID)
	}
}

func TestRollback_Declined(t *testing.T) {
	c := &fakeClient{groupsResp: twoGroups(), snapshotsResp: twoSnapshots()}
	a := newTestApp(c)

	restoreT := stubSimpleText(t, "Alpha", "s-1")
	defer restoreT()
	restoreC := stubConfirm(t, false)
	defer restoreC()

	if err := a.Rollback(context.Background()); err != nil {
		t.Fatalf("Rollback err: %v", err)
	}
	if c.rolledBackID != "" {
		t.Fatalf("rollback must not run when declined")
	}
}

func TestRollback_Confirmed(t *testing.T) {
	c := &fakeClient{
		groupsResp:    twoGroups(),
		snapshotsResp: twoSnapshots(),
		rollbackResp: models.RollbackResult{
			Success:           true,
			DatabasesRestored: 2,
			Results: []models.OperationResult{
				{Database: "Sales", Success: true},
				{Database: "Staging", Success: true},
			},
		},
	}
	a := newTestApp(c)

	restoreT := stubSimpleText(t, "Alpha", "s-1")
	defer restoreT()
	restoreC := stubConfirm(t, true)
	defer restoreC()

	if err := a.Rollback(context.Background()); err != nil {
		t.Fatalf("Rollback err: %v", err)
	}
	if c.rolledBackID != "s-1" {
		t.Fatalf("rolled back %q", c.rolledBackID)
	}
}

func TestRollback_PartialFailureSurfacesError(t *testing.T) {
	c := &fakeClient{
		groupsResp:    twoGroups(),
		snapshotsResp: twoSnapshots(),
		rollbackErr:   errors.New("rollback failed: 1/2 databases restored"),
		rollbackResp: models.RollbackResult{
			DatabasesRestored: 1,
			DatabasesFailed:   1,
			Results: []models.OperationResult{
				{Database: "Sales", Success: true},
				{Database: "Staging", Success: false, Error: "database in use"},
			},
		},
	}
	a := newTestApp(c)

	restoreT := stubSimpleText(t, "Alpha", "s-1")
	defer restoreT()
	restoreC := stubConfirm(t, true)
	defer restoreC()

	if err := a.Rollback(context.Background()); err == nil {
		t.Fatalf("want error on partial rollback")
	}
	if c.rolledBackID != "s-1" {
		t.Fatalf("rolled back %q", c.rolledBackID)
	}
}

func TestVerify_ReportsClean(t *testing.T) {
	c := &fakeClient{
		groupsResp: twoGroups(),
		verifyResp: models.VerificationResults{Verified: true},
	}
	a := newTestApp(c)

	restore := stubSimpleText(t, "Alpha")
	defer restore()

	if err := a.Verify(context.Background()); err != nil {
		t.Fatalf("Verify err: %v", err)
	}
}
