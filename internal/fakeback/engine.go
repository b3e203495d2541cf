package fakeback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/user"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sqlparrot/sqlparrot/internal/logging"
	"github.com/sqlparrot/sqlparrot/internal/models"
)

const (
	backendVersion   = "2.1.0"
	sqlServerVersion = "Microsoft SQL Server 2022 (simulated) - 16.0.4115.5 (X64)"
	metadataMode     = "sqlite"
	defaultSQLPort   = 1433
)

var catalogCreateDate = time.Date(2024, time.March, 11, 9, 30, 0, 0, time.UTC)

// databaseCatalog is the fixed set of databases the simulated server
// exposes, sorted by name. Snapshot artifacts never appear in the listing.
var databaseCatalog = []models.DatabaseInfo{
	{Name: "DWAnalytics", Category: "Data Warehouse", CreateDate: catalogCreateDate},
	{Name: "GlobalConfig", Category: "Global", CreateDate: catalogCreateDate},
	{Name: "Reporting", Category: "User", CreateDate: catalogCreateDate},
	{Name: "Sales", Category: "User", CreateDate: catalogCreateDate},
	{Name: "Staging", Category: "User", CreateDate: catalogCreateDate},
	{Name: "Warehouse", Category: "User", CreateDate: catalogCreateDate},
}

// Engine simulates the snapshot side of a SQL Server on top of the metadata
// store. Server-side snapshot files are modeled as an in-memory name set so
// stale metadata and orphaned snapshots can occur and be detected exactly
// like against a real server.
type Engine struct {
	store  *Store
	logger logging.Logger
	dbPath string
	user   string

	mu        sync.Mutex
	artifacts map[string]bool
}

// NewEngine builds an engine and seeds the simulated server state from the
// snapshot metadata, so restarts keep artifacts and records consistent.
func NewEngine(ctx context.Context, store *Store, dbPath string, logger logging.Logger) (*Engine, error) {
	e := &Engine{
		store:     store,
		logger:    logger,
		dbPath:    dbPath,
		user:      currentUserName(),
		artifacts: make(map[string]bool),
	}

	groups, err := store.GetGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("seeding snapshot state: %w", err)
	}
	for _, group := range groups {
		snaps, err := store.GetSnapshots(ctx, group.ID)
		if err != nil {
			return nil, fmt.Errorf("seeding snapshot state: %w", err)
		}
		for _, snap := range snaps {
			for _, ds := range snap.DatabaseSnapshots {
				if ds.Success {
					e.artifacts[ds.SnapshotName] = true
				}
			}
		}
	}
	return e, nil
}

func currentUserName() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "sqlparrot"
}

// Health reports backend liveness. It never fails: connection problems show
// up in the payload, not as errors.
func (e *Engine) Health(ctx context.Context) models.HealthStatus {
	status := models.HealthStatus{Version: backendVersion, Platform: runtime.GOOS}

	profile, err := e.store.ActiveProfile(ctx)
	if err != nil || profile.Password == "" {
		return status
	}
	status.Connected = true
	status.SQLServerVersion = "Connected"
	return status
}

// TestConnection simulates a login with the supplied credentials and returns
// the server version string. An empty password falls back to the stored one
// when host, port and username match the active profile, because the UI
// never redisplays saved passwords.
func (e *Engine) TestConnection(ctx context.Context, req models.ConnectionRequest) (string, error) {
	password := req.Password
	if strings.TrimSpace(password) == "" {
		profile, err := e.store.ActiveProfile(ctx)
		if err == nil && profile.Host == req.Host && profile.Port == req.Port && profile.Username == req.Username {
			password = profile.Password
		}
	}
	if password == "" {
		return "", fmt.Errorf("login failed for user %q", req.Username)
	}
	return sqlServerVersion, nil
}

// SaveConnection upserts the profile matching host, port and username and
// makes it the active one. An empty password keeps the stored password.
func (e *Engine) SaveConnection(ctx context.Context, req models.ConnectionRequest) error {
	if req.Host == "" || req.Username == "" {
		return errors.New("host and username are required")
	}
	port := req.Port
	if port == 0 {
		port = defaultSQLPort
	}
	now := time.Now().UTC()

	existing, err := e.store.FindProfileByConnection(ctx, req.Host, port, req.Username)
	switch {
	case err == nil:
		existing.TrustCertificate = req.TrustCertificate
		existing.SnapshotPath = req.SnapshotPath
		if req.Password != "" {
			existing.Password = req.Password
		}
		existing.UpdatedAt = now
		return e.store.SaveProfile(ctx, existing)
	case errors.Is(err, ErrNotFound):
		return e.store.SaveProfile(ctx, Profile{
			ID:               uuid.NewString(),
			Name:             "Default",
			Host:             req.Host,
			Port:             port,
			Username:         req.Username,
			Password:         req.Password,
			TrustCertificate: req.TrustCertificate,
			SnapshotPath:     req.SnapshotPath,
			CreatedAt:        now,
			UpdatedAt:        now,
		})
	default:
		return err
	}
}

// Connection returns the active profile without its password, or nil when
// none is configured.
func (e *Engine) Connection(ctx context.Context) (*models.Connection, error) {
	profile, err := e.store.ActiveProfile(ctx)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &models.Connection{
		Name:             profile.Name,
		Host:             profile.Host,
		Port:             profile.Port,
		Username:         profile.Username,
		TrustCertificate: profile.TrustCertificate,
		SnapshotPath:     profile.SnapshotPath,
	}, nil
}

// Databases lists the simulated server catalog.
func (e *Engine) Databases(ctx context.Context) ([]models.DatabaseInfo, error) {
	if _, err := e.activeProfile(ctx); err != nil {
		return nil, err
	}
	out := make([]models.DatabaseInfo, len(databaseCatalog))
	copy(out, databaseCatalog)
	return out, nil
}

// MetadataStatus reports where operation metadata lives.
func (e *Engine) MetadataStatus() models.MetadataStatus {
	return models.MetadataStatus{Mode: metadataMode, Database: e.dbPath, UserName: e.user}
}

func (e *Engine) Groups(ctx context.Context) ([]models.Group, error) {
	return e.store.GetGroups(ctx)
}

// CreateGroup registers a named set of databases to snapshot together.
func (e *Engine) CreateGroup(ctx context.Context, name string, databases []string) (models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Group{}, errors.New("group name is required")
	}
	if len(databases) == 0 {
		return models.Group{}, errors.New("a group needs at least one database")
	}

	now := time.Now().UTC()
	group := models.Group{
		ID:        uuid.NewString(),
		Name:      name,
		Databases: databases,
		CreatedBy: e.user,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.store.CreateGroup(ctx, group); err != nil {
		return models.Group{}, err
	}
	return group, nil
}

// UpdateGroup renames a group or changes its database set. Removing a
// database invalidates every snapshot of the group: a checkpoint that no
// longer covers all members is useless for rollback, so all records and
// their artifacts are dropped.
func (e *Engine) UpdateGroup(ctx context.Context, id, name string, databases []string) (models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Group{}, errors.New("group name is required")
	}
	if len(databases) == 0 {
		return models.Group{}, errors.New("a group needs at least one database")
	}

	existing, err := e.store.GetGroup(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return models.Group{}, fmt.Errorf("group not found: %s", id)
	}
	if err != nil {
		return models.Group{}, err
	}

	kept := make(map[string]bool, len(databases))
	for _, db := range databases {
		kept[db] = true
	}
	removed := false
	for _, db := range existing.Databases {
		if !kept[db] {
			removed = true
			break
		}
	}
	if removed {
		if _, err := e.activeProfile(ctx); err != nil {
			return models.Group{}, err
		}
		if err := e.dropGroupSnapshots(ctx, id); err != nil {
			return models.Group{}, err
		}
	}

	group := models.Group{
		ID:        id,
		Name:      name,
		Databases: databases,
		CreatedBy: existing.CreatedBy,
		CreatedAt: existing.CreatedAt,
		UpdatedAt: time.Now().UTC(),
	}
	if err := e.store.UpdateGroup(ctx, group); err != nil {
		return models.Group{}, err
	}
	return group, nil
}

// DeleteGroup removes a group and its snapshot records. Artifacts on the
// simulated server are left behind, matching a metadata-only delete.
func (e *Engine) DeleteGroup(ctx context.Context, id string) error {
	err := e.store.DeleteGroup(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("group not found: %s", id)
	}
	return err
}

// Snapshots returns a group's snapshots, newest first.
func (e *Engine) Snapshots(ctx context.Context, groupID string) ([]models.Snapshot, error) {
	return e.store.GetSnapshots(ctx, groupID)
}

// CreateSnapshot checkpoints every database of a group. An empty display
// name is stored as "Snapshot {sequence}".
func (e *Engine) CreateSnapshot(ctx context.Context, groupID, displayName string) (models.Snapshot, error) {
	if _, err := e.activeProfile(ctx); err != nil {
		return models.Snapshot{}, err
	}
	group, err := e.store.GetGroup(ctx, groupID)
	if errors.Is(err, ErrNotFound) {
		return models.Snapshot{}, fmt.Errorf("group not found: %s", groupID)
	}
	if err != nil {
		return models.Snapshot{}, err
	}
	return e.takeSnapshot(ctx, group, displayName, false)
}

// DeleteSnapshot drops a snapshot's artifacts and removes its record.
func (e *Engine) DeleteSnapshot(ctx context.Context, id string) error {
	if _, err := e.activeProfile(ctx); err != nil {
		return err
	}
	snap, err := e.store.GetSnapshot(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("snapshot not found: %s", id)
	}
	if err != nil {
		return err
	}

	for _, ds := range snap.DatabaseSnapshots {
		if ds.Success {
			e.dropArtifact(ds.SnapshotName)
		}
	}
	return e.store.DeleteSnapshot(ctx, id)
}

// Rollback restores every database of a snapshot's group. On full success
// all snapshots of the group are dropped (the restored state makes them
// stale) and, when configured, an automatic checkpoint replaces them. A
// partial failure returns both an error and the partial result, so restored
// databases can still be listed.
func (e *Engine) Rollback(ctx context.Context, id string) (models.RollbackResult, error) {
	if _, err := e.activeProfile(ctx); err != nil {
		return models.RollbackResult{}, err
	}
	snap, err := e.store.GetSnapshot(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return models.RollbackResult{}, fmt.Errorf("snapshot not found: %s", id)
	}
	if err != nil {
		return models.RollbackResult{}, err
	}
	group, err := e.store.GetGroup(ctx, snap.GroupID)
	if err != nil {
		return models.RollbackResult{}, err
	}

	// SQL Server refuses to restore a database that carries other
	// snapshots, so untracked ones block the whole rollback up front.
	external, err := e.externalArtifacts(ctx, group)
	if err != nil {
		return models.RollbackResult{}, err
	}
	if len(external) > 0 {
		return models.RollbackResult{}, fmt.Errorf(
			"cannot rollback: external snapshots exist for databases in this group: %s",
			strings.Join(external, ", "))
	}

	var res models.RollbackResult
	for _, ds := range snap.DatabaseSnapshots {
		switch {
		case !ds.Success:
			res.Results = append(res.Results, models.OperationResult{
				Database: ds.Database, Success: false, Error: "original snapshot failed",
			})
		case !e.hasArtifact(ds.SnapshotName):
			res.Results = append(res.Results, models.OperationResult{
				Database: ds.Database, Success: false,
				Error: fmt.Sprintf("restore failed: snapshot %s does not exist", ds.SnapshotName),
			})
		default:
			e.logger.Info(ctx, "restoring database from snapshot",
				"database", ds.Database, "snapshot", ds.SnapshotName)
			res.Results = append(res.Results, models.OperationResult{
				Database: ds.Database, Success: true,
			})
		}
	}
	for _, r := range res.Results {
		if r.Success {
			res.DatabasesRestored++
		} else {
			res.DatabasesFailed++
		}
	}
	res.Success = res.DatabasesFailed == 0 && len(res.Results) > 0

	if res.Success {
		if err := e.dropGroupSnapshots(ctx, group.ID); err != nil {
			e.logger.Warn(ctx, "dropping stale group snapshots", "group", group.Name, "error", err)
		}
	}

	e.recordHistory(ctx, models.HistoryRollback, map[string]any{
		"groupId":     group.ID,
		"groupName":   group.Name,
		"snapshotId":  snap.ID,
		"displayName": snap.DisplayName,
	}, res.Results)

	if !res.Success {
		return res, fmt.Errorf("rollback failed: %d/%d databases restored",
			res.DatabasesRestored, len(res.Results))
	}

	settings, err := e.store.GetSettings(ctx)
	if err == nil && settings.Preferences.AutoCreateCheckpoint {
		if _, err := e.takeSnapshot(ctx, group, "Automatic", true); err != nil {
			e.logger.Warn(ctx, "creating automatic checkpoint", "group", group.Name, "error", err)
		}
	}
	return res, nil
}

// Verify reconciles a group's metadata with the simulated server. Records
// with missing artifacts are stale and get removed; their surviving
// artifacts then show up as orphans, as a partial checkpoint cannot be
// rolled back anyway.
func (e *Engine) Verify(ctx context.Context, groupID string) (models.VerificationResults, error) {
	if _, err := e.activeProfile(ctx); err != nil {
		return models.VerificationResults{}, err
	}
	group, err := e.store.GetGroup(ctx, groupID)
	if errors.Is(err, ErrNotFound) {
		return models.VerificationResults{}, fmt.Errorf("group not found: %s", groupID)
	}
	if err != nil {
		return models.VerificationResults{}, err
	}
	snaps, err := e.store.GetSnapshots(ctx, groupID)
	if err != nil {
		return models.VerificationResults{}, err
	}

	var res models.VerificationResults
	referenced := make(map[string]bool)
	for _, snap := range snaps {
		var missing []string
		for _, ds := range snap.DatabaseSnapshots {
			if ds.Success && !e.hasArtifact(ds.SnapshotName) {
				missing = append(missing, ds.SnapshotName)
			}
		}
		if len(missing) == 0 {
			for _, ds := range snap.DatabaseSnapshots {
				referenced[ds.SnapshotName] = true
			}
			continue
		}

		res.StaleMetadata = append(res.StaleMetadata, missing...)
		res.Cleaned = true
		e.logger.Info(ctx, "removing stale snapshot record",
			"snapshot", snap.ID, "missing", strings.Join(missing, ", "))
		if err := e.store.DeleteSnapshot(ctx, snap.ID); err != nil {
			e.logger.Warn(ctx, "removing stale snapshot record", "snapshot", snap.ID, "error", err)
		}
	}

	for _, name := range e.artifactNames() {
		if referenced[name] {
			continue
		}
		for _, db := range group.Databases {
			if strings.HasPrefix(name, db) {
				res.OrphanedSnapshots = append(res.OrphanedSnapshots, name)
				break
			}
		}
	}

	res.Verified = len(res.StaleMetadata) == 0 && len(res.OrphanedSnapshots) == 0
	return res, nil
}

// Settings returns the stored settings with the read-only connection block
// filled in from the active profile.
func (e *Engine) Settings(ctx context.Context) (models.Settings, error) {
	settings, err := e.store.GetSettings(ctx)
	if err != nil {
		return models.Settings{}, err
	}
	e.fillConnectionInfo(ctx, &settings)
	return settings, nil
}

// UpdateSettings persists the writable blocks. The connection block is
// managed through the connection endpoints and never written here.
func (e *Engine) UpdateSettings(ctx context.Context, s models.Settings) (models.Settings, error) {
	if s.Preferences.MaxHistoryEntries < 0 {
		return models.Settings{}, errors.New("maxHistoryEntries must not be negative")
	}
	s.Connection = models.ConnectionInfo{}
	if err := e.store.SaveSettings(ctx, s); err != nil {
		return models.Settings{}, err
	}
	e.fillConnectionInfo(ctx, &s)
	return s, nil
}

func (e *Engine) fillConnectionInfo(ctx context.Context, s *models.Settings) {
	profile, err := e.store.ActiveProfile(ctx)
	if err != nil {
		s.Connection = models.ConnectionInfo{}
		return
	}
	s.Connection = models.ConnectionInfo{
		Server:    profile.Host,
		Port:      profile.Port,
		Connected: profile.Password != "",
	}
}

// History returns entries newest first; limit <= 0 returns all.
func (e *Engine) History(ctx context.Context, limit int) ([]models.HistoryEntry, error) {
	return e.store.GetHistory(ctx, limit)
}

func (e *Engine) ClearHistory(ctx context.Context) error {
	return e.store.ClearHistory(ctx)
}

// TrimHistory trims to the configured maximum and reports deletions.
func (e *Engine) TrimHistory(ctx context.Context) (int, error) {
	settings, err := e.store.GetSettings(ctx)
	if err != nil {
		return 0, err
	}
	return e.store.TrimHistory(ctx, settings.Preferences.MaxHistoryEntries)
}

// takeSnapshot creates the artifacts and the record for one checkpoint and
// logs it to history. In the simulation every database snapshot succeeds;
// failed entries only enter the metadata through edge-case testing hooks.
func (e *Engine) takeSnapshot(ctx context.Context, group models.Group, displayName string, automatic bool) (models.Snapshot, error) {
	sequence, err := e.store.NextSequence(ctx, group.ID)
	if err != nil {
		return models.Snapshot{}, err
	}
	if displayName == "" {
		displayName = fmt.Sprintf("Snapshot %d", sequence)
	}

	snap := models.Snapshot{
		ID:          uuid.NewString(),
		GroupID:     group.ID,
		DisplayName: displayName,
		Sequence:    sequence,
		CreatedAt:   time.Now().UTC(),
		CreatedBy:   e.user,
		IsAutomatic: automatic,
	}

	var results []models.OperationResult
	for _, database := range group.Databases {
		name := artifactName(database, group.Name, sequence, automatic)
		e.createArtifact(name)
		snap.DatabaseSnapshots = append(snap.DatabaseSnapshots, models.DatabaseSnapshot{
			Database: database, SnapshotName: name, Success: true,
		})
		results = append(results, models.OperationResult{Database: database, Success: true})
	}

	if err := e.store.CreateSnapshot(ctx, snap); err != nil {
		return models.Snapshot{}, err
	}

	historyType := models.HistoryCreateSnapshot
	if automatic {
		historyType = models.HistoryAutoCheckpoint
	}
	e.recordHistory(ctx, historyType, map[string]any{
		"groupId":     group.ID,
		"groupName":   group.Name,
		"snapshotId":  snap.ID,
		"displayName": snap.DisplayName,
	}, results)

	return snap, nil
}

// dropGroupSnapshots removes every artifact and record of a group.
func (e *Engine) dropGroupSnapshots(ctx context.Context, groupID string) error {
	snaps, err := e.store.GetSnapshots(ctx, groupID)
	if err != nil {
		return err
	}
	for _, snap := range snaps {
		for _, ds := range snap.DatabaseSnapshots {
			if ds.Success {
				e.dropArtifact(ds.SnapshotName)
			}
		}
	}
	return e.store.DeleteSnapshotsForGroup(ctx, groupID)
}

// externalArtifacts returns simulated server snapshots that cover one of the
// group's databases but are not tracked in the group's metadata.
func (e *Engine) externalArtifacts(ctx context.Context, group models.Group) ([]string, error) {
	snaps, err := e.store.GetSnapshots(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	tracked := make(map[string]bool)
	for _, snap := range snaps {
		for _, ds := range snap.DatabaseSnapshots {
			tracked[ds.SnapshotName] = true
		}
	}

	var external []string
	for _, name := range e.artifactNames() {
		if tracked[name] {
			continue
		}
		for _, db := range group.Databases {
			if strings.HasPrefix(name, db) {
				external = append(external, name)
				break
			}
		}
	}
	return external, nil
}

// recordHistory appends an entry and enforces the configured history cap.
// Failures are logged, never surfaced: the operation itself succeeded.
func (e *Engine) recordHistory(ctx context.Context, opType string, details map[string]any, results []models.OperationResult) {
	payload, err := json.Marshal(details)
	if err != nil {
		e.logger.Error(ctx, "encoding history details", "type", opType, "error", err)
		payload = nil
	}

	entry := models.HistoryEntry{
		ID:        uuid.NewString(),
		Type:      opType,
		Timestamp: time.Now().UTC(),
		UserName:  e.user,
		Details:   payload,
		Results:   results,
	}
	if err := e.store.AppendHistory(ctx, entry); err != nil {
		e.logger.Error(ctx, "recording history", "type", opType, "error", err)
		return
	}

	if settings, err := e.store.GetSettings(ctx); err == nil {
		if _, err := e.store.TrimHistory(ctx, settings.Preferences.MaxHistoryEntries); err != nil {
			e.logger.Warn(ctx, "trimming history", "error", err)
		}
	}
}

func (e *Engine) activeProfile(ctx context.Context) (Profile, error) {
	profile, err := e.store.ActiveProfile(ctx)
	if errors.Is(err, ErrNotFound) {
		return Profile{}, errors.New("no active connection profile")
	}
	return profile, err
}

func artifactName(database, group string, sequence int, automatic bool) string {
	name := fmt.Sprintf("%s_snapshot_%s_%d", database, strings.ReplaceAll(group, " ", "_"), sequence)
	if automatic {
		name += "_auto"
	}
	return name
}

func (e *Engine) createArtifact(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.artifacts[name] = true
}

func (e *Engine) dropArtifact(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.artifacts, name)
}

func (e *Engine) hasArtifact(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.artifacts[name]
}

// artifactNames returns the simulated server's snapshot names, sorted.
func (e *Engine) artifactNames() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	names := make([]string, 0, len(e.artifacts))
	for name := range e.artifacts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
