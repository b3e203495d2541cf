package fakeback

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sqlparrot/sqlparrot/internal/dbx"
	"github.com/sqlparrot/sqlparrot/internal/logging"
	"github.com/sqlparrot/sqlparrot/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// timeLayout is RFC3339 with fixed nanosecond precision so stored strings
// compare lexicographically in chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func fmtTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

// nullString returns nil for empty strings so they are stored as NULL.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func isConstraintViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "constraint failed")
}

// Store is the SQLite-backed metadata store: groups, snapshots, history,
// settings, connection profiles, and the UI password row.
type Store struct {
	db     *sql.DB
	logger logging.Logger
}

// OpenStore opens the metadata database at path, creating the file, its
// parent directory, and the schema as needed.
func OpenStore(path string, logger logging.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite allows a single writer; one pooled connection avoids
	// SQLITE_BUSY when the HTTP server and the bridge write concurrently.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Debug(context.Background(), "metadata store opened", "path", path)
	return s, nil
}

func (s *Store) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS auth (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			password_hash TEXT,
			skipped INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS settings (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			data TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS groups (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			databases TEXT NOT NULL,
			created_by TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS snapshots (
			id TEXT PRIMARY KEY,
			group_id TEXT NOT NULL,
			display_name TEXT NOT NULL,
			sequence INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			created_by TEXT,
			database_snapshots TEXT NOT NULL,
			is_automatic INTEGER NOT NULL DEFAULT 0,
			FOREIGN KEY (group_id) REFERENCES groups(id)
		);

		CREATE INDEX IF NOT EXISTS idx_snapshots_group ON snapshots(group_id);

		CREATE TABLE IF NOT EXISTS history (
			id TEXT PRIMARY KEY,
			operation_type TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			user_name TEXT,
			details TEXT,
			results TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_history_timestamp ON history(timestamp);

		CREATE TABLE IF NOT EXISTS profiles (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			host TEXT NOT NULL,
			port INTEGER NOT NULL,
			username TEXT NOT NULL,
			password TEXT NOT NULL DEFAULT '',
			trust_certificate INTEGER NOT NULL DEFAULT 1,
			snapshot_path TEXT NOT NULL DEFAULT '',
			is_active INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	if _, err := s.db.Exec(`INSERT OR IGNORE INTO auth (id, password_hash, skipped) VALUES (1, NULL, 0)`); err != nil {
		return err
	}

	defaults, err := json.Marshal(models.DefaultSettings())
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT OR IGNORE INTO settings (id, data) VALUES (1, ?)`, string(defaults))
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// AuthState reports the stored password hash ("" when none) and the skip
// flag.
func (s *Store) AuthState(ctx context.Context) (string, bool, error) {
	var hash sql.NullString
	var skipped bool
	err := s.db.QueryRowContext(ctx, `SELECT password_hash, skipped FROM auth WHERE id = 1`).Scan(&hash, &skipped)
	if err != nil {
		return "", false, fmt.Errorf("querying auth state: %w", err)
	}
	return hash.String, skipped, nil
}

// SetPasswordHash stores a new password hash and resets the skip flag.
func (s *Store) SetPasswordHash(ctx context.Context, hash string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE auth SET password_hash = ?, skipped = 0 WHERE id = 1`, hash); err != nil {
		return fmt.Errorf("storing password hash: %w", err)
	}
	return nil
}

// ClearPassword removes the stored password hash and the skip flag.
func (s *Store) ClearPassword(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE auth SET password_hash = NULL, skipped = 0 WHERE id = 1`); err != nil {
		return fmt.Errorf("clearing password: %w", err)
	}
	return nil
}

// SetSkipped records the user's choice to run without a password.
func (s *Store) SetSkipped(ctx context.Context, skipped bool) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE auth SET skipped = ? WHERE id = 1`, skipped); err != nil {
		return fmt.Errorf("storing skip flag: %w", err)
	}
	return nil
}

func (s *Store) GetSettings(ctx context.Context) (models.Settings, error) {
	var data []byte
	if err := s.db.QueryRowContext(ctx, `SELECT data FROM settings WHERE id = 1`).Scan(&data); err != nil {
		return models.Settings{}, fmt.Errorf("querying settings: %w", err)
	}
	var out models.Settings
	if err := json.Unmarshal(data, &out); err != nil {
		return models.Settings{}, fmt.Errorf("decoding settings: %w", err)
	}
	return out, nil
}

func (s *Store) SaveSettings(ctx context.Context, settings models.Settings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE settings SET data = ? WHERE id = 1`, string(data)); err != nil {
		return fmt.Errorf("storing settings: %w", err)
	}
	return nil
}

func (s *Store) CreateGroup(ctx context.Context, g models.Group) error {
	databases, err := json.Marshal(g.Databases)
	if err != nil {
		return fmt.Errorf("encoding group databases: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO groups (id, name, databases, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		g.ID, g.Name, string(databases), nullString(g.CreatedBy), fmtTime(g.CreatedAt), fmtTime(g.UpdatedAt),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("a group named %q already exists", g.Name)
		}
		return fmt.Errorf("inserting group: %w", err)
	}
	return nil
}

func scanGroup(scan func(dest ...any) error) (models.Group, error) {
	var g models.Group
	var databases []byte
	var createdBy sql.NullString
	var createdAt, updatedAt string

	if err := scan(&g.ID, &g.Name, &databases, &createdBy, &createdAt, &updatedAt); err != nil {
		return models.Group{}, err
	}
	if err := json.Unmarshal(databases, &g.Databases); err != nil {
		return models.Group{}, fmt.Errorf("decoding group databases: %w", err)
	}
	g.CreatedBy = createdBy.String
	g.CreatedAt = parseTime(createdAt)
	g.UpdatedAt = parseTime(updatedAt)
	return g, nil
}

func (s *Store) GetGroups(ctx context.Context) ([]models.Group, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, databases, created_by, created_at, updated_at
		FROM groups
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying groups: %w", err)
	}
	defer rows.Close()

	var groups []models.Group
	for rows.Next() {
		g, err := scanGroup(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning group row: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating group rows: %w", err)
	}
	return groups, nil
}

func (s *Store) GetGroup(ctx context.Context, id string) (models.Group, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, databases, created_by, created_at, updated_at
		FROM groups
		WHERE id = ?`, id)

	g, err := scanGroup(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Group{}, ErrNotFound
	}
	if err != nil {
		return models.Group{}, fmt.Errorf("querying group: %w", err)
	}
	return g, nil
}

func (s *Store) UpdateGroup(ctx context.Context, g models.Group) error {
	databases, err := json.Marshal(g.Databases)
	if err != nil {
		return fmt.Errorf("encoding group databases: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE groups
		SET name = ?, databases = ?, updated_at = ?
		WHERE id = ?`,
		g.Name, string(databases), fmtTime(g.UpdatedAt), g.ID,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("a group named %q already exists", g.Name)
		}
		return fmt.Errorf("updating group: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteGroup removes a group and its snapshots in one transaction.
func (s *Store) DeleteGroup(ctx context.Context, id string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE group_id = ?`, id); err != nil {
			return fmt.Errorf("deleting group snapshots: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM groups WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("deleting group: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *Store) CreateSnapshot(ctx context.Context, snap models.Snapshot) error {
	dbSnaps, err := json.Marshal(snap.DatabaseSnapshots)
	if err != nil {
		return fmt.Errorf("encoding database snapshots: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (id, group_id, display_name, sequence, created_at, created_by, database_snapshots, is_automatic)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.GroupID, snap.DisplayName, snap.Sequence, fmtTime(snap.CreatedAt),
		nullString(snap.CreatedBy), string(dbSnaps), snap.IsAutomatic,
	)
	if err != nil {
		return fmt.Errorf("inserting snapshot: %w", err)
	}
	return nil
}

func scanSnapshot(scan func(dest ...any) error) (models.Snapshot, error) {
	var snap models.Snapshot
	var dbSnaps []byte
	var createdBy sql.NullString
	var createdAt string

	if err := scan(&snap.ID, &snap.GroupID, &snap.DisplayName, &snap.Sequence,
		&createdAt, &createdBy, &dbSnaps, &snap.IsAutomatic); err != nil {
		return models.Snapshot{}, err
	}
	if err := json.Unmarshal(dbSnaps, &snap.DatabaseSnapshots); err != nil {
		return models.Snapshot{}, fmt.Errorf("decoding database snapshots: %w", err)
	}
	snap.CreatedBy = createdBy.String
	snap.CreatedAt = parseTime(createdAt)
	return snap, nil
}

// GetSnapshots returns a group's snapshots, newest first.
func (s *Store) GetSnapshots(ctx context.Context, groupID string) ([]models.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, group_id, display_name, sequence, created_at, created_by, database_snapshots, is_automatic
		FROM snapshots
		WHERE group_id = ?
		ORDER BY sequence DESC`, groupID)
	if err != nil {
		return nil, fmt.Errorf("querying snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []models.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning snapshot row: %w", err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshot rows: %w", err)
	}
	return snaps, nil
}

func (s *Store) GetSnapshot(ctx context.Context, id string) (models.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, group_id, display_name, sequence, created_at, created_by, database_snapshots, is_automatic
		FROM snapshots
		WHERE id = ?`, id)

	snap, err := scanSnapshot(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("querying snapshot: %w", err)
	}
	return snap, nil
}

func (s *Store) DeleteSnapshot(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteSnapshotsForGroup(ctx context.Context, groupID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE group_id = ?`, groupID); err != nil {
		return fmt.Errorf("deleting group snapshots: %w", err)
	}
	return nil
}

// NextSequence returns the next snapshot sequence number for a group.
func (s *Store) NextSequence(ctx context.Context, groupID string) (int, error) {
	var seq int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sequence), 0) + 1 FROM snapshots WHERE group_id = ?`, groupID).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("querying next sequence: %w", err)
	}
	return seq, nil
}

func (s *Store) AppendHistory(ctx context.Context, e models.HistoryEntry) error {
	var results any
	if len(e.Results) > 0 {
		data, err := json.Marshal(e.Results)
		if err != nil {
			return fmt.Errorf("encoding history results: %w", err)
		}
		results = string(data)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO history (id, operation_type, timestamp, user_name, details, results)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Type, fmtTime(e.Timestamp), nullString(e.UserName), nullString(string(e.Details)), results,
	)
	if err != nil {
		return fmt.Errorf("inserting history entry: %w", err)
	}
	return nil
}

// GetHistory returns entries newest first; limit <= 0 returns all of them.
func (s *Store) GetHistory(ctx context.Context, limit int) ([]models.HistoryEntry, error) {
	query := `
		SELECT id, operation_type, timestamp, user_name, details, results
		FROM history
		ORDER BY timestamp DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []models.HistoryEntry
	for rows.Next() {
		var e models.HistoryEntry
		var timestamp string
		var userName, details, results sql.NullString

		if err := rows.Scan(&e.ID, &e.Type, &timestamp, &userName, &details, &results); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		e.Timestamp = parseTime(timestamp)
		e.UserName = userName.String
		if details.Valid {
			e.Details = json.RawMessage(details.String)
		}
		if results.Valid {
			if err := json.Unmarshal([]byte(results.String), &e.Results); err != nil {
				return nil, fmt.Errorf("decoding history results: %w", err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history rows: %w", err)
	}
	return entries, nil
}

func (s *Store) ClearHistory(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM history`); err != nil {
		return fmt.Errorf("clearing history: %w", err)
	}
	return nil
}

// TrimHistory deletes the oldest entries beyond max and reports how many
// were removed. max <= 0 trims nothing.
func (s *Store) TrimHistory(ctx context.Context, max int) (int, error) {
	if max <= 0 {
		return 0, nil
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM history`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting history entries: %w", err)
	}
	if count <= max {
		return 0, nil
	}

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM history
		WHERE id IN (SELECT id FROM history ORDER BY timestamp ASC LIMIT ?)`,
		count-max,
	)
	if err != nil {
		return 0, fmt.Errorf("trimming history: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting trimmed entries: %w", err)
	}
	return int(deleted), nil
}

// Profile is a stored connection profile. Unlike the wire Connection model
// it carries the password, so it is never serialized to clients.
type Profile struct {
	ID               string
	Name             string
	Host             string
	Port             int
	Username         string
	Password         string
	TrustCertificate bool
	SnapshotPath     string
	IsActive         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func scanProfile(scan func(dest ...any) error) (Profile, error) {
	var p Profile
	var createdAt, updatedAt string

	if err := scan(&p.ID, &p.Name, &p.Host, &p.Port, &p.Username, &p.Password,
		&p.TrustCertificate, &p.SnapshotPath, &p.IsActive, &createdAt, &updatedAt); err != nil {
		return Profile{}, err
	}
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return p, nil
}

const profileColumns = `id, name, host, port, username, password, trust_certificate, snapshot_path, is_active, created_at, updated_at`

// ActiveProfile returns the active connection profile, or ErrNotFound.
func (s *Store) ActiveProfile(ctx context.Context) (Profile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE is_active = 1 LIMIT 1`)

	p, err := scanProfile(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("querying active profile: %w", err)
	}
	return p, nil
}

// FindProfileByConnection looks a profile up by host, port and username.
func (s *Store) FindProfileByConnection(ctx context.Context, host string, port int, username string) (Profile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE host = ? AND port = ? AND username = ? LIMIT 1`,
		host, port, username)

	p, err := scanProfile(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("querying profile: %w", err)
	}
	return p, nil
}

// SaveProfile upserts p and makes it the single active profile.
func (s *Store) SaveProfile(ctx context.Context, p Profile) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `UPDATE profiles SET is_active = 0`); err != nil {
			return fmt.Errorf("deactivating profiles: %w", err)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO profiles (`+profileColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				host = excluded.host,
				port = excluded.port,
				username = excluded.username,
				password = excluded.password,
				trust_certificate = excluded.trust_certificate,
				snapshot_path = excluded.snapshot_path,
				is_active = 1,
				updated_at = excluded.updated_at`,
			p.ID, p.Name, p.Host, p.Port, p.Username, p.Password,
			p.TrustCertificate, p.SnapshotPath, fmtTime(p.CreatedAt), fmtTime(p.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("storing profile: %w", err)
		}
		return nil
	})
}
