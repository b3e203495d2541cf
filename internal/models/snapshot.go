package models

import "time"

// DatabaseSnapshot records the outcome of snapshotting a single database
// within a checkpoint. SnapshotName is the server-side artifact name
// ({database}_snapshot_{group}_{sequence}).
type DatabaseSnapshot struct {
	Database     string `json:"database"`
	SnapshotName string `json:"snapshotName"`
	Success      bool   `json:"success"`
	Error        string `json:"error,omitempty"`
}

// Snapshot is a checkpoint covering every database of a group. Sequence is
// the group-local counter used in snapshot naming; IsAutomatic marks
// checkpoints created by the backend after a successful rollback.
type Snapshot struct {
	ID                string             `json:"id"`
	GroupID           string             `json:"groupId"`
	DisplayName       string             `json:"displayName"`
	Sequence          int                `json:"sequence"`
	CreatedAt         time.Time          `json:"createdAt"`
	CreatedBy         string             `json:"createdBy,omitempty"`
	DatabaseSnapshots []DatabaseSnapshot `json:"databaseSnapshots"`
	IsAutomatic       bool               `json:"isAutomatic,omitempty"`
}

// RollbackResult summarizes a rollback attempt. Success is true only when
// every database restored; partial failures carry per-database detail in
// Results.
type RollbackResult struct {
	Success           bool              `json:"success"`
	DatabasesRestored int               `json:"databasesRestored"`
	DatabasesFailed   int               `json:"databasesFailed"`
	Results           []OperationResult `json:"results"`
}

// VerificationResults reports the consistency check between metadata and the
// server: orphaned snapshots exist on the server but not in metadata, stale
// entries are recorded in metadata but gone from the server. Cleaned is true
// when stale metadata was removed as part of the check.
type VerificationResults struct {
	Verified          bool     `json:"verified"`
	OrphanedSnapshots []string `json:"orphanedSnapshots"`
	StaleMetadata     []string `json:"staleMetadata"`
	Cleaned           bool     `json:"cleaned,omitempty"`
}
