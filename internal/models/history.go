package models

import (
	"encoding/json"
	"time"
)

// History operation types.
const (
	HistoryCreateSnapshot = "create_snapshot"
	HistoryRollback       = "rollback"
	HistoryAutoCheckpoint = "create_automatic_checkpoint"
)

// OperationResult is the per-database outcome of a snapshot or rollback.
type OperationResult struct {
	Database string `json:"database"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

// HistoryEntry records one operation. Details is operation-specific JSON
// (group/snapshot identifiers and display names) kept opaque on the client.
type HistoryEntry struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	UserName  string            `json:"userName,omitempty"`
	Details   json.RawMessage   `json:"details,omitempty"`
	Results   []OperationResult `json:"results,omitempty"`
}
