// Package cli provides the interactive SQL Parrot shell.
//
// It wires configuration, the backend transport, and the session gate into an
// interactive REPL. Typical flow: decide the gate state on startup, start a
// background reachability watcher, and execute user commands; while the gate
// is locked only the unlock surface is reachable.
//
// Key features:
//   - Unlock / Lock and the full password lifecycle (set, change, remove, skip)
//   - Snapshot groups: create, edit, delete, list
//   - Snapshots: create, delete, rollback, verify
//   - Operation history, settings, and the SQL Server connection profile
//   - Session-only colour themes
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, StartBackendWatcher, and runREPL for details.
package cli
