package fakeback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/sqlparrot/sqlparrot/internal/logging"
	"github.com/sqlparrot/sqlparrot/internal/models"
)

// Bridge serves the desktop command protocol: one newline-delimited JSON
// request and one response per connection, over a Unix socket. The protocol
// has no session tokens; a successful check_password unlocks the whole
// process until restart, matching the desktop runtime it stands in for.
type Bridge struct {
	engine *Engine
	auth   *Authenticator
	logger logging.Logger

	mu            sync.Mutex
	authenticated bool
}

func NewBridge(engine *Engine, auth *Authenticator, logger logging.Logger) *Bridge {
	return &Bridge{engine: engine, auth: auth, logger: logger}
}

type bridgeRequest struct {
	Command string          `json:"command"`
	Args    json.RawMessage `json:"args"`
}

// Data has no omitempty so check_password can answer a bare false.
type bridgeResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Error   string `json:"error,omitempty"`
}

// openCommands stay reachable while the session is locked, mirroring the
// HTTP /api/auth/* and /api/health routes.
var openCommands = map[string]bool{
	"get_password_status": true,
	"check_password":      true,
	"set_password":        true,
	"change_password":     true,
	"remove_password":     true,
	"skip_password":       true,
	"check_health":        true,
}

// Serve accepts bridge connections until the listener is closed and waits
// for in-flight commands before returning.
func (b *Bridge) Serve(ctx context.Context, l net.Listener) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		conn, err := l.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accepting bridge connection: %w", err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.handle(ctx, conn)
		}()
	}
}

func (b *Bridge) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	var req bridgeRequest
	if err := json.NewDecoder(conn).Decode(&req); err != nil {
		b.respond(ctx, conn, fail(errors.New("malformed request")))
		return
	}
	b.logger.Debug(ctx, "bridge command", "command", req.Command)
	b.respond(ctx, conn, b.execute(ctx, req))
}

func (b *Bridge) respond(ctx context.Context, conn net.Conn, resp bridgeResponse) {
	if err := json.NewEncoder(conn).Encode(resp); err != nil {
		b.logger.Warn(ctx, "writing bridge response", "error", err)
	}
}

func ok(data any) bridgeResponse { return bridgeResponse{Success: true, Data: data} }

func fail(err error) bridgeResponse { return bridgeResponse{Success: false, Error: err.Error()} }

func (b *Bridge) isAuthenticated() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.authenticated
}

func (b *Bridge) setAuthenticated() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.authenticated = true
}

func (b *Bridge) execute(ctx context.Context, req bridgeRequest) bridgeResponse {
	if !openCommands[req.Command] {
		status, err := b.auth.Status(ctx)
		if err != nil {
			return fail(err)
		}
		if status.Protected() && !b.isAuthenticated() {
			return fail(errors.New("authentication required"))
		}
	}

	switch req.Command {
	case "get_password_status":
		status, err := b.auth.Status(ctx)
		if err != nil {
			return fail(err)
		}
		return ok(status)

	case "check_password":
		var args struct {
			Password string `json:"password"`
		}
		if err := decodeArgs(req.Args, &args); err != nil {
			return fail(err)
		}
		res, err := b.auth.Check(ctx, args.Password)
		if err != nil {
			return fail(err)
		}
		if res.Authenticated {
			b.setAuthenticated()
		}
		return ok(res.Authenticated)

	case "set_password":
		var args struct {
			Password string `json:"password"`
			Confirm  string `json:"confirm"`
		}
		if err := decodeArgs(req.Args, &args); err != nil {
			return fail(err)
		}
		if err := b.auth.Set(ctx, args.Password, args.Confirm); err != nil {
			return fail(err)
		}
		return ok(nil)

	case "change_password":
		var args struct {
			CurrentPassword string `json:"currentPassword"`
			NewPassword     string `json:"newPassword"`
			Confirm         string `json:"confirm"`
		}
		if err := decodeArgs(req.Args, &args); err != nil {
			return fail(err)
		}
		if err := b.auth.Change(ctx, args.CurrentPassword, args.NewPassword, args.Confirm); err != nil {
			return fail(err)
		}
		return ok(nil)

	case "remove_password":
		var args struct {
			CurrentPassword string `json:"currentPassword"`
		}
		if err := decodeArgs(req.Args, &args); err != nil {
			return fail(err)
		}
		if err := b.auth.Remove(ctx, args.CurrentPassword); err != nil {
			return fail(err)
		}
		return ok(nil)

	case "skip_password":
		if err := b.auth.Skip(ctx); err != nil {
			return fail(err)
		}
		return ok(nil)

	case "check_health":
		return ok(b.engine.Health(ctx))

	case "get_settings":
		settings, err := b.engine.Settings(ctx)
		if err != nil {
			return fail(err)
		}
		return ok(settings)

	case "update_settings":
		var args models.Settings
		if err := decodeArgs(req.Args, &args); err != nil {
			return fail(err)
		}
		settings, err := b.engine.UpdateSettings(ctx, args)
		if err != nil {
			return fail(err)
		}
		return ok(settings)

	case "test_connection":
		var args models.ConnectionRequest
		if err := decodeArgs(req.Args, &args); err != nil {
			return fail(err)
		}
		version, err := b.engine.TestConnection(ctx, args)
		if err != nil {
			return fail(err)
		}
		return ok(version)

	case "save_connection":
		var args models.ConnectionRequest
		if err := decodeArgs(req.Args, &args); err != nil {
			return fail(err)
		}
		if err := b.engine.SaveConnection(ctx, args); err != nil {
			return fail(err)
		}
		return ok(nil)

	case "get_connection":
		conn, err := b.engine.Connection(ctx)
		if err != nil {
			return fail(err)
		}
		return ok(conn)

	case "get_databases":
		dbs, err := b.engine.Databases(ctx)
		if err != nil {
			return fail(err)
		}
		return ok(dbs)

	case "get_metadata_status":
		return ok(b.engine.MetadataStatus())

	case "get_groups":
		groups, err := b.engine.Groups(ctx)
		if err != nil {
			return fail(err)
		}
		return ok(groups)

	case "create_group":
		var args struct {
			Name      string   `json:"name"`
			Databases []string `json:"databases"`
		}
		if err := decodeArgs(req.Args, &args); err != nil {
			return fail(err)
		}
		group, err := b.engine.CreateGroup(ctx, args.Name, args.Databases)
		if err != nil {
			return fail(err)
		}
		return ok(group)

	case "update_group":
		var args struct {
			GroupID   string   `json:"groupId"`
			Name      string   `json:"name"`
			Databases []string `json:"databases"`
		}
		if err := decodeArgs(req.Args, &args); err != nil {
			return fail(err)
		}
		group, err := b.engine.UpdateGroup(ctx, args.GroupID, args.Name, args.Databases)
		if err != nil {
			return fail(err)
		}
		return ok(group)

	case "delete_group":
		var args struct {
			GroupID string `json:"groupId"`
		}
		if err := decodeArgs(req.Args, &args); err != nil {
			return fail(err)
		}
		if err := b.engine.DeleteGroup(ctx, args.GroupID); err != nil {
			return fail(err)
		}
		return ok(nil)

	case "get_snapshots":
		var args struct {
			GroupID string `json:"groupId"`
		}
		if err := decodeArgs(req.Args, &args); err != nil {
			return fail(err)
		}
		if args.GroupID == "" {
			return fail(errors.New("groupId is required"))
		}
		snaps, err := b.engine.Snapshots(ctx, args.GroupID)
		if err != nil {
			return fail(err)
		}
		return ok(snaps)

	case "create_snapshot":
		var args struct {
			GroupID      string `json:"groupId"`
			SnapshotName string `json:"snapshotName"`
		}
		if err := decodeArgs(req.Args, &args); err != nil {
			return fail(err)
		}
		snap, err := b.engine.CreateSnapshot(ctx, args.GroupID, args.SnapshotName)
		if err != nil {
			return fail(err)
		}
		return ok(snap)

	case "delete_snapshot":
		var args struct {
			SnapshotID string `json:"snapshotId"`
		}
		if err := decodeArgs(req.Args, &args); err != nil {
			return fail(err)
		}
		if err := b.engine.DeleteSnapshot(ctx, args.SnapshotID); err != nil {
			return fail(err)
		}
		return ok(nil)

	case "rollback_snapshot":
		var args struct {
			SnapshotID string `json:"snapshotId"`
		}
		if err := decodeArgs(req.Args, &args); err != nil {
			return fail(err)
		}
		res, err := b.engine.Rollback(ctx, args.SnapshotID)
		if err != nil {
			resp := fail(err)
			if len(res.Results) > 0 {
				resp.Data = res
			}
			return resp
		}
		return ok(res)

	case "verify_snapshots":
		var args struct {
			GroupID string `json:"groupId"`
		}
		if err := decodeArgs(req.Args, &args); err != nil {
			return fail(err)
		}
		res, err := b.engine.Verify(ctx, args.GroupID)
		if err != nil {
			return fail(err)
		}
		return ok(res)

	case "get_history":
		var args struct {
			Limit int `json:"limit"`
		}
		if err := decodeArgs(req.Args, &args); err != nil {
			return fail(err)
		}
		entries, err := b.engine.History(ctx, args.Limit)
		if err != nil {
			return fail(err)
		}
		return ok(entries)

	case "clear_history":
		if err := b.engine.ClearHistory(ctx); err != nil {
			return fail(err)
		}
		return ok(nil)

	case "trim_history":
		deleted, err := b.engine.TrimHistory(ctx)
		if err != nil {
			return fail(err)
		}
		return ok(deleted)

	default:
		return fail(fmt.Errorf("unknown command %q", req.Command))
	}
}

func decodeArgs(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decoding command args: %w", err)
	}
	return nil
}
