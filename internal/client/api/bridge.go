package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"time"

	"github.com/sqlparrot/sqlparrot/internal/models"
)

// authRequiredMsg is the error string the command bridge returns for
// protected commands while the session is locked.
const authRequiredMsg = "authentication required"

type bridgeRequest struct {
	Command string `json:"command"`
	Args    any    `json:"args,omitempty"`
}

type bridgeResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// BridgeClient talks to the backend over its local command socket. Each call
// opens a fresh connection, writes one newline-delimited JSON request and
// reads one response. The bridge has no session tokens; check_password
// answers with a bare boolean.
type BridgeClient struct {
	socketPath string
	timeout    time.Duration
}

func NewBridgeClient(socketPath string, timeout time.Duration) *BridgeClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &BridgeClient{socketPath: socketPath, timeout: timeout}
}

func (c *BridgeClient) Close() error { return nil }

func (c *BridgeClient) call(ctx context.Context, command string, args any) (json.RawMessage, error) {

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return nil, ErrUnavailable
	}
	defer conn.Close()

	if dl, ok := ctx.Deadline(); ok {
		conn.SetDeadline(dl)
	}

	if err := json.NewEncoder(conn).Encode(bridgeRequest{Command: command, Args: args}); err != nil {
		return nil, ErrUnavailable
	}

	var resp bridgeResponse
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return nil, ErrUnavailable
	}

	if !resp.Success {
		if resp.Error == authRequiredMsg {
			return nil, ErrUnauthorized
		}
		msg := resp.Error
		if msg == "" {
			msg = "command failed"
		}
		return resp.Data, errors.New(msg)
	}
	return resp.Data, nil
}

func (c *BridgeClient) PasswordStatus(ctx context.Context) (models.PasswordStatus, error) {
	data, err := c.call(ctx, "get_password_status", nil)
	if err != nil {
		return models.PasswordStatus{}, err
	}
	var out models.PasswordStatus
	if err := unmarshalData(data, &out); err != nil {
		return models.PasswordStatus{}, err
	}
	return out, nil
}

func (c *BridgeClient) CheckPassword(ctx context.Context, password string) (models.AuthCheck, error) {
	data, err := c.call(ctx, "check_password", map[string]string{"password": password})
	if err != nil {
		return models.AuthCheck{}, err
	}
	return decodeAuthCheck(data)
}

func (c *BridgeClient) SetPassword(ctx context.Context, password, confirm string) error {
	_, err := c.call(ctx, "set_password", map[string]string{"password": password, "confirm": confirm})
	return err
}

func (c *BridgeClient) ChangePassword(ctx context.Context, current, password, confirm string) error {
	_, err := c.call(ctx, "change_password",
		map[string]string{"currentPassword": current, "newPassword": password, "confirm": confirm})
	return err
}

func (c *BridgeClient) RemovePassword(ctx context.Context, current string) error {
	_, err := c.call(ctx, "remove_password", map[string]string{"currentPassword": current})
	return err
}

func (c *BridgeClient) SkipPassword(ctx context.Context) error {
	_, err := c.call(ctx, "skip_password", nil)
	return err
}

func (c *BridgeClient) GetSettings(ctx context.Context) (models.Settings, error) {
	data, err := c.call(ctx, "get_settings", nil)
	if err != nil {
		return models.Settings{}, err
	}
	var out models.Settings
	if err := unmarshalData(data, &out); err != nil {
		return models.Settings{}, err
	}
	return out, nil
}

func (c *BridgeClient) UpdateSettings(ctx context.Context, s models.Settings) (models.Settings, error) {
	body := map[string]any{
		"preferences":      s.Preferences,
		"autoVerification": s.AutoVerification,
	}
	data, err := c.call(ctx, "update_settings", body)
	if err != nil {
		return models.Settings{}, err
	}
	var out models.Settings
	if err := unmarshalData(data, &out); err != nil {
		return models.Settings{}, err
	}
	return out, nil
}

func (c *BridgeClient) CheckHealth(ctx context.Context) (models.HealthStatus, error) {
	data, err := c.call(ctx, "check_health", nil)
	if err != nil {
		return models.HealthStatus{}, err
	}
	var out models.HealthStatus
	if err := unmarshalData(data, &out); err != nil {
		return models.HealthStatus{}, err
	}
	return out, nil
}

func (c *BridgeClient) TestConnection(ctx context.Context, req models.ConnectionRequest) (string, error) {
	data, err := c.call(ctx, "test_connection", req)
	if err != nil {
		return "", err
	}
	var version string
	if err := unmarshalData(data, &version); err != nil {
		return "", err
	}
	return version, nil
}

func (c *BridgeClient) SaveConnection(ctx context.Context, req models.ConnectionRequest) error {
	_, err := c.call(ctx, "save_connection", req)
	return err
}

func (c *BridgeClient) GetConnection(ctx context.Context) (*models.Connection, error) {
	data, err := c.call(ctx, "get_connection", nil)
	if err != nil {
		return nil, err
	}
	var out *models.Connection
	if err := unmarshalData(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BridgeClient) GetDatabases(ctx context.Context) ([]models.DatabaseInfo, error) {
	data, err := c.call(ctx, "get_databases", nil)
	if err != nil {
		return nil, err
	}
	var out []models.DatabaseInfo
	if err := unmarshalData(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BridgeClient) GetMetadataStatus(ctx context.Context) (models.MetadataStatus, error) {
	data, err := c.call(ctx, "get_metadata_status", nil)
	if err != nil {
		return models.MetadataStatus{}, err
	}
	var out models.MetadataStatus
	if err := unmarshalData(data, &out); err != nil {
		return models.MetadataStatus{}, err
	}
	return out, nil
}

func (c *BridgeClient) GetGroups(ctx context.Context) ([]models.Group, error) {
	data, err := c.call(ctx, "get_groups", nil)
	if err != nil {
		return nil, err
	}
	var out []models.Group
	if err := unmarshalData(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BridgeClient) CreateGroup(ctx context.Context, name string, databases []string) (models.Group, error) {
	data, err := c.call(ctx, "create_group", map[string]any{"name": name, "databases": databases})
	if err != nil {
		return models.Group{}, err
	}
	var out models.Group
	if err := unmarshalData(data, &out); err != nil {
		return models.Group{}, err
	}
	return out, nil
}

func (c *BridgeClient) UpdateGroup(ctx context.Context, id, name string, databases []string) (models.Group, error) {
	data, err := c.call(ctx, "update_group", map[string]any{"groupId": id, "name": name, "databases": databases})
	if err != nil {
		return models.Group{}, err
	}
	var out models.Group
	if err := unmarshalData(data, &out); err != nil {
		return models.Group{}, err
	}
	return out, nil
}

func (c *BridgeClient) DeleteGroup(ctx context.Context, id string) error {
	_, err := c.call(ctx, "delete_group", map[string]string{"groupId": id})
	return err
}

func (c *BridgeClient) GetSnapshots(ctx context.Context, groupID string) ([]models.Snapshot, error) {
	data, err := c.call(ctx, "get_snapshots", map[string]string{"groupId": groupID})
	if err != nil {
		return nil, err
	}
	var out []models.Snapshot
	if err := unmarshalData(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BridgeClient) CreateSnapshot(ctx context.Context, groupID, name string) (models.Snapshot, error) {
	args := map[string]any{"groupId": groupID}
	if name != "" {
		args["snapshotName"] = name
	}
	data, err := c.call(ctx, "create_snapshot", args)
	if err != nil {
		return models.Snapshot{}, err
	}
	var out models.Snapshot
	if err := unmarshalData(data, &out); err != nil {
		return models.Snapshot{}, err
	}
	return out, nil
}

func (c *BridgeClient) DeleteSnapshot(ctx context.Context, id string) error {
	_, err := c.call(ctx, "delete_snapshot", map[string]string{"snapshotId": id})
	return err
}

func (c *BridgeClient) RollbackSnapshot(ctx context.Context, id string) (models.RollbackResult, error) {
	data, err := c.call(ctx, "rollback_snapshot", map[string]string{"snapshotId": id})
	var out models.RollbackResult
	if decErr := unmarshalData(data, &out); decErr != nil && err == nil {
		return models.RollbackResult{}, decErr
	}
	return out, err
}

func (c *BridgeClient) VerifySnapshots(ctx context.Context, groupID string) (models.VerificationResults, error) {
	data, err := c.call(ctx, "verify_snapshots", map[string]string{"groupId": groupID})
	if err != nil {
		return models.VerificationResults{}, err
	}
	var out models.VerificationResults
	if err := unmarshalData(data, &out); err != nil {
		return models.VerificationResults{}, err
	}
	return out, nil
}

func (c *BridgeClient) GetHistory(ctx context.Context, limit int) ([]models.HistoryEntry, error) {
	var args any
	if limit > 0 {
		args = map[string]int{"limit": limit}
	}
	data, err := c.call(ctx, "get_history", args)
	if err != nil {
		return nil, err
	}
	var out []models.HistoryEntry
	if err := unmarshalData(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BridgeClient) ClearHistory(ctx context.Context) error {
	_, err := c.call(ctx, "clear_history", nil)
	return err
}

func (c *BridgeClient) TrimHistory(ctx context.Context) (int, error) {
	data, err := c.call(ctx, "trim_history", nil)
	if err != nil {
		return 0, err
	}
	var deleted int
	if err := unmarshalData(data, &deleted); err != nil {
		return 0, err
	}
	return deleted, nil
}
