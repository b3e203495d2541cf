package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sqlparrot/sqlparrot/internal/models"
)

// HTTPClient talks to the backend's REST surface. Every call gets a bounded
// timeout and carries the current session token, when one is held, as a
// Bearer header.
type HTTPClient struct {
	baseURL string
	hc      *http.Client
	tokens  TokenSource
	timeout time.Duration
}

const defaultTimeout = 10 * time.Second

func NewHTTPClient(baseURL string, timeout time.Duration, tokens TokenSource) *HTTPClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPClient{
		baseURL: baseURL,
		hc:      &http.Client{},
		tokens:  tokens,
		timeout: timeout,
	}
}

func (c *HTTPClient) Close() error {
	c.hc.CloseIdleConnections()
	return nil
}

// do issues one request and returns the envelope's data payload.
// Transport failures and 5xx map to ErrUnavailable, 401/403 to
// ErrUnauthorized; other failures carry the backend's message.
func (c *HTTPClient) do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token, ok := c.tokens.Get(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, ErrUnavailable
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ErrUnavailable
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrUnauthorized
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, ErrUnavailable
	}

	return decodeEnvelope(respBody)
}

func (c *HTTPClient) PasswordStatus(ctx context.Context) (models.PasswordStatus, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/auth/password-status", nil)
	if err != nil {
		return models.PasswordStatus{}, err
	}
	var out models.PasswordStatus
	if err := unmarshalData(data, &out); err != nil {
		return models.PasswordStatus{}, err
	}
	return out, nil
}

func (c *HTTPClient) CheckPassword(ctx context.Context, password string) (models.AuthCheck, error) {
	data, err := c.do(ctx, http.MethodPost, "/api/auth/check-password", map[string]string{"password": password})
	if err != nil {
		return models.AuthCheck{}, err
	}
	return decodeAuthCheck(data)
}

func (c *HTTPClient) SetPassword(ctx context.Context, password, confirm string) error {
	_, err := c.do(ctx, http.MethodPost, "/api/auth/set-password",
		map[string]string{"password": password, "confirm": confirm})
	return err
}

func (c *HTTPClient) ChangePassword(ctx context.Context, current, password, confirm string) error {
	_, err := c.do(ctx, http.MethodPost, "/api/auth/change-password",
		map[string]string{"currentPassword": current, "newPassword": password, "confirm": confirm})
	return err
}

func (c *HTTPClient) RemovePassword(ctx context.Context, current string) error {
	_, err := c.do(ctx, http.MethodPost, "/api/auth/remove-password",
		map[string]string{"currentPassword": current})
	return err
}

func (c *HTTPClient) SkipPassword(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/api/auth/skip-password", map[string]string{})
	return err
}

func (c *HTTPClient) GetSettings(ctx context.Context) (models.Settings, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/settings", nil)
	if err != nil {
		return models.Settings{}, err
	}
	var out models.Settings
	if err := unmarshalData(data, &out); err != nil {
		return models.Settings{}, err
	}
	return out, nil
}

func (c *HTTPClient) UpdateSettings(ctx context.Context, s models.Settings) (models.Settings, error) {
	body := map[string]any{
		"preferences":      s.Preferences,
		"autoVerification": s.AutoVerification,
	}
	data, err := c.do(ctx, http.MethodPut, "/api/settings", body)
	if err != nil {
		return models.Settings{}, err
	}
	var out models.Settings
	if err := unmarshalData(data, &out); err != nil {
		return models.Settings{}, err
	}
	return out, nil
}

func (c *HTTPClient) CheckHealth(ctx context.Context) (models.HealthStatus, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/health", nil)
	if err != nil {
		return models.HealthStatus{}, err
	}
	var out models.HealthStatus
	if err := unmarshalData(data, &out); err != nil {
		return models.HealthStatus{}, err
	}
	return out, nil
}

func (c *HTTPClient) TestConnection(ctx context.Context, req models.ConnectionRequest) (string, error) {
	data, err := c.do(ctx, http.MethodPost, "/api/connection/test", req)
	if err != nil {
		return "", err
	}
	var version string
	if err := unmarshalData(data, &version); err != nil {
		return "", err
	}
	return version, nil
}

func (c *HTTPClient) SaveConnection(ctx context.Context, req models.ConnectionRequest) error {
	_, err := c.do(ctx, http.MethodPut, "/api/connection", req)
	return err
}

func (c *HTTPClient) GetConnection(ctx context.Context) (*models.Connection, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/connection", nil)
	if err != nil {
		return nil, err
	}
	var out *models.Connection
	if err := unmarshalData(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) GetDatabases(ctx context.Context) ([]models.DatabaseInfo, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/metadata/databases", nil)
	if err != nil {
		return nil, err
	}
	var out []models.DatabaseInfo
	if err := unmarshalData(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) GetMetadataStatus(ctx context.Context) (models.MetadataStatus, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/metadata/status", nil)
	if err != nil {
		return models.MetadataStatus{}, err
	}
	var out models.MetadataStatus
	if err := unmarshalData(data, &out); err != nil {
		return models.MetadataStatus{}, err
	}
	return out, nil
}

func (c *HTTPClient) GetGroups(ctx context.Context) ([]models.Group, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/groups", nil)
	if err != nil {
		return nil, err
	}
	var out []models.Group
	if err := unmarshalData(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) CreateGroup(ctx context.Context, name string, databases []string) (models.Group, error) {
	body := map[string]any{"name": name, "databases": databases}
	data, err := c.do(ctx, http.MethodPost, "/api/groups", body)
	if err != nil {
		return models.Group{}, err
	}
	var out models.Group
	if err := unmarshalData(data, &out); err != nil {
		return models.Group{}, err
	}
	return out, nil
}

func (c *HTTPClient) UpdateGroup(ctx context.Context, id, name string, databases []string) (models.Group, error) {
	body := map[string]any{"name": name, "databases": databases}
	data, err := c.do(ctx, http.MethodPut, "/api/groups/"+url.PathEscape(id), body)
	if err != nil {
		return models.Group{}, err
	}
	var out models.Group
	if err := unmarshalData(data, &out); err != nil {
		return models.Group{}, err
	}
	return out, nil
}

func (c *HTTPClient) DeleteGroup(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/groups/"+url.PathEscape(id), nil)
	return err
}

func (c *HTTPClient) GetSnapshots(ctx context.Context, groupID string) ([]models.Snapshot, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/snapshots?groupId="+url.QueryEscape(groupID), nil)
	if err != nil {
		return nil, err
	}
	var out []models.Snapshot
	if err := unmarshalData(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) CreateSnapshot(ctx context.Context, groupID, name string) (models.Snapshot, error) {
	body := map[string]any{"groupId": groupID}
	if name != "" {
		body["snapshotName"] = name
	}
	data, err := c.do(ctx, http.MethodPost, "/api/snapshots", body)
	if err != nil {
		return models.Snapshot{}, err
	}
	var out models.Snapshot
	if err := unmarshalData(data, &out); err != nil {
		return models.Snapshot{}, err
	}
	return out, nil
}

func (c *HTTPClient) DeleteSnapshot(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/snapshots/"+url.PathEscape(id), nil)
	return err
}

// RollbackSnapshot decodes partial results even when the backend reports
// failure, so callers can show which databases restored and which did not.
func (c *HTTPClient) RollbackSnapshot(ctx context.Context, id string) (models.RollbackResult, error) {
	data, err := c.do(ctx, http.MethodPost, "/api/snapshots/"+url.PathEscape(id)+"/rollback", map[string]string{})
	var out models.RollbackResult
	if decErr := unmarshalData(data, &out); decErr != nil && err == nil {
		return models.RollbackResult{}, decErr
	}
	return out, err
}

func (c *HTTPClient) VerifySnapshots(ctx context.Context, groupID string) (models.VerificationResults, error) {
	data, err := c.do(ctx, http.MethodPost, "/api/snapshots/verify", map[string]string{"groupId": groupID})
	if err != nil {
		return models.VerificationResults{}, err
	}
	var out models.VerificationResults
	if err := unmarshalData(data, &out); err != nil {
		return models.VerificationResults{}, err
	}
	return out, nil
}

func (c *HTTPClient) GetHistory(ctx context.Context, limit int) ([]models.HistoryEntry, error) {
	path := "/api/history"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	data, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var out []models.HistoryEntry
	if err := unmarshalData(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) ClearHistory(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/history", nil)
	return err
}

func (c *HTTPClient) TrimHistory(ctx context.Context) (int, error) {
	data, err := c.do(ctx, http.MethodPost, "/api/history/trim", map[string]string{})
	if err != nil {
		return 0, err
	}
	var deleted int
	if err := unmarshalData(data, &deleted); err != nil {
		return 0, err
	}
	return deleted, nil
}
