package session

import (
	"context"

	"github.com/sqlparrot/sqlparrot/internal/client/api"
	"github.com/sqlparrot/sqlparrot/internal/models"
)

/*************
 * Fake transport client
 *************/

// fakeClient implements api.Client with preset outputs, captured inputs,
// and call counters for the operations the session package touches.
type fakeClient struct {
	// outputs preset
	statusResp models.PasswordStatus
	statusErr  error

	checkResp models.AuthCheck
	checkErr  error

	setErr    error
	changeErr error
	removeErr error
	skipErr   error

	settingsResp models.Settings
	settingsErr  error

	// inputs captured
	lastCheckPassword  string
	lastSetPassword    string
	lastSetConfirm     string
	lastChangeCurrent  string
	lastChangePassword string
	lastChangeConfirm  string
	lastRemoveCurrent  string

	// call counters
	statusCalls   int
	checkCalls    int
	setCalls      int
	changeCalls   int
	removeCalls   int
	skipCalls     int
	settingsCalls int
}

var _ api.Client = (*fakeClient)(nil)

func (f *fakeClient) Close() error { return nil }

func (f *fakeClient) PasswordStatus(ctx context.Context) (models.PasswordStatus, error) {
	f.statusCalls++
	return f.statusResp, f.statusErr
}

func (f *fakeClient) CheckPassword(ctx context.Context, password string) (models.AuthCheck, error) {
	f.checkCalls++
	f.lastCheckPassword = password
	return f.checkResp, f.checkErr
}

func (f *fakeClient) SetPassword(ctx context.Context, password, confirm string) error {
	f.setCalls++
	f.lastSetPassword = password
	f.lastSetConfirm = confirm
	return f.setErr
}

func (f *fakeClient) ChangePassword(ctx context.Context, current, password, confirm string) error {
	f.changeCalls++
	f.lastChangeCurrent = current
	f.lastChangePassword = password
	f.lastChangeConfirm = confirm
	return f.changeErr
}

func (f *fakeClient) RemovePassword(ctx context.Context, current string) error {
	f.removeCalls++
	f.lastRemoveCurrent = current
	return f.removeErr
}

func (f *fakeClient) SkipPassword(ctx context.Context) error {
	f.skipCalls++
	return f.skipErr
}

func (f *fakeClient) GetSettings(ctx context.Context) (models.Settings, error) {
	f.settingsCalls++
	return f.settingsResp, f.settingsErr
}

func (f *fakeClient) UpdateSettings(ctx context.Context, s models.Settings) (models.Settings, error) {
	return s, nil
}

func (f *fakeClient) CheckHealth(ctx context.Context) (models.HealthStatus, error) {
	return models.HealthStatus{}, nil
}

func (f *fakeClient) TestConnection(ctx context.Context, req models.ConnectionRequest) (string, error) {
	return "", nil
}

func (f *fakeClient) SaveConnection(ctx context.Context, req models.ConnectionRequest) error {
	return nil
}

func (f *fakeClient) GetConnection(ctx context.Context) (*models.Connection, error) {
	return nil, nil
}

func (f *fakeClient) GetDatabases(ctx context.Context) ([]models.DatabaseInfo, error) {
	return nil, nil
}

func (f *fakeClient) GetMetadataStatus(ctx context.Context) (models.MetadataStatus, error) {
	return models.MetadataStatus{}, nil
}

func (f *fakeClient) GetGroups(ctx context.Context) ([]models.Group, error) { return nil, nil }

func (f *fakeClient) CreateGroup(ctx context.Context, name string, databases []string) (models.Group, error) {
	return models.Group{}, nil
}

func (f *fakeClient) UpdateGroup(ctx context.Context, id, name string, databases []string) (models.Group, error) {
	return models.Group{}, nil
}

func (f *fakeClient) DeleteGroup(ctx context.Context, id string) error { return nil }

func (f *fakeClient) GetSnapshots(ctx context.Context, groupID string) ([]models.Snapshot, error) {
	return nil, nil
}

func (f *fakeClient) CreateSnapshot(ctx context.Context, groupID, name string) (models.Snapshot, error) {
	return models.Snapshot{}, nil
}

func (f *fakeClient) DeleteSnapshot(ctx context.Context, id string) error { return nil }

func (f *fakeClient) RollbackSnapshot(ctx context.Context, id string) (models.RollbackResult, error) {
	return models.RollbackResult{}, nil
}

func (f *fakeClient) VerifySnapshots(ctx context.Context, groupID string) (models.VerificationResults, error) {
	return models.VerificationResults{}, nil
}

func (f *fakeClient) GetHistory(ctx context.Context, limit int) ([]models.HistoryEntry, error) {
	return nil, nil
}

func (f *fakeClient) ClearHistory(ctx context.Context) error { return nil }

func (f *fakeClient) TrimHistory(ctx context.Context) (int, error) { return 0, nil }

/*************
 * Shared helpers
 *************/

func setStatus() models.PasswordStatus {
	return models.PasswordStatus{Status: models.PasswordStatusSet, PasswordSet: true}
}

func skippedStatus() models.PasswordStatus {
	return models.PasswordStatus{Status: models.PasswordStatusSkipped, PasswordSkipped: true}
}

// newGate wires a gate around the fake with fail-open resolution.
func newGate(f *fakeClient) (*Gate, *TokenStore) {
	tokens := NewTokenStore()
	resolver := NewStatusResolver(f, true, nil)
	validator := NewTokenValidator(f)
	return NewGate(resolver, validator, tokens, nil), tokens
}

// newClosedGate wires a gate around the fake with fail-closed resolution.
func newClosedGate(f *fakeClient) (*Gate, *TokenStore) {
	tokens := NewTokenStore()
	resolver := NewStatusResolver(f, false, nil)
	validator := NewTokenValidator(f)
	return NewGate(resolver, validator, tokens, nil), tokens
}
