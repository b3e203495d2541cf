package cli

import (
	"context"

	"github.com/sqlparrot/sqlparrot/internal/client/api"
	"github.com/sqlparrot/sqlparrot/internal/client/session"
	"github.com/sqlparrot/sqlparrot/internal/logging"
	"github.com/sqlparrot/sqlparrot/internal/models"
)

/*************
 * Fake transport client
 *************/

// fakeClient implements api.Client with preset outputs and captured inputs
// for the operations the shell commands touch.
type fakeClient struct {
	statusResp models.PasswordStatus
	statusErr  error

	checkResp models.AuthCheck
	checkErr  error

	settingsResp models.Settings
	settingsErr  error

	healthResp  models.HealthStatus
	healthErr   error
	healthCalls int

	databasesResp []models.DatabaseInfo
	metadataResp  models.MetadataStatus

	groupsResp []models.Group
	groupsErr  error

	createdGroupName string
	createdGroupDBs  []string
	updatedGroupID   string
	updatedGroupName string
	updatedGroupDBs  []string
	deletedGroupID   string

	snapshotsResp     []models.Snapshot
	createdSnapGroup  string
	createdSnapName   string
	deletedSnapshotID string

	rollbackResp models.RollbackResult
	rollbackErr  error
	rolledBackID string

	verifyResp models.VerificationResults

	historyResp     []models.HistoryEntry
	histCalls       int
	lastHistLimit   int
	clearHistCalls  int
	trimResp        int
	trimErr         error
	updatedSettings models.Settings

	connectionResp *models.Connection
	testConnResp   string
	testConnErr    error
	lastConnReq    models.ConnectionRequest
	savedConnReq   models.ConnectionRequest
}

var _ api.Client = (*fakeClient)(nil)

func (f *fakeClient) Close() error { return nil }

func (f *fakeClient) PasswordStatus(ctx context.Context) (models.PasswordStatus, error) {
	return f.statusResp, f.statusErr
}

func (f *fakeClient) CheckPassword(ctx context.Context, password string) (models.AuthCheck, error) {
	return f.checkResp, f.checkErr
}

func (f *fakeClient) SetPassword(ctx context.Context, password, confirm string) error { return nil }

func (f *fakeClient) ChangePassword(ctx context.Context, current, password, confirm string) error {
	return nil
}

func (f *fakeClient) RemovePassword(ctx context.Context, current string) error { return nil }

func (f *fakeClient) SkipPassword(ctx context.Context) error { return nil }

func (f *fakeClient) GetSettings(ctx context.Context) (models.Settings, error) {
	return f.settingsResp, f.settingsErr
}

func (f *fakeClient) UpdateSettings(ctx context.Context, s models.Settings) (models.Settings, error) {
	f.updatedSettings = s
	return s, nil
}

func (f *fakeClient) CheckHealth(ctx context.Context) (models.HealthStatus, error) {
	f.healthCalls++
	return f.healthResp, f.healthErr
}

func (f *fakeClient) TestConnection(ctx context.Context, req models.ConnectionRequest) (string, error) {
	f.lastConnReq = req
	return f.testConnResp, f.testConnErr
}

func (f *fakeClient) SaveConnection(ctx context.Context, req models.ConnectionRequest) error {
	f.savedConnReq = req
	return nil
}

func (f *fakeClient) GetConnection(ctx context.Context) (*models.Connection, error) {
	return f.connectionResp, nil
}

func (f *fakeClient) GetDatabases(ctx context.Context) ([]models.DatabaseInfo, error) {
	return f.databasesResp, nil
}

func (f *fakeClient) GetMetadataStatus(ctx context.Context) (models.MetadataStatus, error) {
	return f.metadataResp, nil
}

func (f *fakeClient) GetGroups(ctx context.Context) ([]models.Group, error) {
	return f.groupsResp, f.groupsErr
}

func (f *fakeClient) CreateGroup(ctx context.Context, name string, databases []string) (models.Group, error) {
	f.createdGroupName = name
	f.createdGroupDBs = databases
	return models.Group{ID: "g-new", Name: name, Databases: databases}, nil
}

func (f *fakeClient) UpdateGroup(ctx context.Context, id, name string, databases []string) (models.Group, error) {
	f.updatedGroupID = id
	f.updatedGroupName = name
	f.updatedGroupDBs = databases
	return models.Group{ID: id, Name: name, Databases: databases}, nil
}

func (f *fakeClient) DeleteGroup(ctx context.Context, id string) error {
	f.deletedGroupID = id
	return nil
}

func (f *fakeClient) GetSnapshots(ctx context.Context, groupID string) ([]models.Snapshot, error) {
	return f.snapshotsResp, nil
}

func (f *fakeClient) CreateSnapshot(ctx context.Context, groupID, name string) (models.Snapshot, error) {
	f.createdSnapGroup = groupID
	f.createdSnapName = name
	return models.Snapshot{ID: "s-new", GroupID: groupID, DisplayName: name}, nil
}

func (f *fakeClient) DeleteSnapshot(ctx context.Context, id string) error {
	f.deletedSnapshotID = id
	return nil
}

func (f *fakeClient) RollbackSnapshot(ctx context.Context, id string) (models.RollbackResult, error) {
	f.rolledBackID = id
	return f.rollbackResp, f.rollbackErr
}

func (f *fakeClient) VerifySnapshots(ctx context.Context, groupID string) (models.VerificationResults, error) {
	return f.verifyResp, nil
}

func (f *fakeClient) GetHistory(ctx context.Context, limit int) ([]models.HistoryEntry, error) {
	f.histCalls++
	f.lastHistLimit = limit
	return f.historyResp, nil
}

func (f *fakeClient) ClearHistory(ctx context.Context) error {
	f.clearHistCalls++
	return nil
}

func (f *fakeClient) TrimHistory(ctx context.Context) (int, error) { return f.trimResp, f.trimErr }

/*************
 * Shared helpers
 *************/

// newTestApp wires an App around the fake client with a real session gate,
// a default theme, and no logger.
func newTestApp(f *fakeClient) *App {
	tokens := session.NewTokenStore()
	resolver := session.NewStatusResolver(f, true, nil)
	validator := session.NewTokenValidator(f)
	gate := session.NewGate(resolver, validator, tokens, nil)

	theme, _ := ThemeByName("default")
	return &App{
		logger:    logging.NewNopLogger(),
		client:    f,
		tokens:    tokens,
		gate:      gate,
		passwords: session.NewPasswordService(f, tokens, gate),
		theme:     theme,
	}
}
