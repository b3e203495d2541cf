package api

import (
	"context"
	"fmt"
	"time"

	"github.com/sqlparrot/sqlparrot/internal/models"
)

// TokenSource supplies the current session token to a transport.
// ok is false when no token is held.
type TokenSource interface {
	Get() (token string, ok bool)
}

// Client is the operation surface of the SQL Parrot backend, identical on
// both transports. GetSettings doubles as the authenticated liveness probe
// used by the session gate.
type Client interface {
	Close() error

	// Session authentication
	PasswordStatus(ctx context.Context) (models.PasswordStatus, error)
	CheckPassword(ctx context.Context, password string) (models.AuthCheck, error)
	SetPassword(ctx context.Context, password, confirm string) error
	ChangePassword(ctx context.Context, current, password, confirm string) error
	RemovePassword(ctx context.Context, current string) error
	SkipPassword(ctx context.Context) error

	// Settings
	GetSettings(ctx context.Context) (models.Settings, error)
	UpdateSettings(ctx context.Context, s models.Settings) (models.Settings, error)

	// Connection
	CheckHealth(ctx context.Context) (models.HealthStatus, error)
	TestConnection(ctx context.Context, req models.ConnectionRequest) (string, error)
	SaveConnection(ctx context.Context, req models.ConnectionRequest) error
	GetConnection(ctx context.Context) (*models.Connection, error)
	GetDatabases(ctx context.Context) ([]models.DatabaseInfo, error)
	GetMetadataStatus(ctx context.Context) (models.MetadataStatus, error)

	// Groups
	GetGroups(ctx context.Context) ([]models.Group, error)
	CreateGroup(ctx context.Context, name string, databases []string) (models.Group, error)
	UpdateGroup(ctx context.Context, id, name string, databases []string) (models.Group, error)
	DeleteGroup(ctx context.Context, id string) error

	// Snapshots
	GetSnapshots(ctx context.Context, groupID string) ([]models.Snapshot, error)
	CreateSnapshot(ctx context.Context, groupID, name string) (models.Snapshot, error)
	DeleteSnapshot(ctx context.Context, id string) error
	RollbackSnapshot(ctx context.Context, id string) (models.RollbackResult, error)
	VerifySnapshots(ctx context.Context, groupID string) (models.VerificationResults, error)

	// History
	GetHistory(ctx context.Context, limit int) ([]models.HistoryEntry, error)
	ClearHistory(ctx context.Context) error
	TrimHistory(ctx context.Context) (int, error)
}

// NewClient builds the transport selected by the configuration.
func NewClient(transport, serverAddr, bridgeSocket string, timeout time.Duration, tokens TokenSource) (Client, error) {
	switch transport {
	case "http", "":
		return NewHTTPClient(serverAddr, timeout, tokens), nil
	case "bridge":
		return NewBridgeClient(bridgeSocket, timeout), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", transport)
	}
}
