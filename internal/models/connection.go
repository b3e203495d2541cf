package models

// Connection is the active connection profile as returned to clients.
// The password is never included. The two snake_case field names are a
// backend quirk kept for wire compatibility.
type Connection struct {
	Name             string `json:"name"`
	Host             string `json:"host"`
	Port             int    `json:"port"`
	Username         string `json:"username"`
	TrustCertificate bool   `json:"trust_certificate"`
	SnapshotPath     string `json:"snapshot_path"`
}

// ConnectionRequest carries connection parameters for save/test calls.
// An empty Password on a test means "use the saved one" when host, port and
// username match the stored profile.
type ConnectionRequest struct {
	Host             string `json:"host"`
	Port             int    `json:"port"`
	Username         string `json:"username"`
	Password         string `json:"password"`
	TrustCertificate bool   `json:"trustCertificate"`
	SnapshotPath     string `json:"snapshotPath,omitempty"`
}

// HealthStatus is the backend health probe response.
type HealthStatus struct {
	Connected        bool   `json:"connected"`
	Version          string `json:"version,omitempty"`
	Platform         string `json:"platform,omitempty"`
	SQLServerVersion string `json:"sqlServerVersion,omitempty"`
}

// MetadataStatus describes where operation metadata is stored, e.g. mode
// "sqlite" with the database file path.
type MetadataStatus struct {
	Mode     string `json:"mode"`
	Database string `json:"database,omitempty"`
	UserName string `json:"userName,omitempty"`
}
