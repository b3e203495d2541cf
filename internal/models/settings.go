package models

// Settings is the persisted application configuration. The Connection block
// is read-only here and managed through the connection endpoints; writes
// ignore it.
type Settings struct {
	Preferences      SettingsPreferences `json:"preferences"`
	AutoVerification AutoVerification    `json:"autoVerification"`
	Connection       ConnectionInfo      `json:"connection"`
}

type SettingsPreferences struct {
	DefaultGroup         string `json:"defaultGroup"`
	MaxHistoryEntries    int    `json:"maxHistoryEntries"`
	AutoCreateCheckpoint bool   `json:"autoCreateCheckpoint"`
}

type AutoVerification struct {
	Enabled         bool `json:"enabled"`
	IntervalMinutes int  `json:"intervalMinutes"`
}

// ConnectionInfo is the connection summary embedded in Settings.
type ConnectionInfo struct {
	Server    string `json:"server"`
	Port      int    `json:"port"`
	Connected bool   `json:"connected"`
}

// DefaultSettings mirrors the backend defaults: history capped at 100
// entries, auto-verification every 15 minutes (disabled).
func DefaultSettings() Settings {
	return Settings{
		Preferences:      SettingsPreferences{MaxHistoryEntries: 100},
		AutoVerification: AutoVerification{IntervalMinutes: 15},
	}
}
