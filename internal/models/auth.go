// Package models defines the wire data models shared by the SQL Parrot
// client and backend. JSON field names follow the backend's camelCase
// convention.
package models

// Password protection status values as reported by the backend.
const (
	PasswordStatusNotSet  = "not-set"
	PasswordStatusSkipped = "skipped"
	PasswordStatusSet     = "set"
)

// PasswordStatus describes the server-side UI password configuration.
// It is fetched fresh on every status check and replaced wholesale;
// clients never mutate individual fields.
type PasswordStatus struct {
	Status          string `json:"status"`
	PasswordSet     bool   `json:"passwordSet"`
	PasswordSkipped bool   `json:"passwordSkipped"`
	// EnvVarIgnored is true when an environment-supplied password was
	// ignored because a password was already configured.
	EnvVarIgnored bool `json:"envVarIgnored,omitempty"`
}

// Protected reports whether a password is configured and therefore required.
func (s PasswordStatus) Protected() bool {
	return s.Status == PasswordStatusSet
}

// UnprotectedStatus is the safe fallback adopted when the status check
// cannot be completed: no password, not skipped, gate open.
func UnprotectedStatus() PasswordStatus {
	return PasswordStatus{Status: PasswordStatusNotSet}
}

// AuthCheck is the canonical result of a password check, resolved at the
// transport boundary from either wire shape (detailed object or bare
// boolean). SessionToken is empty in the tokenless transport variant.
type AuthCheck struct {
	Authenticated bool   `json:"authenticated"`
	SessionToken  string `json:"sessionToken,omitempty"`
}
