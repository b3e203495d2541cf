package models

import (
	"encoding/json"
	"time"
)

// APIResponse is the uniform envelope wrapping every backend response.
// Data is left raw so each operation can decode its own payload; failed
// operations may still carry data (e.g. partial rollback results).
type APIResponse struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data,omitempty"`
	Messages  Messages        `json:"messages"`
	Timestamp string          `json:"timestamp"`
}

// Messages groups human-readable notices by severity. The first error entry
// is the canonical failure reason.
type Messages struct {
	Error   []string `json:"error"`
	Warning []string `json:"warning"`
	Info    []string `json:"info"`
	Success []string `json:"success"`
}

// FirstError returns the canonical failure reason, or "" when none.
func (r *APIResponse) FirstError() string {
	if len(r.Messages.Error) == 0 {
		return ""
	}
	return r.Messages.Error[0]
}

// OKResponse wraps v in a successful envelope.
func OKResponse(v any) (APIResponse, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return APIResponse{}, err
	}
	return APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// ErrResponse builds a failed envelope with msg as the first error entry.
func ErrResponse(msg string) APIResponse {
	return APIResponse{
		Success:   false,
		Messages:  Messages{Error: []string{msg}},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
