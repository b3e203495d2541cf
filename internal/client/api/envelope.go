package api

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sqlparrot/sqlparrot/internal/models"
)

var errEmptyResponse = errors.New("empty response data")

// decodeEnvelope parses an envelope body and returns its raw data payload.
// A failed envelope yields both the payload (it may carry partial results)
// and an error built from the first backend error message.
func decodeEnvelope(body []byte) (json.RawMessage, error) {
	var env models.APIResponse
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if !env.Success {
		msg := env.FirstError()
		if msg == "" {
			msg = "request failed"
		}
		return env.Data, errors.New(msg)
	}
	return env.Data, nil
}

// decodeAuthCheck resolves the two historical shapes of the password-check
// payload into one canonical result: a detailed object with an optional
// session token, or a bare boolean from the tokenless transport variant.
func decodeAuthCheck(data json.RawMessage) (models.AuthCheck, error) {
	if len(data) == 0 {
		return models.AuthCheck{}, errEmptyResponse
	}

	var simple bool
	if err := json.Unmarshal(data, &simple); err == nil {
		return models.AuthCheck{Authenticated: simple}, nil
	}

	var detailed models.AuthCheck
	if err := json.Unmarshal(data, &detailed); err != nil {
		return models.AuthCheck{}, fmt.Errorf("unexpected auth check payload: %w", err)
	}
	return detailed, nil
}

// unmarshalData decodes a payload into out; a nil out discards it.
func unmarshalData(data json.RawMessage, out any) error {
	if out == nil {
		return nil
	}
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	return json.Unmarshal(data, out)
}
