package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"gstdirectory/pkg/directory"
)

// MessageResponse mirrors the body returned by successful mutations.
type MessageResponse struct {
	Message string            `json:"message"`
	Entry   *directory.Record `json:"entry,omitempty"`
}

func (m MessageResponse) record() directory.Record {
	if m.Entry == nil {
		return directory.Record{}
	}
	return *m.Entry
}

// APIError is a non-2xx reply from the server. It unwraps to the matching
// directory sentinel so callers can use errors.Is.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusBadRequest:
		return directory.ErrValidation
	case http.StatusConflict:
		return directory.ErrDuplicateKey
	case http.StatusNotFound:
		return directory.ErrNotFound
	}
	return nil
}

func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var payload struct {
		Error string `json:"error"`
	}
	msg := string(body)
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		msg = payload.Error
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}
