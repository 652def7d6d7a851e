package client

import (
	"errors"
	"fmt"
)

var (
	ErrBusy          = errors.New("another operation is in progress")
	ErrEntryNotFound = errors.New("file entry not found")
	ErrModalClosed   = errors.New("upscale dialog is not open")
	ErrWrongPhase    = errors.New("upscale dialog is in the wrong state")
	ErrNotReady      = errors.New("file has no converted result yet")
	ErrUnsafeName    = errors.New("server returned an unusable file name")
)

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
	Code       string
	Details    string
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s (%d): %s", e.Message, e.StatusCode, e.Details)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.StatusCode)
}

// userMessage is the text shown on an entry or toast for err: the server's
// own message when there is one.
func userMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
