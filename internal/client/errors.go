package client

import "errors"

// Validation errors fail fast locally and never produce a network call.
var (
	ErrLimitExceeded     = errors.New("maximum file count reached")
	ErrUnsupportedType   = errors.New("unsupported file type")
	ErrNoFilesToProcess  = errors.New("no files to process")
	ErrAlreadyProcessing = errors.New("processing already in progress")
	ErrEmptyMessage      = errors.New("empty message")
	ErrNotReady          = errors.New("knowledge base not ready")
	ErrIndexOutOfRange   = errors.New("history index out of range")
)

// ErrAuthExpired is returned for any 401, regardless of which operation
// triggered it. It cascades: the credential is invalidated and the session
// transitions to unauthenticated.
var ErrAuthExpired = errors.New("authentication expired")

// ServerError is a rejection the server explained; its message is surfaced
// to the user verbatim.
type ServerError struct {
	Msg string
}

func (e *ServerError) Error() string { return e.Msg }
