package errs

import "errors"

// Domain sentinel errors, mapped to HTTP codes in handlers.
var (
	ErrStudioNotFound    = errors.New("studio not found")
	ErrSessionNotFound   = errors.New("session not found")
	ErrRecordingNotFound = errors.New("recording not found")
	ErrNoActiveSession   = errors.New("room has no active session")
	ErrNotStudioHost     = errors.New("user is not the studio host")
)
