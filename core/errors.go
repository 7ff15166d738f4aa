package core

import "errors"

var (
	// ErrUnavailable reports that the observer's pose cannot currently be
	// resolved. Expected during startup; the tick is skipped and the next
	// one retries.
	ErrUnavailable = errors.New("pose unavailable")

	// ErrEnvironmentNotReady reports that the world has no spatial extent
	// yet, so detection cannot run. The tick is skipped.
	ErrEnvironmentNotReady = errors.New("environment not ready")
)
