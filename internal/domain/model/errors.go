package model

import "errors"

// Sentinel error kinds shared across the matching subsystem. Callers use
// errors.Is to classify failures.
var (
	// ErrOfflineUnavailable means the offline snapshot is missing or empty.
	ErrOfflineUnavailable = errors.New("offline snapshot unavailable")
	// ErrRepoNotFound means neither source knows the repository.
	ErrRepoNotFound = errors.New("repository not found")
	// ErrOnlineTimeout is returned when a live fetch exceeds its per-call timeout.
	ErrOnlineTimeout = errors.New("online fetch timed out")
	// ErrTransport wraps any other failure talking to an external capability.
	ErrTransport = errors.New("transport error")
	// ErrRateLimitExceeded is returned when a token could not be acquired in time.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	// ErrInvalidProfileInput marks a chat turn nothing could be extracted from.
	ErrInvalidProfileInput = errors.New("invalid profile input")
	// ErrInvalidWeights is returned for match weights that do not sum to 1.
	ErrInvalidWeights = errors.New("invalid match weights")
	// ErrUnknownMode is returned for a data mode other than offline or online.
	ErrUnknownMode = errors.New("unknown data mode")
)
