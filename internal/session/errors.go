package session

import "errors"

var (
	// ErrSessionNotFound is returned by registry lookups for unknown ids.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSongNotFound is returned when a vote targets a song that is not
	// in the queue.
	ErrSongNotFound = errors.New("song not found")

	// ErrRequestNotFound is returned when approving a pending request
	// that does not exist. Denying a missing request is a no-op.
	ErrRequestNotFound = errors.New("request not found")

	// ErrNotDJ is returned when a non-DJ caller attempts a DJ-only action.
	ErrNotDJ = errors.New("only the DJ can perform this action")

	// ErrEmptyQueue is returned by PlayNext when nothing is queued.
	ErrEmptyQueue = errors.New("queue is empty")

	// ErrProvider wraps failures of the external playback provider.
	ErrProvider = errors.New("playback provider failure")

	// ErrValidation is returned for malformed input, e.g. an empty
	// session name.
	ErrValidation = errors.New("invalid input")
)
