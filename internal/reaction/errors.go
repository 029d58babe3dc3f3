package reaction

import "errors"

var (
	// ErrTargetNotFound means the post or comment does not exist. Never retried.
	ErrTargetNotFound = errors.New("reaction target not found")
	// ErrInvalidReactionKind means the requested kind was neither like nor dislike.
	ErrInvalidReactionKind = errors.New("invalid reaction kind")
	// ErrConcurrencyExhausted means every optimistic attempt lost a race. The
	// caller may retry the whole request.
	ErrConcurrencyExhausted = errors.New("reaction update retries exhausted")

	ErrInvalidTarget     = errors.New("invalid reaction target")
	ErrUnknownUser       = errors.New("unknown user")
	ErrReactionForbidden = errors.New("user may not react")

	// ErrConflict is returned by a Store when the stored reaction no longer
	// matches what the transition was computed from.
	ErrConflict = errors.New("reaction changed concurrently")
	// ErrCounterDrift is returned by a Store when applying a delta would take
	// a counter below zero, which only happens if the counters no longer
	// agree with the reaction rows.
	ErrCounterDrift = errors.New("reaction counters drifted from reaction rows")
)
