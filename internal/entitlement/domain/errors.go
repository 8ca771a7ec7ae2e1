package domain

import "errors"

var (
	// ErrNotFound indicates no record exists yet. For decisions this is not
	// fatal: a missing subscription bootstraps a fresh trial.
	ErrNotFound = errors.New("record not found")

	// ErrConflict indicates a counter increment lost its race: the
	// conditional update observed the limit already consumed.
	ErrConflict = errors.New("usage limit conflict")

	// ErrStale indicates cached decision inputs are older than the
	// configured TTL and must be reconciled before an allow is trusted.
	ErrStale = errors.New("cached entitlement inputs are stale")

	// ErrUnavailable indicates the persistence layer is unreachable.
	// Mutating gated actions fail closed on this error.
	ErrUnavailable = errors.New("entitlement store unavailable")

	// ErrUnknownAction indicates a request named an action outside the
	// closed action set.
	ErrUnknownAction = errors.New("unknown action")

	// ErrUnknownField indicates an increment named an unknown counter.
	ErrUnknownField = errors.New("unknown usage field")
)
