package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and adapters return these
// (optionally wrapped) so callers can decide whether a condition is a routine
// race or a real failure.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: identity has no record in the store
// - ErrNotConnected: identity is not currently connected
// - ErrInvalidState: entity in wrong state for requested operation
// - ErrUnavailable: backing service temporarily unavailable
var (
	ErrNotFound     = errors.New("not found")
	ErrNotConnected = errors.New("not connected")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
