package testutil

import "errors"

// Sentinel failures injected into gateway collaborators. Tests compare with
// errors.Is so wrapping by the dispatcher or handlers stays visible.
var (
	// ErrNotConnected stands in for an unreachable queue broker or cache.
	ErrNotConnected = errors.New("backend not connected")
	// ErrTestFailure is a generic failure for stores, enrichers and executors.
	ErrTestFailure = errors.New("injected failure")
)
