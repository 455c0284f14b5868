// Package integration routes integration requests.
//
// A request passes through three stages:
//
//	VALIDATE -> ENRICH -> ROUTE
//
// Routing sends FIRE_AND_FORGET requests to the work queue and returns only the
// assigned id. SYNC requests are keyed by their fingerprint and served under one
// of three cache policies:
//
//   - bypassCache: call upstream without reading the cache first
//   - alwaysReadFromCache: serve from the cache only; a miss returns an empty envelope
//   - default: cache-aside, where a miss calls upstream
//
// The cache is an optimisation. Read failures are logged and treated as misses.
// Concurrent misses for the same fingerprint are not collapsed: each one calls
// upstream and writes the cache, and the last write wins.
package integration
