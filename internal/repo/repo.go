// Package repo is the data access layer the rest of the app talks to.
// Each repository reads through to the backend when the connection is up
// and falls back to the local cache when it is not. Writes that support
// offline use are applied to the cache immediately and queued on the
// outbox for replay.
package repo

import "errors"

// ErrOffline is returned by operations that require a live backend
// connection when the monitor reports the backend unreachable.
var ErrOffline = errors.New("backend unreachable")
