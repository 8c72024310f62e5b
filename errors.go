package fridge_monitor

import "errors"

// Error kinds shared by the dashboard components. Callers wrap them with %w
// and classify with errors.Is.
var (
	// ErrNetwork covers transport failures of fetches and subscriptions,
	// including non-2xx responses.
	ErrNetwork = errors.New("network error")
	// ErrDecode covers malformed response bodies and push messages.
	ErrDecode = errors.New("decode error")
	// ErrStale marks a result that arrived after its triggering context
	// stopped being current. It is never surfaced to the user.
	ErrStale = errors.New("stale result")
)
