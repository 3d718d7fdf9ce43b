package crawler

import "errors"

var (
	// ErrInvalidTransition means a crawl status change was requested that
	// the lifecycle state machine does not permit, such as starting a
	// crawl that already finished.
	ErrInvalidTransition = errors.New("crawler: invalid crawl status transition")

	// errStopRequested propagates a cooperative stop through the worker
	// pool. It is internal: Run maps it to StatusStopped, never returns it.
	errStopRequested = errors.New("crawler: stop requested")

	// errCancelRequested propagates a cancel request the same way.
	errCancelRequested = errors.New("crawler: cancel requested")
)
