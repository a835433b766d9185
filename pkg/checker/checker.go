package checker

import (
	"context"
	"errors"

	"github.com/airhop/airhop/pkg/cfdf"
)

// ErrTransient marks a failure worth retrying after a session reset: an
// upstream timeout, a malformed response or a rate limit rejection.
// Anything not wrapping it is treated as fatal for the owning worker.
var ErrTransient = errors.New("transient availability check failure")

// AvailabilityChecker is the external capability one worker owns for its
// lifetime. Implementations hold ambient session state (cookies, tokens)
// and are not safe for concurrent use, the orchestrator never shares an
// instance across workers.
//
// Check returns the occurrences found for the leg on the given calendar
// date (util.ScanDateFormat). An empty slice with a nil error means the
// source was checked and had nothing.
type AvailabilityChecker interface {
	Check(ctx context.Context, leg cfdf.Leg, date string) ([]cfdf.FlightOccurrence, error)

	// ResetSession tears down and re-establishes the ambient context.
	// Callable repeatedly, must not leak the previous session.
	ResetSession(ctx context.Context) error

	Close()
}

// Factory builds one checker instance per worker.
type Factory func(ctx context.Context) (AvailabilityChecker, error)
