package checker

import (
	"context"
	"sync"
	"time"

	"github.com/airhop/airhop/pkg/cfdf"
)

type rateLimiter struct {
	mutex    sync.Mutex
	interval time.Duration
	last     time.Time
}

func (limiter *rateLimiter) Wait(ctx context.Context) error {
	if limiter.interval <= 0 {
		return nil
	}

	for {
		now := time.Now()

		limiter.mutex.Lock()
		if limiter.last.IsZero() || now.Sub(limiter.last) >= limiter.interval {
			limiter.last = now
			limiter.mutex.Unlock()
			return nil
		}
		wait := limiter.interval - now.Sub(limiter.last)
		limiter.mutex.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

type rateLimitedChecker struct {
	checker AvailabilityChecker
	limiter *rateLimiter
}

// NewRateLimitedChecker spaces successive checks by at least interval,
// keeping a worker under the vendor's request ceiling independently of the
// orchestrator's pacing policy.
func NewRateLimitedChecker(checker AvailabilityChecker, interval time.Duration) AvailabilityChecker {
	return &rateLimitedChecker{
		checker: checker,
		limiter: &rateLimiter{interval: interval},
	}
}

func (limited *rateLimitedChecker) Check(ctx context.Context, leg cfdf.Leg, date string) ([]cfdf.FlightOccurrence, error) {
	if err := limited.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	return limited.checker.Check(ctx, leg, date)
}

func (limited *rateLimitedChecker) ResetSession(ctx context.Context) error {
	return limited.checker.ResetSession(ctx)
}

func (limited *rateLimitedChecker) Close() {
	limited.checker.Close()
}
