package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/airhop/airhop/pkg/cfdf"
	"github.com/airhop/airhop/pkg/checker"
	"github.com/airhop/airhop/pkg/resultstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeChecker answers deterministically from a canned schedule keyed by
// "origin-destination-date". Failure keys can be scripted to fail a fixed
// number of attempts or forever.
type fakeChecker struct {
	schedule map[string][]cfdf.FlightOccurrence

	failures *failureScript

	resets atomic.Int64
	checks *atomic.Int64
}

type failureScript struct {
	mutex     sync.Mutex
	remaining map[string]int
}

func (script *failureScript) shouldFail(key string) bool {
	if script == nil {
		return false
	}

	script.mutex.Lock()
	defer script.mutex.Unlock()

	remaining, ok := script.remaining[key]
	if !ok || remaining == 0 {
		return false
	}

	if remaining > 0 {
		script.remaining[key] = remaining - 1
	}

	return true
}

func (fake *fakeChecker) Check(ctx context.Context, leg cfdf.Leg, date string) ([]cfdf.FlightOccurrence, error) {
	if fake.checks != nil {
		fake.checks.Add(1)
	}

	key := fmt.Sprintf("%s-%s", leg.String(), date)

	if fake.failures.shouldFail(key) {
		return nil, fmt.Errorf("scripted failure for %s: %w", key, checker.ErrTransient)
	}

	return fake.schedule[key], nil
}

func (fake *fakeChecker) ResetSession(ctx context.Context) error {
	fake.resets.Add(1)
	return nil
}

func (fake *fakeChecker) Close() {}

func fakeFactory(schedule map[string][]cfdf.FlightOccurrence, failures *failureScript, checks *atomic.Int64) checker.Factory {
	return func(ctx context.Context) (checker.AvailabilityChecker, error) {
		return &fakeChecker{schedule: schedule, failures: failures, checks: checks}, nil
	}
}

func testLegs(pairs ...[2]string) []cfdf.Leg {
	var legs []cfdf.Leg
	for _, pair := range pairs {
		leg := cfdf.NewLeg(
			cfdf.Airport{Code: pair[0], Name: "City " + pair[0]},
			cfdf.Airport{Code: pair[1], Name: "City " + pair[1]},
		)
		legs = append(legs, leg)
	}

	return legs
}

func occurrenceOn(date string) cfdf.FlightOccurrence {
	return cfdf.FlightOccurrence{
		Date:      date,
		Departure: cfdf.OccurrenceEndpoint{City: "City AAA", Time: "08:00", UTCOffset: "+01:00"},
		Arrival:   cfdf.OccurrenceEndpoint{City: "City BBB", Time: "09:35", UTCOffset: "+01:00"},
		Duration:  "01h 35m",
	}
}

func fastConfig(workers int) Config {
	return Config{
		WorkerCount:     workers,
		MaxAttempts:     3,
		Pacing:          PacingPolicyBurst,
		PacingThreshold: 1000,
		Cooldown:        time.Millisecond,
		RetryWait:       time.Millisecond,
	}
}

func TestRunChecksCoversEveryPair(t *testing.T) {
	legs := testLegs([2]string{"AAA", "BBB"}, [2]string{"BBB", "CCC"}, [2]string{"CCC", "DDD"})
	dates := []string{"28-12-2024", "29-12-2024"}

	schedule := map[string][]cfdf.FlightOccurrence{
		"AAA-BBB-28-12-2024": {occurrenceOn("Sat 28, December 2024")},
	}

	orchestrator := NewOrchestrator(fastConfig(2), fakeFactory(schedule, nil, nil))
	store, report := orchestrator.RunChecks(context.Background(), legs, dates)

	assert.Equal(t, len(legs)*len(dates), store.Len())
	assert.Equal(t, len(legs)*len(dates), report.Checked)
	assert.Zero(t, report.Failed)
	assert.Zero(t, report.Skipped)
	assert.Equal(t, 1, report.Occurrences)

	entry, ok := store.Get(legs[0].Hash(), "28-12-2024")
	require.True(t, ok)
	assert.Equal(t, resultstore.OutcomeAvailable, entry.Outcome)

	entry, ok = store.Get(legs[0].Hash(), "29-12-2024")
	require.True(t, ok)
	assert.Equal(t, resultstore.OutcomeNoneFound, entry.Outcome)
}

func TestRunChecksWorkerCountInvariance(t *testing.T) {
	legs := testLegs(
		[2]string{"AAA", "BBB"}, [2]string{"BBB", "CCC"}, [2]string{"CCC", "DDD"},
		[2]string{"DDD", "EEE"}, [2]string{"EEE", "FFF"},
	)
	dates := []string{"28-12-2024", "29-12-2024", "30-12-2024"}

	schedule := map[string][]cfdf.FlightOccurrence{
		"AAA-BBB-28-12-2024": {occurrenceOn("Sat 28, December 2024")},
		"CCC-DDD-30-12-2024": {occurrenceOn("Mon 30, December 2024")},
	}

	single := NewOrchestrator(fastConfig(1), fakeFactory(schedule, nil, nil))
	singleStore, _ := single.RunChecks(context.Background(), legs, dates)

	parallel := NewOrchestrator(fastConfig(4), fakeFactory(schedule, nil, nil))
	parallelStore, _ := parallel.RunChecks(context.Background(), legs, dates)

	assert.Equal(t, singleStore.Snapshot(), parallelStore.Snapshot())
}

func TestRunChecksRetriesTransientFailures(t *testing.T) {
	legs := testLegs([2]string{"AAA", "BBB"})
	dates := []string{"28-12-2024"}

	schedule := map[string][]cfdf.FlightOccurrence{
		"AAA-BBB-28-12-2024": {occurrenceOn("Sat 28, December 2024")},
	}
	// Fails twice, succeeds on the third and final attempt
	failures := &failureScript{remaining: map[string]int{"AAA-BBB-28-12-2024": 2}}

	orchestrator := NewOrchestrator(fastConfig(1), fakeFactory(schedule, failures, nil))
	store, report := orchestrator.RunChecks(context.Background(), legs, dates)

	entry, ok := store.Get(legs[0].Hash(), "28-12-2024")
	require.True(t, ok)
	assert.Equal(t, resultstore.OutcomeAvailable, entry.Outcome)
	assert.Zero(t, report.Failed)
}

func TestRunChecksExhaustedRetriesMarkFailure(t *testing.T) {
	legs := testLegs([2]string{"AAA", "BBB"}, [2]string{"BBB", "CCC"})
	dates := []string{"28-12-2024"}

	failures := &failureScript{remaining: map[string]int{"AAA-BBB-28-12-2024": -1}}

	orchestrator := NewOrchestrator(fastConfig(1), fakeFactory(nil, failures, nil))
	store, report := orchestrator.RunChecks(context.Background(), legs, dates)

	entry, ok := store.Get(legs[0].Hash(), "28-12-2024")
	require.True(t, ok)
	assert.Equal(t, resultstore.OutcomeFailed, entry.Outcome)

	// The sibling pair still completes
	entry, ok = store.Get(legs[1].Hash(), "28-12-2024")
	require.True(t, ok)
	assert.Equal(t, resultstore.OutcomeNoneFound, entry.Outcome)

	assert.Equal(t, 1, report.Failed)
	assert.Contains(t, report.FailedKeys, resultstore.Key(legs[0].Hash(), "28-12-2024"))
	assert.Contains(t, report.Summary(), "incomplete")
}

func TestRunChecksIntoSkipsCommittedKeys(t *testing.T) {
	legs := testLegs([2]string{"AAA", "BBB"}, [2]string{"BBB", "CCC"})
	dates := []string{"28-12-2024"}

	store := resultstore.NewStore()
	store.Put(legs[0].Hash(), "28-12-2024", resultstore.Entry{Outcome: resultstore.OutcomeNoneFound})

	var checks atomic.Int64
	orchestrator := NewOrchestrator(fastConfig(1), fakeFactory(nil, nil, &checks))
	report := orchestrator.RunChecksInto(context.Background(), store, legs, dates)

	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, report.Checked)
	assert.Equal(t, int64(1), checks.Load())
}

func TestRunChecksFactoryFailureIsolatedToWorker(t *testing.T) {
	legs := testLegs([2]string{"AAA", "BBB"}, [2]string{"BBB", "CCC"})
	dates := []string{"28-12-2024"}

	var built atomic.Int64
	factory := func(ctx context.Context) (checker.AvailabilityChecker, error) {
		if built.Add(1) == 1 {
			return nil, fmt.Errorf("no browser available")
		}
		return &fakeChecker{}, nil
	}

	// Two workers, one leg each; the first worker never acquires a checker
	orchestrator := NewOrchestrator(fastConfig(2), factory)
	store, report := orchestrator.RunChecks(context.Background(), legs, dates)

	assert.Equal(t, 2, store.Len())
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Checked)
}

func TestRunChecksPanicIsolatedToWorker(t *testing.T) {
	legs := testLegs([2]string{"AAA", "BBB"}, [2]string{"BBB", "CCC"})
	dates := []string{"28-12-2024"}

	var built atomic.Int64
	factory := func(ctx context.Context) (checker.AvailabilityChecker, error) {
		if built.Add(1) == 1 {
			return &panickingChecker{}, nil
		}
		return &fakeChecker{}, nil
	}

	orchestrator := NewOrchestrator(fastConfig(2), factory)

	var store *resultstore.Store
	var report *Report
	require.NotPanics(t, func() {
		store, report = orchestrator.RunChecks(context.Background(), legs, dates)
	})

	// Every pair has an entry: the crashed worker's as failures
	assert.Equal(t, 2, store.Len())
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Checked)
}

type panickingChecker struct{}

func (panicking *panickingChecker) Check(ctx context.Context, leg cfdf.Leg, date string) ([]cfdf.FlightOccurrence, error) {
	panic("browser process died")
}

func (panicking *panickingChecker) ResetSession(ctx context.Context) error { return nil }
func (panicking *panickingChecker) Close()                                 {}

func TestRunChecksRestPacingRefreshesSession(t *testing.T) {
	legs := testLegs([2]string{"AAA", "BBB"})
	dates := []string{"28-12-2024", "29-12-2024", "30-12-2024", "31-12-2024"}

	fake := &fakeChecker{}
	factory := func(ctx context.Context) (checker.AvailabilityChecker, error) {
		return fake, nil
	}

	config := Config{
		WorkerCount:     1,
		MaxAttempts:     3,
		Pacing:          PacingPolicyRest,
		PacingThreshold: 2,
		Cooldown:        time.Millisecond,
		RetryWait:       time.Millisecond,
	}

	orchestrator := NewOrchestrator(config, factory)
	_, report := orchestrator.RunChecks(context.Background(), legs, dates)

	assert.Equal(t, 4, report.Checked)
	// 4 successes with a threshold of 2 crosses two boundaries
	assert.Equal(t, int64(2), fake.resets.Load())
}

func TestChunkLegs(t *testing.T) {
	legs := testLegs(
		[2]string{"AAA", "BBB"}, [2]string{"BBB", "CCC"}, [2]string{"CCC", "DDD"},
		[2]string{"DDD", "EEE"}, [2]string{"EEE", "FFF"},
	)

	t.Run("splits evenly with remainder up front", func(t *testing.T) {
		chunks := chunkLegs(legs, 2)
		require.Len(t, chunks, 2)
		assert.Len(t, chunks[0], 3)
		assert.Len(t, chunks[1], 2)
	})

	t.Run("more workers than legs", func(t *testing.T) {
		chunks := chunkLegs(legs[:2], 4)
		require.Len(t, chunks, 2)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Nil(t, chunkLegs(nil, 4))
	})

	t.Run("order preserved", func(t *testing.T) {
		chunks := chunkLegs(legs, 2)
		var flattened []cfdf.Leg
		for _, chunk := range chunks {
			flattened = append(flattened, chunk...)
		}
		assert.Equal(t, legs, flattened)
	})
}
