package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/airhop/airhop/pkg/cfdf"
	"github.com/airhop/airhop/pkg/checker"
	"github.com/airhop/airhop/pkg/resultstore"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
)

type PacingPolicy string

const (
	// PacingPolicyRest counts successes across the whole run and, on each
	// threshold boundary, tears the worker's session down for the full
	// cool-down before re-deriving it. Suited to long single-session runs.
	PacingPolicyRest PacingPolicy = "rest"
	// PacingPolicyBurst counts checks per worker and takes a short pause
	// on each boundary without touching the session. Suited to parallel
	// runs where every worker already owns a fresh session.
	PacingPolicyBurst PacingPolicy = "burst"
)

type Config struct {
	WorkerCount int
	MaxAttempts int

	Pacing          PacingPolicy
	PacingThreshold int
	Cooldown        time.Duration

	RetryWait time.Duration
}

func (config *Config) ApplyDefaults() {
	if config.WorkerCount <= 0 {
		config.WorkerCount = 4
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.Pacing == "" {
		config.Pacing = PacingPolicyBurst
	}
	if config.PacingThreshold <= 0 {
		switch config.Pacing {
		case PacingPolicyRest:
			config.PacingThreshold = 40
		default:
			config.PacingThreshold = 12
		}
	}
	if config.Cooldown <= 0 {
		switch config.Pacing {
		case PacingPolicyRest:
			config.Cooldown = 30 * time.Second
		default:
			config.Cooldown = 3 * time.Second
		}
	}
	if config.RetryWait <= 0 {
		config.RetryWait = 10 * time.Second
	}
}

// Orchestrator fans a leg/date work list out over a fixed pool of
// workers, each owning one checker instance for its lifetime, and collects
// every outcome into a shared result store. Workers never talk to each
// other; the store's per-key write guarantee is the only synchronization.
type Orchestrator struct {
	Config  Config
	Factory checker.Factory

	globalSuccesses atomic.Int64
}

func NewOrchestrator(config Config, factory checker.Factory) *Orchestrator {
	config.ApplyDefaults()

	return &Orchestrator{
		Config:  config,
		Factory: factory,
	}
}

// RunChecks checks every (leg, date) pair and blocks until all workers
// have drained their chunk. Individual failures never abort the run; the
// returned report carries the aggregate counts.
func (orchestrator *Orchestrator) RunChecks(ctx context.Context, legs []cfdf.Leg, dates []string) (*resultstore.Store, *Report) {
	store := resultstore.NewStore()
	report := orchestrator.RunChecksInto(ctx, store, legs, dates)

	return store, report
}

// RunChecksInto runs against an existing store, skipping keys already
// committed. This is the resume path for interrupted runs.
func (orchestrator *Orchestrator) RunChecksInto(ctx context.Context, store *resultstore.Store, legs []cfdf.Leg, dates []string) *Report {
	report := newReport()
	startTime := time.Now()

	chunks := chunkLegs(legs, orchestrator.Config.WorkerCount)

	log.Info().
		Int("legs", len(legs)).
		Int("dates", len(dates)).
		Int("workers", len(chunks)).
		Str("pacing", string(orchestrator.Config.Pacing)).
		Msg("Starting availability checks")

	workerPool := pool.New().WithMaxGoroutines(orchestrator.Config.WorkerCount)

	for index, chunk := range chunks {
		worker := &checkWorker{
			id:           index,
			orchestrator: orchestrator,
			store:        store,
			report:       report,
			legs:         chunk,
			dates:        dates,
		}

		workerPool.Go(func() {
			// A panicking worker must not take its siblings down, the
			// remaining pairs of its chunk are recorded as failures
			var catcher panics.Catcher
			catcher.Try(func() { worker.run(ctx) })

			if recovered := catcher.Recovered(); recovered != nil {
				log.Error().Int("worker", worker.id).Str("panic", recovered.String()).Msg("Check worker crashed")
				worker.markRemainingFailed("worker crashed")
			}
		})
	}

	workerPool.Wait()

	report.Duration = time.Since(startTime)

	log.Info().
		Int("checked", report.Checked).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Str("duration", report.Duration.String()).
		Msg("Availability checks complete")

	return report
}

// chunkLegs splits the leg list into at most workerCount contiguous,
// roughly equal chunks. Deterministic so a given input always produces the
// same worker assignment.
func chunkLegs(legs []cfdf.Leg, workerCount int) [][]cfdf.Leg {
	if len(legs) == 0 {
		return nil
	}

	chunkSize := len(legs) / workerCount
	if len(legs)%workerCount != 0 {
		chunkSize++
	}
	if chunkSize < 1 {
		chunkSize = 1
	}

	var chunks [][]cfdf.Leg
	for start := 0; start < len(legs); start += chunkSize {
		end := start + chunkSize
		if end > len(legs) {
			end = len(legs)
		}

		chunks = append(chunks, legs[start:end])
	}

	return chunks
}

type checkWorker struct {
	id           int
	orchestrator *Orchestrator
	store        *resultstore.Store
	report       *Report

	legs  []cfdf.Leg
	dates []string

	availabilityChecker checker.AvailabilityChecker
	workerChecks        int

	// remaining tracks progress so a crash can mark unprocessed pairs
	legIndex  int
	dateIndex int
}

func (worker *checkWorker) run(ctx context.Context) {
	availabilityChecker, err := worker.orchestrator.Factory(ctx)
	if err != nil {
		log.Error().Err(err).Int("worker", worker.id).Msg("Failed to acquire availability checker")
		worker.markRemainingFailed(fmt.Sprintf("checker unavailable: %s", err))
		return
	}
	worker.availabilityChecker = availabilityChecker
	defer availabilityChecker.Close()

	for worker.legIndex = 0; worker.legIndex < len(worker.legs); worker.legIndex++ {
		leg := worker.legs[worker.legIndex]

		// Dates iterate innermost so a leg is covered across the whole
		// range before the worker moves on
		for worker.dateIndex = 0; worker.dateIndex < len(worker.dates); worker.dateIndex++ {
			date := worker.dates[worker.dateIndex]

			if worker.store.Contains(leg.Hash(), date) {
				worker.report.recordSkip()
				continue
			}

			worker.checkPair(ctx, leg, date)
		}
	}
}

func (worker *checkWorker) checkPair(ctx context.Context, leg cfdf.Leg, date string) {
	var lastErr error

	for attempt := 1; attempt <= worker.orchestrator.Config.MaxAttempts; attempt++ {
		occurrences, err := worker.availabilityChecker.Check(ctx, leg, date)
		if err == nil {
			worker.commit(leg, date, occurrences)
			worker.pace(ctx)
			return
		}

		lastErr = err

		if !errors.Is(err, checker.ErrTransient) {
			break
		}

		log.Warn().
			Err(err).
			Int("worker", worker.id).
			Int("attempt", attempt).
			Str("leg", leg.String()).
			Str("date", date).
			Msg("Availability check failed")

		if attempt == worker.orchestrator.Config.MaxAttempts {
			break
		}

		// Full session reset between attempts, a stale session is the
		// usual cause of transient failures
		worker.sleep(ctx, worker.orchestrator.Config.RetryWait)
		if err := worker.availabilityChecker.ResetSession(ctx); err != nil {
			log.Error().Err(err).Int("worker", worker.id).Msg("Failed to reset checker session")
		}
	}

	log.Error().
		Err(lastErr).
		Int("worker", worker.id).
		Str("leg", leg.String()).
		Str("date", date).
		Msg("Availability check exhausted")

	worker.store.Put(leg.Hash(), date, resultstore.Entry{Outcome: resultstore.OutcomeFailed})
	worker.report.recordFailure(resultstore.Key(leg.Hash(), date))
}

func (worker *checkWorker) commit(leg cfdf.Leg, date string, occurrences []cfdf.FlightOccurrence) {
	entry := resultstore.Entry{Outcome: resultstore.OutcomeNoneFound}
	if len(occurrences) > 0 {
		entry = resultstore.Entry{
			Outcome:     resultstore.OutcomeAvailable,
			Occurrences: occurrences,
		}
	}

	worker.store.Put(leg.Hash(), date, entry)
	worker.report.recordCheck(len(occurrences))
}

// pace applies the configured pacing policy after a successful check.
func (worker *checkWorker) pace(ctx context.Context) {
	config := worker.orchestrator.Config

	switch config.Pacing {
	case PacingPolicyRest:
		if worker.orchestrator.globalSuccesses.Add(1)%int64(config.PacingThreshold) != 0 {
			return
		}

		log.Info().Int("worker", worker.id).Msg("Resting to avoid rate limiting")

		// Teardown before the cool-down so the vendor sees the session
		// disappear, then derive a fresh one
		worker.availabilityChecker.Close()
		worker.sleep(ctx, config.Cooldown)
		if err := worker.availabilityChecker.ResetSession(ctx); err != nil {
			log.Error().Err(err).Int("worker", worker.id).Msg("Failed to refresh session after rest")
		}
	case PacingPolicyBurst:
		worker.workerChecks++
		if worker.workerChecks%config.PacingThreshold != 0 {
			return
		}

		log.Debug().Int("worker", worker.id).Msg("Pausing to avoid rate limiting")
		worker.sleep(ctx, config.Cooldown)
	}
}

func (worker *checkWorker) sleep(ctx context.Context, duration time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(duration):
	}
}

// markRemainingFailed writes failure markers for every pair the worker
// never reached, so the reconciler and the report see a complete key set.
func (worker *checkWorker) markRemainingFailed(reason string) {
	for legIndex := worker.legIndex; legIndex < len(worker.legs); legIndex++ {
		leg := worker.legs[legIndex]

		dateIndex := 0
		if legIndex == worker.legIndex {
			dateIndex = worker.dateIndex
		}

		for ; dateIndex < len(worker.dates); dateIndex++ {
			date := worker.dates[dateIndex]

			if worker.store.Contains(leg.Hash(), date) {
				continue
			}

			worker.store.Put(leg.Hash(), date, resultstore.Entry{Outcome: resultstore.OutcomeFailed})
			worker.report.recordFailure(resultstore.Key(leg.Hash(), date))
		}
	}

	log.Warn().Int("worker", worker.id).Str("reason", reason).Msg("Marked remaining worker pairs as failed")
}
