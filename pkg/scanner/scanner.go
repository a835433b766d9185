package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/airhop/airhop/pkg/cfdf"
	"github.com/airhop/airhop/pkg/checker"
	"github.com/airhop/airhop/pkg/enumerator"
	"github.com/airhop/airhop/pkg/jobs"
	"github.com/airhop/airhop/pkg/notify"
	"github.com/airhop/airhop/pkg/orchestrator"
	"github.com/airhop/airhop/pkg/reconciler"
	"github.com/airhop/airhop/pkg/reporter"
	"github.com/airhop/airhop/pkg/resultstore"
	"github.com/airhop/airhop/pkg/routegraph"
	"github.com/airhop/airhop/pkg/util"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Scanner runs one scan job end to end: enumerate candidates from the
// route graph, check every distinct leg against the vendor, reconcile the
// occurrences back onto the candidates and deliver the results.
type Scanner struct {
	Config  Config
	Factory checker.Factory

	// Cache is optional; without it every run assembles the dataset from
	// the datastore.
	Cache *routegraph.DatasetCache

	Mailer *notify.Mailer
}

func NewScanner(config Config) *Scanner {
	return &Scanner{
		Config:  config,
		Factory: config.CheckerFactory(),
		Mailer:  notify.NewMailer(),
	}
}

// RunResult carries everything one run produced, for archiving and
// reporting.
type RunResult struct {
	RunID string
	Job   *jobs.ScanJob

	StartedAt  time.Time
	FinishedAt time.Time

	Candidates  []cfdf.CandidateItinerary
	Estimate    enumerator.Estimate
	CheckReport *orchestrator.Report
	Itineraries []cfdf.AvailableItinerary

	ReportPath string
}

// Run executes the full pipeline for one job. Check failures degrade the
// results instead of failing the run; only setup problems (dataset,
// filter rules, documents) surface as errors.
func (scanner *Scanner) Run(ctx context.Context, job *jobs.ScanJob) (*RunResult, error) {
	dataset, err := scanner.resolveDataset(ctx)
	if err != nil {
		return nil, err
	}

	result, err := scanner.Execute(ctx, job, dataset)
	if err != nil {
		return nil, err
	}

	scanner.archiveRun(ctx, result)
	scanner.deliver(result)

	return result, nil
}

// Execute is the datastore-free part of the pipeline, from candidate
// enumeration to the final documents on disk.
func (scanner *Scanner) Execute(ctx context.Context, job *jobs.ScanJob, dataset *routegraph.Dataset) (*RunResult, error) {
	result := &RunResult{
		RunID:     uuid.New().String(),
		Job:       job,
		StartedAt: time.Now(),
	}

	legEnumerator, err := enumerator.NewEnumerator(dataset.Graph(), dataset.AirportIndex(), job.DepartureAirports, job.DestinationAirports)
	if err != nil {
		return nil, err
	}

	switch job.TripType {
	case jobs.TripTypeRoundTrip:
		result.Candidates = legEnumerator.EnumerateRoundTrip()
	default:
		result.Candidates = legEnumerator.EnumerateOneStop(job.MaxStops)
	}

	if len(result.Candidates) == 0 {
		return nil, fmt.Errorf("no candidate itineraries for the selected airports")
	}

	itineraryFilter, err := reconciler.NewItineraryFilter(job.FilterRules)
	if err != nil {
		return nil, fmt.Errorf("invalid filter rules: %w", err)
	}

	result.Estimate = enumerator.EstimateCheckingTime(result.Candidates)

	legs := enumerator.DistinctLegs(result.Candidates)
	dates, err := job.DatesToCheck(result.StartedAt)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("run", result.RunID).
		Int("candidates", len(result.Candidates)).
		Int("legs", len(legs)).
		Int("dates", len(dates)).
		Str("estimate", result.Estimate.Human).
		Msg("Starting scan run")

	possiblePath := scanner.documentPath(result.RunID, result.StartedAt, "possible-flights", "yaml")
	err = scanner.writeYAMLDocument(possiblePath, PossibleDocument{
		RunID:       result.RunID,
		GeneratedAt: result.StartedAt,
		Candidates:  result.Candidates,
	})
	if err != nil {
		return nil, err
	}

	// Availability only moves on the vendor's daily refresh, so runs on
	// the same day share one checked-flights document and a rerun picks up
	// where the last one stopped.
	checkedPath := scanner.checkedDocumentPath(result.StartedAt)
	store := loadCheckedDocument(checkedPath)
	if store != nil {
		log.Info().Str("path", checkedPath).Int("entries", store.Len()).Msg("Resuming from checked flights document")
	} else {
		store = resultstore.NewStore()
	}

	checkOrchestrator := orchestrator.NewOrchestrator(scanner.Config.Orchestrator, scanner.Factory)
	result.CheckReport = checkOrchestrator.RunChecksInto(ctx, store, legs, dates)

	log.Info().Str("run", result.RunID).Msg(result.CheckReport.Summary())

	if err := scanner.writeCheckedDocument(checkedPath, store); err != nil {
		return nil, err
	}

	itineraryReconciler := reconciler.NewReconciler(store)
	result.Itineraries = itineraryFilter.Apply(itineraryReconciler.Reconcile(result.Candidates))

	result.FinishedAt = time.Now()

	availablePath := scanner.documentPath(result.RunID, result.StartedAt, "available-itineraries", "yaml")
	err = scanner.writeYAMLDocument(availablePath, AvailableDocument{
		RunID:       result.RunID,
		GeneratedAt: result.FinishedAt,
		Itineraries: result.Itineraries,
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("run", result.RunID).
		Int("itineraries", len(result.Itineraries)).
		Str("duration", result.FinishedAt.Sub(result.StartedAt).Round(time.Second).String()).
		Msg("Scan run complete")

	return result, nil
}

func (scanner *Scanner) checkedDocumentPath(runDate time.Time) string {
	fileName := fmt.Sprintf("%s-checked-flights.yaml", runDate.Format(util.ScanDateFormat))

	return filepath.Join(scanner.Config.OutputDirectory, fileName)
}

// resolveDataset returns the cached route dataset when one is present and
// current, otherwise assembles it from the datastore and refills the cache.
func (scanner *Scanner) resolveDataset(ctx context.Context) (*routegraph.Dataset, error) {
	if scanner.Cache != nil {
		if dataset := scanner.Cache.Get(ctx); dataset != nil && !dataset.Stale(time.Now()) {
			return dataset, nil
		}
	}

	dataset, err := routegraph.DatasetFromDatabase(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble route dataset: %w", err)
	}

	if dataset.Stale(time.Now()) {
		log.Warn().Time("refreshedat", dataset.RefreshedAt).Msg("Route dataset predates the morning refresh, consider re-importing")
	}

	if scanner.Cache != nil {
		scanner.Cache.Store(ctx, dataset)
	}

	return dataset, nil
}

// deliver renders the HTML report and emails it when the job asked for
// notification.
func (scanner *Scanner) deliver(result *RunResult) {
	reportHTML, err := reporter.Render(reporter.ReportData{
		Job:         result.Job,
		Itineraries: result.Itineraries,
		Estimate:    result.Estimate,
		CheckReport: result.CheckReport,
		GeneratedAt: result.FinishedAt,
	})
	if err != nil {
		log.Error().Err(err).Str("run", result.RunID).Msg("Failed to render scan report")
		return
	}

	reportPath := scanner.documentPath(result.RunID, result.StartedAt, "report", "html")
	if err := os.WriteFile(reportPath, reportHTML, 0644); err != nil {
		log.Error().Err(err).Str("run", result.RunID).Msg("Failed to write scan report")
		return
	}
	result.ReportPath = reportPath

	if result.Job.NotificationEmail == "" {
		return
	}

	subject := fmt.Sprintf("Scan results for %s (%d itineraries)", result.StartedAt.Format(util.ScanDateFormat), len(result.Itineraries))
	if err := scanner.Mailer.Send(result.Job.NotificationEmail, subject, reportHTML); err != nil {
		log.Error().Err(err).Str("run", result.RunID).Msg("Failed to email scan report")
	}
}
