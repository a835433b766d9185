package scanner

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/airhop/airhop/pkg/checker"
	"github.com/airhop/airhop/pkg/orchestrator"
)

type Config struct {
	// OutputDirectory receives the per-run YAML documents and reports.
	OutputDirectory string

	// CheckInterval spaces consecutive availability calls on one session.
	CheckInterval time.Duration

	Orchestrator orchestrator.Config
	Checker      checker.MultipassConfig

	// ItineraryIndex is the Elasticsearch index completed itineraries are
	// published to when the cluster is connected.
	ItineraryIndex string
}

// GetConfig returns the scanner configuration from environment variables
// or defaults
func GetConfig() Config {
	config := Config{
		OutputDirectory: "output",
		CheckInterval:   1 * time.Second,
		ItineraryIndex:  "airhop-itineraries-1",
	}

	if val := os.Getenv("AIRHOP_SCANNER_OUTPUT"); val != "" {
		config.OutputDirectory = val
	}

	if val := os.Getenv("AIRHOP_SCANNER_CHECK_INTERVAL"); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			config.CheckInterval = parsed
		}
	}

	if val := os.Getenv("AIRHOP_SCANNER_WORKERS"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.Orchestrator.WorkerCount = parsed
		}
	}

	if val := os.Getenv("AIRHOP_SCANNER_MAX_ATTEMPTS"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.Orchestrator.MaxAttempts = parsed
		}
	}

	if val := os.Getenv("AIRHOP_SCANNER_PACING"); val != "" {
		config.Orchestrator.Pacing = orchestrator.PacingPolicy(val)
	}

	if val := os.Getenv("AIRHOP_SCANNER_INDEX"); val != "" {
		config.ItineraryIndex = val
	}

	config.Checker.ApplyDefaults()
	config.Orchestrator.ApplyDefaults()

	return config
}

// CheckerFactory builds the production checker: one vendor session per
// worker, rate limited between calls.
func (config *Config) CheckerFactory() checker.Factory {
	return func(ctx context.Context) (checker.AvailabilityChecker, error) {
		multipassChecker, err := checker.NewMultipassChecker(ctx, config.Checker)
		if err != nil {
			return nil, err
		}

		return checker.NewRateLimitedChecker(multipassChecker, config.CheckInterval), nil
	}
}
