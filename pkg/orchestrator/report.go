package orchestrator

import (
	"fmt"
	"sync"
	"time"
)

// Report is the aggregate completion summary of one RunChecks call.
// Individual failures surface here, never as an error from the run.
type Report struct {
	mutex sync.Mutex

	Checked     int           `groups:"basic"`
	Skipped     int           `groups:"basic"`
	Failed      int           `groups:"basic"`
	Occurrences int           `groups:"basic"`
	Duration    time.Duration `groups:"basic"`

	// FailedKeys lists every (leg hash, date) key whose attempts were
	// exhausted, for the "results may be incomplete" summary.
	FailedKeys []string `groups:"detailed"`
}

func newReport() *Report {
	return &Report{}
}

func (report *Report) recordCheck(occurrences int) {
	report.mutex.Lock()
	defer report.mutex.Unlock()

	report.Checked++
	report.Occurrences += occurrences
}

func (report *Report) recordSkip() {
	report.mutex.Lock()
	defer report.mutex.Unlock()

	report.Skipped++
}

func (report *Report) recordFailure(key string) {
	report.mutex.Lock()
	defer report.mutex.Unlock()

	report.Failed++
	report.FailedKeys = append(report.FailedKeys, key)
}

func (report *Report) Summary() string {
	if report.Failed == 0 {
		return fmt.Sprintf("checked %d pairs (%d skipped) in %s", report.Checked, report.Skipped, report.Duration.Round(time.Second))
	}

	return fmt.Sprintf("checked %d pairs (%d skipped) in %s, results may be incomplete for %d pairs", report.Checked, report.Skipped, report.Duration.Round(time.Second), report.Failed)
}
