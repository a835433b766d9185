package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/airhop/airhop/pkg/cfdf"
	"github.com/airhop/airhop/pkg/resultstore"
	"github.com/airhop/airhop/pkg/util"
	"gopkg.in/yaml.v3"
)

// PossibleDocument records every enumerated candidate before any checking
// happens, so a run can be audited against what it set out to verify.
type PossibleDocument struct {
	RunID       string                    `yaml:"run_id"`
	GeneratedAt time.Time                 `yaml:"generated_at"`
	Candidates  []cfdf.CandidateItinerary `yaml:"candidates"`
}

// AvailableDocument is the final output of a run.
type AvailableDocument struct {
	RunID       string                    `yaml:"run_id"`
	GeneratedAt time.Time                 `yaml:"generated_at"`
	Itineraries []cfdf.AvailableItinerary `yaml:"itineraries"`
}

func (scanner *Scanner) documentPath(runID string, runDate time.Time, kind string, extension string) string {
	fileName := fmt.Sprintf("%s-%s-%s.%s", runDate.Format(util.ScanDateFormat), kind, runID[:8], extension)

	return filepath.Join(scanner.Config.OutputDirectory, fileName)
}

func (scanner *Scanner) writeYAMLDocument(path string, document any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create document %s: %w", path, err)
	}
	defer file.Close()

	encoder := yaml.NewEncoder(file)
	defer encoder.Close()

	return encoder.Encode(document)
}

func (scanner *Scanner) writeCheckedDocument(path string, store *resultstore.Store) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create document %s: %w", path, err)
	}
	defer file.Close()

	return store.WriteDocument(file)
}

// loadCheckedDocument picks up an earlier run's checked flights so an
// interrupted scan resumes instead of re-checking everything.
func loadCheckedDocument(path string) *resultstore.Store {
	file, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer file.Close()

	store, err := resultstore.LoadDocument(file)
	if err != nil {
		return nil
	}

	return store
}
