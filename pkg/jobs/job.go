package jobs

import (
	"fmt"
	"io"
	"time"

	"github.com/airhop/airhop/pkg/util"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"gopkg.in/yaml.v3"
)

type TripType string

const (
	TripTypeOneWay    TripType = "oneway"
	TripTypeRoundTrip TripType = "roundtrip"
)

const maxAirportSelection = 5

// DateWindowDays bounds how far ahead a scan can start; the derived date
// range covers the departure date plus the following days of the window.
const DateWindowDays = 3

// ScanJob is one submitted search: which airports to scan between, the
// trip shape, and where the report goes. Jobs arrive from the intake API
// or from YAML files and travel the queue as JSON.
type ScanJob struct {
	ID          string    `json:"id" yaml:"id" groups:"basic" bson:"id"`
	SubmittedAt time.Time `json:"submitted_at" yaml:"submitted_at" groups:"basic" bson:"submittedat"`

	DepartureAirports   []string `json:"departure_airports" yaml:"departure_airports" groups:"basic" bson:"departureairports"`
	DestinationAirports []string `json:"destination_airports" yaml:"destination_airports" groups:"basic" bson:"destinationairports"`

	// DepartureDate is the first day of the scan window
	// (util.ScanDateFormat). Empty means "today".
	DepartureDate string `json:"departure_date,omitempty" yaml:"departure_date,omitempty" groups:"basic" bson:"departuredate"`

	TripType TripType `json:"trip_type" yaml:"trip_type" groups:"basic" bson:"triptype"`
	MaxStops int      `json:"max_stops" yaml:"max_stops" groups:"basic" bson:"maxstops"`

	NotificationEmail string `json:"notification_email,omitempty" yaml:"notification_email,omitempty" groups:"detailed" bson:"notificationemail"`

	// FilterRules are optional post-reconciliation expressions, eg
	// "MaxPrice < 60.0".
	FilterRules []string `json:"filter_rules,omitempty" yaml:"filter_rules,omitempty" groups:"detailed" bson:"filterrules"`
}

// JobDefaults are folded onto a submitted job before validation, filling
// whatever the submitter left out.
type JobDefaults struct {
	TripType      TripType
	MaxStops      int
	DepartureDate string
	FilterRules   []string
}

func (job *ScanJob) ApplyDefaults(defaults JobDefaults) error {
	merged := ScanJob{
		TripType:      defaults.TripType,
		MaxStops:      defaults.MaxStops,
		DepartureDate: defaults.DepartureDate,
		FilterRules:   defaults.FilterRules,
	}

	// The submitter's non-empty values win over the defaults
	if err := copier.CopyWithOption(&merged, *job, copier.Option{IgnoreEmpty: true}); err != nil {
		return err
	}
	*job = merged

	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	if job.TripType == "" {
		job.TripType = TripTypeOneWay
	}

	job.DepartureAirports = util.RemoveDuplicateStrings(job.DepartureAirports, []string{})
	job.DestinationAirports = util.RemoveDuplicateStrings(job.DestinationAirports, []string{})

	return nil
}

// Validate enforces the intake constraints. now anchors the date window
// so validation is reproducible in tests.
func (job *ScanJob) Validate(now time.Time) error {
	if len(job.DepartureAirports) == 0 {
		return fmt.Errorf("no departure airports selected")
	}
	if len(job.DepartureAirports) > maxAirportSelection {
		return fmt.Errorf("at most %d departure airports can be selected", maxAirportSelection)
	}
	if len(job.DestinationAirports) > maxAirportSelection {
		return fmt.Errorf("at most %d destination airports can be selected", maxAirportSelection)
	}

	switch job.TripType {
	case TripTypeOneWay, TripTypeRoundTrip:
	default:
		return fmt.Errorf("invalid trip type %q", job.TripType)
	}

	if job.MaxStops < 0 || job.MaxStops > 1 {
		return fmt.Errorf("max stops must be 0 or 1")
	}

	if job.DepartureDate != "" {
		today := now.Format(util.ScanDateFormat)
		lastDate, err := util.AddDaysToDate(today, DateWindowDays)
		if err != nil {
			return err
		}

		inRange, err := util.IsDateInRange(job.DepartureDate, today, lastDate)
		if err != nil {
			return fmt.Errorf("invalid departure date %q: %w", job.DepartureDate, err)
		}
		if !inRange {
			return fmt.Errorf("departure date %s is outside the bookable window (%s to %s)", job.DepartureDate, today, lastDate)
		}
	}

	return nil
}

// DatesToCheck derives the calendar dates the scan covers: the departure
// date (or today) and every later day inside the window.
func (job *ScanJob) DatesToCheck(now time.Time) ([]string, error) {
	startDate := job.DepartureDate
	if startDate == "" {
		startDate = now.Format(util.ScanDateFormat)
	}

	return util.DateRange(startDate, DateWindowDays+1)
}

// Matches reports whether another job would scan the exact same thing, to
// reject duplicate pending submissions.
func (job *ScanJob) Matches(other *ScanJob) bool {
	if job.TripType != other.TripType || job.MaxStops != other.MaxStops || job.DepartureDate != other.DepartureDate {
		return false
	}

	return equalStringSets(job.DepartureAirports, other.DepartureAirports) &&
		equalStringSets(job.DestinationAirports, other.DestinationAirports)
}

func equalStringSets(left []string, right []string) bool {
	if len(left) != len(right) {
		return false
	}

	members := map[string]bool{}
	for _, item := range left {
		members[item] = true
	}
	for _, item := range right {
		if !members[item] {
			return false
		}
	}

	return true
}

func LoadJobYAML(reader io.Reader) (*ScanJob, error) {
	decoder := yaml.NewDecoder(reader)

	var job ScanJob
	if err := decoder.Decode(&job); err != nil {
		return nil, fmt.Errorf("failed to decode scan job: %w", err)
	}

	return &job, nil
}
