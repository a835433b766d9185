package reconciler

import (
	"fmt"

	"github.com/airhop/airhop/pkg/cfdf"
	"github.com/airhop/airhop/pkg/util"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/rs/zerolog/log"
)

// FilterEnv is the expression environment one itinerary is evaluated
// under. Rules come from job configuration, eg "MaxPrice < 60.0" or
// "TripType == 'direct' and TotalMinutes < 180".
type FilterEnv struct {
	TripType string
	First    []cfdf.FlightOccurrence
	Second   []cfdf.FlightOccurrence

	MaxPrice     float64
	TotalMinutes int
}

func newFilterEnv(itinerary cfdf.AvailableItinerary) FilterEnv {
	env := FilterEnv{
		TripType: string(itinerary.TripType),
		First:    itinerary.First,
		Second:   itinerary.Second,
	}

	for _, occurrence := range append(append([]cfdf.FlightOccurrence{}, itinerary.First...), itinerary.Second...) {
		if occurrence.Price.Amount > env.MaxPrice {
			env.MaxPrice = occurrence.Price.Amount
		}
	}

	if duration, err := util.ParseLegDuration(itinerary.TotalDuration()); err == nil {
		env.TotalMinutes = int(duration.Minutes())
	}

	return env
}

// ItineraryFilter drops itineraries after reconciliation based on
// compiled rule expressions. It never changes reconciliation semantics,
// an itinerary passes only if every rule evaluates to true.
type ItineraryFilter struct {
	rules []*vm.Program
}

func NewItineraryFilter(rules []string) (*ItineraryFilter, error) {
	filter := &ItineraryFilter{}

	for _, rule := range rules {
		program, err := expr.Compile(rule, expr.Env(FilterEnv{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("invalid filter rule %q: %w", rule, err)
		}

		filter.rules = append(filter.rules, program)
	}

	return filter, nil
}

func (filter *ItineraryFilter) Apply(itineraries []cfdf.AvailableItinerary) []cfdf.AvailableItinerary {
	if len(filter.rules) == 0 {
		return itineraries
	}

	before := len(itineraries)
	util.InPlaceFilter(&itineraries, filter.matches)

	log.Info().Int("before", before).Int("after", len(itineraries)).Msg("Applied itinerary filter rules")

	return itineraries
}

func (filter *ItineraryFilter) matches(itinerary cfdf.AvailableItinerary) bool {
	env := newFilterEnv(itinerary)

	for _, program := range filter.rules {
		result, err := expr.Run(program, env)
		if err != nil {
			log.Error().Err(err).Msg("Filter rule evaluation failed, keeping itinerary")
			continue
		}

		if passed, ok := result.(bool); ok && !passed {
			return false
		}
	}

	return true
}
