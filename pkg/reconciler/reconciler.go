package reconciler

import (
	"github.com/airhop/airhop/pkg/cfdf"
	"github.com/airhop/airhop/pkg/resultstore"
	"github.com/rs/zerolog/log"
)

// Reconciler combines checked occurrences back onto the enumerated
// candidate skeletons, keeping only time-consistent combinations and
// dropping structural duplicates. It reads the store after the run has
// finished and never writes to it.
type Reconciler struct {
	Store *resultstore.Store
}

func NewReconciler(store *resultstore.Store) *Reconciler {
	return &Reconciler{Store: store}
}

// Reconcile produces the final itinerary list for the candidates. A
// candidate whose legs were never checked simply matches nothing, absence
// of data is normal on partial runs.
func (reconciler *Reconciler) Reconcile(candidates []cfdf.CandidateItinerary) []cfdf.AvailableItinerary {
	var itineraries []cfdf.AvailableItinerary

	for _, candidate := range candidates {
		itineraries = append(itineraries, reconciler.reconcileCandidate(candidate)...)
	}

	itineraries = cfdf.FilterIdenticalItineraries(itineraries)

	log.Info().
		Int("candidates", len(candidates)).
		Int("itineraries", len(itineraries)).
		Msg("Reconciled checked flights onto candidates")

	return itineraries
}

func (reconciler *Reconciler) reconcileCandidate(candidate cfdf.CandidateItinerary) []cfdf.AvailableItinerary {
	var itineraries []cfdf.AvailableItinerary

	firstMatches := reconciler.matchOccurrences(*candidate.First)

	// Single direction candidates: one itinerary per occurrence
	if candidate.Second == nil {
		for _, occurrence := range firstMatches {
			itineraries = append(itineraries, cfdf.AvailableItinerary{
				TripType: candidate.TripType,
				First:    []cfdf.FlightOccurrence{occurrence},
			})
		}

		return itineraries
	}

	if len(firstMatches) == 0 {
		return nil
	}

	secondMatches := reconciler.matchOccurrences(*candidate.Second)

	// A round trip whose return leg was never matched keeps its outward
	// occurrences rather than being dropped
	if candidate.TripType == cfdf.TripTypeRoundTrip && len(secondMatches) == 0 {
		for _, occurrence := range firstMatches {
			itineraries = append(itineraries, cfdf.AvailableItinerary{
				TripType: candidate.TripType,
				First:    []cfdf.FlightOccurrence{occurrence},
			})
		}

		return itineraries
	}

	for _, firstOccurrence := range firstMatches {
		for _, secondOccurrence := range secondMatches {
			connects, err := occurrencesConnect(firstOccurrence, secondOccurrence)
			if err != nil {
				log.Error().Err(err).Msg("Skipping occurrence pair with unparseable times")
				continue
			}
			if !connects {
				continue
			}

			itineraries = append(itineraries, cfdf.AvailableItinerary{
				TripType: candidate.TripType,
				First:    []cfdf.FlightOccurrence{firstOccurrence},
				Second:   []cfdf.FlightOccurrence{secondOccurrence},
			})
		}
	}

	return itineraries
}

// matchOccurrences scans every store entry for occurrences whose city pair
// matches the leg's endpoints. Matching is by display name, not leg hash:
// a leg may have been checked across several dates under several keys and
// every one of them is an independent option.
func (reconciler *Reconciler) matchOccurrences(leg cfdf.Leg) []cfdf.FlightOccurrence {
	var matches []cfdf.FlightOccurrence

	reconciler.Store.EachOccurrence(func(occurrence cfdf.FlightOccurrence) {
		if occurrence.Departure.City == leg.OriginCity && occurrence.Arrival.City == leg.DestinationCity {
			matches = append(matches, occurrence)
		}
	})

	return matches
}

// occurrencesConnect reports whether the second occurrence departs at or
// after the first one arrives, comparing offset adjusted instants. A same
// instant connection is allowed, travelling backwards in time is not.
func occurrencesConnect(first cfdf.FlightOccurrence, second cfdf.FlightOccurrence) (bool, error) {
	arrival, err := first.ArrivalInstant()
	if err != nil {
		return false, err
	}

	departure, err := second.DepartureInstant()
	if err != nil {
		return false, err
	}

	return !departure.Before(arrival), nil
}
