package reconciler

import (
	"testing"

	"github.com/airhop/airhop/pkg/cfdf"
	"github.com/airhop/airhop/pkg/resultstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func legBetween(origin string, destination string) cfdf.Leg {
	return cfdf.NewLeg(
		cfdf.Airport{Code: origin, Name: "City " + origin},
		cfdf.Airport{Code: destination, Name: "City " + destination},
	)
}

func occurrenceBetween(origin string, destination string, date string, departure string, arrival string) cfdf.FlightOccurrence {
	return cfdf.FlightOccurrence{
		Date:      date,
		Departure: cfdf.OccurrenceEndpoint{City: "City " + origin, Time: departure, UTCOffset: "+01:00"},
		Arrival:   cfdf.OccurrenceEndpoint{City: "City " + destination, Time: arrival, UTCOffset: "+01:00"},
		Duration:  "01h 00m",
	}
}

func storeWith(entries map[string][]cfdf.FlightOccurrence) *resultstore.Store {
	store := resultstore.NewStore()

	for key, occurrences := range entries {
		leg := legBetween(key[:3], key[4:7])
		date := key[8:]

		if len(occurrences) == 0 {
			store.Put(leg.Hash(), date, resultstore.Entry{Outcome: resultstore.OutcomeNoneFound})
			continue
		}

		store.Put(leg.Hash(), date, resultstore.Entry{
			Outcome:     resultstore.OutcomeAvailable,
			Occurrences: occurrences,
		})
	}

	return store
}

func TestReconcileDirect(t *testing.T) {
	first := legBetween("AAA", "BBB")
	candidates := []cfdf.CandidateItinerary{
		{TripType: cfdf.TripTypeDirect, First: &first},
	}

	store := storeWith(map[string][]cfdf.FlightOccurrence{
		"AAA-BBB-28-12-2024": {
			occurrenceBetween("AAA", "BBB", "Sat 28, December 2024", "08:00", "09:00"),
			occurrenceBetween("AAA", "BBB", "Sat 28, December 2024", "17:00", "18:00"),
		},
	})

	itineraries := NewReconciler(store).Reconcile(candidates)

	require.Len(t, itineraries, 2)
	for _, itinerary := range itineraries {
		assert.Equal(t, cfdf.TripTypeDirect, itinerary.TripType)
		require.Len(t, itinerary.First, 1)
		assert.Nil(t, itinerary.Second)
	}
}

// Two arrivals 10:00 and 14:00 against a 12:00 connection: only the 10:00
// arrival connects, the 14:00 pairing would travel backwards in time.
func TestReconcileTemporalOrdering(t *testing.T) {
	first := legBetween("AAA", "BBB")
	second := legBetween("BBB", "CCC")
	candidates := []cfdf.CandidateItinerary{
		{TripType: cfdf.TripTypeOneStop, First: &first, Second: &second},
	}

	store := storeWith(map[string][]cfdf.FlightOccurrence{
		"AAA-BBB-28-12-2024": {
			occurrenceBetween("AAA", "BBB", "Sat 28, December 2024", "09:00", "10:00"),
			occurrenceBetween("AAA", "BBB", "Sat 28, December 2024", "13:00", "14:00"),
		},
		"BBB-CCC-28-12-2024": {
			occurrenceBetween("BBB", "CCC", "Sat 28, December 2024", "12:00", "13:00"),
		},
	})

	itineraries := NewReconciler(store).Reconcile(candidates)

	require.Len(t, itineraries, 1)
	assert.Equal(t, "10:00", itineraries[0].First[0].Arrival.Time)
	assert.Equal(t, "12:00", itineraries[0].Second[0].Departure.Time)
}

func TestReconcileOvernightConnection(t *testing.T) {
	first := legBetween("AAA", "BBB")
	second := legBetween("BBB", "CCC")
	candidates := []cfdf.CandidateItinerary{
		{TripType: cfdf.TripTypeOneStop, First: &first, Second: &second},
	}

	store := storeWith(map[string][]cfdf.FlightOccurrence{
		// Arrives 23:30, connection departs 06:00 the next morning
		"AAA-BBB-28-12-2024": {occurrenceBetween("AAA", "BBB", "Sat 28, December 2024", "22:30", "23:30")},
		"BBB-CCC-29-12-2024": {occurrenceBetween("BBB", "CCC", "Sun 29, December 2024", "06:00", "07:00")},
	})

	itineraries := NewReconciler(store).Reconcile(candidates)

	require.Len(t, itineraries, 1)
}

func TestReconcileRejectsBackwardDateConnection(t *testing.T) {
	first := legBetween("AAA", "BBB")
	second := legBetween("BBB", "CCC")
	candidates := []cfdf.CandidateItinerary{
		{TripType: cfdf.TripTypeOneStop, First: &first, Second: &second},
	}

	store := storeWith(map[string][]cfdf.FlightOccurrence{
		// Connection departs a later wall clock time but the previous day
		"AAA-BBB-29-12-2024": {occurrenceBetween("AAA", "BBB", "Sun 29, December 2024", "08:00", "09:00")},
		"BBB-CCC-28-12-2024": {occurrenceBetween("BBB", "CCC", "Sat 28, December 2024", "18:00", "19:00")},
	})

	itineraries := NewReconciler(store).Reconcile(candidates)

	assert.Empty(t, itineraries)
}

func TestReconcileOffsetAdjustedComparison(t *testing.T) {
	first := legBetween("AAA", "BBB")
	second := legBetween("BBB", "CCC")
	candidates := []cfdf.CandidateItinerary{
		{TripType: cfdf.TripTypeOneStop, First: &first, Second: &second},
	}

	// Arrival 10:00+00:00 (10:00 UTC) vs departure 10:30+01:00 (09:30
	// UTC): the wall clock looks fine, the instants do not connect
	arrival := occurrenceBetween("AAA", "BBB", "Sat 28, December 2024", "08:00", "10:00")
	arrival.Arrival.UTCOffset = "+00:00"
	departure := occurrenceBetween("BBB", "CCC", "Sat 28, December 2024", "10:30", "12:00")
	departure.Departure.UTCOffset = "+01:00"

	store := storeWith(map[string][]cfdf.FlightOccurrence{
		"AAA-BBB-28-12-2024": {arrival},
		"BBB-CCC-28-12-2024": {departure},
	})

	itineraries := NewReconciler(store).Reconcile(candidates)

	assert.Empty(t, itineraries)
}

func TestReconcileRoundTripWithoutReturnKept(t *testing.T) {
	outward := legBetween("AAA", "BBB")
	returnLeg := legBetween("BBB", "AAA")
	candidates := []cfdf.CandidateItinerary{
		{TripType: cfdf.TripTypeRoundTrip, First: &outward, Second: &returnLeg},
	}

	store := storeWith(map[string][]cfdf.FlightOccurrence{
		"AAA-BBB-28-12-2024": {occurrenceBetween("AAA", "BBB", "Sat 28, December 2024", "08:00", "09:00")},
	})

	itineraries := NewReconciler(store).Reconcile(candidates)

	require.Len(t, itineraries, 1)
	assert.Equal(t, cfdf.TripTypeRoundTrip, itineraries[0].TripType)
	require.Len(t, itineraries[0].First, 1)
	assert.Nil(t, itineraries[0].Second)
}

func TestReconcileOneStopWithoutConnectionDropped(t *testing.T) {
	first := legBetween("AAA", "BBB")
	second := legBetween("BBB", "CCC")
	candidates := []cfdf.CandidateItinerary{
		{TripType: cfdf.TripTypeOneStop, First: &first, Second: &second},
	}

	store := storeWith(map[string][]cfdf.FlightOccurrence{
		"AAA-BBB-28-12-2024": {occurrenceBetween("AAA", "BBB", "Sat 28, December 2024", "08:00", "09:00")},
	})

	// The direct half of a one stop candidate is a separate candidate, a
	// missing connection drops the pair entirely
	assert.Empty(t, NewReconciler(store).Reconcile(candidates))
}

func TestReconcileNeverCheckedLegMatchesNothing(t *testing.T) {
	first := legBetween("AAA", "BBB")
	candidates := []cfdf.CandidateItinerary{
		{TripType: cfdf.TripTypeDirect, First: &first},
	}

	assert.Empty(t, NewReconciler(resultstore.NewStore()).Reconcile(candidates))
}

func TestReconcileDeduplicatesAcrossCandidates(t *testing.T) {
	first := legBetween("AAA", "BBB")
	duplicate := legBetween("AAA", "BBB")
	candidates := []cfdf.CandidateItinerary{
		{TripType: cfdf.TripTypeDirect, First: &first},
		{TripType: cfdf.TripTypeDirect, First: &duplicate},
	}

	store := storeWith(map[string][]cfdf.FlightOccurrence{
		"AAA-BBB-28-12-2024": {occurrenceBetween("AAA", "BBB", "Sat 28, December 2024", "08:00", "09:00")},
	})

	itineraries := NewReconciler(store).Reconcile(candidates)

	require.Len(t, itineraries, 1)
}

func TestReconcileMatchesAcrossDates(t *testing.T) {
	first := legBetween("AAA", "BBB")
	candidates := []cfdf.CandidateItinerary{
		{TripType: cfdf.TripTypeDirect, First: &first},
	}

	// The same leg checked on two calendar dates under two keys, both are
	// independent options
	store := storeWith(map[string][]cfdf.FlightOccurrence{
		"AAA-BBB-28-12-2024": {occurrenceBetween("AAA", "BBB", "Sat 28, December 2024", "08:00", "09:00")},
		"AAA-BBB-29-12-2024": {occurrenceBetween("AAA", "BBB", "Sun 29, December 2024", "08:00", "09:00")},
	})

	itineraries := NewReconciler(store).Reconcile(candidates)

	require.Len(t, itineraries, 2)
}

func TestItineraryFilter(t *testing.T) {
	cheap := cfdf.AvailableItinerary{
		TripType: cfdf.TripTypeDirect,
		First:    []cfdf.FlightOccurrence{occurrenceBetween("AAA", "BBB", "Sat 28, December 2024", "08:00", "09:00")},
	}
	expensive := cheap
	expensive.First = []cfdf.FlightOccurrence{occurrenceBetween("AAA", "BBB", "Sat 28, December 2024", "17:00", "18:00")}
	expensive.First[0].Price = cfdf.Price{Amount: 120, Currency: "EUR"}

	itineraries := []cfdf.AvailableItinerary{cheap, expensive}

	t.Run("price rule drops expensive itinerary", func(t *testing.T) {
		filter, err := NewItineraryFilter([]string{"MaxPrice < 60.0"})
		require.NoError(t, err)

		kept := filter.Apply(itineraries)
		require.Len(t, kept, 1)
		assert.Zero(t, kept[0].First[0].Price.Amount)
	})

	t.Run("no rules keeps everything", func(t *testing.T) {
		filter, err := NewItineraryFilter(nil)
		require.NoError(t, err)
		assert.Len(t, filter.Apply(itineraries), 2)
	})

	t.Run("trip type and duration rules compose", func(t *testing.T) {
		filter, err := NewItineraryFilter([]string{`TripType == "direct"`, "TotalMinutes <= 60"})
		require.NoError(t, err)
		assert.Len(t, filter.Apply(itineraries), 2)
	})

	t.Run("invalid rule rejected at compile time", func(t *testing.T) {
		_, err := NewItineraryFilter([]string{"NotAField > 3"})
		assert.Error(t, err)
	})
}
