package cfdf

import (
	"crypto/sha256"
	"fmt"
	"hash"

	"github.com/airhop/airhop/pkg/util"
)

// AvailableItinerary is the reconciled final output, one verified
// combination of checked occurrences on a candidate itinerary. It is never
// mutated after creation.
//
// First and Second follow the candidate shape: connection for one stop
// trips, return for round trips. A round trip whose return was never
// matched keeps its outward occurrences and a nil Second.
type AvailableItinerary struct {
	TripType TripType `groups:"basic"`

	First  []FlightOccurrence `groups:"basic"`
	Second []FlightOccurrence `groups:"basic"`
}

func (itinerary *AvailableItinerary) GenerateFunctionalHash() string {
	hasher := sha256.New()

	hasher.Write([]byte(itinerary.TripType))

	for _, occurrence := range itinerary.First {
		writeOccurrenceHash(hasher, occurrence)
	}

	hasher.Write([]byte("|"))

	for _, occurrence := range itinerary.Second {
		writeOccurrenceHash(hasher, occurrence)
	}

	return fmt.Sprintf("%x", hasher.Sum(nil))
}

func writeOccurrenceHash(hasher hash.Hash, occurrence FlightOccurrence) {
	hasher.Write([]byte(occurrence.Date))
	hasher.Write([]byte(occurrence.Departure.City))
	hasher.Write([]byte(occurrence.Departure.Time))
	hasher.Write([]byte(occurrence.Departure.UTCOffset))
	hasher.Write([]byte(occurrence.Arrival.City))
	hasher.Write([]byte(occurrence.Arrival.Time))
	hasher.Write([]byte(occurrence.Arrival.UTCOffset))
	hasher.Write([]byte(occurrence.Duration))
	hasher.Write([]byte(occurrence.Carrier))
	hasher.Write([]byte(occurrence.FlightCode))
	hasher.Write([]byte(fmt.Sprintf("%.2f%s", occurrence.Price.Amount, occurrence.Price.Currency)))
}

// FilterIdenticalItineraries removes structurally equal itineraries,
// keeping the first of each.
func FilterIdenticalItineraries(itineraries []AvailableItinerary) []AvailableItinerary {
	var filtered []AvailableItinerary

	matches := map[string]bool{}
	for _, itinerary := range itineraries {
		hash := itinerary.GenerateFunctionalHash()

		if !matches[hash] {
			filtered = append(filtered, itinerary)
			matches[hash] = true
		}
	}

	return filtered
}

// TotalDuration sums the flight time across every occurrence in the
// itinerary, rendered in the "02h 35m" form used on occurrences.
func (itinerary *AvailableItinerary) TotalDuration() string {
	var durations []string

	for _, occurrence := range itinerary.First {
		durations = append(durations, occurrence.Duration)
	}
	for _, occurrence := range itinerary.Second {
		durations = append(durations, occurrence.Duration)
	}

	return util.SumLegDurations(durations)
}
