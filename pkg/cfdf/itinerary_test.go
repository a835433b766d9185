package cfdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidateItineraryValidate(t *testing.T) {
	first := NewLeg(Airport{Code: "FCO", Name: "Rome Fiumicino"}, Airport{Code: "VIE", Name: "Vienna"})
	second := NewLeg(Airport{Code: "VIE", Name: "Vienna"}, Airport{Code: "BER", Name: "Berlin Brandenburg"})
	disjoint := NewLeg(Airport{Code: "OTP", Name: "Bucharest"}, Airport{Code: "BER", Name: "Berlin Brandenburg"})

	t.Run("joined one stop passes", func(t *testing.T) {
		candidate := CandidateItinerary{TripType: TripTypeOneStop, First: &first, Second: &second}
		assert.NoError(t, candidate.Validate())
	})

	t.Run("disjoint legs fail", func(t *testing.T) {
		candidate := CandidateItinerary{TripType: TripTypeOneStop, First: &first, Second: &disjoint}
		assert.Error(t, candidate.Validate())
	})

	t.Run("direct with second leg fails", func(t *testing.T) {
		candidate := CandidateItinerary{TripType: TripTypeDirect, First: &first, Second: &second}
		assert.Error(t, candidate.Validate())
	})

	t.Run("round trip without return passes", func(t *testing.T) {
		candidate := CandidateItinerary{TripType: TripTypeRoundTrip, First: &first}
		assert.NoError(t, candidate.Validate())
	})
}

func TestCandidateItineraryLegs(t *testing.T) {
	first := NewLeg(Airport{Code: "FCO"}, Airport{Code: "VIE"})
	second := NewLeg(Airport{Code: "VIE"}, Airport{Code: "BER"})

	direct := CandidateItinerary{TripType: TripTypeDirect, First: &first}
	require.Len(t, direct.Legs(), 1)

	oneStop := CandidateItinerary{TripType: TripTypeOneStop, First: &first, Second: &second}
	require.Len(t, oneStop.Legs(), 2)
}

func TestFilterIdenticalItineraries(t *testing.T) {
	occurrence := FlightOccurrence{
		Date:      "Sat 28, December 2024",
		Departure: OccurrenceEndpoint{City: "Rome Fiumicino", Time: "08:00", UTCOffset: "+01:00"},
		Arrival:   OccurrenceEndpoint{City: "Vienna", Time: "09:35", UTCOffset: "+01:00"},
		Duration:  "01h 35m",
	}
	later := occurrence
	later.Departure.Time = "12:00"

	itineraries := []AvailableItinerary{
		{TripType: TripTypeDirect, First: []FlightOccurrence{occurrence}},
		{TripType: TripTypeDirect, First: []FlightOccurrence{occurrence}},
		{TripType: TripTypeDirect, First: []FlightOccurrence{later}},
	}

	filtered := FilterIdenticalItineraries(itineraries)

	require.Len(t, filtered, 2)
	assert.NotEqual(t, filtered[0].GenerateFunctionalHash(), filtered[1].GenerateFunctionalHash())
}

func TestGenerateFunctionalHashDistinguishesLegOrder(t *testing.T) {
	outward := FlightOccurrence{Date: "Sat 28, December 2024", Departure: OccurrenceEndpoint{City: "Rome Fiumicino", Time: "08:00", UTCOffset: "+01:00"}}
	back := FlightOccurrence{Date: "Sun 29, December 2024", Departure: OccurrenceEndpoint{City: "Vienna", Time: "10:00", UTCOffset: "+01:00"}}

	roundTrip := AvailableItinerary{TripType: TripTypeRoundTrip, First: []FlightOccurrence{outward}, Second: []FlightOccurrence{back}}
	reversed := AvailableItinerary{TripType: TripTypeRoundTrip, First: []FlightOccurrence{back}, Second: []FlightOccurrence{outward}}

	assert.NotEqual(t, roundTrip.GenerateFunctionalHash(), reversed.GenerateFunctionalHash())
}

func TestTotalDuration(t *testing.T) {
	itinerary := AvailableItinerary{
		TripType: TripTypeOneStop,
		First:    []FlightOccurrence{{Duration: "02h 35m"}},
		Second:   []FlightOccurrence{{Duration: "01h 50m"}},
	}

	assert.Equal(t, "04h 25m", itinerary.TotalDuration())
}
