package cfdf

import (
	"fmt"
	"time"
)

// OccurrenceDateFormat is the calendar date carried on a checked flight
// occurrence, eg "Sat 28, December 2024".
const OccurrenceDateFormat = "Mon 02, January 2006"

const occurrenceInstantFormat = "Mon 02, January 2006 15:04 -07:00"

type OccurrenceEndpoint struct {
	City string `groups:"basic"`

	// Time is the local wall clock time "15:04"; UTCOffset labels the
	// offset it is expressed in, eg "+01:00".
	Time      string `groups:"basic"`
	UTCOffset string `groups:"basic"`
}

type Price struct {
	Amount   float64 `groups:"detailed"`
	Currency string  `groups:"detailed"`
}

// FlightOccurrence is one concrete scheduled flight matching a leg on a
// specific calendar date. The same leg and date can carry several
// occurrences when the carrier runs multiple departures a day.
type FlightOccurrence struct {
	Date string `groups:"basic"`

	Departure OccurrenceEndpoint `groups:"basic"`
	Arrival   OccurrenceEndpoint `groups:"basic"`

	Duration string `groups:"basic"`

	Carrier    string `groups:"detailed"`
	FlightCode string `groups:"detailed"`
	Price      Price  `groups:"detailed"`
}

// DepartureInstant resolves the occurrence departure into an offset
// adjusted instant, combining the calendar date with the local wall clock
// time and its UTC offset label.
func (occurrence *FlightOccurrence) DepartureInstant() (time.Time, error) {
	return occurrenceInstant(occurrence.Date, occurrence.Departure)
}

func (occurrence *FlightOccurrence) ArrivalInstant() (time.Time, error) {
	return occurrenceInstant(occurrence.Date, occurrence.Arrival)
}

func occurrenceInstant(date string, endpoint OccurrenceEndpoint) (time.Time, error) {
	instant, err := time.Parse(occurrenceInstantFormat, fmt.Sprintf("%s %s %s", date, endpoint.Time, endpoint.UTCOffset))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid occurrence time: %w", err)
	}

	return instant, nil
}

func (occurrence *FlightOccurrence) String() string {
	return fmt.Sprintf("%s %s %s (%s) to %s (%s)", occurrence.FlightCode, occurrence.Date, occurrence.Departure.City, occurrence.Departure.Time, occurrence.Arrival.City, occurrence.Arrival.Time)
}
