package cfdf

import (
	"fmt"
	"strings"
)

type Airport struct {
	Code string `groups:"basic"`
	ICAO string `groups:"detailed"`

	// Name is the city display name the availability source uses for this
	// airport, eg "Rome Fiumicino".
	Name    string `groups:"basic"`
	Country string `groups:"detailed"`

	Latitude  float64 `groups:"detailed"`
	Longitude float64 `groups:"detailed"`
}

// Label renders the airport the way it appears in route datasets and
// reports, eg "Rome Fiumicino (FCO)".
func (airport *Airport) Label() string {
	return fmt.Sprintf("%s (%s)", airport.Name, airport.Code)
}

// CityFromLabel strips the trailing "(CODE)" from an airport label,
// returning the bare city display name.
func CityFromLabel(label string) string {
	index := strings.LastIndex(label, " (")
	if index == -1 {
		return label
	}

	return label[:index]
}
