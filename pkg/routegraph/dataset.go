package routegraph

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/airhop/airhop/pkg/cfdf"
	"github.com/gocarina/gocsv"
	"gopkg.in/yaml.v3"
)

// Dataset is one published snapshot of the route network: the airports and
// the directed connections between them, stamped with when the source
// published it.
type Dataset struct {
	RefreshedAt time.Time           `yaml:"refreshed_at"`
	Airports    []cfdf.Airport      `yaml:"airports"`
	Routes      map[string][]string `yaml:"routes"`
}

func (dataset *Dataset) Graph() Graph {
	graph := Graph{}
	for origin, destinations := range dataset.Routes {
		graph[origin] = destinations
	}

	return graph
}

func (dataset *Dataset) AirportIndex() map[string]cfdf.Airport {
	index := map[string]cfdf.Airport{}
	for _, airport := range dataset.Airports {
		index[airport.Code] = airport
	}

	return index
}

// Validate checks that every route endpoint is a known airport. Datasets
// with dangling references are configuration errors and rejected outright.
func (dataset *Dataset) Validate() error {
	if len(dataset.Routes) == 0 {
		return fmt.Errorf("dataset contains no routes")
	}

	index := dataset.AirportIndex()

	for origin, destinations := range dataset.Routes {
		if _, ok := index[origin]; !ok {
			return fmt.Errorf("route origin %s is not a listed airport", origin)
		}

		for _, destination := range destinations {
			if _, ok := index[destination]; !ok {
				return fmt.Errorf("route %s to %s references an unlisted airport", origin, destination)
			}
		}
	}

	return nil
}

func LoadDatasetYAML(reader io.Reader) (*Dataset, error) {
	decoder := yaml.NewDecoder(reader)

	var dataset Dataset
	if err := decoder.Decode(&dataset); err != nil {
		return nil, fmt.Errorf("failed to decode route dataset: %w", err)
	}

	if err := dataset.Validate(); err != nil {
		return nil, err
	}

	return &dataset, nil
}

type airportRecord struct {
	Code      string  `csv:"iata"`
	ICAO      string  `csv:"icao"`
	Name      string  `csv:"airport"`
	Country   string  `csv:"country_code"`
	Latitude  float64 `csv:"latitude"`
	Longitude float64 `csv:"longitude"`
}

// LoadAirportsCSV parses an airport reference sheet. Rows without an IATA
// code are skipped, they cannot appear in a route dataset.
func LoadAirportsCSV(reader io.Reader) ([]cfdf.Airport, error) {
	// Allow us to ignore those naughty records that have missing columns
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		r := csv.NewReader(in)
		r.FieldsPerRecord = -1
		return r
	})

	var records []airportRecord
	if err := gocsv.Unmarshal(reader, &records); err != nil {
		return nil, fmt.Errorf("failed to parse airports csv: %w", err)
	}

	var airports []cfdf.Airport
	for _, record := range records {
		if record.Code == "" {
			continue
		}

		airports = append(airports, cfdf.Airport{
			Code:      record.Code,
			ICAO:      record.ICAO,
			Name:      record.Name,
			Country:   record.Country,
			Latitude:  record.Latitude,
			Longitude: record.Longitude,
		})
	}

	return airports, nil
}
