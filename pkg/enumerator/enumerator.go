package enumerator

import (
	"fmt"

	"github.com/airhop/airhop/pkg/cfdf"
	"github.com/airhop/airhop/pkg/routegraph"
	"golang.org/x/exp/slices"
)

// Enumerator walks the route graph to produce candidate itineraries for a
// scan run. The graph and filter sets are fixed at construction; an empty
// destination set widens the search to every airport in the graph.
type Enumerator struct {
	Graph    routegraph.Graph
	Airports map[string]cfdf.Airport

	DepartureAirports   []string
	DestinationAirports []string
}

func NewEnumerator(graph routegraph.Graph, airports map[string]cfdf.Airport, departures []string, destinations []string) (*Enumerator, error) {
	if len(graph) == 0 {
		return nil, fmt.Errorf("route graph is empty")
	}
	if len(departures) == 0 {
		return nil, fmt.Errorf("no departure airports supplied")
	}

	for _, code := range departures {
		if !graph.Has(code) {
			return nil, fmt.Errorf("unknown departure airport %s", code)
		}
	}
	for _, code := range destinations {
		if _, ok := airports[code]; !ok {
			return nil, fmt.Errorf("unknown destination airport %s", code)
		}
	}

	if len(destinations) == 0 {
		destinations = graph.AirportCodes()
	}

	return &Enumerator{
		Graph:    graph,
		Airports: airports,

		DepartureAirports:   departures,
		DestinationAirports: destinations,
	}, nil
}

func (enumerator *Enumerator) newLeg(origin string, destination string) cfdf.Leg {
	return cfdf.NewLeg(enumerator.airport(origin), enumerator.airport(destination))
}

func (enumerator *Enumerator) airport(code string) cfdf.Airport {
	if airport, ok := enumerator.Airports[code]; ok {
		return airport
	}

	// Airports missing from the reference sheet still enumerate, the code
	// doubles as the display name.
	return cfdf.Airport{Code: code, Name: code}
}

// EnumerateOneStop finds direct and one stop candidates from the departure
// set into the destination set with a breadth first walk capped at
// maxStops+1 edges. The same airport pair can surface from several
// departure airports, final deduplication happens after reconciliation.
func (enumerator *Enumerator) EnumerateOneStop(maxStops int) []cfdf.CandidateItinerary {
	if maxStops > 1 {
		maxStops = 1
	}
	if maxStops < 0 {
		maxStops = 0
	}

	var candidates []cfdf.CandidateItinerary

	for _, departure := range enumerator.DepartureAirports {
		visited := map[string]bool{departure: true}

		for _, via := range enumerator.Graph.Connections(departure) {
			if slices.Contains(enumerator.DestinationAirports, via) {
				first := enumerator.newLeg(departure, via)

				candidates = append(candidates, cfdf.CandidateItinerary{
					TripType: cfdf.TripTypeDirect,
					First:    &first,
				})
			}

			if maxStops == 0 || visited[via] {
				continue
			}
			visited[via] = true

			for _, destination := range enumerator.Graph.Connections(via) {
				if destination == departure || !slices.Contains(enumerator.DestinationAirports, destination) {
					continue
				}

				first := enumerator.newLeg(departure, via)
				second := enumerator.newLeg(via, destination)

				candidates = append(candidates, cfdf.CandidateItinerary{
					TripType: cfdf.TripTypeOneStop,
					First:    &first,
					Second:   &second,
				})
			}
		}
	}

	return candidates
}

// EnumerateRoundTrip pairs direct outward flights into the destination set
// with direct returns that land back at any configured departure airport.
// Only direct legs are considered on either side.
func (enumerator *Enumerator) EnumerateRoundTrip() []cfdf.CandidateItinerary {
	var candidates []cfdf.CandidateItinerary

	for _, departure := range enumerator.DepartureAirports {
		for _, destination := range enumerator.Graph.Connections(departure) {
			if !slices.Contains(enumerator.DestinationAirports, destination) {
				continue
			}

			for _, back := range enumerator.Graph.Connections(destination) {
				if !slices.Contains(enumerator.DepartureAirports, back) {
					continue
				}

				outward := enumerator.newLeg(departure, destination)
				returnLeg := enumerator.newLeg(destination, back)

				candidates = append(candidates, cfdf.CandidateItinerary{
					TripType: cfdf.TripTypeRoundTrip,
					First:    &outward,
					Second:   &returnLeg,
				})
			}
		}
	}

	return candidates
}

// DistinctLegs returns each unique leg referenced by the candidates, in
// first seen order. This is the work list handed to the orchestrator, a
// pair appearing in many candidates is still checked once.
func DistinctLegs(candidates []cfdf.CandidateItinerary) []cfdf.Leg {
	var legs []cfdf.Leg

	seen := map[string]bool{}
	for _, candidate := range candidates {
		for _, leg := range candidate.Legs() {
			hash := leg.Hash()

			if !seen[hash] {
				legs = append(legs, *leg)
				seen[hash] = true
			}
		}
	}

	return legs
}
