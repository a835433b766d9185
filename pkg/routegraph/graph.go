package routegraph

import (
	"sort"
)

// Graph is the route adjacency map, airport code to the set of airport
// codes directly reachable from it. It is built once per scan run and read
// only from then on.
type Graph map[string][]string

func (graph Graph) Connections(code string) []string {
	return graph[code]
}

func (graph Graph) Has(code string) bool {
	_, ok := graph[code]
	return ok
}

func (graph Graph) AirportCodes() []string {
	var codes []string
	for code := range graph {
		codes = append(codes, code)
	}

	sort.Strings(codes)

	return codes
}

func (graph Graph) EdgeCount() int {
	count := 0
	for _, connections := range graph {
		count += len(connections)
	}

	return count
}
