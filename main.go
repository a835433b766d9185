package main

import (
	"log"
	"os"

	"github.com/airhop/airhop/pkg/routegraph"
	"github.com/kr/pretty"
)

// Scratch tool for poking at route dataset files
func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: go run main.go <dataset.yaml>")
	}

	file, err := os.Open(os.Args[1])
	if err != nil {
		log.Fatal(err)
	}
	defer file.Close()

	dataset, err := routegraph.LoadDatasetYAML(file)
	if err != nil {
		log.Fatal(err)
	}

	graph := dataset.Graph()

	pretty.Println("airports:", len(dataset.Airports))
	pretty.Println("origins:", len(graph))
	pretty.Println("connections:", graph.EdgeCount())

	for _, code := range graph.AirportCodes() {
		pretty.Println(code, graph.Connections(code))
	}
}
