package scanner

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/airhop/airhop/pkg/cfdf"
	"github.com/airhop/airhop/pkg/database"
	"github.com/airhop/airhop/pkg/elastic_client"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ScanRunRecord is the archived summary of one completed run.
type ScanRunRecord struct {
	RunID string `groups:"basic" bson:"runid"`
	JobID string `groups:"basic" bson:"jobid"`

	StartedAt  time.Time `groups:"basic" bson:"startedat"`
	FinishedAt time.Time `groups:"basic" bson:"finishedat"`

	Candidates  int `groups:"basic" bson:"candidates"`
	Checked     int `groups:"basic" bson:"checked"`
	Failed      int `groups:"basic" bson:"failed"`
	Itineraries int `groups:"basic" bson:"itineraries"`

	EstimatedDuration time.Duration `groups:"detailed" bson:"estimatedduration"`
	ActualDuration    time.Duration `groups:"detailed" bson:"actualduration"`
}

// ItineraryRecord wraps an available itinerary with the run it came from.
type ItineraryRecord struct {
	RunID         string                  `groups:"basic" bson:"runid"`
	ItineraryHash string                  `groups:"basic" bson:"itineraryhash"`
	CreatedAt     time.Time               `groups:"basic" bson:"createdat"`
	Itinerary     cfdf.AvailableItinerary `groups:"basic" bson:"itinerary"`
}

// archiveRun persists the run summary and its itineraries to the
// datastore and publishes the itineraries to the analytics index. Archive
// problems are logged, the run's documents on disk are already complete.
func (scanner *Scanner) archiveRun(ctx context.Context, result *RunResult) {
	record := ScanRunRecord{
		RunID:             result.RunID,
		JobID:             result.Job.ID,
		StartedAt:         result.StartedAt,
		FinishedAt:        result.FinishedAt,
		Candidates:        len(result.Candidates),
		Checked:           result.CheckReport.Checked,
		Failed:            result.CheckReport.Failed,
		Itineraries:       len(result.Itineraries),
		EstimatedDuration: result.Estimate.Duration,
		ActualDuration:    result.FinishedAt.Sub(result.StartedAt),
	}

	runsCollection := database.GetCollection("scan_runs")
	if _, err := runsCollection.InsertOne(ctx, record); err != nil {
		log.Error().Err(err).Str("run", result.RunID).Msg("Failed to archive scan run")
		return
	}

	if len(result.Itineraries) > 0 {
		itineraryDocuments := []interface{}{}
		for _, itinerary := range result.Itineraries {
			itineraryDocuments = append(itineraryDocuments, ItineraryRecord{
				RunID:         result.RunID,
				ItineraryHash: itinerary.GenerateFunctionalHash(),
				CreatedAt:     result.FinishedAt,
				Itinerary:     itinerary,
			})
		}

		itinerariesCollection := database.GetCollection("available_itineraries")
		if _, err := itinerariesCollection.InsertMany(ctx, itineraryDocuments, &options.InsertManyOptions{}); err != nil {
			log.Error().Err(err).Str("run", result.RunID).Msg("Failed to archive itineraries")
		}
	}

	scanner.indexItineraries(result)
}

func (scanner *Scanner) indexItineraries(result *RunResult) {
	for _, itinerary := range result.Itineraries {
		document := map[string]interface{}{
			"runid":         result.RunID,
			"itineraryhash": itinerary.GenerateFunctionalHash(),
			"triptype":      itinerary.TripType,
			"totalduration": itinerary.TotalDuration(),
			"creationtime":  result.FinishedAt,
			"itinerary":     itinerary,
		}

		documentJSON, err := json.Marshal(document)
		if err != nil {
			log.Error().Err(err).Msg("Failed to encode itinerary for indexing")
			continue
		}

		elastic_client.IndexRequest(scanner.Config.ItineraryIndex, bytes.NewReader(documentJSON))
	}
}
