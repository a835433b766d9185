package dataimporter

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/airhop/airhop/pkg/database"
	"github.com/airhop/airhop/pkg/routegraph"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ImportAirports loads an airport reference sheet into the airports
// collection. Existing records for the same IATA code are replaced.
func ImportAirports(ctx context.Context, reader io.Reader) error {
	airports, err := routegraph.LoadAirportsCSV(reader)
	if err != nil {
		return err
	}

	airportOperations := []mongo.WriteModel{}
	for _, airport := range airports {
		bsonRep, err := bson.Marshal(airport)
		if err != nil {
			return err
		}

		updateModel := mongo.NewReplaceOneModel()
		updateModel.SetFilter(bson.M{"code": airport.Code})
		updateModel.SetReplacement(bsonRep)
		updateModel.SetUpsert(true)

		airportOperations = append(airportOperations, updateModel)
	}

	if len(airportOperations) == 0 {
		return fmt.Errorf("airport sheet contained no usable records")
	}

	airportsCollection := database.GetCollection("airports")
	if _, err := airportsCollection.BulkWrite(ctx, airportOperations, &options.BulkWriteOptions{}); err != nil {
		return fmt.Errorf("failed to bulk write airports: %w", err)
	}

	log.Info().Int("airports", len(airportOperations)).Msg("Imported airports")

	return nil
}

// ImportRoutes loads a route dataset document into the route_connections
// collection, one record per origin. Origins absent from the document are
// removed, the collection always mirrors the latest publication.
func ImportRoutes(ctx context.Context, reader io.Reader) error {
	dataset, err := routegraph.LoadDatasetYAML(reader)
	if err != nil {
		return err
	}

	refreshedAt := dataset.RefreshedAt
	if refreshedAt.IsZero() {
		refreshedAt = routegraph.EffectiveDay(time.Now())
	}

	routeOperations := []mongo.WriteModel{}
	for origin, destinations := range dataset.Routes {
		record := routegraph.RouteConnectionRecord{
			Origin:       origin,
			Destinations: destinations,
			RefreshedAt:  refreshedAt,
		}

		bsonRep, err := bson.Marshal(record)
		if err != nil {
			return err
		}

		updateModel := mongo.NewReplaceOneModel()
		updateModel.SetFilter(bson.M{"origin": origin})
		updateModel.SetReplacement(bsonRep)
		updateModel.SetUpsert(true)

		routeOperations = append(routeOperations, updateModel)
	}

	routesCollection := database.GetCollection("route_connections")
	if _, err := routesCollection.BulkWrite(ctx, routeOperations, &options.BulkWriteOptions{}); err != nil {
		return fmt.Errorf("failed to bulk write route connections: %w", err)
	}

	staleFilter := bson.M{"refreshedat": bson.M{"$lt": refreshedAt}}
	deleted, err := routesCollection.DeleteMany(ctx, staleFilter)
	if err != nil {
		return fmt.Errorf("failed to remove stale route connections: %w", err)
	}

	log.Info().
		Int("origins", len(routeOperations)).
		Int64("removed", deleted.DeletedCount).
		Time("refreshedat", refreshedAt).
		Msg("Imported route connections")

	return nil
}
