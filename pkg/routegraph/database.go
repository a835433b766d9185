package routegraph

import (
	"context"
	"fmt"
	"time"

	"github.com/airhop/airhop/pkg/cfdf"
	"github.com/airhop/airhop/pkg/database"
	"go.mongodb.org/mongo-driver/bson"
)

// RouteConnectionRecord is the persisted form of one origin's outbound
// connections, stamped with the publication it came from.
type RouteConnectionRecord struct {
	Origin       string    `bson:"origin"`
	Destinations []string  `bson:"destinations"`
	RefreshedAt  time.Time `bson:"refreshedat"`
}

// DatasetFromDatabase assembles the current route dataset from the
// airports and route_connections collections.
func DatasetFromDatabase(ctx context.Context) (*Dataset, error) {
	airportsCollection := database.GetCollection("airports")

	cursor, err := airportsCollection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to query airports: %w", err)
	}

	var airports []cfdf.Airport
	if err := cursor.All(ctx, &airports); err != nil {
		return nil, err
	}

	routesCollection := database.GetCollection("route_connections")

	cursor, err = routesCollection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to query route connections: %w", err)
	}

	var records []RouteConnectionRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}

	dataset := &Dataset{
		Airports: airports,
		Routes:   map[string][]string{},
	}

	for _, record := range records {
		dataset.Routes[record.Origin] = record.Destinations

		if record.RefreshedAt.After(dataset.RefreshedAt) {
			dataset.RefreshedAt = record.RefreshedAt
		}
	}

	if err := dataset.Validate(); err != nil {
		return nil, err
	}

	return dataset, nil
}

// Stale reports whether the dataset predates the current publication day
// and should be re-imported before scanning.
func (dataset *Dataset) Stale(now time.Time) bool {
	if dataset.RefreshedAt.IsZero() {
		return true
	}

	return dataset.RefreshedAt.Before(EffectiveDay(now))
}
