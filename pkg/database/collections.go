package database

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func createIndexes() {
	createDatasetIndexes()
	createScanIndexes()
}

func createDatasetIndexes() {
	// Airports
	airportsCollection := GetCollection("airports")
	airportsIndex := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "code", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "name", Value: 1}},
		},
	}

	opts := options.CreateIndexes()
	_, err := airportsCollection.Indexes().CreateMany(context.Background(), airportsIndex, opts)
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}

	// Route connections
	routesCollection := GetCollection("route_connections")
	routesIndex := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "origin", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "refreshedat", Value: 1}},
		},
	}

	opts = options.CreateIndexes()
	_, err = routesCollection.Indexes().CreateMany(context.Background(), routesIndex, opts)
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}
}

func createScanIndexes() {
	// Scan runs
	scanRunsCollection := GetCollection("scan_runs")
	_, err := scanRunsCollection.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "runid", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "startedat", Value: -1}},
		},
	}, options.CreateIndexes())
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}

	// Available itineraries
	itinerariesCollection := GetCollection("available_itineraries")
	_, err = itinerariesCollection.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "runid", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "itineraryhash", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "createdat", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(30 * 24 * 3600), // Expire after 30 days
		},
	}, options.CreateIndexes())
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}
}
