package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the geospatial and uniqueness indexes the dispatch
// queries rely on. Safe to call on every startup; Mongo treats an existing
// identical index as a no-op.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		"ambulances": {
			{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
			{Keys: bson.D{{Key: "status", Value: 1}}},
			{
				Keys:    bson.D{{Key: "vehicle_number", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "driver_phone", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		"hospitals": {
			{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
			{Keys: bson.D{{Key: "inventory.beds.available", Value: 1}}},
		},
		"trips": {
			{Keys: bson.D{{Key: "pickup_location", Value: "2dsphere"}}},
			{Keys: bson.D{{Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "patient_id", Value: 1}, {Key: "requested_at", Value: -1}}},
			{Keys: bson.D{{Key: "ambulance_id", Value: 1}, {Key: "requested_at", Value: -1}}},
		},
	}

	for collection, models := range indexes {
		_, err := db.Collection(collection).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("failed to create indexes for %s: %w", collection, err)
		}
	}

	return nil
}
