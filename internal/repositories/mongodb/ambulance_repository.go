package mongodb

import (
	"context"
	"fmt"
	"time"

	"lifeline/internal/models"
	"lifeline/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ambulanceRepository struct {
	collection *mongo.Collection
}

func NewAmbulanceRepository(db *mongo.Database) interfaces.AmbulanceRepository {
	return &ambulanceRepository{
		collection: db.Collection("ambulances"),
	}
}

func (r *ambulanceRepository) Create(ctx context.Context, ambulance *models.Ambulance) error {
	now := time.Now()
	ambulance.ID = primitive.NewObjectID()
	if ambulance.Status == "" {
		ambulance.Status = models.AmbulanceStatusOffline
	}
	ambulance.CreatedAt = now
	ambulance.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, ambulance)
	if err != nil {
		return fmt.Errorf("failed to create ambulance: %w", err)
	}

	return nil
}

func (r *ambulanceRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Ambulance, error) {
	var ambulance models.Ambulance
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&ambulance)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrAmbulanceNotFound
		}
		return nil, fmt.Errorf("failed to get ambulance: %w", err)
	}

	return &ambulance, nil
}

func (r *ambulanceRepository) FindNearbyReady(ctx context.Context, longitude, latitude, radiusKM float64, limit int64) ([]*models.Ambulance, error) {
	radiusMeters := radiusKM * 1000

	// $near returns documents in ascending distance order.
	filter := bson.M{
		"location": bson.M{
			"$near": bson.M{
				"$geometry": bson.M{
					"type":        "Point",
					"coordinates": []float64{longitude, latitude},
				},
				"$maxDistance": radiusMeters,
			},
		},
		"status": models.AmbulanceStatusReady,
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to find nearby ambulances: %w", err)
	}
	defer cursor.Close(ctx)

	var ambulances []*models.Ambulance
	if err := cursor.All(ctx, &ambulances); err != nil {
		return nil, fmt.Errorf("failed to decode ambulances: %w", err)
	}

	return ambulances, nil
}

func (r *ambulanceRepository) UpdateLocation(ctx context.Context, id primitive.ObjectID, location models.GeoPoint) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"location":   location,
			"updated_at": time.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to update ambulance location: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrAmbulanceNotFound
	}

	return nil
}

func (r *ambulanceRepository) SetStatus(ctx context.Context, id primitive.ObjectID, status models.AmbulanceStatus) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"status":     status,
			"updated_at": time.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to set ambulance status: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrAmbulanceNotFound
	}

	return nil
}
