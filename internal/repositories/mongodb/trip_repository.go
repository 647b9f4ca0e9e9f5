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

type tripRepository struct {
	collection *mongo.Collection
}

func NewTripRepository(db *mongo.Database) interfaces.TripRepository {
	return &tripRepository{
		collection: db.Collection("trips"),
	}
}

func (r *tripRepository) Create(ctx context.Context, trip *models.Trip) error {
	now := time.Now()
	trip.ID = primitive.NewObjectID()
	if trip.Status == "" {
		trip.Status = models.TripStatusPending
	}
	trip.RequestedAt = now
	trip.CreatedAt = now
	trip.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, trip)
	if err != nil {
		return fmt.Errorf("failed to create trip: %w", err)
	}

	return nil
}

func (r *tripRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Trip, error) {
	var trip models.Trip
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&trip)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrTripNotFound
		}
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}

	return &trip, nil
}

func (r *tripRepository) GetStatus(ctx context.Context, id primitive.ObjectID) (models.TripStatus, error) {
	var result struct {
		Status models.TripStatus `bson:"status"`
	}

	opts := options.FindOne().SetProjection(bson.M{"status": 1})
	err := r.collection.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&result)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return "", interfaces.ErrTripNotFound
		}
		return "", fmt.Errorf("failed to get trip status: %w", err)
	}

	return result.Status, nil
}

// transition performs the conditional update every lifecycle move goes
// through: match the trip only while its status is one of the allowed prior
// states, apply the update, and return the post-update document. A miss is
// resolved to either "no such trip" or "someone else moved it first".
func (r *tripRepository) transition(ctx context.Context, tripID primitive.ObjectID, allowed []models.TripStatus, set bson.M) (*models.Trip, error) {
	set["updated_at"] = time.Now()

	filter := bson.M{
		"_id":    tripID,
		"status": bson.M{"$in": allowed},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var trip models.Trip
	err := r.collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&trip)
	if err == nil {
		return &trip, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("failed to transition trip: %w", err)
	}

	count, countErr := r.collection.CountDocuments(ctx, bson.M{"_id": tripID})
	if countErr != nil {
		return nil, fmt.Errorf("failed to check trip existence: %w", countErr)
	}
	if count == 0 {
		return nil, interfaces.ErrTripNotFound
	}

	return nil, interfaces.ErrStatusConflict
}

func (r *tripRepository) Accept(ctx context.Context, tripID, ambulanceID primitive.ObjectID) (*models.Trip, error) {
	now := time.Now()
	return r.transition(ctx, tripID,
		[]models.TripStatus{models.TripStatusPending},
		bson.M{
			"status":       models.TripStatusAccepted,
			"ambulance_id": ambulanceID,
			"accepted_at":  now,
		})
}

func (r *tripRepository) AssignByOperator(ctx context.Context, tripID, ambulanceID primitive.ObjectID) (*models.Trip, error) {
	now := time.Now()
	return r.transition(ctx, tripID,
		[]models.TripStatus{models.TripStatusPending},
		bson.M{
			"status":               models.TripStatusAccepted,
			"ambulance_id":         ambulanceID,
			"accepted_at":          now,
			"assigned_by_operator": true,
		})
}

func (r *tripRepository) MarkEnRoute(ctx context.Context, tripID primitive.ObjectID) (*models.Trip, error) {
	now := time.Now()
	return r.transition(ctx, tripID,
		[]models.TripStatus{models.TripStatusAccepted},
		bson.M{
			"status":      models.TripStatusEnRoute,
			"en_route_at": now,
		})
}

func (r *tripRepository) MarkArrived(ctx context.Context, tripID primitive.ObjectID) (*models.Trip, error) {
	now := time.Now()
	return r.transition(ctx, tripID,
		[]models.TripStatus{models.TripStatusAccepted, models.TripStatusEnRoute},
		bson.M{
			"status":     models.TripStatusArrived,
			"arrived_at": now,
		})
}

func (r *tripRepository) Complete(ctx context.Context, tripID primitive.ObjectID) (*models.Trip, error) {
	now := time.Now()
	return r.transition(ctx, tripID,
		[]models.TripStatus{models.TripStatusAccepted, models.TripStatusEnRoute, models.TripStatusArrived},
		bson.M{
			"status":       models.TripStatusCompleted,
			"completed_at": now,
		})
}

func (r *tripRepository) Cancel(ctx context.Context, tripID primitive.ObjectID) (*models.Trip, error) {
	now := time.Now()
	return r.transition(ctx, tripID,
		[]models.TripStatus{models.TripStatusPending, models.TripStatusAccepted},
		bson.M{
			"status":       models.TripStatusCancelled,
			"cancelled_at": now,
		})
}

func (r *tripRepository) MarkEscalated(ctx context.Context, tripID primitive.ObjectID) (*models.Trip, error) {
	return r.transition(ctx, tripID,
		[]models.TripStatus{models.TripStatusPending},
		bson.M{
			"escalated": true,
		})
}

func (r *tripRepository) BindHospital(ctx context.Context, tripID, hospitalID primitive.ObjectID) (*models.Trip, error) {
	filter := bson.M{
		"_id": tripID,
		"status": bson.M{"$in": []models.TripStatus{
			models.TripStatusAccepted,
			models.TripStatusEnRoute,
			models.TripStatusArrived,
		}},
		"hospital_id": nil,
	}

	update := bson.M{"$set": bson.M{
		"hospital_id": hospitalID,
		"updated_at":  time.Now(),
	}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var trip models.Trip
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&trip)
	if err == nil {
		return &trip, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("failed to bind hospital: %w", err)
	}

	existing, getErr := r.GetByID(ctx, tripID)
	if getErr != nil {
		return nil, getErr
	}
	if existing.HospitalID != nil {
		return nil, interfaces.ErrDestinationSet
	}

	return nil, interfaces.ErrStatusConflict
}

func (r *tripRepository) ListByPatient(ctx context.Context, patientID primitive.ObjectID, limit int64) ([]*models.Trip, error) {
	return r.list(ctx, bson.M{"patient_id": patientID}, limit)
}

func (r *tripRepository) ListByAmbulance(ctx context.Context, ambulanceID primitive.ObjectID, limit int64) ([]*models.Trip, error) {
	return r.list(ctx, bson.M{"ambulance_id": ambulanceID}, limit)
}

func (r *tripRepository) ListEscalated(ctx context.Context, limit int64) ([]*models.Trip, error) {
	return r.list(ctx, bson.M{"escalated": true, "status": models.TripStatusPending}, limit)
}

func (r *tripRepository) list(ctx context.Context, filter bson.M, limit int64) ([]*models.Trip, error) {
	opts := options.Find().
		SetSort(bson.M{"requested_at": -1}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	defer cursor.Close(ctx)

	var trips []*models.Trip
	if err := cursor.All(ctx, &trips); err != nil {
		return nil, fmt.Errorf("failed to decode trips: %w", err)
	}

	return trips, nil
}
