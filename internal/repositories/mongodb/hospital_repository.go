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

type hospitalRepository struct {
	collection *mongo.Collection
}

func NewHospitalRepository(db *mongo.Database) interfaces.HospitalRepository {
	return &hospitalRepository{
		collection: db.Collection("hospitals"),
	}
}

func (r *hospitalRepository) Create(ctx context.Context, hospital *models.Hospital) error {
	now := time.Now()
	hospital.ID = primitive.NewObjectID()
	if hospital.Inventory.BloodStock == nil {
		hospital.Inventory.BloodStock = make(map[string]int)
	}
	hospital.CreatedAt = now
	hospital.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, hospital)
	if err != nil {
		return fmt.Errorf("failed to create hospital: %w", err)
	}

	return nil
}

func (r *hospitalRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Hospital, error) {
	var hospital models.Hospital
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&hospital)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrHospitalNotFound
		}
		return nil, fmt.Errorf("failed to get hospital: %w", err)
	}

	return &hospital, nil
}

func (r *hospitalRepository) FindNearbyWithCapacity(ctx context.Context, longitude, latitude, radiusKM float64, bloodGroup string) ([]*models.Hospital, error) {
	radiusMeters := radiusKM * 1000

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
		"inventory.beds.available": bson.M{"$gt": 0},
	}

	if bloodGroup != "" {
		stockField := fmt.Sprintf("inventory.blood_stock.%s", models.BloodStockKey(bloodGroup))
		filter[stockField] = bson.M{"$gt": 0}
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find nearby hospitals: %w", err)
	}
	defer cursor.Close(ctx)

	var hospitals []*models.Hospital
	if err := cursor.All(ctx, &hospitals); err != nil {
		return nil, fmt.Errorf("failed to decode hospitals: %w", err)
	}

	return hospitals, nil
}

// reserveCounter is the single conditional decrement both bed and blood
// reservations go through: match only while the counter is positive, $inc
// it down, return the post-update document. Concurrent reservers race on
// the filter and Mongo guarantees exactly one wins the last unit.
func (r *hospitalRepository) reserveCounter(ctx context.Context, id primitive.ObjectID, field string, miss error) (*models.Hospital, error) {
	filter := bson.M{
		"_id": id,
		field: bson.M{"$gt": 0},
	}

	update := bson.M{
		"$inc": bson.M{field: -1},
		"$set": bson.M{"updated_at": time.Now()},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var hospital models.Hospital
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&hospital)
	if err == nil {
		return &hospital, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("failed to reserve %s: %w", field, err)
	}

	count, countErr := r.collection.CountDocuments(ctx, bson.M{"_id": id})
	if countErr != nil {
		return nil, fmt.Errorf("failed to check hospital existence: %w", countErr)
	}
	if count == 0 {
		return nil, interfaces.ErrHospitalNotFound
	}

	return nil, miss
}

func (r *hospitalRepository) releaseCounter(ctx context.Context, id primitive.ObjectID, field string, ceiling bson.M) error {
	filter := bson.M{"_id": id}
	for k, v := range ceiling {
		filter[k] = v
	}

	update := bson.M{
		"$inc": bson.M{field: 1},
		"$set": bson.M{"updated_at": time.Now()},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to release %s: %w", field, err)
	}
	if result.MatchedCount == 0 {
		count, countErr := r.collection.CountDocuments(ctx, bson.M{"_id": id})
		if countErr != nil {
			return fmt.Errorf("failed to check hospital existence: %w", countErr)
		}
		if count == 0 {
			return interfaces.ErrHospitalNotFound
		}
		// Counter already at its ceiling; releasing again is a no-op.
	}

	return nil
}

func (r *hospitalRepository) ReserveBed(ctx context.Context, id primitive.ObjectID) (*models.Hospital, error) {
	return r.reserveCounter(ctx, id, "inventory.beds.available", interfaces.ErrNoBedsAvailable)
}

func (r *hospitalRepository) ReleaseBed(ctx context.Context, id primitive.ObjectID) error {
	// available must stay <= total.
	ceiling := bson.M{
		"$expr": bson.M{"$lt": bson.A{"$inventory.beds.available", "$inventory.beds.total"}},
	}
	return r.releaseCounter(ctx, id, "inventory.beds.available", ceiling)
}

func (r *hospitalRepository) ReserveBloodUnit(ctx context.Context, id primitive.ObjectID, bloodGroup string) (*models.Hospital, error) {
	field := fmt.Sprintf("inventory.blood_stock.%s", models.BloodStockKey(bloodGroup))
	return r.reserveCounter(ctx, id, field, interfaces.ErrNoBloodStock)
}

func (r *hospitalRepository) ReleaseBloodUnit(ctx context.Context, id primitive.ObjectID, bloodGroup string) error {
	field := fmt.Sprintf("inventory.blood_stock.%s", models.BloodStockKey(bloodGroup))
	return r.releaseCounter(ctx, id, field, bson.M{})
}

func (r *hospitalRepository) UpdateInventory(ctx context.Context, id primitive.ObjectID, inventory models.HospitalInventory) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"inventory":  inventory,
			"updated_at": time.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to update hospital inventory: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrHospitalNotFound
	}

	return nil
}
