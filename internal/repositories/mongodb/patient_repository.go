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
)

type patientRepository struct {
	collection *mongo.Collection
}

func NewPatientRepository(db *mongo.Database) interfaces.PatientRepository {
	return &patientRepository{
		collection: db.Collection("patients"),
	}
}

func (r *patientRepository) Create(ctx context.Context, patient *models.Patient) error {
	now := time.Now()
	patient.ID = primitive.NewObjectID()
	patient.CreatedAt = now
	patient.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, patient)
	if err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}

	return nil
}

func (r *patientRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Patient, error) {
	var patient models.Patient
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&patient)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrPatientNotFound
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}

	return &patient, nil
}
