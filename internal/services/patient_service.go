package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"lifeline/internal/models"
	"lifeline/internal/repositories/interfaces"
)

type PatientService interface {
	Register(ctx context.Context, patient *models.Patient) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.Patient, error)
}

type patientService struct {
	patients interfaces.PatientRepository
}

func NewPatientService(patients interfaces.PatientRepository) PatientService {
	return &patientService{patients: patients}
}

func (s *patientService) Register(ctx context.Context, patient *models.Patient) error {
	return s.patients.Create(ctx, patient)
}

func (s *patientService) Get(ctx context.Context, id primitive.ObjectID) (*models.Patient, error) {
	return s.patients.GetByID(ctx, id)
}
