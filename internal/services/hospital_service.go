package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"lifeline/internal/models"
	"lifeline/internal/repositories/interfaces"
	"lifeline/pkg/logger"
)

type HospitalService interface {
	Register(ctx context.Context, hospital *models.Hospital) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.Hospital, error)

	// UpdateInventory replaces the hospital's published counts wholesale.
	// Used by hospital staff to correct the board; reservations never pass
	// through here.
	UpdateInventory(ctx context.Context, id primitive.ObjectID, inventory models.HospitalInventory) error
}

type hospitalService struct {
	hospitals interfaces.HospitalRepository
	logger    *logger.Logger
}

func NewHospitalService(hospitals interfaces.HospitalRepository, log *logger.Logger) HospitalService {
	return &hospitalService{hospitals: hospitals, logger: log}
}

func (s *hospitalService) Register(ctx context.Context, hospital *models.Hospital) error {
	if hospital.Inventory.Beds.Available > hospital.Inventory.Beds.Total {
		hospital.Inventory.Beds.Available = hospital.Inventory.Beds.Total
	}
	return s.hospitals.Create(ctx, hospital)
}

func (s *hospitalService) Get(ctx context.Context, id primitive.ObjectID) (*models.Hospital, error) {
	return s.hospitals.GetByID(ctx, id)
}

func (s *hospitalService) UpdateInventory(ctx context.Context, id primitive.ObjectID, inventory models.HospitalInventory) error {
	if inventory.Beds.Available > inventory.Beds.Total {
		inventory.Beds.Available = inventory.Beds.Total
	}

	if err := s.hospitals.UpdateInventory(ctx, id, inventory); err != nil {
		return err
	}

	s.logger.WithEntityID(id.Hex()).Info("Hospital inventory updated")
	return nil
}
