package services

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"lifeline/internal/models"
	"lifeline/internal/repositories/interfaces"
	"lifeline/pkg/logger"
)

// ErrStatusOwnedBySystem is returned when a driver tries to toggle an
// ambulance that is currently bound to a trip. The on-trip flag is set and
// cleared by the trip lifecycle only.
var ErrStatusOwnedBySystem = errors.New("ambulance status is managed by its active trip")

type AmbulanceService interface {
	Register(ctx context.Context, ambulance *models.Ambulance) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.Ambulance, error)

	// SetAvailability lets a crew toggle between ready and offline.
	SetAvailability(ctx context.Context, id primitive.ObjectID, status models.AmbulanceStatus) error
}

type ambulanceService struct {
	ambulances interfaces.AmbulanceRepository
	logger     *logger.Logger
}

func NewAmbulanceService(ambulances interfaces.AmbulanceRepository, log *logger.Logger) AmbulanceService {
	return &ambulanceService{ambulances: ambulances, logger: log}
}

func (s *ambulanceService) Register(ctx context.Context, ambulance *models.Ambulance) error {
	if ambulance.Status == "" {
		ambulance.Status = models.AmbulanceStatusOffline
	}
	return s.ambulances.Create(ctx, ambulance)
}

func (s *ambulanceService) Get(ctx context.Context, id primitive.ObjectID) (*models.Ambulance, error) {
	return s.ambulances.GetByID(ctx, id)
}

func (s *ambulanceService) SetAvailability(ctx context.Context, id primitive.ObjectID, status models.AmbulanceStatus) error {
	if status != models.AmbulanceStatusReady && status != models.AmbulanceStatusOffline {
		return ErrStatusOwnedBySystem
	}

	current, err := s.ambulances.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current.Status == models.AmbulanceStatusOnTrip {
		return ErrStatusOwnedBySystem
	}

	if err := s.ambulances.SetStatus(ctx, id, status); err != nil {
		return err
	}

	s.logger.WithEntityID(id.Hex()).WithField("status", status).Info("Ambulance availability changed")
	return nil
}
