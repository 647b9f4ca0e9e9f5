package services

import (
	"context"

	"lifeline/internal/config"
	"lifeline/internal/models"
	"lifeline/internal/repositories/interfaces"
	"lifeline/pkg/logger"
)

// LocatorService finds dispatch candidates near a coordinate. For both
// searches an empty result is an expected outcome, never an error.
type LocatorService interface {
	// FindAmbulances searches ready ambulances ring by ring, widening the
	// radius until something is found or the ceiling is reached. Results
	// come back nearest first.
	FindAmbulances(ctx context.Context, origin models.GeoPoint) ([]*models.Ambulance, error)
	// FindHospitals is a single query at the ceiling radius, qualified by
	// free beds and optionally blood-group stock.
	FindHospitals(ctx context.Context, origin models.GeoPoint, bloodGroup string) ([]*models.Hospital, error)
}

type locatorService struct {
	ambulances interfaces.AmbulanceRepository
	hospitals  interfaces.HospitalRepository
	cfg        *config.DispatchConfig
	logger     *logger.Logger
}

func NewLocatorService(
	ambulances interfaces.AmbulanceRepository,
	hospitals interfaces.HospitalRepository,
	cfg *config.DispatchConfig,
	log *logger.Logger,
) LocatorService {
	return &locatorService{
		ambulances: ambulances,
		hospitals:  hospitals,
		cfg:        cfg,
		logger:     log,
	}
}

func (s *locatorService) FindAmbulances(ctx context.Context, origin models.GeoPoint) ([]*models.Ambulance, error) {
	// Expanding rings trade a few extra round trips for never issuing one
	// unbounded scan.
	for radius := s.cfg.SearchRadiusStepKM; radius <= s.cfg.SearchRadiusMaxKM; radius += s.cfg.SearchRadiusStepKM {
		ambulances, err := s.ambulances.FindNearbyReady(
			ctx,
			origin.Longitude(),
			origin.Latitude(),
			radius,
			int64(s.cfg.MaxCandidates),
		)
		if err != nil {
			return nil, err
		}

		if len(ambulances) > 0 {
			s.logger.WithFields(map[string]interface{}{
				"radius_km":  radius,
				"candidates": len(ambulances),
			}).Debug("Found ambulance candidates")
			return ambulances, nil
		}
	}

	s.logger.WithField("max_radius_km", s.cfg.SearchRadiusMaxKM).Info("No ready ambulances within ceiling radius")
	return nil, nil
}

func (s *locatorService) FindHospitals(ctx context.Context, origin models.GeoPoint, bloodGroup string) ([]*models.Hospital, error) {
	return s.hospitals.FindNearbyWithCapacity(
		ctx,
		origin.Longitude(),
		origin.Latitude(),
		s.cfg.HospitalRadiusKM,
		bloodGroup,
	)
}
