package services

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"lifeline/internal/models"
	"lifeline/internal/repositories/interfaces"
	"lifeline/internal/utils"
	"lifeline/pkg/logger"
)

// ReservationService binds a trip to a destination hospital. The bed is a
// counted resource: reservation decrements it conditionally, so two crews
// racing for the last bed resolve to exactly one winner, and the loser gets
// a clean ErrNoBedsAvailable rather than an overbooked ward.
type ReservationService interface {
	// FindDestinations lists hospitals near the point with a free bed and,
	// when bloodGroup is non-empty, stock of that group.
	FindDestinations(ctx context.Context, origin models.GeoPoint, bloodGroup string) ([]*models.Hospital, error)

	// SelectHospital reserves a bed (and optionally a blood unit), binds
	// the hospital to the trip and alerts the hospital with the inbound
	// patient's summary. Any failure after the bed is held releases it.
	SelectHospital(ctx context.Context, tripID, hospitalID primitive.ObjectID, bloodGroup string) (*models.Trip, error)
}

type reservationService struct {
	trips     interfaces.TripRepository
	hospitals interfaces.HospitalRepository
	locator   LocatorService
	relay     RelayService
	logger    *logger.Logger
}

func NewReservationService(
	trips interfaces.TripRepository,
	hospitals interfaces.HospitalRepository,
	locator LocatorService,
	relay RelayService,
	log *logger.Logger,
) ReservationService {
	return &reservationService{
		trips:     trips,
		hospitals: hospitals,
		locator:   locator,
		relay:     relay,
		logger:    log,
	}
}

func (s *reservationService) FindDestinations(ctx context.Context, origin models.GeoPoint, bloodGroup string) ([]*models.Hospital, error) {
	return s.locator.FindHospitals(ctx, origin, bloodGroup)
}

func (s *reservationService) SelectHospital(ctx context.Context, tripID, hospitalID primitive.ObjectID, bloodGroup string) (*models.Trip, error) {
	log := s.logger.WithTripID(tripID).WithField("hospital_id", hospitalID.Hex())

	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if !trip.Status.IsActive() {
		return nil, interfaces.ErrStatusConflict
	}

	hospital, err := s.hospitals.ReserveBed(ctx, hospitalID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNoBedsAvailable) {
			s.notifyUnavailable(ctx, trip, hospitalID)
		}
		return nil, err
	}

	if bloodGroup != "" {
		if _, err := s.hospitals.ReserveBloodUnit(ctx, hospitalID, bloodGroup); err != nil {
			s.releaseBed(ctx, hospitalID, log)
			return nil, err
		}
	}

	bound, err := s.trips.BindHospital(ctx, tripID, hospitalID)
	if err != nil {
		// The bed is held but the trip will never arrive; give it back.
		s.releaseBed(ctx, hospitalID, log)
		if bloodGroup != "" {
			if relErr := s.hospitals.ReleaseBloodUnit(ctx, hospitalID, bloodGroup); relErr != nil {
				log.WithError(relErr).Error("Failed to release blood unit after bind failure")
			}
		}
		return nil, err
	}

	log.LogTripEvent(tripID, "hospital_bound", map[string]interface{}{
		"hospital_id":    hospitalID.Hex(),
		"beds_remaining": hospital.Inventory.Beds.Available,
	})

	s.alertHospital(ctx, bound, hospitalID, bloodGroup)

	return bound, nil
}

// alertHospital pre-notifies the receiving hospital so staff can prepare
// before the ambulance arrives.
func (s *reservationService) alertHospital(ctx context.Context, trip *models.Trip, hospitalID primitive.ObjectID, bloodGroup string) {
	payload := map[string]interface{}{
		"trip_id":         trip.ID.Hex(),
		"pickup_location": trip.PickupLocation,
		"patient":         trip.PatientSummary,
	}
	if trip.AmbulanceID != nil {
		payload["ambulance_id"] = trip.AmbulanceID.Hex()
	}
	if bloodGroup != "" {
		payload["blood_group"] = bloodGroup
	}

	if err := s.relay.Relay(ctx, hospitalID.Hex(), utils.EventCriticalAlert, payload); err != nil {
		s.logger.WithError(err).WithTripID(trip.ID).Warn("Failed to alert hospital")
	}
}

// notifyUnavailable tells the losing ambulance its chosen hospital filled
// up, so the crew can pick another destination.
func (s *reservationService) notifyUnavailable(ctx context.Context, trip *models.Trip, hospitalID primitive.ObjectID) {
	if trip.AmbulanceID == nil {
		return
	}

	err := s.relay.Relay(ctx, trip.AmbulanceID.Hex(), utils.EventBedUnavailable, map[string]interface{}{
		"trip_id":     trip.ID.Hex(),
		"hospital_id": hospitalID.Hex(),
	})
	if err != nil {
		s.logger.WithError(err).WithTripID(trip.ID).Warn("Failed to relay bed_unavailable")
	}
}

func (s *reservationService) releaseBed(ctx context.Context, hospitalID primitive.ObjectID, log *logger.Logger) {
	if err := s.hospitals.ReleaseBed(ctx, hospitalID); err != nil {
		log.WithError(err).Error("Failed to release bed after bind failure")
	}
}
