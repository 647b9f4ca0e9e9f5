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

// TripService drives the trip lifecycle end to end: intake, acceptance,
// progress updates and the terminal transitions. All state-machine
// enforcement lives in the repository's conditional updates; this layer
// sequences the side effects (ambulance status flips, event relays) around
// them.
type TripService interface {
	RequestTrip(ctx context.Context, patientID primitive.ObjectID, pickup models.GeoPoint) (*models.Trip, error)
	GetTrip(ctx context.Context, tripID primitive.ObjectID) (*models.Trip, error)

	Accept(ctx context.Context, tripID, ambulanceID primitive.ObjectID) (*models.Trip, error)
	MarkEnRoute(ctx context.Context, tripID primitive.ObjectID) (*models.Trip, error)
	MarkArrived(ctx context.Context, tripID primitive.ObjectID) (*models.Trip, error)
	Complete(ctx context.Context, tripID primitive.ObjectID) (*models.Trip, error)
	Cancel(ctx context.Context, tripID primitive.ObjectID) (*models.Trip, error)

	// OperatorAssign is the manual fallback after escalation: an operator
	// binds a specific ambulance without the offer loop.
	OperatorAssign(ctx context.Context, tripID, ambulanceID primitive.ObjectID) (*models.Trip, error)

	// OperatorCreateTrip opens a trip already bound to a chosen ambulance,
	// for requests that arrive by phone rather than through the app.
	OperatorCreateTrip(ctx context.Context, patientID primitive.ObjectID, pickup models.GeoPoint, ambulanceID primitive.ObjectID) (*models.Trip, error)

	// UpdateLocation records an ambulance position and, while the ambulance
	// is on an active trip, forwards it to the patient.
	UpdateLocation(ctx context.Context, ambulanceID primitive.ObjectID, location models.GeoPoint) error

	ListByPatient(ctx context.Context, patientID primitive.ObjectID, limit int64) ([]*models.Trip, error)
	ListByAmbulance(ctx context.Context, ambulanceID primitive.ObjectID, limit int64) ([]*models.Trip, error)
	ListEscalated(ctx context.Context, limit int64) ([]*models.Trip, error)
}

type tripService struct {
	trips      interfaces.TripRepository
	ambulances interfaces.AmbulanceRepository
	patients   interfaces.PatientRepository
	dispatch   DispatchService
	relay      RelayService
	logger     *logger.Logger
}

func NewTripService(
	trips interfaces.TripRepository,
	ambulances interfaces.AmbulanceRepository,
	patients interfaces.PatientRepository,
	dispatch DispatchService,
	relay RelayService,
	log *logger.Logger,
) TripService {
	return &tripService{
		trips:      trips,
		ambulances: ambulances,
		patients:   patients,
		dispatch:   dispatch,
		relay:      relay,
		logger:     log,
	}
}

func (s *tripService) RequestTrip(ctx context.Context, patientID primitive.ObjectID, pickup models.GeoPoint) (*models.Trip, error) {
	patient, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}

	trip := &models.Trip{
		PatientID:      patientID,
		PickupLocation: pickup,
		Status:         models.TripStatusPending,
		PatientSummary: patient.Summary(),
	}

	if err := s.trips.Create(ctx, trip); err != nil {
		return nil, err
	}

	s.logger.LogTripEvent(trip.ID, "requested", map[string]interface{}{
		"patient_id": patientID.Hex(),
	})

	// The requester gets an immediate ack; matching runs in the background.
	s.dispatch.InitiateDispatch(trip)

	return trip, nil
}

func (s *tripService) GetTrip(ctx context.Context, tripID primitive.ObjectID) (*models.Trip, error) {
	return s.trips.GetByID(ctx, tripID)
}

func (s *tripService) Accept(ctx context.Context, tripID, ambulanceID primitive.ObjectID) (*models.Trip, error) {
	trip, err := s.trips.Accept(ctx, tripID, ambulanceID)
	if err != nil {
		if errors.Is(err, interfaces.ErrStatusConflict) {
			// The losing side of the race hears about it explicitly instead
			// of waiting on a dead offer.
			s.relayTo(ctx, ambulanceID.Hex(), utils.EventAlreadyTaken, map[string]interface{}{
				"trip_id": tripID.Hex(),
			})
		}
		return nil, err
	}

	if err := s.ambulances.SetStatus(ctx, ambulanceID, models.AmbulanceStatusOnTrip); err != nil {
		// The trip is already bound; a stale ambulance flag is recoverable,
		// a rolled-back acceptance is not.
		s.logger.WithError(err).WithTripID(tripID).Warn("Failed to flip ambulance to on-trip")
	}

	s.logger.LogTripEvent(tripID, "accepted", map[string]interface{}{
		"ambulance_id": ambulanceID.Hex(),
	})

	s.relayTo(ctx, trip.PatientID.Hex(), utils.EventAccepted, map[string]interface{}{
		"trip_id":      tripID.Hex(),
		"ambulance_id": ambulanceID.Hex(),
		"status":       trip.Status,
	})

	return trip, nil
}

func (s *tripService) MarkEnRoute(ctx context.Context, tripID primitive.ObjectID) (*models.Trip, error) {
	trip, err := s.trips.MarkEnRoute(ctx, tripID)
	if err != nil {
		return nil, err
	}
	s.notifyStatus(ctx, trip)
	return trip, nil
}

func (s *tripService) MarkArrived(ctx context.Context, tripID primitive.ObjectID) (*models.Trip, error) {
	trip, err := s.trips.MarkArrived(ctx, tripID)
	if err != nil {
		return nil, err
	}
	s.notifyStatus(ctx, trip)
	return trip, nil
}

func (s *tripService) Complete(ctx context.Context, tripID primitive.ObjectID) (*models.Trip, error) {
	trip, err := s.trips.Complete(ctx, tripID)
	if err != nil {
		return nil, err
	}

	s.releaseAmbulance(ctx, trip)
	s.logger.LogTripEvent(tripID, "completed", nil)
	s.notifyStatus(ctx, trip)
	return trip, nil
}

func (s *tripService) Cancel(ctx context.Context, tripID primitive.ObjectID) (*models.Trip, error) {
	trip, err := s.trips.Cancel(ctx, tripID)
	if err != nil {
		return nil, err
	}

	// A trip cancelled after acceptance still holds an ambulance.
	s.releaseAmbulance(ctx, trip)
	s.logger.LogTripEvent(tripID, "cancelled", nil)
	s.notifyStatus(ctx, trip)

	if trip.AmbulanceID != nil {
		s.relayTo(ctx, trip.AmbulanceID.Hex(), utils.EventStatusChanged, statusPayload(trip))
	}

	return trip, nil
}

func (s *tripService) OperatorAssign(ctx context.Context, tripID, ambulanceID primitive.ObjectID) (*models.Trip, error) {
	if _, err := s.ambulances.GetByID(ctx, ambulanceID); err != nil {
		return nil, err
	}

	trip, err := s.trips.AssignByOperator(ctx, tripID, ambulanceID)
	if err != nil {
		return nil, err
	}

	if err := s.ambulances.SetStatus(ctx, ambulanceID, models.AmbulanceStatusOnTrip); err != nil {
		s.logger.WithError(err).WithTripID(tripID).Warn("Failed to flip ambulance to on-trip")
	}

	s.logger.LogTripEvent(tripID, "operator_assigned", map[string]interface{}{
		"ambulance_id": ambulanceID.Hex(),
	})

	s.relayTo(ctx, trip.PatientID.Hex(), utils.EventAccepted, map[string]interface{}{
		"trip_id":              tripID.Hex(),
		"ambulance_id":         ambulanceID.Hex(),
		"status":               trip.Status,
		"assigned_by_operator": true,
	})
	s.relayTo(ctx, ambulanceID.Hex(), utils.EventOffer, map[string]interface{}{
		"trip_id":              tripID.Hex(),
		"pickup_location":      trip.PickupLocation,
		"patient":              trip.PatientSummary,
		"assigned_by_operator": true,
	})

	return trip, nil
}

func (s *tripService) OperatorCreateTrip(ctx context.Context, patientID primitive.ObjectID, pickup models.GeoPoint, ambulanceID primitive.ObjectID) (*models.Trip, error) {
	patient, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ambulances.GetByID(ctx, ambulanceID); err != nil {
		return nil, err
	}

	trip := &models.Trip{
		PatientID:      patientID,
		PickupLocation: pickup,
		Status:         models.TripStatusPending,
		PatientSummary: patient.Summary(),
	}
	if err := s.trips.Create(ctx, trip); err != nil {
		return nil, err
	}

	// No offer loop: the trip goes straight to the chosen crew.
	return s.OperatorAssign(ctx, trip.ID, ambulanceID)
}

func (s *tripService) UpdateLocation(ctx context.Context, ambulanceID primitive.ObjectID, location models.GeoPoint) error {
	if !location.IsValid() {
		return errors.New("invalid location coordinates")
	}

	if err := s.ambulances.UpdateLocation(ctx, ambulanceID, location); err != nil {
		return err
	}

	// Forward the position to the patient of this ambulance's current trip.
	// Once the crew has arrived the track is no longer useful to them.
	trips, err := s.trips.ListByAmbulance(ctx, ambulanceID, 1)
	if err != nil {
		return err
	}
	if len(trips) == 0 {
		return nil
	}
	if status := trips[0].Status; status != models.TripStatusAccepted && status != models.TripStatusEnRoute {
		return nil
	}

	s.relayTo(ctx, trips[0].PatientID.Hex(), utils.EventLocationUpdated, map[string]interface{}{
		"trip_id":  trips[0].ID.Hex(),
		"location": location,
	})
	return nil
}

func (s *tripService) ListByPatient(ctx context.Context, patientID primitive.ObjectID, limit int64) ([]*models.Trip, error) {
	return s.trips.ListByPatient(ctx, patientID, limit)
}

func (s *tripService) ListByAmbulance(ctx context.Context, ambulanceID primitive.ObjectID, limit int64) ([]*models.Trip, error) {
	return s.trips.ListByAmbulance(ctx, ambulanceID, limit)
}

func (s *tripService) ListEscalated(ctx context.Context, limit int64) ([]*models.Trip, error) {
	return s.trips.ListEscalated(ctx, limit)
}

func (s *tripService) notifyStatus(ctx context.Context, trip *models.Trip) {
	s.relayTo(ctx, trip.PatientID.Hex(), utils.EventStatusChanged, statusPayload(trip))
}

func (s *tripService) releaseAmbulance(ctx context.Context, trip *models.Trip) {
	if trip.AmbulanceID == nil {
		return
	}
	if err := s.ambulances.SetStatus(ctx, *trip.AmbulanceID, models.AmbulanceStatusReady); err != nil {
		s.logger.WithError(err).WithTripID(trip.ID).Warn("Failed to return ambulance to ready")
	}
}

func (s *tripService) relayTo(ctx context.Context, targetID, event string, payload map[string]interface{}) {
	if err := s.relay.Relay(ctx, targetID, event, payload); err != nil {
		s.logger.WithError(err).WithEntityID(targetID).Warn("Failed to relay event")
	}
}

func statusPayload(trip *models.Trip) map[string]interface{} {
	return map[string]interface{}{
		"trip_id": trip.ID.Hex(),
		"status":  trip.Status,
	}
}
