package services

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"lifeline/internal/config"
	"lifeline/internal/models"
	"lifeline/internal/repositories/interfaces"
	"lifeline/internal/utils"
	"lifeline/pkg/logger"
)

// DispatchService walks a trip's candidate list nearest-first, offering the
// trip to one live ambulance at a time. The sequential loop is advisory
// pacing only: acceptance is arbitrated solely by the conditional
// Pending -> Accepted transition, so a candidate accepting early or out of
// turn is always safe.
type DispatchService interface {
	// InitiateDispatch starts the offer loop for the trip and returns
	// immediately; the requester is acknowledged while matching runs.
	InitiateDispatch(trip *models.Trip)
}

type dispatchService struct {
	trips    interfaces.TripRepository
	locator  LocatorService
	presence PresenceService
	relay    RelayService
	pager    PagingService
	cfg      *config.DispatchConfig
	logger   *logger.Logger
}

func NewDispatchService(
	trips interfaces.TripRepository,
	locator LocatorService,
	presence PresenceService,
	relay RelayService,
	pager PagingService,
	cfg *config.DispatchConfig,
	log *logger.Logger,
) DispatchService {
	return &dispatchService{
		trips:    trips,
		locator:  locator,
		presence: presence,
		relay:    relay,
		pager:    pager,
		cfg:      cfg,
		logger:   log,
	}
}

func (s *dispatchService) InitiateDispatch(trip *models.Trip) {
	go s.run(context.Background(), trip)
}

func (s *dispatchService) run(ctx context.Context, trip *models.Trip) {
	log := s.logger.WithTripID(trip.ID)

	candidates, err := s.locator.FindAmbulances(ctx, trip.PickupLocation)
	if err != nil {
		// With no candidate list there is nothing to offer; fall through to
		// the escalation check so the trip is not silently stranded.
		log.WithError(err).Error("Candidate search failed")
	}

	for _, candidate := range candidates {
		// Re-check before every offer: the trip may have been accepted
		// early or cancelled while we were waiting on the previous window.
		status, err := s.trips.GetStatus(ctx, trip.ID)
		if err != nil {
			log.WithError(err).Error("Failed to re-check trip status, abandoning dispatch attempt")
			return
		}
		if status != models.TripStatusPending {
			log.WithField("status", status).Info("Trip left Pending, stopping offer loop")
			return
		}

		entry, err := s.presence.Lookup(ctx, candidate.ID.Hex())
		if err != nil {
			// One candidate's failure must not deny service to the rest.
			log.WithError(err).WithEntityID(candidate.ID.Hex()).Warn("Presence lookup failed, skipping candidate")
			continue
		}
		if entry == nil {
			// Offline candidates cost no window time.
			continue
		}

		if err := s.relay.Relay(ctx, candidate.ID.Hex(), utils.EventOffer, offerPayload(trip)); err != nil {
			log.WithError(err).WithEntityID(candidate.ID.Hex()).Warn("Failed to deliver offer, skipping candidate")
			continue
		}

		log.WithEntityID(candidate.ID.Hex()).Info("Offer sent, waiting for acceptance")

		if s.waitForResolution(ctx, trip.ID) {
			return
		}
	}

	s.escalate(ctx, trip, log)
}

// waitForResolution holds the offer window open, returning true as soon as
// the trip leaves Pending. A false return means the window expired with the
// trip still unclaimed.
func (s *dispatchService) waitForResolution(ctx context.Context, tripID primitive.ObjectID) bool {
	timer := time.NewTimer(s.cfg.OfferWindow)
	defer timer.Stop()

	ticker := time.NewTicker(s.cfg.StatusPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-timer.C:
			return false

		case <-ticker.C:
			status, err := s.trips.GetStatus(ctx, tripID)
			if err != nil {
				s.logger.WithError(err).WithTripID(tripID).Warn("Status poll failed during offer window")
				continue
			}
			if status != models.TripStatusPending {
				return true
			}

		case <-ctx.Done():
			return true
		}
	}
}

func (s *dispatchService) escalate(ctx context.Context, trip *models.Trip, log *logger.Logger) {
	updated, err := s.trips.MarkEscalated(ctx, trip.ID)
	if err != nil {
		if errors.Is(err, interfaces.ErrStatusConflict) {
			// Someone accepted or cancelled between the last check and now.
			return
		}
		log.WithError(err).Error("Failed to mark trip escalated")
		return
	}

	payload := offerPayload(updated)
	payload["patient_id"] = updated.PatientID.Hex()
	payload["escalated"] = true

	if err := s.relay.Relay(ctx, utils.OperatorChannelID, utils.EventEscalation, payload); err != nil {
		log.WithError(err).Warn("Failed to relay escalation event")
	}

	if s.pager != nil && s.cfg.PageOnEscalation {
		s.pager.PageOperators(ctx, updated)
	}

	log.Info("Trip escalated to operators")
}

func offerPayload(trip *models.Trip) map[string]interface{} {
	return map[string]interface{}{
		"trip_id":         trip.ID.Hex(),
		"pickup_location": trip.PickupLocation,
		"patient":         trip.PatientSummary,
	}
}
