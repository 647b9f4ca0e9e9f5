package handlers

import (
	"context"
	"encoding/json"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"lifeline/internal/models"
	"lifeline/internal/services"
	"lifeline/internal/utils"
	"lifeline/pkg/logger"
	"lifeline/pkg/websocket"
)

// RealtimeHandler routes messages received on live connections. Ambulance
// crews stream position reports here instead of polling the HTTP endpoint.
type RealtimeHandler struct {
	tripService services.TripService
	logger      *logger.Logger
}

func NewRealtimeHandler(tripService services.TripService, log *logger.Logger) *RealtimeHandler {
	return &RealtimeHandler{tripService: tripService, logger: log}
}

// HandleInbound satisfies websocket.InboundHandler.
func (h *RealtimeHandler) HandleInbound(ctx context.Context, entityID, role string, msg websocket.Message) {
	switch msg.Event {
	case utils.EventLocationUpdated:
		h.handleLocationUpdate(ctx, entityID, role, msg)
	default:
		h.logger.WithEntityID(entityID).WithField("event", msg.Event).Debug("Ignoring unknown inbound event")
	}
}

func (h *RealtimeHandler) handleLocationUpdate(ctx context.Context, entityID, role string, msg websocket.Message) {
	if role != utils.EntityTypeAmbulance {
		return
	}

	ambulanceID, err := primitive.ObjectIDFromHex(entityID)
	if err != nil {
		h.logger.WithEntityID(entityID).Warn("Malformed entity id on live connection")
		return
	}

	var payload struct {
		Longitude float64 `json:"longitude"`
		Latitude  float64 `json:"latitude"`
	}
	if err := decodeData(msg.Data, &payload); err != nil {
		h.logger.WithEntityID(entityID).WithError(err).Debug("Malformed location update")
		return
	}

	location := models.NewGeoPoint(payload.Longitude, payload.Latitude)
	if err := h.tripService.UpdateLocation(ctx, ambulanceID, location); err != nil {
		h.logger.WithEntityID(entityID).WithError(err).Warn("Failed to apply location update")
	}
}

func decodeData(data map[string]interface{}, out interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
