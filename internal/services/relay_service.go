package services

import (
	"context"
	"encoding/json"
	"strings"

	"lifeline/pkg/cache"
	"lifeline/pkg/logger"
	"lifeline/pkg/websocket"
)

// RelayService pushes an event to an entity's live channel if it has one.
// Presence is a best-effort "is anyone listening right now" signal: an
// absent target means the event is dropped, not queued.
type RelayService interface {
	Relay(ctx context.Context, targetID, event string, payload map[string]interface{}) error
}

const relayChannelPrefix = "relay:"

// EventRelay publishes through Redis so the event reaches whichever node
// holds the target's socket; its subscriber loop forwards locally-held
// targets to the hub.
type EventRelay struct {
	presence PresenceService
	cache    *cache.RedisCache
	hub      *websocket.Hub
	logger   *logger.Logger
}

func NewEventRelay(presence PresenceService, redisCache *cache.RedisCache, hub *websocket.Hub, log *logger.Logger) *EventRelay {
	return &EventRelay{
		presence: presence,
		cache:    redisCache,
		hub:      hub,
		logger:   log,
	}
}

func (r *EventRelay) Relay(ctx context.Context, targetID, event string, payload map[string]interface{}) error {
	entry, err := r.presence.Lookup(ctx, targetID)
	if err != nil {
		return err
	}
	if entry == nil {
		r.logger.WithFields(map[string]interface{}{
			"target_id": targetID,
			"event":     event,
		}).Debug("Relay target not present, dropping event")
		return nil
	}

	message := websocket.NewMessage(event, payload)
	if err := r.cache.Publish(ctx, relayChannelPrefix+targetID, message); err != nil {
		return err
	}

	return nil
}

// Run subscribes to the relay channels and forwards events whose target is
// connected to this process. Blocks until the context is cancelled.
func (r *EventRelay) Run(ctx context.Context) {
	sub := r.cache.PSubscribe(ctx, relayChannelPrefix+"*")
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}

			targetID := strings.TrimPrefix(msg.Channel, relayChannelPrefix)
			if !r.hub.IsConnected(targetID) {
				continue
			}

			var message websocket.Message
			if err := json.Unmarshal([]byte(msg.Payload), &message); err != nil {
				r.logger.WithError(err).Warn("Failed to decode relayed event")
				continue
			}

			r.hub.SendToEntity(targetID, message)

		case <-ctx.Done():
			return
		}
	}
}
