package services

import (
	"context"
	"fmt"
	"time"

	"lifeline/pkg/cache"
	"lifeline/pkg/logger"
)

// PresenceEntry records that an entity currently holds a live channel and
// which process node terminates it.
type PresenceEntry struct {
	EntityID    string    `json:"entity_id"`
	Role        string    `json:"role"`
	SessionID   string    `json:"session_id"`
	Node        string    `json:"node"`
	AnnouncedAt time.Time `json:"announced_at"`
}

// PresenceService is the shared registry of who is reachable right now.
// It lives in Redis so a dispatch decision made on one process can reach a
// socket held by another.
type PresenceService interface {
	// Announce registers the entity's live channel, replacing any prior
	// entry for the same id (a reconnect supersedes a stale registration).
	Announce(ctx context.Context, entityID, role, sessionID string) error
	// Lookup returns the entry for the entity, or nil when absent.
	Lookup(ctx context.Context, entityID string) (*PresenceEntry, error)
	// Withdraw removes the entry, but only while it still belongs to the
	// given session. A disconnect arriving after the entity reconnected is
	// a no-op, as is withdrawing an id that is already absent.
	Withdraw(ctx context.Context, entityID, sessionID string) error
	// Clear drops this node's entries; called on shutdown.
	Clear(ctx context.Context) error
}

// presenceStore is the slice of the Redis cache the registry needs.
type presenceStore interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error)
	Keys(ctx context.Context, pattern string) ([]string, error)
	Delete(ctx context.Context, keys ...string) error
}

const presenceKeyPrefix = "presence:"

// withdrawScript deletes the presence key only while it still carries the
// withdrawing session id. Runs atomically inside Redis so it cannot race a
// concurrent re-announce.
const withdrawScript = `
local raw = redis.call('GET', KEYS[1])
if not raw then
	return 0
end
local entry = cjson.decode(raw)
if entry.session_id == ARGV[1] then
	redis.call('DEL', KEYS[1])
	return 1
end
return 0
`

type presenceService struct {
	store  presenceStore
	node   string
	logger *logger.Logger
}

func NewPresenceService(store presenceStore, node string, log *logger.Logger) PresenceService {
	return &presenceService{
		store:  store,
		node:   node,
		logger: log,
	}
}

func presenceKey(entityID string) string {
	return presenceKeyPrefix + entityID
}

func (s *presenceService) Announce(ctx context.Context, entityID, role, sessionID string) error {
	entry := PresenceEntry{
		EntityID:    entityID,
		Role:        role,
		SessionID:   sessionID,
		Node:        s.node,
		AnnouncedAt: time.Now(),
	}

	if err := s.store.Set(ctx, presenceKey(entityID), entry, 0); err != nil {
		return fmt.Errorf("failed to announce presence: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"entity_id": entityID,
		"role":      role,
	}).Debug("Presence announced")

	return nil
}

func (s *presenceService) Lookup(ctx context.Context, entityID string) (*PresenceEntry, error) {
	var entry PresenceEntry
	err := s.store.Get(ctx, presenceKey(entityID), &entry)
	if err != nil {
		if cache.IsMiss(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up presence: %w", err)
	}

	return &entry, nil
}

func (s *presenceService) Withdraw(ctx context.Context, entityID, sessionID string) error {
	removed, err := s.store.Eval(ctx, withdrawScript, []string{presenceKey(entityID)}, sessionID)
	if err != nil {
		return fmt.Errorf("failed to withdraw presence: %w", err)
	}

	if n, ok := removed.(int64); ok && n == 1 {
		s.logger.WithEntityID(entityID).Debug("Presence withdrawn")
	}

	return nil
}

func (s *presenceService) Clear(ctx context.Context) error {
	keys, err := s.store.Keys(ctx, presenceKeyPrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to list presence entries: %w", err)
	}

	// Only this node's entries go; peers keep theirs.
	var stale []string
	for _, key := range keys {
		var entry PresenceEntry
		if err := s.store.Get(ctx, key, &entry); err != nil {
			continue
		}
		if entry.Node == s.node {
			stale = append(stale, key)
		}
	}

	if len(stale) == 0 {
		return nil
	}
	if err := s.store.Delete(ctx, stale...); err != nil {
		return fmt.Errorf("failed to clear presence entries: %w", err)
	}

	return nil
}
