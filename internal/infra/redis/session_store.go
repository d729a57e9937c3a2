package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-funnel/internal/domain"
)

// SessionStore keeps visitor progress in Redis so any instance can serve the
// next request. Each save refreshes the TTL, so idle visitors expire on their own.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Load(ctx context.Context, visitorID string) (domain.Progress, bool, error) {
	raw, err := s.client.Get(ctx, s.key(visitorID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Progress{}, false, nil
	}
	if err != nil {
		return domain.Progress{}, false, fmt.Errorf("load session: %w", err)
	}
	var p domain.Progress
	if err := json.Unmarshal(raw, &p); err != nil {
		// a corrupt entry is treated as a new visitor
		return domain.Progress{}, false, nil
	}
	return p, true, nil
}

func (s *SessionStore) Save(ctx context.Context, progress domain.Progress) error {
	data, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(progress.VisitorID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, visitorID string) error {
	return s.client.Del(ctx, s.key(visitorID)).Err()
}

func (s *SessionStore) key(visitorID string) string {
	return "funnel:session:" + visitorID
}
