package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quiz-funnel/internal/domain"
)

// FunnelLoader fetches funnel content from a backing store (e.g., Postgres).
type FunnelLoader interface {
	LoadFunnel(ctx context.Context, funnelID string) (domain.Funnel, error)
}

// FunnelRepository caches funnel content in Redis and falls back to a loader on cache miss.
// Content is stored as JSON: SET funnel:{funnelID}:content {json} EX ttl
type FunnelRepository struct {
	client *redis.Client
	loader FunnelLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex
}

func NewFunnelRepository(client *redis.Client, loader FunnelLoader, ttl time.Duration) *FunnelRepository {
	return &FunnelRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *FunnelRepository) GetFunnel(ctx context.Context, funnelID string) (domain.Funnel, error) {
	if f, ok := r.fromCache(ctx, funnelID); ok {
		return f, nil
	}

	result, err, _ := r.sf.Do(funnelID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if f, ok := r.fromCache(ctx, funnelID); ok {
			return f, nil
		}

		funnel, err := r.loader.LoadFunnel(ctx, funnelID)
		if err != nil {
			return domain.Funnel{}, err
		}
		if err := funnel.Validate(); err != nil {
			return domain.Funnel{}, err
		}

		data, err := json.Marshal(funnel)
		if err != nil {
			return domain.Funnel{}, err
		}
		// a failed cache write only costs a reload next time
		if err := r.client.Set(ctx, r.contentKey(funnelID), data, r.ttlWithJitter()).Err(); err != nil {
			log.Printf("funnel cache write failed: %v", err)
		}
		return funnel, nil
	})
	if err != nil {
		return domain.Funnel{}, err
	}
	return result.(domain.Funnel), nil
}

// Invalidate removes the cached copy, e.g. after reseeding content.
func (r *FunnelRepository) Invalidate(ctx context.Context, funnelID string) error {
	return r.client.Del(ctx, r.contentKey(funnelID)).Err()
}

func (r *FunnelRepository) fromCache(ctx context.Context, funnelID string) (domain.Funnel, bool) {
	raw, err := r.client.Get(ctx, r.contentKey(funnelID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("funnel cache read failed: %v", err)
		}
		return domain.Funnel{}, false
	}
	var f domain.Funnel
	if err := json.Unmarshal(raw, &f); err != nil {
		return domain.Funnel{}, false
	}
	return f, true
}

func (r *FunnelRepository) contentKey(funnelID string) string {
	return "funnel:" + funnelID + ":content"
}

func (r *FunnelRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
