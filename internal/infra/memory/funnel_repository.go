package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quiz-funnel/internal/domain"
)

// FunnelLoader fetches funnel content from a backing store (embedded YAML, Postgres).
type FunnelLoader interface {
	LoadFunnel(ctx context.Context, funnelID string) (domain.Funnel, error)
}

// FunnelRepository caches funnels with TTL to avoid repeated backing store hits.
type FunnelRepository struct {
	loader FunnelLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedFunnel
}

type cachedFunnel struct {
	funnel    domain.Funnel
	expiresAt time.Time
}

func NewFunnelRepository(loader FunnelLoader, ttl time.Duration) *FunnelRepository {
	return &FunnelRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedFunnel),
	}
}

func (r *FunnelRepository) GetFunnel(ctx context.Context, funnelID string) (domain.Funnel, error) {
	if f, ok := r.cached(funnelID); ok {
		return f, nil
	}

	result, err, _ := r.sf.Do(funnelID, func() (interface{}, error) {
		if f, ok := r.cached(funnelID); ok {
			return f, nil
		}

		funnel, err := r.loader.LoadFunnel(ctx, funnelID)
		if err != nil {
			return domain.Funnel{}, err
		}
		if err := funnel.Validate(); err != nil {
			return domain.Funnel{}, err
		}

		r.mu.Lock()
		r.cache[funnelID] = cachedFunnel{
			funnel:    funnel,
			expiresAt: r.clock().Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return funnel, nil
	})
	if err != nil {
		return domain.Funnel{}, err
	}
	return result.(domain.Funnel), nil
}

func (r *FunnelRepository) cached(funnelID string) (domain.Funnel, bool) {
	now := r.clock()
	r.mu.RLock()
	defer r.mu.RUnlock()
	if entry, ok := r.cache[funnelID]; ok && entry.expiresAt.After(now) {
		return entry.funnel, true
	}
	return domain.Funnel{}, false
}

// StaticFunnelLoader is a loader backed by an in-memory map (embedded content, tests).
type StaticFunnelLoader struct {
	funnels map[string]domain.Funnel
}

func NewStaticFunnelLoader(funnels ...domain.Funnel) *StaticFunnelLoader {
	m := make(map[string]domain.Funnel, len(funnels))
	for _, f := range funnels {
		m[f.ID] = f
	}
	return &StaticFunnelLoader{funnels: m}
}

func (l *StaticFunnelLoader) LoadFunnel(_ context.Context, funnelID string) (domain.Funnel, error) {
	if f, ok := l.funnels[funnelID]; ok {
		return f, nil
	}
	return domain.Funnel{}, domain.ErrFunnelNotFound
}

func (r *FunnelRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
