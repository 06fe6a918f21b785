// Package colorcache keeps decoded colour collections in a bounded in-process
// cache keyed by brand:paintType:qualityLevel and revalidates them against
// the version of their backing resource.
package colorcache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/exteriorpros/paintstudio/internal/colorsrv/palette"
	"github.com/exteriorpros/paintstudio/internal/colorsrv/resourcestore"
)

// entry is never modified after it is added to the cache. Renewal replaces it.
type entry struct {
	collection *palette.Collection
	path       string
	version    resourcestore.Version
	loadedAt   time.Time
	verifiedAt time.Time
}

func (e *entry) renewed(now time.Time) *entry {
	r := *e
	r.verifiedAt = now
	return &r
}

// Stats is a point-in-time snapshot of cache activity.
type Stats struct {
	Hits         uint64 `json:"hits"`
	Misses       uint64 `json:"misses"`
	Loads        uint64 `json:"loads"`
	LoadFailures uint64 `json:"loadFailures"`
	Evictions    uint64 `json:"evictions"`
	Size         int    `json:"size"`
	Capacity     int    `json:"capacity"`
}

// Store is the colour catalog cache. It is safe for concurrent use.
type Store struct {
	resources         resourcestore.Store
	clock             Clock
	ttl               time.Duration
	maxEntries        int
	versionCheckOnHit bool

	entries *lru.Cache[string, *entry]
	loads   singleflight.Group

	// mu serialises writes to entries so a slow load cannot overwrite the
	// result of a clear or of a newer load.
	mu       sync.Mutex
	epoch    uint64            // bumped by ClearAll
	gens     map[string]uint64 // bumped by Clear, per key
	inflight map[string]int    // loads running per key

	hits         atomic.Uint64
	misses       atomic.Uint64
	loadCount    atomic.Uint64
	loadFailures atomic.Uint64
	evictions    atomic.Uint64
}

func New(resources resourcestore.Store, opts ...Option) (*Store, error) {
	if resources == nil {
		return nil, ErrInvalidOption.Msg("resource store is required")
	}
	s := &Store{
		resources:         resources,
		clock:             SystemClock,
		ttl:               DefaultTTL,
		maxEntries:        DefaultMaxEntries,
		versionCheckOnHit: true,
		gens:              make(map[string]uint64),
		inflight:          make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ttl <= 0 {
		return nil, ErrInvalidOption.Msg("ttl must be positive")
	}
	if s.clock == nil {
		return nil, ErrInvalidOption.Msg("clock is required")
	}
	entries, err := lru.NewWithEvict(s.maxEntries, func(key string, _ *entry) {
		log.Debug().Str("key", key).Msg("colour collection left the cache")
	})
	if err != nil {
		return nil, ErrInvalidOption.MsgErr("max entries must be positive", err)
	}
	s.entries = entries
	return s, nil
}

// GetCollection returns the collection for key, loading it when it is not
// cached or when the backing resource has a different version than the cached
// copy. Missing and malformed resources both yield ErrCollectionNotFound;
// malformed ones additionally match ErrMalformedCollection. Other failures to
// reach the resource yield ErrCatalogIO.
func (s *Store) GetCollection(ctx context.Context, key palette.Key) (*palette.Collection, error) {
	k := key.String()
	path := s.resources.ResolvePath(key)

	if e, ok := s.entries.Get(k); ok {
		c, fresh, err := s.revalidate(ctx, k, e)
		if err != nil {
			return nil, err
		}
		if fresh {
			s.hits.Add(1)
			return c, nil
		}
	}
	s.misses.Add(1)
	return s.load(ctx, key, k, path)
}

// revalidate reports whether e may still be served. fresh is false when the
// resource has a new version and must be reloaded.
func (s *Store) revalidate(ctx context.Context, k string, e *entry) (c *palette.Collection, fresh bool, err error) {
	now := s.clock.Now()
	age := now.Sub(e.verifiedAt)
	if !s.versionCheckOnHit && age < s.ttl {
		return e.collection, true, nil
	}

	version, err := s.resources.Stat(ctx, e.path)
	switch {
	case err == nil && version == e.version:
		if age >= s.ttl {
			s.replace(k, e, e.renewed(now))
		}
		return e.collection, true, nil
	case err == nil:
		log.Ctx(ctx).Debug().
			Str("key", k).
			Str("path", e.path).
			Str("cached_version", string(e.version)).
			Str("version", string(version)).
			Msg("colour collection changed")
		return nil, false, nil
	case errors.Is(err, resourcestore.ErrResourceNotFound):
		s.replace(k, e, nil)
		log.Ctx(ctx).Info().Str("key", k).Str("path", e.path).Msg("colour collection removed from catalog")
		return nil, false, ErrCollectionNotFound.Msg("colour collection not found: " + k)
	default:
		log.Ctx(ctx).Error().Err(err).Str("key", k).Str("path", e.path).Msg("failed to stat colour collection")
		return nil, false, ErrCatalogIO.Err(err)
	}
}

func (s *Store) load(ctx context.Context, key palette.Key, k, path string) (*palette.Collection, error) {
	// The load runs on behalf of every caller waiting on k, so it must not
	// be cut short when the first caller goes away.
	loadCtx := context.WithoutCancel(ctx)
	ch := s.loads.DoChan(k, func() (any, error) {
		return s.loadEntry(loadCtx, key, k, path)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*entry).collection, nil
	}
}

// generation identifies the clears a load has seen. A load may only store its
// result if no clear affecting its key happened since it started.
type generation struct {
	epoch uint64
	key   uint64
}

func (s *Store) generationLocked(k string) generation {
	return generation{epoch: s.epoch, key: s.gens[k]}
}

func (s *Store) loadEntry(ctx context.Context, key palette.Key, k, path string) (*entry, error) {
	s.mu.Lock()
	gen := s.generationLocked(k)
	s.inflight[k]++
	s.mu.Unlock()
	defer s.loadDone(k)

	logger := log.Ctx(ctx).With().Str("key", k).Str("path", path).Logger()

	res, err := s.resources.ReadAndStat(ctx, path)
	if err != nil {
		s.loadFailures.Add(1)
		s.drop(k)
		if errors.Is(err, resourcestore.ErrResourceNotFound) {
			logger.Info().Msg("colour collection not found")
			return nil, ErrCollectionNotFound.Msg("colour collection not found: " + k)
		}
		logger.Error().Err(err).Msg("failed to read colour collection")
		return nil, ErrCatalogIO.Err(err)
	}

	doc, err := palette.DecodeDocument(ctx, key, res.Content)
	if err != nil {
		s.loadFailures.Add(1)
		s.drop(k)
		if errors.Is(err, palette.ErrMalformedDocument) {
			logger.Warn().Err(err).Str("version", string(res.Version)).Msg("colour collection is malformed")
			return nil, ErrMalformedCollection.Err(err)
		}
		logger.Error().Err(err).Msg("failed to decode colour collection")
		return nil, ErrCatalogIO.Err(err)
	}

	now := s.clock.Now()
	e := &entry{
		collection: palette.NewCollection(ctx, key, doc, string(res.Version)),
		path:       path,
		version:    res.Version,
		loadedAt:   now,
		verifiedAt: now,
	}
	s.loadCount.Add(1)

	s.mu.Lock()
	if s.generationLocked(k) == gen {
		if s.entries.Add(k, e) {
			s.evictions.Add(1)
		}
	}
	s.mu.Unlock()

	logger.Debug().
		Str("version", string(res.Version)).
		Int("total", e.collection.Total).
		Msg("colour collection loaded")
	return e, nil
}

// replace swaps old for next, or removes it when next is nil, unless another
// writer got there first.
func (s *Store) replace(k string, old, next *entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.entries.Peek(k)
	if !ok || current != old {
		return
	}
	if next == nil {
		s.entries.Remove(k)
		return
	}
	s.entries.Add(k, next)
}

func (s *Store) loadDone(k string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight[k]--; s.inflight[k] <= 0 {
		delete(s.inflight, k)
	}
}

func (s *Store) drop(k string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries.Remove(k)
}

// Clear forgets the collection for key. The next request reloads it, even
// when a load for key started before the clear is still running.
func (s *Store) Clear(key palette.Key) {
	k := key.String()
	s.mu.Lock()
	s.gens[k]++
	s.entries.Remove(k)
	s.mu.Unlock()
	s.loads.Forget(k)
}

// ClearAll forgets every cached collection and every running load.
func (s *Store) ClearAll() {
	s.mu.Lock()
	s.epoch++
	s.entries.Purge()
	loading := make([]string, 0, len(s.inflight))
	for k := range s.inflight {
		loading = append(loading, k)
	}
	s.mu.Unlock()
	for _, k := range loading {
		s.loads.Forget(k)
	}
}

// Len returns the number of cached collections.
func (s *Store) Len() int {
	return s.entries.Len()
}

func (s *Store) Stats() Stats {
	return Stats{
		Hits:         s.hits.Load(),
		Misses:       s.misses.Load(),
		Loads:        s.loadCount.Load(),
		LoadFailures: s.loadFailures.Load(),
		Evictions:    s.evictions.Load(),
		Size:         s.entries.Len(),
		Capacity:     s.maxEntries,
	}
}
