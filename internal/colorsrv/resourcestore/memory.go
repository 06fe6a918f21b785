package resourcestore

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/exteriorpros/paintstudio/internal/colorsrv/palette"
)

type memoryResource struct {
	content []byte
	version Version
}

// MemoryStore keeps resources in memory and counts the operations made
// against it. Every Put produces a new version.
type MemoryStore struct {
	mu        sync.RWMutex
	resources map[string]memoryResource
	failures  map[string]error
	revision  uint64

	stats atomic.Int64
	reads atomic.Int64
}

var (
	_ Store  = (*MemoryStore)(nil)
	_ Writer = (*MemoryStore)(nil)
)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		resources: make(map[string]memoryResource),
		failures:  make(map[string]error),
	}
}

func (s *MemoryStore) ResolvePath(key palette.Key) string {
	return KeyPath(key)
}

func (s *MemoryStore) Stat(ctx context.Context, p string) (Version, error) {
	s.stats.Add(1)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.failures[p]; err != nil {
		return "", err
	}
	r, ok := s.resources[p]
	if !ok {
		return "", ErrResourceNotFound.Msg("resource not found: " + p)
	}
	return r.version, nil
}

func (s *MemoryStore) ReadAndStat(ctx context.Context, p string) (*Resource, error) {
	s.reads.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.failures[p]; err != nil {
		return nil, err
	}
	r, ok := s.resources[p]
	if !ok {
		return nil, ErrResourceNotFound.Msg("resource not found: " + p)
	}
	content := make([]byte, len(r.content))
	copy(content, r.content)
	return &Resource{Path: p, Content: content, Version: r.version}, nil
}

func (s *MemoryStore) Put(_ context.Context, p string, content []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revision++
	c := make([]byte, len(content))
	copy(c, content)
	s.resources[p] = memoryResource{content: c, version: Version("rev-" + strconv.FormatUint(s.revision, 10))}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, p string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.resources[p]; !ok {
		return ErrResourceNotFound.Msg("resource not found: " + p)
	}
	delete(s.resources, p)
	return nil
}

// Fail makes every operation on p return err until it is called again with nil.
func (s *MemoryStore) Fail(p string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, p)
		return
	}
	s.failures[p] = err
}

// Stats returns the number of Stat calls made so far.
func (s *MemoryStore) Stats() int64 { return s.stats.Load() }

// Reads returns the number of ReadAndStat calls made so far.
func (s *MemoryStore) Reads() int64 { return s.reads.Load() }
