package colorcache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exteriorpros/paintstudio/internal/colorsrv/palette"
	"github.com/exteriorpros/paintstudio/internal/colorsrv/resourcestore"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var (
	behrInterior = palette.NewKey(palette.BrandBehr, palette.PaintTypeInterior, palette.QualityGood)
	ppgExterior  = palette.NewKey(palette.BrandPPG, palette.PaintTypeExterior, palette.QualityBest)
	swTrim       = palette.NewKey(palette.BrandSherwinWilliams, palette.PaintTypeTrimDoor, palette.QualityPremium)
)

// colorDocument builds a valid document with n distinct colours.
func colorDocument(n int) []byte {
	colors := make([]string, 0, n)
	for i := range n {
		colors = append(colors, fmt.Sprintf(`{"id":"c%d","name":"Color %d","hex":"#%02X%02X%02X"}`, i, i, i, 255-i, (i*7)%256))
	}
	return []byte(fmt.Sprintf(`{"meta":{"totalColors":%d},"colors":[%s]}`, n, strings.Join(colors, ",")))
}

func newTestStore(t *testing.T, opts ...Option) (*Store, *resourcestore.MemoryStore, *fakeClock) {
	t.Helper()
	resources := resourcestore.NewMemoryStore()
	clock := newFakeClock()
	s, err := New(resources, append([]Option{WithClock(clock)}, opts...)...)
	require.NoError(t, err)
	return s, resources, clock
}

func put(t *testing.T, rs *resourcestore.MemoryStore, key palette.Key, content []byte) {
	t.Helper()
	require.NoError(t, rs.Put(context.Background(), rs.ResolvePath(key), content))
}

func TestGetCollectionReadsOnce(t *testing.T) {
	ctx := context.Background()
	s, rs, _ := newTestStore(t)
	put(t, rs, behrInterior, colorDocument(4))

	c1, err := s.GetCollection(ctx, behrInterior)
	require.NoError(t, err)
	c2, err := s.GetCollection(ctx, behrInterior)
	require.NoError(t, err)

	assert.Equal(t, int64(1), rs.Reads())
	assert.Same(t, c1, c2)
	assert.Equal(t, 4, c1.Total)
	assert.Equal(t, behrInterior, c1.Key)

	st := s.Stats()
	assert.Equal(t, uint64(1), st.Hits)
	assert.Equal(t, uint64(1), st.Misses)
	assert.Equal(t, uint64(1), st.Loads)
	assert.Equal(t, 1, st.Size)
}

func TestGetCollectionReloadsOnVersionChange(t *testing.T) {
	ctx := context.Background()
	s, rs, _ := newTestStore(t)
	put(t, rs, behrInterior, colorDocument(2))

	c1, err := s.GetCollection(ctx, behrInterior)
	require.NoError(t, err)
	assert.Equal(t, 2, c1.Total)

	put(t, rs, behrInterior, colorDocument(5))
	c2, err := s.GetCollection(ctx, behrInterior)
	require.NoError(t, err)
	assert.Equal(t, 5, c2.Total)
	assert.NotEqual(t, c1.SourceVersion, c2.SourceVersion)
	assert.Equal(t, int64(2), rs.Reads())

	// the replaced collection is untouched
	assert.Len(t, c1.Colors, 2)
}

func TestMalformedCollectionIsNotCached(t *testing.T) {
	ctx := context.Background()
	s, rs, _ := newTestStore(t)
	put(t, rs, behrInterior, []byte(`{"meta":{},"colors":{"not":"an array"}}`))

	for i := 1; i <= 2; i++ {
		_, err := s.GetCollection(ctx, behrInterior)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrCollectionNotFound)
		assert.ErrorIs(t, err, ErrMalformedCollection)
		assert.ErrorIs(t, err, palette.ErrMalformedDocument)
		assert.Equal(t, int64(i), rs.Reads())
		assert.Equal(t, 0, s.Len())
	}

	put(t, rs, behrInterior, colorDocument(3))
	c, err := s.GetCollection(ctx, behrInterior)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Total)
	assert.Equal(t, uint64(2), s.Stats().LoadFailures)
}

func TestUnusableMetaIsIgnored(t *testing.T) {
	ctx := context.Background()
	docs := map[string]string{
		"null total":   `{"meta":{"totalColors":null},"colors":[{"id":"a","name":"A","hex":"#112233"}]}`,
		"string total": `{"meta":{"totalColors":"1"},"colors":[{"id":"a","name":"A","hex":"#112233"}]}`,
		"null date":    `{"meta":{"lastUpdated":null},"colors":[{"id":"a","name":"A","hex":"#112233"}]}`,
	}
	for name, content := range docs {
		t.Run(name, func(t *testing.T) {
			s, rs, _ := newTestStore(t)
			put(t, rs, behrInterior, []byte(content))

			c, err := s.GetCollection(ctx, behrInterior)
			require.NoError(t, err)
			assert.Equal(t, 1, c.Total)
			require.Len(t, c.Colors, 1)
			assert.Equal(t, "#112233", c.Colors[0].Hex)
			assert.Nil(t, c.Meta.TotalColors)
		})
	}
}

func TestMalformedReplacementDropsCachedCollection(t *testing.T) {
	ctx := context.Background()
	s, rs, _ := newTestStore(t)
	put(t, rs, behrInterior, colorDocument(3))
	_, err := s.GetCollection(ctx, behrInterior)
	require.NoError(t, err)

	put(t, rs, behrInterior, []byte(`{"colors": [`))
	_, err = s.GetCollection(ctx, behrInterior)
	assert.ErrorIs(t, err, ErrCollectionNotFound)
	assert.Equal(t, 0, s.Len())
}

func TestMissingCollectionThenCreated(t *testing.T) {
	ctx := context.Background()
	s, rs, _ := newTestStore(t)

	_, err := s.GetCollection(ctx, behrInterior)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCollectionNotFound)
	assert.NotErrorIs(t, err, ErrMalformedCollection)

	put(t, rs, behrInterior, colorDocument(3))
	s.Clear(behrInterior)

	c, err := s.GetCollection(ctx, behrInterior)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Total)
}

func TestDeletedResourceEvictsEntry(t *testing.T) {
	ctx := context.Background()
	s, rs, _ := newTestStore(t)
	put(t, rs, behrInterior, colorDocument(3))
	_, err := s.GetCollection(ctx, behrInterior)
	require.NoError(t, err)
	require.Equal(t, 1, s.Len())

	require.NoError(t, rs.Delete(ctx, rs.ResolvePath(behrInterior)))
	_, err = s.GetCollection(ctx, behrInterior)
	assert.ErrorIs(t, err, ErrCollectionNotFound)
	assert.Equal(t, 0, s.Len())
}

func TestUnexpectedStoreErrors(t *testing.T) {
	ctx := context.Background()
	s, rs, _ := newTestStore(t)
	path := rs.ResolvePath(behrInterior)
	denied := errors.New("permission denied")

	rs.Fail(path, denied)
	_, err := s.GetCollection(ctx, behrInterior)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCatalogIO)
	assert.ErrorIs(t, err, denied)
	assert.NotErrorIs(t, err, ErrCollectionNotFound)

	rs.Fail(path, nil)
	put(t, rs, behrInterior, colorDocument(1))
	_, err = s.GetCollection(ctx, behrInterior)
	require.NoError(t, err)

	// a failing stat keeps the cached entry
	rs.Fail(path, denied)
	_, err = s.GetCollection(ctx, behrInterior)
	assert.ErrorIs(t, err, ErrCatalogIO)
	assert.Equal(t, 1, s.Len())
}

func TestKeysAreCaseSensitive(t *testing.T) {
	ctx := context.Background()
	s, rs, _ := newTestStore(t)
	put(t, rs, behrInterior, colorDocument(1))

	_, err := s.GetCollection(ctx, palette.Key{Brand: "BEHR", PaintType: "interior", QualityLevel: "good"})
	assert.ErrorIs(t, err, ErrCollectionNotFound)
}

func TestTTLGatedVersionCheck(t *testing.T) {
	ctx := context.Background()
	s, rs, clock := newTestStore(t, WithVersionCheckOnHit(false), WithTTL(time.Minute))
	put(t, rs, behrInterior, colorDocument(2))

	_, err := s.GetCollection(ctx, behrInterior)
	require.NoError(t, err)
	statsAfterLoad := rs.Stats()

	// inside the TTL nothing is checked, even if the resource changed
	put(t, rs, behrInterior, colorDocument(4))
	c, err := s.GetCollection(ctx, behrInterior)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Total)
	assert.Equal(t, statsAfterLoad, rs.Stats())

	clock.Advance(2 * time.Minute)
	c, err = s.GetCollection(ctx, behrInterior)
	require.NoError(t, err)
	assert.Equal(t, 4, c.Total)
	assert.Equal(t, int64(2), rs.Reads())
}

func TestTTLExpiryWithSameVersionRenews(t *testing.T) {
	ctx := context.Background()
	s, rs, clock := newTestStore(t, WithVersionCheckOnHit(false), WithTTL(time.Minute))
	put(t, rs, behrInterior, colorDocument(2))

	c1, err := s.GetCollection(ctx, behrInterior)
	require.NoError(t, err)

	clock.Advance(90 * time.Second)
	c2, err := s.GetCollection(ctx, behrInterior)
	require.NoError(t, err)
	assert.Same(t, c1, c2)
	assert.Equal(t, int64(1), rs.Reads())
	stats := rs.Stats()

	// renewed, so the next call inside the new window does not stat
	clock.Advance(30 * time.Second)
	_, err = s.GetCollection(ctx, behrInterior)
	require.NoError(t, err)
	assert.Equal(t, stats, rs.Stats())
}

func TestDefaultChecksVersionOnEveryHit(t *testing.T) {
	ctx := context.Background()
	s, rs, _ := newTestStore(t)
	put(t, rs, behrInterior, colorDocument(2))

	for range 3 {
		_, err := s.GetCollection(ctx, behrInterior)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(2), rs.Stats())
	assert.Equal(t, int64(1), rs.Reads())
}

func TestClearAndClearAll(t *testing.T) {
	ctx := context.Background()
	s, rs, _ := newTestStore(t)
	put(t, rs, behrInterior, colorDocument(1))
	put(t, rs, ppgExterior, colorDocument(2))

	_, err := s.GetCollection(ctx, behrInterior)
	require.NoError(t, err)
	_, err = s.GetCollection(ctx, ppgExterior)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())

	s.Clear(behrInterior)
	s.Clear(behrInterior)
	s.Clear(swTrim)
	assert.Equal(t, 1, s.Len())

	s.ClearAll()
	s.ClearAll()
	assert.Equal(t, 0, s.Len())

	_, err = s.GetCollection(ctx, ppgExterior)
	require.NoError(t, err)
	assert.Equal(t, int64(3), rs.Reads())
}

func TestLeastRecentlyUsedEviction(t *testing.T) {
	ctx := context.Background()
	s, rs, _ := newTestStore(t, WithMaxEntries(2))
	for _, k := range []palette.Key{behrInterior, ppgExterior, swTrim} {
		put(t, rs, k, colorDocument(1))
		_, err := s.GetCollection(ctx, k)
		require.NoError(t, err)
	}
	st := s.Stats()
	assert.Equal(t, 2, st.Size)
	assert.Equal(t, 2, st.Capacity)
	assert.Equal(t, uint64(1), st.Evictions)

	// behrInterior was evicted and is read again
	_, err := s.GetCollection(ctx, behrInterior)
	require.NoError(t, err)
	assert.Equal(t, int64(4), rs.Reads())
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	rs := resourcestore.NewMemoryStore()
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrInvalidOption)
	_, err = New(rs, WithTTL(0))
	assert.ErrorIs(t, err, ErrInvalidOption)
	_, err = New(rs, WithMaxEntries(0))
	assert.ErrorIs(t, err, ErrInvalidOption)
	_, err = New(rs, WithClock(nil))
	assert.ErrorIs(t, err, ErrInvalidOption)
}

// blockingStore holds the first read until release is closed.
type blockingStore struct {
	*resourcestore.MemoryStore
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (b *blockingStore) ReadAndStat(ctx context.Context, path string) (*resourcestore.Resource, error) {
	b.once.Do(func() { close(b.started) })
	<-b.release
	return b.MemoryStore.ReadAndStat(ctx, path)
}

func TestConcurrentLoadsAreCollapsed(t *testing.T) {
	ctx := context.Background()
	rs := &blockingStore{
		MemoryStore: resourcestore.NewMemoryStore(),
		started:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	require.NoError(t, rs.Put(ctx, rs.ResolvePath(behrInterior), colorDocument(6)))
	s, err := New(rs)
	require.NoError(t, err)

	const callers = 16
	results := make([]*palette.Collection, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = s.GetCollection(ctx, behrInterior)
		}()
	}

	<-rs.started
	time.Sleep(50 * time.Millisecond)
	close(rs.release)
	wg.Wait()

	for i := range callers {
		require.NoError(t, errs[i])
		assert.Same(t, results[0], results[i])
	}
	assert.Equal(t, int64(1), rs.Reads())
}

// snapshotStore reads the resource, then holds the first read until release
// is closed, so the held load returns what was stored when it started.
type snapshotStore struct {
	*resourcestore.MemoryStore
	held    atomic.Bool
	started chan struct{}
	release chan struct{}
}

func newSnapshotStore() *snapshotStore {
	return &snapshotStore{
		MemoryStore: resourcestore.NewMemoryStore(),
		started:     make(chan struct{}),
		release:     make(chan struct{}),
	}
}

func (b *snapshotStore) ReadAndStat(ctx context.Context, path string) (*resourcestore.Resource, error) {
	res, err := b.MemoryStore.ReadAndStat(ctx, path)
	if b.held.CompareAndSwap(false, true) {
		close(b.started)
		<-b.release
	}
	return res, err
}

func TestClearAllDetachesRunningLoad(t *testing.T) {
	ctx := context.Background()
	rs := newSnapshotStore()
	require.NoError(t, rs.Put(ctx, rs.ResolvePath(behrInterior), colorDocument(2)))
	s, err := New(rs)
	require.NoError(t, err)

	held := make(chan *palette.Collection, 1)
	go func() {
		c, err := s.GetCollection(ctx, behrInterior)
		assert.NoError(t, err)
		held <- c
	}()
	<-rs.started

	require.NoError(t, rs.Put(ctx, rs.ResolvePath(behrInterior), colorDocument(5)))
	s.ClearAll()

	fresh := make(chan *palette.Collection, 1)
	go func() {
		c, err := s.GetCollection(ctx, behrInterior)
		assert.NoError(t, err)
		fresh <- c
	}()
	select {
	case c := <-fresh:
		require.NotNil(t, c)
		assert.Equal(t, 5, c.Total)
	case <-time.After(5 * time.Second):
		close(rs.release)
		t.Fatal("request after ClearAll joined the load started before it")
	}

	close(rs.release)
	c := <-held
	require.NotNil(t, c)
	assert.Equal(t, 2, c.Total)

	c, err = s.GetCollection(ctx, behrInterior)
	require.NoError(t, err)
	assert.Equal(t, 5, c.Total)
	assert.Equal(t, int64(2), rs.Reads())
}

func TestClearLeavesOtherLoadsCacheable(t *testing.T) {
	ctx := context.Background()
	rs := newSnapshotStore()
	require.NoError(t, rs.Put(ctx, rs.ResolvePath(ppgExterior), colorDocument(3)))
	s, err := New(rs)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := s.GetCollection(ctx, ppgExterior)
		assert.NoError(t, err)
	}()
	<-rs.started
	s.Clear(behrInterior)
	close(rs.release)
	<-done

	assert.Equal(t, 1, s.Len())
	c, err := s.GetCollection(ctx, ppgExterior)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Total)
	assert.Equal(t, int64(1), rs.Reads())
}

func TestConcurrentMixedKeys(t *testing.T) {
	ctx := context.Background()
	s, rs, _ := newTestStore(t, WithMaxEntries(2))
	keys := []palette.Key{behrInterior, ppgExterior, swTrim}
	for i, k := range keys {
		put(t, rs, k, colorDocument(i+1))
	}

	var wg sync.WaitGroup
	for i := range 60 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			k := keys[i%len(keys)]
			c, err := s.GetCollection(ctx, k)
			if assert.NoError(t, err) {
				assert.Equal(t, k, c.Key)
				assert.Equal(t, i%len(keys)+1, c.Total)
			}
			if i%10 == 0 {
				s.Clear(k)
			}
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, s.Len(), 2)
}
