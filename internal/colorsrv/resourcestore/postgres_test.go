package resourcestore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a live database when PAINTSTUDIO_TEST_PG_DSN is set.
func TestPostgresStoreIntegration(t *testing.T) {
	dsn := os.Getenv("PAINTSTUDIO_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("PAINTSTUDIO_TEST_PG_DSN not set")
	}
	ctx := context.Background()

	for _, compress := range []bool{false, true} {
		s, err := NewPostgresStore(ctx, PostgresConfig{DSN: dsn, Compress: compress})
		require.NoError(t, err)
		require.NoError(t, s.EnsureSchema(ctx))

		p := "resourcestore-test/behr/interior/good.json"
		_ = s.Delete(ctx, p)

		_, err = s.Stat(ctx, p)
		assert.ErrorIs(t, err, ErrResourceNotFound)

		require.NoError(t, s.Put(ctx, p, []byte(`{"colors":[]}`)))
		v1, err := s.Stat(ctx, p)
		require.NoError(t, err)
		r, err := s.ReadAndStat(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, v1, r.Version)
		assert.Equal(t, `{"colors":[]}`, string(r.Content))

		time.Sleep(time.Millisecond)
		require.NoError(t, s.Put(ctx, p, []byte(`{"colors":[{"id":"a","name":"A","hex":"#000000"}]}`)))
		v2, err := s.Stat(ctx, p)
		require.NoError(t, err)
		assert.NotEqual(t, v1, v2)

		require.NoError(t, s.Delete(ctx, p))
		assert.ErrorIs(t, s.Delete(ctx, p), ErrResourceNotFound)
		require.NoError(t, s.Close())
	}
}
