package resourcestore

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinioNotFoundMapping(t *testing.T) {
	s := &MinioStore{bucket: "colors"}
	for _, code := range []string{"NoSuchKey", "NoSuchBucket", "NotFound"} {
		err := s.translate("stat", "behr/interior/good.json", minio.ErrorResponse{Code: code, StatusCode: 404})
		assert.ErrorIs(t, err, ErrResourceNotFound, code)
	}
	err := s.translate("stat", "behr/interior/good.json", minio.ErrorResponse{Code: "AccessDenied", StatusCode: 403})
	assert.ErrorIs(t, err, ErrResourceStoreError)
	assert.NotErrorIs(t, err, ErrResourceNotFound)
	assert.NotErrorIs(t, s.translate("get", "x", errors.New("connection refused")), ErrResourceNotFound)
}

func TestMinioObjectKey(t *testing.T) {
	s, err := NewMinioStore(MinioConfig{Endpoint: "localhost:9000", Bucket: "colors", Prefix: "/catalog/"})
	require.NoError(t, err)
	assert.Equal(t, "catalog/behr/interior/good.json", s.objectKey("behr/interior/good.json"))

	s, err = NewMinioStore(MinioConfig{Endpoint: "localhost:9000", Bucket: "colors"})
	require.NoError(t, err)
	assert.Equal(t, "behr/interior/good.json", s.objectKey("behr/interior/good.json"))
}

// Runs against a live server when PAINTSTUDIO_TEST_MINIO_ENDPOINT is set. The
// bucket named by PAINTSTUDIO_TEST_MINIO_BUCKET (default "paintstudio-test") must exist.
func TestMinioStoreIntegration(t *testing.T) {
	endpoint := os.Getenv("PAINTSTUDIO_TEST_MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("PAINTSTUDIO_TEST_MINIO_ENDPOINT not set")
	}
	bucket := os.Getenv("PAINTSTUDIO_TEST_MINIO_BUCKET")
	if bucket == "" {
		bucket = "paintstudio-test"
	}
	ctx := context.Background()
	s, err := NewMinioStore(MinioConfig{
		Endpoint:  endpoint,
		Bucket:    bucket,
		AccessKey: os.Getenv("PAINTSTUDIO_TEST_MINIO_ACCESS_KEY"),
		SecretKey: os.Getenv("PAINTSTUDIO_TEST_MINIO_SECRET_KEY"),
		Prefix:    "resourcestore-test",
	})
	require.NoError(t, err)

	p := "behr/interior/good.json"
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

	require.NoError(t, s.Put(ctx, p, []byte(`{"colors":[{"id":"a","name":"A","hex":"#000000"}]}`)))
	v2, err := s.Stat(ctx, p)
	require.NoError(t, err)
	assert.NotEqual(t, v1, v2)

	require.NoError(t, s.Delete(ctx, p))
}
