package resourcestore

import (
	"bytes"
	"context"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/exteriorpros/paintstudio/internal/colorsrv/palette"
)

type MinioConfig struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Prefix    string

	// Client replaces the client built from the fields above.
	Client *minio.Client
}

// MinioStore serves resources from an S3 compatible bucket. The object ETag
// is the version.
type MinioStore struct {
	client *minio.Client
	bucket string
	prefix string
}

var (
	_ Store  = (*MinioStore)(nil)
	_ Writer = (*MinioStore)(nil)
)

func NewMinioStore(cfg MinioConfig) (*MinioStore, error) {
	if cfg.Bucket == "" {
		return nil, ErrStoreConfig.Msg("minio bucket is required")
	}
	client := cfg.Client
	if client == nil {
		if cfg.Endpoint == "" {
			return nil, ErrStoreConfig.Msg("minio endpoint is required")
		}
		var err error
		client, err = minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.UseSSL,
		})
		if err != nil {
			return nil, ErrStoreConfig.MsgErr("failed to create minio client", err)
		}
	}
	return &MinioStore{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

func (s *MinioStore) ResolvePath(key palette.Key) string {
	return KeyPath(key)
}

func (s *MinioStore) objectKey(p string) string {
	if s.prefix == "" {
		return p
	}
	return path.Join(s.prefix, p)
}

func (s *MinioStore) Stat(ctx context.Context, p string) (Version, error) {
	info, err := s.client.StatObject(ctx, s.bucket, s.objectKey(p), minio.StatObjectOptions{})
	if err != nil {
		return "", s.translate("stat", p, err)
	}
	return Version(info.ETag), nil
}

func (s *MinioStore) ReadAndStat(ctx context.Context, p string) (*Resource, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.objectKey(p), minio.GetObjectOptions{})
	if err != nil {
		return nil, s.translate("get", p, err)
	}
	defer func() {
		_ = obj.Close()
	}()

	// Stat on the open object describes the exact revision being streamed.
	info, err := obj.Stat()
	if err != nil {
		return nil, s.translate("get", p, err)
	}
	content, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.translate("read", p, err)
	}
	return &Resource{Path: p, Content: content, Version: Version(info.ETag)}, nil
}

func (s *MinioStore) Put(ctx context.Context, p string, content []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.objectKey(p), bytes.NewReader(content), int64(len(content)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return s.translate("put", p, err)
	}
	return nil
}

func (s *MinioStore) Delete(ctx context.Context, p string) error {
	if _, err := s.Stat(ctx, p); err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, s.objectKey(p), minio.RemoveObjectOptions{}); err != nil {
		return s.translate("remove", p, err)
	}
	return nil
}

func (s *MinioStore) translate(op, p string, err error) error {
	if isMinioNotFound(err) {
		return ErrResourceNotFound.Msg("resource not found: " + p)
	}
	return ErrResourceStoreError.MsgErr(op+" "+p, err)
}

func isMinioNotFound(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		return true
	}
	return false
}
