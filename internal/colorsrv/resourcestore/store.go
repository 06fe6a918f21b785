// Package resourcestore locates, stats and reads colour collection resources.
// A Version is an opaque modification marker: two stats of an unchanged
// resource return equal versions and any rewrite produces a different one.
package resourcestore

import (
	"context"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/exteriorpros/paintstudio/internal/colorsrv/palette"
)

type Version string

// Resource is the content of a resource together with the version it was read at.
type Resource struct {
	Path    string
	Content []byte
	Version Version
}

// Store is the read side used by the colour cache. Stat and ReadAndStat
// return an error matching ErrResourceNotFound when the resource is absent.
type Store interface {
	ResolvePath(key palette.Key) string
	Stat(ctx context.Context, path string) (Version, error)
	ReadAndStat(ctx context.Context, path string) (*Resource, error)
}

// Writer is implemented by stores that can publish resources. It is used by
// operator tooling, never by the request path.
type Writer interface {
	Put(ctx context.Context, path string, content []byte) error
	Delete(ctx context.Context, path string) error
}

// KeyPath is the relative location of a collection: {brand}/{paintType}/{qualityLevel}.json
func KeyPath(key palette.Key) string {
	return path.Join(key.Brand, key.PaintType, key.QualityLevel+".json")
}

// KeyFromPath is the inverse of KeyPath. The key it returns is not checked
// against the known brands, types and levels.
func KeyFromPath(p string) (palette.Key, error) {
	p = strings.TrimPrefix(path.Clean(filepath.ToSlash(p)), "/")
	parts := strings.Split(p, "/")
	if len(parts) != 3 || !strings.HasSuffix(parts[2], ".json") {
		return palette.Key{}, ErrInvalidPath.Msg("not a brand/type/level.json path: " + p)
	}
	key := palette.Key{Brand: parts[0], PaintType: parts[1], QualityLevel: strings.TrimSuffix(parts[2], ".json")}
	if key.Brand == "" || key.PaintType == "" || key.QualityLevel == "" {
		return palette.Key{}, ErrInvalidPath.Msg("not a brand/type/level.json path: " + p)
	}
	return key, nil
}

const (
	BackendFilesystem = "filesystem"
	BackendMinio      = "minio"
	BackendPostgres   = "postgres"
	BackendMemory     = "memory"
)

// Options selects and configures a backend for Open.
type Options struct {
	Backend        string
	FilesystemRoot string
	Minio          MinioConfig
	Postgres       PostgresConfig
}

// Close releases the connections held by s. Stores without connections are
// left alone.
func Close(s Store) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Open builds the store named by opts.Backend. Every backend also implements Writer.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case BackendFilesystem, "":
		if opts.FilesystemRoot == "" {
			return nil, ErrStoreConfig.Msg("filesystem root is required")
		}
		return NewFilesystemStore(opts.FilesystemRoot), nil
	case BackendMinio:
		return NewMinioStore(opts.Minio)
	case BackendPostgres:
		s, err := NewPostgresStore(ctx, opts.Postgres)
		if err != nil {
			return nil, err
		}
		if err := s.EnsureSchema(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil
	case BackendMemory:
		return NewMemoryStore(), nil
	}
	return nil, ErrStoreConfig.Msg("unknown backend: " + opts.Backend)
}
