package resourcestore

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"github.com/golang/snappy"
	"github.com/jackc/pgtype"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/rs/zerolog/log"

	"github.com/exteriorpros/paintstudio/internal/colorsrv/palette"
)

const createCollectionsTable = `
	CREATE TABLE IF NOT EXISTS color_collections (
		path TEXT PRIMARY KEY,
		document BYTEA NOT NULL,
		compressed BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp()
	);
`

type PostgresConfig struct {
	DSN string
	// Compress makes Put store snappy-compressed documents.
	Compress bool
}

// PostgresStore serves resources from the color_collections table. The
// updated_at column is the version.
type PostgresStore struct {
	db       *sql.DB
	compress bool
}

var (
	_ Store  = (*PostgresStore)(nil)
	_ Writer = (*PostgresStore)(nil)
)

func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, ErrStoreConfig.Msg("postgres dsn is required")
	}
	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("failed to open db")
		return nil, ErrStoreConfig.MsgErr("failed to open postgres", err)
	}
	if err := db.PingContext(ctx); err != nil {
		log.Error().Err(err).Msg("failed to ping db")
		_ = db.Close()
		return nil, ErrResourceStoreError.MsgErr("failed to ping postgres", err)
	}
	return NewPostgresStoreFromDB(db, cfg.Compress), nil
}

func NewPostgresStoreFromDB(db *sql.DB, compress bool) *PostgresStore {
	return &PostgresStore{db: db, compress: compress}
}

// EnsureSchema creates the collections table when it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createCollectionsTable); err != nil {
		return ErrResourceStoreError.MsgErr("failed to create color_collections", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) ResolvePath(key palette.Key) string {
	return KeyPath(key)
}

func (s *PostgresStore) Stat(ctx context.Context, p string) (Version, error) {
	var updatedAt pgtype.Timestamptz
	err := s.db.QueryRowContext(ctx, `SELECT updated_at FROM color_collections WHERE path = $1`, p).Scan(&updatedAt)
	if err != nil {
		return "", s.translate("stat", p, err)
	}
	return timestampVersion(updatedAt), nil
}

func (s *PostgresStore) ReadAndStat(ctx context.Context, p string) (*Resource, error) {
	var (
		document   []byte
		compressed bool
		updatedAt  pgtype.Timestamptz
	)
	query := `
		SELECT document, compressed, updated_at
		FROM color_collections
		WHERE path = $1
	`
	err := s.db.QueryRowContext(ctx, query, p).Scan(&document, &compressed, &updatedAt)
	if err != nil {
		return nil, s.translate("read", p, err)
	}
	if compressed {
		document, err = snappy.Decode(nil, document)
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Str("path", p).Msg("failed to uncompress colour document")
			return nil, ErrResourceStoreError.MsgErr("uncompress "+p, err)
		}
	}
	return &Resource{Path: p, Content: document, Version: timestampVersion(updatedAt)}, nil
}

func (s *PostgresStore) Put(ctx context.Context, p string, content []byte) error {
	data := content
	if s.compress {
		data = snappy.Encode(nil, content)
		log.Ctx(ctx).Debug().Msgf("raw: %d, compressed: %d", len(content), len(data))
	}
	query := `
		INSERT INTO color_collections (path, document, compressed, updated_at)
		VALUES ($1, $2, $3, clock_timestamp())
		ON CONFLICT (path) DO UPDATE
		SET document = EXCLUDED.document,
			compressed = EXCLUDED.compressed,
			updated_at = EXCLUDED.updated_at;
	`
	if _, err := s.db.ExecContext(ctx, query, p, data, s.compress); err != nil {
		return s.translate("put", p, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, p string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM color_collections WHERE path = $1`, p)
	if err != nil {
		return s.translate("delete", p, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return s.translate("delete", p, err)
	}
	if n == 0 {
		return ErrResourceNotFound.Msg("resource not found: " + p)
	}
	return nil
}

func (s *PostgresStore) translate(op, p string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrResourceNotFound.Msg("resource not found: " + p)
	}
	return ErrResourceStoreError.MsgErr(op+" "+p, err)
}

func timestampVersion(ts pgtype.Timestamptz) Version {
	return Version(strconv.FormatInt(ts.Time.UnixNano(), 10))
}
