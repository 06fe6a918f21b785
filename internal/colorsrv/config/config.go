package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/exteriorpros/paintstudio/internal/colorsrv/resourcestore"
)

// ConfigFormatVersion is the current version of the configuration file format
const ConfigFormatVersion = "0.1.0"

type FilesystemConfig struct {
	Root string `toml:"root"` // Directory holding {brand}/{type}/{level}.json
}

type MinioConfig struct {
	Endpoint  string `toml:"endpoint"`
	Bucket    string `toml:"bucket"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	UseSSL    bool   `toml:"use_ssl"`
	Prefix    string `toml:"prefix"` // Object key prefix inside the bucket
}

type PostgresConfig struct {
	DSN      string `toml:"dsn"`
	Compress bool   `toml:"compress"` // Store published documents snappy-compressed
}

// CatalogConfig selects where colour collections are read from and how they are cached.
type CatalogConfig struct {
	Backend           string           `toml:"backend"`              // filesystem | minio | postgres
	CacheTTL          string           `toml:"cache_ttl"`            // e.g. "1h"
	MaxEntries        int              `toml:"max_entries"`          // Upper bound on cached collections
	VersionCheckOnHit *bool            `toml:"version_check_on_hit"` // Stat the resource on every hit
	Filesystem        FilesystemConfig `toml:"filesystem"`
	Minio             MinioConfig      `toml:"minio"`
	Postgres          PostgresConfig   `toml:"postgres"`
}

// GetCacheTTL returns the cache ttl as time.Duration
func (c *CatalogConfig) GetCacheTTL() (time.Duration, error) {
	return ParseDuration(c.CacheTTL)
}

func (c *CatalogConfig) CheckVersionOnHit() bool {
	return c.VersionCheckOnHit == nil || *c.VersionCheckOnHit
}

// StoreOptions converts the catalog section into resource store options.
func (c *CatalogConfig) StoreOptions() resourcestore.Options {
	return resourcestore.Options{
		Backend:        c.Backend,
		FilesystemRoot: c.Filesystem.Root,
		Minio: resourcestore.MinioConfig{
			Endpoint:  c.Minio.Endpoint,
			Bucket:    c.Minio.Bucket,
			AccessKey: c.Minio.AccessKey,
			SecretKey: c.Minio.SecretKey,
			UseSSL:    c.Minio.UseSSL,
			Prefix:    c.Minio.Prefix,
		},
		Postgres: resourcestore.PostgresConfig{
			DSN:      c.Postgres.DSN,
			Compress: c.Postgres.Compress,
		},
	}
}

// InvalidationConfig holds the redis channel used to clear caches across replicas.
type InvalidationConfig struct {
	RedisURL string `toml:"redis_url"` // Empty disables the listener
	Channel  string `toml:"channel"`
}

// HTTPCacheConfig controls the Cache-Control header of colour responses.
type HTTPCacheConfig struct {
	MaxAge               string `toml:"max_age"`
	StaleWhileRevalidate string `toml:"stale_while_revalidate"`
}

func (h *HTTPCacheConfig) CacheControl() string {
	maxAge, err := ParseDuration(h.MaxAge)
	if err != nil {
		maxAge = time.Hour
	}
	swr, err := ParseDuration(h.StaleWhileRevalidate)
	if err != nil {
		swr = 2 * time.Hour
	}
	return fmt.Sprintf("public, max-age=%d, stale-while-revalidate=%d", int(maxAge.Seconds()), int(swr.Seconds()))
}

// ConfigParam holds all configuration parameters for the colour service
type ConfigParam struct {
	// Configuration version
	FormatVersion string `toml:"format_version"` // Version of this configuration file format

	// Server configuration
	ServerHostName     string   `toml:"server_hostname"`      // Hostname for the server
	ServerPort         string   `toml:"server_port"`          // Port for the server
	HandleCORS         bool     `toml:"handle_cors"`          // Whether to handle CORS
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"` // Origins allowed when CORS is handled
	LogLevel           string   `toml:"log_level"`            // zerolog level name

	Catalog      CatalogConfig      `toml:"catalog"`
	Invalidation InvalidationConfig `toml:"invalidation"`
	HTTPCache    HTTPCacheConfig    `toml:"http_cache"`
}

const (
	DefaultServerPort          = "8194"
	DefaultCatalogRoot         = "public/colors-json"
	DefaultCacheTTL            = "1h"
	DefaultMaxEntries          = 256
	DefaultInvalidationChannel = "paintstudio:colorcache:invalidate"
	DefaultMaxAge              = "1h"
	DefaultStaleWhileReval     = "2h"
)

var cfg *ConfigParam

// Config returns the current configuration
func Config() *ConfigParam {
	return cfg
}

// SetConfig replaces the current configuration. Tests use it to run without a file.
func SetConfig(c *ConfigParam) {
	cfg = c
}

// DefaultConfig returns a configuration that serves the filesystem catalog
// from the default root.
func DefaultConfig() *ConfigParam {
	c := &ConfigParam{FormatVersion: ConfigFormatVersion}
	applyDefaults(c)
	return c
}

func applyDefaults(c *ConfigParam) {
	if c.ServerPort == "" {
		c.ServerPort = DefaultServerPort
	}
	if c.Catalog.Backend == "" {
		c.Catalog.Backend = resourcestore.BackendFilesystem
	}
	if c.Catalog.Backend == resourcestore.BackendFilesystem && c.Catalog.Filesystem.Root == "" {
		c.Catalog.Filesystem.Root = DefaultCatalogRoot
	}
	if c.Catalog.CacheTTL == "" {
		c.Catalog.CacheTTL = DefaultCacheTTL
	}
	if c.Catalog.MaxEntries == 0 {
		c.Catalog.MaxEntries = DefaultMaxEntries
	}
	if c.Invalidation.Channel == "" {
		c.Invalidation.Channel = DefaultInvalidationChannel
	}
	if c.HTTPCache.MaxAge == "" {
		c.HTTPCache.MaxAge = DefaultMaxAge
	}
	if c.HTTPCache.StaleWhileRevalidate == "" {
		c.HTTPCache.StaleWhileRevalidate = DefaultStaleWhileReval
	}
}

// ParseDuration parses a duration string in the format "<number><unit>" where unit can be:
// - y: years
// - d: days
// - h: hours
// - m: minutes
// - s: seconds
func ParseDuration(input string) (time.Duration, error) {
	if len(input) < 2 {
		return 0, fmt.Errorf("invalid input format")
	}

	unit := input[len(input)-1:]
	valueStr := input[:len(input)-1]
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid number: %s", err)
	}
	if value < 0 {
		return 0, fmt.Errorf("negative duration: %s", input)
	}

	var duration time.Duration
	switch unit {
	case "d":
		duration = time.Duration(value) * 24 * time.Hour
	case "h":
		duration = time.Duration(value) * time.Hour
	case "m":
		duration = time.Duration(value) * time.Minute
	case "s":
		duration = time.Duration(value) * time.Second
	case "y":
		// Assuming 1 year = 365 days for simplicity
		duration = time.Duration(value) * 365 * 24 * time.Hour
	default:
		return 0, fmt.Errorf("unknown time unit: %s", unit)
	}

	return duration, nil
}

// ValidateConfig checks if all required configuration values are present and valid
func ValidateConfig(cfg *ConfigParam) error {
	if cfg.FormatVersion != ConfigFormatVersion {
		return fmt.Errorf("unsupported config file format version: %s", cfg.FormatVersion)
	}

	if cfg.ServerPort == "" {
		return fmt.Errorf("server_port is required")
	}
	if port, err := strconv.Atoi(cfg.ServerPort); err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("invalid server_port: %s", cfg.ServerPort)
	}
	if cfg.HandleCORS && len(cfg.CORSAllowedOrigins) == 0 {
		return fmt.Errorf("cors_allowed_origins is required when handle_cors is set")
	}

	// Catalog validation
	switch cfg.Catalog.Backend {
	case resourcestore.BackendFilesystem:
		if cfg.Catalog.Filesystem.Root == "" {
			return fmt.Errorf("catalog.filesystem.root is required")
		}
	case resourcestore.BackendMinio:
		if cfg.Catalog.Minio.Endpoint == "" {
			return fmt.Errorf("catalog.minio.endpoint is required")
		}
		if cfg.Catalog.Minio.Bucket == "" {
			return fmt.Errorf("catalog.minio.bucket is required")
		}
	case resourcestore.BackendPostgres:
		if cfg.Catalog.Postgres.DSN == "" {
			return fmt.Errorf("catalog.postgres.dsn is required")
		}
	default:
		return fmt.Errorf("unsupported catalog.backend: %s", cfg.Catalog.Backend)
	}
	ttl, err := ParseDuration(cfg.Catalog.CacheTTL)
	if err != nil {
		return fmt.Errorf("invalid catalog.cache_ttl: %v", err)
	}
	if ttl == 0 {
		return fmt.Errorf("catalog.cache_ttl must be positive")
	}
	if cfg.Catalog.MaxEntries < 0 {
		return fmt.Errorf("catalog.max_entries must be positive")
	}

	if _, err := ParseDuration(cfg.HTTPCache.MaxAge); err != nil {
		return fmt.Errorf("invalid http_cache.max_age: %v", err)
	}
	if _, err := ParseDuration(cfg.HTTPCache.StaleWhileRevalidate); err != nil {
		return fmt.Errorf("invalid http_cache.stale_while_revalidate: %v", err)
	}

	return nil
}

// LoadConfig loads configuration from a file
func LoadConfig(filename string) error {
	if filename == "" {
		return fmt.Errorf("config filename is required")
	}

	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	c, err := ParseConfig(string(content))
	if err != nil {
		return err
	}
	cfg = c
	return nil
}

// ParseConfig decodes, defaults and validates a configuration document.
func ParseConfig(content string) (*ConfigParam, error) {
	c := &ConfigParam{}
	if _, err := toml.Decode(content, c); err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}
	applyDefaults(c)
	if err := ValidateConfig(c); err != nil {
		return nil, fmt.Errorf("invalid configuration: %v", err)
	}
	return c, nil
}
