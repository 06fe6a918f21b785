package colorcache

import "time"

const (
	DefaultTTL        = time.Hour
	DefaultMaxEntries = 256
)

type Option func(*Store)

// WithTTL sets how long a verified entry may be served before its version is
// checked again. It only changes behaviour when version checks on hit are off.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

func WithClock(c Clock) Option {
	return func(s *Store) {
		s.clock = c
	}
}

// WithMaxEntries bounds the number of cached collections. The least recently
// used collection is dropped when the bound is reached.
func WithMaxEntries(n int) Option {
	return func(s *Store) {
		s.maxEntries = n
	}
}

// WithVersionCheckOnHit controls whether every cache hit stats the backing
// resource. When off, entries younger than the TTL are served without I/O.
func WithVersionCheckOnHit(check bool) Option {
	return func(s *Store) {
		s.versionCheckOnHit = check
	}
}
