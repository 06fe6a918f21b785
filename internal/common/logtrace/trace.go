package logtrace

import (
	"github.com/rs/zerolog"
)

// IsTraceEnabled reports whether trace level logging is active.
func IsTraceEnabled() bool {
	return zerolog.GlobalLevel() <= zerolog.TraceLevel
}
