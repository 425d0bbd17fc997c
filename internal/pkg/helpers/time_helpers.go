package helpers

import (
	"time"

	"github.com/rs/zerolog/log"
)

// ParseDuration parses a duration setting such as "15m" or "168h". Empty,
// malformed and non-positive values fall back to def.
func ParseDuration(value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		// The configured logger may not exist yet
		log.Warn().Err(err).Str("value", value).Dur("default", def).Msg("Invalid duration setting, using default")
		return def
	}
	return d
}
