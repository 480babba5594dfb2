package featureflags

import (
	"os"
	"strings"
)

// Known flags. Both default to on; set FLAG_<NAME>=false to disable.
const (
	EntitlementCache = "ENTITLEMENT_CACHE"
	BackfillWorker   = "BACKFILL_WORKER"
)

// Enabled returns true if a flag is enabled via environment variable.
// Flags are read from env as FLAG_<NAME>=true/1/yes (case-insensitive).
func Enabled(name string) bool {
	v := os.Getenv("FLAG_" + strings.ToUpper(name))
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// EnabledDefault is Enabled with an explicit default for unset flags.
func EnabledDefault(name string, def bool) bool {
	if os.Getenv("FLAG_"+strings.ToUpper(name)) == "" {
		return def
	}
	return Enabled(name)
}
