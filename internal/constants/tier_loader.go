package constants

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// LoadTierOverrides applies env-driven cap overrides on top of the built-in
// tier table. Recognized per tier:
//
//	TIER_<NAME>_MONTHLY_AUDITS
//	TIER_<NAME>_REQUESTS_PER_MINUTE
//
// e.g. TIER_FREE_MONTHLY_AUDITS=50. Call once at startup, before the gates
// read the table. Invalid values are logged and skipped.
func LoadTierOverrides(logger *slog.Logger) {
	for _, tier := range []string{TierFree, TierStarter, TierPro, TierInternal} {
		limits := GetTierLimits(tier)
		prefix := "TIER_" + strings.ToUpper(tier) + "_"
		changed := false

		if v, ok := envCap(prefix+"MONTHLY_AUDITS", logger); ok {
			limits.MonthlyAudits = v
			changed = true
		}
		if v, ok := envCap(prefix+"REQUESTS_PER_MINUTE", logger); ok {
			limits.RequestsPerMinute = v
			changed = true
		}

		if changed {
			SetTierLimits(tier, limits)
			if logger != nil {
				logger.Info("tier limits overridden",
					"tier", tier,
					"monthly_audits", limits.MonthlyAudits,
					"requests_per_minute", limits.RequestsPerMinute,
				)
			}
		}
	}
}

// envCap reads a non-negative integer cap from the environment. Zero is a
// valid override (unlimited).
func envCap(key string, logger *slog.Logger) (int, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		if logger != nil {
			logger.Warn("ignoring invalid tier override", "key", key, "value", raw)
		}
		return 0, false
	}
	return v, true
}
