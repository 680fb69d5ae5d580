package config

import (
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
)

// FeatureFlags manages feature toggles with optional gradual rollout.
// Users are assigned to a rollout bucket by a stable hash of their ID, so
// a user keeps the same answer across sessions.
type FeatureFlags struct {
	mu       sync.RWMutex
	features map[string]*Feature
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// RolloutPercent (0-100). 100 means everyone when Enabled.
	RolloutPercent int
}

// Predefined feature flag names.
const (
	// FeatureWeekendChallenges gates weekend-only challenge templates.
	FeatureWeekendChallenges = "challenges.weekend"

	// FeatureCommunityChallenges gates shared community goals.
	FeatureCommunityChallenges = "challenges.community"

	// FeatureComboEvents gates combo milestone celebrations in the UI feed.
	FeatureComboEvents = "combo.events"

	// FeatureRewardJournal gates the postgres reward history.
	FeatureRewardJournal = "journal.enabled"
)

// LoadFeatureFlags builds the flag set with defaults, then applies
// FEATURE_<NAME>=true/false/percent overrides from the environment
// (dots replaced with underscores: FEATURE_CHALLENGES_WEEKEND=50).
func LoadFeatureFlags() *FeatureFlags {
	flags := &FeatureFlags{features: make(map[string]*Feature)}

	defaults := []*Feature{
		{Name: FeatureWeekendChallenges, Description: "Weekend-only challenge templates", Enabled: true, RolloutPercent: 100},
		{Name: FeatureCommunityChallenges, Description: "Shared community goals", Enabled: true, RolloutPercent: 100},
		{Name: FeatureComboEvents, Description: "Combo milestone events", Enabled: true, RolloutPercent: 100},
		{Name: FeatureRewardJournal, Description: "Persistent reward history", Enabled: true, RolloutPercent: 100},
	}
	for _, f := range defaults {
		flags.features[f.Name] = f
	}

	flags.applyEnvOverrides()
	return flags
}

func (ff *FeatureFlags) applyEnvOverrides() {
	for name, feature := range ff.features {
		envKey := "FEATURE_" + strings.ToUpper(strings.ReplaceAll(name, ".", "_"))
		val, ok := os.LookupEnv(envKey)
		if !ok {
			continue
		}
		val = strings.ToLower(strings.TrimSpace(val))
		switch val {
		case "true", "1", "on":
			feature.Enabled = true
			feature.RolloutPercent = 100
		case "false", "0", "off":
			feature.Enabled = false
		default:
			if pct, err := strconv.Atoi(val); err == nil && pct >= 0 && pct <= 100 {
				feature.Enabled = pct > 0
				feature.RolloutPercent = pct
			}
		}
	}
}

// IsEnabled reports whether a feature is on for the given user.
func (ff *FeatureFlags) IsEnabled(name, userID string) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	feature, ok := ff.features[name]
	if !ok || !feature.Enabled {
		return false
	}
	if feature.RolloutPercent >= 100 {
		return true
	}
	return rolloutBucket(name, userID) < feature.RolloutPercent
}

// SetEnabled toggles a feature at runtime (tests, admin tooling).
func (ff *FeatureFlags) SetEnabled(name string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if feature, ok := ff.features[name]; ok {
		feature.Enabled = enabled
		if enabled && feature.RolloutPercent == 0 {
			feature.RolloutPercent = 100
		}
	}
}

// rolloutBucket maps (feature, user) to a stable bucket in [0, 100).
func rolloutBucket(name, userID string) int {
	h := fnv.New32a()
	h.Write([]byte(name))
	h.Write([]byte(":"))
	h.Write([]byte(userID))
	return int(h.Sum32() % 100)
}
