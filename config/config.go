// Package config provides configuration loading for the requirement
// graph engine.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/reqgraph/health"
	"github.com/c360studio/reqgraph/hierarchy"
	"github.com/c360studio/reqgraph/scoring"
	"github.com/c360studio/reqgraph/storage"
)

// Config represents the complete engine configuration
type Config struct {
	NATS     NATSConfig     `yaml:"nats"`
	Storage  StorageConfig  `yaml:"storage"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	Health   HealthConfig   `yaml:"health"`
	Importer ImporterConfig `yaml:"importer"`
}

// NATSConfig configures the connection to the JetStream backend
type NATSConfig struct {
	// URL is the NATS server URL (default: nats://localhost:4222)
	URL string `yaml:"url"`
	// Timeout is the maximum time to wait when establishing the connection
	Timeout time.Duration `yaml:"timeout"`
}

// StorageConfig names the KV buckets backing the store
type StorageConfig struct {
	// VersionsBucket holds the append-only requirement version log
	VersionsBucket string `yaml:"versions_bucket"`
	// LocationsBucket holds the per-requirement location pointers
	LocationsBucket string `yaml:"locations_bucket"`
	// EdgesBucket holds the append-only dependency edge log
	EdgesBucket string `yaml:"edges_bucket"`
}

// ScoringConfig carries the friction scoring policy
type ScoringConfig struct {
	Policy scoring.Policy `yaml:"policy"`
}

// HealthConfig carries chain-depth limits, alert thresholds, and the
// set of requirements allowed to stay unconnected
type HealthConfig struct {
	Limits     health.Limits     `yaml:"limits"`
	Thresholds health.Thresholds `yaml:"thresholds"`
	// AllowIsolated lists logical ids the isolation check skips,
	// typically top-level roots created before anything depends on them
	AllowIsolated []string `yaml:"allow_isolated"`
}

// ImporterConfig configures document-seeded requirement import
type ImporterConfig struct {
	// Include lists glob patterns selecting seed documents
	Include []string `yaml:"include"`
	// Exclude removes matches from Include
	Exclude []string `yaml:"exclude"`
	// DefaultAuthor is recorded on versions created by an import
	DefaultAuthor string `yaml:"default_author"`
	// DefaultLevel applies when a document names no hierarchy level
	// and none can be detected from its title
	DefaultLevel string `yaml:"default_level"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		NATS: NATSConfig{
			URL:     "nats://localhost:4222",
			Timeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			VersionsBucket:  storage.BucketVersions,
			LocationsBucket: storage.BucketLocations,
			EdgesBucket:     storage.BucketEdges,
		},
		Scoring: ScoringConfig{
			Policy: scoring.DefaultPolicy(),
		},
		Health: HealthConfig{
			Limits:     health.DefaultLimits(),
			Thresholds: health.DefaultThresholds(),
		},
		Importer: ImporterConfig{
			Include:       []string{"**/*.md"},
			Exclude:       []string{"**/node_modules/**", "**/.git/**"},
			DefaultAuthor: "importer",
			DefaultLevel:  hierarchy.LevelTask.String(),
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.NATS.URL == "" {
		return fmt.Errorf("nats.url is required")
	}
	if c.Storage.VersionsBucket == "" || c.Storage.LocationsBucket == "" || c.Storage.EdgesBucket == "" {
		return fmt.Errorf("storage buckets must all be named")
	}
	if err := c.Scoring.Policy.Validate(); err != nil {
		return fmt.Errorf("scoring.policy: %w", err)
	}
	if c.Health.Limits.AdvisoryDepth < 1 {
		return fmt.Errorf("health.limits.advisory_depth must be at least 1")
	}
	if c.Health.Limits.HardDepth < c.Health.Limits.AdvisoryDepth {
		return fmt.Errorf("health.limits.hard_depth must not be below advisory_depth")
	}
	if c.Health.Thresholds.HealthScore < 0 || c.Health.Thresholds.HealthScore > 100 {
		return fmt.Errorf("health.thresholds.health_score must be between 0 and 100")
	}
	if c.Importer.DefaultLevel != "" {
		if _, ok := hierarchy.ParseLevel(c.Importer.DefaultLevel); !ok {
			return fmt.Errorf("importer.default_level %q is not a hierarchy level", c.Importer.DefaultLevel)
		}
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
	if other.NATS.Timeout != 0 {
		c.NATS.Timeout = other.NATS.Timeout
	}

	// Storage
	if other.Storage.VersionsBucket != "" {
		c.Storage.VersionsBucket = other.Storage.VersionsBucket
	}
	if other.Storage.LocationsBucket != "" {
		c.Storage.LocationsBucket = other.Storage.LocationsBucket
	}
	if other.Storage.EdgesBucket != "" {
		c.Storage.EdgesBucket = other.Storage.EdgesBucket
	}

	// Scoring policy, field by field: thresholds are negative by
	// construction, so zero means unset
	if len(other.Scoring.Policy.Weights) > 0 {
		c.Scoring.Policy.Weights = other.Scoring.Policy.Weights
	}
	if other.Scoring.Policy.HealthyAbove != 0 {
		c.Scoring.Policy.HealthyAbove = other.Scoring.Policy.HealthyAbove
	}
	if other.Scoring.Policy.NeedsAttentionAbove != 0 {
		c.Scoring.Policy.NeedsAttentionAbove = other.Scoring.Policy.NeedsAttentionAbove
	}
	if other.Scoring.Policy.AtRiskAbove != 0 {
		c.Scoring.Policy.AtRiskAbove = other.Scoring.Policy.AtRiskAbove
	}
	if other.Scoring.Policy.HighPriority != 0 {
		c.Scoring.Policy.HighPriority = other.Scoring.Policy.HighPriority
	}
	if other.Scoring.Policy.NumericRatio != 0 {
		c.Scoring.Policy.NumericRatio = other.Scoring.Policy.NumericRatio
	}
	if len(other.Scoring.Policy.AmbiguousTerms) > 0 {
		c.Scoring.Policy.AmbiguousTerms = other.Scoring.Policy.AmbiguousTerms
	}
	mergeLevelScores(&c.Scoring.Policy.Scores, other.Scoring.Policy.Scores)

	// Health
	if other.Health.Limits.AdvisoryDepth != 0 {
		c.Health.Limits.AdvisoryDepth = other.Health.Limits.AdvisoryDepth
	}
	if other.Health.Limits.HardDepth != 0 {
		c.Health.Limits.HardDepth = other.Health.Limits.HardDepth
	}
	if other.Health.Thresholds.HealthScore != 0 {
		c.Health.Thresholds.HealthScore = other.Health.Thresholds.HealthScore
	}
	if other.Health.Thresholds.IsolatedNodes != 0 {
		c.Health.Thresholds.IsolatedNodes = other.Health.Thresholds.IsolatedNodes
	}
	if other.Health.Thresholds.MaxDepth != 0 {
		c.Health.Thresholds.MaxDepth = other.Health.Thresholds.MaxDepth
	}
	if len(other.Health.AllowIsolated) > 0 {
		c.Health.AllowIsolated = other.Health.AllowIsolated
	}

	// Importer
	if len(other.Importer.Include) > 0 {
		c.Importer.Include = other.Importer.Include
	}
	if len(other.Importer.Exclude) > 0 {
		c.Importer.Exclude = other.Importer.Exclude
	}
	if other.Importer.DefaultAuthor != "" {
		c.Importer.DefaultAuthor = other.Importer.DefaultAuthor
	}
	if other.Importer.DefaultLevel != "" {
		c.Importer.DefaultLevel = other.Importer.DefaultLevel
	}
}

// mergeLevelScores overlays non-zero detector scores. Scores are
// negative by construction, so zero means unset.
func mergeLevelScores(dst *scoring.LevelScores, src scoring.LevelScores) {
	merge := func(d *float64, s float64) {
		if s != 0 {
			*d = s
		}
	}
	merge(&dst.AmbiguityHigh, src.AmbiguityHigh)
	merge(&dst.AmbiguityMedium, src.AmbiguityMedium)
	merge(&dst.PrioritySevere, src.PrioritySevere)
	merge(&dst.PriorityModerate, src.PriorityModerate)
	merge(&dst.TemporalDrift, src.TemporalDrift)
	merge(&dst.TemporalMajor, src.TemporalMajor)
	merge(&dst.TemporalMinor, src.TemporalMinor)
	merge(&dst.ContradictionUnresolvable, src.ContradictionUnresolvable)
	merge(&dst.ContradictionSevere, src.ContradictionSevere)
	merge(&dst.ContradictionModerate, src.ContradictionModerate)
	merge(&dst.HierarchyMismatch, src.HierarchyMismatch)
	merge(&dst.HierarchyAdvisory, src.HierarchyAdvisory)
	merge(&dst.ConstraintStep, src.ConstraintStep)
	merge(&dst.DuplicateIntegration, src.DuplicateIntegration)
	merge(&dst.DuplicateMerge, src.DuplicateMerge)
}
