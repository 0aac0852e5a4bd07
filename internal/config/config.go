// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers a YAML file and OPENRAMP_ environment variables on top.
// - Errors are wrapped with this package's sentinels.
package config

import (
	"context"
	"time"

	"github.com/AVALorrie37/OpenRamp/internal/domain/model"
	"github.com/AVALorrie37/OpenRamp/internal/domain/scoring"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr" validate:"required"`

	// DataMode selects the metrics source: offline or online.
	DataMode string `koanf:"data_mode" validate:"oneof=offline online"`

	// OfflineDir is the OpenDigger directory tree of the offline snapshot.
	OfflineDir string `koanf:"offline_dir"`

	// SnapshotFile is an optional .json or .json.zst bundle. It takes
	// precedence over OfflineDir.
	SnapshotFile string `koanf:"snapshot_file"`

	// Match weights. They must sum to 1.
	WeightSkill    float64 `koanf:"weight_skill" validate:"gte=0,lte=1"`
	WeightActivity float64 `koanf:"weight_activity" validate:"gte=0,lte=1"`
	WeightDemand   float64 `koanf:"weight_demand" validate:"gte=0,lte=1"`

	// WeightPreset replaces the three weights above when set.
	WeightPreset string `koanf:"weight_preset" validate:"omitempty,oneof=default beginner expert issue_solver"`

	// AdaptiveWeights picks a preset from the profile's experience.
	AdaptiveWeights bool `koanf:"adaptive_weights"`

	// AcceptThreshold is the minimum match score a search keeps.
	AcceptThreshold float64 `koanf:"accept_threshold" validate:"gte=0,lte=1"`

	DefaultTarget    int `koanf:"default_target" validate:"min=1,max=100"`
	DefaultMaxRounds int `koanf:"default_max_rounds" validate:"min=1,max=20"`
	SearchDeadlineMS int `koanf:"search_deadline_ms" validate:"min=1"`
	SearchPageSize   int `koanf:"search_page_size" validate:"min=1,max=100"`

	// OnlineTimeoutMS bounds each live metrics fetch.
	OnlineTimeoutMS   int `koanf:"online_timeout_ms" validate:"min=1"`
	OnlineConcurrency int `koanf:"online_concurrency" validate:"min=1,max=64"`

	// Token buckets per external capability. A rate of 0 disables limiting.
	SearchRPS    float64 `koanf:"search_rps" validate:"gte=0"`
	SearchBurst  int     `koanf:"search_burst" validate:"min=1"`
	MetricsRPS   float64 `koanf:"metrics_rps" validate:"gte=0"`
	MetricsBurst int     `koanf:"metrics_burst" validate:"min=1"`
	RateWaitMS   int     `koanf:"rate_wait_ms" validate:"gte=0"`

	GitHubToken       string `koanf:"github_token"`
	GitHubBaseURL     string `koanf:"github_base_url" validate:"omitempty,url"`
	OpenDiggerBaseURL string `koanf:"opendigger_base_url" validate:"required,url"`

	// Ollama keyword extraction is optional.
	OllamaEnabled bool   `koanf:"ollama_enabled"`
	OllamaURL     string `koanf:"ollama_url" validate:"required_if=OllamaEnabled true,omitempty,url"`
	OllamaModel   string `koanf:"ollama_model"`

	// SkillVocabulary extends the built-in skill vocabulary.
	SkillVocabulary []string `koanf:"skill_vocabulary"`

	// ActivityWindowDays is the look-back window of activity metrics.
	ActivityWindowDays int `koanf:"activity_window_days" validate:"min=1,max=366"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention.
func New(_ context.Context) *Config {
	w := scoring.DefaultWeights
	return &Config{
		LogLevel:           "info",
		Addr:               ":9080",
		DataMode:           string(model.ModeOffline),
		OfflineDir:         "data/offline",
		WeightSkill:        w.Skill,
		WeightActivity:     w.Activity,
		WeightDemand:       w.Demand,
		AcceptThreshold:    0.1,
		DefaultTarget:      10,
		DefaultMaxRounds:   5,
		SearchDeadlineMS:   30_000,
		SearchPageSize:     30,
		OnlineTimeoutMS:    5_000,
		OnlineConcurrency:  8,
		SearchRPS:          0.5,
		SearchBurst:        5,
		MetricsRPS:         10,
		MetricsBurst:       20,
		RateWaitMS:         2_000,
		OpenDiggerBaseURL:  "https://oss.open-digger.cn/github",
		OllamaURL:          "http://localhost:11434",
		OllamaModel:        "gemma2:2b",
		ActivityWindowDays: 90,
	}
}

// Mode returns the configured data mode.
func (c *Config) Mode() model.Mode { return model.Mode(c.DataMode) }

// MatchWeights returns the effective weights, preset first.
func (c *Config) MatchWeights() (scoring.Weights, error) {
	if c.WeightPreset != "" {
		return scoring.Preset(c.WeightPreset)
	}
	w := scoring.Weights{Skill: c.WeightSkill, Activity: c.WeightActivity, Demand: c.WeightDemand}
	return w, w.Validate()
}

func (c *Config) SearchDeadline() time.Duration {
	return time.Duration(c.SearchDeadlineMS) * time.Millisecond
}

func (c *Config) OnlineTimeout() time.Duration {
	return time.Duration(c.OnlineTimeoutMS) * time.Millisecond
}

func (c *Config) RateWait() time.Duration {
	return time.Duration(c.RateWaitMS) * time.Millisecond
}

func (c *Config) ActivityWindow() time.Duration {
	return time.Duration(c.ActivityWindowDays) * 24 * time.Hour
}
