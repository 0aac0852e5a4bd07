package service

import (
	"context"
	"fmt"

	"github.com/AVALorrie37/OpenRamp/internal/adapters/github"
	"github.com/AVALorrie37/OpenRamp/internal/adapters/ollama"
	"github.com/AVALorrie37/OpenRamp/internal/adapters/opendigger"
	"github.com/AVALorrie37/OpenRamp/internal/adapters/ratelimit"
	"github.com/AVALorrie37/OpenRamp/internal/config"
	"github.com/AVALorrie37/OpenRamp/internal/domain/model"
	"github.com/AVALorrie37/OpenRamp/internal/domain/scoring"
	"github.com/AVALorrie37/OpenRamp/internal/store"
	"github.com/AVALorrie37/OpenRamp/pkg/logger"
)

// NewFromConfig builds a Service and its adapters from cfg. Online mode
// searches GitHub and fetches OpenDigger metrics under the shared limiters;
// offline mode needs no network.
func NewFromConfig(ctx context.Context, cfg *config.Config, log logger.Logger) (*Service, error) {
	weights, err := cfg.MatchWeights()
	if err != nil {
		return nil, fmt.Errorf("match weights: %w", err)
	}
	matcher, err := scoring.NewMatchScorer(
		scoring.WithWeights(weights),
		scoring.WithAdaptiveWeights(cfg.AdaptiveWeights),
	)
	if err != nil {
		return nil, err
	}

	limits := ratelimit.NewRegistry(cfg.RateWait())
	searchLimit := limits.Configure(ratelimit.CapabilitySearch, cfg.SearchRPS, cfg.SearchBurst)
	metricsLimit := limits.Configure(ratelimit.CapabilityMetrics, cfg.MetricsRPS, cfg.MetricsBurst)

	storeOpts := []store.Option{
		store.WithWindow(cfg.ActivityWindow()),
		store.WithOnlineTimeout(cfg.OnlineTimeout()),
		store.WithOnlineConcurrency(cfg.OnlineConcurrency),
		store.WithLimiter(metricsLimit),
		store.WithLogger(log.Named("store")),
	}
	if cfg.SnapshotFile != "" {
		storeOpts = append(storeOpts, store.WithBundle(cfg.SnapshotFile))
	} else {
		storeOpts = append(storeOpts, store.WithOfflineDir(cfg.OfflineDir))
	}

	opts := []Option{
		WithMode(cfg.Mode()),
		WithMatcher(matcher),
		WithSkillVocabulary(cfg.SkillVocabulary),
		WithThreshold(cfg.AcceptThreshold),
		WithPageSize(cfg.SearchPageSize),
		WithSearchDefaults(cfg.DefaultTarget, cfg.DefaultMaxRounds, cfg.SearchDeadline()),
		WithLogger(log),
	}

	if cfg.Mode() == model.ModeOnline {
		gh, err := github.NewClient(ctx,
			github.WithToken(cfg.GitHubToken),
			github.WithBaseURL(cfg.GitHubBaseURL),
		)
		if err != nil {
			return nil, err
		}
		od := opendigger.NewClient(
			opendigger.WithBaseURL(cfg.OpenDiggerBaseURL),
			opendigger.WithWindow(cfg.ActivityWindow()),
		)
		storeOpts = append(storeOpts, store.WithFetcher(od), store.WithMetadata(gh))
		opts = append(opts, WithSearcher(gh), WithSearchLimiter(searchLimit))
	}

	if cfg.OllamaEnabled {
		opts = append(opts, WithKeywordExtractor(ollama.NewExtractor(ollama.Config{
			BaseURL: cfg.OllamaURL,
			Model:   cfg.OllamaModel,
			Timeout: cfg.OnlineTimeout(),
		})))
	}

	opts = append(opts, WithStore(store.New(storeOpts...)))
	return New(opts...), nil
}
