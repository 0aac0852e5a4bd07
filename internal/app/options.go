package service

import (
	"time"

	"github.com/AVALorrie37/OpenRamp/internal/domain/model"
	"github.com/AVALorrie37/OpenRamp/internal/domain/profile"
	"github.com/AVALorrie37/OpenRamp/internal/domain/scoring"
	"github.com/AVALorrie37/OpenRamp/internal/domain/search"
	"github.com/AVALorrie37/OpenRamp/internal/store"
	"github.com/AVALorrie37/OpenRamp/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithMode selects the data source.
func WithMode(mode model.Mode) Option {
	return func(s *Service) {
		s.mode = mode
	}
}

// WithStore sets the metrics store.
func WithStore(st *store.MetricsStore) Option {
	return func(s *Service) {
		s.store = st
	}
}

// WithSearcher sets the search capability. Without one the offline
// snapshot is searched.
func WithSearcher(searcher search.Searcher) Option {
	return func(s *Service) {
		s.searcher = searcher
	}
}

// WithSearchLimiter rate-limits the search capability.
func WithSearchLimiter(l search.Limiter) Option {
	return func(s *Service) {
		s.searchLimit = l
	}
}

// WithMatcher sets the match scorer.
func WithMatcher(m *scoring.MatchScorer) Option {
	return func(s *Service) {
		if m != nil {
			s.matcher = m
		}
	}
}

// WithSessionStore sets where chat sessions live.
func WithSessionStore(st profile.SessionStore) Option {
	return func(s *Service) {
		s.sessions = st
	}
}

// WithKeywordExtractor adds an external keyword extraction capability.
func WithKeywordExtractor(x profile.KeywordExtractor) Option {
	return func(s *Service) {
		s.extractor = x
	}
}

// WithSkillVocabulary extends the tokenizer's skill vocabulary.
func WithSkillVocabulary(tokens []string) Option {
	return func(s *Service) {
		s.vocabulary = append([]string(nil), tokens...)
	}
}

// WithThreshold sets the minimum match score a search keeps.
func WithThreshold(t float64) Option {
	return func(s *Service) {
		if t >= 0 && t <= 1 {
			s.threshold = t
		}
	}
}

// WithPageSize sets how many candidates each search round asks for.
func WithPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithSearchDefaults sets the target, round budget and deadline used when a
// request leaves them unset.
func WithSearchDefaults(target, maxRounds int, deadline time.Duration) Option {
	return func(s *Service) {
		if target > 0 {
			s.target = target
		}
		if maxRounds > 0 {
			s.maxRounds = maxRounds
		}
		if deadline > 0 {
			s.deadline = deadline
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
