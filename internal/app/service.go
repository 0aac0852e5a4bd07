// Package service wires the matching subsystem together and implements the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/AVALorrie37/OpenRamp/internal/adapters/session"
	"github.com/AVALorrie37/OpenRamp/internal/domain/model"
	"github.com/AVALorrie37/OpenRamp/internal/domain/profile"
	"github.com/AVALorrie37/OpenRamp/internal/domain/scoring"
	"github.com/AVALorrie37/OpenRamp/internal/domain/search"
	"github.com/AVALorrie37/OpenRamp/internal/domain/types"
	"github.com/AVALorrie37/OpenRamp/internal/store"
	"github.com/AVALorrie37/OpenRamp/pkg/logger"
	"github.com/AVALorrie37/OpenRamp/pkg/metrics"
)

// ErrNotStarted is returned by operations invoked before Start.
var ErrNotStarted = errors.New("service not started")

// Service owns the long-lived components: the metrics store, the session
// manager and the search orchestrator.
type Service struct {
	mu sync.RWMutex

	// Core components
	store        *store.MetricsStore
	source       store.DataSource
	searcher     search.Searcher
	searchLimit  search.Limiter
	matcher      *scoring.MatchScorer
	sessions     profile.SessionStore
	extractor    profile.KeywordExtractor
	manager      *profile.Manager
	orchestrator *search.Orchestrator

	// Configuration
	mode       model.Mode
	vocabulary []string
	threshold  float64
	pageSize   int
	target     int
	maxRounds  int
	deadline   time.Duration
	now        func() time.Time

	// State
	started   bool
	startedAt time.Time

	logger logger.Logger
}

// New constructs a Service. Components not supplied through options get
// offline defaults: an unconfigured metrics store, an in-memory session store
// and the default match weights.
func New(opts ...Option) *Service {
	s := &Service{
		mode:      model.ModeOffline,
		threshold: search.DefaultThreshold,
		pageSize:  search.DefaultPageSize,
		target:    10,
		maxRounds: 5,
		deadline:  30 * time.Second,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads the offline snapshot and builds the session manager and search
// orchestrator. In offline mode a missing snapshot is fatal; in online mode it
// only disables degradation to cached records.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger.Info(ctx, "starting matching service...", logger.String("mode", string(s.mode)))

	if s.store == nil {
		s.store = store.New(store.WithLogger(s.logger))
	}
	if s.sessions == nil {
		s.sessions = session.NewMemoryStore()
	}
	if s.matcher == nil {
		m, err := scoring.NewMatchScorer()
		if err != nil {
			return err
		}
		s.matcher = m
	}

	if err := s.store.LoadOffline(ctx); err != nil {
		if s.mode == model.ModeOffline {
			return fmt.Errorf("load offline snapshot: %w", err)
		}
		s.logger.Warn(ctx, "offline snapshot unavailable, live fetch failures will not degrade", logger.Error(err))
	}

	src, err := s.store.Source(s.mode)
	if err != nil {
		return err
	}
	s.source = src
	if s.searcher == nil {
		s.searcher = store.NewSearcher(s.store)
	}

	mopts := []profile.Option{
		profile.WithTokenizer(profile.NewTokenizer(s.vocabulary...)),
		profile.WithClock(s.now),
		profile.WithLogger(s.logger.Named("profile")),
	}
	if s.extractor != nil {
		mopts = append(mopts, profile.WithKeywordExtractor(s.extractor))
	}
	s.manager = profile.NewManager(s.sessions, mopts...)

	sopts := []search.Option{
		search.WithThreshold(s.threshold),
		search.WithPageSize(s.pageSize),
		search.WithLogger(s.logger.Named("search")),
	}
	if s.searchLimit != nil {
		sopts = append(sopts, search.WithLimiter(s.searchLimit))
	}
	s.orchestrator = search.New(s.searcher, s.source, s.matcher, sopts...)

	s.started = true
	s.startedAt = s.now()
	w := s.matcher.Weights()
	s.logger.Info(ctx, "matching service started",
		logger.String("mode", string(s.mode)),
		logger.Float64("weight_skill", w.Skill),
		logger.Float64("weight_activity", w.Activity),
		logger.Float64("weight_demand", w.Demand),
		logger.Float64("threshold", s.threshold),
	)
	return nil
}

// Stop marks the service stopped. Sessions and the snapshot stay in memory.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "matching service stopped")
}

func (s *Service) running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// Chat feeds one message into the user's session and runs a search when the
// confirmed user asks for one.
func (s *Service) Chat(ctx context.Context, userID, message string) (types.ChatReply, error) {
	if !s.running() {
		return types.ChatReply{}, ErrNotStarted
	}
	res, err := s.manager.Turn(ctx, userID, message)
	if err != nil {
		return types.ChatReply{}, err
	}
	metrics.RecordChatTurn(string(res.Action))
	if counter, ok := s.sessions.(interface{ Len() int }); ok {
		metrics.UpdateActiveSessions(counter.Len())
	}

	reply := types.ChatReply{
		UserID:    userID,
		Directive: string(res.Directive),
		Action:    string(res.Action),
		State:     string(res.State),
		Profile:   res.Profile,
	}
	if res.Issue != nil {
		reply.Clarify = res.Issue.Error()
	}
	if res.Action != profile.ActionSearch {
		return reply, nil
	}

	out, err := s.run(ctx, res.Profile, 0, 0, 0)
	if err != nil {
		return reply, err
	}
	result := newSearchResult(out)
	reply.Search = &result
	return reply, nil
}

// Search runs the orchestrator for an explicit profile. Zero numbers in req
// take the configured defaults.
func (s *Service) Search(ctx context.Context, req types.SearchRequest) (types.SearchResult, error) {
	if !s.running() {
		return types.SearchResult{}, ErrNotStarted
	}
	p, err := normalizeProfile(req.Profile())
	if err != nil {
		return types.SearchResult{}, err
	}
	deadline := time.Duration(req.DeadlineMS) * time.Millisecond
	out, err := s.run(ctx, p, req.Target, req.MaxRounds, deadline)
	if err != nil {
		return types.SearchResult{}, err
	}
	return newSearchResult(out), nil
}

func (s *Service) run(ctx context.Context, p model.UserProfile, target, maxRounds int, deadline time.Duration) (search.Outcome, error) {
	if target <= 0 {
		target = s.target
	}
	if maxRounds <= 0 {
		maxRounds = s.maxRounds
	}
	if deadline <= 0 {
		deadline = s.deadline
	}
	return s.orchestrator.Search(ctx, p, target, maxRounds, s.now().Add(deadline))
}

func newSearchResult(out search.Outcome) types.SearchResult {
	return types.SearchResult{
		Entries:    types.Entries(out.Results),
		Exhausted:  out.Exhausted,
		Rounds:     out.Rounds,
		StopReason: string(out.StopReason),
		Missing:    out.Missing,
		Degraded:   out.Degraded,
	}
}

// normalizeProfile applies the profile invariants to caller-supplied input.
func normalizeProfile(in model.UserProfile) (model.UserProfile, error) {
	var p model.UserProfile
	for _, raw := range in.Skills {
		p.AddSkill(raw)
	}
	for _, c := range in.Preferences {
		c = model.ContributionType(strings.ToLower(string(c)))
		if !c.Valid() {
			return model.UserProfile{}, fmt.Errorf("%w: unknown preference %q", model.ErrInvalidProfileInput, c)
		}
		p.AddPreference(c)
	}
	if !in.Experience.Valid() {
		return model.UserProfile{}, fmt.Errorf("%w: unknown experience %q", model.ErrInvalidProfileInput, in.Experience)
	}
	p.Experience = in.Experience
	return p, nil
}

// Repo resolves one repository through the active data source.
func (s *Service) Repo(ctx context.Context, repoID string) (types.RepoView, error) {
	if !s.running() {
		return types.RepoView{}, ErrNotStarted
	}
	res, err := s.source.Get(ctx, []string{repoID})
	if err != nil {
		return types.RepoView{}, err
	}
	if len(res.Repos) == 0 {
		return types.RepoView{}, fmt.Errorf("%w: %s", model.ErrRepoNotFound, repoID)
	}
	r := res.Repos[0]
	return types.RepoView{
		Repo:      r,
		Breakdown: scoring.Breakdown(r),
		Degraded:  r.Source == model.SourceDegraded,
	}, nil
}

// Session returns a copy of a user's session.
func (s *Service) Session(ctx context.Context, userID string) (*model.Session, bool, error) {
	if !s.running() {
		return nil, false, ErrNotStarted
	}
	return s.manager.Session(ctx, userID)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":    s.started,
		"mode":       string(s.mode),
		"target":     s.target,
		"maxRounds":  s.maxRounds,
		"threshold":  s.threshold,
		"goroutines": runtime.NumGoroutine(),
	}
	if !s.started {
		return stats
	}

	stats["uptimeSeconds"] = int64(s.now().Sub(s.startedAt).Seconds())
	stats["weights"] = s.matcher.Weights()
	if snap, err := s.store.Snapshot(); err == nil {
		stats["snapshotRepos"] = snap.Len()
		stats["snapshotLoadedAt"] = snap.LoadedAt
	} else {
		stats["snapshotRepos"] = 0
		stats["snapshotError"] = err.Error()
	}
	if counter, ok := s.sessions.(interface{ Len() int }); ok {
		stats["sessions"] = counter.Len()
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	metrics.UpdateSystem(mem.Alloc, runtime.NumGoroutine())
	return stats
}
