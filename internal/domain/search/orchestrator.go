// Package search runs the round-based candidate search that turns a
// confirmed profile into a ranked, target-sized list of repositories.
package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/AVALorrie37/OpenRamp/internal/domain/dedupe"
	"github.com/AVALorrie37/OpenRamp/internal/domain/model"
	"github.com/AVALorrie37/OpenRamp/internal/domain/scoring"
	"github.com/AVALorrie37/OpenRamp/internal/store"
	"github.com/AVALorrie37/OpenRamp/pkg/logger"
	"github.com/AVALorrie37/OpenRamp/pkg/metrics"
)

// Defaults.
const (
	DefaultThreshold = 0.1
	DefaultPageSize  = 30
)

// StopReason tells why a search ended.
type StopReason string

const (
	StopTargetReached StopReason = "target_reached"
	StopStalled       StopReason = "stalled"
	StopDeadline      StopReason = "deadline"
	StopMaxRounds     StopReason = "max_rounds"
	StopRateLimited   StopReason = "rate_limited"
)

// Searcher is the external search capability.
type Searcher interface {
	Search(ctx context.Context, q model.Query) ([]string, error)
}

// Resolver turns candidate ids into metrics. store.DataSource satisfies it.
type Resolver interface {
	Get(ctx context.Context, ids []string) (store.Result, error)
}

// Limiter guards the search capability.
type Limiter interface {
	Acquire(ctx context.Context) error
}

// Outcome is the result of one Search call.
type Outcome struct {
	Results    []model.Scored `json:"results"`
	Exhausted  bool           `json:"exhausted"`
	Rounds     int            `json:"rounds"`
	StopReason StopReason     `json:"stop_reason"`
	Missing    []string       `json:"missing,omitempty"`
	Degraded   []string       `json:"degraded,omitempty"`
}

// Option applies a configuration option to the Orchestrator.
type Option func(*Orchestrator)

// WithThreshold sets the minimum match score a candidate needs.
func WithThreshold(t float64) Option {
	return func(o *Orchestrator) {
		if t >= 0 && t <= 1 {
			o.threshold = t
		}
	}
}

// WithPageSize sets how many candidates each round asks for.
func WithPageSize(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.pageSize = n
		}
	}
}

// WithLimiter rate-limits calls to the search capability.
func WithLimiter(l Limiter) Option {
	return func(o *Orchestrator) {
		o.limiter = l
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// Orchestrator holds no state between calls; concurrent searches are
// independent.
type Orchestrator struct {
	searcher  Searcher
	resolver  Resolver
	matcher   scoring.Matcher
	limiter   Limiter
	threshold float64
	pageSize  int
	logger    logger.Logger
}

// New creates an Orchestrator.
func New(searcher Searcher, resolver Resolver, matcher scoring.Matcher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		searcher:  searcher,
		resolver:  resolver,
		matcher:   matcher,
		threshold: DefaultThreshold,
		pageSize:  DefaultPageSize,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logger.Get()
	}
	return o
}

// Search runs at most maxRounds rounds of query, resolve and score until
// target results are accepted. A zero deadline means none besides ctx.
// Partial results are returned for stalls, deadlines and rate limits; an
// error is returned only when the data source itself is unavailable or the
// rate limit struck before anything was accepted.
func (o *Orchestrator) Search(ctx context.Context, profile model.UserProfile, target, maxRounds int, deadline time.Time) (Outcome, error) {
	start := time.Now()
	if !deadline.IsZero() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, deadline)
		defer cancel()
	}

	r := &run{
		Orchestrator: o,
		profile:      profile,
		plan:         newPlan(profile),
		seen:         dedupe.NewInMemoryDeduper(),
	}
	out, err := r.loop(ctx, target, maxRounds)

	metrics.RecordSearch(string(out.StopReason), out.Rounds, len(out.Results), float64(time.Since(start).Milliseconds()))
	o.logger.Info(ctx, "search finished",
		logger.String("stop_reason", string(out.StopReason)),
		logger.Int("rounds", out.Rounds),
		logger.Int("results", len(out.Results)),
		logger.Int("missing", len(out.Missing)),
		logger.Int("degraded", len(out.Degraded)),
		logger.Duration("took", time.Since(start)),
	)
	return out, err
}

// run is the per-call state.
type run struct {
	*Orchestrator
	profile model.UserProfile
	plan    *plan
	seen    dedupe.Deduper
	acc     []model.Scored
	out     Outcome
}

func (r *run) loop(ctx context.Context, target, maxRounds int) (Outcome, error) {
	if target <= 0 {
		return r.finish(StopTargetReached, 0), nil
	}
	for round := 1; round <= maxRounds; round++ {
		if ctx.Err() != nil {
			return r.finish(StopDeadline, target), nil
		}
		r.out.Rounds = round
		q := r.plan.query(r.pageSize)

		ids, err := r.search(ctx, q)
		if err != nil {
			switch {
			case ctx.Err() != nil:
				return r.finish(StopDeadline, target), nil
			case errors.Is(err, model.ErrRateLimitExceeded):
				return r.rateLimited(target, err)
			case errors.Is(err, model.ErrOfflineUnavailable):
				return r.finish(StopStalled, target), err
			}
			r.logger.Warn(ctx, "search capability failed, counting round as empty",
				logger.Int("round", round), logger.String("query", q.Key()), logger.Error(err))
		}

		fresh := r.seen.Filter(ctx, ids)
		r.logger.Debug(ctx, "search round",
			logger.Int("round", round),
			logger.String("query", q.Key()),
			logger.Int("page", q.Page),
			logger.Int("candidates", len(ids)),
			logger.Int("new", len(fresh)),
		)
		if len(fresh) == 0 {
			return r.finish(StopStalled, target), nil
		}

		res, err := r.resolver.Get(ctx, fresh)
		r.score(res)
		if err != nil {
			switch {
			case ctx.Err() != nil:
				return r.finish(StopDeadline, target), nil
			case errors.Is(err, model.ErrRateLimitExceeded):
				return r.rateLimited(target, err)
			case errors.Is(err, model.ErrOfflineUnavailable), errors.Is(err, model.ErrUnknownMode):
				return r.finish(StopStalled, target), err
			}
			for _, id := range fresh {
				r.seen.Unrecord(ctx, id)
			}
			r.logger.Warn(ctx, "candidate resolution failed, ids released for retry",
				logger.Int("round", round), logger.Int("ids", len(fresh)), logger.Error(err))
		}

		if len(r.acc) >= target {
			return r.finish(StopTargetReached, target), nil
		}
		if ctx.Err() != nil {
			return r.finish(StopDeadline, target), nil
		}
		step := r.plan.broaden()
		r.logger.Debug(ctx, "broadening query", logger.String("step", step))
	}
	return r.finish(StopMaxRounds, target), nil
}

func (r *run) search(ctx context.Context, q model.Query) ([]string, error) {
	if r.limiter != nil {
		if err := r.limiter.Acquire(ctx); err != nil {
			return nil, err
		}
	}
	return r.searcher.Search(ctx, q)
}

// score keeps accepted candidates and records missing and degraded ids.
func (r *run) score(res store.Result) {
	r.out.Missing = append(r.out.Missing, res.Missing...)
	r.out.Degraded = append(r.out.Degraded, res.Degraded...)
	for _, repo := range res.Repos {
		m := r.matcher.Calculate(r.profile, repo)
		if m.MatchScore < r.threshold {
			continue
		}
		r.acc = append(r.acc, model.Scored{
			Repo:      repo,
			Breakdown: scoring.Breakdown(repo),
			Match:     m,
		})
	}
	sort.Slice(r.acc, func(i, j int) bool { return model.Less(r.acc[i], r.acc[j]) })
}

func (r *run) rateLimited(target int, cause error) (Outcome, error) {
	out := r.finish(StopRateLimited, target)
	if len(out.Results) == 0 {
		return out, fmt.Errorf("search round %d: %w", out.Rounds, cause)
	}
	return out, nil
}

// finish trims the accumulator to target. Every reason except reaching the
// target marks the search exhausted.
func (r *run) finish(reason StopReason, target int) Outcome {
	out := r.out
	out.StopReason = reason
	out.Exhausted = reason != StopTargetReached
	results := r.acc
	if len(results) > target {
		results = results[:target]
	}
	out.Results = append([]model.Scored{}, results...)
	return out
}
