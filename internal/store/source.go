package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AVALorrie37/OpenRamp/internal/adapters/opendigger"
	"github.com/AVALorrie37/OpenRamp/internal/domain/model"
	"github.com/AVALorrie37/OpenRamp/pkg/logger"
	"github.com/AVALorrie37/OpenRamp/pkg/metrics"
)

// Fetch outcomes recorded per id.
const (
	outcomeOK       = "ok"
	outcomeMissing  = "missing"
	outcomeDegraded = "degraded"
	outcomeLimited  = "rate_limited"
)

// OfflineSource answers from the in-memory snapshot.
type OfflineSource struct {
	store *MetricsStore
}

// Mode implements DataSource.
func (o *OfflineSource) Mode() model.Mode { return model.ModeOffline }

// Get implements DataSource. Without a loaded snapshot every call fails with
// the original load error.
func (o *OfflineSource) Get(_ context.Context, ids []string) (Result, error) {
	snap, err := o.store.Snapshot()
	if err != nil {
		return Result{}, err
	}
	var res Result
	for _, id := range uniq(ids) {
		r, ok := snap.Lookup(id)
		if !ok {
			res.Missing = append(res.Missing, id)
			metrics.RecordMetricFetch(string(model.SourceOffline), outcomeMissing)
			continue
		}
		res.Repos = append(res.Repos, r)
		metrics.RecordMetricFetch(string(model.SourceOffline), outcomeOK)
	}
	return res, nil
}

// OnlineSource fetches live metrics concurrently, falling back to the
// offline cache per id.
type OnlineSource struct {
	store *MetricsStore
}

// Mode implements DataSource.
func (o *OnlineSource) Mode() model.Mode { return model.ModeOnline }

type fetched struct {
	repo     model.RepoMetrics
	ok       bool
	degraded bool
	limited  bool
}

// Get implements DataSource. Per-id failures never fail the batch, except
// rate-limit rejections without an offline fallback: those ids are left out
// of Missing and the partial result comes back with ErrRateLimitExceeded. A
// cancelled context fails the batch when nothing was resolved.
func (o *OnlineSource) Get(ctx context.Context, ids []string) (Result, error) {
	ids = uniq(ids)
	out := make([]fetched, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.store.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			out[i] = o.fetchOne(gctx, id)
			return nil
		})
	}
	_ = g.Wait()

	var res Result
	var limited []string
	for i, f := range out {
		switch {
		case f.limited:
			limited = append(limited, ids[i])
		case !f.ok:
			res.Missing = append(res.Missing, ids[i])
		case f.degraded:
			res.Degraded = append(res.Degraded, ids[i])
			res.Repos = append(res.Repos, f.repo)
		default:
			res.Repos = append(res.Repos, f.repo)
		}
	}
	if err := ctx.Err(); err != nil && len(res.Repos) == 0 {
		return res, err
	}
	if len(limited) > 0 {
		return res, fmt.Errorf("%w: %d of %d ids throttled: %v", model.ErrRateLimitExceeded, len(limited), len(ids), limited)
	}
	return res, nil
}

func (o *OnlineSource) fetchOne(ctx context.Context, id string) fetched {
	s := o.store
	start := time.Now()
	repo, err := o.live(ctx, id)
	metrics.RecordMetricFetchLatency(float64(time.Since(start).Milliseconds()))
	if err == nil {
		metrics.RecordMetricFetch(string(model.SourceOnline), outcomeOK)
		return fetched{repo: repo, ok: true}
	}

	cached, ok := s.cached(id)
	if !ok && errors.Is(err, model.ErrRateLimitExceeded) {
		s.logger.Warn(ctx, "live fetch throttled without offline fallback",
			logger.String("repo", id), logger.Error(err))
		metrics.RecordMetricFetch(string(model.SourceOnline), outcomeLimited)
		return fetched{limited: true}
	}
	if !ok {
		if !errors.Is(err, model.ErrRepoNotFound) {
			s.logger.Warn(ctx, "live fetch failed without offline fallback",
				logger.String("repo", id), logger.Error(err))
		}
		metrics.RecordMetricFetch(string(model.SourceOnline), outcomeMissing)
		return fetched{}
	}
	s.logger.Debug(ctx, "serving offline record for failed live fetch",
		logger.String("repo", id), logger.Error(err))
	metrics.RecordMetricFetch(string(model.SourceOnline), outcomeDegraded)
	cached.Source = model.SourceDegraded
	return fetched{repo: cached, ok: true, degraded: true}
}

// live acquires a metrics token and runs one bounded fetch.
func (o *OnlineSource) live(ctx context.Context, id string) (model.RepoMetrics, error) {
	s := o.store
	if s.limiter != nil {
		if err := s.limiter.Acquire(ctx); err != nil {
			return model.RepoMetrics{}, err
		}
	}
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	repo, err := s.fetcher.Fetch(cctx, id)
	if err != nil {
		if errors.Is(cctx.Err(), context.DeadlineExceeded) && !errors.Is(err, model.ErrOnlineTimeout) {
			err = errors.Join(model.ErrOnlineTimeout, err)
		}
		return model.RepoMetrics{}, err
	}
	o.describe(&repo)
	repo.RepoID = id
	repo.Source = model.SourceOnline
	return repo.Sanitize(), nil
}

// describe fills descriptive fields the metrics capability does not return,
// first from search metadata and then from the offline record.
func (o *OnlineSource) describe(repo *model.RepoMetrics) {
	s := o.store
	if s.meta != nil {
		if meta, ok := s.meta.Describe(repo.RepoID); ok {
			opendigger.ApplyMeta(repo, meta)
			return
		}
	}
	cached, ok := s.cached(repo.RepoID)
	if !ok {
		return
	}
	if repo.Name == "" {
		repo.Name = cached.Name
	}
	if repo.Description == "" {
		repo.Description = cached.Description
	}
	if len(repo.Languages) == 0 {
		repo.Languages = cached.Languages
	}
	if len(repo.Keywords) == 0 {
		repo.Keywords = cached.Keywords
	}
}
