// Package store resolves repository ids to normalized RepoMetrics from an
// offline snapshot or a live metrics capability.
package store

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AVALorrie37/OpenRamp/internal/adapters/opendigger"
	"github.com/AVALorrie37/OpenRamp/internal/domain/model"
	"github.com/AVALorrie37/OpenRamp/pkg/logger"
	"github.com/AVALorrie37/OpenRamp/pkg/metrics"
)

// Defaults for the online source.
const (
	defaultOnlineTimeout     = 5 * time.Second
	defaultOnlineConcurrency = 8
)

// Result is the outcome of a batch lookup. Repos keep the order of the
// requested ids; Missing lists ids no source could serve and Degraded the
// ids answered from the offline cache after a live failure.
type Result struct {
	Repos    []model.RepoMetrics
	Missing  []string
	Degraded []string
}

// DataSource resolves a batch of ids. Per-id failures are reported in the
// Result; only whole-source failures are returned as errors.
type DataSource interface {
	Mode() model.Mode
	Get(ctx context.Context, ids []string) (Result, error)
}

// Fetcher is the live metrics capability.
type Fetcher interface {
	Fetch(ctx context.Context, repoID string) (model.RepoMetrics, error)
}

// MetadataProvider supplies descriptive fields learned elsewhere, such as
// from search results.
type MetadataProvider interface {
	Describe(repoID string) (model.RepoMeta, bool)
}

// Limiter is the shared token bucket guarding an external capability.
type Limiter interface {
	Acquire(ctx context.Context) error
}

// Option applies a configuration option to the MetricsStore.
type Option func(*MetricsStore)

// WithOfflineDir reads the snapshot from an OpenDigger directory tree.
func WithOfflineDir(dir string) Option {
	return func(s *MetricsStore) {
		s.offlineDir = dir
	}
}

// WithBundle reads the snapshot from a single .json or .json.zst file. It
// takes precedence over WithOfflineDir.
func WithBundle(path string) Option {
	return func(s *MetricsStore) {
		s.bundlePath = path
	}
}

// WithClock overrides time.Now; the activity window is anchored on it.
func WithClock(now func() time.Time) Option {
	return func(s *MetricsStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithWindow sets the activity look-back window.
func WithWindow(d time.Duration) Option {
	return func(s *MetricsStore) {
		if d > 0 {
			s.window = d
		}
	}
}

// WithFetcher enables online mode through f.
func WithFetcher(f Fetcher) Option {
	return func(s *MetricsStore) {
		s.fetcher = f
	}
}

// WithMetadata fills descriptive fields of online records.
func WithMetadata(p MetadataProvider) Option {
	return func(s *MetricsStore) {
		s.meta = p
	}
}

// WithLimiter guards online fetches with the shared metrics limiter.
func WithLimiter(l Limiter) Option {
	return func(s *MetricsStore) {
		s.limiter = l
	}
}

// WithOnlineTimeout bounds each live fetch.
func WithOnlineTimeout(d time.Duration) Option {
	return func(s *MetricsStore) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithOnlineConcurrency bounds how many live fetches run at once.
func WithOnlineConcurrency(n int) Option {
	return func(s *MetricsStore) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *MetricsStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// MetricsStore owns the offline snapshot and dispatches lookups to the
// source selected by mode. Several independent instances may coexist.
type MetricsStore struct {
	offlineDir  string
	bundlePath  string
	now         func() time.Time
	window      time.Duration
	fetcher     Fetcher
	meta        MetadataProvider
	limiter     Limiter
	timeout     time.Duration
	concurrency int
	logger      logger.Logger

	loadMu   sync.Mutex
	loadErr  atomic.Value // error wrapper, see loadFailure
	snapshot atomic.Pointer[Snapshot]

	offline *OfflineSource
	online  *OnlineSource
}

type loadFailure struct{ err error }

// New creates a MetricsStore. Nothing is read until LoadOffline.
func New(opts ...Option) *MetricsStore {
	s := &MetricsStore{
		now:         time.Now,
		window:      opendigger.DefaultWindow,
		timeout:     defaultOnlineTimeout,
		concurrency: defaultOnlineConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.offline = &OfflineSource{store: s}
	if s.fetcher != nil {
		s.online = &OnlineSource{store: s}
	}
	return s
}

// LoadOffline populates the snapshot. It is a no-op once a load succeeded.
// A missing or empty snapshot fails with ErrOfflineUnavailable, and the
// failure is remembered so later offline lookups report it too.
func (s *MetricsStore) LoadOffline(ctx context.Context) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	if s.snapshot.Load() != nil {
		return nil
	}

	begin := time.Now()
	repos, err := s.readSnapshot(ctx)
	if err == nil && len(repos) == 0 {
		err = fmt.Errorf("%w: no repositories found", model.ErrOfflineUnavailable)
	}
	if err != nil {
		s.loadErr.Store(loadFailure{err: err})
		s.logger.Error(ctx, "offline snapshot unavailable", logger.Error(err))
		return err
	}

	snap := NewSnapshot(repos, s.now())
	s.snapshot.Store(snap)
	s.loadErr.Store(loadFailure{})
	metrics.UpdateSnapshotRepos(snap.Len())
	s.logger.Info(ctx, "offline snapshot loaded",
		logger.Int("repos", snap.Len()),
		logger.Duration("took", time.Since(begin)),
	)
	return nil
}

func (s *MetricsStore) readSnapshot(ctx context.Context) ([]model.RepoMetrics, error) {
	switch {
	case s.bundlePath != "":
		return ReadBundle(s.bundlePath)
	case s.offlineDir != "":
		repos, skipped, err := LoadDir(s.offlineDir, s.now(), s.window)
		if len(skipped) > 0 {
			s.logger.Warn(ctx, "repositories without metric files skipped", logger.Int("count", len(skipped)))
		}
		return repos, err
	}
	return nil, fmt.Errorf("%w: no snapshot location configured", model.ErrOfflineUnavailable)
}

// Snapshot returns the loaded snapshot or the load failure.
func (s *MetricsStore) Snapshot() (*Snapshot, error) {
	if snap := s.snapshot.Load(); snap != nil {
		return snap, nil
	}
	if f, ok := s.loadErr.Load().(loadFailure); ok && f.err != nil {
		return nil, f.err
	}
	return nil, fmt.Errorf("%w: snapshot not loaded", model.ErrOfflineUnavailable)
}

// cached returns the offline record for id when a snapshot is loaded.
func (s *MetricsStore) cached(id string) (model.RepoMetrics, bool) {
	snap := s.snapshot.Load()
	if snap == nil {
		return model.RepoMetrics{}, false
	}
	return snap.Lookup(id)
}

// Source returns the DataSource for mode.
func (s *MetricsStore) Source(mode model.Mode) (DataSource, error) {
	switch mode {
	case model.ModeOffline:
		return s.offline, nil
	case model.ModeOnline:
		if s.online == nil {
			return nil, fmt.Errorf("%w: online mode has no fetcher", model.ErrUnknownMode)
		}
		return s.online, nil
	}
	return nil, fmt.Errorf("%w: %q", model.ErrUnknownMode, mode)
}

// Get resolves ids through the source selected by mode.
func (s *MetricsStore) Get(ctx context.Context, ids []string, mode model.Mode) (Result, error) {
	src, err := s.Source(mode)
	if err != nil {
		return Result{}, err
	}
	return src.Get(ctx, ids)
}

// uniq drops empty and repeated ids, keeping first occurrences.
func uniq(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
