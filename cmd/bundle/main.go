// Command bundle packs an OpenDigger directory tree, optionally topped up
// with live fetches, into a single snapshot bundle.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/AVALorrie37/OpenRamp/internal/adapters/opendigger"
	"github.com/AVALorrie37/OpenRamp/internal/adapters/ratelimit"
	"github.com/AVALorrie37/OpenRamp/internal/config"
	"github.com/AVALorrie37/OpenRamp/internal/domain/model"
	"github.com/AVALorrie37/OpenRamp/internal/store"
	"github.com/AVALorrie37/OpenRamp/pkg/logger"
)

func main() {
	var (
		dir   = flag.String("dir", "", "OpenDigger directory tree to read (defaults to offline_dir)")
		out   = flag.String("out", "snapshot.json.zst", "Bundle to write; .zst compresses")
		fetch = flag.String("fetch", "", "Comma separated owner/repo ids to fetch online and add")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx := context.Background()
	if err := run(ctx, *dir, *out, splitIDs(*fetch)); err != nil {
		logger.Get().Error(ctx, "bundle failed", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, dir, out string, ids []string) error {
	log := logger.Get().Named("bundle")

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if dir == "" {
		dir = cfg.OfflineDir
	}

	opts := []store.Option{
		store.WithOfflineDir(dir),
		store.WithWindow(cfg.ActivityWindow()),
		store.WithOnlineTimeout(cfg.OnlineTimeout()),
		store.WithOnlineConcurrency(cfg.OnlineConcurrency),
		store.WithLogger(log),
	}
	if len(ids) > 0 {
		limits := ratelimit.NewRegistry(cfg.RateWait())
		opts = append(opts,
			store.WithFetcher(opendigger.NewClient(
				opendigger.WithBaseURL(cfg.OpenDiggerBaseURL),
				opendigger.WithWindow(cfg.ActivityWindow()),
			)),
			store.WithLimiter(limits.Configure(ratelimit.CapabilityMetrics, cfg.MetricsRPS, cfg.MetricsBurst)),
		)
	}
	st := store.New(opts...)

	repos, err := collect(ctx, st, ids)
	if err != nil {
		return err
	}
	if err := store.WriteBundle(out, repos, time.Now()); err != nil {
		return err
	}
	log.Info(ctx, "bundle written", logger.String("path", out), logger.Int("repos", len(repos)))
	return nil
}

// collect merges the offline snapshot with live records. Live records win.
func collect(ctx context.Context, st *store.MetricsStore, ids []string) ([]model.RepoMetrics, error) {
	var repos []model.RepoMetrics
	err := st.LoadOffline(ctx)
	switch {
	case err == nil:
		snap, _ := st.Snapshot()
		repos = snap.Repos()
	case errors.Is(err, model.ErrOfflineUnavailable) && len(ids) > 0:
		logger.Get().Warn(ctx, "no offline snapshot; bundling live records only", logger.Error(err))
	default:
		return nil, err
	}
	if len(ids) == 0 {
		return repos, nil
	}

	res, err := st.Get(ctx, ids, model.ModeOnline)
	if err != nil {
		return nil, err
	}
	if len(res.Missing) > 0 {
		logger.Get().Warn(ctx, "some repositories could not be fetched", logger.Strings("missing", res.Missing))
	}
	index := make(map[string]int, len(repos))
	for i, r := range repos {
		index[r.RepoID] = i
	}
	for _, r := range res.Repos {
		if r.Source == model.SourceDegraded {
			continue
		}
		r.Source = model.SourceOffline
		if i, ok := index[r.RepoID]; ok {
			repos[i] = r
			continue
		}
		index[r.RepoID] = len(repos)
		repos = append(repos, r)
	}
	if len(repos) == 0 {
		return nil, fmt.Errorf("nothing to bundle: %w", model.ErrOfflineUnavailable)
	}
	return repos, nil
}

func splitIDs(s string) []string {
	var ids []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
