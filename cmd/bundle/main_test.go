package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/AVALorrie37/OpenRamp/internal/domain/model"
	"github.com/AVALorrie37/OpenRamp/internal/store"
	"github.com/AVALorrie37/OpenRamp/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

type stubFetcher map[string]model.RepoMetrics

func (f stubFetcher) Fetch(_ context.Context, id string) (model.RepoMetrics, error) {
	if r, ok := f[id]; ok {
		return r, nil
	}
	return model.RepoMetrics{}, model.ErrRepoNotFound
}

func writeTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"acme/web/openrank.json": `{"2024-04": 4, "2024-05": 6}`,
		"acme/web/meta.json":     `{"name": "web", "language": "Python"}`,
		"acme/cli/openrank.json": `{"2024-05": 2}`,
	}
	for name, body := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		So(os.MkdirAll(filepath.Dir(path), 0o750), ShouldBeNil)
		So(os.WriteFile(path, []byte(body), 0o600), ShouldBeNil)
	}
	return dir
}

func ids(repos []model.RepoMetrics) []string {
	out := make([]string, len(repos))
	for i, r := range repos {
		out[i] = r.RepoID
	}
	return out
}

func TestCollect(t *testing.T) {
	ctx := context.Background()

	Convey("Given an OpenDigger tree", t, func() {
		dir := writeTree(t)

		Convey("Without live ids the snapshot is bundled as is", func() {
			st := store.New(store.WithOfflineDir(dir))
			repos, err := collect(ctx, st, nil)
			So(err, ShouldBeNil)
			So(ids(repos), ShouldHaveLength, 2)
			So(ids(repos), ShouldContain, "acme/web")
			So(ids(repos), ShouldContain, "acme/cli")
		})

		Convey("Live records replace and extend the snapshot", func() {
			st := store.New(store.WithOfflineDir(dir), store.WithFetcher(stubFetcher{
				"acme/web": {RepoID: "acme/web", ActiveDays90: 40},
				"acme/new": {RepoID: "acme/new", ActiveDays90: 5},
			}))
			repos, err := collect(ctx, st, []string{"acme/web", "acme/new", "acme/gone"})
			So(err, ShouldBeNil)
			So(ids(repos), ShouldHaveLength, 3)
			for _, r := range repos {
				So(r.Source, ShouldEqual, model.SourceOffline)
				if r.RepoID == "acme/web" {
					So(r.ActiveDays90, ShouldEqual, 40)
				}
			}

			path := filepath.Join(t.TempDir(), "out.json.zst")
			So(store.WriteBundle(path, repos, time.Now()), ShouldBeNil)
			back, err := store.ReadBundle(path)
			So(err, ShouldBeNil)
			So(back, ShouldHaveLength, 3)
		})
	})

	Convey("Given no snapshot at all", t, func() {
		dir := filepath.Join(t.TempDir(), "absent")

		Convey("Offline only fails", func() {
			_, err := collect(ctx, store.New(store.WithOfflineDir(dir)), nil)
			So(errors.Is(err, model.ErrOfflineUnavailable), ShouldBeTrue)
		})

		Convey("Live ids alone are enough", func() {
			st := store.New(store.WithOfflineDir(dir), store.WithFetcher(stubFetcher{
				"acme/new": {RepoID: "acme/new"},
			}))
			repos, err := collect(ctx, st, []string{"acme/new"})
			So(err, ShouldBeNil)
			So(ids(repos), ShouldResemble, []string{"acme/new"})
		})

		Convey("Nothing fetched is an error", func() {
			st := store.New(store.WithOfflineDir(dir), store.WithFetcher(stubFetcher{}))
			_, err := collect(ctx, st, []string{"acme/gone"})
			So(errors.Is(err, model.ErrOfflineUnavailable), ShouldBeTrue)
		})
	})
}

func TestSplitIDs(t *testing.T) {
	Convey("Comma separated ids are trimmed and blanks dropped", t, func() {
		So(splitIDs(" a/b, ,c/d,"), ShouldResemble, []string{"a/b", "c/d"})
		So(splitIDs(""), ShouldBeNil)
	})
}
