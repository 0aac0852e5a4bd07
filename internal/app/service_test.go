package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	service "github.com/AVALorrie37/OpenRamp/internal/app"
	"github.com/AVALorrie37/OpenRamp/internal/config"
	"github.com/AVALorrie37/OpenRamp/internal/domain/model"
	"github.com/AVALorrie37/OpenRamp/internal/domain/profile"
	"github.com/AVALorrie37/OpenRamp/internal/domain/scoring"
	"github.com/AVALorrie37/OpenRamp/internal/domain/search"
	"github.com/AVALorrie37/OpenRamp/internal/domain/types"
	"github.com/AVALorrie37/OpenRamp/internal/store"
	"github.com/AVALorrie37/OpenRamp/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func snapshotRepos() []model.RepoMetrics {
	return []model.RepoMetrics{
		{RepoID: "acme/web", Name: "web", Languages: []string{"Python"}, Keywords: []string{"python", "django"},
			ActiveDays90: 30, DailyPeakActivity: 10, IssuesNew90: 12,
			OpenRankSeries: []model.OpenRankPoint{{Period: "2024-05", Value: 25}}},
		{RepoID: "acme/etl", Name: "etl", Languages: []string{"Python"}, Keywords: []string{"python", "pandas"},
			ActiveDays90: 8, DailyPeakActivity: 2, IssuesNew90: 1},
		{RepoID: "acme/cli", Name: "cli", Languages: []string{"Go"}, Keywords: []string{"go", "cli"},
			ActiveDays90: 20, DailyPeakActivity: 4},
	}
}

func writeSnapshot(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapshot.json.zst")
	if err := store.WriteBundle(path, snapshotRepos(), time.Now()); err != nil {
		t.Fatal(err)
	}
	return path
}

func startedService(t *testing.T, opts ...service.Option) *service.Service {
	st := store.New(store.WithBundle(writeSnapshot(t)))
	svc := service.New(append([]service.Option{service.WithStore(st)}, opts...)...)
	So(svc.Start(context.Background()), ShouldBeNil)
	return svc
}

type stubFetcher struct{}

func (stubFetcher) Fetch(context.Context, string) (model.RepoMetrics, error) {
	return model.RepoMetrics{}, model.ErrTransport
}

func TestService_Start(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service with a snapshot", t, func() {
		svc := startedService(t)
		defer svc.Stop()

		Convey("Then it is marked as started with the snapshot size", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, true)
			So(stats["snapshotRepos"], ShouldEqual, 3)
			So(stats["mode"], ShouldEqual, "offline")
		})

		Convey("When started again", func() {
			So(svc.Start(ctx), ShouldBeNil)
		})

		Convey("When stopped", func() {
			svc.Stop()
			So(svc.GetStats()["started"], ShouldEqual, false)
			_, err := svc.Chat(ctx, "u", "hello")
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})
	})

	Convey("Given offline mode without a snapshot", t, func() {
		st := store.New(store.WithOfflineDir(filepath.Join(t.TempDir(), "absent")))
		svc := service.New(service.WithStore(st))

		Convey("Then start fails with ErrOfflineUnavailable", func() {
			err := svc.Start(ctx)
			So(errors.Is(err, model.ErrOfflineUnavailable), ShouldBeTrue)
		})
	})

	Convey("Given online mode without a snapshot", t, func() {
		st := store.New(
			store.WithOfflineDir(filepath.Join(t.TempDir(), "absent")),
			store.WithFetcher(stubFetcher{}),
		)
		svc := service.New(service.WithStore(st), service.WithMode(model.ModeOnline))

		Convey("Then start succeeds and unknown repos are not found", func() {
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()
			_, err := svc.Repo(ctx, "acme/web")
			So(errors.Is(err, model.ErrRepoNotFound), ShouldBeTrue)
		})
	})
}

func TestService_Chat(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started offline service", t, func() {
		svc := startedService(t)
		defer svc.Stop()

		Convey("When a user walks through the conversation", func() {
			first, err := svc.Chat(ctx, "alice", "我擅长Python开发")
			So(err, ShouldBeNil)
			So(first.State, ShouldEqual, string(model.StatePending))
			So(first.Action, ShouldEqual, string(profile.ActionNone))
			So(first.Profile.Skills, ShouldResemble, []string{"python"})

			confirm, err := svc.Chat(ctx, "alice", "确认技能")
			So(err, ShouldBeNil)
			So(confirm.Action, ShouldEqual, string(profile.ActionConfirm))
			So(confirm.State, ShouldEqual, string(model.StateConfirmed))

			found, err := svc.Chat(ctx, "alice", "帮我推荐一些项目")

			Convey("Then the discovery turn returns ranked results", func() {
				So(err, ShouldBeNil)
				So(found.Action, ShouldEqual, string(profile.ActionSearch))
				So(found.Search, ShouldNotBeNil)
				So(len(found.Search.Entries), ShouldEqual, 2)
				So(found.Search.Entries[0].RepoID, ShouldEqual, "acme/web")
				So(found.Search.Entries[0].Rank, ShouldEqual, 1)
				So(found.Search.Exhausted, ShouldBeTrue)
			})

			Convey("And the session is kept", func() {
				sess, ok, err := svc.Session(ctx, "alice")
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(sess.State, ShouldEqual, model.StateConfirmed)
				So(svc.GetStats()["sessions"], ShouldEqual, 1)
			})
		})

		Convey("When the message carries nothing useful", func() {
			reply, err := svc.Chat(ctx, "bob", "你好")
			So(err, ShouldBeNil)
			So(reply.Directive, ShouldEqual, string(profile.DirectiveClarify))
			So(reply.State, ShouldEqual, string(model.StateCollecting))
			So(reply.Clarify, ShouldNotBeEmpty)
		})
	})
}

func TestService_Search(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started offline service", t, func() {
		svc := startedService(t, service.WithSearchDefaults(1, 3, time.Second))
		defer svc.Stop()

		Convey("When searching with raw skills and the default target", func() {
			out, err := svc.Search(ctx, types.SearchRequest{Skills: []string{"Python"}})

			Convey("Then skills are normalized and the target is met", func() {
				So(err, ShouldBeNil)
				So(out.StopReason, ShouldEqual, string(search.StopTargetReached))
				So(out.Exhausted, ShouldBeFalse)
				So(len(out.Entries), ShouldEqual, 1)
				So(out.Entries[0].RepoID, ShouldEqual, "acme/web")
			})
		})

		Convey("When a preference is unknown", func() {
			_, err := svc.Search(ctx, types.SearchRequest{Skills: []string{"go"}, Preferences: []string{"gardening"}})
			So(errors.Is(err, model.ErrInvalidProfileInput), ShouldBeTrue)
		})

		Convey("When looking up a repository", func() {
			view, err := svc.Repo(ctx, "acme/web")
			So(err, ShouldBeNil)
			So(view.Breakdown.Composite, ShouldAlmostEqual, 0.5+0.15+0.048, 1e-9)
			So(view.Degraded, ShouldBeFalse)

			_, err = svc.Repo(ctx, "nobody/nothing")
			So(errors.Is(err, model.ErrRepoNotFound), ShouldBeTrue)
		})
	})
}

func TestNewFromConfig(t *testing.T) {
	Convey("Given a configuration pointing at a bundle", t, func() {
		ctx := context.Background()
		cfg := config.New(ctx)
		cfg.SnapshotFile = writeSnapshot(t)
		cfg.WeightPreset = "expert"

		svc, err := service.NewFromConfig(ctx, cfg, logger.Get())
		So(err, ShouldBeNil)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("Then the preset weights are in effect", func() {
			So(svc.GetStats()["weights"], ShouldResemble, scoring.ExpertWeights)
		})
	})

	Convey("Given online mode", t, func() {
		ctx := context.Background()
		cfg := config.New(ctx)
		cfg.DataMode = "online"
		cfg.OfflineDir = filepath.Join(t.TempDir(), "absent")
		cfg.GitHubBaseURL = "http://127.0.0.1:1/"

		svc, err := service.NewFromConfig(ctx, cfg, logger.Get())
		So(err, ShouldBeNil)
		So(svc.Start(ctx), ShouldBeNil)
		svc.Stop()
	})
}
