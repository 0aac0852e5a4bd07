package github_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/AVALorrie37/OpenRamp/internal/adapters/github"
	"github.com/AVALorrie37/OpenRamp/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const searchBody = `{
  "total_count": 2,
  "incomplete_results": false,
  "items": [
    {"full_name": "acme/api", "name": "api", "description": "Fast Go API toolkit", "language": "Go", "topics": ["http", "rest"]},
    {"full_name": "acme/docs", "name": "docs", "description": "Docs site", "language": "", "topics": []}
  ]
}`

func TestClient_Search(t *testing.T) {
	Convey("Given a fake GitHub search endpoint", t, func() {
		var gotQuery, gotSort, gotAuth, gotPage string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.Query().Get("q")
			gotSort = r.URL.Query().Get("sort")
			gotPage = r.URL.Query().Get("page")
			gotAuth = r.Header.Get("Authorization")
			if !strings.HasSuffix(r.URL.Path, "/search/repositories") {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(searchBody))
		}))
		defer srv.Close()

		now := func() time.Time { return time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC) }
		c, err := github.NewClient(context.Background(),
			github.WithBaseURL(srv.URL),
			github.WithToken("secret"),
			github.WithClock(now),
		)
		So(err, ShouldBeNil)

		Convey("When searching with terms and preferences", func() {
			ids, err := c.Search(context.Background(), model.Query{
				Terms:       []string{"go", "rest"},
				Preferences: []model.ContributionType{model.ContributionDocs, model.ContributionCommunity, model.ContributionBugFix},
				Page:        2,
				Limit:       10,
			})

			Convey("Then ids come back in order", func() {
				So(err, ShouldBeNil)
				So(ids, ShouldResemble, []string{"acme/api", "acme/docs"})
			})

			Convey("And the query carries terms, qualifiers and the activity window", func() {
				So(gotQuery, ShouldStartWith, "go rest in:name,description,topics")
				So(strings.Count(gotQuery, "good-first-issues:>0"), ShouldEqual, 1)
				So(gotQuery, ShouldContainSubstring, "help-wanted-issues:>0")
				So(gotQuery, ShouldContainSubstring, "pushed:>2023-07-01")
				So(gotQuery, ShouldContainSubstring, "created:<2024-05-01")
				So(gotSort, ShouldEqual, "updated")
				So(gotPage, ShouldEqual, "2")
				So(gotAuth, ShouldEqual, "Bearer secret")
			})

			Convey("And metadata is remembered", func() {
				meta, ok := c.Describe("acme/api")
				So(ok, ShouldBeTrue)
				So(meta.Languages, ShouldResemble, []string{"Go"})
				So(meta.Topics, ShouldResemble, []string{"http", "rest"})

				docs, ok := c.Describe("acme/docs")
				So(ok, ShouldBeTrue)
				So(docs.Languages, ShouldBeEmpty)

				_, ok = c.Describe("other/repo")
				So(ok, ShouldBeFalse)
			})
		})
	})

	Convey("Given an upstream that is rate limiting", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-RateLimit-Limit", "10")
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("X-RateLimit-Reset", "4102444800")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"message": "API rate limit exceeded"}`))
		}))
		defer srv.Close()

		c, err := github.NewClient(context.Background(), github.WithBaseURL(srv.URL))
		So(err, ShouldBeNil)

		_, err = c.Search(context.Background(), model.Query{Terms: []string{"go"}})
		So(errors.Is(err, model.ErrRateLimitExceeded), ShouldBeTrue)
	})

	Convey("Given an upstream failing with a server error", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		c, err := github.NewClient(context.Background(), github.WithBaseURL(srv.URL))
		So(err, ShouldBeNil)

		_, err = c.Search(context.Background(), model.Query{Terms: []string{"go"}})
		So(errors.Is(err, model.ErrTransport), ShouldBeTrue)
	})
}
