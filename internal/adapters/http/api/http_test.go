package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AVALorrie37/OpenRamp/internal/adapters/http/api"
	"github.com/AVALorrie37/OpenRamp/internal/domain/model"
	"github.com/AVALorrie37/OpenRamp/internal/domain/types"
	"github.com/AVALorrie37/OpenRamp/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

type mockDependencies struct {
	reply     types.ChatReply
	chatErr   error
	result    types.SearchResult
	searchErr error
	view      types.RepoView
	repoErr   error

	lastUserID  string
	lastMessage string
	lastSearch  types.SearchRequest
	lastRepo    string
	requestID   string
}

func (m *mockDependencies) Chat(ctx context.Context, userID, message string) (types.ChatReply, error) {
	m.lastUserID, m.lastMessage = userID, message
	m.requestID = logger.RequestID(ctx)
	return m.reply, m.chatErr
}

func (m *mockDependencies) Search(_ context.Context, req types.SearchRequest) (types.SearchResult, error) {
	m.lastSearch = req
	return m.result, m.searchErr
}

func (m *mockDependencies) Repo(_ context.Context, id string) (types.RepoView, error) {
	m.lastRepo = id
	return m.view, m.repoErr
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func newMux(deps *mockDependencies) *http.ServeMux {
	server := api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"mode": "offline"}})
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeError(w *httptest.ResponseRecorder) map[string]string {
	var out map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return out
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		Convey("The health endpoint serves the metrics exposition", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "openramp_matcher_snapshot_repositories")
		})

		Convey("The stats endpoint returns the provider's map", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var stats map[string]interface{}
			So(json.Unmarshal(w.Body.Bytes(), &stats), ShouldBeNil)
			So(stats["mode"], ShouldEqual, "offline")
		})

		Convey("Wrong methods are not found", func() {
			So(do(mux, http.MethodGet, "/chat", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodGet, "/search", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodPost, "/repos/a/b", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodPost, "/stats", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Unknown paths are not found", func() {
			So(do(mux, http.MethodGet, "/unknown", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestChatHandler(t *testing.T) {
	Convey("Given a chat endpoint", t, func() {
		deps := &mockDependencies{reply: types.ChatReply{
			UserID:    "u1",
			Directive: "ask_confirm",
			Action:    "NONE",
			State:     "pending",
		}}
		mux := newMux(deps)

		Convey("A valid turn is forwarded and the reply returned", func() {
			w := do(mux, http.MethodPost, "/chat", `{"user_id":"u1","message":"我擅长Python开发"}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.lastUserID, ShouldEqual, "u1")
			So(deps.lastMessage, ShouldEqual, "我擅长Python开发")

			var reply types.ChatReply
			So(json.Unmarshal(w.Body.Bytes(), &reply), ShouldBeNil)
			So(reply.Directive, ShouldEqual, "ask_confirm")
			So(reply.State, ShouldEqual, "pending")
		})

		Convey("A request id is generated and propagated", func() {
			w := do(mux, http.MethodPost, "/chat", `{"user_id":"u1","message":"hi"}`)
			id := w.Header().Get(api.RequestIDHeader)
			So(id, ShouldNotBeEmpty)
			So(deps.requestID, ShouldEqual, id)
		})

		Convey("A caller supplied request id is kept", func() {
			req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"user_id":"u1","message":"hi"}`))
			req.Header.Set(api.RequestIDHeader, "req-42")
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Header().Get(api.RequestIDHeader), ShouldEqual, "req-42")
			So(deps.requestID, ShouldEqual, "req-42")
		})

		Convey("Missing fields are rejected", func() {
			w := do(mux, http.MethodPost, "/chat", `{"user_id":"u1"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeError(w)["code"], ShouldEqual, "bad_request")
			So(deps.lastUserID, ShouldBeEmpty)
		})

		Convey("Malformed JSON is rejected", func() {
			w := do(mux, http.MethodPost, "/chat", `{"user_id":`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Unknown fields are rejected", func() {
			w := do(mux, http.MethodPost, "/chat", `{"user_id":"u1","message":"hi","extra":1}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("An unavailable snapshot maps to 503", func() {
			deps.chatErr = fmt.Errorf("search: %w", model.ErrOfflineUnavailable)
			w := do(mux, http.MethodPost, "/chat", `{"user_id":"u1","message":"推荐"}`)
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(decodeError(w)["code"], ShouldEqual, "offline_unavailable")
		})
	})
}

func TestSearchHandler(t *testing.T) {
	Convey("Given a search endpoint", t, func() {
		deps := &mockDependencies{result: types.SearchResult{
			Entries:    []types.Entry{{Rank: 1, RepoID: "acme/web", MatchScore: 0.8}},
			Exhausted:  false,
			Rounds:     1,
			StopReason: "target_reached",
		}}
		mux := newMux(deps)

		Convey("A valid request returns the result", func() {
			w := do(mux, http.MethodPost, "/search", `{"skills":["python"],"preferences":["bug_fix"],"target":1}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.lastSearch.Skills, ShouldResemble, []string{"python"})
			So(deps.lastSearch.Target, ShouldEqual, 1)

			var res types.SearchResult
			So(json.Unmarshal(w.Body.Bytes(), &res), ShouldBeNil)
			So(res.StopReason, ShouldEqual, "target_reached")
			So(res.Entries, ShouldHaveLength, 1)
			So(res.Entries[0].RepoID, ShouldEqual, "acme/web")
		})

		Convey("An unknown preference fails validation", func() {
			w := do(mux, http.MethodPost, "/search", `{"skills":["python"],"preferences":["gardening"]}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("An oversized target fails validation", func() {
			w := do(mux, http.MethodPost, "/search", `{"skills":["python"],"target":1000}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Service errors are mapped to statuses", func() {
			cases := []struct {
				err    error
				status int
				code   string
			}{
				{model.ErrInvalidProfileInput, http.StatusBadRequest, "bad_request"},
				{model.ErrRateLimitExceeded, http.StatusTooManyRequests, "rate_limited"},
				{model.ErrOnlineTimeout, http.StatusGatewayTimeout, "upstream_timeout"},
				{model.ErrTransport, http.StatusBadGateway, "upstream_error"},
				{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
			}
			for _, c := range cases {
				deps.searchErr = fmt.Errorf("service: %w", c.err)
				w := do(mux, http.MethodPost, "/search", `{"skills":["python"]}`)
				So(w.Code, ShouldEqual, c.status)
				So(decodeError(w)["code"], ShouldEqual, c.code)
			}
		})
	})
}

func TestRepoHandler(t *testing.T) {
	Convey("Given a repository endpoint", t, func() {
		deps := &mockDependencies{view: types.RepoView{
			Repo: model.RepoMetrics{RepoID: "acme/web", Name: "web"},
		}}
		mux := newMux(deps)

		Convey("An owner/repo path is looked up", func() {
			w := do(mux, http.MethodGet, "/repos/acme/web", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.lastRepo, ShouldEqual, "acme/web")
		})

		Convey("A trailing slash is tolerated", func() {
			w := do(mux, http.MethodGet, "/repos/acme/web/", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.lastRepo, ShouldEqual, "acme/web")
		})

		Convey("Malformed ids are rejected", func() {
			for _, p := range []string{"/repos/", "/repos/acme", "/repos/acme/web/extra"} {
				w := do(mux, http.MethodGet, p, "")
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			}
			So(deps.lastRepo, ShouldBeEmpty)
		})

		Convey("An unknown repository is not found", func() {
			deps.repoErr = model.ErrRepoNotFound
			w := do(mux, http.MethodGet, "/repos/acme/ghost", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decodeError(w)["code"], ShouldEqual, "not_found")
			So(decodeError(w)["request_id"], ShouldNotBeEmpty)
		})
	})
}

func TestError(t *testing.T) {
	Convey("Given wrapped API errors", t, func() {
		Convey("Kind and cause are both reachable", func() {
			cause := errors.New("eof")
			err := api.WrapKind("api.chat", api.ErrBadRequest, cause)
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.chat: bad request: eof")
		})

		Convey("NewKind carries only the kind", func() {
			err := api.NewKind("api.get_repo", api.ErrBadRequest)
			So(err.Error(), ShouldEqual, "api.get_repo: bad request")
		})

		Convey("Wrap keeps the domain error", func() {
			err := api.Wrap("api.search", model.ErrRepoNotFound)
			So(errors.Is(err, model.ErrRepoNotFound), ShouldBeTrue)
		})
	})
}
