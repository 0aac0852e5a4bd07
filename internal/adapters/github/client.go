// Package github implements the repository search capability on top of the
// GitHub search API.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"

	"github.com/AVALorrie37/OpenRamp/internal/domain/model"
)

// Defaults for the search client.
const (
	DefaultTimeout = 15 * time.Second
	DefaultPerPage = 30
	maxPerPage     = 100

	// Repositories must have been pushed within this window and be older
	// than minRepoAge, which filters out abandoned and brand-new projects.
	pushedWithin = 365 * 24 * time.Hour
	minRepoAge   = 60 * 24 * time.Hour
)

// preferenceQualifiers maps contribution preferences to search qualifiers.
var preferenceQualifiers = map[model.ContributionType]string{
	model.ContributionBugFix:    "help-wanted-issues:>0",
	model.ContributionFeature:   "help-wanted-issues:>0",
	model.ContributionTest:      "help-wanted-issues:>0",
	model.ContributionReview:    "help-wanted-issues:>0",
	model.ContributionDocs:      "good-first-issues:>0",
	model.ContributionCommunity: "good-first-issues:>0",
}

// Option configures the Client.
type Option func(*Client)

// WithToken authenticates requests with a personal access token.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithBaseURL points the client at a different API root (GHES or a test server).
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.baseURL = base
	}
}

// WithHTTPClient uses hc for unauthenticated requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithClock overrides time.Now for the date qualifiers.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// Client searches GitHub repositories and remembers their metadata.
type Client struct {
	gh         *gh.Client
	token      string
	baseURL    string
	httpClient *http.Client
	now        func() time.Time

	mu   sync.RWMutex
	meta map[string]model.RepoMeta
}

// NewClient builds a search client.
func NewClient(ctx context.Context, opts ...Option) (*Client, error) {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		now:        time.Now,
		meta:       make(map[string]model.RepoMeta),
	}
	for _, opt := range opts {
		opt(c)
	}

	hc := c.httpClient
	if c.token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.token})
		hc = oauth2.NewClient(ctx, ts)
		hc.Timeout = DefaultTimeout
	}
	c.gh = gh.NewClient(hc)

	if c.baseURL != "" {
		base := c.baseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("parse github base url: %w", err)
		}
		c.gh.BaseURL = u
	}
	return c, nil
}

// Search returns repository ids ("owner/name") matching q.
func (c *Client) Search(ctx context.Context, q model.Query) ([]string, error) {
	perPage := q.Limit
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	page := q.Page
	if page < 1 {
		page = 1
	}

	res, _, err := c.gh.Search.Repositories(ctx, c.buildQuery(q), &gh.SearchOptions{
		Sort:        "updated",
		Order:       "desc",
		ListOptions: gh.ListOptions{Page: page, PerPage: perPage},
	})
	if err != nil {
		return nil, classify(err)
	}

	ids := make([]string, 0, len(res.Repositories))
	c.mu.Lock()
	for _, r := range res.Repositories {
		id := r.GetFullName()
		if id == "" {
			continue
		}
		ids = append(ids, id)
		meta := model.RepoMeta{
			Name:        r.GetName(),
			Description: r.GetDescription(),
			Topics:      append([]string(nil), r.Topics...),
		}
		if lang := r.GetLanguage(); lang != "" {
			meta.Languages = []string{lang}
		}
		c.meta[id] = meta
	}
	c.mu.Unlock()
	return ids, nil
}

// Describe returns metadata remembered from earlier searches.
func (c *Client) Describe(repoID string) (model.RepoMeta, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.meta[repoID]
	return m, ok
}

// buildQuery renders terms, preference qualifiers and the activity window.
func (c *Client) buildQuery(q model.Query) string {
	parts := make([]string, 0, len(q.Terms)+len(q.Preferences)+3)
	parts = append(parts, q.Terms...)
	if len(q.Terms) > 0 {
		parts = append(parts, "in:name,description,topics")
	}
	seen := map[string]bool{}
	for _, p := range q.Preferences {
		if qual, ok := preferenceQualifiers[p]; ok && !seen[qual] {
			seen[qual] = true
			parts = append(parts, qual)
		}
	}
	now := c.now().UTC()
	parts = append(parts,
		"pushed:>"+now.Add(-pushedWithin).Format("2006-01-02"),
		"created:<"+now.Add(-minRepoAge).Format("2006-01-02"),
	)
	return strings.Join(parts, " ")
}

// classify maps go-github failures onto the shared error taxonomy.
func classify(err error) error {
	var rle *gh.RateLimitError
	var abuse *gh.AbuseRateLimitError
	switch {
	case errors.As(err, &rle), errors.As(err, &abuse):
		return fmt.Errorf("%w: github: %v", model.ErrRateLimitExceeded, err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: github: %v", model.ErrOnlineTimeout, err)
	}
	return fmt.Errorf("%w: github: %v", model.ErrTransport, err)
}
