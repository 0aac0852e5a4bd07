package opendigger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/AVALorrie37/OpenRamp/internal/domain/model"
)

// Client defaults.
const (
	DefaultBaseURL = "https://oss.open-digger.cn/github"
	DefaultTimeout = 10 * time.Second
	maxBodyBytes   = 8 << 20
)

// Option configures the Client.
type Option func(*Client)

// WithBaseURL overrides the API root.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithClock overrides time.Now for the activity window.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithWindow sets the activity look-back window.
func WithWindow(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.window = d
		}
	}
}

// Client fetches live metrics for one repository at a time.
type Client struct {
	http    *http.Client
	baseURL string
	now     func() time.Time
	window  time.Duration
}

// NewClient builds an OpenDigger client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: DefaultTimeout},
		baseURL: DefaultBaseURL,
		now:     time.Now,
		window:  DefaultWindow,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the live metrics for repoID. Metric files the API does not
// have default to zero; a repository with none of them is ErrRepoNotFound.
// Descriptive fields are left empty.
func (c *Client) Fetch(ctx context.Context, repoID string) (model.RepoMetrics, error) {
	var raw Raw
	for _, target := range []struct {
		metric string
		dst    *map[string]json.RawMessage
	}{
		{MetricActive, &raw.Active},
		{MetricOpenRank, &raw.OpenRank},
		{MetricIssues, &raw.Issues},
	} {
		found, err := c.getJSON(ctx, repoID, target.metric, target.dst)
		if err != nil {
			return model.RepoMetrics{}, err
		}
		if !found {
			*target.dst = nil
		}
	}
	if raw.Empty() {
		return model.RepoMetrics{}, fmt.Errorf("%w: %s", model.ErrRepoNotFound, repoID)
	}
	m := Aggregate(repoID, raw, c.now(), c.window)
	m.Source = model.SourceOnline
	return m, nil
}

// getJSON decodes {base}/{repo}/{metric}.json into dst. It reports false on
// 404.
func (c *Client) getJSON(ctx context.Context, repoID, metric string, dst any) (bool, error) {
	url := fmt.Sprintf("%s/%s/%s.json", c.baseURL, repoID, metric)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("%w: create request: %v", model.ErrTransport, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return false, fmt.Errorf("%w: %s %s", model.ErrOnlineTimeout, repoID, metric)
		}
		return false, fmt.Errorf("%w: %s %s: %v", model.ErrTransport, repoID, metric, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return false, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return false, fmt.Errorf("%w: opendigger %s", model.ErrRateLimitExceeded, repoID)
	case resp.StatusCode != http.StatusOK:
		return false, fmt.Errorf("%w: opendigger status %d for %s %s", model.ErrTransport, resp.StatusCode, repoID, metric)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(dst); err != nil {
		return false, fmt.Errorf("%w: decode %s %s: %v", model.ErrTransport, repoID, metric, err)
	}
	return true, nil
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
