// Package ollama provides the optional keyword extraction capability backed
// by a local Ollama model.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/AVALorrie37/OpenRamp/internal/domain/model"
	"github.com/AVALorrie37/OpenRamp/internal/domain/profile"
)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "gemma2:2b"
	DefaultTimeout = 30 * time.Second
)

const systemPrompt = `You extract a developer profile from one chat message.
Reply with JSON only: {"skills": [...], "contribution_styles": [...]}.
skills are lower-case technology names. contribution_styles may only contain
bug_fix, feature, docs, community, review, test. Use empty arrays when unsure.`

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// Config holds configuration for the extractor.
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Extractor calls the Ollama chat endpoint and parses its JSON reply.
type Extractor struct {
	client  *http.Client
	baseURL string
	model   string
}

var _ profile.KeywordExtractor = (*Extractor)(nil)

// NewExtractor creates an extractor, filling in defaults.
func NewExtractor(cfg Config) *Extractor {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Extractor{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}

type extraction struct {
	Skills             []string `json:"skills"`
	ContributionStyles []string `json:"contribution_styles"`
}

// ExtractKeywords asks the model for skills and contribution styles. The
// caller validates the tokens; unknown styles are dropped here.
func (e *Extractor) ExtractKeywords(ctx context.Context, message string) (profile.Extraction, error) {
	body, err := json.Marshal(chatRequest{
		Model: e.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: message},
		},
		Stream: false,
		Format: "json",
	})
	if err != nil {
		return profile.Extraction{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return profile.Extraction{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return profile.Extraction{}, fmt.Errorf("%w: ollama: %v", model.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return profile.Extraction{}, fmt.Errorf("%w: ollama status %d: %s", model.ErrTransport, resp.StatusCode, string(msg))
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return profile.Extraction{}, fmt.Errorf("decode response: %w", err)
	}
	return parseReply(cr.Message.Content)
}

// parseReply accepts bare JSON or JSON inside a fenced code block.
func parseReply(content string) (profile.Extraction, error) {
	content = strings.TrimSpace(content)
	if m := fencedJSON.FindStringSubmatch(content); m != nil {
		content = m[1]
	}
	var x extraction
	if err := json.Unmarshal([]byte(content), &x); err != nil {
		return profile.Extraction{}, fmt.Errorf("%w: unparseable model reply", model.ErrInvalidProfileInput)
	}
	out := profile.Extraction{Skills: x.Skills}
	for _, s := range x.ContributionStyles {
		if c := model.ContributionType(strings.TrimSpace(s)); c.Valid() {
			out.Preferences = append(out.Preferences, c)
		}
	}
	return out, nil
}
