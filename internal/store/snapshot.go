package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/AVALorrie37/OpenRamp/internal/adapters/opendigger"
	"github.com/AVALorrie37/OpenRamp/internal/domain/model"
	"github.com/AVALorrie37/OpenRamp/internal/domain/scoring"
)

const zstdExt = ".zst"

// Snapshot is an immutable, fully loaded offline dataset. It is safe for
// concurrent reads.
type Snapshot struct {
	repos    map[string]model.RepoMetrics
	health   map[string]model.ScoreBreakdown
	tokens   map[string]map[string]struct{}
	ids      []string // sorted by composite desc, then id asc
	LoadedAt time.Time
}

// NewSnapshot indexes repos. Records are sanitized and tagged offline.
func NewSnapshot(repos []model.RepoMetrics, loadedAt time.Time) *Snapshot {
	s := &Snapshot{
		repos:    make(map[string]model.RepoMetrics, len(repos)),
		health:   make(map[string]model.ScoreBreakdown, len(repos)),
		tokens:   make(map[string]map[string]struct{}, len(repos)),
		LoadedAt: loadedAt,
	}
	for _, r := range repos {
		if r.RepoID == "" {
			continue
		}
		r = r.Sanitize()
		r.Source = model.SourceOffline
		s.repos[r.RepoID] = r
		s.health[r.RepoID] = scoring.Breakdown(r)
		s.tokens[r.RepoID] = searchTokens(r)
	}
	s.ids = make([]string, 0, len(s.repos))
	for id := range s.repos {
		s.ids = append(s.ids, id)
	}
	sort.Slice(s.ids, func(i, j int) bool {
		a, b := s.health[s.ids[i]].Composite, s.health[s.ids[j]].Composite
		if a != b {
			return a > b
		}
		return s.ids[i] < s.ids[j]
	})
	return s
}

// Lookup returns a copy of the record for id.
func (s *Snapshot) Lookup(id string) (model.RepoMetrics, bool) {
	r, ok := s.repos[id]
	if !ok {
		return model.RepoMetrics{}, false
	}
	return r.Clone(), true
}

// Health returns the precomputed breakdown for id.
func (s *Snapshot) Health(id string) (model.ScoreBreakdown, bool) {
	h, ok := s.health[id]
	return h, ok
}

// Len returns the number of repositories.
func (s *Snapshot) Len() int { return len(s.repos) }

// Repos returns every record in composite order.
func (s *Snapshot) Repos() []model.RepoMetrics {
	out := make([]model.RepoMetrics, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, s.repos[id].Clone())
	}
	return out
}

// searchTokens is the set offline search terms are matched against:
// keywords, normalized languages and the words of the repository name.
func searchTokens(r model.RepoMetrics) map[string]struct{} {
	set := make(map[string]struct{}, len(r.Keywords)+len(r.Languages))
	add := func(raw string) {
		if tok, ok := model.NormalizeToken(raw); ok {
			set[tok] = struct{}{}
		}
	}
	for _, k := range r.Keywords {
		set[k] = struct{}{}
	}
	for _, l := range r.Languages {
		add(l)
	}
	for _, w := range opendigger.Words(r.Name) {
		add(w)
	}
	if _, name, ok := strings.Cut(r.RepoID, "/"); ok {
		add(name)
	}
	return set
}

// LoadDir reads the OpenDigger directory layout
// <dir>/<owner>/<repo>/{active_dates_and_times,openrank,issues_new,meta}.json.
// Repositories without any metric file are skipped.
func LoadDir(dir string, now time.Time, window time.Duration) ([]model.RepoMetrics, []string, error) {
	owners, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", model.ErrOfflineUnavailable, err)
	}
	var repos []model.RepoMetrics
	var skipped []string
	for _, owner := range owners {
		if !owner.IsDir() || strings.HasPrefix(owner.Name(), ".") {
			continue
		}
		entries, err := os.ReadDir(filepath.Join(dir, owner.Name()))
		if err != nil {
			return nil, nil, fmt.Errorf("read owner %s: %w", owner.Name(), err)
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			id := owner.Name() + "/" + e.Name()
			raw := readRaw(filepath.Join(dir, owner.Name(), e.Name()))
			if raw.Empty() {
				skipped = append(skipped, id)
				continue
			}
			repos = append(repos, opendigger.Aggregate(id, raw, now, window))
		}
	}
	return repos, skipped, nil
}

// readRaw loads whatever metric files exist. Unreadable or malformed files
// count as absent.
func readRaw(repoDir string) opendigger.Raw {
	var raw opendigger.Raw
	load := func(name string, dst any) bool {
		b, err := os.ReadFile(filepath.Join(repoDir, name+".json"))
		if err != nil {
			return false
		}
		return json.Unmarshal(b, dst) == nil
	}
	if !load(opendigger.MetricActive, &raw.Active) {
		raw.Active = nil
	}
	if !load(opendigger.MetricOpenRank, &raw.OpenRank) {
		raw.OpenRank = nil
	}
	if !load(opendigger.MetricIssues, &raw.Issues) {
		raw.Issues = nil
	}
	var meta opendigger.Meta
	if load(opendigger.MetaFile, &meta) {
		raw.Meta = &meta
	}
	return raw
}

// bundle is the on-disk shape of a single-file snapshot.
type bundle struct {
	GeneratedAt time.Time           `json:"generated_at"`
	Repos       []model.RepoMetrics `json:"repos"`
}

// ReadBundle reads a .json or zstd-compressed .json.zst snapshot file.
func ReadBundle(path string) ([]model.RepoMetrics, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %v", model.ErrOfflineUnavailable, err)
		}
		return nil, fmt.Errorf("open bundle: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, zstdExt) {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		defer dec.Close()
		r = dec
	}
	var b bundle
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return nil, fmt.Errorf("decode bundle %s: %w", path, err)
	}
	return b.Repos, nil
}

// WriteBundle writes repos to path, compressing with zstd when the name ends
// in .zst. The file is written to a temporary name and renamed into place.
func WriteBundle(path string, repos []model.RepoMetrics, generatedAt time.Time) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".bundle-*")
	if err != nil {
		return fmt.Errorf("create temp bundle: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	var w io.Writer = tmp
	var enc *zstd.Encoder
	if strings.HasSuffix(path, zstdExt) {
		enc, err = zstd.NewWriter(tmp, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if err != nil {
			_ = tmp.Close()
			return fmt.Errorf("zstd writer: %w", err)
		}
		w = enc
	}
	if err = json.NewEncoder(w).Encode(bundle{GeneratedAt: generatedAt, Repos: repos}); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("encode bundle: %w", err)
	}
	if enc != nil {
		if err = enc.Close(); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("close zstd writer: %w", err)
		}
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close bundle: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename bundle: %w", err)
	}
	return nil
}
