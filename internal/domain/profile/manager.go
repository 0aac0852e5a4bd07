package profile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/AVALorrie37/OpenRamp/internal/domain/model"
	"github.com/AVALorrie37/OpenRamp/pkg/logger"
)

// SessionStore persists sessions by user id.
type SessionStore interface {
	Get(ctx context.Context, userID string) (*model.Session, bool, error)
	Put(ctx context.Context, sess *model.Session) error
}

// KeywordExtractor is an optional external intent/keyword capability. Its
// output is validated and unioned with the lexicon extraction.
type KeywordExtractor interface {
	ExtractKeywords(ctx context.Context, message string) (Extraction, error)
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithKeywordExtractor plugs in an external extraction capability.
func WithKeywordExtractor(x KeywordExtractor) Option {
	return func(m *Manager) {
		m.external = x
	}
}

// WithTokenizer replaces the default tokenizer.
func WithTokenizer(t *Tokenizer) Option {
	return func(m *Manager) {
		if t != nil {
			m.tokenizer = t
		}
	}
}

// WithClock overrides time.Now for history timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// Manager serializes turns per user and persists sessions through the store.
type Manager struct {
	store     SessionStore
	tokenizer *Tokenizer
	external  KeywordExtractor
	now       func() time.Time
	logger    logger.Logger

	mu    sync.Mutex
	locks map[string]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

// NewManager creates a Manager over store.
func NewManager(store SessionStore, opts ...Option) *Manager {
	m := &Manager{
		store:     store,
		tokenizer: NewTokenizer(),
		now:       time.Now,
		locks:     make(map[string]*userLock),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = logger.Get()
	}
	return m
}

// Turn processes one chat message for userID. Concurrent turns for the same
// user are applied one at a time; different users proceed in parallel.
// Only session store failures are returned as errors.
func (m *Manager) Turn(ctx context.Context, userID, message string) (TurnResult, error) {
	ext := m.tokenizer.Extract(message)
	if m.external != nil {
		more, err := m.external.ExtractKeywords(ctx, message)
		if err != nil {
			m.logger.Warn(ctx, "keyword extraction failed; using lexicon only",
				logger.String("user_id", userID), logger.Error(err))
		} else {
			ext = ext.Union(more)
		}
	}

	unlock := m.lock(userID)
	defer unlock()

	sess, ok, err := m.store.Get(ctx, userID)
	if err != nil {
		return TurnResult{}, fmt.Errorf("load session %s: %w", userID, err)
	}
	now := m.now()
	if !ok {
		sess = model.NewSession(userID, now)
	}
	sess.Append(model.RoleUser, message, now)

	res := ProcessTurn(sess, ext)
	sess.Append(model.RoleAssistant, string(res.Directive), now)
	if err := m.store.Put(ctx, sess); err != nil {
		return TurnResult{}, fmt.Errorf("save session %s: %w", userID, err)
	}

	m.logger.Debug(ctx, "chat turn processed",
		logger.String("user_id", userID),
		logger.String("action", string(res.Action)),
		logger.String("state", string(res.State)),
		logger.Int("skills", len(res.Profile.Skills)),
	)
	return res, nil
}

// Session returns a copy of the stored session for userID.
func (m *Manager) Session(ctx context.Context, userID string) (*model.Session, bool, error) {
	sess, ok, err := m.store.Get(ctx, userID)
	if err != nil || !ok {
		return nil, ok, err
	}
	return sess.Clone(), true, nil
}

// lock acquires the per-user mutex and returns its release function. Lock
// entries are dropped once nobody holds or waits on them.
func (m *Manager) lock(userID string) func() {
	m.mu.Lock()
	l, ok := m.locks[userID]
	if !ok {
		l = &userLock{}
		m.locks[userID] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, userID)
		}
		m.mu.Unlock()
	}
}
