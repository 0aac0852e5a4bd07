package model

import "time"

// State is the conversational state of a session.
type State string

const (
	StateCollecting State = "collecting"
	StatePending    State = "pending"
	StateConfirmed  State = "confirmed"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry of the conversation history.
type Turn struct {
	Role Role      `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Session holds per-user conversational state.
type Session struct {
	UserID string `json:"user_id"`
	State  State  `json:"state"`
	// Draft accumulates extracted skills and preferences.
	Draft UserProfile `json:"draft"`
	// Profile is the frozen copy of Draft taken at confirmation. Nil until then.
	Profile *UserProfile `json:"profile,omitempty"`
	// Generation increments on every reset.
	Generation int       `json:"generation"`
	History    []Turn    `json:"history"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewSession returns a fresh session in the collecting state.
func NewSession(userID string, now time.Time) *Session {
	return &Session{
		UserID:    userID,
		State:     StateCollecting,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Append records a turn in the history.
func (s *Session) Append(role Role, text string, at time.Time) {
	s.History = append(s.History, Turn{Role: role, Text: text, At: at})
	s.UpdatedAt = at
}

// ActiveProfile returns the confirmed profile when there is one, otherwise
// the draft.
func (s *Session) ActiveProfile() UserProfile {
	if s.Profile != nil {
		return s.Profile.Clone()
	}
	return s.Draft.Clone()
}

// Clone returns a deep copy so stores can hand out snapshots safely.
func (s *Session) Clone() *Session {
	out := *s
	out.Draft = s.Draft.Clone()
	if s.Profile != nil {
		p := s.Profile.Clone()
		out.Profile = &p
	}
	out.History = append([]Turn(nil), s.History...)
	return &out
}
