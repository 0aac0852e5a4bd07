package profile

import (
	"github.com/AVALorrie37/OpenRamp/internal/domain/model"
)

// Action tells the caller what to do after a turn.
type Action string

const (
	ActionNone    Action = "NONE"
	ActionConfirm Action = "CONFIRM"
	ActionSearch  Action = "SEARCH"
	ActionReset   Action = "RESET"
)

// Directive tells the reply generator what kind of answer to produce.
type Directive string

const (
	DirectiveAskSkills          Directive = "ask_skills"
	DirectiveAskConfirm         Directive = "ask_confirm"
	DirectiveConfirmed          Directive = "confirmed"
	DirectiveClarify            Directive = "clarify"
	DirectiveSearching          Directive = "searching"
	DirectivePreferencesUpdated Directive = "preferences_updated"
	DirectiveReset              Directive = "reset"
)

// TurnResult is the outcome of one chat turn.
type TurnResult struct {
	Directive Directive         `json:"directive"`
	Action    Action            `json:"action"`
	State     model.State       `json:"state"`
	Profile   model.UserProfile `json:"profile"`
	// Issue carries ErrInvalidProfileInput when nothing could be extracted.
	// It is informational; the turn itself succeeded.
	Issue error `json:"-"`
}

// ProcessTurn advances sess with an already extracted message.
func ProcessTurn(sess *model.Session, ext Extraction) TurnResult {
	if ext.Reset {
		sess.State = model.StateCollecting
		sess.Draft = model.UserProfile{}
		sess.Profile = nil
		sess.Generation++
		return result(sess, DirectiveReset, ActionReset, nil)
	}

	if sess.State == model.StateConfirmed {
		return processConfirmed(sess, ext)
	}

	if !ext.HasProfileData() && !ext.Confirm && !ext.Discover {
		return result(sess, DirectiveClarify, ActionNone, model.ErrInvalidProfileInput)
	}

	sess.Draft.Merge(model.UserProfile{
		Skills:      ext.Skills,
		Preferences: ext.Preferences,
		Experience:  ext.Experience,
	})

	action := ActionNone
	if ext.Confirm && len(sess.Draft.Skills) > 0 {
		action = ActionConfirm
	}

	if sess.State == model.StateCollecting && len(sess.Draft.Skills) > 0 {
		sess.State = model.StatePending
	}
	if sess.State == model.StatePending && action == ActionConfirm {
		frozen := sess.Draft.Clone()
		sess.Profile = &frozen
		sess.State = model.StateConfirmed
		return result(sess, DirectiveConfirmed, action, nil)
	}

	if sess.State == model.StatePending {
		return result(sess, DirectiveAskConfirm, action, nil)
	}
	return result(sess, DirectiveAskSkills, action, nil)
}

// processConfirmed only lets preferences through; skills are frozen.
func processConfirmed(sess *model.Session, ext Extraction) TurnResult {
	if sess.Profile == nil {
		frozen := sess.Draft.Clone()
		sess.Profile = &frozen
	}
	changed := false
	for _, c := range ext.Preferences {
		if sess.Profile.AddPreference(c) {
			changed = true
		}
		sess.Draft.AddPreference(c)
	}
	switch {
	case ext.Discover:
		return result(sess, DirectiveSearching, ActionSearch, nil)
	case changed:
		return result(sess, DirectivePreferencesUpdated, ActionNone, nil)
	case ext.Empty():
		return result(sess, DirectiveClarify, ActionNone, model.ErrInvalidProfileInput)
	}
	return result(sess, DirectiveConfirmed, ActionNone, nil)
}

func result(sess *model.Session, d Directive, a Action, issue error) TurnResult {
	return TurnResult{
		Directive: d,
		Action:    a,
		State:     sess.State,
		Profile:   sess.ActiveProfile(),
		Issue:     issue,
	}
}
