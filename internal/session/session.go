// Package session provides the per-user ephemeral conversation state and the
// keyed store that serializes access to it.
package session

import "time"

// Mode selects which recommendation algorithm subsequent category choices use.
// It is a property of the session, never shared across users.
type Mode int

const (
	ModeUnset Mode = iota
	ModeSurprise
	ModeTopRated
)

func (m Mode) String() string {
	switch m {
	case ModeSurprise:
		return "surprise"
	case ModeTopRated:
		return "top_rated"
	default:
		return "unset"
	}
}

// InputState drives the multi-step venue-submission sub-flow.
type InputState int

const (
	InputIdle InputState = iota
	InputAwaitingTitle
	InputAwaitingRating
)

func (s InputState) String() string {
	switch s {
	case InputAwaitingTitle:
		return "awaiting_title"
	case InputAwaitingRating:
		return "awaiting_rating"
	default:
		return "idle"
	}
}

// Draft is a venue submission under construction during the "add venue" flow,
// before its rating is attached.
type Draft struct {
	Title string
}

// Session is one user's conversation state. InputState == InputAwaitingRating
// implies Draft.Title is set; Draft is cleared exactly when a rating is
// recorded or the flow is abandoned.
type Session struct {
	Region     string
	Category   string
	Mode       Mode
	InputState InputState
	Draft      *Draft

	LastSeen time.Time
}

// Reset returns the session to its default state, keeping nothing.
func (s *Session) Reset() {
	s.Region = ""
	s.Category = ""
	s.Mode = ModeUnset
	s.InputState = InputIdle
	s.Draft = nil
}

// AbandonDraft drops any submission in progress and returns to idle input.
func (s *Session) AbandonDraft() {
	s.InputState = InputIdle
	s.Draft = nil
}
