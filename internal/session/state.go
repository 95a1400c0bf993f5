// Package session holds the per-browser view state.
package session

import (
	"holiday-viewer/internal/model"
)

// PageSize is how many events the full list shows while collapsed.
const PageSize = 6

// Phase is the position of a view in its state machine.
type Phase string

const (
	PhaseUnfetched        Phase = "unfetched"
	PhaseFetchedCollapsed Phase = "fetched_collapsed"
	PhaseFetchedExpanded  Phase = "fetched_expanded"
)

// NoticeLevel controls how a notice banner is styled.
type NoticeLevel string

const (
	NoticeInfo  NoticeLevel = "info"
	NoticeError NoticeLevel = "error"
)

// Notice is a banner shown above the results.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

// State is the view state of one session. It is mutated only by ApplyFetch
// and Toggle.
type State struct {
	Query    model.Query   `json:"query"`
	Events   []model.Event `json:"events"`
	Fetched  bool          `json:"fetched"`
	Expanded bool          `json:"expanded"`
	Notice   *Notice       `json:"notice,omitempty"`
}

// New returns the initial, unfetched state for q.
func New(q model.Query) *State {
	return &State{Query: q}
}

// Phase reports the current state machine position.
func (s *State) Phase() Phase {
	switch {
	case !s.Fetched:
		return PhaseUnfetched
	case s.Expanded:
		return PhaseFetchedExpanded
	default:
		return PhaseFetchedCollapsed
	}
}

// ApplyFetch records the outcome of a fetch. From any phase it moves to
// fetched-collapsed and replaces the event list. When ok is false the list
// is emptied and the view's no-data notice is set.
func (s *State) ApplyFetch(q model.Query, events []model.Event, ok bool) {
	s.Query = q
	s.Fetched = true
	s.Expanded = false
	s.Notice = nil
	s.Events = nil

	if !ok {
		msg, isErr := q.View.NoDataMessage()
		level := NoticeInfo
		if isErr {
			level = NoticeError
		}
		s.Notice = &Notice{Level: level, Message: msg}
		return
	}
	s.Events = append([]model.Event(nil), events...)
}

// CanToggle reports whether the expand/collapse control is enabled.
func (s *State) CanToggle() bool {
	return s.Fetched && len(s.Events) > PageSize
}

// Toggle flips between collapsed and expanded. It reports false and does
// nothing when the control is disabled.
func (s *State) Toggle() bool {
	if !s.CanToggle() {
		return false
	}
	s.Expanded = !s.Expanded
	return true
}

// Visible returns the events the full list shows in the current phase.
func (s *State) Visible() []model.Event {
	if !s.Fetched {
		return nil
	}
	if s.Expanded || len(s.Events) <= PageSize {
		return s.Events
	}
	return s.Events[:PageSize]
}

// Clone returns a deep copy so stores never share slices with callers.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	c := *s
	c.Events = append([]model.Event(nil), s.Events...)
	if s.Notice != nil {
		n := *s.Notice
		c.Notice = &n
	}
	return &c
}
