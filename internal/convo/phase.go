// Package convo implements the session-scoped conversation state machine and
// the search orchestration behind it: eliciting location requirements across
// turns, synthesizing a vector query from accumulated intent, retrieving and
// deduplicating nearest-neighbour candidates, and formatting results.
package convo

import "fmt"

// Phase is the discrete state of a session's conversation.
type Phase int

const (
	// PhaseGreeting is the initial state of every new session.
	PhaseGreeting Phase = iota
	// PhaseCollecting accumulates requirement tags from user messages.
	PhaseCollecting
	// PhaseConfirming waits for the user to confirm the gathered requirements
	// before a search is triggered.
	PhaseConfirming
	// PhaseResponding holds the session after a search; follow-up chat stays
	// here until the user asks for a new search.
	PhaseResponding
)

// String returns the phase name for logging.
func (p Phase) String() string {
	switch p {
	case PhaseGreeting:
		return "greeting"
	case PhaseCollecting:
		return "collecting"
	case PhaseConfirming:
		return "confirming"
	case PhaseResponding:
		return "responding"
	default:
		return fmt.Sprintf("unknown(%d)", int(p))
	}
}

// StateError reports an internal invariant violation, such as a session in an
// unknown phase. It should be unreachable; when it occurs it is surfaced
// loudly rather than papered over.
type StateError struct {
	// SessionID identifies the affected session.
	SessionID string

	// Phase is the offending phase value.
	Phase Phase
}

func (e *StateError) Error() string {
	return fmt.Sprintf("convo: session %s in invalid phase %d", e.SessionID, int(e.Phase))
}
