package convo

import (
	"strings"
	"sync"

	"github.com/locscout/locscout-go/internal/completion"
	"github.com/locscout/locscout-go/internal/index"
)

// Session holds the conversation state for one session ID. All fields are
// guarded by the session's own mutex; the engine locks the session for the
// duration of each turn so concurrent messages for the same session are
// serialized while different sessions proceed in parallel.
type Session struct {
	mu sync.Mutex

	// ID is the opaque session identifier assigned by the caller.
	ID string

	// Phase is the current conversation phase.
	Phase Phase

	// requirements preserves insertion order; reqSet enforces set semantics.
	requirements []string
	reqSet       map[string]struct{}

	// History is the full append-only chat history. Only the trailing window
	// is shown to the completion model; storage itself is unbounded.
	History []completion.Turn

	// LastQuery is the most recent synthesized search query.
	LastQuery string

	// SearchResults is the most recent deduplicated candidate list.
	SearchResults []index.Candidate
}

// AddRequirement inserts a tag, suppressing duplicates case-insensitively.
// Returns true when the tag was new.
func (s *Session) AddRequirement(tag string) bool {
	key := strings.ToLower(strings.TrimSpace(tag))
	if key == "" {
		return false
	}
	if _, ok := s.reqSet[key]; ok {
		return false
	}
	s.reqSet[key] = struct{}{}
	s.requirements = append(s.requirements, key)
	return true
}

// Requirements returns the accumulated tags in insertion order. The returned
// slice is a copy.
func (s *Session) Requirements() []string {
	out := make([]string, len(s.requirements))
	copy(out, s.requirements)
	return out
}

// ClearSearch resets requirements, results, and the last query for a fresh
// search, leaving the chat history intact.
func (s *Session) ClearSearch() {
	s.requirements = nil
	s.reqSet = make(map[string]struct{})
	s.SearchResults = nil
	s.LastQuery = ""
}

// AppendUser records a user turn in the history.
func (s *Session) AppendUser(content string) {
	s.History = append(s.History, completion.Turn{Role: completion.RoleUser, Content: content})
}

// AppendAssistant records an assistant turn in the history.
func (s *Session) AppendAssistant(content string) {
	s.History = append(s.History, completion.Turn{Role: completion.RoleAssistant, Content: content})
}

// Window returns the last n history entries (all of them when n <= 0 or the
// history is shorter). The returned slice aliases the history; callers must
// not mutate it.
func (s *Session) Window(n int) []completion.Turn {
	if n <= 0 || len(s.History) <= n {
		return s.History
	}
	return s.History[len(s.History)-n:]
}

// Store maps session IDs to sessions, creating on first reference. Sessions
// are never evicted; they live for the process lifetime.
// TODO: add a TTL sweep once session volume warrants it.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewStore returns an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// GetOrCreate returns the session for the given ID, creating a fresh one in
// the greeting phase if the ID has not been seen before.
func (st *Store) GetOrCreate(id string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[id]; ok {
		return s
	}
	s := &Session{
		ID:     id,
		Phase:  PhaseGreeting,
		reqSet: make(map[string]struct{}),
	}
	st.sessions[id] = s
	return s
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
