package convo

import (
	"testing"

	"github.com/locscout/locscout-go/internal/completion"
)

func TestStoreGetOrCreate(t *testing.T) {
	t.Parallel()

	st := NewStore()
	a := st.GetOrCreate("s1")
	if a.Phase != PhaseGreeting {
		t.Errorf("new session phase = %v, want greeting", a.Phase)
	}
	b := st.GetOrCreate("s1")
	if a != b {
		t.Error("GetOrCreate returned a different session for the same ID")
	}
	if st.Len() != 1 {
		t.Errorf("Len = %d, want 1", st.Len())
	}
}

func TestAddRequirementSetSemantics(t *testing.T) {
	t.Parallel()

	s := NewStore().GetOrCreate("s1")
	if !s.AddRequirement("Outdoor") {
		t.Error("first insert should report new")
	}
	if s.AddRequirement("outdoor") {
		t.Error("case-insensitive duplicate should be suppressed")
	}
	if s.AddRequirement("  outdoor  ") {
		t.Error("whitespace-padded duplicate should be suppressed")
	}
	if s.AddRequirement("") {
		t.Error("empty tag should be rejected")
	}
	if got := s.Requirements(); len(got) != 1 || got[0] != "outdoor" {
		t.Errorf("Requirements = %v, want [outdoor]", got)
	}
}

func TestWindowReturnsTail(t *testing.T) {
	t.Parallel()

	s := NewStore().GetOrCreate("s1")
	for i := 0; i < 10; i++ {
		s.AppendUser("u")
		s.AppendAssistant("a")
	}
	if got := len(s.Window(8)); got != 8 {
		t.Errorf("Window(8) length = %d", got)
	}
	if got := len(s.Window(0)); got != 20 {
		t.Errorf("Window(0) should return full history, got %d", got)
	}
	tail := s.Window(1)
	if tail[0].Role != completion.RoleAssistant {
		t.Errorf("Window(1) should end with the latest entry, got role %v", tail[0].Role)
	}
}

func TestClearSearchKeepsHistory(t *testing.T) {
	t.Parallel()

	s := NewStore().GetOrCreate("s1")
	s.AddRequirement("beach")
	s.AppendUser("hello")
	s.LastQuery = "q"
	s.ClearSearch()

	if len(s.Requirements()) != 0 || s.LastQuery != "" || s.SearchResults != nil {
		t.Error("ClearSearch did not reset search state")
	}
	if len(s.History) != 1 {
		t.Error("ClearSearch must not touch the chat history")
	}
	if !s.AddRequirement("beach") {
		t.Error("tag should be insertable again after reset")
	}
}
