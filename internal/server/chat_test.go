package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/locscout/locscout-go/internal/store"
)

// ---------------------------------------------------------------------------
// Fake chatter for chat handler tests
// ---------------------------------------------------------------------------

// fakeChatter implements the chatter interface for tests. It records the
// arguments of the last call and returns configurable values.
type fakeChatter struct {
	mu sync.Mutex
	// responses is returned on each HandleMessage call.
	responses []string
	// err is returned as the error value.
	err error

	// recorded arguments of the last call.
	gotSessionID string
	gotText      string
	gotImage     []byte
	calls        int
}

func (f *fakeChatter) HandleMessage(_ context.Context, sessionID, text string, image []byte) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotSessionID = sessionID
	f.gotText = text
	f.gotImage = image
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.responses, nil
}

// newChatTestServer builds a *Server wired with the given chatter fake and an
// isolated Prometheus registry. The rate limiter goroutine is stopped on
// cleanup.
func newChatTestServer(t *testing.T, chat chatter, cfg *Config) *Server {
	t.Helper()
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	s, err := newWithRegistry(chat, cfg, prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("newWithRegistry: %v", err)
	}
	t.Cleanup(s.stopRL)
	return s
}

// newChatRequest builds a multipart POST /api/chat request with the given
// form fields and optional image bytes.
func newChatRequest(t *testing.T, fields map[string]string, image []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if image != nil {
		fw, err := mw.CreateFormFile("image", "reference.jpg")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(image); err != nil {
			t.Fatalf("write image: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/chat", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// ---------------------------------------------------------------------------
// POST /api/chat: validation error paths
// ---------------------------------------------------------------------------

func TestHandleChat_MissingMessageAndImage(t *testing.T) {
	t.Parallel()

	s := newChatTestServer(t, &fakeChatter{}, nil)
	req := newChatRequest(t, map[string]string{"session_id": "s-1"}, nil)
	w := httptest.NewRecorder()

	s.handleChat(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestHandleChat_InvalidMultipart(t *testing.T) {
	t.Parallel()

	s := newChatTestServer(t, &fakeChatter{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader("not-a-form"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=broken")
	w := httptest.NewRecorder()

	s.handleChat(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

// ---------------------------------------------------------------------------
// POST /api/chat: happy path
// ---------------------------------------------------------------------------

// TestHandleChat_Success verifies that a valid text message reaches the
// conversation engine and the responses come back in a JSON envelope that
// echoes the session ID.
func TestHandleChat_Success(t *testing.T) {
	t.Parallel()

	fake := &fakeChatter{responses: []string{"Hello!", "What are you looking for?"}}
	s := newChatTestServer(t, fake, nil)

	req := newChatRequest(t, map[string]string{
		"message":    "hi there",
		"session_id": "session-42",
	}, nil)
	w := httptest.NewRecorder()

	s.handleChat(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp chatResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.SessionID != "session-42" {
		t.Errorf("session_id: expected %q, got %q", "session-42", resp.SessionID)
	}
	if len(resp.Messages) != 2 || resp.Messages[0] != "Hello!" {
		t.Errorf("unexpected messages: %v", resp.Messages)
	}
	if resp.MessageID == "" {
		t.Error("expected non-empty message_id")
	}
	if _, err := time.Parse(time.RFC3339, resp.Timestamp); err != nil {
		t.Errorf("timestamp not RFC 3339: %q", resp.Timestamp)
	}

	if fake.gotSessionID != "session-42" {
		t.Errorf("engine received session %q", fake.gotSessionID)
	}
	if fake.gotText != "hi there" {
		t.Errorf("engine received text %q", fake.gotText)
	}
}

// TestHandleChat_GeneratesSessionID verifies that omitting session_id assigns
// a fresh ID, which is both passed to the engine and echoed in the response.
func TestHandleChat_GeneratesSessionID(t *testing.T) {
	t.Parallel()

	fake := &fakeChatter{responses: []string{"Hello!"}}
	s := newChatTestServer(t, fake, nil)

	req := newChatRequest(t, map[string]string{"message": "hi"}, nil)
	w := httptest.NewRecorder()

	s.handleChat(w, req)

	var resp chatResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.SessionID == "" {
		t.Fatal("expected a generated session_id")
	}
	if fake.gotSessionID != resp.SessionID {
		t.Errorf("engine session %q does not match response %q", fake.gotSessionID, resp.SessionID)
	}
}

// TestHandleChat_ImageUpload verifies that an attached image file is forwarded
// to the engine as raw bytes.
func TestHandleChat_ImageUpload(t *testing.T) {
	t.Parallel()

	fake := &fakeChatter{responses: []string{"ok"}}
	s := newChatTestServer(t, fake, nil)

	img := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}
	req := newChatRequest(t, map[string]string{"message": "like this"}, img)
	w := httptest.NewRecorder()

	s.handleChat(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !bytes.Equal(fake.gotImage, img) {
		t.Errorf("engine received image %v, want %v", fake.gotImage, img)
	}
}

// TestHandleChat_ImageOnly verifies that an image without a message is a
// valid request.
func TestHandleChat_ImageOnly(t *testing.T) {
	t.Parallel()

	fake := &fakeChatter{responses: []string{"ok"}}
	s := newChatTestServer(t, fake, nil)

	req := newChatRequest(t, nil, []byte{0x89, 0x50, 0x4E, 0x47})
	w := httptest.NewRecorder()

	s.handleChat(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if fake.gotText != "" {
		t.Errorf("expected empty text, got %q", fake.gotText)
	}
}

// TestHandleChat_ImageTooLarge verifies the configured size cap is enforced
// with a 400 and the engine is never called.
func TestHandleChat_ImageTooLarge(t *testing.T) {
	t.Parallel()

	fake := &fakeChatter{responses: []string{"ok"}}
	s := newChatTestServer(t, fake, &Config{MaxImageBytes: 16})

	req := newChatRequest(t, map[string]string{"message": "big"}, bytes.Repeat([]byte{0xAB}, 64))
	w := httptest.NewRecorder()

	s.handleChat(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if fake.calls != 0 {
		t.Errorf("engine should not be called, got %d calls", fake.calls)
	}
}

// ---------------------------------------------------------------------------
// POST /api/chat: engine failure
// ---------------------------------------------------------------------------

// TestHandleChat_EngineError verifies that an engine error maps to a 500
// without leaking internal details in the body.
func TestHandleChat_EngineError(t *testing.T) {
	t.Parallel()

	fake := &fakeChatter{err: errors.New("session stuck in unknown phase")}
	s := newChatTestServer(t, fake, nil)

	req := newChatRequest(t, map[string]string{"message": "hi"}, nil)
	w := httptest.NewRecorder()

	s.handleChat(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "unknown phase") {
		t.Errorf("internal error detail leaked to client: %s", w.Body.String())
	}
}

// ---------------------------------------------------------------------------
// Transcript archiving
// ---------------------------------------------------------------------------

// memTranscripts is an in-memory TranscriptStore for tests.
type memTranscripts struct {
	mu   sync.Mutex
	rows []store.Message
	err  error
}

func (m *memTranscripts) Append(_ context.Context, _ string, role store.Role, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.rows = append(m.rows, store.Message{Role: role, Content: content})
	return nil
}

func (m *memTranscripts) Recent(_ context.Context, _ string, _ int) ([]store.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows, nil
}

func (m *memTranscripts) Close() error { return nil }

// TestHandleChat_ArchivesTranscript verifies that the user message and every
// response string are appended to the transcript store.
func TestHandleChat_ArchivesTranscript(t *testing.T) {
	t.Parallel()

	transcripts := &memTranscripts{}
	fake := &fakeChatter{responses: []string{"Searching for: cabins", "Found 1 location"}}
	s := newChatTestServer(t, fake, &Config{Transcripts: transcripts})

	req := newChatRequest(t, map[string]string{"message": "yes", "session_id": "s-7"}, nil)
	w := httptest.NewRecorder()

	s.handleChat(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	transcripts.mu.Lock()
	defer transcripts.mu.Unlock()
	if len(transcripts.rows) != 3 {
		t.Fatalf("expected 3 archived rows, got %d", len(transcripts.rows))
	}
	if transcripts.rows[0].Role != store.RoleUser || transcripts.rows[0].Content != "yes" {
		t.Errorf("first row should be the user message, got %+v", transcripts.rows[0])
	}
	if transcripts.rows[2].Role != store.RoleAssistant {
		t.Errorf("expected assistant role, got %q", transcripts.rows[2].Role)
	}
}

// TestHandleChat_ArchiveFailureDoesNotFailRequest verifies that transcript
// write errors are swallowed and the chat response still succeeds.
func TestHandleChat_ArchiveFailureDoesNotFailRequest(t *testing.T) {
	t.Parallel()

	transcripts := &memTranscripts{err: errors.New("disk full")}
	fake := &fakeChatter{responses: []string{"ok"}}
	s := newChatTestServer(t, fake, &Config{Transcripts: transcripts})

	req := newChatRequest(t, map[string]string{"message": "hi"}, nil)
	w := httptest.NewRecorder()

	s.handleChat(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200 despite archive failure, got %d", w.Code)
	}
}
