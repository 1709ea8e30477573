package convo

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/locscout/locscout-go/internal/completion"
	"github.com/locscout/locscout-go/internal/embedding"
	"github.com/locscout/locscout-go/internal/index"
	"github.com/locscout/locscout-go/internal/logging"
)

// Canned responses. Gateway failures of every kind map to the same apology
// so the conversational flow is never interrupted by raw errors.
const (
	apologyResponse = "I apologize, but I encountered an issue processing your request. Could you please try rephrasing your question or try again in a moment?"

	greetingResponse = "Hello! I'm LocScout, your film location assistant. Describe the kind of location you're looking for: the setting, style, or mood, and I'll find matching spots."

	emptyInputResponse = "I'd be happy to help! Could you please tell me what kind of location you're looking for?"

	describeMoreResponse = "Tell me more about the location you have in mind: the setting, the style, or the mood you're after."

	newSearchResponse = "Starting fresh! Describe the location you're looking for."

	closingResponse = "Let me know if you'd like more detail on any of these, or say \"new search\" to start again."

	followUpResponse = "I can tell you more about any of the locations above, or say \"new search\" to look for something else."
)

// newSearchPhrases trigger the reset from the responding phase back to a
// fresh greeting.
var newSearchPhrases = []string{
	"new search", "start over", "start again", "different search",
	"search again", "another search", "start a new",
}

// Search tuning defaults, overridable through Config.
const (
	// DefaultResults is the number of unique locations returned per search.
	DefaultResults = 5
	// DefaultScoreThreshold filters out weak matches.
	DefaultScoreThreshold = 0.7
	// DefaultHistoryWindow is the number of trailing history entries shown
	// to the completion model.
	DefaultHistoryWindow = 8

	// overfetchFactor bounds duplicate near-identical entries without a
	// second index round-trip: fetch 3x, then deduplicate by title.
	overfetchFactor = 3

	// textWeight and imageWeight blend the two modalities in a combined
	// search.
	textWeight  = 0.7
	imageWeight = 0.3
)

// Config carries the engine's collaborators and tuning. Encoder and Index
// are required; Completer is optional (without it the llm strategy and
// follow-up chat degrade to deterministic behavior).
type Config struct {
	Store     *Store
	Encoder   embedding.Encoder
	Index     index.Index
	Completer completion.Completer

	Extractor Extractor
	Confirm   ConfirmDetector
	Rewriter  QueryRewriter

	// Results is the number of unique locations per search (default 5).
	Results int
	// ScoreThreshold filters weak matches (default 0.7).
	ScoreThreshold float32
	// HistoryWindow is the completion-visible history size (default 8).
	HistoryWindow int
}

// Engine is the conversation state machine plus search orchestration. Safe
// for concurrent use; turns for the same session are serialized on the
// session's lock while different sessions proceed in parallel.
type Engine struct {
	store     *Store
	encoder   embedding.Encoder
	index     index.Index
	completer completion.Completer

	extractor Extractor
	confirm   ConfirmDetector
	rewriter  QueryRewriter

	results        int
	scoreThreshold float32
	historyWindow  int
}

// NewEngine constructs an Engine, filling in deterministic defaults for any
// strategy left unset.
func NewEngine(cfg *Config) *Engine {
	e := &Engine{
		store:          cfg.Store,
		encoder:        cfg.Encoder,
		index:          cfg.Index,
		completer:      cfg.Completer,
		extractor:      cfg.Extractor,
		confirm:        cfg.Confirm,
		rewriter:       cfg.Rewriter,
		results:        cfg.Results,
		scoreThreshold: cfg.ScoreThreshold,
		historyWindow:  cfg.HistoryWindow,
	}
	if e.store == nil {
		e.store = NewStore()
	}
	if e.extractor == nil {
		e.extractor = NewKeywordExtractor()
	}
	if e.confirm == nil {
		e.confirm = KeywordConfirm{}
	}
	if e.rewriter == nil {
		e.rewriter = TagJoinRewriter{}
	}
	if e.results <= 0 {
		e.results = DefaultResults
	}
	if e.scoreThreshold <= 0 {
		e.scoreThreshold = DefaultScoreThreshold
	}
	if e.historyWindow <= 0 {
		e.historyWindow = DefaultHistoryWindow
	}
	return e
}

// Store exposes the session store for readiness and metrics reporting.
func (e *Engine) Store() *Store { return e.store }

// HandleMessage is the sole entry point: one user turn in, one or more
// user-visible response strings out. Gateway failures never escape as
// errors; they become a fixed apology with the session state untouched so a
// retry resumes from the same point. The only returned error is an internal
// invariant violation.
func (e *Engine) HandleMessage(ctx context.Context, sessionID, text string, image []byte) ([]string, error) {
	log := logging.FromContext(ctx).With(
		slog.String("session_id", sessionID),
	)

	sess := e.store.GetOrCreate(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	text = sanitizeText(text)
	if text == "" && len(image) == 0 {
		return []string{emptyInputResponse}, nil
	}
	sess.AppendUser(text)

	log.Debug("handling message",
		slog.String("phase", sess.Phase.String()),
		slog.Bool("has_image", len(image) > 0),
	)

	var responses []string
	var err error
	switch sess.Phase {
	case PhaseGreeting:
		responses = e.handleGreeting(sess)
	case PhaseCollecting:
		responses = e.handleCollecting(sess, text)
	case PhaseConfirming:
		responses = e.handleConfirming(ctx, log, sess, text, image)
	case PhaseResponding:
		responses = e.handleResponding(ctx, log, sess, text)
	default:
		err = &StateError{SessionID: sessionID, Phase: sess.Phase}
		log.Error("invalid session phase", slog.Any("error", err))
		return nil, err
	}

	for _, r := range responses {
		sess.AppendAssistant(r)
	}
	return responses, nil
}

// handleGreeting welcomes the user and moves to requirement collection.
func (e *Engine) handleGreeting(sess *Session) []string {
	sess.Phase = PhaseCollecting
	return []string{greetingResponse}
}

// handleCollecting extracts requirements from the first substantive message
// and moves to confirmation.
func (e *Engine) handleCollecting(sess *Session, text string) []string {
	for _, tag := range e.extractor.Extract(text) {
		sess.AddRequirement(tag)
	}
	sess.Phase = PhaseConfirming

	tags := sess.Requirements()
	if len(tags) == 0 {
		return []string{describeMoreResponse + " Say \"yes\" when you're ready to search."}
	}
	return []string{
		"Got it. So far I'm looking for a location with: " + strings.Join(tags, ", ") +
			". Anything else I should know, or shall I go ahead and search?",
	}
}

// handleConfirming either runs the search on a confirmation or keeps
// gathering requirements.
func (e *Engine) handleConfirming(ctx context.Context, log *slog.Logger, sess *Session, text string, image []byte) []string {
	confirmed, err := e.confirm.Confirmed(ctx, text, sess.Window(e.historyWindow))
	if err != nil {
		log.Warn("confirmation check failed", slog.Any("error", err))
		return []string{apologyResponse}
	}

	if !confirmed {
		for _, tag := range e.extractor.Extract(text) {
			sess.AddRequirement(tag)
		}
		tags := sess.Requirements()
		if len(tags) == 0 {
			return []string{describeMoreResponse}
		}
		return []string{
			"Noted. Current requirements: " + strings.Join(tags, ", ") +
				". Say \"yes\" when you're ready to search, or keep adding details.",
		}
	}

	return e.runSearch(ctx, log, sess, image)
}

// runSearch synthesizes the query, embeds it, queries the index, and formats
// the deduplicated results. Any gateway failure leaves the session in the
// confirming phase so the user can retry.
func (e *Engine) runSearch(ctx context.Context, log *slog.Logger, sess *Session, image []byte) []string {
	query, err := e.rewriter.Rewrite(ctx, sess.Requirements(), sess.Window(e.historyWindow))
	if err != nil {
		log.Warn("query rewrite failed", slog.Any("error", err))
		return []string{apologyResponse}
	}

	vector, searchType, err := e.buildQueryVector(ctx, query, image)
	if err != nil {
		log.Warn("embedding failed", slog.Any("error", err))
		return []string{apologyResponse}
	}

	overfetch := overfetchFactor * e.results
	candidates, err := e.index.NearestNeighbors(ctx, vector, overfetch, e.scoreThreshold)
	if err != nil {
		log.Warn("index search failed", slog.Any("error", err))
		return []string{apologyResponse}
	}

	unique := Dedup(candidates, e.results)
	sess.LastQuery = query
	sess.SearchResults = unique
	sess.Phase = PhaseResponding

	log.Info("search complete",
		slog.String("query", query),
		slog.String("search_type", searchType),
		slog.Int("candidates", len(candidates)),
		slog.Int("unique", len(unique)),
	)

	if len(unique) == 0 {
		return []string{Format(unique, searchType)}
	}
	return []string{
		"Searching for: " + query,
		Format(unique, searchType),
		closingResponse,
	}
}

// buildQueryVector embeds the query text and the optional image, blending
// the two modalities when both are present.
func (e *Engine) buildQueryVector(ctx context.Context, query string, image []byte) ([]float32, string, error) {
	if len(image) == 0 {
		vec, err := e.encoder.EmbedText(ctx, query)
		return vec, "text", err
	}

	imageVec, err := e.encoder.EmbedImage(ctx, image)
	if err != nil {
		return nil, "", err
	}
	if query == "" || query == defaultQuery {
		return imageVec, "image", nil
	}

	textVec, err := e.encoder.EmbedText(ctx, query)
	if err != nil {
		return nil, "", err
	}
	return embedding.Combine(textVec, imageVec, textWeight, imageWeight), "image and text", nil
}

// handleResponding serves follow-up chat after a search, or resets the
// session when the user asks for a new search. The session stays alive in
// this phase indefinitely; it is never discarded after one search.
func (e *Engine) handleResponding(ctx context.Context, log *slog.Logger, sess *Session, text string) []string {
	if wantsNewSearch(text) {
		sess.ClearSearch()
		sess.Phase = PhaseGreeting
		return []string{newSearchResponse}
	}

	if e.completer == nil {
		return []string{followUpResponse}
	}

	reply, err := e.completer.Complete(ctx, followUpSystemPrompt(sess), sess.Window(e.historyWindow))
	if err != nil {
		log.Warn("follow-up completion failed", slog.Any("error", err))
		return []string{apologyResponse}
	}
	return []string{reply}
}

// followUpSystemPrompt frames the prior search results as context for
// free-text follow-up questions.
func followUpSystemPrompt(sess *Session) string {
	var b strings.Builder
	b.WriteString("You are LocScout, a film location scouting assistant. ")
	b.WriteString("Answer follow-up questions about the locations just presented. ")
	b.WriteString("If you don't know the answer, say so honestly.\n")
	if len(sess.SearchResults) > 0 {
		b.WriteString("The locations found were:\n")
		for i, c := range sess.SearchResults {
			b.WriteString(strconv.Itoa(i+1) + ". " + c.Payload.Title)
			if c.Payload.LocationType != "" {
				b.WriteString(" (" + c.Payload.LocationType + ")")
			}
			if c.Payload.Description != "" {
				b.WriteString(": " + c.Payload.Description)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// wantsNewSearch reports whether the message asks to start a new search.
func wantsNewSearch(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range newSearchPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
