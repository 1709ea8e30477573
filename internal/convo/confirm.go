package convo

import (
	"context"
	"strings"

	"github.com/locscout/locscout-go/internal/completion"
)

// ConfirmDetector decides whether the latest user message confirms the
// gathered requirements and the search should run. Implementations must be
// safe for concurrent use.
type ConfirmDetector interface {
	// Confirmed inspects the latest message and the windowed chat history.
	Confirmed(ctx context.Context, message string, history []completion.Turn) (bool, error)
}

// QueryRewriter synthesizes the search query string from the accumulated
// requirement tags and the windowed chat history.
type QueryRewriter interface {
	Rewrite(ctx context.Context, tags []string, history []completion.Turn) (string, error)
}

// defaultQuery is used when the user confirmed without stating any
// extractable requirement.
const defaultQuery = "beautiful filming location"

// affirmativeWords are matched as whole words only: substring matching
// would misfire on words like "looking" (contains "ok") or "eyes"
// (contains "yes").
var affirmativeWords = []string{
	"yes", "yeah", "yep", "yup", "sure",
	"search", "find", "correct", "perfect", "confirm",
	"ok", "okay",
}

// affirmativePhrases are matched as substrings of the latest message.
var affirmativePhrases = []string{
	"that's all", "thats all", "that is all",
	"go ahead", "sounds good", "looks good",
}

// KeywordConfirm is the deterministic confirmation strategy.
type KeywordConfirm struct{}

// Confirmed reports whether the message contains an affirmative word or phrase.
func (KeywordConfirm) Confirmed(_ context.Context, message string, _ []completion.Turn) (bool, error) {
	lower := strings.ToLower(message)
	for _, p := range affirmativePhrases {
		if strings.Contains(lower, p) {
			return true, nil
		}
	}
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	for _, w := range words {
		for _, a := range affirmativeWords {
			if w == a {
				return true, nil
			}
		}
	}
	return false, nil
}

// TagJoinRewriter is the deterministic query strategy: a templated join of
// the accumulated tags.
type TagJoinRewriter struct{}

// Rewrite joins the tags into "filming location with x, y, z", falling back
// to a generic default when no tags were gathered.
func (TagJoinRewriter) Rewrite(_ context.Context, tags []string, _ []completion.Turn) (string, error) {
	if len(tags) == 0 {
		return defaultQuery, nil
	}
	return "filming location with " + strings.Join(tags, ", "), nil
}

const confirmSystemPrompt = `You judge whether a user has finished describing the filming location they want and is ready to search. Answer with exactly one word: "yes" or "no". Do not explain.`

// CompletionConfirm delegates the yes/no judgment to the completion model
// given the windowed chat history. Any reply not starting with "yes"
// (case-insensitive) is treated as negative.
type CompletionConfirm struct {
	Completer completion.Completer
}

func (c *CompletionConfirm) Confirmed(ctx context.Context, message string, history []completion.Turn) (bool, error) {
	turns := make([]completion.Turn, 0, len(history)+1)
	turns = append(turns, history...)
	turns = append(turns, completion.Turn{
		Role:    completion.RoleUser,
		Content: "Latest message: " + message + "\nIs the user ready to search now?",
	})

	reply, err := c.Completer.Complete(ctx, confirmSystemPrompt, turns)
	if err != nil {
		return false, err
	}
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(reply)), "yes"), nil
}

const rewriteSystemPrompt = `You rewrite a conversation about a desired filming location into a single concise search query describing the location. Reply with the query only, no quotes, no explanation.`

// CompletionRewriter delegates query synthesis to the completion model.
// Completion failures degrade to the deterministic tag join rather than
// aborting the search.
type CompletionRewriter struct {
	Completer completion.Completer
}

func (r *CompletionRewriter) Rewrite(ctx context.Context, tags []string, history []completion.Turn) (string, error) {
	instruction := "Rewrite the conversation above into one search query for a filming location."
	if len(tags) > 0 {
		instruction += " Stated requirements: " + strings.Join(tags, ", ") + "."
	}
	turns := make([]completion.Turn, 0, len(history)+1)
	turns = append(turns, history...)
	turns = append(turns, completion.Turn{Role: completion.RoleUser, Content: instruction})

	reply, err := r.Completer.Complete(ctx, rewriteSystemPrompt, turns)
	if err != nil {
		return TagJoinRewriter{}.Rewrite(ctx, tags, history)
	}
	query := strings.Trim(strings.TrimSpace(reply), `"`)
	if query == "" {
		return defaultQuery, nil
	}
	return query, nil
}

// NewStrategies selects the confirmation and rewrite strategy pair by name.
// "llm" uses the completion model for both judgments; anything else (the
// "keyword" default) uses the deterministic strategies. The llm strategy
// requires a non-nil completer and falls back to keyword without one.
func NewStrategies(strategy string, completer completion.Completer) (ConfirmDetector, QueryRewriter) {
	if strategy == "llm" && completer != nil {
		return &CompletionConfirm{Completer: completer}, &CompletionRewriter{Completer: completer}
	}
	return KeywordConfirm{}, TagJoinRewriter{}
}
