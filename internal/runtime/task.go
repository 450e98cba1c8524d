package runtime

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/zweadfx/assist/pkg/domain"
	"github.com/zweadfx/assist/pkg/ports"
)

// defaultAmbiguityFloor: evidence whose best score falls below this is
// flagged ambiguous, which triggers a relaxed retry-search.
const defaultAmbiguityFloor = 0.25

// maxEvidenceItems caps how many items a task node attaches to the state.
const maxEvidenceItems = 5

// TaskNode attaches retrieved evidence for one intent. The evidence list is
// replaced wholesale on every invocation, so re-running the node with the
// same input state never double-appends.
type TaskNode struct {
	intent         domain.Intent
	retriever      ports.ContextRetriever
	logger         *slog.Logger
	ambiguityFloor float64
}

// TaskOption configures a task node.
type TaskOption func(*TaskNode)

// WithAmbiguityFloor overrides the relevance score below which retrieved
// evidence is considered ambiguous.
func WithAmbiguityFloor(floor float64) TaskOption {
	return func(t *TaskNode) {
		t.ambiguityFloor = floor
	}
}

// NewTaskNode creates the task node handling the given intent.
func NewTaskNode(intent domain.Intent, retriever ports.ContextRetriever, logger *slog.Logger, opts ...TaskOption) *TaskNode {
	t := &TaskNode{
		intent:         intent,
		retriever:      retriever,
		logger:         logger,
		ambiguityFloor: defaultAmbiguityFloor,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ID implements Node.
func (t *TaskNode) ID() domain.NodeID {
	return domain.TaskNodeID(t.intent)
}

// Run performs the retrieval and replaces the state's evidence context.
// Collaborator failures are reported as retryable NodeExecutionErrors; the
// executor restores the pre-call context before any retry.
func (t *TaskNode) Run(ctx context.Context, state *domain.State) (Signal, error) {
	query := ports.Query{
		Intent:  t.intent,
		Profile: state.Profile,
		Terms:   t.queryTerms(state),
		Relaxed: state.Relaxed,
	}

	evidence, err := t.retriever.Retrieve(ctx, query)
	if err != nil {
		return "", &NodeExecutionError{NodeID: t.ID(), Retryable: true, Cause: err}
	}

	evidence = t.postFilter(state, evidence)
	if len(evidence) > maxEvidenceItems {
		evidence = evidence[:maxEvidenceItems]
	}

	state.Context = evidence
	state.Ambiguous = len(evidence) > 0 && topScore(evidence) < t.ambiguityFloor
	state.Relaxed = false
	state.TaskInvocations++

	t.logger.Debug("evidence attached",
		"request_id", state.RequestID,
		"node", t.ID(),
		"items", len(evidence),
		"relaxed", query.Relaxed,
		"ambiguous", state.Ambiguous)

	return SignalOK, nil
}

// queryTerms builds the search terms from the latest user turn plus the
// intent-relevant profile attributes.
func (t *TaskNode) queryTerms(state *domain.State) []string {
	var terms []string
	if msg, ok := state.LastUserMessage(); ok {
		content := msg.Content
		if t.intent == domain.IntentRules {
			content = sanitizeSituation(content)
		}
		terms = append(terms, tokenize(content)...)
	}

	for _, key := range profileTermKeys(t.intent) {
		switch v := state.Profile[key].(type) {
		case string:
			terms = append(terms, tokenize(v)...)
		case []string:
			for _, s := range v {
				terms = append(terms, tokenize(s)...)
			}
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok {
					terms = append(terms, tokenize(s)...)
				}
			}
		}
	}
	return terms
}

// profileTermKeys lists the profile attributes that contribute query terms
// for each intent.
func profileTermKeys(i domain.Intent) []string {
	switch i {
	case domain.IntentSkill:
		return []string{"focus_area", "skill_level"}
	case domain.IntentGear:
		return []string{"sensory_preferences", "player_archetype", "position"}
	case domain.IntentRules:
		return []string{"situation_description", "rule_type"}
	}
	return nil
}

// postFilter applies intent-specific evidence filtering.
func (t *TaskNode) postFilter(state *domain.State, evidence []domain.Evidence) []domain.Evidence {
	if t.intent != domain.IntentGear {
		return evidence
	}
	budget, ok := numericProfileValue(state.Profile, "budget_max")
	if !ok {
		return evidence
	}

	filtered := evidence[:0:0]
	for _, ev := range evidence {
		if price, ok := numericMetadataValue(ev.Metadata, "price"); ok && price > budget {
			continue
		}
		filtered = append(filtered, ev)
	}
	return filtered
}

func numericProfileValue(profile map[string]any, key string) (float64, bool) {
	if profile == nil {
		return 0, false
	}
	return toFloat(profile[key])
}

func numericMetadataValue(meta map[string]any, key string) (float64, bool) {
	if meta == nil {
		return 0, false
	}
	return toFloat(meta[key])
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}

func topScore(evidence []domain.Evidence) float64 {
	top := 0.0
	for _, ev := range evidence {
		if ev.Score > top {
			top = ev.Score
		}
	}
	return top
}

func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,!?;:'\"()")
		if len(f) > 2 {
			out = append(out, f)
		}
	}
	return out
}

// maxSituationLength caps rule-situation input before term extraction.
const maxSituationLength = 1000

var blockedPatterns = regexp.MustCompile(
	`(?i)ignore\s+(all\s+)?previous\s+instructions` +
		`|forget\s+(all\s+)?above` +
		`|you\s+are\s+now` +
		`|disregard\s+(all\s+)?prior`)

// sanitizeSituation enforces the length cap and strips injection patterns
// from a rule-situation description.
func sanitizeSituation(text string) string {
	if len(text) > maxSituationLength {
		// Back up to a rune boundary so the cut never splits a multi-byte
		// character.
		cut := maxSituationLength
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	text = blockedPatterns.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
