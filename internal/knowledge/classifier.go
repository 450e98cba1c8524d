package knowledge

import (
	"context"
	"log/slog"
	"strings"

	"github.com/zweadfx/assist/pkg/domain"
	"github.com/zweadfx/assist/pkg/ports"
)

// intentKeywords maps each intent to its trigger vocabulary. Keyword scoring
// keeps classification deterministic and offline; the router's confidence
// floor handles the inevitable misses.
var intentKeywords = map[domain.Intent][]string{
	domain.IntentSkill: {
		"train", "training", "practice", "drill", "drills", "improve",
		"improving", "technique", "form", "routine", "workout", "exercise",
		"shooting", "dribble", "dribbling", "crossover", "passing", "defense",
		"footwork", "skill", "learn",
	},
	domain.IntentGear: {
		"shoe", "shoes", "sneaker", "sneakers", "gear", "equipment", "buy",
		"purchase", "recommend", "recommendation", "brand", "budget", "price",
		"grip", "cushion", "ankle", "support", "size", "fit",
	},
	domain.IntentRules: {
		"rule", "rules", "foul", "legal", "illegal", "violation", "travel",
		"traveling", "double", "referee", "call", "allowed", "goaltending",
		"shot", "clock", "timeout", "penalty", "court",
	},
}

// KeywordClassifier scores the latest user turn against per-intent
// vocabularies. It implements ports.IntentClassifier.
type KeywordClassifier struct {
	logger *slog.Logger
}

// NewKeywordClassifier creates the rule-based classifier.
func NewKeywordClassifier(logger *slog.Logger) *KeywordClassifier {
	return &KeywordClassifier{logger: logger}
}

// Classify picks the intent whose vocabulary overlaps the last user message
// the most. Confidence is the winning share of total keyword hits, so a turn
// matching one category strongly scores near 1.0 and a turn matching nothing
// scores 0.
func (c *KeywordClassifier) Classify(ctx context.Context, history []domain.Message, profile map[string]any) (ports.Classification, error) {
	if err := ctx.Err(); err != nil {
		return ports.Classification{}, err
	}

	text := lastUserText(history)
	if text == "" {
		return ports.Classification{Label: string(domain.IntentUnknown)}, nil
	}

	words := wordSet(text)
	var (
		best      domain.Intent
		bestHits  int
		totalHits int
	)
	for _, intent := range domain.Intents() {
		hits := 0
		for _, kw := range intentKeywords[intent] {
			if _, ok := words[kw]; ok {
				hits++
			}
		}
		totalHits += hits
		if hits > bestHits {
			bestHits = hits
			best = intent
		}
	}

	if bestHits == 0 {
		c.logger.Debug("no intent vocabulary matched")
		return ports.Classification{Label: string(domain.IntentUnknown)}, nil
	}

	confidence := float64(bestHits) / float64(totalHits)
	c.logger.Debug("intent classified",
		"label", best, "hits", bestHits, "confidence", confidence)
	return ports.Classification{Label: string(best), Confidence: confidence}, nil
}

func lastUserText(history []domain.Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == domain.RoleUser {
			return history[i].Content
		}
	}
	return ""
}

func wordSet(text string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[strings.Trim(f, ".,!?;:'\"()")] = struct{}{}
	}
	return set
}
