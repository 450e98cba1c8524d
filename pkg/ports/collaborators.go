package ports

import (
	"context"

	"github.com/zweadfx/assist/pkg/domain"
)

// Classification is the result of intent detection. The label is free-form;
// the router normalizes it into the closed domain.Intent set.
type Classification struct {
	Label      string
	Confidence float64
}

// IntentClassifier maps a conversation and profile to an intent label.
// Implementations are treated as non-deterministic and fallible: a failure
// here is never fatal for the request, the router falls back to the
// unhandled-intent route.
type IntentClassifier interface {
	Classify(ctx context.Context, history []domain.Message, profile map[string]any) (Classification, error)
}

// Query describes one retrieval request.
type Query struct {
	Intent  domain.Intent
	Profile map[string]any
	Terms   []string

	// Relaxed asks the retriever to broaden matching (looser terms, lower
	// relevance cutoff). Set on retry-search feedback loops.
	Relaxed bool
}

// ContextRetriever fetches ordered evidence for a query. An empty result is
// not an error; the verifier turns it into a feedback loop.
type ContextRetriever interface {
	Retrieve(ctx context.Context, query Query) ([]domain.Evidence, error)
}

// ResponseSynthesizer turns accumulated evidence and conversation history
// into the outward answer text.
type ResponseSynthesizer interface {
	Synthesize(ctx context.Context, evidence []domain.Evidence, history []domain.Message) (string, error)
}
