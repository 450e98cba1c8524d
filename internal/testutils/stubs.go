// Package testutils provides stub collaborators for exercising the execution
// graph without real knowledge backends.
package testutils

import (
	"context"

	"github.com/zweadfx/assist/pkg/domain"
	"github.com/zweadfx/assist/pkg/ports"
)

// StubClassifier returns a fixed classification, or delegates to Fn when set.
type StubClassifier struct {
	Result ports.Classification
	Err    error
	Fn     func(ctx context.Context, history []domain.Message, profile map[string]any) (ports.Classification, error)

	Calls int
}

func (s *StubClassifier) Classify(ctx context.Context, history []domain.Message, profile map[string]any) (ports.Classification, error) {
	s.Calls++
	if s.Fn != nil {
		return s.Fn(ctx, history, profile)
	}
	return s.Result, s.Err
}

// StubRetriever returns a fixed evidence list, or delegates to Fn when set.
// Every query is recorded for assertions on terms and relaxation.
type StubRetriever struct {
	Evidence []domain.Evidence
	Err      error
	Fn       func(ctx context.Context, query ports.Query) ([]domain.Evidence, error)

	Calls   int
	Queries []ports.Query
}

func (s *StubRetriever) Retrieve(ctx context.Context, query ports.Query) ([]domain.Evidence, error) {
	s.Calls++
	s.Queries = append(s.Queries, query)
	if s.Fn != nil {
		return s.Fn(ctx, query)
	}
	return s.Evidence, s.Err
}

// StubSynthesizer returns fixed answer text, or delegates to Fn when set.
type StubSynthesizer struct {
	Text string
	Err  error
	Fn   func(ctx context.Context, evidence []domain.Evidence, history []domain.Message) (string, error)

	Calls int
}

func (s *StubSynthesizer) Synthesize(ctx context.Context, evidence []domain.Evidence, history []domain.Message) (string, error) {
	s.Calls++
	if s.Fn != nil {
		return s.Fn(ctx, evidence, history)
	}
	return s.Text, s.Err
}

// SomeEvidence builds a small evidence list with descending scores, handy for
// happy-path fixtures.
func SomeEvidence(source string, scores ...float64) []domain.Evidence {
	out := make([]domain.Evidence, 0, len(scores))
	for _, score := range scores {
		out = append(out, domain.Evidence{
			Source:  source,
			Kind:    "document",
			Content: "evidence from " + source,
			Score:   score,
		})
	}
	return out
}
