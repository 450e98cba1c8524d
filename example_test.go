package assist_test

import (
	"context"
	"fmt"
	"log"

	"github.com/zweadfx/assist"
	"github.com/zweadfx/assist/pkg/domain"
	"github.com/zweadfx/assist/pkg/ports"
)

// fixedClassifier labels every turn with one intent.
type fixedClassifier struct{ label string }

func (c fixedClassifier) Classify(ctx context.Context, history []domain.Message, profile map[string]any) (ports.Classification, error) {
	return ports.Classification{Label: c.label, Confidence: 0.95}, nil
}

// fixedRetriever returns the same evidence for every query.
type fixedRetriever struct{ evidence []domain.Evidence }

func (r fixedRetriever) Retrieve(ctx context.Context, query ports.Query) ([]domain.Evidence, error) {
	return r.evidence, nil
}

// fixedSynthesizer returns a canned answer.
type fixedSynthesizer struct{ text string }

func (s fixedSynthesizer) Synthesize(ctx context.Context, evidence []domain.Evidence, history []domain.Message) (string, error) {
	return s.text, nil
}

// ExampleEngine_HandleRequest demonstrates using assist purely as a Go
// library, injecting custom collaborators instead of the built-in corpus
// stack.
func ExampleEngine_HandleRequest() {
	// 1. Provide the three capability implementations. In a real
	// deployment these would wrap an LLM and a search index.
	engine, err := assist.New(assist.Collaborators{
		Classifier: fixedClassifier{label: "rules"},
		Retriever: fixedRetriever{evidence: []domain.Evidence{
			{Source: "traveling-rule.md", Kind: "rules", Content: "Two steps after the gather.", Score: 0.9},
		}},
		Synthesizer: fixedSynthesizer{text: "You may take two steps after gathering the ball."},
	})
	if err != nil {
		log.Fatal(err)
	}

	// 2. Ask a question. Conversations persist in the in-memory store by
	// default; pass the returned conversation ID to follow up.
	env := engine.HandleRequest(context.Background(), assist.Request{
		Question: "How many steps can I take after picking up my dribble?",
	})

	fmt.Println(env.Success)
	fmt.Println(env.Data.Text)
	fmt.Println(env.Meta.Sources)
	// Output:
	// true
	// You may take two steps after gathering the ball.
	// [traveling-rule.md]
}
