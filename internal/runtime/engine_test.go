package runtime_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zweadfx/assist/internal/runtime"
	"github.com/zweadfx/assist/internal/testutils"
	"github.com/zweadfx/assist/pkg/domain"
	"github.com/zweadfx/assist/pkg/ports"
)

func newEngine(t *testing.T, c ports.IntentClassifier, r ports.ContextRetriever, s ports.ResponseSynthesizer, opts ...runtime.Option) *runtime.Engine {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	nodes := map[domain.NodeID]runtime.Node{
		domain.NodeRouter:   runtime.NewRouterNode(c, logger),
		domain.NodeVerify:   runtime.NewVerifierNode(runtime.DefaultMaxFeedbackLoops, nil, logger),
		domain.NodeFinalize: runtime.NewFinalizerNode(s, logger),
	}
	for _, intent := range domain.Intents() {
		nodes[domain.TaskNodeID(intent)] = runtime.NewTaskNode(intent, r, logger)
	}

	opts = append([]runtime.Option{runtime.WithRetryBackoff(time.Millisecond)}, opts...)
	eng, err := runtime.New(nodes, runtime.DefaultPolicy(), opts...)
	require.NoError(t, err)
	return eng
}

func skillState() *domain.State {
	return domain.NewState("req-1",
		[]domain.Message{{Role: domain.RoleUser, Content: "how do I improve my crossover dribble"}},
		map[string]any{"skill_level": "beginner", "available_time_min": 30})
}

func TestEngineHappyPath(t *testing.T) {
	classifier := &testutils.StubClassifier{Result: ports.Classification{Label: "skill", Confidence: 0.92}}
	retriever := &testutils.StubRetriever{Evidence: testutils.SomeEvidence("drills.md", 0.9, 0.7)}
	synthesizer := &testutils.StubSynthesizer{Text: "Practice the crossover in three sets."}

	eng := newEngine(t, classifier, retriever, synthesizer)
	state := skillState()

	require.NoError(t, eng.Run(context.Background(), state))

	require.NotNil(t, state.FinalOutput)
	assert.Equal(t, "Practice the crossover in three sets.", state.FinalOutput.Text)
	assert.Equal(t, []string{"drills.md"}, state.FinalOutput.Sources)
	assert.Equal(t, domain.IntentSkill, state.Intent)
	assert.Equal(t, 0, state.LoopCount)
	assert.Equal(t, 1, state.TaskInvocations)
	assert.False(t, state.BestEffort)
	assert.False(t, state.UnhandledIntent)

	// Finalizer appends the assistant turn.
	last := state.History[len(state.History)-1]
	assert.Equal(t, domain.RoleAssistant, last.Role)
	assert.Equal(t, state.FinalOutput.Text, last.Content)
}

func TestEngineRetrySearchLoop(t *testing.T) {
	classifier := &testutils.StubClassifier{Result: ports.Classification{Label: "skill", Confidence: 0.9}}
	retriever := &testutils.StubRetriever{}
	retriever.Fn = func(ctx context.Context, q ports.Query) ([]domain.Evidence, error) {
		if retriever.Calls == 1 {
			return nil, nil
		}
		return testutils.SomeEvidence("drills.md", 0.8), nil
	}
	synthesizer := &testutils.StubSynthesizer{Text: "answer"}

	eng := newEngine(t, classifier, retriever, synthesizer)
	state := skillState()

	require.NoError(t, eng.Run(context.Background(), state))

	assert.Equal(t, 1, state.LoopCount)
	assert.Equal(t, 2, state.TaskInvocations)
	assert.False(t, state.BestEffort)

	require.Len(t, retriever.Queries, 2)
	assert.False(t, retriever.Queries[0].Relaxed)
	assert.True(t, retriever.Queries[1].Relaxed, "retry-search must relax the second query")
}

func TestEngineLoopBudgetForcesBestEffort(t *testing.T) {
	classifier := &testutils.StubClassifier{Result: ports.Classification{Label: "skill", Confidence: 0.9}}
	retriever := &testutils.StubRetriever{} // always empty
	synthesizer := &testutils.StubSynthesizer{Text: "best effort answer"}

	var loops []*domain.LoopEvent
	hooks := domain.LifecycleHooks{
		OnLoopback: func(_ context.Context, ev *domain.LoopEvent) { loops = append(loops, ev) },
	}

	eng := newEngine(t, classifier, retriever, synthesizer, runtime.WithLifecycleHooks(hooks))
	state := skillState()

	require.NoError(t, eng.Run(context.Background(), state))

	require.NotNil(t, state.FinalOutput, "loop budget exhaustion must still produce output")
	assert.True(t, state.BestEffort)
	assert.Equal(t, runtime.DefaultMaxFeedbackLoops, state.LoopCount)
	assert.Equal(t, runtime.DefaultMaxFeedbackLoops+1, state.TaskInvocations)
	assert.Empty(t, state.FinalOutput.Sources)

	require.Len(t, loops, runtime.DefaultMaxFeedbackLoops+1)
	for _, ev := range loops[:len(loops)-1] {
		assert.False(t, ev.Forced)
		assert.Equal(t, string(runtime.VerdictRetrySearch), ev.Verdict)
	}
	assert.True(t, loops[len(loops)-1].Forced)
}

func TestEngineUnhandledIntent(t *testing.T) {
	cases := []struct {
		name       string
		classifier *testutils.StubClassifier
	}{
		{"classifier error", &testutils.StubClassifier{Err: errors.New("model offline")}},
		{"unknown label", &testutils.StubClassifier{Result: ports.Classification{Label: "cooking", Confidence: 0.99}}},
		{"low confidence", &testutils.StubClassifier{Result: ports.Classification{Label: "skill", Confidence: 0.1}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			retriever := &testutils.StubRetriever{}
			synthesizer := &testutils.StubSynthesizer{Text: "should not be used"}

			eng := newEngine(t, tc.classifier, retriever, synthesizer)
			state := skillState()

			require.NoError(t, eng.Run(context.Background(), state),
				"classification failure must not fail the request")

			require.NotNil(t, state.FinalOutput)
			assert.True(t, state.UnhandledIntent)
			assert.Zero(t, retriever.Calls, "no retrieval for unhandled intents")
			assert.Zero(t, synthesizer.Calls, "unhandled intents use the canned response")
			assert.NotEmpty(t, state.FinalOutput.Text)
		})
	}
}

func TestEngineMoreInfoReroutes(t *testing.T) {
	classifier := &testutils.StubClassifier{Result: ports.Classification{Label: "gear", Confidence: 0.9}}
	retriever := &testutils.StubRetriever{Evidence: testutils.SomeEvidence("gear.md", 0.8)}
	synthesizer := &testutils.StubSynthesizer{Text: "answer"}

	eng := newEngine(t, classifier, retriever, synthesizer)
	// Missing sensory_preferences, which the gear intent requires.
	state := domain.NewState("req-2",
		[]domain.Message{{Role: domain.RoleUser, Content: "which shoes should I buy"}},
		map[string]any{})

	require.NoError(t, eng.Run(context.Background(), state))

	// The profile never improves, so every loop re-routes until the budget
	// forces a best-effort proceed.
	assert.True(t, state.BestEffort)
	assert.Equal(t, runtime.DefaultMaxFeedbackLoops, state.LoopCount)
	assert.Equal(t, runtime.DefaultMaxFeedbackLoops+1, classifier.Calls,
		"request-more-info must re-enter through the router")
	assert.Equal(t, runtime.DefaultMaxFeedbackLoops+1, state.TaskInvocations)
	require.NotNil(t, state.FinalOutput)
}

func TestEngineRetriesRetryableNodeFailure(t *testing.T) {
	classifier := &testutils.StubClassifier{Result: ports.Classification{Label: "rules", Confidence: 0.9}}
	retriever := &testutils.StubRetriever{}
	retriever.Fn = func(ctx context.Context, q ports.Query) ([]domain.Evidence, error) {
		if retriever.Calls == 1 {
			return nil, errors.New("index unavailable")
		}
		return testutils.SomeEvidence("rulebook.md", 0.9), nil
	}
	synthesizer := &testutils.StubSynthesizer{Text: "rule answer"}

	eng := newEngine(t, classifier, retriever, synthesizer)
	state := domain.NewState("req-3",
		[]domain.Message{{Role: domain.RoleUser, Content: "was that a travel"}}, nil)

	require.NoError(t, eng.Run(context.Background(), state))

	assert.Equal(t, 2, retriever.Calls)
	assert.Equal(t, 1, state.TaskInvocations, "failed attempts must not count as invocations")
	assert.Equal(t, 0, state.LoopCount)
	require.NotNil(t, state.FinalOutput)
}

func TestEngineNodeTimeoutRetried(t *testing.T) {
	classifier := &testutils.StubClassifier{Result: ports.Classification{Label: "skill", Confidence: 0.92}}
	retriever := &testutils.StubRetriever{}
	retriever.Fn = func(ctx context.Context, q ports.Query) ([]domain.Evidence, error) {
		// First retrieval hangs until the per-node deadline fires.
		if retriever.Calls == 1 {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return testutils.SomeEvidence("drills.md", 0.9), nil
	}
	synthesizer := &testutils.StubSynthesizer{Text: "Tighten the off-hand dribble."}

	eng := newEngine(t, classifier, retriever, synthesizer, runtime.WithNodeTimeout(20*time.Millisecond))
	state := skillState()

	require.NoError(t, eng.Run(context.Background(), state))

	assert.Equal(t, 2, retriever.Calls, "a timed-out node must be retried")
	assert.Equal(t, 1, state.TaskInvocations, "the timed-out attempt must not count as an invocation")
	require.NotNil(t, state.FinalOutput)
	assert.Equal(t, "Tighten the off-hand dribble.", state.FinalOutput.Text)
}

func TestEngineRetryBudgetExhausted(t *testing.T) {
	classifier := &testutils.StubClassifier{Result: ports.Classification{Label: "skill", Confidence: 0.9}}
	retriever := &testutils.StubRetriever{Err: errors.New("index unavailable")}
	synthesizer := &testutils.StubSynthesizer{Text: "unused"}

	eng := newEngine(t, classifier, retriever, synthesizer, runtime.WithRetryBudget(1))
	state := skillState()

	err := eng.Run(context.Background(), state)
	require.Error(t, err)

	var nerr *runtime.NodeExecutionError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, domain.TaskNodeID(domain.IntentSkill), nerr.NodeID)
	assert.Equal(t, 2, retriever.Calls, "one initial attempt plus one retry")
	assert.Nil(t, state.FinalOutput)
}

func TestEngineStepCeiling(t *testing.T) {
	classifier := &testutils.StubClassifier{Result: ports.Classification{Label: "skill", Confidence: 0.9}}
	retriever := &testutils.StubRetriever{Evidence: testutils.SomeEvidence("drills.md", 0.9)}
	synthesizer := &testutils.StubSynthesizer{Text: "answer"}

	eng := newEngine(t, classifier, retriever, synthesizer, runtime.WithStepLimit(2))
	state := skillState()

	err := eng.Run(context.Background(), state)
	var berr *runtime.ExecutionBudgetError
	require.ErrorAs(t, err, &berr)
	assert.Equal(t, 2, berr.Steps)
}

func TestEngineContextCancellation(t *testing.T) {
	classifier := &testutils.StubClassifier{Result: ports.Classification{Label: "skill", Confidence: 0.9}}
	retriever := &testutils.StubRetriever{Evidence: testutils.SomeEvidence("drills.md", 0.9)}
	synthesizer := &testutils.StubSynthesizer{Text: "answer"}

	eng := newEngine(t, classifier, retriever, synthesizer)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := eng.Run(ctx, skillState())
	require.ErrorIs(t, err, context.Canceled)
}

func TestEngineLifecycleHooks(t *testing.T) {
	classifier := &testutils.StubClassifier{Result: ports.Classification{Label: "skill", Confidence: 0.9}}
	retriever := &testutils.StubRetriever{Evidence: testutils.SomeEvidence("drills.md", 0.9)}
	synthesizer := &testutils.StubSynthesizer{Text: "answer"}

	var (
		mu      sync.Mutex
		entered []domain.NodeID
		left    []domain.NodeID
		done    *domain.RequestEvent
	)
	hooks := domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, ev *domain.NodeEvent) {
			mu.Lock()
			entered = append(entered, ev.NodeID)
			mu.Unlock()
		},
		OnNodeLeave: func(_ context.Context, ev *domain.NodeEvent) {
			mu.Lock()
			left = append(left, ev.NodeID)
			mu.Unlock()
		},
		OnRequestDone: func(_ context.Context, ev *domain.RequestEvent) {
			mu.Lock()
			done = ev
			mu.Unlock()
		},
	}

	eng := newEngine(t, classifier, retriever, synthesizer, runtime.WithLifecycleHooks(hooks))
	require.NoError(t, eng.Run(context.Background(), skillState()))

	want := []domain.NodeID{domain.NodeRouter, domain.NodeSkill, domain.NodeVerify, domain.NodeFinalize}
	assert.Equal(t, want, entered)
	assert.Equal(t, want, left)

	require.NotNil(t, done)
	assert.True(t, done.Success)
	assert.Equal(t, domain.IntentSkill, done.Intent)
	assert.GreaterOrEqual(t, done.Elapsed, time.Duration(0))
}

func TestNewRejectsIncompleteNodeSet(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	nodes := map[domain.NodeID]runtime.Node{
		domain.NodeRouter: runtime.NewRouterNode(&testutils.StubClassifier{}, logger),
	}

	_, err := runtime.New(nodes, runtime.DefaultPolicy())
	require.Error(t, err)
}
