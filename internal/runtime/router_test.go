package runtime_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zweadfx/assist/internal/runtime"
	"github.com/zweadfx/assist/internal/testutils"
	"github.com/zweadfx/assist/pkg/domain"
	"github.com/zweadfx/assist/pkg/ports"
)

func TestRouterRoutesKnownIntents(t *testing.T) {
	cases := []struct {
		label string
		want  domain.Intent
	}{
		{"skill", domain.IntentSkill},
		{"skill_lab", domain.IntentSkill},
		{"gear", domain.IntentGear},
		{"shoe_recommendation", domain.IntentGear},
		{"rules", domain.IntentRules},
		{"rule_query", domain.IntentRules},
	}

	logger := slog.New(slog.DiscardHandler)
	for _, tc := range cases {
		t.Run(tc.label, func(t *testing.T) {
			classifier := &testutils.StubClassifier{Result: ports.Classification{Label: tc.label, Confidence: 0.9}}
			router := runtime.NewRouterNode(classifier, logger)
			state := skillState()

			sig, err := router.Run(context.Background(), state)
			require.NoError(t, err)
			assert.Equal(t, runtime.Signal(tc.want), sig)
			assert.Equal(t, tc.want, state.Intent)
			assert.Equal(t, domain.TaskNodeID(tc.want), state.RoutingDecision)
			assert.False(t, state.UnhandledIntent)
		})
	}
}

func TestRouterDefaultRoute(t *testing.T) {
	cases := []struct {
		name       string
		classifier *testutils.StubClassifier
	}{
		{"classifier failure", &testutils.StubClassifier{Err: errors.New("boom")}},
		{"unknown label", &testutils.StubClassifier{Result: ports.Classification{Label: "weather", Confidence: 0.95}}},
		{"below confidence floor", &testutils.StubClassifier{Result: ports.Classification{Label: "gear", Confidence: 0.05}}},
	}

	logger := slog.New(slog.DiscardHandler)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := runtime.NewRouterNode(tc.classifier, logger)
			state := skillState()

			sig, err := router.Run(context.Background(), state)
			require.NoError(t, err, "classification failure is never fatal")
			assert.Equal(t, runtime.SignalUnhandled, sig)
			assert.True(t, state.UnhandledIntent)
			assert.Equal(t, domain.NodeFinalize, state.RoutingDecision)
		})
	}
}

func TestRouterKeepsPriorIntentOnLoopback(t *testing.T) {
	classifier := &testutils.StubClassifier{Err: errors.New("boom")}
	router := runtime.NewRouterNode(classifier, slog.New(slog.DiscardHandler))

	state := skillState()
	state.Intent = domain.IntentGear // set by an earlier pass
	state.LoopCount = 1

	sig, err := router.Run(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, runtime.Signal(domain.IntentGear), sig)
	assert.Equal(t, domain.IntentGear, state.Intent)
	assert.False(t, state.UnhandledIntent)
}

func TestRouterConfidenceFloorOverride(t *testing.T) {
	classifier := &testutils.StubClassifier{Result: ports.Classification{Label: "rules", Confidence: 0.2}}
	router := runtime.NewRouterNode(classifier, slog.New(slog.DiscardHandler), runtime.WithMinConfidence(0.1))

	state := skillState()
	sig, err := router.Run(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, runtime.Signal(domain.IntentRules), sig)
}
