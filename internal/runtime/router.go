package runtime

import (
	"context"
	"log/slog"

	"github.com/zweadfx/assist/pkg/domain"
	"github.com/zweadfx/assist/pkg/ports"
)

// defaultMinConfidence is the classification confidence below which a label
// is treated as unusable.
const defaultMinConfidence = 0.35

// RouterNode selects the task node for a request. Classification failures
// never fail the request: an unusable result falls back to the
// unhandled-intent route (fresh requests) or the previously detected intent
// (loop-back re-entries).
type RouterNode struct {
	classifier    ports.IntentClassifier
	logger        *slog.Logger
	minConfidence float64
}

// RouterOption configures the router node.
type RouterOption func(*RouterNode)

// WithMinConfidence overrides the confidence floor for accepting a label.
func WithMinConfidence(min float64) RouterOption {
	return func(r *RouterNode) {
		r.minConfidence = min
	}
}

// NewRouterNode creates the router backed by the given classifier.
func NewRouterNode(classifier ports.IntentClassifier, logger *slog.Logger, opts ...RouterOption) *RouterNode {
	r := &RouterNode{
		classifier:    classifier,
		logger:        logger,
		minConfidence: defaultMinConfidence,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ID implements Node.
func (r *RouterNode) ID() domain.NodeID {
	return domain.NodeRouter
}

// Run classifies the conversation and records the routing decision. On
// loop-back re-entry (intent already populated) it reclassifies, allowing a
// narrower or alternate label, and keeps the prior intent when the new
// result is unusable.
func (r *RouterNode) Run(ctx context.Context, state *domain.State) (Signal, error) {
	intent, err := r.classify(ctx, state)
	if err != nil {
		cerr := &ClassificationError{Cause: err}
		if state.Intent.Known() {
			// Loop-back re-entry: keep what we already know.
			r.logger.Warn("reclassification failed, reusing prior intent",
				"request_id", state.RequestID, "intent", state.Intent, "err", cerr)
			intent = state.Intent
		} else {
			r.logger.Warn("routing to unhandled-intent fallback",
				"request_id", state.RequestID, "err", cerr)
			state.UnhandledIntent = true
			state.RoutingDecision = domain.NodeFinalize
			return SignalUnhandled, nil
		}
	}

	state.Intent = intent
	state.UnhandledIntent = false
	state.RoutingDecision = domain.TaskNodeID(intent)
	r.logger.Debug("intent routed",
		"request_id", state.RequestID, "intent", intent, "loop_count", state.LoopCount)
	return Signal(intent), nil
}

// classify normalizes the collaborator result into a known intent, treating
// low confidence and unknown labels as failures.
func (r *RouterNode) classify(ctx context.Context, state *domain.State) (domain.Intent, error) {
	cls, err := r.classifier.Classify(ctx, state.History, state.Profile)
	if err != nil {
		return domain.IntentUnknown, err
	}

	intent := domain.ParseIntent(cls.Label)
	if !intent.Known() {
		return domain.IntentUnknown, errUnknownLabel(cls.Label)
	}
	if cls.Confidence < r.minConfidence {
		return domain.IntentUnknown, errLowConfidence{cls.Label, cls.Confidence}
	}
	return intent, nil
}

type errUnknownLabel string

func (e errUnknownLabel) Error() string {
	return "unknown intent label: " + string(e)
}

type errLowConfidence struct {
	label      string
	confidence float64
}

func (e errLowConfidence) Error() string {
	return "classification confidence too low for label " + e.label
}
