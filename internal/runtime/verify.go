package runtime

import (
	"context"
	"log/slog"

	"github.com/zweadfx/assist/pkg/domain"
)

// Verdict is the verification controller's decision after inspecting the
// state a task node produced.
type Verdict string

const (
	// VerdictContinue: evidence suffices and processing may go on. In the
	// default policy it forwards to finalization, same as VerdictProceed.
	VerdictContinue Verdict = "continue"
	// VerdictRetrySearch: evidence is empty or ambiguous; re-run the task
	// node with a relaxed query.
	VerdictRetrySearch Verdict = "retry_search"
	// VerdictMoreInfo: the profile is missing fields the active intent
	// requires; re-route through the router.
	VerdictMoreInfo Verdict = "request_more_info"
	// VerdictProceed: forward unconditionally to finalization.
	VerdictProceed Verdict = "proceed"
)

// DefaultMaxFeedbackLoops bounds feedback redirections per request.
const DefaultMaxFeedbackLoops = 2

// DefaultRequiredFields lists the profile attributes each intent needs for a
// non-degraded answer.
func DefaultRequiredFields() map[domain.Intent][]string {
	return map[domain.Intent][]string{
		domain.IntentSkill: {"skill_level", "available_time_min"},
		domain.IntentGear:  {"sensory_preferences"},
		domain.IntentRules: {},
	}
}

// VerifierNode is the feedback controller. It decides whether the request
// loops back into the graph or proceeds to finalization, and it is the only
// node allowed to create cycles. Every redirection increments the loop
// counter; once the budget is spent the verdict is forced to proceed and the
// eventual output is marked best-effort, which guarantees termination.
type VerifierNode struct {
	maxLoops int
	required map[domain.Intent][]string
	logger   *slog.Logger
}

// NewVerifierNode creates the verification controller. A nil required map
// falls back to DefaultRequiredFields; maxLoops < 0 falls back to
// DefaultMaxFeedbackLoops.
func NewVerifierNode(maxLoops int, required map[domain.Intent][]string, logger *slog.Logger) *VerifierNode {
	if maxLoops < 0 {
		maxLoops = DefaultMaxFeedbackLoops
	}
	if required == nil {
		required = DefaultRequiredFields()
	}
	return &VerifierNode{
		maxLoops: maxLoops,
		required: required,
		logger:   logger,
	}
}

// ID implements Node.
func (v *VerifierNode) ID() domain.NodeID {
	return domain.NodeVerify
}

// Run evaluates the state and emits the routing signal for the verdict.
func (v *VerifierNode) Run(ctx context.Context, state *domain.State) (Signal, error) {
	verdict := v.evaluate(state)

	switch verdict {
	case VerdictProceed, VerdictContinue:
		return SignalProceed, nil

	case VerdictRetrySearch, VerdictMoreInfo:
		if state.LoopCount >= v.maxLoops {
			// Loop budget spent: controlled degrade, never a failure.
			state.BestEffort = true
			v.logger.Info("loop budget exhausted, forcing proceed",
				"request_id", state.RequestID,
				"verdict", verdict,
				"loop_count", state.LoopCount)
			return SignalProceed, nil
		}

		state.LoopCount++
		v.logger.Debug("feedback redirection",
			"request_id", state.RequestID,
			"verdict", verdict,
			"loop_count", state.LoopCount)

		if verdict == VerdictRetrySearch {
			state.Relaxed = true
			return RetrySignal(state.Intent), nil
		}
		return SignalMoreInfo, nil
	}

	return SignalProceed, nil
}

// evaluate applies the verification rules in priority order: profile
// completeness first, then evidence presence, then ambiguity.
func (v *VerifierNode) evaluate(state *domain.State) Verdict {
	if missing := v.missingFields(state); len(missing) > 0 {
		v.logger.Debug("profile incomplete for intent",
			"request_id", state.RequestID, "intent", state.Intent, "missing", missing)
		return VerdictMoreInfo
	}
	if len(state.Context) == 0 {
		return VerdictRetrySearch
	}
	if state.Ambiguous {
		return VerdictRetrySearch
	}
	return VerdictProceed
}

func (v *VerifierNode) missingFields(state *domain.State) []string {
	var missing []string
	for _, key := range v.required[state.Intent] {
		if _, ok := state.Profile[key]; !ok {
			missing = append(missing, key)
		}
	}
	return missing
}
