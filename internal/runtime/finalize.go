package runtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/zweadfx/assist/pkg/domain"
	"github.com/zweadfx/assist/pkg/ports"
)

// unhandledIntentText is the canned response for requests the router could
// not map to a known category.
const unhandledIntentText = "I can help with training routines, gear recommendations, " +
	"and rule questions. Could you rephrase your request in one of those areas?"

// FinalizerNode converges all paths into the outward response. Populating
// FinalOutput is the executor's terminal signal.
type FinalizerNode struct {
	synthesizer ports.ResponseSynthesizer
	logger      *slog.Logger
}

// NewFinalizerNode creates the terminal node backed by the given synthesizer.
func NewFinalizerNode(synthesizer ports.ResponseSynthesizer, logger *slog.Logger) *FinalizerNode {
	return &FinalizerNode{
		synthesizer: synthesizer,
		logger:      logger,
	}
}

// ID implements Node.
func (f *FinalizerNode) ID() domain.NodeID {
	return domain.NodeFinalize
}

// Run synthesizes the final answer from the accumulated evidence. Synthesis
// failures are retryable and leave FinalOutput untouched.
func (f *FinalizerNode) Run(ctx context.Context, state *domain.State) (Signal, error) {
	if state.UnhandledIntent {
		state.FinalOutput = &domain.Output{
			Text:        unhandledIntentText,
			GeneratedAt: time.Now(),
		}
		state.AppendMessage(domain.RoleAssistant, state.FinalOutput.Text)
		return SignalDone, nil
	}

	text, err := f.synthesizer.Synthesize(ctx, state.Context, state.History)
	if err != nil {
		return "", &NodeExecutionError{NodeID: f.ID(), Retryable: true, Cause: err}
	}

	state.FinalOutput = &domain.Output{
		Text:        text,
		Sources:     evidenceSources(state.Context),
		GeneratedAt: time.Now(),
	}
	state.AppendMessage(domain.RoleAssistant, text)

	f.logger.Debug("response finalized",
		"request_id", state.RequestID,
		"intent", state.Intent,
		"sources", len(state.FinalOutput.Sources),
		"best_effort", state.BestEffort)

	return SignalDone, nil
}

func evidenceSources(evidence []domain.Evidence) []string {
	seen := make(map[string]struct{}, len(evidence))
	sources := make([]string, 0, len(evidence))
	for _, ev := range evidence {
		if ev.Source == "" {
			continue
		}
		if _, ok := seen[ev.Source]; ok {
			continue
		}
		seen[ev.Source] = struct{}{}
		sources = append(sources, ev.Source)
	}
	return sources
}
