package runtime

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/zweadfx/assist/pkg/domain"
)

const (
	// DefaultStepLimit bounds node activations per request. The longest legal
	// trajectory with the default loop budget is well under this, so hitting
	// the ceiling means the policy is broken.
	DefaultStepLimit = 32

	// DefaultNodeTimeout bounds a single node invocation.
	DefaultNodeTimeout = 10 * time.Second

	// DefaultRetryBudget is the number of re-attempts for a retryable node
	// failure, on top of the initial attempt.
	DefaultRetryBudget = 2

	defaultRetryBackoff = 50 * time.Millisecond
)

// Engine walks the adjacency policy over a shared state until the finalizer
// populates the output. It owns retries, per-node timeouts, the step ceiling
// and lifecycle hook emission; routing itself is entirely the policy's data.
type Engine struct {
	nodes        map[domain.NodeID]Node
	policy       *Policy
	logger       *slog.Logger
	hooks        domain.LifecycleHooks
	stepLimit    int
	nodeTimeout  time.Duration
	retryBudget  int
	retryBackoff time.Duration
}

// Option configures the engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks installs observability callbacks. Nil fields are skipped.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithStepLimit overrides the defensive step ceiling.
func WithStepLimit(limit int) Option {
	return func(e *Engine) {
		if limit > 0 {
			e.stepLimit = limit
		}
	}
}

// WithNodeTimeout overrides the per-invocation timeout.
func WithNodeTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.nodeTimeout = d
		}
	}
}

// WithRetryBudget overrides the re-attempt count for retryable node failures.
func WithRetryBudget(budget int) Option {
	return func(e *Engine) {
		if budget >= 0 {
			e.retryBudget = budget
		}
	}
}

// WithRetryBackoff overrides the pause between re-attempts.
func WithRetryBackoff(d time.Duration) Option {
	return func(e *Engine) {
		if d >= 0 {
			e.retryBackoff = d
		}
	}
}

// New creates an engine over the given node set and policy. The policy is
// validated against the nodes up front so a malformed graph fails at
// construction, not mid-request.
func New(nodes map[domain.NodeID]Node, policy *Policy, opts ...Option) (*Engine, error) {
	if policy == nil {
		policy = DefaultPolicy()
	}
	if err := policy.Validate(nodes); err != nil {
		return nil, err
	}

	e := &Engine{
		nodes:        nodes,
		policy:       policy,
		logger:       slog.New(slog.DiscardHandler),
		stepLimit:    DefaultStepLimit,
		nodeTimeout:  DefaultNodeTimeout,
		retryBudget:  DefaultRetryBudget,
		retryBackoff: defaultRetryBackoff,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Run drives the state through the graph until the finalizer reports done.
// The state must be owned exclusively by this call.
func (e *Engine) Run(ctx context.Context, state *domain.State) error {
	current := e.policy.Entry()

	for steps := 1; ; steps++ {
		if err := ctx.Err(); err != nil {
			e.emitRequestDone(ctx, state, false)
			return err
		}
		if steps > e.stepLimit {
			err := &ExecutionBudgetError{Steps: e.stepLimit}
			e.logger.Error("routing policy defect", "request_id", state.RequestID, "err", err)
			e.emitRequestDone(ctx, state, false)
			return err
		}

		node, ok := e.nodes[current]
		if !ok {
			// Validate makes this unreachable for policy edges; guard anyway.
			err := &NoRouteError{From: current, Signal: ""}
			e.emitRequestDone(ctx, state, false)
			return err
		}

		wasBestEffort := state.BestEffort
		sig, err := e.invoke(ctx, node, state)
		if err != nil {
			e.logger.Error("node failed",
				"request_id", state.RequestID, "node", current, "err", err)
			e.emitRequestDone(ctx, state, false)
			return err
		}

		if current == domain.NodeVerify {
			e.observeVerdict(ctx, state, sig, wasBestEffort)
		}

		if sig == SignalDone && state.FinalOutput != nil {
			e.emitRequestDone(ctx, state, true)
			return nil
		}

		next, ok := e.policy.Next(current, sig)
		if !ok {
			err := &NoRouteError{From: current, Signal: sig}
			e.logger.Error("routing policy defect", "request_id", state.RequestID, "err", err)
			e.emitRequestDone(ctx, state, false)
			return err
		}
		current = next
	}
}

// invoke runs one node with a per-attempt timeout, re-attempting retryable
// failures against a snapshot of the evidence so retries never observe or
// duplicate a partial effect.
func (e *Engine) invoke(ctx context.Context, node Node, state *domain.State) (Signal, error) {
	snapshot := state.SnapshotContext()

	for attempt := 1; ; attempt++ {
		e.emitNodeEnter(ctx, state, node.ID(), attempt)

		runCtx, cancel := context.WithTimeout(ctx, e.nodeTimeout)
		sig, err := node.Run(runCtx, state)
		cancel()

		if err == nil {
			e.emitNodeLeave(ctx, state, node.ID(), attempt, nil)
			return sig, nil
		}

		// A per-node deadline is transient; a cancelled parent is not.
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = &NodeExecutionError{NodeID: node.ID(), Retryable: true, Cause: err}
		}
		e.emitNodeLeave(ctx, state, node.ID(), attempt, err)

		var nerr *NodeExecutionError
		retryable := errors.As(err, &nerr) && nerr.Retryable
		if !retryable || attempt > e.retryBudget {
			return "", err
		}

		state.RestoreContext(snapshot)
		e.logger.Warn("retrying node",
			"request_id", state.RequestID,
			"node", node.ID(),
			"attempt", attempt,
			"err", err)

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(e.retryBackoff):
		}
	}
}

// observeVerdict translates a verifier signal into loopback events.
func (e *Engine) observeVerdict(ctx context.Context, state *domain.State, sig Signal, wasBestEffort bool) {
	if e.hooks.OnLoopback == nil {
		return
	}

	var verdict Verdict
	forced := false
	switch {
	case sig == SignalMoreInfo:
		verdict = VerdictMoreInfo
	case strings.HasPrefix(string(sig), "retry_search:"):
		verdict = VerdictRetrySearch
	case sig == SignalProceed && state.BestEffort && !wasBestEffort:
		verdict = VerdictProceed
		forced = true
	default:
		return
	}

	e.hooks.OnLoopback(ctx, &domain.LoopEvent{
		Timestamp: time.Now(),
		RequestID: state.RequestID,
		Verdict:   string(verdict),
		LoopCount: state.LoopCount,
		Forced:    forced,
	})
}

func (e *Engine) emitNodeEnter(ctx context.Context, state *domain.State, id domain.NodeID, attempt int) {
	if e.hooks.OnNodeEnter == nil {
		return
	}
	e.hooks.OnNodeEnter(ctx, &domain.NodeEvent{
		Timestamp: time.Now(),
		Type:      domain.EventNodeEnter,
		RequestID: state.RequestID,
		NodeID:    id,
		Intent:    state.Intent,
		Attempt:   attempt,
	})
}

func (e *Engine) emitNodeLeave(ctx context.Context, state *domain.State, id domain.NodeID, attempt int, err error) {
	if e.hooks.OnNodeLeave == nil {
		return
	}
	e.hooks.OnNodeLeave(ctx, &domain.NodeEvent{
		Timestamp: time.Now(),
		Type:      domain.EventNodeLeave,
		RequestID: state.RequestID,
		NodeID:    id,
		Intent:    state.Intent,
		Attempt:   attempt,
		Err:       err,
	})
}

func (e *Engine) emitRequestDone(ctx context.Context, state *domain.State, success bool) {
	if e.hooks.OnRequestDone == nil {
		return
	}
	e.hooks.OnRequestDone(ctx, &domain.RequestEvent{
		Timestamp:  time.Now(),
		RequestID:  state.RequestID,
		Intent:     state.Intent,
		Success:    success,
		BestEffort: state.BestEffort,
		LoopCount:  state.LoopCount,
		Elapsed:    time.Since(state.StartedAt),
	})
}
