package runtime

import (
	"context"

	"github.com/zweadfx/assist/pkg/domain"
)

// Signal is the routing outcome a node reports to the executor. The
// adjacency policy maps (node, signal) pairs to successor nodes, so signals
// are the only coupling between nodes and the graph shape.
type Signal string

const (
	// SignalOK is emitted by a task node that finished its retrieval.
	SignalOK Signal = "ok"

	// SignalUnhandled is emitted by the router when no usable intent could
	// be determined; it routes straight to finalization.
	SignalUnhandled Signal = "unhandled"

	// SignalProceed forwards control to the finalizer.
	SignalProceed Signal = "proceed"

	// SignalMoreInfo sends control back to the router for re-routing.
	SignalMoreInfo Signal = "more_info"

	// SignalDone is emitted by the finalizer once output is populated.
	SignalDone Signal = "done"
)

// RetrySignal names the feedback edge back into the task node handling the
// given intent.
func RetrySignal(i domain.Intent) Signal {
	return Signal("retry_search:" + string(i))
}

// Node is a uniform unit of work over the shared state. A node either fully
// applies its effect or fails atomically, leaving prior state untouched and
// returning a NodeExecutionError.
type Node interface {
	// ID returns the node's identifier in the graph.
	ID() domain.NodeID

	// Run executes the node against the state and reports a routing signal.
	Run(ctx context.Context, state *domain.State) (Signal, error)
}
