package runtime

import (
	"fmt"

	"github.com/zweadfx/assist/pkg/domain"
)

// ClassificationError reports that the intent classifier failed or returned
// nothing usable. It is handled inside the router (default-route policy) and
// never escalates to the caller.
type ClassificationError struct {
	Cause error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("intent classification failed: %v", e.Cause)
}

func (e *ClassificationError) Unwrap() error { return e.Cause }

// NodeExecutionError reports a node that failed atomically, leaving prior
// state untouched. Retryable failures are re-attempted by the executor up to
// its retry budget; the rest are fatal for the request.
type NodeExecutionError struct {
	NodeID    domain.NodeID
	Retryable bool
	Cause     error
}

func (e *NodeExecutionError) Error() string {
	return fmt.Sprintf("node %s execution failed: %v", e.NodeID, e.Cause)
}

func (e *NodeExecutionError) Unwrap() error { return e.Cause }

// ExecutionBudgetError reports that the defensive step ceiling was hit.
// It signals a routing-policy defect rather than a transient fault and is
// logged distinctly from ordinary node failures.
type ExecutionBudgetError struct {
	Steps int
}

func (e *ExecutionBudgetError) Error() string {
	return fmt.Sprintf("execution budget exceeded after %d steps", e.Steps)
}

// NoRouteError reports a signal the adjacency policy has no edge for.
// Like ExecutionBudgetError it indicates a policy defect, not a transient
// fault.
type NoRouteError struct {
	From   domain.NodeID
	Signal Signal
}

func (e *NoRouteError) Error() string {
	return fmt.Sprintf("no route from node %s for signal %q", e.From, e.Signal)
}
