/*
Package runtime implements the orchestration core: a directed graph of
processing nodes sharing one mutable state, driven by a data-defined
adjacency policy.

The executor owns the control loop. It invokes the current node, consults the
policy with the node's routing signal to pick the successor, and stops when
the finalizer has produced output, a non-recoverable error is raised, or the
defensive step ceiling is hit. Nodes never see each other; the only
cycle-permitting edges are the verifier's feedback redirections, which are
bounded by the loop budget.
*/
package runtime
