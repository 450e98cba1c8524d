/*
Package assist is a stateful, conditionally routed orchestration engine for a
basketball assistant: one request flows through an intent router, a
per-intent retrieval task node, a verification controller, and a converging
finalizer, all sharing a single mutable state.

# Concept

The graph is data, not code. A static adjacency policy maps (node, signal)
pairs to successor nodes; task nodes report routing signals and never know
what runs next. Supporting a new intent means one task node plus policy
entries, with no changes to existing nodes.

The verifier is the only node allowed to create cycles: it can send control
back to the active task node (broadened retrieval) or to the router
(re-classification), within a bounded loop budget. Once the budget is spent
the verdict is forced to proceed and the answer is marked best-effort, so
termination never depends on evidence quality.

# Key Features

  - Uniform response envelope: success and failure share one outward shape.
  - Degradation over failure: classification misses and exhausted loop
    budgets produce answers, not errors.
  - Hexagonal architecture: classification, retrieval and synthesis are
    ports; the deterministic corpus-backed implementations are adapters.
  - Conversation persistence: in-memory or Redis, with distributed locking
    for multi-replica deployments.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/zweadfx/assist"
	)

	func main() {
		eng, err := assist.NewOffline("./corpus")
		if err != nil {
			log.Fatal(err)
		}

		env := eng.HandleRequest(context.Background(), assist.Request{
			Question: "How do I improve my crossover dribble?",
			Profile:  map[string]any{"skill_level": "beginner", "available_time_min": 30},
		})
		if !env.Success {
			log.Fatal(env.Error.Message)
		}
		fmt.Println(env.Data.Text)
	}
*/
package assist
