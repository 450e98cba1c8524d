/*
Package domain contains the core domain models for the Assist engine.

It defines the fundamental entities of the orchestration core: the per-request
State container, the closed Intent enumeration, Evidence items attached by
task nodes, and the response Envelope returned to callers. This package is
kept pure and free of external dependencies like I/O or persistence, following
Hexagonal Architecture principles.

# Key Entities

  - State: the mutable record owned by the executor for one request (history,
    intent, evidence context, routing decision, loop counter).
  - Intent: the closed set of request categories the engine can route.
  - Evidence: a retrieved or generated item of supporting context.
  - Envelope: the outward response shape (success flag, payload, metadata).
*/
package domain
