/*
Package ports defines the driven ports (interfaces) for the Assist engine.

These interfaces decouple the orchestration core from external capabilities,
allowing the engine to work with any language-understanding, retrieval, or
synthesis backend.

# Key Interfaces

  - IntentClassifier: maps a conversation to an intent label with confidence.
  - ContextRetriever: fetches evidence for an intent, with a relaxed mode
    used on retry-search feedback loops.
  - ResponseSynthesizer: turns accumulated evidence into the outward answer.
  - ConversationStore: persists conversation history across requests
    (cross-request memory is a collaborator concern, never the core's).
*/
package ports
