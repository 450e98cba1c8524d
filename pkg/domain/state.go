package domain

import "time"

// NodeID identifies a processing node in the execution graph.
type NodeID string

// The closed set of graph nodes. Task nodes are named after their intent.
const (
	NodeRouter   NodeID = "router"
	NodeSkill    NodeID = "skill"
	NodeGear     NodeID = "gear"
	NodeRules    NodeID = "rules"
	NodeVerify   NodeID = "verify"
	NodeFinalize NodeID = "finalize"
)

// TaskNodeID maps an intent to the task node that handles it.
func TaskNodeID(i Intent) NodeID {
	return NodeID(i)
}

// Output is the finalized answer. Its presence on the state is the terminal
// signal for the executor.
type Output struct {
	Text        string    `json:"text"`
	Sources     []string  `json:"sources,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// State is the mutable record shared by all nodes during one request.
// It is created at request entry, owned exclusively by the executor, mutated
// in place by whichever node currently holds control, and discarded once
// finalization completes. It is not safe for concurrent use and must never
// be shared across requests.
type State struct {
	// RequestID correlates log lines and events for one execution.
	RequestID string `json:"request_id"`

	// History is the ordered conversation, last message being the current
	// user request. Append-only within a request lifetime.
	History []Message `json:"history"`

	// Intent is set by the router and may be overwritten on loop-back with
	// a narrower or alternate label.
	Intent Intent `json:"intent,omitempty"`

	// Context holds the evidence attached by the active task node. Empty is
	// a valid and meaningful value: it triggers the feedback loop.
	Context []Evidence `json:"context,omitempty"`

	// Profile carries caller-supplied user attributes (skill level, budget,
	// time available). Read-only after request start.
	Profile map[string]any `json:"profile,omitempty"`

	// RoutingDecision is the node selected by the router. Mutable across
	// loop iterations.
	RoutingDecision NodeID `json:"routing_decision,omitempty"`

	// FinalOutput is populated only by the finalizer.
	FinalOutput *Output `json:"final_output,omitempty"`

	// LoopCount increments on every feedback redirection and must never
	// exceed the configured maximum.
	LoopCount int `json:"loop_count"`

	// Relaxed asks the next retrieval to broaden its query terms. Set by
	// the verifier on a retry-search verdict, cleared by the task node.
	Relaxed bool `json:"relaxed,omitempty"`

	// Ambiguous records that the last retrieval scored below the task
	// node's confidence threshold.
	Ambiguous bool `json:"ambiguous,omitempty"`

	// BestEffort marks output produced after the loop budget forced
	// finalization.
	BestEffort bool `json:"best_effort,omitempty"`

	// UnhandledIntent marks requests the router could not classify.
	UnhandledIntent bool `json:"unhandled_intent,omitempty"`

	// TaskInvocations counts task-node executions, for metadata and tests.
	TaskInvocations int `json:"task_invocations"`

	// StartedAt is the request entry timestamp.
	StartedAt time.Time `json:"started_at"`
}

// NewState creates a clean state for one request.
func NewState(requestID string, history []Message, profile map[string]any) *State {
	return &State{
		RequestID: requestID,
		History:   history,
		Profile:   profile,
		StartedAt: time.Now(),
	}
}

// LastUserMessage returns the most recent user turn, if any.
func (s *State) LastUserMessage() (Message, bool) {
	for i := len(s.History) - 1; i >= 0; i-- {
		if s.History[i].Role == RoleUser {
			return s.History[i], true
		}
	}
	return Message{}, false
}

// AppendMessage appends a turn to the conversation history.
func (s *State) AppendMessage(role Role, content string) {
	s.History = append(s.History, Message{Role: role, Content: content})
}

// SnapshotContext copies the evidence list so a failed node invocation can be
// retried against its pre-call state.
func (s *State) SnapshotContext() []Evidence {
	if s.Context == nil {
		return nil
	}
	snap := make([]Evidence, len(s.Context))
	copy(snap, s.Context)
	return snap
}

// RestoreContext rolls the evidence list back to a snapshot.
func (s *State) RestoreContext(snap []Evidence) {
	s.Context = snap
}
