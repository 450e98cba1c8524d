package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeEnter   EventType = "node_enter"
	EventNodeLeave   EventType = "node_leave"
	EventLoopback    EventType = "loopback"
	EventRequestDone EventType = "request_done"
)

// NodeEvent represents entry or exit from a node.
type NodeEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RequestID string    `json:"request_id"`
	NodeID    NodeID    `json:"node_id"`
	Intent    Intent    `json:"intent,omitempty"`
	Attempt   int       `json:"attempt"`
	Err       error     `json:"-"`
}

// LoopEvent represents a feedback redirection decided by the verifier.
type LoopEvent struct {
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
	Verdict   string    `json:"verdict"`
	LoopCount int       `json:"loop_count"`
	Forced    bool      `json:"forced"`
}

// RequestEvent represents a completed request.
type RequestEvent struct {
	Timestamp  time.Time     `json:"timestamp"`
	RequestID  string        `json:"request_id"`
	Intent     Intent        `json:"intent,omitempty"`
	Success    bool          `json:"success"`
	BestEffort bool          `json:"best_effort"`
	LoopCount  int           `json:"loop_count"`
	Elapsed    time.Duration `json:"elapsed"`
}

// LifecycleHooks defines callbacks for engine observability. Nil hooks are
// skipped; hooks must not mutate the state.
type LifecycleHooks struct {
	OnNodeEnter   func(context.Context, *NodeEvent)
	OnNodeLeave   func(context.Context, *NodeEvent)
	OnLoopback    func(context.Context, *LoopEvent)
	OnRequestDone func(context.Context, *RequestEvent)
}
