package domain

import "time"

// Error codes surfaced to callers. Internal error kinds collapse into
// CodeInternal so collaborator detail never leaks.
const (
	CodeInternal       = "internal_error"
	CodeInvalidRequest = "invalid_request"
)

// EnvelopeError is the structured failure payload. Its shape is identical
// regardless of which internal error kind triggered it.
type EnvelopeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Meta carries timing and provenance metadata for a completed request.
type Meta struct {
	ConversationID  string        `json:"conversation_id,omitempty"`
	Intent          Intent        `json:"intent,omitempty"`
	LoopCount       int           `json:"loop_count"`
	TaskInvocations int           `json:"task_invocations"`
	BestEffort      bool          `json:"best_effort,omitempty"`
	UnhandledIntent bool          `json:"unhandled_intent,omitempty"`
	Sources         []string      `json:"sources,omitempty"`
	Elapsed         time.Duration `json:"elapsed_ns"`
}

// Envelope is the single outward response shape of the engine.
type Envelope struct {
	Success bool           `json:"success"`
	Data    *Output        `json:"data,omitempty"`
	Error   *EnvelopeError `json:"error,omitempty"`
	Meta    Meta           `json:"meta"`
}

// NewSuccessEnvelope wraps a finalized state into a success envelope.
func NewSuccessEnvelope(state *State) *Envelope {
	env := &Envelope{
		Success: true,
		Data:    state.FinalOutput,
		Meta:    metaFromState(state),
	}
	if state.FinalOutput != nil {
		env.Meta.Sources = state.FinalOutput.Sources
	}
	return env
}

// NewErrorEnvelope builds the uniform failure envelope.
func NewErrorEnvelope(code, message string, state *State) *Envelope {
	env := &Envelope{
		Success: false,
		Error:   &EnvelopeError{Code: code, Message: message},
	}
	if state != nil {
		env.Meta = metaFromState(state)
	}
	return env
}

func metaFromState(state *State) Meta {
	return Meta{
		Intent:          state.Intent,
		LoopCount:       state.LoopCount,
		TaskInvocations: state.TaskInvocations,
		BestEffort:      state.BestEffort,
		UnhandledIntent: state.UnhandledIntent,
		Elapsed:         time.Since(state.StartedAt),
	}
}
