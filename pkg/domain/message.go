package domain

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is a single conversation turn. History is append-only within a
// request; insertion order is meaningful.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Evidence is one retrieved or generated item of supporting context.
// Task nodes replace the state's evidence list wholesale on each invocation,
// which keeps retries idempotent.
type Evidence struct {
	// Source identifies the originating document (corpus ID, URL, ...).
	Source string `json:"source"`

	// Kind tags the evidence category (e.g. "drill", "shoe", "rule",
	// "glossary"). Task nodes use it for post-filtering.
	Kind string `json:"kind"`

	// Content is the evidence text.
	Content string `json:"content"`

	// Score is the retriever's relevance estimate in [0, 1].
	Score float64 `json:"score"`

	// Metadata carries retriever-specific attributes (price, article, ...).
	Metadata map[string]any `json:"metadata,omitempty"`
}
