package assist

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zweadfx/assist/internal/adapters/memory"
	"github.com/zweadfx/assist/internal/knowledge"
	"github.com/zweadfx/assist/internal/logging"
	"github.com/zweadfx/assist/internal/runtime"
	"github.com/zweadfx/assist/pkg/domain"
	"github.com/zweadfx/assist/pkg/ports"
	"github.com/zweadfx/assist/pkg/session"
)

// internalErrorMessage is the only failure text callers ever see. Collaborator
// and routing detail stays in the logs.
const internalErrorMessage = "the request could not be completed"

// Collaborators groups the three pluggable backends the graph consumes.
type Collaborators struct {
	Classifier  ports.IntentClassifier
	Retriever   ports.ContextRetriever
	Synthesizer ports.ResponseSynthesizer
}

// Engine is the high-level entry point. It wraps the internal execution graph
// and conversation persistence behind a single request/response API.
type Engine struct {
	exec     *runtime.Engine
	sessions *session.Manager
	logger   *slog.Logger

	store          ports.ConversationStore
	locker         ports.DistributedLocker
	hooks          domain.LifecycleHooks
	maxLoops       int
	minConfidence  float64
	requiredFields map[domain.Intent][]string
	runtimeOpts    []runtime.Option
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithStore overrides the conversation store (default: in-memory).
func WithStore(store ports.ConversationStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker enables distributed conversation locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithMaxFeedbackLoops overrides the verification loop budget.
func WithMaxFeedbackLoops(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.maxLoops = n
		}
	}
}

// WithMinConfidence overrides the router's classification confidence floor.
func WithMinConfidence(min float64) Option {
	return func(e *Engine) {
		e.minConfidence = min
	}
}

// WithRequiredFields overrides the per-intent profile fields the verifier
// demands before proceeding.
func WithRequiredFields(fields map[domain.Intent][]string) Option {
	return func(e *Engine) {
		e.requiredFields = fields
	}
}

// WithStepLimit overrides the executor's defensive step ceiling.
func WithStepLimit(limit int) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithStepLimit(limit))
	}
}

// WithRetryBudget overrides the per-node retry budget.
func WithRetryBudget(budget int) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithRetryBudget(budget))
	}
}

// WithNodeTimeout overrides the per-node execution timeout.
func WithNodeTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithNodeTimeout(d))
	}
}

// New builds an engine over the given collaborators.
func New(collab Collaborators, opts ...Option) (*Engine, error) {
	eng := &Engine{
		logger:   logging.NewNop(),
		maxLoops: runtime.DefaultMaxFeedbackLoops,
	}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.store == nil {
		eng.store = memory.NewStore()
	}

	sessionOpts := []session.Option{session.WithLogger(eng.logger)}
	if eng.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(eng.locker))
	}
	eng.sessions = session.NewManager(eng.store, sessionOpts...)

	routerOpts := []runtime.RouterOption{}
	if eng.minConfidence > 0 {
		routerOpts = append(routerOpts, runtime.WithMinConfidence(eng.minConfidence))
	}

	nodes := map[domain.NodeID]runtime.Node{
		domain.NodeRouter:   runtime.NewRouterNode(collab.Classifier, eng.logger, routerOpts...),
		domain.NodeVerify:   runtime.NewVerifierNode(eng.maxLoops, eng.requiredFields, eng.logger),
		domain.NodeFinalize: runtime.NewFinalizerNode(collab.Synthesizer, eng.logger),
	}
	for _, intent := range domain.Intents() {
		nodes[domain.TaskNodeID(intent)] = runtime.NewTaskNode(intent, collab.Retriever, eng.logger)
	}

	runtimeOpts := append(eng.runtimeOpts,
		runtime.WithLogger(eng.logger),
		runtime.WithLifecycleHooks(eng.hooks),
	)
	exec, err := runtime.New(nodes, runtime.DefaultPolicy(), runtimeOpts...)
	if err != nil {
		return nil, err
	}
	eng.exec = exec
	return eng, nil
}

// NewOffline builds an engine backed by the deterministic knowledge
// collaborators over the corpus at dir.
func NewOffline(corpusDir string, opts ...Option) (*Engine, error) {
	// Peek at the logger option so the collaborators share it.
	probe := &Engine{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(probe)
	}

	corpus, err := knowledge.Open(corpusDir)
	if err != nil {
		return nil, err
	}

	collab := Collaborators{
		Classifier:  knowledge.NewKeywordClassifier(probe.logger),
		Retriever:   knowledge.NewRetriever(corpus, probe.logger),
		Synthesizer: knowledge.NewTemplateSynthesizer(probe.logger),
	}
	return New(collab, opts...)
}

// Request is one user turn against a conversation.
type Request struct {
	// ConversationID selects the conversation; empty starts a new one.
	ConversationID string `json:"conversation_id,omitempty"`

	// Question is the user's message. Required.
	Question string `json:"question"`

	// Profile carries user attributes (skill level, budget, available time).
	Profile map[string]any `json:"profile,omitempty"`
}

// HandleRequest runs one turn through the graph and returns the uniform
// response envelope. Infrastructure and node failures never surface as Go
// errors to the caller; they collapse into an internal-error envelope.
func (e *Engine) HandleRequest(ctx context.Context, req Request) *domain.Envelope {
	if strings.TrimSpace(req.Question) == "" {
		return domain.NewErrorEnvelope(domain.CodeInvalidRequest, "question must not be empty", nil)
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.NewString()
	}
	requestID := uuid.NewString()

	logger := e.logger.With("request_id", requestID, "conversation_id", conversationID)

	var env *domain.Envelope
	err := e.sessions.WithLock(ctx, conversationID, func(ctx context.Context) error {
		history, err := e.store.Load(ctx, conversationID)
		if err != nil && err != domain.ErrConversationNotFound {
			return err
		}

		state := domain.NewState(requestID, history, req.Profile)
		state.AppendMessage(domain.RoleUser, req.Question)

		if err := e.exec.Run(ctx, state); err != nil {
			logger.Error("request failed", "err", err)
			env = domain.NewErrorEnvelope(domain.CodeInternal, internalErrorMessage, state)
			env.Meta.ConversationID = conversationID
			return nil
		}

		if err := e.store.Save(ctx, conversationID, state.History); err != nil {
			// The answer is already computed; losing persistence degrades
			// continuity, not this response.
			logger.Warn("failed to persist conversation", "err", err)
		}

		env = domain.NewSuccessEnvelope(state)
		env.Meta.ConversationID = conversationID
		return nil
	})
	if err != nil {
		logger.Error("conversation access failed", "err", err)
		env = domain.NewErrorEnvelope(domain.CodeInternal, internalErrorMessage, nil)
		env.Meta.ConversationID = conversationID
	}
	return env
}

// Sessions exposes the conversation manager for administrative surfaces
// (listing and deleting conversations).
func (e *Engine) Sessions() *session.Manager {
	return e.sessions
}
