package protocol

import (
	"context"

	"github.com/aurelia-hq/strand/pkg/models"
)

// CompletionRequest asks the injected LLM capability for text.
type CompletionRequest struct {
	System      string  `json:"system,omitempty"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// CompletionResult carries the completion plus usage accounting for tracing.
type CompletionResult struct {
	Text      string  `json:"text"`
	Model     string  `json:"model,omitempty"`
	TokensIn  int     `json:"tokens_in"`
	TokensOut int     `json:"tokens_out"`
	CostUSD   float64 `json:"cost_usd"`
}

// LLM is the injected "complete text" capability. The engine never knows
// which provider backs it.
type LLM interface {
	CompleteText(ctx context.Context, req CompletionRequest) (*CompletionResult, error)
}

// Mail is an outbound email composed by an executor.
type Mail struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

// Mailer sends email on behalf of a user.
type Mailer interface {
	SendMail(ctx context.Context, userID string, mail Mail) error
}

// Messenger posts to a chat channel.
type Messenger interface {
	PostMessage(ctx context.Context, userID, channel, text string) error
}

// Documents creates documents in the user's workspace and returns their id.
type Documents interface {
	CreateDocument(ctx context.Context, userID, title, body string) (string, error)
}

// Secrets resolves credentials for external calls. Values are stored
// encrypted; implementations decrypt on read.
type Secrets interface {
	Get(ctx context.Context, userID, name string) (string, error)
}

// StatusPublisher lets long-running executors surface progress.
type StatusPublisher interface {
	PublishStatus(ctx context.Context, executionID, nodeID, status string) error
}

// Confirmations records a pending human-approval request in place of an
// irreversible side effect.
type Confirmations interface {
	CreatePending(ctx context.Context, confirmation *models.Confirmation) error
}

// Evaluator gates generated content before an externally visible action.
type Evaluator interface {
	Evaluate(ctx context.Context, content string, rules models.EvalRuleSet) (*models.EvalDecision, error)
}

// TraceRecorder is the per-execution trace handle passed to executors.
type TraceRecorder interface {
	LogToolCall(name string, detail map[string]any, durationMs int64) string
	LogLLMCall(name string, detail map[string]any, tokensIn, tokensOut int, costUSD float64, durationMs int64) string
	LogDecision(name string, detail map[string]any) string
	LogError(name string, detail map[string]any) string
}

// Capabilities bundles the host-injected collaborators available to node
// executors. Nil fields mean the capability is not available in this
// deployment; executors must fail cleanly rather than construct substitutes.
type Capabilities struct {
	LLM           LLM
	Mailer        Mailer
	Messenger     Messenger
	Documents     Documents
	Secrets       Secrets
	Status        StatusPublisher
	Confirmations Confirmations
	Evaluator     Evaluator
	Trace         TraceRecorder
}
