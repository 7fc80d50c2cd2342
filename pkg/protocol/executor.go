// Package protocol defines the contracts between the workflow engine and
// pluggable node executors.
package protocol

import (
	"context"

	"github.com/aurelia-hq/strand/pkg/models"
)

// ExecInput bundles everything a node executor receives for one step.
type ExecInput struct {
	// Data is the node's executor-specific configuration from the graph.
	Data map[string]any

	// NodeID identifies the node instance being executed.
	NodeID string

	// UserID is the owner the run acts on behalf of.
	UserID string

	// Context is the accumulated execution context. Executors must treat it
	// as read-only and return a derived context.
	Context *models.ExecutionContext

	// Capabilities are the side-effecting collaborators injected by the
	// host. Executors never construct their own.
	Capabilities *Capabilities
}

// NodeExecutor implements one workflow node type's behavior. Executors that
// perform irreversible actions must either create a pending confirmation
// record instead of acting, or be explicitly configured safe-to-retry, since
// the whole job is retried under at-least-once delivery.
type NodeExecutor interface {
	Execute(ctx context.Context, in ExecInput) (*models.ExecutionContext, error)
}

// ExecutorFactory creates executor instances and describes the node type.
type ExecutorFactory interface {
	// Create builds the executor for this node type.
	Create() (NodeExecutor, error)

	// ID returns the node type identifier used in Node.Type.
	ID() string

	// Name returns a human-readable name for this node type.
	Name() string

	// Description explains what the node does.
	Description() string

	// Schema returns the JSON schema validating Node.Data for this type.
	Schema() map[string]any
}
