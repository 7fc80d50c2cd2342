// Package registry maps node type identifiers to executor factories.
package registry

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/aurelia-hq/strand/pkg/protocol"
	"github.com/xeipuuv/gojsonschema"
)

// UnknownNodeTypeError is a fatal configuration error: the workflow names a
// node type no factory was registered for.
type UnknownNodeTypeError struct {
	NodeType string
}

func (e *UnknownNodeTypeError) Error() string {
	return fmt.Sprintf("node type '%s' not registered", e.NodeType)
}

// Registry holds executor factories and the executors built from them.
// Executors are stateless and shared; per-node configuration arrives at
// execute time through ExecInput.Data.
type Registry struct {
	logger    *slog.Logger
	factories map[string]protocol.ExecutorFactory
	executors map[string]protocol.NodeExecutor
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger.With("module", "registry"),
		factories: make(map[string]protocol.ExecutorFactory),
		executors: make(map[string]protocol.NodeExecutor),
	}
}

// Register adds a factory and eagerly builds its executor.
func (r *Registry) Register(factory protocol.ExecutorFactory) error {
	executor, err := factory.Create()
	if err != nil {
		return fmt.Errorf("failed to create executor for node type %s: %w", factory.ID(), err)
	}

	r.factories[factory.ID()] = factory
	r.executors[factory.ID()] = executor

	r.logger.Debug("Registered node executor", "node_type", factory.ID())

	return nil
}

// Executor returns the executor for a node type.
func (r *Registry) Executor(nodeType string) (protocol.NodeExecutor, error) {
	executor, ok := r.executors[nodeType]
	if !ok {
		return nil, &UnknownNodeTypeError{NodeType: nodeType}
	}

	return executor, nil
}

// Factory returns the factory metadata for a node type.
func (r *Registry) Factory(nodeType string) (protocol.ExecutorFactory, error) {
	factory, ok := r.factories[nodeType]
	if !ok {
		return nil, &UnknownNodeTypeError{NodeType: nodeType}
	}

	return factory, nil
}

// NodeTypes lists all registered node type identifiers.
func (r *Registry) NodeTypes() []string {
	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}

	return types
}

// ValidateConfig checks node data against the factory's JSON schema before
// the engine ever invokes the executor.
func (r *Registry) ValidateConfig(nodeType string, data map[string]any) error {
	factory, ok := r.factories[nodeType]
	if !ok {
		return &UnknownNodeTypeError{NodeType: nodeType}
	}

	schema := factory.Schema()
	if schema == nil {
		return nil
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewGoLoader(data),
	)
	if err != nil {
		return fmt.Errorf("schema validation failed for node type %s: %w", nodeType, err)
	}

	if !result.Valid() {
		messages := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			messages = append(messages, desc.String())
		}

		return fmt.Errorf("invalid config for node type %s: %s", nodeType, strings.Join(messages, "; "))
	}

	return nil
}
