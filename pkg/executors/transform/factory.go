package transform

import "github.com/aurelia-hq/strand/pkg/protocol"

type Factory struct{}

func NewFactory() protocol.ExecutorFactory { return &Factory{} }

func (f *Factory) Create() (protocol.NodeExecutor, error) { return &Executor{}, nil }

func (f *Factory) ID() string { return "transform" }

func (f *Factory) Name() string { return "Transform" }

func (f *Factory) Description() string {
	return "Writes literal or templated values into the execution context and copies existing values under new keys"
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"set": map[string]any{
				"type":        "object",
				"description": "Keys to write. String values support templating, e.g. \"Hello {{.customer_name}}\".",
			},
			"copy": map[string]any{
				"type":        "object",
				"description": "Destination key to source key mapping over existing context values.",
				"additionalProperties": map[string]any{
					"type": "string",
				},
			},
		},
	}
}
