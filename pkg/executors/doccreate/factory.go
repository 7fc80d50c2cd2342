package doccreate

import "github.com/aurelia-hq/strand/pkg/protocol"

type Factory struct{}

func NewFactory() protocol.ExecutorFactory { return &Factory{} }

func (f *Factory) Create() (protocol.NodeExecutor, error) { return &Executor{}, nil }

func (f *Factory) ID() string { return "doc_create" }

func (f *Factory) Name() string { return "Create Document" }

func (f *Factory) Description() string {
	return "Creates a document in the user's workspace and stores its id in the context"
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{
				"type":        "string",
				"description": "Document title, templated over context values.",
			},
			"body": map[string]any{
				"type":        "string",
				"description": "Document body, templated over context values.",
			},
			"output_key": map[string]any{
				"type":    "string",
				"default": defaultOutputKey,
			},
		},
		"required": []string{"title"},
	}
}
