package llm

import "github.com/aurelia-hq/strand/pkg/protocol"

type Factory struct{}

func NewFactory() protocol.ExecutorFactory { return &Factory{} }

func (f *Factory) Create() (protocol.NodeExecutor, error) { return &Executor{}, nil }

func (f *Factory) ID() string { return "llm" }

func (f *Factory) Name() string { return "LLM Completion" }

func (f *Factory) Description() string {
	return "Generates text with the injected completion capability, optionally gated by the layered eval engine"
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"prompt": map[string]any{
				"type":        "string",
				"description": "Prompt text. Supports templating over context values.",
				"examples":    []string{"Draft a reply to: {{.inbound_email}}"},
			},
			"system": map[string]any{
				"type":        "string",
				"description": "Optional system prompt, also templated.",
			},
			"output_key": map[string]any{
				"type":        "string",
				"description": "Context key receiving the completion.",
				"default":     defaultOutputKey,
			},
			"max_tokens": map[string]any{
				"type": "integer",
			},
			"temperature": map[string]any{
				"type": "number",
			},
			"eval": map[string]any{
				"type":        "object",
				"description": "Eval rule set gating the completion. Blocked content never enters the context.",
			},
		},
		"required": []string{"prompt"},
	}
}
