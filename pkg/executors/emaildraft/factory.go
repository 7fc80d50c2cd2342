package emaildraft

import "github.com/aurelia-hq/strand/pkg/protocol"

type Factory struct{}

func NewFactory() protocol.ExecutorFactory { return &Factory{} }

func (f *Factory) Create() (protocol.NodeExecutor, error) { return &Executor{}, nil }

func (f *Factory) ID() string { return "email_draft" }

func (f *Factory) Name() string { return "Email Draft" }

func (f *Factory) Description() string {
	return "Composes an email and records a pending confirmation, or sends directly when marked safe to retry"
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"to": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Recipient addresses.",
			},
			"subject": map[string]any{
				"type":        "string",
				"description": "Subject line, templated over context values.",
			},
			"body": map[string]any{
				"type":        "string",
				"description": "Body text, templated over context values.",
				"examples":    []string{"Hi {{.customer_name}},\n\n{{.draft}}"},
			},
			"safe_to_retry": map[string]any{
				"type":        "boolean",
				"description": "Send directly instead of creating a confirmation. Only for provider-deduplicated sends.",
				"default":     false,
			},
		},
		"required": []string{"to", "subject", "body"},
	}
}
