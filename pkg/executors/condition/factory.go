package condition

import "github.com/aurelia-hq/strand/pkg/protocol"

type Factory struct{}

func NewFactory() protocol.ExecutorFactory { return &Factory{} }

func (f *Factory) Create() (protocol.NodeExecutor, error) { return &Executor{}, nil }

func (f *Factory) ID() string { return "condition" }

func (f *Factory) Name() string { return "Condition" }

func (f *Factory) Description() string {
	return "Evaluates a boolean expression over context values and selects the outgoing branch handle"
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"expression": map[string]any{
				"type":        "string",
				"description": "Boolean expression over context values, e.g. \"attendee_count > 3\".",
				"examples": []string{
					"external_attendees > 0",
					"priority == 'high' && !resolved",
				},
			},
			"true_handle": map[string]any{
				"type":        "string",
				"description": "Edge handle taken when the expression is true.",
				"default":     HandleTrue,
			},
			"fallback_handle": map[string]any{
				"type":        "string",
				"description": "Edge handle taken when the expression is false.",
				"default":     HandleFallback,
			},
		},
		"required": []string{"expression"},
	}
}
