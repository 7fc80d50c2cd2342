package log

import "github.com/aurelia-hq/strand/pkg/protocol"

type Factory struct{}

func NewFactory() protocol.ExecutorFactory { return &Factory{} }

func (f *Factory) Create() (protocol.NodeExecutor, error) { return NewExecutor(), nil }

func (f *Factory) ID() string { return "log" }

func (f *Factory) Name() string { return "Log" }

func (f *Factory) Description() string {
	return "Logs a templated message at the configured level without modifying the context"
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message": map[string]any{
				"type":        "string",
				"description": "Message to log. Supports templating over context values.",
				"examples":    []string{"Processing inbox for {{.customer_name}}"},
			},
			"level": map[string]any{
				"type":    "string",
				"enum":    []string{"debug", "info", "warn", "error"},
				"default": "info",
			},
		},
		"required": []string{"message"},
	}
}
