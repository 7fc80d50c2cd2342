package chatpost

import "github.com/aurelia-hq/strand/pkg/protocol"

type Factory struct{}

func NewFactory() protocol.ExecutorFactory { return &Factory{} }

func (f *Factory) Create() (protocol.NodeExecutor, error) { return &Executor{}, nil }

func (f *Factory) ID() string { return "chat_post" }

func (f *Factory) Name() string { return "Chat Post" }

func (f *Factory) Description() string {
	return "Posts a message to a chat channel, gated by a pending confirmation unless marked safe to retry"
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"channel": map[string]any{
				"type":        "string",
				"description": "Target channel identifier.",
			},
			"text": map[string]any{
				"type":        "string",
				"description": "Message text, templated over context values.",
			},
			"safe_to_retry": map[string]any{
				"type":    "boolean",
				"default": false,
			},
		},
		"required": []string{"channel", "text"},
	}
}
