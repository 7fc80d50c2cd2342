// Package llm provides the text-generation node. It calls the injected
// completion capability, records the call on the trace, and optionally gates
// the output through the eval engine before it enters the context.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/aurelia-hq/strand/pkg/metrics"
	"github.com/aurelia-hq/strand/pkg/models"
	"github.com/aurelia-hq/strand/pkg/protocol"
	"github.com/aurelia-hq/strand/pkg/template"
)

const defaultOutputKey = "completion"

type config struct {
	Prompt      string  `json:"prompt"`
	System      string  `json:"system"`
	OutputKey   string  `json:"output_key"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`

	// Eval, when present, gates the completion through the layered eval
	// engine. A blocked decision is a normal outcome: the content is withheld
	// from the context and the decision recorded for downstream branching.
	Eval *models.EvalRuleSet `json:"eval"`
}

// decode uses json tag names so the nested eval rule set decodes with the
// same keys it is stored under.
func decode(data map[string]any, cfg *config) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  cfg,
	})
	if err != nil {
		return err
	}

	return decoder.Decode(data)
}

type Executor struct{}

func (e *Executor) Execute(ctx context.Context, in protocol.ExecInput) (*models.ExecutionContext, error) {
	var cfg config
	if err := decode(in.Data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid llm config: %w", err)
	}

	if cfg.Prompt == "" {
		return nil, fmt.Errorf("llm node %s: prompt is required", in.NodeID)
	}

	if in.Capabilities == nil || in.Capabilities.LLM == nil {
		return nil, fmt.Errorf("llm node %s: completion capability not available", in.NodeID)
	}

	if cfg.OutputKey == "" {
		cfg.OutputKey = defaultOutputKey
	}

	if err := template.RenderAll(in.Context, &cfg.Prompt, &cfg.System); err != nil {
		return nil, fmt.Errorf("llm node %s: %w", in.NodeID, err)
	}

	started := time.Now()

	completion, err := in.Capabilities.LLM.CompleteText(ctx, protocol.CompletionRequest{
		System:      cfg.System,
		Prompt:      cfg.Prompt,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("llm node %s: completion failed: %w", in.NodeID, err)
	}

	if in.Capabilities.Trace != nil {
		in.Capabilities.Trace.LogLLMCall("llm_node", map[string]any{
			"node_id": in.NodeID,
			"model":   completion.Model,
		}, completion.TokensIn, completion.TokensOut, completion.CostUSD, time.Since(started).Milliseconds())
	}

	out := in.Context

	if cfg.Eval != nil {
		if in.Capabilities.Evaluator == nil {
			return nil, fmt.Errorf("llm node %s: eval configured but evaluator capability not available", in.NodeID)
		}

		decision, err := in.Capabilities.Evaluator.Evaluate(ctx, completion.Text, *cfg.Eval)
		if err != nil {
			return nil, fmt.Errorf("llm node %s: evaluation failed: %w", in.NodeID, err)
		}

		metrics.EvalDecisions.WithLabelValues(string(decision.Outcome)).Inc()

		if in.Capabilities.Trace != nil {
			in.Capabilities.Trace.LogDecision("eval_gate", map[string]any{
				"node_id": in.NodeID,
				"outcome": string(decision.Outcome),
			})
		}

		out = out.With(cfg.OutputKey+"_eval", string(decision.Outcome))

		if decision.Outcome == models.EvalBlocked {
			// Blocked content never enters the context.
			return out, nil
		}
	}

	return out.With(cfg.OutputKey, completion.Text), nil
}
