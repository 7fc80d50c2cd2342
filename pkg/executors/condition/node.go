// Package condition provides the branching node. It evaluates a boolean
// expression over the context values and selects an outgoing edge handle; the
// run loop prunes nodes reachable only through the other handle.
package condition

import (
	"context"
	"fmt"

	"github.com/Knetic/govaluate"
	"github.com/mitchellh/mapstructure"

	"github.com/aurelia-hq/strand/pkg/models"
	"github.com/aurelia-hq/strand/pkg/protocol"
)

// Default edge handles when the node config does not override them.
const (
	HandleTrue     = "true"
	HandleFallback = "fallback"
)

type config struct {
	// Expression over context values, e.g. "attendee_count > 3 && external".
	Expression string `mapstructure:"expression"`

	TrueHandle     string `mapstructure:"true_handle"`
	FallbackHandle string `mapstructure:"fallback_handle"`
}

type Executor struct{}

func (e *Executor) Execute(_ context.Context, in protocol.ExecInput) (*models.ExecutionContext, error) {
	var cfg config
	if err := mapstructure.Decode(in.Data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid condition config: %w", err)
	}

	if cfg.Expression == "" {
		return nil, fmt.Errorf("condition node %s: expression is required", in.NodeID)
	}

	if cfg.TrueHandle == "" {
		cfg.TrueHandle = HandleTrue
	}

	if cfg.FallbackHandle == "" {
		cfg.FallbackHandle = HandleFallback
	}

	expr, err := govaluate.NewEvaluableExpression(cfg.Expression)
	if err != nil {
		return nil, fmt.Errorf("condition node %s: invalid expression: %w", in.NodeID, err)
	}

	result, err := expr.Evaluate(evaluationParams(in.Context.Values))
	if err != nil {
		return nil, fmt.Errorf("condition node %s: evaluation failed: %w", in.NodeID, err)
	}

	matched, ok := result.(bool)
	if !ok {
		return nil, fmt.Errorf("condition node %s: expression yielded %T, want bool", in.NodeID, result)
	}

	handle := cfg.FallbackHandle
	if matched {
		handle = cfg.TrueHandle
	}

	if in.Capabilities != nil && in.Capabilities.Trace != nil {
		in.Capabilities.Trace.LogDecision("condition_evaluated", map[string]any{
			"node_id":    in.NodeID,
			"expression": cfg.Expression,
			"matched":    matched,
			"handle":     handle,
		})
	}

	return in.Context.WithBranch(handle), nil
}

// evaluationParams normalizes numeric context values to float64, the only
// numeric type the expression engine operates on. JSON-decoded values arrive
// as float64 already; values set in-process may not.
func evaluationParams(values map[string]any) map[string]any {
	params := make(map[string]any, len(values))

	for k, v := range values {
		switch n := v.(type) {
		case int:
			params[k] = float64(n)
		case int32:
			params[k] = float64(n)
		case int64:
			params[k] = float64(n)
		case float32:
			params[k] = float64(n)
		default:
			params[k] = v
		}
	}

	return params
}
