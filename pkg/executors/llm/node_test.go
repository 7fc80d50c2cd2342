package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurelia-hq/strand/pkg/models"
	"github.com/aurelia-hq/strand/pkg/protocol"
)

type fixedLLM struct {
	text    string
	err     error
	lastReq protocol.CompletionRequest
}

func (f *fixedLLM) CompleteText(_ context.Context, req protocol.CompletionRequest) (*protocol.CompletionResult, error) {
	f.lastReq = req

	if f.err != nil {
		return nil, f.err
	}

	return &protocol.CompletionResult{Text: f.text, TokensIn: 10, TokensOut: 20, CostUSD: 0.001}, nil
}

type fixedEvaluator struct {
	outcome models.EvalOutcome
}

func (f fixedEvaluator) Evaluate(_ context.Context, _ string, _ models.EvalRuleSet) (*models.EvalDecision, error) {
	return &models.EvalDecision{Outcome: f.outcome}, nil
}

func execute(t *testing.T, data map[string]any, caps *protocol.Capabilities, values map[string]any) (*models.ExecutionContext, error) {
	t.Helper()

	execCtx := models.NewExecutionContext("exec-1", "wf-1", "user-1", values)

	return (&Executor{}).Execute(context.Background(), protocol.ExecInput{
		Data:         data,
		NodeID:       "llm-1",
		UserID:       "user-1",
		Context:      execCtx,
		Capabilities: caps,
	})
}

func TestExecute_CompletionStoredUnderOutputKey(t *testing.T) {
	llm := &fixedLLM{text: "Drafted reply."}

	out, err := execute(t,
		map[string]any{"prompt": "Reply to: {{.inbound}}", "output_key": "draft"},
		&protocol.Capabilities{LLM: llm},
		map[string]any{"inbound": "hello?"})
	require.NoError(t, err)

	v, _ := out.Value("draft")
	assert.Equal(t, "Drafted reply.", v)
	assert.Equal(t, "Reply to: hello?", llm.lastReq.Prompt, "prompt is templated")
}

func TestExecute_MissingCapability(t *testing.T) {
	_, err := execute(t, map[string]any{"prompt": "hi"}, &protocol.Capabilities{}, nil)
	assert.Error(t, err)
}

func TestExecute_CompletionErrorPropagates(t *testing.T) {
	llm := &fixedLLM{err: errors.New("rate limited")}

	_, err := execute(t, map[string]any{"prompt": "hi"}, &protocol.Capabilities{LLM: llm}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestExecute_EvalGateAllowsAutoSend(t *testing.T) {
	caps := &protocol.Capabilities{
		LLM:       &fixedLLM{text: "safe content"},
		Evaluator: fixedEvaluator{outcome: models.EvalAutoSend},
	}

	out, err := execute(t, map[string]any{
		"prompt": "hi",
		"eval":   map[string]any{"auto_send_threshold": 0.8},
	}, caps, nil)
	require.NoError(t, err)

	v, _ := out.Value("completion")
	assert.Equal(t, "safe content", v)

	outcome, _ := out.Value("completion_eval")
	assert.Equal(t, "auto_send", outcome)
}

func TestExecute_EvalGateWithholdsBlockedContent(t *testing.T) {
	caps := &protocol.Capabilities{
		LLM:       &fixedLLM{text: "problematic content"},
		Evaluator: fixedEvaluator{outcome: models.EvalBlocked},
	}

	out, err := execute(t, map[string]any{
		"prompt": "hi",
		"eval":   map[string]any{},
	}, caps, nil)
	require.NoError(t, err, "a blocked decision is a normal outcome, not an error")

	_, present := out.Value("completion")
	assert.False(t, present, "blocked content never enters the context")

	outcome, _ := out.Value("completion_eval")
	assert.Equal(t, "blocked", outcome)
}

func TestExecute_EvalConfiguredWithoutEvaluator(t *testing.T) {
	caps := &protocol.Capabilities{LLM: &fixedLLM{text: "x"}}

	_, err := execute(t, map[string]any{
		"prompt": "hi",
		"eval":   map[string]any{},
	}, caps, nil)
	assert.Error(t, err)
}
