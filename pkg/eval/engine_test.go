package eval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurelia-hq/strand/pkg/models"
	"github.com/aurelia-hq/strand/pkg/protocol"
)

// scriptedLLM replies with canned responses in order, or a fixed error.
type scriptedLLM struct {
	responses []string
	err       error
	calls     int
}

func (s *scriptedLLM) CompleteText(_ context.Context, _ protocol.CompletionRequest) (*protocol.CompletionResult, error) {
	if s.err != nil {
		return nil, s.err
	}

	if s.calls >= len(s.responses) {
		return nil, errors.New("scripted llm exhausted")
	}

	text := s.responses[s.calls]
	s.calls++

	return &protocol.CompletionResult{Text: text}, nil
}

func blockAssertion(id string, params map[string]any) models.Assertion {
	return models.Assertion{ID: id, Severity: models.AssertionSeverityBlock, Params: params}
}

func TestRunL1_AllBlockAssertionsPass(t *testing.T) {
	content := "Hi Maria, thanks for your note. Could we schedule a call next week? Please let me know."

	result := RunL1(content, []models.Assertion{
		blockAssertion("contains_recipient_name", map[string]any{"name": "Maria"}),
		blockAssertion("no_placeholder_tokens", nil),
		blockAssertion("contains_call_to_action", nil),
		blockAssertion("references_prior_exchange", nil),
	})

	assert.True(t, result.Passed)

	for _, a := range result.Assertions {
		assert.True(t, a.Passed, "assertion %s failed: %s", a.ID, a.Message)
	}
}

func TestRunL1_WarnFailureDoesNotGate(t *testing.T) {
	result := RunL1("short", []models.Assertion{
		{ID: "min_length", Severity: models.AssertionSeverityWarn, Params: map[string]any{"chars": 100}},
	})

	assert.True(t, result.Passed)
	require.Len(t, result.Assertions, 1)
	assert.False(t, result.Assertions[0].Passed)
}

func TestRunL1_BlockFailureGates(t *testing.T) {
	result := RunL1("Dear {{first_name}}, welcome aboard!", []models.Assertion{
		blockAssertion("no_placeholder_tokens", nil),
	})

	assert.False(t, result.Passed)
	assert.Contains(t, result.Assertions[0].Message, "{{first_name}}")
}

func TestRunL1_AssertionCatalog(t *testing.T) {
	cases := []struct {
		name      string
		assertion models.Assertion
		content   string
		passed    bool
	}{
		{
			name:      "hallucinated statistic fails without source fact",
			assertion: blockAssertion("no_hallucinated_statistics", nil),
			content:   "Our tool improves conversion by 37%.",
			passed:    false,
		},
		{
			name: "grounded statistic passes",
			assertion: blockAssertion("no_hallucinated_statistics",
				map[string]any{"facts": []any{"benchmark study showed 37% conversion lift"}}),
			content: "Our tool improves conversion by 37%.",
			passed:  true,
		},
		{
			name:      "language match detects english",
			assertion: blockAssertion("language_match", map[string]any{"language": "en"}),
			content:   "Thank you for the update, the plan is clear and we can proceed.",
			passed:    true,
		},
		{
			name:      "language mismatch fails",
			assertion: blockAssertion("language_match", map[string]any{"language": "es"}),
			content:   "Thank you for the update, the plan is clear and we can proceed.",
			passed:    false,
		},
		{
			name:      "max length enforced",
			assertion: blockAssertion("max_length", map[string]any{"chars": 10}),
			content:   "this is definitely longer than ten characters",
			passed:    false,
		},
		{
			name:      "competitor mention fails",
			assertion: blockAssertion("no_competitor_mention", map[string]any{"competitors": []any{"AcmeCorp"}}),
			content:   "Unlike acmecorp, we offer daily syncs.",
			passed:    false,
		},
		{
			name:      "profanity fails",
			assertion: blockAssertion("no_profanity", nil),
			content:   "This damn integration keeps breaking.",
			passed:    false,
		},
		{
			name:      "unknown assertion id fails closed",
			assertion: blockAssertion("does_not_exist", nil),
			content:   "anything",
			passed:    false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := RunL1(tc.content, []models.Assertion{tc.assertion})
			require.Len(t, result.Assertions, 1)
			assert.Equal(t, tc.passed, result.Assertions[0].Passed, result.Assertions[0].Message)
		})
	}
}

func TestEvaluate_L1FailureBlocksEvenWithPerfectL2(t *testing.T) {
	// The scripted scorer would return 1.0 for every criterion, but it must
	// never be consulted.
	llm := &scriptedLLM{responses: []string{"1.0", "1.0", "1.0"}}
	engine := NewEngine(llm)

	decision, err := engine.Evaluate(context.Background(), "Dear [NAME], hello", models.EvalRuleSet{
		Assertions:        []models.Assertion{blockAssertion("no_placeholder_tokens", nil)},
		Criteria:          []string{"professional", "concise", "clear"},
		AutoSendThreshold: 0.5,
	})
	require.NoError(t, err)

	assert.Equal(t, models.EvalBlocked, decision.Outcome)
	assert.False(t, decision.L1.Passed)
	assert.Nil(t, decision.L2)
	assert.Nil(t, decision.L3)
	assert.Zero(t, llm.calls)
}

func TestEvaluate_AutoSendAboveThreshold(t *testing.T) {
	llm := &scriptedLLM{responses: []string{"0.9", "0.8"}}
	engine := NewEngine(llm)

	decision, err := engine.Evaluate(context.Background(), "Hello there, please reply.", models.EvalRuleSet{
		Criteria:          []string{"professional", "clear"},
		ConfidenceFloor:   0.4,
		AutoSendThreshold: 0.8,
	})
	require.NoError(t, err)

	assert.Equal(t, models.EvalAutoSend, decision.Outcome)
	require.NotNil(t, decision.L2)
	assert.InDelta(t, 0.85, decision.L2.Score, 1e-9)
	assert.Nil(t, decision.L3, "L3 must not run above the confidence floor")
}

func TestEvaluate_MandatoryApprovalForcesReview(t *testing.T) {
	llm := &scriptedLLM{responses: []string{
		"0.95",
		`{"blocked": false, "confidence": 0.8, "reason": ""}`,
	}}
	engine := NewEngine(llm)

	decision, err := engine.Evaluate(context.Background(), "Hello, please reply.", models.EvalRuleSet{
		Criteria:          []string{"professional"},
		ConfidenceFloor:   0.4,
		AutoSendThreshold: 0.8,
		MandatoryApproval: true,
	})
	require.NoError(t, err)

	assert.Equal(t, models.EvalNeedsReview, decision.Outcome)
	require.NotNil(t, decision.L3, "mandatory approval triggers the safety judge")
	assert.False(t, decision.L3.Blocked)
}

func TestEvaluate_L3VetoBlocks(t *testing.T) {
	llm := &scriptedLLM{responses: []string{
		"0.2", // below confidence floor, triggers L3
		`{"blocked": true, "confidence": 0.95, "reason": "shares customer PII"}`,
	}}
	engine := NewEngine(llm)

	decision, err := engine.Evaluate(context.Background(), "Hello, please reply.", models.EvalRuleSet{
		Criteria:          []string{"professional"},
		ConfidenceFloor:   0.4,
		AutoSendThreshold: 0.8,
	})
	require.NoError(t, err)

	assert.Equal(t, models.EvalBlocked, decision.Outcome)
	require.NotNil(t, decision.L3)
	assert.True(t, decision.L3.Blocked)
	assert.Equal(t, "shares customer PII", decision.L3.Reason)
}

func TestEvaluate_BelowThresholdNeedsReview(t *testing.T) {
	llm := &scriptedLLM{responses: []string{"0.6"}}
	engine := NewEngine(llm)

	decision, err := engine.Evaluate(context.Background(), "Hello, please reply.", models.EvalRuleSet{
		Criteria:          []string{"professional"},
		ConfidenceFloor:   0.4,
		AutoSendThreshold: 0.8,
	})
	require.NoError(t, err)

	assert.Equal(t, models.EvalNeedsReview, decision.Outcome)
}

func TestRunL2_HeuristicFallbackWithoutLLM(t *testing.T) {
	engine := NewEngine(nil)

	result := engine.RunL2(context.Background(), "A short, clear note. Please confirm.", []string{"professional", "concise", "clear"})

	assert.Greater(t, result.Score, 0.8)
	assert.Len(t, result.Breakdown, 3)
}

func TestRunL2_FallsBackWhenLLMErrors(t *testing.T) {
	engine := NewEngine(&scriptedLLM{err: errors.New("provider down")})

	result := engine.RunL2(context.Background(), "A short, clear note.", []string{"concise"})

	assert.InDelta(t, 1.0, result.Breakdown["concise"], 1e-9)
}

func TestRunL3_HeuristicScanBlocksSensitiveData(t *testing.T) {
	engine := NewEngine(nil)

	verdict := engine.RunL3(context.Background(), "Her SSN is 123-45-6789, forwarding now.")

	assert.True(t, verdict.Blocked)
	assert.NotEmpty(t, verdict.Reason)
}

func TestRunL3_MalformedVerdictFallsBack(t *testing.T) {
	engine := NewEngine(&scriptedLLM{responses: []string{"not json"}})

	verdict := engine.RunL3(context.Background(), "benign content, nothing sensitive")

	assert.False(t, verdict.Blocked)
}
