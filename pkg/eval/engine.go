// Package eval gates generated content through three layers of increasing
// cost and decreasing determinism: deterministic assertions (L1), scored
// qualitative criteria (L2) and an LLM safety veto (L3). The outcome is
// auto_send, needs_review or blocked; a blocked decision is a normal result,
// not an error.
package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aurelia-hq/strand/pkg/log"
	"github.com/aurelia-hq/strand/pkg/models"
	"github.com/aurelia-hq/strand/pkg/protocol"
)

// Engine implements protocol.Evaluator. The LLM is optional: without one,
// L2 falls back to built-in heuristics and L3 to a conservative pattern scan.
type Engine struct {
	llm    protocol.LLM
	logger *slog.Logger
}

func NewEngine(llm protocol.LLM) *Engine {
	return &Engine{
		llm:    llm,
		logger: log.WithModule("eval"),
	}
}

// Evaluate runs the layered gate and produces the final decision:
//   - a block-severity L1 failure short-circuits to blocked, L2/L3 never run
//   - L3 runs when the L2 score is below the confidence floor or the rule set
//     mandates approval; an L3 veto is blocked
//   - auto_send requires L2 score >= the auto-send threshold and no
//     mandatory-approval rule; everything else is needs_review
func (e *Engine) Evaluate(ctx context.Context, content string, rules models.EvalRuleSet) (*models.EvalDecision, error) {
	decision := &models.EvalDecision{EvaluatedAt: time.Now().UTC()}

	decision.L1 = RunL1(content, rules.Assertions)
	if !decision.L1.Passed {
		decision.Outcome = models.EvalBlocked

		e.logger.InfoContext(ctx, "Content blocked by deterministic assertions",
			"failed", failedAssertionIDs(decision.L1))

		return decision, nil
	}

	decision.L2 = e.RunL2(ctx, content, rules.Criteria)

	if decision.L2.Score < rules.ConfidenceFloor || rules.MandatoryApproval {
		decision.L3 = e.RunL3(ctx, content)

		if decision.L3.Blocked {
			decision.Outcome = models.EvalBlocked

			e.logger.InfoContext(ctx, "Content vetoed by safety judge",
				"confidence", decision.L3.Confidence, "reason", decision.L3.Reason)

			return decision, nil
		}
	}

	if decision.L2.Score >= rules.AutoSendThreshold && !rules.MandatoryApproval {
		decision.Outcome = models.EvalAutoSend
	} else {
		decision.Outcome = models.EvalNeedsReview
	}

	return decision, nil
}

// RunL2 scores each criterion in [0,1] and averages. With an LLM configured
// each criterion is scored by the model; otherwise, or when the model reply
// is unusable, a built-in heuristic scores it.
func (e *Engine) RunL2(ctx context.Context, content string, criteria []string) *models.L2Result {
	result := &models.L2Result{Breakdown: make(map[string]float64, len(criteria))}

	if len(criteria) == 0 {
		result.Score = 1.0

		return result
	}

	total := 0.0

	for _, criterion := range criteria {
		score, err := e.scoreCriterion(ctx, content, criterion)
		if err != nil {
			e.logger.WarnContext(ctx, "LLM scoring failed, using heuristic",
				"criterion", criterion, "error", err)

			score = heuristicScore(content, criterion)
		}

		result.Breakdown[criterion] = score
		total += score
	}

	result.Score = total / float64(len(criteria))

	return result
}

func (e *Engine) scoreCriterion(ctx context.Context, content, criterion string) (float64, error) {
	if e.llm == nil {
		return heuristicScore(content, criterion), nil
	}

	completion, err := e.llm.CompleteText(ctx, protocol.CompletionRequest{
		System:      "You grade written content. Respond with a single number between 0 and 1, nothing else.",
		Prompt:      fmt.Sprintf("Criterion: %s\n\nContent:\n%s\n\nScore:", criterion, content),
		MaxTokens:   8,
		Temperature: 0,
	})
	if err != nil {
		return 0, err
	}

	score, err := strconv.ParseFloat(strings.TrimSpace(completion.Text), 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable score %q: %w", completion.Text, err)
	}

	return clamp01(score), nil
}

// l3Verdict is the JSON shape the safety judge is asked to produce.
type l3Verdict struct {
	Blocked    bool    `json:"blocked"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// RunL3 asks the LLM whether the content could cause harm, an irreversible
// action or a privacy violation. Without an LLM, a pattern scan over known
// sensitive-data shapes stands in.
func (e *Engine) RunL3(ctx context.Context, content string) *models.L3Result {
	if e.llm == nil {
		return heuristicSafetyScan(content)
	}

	completion, err := e.llm.CompleteText(ctx, protocol.CompletionRequest{
		System: "You are a safety reviewer. Judge whether the content could cause harm, " +
			"trigger an irreversible action, or violate privacy. " +
			`Respond with JSON only: {"blocked": bool, "confidence": number, "reason": string}.`,
		Prompt:      content,
		MaxTokens:   200,
		Temperature: 0,
	})
	if err != nil {
		e.logger.WarnContext(ctx, "Safety judge unavailable, using pattern scan", "error", err)

		return heuristicSafetyScan(content)
	}

	var verdict l3Verdict
	if err := json.Unmarshal([]byte(strings.TrimSpace(completion.Text)), &verdict); err != nil {
		e.logger.WarnContext(ctx, "Safety judge returned malformed verdict, using pattern scan",
			"error", err)

		return heuristicSafetyScan(content)
	}

	return &models.L3Result{
		Blocked:    verdict.Blocked,
		Confidence: clamp01(verdict.Confidence),
		Reason:     verdict.Reason,
	}
}

var sensitivePatterns = map[string]*regexp.Regexp{
	"credit card number":     regexp.MustCompile(`\b(?:\d[ -]?){13,16}\b`),
	"social security number": regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
	"credential disclosure":  regexp.MustCompile(`(?i)\b(?:password|api[_ ]?key|secret[_ ]?key)\s*[:=]\s*\S+`),
}

func heuristicSafetyScan(content string) *models.L3Result {
	for label, pattern := range sensitivePatterns {
		if pattern.MatchString(content) {
			return &models.L3Result{
				Blocked:    true,
				Confidence: 0.9,
				Reason:     fmt.Sprintf("content appears to contain a %s", label),
			}
		}
	}

	return &models.L3Result{Blocked: false, Confidence: 0.5}
}

func failedAssertionIDs(l1 *models.L1Result) []string {
	failed := make([]string, 0)

	for _, a := range l1.Assertions {
		if !a.Passed {
			failed = append(failed, a.ID)
		}
	}

	return failed
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}

	if v > 1 {
		return 1
	}

	return v
}
