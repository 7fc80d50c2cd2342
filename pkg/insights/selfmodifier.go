package insights

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aurelia-hq/strand/pkg/log"
	"github.com/aurelia-hq/strand/pkg/models"
)

const toolRecommendationPrefix = "add_tool:"

// SelfModifier turns high-signal insights and accumulated corrections into
// pending modification proposals. Proposals never touch live configuration;
// they wait for an explicit external Approve/Reject.
type SelfModifier struct {
	logger *slog.Logger
}

func NewSelfModifier() *SelfModifier {
	return &SelfModifier{logger: log.WithModule("selfmodifier")}
}

// ProposeModifications maps critical/high insights onto typed proposals and
// folds repeated corrections into a prompt update. Lower-severity insights
// are informational only and produce nothing.
func (s *SelfModifier) ProposeModifications(agentID string, found []*models.Insight, corrections []*models.Feedback) []*models.ModificationProposal {
	proposals := make([]*models.ModificationProposal, 0)

	for _, insight := range found {
		if insight.Severity.Rank() < models.SeverityHigh.Rank() {
			continue
		}

		if proposal := s.fromInsight(agentID, insight); proposal != nil {
			proposals = append(proposals, proposal)
		}
	}

	if proposal := s.fromCorrections(agentID, corrections); proposal != nil {
		proposals = append(proposals, proposal)
	}

	s.logger.Info("Proposals drafted", "agent_id", agentID, "count", len(proposals))

	return proposals
}

func (s *SelfModifier) fromInsight(agentID string, insight *models.Insight) *models.ModificationProposal {
	proposal := &models.ModificationProposal{
		ID:        uuid.New().String(),
		AgentID:   agentID,
		Status:    models.ProposalStatusPending,
		Evidence:  append([]string{insight.ID}, insight.Evidence...),
		CreatedAt: time.Now().UTC(),
	}

	// A recommendation naming a missing tool upgrades the proposal to a
	// tool addition regardless of insight type.
	for _, rec := range insight.Recommendations {
		if tool, ok := strings.CutPrefix(rec, toolRecommendationPrefix); ok {
			proposal.Type = models.ProposalToolAddition
			proposal.Rationale = fmt.Sprintf("analysis recommends adding tool %q: %s", tool, insight.Impact)
			proposal.ExpectedImpact = "fills a capability gap surfaced by failed runs"
			proposal.Change = map[string]any{"tool": tool}

			return proposal
		}
	}

	switch insight.Type {
	case models.InsightFailureSpike:
		proposal.Type = models.ProposalPromptUpdate
		proposal.Rationale = insight.Impact
		proposal.ExpectedImpact = "clearer instructions should reduce the failure rate"
		proposal.Change = map[string]any{"prompt_directive": "tighten instructions for the failing steps"}
	case models.InsightCostOutlier:
		proposal.Type = models.ProposalParameterTuning
		proposal.Rationale = insight.Impact
		proposal.ExpectedImpact = "lower token caps should pull outlier runs back to the mean"
		proposal.Change = map[string]any{"parameter": "max_tokens", "direction": "decrease"}
	case models.InsightLatencyBottleneck:
		proposal.Type = models.ProposalParameterTuning
		proposal.Rationale = insight.Impact
		proposal.ExpectedImpact = "shorter completions and tighter timeouts should cut p95 latency"
		proposal.Change = map[string]any{"parameter": "timeout_ms", "direction": "decrease"}
	default:
		return nil
	}

	return proposal
}

func (s *SelfModifier) fromCorrections(agentID string, corrections []*models.Feedback) *models.ModificationProposal {
	usable := make([]string, 0, len(corrections))

	for _, c := range corrections {
		if (c.Kind == models.FeedbackCorrection || c.Kind == models.FeedbackEdit) && c.ID != "" {
			usable = append(usable, c.ID)
		}
	}

	if len(usable) < fewShotMinCorrections {
		return nil
	}

	return &models.ModificationProposal{
		ID:             uuid.New().String(),
		AgentID:        agentID,
		Type:           models.ProposalPromptUpdate,
		Status:         models.ProposalStatusPending,
		Rationale:      fmt.Sprintf("users corrected %d recent outputs", len(usable)),
		ExpectedImpact: "embedding corrected examples should align outputs with user expectations",
		Evidence:       capList(usable, 10),
		Change:         map[string]any{"prompt_directive": "inject corrected examples as few-shot guidance"},
		CreatedAt:      time.Now().UTC(),
	}
}
