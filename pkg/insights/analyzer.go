// Package insights holds the offline feedback loop: trace analysis into
// ranked insights, feedback-driven optimization runs, and typed modification
// proposals. Everything here is batch work over historical data; nothing is
// invoked inline during an execution and nothing writes agent configuration.
package insights

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/aurelia-hq/strand/pkg/log"
	"github.com/aurelia-hq/strand/pkg/models"
)

// DataPoint is one execution's summary, typically derived from a Trace.
type DataPoint struct {
	AgentID     string
	ExecutionID string
	Label       string // workflow or task name, used for clustering
	Success     bool
	CostUSD     float64
	DurationMs  int64
	At          time.Time
}

// FromTrace flattens a completed trace into an analyzer data point.
func FromTrace(trace *models.Trace, label string) DataPoint {
	return DataPoint{
		AgentID:     trace.AgentID,
		ExecutionID: trace.ExecutionID,
		Label:       label,
		Success:     trace.Status == models.TraceStatusCompleted,
		CostUSD:     trace.Metrics.CostUSD,
		DurationMs:  trace.TotalDurationMs,
		At:          trace.StartedAt,
	}
}

// AnalyzerConfig tunes the pattern thresholds.
type AnalyzerConfig struct {
	FailureRateHigh     float64 // above this, a failure spike is high severity
	FailureRateCritical float64
	CostOutlierFactor   float64 // multiples of the mean cost
	LatencyP95Ms        int64
	ClusterMinSize      int
	ClusterSuccessRate  float64
}

func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		FailureRateHigh:     0.10,
		FailureRateCritical: 0.25,
		CostOutlierFactor:   2.0,
		LatencyP95Ms:        30_000,
		ClusterMinSize:      5,
		ClusterSuccessRate:  0.95,
	}
}

// Analyzer scans a window of execution data points for recurring patterns.
type Analyzer struct {
	config AnalyzerConfig
	logger *slog.Logger
}

func NewAnalyzer(config AnalyzerConfig) *Analyzer {
	return &Analyzer{config: config, logger: log.WithModule("insights")}
}

// Analyze emits ranked insights for the four pattern classes, sorted by
// severity descending then confidence descending. An empty window yields no
// insights.
func (a *Analyzer) Analyze(agentID string, points []DataPoint) []*models.Insight {
	if len(points) == 0 {
		return nil
	}

	found := make([]*models.Insight, 0, 4)

	if insight := a.failureSpike(agentID, points); insight != nil {
		found = append(found, insight)
	}

	found = append(found, a.successClusters(agentID, points)...)

	if insight := a.costOutliers(agentID, points); insight != nil {
		found = append(found, insight)
	}

	if insight := a.latencyBottleneck(agentID, points); insight != nil {
		found = append(found, insight)
	}

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].Severity.Rank() != found[j].Severity.Rank() {
			return found[i].Severity.Rank() > found[j].Severity.Rank()
		}

		return found[i].Confidence > found[j].Confidence
	})

	a.logger.Info("Analysis window complete",
		"agent_id", agentID, "points", len(points), "insights", len(found))

	return found
}

func (a *Analyzer) failureSpike(agentID string, points []DataPoint) *models.Insight {
	failed := make([]string, 0)

	for _, p := range points {
		if !p.Success {
			failed = append(failed, p.ExecutionID)
		}
	}

	rate := float64(len(failed)) / float64(len(points))
	if rate <= a.config.FailureRateHigh {
		return nil
	}

	severity := models.SeverityHigh
	if rate > a.config.FailureRateCritical {
		severity = models.SeverityCritical
	}

	return &models.Insight{
		ID:         uuid.New().String(),
		AgentID:    agentID,
		Type:       models.InsightFailureSpike,
		Severity:   severity,
		Confidence: sampleConfidence(len(points)),
		Impact:     fmt.Sprintf("%.0f%% of the last %d runs failed", rate*100, len(points)),
		Evidence:   capList(failed, 5),
		Recommendations: []string{
			"review recent failed traces for a shared root cause",
			"tighten node configuration validation for the failing workflow",
		},
		CreatedAt: time.Now().UTC(),
	}
}

func (a *Analyzer) successClusters(agentID string, points []DataPoint) []*models.Insight {
	byLabel := make(map[string][]DataPoint)

	for _, p := range points {
		if p.Label == "" {
			continue
		}

		byLabel[p.Label] = append(byLabel[p.Label], p)
	}

	labels := make([]string, 0, len(byLabel))
	for label := range byLabel {
		labels = append(labels, label)
	}

	sort.Strings(labels)

	clusters := make([]*models.Insight, 0)

	for _, label := range labels {
		group := byLabel[label]
		if len(group) < a.config.ClusterMinSize {
			continue
		}

		succeeded := 0

		for _, p := range group {
			if p.Success {
				succeeded++
			}
		}

		rate := float64(succeeded) / float64(len(group))
		if rate < a.config.ClusterSuccessRate {
			continue
		}

		clusters = append(clusters, &models.Insight{
			ID:         uuid.New().String(),
			AgentID:    agentID,
			Type:       models.InsightSuccessCluster,
			Severity:   models.SeverityLow,
			Confidence: sampleConfidence(len(group)),
			Impact:     fmt.Sprintf("%q succeeds in %.0f%% of %d runs", label, rate*100, len(group)),
			Evidence:   []string{label},
			Recommendations: []string{
				fmt.Sprintf("treat %q runs as a template for similar workflows", label),
			},
			CreatedAt: time.Now().UTC(),
		})
	}

	return clusters
}

func (a *Analyzer) costOutliers(agentID string, points []DataPoint) *models.Insight {
	total := 0.0
	for _, p := range points {
		total += p.CostUSD
	}

	mean := total / float64(len(points))
	if mean == 0 {
		return nil
	}

	outliers := make([]string, 0)

	for _, p := range points {
		if p.CostUSD > a.config.CostOutlierFactor*mean {
			outliers = append(outliers, p.ExecutionID)
		}
	}

	if len(outliers) == 0 {
		return nil
	}

	severity := models.SeverityMedium
	if float64(len(outliers))/float64(len(points)) > 0.2 {
		severity = models.SeverityHigh
	}

	return &models.Insight{
		ID:         uuid.New().String(),
		AgentID:    agentID,
		Type:       models.InsightCostOutlier,
		Severity:   severity,
		Confidence: sampleConfidence(len(points)),
		Impact: fmt.Sprintf("%d of %d runs cost more than %.1fx the mean ($%.4f)",
			len(outliers), len(points), a.config.CostOutlierFactor, mean),
		Evidence: capList(outliers, 5),
		Recommendations: []string{
			"cap max_tokens on the most expensive LLM nodes",
			"consider a cheaper model tier for routine runs",
		},
		CreatedAt: time.Now().UTC(),
	}
}

func (a *Analyzer) latencyBottleneck(agentID string, points []DataPoint) *models.Insight {
	durations := make([]int64, len(points))
	for i, p := range points {
		durations[i] = p.DurationMs
	}

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

	p95 := durations[(len(durations)*95)/100]
	if p95 <= a.config.LatencyP95Ms {
		return nil
	}

	severity := models.SeverityMedium
	if p95 > 2*a.config.LatencyP95Ms {
		severity = models.SeverityHigh
	}

	return &models.Insight{
		ID:         uuid.New().String(),
		AgentID:    agentID,
		Type:       models.InsightLatencyBottleneck,
		Severity:   severity,
		Confidence: sampleConfidence(len(points)),
		Impact:     fmt.Sprintf("p95 run latency is %dms against a %dms target", p95, a.config.LatencyP95Ms),
		Recommendations: []string{
			"profile the slowest traces for long-running tool calls",
		},
		CreatedAt: time.Now().UTC(),
	}
}

// sampleConfidence grows with window size and saturates at 50 points.
func sampleConfidence(n int) float64 {
	c := float64(n) / 50.0
	if c > 1 {
		return 1
	}

	return c
}

func capList(items []string, limit int) []string {
	if len(items) <= limit {
		return items
	}

	return items[:limit]
}
