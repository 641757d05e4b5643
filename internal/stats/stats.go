// Package stats derives dashboard-level numbers from a computed
// schedule: completion rate, overdue count, and a composite timeline
// health score. The health weighting is a policy choice, not a law;
// it is configurable and defaults to 40/30/30.
package stats

import (
	"time"

	"github.com/vkmindia80/critpath/internal/conflict"
	"github.com/vkmindia80/critpath/internal/graph"
)

// Weights control the timeline health blend. They should sum to 1; the
// score is clamped to [0,100] regardless.
type Weights struct {
	Overdue   float64 `yaml:"overdue" json:"overdue"`
	Conflicts float64 `yaml:"conflicts" json:"conflicts"`
	OnTime    float64 `yaml:"on_time" json:"on_time"`
}

// DefaultWeights is the 40/30/30 blend.
func DefaultWeights() Weights {
	return Weights{Overdue: 0.40, Conflicts: 0.30, OnTime: 0.30}
}

// Stats is the aggregator's output.
type Stats struct {
	TotalTasks          int     `json:"total_tasks"`
	CompletedTasks      int     `json:"completed_tasks"`
	CompletionRate      float64 `json:"completion_rate"` // duration-weighted, 0-100
	OverdueCount        int     `json:"overdue_count"`
	CriticalConflicts   int     `json:"critical_conflicts"`
	TimelineHealthScore float64 `json:"timeline_health_score"` // 0-100
}

// Summarize computes project stats as of now. Summary tasks are
// excluded from the tallies; their numbers are rollups of what is
// already being counted.
func Summarize(g *graph.Graph, conflicts []conflict.Conflict, weights Weights, now time.Time) Stats {
	var s Stats
	var totalDur, weightedDone float64

	for _, id := range g.Sequence {
		t := g.Tasks[id]
		if t.IsSummary {
			continue
		}
		s.TotalTasks++
		dur := t.Duration
		if t.IsMilestone {
			dur = 0
		}
		totalDur += dur
		weightedDone += dur * t.PercentComplete / 100

		if t.PercentComplete >= 100 {
			s.CompletedTasks++
		} else if !t.FinishDate.IsZero() && t.FinishDate.Before(now) {
			s.OverdueCount++
		}
	}

	if totalDur > 0 {
		s.CompletionRate = weightedDone / totalDur * 100
	}

	for _, c := range conflicts {
		if c.Severity == conflict.SeverityCritical {
			s.CriticalConflicts++
		}
	}

	s.TimelineHealthScore = healthScore(&s, len(conflicts), weights)
	return s
}

// healthScore blends three ratios: how little is overdue, how free of
// critical conflicts the schedule is, and how much completed work
// landed on time. on_time_completion_ratio is completed/(completed +
// overdue), taken as 1 when that denominator is zero.
func healthScore(s *Stats, totalConflicts int, w Weights) float64 {
	if s.TotalTasks == 0 {
		return 100
	}

	overdueRatio := float64(s.OverdueCount) / float64(s.TotalTasks)

	criticalRatio := 0.0
	if totalConflicts > 0 {
		criticalRatio = float64(s.CriticalConflicts) / float64(totalConflicts)
	}

	onTime := 1.0
	if s.CompletedTasks+s.OverdueCount > 0 {
		onTime = float64(s.CompletedTasks) / float64(s.CompletedTasks+s.OverdueCount)
	}

	score := 100 * (w.Overdue*(1-overdueRatio) + w.Conflicts*(1-criticalRatio) + w.OnTime*onTime)
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
