package graph

import (
	"fmt"
	"strings"
	"time"
)

// DepType is one of the four dependency constraint types between a
// predecessor and a successor task.
type DepType string

const (
	FinishToStart  DepType = "FS"
	StartToStart   DepType = "SS"
	FinishToFinish DepType = "FF"
	StartToFinish  DepType = "SF"
)

// longNames maps each code to its legacy long-form name. The mapping is
// total and lossless in both directions: every code has exactly one long
// name and vice versa.
var longNames = map[DepType]string{
	FinishToStart:  "finish_to_start",
	StartToStart:   "start_to_start",
	FinishToFinish: "finish_to_finish",
	StartToFinish:  "start_to_finish",
}

// ParseDepType normalizes a dependency type received over the boundary.
// It accepts the two-letter codes (any case) and the legacy long-form
// names. Codes are always emitted on output.
func ParseDepType(s string) (DepType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FS", "FINISH_TO_START":
		return FinishToStart, nil
	case "SS", "START_TO_START":
		return StartToStart, nil
	case "FF", "FINISH_TO_FINISH":
		return FinishToFinish, nil
	case "SF", "START_TO_FINISH":
		return StartToFinish, nil
	}
	return "", fmt.Errorf("unknown dependency type %q", s)
}

// LongName returns the legacy long-form name for the code.
func (d DepType) LongName() string {
	return longNames[d]
}

func (d DepType) String() string { return string(d) }

// Unit is the time unit a project measures durations and lags in.
type Unit string

const (
	UnitHours Unit = "hours"
	UnitDays  Unit = "days"
)

// Minutes converts a quantity in this unit to internal minutes. The
// engine works on a continuous timeline: one day is 24 hours.
func (u Unit) Minutes(n float64) int64 {
	switch u {
	case UnitDays:
		return int64(n * 24 * 60)
	default:
		return int64(n * 60)
	}
}

// ParseUnit normalizes a unit string, defaulting to hours.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "hours", "hour", "h":
		return UnitHours, nil
	case "days", "day", "d":
		return UnitDays, nil
	}
	return "", fmt.Errorf("unknown time unit %q", s)
}

// Task is a node in the project dependency graph.
type Task struct {
	ID              string    `json:"id"`
	ProjectID       string    `json:"project_id"`
	Name            string    `json:"name"`
	Duration        float64   `json:"duration"` // in the project unit; 0 for milestones
	StartDate       time.Time `json:"start_date"`
	FinishDate      time.Time `json:"finish_date"`
	PercentComplete float64   `json:"percent_complete"`
	OutlineLevel    int       `json:"outline_level"`
	IsSummary       bool      `json:"is_summary"`
	IsMilestone     bool      `json:"is_milestone"`
	Priority        string    `json:"priority,omitempty"` // high, medium, low
	AssigneeIDs     []string  `json:"assignee_ids,omitempty"`
	AutoScheduled   bool      `json:"auto_scheduled"`
}

// Pinned reports whether the task's dates were set manually rather than
// by the auto-scheduler. Pinned dates are never moved silently.
func (t *Task) Pinned() bool { return !t.AutoScheduled }

// PriorityRank maps the priority label to an ordering value. Higher
// means more important; unknown labels rank as medium.
func (t *Task) PriorityRank() int {
	switch t.Priority {
	case "high":
		return 2
	case "low":
		return 0
	default:
		return 1
	}
}

// Edge is a directed timing constraint from a predecessor to a successor.
type Edge struct {
	PredecessorID string  `json:"predecessor_id"`
	SuccessorID   string  `json:"successor_id"`
	Type          DepType `json:"type"`
	Lag           float64 `json:"lag"`
	LagUnit       Unit    `json:"lag_unit"`
}

// LagMinutes returns the signed lag converted to internal minutes.
func (e Edge) LagMinutes() int64 {
	return e.LagUnit.Minutes(e.Lag)
}
