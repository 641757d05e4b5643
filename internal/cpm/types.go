package cpm

import "time"

// Timing holds the computed schedule for a single task. All instants
// are minutes since the Unix epoch on a continuous timeline.
type Timing struct {
	TaskID         string `json:"task_id"`
	EarliestStart  int64  `json:"earliest_start"`
	EarliestFinish int64  `json:"earliest_finish"`
	LatestStart    int64  `json:"latest_start"`
	LatestFinish   int64  `json:"latest_finish"`
	Slack          int64  `json:"slack"`
	IsCritical     bool   `json:"is_critical"`
}

// Violation records a pinned task whose dates contradict a dependency
// constraint. The pin is kept; the contradiction is surfaced instead of
// silently overridden.
type Violation struct {
	PredecessorID string
	SuccessorID   string
	Required      int64 // minutes: earliest start the dependency demands
	Actual        int64 // minutes: the pinned start that falls short
}

// Result is the full output of one critical-path computation.
type Result struct {
	Tasks         map[string]*Timing
	Order         []string // topological order used by the passes
	CriticalPath  []string // zero-slack tasks in topological order
	ProjectStart  int64
	ProjectFinish int64
	Violations    []Violation
}

// Rows returns the per-task timings in topological order.
func (r *Result) Rows() []Timing {
	rows := make([]Timing, 0, len(r.Order))
	for _, id := range r.Order {
		if t, ok := r.Tasks[id]; ok {
			rows = append(rows, *t)
		}
	}
	return rows
}

// StartOf returns the scheduled start of a task in minutes.
func (r *Result) StartOf(id string) int64 {
	if t, ok := r.Tasks[id]; ok {
		return t.EarliestStart
	}
	return 0
}

// FinishOf returns the scheduled finish of a task in minutes.
func (r *Result) FinishOf(id string) int64 {
	if t, ok := r.Tasks[id]; ok {
		return t.EarliestFinish
	}
	return 0
}

// Options control a computation. A zero ProjectStart falls back to the
// earliest date present in the snapshot; a zero Deadline means the
// project finish is the latest earliest-finish.
type Options struct {
	ProjectStart time.Time
	Deadline     time.Time
}

// ToMinutes converts an instant to the engine's internal unit.
func ToMinutes(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix() / 60
}

// FromMinutes converts internal minutes back to a UTC instant.
func FromMinutes(m int64) time.Time {
	return time.Unix(m*60, 0).UTC()
}
