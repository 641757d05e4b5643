// Package conflict finds scheduling problems in a computed project
// timeline: resources booked past their daily capacity, pinned dates
// that contradict a dependency constraint, and dependency cycles
// formatted for uniform consumption. Detection never mutates its
// inputs and never blocks the timing computation: conflicts are
// findings, not failures.
package conflict

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vkmindia80/critpath/internal/cpm"
	"github.com/vkmindia80/critpath/internal/graph"
)

// Kind tags what category of problem a conflict describes.
type Kind string

const (
	KindCycle                  Kind = "cycle"
	KindResourceOverallocation Kind = "resource_overallocation"
	KindConstraintViolation    Kind = "constraint_violation"
)

// Severity grades how urgent a conflict is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank orders severities for comparison; higher is worse.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

// Conflict is a single detected problem. Message is generated from the
// conflict's data, never stored as free text elsewhere.
type Conflict struct {
	Kind       Kind     `json:"kind"`
	Severity   Severity `json:"severity"`
	TaskIDs    []string `json:"task_ids"`
	ResourceID string   `json:"resource_id,omitempty"`
	Message    string   `json:"message"`
}

// DefaultDailyHours is the capacity assumed for a resource with no
// explicit entry.
const DefaultDailyHours = 8.0

// Capacity maps a resource id to its available hours per day.
type Capacity map[string]float64

// HoursPerDay returns the capacity for a resource, defaulting to
// DefaultDailyHours.
func (c Capacity) HoursPerDay(resource string) float64 {
	if c != nil {
		if h, ok := c[resource]; ok && h > 0 {
			return h
		}
	}
	return DefaultDailyHours
}

// AllocationCurve returns the fraction of a task's total hours assigned
// to a given day of its span. dayOffset counts from the task's first
// day; spanDays is the total span. Fractions should sum to 1 across the
// span. A nil curve splits evenly.
type AllocationCurve func(taskID string, dayOffset, spanDays int) float64

// evenSplit is the default proration policy.
func evenSplit(_ string, _, spanDays int) float64 {
	return 1.0 / float64(spanDays)
}

const minutesPerDay = 24 * 60

// Detect runs all conflict passes against a computed timing and returns
// the deduplicated findings. Conflicts are keyed by (kind, sorted task
// ids); duplicates keep the worst severity.
func Detect(g *graph.Graph, timing *cpm.Result, caps Capacity, curve AllocationCurve) []Conflict {
	var found []Conflict
	found = append(found, detectOverallocation(g, timing, caps, curve)...)
	found = append(found, detectViolations(g, timing)...)
	return Dedupe(found)
}

// FromCycle formats a detected dependency cycle as a Conflict so
// callers consume every problem through one shape.
func FromCycle(cycle []string) Conflict {
	ids := append([]string(nil), cycle...)
	sort.Strings(ids)
	return Conflict{
		Kind:     KindCycle,
		Severity: SeverityCritical,
		TaskIDs:  ids,
		Message:  fmt.Sprintf("dependency cycle: %s", strings.Join(cycle, " -> ")),
	}
}

// detectOverallocation sums each resource's assigned hours per day.
// Task hours are prorated across the task's scheduled span (evenly,
// unless a curve says otherwise); a day whose total exceeds capacity
// produces a conflict graded by the overage ratio.
func detectOverallocation(g *graph.Graph, timing *cpm.Result, caps Capacity, curve AllocationCurve) []Conflict {
	if curve == nil {
		curve = evenSplit
	}

	type dayLoad struct {
		hours float64
		tasks map[string]bool
	}
	// resource -> day index -> load
	loads := make(map[string]map[int64]*dayLoad)

	for _, id := range g.TaskIDs() {
		t := g.Tasks[id]
		if len(t.AssigneeIDs) == 0 || t.IsSummary {
			continue
		}
		hours := float64(g.DurationMinutes(id)) / 60
		if hours <= 0 {
			continue
		}
		start := timing.StartOf(id)
		finish := timing.FinishOf(id)
		startDay := start / minutesPerDay
		span := int((finish - start + minutesPerDay - 1) / minutesPerDay)
		if span < 1 {
			span = 1
		}

		for offset := 0; offset < span; offset++ {
			dayHours := hours * curve(id, offset, span)
			day := startDay + int64(offset)
			for _, res := range t.AssigneeIDs {
				if loads[res] == nil {
					loads[res] = make(map[int64]*dayLoad)
				}
				if loads[res][day] == nil {
					loads[res][day] = &dayLoad{tasks: make(map[string]bool)}
				}
				loads[res][day].hours += dayHours
				loads[res][day].tasks[id] = true
			}
		}
	}

	var conflicts []Conflict
	resources := make([]string, 0, len(loads))
	for res := range loads {
		resources = append(resources, res)
	}
	sort.Strings(resources)

	for _, res := range resources {
		cap := caps.HoursPerDay(res)
		days := make([]int64, 0, len(loads[res]))
		for d := range loads[res] {
			days = append(days, d)
		}
		sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

		for _, day := range days {
			load := loads[res][day]
			if load.hours <= cap {
				continue
			}
			ids := make([]string, 0, len(load.tasks))
			for id := range load.tasks {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			date := cpm.FromMinutes(day * minutesPerDay).Format("2006-01-02")
			conflicts = append(conflicts, Conflict{
				Kind:       KindResourceOverallocation,
				Severity:   overallocationSeverity(load.hours / cap),
				TaskIDs:    ids,
				ResourceID: res,
				Message: fmt.Sprintf("resource %s over-allocated on %s: %.1fh assigned, %.1fh capacity",
					res, date, load.hours, cap),
			})
		}
	}
	return conflicts
}

// overallocationSeverity grades the overage ratio. Bounds are
// exclusive: exactly 150% is high, not critical.
func overallocationSeverity(ratio float64) Severity {
	switch {
	case ratio > 1.5:
		return SeverityCritical
	case ratio > 1.25:
		return SeverityHigh
	default:
		return SeverityMedium
	}
}

// detectViolations checks every edge's dependency formula against the
// snapshot's stored dates. A violated edge is a conflict only when a
// pinned task sits on at least one end; stale auto-scheduled dates are
// simply recomputed, not reported.
func detectViolations(g *graph.Graph, timing *cpm.Result) []Conflict {
	var conflicts []Conflict
	for _, e := range g.Edges {
		pred := g.Tasks[e.PredecessorID]
		succ := g.Tasks[e.SuccessorID]
		if !pred.Pinned() && !succ.Pinned() {
			continue
		}
		if pred.StartDate.IsZero() || succ.StartDate.IsZero() {
			continue
		}
		if violated(g, e) {
			conflicts = append(conflicts, violationConflict(e))
		}
	}

	// Pin floors the forward pass could not honor.
	for _, v := range timing.Violations {
		e := graph.Edge{PredecessorID: v.PredecessorID, SuccessorID: v.SuccessorID, Type: graph.FinishToStart}
		conflicts = append(conflicts, violationConflict(e))
	}
	return conflicts
}

// violated evaluates an edge's constraint formula against the stored
// start/finish dates of its endpoints.
func violated(g *graph.Graph, e graph.Edge) bool {
	predStart, predFinish := storedWindow(g, e.PredecessorID)
	succStart, succFinish := storedWindow(g, e.SuccessorID)
	lag := e.LagMinutes()

	switch e.Type {
	case graph.StartToStart:
		return succStart < predStart+lag
	case graph.FinishToFinish:
		return succFinish < predFinish+lag
	case graph.StartToFinish:
		return succFinish < predStart+lag
	default: // finish-to-start
		return succStart < predFinish+lag
	}
}

// storedWindow returns a task's snapshot dates in minutes, deriving the
// finish from duration when it is absent.
func storedWindow(g *graph.Graph, id string) (start, finish int64) {
	t := g.Tasks[id]
	start = cpm.ToMinutes(t.StartDate)
	if t.FinishDate.IsZero() {
		finish = start + g.DurationMinutes(id)
	} else {
		finish = cpm.ToMinutes(t.FinishDate)
	}
	return start, finish
}

func violationConflict(e graph.Edge) Conflict {
	ids := []string{e.PredecessorID, e.SuccessorID}
	sort.Strings(ids)
	return Conflict{
		Kind:     KindConstraintViolation,
		Severity: SeverityHigh,
		TaskIDs:  ids,
		Message: fmt.Sprintf("%s dependency %s -> %s is not satisfied by the current dates",
			e.Type, e.PredecessorID, e.SuccessorID),
	}
}

// Dedupe collapses conflicts sharing (kind, sorted task ids), keeping
// the worst severity, and returns them in a stable order.
func Dedupe(conflicts []Conflict) []Conflict {
	byKey := make(map[string]Conflict)
	var keys []string
	for _, c := range conflicts {
		ids := append([]string(nil), c.TaskIDs...)
		sort.Strings(ids)
		c.TaskIDs = ids
		key := string(c.Kind) + "|" + strings.Join(ids, ",")
		if prev, ok := byKey[key]; ok {
			if c.Severity.Rank() > prev.Severity.Rank() {
				byKey[key] = c
			}
			continue
		}
		byKey[key] = c
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make([]Conflict, 0, len(keys))
	for _, key := range keys {
		out = append(out, byKey[key])
	}
	return out
}
