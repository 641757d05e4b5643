// Package autosched repairs a project schedule: it clears pins that
// contradict their dependencies, re-derives dates from the critical
// path method, and levels resource over-allocation by delaying
// non-critical work. The policy is minimal total shift: critical-path
// tasks are never delayed, and any change that would introduce a new
// constraint violation is rolled back. Conflicts that cannot be
// resolved are reported, never dropped.
package autosched

import (
	"sort"
	"time"

	"github.com/vkmindia80/critpath/internal/conflict"
	"github.com/vkmindia80/critpath/internal/cpm"
	"github.com/vkmindia80/critpath/internal/graph"
)

// Moved records one task whose dates changed.
type Moved struct {
	TaskID    string    `json:"task_id"`
	OldStart  time.Time `json:"old_start"`
	OldFinish time.Time `json:"old_finish"`
	NewStart  time.Time `json:"new_start"`
	NewFinish time.Time `json:"new_finish"`
}

// Result is the auto-scheduler's report: what moved, how many conflicts
// were eliminated, and which remain.
type Result struct {
	UpdatedTasks        []Moved             `json:"updated_tasks"`
	ConflictsResolved   int                 `json:"conflicts_resolved"`
	UnresolvedConflicts []conflict.Conflict `json:"unresolved_conflicts"`

	// Tasks is the new snapshot; the input graph is never mutated.
	Tasks  []*graph.Task
	Timing *cpm.Result
}

// levelingHorizonDays bounds how far a task may be pushed looking for
// spare capacity before the conflict is declared unresolved.
const levelingHorizonDays = 366

const minutesPerDay = 24 * 60

// Reschedule produces a new constraint-satisfying snapshot from the
// given graph, timing, and detected conflicts. It operates on copies
// throughout; the caller's graph is left untouched.
func Reschedule(g *graph.Graph, timing *cpm.Result, conflicts []conflict.Conflict, caps conflict.Capacity, opts cpm.Options) (*Result, error) {
	work := cloneTasks(g)

	// Step 1: unpin every task flagged in a constraint violation. Their
	// dates fall back to the CPM-derived earliest start/finish.
	unpinViolated(work, conflicts)

	wg, _, err := graph.Build(taskSlice(work, g.Sequence), g.Edges, g.Unit)
	if err != nil {
		return nil, err
	}
	cur, err := cpm.Compute(wg, opts)
	if err != nil {
		return nil, err
	}
	applyTiming(work, wg, cur)

	// Step 2: level over-allocated resources, worst first. Leveled tasks
	// are pinned at their delayed start while computing so the forward
	// pass respects the delay; they are reported as auto-scheduled in
	// the output since the scheduler owns their dates now.
	leveled := make(map[string]bool)
	overalloc := overallocConflicts(wg, cur, caps)
	sort.SliceStable(overalloc, func(i, j int) bool {
		return overalloc[i].Severity.Rank() > overalloc[j].Severity.Rank()
	})

	var unresolved []conflict.Conflict
	for _, oc := range overalloc {
		remaining := overallocConflicts(wg, cur, caps)
		if !containsConflict(remaining, oc) {
			continue // an earlier move already cleared it
		}

		id := pickDelayCandidate(g, wg, cur, oc, leveled)
		if id == "" {
			// Only critical or pinned tasks share this overload; delaying
			// them would extend the project or break a pin.
			unresolved = append(unresolved, oc)
			continue
		}

		moved, ng, nc := tryDelay(work, g, wg, cur, id, oc, caps, opts)
		if !moved {
			unresolved = append(unresolved, oc)
			continue
		}
		leveled[id] = true
		wg, cur = ng, nc
		applyTiming(work, wg, cur)
	}

	// Any constraint violation still present after unpinning is
	// unresolvable here (e.g. contradictory pins the caller must sort out).
	final := conflict.Detect(wg, cur, caps, nil)
	for _, c := range final {
		if c.Kind == conflict.KindConstraintViolation && !containsConflict(unresolved, c) {
			unresolved = append(unresolved, c)
		}
	}

	res := &Result{
		UnresolvedConflicts: conflict.Dedupe(unresolved),
		Tasks:               taskSlice(work, g.Sequence),
		Timing:              cur,
	}

	// Leveled tasks carry scheduler-owned dates now.
	for id := range leveled {
		work[id].AutoScheduled = true
	}

	res.UpdatedTasks = diffTasks(g, work)
	res.ConflictsResolved = countResolved(conflicts, res.UnresolvedConflicts)
	return res, nil
}

// unpinViolated flips auto_scheduled on for every pinned task named in
// a constraint violation conflict.
func unpinViolated(work map[string]*graph.Task, conflicts []conflict.Conflict) {
	for _, c := range conflicts {
		if c.Kind != conflict.KindConstraintViolation {
			continue
		}
		for _, id := range c.TaskIDs {
			if t, ok := work[id]; ok && t.Pinned() {
				t.AutoScheduled = true
			}
		}
	}
}

// applyTiming writes computed dates back onto the working snapshot.
// User pins keep their own dates; everything else takes the CPM values.
func applyTiming(work map[string]*graph.Task, g *graph.Graph, timing *cpm.Result) {
	for id, t := range work {
		if t.Pinned() && !t.StartDate.IsZero() && !t.IsSummary {
			if t.FinishDate.IsZero() {
				t.FinishDate = cpm.FromMinutes(cpm.ToMinutes(t.StartDate) + g.DurationMinutes(id))
			}
			continue
		}
		t.StartDate = cpm.FromMinutes(timing.StartOf(id))
		t.FinishDate = cpm.FromMinutes(timing.FinishOf(id))
	}
}

// overallocConflicts detects just the resource conflicts for the
// current working state.
func overallocConflicts(g *graph.Graph, timing *cpm.Result, caps conflict.Capacity) []conflict.Conflict {
	var out []conflict.Conflict
	for _, c := range conflict.Detect(g, timing, caps, nil) {
		if c.Kind == conflict.KindResourceOverallocation {
			out = append(out, c)
		}
	}
	return out
}

// pickDelayCandidate chooses which task absorbs the delay: the lowest
// priority non-critical task that the user has not pinned. Ties break
// toward the most slack, then lexical id for determinism. orig supplies
// the user's pin state; leveling pins do not disqualify a task from
// further delays.
func pickDelayCandidate(orig, g *graph.Graph, timing *cpm.Result, c conflict.Conflict, leveled map[string]bool) string {
	best := ""
	bestRank := 0
	var bestSlack int64
	for _, id := range c.TaskIDs {
		t := g.Tasks[id]
		ot := orig.Tasks[id]
		if t == nil || ot == nil || t.IsSummary {
			continue
		}
		if ot.Pinned() && !leveled[id] {
			continue
		}
		ti := timing.Tasks[id]
		if ti == nil || ti.IsCritical {
			continue
		}
		rank := t.PriorityRank()
		if best == "" || rank < bestRank ||
			(rank == bestRank && ti.Slack > bestSlack) ||
			(rank == bestRank && ti.Slack == bestSlack && id < best) {
			best, bestRank, bestSlack = id, rank, ti.Slack
		}
	}
	return best
}

// tryDelay pushes a task day by day until the targeted conflict clears,
// verifying after each candidate that no new constraint violation
// appeared. Returns the new graph and timing on success; on failure the
// working snapshot is restored and nothing changes.
func tryDelay(work map[string]*graph.Task, orig, g *graph.Graph, timing *cpm.Result, id string, target conflict.Conflict, caps conflict.Capacity, opts cpm.Options) (bool, *graph.Graph, *cpm.Result) {
	t := work[id]
	savedStart, savedFinish, savedAuto := t.StartDate, t.FinishDate, t.AutoScheduled

	baseViolations := violationSet(g, timing, caps)
	startDay := timing.StartOf(id) / minutesPerDay

	for delta := int64(1); delta <= levelingHorizonDays; delta++ {
		candidate := (startDay + delta) * minutesPerDay
		// Respect the task's own dependency floor.
		if floor := dependencyFloor(g, timing, id); candidate < floor {
			continue
		}
		t.StartDate = cpm.FromMinutes(candidate)
		t.FinishDate = cpm.FromMinutes(candidate + g.DurationMinutes(id))
		t.AutoScheduled = false // pin for the recompute

		ng, _, err := graph.Build(taskSlice(work, orig.Sequence), orig.Edges, orig.Unit)
		if err != nil {
			break
		}
		nc, err := cpm.Compute(ng, opts)
		if err != nil {
			break
		}

		// Rolled back if the move manufactured a new violation.
		if hasNewViolation(baseViolations, ng, nc, caps) {
			continue
		}
		if containsConflict(overallocConflicts(ng, nc, caps), target) {
			continue // still overloaded; push further
		}
		return true, ng, nc
	}

	t.StartDate, t.FinishDate, t.AutoScheduled = savedStart, savedFinish, savedAuto
	return false, nil, nil
}

// dependencyFloor is the earliest start the task's incoming edges allow.
func dependencyFloor(g *graph.Graph, timing *cpm.Result, id string) int64 {
	return timing.StartOf(id)
}

func violationSet(g *graph.Graph, timing *cpm.Result, caps conflict.Capacity) map[string]bool {
	set := make(map[string]bool)
	for _, c := range conflict.Detect(g, timing, caps, nil) {
		if c.Kind == conflict.KindConstraintViolation {
			set[conflictKey(c)] = true
		}
	}
	return set
}

func hasNewViolation(base map[string]bool, g *graph.Graph, timing *cpm.Result, caps conflict.Capacity) bool {
	for _, c := range conflict.Detect(g, timing, caps, nil) {
		if c.Kind == conflict.KindConstraintViolation && !base[conflictKey(c)] {
			return true
		}
	}
	return len(timing.Violations) > 0
}

func conflictKey(c conflict.Conflict) string {
	key := string(c.Kind)
	for _, id := range c.TaskIDs {
		key += "|" + id
	}
	return key
}

func containsConflict(list []conflict.Conflict, c conflict.Conflict) bool {
	want := conflictKey(c)
	for _, x := range list {
		if conflictKey(x) == want {
			return true
		}
	}
	return false
}

// cloneTasks deep-copies the graph's tasks into a working map.
func cloneTasks(g *graph.Graph) map[string]*graph.Task {
	out := make(map[string]*graph.Task, g.Len())
	for id, t := range g.Tasks {
		c := *t
		c.AssigneeIDs = append([]string(nil), t.AssigneeIDs...)
		out[id] = &c
	}
	return out
}

// taskSlice re-materializes the working map in the original sequence
// order, which summary rollups depend on.
func taskSlice(work map[string]*graph.Task, sequence []string) []*graph.Task {
	out := make([]*graph.Task, 0, len(work))
	for _, id := range sequence {
		if t, ok := work[id]; ok {
			out = append(out, t)
		}
	}
	return out
}

// diffTasks reports every task whose dates moved, in sequence order.
func diffTasks(orig *graph.Graph, work map[string]*graph.Task) []Moved {
	var moved []Moved
	for _, id := range orig.Sequence {
		before := orig.Tasks[id]
		after := work[id]
		if after == nil {
			continue
		}
		if before.StartDate.Equal(after.StartDate) && before.FinishDate.Equal(after.FinishDate) {
			continue
		}
		moved = append(moved, Moved{
			TaskID:    id,
			OldStart:  before.StartDate,
			OldFinish: before.FinishDate,
			NewStart:  after.StartDate,
			NewFinish: after.FinishDate,
		})
	}
	return moved
}

// countResolved counts input conflicts that no longer appear in the
// unresolved set. Cycle conflicts never reach the auto-scheduler; a
// cyclic graph is rejected before any scheduling runs.
func countResolved(initial, unresolved []conflict.Conflict) int {
	resolved := 0
	for _, c := range initial {
		if c.Kind == conflict.KindCycle {
			continue
		}
		if !containsConflict(unresolved, c) {
			resolved++
		}
	}
	return resolved
}
