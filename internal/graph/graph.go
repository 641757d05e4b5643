// Package graph models a single project's task dependency graph: typed
// tasks and edges, structural validation, bidirectional adjacency, and
// cycle detection. A built Graph is immutable; every scheduling pass
// downstream treats it as a read-only snapshot.
package graph

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel kinds for validation failures. Callers branch on these with
// errors.Is rather than matching message text.
var (
	ErrUnknownTask   = errors.New("unknown task reference")
	ErrSelfLoop      = errors.New("self-referencing dependency")
	ErrDuplicateEdge = errors.New("duplicate dependency")
	ErrBadDuration   = errors.New("non-positive duration")
	ErrBadPercent    = errors.New("percent complete out of range")
	ErrDuplicateTask = errors.New("duplicate task id")
)

// ValidationError is a single structural defect found while building a
// graph. Kind is one of the sentinel errors above; TaskIDs names the
// offending tasks.
type ValidationError struct {
	Kind    error
	TaskIDs []string
	Msg     string
}

func (e *ValidationError) Error() string {
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *ValidationError) Unwrap() error { return e.Kind }

// ValidationErrors aggregates every defect found in one Build pass, so
// a caller can fix all of them in a single round trip.
type ValidationErrors []*ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

func (v ValidationErrors) Unwrap() []error {
	errs := make([]error, len(v))
	for i, e := range v {
		errs[i] = e
	}
	return errs
}

// Warning is a non-fatal finding: the graph is still usable, but the
// caller may want to surface it.
type Warning struct {
	TaskID string
	Msg    string
}

// durationWarnLimit is the "typical range" ceiling: a single task longer
// than a year of continuous time is almost certainly a data entry error.
const durationWarnLimitMins = 365 * 24 * 60

// Graph is an immutable snapshot of a project's tasks and dependencies
// with adjacency prebuilt in both directions.
type Graph struct {
	Unit  Unit
	Tasks map[string]*Task
	Edges []Edge

	// Sequence preserves the caller's task order; summary rollups depend
	// on outline position, so insertion order is part of the model.
	Sequence []string

	// succ and pred map a task id to indices into Edges.
	succ map[string][]int
	pred map[string][]int
}

// Build validates the snapshot and constructs a Graph. Fatal defects
// (unknown references, self-loops, duplicates, non-positive durations)
// reject the whole snapshot; nothing is partially processed. Non-fatal
// findings come back as warnings alongside a usable graph.
func Build(tasks []*Task, edges []Edge, unit Unit) (*Graph, []Warning, error) {
	g := &Graph{
		Unit:  unit,
		Tasks: make(map[string]*Task, len(tasks)),
		succ:  make(map[string][]int),
		pred:  make(map[string][]int),
	}
	var verrs ValidationErrors
	var warnings []Warning

	for _, t := range tasks {
		if _, dup := g.Tasks[t.ID]; dup {
			verrs = append(verrs, &ValidationError{
				Kind:    ErrDuplicateTask,
				TaskIDs: []string{t.ID},
				Msg:     fmt.Sprintf("task %q appears twice", t.ID),
			})
			continue
		}
		g.Tasks[t.ID] = t
		g.Sequence = append(g.Sequence, t.ID)

		// Milestones read as zero-length via DurationMinutes; the
		// caller's value is left untouched.
		if !t.IsMilestone && !t.IsSummary && t.Duration <= 0 {
			verrs = append(verrs, &ValidationError{
				Kind:    ErrBadDuration,
				TaskIDs: []string{t.ID},
				Msg:     fmt.Sprintf("task %q has duration %v", t.ID, t.Duration),
			})
		}
		if t.PercentComplete < 0 || t.PercentComplete > 100 {
			verrs = append(verrs, &ValidationError{
				Kind:    ErrBadPercent,
				TaskIDs: []string{t.ID},
				Msg:     fmt.Sprintf("task %q has percent_complete %v", t.ID, t.PercentComplete),
			})
		}
		if !t.IsSummary && unit.Minutes(t.Duration) > durationWarnLimitMins {
			warnings = append(warnings, Warning{
				TaskID: t.ID,
				Msg:    "duration exceeds typical range",
			})
		}
	}

	seen := make(map[string]bool, len(edges))
	for _, e := range edges {
		if e.PredecessorID == e.SuccessorID {
			verrs = append(verrs, &ValidationError{
				Kind:    ErrSelfLoop,
				TaskIDs: []string{e.PredecessorID},
				Msg:     fmt.Sprintf("task %q depends on itself", e.PredecessorID),
			})
			continue
		}
		missing := false
		for _, id := range []string{e.PredecessorID, e.SuccessorID} {
			if _, ok := g.Tasks[id]; !ok {
				verrs = append(verrs, &ValidationError{
					Kind:    ErrUnknownTask,
					TaskIDs: []string{id},
					Msg:     fmt.Sprintf("dependency references unknown task %q", id),
				})
				missing = true
			}
		}
		if missing {
			continue
		}
		key := e.PredecessorID + "\x00" + e.SuccessorID + "\x00" + string(e.Type)
		if seen[key] {
			verrs = append(verrs, &ValidationError{
				Kind:    ErrDuplicateEdge,
				TaskIDs: []string{e.PredecessorID, e.SuccessorID},
				Msg:     fmt.Sprintf("duplicate %s dependency %s -> %s", e.Type, e.PredecessorID, e.SuccessorID),
			})
			continue
		}
		seen[key] = true

		idx := len(g.Edges)
		g.Edges = append(g.Edges, e)
		g.succ[e.PredecessorID] = append(g.succ[e.PredecessorID], idx)
		g.pred[e.SuccessorID] = append(g.pred[e.SuccessorID], idx)
	}

	if len(verrs) > 0 {
		return nil, warnings, verrs
	}
	return g, warnings, nil
}

// TaskIDs returns all task ids sorted alphabetically.
func (g *Graph) TaskIDs() []string {
	ids := make([]string, 0, len(g.Tasks))
	for id := range g.Tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of tasks in the graph.
func (g *Graph) Len() int { return len(g.Tasks) }

// Incoming returns the edges whose successor is id.
func (g *Graph) Incoming(id string) []Edge {
	return g.edgesAt(g.pred[id])
}

// Outgoing returns the edges whose predecessor is id.
func (g *Graph) Outgoing(id string) []Edge {
	return g.edgesAt(g.succ[id])
}

func (g *Graph) edgesAt(idxs []int) []Edge {
	if len(idxs) == 0 {
		return nil
	}
	out := make([]Edge, len(idxs))
	for i, idx := range idxs {
		out[i] = g.Edges[idx]
	}
	return out
}

// Successors returns the distinct successor ids of id, sorted.
func (g *Graph) Successors(id string) []string {
	return g.neighborIDs(g.succ[id], false)
}

// Predecessors returns the distinct predecessor ids of id, sorted.
func (g *Graph) Predecessors(id string) []string {
	return g.neighborIDs(g.pred[id], true)
}

func (g *Graph) neighborIDs(idxs []int, predecessor bool) []string {
	set := make(map[string]bool, len(idxs))
	for _, idx := range idxs {
		e := g.Edges[idx]
		if predecessor {
			set[e.PredecessorID] = true
		} else {
			set[e.SuccessorID] = true
		}
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DurationMinutes returns the task's duration converted to internal
// minutes. Milestones are always zero.
func (g *Graph) DurationMinutes(id string) int64 {
	t := g.Tasks[id]
	if t == nil || t.IsMilestone {
		return 0
	}
	return g.Unit.Minutes(t.Duration)
}

// Children returns the ids of a summary task's direct and nested
// children: the consecutive tasks following it in sequence whose
// outline level is deeper, up to the next task at the same or a
// shallower level.
func (g *Graph) Children(summaryID string) []string {
	start := -1
	for i, id := range g.Sequence {
		if id == summaryID {
			start = i
			break
		}
	}
	if start < 0 {
		return nil
	}
	level := g.Tasks[summaryID].OutlineLevel
	var children []string
	for _, id := range g.Sequence[start+1:] {
		if g.Tasks[id].OutlineLevel <= level {
			break
		}
		children = append(children, id)
	}
	return children
}
