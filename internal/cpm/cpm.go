// Package cpm implements the critical path method over a project task
// graph, generalized to all four dependency types (FS, SS, FF, SF) with
// signed lag. The computation is a pure function of the input graph:
// calling it twice on the same snapshot yields identical timing.
package cpm

import (
	"sort"

	"github.com/vkmindia80/critpath/internal/graph"
)

// Compute runs the two-pass critical path method. The graph must be
// acyclic; callers gate on graph.FindCycle first. Pinned tasks keep
// their pinned start as a floor: when a dependency demands a later
// start than the pin allows, a Violation is recorded instead of moving
// the pin.
func Compute(g *graph.Graph, opts Options) (*Result, error) {
	order, err := topoSort(g)
	if err != nil {
		return nil, err
	}

	r := &Result{
		Tasks: make(map[string]*Timing, g.Len()),
		Order: order,
	}
	for _, id := range order {
		r.Tasks[id] = &Timing{TaskID: id}
	}

	r.ProjectStart = projectStart(g, opts)
	forwardPass(g, r)

	// Project finish: latest earliest-finish, unless the caller imposed
	// a deadline. A deadline earlier than the computed finish produces
	// negative slack on the tasks that overrun it.
	finish := r.ProjectStart
	for _, id := range order {
		if ef := r.Tasks[id].EarliestFinish; ef > finish {
			finish = ef
		}
	}
	if !opts.Deadline.IsZero() {
		finish = ToMinutes(opts.Deadline)
	}
	r.ProjectFinish = finish

	backwardPass(g, r)

	for _, id := range order {
		t := r.Tasks[id]
		t.Slack = t.LatestStart - t.EarliestStart
		t.IsCritical = t.Slack == 0
	}

	rollupSummaries(g, r)

	for _, id := range order {
		if r.Tasks[id].IsCritical {
			r.CriticalPath = append(r.CriticalPath, id)
		}
	}

	return r, nil
}

// projectStart picks the baseline: the explicit option if set, otherwise
// the earliest date present in the snapshot.
func projectStart(g *graph.Graph, opts Options) int64 {
	if !opts.ProjectStart.IsZero() {
		return ToMinutes(opts.ProjectStart)
	}
	var min int64
	for _, id := range g.TaskIDs() {
		t := g.Tasks[id]
		if t.StartDate.IsZero() {
			continue
		}
		m := ToMinutes(t.StartDate)
		if min == 0 || m < min {
			min = m
		}
	}
	return min
}

// forwardPass computes earliest start/finish in topological order.
func forwardPass(g *graph.Graph, r *Result) {
	for _, id := range r.Order {
		t := g.Tasks[id]
		timing := r.Tasks[id]
		dur := g.DurationMinutes(id)

		// The project start is a baseline, not a dependency: only an
		// actual incoming edge can put a pin in violation.
		depES := r.ProjectStart
		var edgeES int64
		hasEdge := false
		for _, e := range g.Incoming(id) {
			c := forwardConstraint(g, r, e, dur)
			if !hasEdge || c > edgeES {
				edgeES = c
				hasEdge = true
			}
			if c > depES {
				depES = c
			}
		}

		if t.Pinned() && !t.StartDate.IsZero() && !t.IsSummary {
			pinned := ToMinutes(t.StartDate)
			if hasEdge && edgeES > pinned {
				r.Violations = append(r.Violations, Violation{
					PredecessorID: tightestPredecessor(g, r, id, dur),
					SuccessorID:   id,
					Required:      edgeES,
					Actual:        pinned,
				})
			}
			timing.EarliestStart = pinned
		} else {
			timing.EarliestStart = depES
		}
		timing.EarliestFinish = timing.EarliestStart + dur
	}
}

// forwardConstraint evaluates the per-edge earliest-start formula for
// the edge's successor (whose duration is dur).
func forwardConstraint(g *graph.Graph, r *Result, e graph.Edge, dur int64) int64 {
	pred := r.Tasks[e.PredecessorID]
	lag := e.LagMinutes()
	switch e.Type {
	case graph.StartToStart:
		return pred.EarliestStart + lag
	case graph.FinishToFinish:
		return pred.EarliestFinish + lag - dur
	case graph.StartToFinish:
		return pred.EarliestStart + lag - dur
	default: // finish-to-start
		return pred.EarliestFinish + lag
	}
}

// tightestPredecessor names the predecessor whose constraint pushed a
// pinned task the furthest, for violation reporting.
func tightestPredecessor(g *graph.Graph, r *Result, id string, dur int64) string {
	best := ""
	var bestC int64
	for _, e := range g.Incoming(id) {
		c := forwardConstraint(g, r, e, dur)
		if best == "" || c > bestC {
			best = e.PredecessorID
			bestC = c
		}
	}
	return best
}

// backwardPass computes latest start/finish in reverse topological
// order, symmetric to the forward pass over outgoing edges.
func backwardPass(g *graph.Graph, r *Result) {
	for i := len(r.Order) - 1; i >= 0; i-- {
		id := r.Order[i]
		timing := r.Tasks[id]
		dur := g.DurationMinutes(id)

		lf := r.ProjectFinish
		for _, e := range g.Outgoing(id) {
			succ := r.Tasks[e.SuccessorID]
			lag := e.LagMinutes()
			var c int64
			switch e.Type {
			case graph.StartToStart:
				c = succ.LatestStart - lag + dur
			case graph.FinishToFinish:
				c = succ.LatestFinish - lag
			case graph.StartToFinish:
				c = succ.LatestFinish - lag + dur
			default: // finish-to-start
				c = succ.LatestStart - lag
			}
			if c < lf {
				lf = c
			}
		}
		timing.LatestFinish = lf
		timing.LatestStart = lf - dur
	}
}

// rollupSummaries derives summary task timing from their children:
// earliest child start through latest child finish. A summary is
// critical when any of its children is.
func rollupSummaries(g *graph.Graph, r *Result) {
	for _, id := range g.Sequence {
		t := g.Tasks[id]
		if !t.IsSummary {
			continue
		}
		children := g.Children(id)
		if len(children) == 0 {
			continue
		}
		timing := r.Tasks[id]
		first := true
		critical := false
		for _, cid := range children {
			ct := r.Tasks[cid]
			if first {
				timing.EarliestStart = ct.EarliestStart
				timing.EarliestFinish = ct.EarliestFinish
				timing.LatestStart = ct.LatestStart
				timing.LatestFinish = ct.LatestFinish
				first = false
			} else {
				if ct.EarliestStart < timing.EarliestStart {
					timing.EarliestStart = ct.EarliestStart
				}
				if ct.EarliestFinish > timing.EarliestFinish {
					timing.EarliestFinish = ct.EarliestFinish
				}
				if ct.LatestStart < timing.LatestStart {
					timing.LatestStart = ct.LatestStart
				}
				if ct.LatestFinish > timing.LatestFinish {
					timing.LatestFinish = ct.LatestFinish
				}
			}
			critical = critical || ct.IsCritical
		}
		timing.Slack = timing.LatestStart - timing.EarliestStart
		timing.IsCritical = critical
	}
}

// topoSort orders tasks with Kahn's algorithm. The ready queue is kept
// sorted so the order is deterministic for a given graph. A leftover
// node means a cycle slipped past the gate; that is returned as a
// CycleError rather than a partial order.
func topoSort(g *graph.Graph) ([]string, error) {
	inDegree := make(map[string]int, g.Len())
	for _, id := range g.TaskIDs() {
		inDegree[id] = len(g.Predecessors(id))
	}

	var queue []string
	for _, id := range g.TaskIDs() {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	order := make([]string, 0, g.Len())
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)

		var freed []string
		for _, succ := range g.Successors(id) {
			inDegree[succ]--
			if inDegree[succ] == 0 {
				freed = append(freed, succ)
			}
		}
		sort.Strings(freed)
		queue = append(queue, freed...)
	}

	if len(order) != g.Len() {
		if cycle := g.FindCycle(); cycle != nil {
			return nil, &graph.CycleError{Cycle: cycle}
		}
		return nil, graph.ErrCycle
	}
	return order, nil
}
