// Package engine is the facade over the scheduling core. One call runs
// the full pipeline (validate, cycle gate, critical path method,
// conflict detection, optional auto-reschedule, stats) as a pure
// function of the supplied snapshot. The engine holds no cross-call
// mutable state; the same snapshot always produces the same output, so
// any number of projects can be scheduled concurrently.
package engine

import (
	"time"

	"github.com/vkmindia80/critpath/internal/autosched"
	"github.com/vkmindia80/critpath/internal/conflict"
	"github.com/vkmindia80/critpath/internal/cpm"
	"github.com/vkmindia80/critpath/internal/graph"
	"github.com/vkmindia80/critpath/internal/stats"
)

// Output is the result of a plain schedule computation.
type Output struct {
	ProjectID    string              `json:"project_id"`
	Timing       []cpm.Timing        `json:"timing"`
	Conflicts    []conflict.Conflict `json:"conflicts"`
	CriticalPath []string            `json:"critical_path"`
	Stats        stats.Stats         `json:"stats"`
	Warnings     []graph.Warning     `json:"warnings,omitempty"`
}

// Engine computes schedules. Construct one with New; the zero value
// works but uses all defaults.
type Engine struct {
	weights stats.Weights
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithWeights overrides the timeline health weighting.
func WithWeights(w stats.Weights) Option {
	return func(e *Engine) { e.weights = w }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New constructs an Engine with the given options.
func New(opts ...Option) *Engine {
	e := &Engine{
		weights: stats.DefaultWeights(),
		now:     time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// build validates and assembles the graph from a snapshot. Validation
// failures reject the whole snapshot; a cyclic graph is a hard stop
// before any timing runs.
func (e *Engine) build(snap *Snapshot) (*graph.Graph, []graph.Warning, error) {
	unit, err := snap.unit()
	if err != nil {
		return nil, nil, err
	}
	edges, err := snap.edges()
	if err != nil {
		return nil, nil, err
	}
	g, warnings, err := graph.Build(snap.Tasks, edges, unit)
	if err != nil {
		return nil, warnings, err
	}
	if cycle := g.FindCycle(); cycle != nil {
		return nil, warnings, &graph.CycleError{Cycle: cycle}
	}
	return g, warnings, nil
}

// Schedule runs validation, the cycle gate, the CPM passes, conflict
// detection, and stats. On a cycle it returns the CycleError; callers
// wanting the uniform Conflict shape use conflict.FromCycle on the
// error's cycle.
func (e *Engine) Schedule(snap *Snapshot) (*Output, error) {
	g, warnings, err := e.build(snap)
	if err != nil {
		return nil, err
	}

	timing, err := cpm.Compute(g, e.options(snap))
	if err != nil {
		return nil, err
	}

	conflicts := conflict.Detect(g, timing, snap.ResourceCapacity, nil)

	return &Output{
		ProjectID:    snap.ProjectID,
		Timing:       timing.Rows(),
		Conflicts:    conflicts,
		CriticalPath: timing.CriticalPath,
		Stats:        stats.Summarize(g, conflicts, e.weights, e.now()),
		Warnings:     warnings,
	}, nil
}

// Reschedule runs the full pipeline and then the auto-scheduler,
// returning both the repair report and the recomputed output for the
// new snapshot.
func (e *Engine) Reschedule(snap *Snapshot) (*autosched.Result, *Output, error) {
	g, warnings, err := e.build(snap)
	if err != nil {
		return nil, nil, err
	}

	opts := e.options(snap)
	timing, err := cpm.Compute(g, opts)
	if err != nil {
		return nil, nil, err
	}
	conflicts := conflict.Detect(g, timing, snap.ResourceCapacity, nil)

	res, err := autosched.Reschedule(g, timing, conflicts, snap.ResourceCapacity, opts)
	if err != nil {
		return nil, nil, err
	}

	out := &Output{
		ProjectID:    snap.ProjectID,
		Timing:       res.Timing.Rows(),
		Conflicts:    res.UnresolvedConflicts,
		CriticalPath: res.Timing.CriticalPath,
		Stats:        statsFor(res.Tasks, g, res.UnresolvedConflicts, e.weights, e.now()),
		Warnings:     warnings,
	}
	return res, out, nil
}

// options derives CPM options from the snapshot, preferring an explicit
// project start so repeated calls stay deterministic.
func (e *Engine) options(snap *Snapshot) cpm.Options {
	return cpm.Options{
		ProjectStart: snap.ProjectStart,
		Deadline:     snap.Deadline,
	}
}

// statsFor summarizes a rescheduled snapshot without rebuilding it from
// wire form.
func statsFor(tasks []*graph.Task, orig *graph.Graph, conflicts []conflict.Conflict, w stats.Weights, now time.Time) stats.Stats {
	g, _, err := graph.Build(tasks, orig.Edges, orig.Unit)
	if err != nil {
		return stats.Summarize(orig, conflicts, w, now)
	}
	return stats.Summarize(g, conflicts, w, now)
}
