package autosched

import (
	"reflect"
	"testing"
	"time"

	"github.com/vkmindia80/critpath/internal/conflict"
	"github.com/vkmindia80/critpath/internal/cpm"
	"github.com/vkmindia80/critpath/internal/graph"
)

var day0 = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func hourTask(id string, hours float64) *graph.Task {
	return &graph.Task{ID: id, Name: id, Duration: hours, Priority: "medium", AutoScheduled: true}
}

func setup(t *testing.T, tasks []*graph.Task, edges []graph.Edge, caps conflict.Capacity) (*graph.Graph, *cpm.Result, []conflict.Conflict) {
	t.Helper()
	g, _, err := graph.Build(tasks, edges, graph.UnitHours)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	timing, err := cpm.Compute(g, cpm.Options{ProjectStart: day0})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	return g, timing, conflict.Detect(g, timing, caps, nil)
}

func TestReschedule_ClearsViolatedPin(t *testing.T) {
	// b is pinned to the project start but depends on a finishing 4h
	// in. The scheduler must release the pin and slide b after a.
	a := hourTask("a", 4)
	a.StartDate = day0
	a.FinishDate = day0.Add(4 * time.Hour)
	b := hourTask("b", 4)
	b.AutoScheduled = false
	b.StartDate = day0
	b.FinishDate = day0.Add(4 * time.Hour)

	edges := []graph.Edge{{PredecessorID: "a", SuccessorID: "b", Type: graph.FinishToStart, LagUnit: graph.UnitHours}}
	g, timing, conflicts := setup(t, []*graph.Task{a, b}, edges, nil)
	if len(conflicts) == 0 {
		t.Fatal("setup should produce a constraint violation")
	}

	res, err := Reschedule(g, timing, conflicts, nil, cpm.Options{ProjectStart: day0})
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}

	var newB *graph.Task
	for _, task := range res.Tasks {
		if task.ID == "b" {
			newB = task
		}
	}
	if newB == nil {
		t.Fatal("b missing from result")
	}
	if !newB.AutoScheduled {
		t.Error("violated pin should be released")
	}
	if !newB.StartDate.Equal(day0.Add(4 * time.Hour)) {
		t.Errorf("b should start at a's finish, got %v", newB.StartDate)
	}
	for _, c := range res.UnresolvedConflicts {
		if c.Kind == conflict.KindConstraintViolation {
			t.Errorf("violation should be resolved, still have %v", c)
		}
	}
	if res.ConflictsResolved == 0 {
		t.Error("expected at least one resolved conflict")
	}
	if len(res.UpdatedTasks) == 0 {
		t.Error("expected b in the moved list")
	}

	// Input graph untouched.
	if g.Tasks["b"].AutoScheduled {
		t.Error("caller's task mutated")
	}
}

func TestReschedule_ClearsViolatedPredecessorPin(t *testing.T) {
	// The pin sits on the predecessor this time: a is pinned two days
	// out while b's stored dates still start at the project start, so
	// a's pinned finish overshoots b. The conflict names both tasks;
	// after repair a's pin is gone and b starts exactly at a's finish.
	a := hourTask("a", 4)
	a.AutoScheduled = false
	a.StartDate = day0.AddDate(0, 0, 2)
	a.FinishDate = a.StartDate.Add(4 * time.Hour)
	b := hourTask("b", 4)
	b.StartDate = day0
	b.FinishDate = day0.Add(4 * time.Hour)
	c := hourTask("c", 4)
	c.StartDate = day0.Add(4 * time.Hour)
	c.FinishDate = day0.Add(8 * time.Hour)

	edges := []graph.Edge{
		{PredecessorID: "a", SuccessorID: "b", Type: graph.FinishToStart, LagUnit: graph.UnitHours},
		{PredecessorID: "b", SuccessorID: "c", Type: graph.FinishToStart, LagUnit: graph.UnitHours},
	}
	g, timing, conflicts := setup(t, []*graph.Task{a, b, c}, edges, nil)

	var viol *conflict.Conflict
	for i := range conflicts {
		if conflicts[i].Kind == conflict.KindConstraintViolation {
			viol = &conflicts[i]
		}
	}
	if viol == nil {
		t.Fatal("pinned predecessor should produce a constraint violation")
	}
	if want := []string{"a", "b"}; !reflect.DeepEqual(viol.TaskIDs, want) {
		t.Errorf("conflict names %v, want %v", viol.TaskIDs, want)
	}

	res, err := Reschedule(g, timing, conflicts, nil, cpm.Options{ProjectStart: day0})
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}

	var newA, newB *graph.Task
	for _, task := range res.Tasks {
		switch task.ID {
		case "a":
			newA = task
		case "b":
			newB = task
		}
	}
	if !newA.AutoScheduled {
		t.Error("a's violated pin should be released")
	}
	if !newB.StartDate.Equal(newA.FinishDate) {
		t.Errorf("b should start exactly at a's finish: a.finish=%v b.start=%v", newA.FinishDate, newB.StartDate)
	}
	for _, cf := range res.UnresolvedConflicts {
		if cf.Kind == conflict.KindConstraintViolation {
			t.Errorf("violation survived reschedule: %v", cf)
		}
	}
	if res.ConflictsResolved == 0 {
		t.Error("expected the violation counted as resolved")
	}
}

func TestReschedule_LevelsOverallocation(t *testing.T) {
	// a and b overlap on alice (12h against 8h). The long unassigned
	// task keeps them off the critical path; b is low priority, so b
	// absorbs the delay.
	a := hourTask("a", 6)
	a.AssigneeIDs = []string{"alice"}
	b := hourTask("b", 6)
	b.AssigneeIDs = []string{"alice"}
	b.Priority = "low"
	long := hourTask("long", 72)

	g, timing, conflicts := setup(t, []*graph.Task{a, b, long}, nil, nil)
	hasOveralloc := false
	for _, c := range conflicts {
		if c.Kind == conflict.KindResourceOverallocation {
			hasOveralloc = true
		}
	}
	if !hasOveralloc {
		t.Fatal("setup should produce an over-allocation")
	}

	res, err := Reschedule(g, timing, conflicts, nil, cpm.Options{ProjectStart: day0})
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}

	for _, c := range res.UnresolvedConflicts {
		if c.Kind == conflict.KindResourceOverallocation {
			t.Errorf("over-allocation should be leveled away, still have %v", c)
		}
	}

	var newA, newB *graph.Task
	for _, task := range res.Tasks {
		switch task.ID {
		case "a":
			newA = task
		case "b":
			newB = task
		}
	}
	if !newB.StartDate.After(newA.StartDate) {
		t.Errorf("low-priority b should be delayed past a: a=%v b=%v", newA.StartDate, newB.StartDate)
	}
	if !newB.AutoScheduled {
		t.Error("leveled task should remain scheduler-owned")
	}
}

func TestReschedule_NeverDelaysCriticalTasks(t *testing.T) {
	// Both overloaded tasks are on the critical path; there is no legal
	// move, so the conflict must surface as unresolved.
	a := hourTask("a", 24)
	a.AssigneeIDs = []string{"alice"}
	a.StartDate = day0
	a.FinishDate = day0.Add(24 * time.Hour)
	b := hourTask("b", 24)
	b.AssigneeIDs = []string{"alice"}
	b.StartDate = day0
	b.FinishDate = day0.Add(24 * time.Hour)

	g, timing, conflicts := setup(t, []*graph.Task{a, b}, nil, nil)

	res, err := Reschedule(g, timing, conflicts, nil, cpm.Options{ProjectStart: day0})
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}

	found := false
	for _, c := range res.UnresolvedConflicts {
		if c.Kind == conflict.KindResourceOverallocation {
			found = true
		}
	}
	if !found {
		t.Error("unresolvable over-allocation must be reported, not dropped")
	}
	if len(res.UpdatedTasks) != 0 {
		t.Errorf("critical tasks must not move, got %v", res.UpdatedTasks)
	}
}

func TestReschedule_RespectsUserPins(t *testing.T) {
	// The pinned task is consistent with its dependencies, so the
	// scheduler leaves it exactly where the user put it.
	pinned := hourTask("pinned", 6)
	pinned.AutoScheduled = false
	pinned.StartDate = day0.Add(48 * time.Hour)
	pinned.FinishDate = day0.Add(54 * time.Hour)
	free := hourTask("free", 6)

	g, timing, conflicts := setup(t, []*graph.Task{pinned, free}, nil, nil)

	res, err := Reschedule(g, timing, conflicts, nil, cpm.Options{ProjectStart: day0})
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}

	for _, task := range res.Tasks {
		if task.ID != "pinned" {
			continue
		}
		if task.AutoScheduled {
			t.Error("consistent pin must stay pinned")
		}
		if !task.StartDate.Equal(day0.Add(48 * time.Hour)) {
			t.Errorf("pinned start moved to %v", task.StartDate)
		}
	}
}

func TestReschedule_KeepsPinEarlierThanProjectStart(t *testing.T) {
	// A pin five days before the project start is a user decision, not a
	// violated dependency; the scheduler must not touch it.
	solo := hourTask("solo", 6)
	solo.AutoScheduled = false
	solo.StartDate = day0.AddDate(0, 0, -5)
	solo.FinishDate = solo.StartDate.Add(6 * time.Hour)

	g, timing, conflicts := setup(t, []*graph.Task{solo}, nil, nil)
	if len(conflicts) != 0 {
		t.Fatalf("an early pin with no dependencies is not a conflict, got %v", conflicts)
	}

	res, err := Reschedule(g, timing, conflicts, nil, cpm.Options{ProjectStart: day0})
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	if len(res.UpdatedTasks) != 0 {
		t.Errorf("nothing should move, got %v", res.UpdatedTasks)
	}
	for _, task := range res.Tasks {
		if task.ID != "solo" {
			continue
		}
		if task.AutoScheduled {
			t.Error("pin was cleared")
		}
		if !task.StartDate.Equal(day0.AddDate(0, 0, -5)) {
			t.Errorf("pinned start moved to %v", task.StartDate)
		}
	}
}

func TestReschedule_NoConflictsIsNoOp(t *testing.T) {
	a := hourTask("a", 4)
	b := hourTask("b", 4)
	edges := []graph.Edge{{PredecessorID: "a", SuccessorID: "b", Type: graph.FinishToStart, LagUnit: graph.UnitHours}}

	g, timing, conflicts := setup(t, []*graph.Task{a, b}, edges, nil)
	if len(conflicts) != 0 {
		t.Fatalf("setup should be clean, got %v", conflicts)
	}

	res, err := Reschedule(g, timing, conflicts, nil, cpm.Options{ProjectStart: day0})
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	if len(res.UnresolvedConflicts) != 0 {
		t.Errorf("clean schedule gained conflicts: %v", res.UnresolvedConflicts)
	}
}
