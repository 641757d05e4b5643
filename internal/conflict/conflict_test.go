package conflict

import (
	"reflect"
	"testing"
	"time"

	"github.com/vkmindia80/critpath/internal/cpm"
	"github.com/vkmindia80/critpath/internal/graph"
)

var day0 = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func hourTask(id string, hours float64, assignees ...string) *graph.Task {
	return &graph.Task{ID: id, Name: id, Duration: hours, AssigneeIDs: assignees, AutoScheduled: true}
}

func detect(t *testing.T, tasks []*graph.Task, edges []graph.Edge, caps Capacity) []Conflict {
	t.Helper()
	g, _, err := graph.Build(tasks, edges, graph.UnitHours)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	timing, err := cpm.Compute(g, cpm.Options{ProjectStart: day0})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	return Detect(g, timing, caps, nil)
}

func TestDetect_Overallocation(t *testing.T) {
	// Two parallel 6h tasks on the same resource: 12h against an 8h
	// day. The ratio is exactly 1.5, which grades as high, not critical.
	conflicts := detect(t, []*graph.Task{
		hourTask("a", 6, "alice"),
		hourTask("b", 6, "alice"),
	}, nil, nil)

	if len(conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d: %v", len(conflicts), conflicts)
	}
	c := conflicts[0]
	if c.Kind != KindResourceOverallocation {
		t.Errorf("kind = %s, want %s", c.Kind, KindResourceOverallocation)
	}
	if c.Severity != SeverityHigh {
		t.Errorf("severity = %s, want high (exactly 150%% is high)", c.Severity)
	}
	if c.ResourceID != "alice" {
		t.Errorf("resource = %s, want alice", c.ResourceID)
	}
	if want := []string{"a", "b"}; !reflect.DeepEqual(c.TaskIDs, want) {
		t.Errorf("task ids %v, want %v", c.TaskIDs, want)
	}
}

func TestDetect_WithinCapacityIsClean(t *testing.T) {
	conflicts := detect(t, []*graph.Task{
		hourTask("a", 4, "alice"),
		hourTask("b", 4, "alice"),
	}, nil, nil)
	if len(conflicts) != 0 {
		t.Errorf("8h on an 8h day should be clean, got %v", conflicts)
	}
}

func TestDetect_CustomCapacity(t *testing.T) {
	caps := Capacity{"alice": 12}
	conflicts := detect(t, []*graph.Task{
		hourTask("a", 6, "alice"),
		hourTask("b", 6, "alice"),
	}, nil, caps)
	if len(conflicts) != 0 {
		t.Errorf("12h capacity absorbs 12h, got %v", conflicts)
	}
}

func TestDetect_SeverityGrades(t *testing.T) {
	cases := []struct {
		ratio float64
		want  Severity
	}{
		{1.1, SeverityMedium},
		{1.25, SeverityMedium}, // bound is exclusive
		{1.3, SeverityHigh},
		{1.5, SeverityHigh}, // bound is exclusive
		{1.6, SeverityCritical},
	}
	for _, tc := range cases {
		if got := overallocationSeverity(tc.ratio); got != tc.want {
			t.Errorf("ratio %.2f -> %s, want %s", tc.ratio, got, tc.want)
		}
	}
}

func TestDetect_ViolationRequiresPin(t *testing.T) {
	// Both tasks auto-scheduled with stale dates: no conflict, the
	// dates are simply recomputed.
	a := hourTask("a", 4)
	a.StartDate = day0
	a.FinishDate = day0.Add(4 * time.Hour)
	b := hourTask("b", 4)
	b.StartDate = day0 // before a finishes
	b.FinishDate = day0.Add(4 * time.Hour)

	edges := []graph.Edge{{PredecessorID: "a", SuccessorID: "b", Type: graph.FinishToStart, LagUnit: graph.UnitHours}}
	conflicts := detect(t, []*graph.Task{a, b}, edges, nil)
	for _, c := range conflicts {
		if c.Kind == KindConstraintViolation {
			t.Errorf("no pinned endpoint: %v", c)
		}
	}

	// Pin the successor at the same contradictory date: now it is a
	// reportable conflict.
	b.AutoScheduled = false
	conflicts = detect(t, []*graph.Task{a, b}, edges, nil)
	found := false
	for _, c := range conflicts {
		if c.Kind == KindConstraintViolation {
			found = true
			if c.Severity != SeverityHigh {
				t.Errorf("violation severity = %s, want high", c.Severity)
			}
		}
	}
	if !found {
		t.Error("expected a constraint_violation conflict")
	}
}

func TestDetect_SatisfiedPinnedEdgeIsClean(t *testing.T) {
	a := hourTask("a", 4)
	a.StartDate = day0
	a.FinishDate = day0.Add(4 * time.Hour)
	b := hourTask("b", 4)
	b.AutoScheduled = false
	b.StartDate = day0.Add(4 * time.Hour)
	b.FinishDate = day0.Add(8 * time.Hour)

	edges := []graph.Edge{{PredecessorID: "a", SuccessorID: "b", Type: graph.FinishToStart, LagUnit: graph.UnitHours}}
	conflicts := detect(t, []*graph.Task{a, b}, edges, nil)
	for _, c := range conflicts {
		if c.Kind == KindConstraintViolation {
			t.Errorf("satisfied edge reported: %v", c)
		}
	}
}

func TestDetect_SummaryTasksExcluded(t *testing.T) {
	s := hourTask("s", 0, "alice")
	s.IsSummary = true
	c1 := hourTask("c1", 6, "alice")
	c1.OutlineLevel = 1
	c2 := hourTask("c2", 6, "bob")
	c2.OutlineLevel = 1

	conflicts := detect(t, []*graph.Task{s, c1, c2}, nil, nil)
	if len(conflicts) != 0 {
		t.Errorf("summary rollup should not count against capacity, got %v", conflicts)
	}
}

func TestFromCycle(t *testing.T) {
	c := FromCycle([]string{"b", "c", "a"})
	if c.Kind != KindCycle || c.Severity != SeverityCritical {
		t.Errorf("cycle conflict graded %s/%s", c.Kind, c.Severity)
	}
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(c.TaskIDs, want) {
		t.Errorf("task ids %v, want sorted %v", c.TaskIDs, want)
	}
}

func TestDedupe(t *testing.T) {
	in := []Conflict{
		{Kind: KindResourceOverallocation, Severity: SeverityMedium, TaskIDs: []string{"b", "a"}},
		{Kind: KindResourceOverallocation, Severity: SeverityCritical, TaskIDs: []string{"a", "b"}},
		{Kind: KindConstraintViolation, Severity: SeverityHigh, TaskIDs: []string{"a", "b"}},
	}
	out := Dedupe(in)
	if len(out) != 2 {
		t.Fatalf("expected 2 after dedupe, got %d: %v", len(out), out)
	}
	for _, c := range out {
		if c.Kind == KindResourceOverallocation && c.Severity != SeverityCritical {
			t.Errorf("dedupe should keep the worst severity, got %s", c.Severity)
		}
	}
}

func TestCapacity_HoursPerDay(t *testing.T) {
	var c Capacity
	if got := c.HoursPerDay("anyone"); got != DefaultDailyHours {
		t.Errorf("nil capacity = %v, want default %v", got, DefaultDailyHours)
	}
	c = Capacity{"alice": 6}
	if got := c.HoursPerDay("alice"); got != 6 {
		t.Errorf("alice = %v, want 6", got)
	}
	if got := c.HoursPerDay("bob"); got != DefaultDailyHours {
		t.Errorf("bob = %v, want default", got)
	}
}
