package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vkmindia80/critpath/internal/conflict"
	"github.com/vkmindia80/critpath/internal/cpm"
	"github.com/vkmindia80/critpath/internal/graph"
)

var day0 = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

// testStore creates a temporary store for testing.
func testStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testProject creates a project with a couple of linked tasks.
func testProject(t *testing.T, s *Store) {
	t.Helper()
	if _, err := s.CreateProject("p1", "Test project", "days"); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	tasks := []*graph.Task{
		{ID: "a", ProjectID: "p1", Name: "design", Duration: 2, Priority: "high", AutoScheduled: true},
		{ID: "b", ProjectID: "p1", Name: "build", Duration: 3, Priority: "medium", AutoScheduled: true},
	}
	for i, task := range tasks {
		if err := s.UpsertTask(task, i); err != nil {
			t.Fatalf("UpsertTask(%s): %v", task.ID, err)
		}
	}
	e := graph.Edge{PredecessorID: "a", SuccessorID: "b", Type: graph.FinishToStart, LagUnit: graph.UnitDays}
	if err := s.AddDependency("p1", e); err != nil {
		t.Fatalf("AddDependency: %v", err)
	}
}

func TestNew_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatal("database file not created")
	}
}

func TestProjects(t *testing.T) {
	s := testStore(t)

	p, err := s.CreateProject("p1", "My project", "")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if p.Unit != "hours" {
		t.Errorf("default unit = %q, want hours", p.Unit)
	}

	if err := s.SetProjectDates("p1", day0, day0.AddDate(0, 0, 30)); err != nil {
		t.Fatalf("SetProjectDates: %v", err)
	}
	got, err := s.GetProject("p1")
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if !got.ProjectStart.Equal(day0) {
		t.Errorf("project start = %v, want %v", got.ProjectStart, day0)
	}

	projects, err := s.ListProjects()
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(projects) != 1 {
		t.Errorf("projects = %d, want 1", len(projects))
	}
}

func TestTasks_RoundTrip(t *testing.T) {
	s := testStore(t)
	testProject(t, s)

	task := &graph.Task{
		ID: "c", ProjectID: "p1", Name: "ship", Duration: 1.5,
		StartDate: day0, FinishDate: day0.AddDate(0, 0, 2),
		PercentComplete: 25, OutlineLevel: 1, Priority: "low",
		AssigneeIDs: []string{"alice", "bob"}, AutoScheduled: false,
	}
	seq, err := s.NextSeq("p1")
	if err != nil {
		t.Fatalf("NextSeq: %v", err)
	}
	if err := s.UpsertTask(task, seq); err != nil {
		t.Fatalf("UpsertTask: %v", err)
	}

	got, err := s.GetTask("p1", "c")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.Name != "ship" || got.Duration != 1.5 || got.PercentComplete != 25 {
		t.Errorf("task fields lost: %+v", got)
	}
	if !got.StartDate.Equal(day0) {
		t.Errorf("start = %v, want %v", got.StartDate, day0)
	}
	if len(got.AssigneeIDs) != 2 || got.AssigneeIDs[0] != "alice" {
		t.Errorf("assignees = %v", got.AssigneeIDs)
	}
	if got.AutoScheduled {
		t.Error("pin state lost")
	}

	tasks, err := s.ListTasks("p1")
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("tasks = %d, want 3", len(tasks))
	}
	// Outline (seq) order preserved.
	if tasks[0].ID != "a" || tasks[1].ID != "b" || tasks[2].ID != "c" {
		t.Errorf("order = %s,%s,%s", tasks[0].ID, tasks[1].ID, tasks[2].ID)
	}
}

func TestTasks_PinAndProgress(t *testing.T) {
	s := testStore(t)
	testProject(t, s)

	if err := s.PinTask("p1", "a", day0, day0.AddDate(0, 0, 2)); err != nil {
		t.Fatalf("PinTask: %v", err)
	}
	got, _ := s.GetTask("p1", "a")
	if got.AutoScheduled {
		t.Error("pinned task still auto-scheduled")
	}

	if err := s.UnpinTask("p1", "a"); err != nil {
		t.Fatalf("UnpinTask: %v", err)
	}
	got, _ = s.GetTask("p1", "a")
	if !got.AutoScheduled {
		t.Error("unpin did not restore auto scheduling")
	}

	if err := s.SetTaskProgress("p1", "a", 60); err != nil {
		t.Fatalf("SetTaskProgress: %v", err)
	}
	got, _ = s.GetTask("p1", "a")
	if got.PercentComplete != 60 {
		t.Errorf("progress = %v, want 60", got.PercentComplete)
	}

	if err := s.SetTaskProgress("p1", "ghost", 10); err == nil {
		t.Error("expected error for unknown task")
	}
}

func TestDeleteTask_CascadesDependencies(t *testing.T) {
	s := testStore(t)
	testProject(t, s)

	if err := s.DeleteTask("p1", "a"); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	edges, err := s.ListDependencies("p1")
	if err != nil {
		t.Fatalf("ListDependencies: %v", err)
	}
	if len(edges) != 0 {
		t.Errorf("dangling dependencies: %v", edges)
	}
}

func TestDependencies_RoundTrip(t *testing.T) {
	s := testStore(t)
	testProject(t, s)

	e := graph.Edge{
		PredecessorID: "a", SuccessorID: "b",
		Type: graph.StartToStart, Lag: 1.5, LagUnit: graph.UnitDays,
	}
	if err := s.AddDependency("p1", e); err != nil {
		t.Fatalf("AddDependency: %v", err)
	}

	edges, err := s.ListDependencies("p1")
	if err != nil {
		t.Fatalf("ListDependencies: %v", err)
	}
	if len(edges) != 2 {
		t.Fatalf("edges = %d, want 2", len(edges))
	}
	// Parallel edges of different types coexist.
	if edges[0].Type == edges[1].Type {
		t.Errorf("expected distinct types, got %s and %s", edges[0].Type, edges[1].Type)
	}

	if err := s.DeleteDependency("p1", "a", "b", graph.StartToStart); err != nil {
		t.Fatalf("DeleteDependency: %v", err)
	}
	edges, _ = s.ListDependencies("p1")
	if len(edges) != 1 || edges[0].Type != graph.FinishToStart {
		t.Errorf("wrong edge removed: %v", edges)
	}

	if err := s.DeleteDependency("p1", "a", "b", graph.StartToStart); err == nil {
		t.Error("expected error deleting a missing edge")
	}
}

func TestSchedules_SaveAndGet(t *testing.T) {
	s := testStore(t)
	testProject(t, s)

	rows := []cpm.Timing{
		{TaskID: "a", EarliestStart: 100, EarliestFinish: 200, LatestStart: 100, LatestFinish: 200, IsCritical: true},
		{TaskID: "b", EarliestStart: 200, EarliestFinish: 300, LatestStart: 250, LatestFinish: 350, Slack: 50},
	}
	if err := s.SaveSchedule("p1", rows); err != nil {
		t.Fatalf("SaveSchedule: %v", err)
	}

	got, err := s.GetSchedule("p1")
	if err != nil {
		t.Fatalf("GetSchedule: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("rows = %d, want 2", len(got))
	}
	if !got["a"].IsCritical || got["b"].Slack != 50 {
		t.Errorf("schedule fields lost: %+v", got)
	}

	// Saving again replaces, not appends.
	if err := s.SaveSchedule("p1", rows[:1]); err != nil {
		t.Fatalf("SaveSchedule: %v", err)
	}
	got, _ = s.GetSchedule("p1")
	if len(got) != 1 {
		t.Errorf("rows after replace = %d, want 1", len(got))
	}
}

func TestConflicts_ReplaceAndList(t *testing.T) {
	s := testStore(t)
	testProject(t, s)

	conflicts := []conflict.Conflict{
		{
			Kind: conflict.KindResourceOverallocation, Severity: conflict.SeverityHigh,
			TaskIDs: []string{"a", "b"}, ResourceID: "alice", Message: "over-allocated",
		},
	}
	if err := s.ReplaceConflicts("p1", conflicts); err != nil {
		t.Fatalf("ReplaceConflicts: %v", err)
	}

	got, err := s.ListConflicts("p1")
	if err != nil {
		t.Fatalf("ListConflicts: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("conflicts = %d, want 1", len(got))
	}
	c := got[0]
	if c.Kind != "resource_overallocation" || c.Severity != "high" || c.ResourceID != "alice" {
		t.Errorf("conflict fields lost: %+v", c)
	}
	if len(c.TaskIDs) != 2 {
		t.Errorf("task ids = %v", c.TaskIDs)
	}

	if err := s.ReplaceConflicts("p1", nil); err != nil {
		t.Fatalf("ReplaceConflicts(nil): %v", err)
	}
	got, _ = s.ListConflicts("p1")
	if len(got) != 0 {
		t.Errorf("conflicts after clear = %d, want 0", len(got))
	}
}

func TestEvents(t *testing.T) {
	s := testStore(t)
	testProject(t, s)

	s.AddEvent("p1", "task_updated", `{"moves":1}`)
	s.AddEvent("p1", "conflict_detected", `{}`)

	events, err := s.GetEvents("p1")
	if err != nil {
		t.Fatalf("GetEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if events[0].Type != "task_updated" || events[1].Type != "conflict_detected" {
		t.Errorf("event order lost: %s, %s", events[0].Type, events[1].Type)
	}
}

func TestSnapshot_Assembly(t *testing.T) {
	s := testStore(t)
	testProject(t, s)
	if err := s.SetProjectDates("p1", day0, time.Time{}); err != nil {
		t.Fatalf("SetProjectDates: %v", err)
	}

	snap, err := s.Snapshot("p1", map[string]float64{"alice": 6})
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.ProjectID != "p1" || snap.Unit != "days" {
		t.Errorf("snapshot header: %+v", snap)
	}
	if !snap.ProjectStart.Equal(day0) {
		t.Errorf("project start = %v", snap.ProjectStart)
	}
	if len(snap.Tasks) != 2 || len(snap.Dependencies) != 1 {
		t.Fatalf("snapshot contents: %d tasks, %d deps", len(snap.Tasks), len(snap.Dependencies))
	}
	if snap.Dependencies[0].Type != "FS" {
		t.Errorf("dependency type = %q, want the FS code", snap.Dependencies[0].Type)
	}
	if snap.ResourceCapacity["alice"] != 6 {
		t.Errorf("capacity lost: %v", snap.ResourceCapacity)
	}
}
