package engine

import (
	"time"

	"github.com/vkmindia80/critpath/internal/autosched"
	"github.com/vkmindia80/critpath/internal/conflict"
	"github.com/vkmindia80/critpath/internal/graph"
)

// EventType tags a commit notification. The engine only defines the
// shapes; delivery (websocket, queue, e-mail) belongs to the caller,
// which owns fan-out to any subscribers.
type EventType string

const (
	EventTaskCreated       EventType = "task_created"
	EventTaskUpdated       EventType = "task_updated"
	EventTaskDeleted       EventType = "task_deleted"
	EventDependencyUpdated EventType = "dependency_updated"
	EventConflictDetected  EventType = "conflict_detected"
)

// Event is a typed record of something that changed in a committed
// schedule, carrying the affected records.
type Event struct {
	Type      EventType           `json:"type"`
	ProjectID string              `json:"project_id"`
	Tasks     []*graph.Task       `json:"tasks,omitempty"`
	Moves     []autosched.Moved   `json:"moves,omitempty"`
	Edges     []DependencyRecord  `json:"dependencies,omitempty"`
	Conflicts []conflict.Conflict `json:"conflicts,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
}

// TaskEvent builds a task_created/updated/deleted event.
func TaskEvent(typ EventType, projectID string, tasks ...*graph.Task) Event {
	return Event{
		Type:      typ,
		ProjectID: projectID,
		Tasks:     tasks,
		Timestamp: time.Now().UTC(),
	}
}

// DependencyEvent builds a dependency_updated event.
func DependencyEvent(projectID string, edges ...graph.Edge) Event {
	recs := make([]DependencyRecord, len(edges))
	for i, e := range edges {
		recs[i] = DependencyRecordFromEdge(e)
	}
	return Event{
		Type:      EventDependencyUpdated,
		ProjectID: projectID,
		Edges:     recs,
		Timestamp: time.Now().UTC(),
	}
}

// ConflictEvent builds a conflict_detected event.
func ConflictEvent(projectID string, conflicts []conflict.Conflict) Event {
	return Event{
		Type:      EventConflictDetected,
		ProjectID: projectID,
		Conflicts: conflicts,
		Timestamp: time.Now().UTC(),
	}
}

// CommitEvents derives the notifications a caller should emit after
// durably storing an auto-schedule result: one task_updated carrying
// every moved task, plus a conflict_detected when anything was left
// unresolved.
func CommitEvents(projectID string, res *autosched.Result) []Event {
	var events []Event
	if len(res.UpdatedTasks) > 0 {
		ev := Event{
			Type:      EventTaskUpdated,
			ProjectID: projectID,
			Moves:     res.UpdatedTasks,
			Timestamp: time.Now().UTC(),
		}
		for _, m := range res.UpdatedTasks {
			for _, t := range res.Tasks {
				if t.ID == m.TaskID {
					ev.Tasks = append(ev.Tasks, t)
					break
				}
			}
		}
		events = append(events, ev)
	}
	if len(res.UnresolvedConflicts) > 0 {
		events = append(events, ConflictEvent(projectID, res.UnresolvedConflicts))
	}
	return events
}
