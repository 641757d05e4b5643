package store

import "time"

// Project is a scheduling workspace: one task graph, one time unit,
// one committed schedule at a time.
type Project struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Unit         string    `json:"unit"` // hours or days
	ProjectStart time.Time `json:"project_start,omitempty"`
	Deadline     time.Time `json:"deadline,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Event is the persisted form of an engine commit notification.
type Event struct {
	ID        int64     `json:"id"`
	ProjectID string    `json:"project_id"`
	Type      string    `json:"event_type"`
	Payload   string    `json:"payload"` // JSON-encoded engine.Event
	Timestamp time.Time `json:"timestamp"`
}

// StoredConflict is a conflict row as persisted after a computation.
type StoredConflict struct {
	ID         int64     `json:"id"`
	ProjectID  string    `json:"project_id"`
	Kind       string    `json:"kind"`
	Severity   string    `json:"severity"`
	TaskIDs    []string  `json:"task_ids"`
	ResourceID string    `json:"resource_id,omitempty"`
	Message    string    `json:"message"`
	DetectedAt time.Time `json:"detected_at"`
}
