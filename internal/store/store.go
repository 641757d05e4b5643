// Package store persists project task graphs and committed schedules
// in SQLite. The scheduling engine itself never touches the database;
// it operates on in-memory snapshots, and this store is the caller-side
// collaborator that loads snapshots and writes results back.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vkmindia80/critpath/internal/conflict"
	"github.com/vkmindia80/critpath/internal/cpm"
	"github.com/vkmindia80/critpath/internal/graph"
)

// Store provides access to the critpath database.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at the given path.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent access.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		unit          TEXT NOT NULL DEFAULT 'hours',
		project_start DATETIME,
		deadline      DATETIME,
		created_at    DATETIME NOT NULL,
		updated_at    DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id               TEXT NOT NULL,
		project_id       TEXT NOT NULL REFERENCES projects(id),
		name             TEXT NOT NULL,
		duration         REAL NOT NULL DEFAULT 0,
		start_date       DATETIME,
		finish_date      DATETIME,
		percent_complete REAL NOT NULL DEFAULT 0,
		outline_level    INTEGER NOT NULL DEFAULT 0,
		is_summary       INTEGER NOT NULL DEFAULT 0,
		is_milestone     INTEGER NOT NULL DEFAULT 0,
		priority         TEXT DEFAULT 'medium',
		assignee_ids     TEXT DEFAULT '[]',
		auto_scheduled   INTEGER NOT NULL DEFAULT 1,
		seq              INTEGER NOT NULL DEFAULT 0,
		created_at       DATETIME NOT NULL,
		updated_at       DATETIME NOT NULL,
		PRIMARY KEY (project_id, id)
	);

	CREATE TABLE IF NOT EXISTS dependencies (
		project_id     TEXT NOT NULL REFERENCES projects(id),
		predecessor_id TEXT NOT NULL,
		successor_id   TEXT NOT NULL,
		dep_type       TEXT NOT NULL DEFAULT 'FS',
		lag            REAL NOT NULL DEFAULT 0,
		lag_unit       TEXT NOT NULL DEFAULT 'hours',
		PRIMARY KEY (project_id, predecessor_id, successor_id, dep_type)
	);

	CREATE TABLE IF NOT EXISTS schedules (
		project_id      TEXT NOT NULL REFERENCES projects(id),
		task_id         TEXT NOT NULL,
		earliest_start  INTEGER NOT NULL,
		earliest_finish INTEGER NOT NULL,
		latest_start    INTEGER NOT NULL,
		latest_finish   INTEGER NOT NULL,
		slack           INTEGER NOT NULL,
		is_critical     INTEGER NOT NULL DEFAULT 0,
		computed_at     DATETIME NOT NULL,
		PRIMARY KEY (project_id, task_id)
	);

	CREATE TABLE IF NOT EXISTS conflicts (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id  TEXT NOT NULL REFERENCES projects(id),
		kind        TEXT NOT NULL,
		severity    TEXT NOT NULL,
		task_ids    TEXT NOT NULL DEFAULT '[]',
		resource_id TEXT DEFAULT '',
		message     TEXT DEFAULT '',
		detected_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id  TEXT NOT NULL REFERENCES projects(id),
		event_type  TEXT NOT NULL,
		payload     TEXT DEFAULT '',
		timestamp   DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// --- Projects ---

// CreateProject inserts a new project.
func (s *Store) CreateProject(id, name, unit string) (*Project, error) {
	now := time.Now().UTC()
	if unit == "" {
		unit = "hours"
	}
	_, err := s.db.Exec(
		`INSERT INTO projects (id, name, unit, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, name, unit, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	return &Project{ID: id, Name: name, Unit: unit, CreatedAt: now, UpdatedAt: now}, nil
}

// GetProject returns a project by id.
func (s *Store) GetProject(id string) (*Project, error) {
	row := s.db.QueryRow(
		`SELECT id, name, unit, project_start, deadline, created_at, updated_at FROM projects WHERE id = ?`, id,
	)
	var p Project
	var start, deadline sql.NullTime
	if err := row.Scan(&p.ID, &p.Name, &p.Unit, &start, &deadline, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, fmt.Errorf("scan project: %w", err)
	}
	if start.Valid {
		p.ProjectStart = start.Time
	}
	if deadline.Valid {
		p.Deadline = deadline.Time
	}
	return &p, nil
}

// ListProjects returns all projects ordered by id.
func (s *Store) ListProjects() ([]Project, error) {
	rows, err := s.db.Query(
		`SELECT id, name, unit, project_start, deadline, created_at, updated_at FROM projects ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		var start, deadline sql.NullTime
		if err := rows.Scan(&p.ID, &p.Name, &p.Unit, &start, &deadline, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		if start.Valid {
			p.ProjectStart = start.Time
		}
		if deadline.Valid {
			p.Deadline = deadline.Time
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// SetProjectDates updates the project start and deadline.
func (s *Store) SetProjectDates(id string, start, deadline time.Time) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`UPDATE projects SET project_start = ?, deadline = ?, updated_at = ? WHERE id = ?`,
		nullTime(start), nullTime(deadline), now, id,
	)
	if err != nil {
		return fmt.Errorf("set project dates: %w", err)
	}
	return nil
}

// --- Tasks ---

const taskColumns = `id, project_id, name, duration, start_date, finish_date, percent_complete,
	outline_level, is_summary, is_milestone, priority, assignee_ids, auto_scheduled`

// UpsertTask inserts or replaces a task. The sequence number preserves
// outline order; pass the next free value for new tasks.
func (s *Store) UpsertTask(t *graph.Task, seq int) error {
	now := time.Now().UTC()
	assignees, err := json.Marshal(t.AssigneeIDs)
	if err != nil {
		return fmt.Errorf("marshal assignees: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO tasks (id, project_id, name, duration, start_date, finish_date, percent_complete,
			outline_level, is_summary, is_milestone, priority, assignee_ids, auto_scheduled, seq, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(project_id, id) DO UPDATE SET
			name = excluded.name, duration = excluded.duration,
			start_date = excluded.start_date, finish_date = excluded.finish_date,
			percent_complete = excluded.percent_complete, outline_level = excluded.outline_level,
			is_summary = excluded.is_summary, is_milestone = excluded.is_milestone,
			priority = excluded.priority, assignee_ids = excluded.assignee_ids,
			auto_scheduled = excluded.auto_scheduled, updated_at = excluded.updated_at`,
		t.ID, t.ProjectID, t.Name, t.Duration, nullTime(t.StartDate), nullTime(t.FinishDate),
		t.PercentComplete, t.OutlineLevel, t.IsSummary, t.IsMilestone,
		t.Priority, string(assignees), t.AutoScheduled, seq, now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert task: %w", err)
	}
	return nil
}

// GetTask returns a single task.
func (s *Store) GetTask(projectID, id string) (*graph.Task, error) {
	row := s.db.QueryRow(
		`SELECT `+taskColumns+` FROM tasks WHERE project_id = ? AND id = ?`, projectID, id,
	)
	return scanTask(row.Scan)
}

// ListTasks returns a project's tasks in outline order.
func (s *Store) ListTasks(projectID string) ([]*graph.Task, error) {
	rows, err := s.db.Query(
		`SELECT `+taskColumns+` FROM tasks WHERE project_id = ? ORDER BY seq, id`, projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*graph.Task
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// NextSeq returns the next free sequence number for a project.
func (s *Store) NextSeq(projectID string) (int, error) {
	row := s.db.QueryRow(`SELECT COALESCE(MAX(seq), -1) + 1 FROM tasks WHERE project_id = ?`, projectID)
	var seq int
	if err := row.Scan(&seq); err != nil {
		return 0, fmt.Errorf("next seq: %w", err)
	}
	return seq, nil
}

// DeleteTask removes a task and every dependency touching it.
func (s *Store) DeleteTask(projectID, id string) error {
	if _, err := s.db.Exec(
		`DELETE FROM dependencies WHERE project_id = ? AND (predecessor_id = ? OR successor_id = ?)`,
		projectID, id, id,
	); err != nil {
		return fmt.Errorf("delete dependencies: %w", err)
	}
	res, err := s.db.Exec(`DELETE FROM tasks WHERE project_id = ? AND id = ?`, projectID, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("task %q not found in project %q", id, projectID)
	}
	return nil
}

// SetTaskProgress updates percent complete.
func (s *Store) SetTaskProgress(projectID, id string, percent float64) error {
	return s.updateTask(projectID, id, `percent_complete = ?`, percent)
}

// PinTask fixes a task's dates manually; the auto-scheduler will not
// move it without surfacing a conflict.
func (s *Store) PinTask(projectID, id string, start, finish time.Time) error {
	now := time.Now().UTC()
	res, err := s.db.Exec(
		`UPDATE tasks SET start_date = ?, finish_date = ?, auto_scheduled = 0, updated_at = ?
		 WHERE project_id = ? AND id = ?`,
		nullTime(start), nullTime(finish), now, projectID, id,
	)
	if err != nil {
		return fmt.Errorf("pin task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("task %q not found in project %q", id, projectID)
	}
	return nil
}

// UnpinTask hands a task's dates back to the auto-scheduler.
func (s *Store) UnpinTask(projectID, id string) error {
	return s.updateTask(projectID, id, `auto_scheduled = 1`)
}

// AssignTask replaces a task's assignee list.
func (s *Store) AssignTask(projectID, id string, assignees []string) error {
	data, err := json.Marshal(assignees)
	if err != nil {
		return fmt.Errorf("marshal assignees: %w", err)
	}
	return s.updateTask(projectID, id, `assignee_ids = ?`, string(data))
}

func (s *Store) updateTask(projectID, id, set string, args ...any) error {
	now := time.Now().UTC()
	args = append(args, now, projectID, id)
	res, err := s.db.Exec(
		`UPDATE tasks SET `+set+`, updated_at = ? WHERE project_id = ? AND id = ?`, args...,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("task %q not found in project %q", id, projectID)
	}
	return nil
}

// --- Dependencies ---

// AddDependency inserts an edge. The type must already be normalized.
func (s *Store) AddDependency(projectID string, e graph.Edge) error {
	_, err := s.db.Exec(
		`INSERT INTO dependencies (project_id, predecessor_id, successor_id, dep_type, lag, lag_unit)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		projectID, e.PredecessorID, e.SuccessorID, string(e.Type), e.Lag, string(e.LagUnit),
	)
	if err != nil {
		return fmt.Errorf("insert dependency: %w", err)
	}
	return nil
}

// ListDependencies returns a project's edges.
func (s *Store) ListDependencies(projectID string) ([]graph.Edge, error) {
	rows, err := s.db.Query(
		`SELECT predecessor_id, successor_id, dep_type, lag, lag_unit
		 FROM dependencies WHERE project_id = ? ORDER BY predecessor_id, successor_id, dep_type`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("query dependencies: %w", err)
	}
	defer rows.Close()

	var edges []graph.Edge
	for rows.Next() {
		var e graph.Edge
		var depType, lagUnit string
		if err := rows.Scan(&e.PredecessorID, &e.SuccessorID, &depType, &e.Lag, &lagUnit); err != nil {
			return nil, fmt.Errorf("scan dependency: %w", err)
		}
		e.Type = graph.DepType(depType)
		e.LagUnit = graph.Unit(lagUnit)
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// DeleteDependency removes one edge.
func (s *Store) DeleteDependency(projectID, predID, succID string, depType graph.DepType) error {
	res, err := s.db.Exec(
		`DELETE FROM dependencies WHERE project_id = ? AND predecessor_id = ? AND successor_id = ? AND dep_type = ?`,
		projectID, predID, succID, string(depType),
	)
	if err != nil {
		return fmt.Errorf("delete dependency: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("dependency %s -> %s (%s) not found", predID, succID, depType)
	}
	return nil
}

// --- Schedules & conflicts ---

// SaveSchedule replaces the committed schedule for a project.
func (s *Store) SaveSchedule(projectID string, rows []cpm.Timing) error {
	now := time.Now().UTC()
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM schedules WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("clear schedule: %w", err)
	}
	for _, r := range rows {
		if _, err := tx.Exec(
			`INSERT INTO schedules (project_id, task_id, earliest_start, earliest_finish,
				latest_start, latest_finish, slack, is_critical, computed_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			projectID, r.TaskID, r.EarliestStart, r.EarliestFinish,
			r.LatestStart, r.LatestFinish, r.Slack, r.IsCritical, now,
		); err != nil {
			return fmt.Errorf("insert schedule row: %w", err)
		}
	}
	return tx.Commit()
}

// GetSchedule returns the committed schedule rows for a project.
func (s *Store) GetSchedule(projectID string) (map[string]cpm.Timing, error) {
	rows, err := s.db.Query(
		`SELECT task_id, earliest_start, earliest_finish, latest_start, latest_finish, slack, is_critical
		 FROM schedules WHERE project_id = ?`, projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("query schedule: %w", err)
	}
	defer rows.Close()

	out := make(map[string]cpm.Timing)
	for rows.Next() {
		var t cpm.Timing
		if err := rows.Scan(&t.TaskID, &t.EarliestStart, &t.EarliestFinish,
			&t.LatestStart, &t.LatestFinish, &t.Slack, &t.IsCritical); err != nil {
			return nil, fmt.Errorf("scan schedule row: %w", err)
		}
		out[t.TaskID] = t
	}
	return out, rows.Err()
}

// ReplaceConflicts swaps the stored conflicts for a project with the
// latest detection results.
func (s *Store) ReplaceConflicts(projectID string, conflicts []conflict.Conflict) error {
	now := time.Now().UTC()
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM conflicts WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("clear conflicts: %w", err)
	}
	for _, c := range conflicts {
		ids, err := json.Marshal(c.TaskIDs)
		if err != nil {
			return fmt.Errorf("marshal task ids: %w", err)
		}
		if _, err := tx.Exec(
			`INSERT INTO conflicts (project_id, kind, severity, task_ids, resource_id, message, detected_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			projectID, string(c.Kind), string(c.Severity), string(ids), c.ResourceID, c.Message, now,
		); err != nil {
			return fmt.Errorf("insert conflict: %w", err)
		}
	}
	return tx.Commit()
}

// ListConflicts returns the stored conflicts for a project.
func (s *Store) ListConflicts(projectID string) ([]StoredConflict, error) {
	rows, err := s.db.Query(
		`SELECT id, project_id, kind, severity, task_ids, resource_id, message, detected_at
		 FROM conflicts WHERE project_id = ? ORDER BY id`, projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("query conflicts: %w", err)
	}
	defer rows.Close()

	var out []StoredConflict
	for rows.Next() {
		var c StoredConflict
		var ids string
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.Kind, &c.Severity, &ids, &c.ResourceID, &c.Message, &c.DetectedAt); err != nil {
			return nil, fmt.Errorf("scan conflict: %w", err)
		}
		if err := json.Unmarshal([]byte(ids), &c.TaskIDs); err != nil {
			return nil, fmt.Errorf("unmarshal task ids: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// --- Events ---

// AddEvent records a commit notification for a project.
func (s *Store) AddEvent(projectID, eventType, payload string) {
	now := time.Now().UTC()
	s.db.Exec(
		`INSERT INTO events (project_id, event_type, payload, timestamp) VALUES (?, ?, ?, ?)`,
		projectID, eventType, payload, now,
	)
}

// GetEvents returns all events for a project in order.
func (s *Store) GetEvents(projectID string) ([]Event, error) {
	rows, err := s.db.Query(
		`SELECT id, project_id, event_type, payload, timestamp FROM events WHERE project_id = ? ORDER BY id`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("get events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.Type, &e.Payload, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// scanTask reads one task row through the given scan function.
func scanTask(scan func(...any) error) (*graph.Task, error) {
	var t graph.Task
	var start, finish sql.NullTime
	var assignees string
	err := scan(
		&t.ID, &t.ProjectID, &t.Name, &t.Duration, &start, &finish, &t.PercentComplete,
		&t.OutlineLevel, &t.IsSummary, &t.IsMilestone, &t.Priority, &assignees, &t.AutoScheduled,
	)
	if err != nil {
		return nil, fmt.Errorf("scan task: %w", err)
	}
	if start.Valid {
		t.StartDate = start.Time
	}
	if finish.Valid {
		t.FinishDate = finish.Time
	}
	if assignees != "" {
		if err := json.Unmarshal([]byte(assignees), &t.AssigneeIDs); err != nil {
			return nil, fmt.Errorf("unmarshal assignees: %w", err)
		}
	}
	return &t, nil
}

// nullTime maps a zero time to NULL.
func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
