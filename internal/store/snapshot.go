package store

import (
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/vkmindia80/critpath/internal/autosched"
	"github.com/vkmindia80/critpath/internal/engine"
	"github.com/vkmindia80/critpath/internal/graph"
)

// Snapshot assembles the in-memory scheduling input for a project. The
// three loads are independent queries, so they run concurrently.
func (s *Store) Snapshot(projectID string, capacity map[string]float64) (*engine.Snapshot, error) {
	var (
		p     *Project
		tasks []*graph.Task
		edges []graph.Edge
	)
	var g errgroup.Group
	g.Go(func() error {
		var err error
		if p, err = s.GetProject(projectID); err != nil {
			return fmt.Errorf("load project: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if tasks, err = s.ListTasks(projectID); err != nil {
			return fmt.Errorf("load tasks: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if edges, err = s.ListDependencies(projectID); err != nil {
			return fmt.Errorf("load dependencies: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := &engine.Snapshot{
		ProjectID:        projectID,
		Unit:             p.Unit,
		ProjectStart:     p.ProjectStart,
		Deadline:         p.Deadline,
		Tasks:            tasks,
		ResourceCapacity: capacity,
	}
	for _, e := range edges {
		snap.Dependencies = append(snap.Dependencies, engine.DependencyRecordFromEdge(e))
	}
	return snap, nil
}

// ApplyReschedule writes the auto-scheduler's output back: every task
// in the result is upserted with its new dates and pin state.
func (s *Store) ApplyReschedule(projectID string, res *autosched.Result) error {
	for _, t := range res.Tasks {
		// Keep the stored outline position for known tasks.
		var seq int
		row := s.db.QueryRow(`SELECT seq FROM tasks WHERE project_id = ? AND id = ?`, projectID, t.ID)
		if err := row.Scan(&seq); err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("read task seq: %w", err)
			}
			if seq, err = s.NextSeq(projectID); err != nil {
				return err
			}
		}
		if err := s.UpsertTask(t, seq); err != nil {
			return err
		}
	}
	if res.Timing != nil {
		rows := res.Timing.Rows()
		if err := s.SaveSchedule(projectID, rows); err != nil {
			return err
		}
	}
	return s.ReplaceConflicts(projectID, res.UnresolvedConflicts)
}
