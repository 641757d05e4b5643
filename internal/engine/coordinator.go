package engine

import "sync"

// Coordinator enforces the caller-boundary concurrency rule: at most
// one in-flight scheduling recomputation per project, with unlimited
// concurrent reads of the last committed output. Each project gets its
// own lock, so recomputes for different projects run in parallel while
// recomputes for the same project run in order, each on its own
// snapshot.
type Coordinator struct {
	engine *Engine

	mu       sync.RWMutex
	last     map[string]*Output
	projects map[string]*sync.Mutex
}

// NewCoordinator wraps an engine with per-project serialization.
func NewCoordinator(e *Engine) *Coordinator {
	return &Coordinator{
		engine:   e,
		last:     make(map[string]*Output),
		projects: make(map[string]*sync.Mutex),
	}
}

// Recompute runs a schedule computation for the project and commits the
// output as the project's last known schedule. Concurrent calls for the
// same project are serialized; every caller gets the output of its own
// snapshot, never a result computed from someone else's.
func (c *Coordinator) Recompute(snap *Snapshot) (*Output, error) {
	lock := c.projectLock(snap.ProjectID)
	lock.Lock()
	defer lock.Unlock()

	out, err := c.engine.Schedule(snap)
	if err != nil {
		return nil, err
	}
	c.commit(snap.ProjectID, out)
	return out, nil
}

// Last returns the most recently committed output for a project.
// Reads never block recomputation.
func (c *Coordinator) Last(projectID string) (*Output, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out, ok := c.last[projectID]
	return out, ok
}

func (c *Coordinator) projectLock(projectID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.projects[projectID]
	if !ok {
		l = &sync.Mutex{}
		c.projects[projectID] = l
	}
	return l
}

func (c *Coordinator) commit(projectID string, out *Output) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last[projectID] = out
}
