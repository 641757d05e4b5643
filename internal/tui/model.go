package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/vkmindia80/critpath/internal/engine"
	"github.com/vkmindia80/critpath/internal/graph"
	"github.com/vkmindia80/critpath/internal/store"
)

// panel represents which pane has focus.
type panel int

const (
	panelTimeline panel = iota
	panelConflicts
)

// Model is the top-level bubbletea model for the dashboard.
type Model struct {
	store    *store.Store
	sched    *engine.Coordinator
	project  string
	capacity map[string]float64

	width  int
	height int

	// Focus and navigation.
	focused panel
	cursor  int

	// Last computed schedule.
	out   *engine.Output
	tasks []*graph.Task

	// Task filter ("/" to edit).
	filterInput textinput.Model
	filtering   bool

	// Status message at the bottom.
	statusMsg string

	quitting bool
}

// New creates a new dashboard model.
func New(s *store.Store, sched *engine.Coordinator, project string, capacity map[string]float64) Model {
	fi := textinput.New()
	fi.Placeholder = "filter tasks..."
	fi.CharLimit = 60
	fi.Width = 30

	return Model{
		store:       s,
		sched:       sched,
		project:     project,
		capacity:    capacity,
		filterInput: fi,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.refresh()
}

type refreshedMsg struct {
	out   *engine.Output
	tasks []*graph.Task
}

type rescheduledMsg struct {
	moved    int
	resolved int
}

type errMsg struct {
	err error
}

// refresh recomputes the schedule from the stored graph.
func (m Model) refresh() tea.Cmd {
	return func() tea.Msg {
		snap, err := m.store.Snapshot(m.project, m.capacity)
		if err != nil {
			return errMsg{err}
		}
		if len(snap.Tasks) == 0 {
			return refreshedMsg{out: nil, tasks: nil}
		}
		out, err := m.sched.Recompute(snap)
		if err != nil {
			return errMsg{err}
		}
		return refreshedMsg{out: out, tasks: snap.Tasks}
	}
}

// reschedule runs the auto-scheduler and persists the repaired plan.
func (m Model) reschedule() tea.Cmd {
	return func() tea.Msg {
		snap, err := m.store.Snapshot(m.project, m.capacity)
		if err != nil {
			return errMsg{err}
		}
		res, _, err := engine.New().Reschedule(snap)
		if err != nil {
			return errMsg{err}
		}
		if err := m.store.ApplyReschedule(m.project, res); err != nil {
			return errMsg{err}
		}
		return rescheduledMsg{moved: len(res.UpdatedTasks), resolved: res.ConflictsResolved}
	}
}

// visibleTasks applies the filter to the stored outline order.
func (m *Model) visibleTasks() []*graph.Task {
	filter := m.filterInput.Value()
	if filter == "" {
		return m.tasks
	}
	var out []*graph.Task
	for _, t := range m.tasks {
		if containsFold(t.ID, filter) || containsFold(t.Name, filter) {
			out = append(out, t)
		}
	}
	return out
}

func (m *Model) clampCursor() {
	max := len(m.visibleTasks())
	if m.focused == panelConflicts && m.out != nil {
		max = len(m.out.Conflicts)
	}
	if m.cursor >= max {
		m.cursor = max - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}
