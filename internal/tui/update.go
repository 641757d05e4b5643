package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case refreshedMsg:
		m.out = msg.out
		m.tasks = msg.tasks
		m.clampCursor()
		return m, nil

	case rescheduledMsg:
		if msg.moved == 0 {
			m.statusMsg = "Nothing to move"
		} else {
			m.statusMsg = pluralf("Moved %d task", msg.moved) + ", " + pluralf("resolved %d conflict", msg.resolved)
		}
		return m, m.refresh()

	case errMsg:
		m.statusMsg = "Error: " + msg.err.Error()
		return m, nil

	case tea.KeyMsg:
		if m.filtering {
			return m.updateFilter(msg)
		}
		return m.updateKeys(msg)
	}

	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "tab":
		if m.focused == panelTimeline {
			m.focused = panelConflicts
		} else {
			m.focused = panelTimeline
		}
		m.cursor = 0
		return m, nil

	case "up", "k":
		m.cursor--
		m.clampCursor()
		return m, nil

	case "down", "j":
		m.cursor++
		m.clampCursor()
		return m, nil

	case "g":
		m.cursor = 0
		return m, nil

	case "G":
		m.cursor = 1 << 30
		m.clampCursor()
		return m, nil

	case "/":
		m.filtering = true
		m.filterInput.Focus()
		return m, nil

	case "r":
		m.statusMsg = "Recomputing..."
		return m, m.refresh()

	case "a":
		m.statusMsg = "Auto-rescheduling..."
		return m, m.reschedule()

	case "esc":
		if m.filterInput.Value() != "" {
			m.filterInput.SetValue("")
			m.clampCursor()
		}
		m.statusMsg = ""
		return m, nil
	}

	return m, nil
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.filtering = false
		m.filterInput.Blur()
		m.clampCursor()
		return m, nil
	case "esc":
		m.filtering = false
		m.filterInput.Blur()
		m.filterInput.SetValue("")
		m.clampCursor()
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	m.clampCursor()
	return m, cmd
}
