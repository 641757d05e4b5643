package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/vkmindia80/critpath/internal/cpm"
)

// --- Color palette ---
var (
	clrSubtle    = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#666666"}
	clrHighlight = lipgloss.AdaptiveColor{Light: "#0F766E", Dark: "#2DD4BF"}
	clrGreen     = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	clrYellow    = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#F59E0B"}
	clrRed       = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}
	clrBlue      = lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#60A5FA"}
	clrDim       = lipgloss.AdaptiveColor{Light: "#999999", Dark: "#555555"}
)

// --- Styles ---
var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(clrHighlight)
	dimStyle    = lipgloss.NewStyle().Foreground(clrDim)
	subtleStyle = lipgloss.NewStyle().Foreground(clrSubtle)

	criticalStyle = lipgloss.NewStyle().Foreground(clrRed).Bold(true)
	barStyle      = lipgloss.NewStyle().Foreground(clrBlue)
	doneStyle     = lipgloss.NewStyle().Foreground(clrGreen)
	warnStyle     = lipgloss.NewStyle().Foreground(clrYellow)

	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(clrHighlight)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(clrSubtle).
			Padding(0, 1)

	panelFocusedStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(clrHighlight).
				Padding(0, 1)

	statusStyle = lipgloss.NewStyle().Foreground(clrGreen).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(clrRed).Bold(true)

	footerKeyStyle  = lipgloss.NewStyle().Bold(true).Foreground(clrHighlight)
	footerDescStyle = lipgloss.NewStyle().Foreground(clrSubtle)
)

const timelineBarWidth = 40

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	// Header.
	header := titleStyle.Render("critpath") + dimStyle.Render("  project "+m.project)
	if m.out != nil {
		header += dimStyle.Render(fmt.Sprintf("   %d tasks", len(m.tasks)))
	}
	b.WriteString(header + "\n\n")

	if m.out == nil {
		b.WriteString(dimStyle.Render("  No tasks yet. Add some with: critpath task add\n"))
		b.WriteString("\n" + m.footer())
		return b.String()
	}

	b.WriteString(m.viewTimeline())
	b.WriteString("\n")
	b.WriteString(m.viewConflicts())
	b.WriteString("\n")
	b.WriteString(m.viewStats())

	if m.filtering || m.filterInput.Value() != "" {
		b.WriteString("\n  / " + m.filterInput.View())
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		if strings.HasPrefix(m.statusMsg, "Error") {
			b.WriteString(errorStyle.Render("  " + m.statusMsg))
		} else {
			b.WriteString(statusStyle.Render("  " + m.statusMsg))
		}
	}

	b.WriteString("\n" + m.footer())
	return b.String()
}

func (m Model) viewTimeline() string {
	timing := make(map[string]cpm.Timing, len(m.out.Timing))
	minStart, maxFinish := int64(0), int64(0)
	for i, row := range m.out.Timing {
		timing[row.TaskID] = row
		if i == 0 || row.EarliestStart < minStart {
			minStart = row.EarliestStart
		}
		if row.EarliestFinish > maxFinish {
			maxFinish = row.EarliestFinish
		}
	}
	span := maxFinish - minStart
	if span <= 0 {
		span = 1
	}

	var b strings.Builder
	tasks := m.visibleTasks()
	for i, t := range tasks {
		row, ok := timing[t.ID]
		if !ok {
			continue
		}

		cursor := "  "
		label := fmt.Sprintf("%-12s", truncate(t.ID, 12))
		if m.focused == panelTimeline && i == m.cursor {
			cursor = selectedStyle.Render("> ")
			label = selectedStyle.Render(label)
		}

		bar := renderBar(row, minStart, span)
		style := barStyle
		switch {
		case row.IsCritical:
			style = criticalStyle
		case t.PercentComplete >= 100:
			style = doneStyle
		}

		date := subtleStyle.Render(cpm.FromMinutes(row.EarliestStart).Format("01-02"))
		b.WriteString(fmt.Sprintf("%s%s %s %s\n", cursor, label, date, style.Render(bar)))
	}
	if len(tasks) == 0 {
		b.WriteString(dimStyle.Render("  no tasks match the filter\n"))
	}

	style := panelStyle
	if m.focused == panelTimeline {
		style = panelFocusedStyle
	}
	return style.Render(strings.TrimRight(b.String(), "\n"))
}

func renderBar(row cpm.Timing, minStart, span int64) string {
	lead := int((row.EarliestStart - minStart) * timelineBarWidth / span)
	length := int((row.EarliestFinish - row.EarliestStart) * timelineBarWidth / span)
	if lead >= timelineBarWidth {
		lead = timelineBarWidth - 1
	}
	if length <= 0 {
		return strings.Repeat(" ", lead) + "◆"
	}
	if lead+length > timelineBarWidth {
		length = timelineBarWidth - lead
	}
	return strings.Repeat(" ", lead) + strings.Repeat("█", length)
}

func (m Model) viewConflicts() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Conflicts") + "\n")

	if len(m.out.Conflicts) == 0 {
		b.WriteString(doneStyle.Render("  none") + "\n")
	}
	for i, c := range m.out.Conflicts {
		cursor := "  "
		if m.focused == panelConflicts && i == m.cursor {
			cursor = selectedStyle.Render("> ")
		}
		sev := severityStyle(string(c.Severity)).Render(strings.ToUpper(string(c.Severity)))
		b.WriteString(fmt.Sprintf("%s%-8s %s\n", cursor, sev, c.Message))
	}

	style := panelStyle
	if m.focused == panelConflicts {
		style = panelFocusedStyle
	}
	return style.Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) viewStats() string {
	st := m.out.Stats
	health := fmt.Sprintf("%.0f/100", st.TimelineHealthScore)
	switch {
	case st.TimelineHealthScore >= 80:
		health = doneStyle.Render(health)
	case st.TimelineHealthScore >= 50:
		health = warnStyle.Render(health)
	default:
		health = criticalStyle.Render(health)
	}

	parts := []string{
		fmt.Sprintf("done %d/%d", st.CompletedTasks, st.TotalTasks),
		fmt.Sprintf("complete %.0f%%", st.CompletionRate),
		fmt.Sprintf("overdue %d", st.OverdueCount),
		"health " + health,
	}
	return subtleStyle.Render("  ") + dimStyle.Render(strings.Join(parts[:3], "   ")) + "   " + parts[3]
}

func (m Model) footer() string {
	keys := [][2]string{
		{"tab", "switch pane"},
		{"j/k", "move"},
		{"/", "filter"},
		{"r", "recompute"},
		{"a", "auto-reschedule"},
		{"q", "quit"},
	}
	var parts []string
	for _, k := range keys {
		parts = append(parts, footerKeyStyle.Render(k[0])+footerDescStyle.Render(" "+k[1]))
	}
	return "  " + strings.Join(parts, "  ")
}

func severityStyle(severity string) lipgloss.Style {
	switch severity {
	case "critical", "high":
		return criticalStyle
	case "medium":
		return warnStyle
	default:
		return dimStyle
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func pluralf(format string, n int) string {
	out := fmt.Sprintf(format, n)
	if n != 1 {
		out += "s"
	}
	return out
}
