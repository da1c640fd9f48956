package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/Jayphen/todoapp/internal/chat"
	"github.com/Jayphen/todoapp/internal/tasklist"
	"github.com/Jayphen/todoapp/internal/types"
)

const (
	// EmptyText is shown when no task matches the filter.
	EmptyText = "No tasks found. Add a new task to get started!"
	// LoadingText is shown until the first load finishes.
	LoadingText = "Loading tasks..."

	chatVisibleMessages = 8
)

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	switch m.mode {
	case modeForm:
		b.WriteString(m.renderForm())
		b.WriteString("\n\n")
	case modeConfirmDelete:
		b.WriteString(m.renderConfirmDialog())
		b.WriteString("\n\n")
	}

	if m.err != nil {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	} else if m.view == ViewLegacy {
		b.WriteString(m.renderLegacyTable())
	} else {
		b.WriteString(m.renderFilterBar())
		b.WriteString("\n\n")
		b.WriteString(m.renderTaskList())
		b.WriteString("\n")
		b.WriteString(m.renderSummary())
	}

	if m.mode == modeChat {
		b.WriteString("\n")
		b.WriteString(m.renderChat())
	}

	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())

	return lipgloss.NewStyle().Padding(1).Render(b.String())
}

// renderHeader renders the application header.
func (m Model) renderHeader() string {
	title := TitleStyle.Render("Tasks")
	version := ""
	if m.version != "" {
		version = " " + SubtitleStyle.Render("v"+m.version)
	}
	subtitle := SubtitleStyle.Render(m.view + " view")
	if src := m.state.Source(); src != nil {
		subtitle += DimStyle.Render("  ·  " + src.Info().Description)
	}
	return title + version + "\n" + subtitle
}

// renderFilterBar renders the status filter tabs.
func (m Model) renderFilterBar() string {
	tabs := make([]string, 0, len(tasklist.Filters))
	for i, f := range tasklist.Filters {
		label := fmt.Sprintf("%d %s", i+1, f.Label())
		if f == m.filter {
			tabs = append(tabs, ActiveFilterStyle.Render(label))
		} else {
			tabs = append(tabs, FilterStyle.Render(label))
		}
	}
	return strings.Join(tabs, "   ")
}

// renderTaskList renders the dashboard rows.
func (m Model) renderTaskList() string {
	if m.loading && !m.state.Loaded() {
		return m.spinner.View() + " " + LoadingText
	}

	if len(m.tasks) == 0 {
		style := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorGray).
			Padding(1, 2).
			Foreground(ColorGray)
		return style.Render(EmptyText)
	}

	var b strings.Builder
	for i := range m.tasks {
		b.WriteString(m.renderTaskRow(i))
		b.WriteString("\n")
	}
	return b.String()
}

// renderTaskRow renders a single dashboard row.
func (m Model) renderTaskRow(index int) string {
	t := m.tasks[index]
	isSelected := index == m.selectedIndex

	selector := "  "
	if isSelected {
		selector = SelectedStyle.Render(IndicatorSelected + " ")
	}

	check := IndicatorUnchecked
	if t.IsDone() {
		check = IndicatorChecked
	}

	titleWidth := m.titleWidth()
	title := ansi.Truncate(t.Title, titleWidth, "…")
	switch {
	case t.IsDone():
		title = DoneTitleStyle.Render(title)
	case isSelected:
		title = SelectedStyle.Render(title)
	}

	priority := GetPriorityStyle(t.Priority).Render(padRight(IndicatorPriority+" "+t.Priority.Label(), 9))

	due := DimStyle.Render(padRight("", 15))
	if t.DueDate != "" {
		due = DimStyle.Render(padRight("due "+t.DueDate, 15))
	}

	pill := GetStatusStyle(t.Status).Render("(" + t.Status.Label() + ")")

	line := selector + check + " " + padRight(title, titleWidth) + "  " + priority + " " + due + " " + pill

	if t.Description != "" && t.Description != t.Title {
		desc := ansi.Truncate(t.Description, titleWidth, "…")
		line += "\n" + strings.Repeat(" ", 6) + DimStyle.Render(desc)
	}
	return line
}

func (m Model) titleWidth() int {
	const fixed = 2 + 3 + 1 + 2 + 9 + 1 + 15 + 1 + 13 + 2
	if m.width <= 0 {
		return 40
	}
	w := m.width - fixed
	if w < 16 {
		return 16
	}
	if w > 60 {
		return 60
	}
	return w
}

// renderSummary renders the counts panel.
func (m Model) renderSummary() string {
	total, progress, done := "...", "...", "..."
	if !m.loading || m.state.Loaded() {
		total = fmt.Sprint(m.summary.Total)
		progress = fmt.Sprint(m.summary.InProgress)
		done = fmt.Sprint(m.summary.Done)
	}

	row := func(label, value string) string {
		return DimStyle.Width(14).Render(label) + BoldStyle.Render(value)
	}

	body := strings.Join([]string{
		row("Total", total),
		row("In Progress", progress),
		row("Completed", done),
	}, "\n")

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDimGray).
		Padding(0, 2).
		Render(body)
}

// renderLegacyTable renders the plain table with raw service statuses.
func (m Model) renderLegacyTable() string {
	if m.loading && !m.state.Loaded() {
		return m.spinner.View() + " " + LoadingText
	}

	const (
		taskWidth   = 36
		dueWidth    = 12
		statusWidth = 14
	)

	var b strings.Builder
	header := "  " + padRight("TASK", taskWidth) + " | " + padRight("DUE DATE", dueWidth) + " | " + padRight("STATUS", statusWidth) + " | ACTIONS"
	b.WriteString(DimStyle.Bold(true).Render(header))
	b.WriteString("\n")

	if len(m.tasks) == 0 {
		b.WriteString(DimStyle.Render("  " + EmptyText))
		b.WriteString("\n")
		return b.String()
	}

	for i, t := range m.tasks {
		selector := "  "
		if i == m.selectedIndex {
			selector = SelectedStyle.Render(IndicatorSelected + " ")
		}
		actions := "Edit  Delete"
		if !t.IsDone() {
			actions += "  Complete"
		}
		due := t.DueDate
		if due == "" {
			due = "-"
		}
		b.WriteString(selector)
		b.WriteString(padRight(ansi.Truncate(t.Title, taskWidth, "…"), taskWidth))
		b.WriteString(" | ")
		b.WriteString(padRight(due, dueWidth))
		b.WriteString(" | ")
		b.WriteString(GetStatusStyle(t.Status).Render(padRight(t.Status.Remote(), statusWidth)))
		b.WriteString(" | ")
		b.WriteString(DimStyle.Render(actions))
		b.WriteString("\n")
	}
	return b.String()
}

// renderForm renders the add/edit dialog.
func (m Model) renderForm() string {
	var b strings.Builder

	heading := "Add a new task"
	if m.form.Editing() {
		heading = "Edit task"
	}
	b.WriteString(lipgloss.NewStyle().Foreground(ColorCyan).Render(heading))
	b.WriteString("\n\n")

	label := func(field int, text string) string {
		style := DimStyle.Width(14)
		if m.form.focus == field {
			style = SelectedStyle.Width(14)
		}
		return style.Render(text)
	}

	b.WriteString(label(fieldTitle, "Title") + m.form.title.View() + "\n")
	b.WriteString(label(fieldDescription, "Description") + m.form.description.View() + "\n")
	b.WriteString(label(fieldDue, "Due date") + m.form.due.View() + "\n")
	b.WriteString(label(fieldPriority, "Priority") + choice(GetPriorityStyle(m.form.priority).Render(m.form.priority.Label()), m.form.focus == fieldPriority) + "\n")

	status := m.form.status.Label()
	if m.view == ViewLegacy {
		status = m.form.status.Remote()
	}
	b.WriteString(label(fieldStatus, "Status") + choice(GetStatusStyle(m.form.status).Render(status), m.form.focus == fieldStatus) + "\n")

	if m.form.err != "" {
		b.WriteString("\n" + ErrorStyle.Render(m.form.err) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(DimStyle.Render("tab next field, ←/→ change, enter save, esc cancel"))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorCyan).
		Padding(1, 2).
		Render(b.String())
}

func choice(value string, focused bool) string {
	if focused {
		return "‹ " + value + " ›"
	}
	return "  " + value
}

// renderConfirmDialog renders the delete confirmation.
func (m Model) renderConfirmDialog() string {
	title := ""
	if t, ok := m.selectedTask(); ok {
		title = t.Title
	}
	msg := fmt.Sprintf("Delete %q? (y/n)", ansi.Truncate(title, 40, "…"))

	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorYellow).
		Padding(1, 2).
		Foreground(ColorYellow)

	return style.Render(msg)
}

// renderChat renders the chat panel.
func (m Model) renderChat() string {
	var b strings.Builder
	b.WriteString(BotStyle.Render(chat.BotName))
	b.WriteString("\n\n")

	history := m.chatHistory
	if len(history) > chatVisibleMessages {
		history = history[len(history)-chatVisibleMessages:]
	}
	if len(history) == 0 {
		b.WriteString(DimStyle.Render("Ask about your tasks."))
		b.WriteString("\n")
	}

	width := m.chatWidth()
	for _, msg := range history {
		name := UserStyle.Render(chat.DisplayName(msg.Sender) + ": ")
		if msg.Sender == types.SenderBot {
			name = BotStyle.Render(chat.DisplayName(msg.Sender) + ": ")
		}
		b.WriteString(name)
		b.WriteString(ansi.Truncate(msg.Text, width, "…"))
		b.WriteString("\n")
	}
	if m.chatSending {
		b.WriteString(m.spinner.View() + DimStyle.Render(" thinking..."))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.chatInput.View())

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorMagenta).
		Padding(0, 1).
		Render(b.String())
}

func (m Model) chatWidth() int {
	if m.width <= 0 {
		return 72
	}
	if w := m.width - 20; w > 20 {
		return w
	}
	return 20
}

// renderStatusBar renders the bottom status bar.
func (m Model) renderStatusBar() string {
	var help []string
	switch m.mode {
	case modeChat:
		help = []string{
			HelpKeyStyle.Render("↵") + " send",
			HelpKeyStyle.Render("esc") + " back",
		}
	case modeForm, modeConfirmDelete:
		help = nil
	default:
		toggle := " toggle"
		if m.view == ViewLegacy {
			toggle = " complete"
		}
		help = []string{
			HelpKeyStyle.Render("↑↓/jk") + " nav",
			HelpKeyStyle.Render("a") + " add",
			HelpKeyStyle.Render("e") + " edit",
			HelpKeyStyle.Render("d") + " delete",
			HelpKeyStyle.Render("x") + toggle,
			HelpKeyStyle.Render("s") + " status",
			HelpKeyStyle.Render("f/1-4") + " filter",
			HelpKeyStyle.Render("v") + " view",
			HelpKeyStyle.Render("c") + " chat",
			HelpKeyStyle.Render("r") + " reload",
			HelpKeyStyle.Render("q") + " quit",
		}
	}

	sep := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), true, false, false, false).
		BorderForeground(ColorGray).
		PaddingTop(1)

	var b strings.Builder
	if m.statusMessage != "" {
		if m.statusIsError {
			b.WriteString(ErrorStyle.Render(m.statusMessage))
		} else {
			b.WriteString(StatusMsgStyle.Render(m.statusMessage))
		}
		b.WriteString("\n")
	}
	b.WriteString(DimStyle.Render(fmt.Sprintf("%d shown, %d total", len(m.tasks), m.summary.Total)))
	if len(help) > 0 {
		b.WriteString("  ")
		b.WriteString(DimStyle.Render(strings.Join(help, "  ")))
	}

	return sep.Render(b.String())
}

// padRight pads s to width visible cells.
func padRight(s string, width int) string {
	visible := ansi.StringWidth(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}
