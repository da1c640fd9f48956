package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Jayphen/todoapp/internal/chat"
	"github.com/Jayphen/todoapp/internal/notify"
	"github.com/Jayphen/todoapp/internal/tasklist"
	"github.com/Jayphen/todoapp/internal/types"
)

// Views
const (
	ViewDashboard = "dashboard"
	ViewLegacy    = "legacy"
)

type mode int

const (
	modeList mode = iota
	modeForm
	modeConfirmDelete
	modeChat
)

// Options configures a Model.
type Options struct {
	Version  string
	View     string
	State    *tasklist.State
	Relay    *chat.Relay       // nil disables the chat panel
	Notifier *notify.Notifier  // nil disables notifications
	Context  context.Context   // parent of every request; Background when nil
}

// Model is the Bubbletea model for the TUI.
type Model struct {
	// Data
	state         *tasklist.State
	tasks         []types.Task
	summary       tasklist.Summary
	filter        tasklist.Filter
	selectedIndex int

	// UI state
	view          string
	mode          mode
	loading       bool
	err           error
	statusMessage string
	statusIsError bool
	statusExpiry  time.Time
	form          taskForm
	width, height int
	version       string

	// Chat
	relay       *chat.Relay
	chatInput   textinput.Model
	chatHistory []types.ChatMessage
	chatSending bool

	// Components
	spinner spinner.Model

	// Dependencies
	notifier *notify.Notifier
	ctx      context.Context
}

// Messages
type (
	tasksLoadedMsg struct{ err error }
	taskSavedMsg   struct {
		action string
		task   types.Task
		err    error
	}
	taskRemovedMsg struct {
		id  types.TaskID
		err error
	}
	chatReplyMsg struct {
		reply types.ChatMessage
		err   error
	}
	chatHistoryMsg struct {
		messages []types.ChatMessage
		err      error
	}
	statusClearMsg struct{}
)

// NewModel creates a new TUI model.
func NewModel(opts Options) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ColorCyan)

	ti := textinput.New()
	ti.Placeholder = "Ask the To-Do Bot..."
	ti.CharLimit = 500
	ti.Width = 60

	view := opts.View
	if view != ViewLegacy {
		view = ViewDashboard
	}

	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	return Model{
		state:     opts.State,
		relay:     opts.Relay,
		notifier:  opts.Notifier,
		ctx:       ctx,
		version:   opts.Version,
		view:      view,
		loading:   true,
		spinner:   s,
		chatInput: ti,
		form:      newTaskForm(),
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.loadTasks(),
	)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tasksLoadedMsg:
		m.loading = false
		if msg.err != nil {
			if !m.state.Loaded() {
				m.err = msg.err
			}
			cmd := m.setError("Reload failed", msg.err)
			return m, cmd
		}
		m.err = nil
		m.refresh()
		return m, nil

	case taskSavedMsg:
		if msg.err != nil {
			cmd := m.setError(msg.action+" failed", msg.err)
			return m, cmd
		}
		m.refresh()
		m.selectTask(msg.task.ID)
		if msg.action != "Create" && msg.action != "Update" {
			m.notifier.TaskCompleted(msg.task)
		}
		cmd := m.setStatus(fmt.Sprintf("%s: %s", savedVerb(msg.action, msg.task), msg.task.Title))
		return m, cmd

	case taskRemovedMsg:
		if msg.err != nil {
			cmd := m.setError("Delete failed", msg.err)
			return m, cmd
		}
		m.refresh()
		cmd := m.setStatus("Task deleted")
		return m, cmd

	case chatReplyMsg:
		m.chatSending = false
		var cmd tea.Cmd
		if msg.err != nil && !errors.Is(msg.err, chat.ErrEmptyMessage) {
			cmd = m.setError("Chat failed", msg.err)
		}
		return m, tea.Batch(cmd, m.loadChatHistory())

	case chatHistoryMsg:
		if msg.err != nil {
			cmd := m.setError("Chat history unavailable", msg.err)
			return m, cmd
		}
		m.chatHistory = msg.messages
		return m, nil

	case statusClearMsg:
		if time.Now().After(m.statusExpiry) {
			m.statusMessage = ""
			m.statusIsError = false
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	// Keep text inputs blinking
	switch m.mode {
	case modeChat:
		var cmd tea.Cmd
		m.chatInput, cmd = m.chatInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// handleKey handles keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.mode {
	case modeForm:
		return m.handleFormKey(msg)
	case modeConfirmDelete:
		return m.handleConfirmKey(msg)
	case modeChat:
		return m.handleChatKey(msg)
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "up", "k":
		if m.selectedIndex > 0 {
			m.selectedIndex--
		}
		return m, nil

	case "down", "j":
		if m.selectedIndex < len(m.tasks)-1 {
			m.selectedIndex++
		}
		return m, nil

	case "a":
		m.form.Reset()
		m.mode = modeForm
		return m, textinput.Blink

	case "e":
		task, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		m.form.Load(task)
		m.mode = modeForm
		return m, textinput.Blink

	case "d":
		if _, ok := m.selectedTask(); ok {
			m.mode = modeConfirmDelete
		}
		return m, nil

	case " ", "x":
		task, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		if m.view == ViewLegacy {
			if task.IsDone() {
				cmd := m.setStatus("Already completed")
				return m, cmd
			}
			return m, m.mutate("Complete", task.ID, m.state.Complete)
		}
		return m, m.mutate("Toggle", task.ID, m.state.Toggle)

	case "s":
		task, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		return m, m.mutate("Status change", task.ID, m.state.Advance)

	case "f":
		m.filter = m.filter.Next()
		m.refresh()
		return m, nil

	case "1", "2", "3", "4":
		m.filter = tasklist.Filters[int(msg.String()[0]-'1')]
		m.refresh()
		return m, nil

	case "v":
		if m.view == ViewDashboard {
			m.view = ViewLegacy
		} else {
			m.view = ViewDashboard
		}
		return m, nil

	case "c":
		if m.relay == nil {
			cmd := m.setStatus("Chat is not configured")
			return m, cmd
		}
		m.mode = modeChat
		m.chatInput.Focus()
		return m, tea.Batch(textinput.Blink, m.loadChatHistory())

	case "r":
		m.loading = true
		return m, m.loadTasks()
	}

	return m, nil
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.form.Reset()
		m.mode = modeList
		cmd := m.setStatus("Cancelled")
		return m, cmd
	}

	var cmd tea.Cmd
	var submit bool
	m.form, cmd, submit = m.form.update(msg)
	if !submit {
		return m, cmd
	}

	draft := m.form.Draft()
	editing := m.form.editing
	m.form.Reset()
	m.mode = modeList

	if editing != "" {
		return m, m.updateTask(editing, draft)
	}
	return m, m.createTask(draft)
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.mode = modeList
		task, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		return m, m.removeTask(task.ID)
	case "n", "N", "enter", "esc":
		m.mode = modeList
		cmd := m.setStatus("Cancelled")
		return m, cmd
	}
	return m, nil
}

func (m Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeList
		m.chatInput.Blur()
		return m, nil
	case "enter":
		text := strings.TrimSpace(m.chatInput.Value())
		if text == "" || m.chatSending {
			return m, nil
		}
		m.chatInput.SetValue("")
		m.chatSending = true
		m.chatHistory = append(m.chatHistory, types.ChatMessage{
			Sender:    types.SenderUser,
			Text:      text,
			Timestamp: time.Now(),
		})
		return m, m.sendChat(text)
	}

	var cmd tea.Cmd
	m.chatInput, cmd = m.chatInput.Update(msg)
	return m, cmd
}

// Helper methods

// refresh rebuilds the visible rows from the shared state.
func (m *Model) refresh() {
	m.tasks = m.state.Filter(m.filter)
	m.summary = m.state.Summary()
	if m.selectedIndex >= len(m.tasks) {
		m.selectedIndex = len(m.tasks) - 1
	}
	if m.selectedIndex < 0 {
		m.selectedIndex = 0
	}
}

func (m *Model) selectTask(id types.TaskID) {
	for i, t := range m.tasks {
		if t.ID == id {
			m.selectedIndex = i
			return
		}
	}
}

func (m Model) selectedTask() (types.Task, bool) {
	if m.selectedIndex >= 0 && m.selectedIndex < len(m.tasks) {
		return m.tasks[m.selectedIndex], true
	}
	return types.Task{}, false
}

func (m *Model) setStatus(msg string) tea.Cmd {
	m.statusMessage = msg
	m.statusIsError = false
	m.statusExpiry = time.Now().Add(3 * time.Second)
	return clearStatusAfter(3 * time.Second)
}

func (m *Model) setError(prefix string, err error) tea.Cmd {
	m.statusMessage = fmt.Sprintf("%s: %v", prefix, err)
	m.statusIsError = true
	m.statusExpiry = time.Now().Add(6 * time.Second)
	return clearStatusAfter(6 * time.Second)
}

func savedVerb(action string, task types.Task) string {
	switch action {
	case "Create":
		return "Added"
	case "Update":
		return "Saved"
	}
	return task.Status.Label()
}

// Commands

func clearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return statusClearMsg{}
	})
}

func (m Model) loadTasks() tea.Cmd {
	state, ctx := m.state, m.ctx
	return func() tea.Msg {
		return tasksLoadedMsg{err: state.Load(ctx)}
	}
}

func (m Model) createTask(d tasklist.Draft) tea.Cmd {
	state, ctx := m.state, m.ctx
	return func() tea.Msg {
		task, err := state.Create(ctx, d)
		return taskSavedMsg{action: "Create", task: task, err: err}
	}
}

func (m Model) updateTask(id types.TaskID, d tasklist.Draft) tea.Cmd {
	state, ctx := m.state, m.ctx
	return func() tea.Msg {
		task, err := state.Update(ctx, id, d)
		return taskSavedMsg{action: "Update", task: task, err: err}
	}
}

func (m Model) mutate(action string, id types.TaskID, op func(context.Context, types.TaskID) (types.Task, error)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		task, err := op(ctx, id)
		return taskSavedMsg{action: action, task: task, err: err}
	}
}

func (m Model) removeTask(id types.TaskID) tea.Cmd {
	state, ctx := m.state, m.ctx
	return func() tea.Msg {
		return taskRemovedMsg{id: id, err: state.Remove(ctx, id)}
	}
}

func (m Model) sendChat(text string) tea.Cmd {
	relay, ctx := m.relay, m.ctx
	return func() tea.Msg {
		reply, err := relay.Send(ctx, text)
		return chatReplyMsg{reply: reply, err: err}
	}
}

func (m Model) loadChatHistory() tea.Cmd {
	relay, ctx := m.relay, m.ctx
	if relay == nil {
		return nil
	}
	return func() tea.Msg {
		msgs, err := relay.History(ctx)
		return chatHistoryMsg{messages: msgs, err: err}
	}
}

// Run starts the TUI on the alternate screen.
func Run(opts Options) error {
	p := tea.NewProgram(NewModel(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
