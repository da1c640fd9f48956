package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Jayphen/todoapp/internal/tasklist"
	"github.com/Jayphen/todoapp/internal/types"
)

// Form fields in focus order.
const (
	fieldTitle = iota
	fieldDescription
	fieldDue
	fieldPriority
	fieldStatus
	fieldCount
)

// taskForm collects the fields for one task. editing is empty when the
// form creates a new task.
type taskForm struct {
	title       textinput.Model
	description textinput.Model
	due         textinput.Model
	priority    types.Priority
	status      types.Status
	focus       int
	editing     types.TaskID
	err         string
}

func newTaskForm() taskForm {
	title := textinput.New()
	title.Placeholder = "What needs doing?"
	title.CharLimit = 200
	title.Width = 48

	desc := textinput.New()
	desc.Placeholder = "optional"
	desc.CharLimit = 500
	desc.Width = 48

	due := textinput.New()
	due.Placeholder = "YYYY-MM-DD"
	due.CharLimit = 10
	due.Width = 12

	f := taskForm{title: title, description: desc, due: due}
	f.Reset()
	return f
}

// Reset clears every field back to its default.
func (f *taskForm) Reset() {
	f.title.SetValue("")
	f.description.SetValue("")
	f.due.SetValue("")
	f.priority = types.PriorityMedium
	f.status = types.StatusTodo
	f.editing = ""
	f.err = ""
	f.setFocus(fieldTitle)
}

// Load fills the form from an existing task for editing.
func (f *taskForm) Load(t types.Task) {
	f.Reset()
	f.title.SetValue(t.Title)
	f.description.SetValue(t.Description)
	f.due.SetValue(t.DueDate)
	if t.Priority != types.PriorityUnset {
		f.priority = t.Priority
	}
	if t.Status.Valid() {
		f.status = t.Status
	}
	f.editing = t.ID
	f.title.CursorEnd()
}

// Editing reports whether the form edits an existing task.
func (f taskForm) Editing() bool {
	return f.editing != ""
}

func (f *taskForm) setFocus(field int) {
	f.focus = (field + fieldCount) % fieldCount
	f.title.Blur()
	f.description.Blur()
	f.due.Blur()
	switch f.focus {
	case fieldTitle:
		f.title.Focus()
	case fieldDescription:
		f.description.Focus()
	case fieldDue:
		f.due.Focus()
	}
}

// Draft returns the current fields.
func (f taskForm) Draft() tasklist.Draft {
	return tasklist.Draft{
		Title:       strings.TrimSpace(f.title.Value()),
		Description: strings.TrimSpace(f.description.Value()),
		DueDate:     strings.TrimSpace(f.due.Value()),
		Priority:    f.priority,
		Status:      f.status,
	}
}

// Validate checks the fields that would be rejected before any request.
func (f taskForm) Validate() error {
	d := f.Draft()
	if d.Title == "" {
		return fmt.Errorf("title is required")
	}
	if err := types.ValidateDueDate(d.DueDate); err != nil {
		return err
	}
	return nil
}

// update routes a key to the focused field. submit is true when the user
// pressed enter on a valid form.
func (f taskForm) update(msg tea.KeyMsg) (taskForm, tea.Cmd, bool) {
	switch msg.String() {
	case "tab", "down":
		f.setFocus(f.focus + 1)
		return f, textinput.Blink, false
	case "shift+tab", "up":
		f.setFocus(f.focus - 1)
		return f, textinput.Blink, false
	case "enter":
		if err := f.Validate(); err != nil {
			f.err = err.Error()
			return f, nil, false
		}
		f.err = ""
		return f, nil, true
	case "left", "right":
		switch f.focus {
		case fieldPriority:
			if msg.String() == "right" {
				f.priority = f.priority.Next()
			} else {
				f.priority = f.priority.Prev()
			}
			return f, nil, false
		case fieldStatus:
			if msg.String() == "right" {
				f.status = f.status.Next()
			} else {
				f.status = prevStatus(f.status)
			}
			return f, nil, false
		}
	}

	var cmd tea.Cmd
	switch f.focus {
	case fieldTitle:
		f.title, cmd = f.title.Update(msg)
	case fieldDescription:
		f.description, cmd = f.description.Update(msg)
	case fieldDue:
		f.due, cmd = f.due.Update(msg)
	}
	return f, cmd, false
}

func prevStatus(s types.Status) types.Status {
	return s.Next().Next()
}
