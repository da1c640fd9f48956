// Package types defines the core data types used throughout the todo client.
package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidStatus is returned when a status string is not recognized.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrInvalidPriority is returned when a priority string is not recognized.
	ErrInvalidPriority = errors.New("invalid priority")

	// ErrInvalidDueDate is returned when a due date is not in YYYY-MM-DD form.
	ErrInvalidDueDate = errors.New("invalid due date")
)

// DueDateLayout is the wire and display layout for due dates.
const DueDateLayout = "2006-01-02"

// Status is the local task state. It is translated to the remote
// vocabulary only at the service boundary.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

// Remote status vocabulary accepted and returned by the task service.
const (
	RemotePending    = "Pending"
	RemoteInProgress = "In Progress"
	RemoteCompleted  = "Completed"
)

// Statuses lists the local statuses in display order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusDone}

// ParseStatus parses a local status name. It also accepts the remote
// vocabulary and a few common spellings.
func ParseStatus(s string) (Status, error) {
	switch normalize(s) {
	case "todo", "to do", "pending", "open":
		return StatusTodo, nil
	case "in-progress", "in progress", "in_progress", "inprogress", "doing":
		return StatusInProgress, nil
	case "done", "completed", "complete":
		return StatusDone, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// StatusFromRemote maps a remote status string to a local status.
// Unknown values map to StatusTodo and ok is false.
func StatusFromRemote(s string) (status Status, ok bool) {
	switch normalize(s) {
	case "pending":
		return StatusTodo, true
	case "in progress":
		return StatusInProgress, true
	case "completed":
		return StatusDone, true
	}
	return StatusTodo, false
}

// Remote returns the remote vocabulary for the status.
func (s Status) Remote() string {
	switch s {
	case StatusInProgress:
		return RemoteInProgress
	case StatusDone:
		return RemoteCompleted
	default:
		return RemotePending
	}
}

// Label returns the human readable text for the status.
func (s Status) Label() string {
	switch s {
	case StatusInProgress:
		return "In Progress"
	case StatusDone:
		return "Done"
	default:
		return "To Do"
	}
}

// Next cycles todo -> in-progress -> done -> todo.
func (s Status) Next() Status {
	switch s {
	case StatusTodo:
		return StatusInProgress
	case StatusInProgress:
		return StatusDone
	default:
		return StatusTodo
	}
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusTodo || s == StatusInProgress || s == StatusDone
}

// Priority is an explicit task priority, persisted as its own field.
type Priority string

const (
	PriorityUnset  Priority = ""
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists the settable priorities in ascending order.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// ParsePriority parses a priority name. Empty input is an error; use
// PriorityFromWire for values coming from the service.
func ParsePriority(s string) (Priority, error) {
	switch normalize(s) {
	case "low", "l":
		return PriorityLow, nil
	case "medium", "med", "m":
		return PriorityMedium, nil
	case "high", "h":
		return PriorityHigh, nil
	}
	return PriorityUnset, fmt.Errorf("%w: %q", ErrInvalidPriority, s)
}

// PriorityFromWire decodes a priority sent by the service. Missing or
// unknown values decode to PriorityUnset.
func PriorityFromWire(s string) Priority {
	p, err := ParsePriority(s)
	if err != nil {
		return PriorityUnset
	}
	return p
}

// Label returns the capitalized priority name, or an em dash when unset.
func (p Priority) Label() string {
	switch p {
	case PriorityLow:
		return "Low"
	case PriorityMedium:
		return "Medium"
	case PriorityHigh:
		return "High"
	default:
		return "—"
	}
}

// Rank orders priorities: unset < low < medium < high.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	default:
		return 0
	}
}

// Next cycles low -> medium -> high -> low. Unset starts at low.
func (p Priority) Next() Priority {
	switch p {
	case PriorityLow:
		return PriorityMedium
	case PriorityMedium:
		return PriorityHigh
	default:
		return PriorityLow
	}
}

// Prev cycles in the opposite direction of Next.
func (p Priority) Prev() Priority {
	switch p {
	case PriorityHigh:
		return PriorityMedium
	case PriorityMedium:
		return PriorityLow
	default:
		return PriorityHigh
	}
}

// TaskID is the opaque identifier assigned by the task service. The
// service uses integers; they round-trip as JSON numbers.
type TaskID string

// UnmarshalJSON accepts either a JSON number or a JSON string.
func (id *TaskID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = TaskID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("task id: %w", err)
	}
	*id = TaskID(n.String())
	return nil
}

// MarshalJSON emits canonical integers as numbers and everything else,
// including "007" and "+5", as strings.
func (id TaskID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// Task is the canonical task model shared by every view.
type Task struct {
	ID          TaskID    `json:"id"`
	Title       string    `json:"task"`
	Description string    `json:"description,omitempty"`
	DueDate     string    `json:"dueDate,omitempty"`
	Status      Status    `json:"status"`
	Priority    Priority  `json:"priority,omitempty"`
	CreatedAt   time.Time `json:"createdAt"` // client-side only, never sent to the service
}

// IsDone reports whether the task is completed.
func (t Task) IsDone() bool {
	return t.Status == StatusDone
}

// Due parses the due date. ok is false when no due date is set.
func (t Task) Due() (due time.Time, ok bool) {
	if t.DueDate == "" {
		return time.Time{}, false
	}
	d, err := time.Parse(DueDateLayout, t.DueDate)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// ValidateDueDate checks that s is empty or a YYYY-MM-DD date.
func ValidateDueDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := time.Parse(DueDateLayout, s); err != nil {
		return fmt.Errorf("%w: %q (want YYYY-MM-DD)", ErrInvalidDueDate, s)
	}
	return nil
}

// Sender identifies who wrote a chat message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// ChatMessage is one entry in the chat transcript.
type ChatMessage struct {
	ID        int       `json:"id"`
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
