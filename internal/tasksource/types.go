// Package tasksource provides the task backends the client can talk to:
// the remote REST task service and a local todolist file.
package tasksource

import "github.com/Jayphen/todoapp/internal/types"

// SourceType identifies which kind of backend a source talks to.
type SourceType string

const (
	SourceTypeREST     SourceType = "rest"     // Remote task service over HTTP
	SourceTypeTodolist SourceType = "todolist" // Markdown checklist file
)

// Metadata stores source-specific data.
type Metadata map[string]interface{}

// SourceInfo provides metadata about a task source.
type SourceInfo struct {
	Type        SourceType `json:"type"`
	Name        string     `json:"name"`        // Display name
	Description string     `json:"description"` // What this source provides
	Config      Metadata   `json:"config"`      // Source-specific config
}

// remoteTask is the wire shape of a task record.
type remoteTask struct {
	ID          types.TaskID `json:"id,omitempty"`
	Task        string       `json:"task"`
	DueDate     string       `json:"due_date"`
	Status      string       `json:"status"`
	Priority    string       `json:"priority,omitempty"`
	Description string       `json:"description,omitempty"`
}

// toRemote converts a canonical task into its wire shape.
func toRemote(t types.Task) remoteTask {
	return remoteTask{
		ID:          t.ID,
		Task:        t.Title,
		DueDate:     t.DueDate,
		Status:      t.Status.Remote(),
		Priority:    string(t.Priority),
		Description: t.Description,
	}
}

// fromRemote converts a wire record into a canonical task. ok is false when
// the status string was not part of the known vocabulary.
func fromRemote(r remoteTask) (task types.Task, ok bool) {
	status, ok := types.StatusFromRemote(r.Status)
	return types.Task{
		ID:          r.ID,
		Title:       r.Task,
		Description: r.Description,
		DueDate:     r.DueDate,
		Status:      status,
		Priority:    types.PriorityFromWire(r.Priority),
	}, ok
}
