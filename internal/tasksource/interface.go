package tasksource

import (
	"context"

	"github.com/Jayphen/todoapp/internal/types"
)

// TaskSource is the interface every task backend implements. The remote
// task service is the canonical one; other sources speak the same
// replace-by-id contract so the list state can work with any of them.
type TaskSource interface {
	// Info returns metadata about this task source.
	Info() SourceInfo

	// ListTasks returns the full collection in source order.
	ListTasks(ctx context.Context) ([]types.Task, error)

	// CreateTask persists a new task and returns the stored record,
	// including the identifier assigned by the source.
	CreateTask(ctx context.Context, task types.Task) (types.Task, error)

	// ReplaceTask replaces the record with the given id and returns the
	// stored record. It is a full replacement, not a patch.
	ReplaceTask(ctx context.Context, id types.TaskID, task types.Task) (types.Task, error)

	// DeleteTask removes the record with the given id.
	DeleteTask(ctx context.Context, id types.TaskID) error

	// Close cleans up any resources held by this source.
	Close() error
}
