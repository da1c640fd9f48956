// Package tasklist keeps the in-memory task collection a view works from
// and reconciles it with a task source.
//
// The collection only changes after the source has acknowledged a write.
// Failures are logged and returned; the collection is left untouched.
package tasklist

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/Jayphen/todoapp/internal/logging"
	"github.com/Jayphen/todoapp/internal/tasksource"
	"github.com/Jayphen/todoapp/internal/types"
)

// Draft holds the form fields for a create or update.
type Draft struct {
	Title       string
	Description string
	DueDate     string
	Priority    types.Priority
	Status      types.Status // empty: todo on create, unchanged on update
}

// Filter selects tasks by status. The zero value matches everything.
type Filter struct {
	Status types.Status
}

// FilterAll matches every task.
var FilterAll = Filter{}

// Filters lists the filter choices in display order.
var Filters = []Filter{
	FilterAll,
	{Status: types.StatusTodo},
	{Status: types.StatusInProgress},
	{Status: types.StatusDone},
}

// Label returns the display name of the filter.
func (f Filter) Label() string {
	if f.Status == "" {
		return "All"
	}
	return f.Status.Label()
}

// Match reports whether the task passes the filter.
func (f Filter) Match(t types.Task) bool {
	return f.Status == "" || t.Status == f.Status
}

// Next returns the filter after f in display order.
func (f Filter) Next() Filter {
	for i, candidate := range Filters {
		if candidate == f {
			return Filters[(i+1)%len(Filters)]
		}
	}
	return FilterAll
}

// ParseFilter parses "all" or a status name.
func ParseFilter(s string) (Filter, error) {
	if s == "" || strings.EqualFold(strings.TrimSpace(s), "all") {
		return FilterAll, nil
	}
	status, err := types.ParseStatus(s)
	if err != nil {
		return FilterAll, err
	}
	return Filter{Status: status}, nil
}

// Orders accepted by Sort.
const (
	OrderService  = "service"
	OrderPriority = "priority"
	OrderDue      = "due"
)

// Sort returns a copy of tasks in the given order. Priority puts high
// first and unset last; due puts the earliest date first and undated tasks
// last. Ties keep service order.
func Sort(tasks []types.Task, order string) ([]types.Task, error) {
	out := make([]types.Task, len(tasks))
	copy(out, tasks)

	switch strings.ToLower(strings.TrimSpace(order)) {
	case "", OrderService:
	case OrderPriority:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Priority.Rank() > out[j].Priority.Rank()
		})
	case OrderDue:
		sort.SliceStable(out, func(i, j int) bool {
			di, iok := out[i].Due()
			dj, jok := out[j].Due()
			if iok != jok {
				return iok
			}
			return iok && di.Before(dj)
		})
	default:
		return nil, fmt.Errorf("unknown order %q (want service, priority or due)", order)
	}
	return out, nil
}

// Summary counts tasks by status.
type Summary struct {
	Total      int
	Todo       int
	InProgress int
	Done       int
}

// State is the in-memory task collection for one view. It is safe for
// concurrent use. Source calls run outside the lock and nothing orders
// them, so when two writes race the local update applied last wins.
type State struct {
	source tasksource.TaskSource
	now    func() time.Time

	mu     sync.RWMutex
	tasks  []types.Task
	loaded bool
}

// New creates an empty State backed by source.
func New(source tasksource.TaskSource) *State {
	return &State{
		source: source,
		now:    time.Now,
	}
}

// Source returns the underlying task source.
func (s *State) Source() tasksource.TaskSource {
	return s.source
}

// Loaded reports whether at least one Load has succeeded.
func (s *State) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Load fetches the full collection and replaces the local one. Tasks that
// were already known keep their CreatedAt.
func (s *State) Load(ctx context.Context) error {
	log := logging.WithComponent("tasklist").WithField("op", "load")

	remote, err := s.source.ListTasks(ctx)
	if err != nil {
		log.WithError(err).Warn("failed to load tasks")
		return fmt.Errorf("load tasks: %w", err)
	}

	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	known := make(map[types.TaskID]time.Time, len(s.tasks))
	for _, t := range s.tasks {
		known[t.ID] = t.CreatedAt
	}

	tasks := make([]types.Task, 0, len(remote))
	for _, t := range remote {
		if created, ok := known[t.ID]; ok {
			t.CreatedAt = created
		} else {
			t.CreatedAt = now
		}
		tasks = append(tasks, t)
	}

	s.tasks = tasks
	s.loaded = true
	log.WithField("count", len(tasks)).Debug("tasks loaded")
	return nil
}

// Create validates the draft, creates it at the source and appends the
// stored record to the end of the collection.
func (s *State) Create(ctx context.Context, d Draft) (types.Task, error) {
	log := logging.WithComponent("tasklist").WithField("op", "create")

	task, err := d.task()
	if err != nil {
		return types.Task{}, err
	}
	if task.Status == "" {
		task.Status = types.StatusTodo
	}
	if task.Priority == types.PriorityUnset {
		task.Priority = types.PriorityMedium
	}

	created, err := s.source.CreateTask(ctx, task)
	if err != nil {
		log.WithError(err).Warn("failed to create task")
		return types.Task{}, fmt.Errorf("create task: %w", err)
	}
	created.CreatedAt = s.now()

	s.mu.Lock()
	s.tasks = append(s.tasks, created)
	s.mu.Unlock()

	log.WithTaskID(string(created.ID)).Debug("task created")
	return created, nil
}

// Update replaces the task with the given id with the draft's fields and
// merges the stored record into the local entry.
func (s *State) Update(ctx context.Context, id types.TaskID, d Draft) (types.Task, error) {
	current, ok := s.Get(id)
	if !ok {
		return types.Task{}, fmt.Errorf("update task %s: %w", id, tasksource.ErrTaskNotFound)
	}

	task, err := d.task()
	if err != nil {
		return types.Task{}, err
	}
	if task.Status == "" {
		task.Status = current.Status
	}
	if task.Priority == types.PriorityUnset {
		task.Priority = current.Priority
	}

	return s.replace(ctx, id, task, "update")
}

// SetStatus re-sends the full current record with only the status changed.
func (s *State) SetStatus(ctx context.Context, id types.TaskID, status types.Status) (types.Task, error) {
	if !status.Valid() {
		return types.Task{}, fmt.Errorf("%w: %q", types.ErrInvalidStatus, status)
	}

	current, ok := s.Get(id)
	if !ok {
		return types.Task{}, fmt.Errorf("set status of %s: %w", id, tasksource.ErrTaskNotFound)
	}

	current.Status = status
	return s.replace(ctx, id, current, "set_status")
}

// Complete marks the task done.
func (s *State) Complete(ctx context.Context, id types.TaskID) (types.Task, error) {
	return s.SetStatus(ctx, id, types.StatusDone)
}

// Toggle flips a task between done and todo.
func (s *State) Toggle(ctx context.Context, id types.TaskID) (types.Task, error) {
	current, ok := s.Get(id)
	if !ok {
		return types.Task{}, fmt.Errorf("toggle %s: %w", id, tasksource.ErrTaskNotFound)
	}
	if current.IsDone() {
		return s.SetStatus(ctx, id, types.StatusTodo)
	}
	return s.SetStatus(ctx, id, types.StatusDone)
}

// Advance moves a task to the next status: todo, in progress, done, todo.
func (s *State) Advance(ctx context.Context, id types.TaskID) (types.Task, error) {
	current, ok := s.Get(id)
	if !ok {
		return types.Task{}, fmt.Errorf("advance %s: %w", id, tasksource.ErrTaskNotFound)
	}
	return s.SetStatus(ctx, id, current.Status.Next())
}

// Remove deletes the task at the source and drops it from the collection.
func (s *State) Remove(ctx context.Context, id types.TaskID) error {
	log := logging.WithComponent("tasklist").WithTaskID(string(id)).WithField("op", "remove")

	if err := s.source.DeleteTask(ctx, id); err != nil {
		log.WithError(err).Warn("failed to remove task")
		return fmt.Errorf("remove task %s: %w", id, err)
	}

	s.mu.Lock()
	kept := s.tasks[:0:0]
	for _, t := range s.tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	s.tasks = kept
	s.mu.Unlock()

	log.Debug("task removed")
	return nil
}

// Tasks returns a copy of the collection in order.
func (s *State) Tasks() []types.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Len returns the number of tasks in the collection.
func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// Get returns the task with the given id.
func (s *State) Get(id types.TaskID) (types.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return types.Task{}, false
}

// Filter returns the tasks matching f, in collection order.
func (s *State) Filter(f Filter) []types.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []types.Task
	for _, t := range s.tasks {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// Summary counts the collection by status.
func (s *State) Summary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum := Summary{Total: len(s.tasks)}
	for _, t := range s.tasks {
		switch t.Status {
		case types.StatusInProgress:
			sum.InProgress++
		case types.StatusDone:
			sum.Done++
		default:
			sum.Todo++
		}
	}
	return sum
}

// replace sends a full replacement and merges the result locally.
func (s *State) replace(ctx context.Context, id types.TaskID, task types.Task, op string) (types.Task, error) {
	log := logging.WithComponent("tasklist").WithTaskID(string(id)).WithField("op", op)

	stored, err := s.source.ReplaceTask(ctx, id, task)
	if err != nil {
		log.WithError(err).Warn("failed to replace task")
		return types.Task{}, fmt.Errorf("%s task %s: %w", strings.ReplaceAll(op, "_", " "), id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			stored.CreatedAt = s.tasks[i].CreatedAt
			s.tasks[i] = stored
			log.Debug("task replaced")
			return stored, nil
		}
	}

	// Removed locally while the request was in flight; the source still
	// accepted the write, so report it without resurrecting the entry.
	log.Debug("task replaced remotely but no longer held locally")
	return stored, nil
}

func (d Draft) task() (types.Task, error) {
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return types.Task{}, fmt.Errorf("%w: title is required", tasksource.ErrValidation)
	}
	if strings.IndexFunc(title, unicode.IsControl) >= 0 {
		return types.Task{}, fmt.Errorf("%w: title must be a single line", tasksource.ErrValidation)
	}

	due := strings.TrimSpace(d.DueDate)
	if err := types.ValidateDueDate(due); err != nil {
		return types.Task{}, fmt.Errorf("%w: %w", tasksource.ErrValidation, err)
	}

	if d.Status != "" && !d.Status.Valid() {
		return types.Task{}, fmt.Errorf("%w: %w", tasksource.ErrValidation, fmt.Errorf("%w: %q", types.ErrInvalidStatus, d.Status))
	}

	return types.Task{
		Title:       title,
		Description: strings.TrimSpace(d.Description),
		DueDate:     due,
		Priority:    d.Priority,
		Status:      d.Status,
	}, nil
}
