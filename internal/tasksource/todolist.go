package tasksource

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/Jayphen/todoapp/internal/types"
)

// TodolistSource implements TaskSource for a markdown checklist file.
//
// Format, one task per line:
//
//	- [ ] Buy milk {id=1 due=2025-01-01 priority=high}
//	- [~] Write report {id=2}
//	- [x] Call mom {id=3}
//	  > Ask about the weekend
//
// "[ ]" is todo, "[~]" is in progress and "[x]" is done. The trailing
// attribute block is optional; lines without an id are numbered after the
// highest existing id and get it written back on the next change. Indented
// "> " lines directly below a task hold its description, one line each.
// Lines that are not tasks are preserved untouched.
type TodolistSource struct {
	filePath string
	mu       sync.Mutex
	info     SourceInfo
}

var (
	taskLineRegex = regexp.MustCompile(`^(\s*(?:[-*]\s+)?)\[( |x|X|~)\]\s*(.*?)\s*$`)
	attrsRegex    = regexp.MustCompile(`\s*\{([^{}]*)\}$`)
	descLineRegex = regexp.MustCompile(`^\s+>\s?(.*)$`)
)

// todolistLine is one line of the file, parsed.
type todolistLine struct {
	raw    string
	prefix string
	task   *types.Task
}

// NewTodolistSource creates a new todolist source from a file. The file is
// created when it does not exist yet.
func NewTodolistSource(filePath string) (*TodolistSource, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create todolist directory: %w", err)
		}
		if err := os.WriteFile(absPath, nil, 0644); err != nil {
			return nil, fmt.Errorf("failed to create todolist: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("todolist file not accessible: %w", err)
	}

	return &TodolistSource{
		filePath: absPath,
		info: SourceInfo{
			Type:        SourceTypeTodolist,
			Name:        filepath.Base(absPath),
			Description: fmt.Sprintf("Todolist file: %s", absPath),
			Config: Metadata{
				"path": absPath,
			},
		},
	}, nil
}

// Info returns metadata about this source.
func (t *TodolistSource) Info() SourceInfo {
	return t.info
}

// ListTasks returns tasks from the todolist file in file order.
func (t *TodolistSource) ListTasks(ctx context.Context) ([]types.Task, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	lines, err := t.read()
	if err != nil {
		return nil, err
	}

	var tasks []types.Task
	for _, l := range lines {
		if l.task != nil {
			tasks = append(tasks, *l.task)
		}
	}
	return tasks, nil
}

// CreateTask appends a task to the file.
func (t *TodolistSource) CreateTask(ctx context.Context, task types.Task) (types.Task, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	lines, err := t.read()
	if err != nil {
		return types.Task{}, err
	}

	task.ID = types.TaskID(strconv.Itoa(maxID(lines) + 1))
	stored := task
	lines = append(lines, todolistLine{prefix: "- ", task: &stored})

	if err := t.write(lines); err != nil {
		return types.Task{}, err
	}
	return stored, nil
}

// ReplaceTask rewrites the line holding the task with the given id.
func (t *TodolistSource) ReplaceTask(ctx context.Context, id types.TaskID, task types.Task) (types.Task, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	lines, err := t.read()
	if err != nil {
		return types.Task{}, err
	}

	for i := range lines {
		if lines[i].task != nil && lines[i].task.ID == id {
			task.ID = id
			stored := task
			lines[i].task = &stored
			if err := t.write(lines); err != nil {
				return types.Task{}, err
			}
			return stored, nil
		}
	}
	return types.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
}

// DeleteTask removes the line holding the task with the given id.
func (t *TodolistSource) DeleteTask(ctx context.Context, id types.TaskID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	lines, err := t.read()
	if err != nil {
		return err
	}

	for i := range lines {
		if lines[i].task != nil && lines[i].task.ID == id {
			lines = append(lines[:i], lines[i+1:]...)
			return t.write(lines)
		}
	}
	return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
}

// Close cleans up resources (no-op for todolist).
func (t *TodolistSource) Close() error {
	return nil
}

// read parses the file. Tasks without an id are numbered in file order.
func (t *TodolistSource) read() ([]todolistLine, error) {
	file, err := os.Open(t.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open todolist: %w", err)
	}
	defer file.Close()

	var lines []todolistLine
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		text := scanner.Text()
		if n := len(lines); n > 0 && lines[n-1].task != nil {
			if m := descLineRegex.FindStringSubmatch(text); m != nil {
				task := lines[n-1].task
				if task.Description == "" {
					task.Description = m[1]
				} else {
					task.Description += "\n" + m[1]
				}
				continue
			}
		}
		lines = append(lines, parseTodolistLine(text))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading todolist: %w", err)
	}

	next := maxID(lines) + 1
	for i := range lines {
		if lines[i].task != nil && lines[i].task.ID == "" {
			lines[i].task.ID = types.TaskID(strconv.Itoa(next))
			next++
		}
	}
	return lines, nil
}

// write renders all lines back to the file via a temp file and rename.
func (t *TodolistSource) write(lines []todolistLine) error {
	var b strings.Builder
	for _, l := range lines {
		if l.task == nil {
			b.WriteString(l.raw)
		} else {
			b.WriteString(renderTodolistTask(l.prefix, *l.task))
		}
		b.WriteString("\n")
	}

	tmp := t.filePath + ".tmp"
	if err := os.WriteFile(tmp, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write todolist: %w", err)
	}
	if err := os.Rename(tmp, t.filePath); err != nil {
		return fmt.Errorf("failed to replace todolist: %w", err)
	}
	return nil
}

func parseTodolistLine(line string) todolistLine {
	matches := taskLineRegex.FindStringSubmatch(line)
	if matches == nil {
		return todolistLine{raw: line}
	}

	var status types.Status
	switch matches[2] {
	case "x", "X":
		status = types.StatusDone
	case "~":
		status = types.StatusInProgress
	default:
		status = types.StatusTodo
	}

	title := matches[3]
	task := &types.Task{Status: status}

	if attrs := attrsRegex.FindStringSubmatch(title); attrs != nil {
		title = strings.TrimSpace(strings.TrimSuffix(title, attrs[0]))
		for _, field := range strings.Fields(attrs[1]) {
			kv := strings.SplitN(field, "=", 2)
			if len(kv) != 2 {
				continue
			}
			switch kv[0] {
			case "id":
				task.ID = types.TaskID(kv[1])
			case "due":
				task.DueDate = kv[1]
			case "priority":
				task.Priority = types.PriorityFromWire(kv[1])
			}
		}
	}

	if title == "" {
		return todolistLine{raw: line}
	}
	task.Title = title

	return todolistLine{raw: line, prefix: matches[1], task: task}
}

func renderTodolistTask(prefix string, task types.Task) string {
	mark := " "
	switch task.Status {
	case types.StatusDone:
		mark = "x"
	case types.StatusInProgress:
		mark = "~"
	}

	attrs := []string{"id=" + string(task.ID)}
	if task.DueDate != "" {
		attrs = append(attrs, "due="+task.DueDate)
	}
	if task.Priority != types.PriorityUnset {
		attrs = append(attrs, "priority="+string(task.Priority))
	}
	sort.Strings(attrs[1:])

	// A task owns exactly one line, so whitespace runs in the title fold
	// to single spaces.
	title := strings.Join(strings.Fields(task.Title), " ")

	var b strings.Builder
	fmt.Fprintf(&b, "%s[%s] %s {%s}", prefix, mark, title, strings.Join(attrs, " "))

	if desc := strings.TrimSpace(task.Description); desc != "" {
		indent := prefix[:len(prefix)-len(strings.TrimLeft(prefix, " \t"))] + "  "
		for _, line := range strings.Split(desc, "\n") {
			b.WriteString("\n" + indent + "> " + strings.TrimRight(line, " \t\r"))
		}
	}
	return b.String()
}

func maxID(lines []todolistLine) int {
	highest := 0
	for _, l := range lines {
		if l.task == nil {
			continue
		}
		if n, err := strconv.Atoi(string(l.task.ID)); err == nil && n > highest {
			highest = n
		}
	}
	return highest
}
