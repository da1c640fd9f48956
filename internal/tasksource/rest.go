package tasksource

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Jayphen/todoapp/internal/logging"
	"github.com/Jayphen/todoapp/internal/types"
)

const (
	// DefaultBaseURL is where the task service listens by default.
	DefaultBaseURL = "http://localhost:8000"

	// DefaultTimeout bounds every request to the task service.
	DefaultTimeout = 10 * time.Second

	todosPath = "/todos/"

	// maxErrorBody caps how much of an error response is kept.
	maxErrorBody = 4 << 10
)

// RESTSource implements TaskSource against the remote task service.
type RESTSource struct {
	baseURL string
	client  *http.Client
	info    SourceInfo
}

// RESTConfig holds configuration for the REST source.
type RESTConfig struct {
	BaseURL string        // Service base URL, e.g. http://localhost:8000
	Timeout time.Duration // Per-request timeout (DefaultTimeout when zero)
	Client  *http.Client  // Optional client; Timeout is ignored when set
}

// NewRESTSource creates a new REST source.
func NewRESTSource(config RESTConfig) (*RESTSource, error) {
	base := strings.TrimRight(strings.TrimSpace(config.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}

	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: bad base url %q", ErrInvalidConfig, config.BaseURL)
	}

	client := config.Client
	if client == nil {
		timeout := config.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	return &RESTSource{
		baseURL: base,
		client:  client,
		info: SourceInfo{
			Type:        SourceTypeREST,
			Name:        u.Host,
			Description: fmt.Sprintf("Task service at %s", base),
			Config: Metadata{
				"url": base,
			},
		},
	}, nil
}

// Info returns metadata about this source.
func (r *RESTSource) Info() SourceInfo {
	return r.info
}

// BaseURL returns the normalized service base URL.
func (r *RESTSource) BaseURL() string {
	return r.baseURL
}

// ListTasks returns every task the service holds.
func (r *RESTSource) ListTasks(ctx context.Context) ([]types.Task, error) {
	var records []remoteTask
	if err := r.do(ctx, http.MethodGet, todosPath, nil, &records); err != nil {
		return nil, err
	}

	tasks := make([]types.Task, 0, len(records))
	for _, rec := range records {
		tasks = append(tasks, r.convert(rec))
	}
	return tasks, nil
}

// CreateTask creates a task and returns the record assigned by the service.
func (r *RESTSource) CreateTask(ctx context.Context, task types.Task) (types.Task, error) {
	body := toRemote(task)
	body.ID = ""

	var created remoteTask
	if err := r.do(ctx, http.MethodPost, todosPath, body, &created); err != nil {
		return types.Task{}, err
	}
	if created.ID == "" {
		return types.Task{}, fmt.Errorf("create task: service returned no id")
	}
	return r.convert(created), nil
}

// ReplaceTask replaces the task with the given id.
func (r *RESTSource) ReplaceTask(ctx context.Context, id types.TaskID, task types.Task) (types.Task, error) {
	if id == "" {
		return types.Task{}, fmt.Errorf("%w: empty id", ErrTaskNotFound)
	}

	body := toRemote(task)
	body.ID = id

	var updated remoteTask
	if err := r.do(ctx, http.MethodPut, taskPath(id), body, &updated); err != nil {
		return types.Task{}, err
	}
	if updated.ID == "" {
		updated.ID = id
	}
	return r.convert(updated), nil
}

// DeleteTask deletes the task with the given id.
func (r *RESTSource) DeleteTask(ctx context.Context, id types.TaskID) error {
	if id == "" {
		return fmt.Errorf("%w: empty id", ErrTaskNotFound)
	}
	return r.do(ctx, http.MethodDelete, taskPath(id), nil, nil)
}

// Close releases idle connections.
func (r *RESTSource) Close() error {
	r.client.CloseIdleConnections()
	return nil
}

func taskPath(id types.TaskID) string {
	return "/todos/" + url.PathEscape(string(id))
}

func (r *RESTSource) convert(rec remoteTask) types.Task {
	task, ok := fromRemote(rec)
	if !ok {
		logging.WithComponent("tasksource").
			WithTaskID(string(rec.ID)).
			WithField("status", rec.Status).
			Warn("unknown remote status, treating as pending")
	}
	return task
}

// do executes a JSON request against the service. out may be nil when the
// response body is not needed.
func (r *RESTSource) do(ctx context.Context, method, path string, in, out interface{}) error {
	endpoint := r.baseURL + path
	requestID := uuid.NewString()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log := logging.WithComponent("tasksource").WithFields(map[string]interface{}{
		"method":     method,
		"url":        endpoint,
		"request_id": requestID,
	})

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		// Cancellation belongs to the caller, not the service.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		log.WithError(err).Debug("request failed")
		return fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	log = log.WithFields(map[string]interface{}{
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		log.Debug("request rejected")
		return classifyStatus(&APIError{
			Method:     method,
			URL:        endpoint,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
		})
	}

	log.Debug("request ok")

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to parse response from %s: empty body", endpoint)
		}
		return fmt.Errorf("failed to parse response from %s: %w", endpoint, err)
	}
	return nil
}
