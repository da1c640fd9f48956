package tasksource

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/Jayphen/todoapp/internal/testutil"
	"github.com/Jayphen/todoapp/internal/types"
)

func newTestSource(t *testing.T, srv *testutil.FakeServer) *RESTSource {
	t.Helper()
	src, err := NewRESTSource(RESTConfig{BaseURL: srv.URL, Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("NewRESTSource failed: %v", err)
	}
	return src
}

func TestNewRESTSource(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		want    string
		wantErr bool
	}{
		{"default", "", DefaultBaseURL, false},
		{"trailing slash", "http://example.com:8000/", "http://example.com:8000", false},
		{"no scheme", "localhost:8000", "", true},
		{"garbage", "://", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := NewRESTSource(RESTConfig{BaseURL: tt.baseURL})
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if src.BaseURL() != tt.want {
				t.Errorf("BaseURL() = %q, want %q", src.BaseURL(), tt.want)
			}
			if src.Info().Type != SourceTypeREST {
				t.Errorf("Info().Type = %q", src.Info().Type)
			}
		})
	}
}

func TestRESTSource_CreateThenList(t *testing.T) {
	srv := testutil.NewFakeServer()
	defer srv.Close()
	src := newTestSource(t, srv)
	ctx := context.Background()

	created, err := src.CreateTask(ctx, types.Task{
		Title:    "Buy milk",
		DueDate:  "2025-01-01",
		Status:   types.StatusTodo,
		Priority: types.PriorityHigh,
	})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected service-assigned id")
	}

	records := srv.Records()
	if len(records) != 1 || records[0].Status != "Pending" {
		t.Fatalf("unexpected stored records: %+v", records)
	}

	tasks, err := src.ListTasks(ctx)
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	got := tasks[0]
	if got.ID != created.ID || got.Title != "Buy milk" || got.DueDate != "2025-01-01" {
		t.Errorf("unexpected task: %+v", got)
	}
	if got.Status != types.StatusTodo || got.Priority != types.PriorityHigh {
		t.Errorf("status/priority = %q/%q", got.Status, got.Priority)
	}
}

func TestRESTSource_ReplaceAndDelete(t *testing.T) {
	srv := testutil.NewFakeServer()
	defer srv.Close()
	src := newTestSource(t, srv)
	ctx := context.Background()

	id := srv.AddRecord(testutil.Record{Task: "Write report", Status: "Pending"})
	taskID := types.TaskID(strconv.Itoa(id))

	updated, err := src.ReplaceTask(ctx, taskID, types.Task{Title: "Write report", Status: types.StatusDone})
	if err != nil {
		t.Fatalf("ReplaceTask failed: %v", err)
	}
	if updated.Status != types.StatusDone {
		t.Errorf("Status = %q, want done", updated.Status)
	}
	if srv.Records()[0].Status != "Completed" {
		t.Errorf("remote status = %q, want Completed", srv.Records()[0].Status)
	}

	if err := src.DeleteTask(ctx, taskID); err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}
	if len(srv.Records()) != 0 {
		t.Error("record should be gone after delete")
	}

	if err := src.DeleteTask(ctx, taskID); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("second delete: expected ErrTaskNotFound, got %v", err)
	}
	if _, err := src.ReplaceTask(ctx, taskID, types.Task{Title: "x"}); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("replace missing: expected ErrTaskNotFound, got %v", err)
	}
}

func TestRESTSource_ErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"not found", http.StatusNotFound, ErrTaskNotFound},
		{"conflict", http.StatusConflict, ErrConflict},
		{"validation", http.StatusUnprocessableEntity, ErrValidation},
		{"bad request", http.StatusBadRequest, ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := testutil.NewFakeServer()
			defer srv.Close()
			srv.ListStatus = tt.status
			src := newTestSource(t, srv)

			_, err := src.ListTasks(context.Background())
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) || apiErr.StatusCode != tt.status {
				t.Errorf("expected wrapped APIError with status %d, got %v", tt.status, err)
			}
		})
	}

	t.Run("server error", func(t *testing.T) {
		srv := testutil.NewFakeServer()
		defer srv.Close()
		srv.CreateStatus = http.StatusInternalServerError
		src := newTestSource(t, srv)

		_, err := src.CreateTask(context.Background(), types.Task{Title: "x"})
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected APIError, got %v", err)
		}
		if apiErr.StatusCode != http.StatusInternalServerError {
			t.Errorf("StatusCode = %d", apiErr.StatusCode)
		}
		if errors.Is(err, ErrTaskNotFound) || errors.Is(err, ErrUnreachable) {
			t.Error("500 should not be classified as not found or unreachable")
		}
	})
}

func TestRESTSource_Unreachable(t *testing.T) {
	srv := testutil.NewFakeServer()
	url := srv.URL
	srv.Close()

	src, err := NewRESTSource(RESTConfig{BaseURL: url, Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewRESTSource failed: %v", err)
	}

	if _, err := src.ListTasks(context.Background()); !errors.Is(err, ErrUnreachable) {
		t.Errorf("expected ErrUnreachable, got %v", err)
	}
}

func TestRESTSource_ContextCancelled(t *testing.T) {
	srv := testutil.NewFakeServer()
	defer srv.Close()
	src := newTestSource(t, srv)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := src.ListTasks(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if errors.Is(err, ErrUnreachable) {
		t.Error("cancellation should not be reported as unreachable")
	}
}

func TestRESTSource_RequestIDs(t *testing.T) {
	srv := testutil.NewFakeServer()
	defer srv.Close()
	src := newTestSource(t, srv)
	ctx := context.Background()

	_, _ = src.ListTasks(ctx)
	_, _ = src.ListTasks(ctx)

	ids := srv.RequestIDs()
	if len(ids) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(ids))
	}
	if ids[0] == "" || ids[0] == ids[1] {
		t.Errorf("expected distinct request ids, got %q", ids)
	}
}

func TestRESTSource_UnknownStatusAndStringIDs(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"abc","task":"Odd","due_date":null,"status":"Archived","priority":null}]`))
	}))
	defer ts.Close()

	src, err := NewRESTSource(RESTConfig{BaseURL: ts.URL})
	if err != nil {
		t.Fatalf("NewRESTSource failed: %v", err)
	}

	tasks, err := src.ListTasks(context.Background())
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if tasks[0].ID != "abc" || tasks[0].Status != types.StatusTodo || tasks[0].Priority != types.PriorityUnset {
		t.Errorf("unexpected task: %+v", tasks[0])
	}
}

func TestRESTSource_LegacyServiceDropsPriority(t *testing.T) {
	srv := testutil.NewFakeServer()
	defer srv.Close()
	srv.Legacy = true
	src := newTestSource(t, srv)

	created, err := src.CreateTask(context.Background(), types.Task{Title: "Plan trip", Priority: types.PriorityHigh})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	// The service echoes what it stored; priority is not part of it.
	if created.Priority != types.PriorityUnset {
		t.Errorf("Priority = %q, want unset from a legacy service", created.Priority)
	}
}

func TestRESTSource_NonCanonicalNumericIDs(t *testing.T) {
	var gotBody []byte
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`[{"id":"007","task":"Bond","due_date":"","status":"Pending"}]`))
		case http.MethodPut:
			gotPath = r.URL.Path
			gotBody, _ = io.ReadAll(r.Body)
			_, _ = w.Write(gotBody)
		}
	}))
	defer ts.Close()

	src, err := NewRESTSource(RESTConfig{BaseURL: ts.URL})
	if err != nil {
		t.Fatalf("NewRESTSource failed: %v", err)
	}

	tasks, err := src.ListTasks(context.Background())
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != "007" {
		t.Fatalf("unexpected tasks: %+v", tasks)
	}

	task := tasks[0]
	task.Status = types.StatusDone
	updated, err := src.ReplaceTask(context.Background(), task.ID, task)
	if err != nil {
		t.Fatalf("ReplaceTask failed: %v", err)
	}
	if gotPath != "/todos/007" {
		t.Errorf("path = %q, want /todos/007", gotPath)
	}
	if !strings.Contains(string(gotBody), `"id":"007"`) {
		t.Errorf("body = %s, want the id echoed as a string", gotBody)
	}
	if updated.ID != "007" || updated.Status != types.StatusDone {
		t.Errorf("unexpected update: %+v", updated)
	}

	if _, err := json.Marshal(tasks); err != nil {
		t.Errorf("marshal tasks: %v", err)
	}
}
