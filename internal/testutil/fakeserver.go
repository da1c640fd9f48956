// Package testutil provides testing utilities.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
)

// Record is a task as the fake service stores it.
type Record struct {
	ID          int    `json:"id"`
	Task        string `json:"task"`
	DueDate     string `json:"due_date"`
	Status      string `json:"status"`
	Priority    string `json:"priority,omitempty"`
	Description string `json:"description,omitempty"`
}

// FakeServer is an in-process implementation of the task service REST
// contract plus the chat endpoint, backed by an httptest.Server.
type FakeServer struct {
	*httptest.Server

	mu      sync.Mutex
	records []Record
	nextID  int
	chats   []string
	reqIDs  []string

	// Legacy drops priority and description on write, like a service whose
	// record model only has id, task, due_date and status.
	Legacy bool

	// Error injection: when non-zero the matching endpoint answers with
	// this status code instead of doing its work.
	ListStatus   int
	CreateStatus int
	UpdateStatus int
	DeleteStatus int
	ChatStatus   int

	// ChatReply produces the assistant reply. Defaults to an echo.
	ChatReply func(message string) string
}

// NewFakeServer starts a fake task service. Callers must Close it.
func NewFakeServer() *FakeServer {
	f := &FakeServer{nextID: 1}
	mux := http.NewServeMux()
	mux.HandleFunc("/todos/", f.handleTodos)
	mux.HandleFunc("/chat", f.handleChat)
	f.Server = httptest.NewServer(mux)
	return f
}

// AddRecord seeds a record and returns its assigned id.
func (f *FakeServer) AddRecord(r Record) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	r.ID = f.nextID
	f.nextID++
	f.records = append(f.records, f.stored(r))
	return r.ID
}

// Records returns a copy of the stored records.
func (f *FakeServer) Records() []Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Record, len(f.records))
	copy(out, f.records)
	return out
}

// ChatMessages returns every message the chat endpoint received.
func (f *FakeServer) ChatMessages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.chats...)
}

// RequestIDs returns the X-Request-ID headers seen, in order.
func (f *FakeServer) RequestIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.reqIDs...)
}

func (f *FakeServer) stored(r Record) Record {
	if f.Legacy {
		r.Priority = ""
		r.Description = ""
	}
	return r
}

func (f *FakeServer) handleTodos(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.reqIDs = append(f.reqIDs, r.Header.Get("X-Request-ID"))

	rest := strings.TrimPrefix(r.URL.Path, "/todos/")
	if rest == "" {
		switch r.Method {
		case http.MethodGet:
			if f.ListStatus != 0 {
				writeDetail(w, f.ListStatus, "list failed")
				return
			}
			writeJSON(w, http.StatusOK, append([]Record{}, f.records...))
		case http.MethodPost:
			if f.CreateStatus != 0 {
				writeDetail(w, f.CreateStatus, "create failed")
				return
			}
			var rec Record
			if err := json.NewDecoder(r.Body).Decode(&rec); err != nil || rec.Task == "" {
				writeDetail(w, http.StatusUnprocessableEntity, "invalid todo")
				return
			}
			rec.ID = f.nextID
			f.nextID++
			rec = f.stored(rec)
			f.records = append(f.records, rec)
			writeJSON(w, http.StatusOK, rec)
		default:
			writeDetail(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	id, err := strconv.Atoi(rest)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid id")
		return
	}

	switch r.Method {
	case http.MethodPut:
		if f.UpdateStatus != 0 {
			writeDetail(w, f.UpdateStatus, "update failed")
			return
		}
		var rec Record
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil || rec.Task == "" {
			writeDetail(w, http.StatusUnprocessableEntity, "invalid todo")
			return
		}
		for i := range f.records {
			if f.records[i].ID == id {
				rec.ID = id
				f.records[i] = f.stored(rec)
				writeJSON(w, http.StatusOK, f.records[i])
				return
			}
		}
		writeDetail(w, http.StatusNotFound, "Todo not found")
	case http.MethodDelete:
		if f.DeleteStatus != 0 {
			writeDetail(w, f.DeleteStatus, "delete failed")
			return
		}
		for i := range f.records {
			if f.records[i].ID == id {
				f.records = append(f.records[:i], f.records[i+1:]...)
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		writeDetail(w, http.StatusNotFound, "Todo not found")
	default:
		writeDetail(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (f *FakeServer) handleChat(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.Method != http.MethodPost {
		writeDetail(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if f.ChatStatus != 0 {
		writeDetail(w, f.ChatStatus, "chat failed")
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid message")
		return
	}
	f.chats = append(f.chats, req.Message)

	reply := "echo: " + req.Message
	if f.ChatReply != nil {
		reply = f.ChatReply(req.Message)
	}
	writeJSON(w, http.StatusOK, map[string]string{"response": reply})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
