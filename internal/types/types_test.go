package types

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestStatusRemoteRoundTrip(t *testing.T) {
	for _, s := range Statuses {
		t.Run(string(s), func(t *testing.T) {
			got, ok := StatusFromRemote(s.Remote())
			if !ok {
				t.Fatalf("StatusFromRemote(%q) not recognized", s.Remote())
			}
			if got != s {
				t.Errorf("round trip = %q, want %q", got, s)
			}
		})
	}
}

func TestStatusFromRemote(t *testing.T) {
	tests := []struct {
		input  string
		want   Status
		wantOK bool
	}{
		{"Pending", StatusTodo, true},
		{"pending", StatusTodo, true},
		{" In Progress ", StatusInProgress, true},
		{"COMPLETED", StatusDone, true},
		{"Archived", StatusTodo, false},
		{"", StatusTodo, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := StatusFromRemote(tt.input)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("StatusFromRemote(%q) = %q, %t; want %q, %t", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		input   string
		want    Status
		wantErr bool
	}{
		{"todo", StatusTodo, false},
		{"Pending", StatusTodo, false},
		{"in-progress", StatusInProgress, false},
		{"In Progress", StatusInProgress, false},
		{"done", StatusDone, false},
		{"Completed", StatusDone, false},
		{"later", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseStatus(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidStatus) {
					t.Errorf("expected ErrInvalidStatus, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseStatus(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestStatusLabelAndNext(t *testing.T) {
	if StatusTodo.Label() != "To Do" || StatusInProgress.Label() != "In Progress" || StatusDone.Label() != "Done" {
		t.Error("unexpected status labels")
	}

	s := StatusTodo
	for i := 0; i < 3; i++ {
		s = s.Next()
	}
	if s != StatusTodo {
		t.Errorf("three Next() calls should cycle back to todo, got %q", s)
	}
}

func TestPriority(t *testing.T) {
	if _, err := ParsePriority(""); !errors.Is(err, ErrInvalidPriority) {
		t.Errorf("empty priority should be invalid, got %v", err)
	}
	if p, _ := ParsePriority("HIGH"); p != PriorityHigh {
		t.Errorf("ParsePriority(HIGH) = %q", p)
	}
	if PriorityFromWire("") != PriorityUnset {
		t.Error("missing wire priority should be unset")
	}
	if PriorityFromWire("urgent") != PriorityUnset {
		t.Error("unknown wire priority should be unset")
	}
	if PriorityUnset.Label() != "—" {
		t.Errorf("unset label = %q", PriorityUnset.Label())
	}
	if PriorityHigh.Next() != PriorityLow || PriorityLow.Prev() != PriorityHigh {
		t.Error("priority cycling should wrap")
	}
	if !(PriorityUnset.Rank() < PriorityLow.Rank() && PriorityLow.Rank() < PriorityHigh.Rank()) {
		t.Error("priority ranks out of order")
	}
}

func TestTaskIDJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want TaskID
		out  string
	}{
		{"number", `7`, "7", `7`},
		{"string", `"abc-1"`, "abc-1", `"abc-1"`},
		{"numeric string", `"12"`, "12", `12`},
		{"null", `null`, "", `null`},
		{"leading zeros", `"007"`, "007", `"007"`},
		{"plus sign", `"+5"`, "+5", `"+5"`},
		{"negative zero", `"-0"`, "-0", `"-0"`},
		{"negative", `-3`, "-3", `-3`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id TaskID
			if err := json.Unmarshal([]byte(tt.in), &id); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if id != tt.want {
				t.Errorf("id = %q, want %q", id, tt.want)
			}
			data, err := json.Marshal(id)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(data) != tt.out {
				t.Errorf("marshal = %s, want %s", data, tt.out)
			}
		})
	}
}

func TestValidateDueDate(t *testing.T) {
	if err := ValidateDueDate(""); err != nil {
		t.Errorf("empty due date should be valid: %v", err)
	}
	if err := ValidateDueDate("2025-01-01"); err != nil {
		t.Errorf("valid due date rejected: %v", err)
	}
	if err := ValidateDueDate("01/02/2025"); !errors.Is(err, ErrInvalidDueDate) {
		t.Errorf("expected ErrInvalidDueDate, got %v", err)
	}

	task := Task{DueDate: "2025-01-01"}
	due, ok := task.Due()
	if !ok || due.Year() != 2025 {
		t.Errorf("Due() = %v, %t", due, ok)
	}
	if _, ok := (Task{}).Due(); ok {
		t.Error("task without due date should report ok=false")
	}
}
