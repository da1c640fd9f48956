package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/Jayphen/todoapp/internal/chat"
	"github.com/Jayphen/todoapp/internal/config"
	"github.com/Jayphen/todoapp/internal/notify"
	"github.com/Jayphen/todoapp/internal/tasksource"
	"github.com/Jayphen/todoapp/internal/testutil"
	"github.com/Jayphen/todoapp/internal/types"
)

var configEnv = []string{
	"TODOAPP_API_URL",
	"TODOAPP_CHAT_URL",
	"TODOAPP_SOURCE",
	"TODOAPP_REQUEST_TIMEOUT",
	"TODOAPP_REDIS_URL",
	"REDIS_URL",
	"TODOAPP_CHAT_SESSION",
	"TODOAPP_DEFAULT_VIEW",
	"TODOAPP_NOTIFICATIONS",
	"TODOAPP_LOG_LEVEL",
	"TODOAPP_LOG_FILE",
}

// setupCLI isolates the config from the user's files and points it at srv.
func setupCLI(t *testing.T, srv *testutil.FakeServer) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, key := range configEnv {
		t.Setenv(key, "")
	}
	if srv != nil {
		t.Setenv("TODOAPP_API_URL", srv.URL)
	}
	t.Setenv("TODOAPP_LOG_LEVEL", "error")
}

// execute runs the CLI with args and returns everything it printed.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	if _, err := config.Reload(); err != nil {
		t.Fatalf("config.Reload() error: %v", err)
	}

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

func seedServer(t *testing.T) *testutil.FakeServer {
	t.Helper()
	srv := testutil.NewFakeServer()
	t.Cleanup(srv.Close)
	srv.AddRecord(testutil.Record{Task: "Buy milk", DueDate: "2025-01-01", Status: "Pending", Priority: "high"})
	srv.AddRecord(testutil.Record{Task: "Ship release", Status: "Completed", Priority: "low"})
	return srv
}

func TestListDashboard(t *testing.T) {
	srv := seedServer(t)
	setupCLI(t, srv)

	out, err := execute(t, "", "list")
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	for _, want := range []string{"Buy milk", "Ship release", "2025-01-01", "High", "[x]", "2 tasks: 1 to do, 0 in progress, 1 done"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "Buy milk") > strings.Index(out, "Ship release") {
		t.Errorf("tasks not in service order:\n%s", out)
	}
}

func TestListLegacyView(t *testing.T) {
	srv := seedServer(t)
	setupCLI(t, srv)

	out, err := execute(t, "", "list", "--view", "legacy")
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	for _, want := range []string{"DUE DATE", "Pending", "Completed"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "tasks:") {
		t.Errorf("legacy view should not print the summary:\n%s", out)
	}
}

func TestListDefaultViewFromConfig(t *testing.T) {
	srv := seedServer(t)
	setupCLI(t, srv)
	t.Setenv("TODOAPP_DEFAULT_VIEW", "legacy")

	out, err := execute(t, "", "list")
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	if !strings.Contains(out, "DUE DATE") {
		t.Errorf("expected legacy table:\n%s", out)
	}
}

func TestListUnknownView(t *testing.T) {
	srv := seedServer(t)
	setupCLI(t, srv)

	if _, err := execute(t, "", "list", "--view", "kanban"); err == nil {
		t.Fatal("expected error for unknown view")
	}
}

func TestListStatusFilter(t *testing.T) {
	srv := seedServer(t)
	setupCLI(t, srv)

	out, err := execute(t, "", "list", "--status", "done")
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	if !strings.Contains(out, "Ship release") || strings.Contains(out, "Buy milk") {
		t.Errorf("filter not applied:\n%s", out)
	}

	if _, err := execute(t, "", "list", "--status", "later"); err == nil {
		t.Error("expected error for unknown status filter")
	}
}

func TestListSortByPriority(t *testing.T) {
	srv := seedServer(t)
	setupCLI(t, srv)

	out, err := execute(t, "", "list", "--sort", "priority", "--view", "legacy")
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	if strings.Index(out, "Buy milk") > strings.Index(out, "Ship release") {
		t.Errorf("high priority task should come first:\n%s", out)
	}

	srv.AddRecord(testutil.Record{Task: "Urgent", Status: "Pending", Priority: "high"})
	out, err = execute(t, "", "list", "--sort", "priority")
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	if strings.Index(out, "Urgent") > strings.Index(out, "Ship release") {
		t.Errorf("high priority task should precede low:\n%s", out)
	}

	if _, err := execute(t, "", "list", "--sort", "alphabetical"); err == nil {
		t.Error("expected error for unknown order")
	}
}

func TestListJSON(t *testing.T) {
	srv := seedServer(t)
	setupCLI(t, srv)

	out, err := execute(t, "", "list", "--json")
	if err != nil {
		t.Fatalf("list error: %v", err)
	}

	var tasks []types.Task
	if err := json.Unmarshal([]byte(out), &tasks); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(tasks) != 2 {
		t.Fatalf("got %d tasks, want 2", len(tasks))
	}
	if tasks[0].ID != "1" || tasks[0].Title != "Buy milk" || tasks[0].Status != types.StatusTodo {
		t.Errorf("tasks[0] = %+v", tasks[0])
	}
	if tasks[1].Status != types.StatusDone {
		t.Errorf("tasks[1].Status = %q, want done", tasks[1].Status)
	}
}

func TestListEmpty(t *testing.T) {
	srv := testutil.NewFakeServer()
	defer srv.Close()
	setupCLI(t, srv)

	out, err := execute(t, "", "list")
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	if !strings.Contains(out, "No tasks found") {
		t.Errorf("expected empty message:\n%s", out)
	}

	out, err = execute(t, "", "list", "--json")
	if err != nil {
		t.Fatalf("list --json error: %v", err)
	}
	if strings.TrimSpace(out) != "[]" {
		t.Errorf("list --json = %q, want []", out)
	}
}

func TestListUnreachable(t *testing.T) {
	srv := testutil.NewFakeServer()
	setupCLI(t, srv)
	srv.Close()

	_, err := execute(t, "", "list")
	if !errors.Is(err, tasksource.ErrUnreachable) {
		t.Fatalf("err = %v, want ErrUnreachable", err)
	}
	if !strings.Contains(err.Error(), "api_url") {
		t.Errorf("error should hint at api_url: %v", err)
	}
}

func TestAdd(t *testing.T) {
	srv := testutil.NewFakeServer()
	defer srv.Close()
	setupCLI(t, srv)

	out, err := execute(t, "", "add", "Buy", "milk", "--due", "2025-01-01", "-p", "high")
	if err != nil {
		t.Fatalf("add error: %v", err)
	}
	if !strings.Contains(out, "Created task 1: Buy milk") {
		t.Errorf("output = %q", out)
	}

	records := srv.Records()
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	want := testutil.Record{ID: 1, Task: "Buy milk", DueDate: "2025-01-01", Status: "Pending", Priority: "high"}
	if records[0] != want {
		t.Errorf("record = %+v, want %+v", records[0], want)
	}
}

func TestAddDefaults(t *testing.T) {
	srv := testutil.NewFakeServer()
	defer srv.Close()
	setupCLI(t, srv)

	if _, err := execute(t, "", "add", "Write report"); err != nil {
		t.Fatalf("add error: %v", err)
	}
	rec := srv.Records()[0]
	if rec.Status != "Pending" || rec.Priority != "medium" {
		t.Errorf("record = %+v, want Pending/medium", rec)
	}
}

func TestAddRejectsInvalidInput(t *testing.T) {
	srv := testutil.NewFakeServer()
	defer srv.Close()
	setupCLI(t, srv)

	_, err := execute(t, "", "add", "Buy milk", "--due", "tomorrow")
	if !errors.Is(err, tasksource.ErrValidation) {
		t.Errorf("bad due date: err = %v, want ErrValidation", err)
	}
	if _, err := execute(t, "", "add", "Buy milk", "-p", "urgent"); err == nil {
		t.Error("expected error for unknown priority")
	}
	if n := len(srv.Records()); n != 0 {
		t.Errorf("invalid input reached the service: %d records", n)
	}
}

func TestEdit(t *testing.T) {
	srv := seedServer(t)
	setupCLI(t, srv)

	out, err := execute(t, "", "edit", "1", "--title", "Buy oat milk", "-s", "in-progress")
	if err != nil {
		t.Fatalf("edit error: %v", err)
	}
	if !strings.Contains(out, "Updated task 1: Buy oat milk") {
		t.Errorf("output = %q", out)
	}

	rec := srv.Records()[0]
	if rec.Task != "Buy oat milk" || rec.Status != "In Progress" {
		t.Errorf("record = %+v", rec)
	}
	if rec.DueDate != "2025-01-01" || rec.Priority != "high" {
		t.Errorf("unchanged fields were lost: %+v", rec)
	}
}

func TestEditUnknownTask(t *testing.T) {
	srv := seedServer(t)
	setupCLI(t, srv)

	_, err := execute(t, "", "edit", "42", "--title", "Nope")
	if !errors.Is(err, tasksource.ErrTaskNotFound) {
		t.Errorf("err = %v, want ErrTaskNotFound", err)
	}
}

func TestDoneAndToggle(t *testing.T) {
	srv := seedServer(t)
	setupCLI(t, srv)

	out, err := execute(t, "", "done", "1")
	if err != nil {
		t.Fatalf("done error: %v", err)
	}
	if !strings.Contains(out, "Task 1 is now Done: Buy milk") {
		t.Errorf("output = %q", out)
	}
	if got := srv.Records()[0].Status; got != "Completed" {
		t.Errorf("status after done = %q, want Completed", got)
	}

	if _, err := execute(t, "", "toggle", "1"); err != nil {
		t.Fatalf("toggle error: %v", err)
	}
	if got := srv.Records()[0].Status; got != "Pending" {
		t.Errorf("status after toggle = %q, want Pending", got)
	}
}

func TestCompletionNotifiesBeforeExit(t *testing.T) {
	srv := seedServer(t)
	setupCLI(t, srv)
	t.Setenv("TODOAPP_NOTIFICATIONS", "true")

	var sent []string
	orig := newNotifier
	newNotifier = func(cfg *config.Config) *notify.Notifier {
		return notify.NewWithSender(cfg.Notifications, func(title, message string) {
			sent = append(sent, title+": "+message)
		})
	}
	defer func() { newNotifier = orig }()

	if _, err := execute(t, "", "toggle", "1"); err != nil {
		t.Fatalf("toggle error: %v", err)
	}
	if len(sent) != 1 || sent[0] != "Task completed: Buy milk" {
		t.Fatalf("notifications after toggle to done = %v", sent)
	}

	if _, err := execute(t, "", "toggle", "1"); err != nil {
		t.Fatalf("toggle error: %v", err)
	}
	if _, err := execute(t, "", "status", "1"); err != nil {
		t.Fatalf("status error: %v", err)
	}
	if len(sent) != 1 {
		t.Errorf("tasks that are not done should not notify: %v", sent)
	}

	t.Setenv("TODOAPP_NOTIFICATIONS", "false")
	if _, err := execute(t, "", "done", "1"); err != nil {
		t.Fatalf("done error: %v", err)
	}
	if len(sent) != 1 {
		t.Errorf("disabled notifications still sent: %v", sent)
	}
}

func TestStatusCommand(t *testing.T) {
	srv := seedServer(t)
	setupCLI(t, srv)

	if _, err := execute(t, "", "status", "1"); err != nil {
		t.Fatalf("status error: %v", err)
	}
	if got := srv.Records()[0].Status; got != "In Progress" {
		t.Errorf("status after advance = %q, want In Progress", got)
	}

	if _, err := execute(t, "", "status", "1", "done"); err != nil {
		t.Fatalf("status done error: %v", err)
	}
	if got := srv.Records()[0].Status; got != "Completed" {
		t.Errorf("status = %q, want Completed", got)
	}

	if _, err := execute(t, "", "status", "1", "someday"); !errors.Is(err, types.ErrInvalidStatus) {
		t.Errorf("err = %v, want ErrInvalidStatus", err)
	}
}

func TestFailedWriteLeavesServiceUnchanged(t *testing.T) {
	srv := seedServer(t)
	setupCLI(t, srv)
	srv.UpdateStatus = 500

	if _, err := execute(t, "", "done", "1"); err == nil {
		t.Fatal("expected error when the service rejects the update")
	}
	if got := srv.Records()[0].Status; got != "Pending" {
		t.Errorf("status = %q, want Pending", got)
	}
}

func TestRemove(t *testing.T) {
	srv := seedServer(t)
	setupCLI(t, srv)

	out, err := execute(t, "", "rm", "1", "--yes")
	if err != nil {
		t.Fatalf("rm error: %v", err)
	}
	if !strings.Contains(out, "Deleted task 1: Buy milk") {
		t.Errorf("output = %q", out)
	}
	records := srv.Records()
	if len(records) != 1 || records[0].Task != "Ship release" {
		t.Errorf("records = %+v", records)
	}

	if _, err := execute(t, "", "rm", "1", "-y"); !errors.Is(err, tasksource.ErrTaskNotFound) {
		t.Errorf("second rm: err = %v, want ErrTaskNotFound", err)
	}
}

func TestTodolistSource(t *testing.T) {
	setupCLI(t, nil)
	path := filepath.Join(t.TempDir(), "tasks.md")
	t.Setenv("TODOAPP_SOURCE", "todolist:path="+path)

	if _, err := execute(t, "", "add", "Buy milk"); err != nil {
		t.Fatalf("add error: %v", err)
	}
	if _, err := execute(t, "", "done", "1"); err != nil {
		t.Fatalf("done error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read todolist: %v", err)
	}
	if !strings.Contains(string(data), "[x] Buy milk") {
		t.Errorf("todolist = %q", data)
	}
}

func TestChatMessage(t *testing.T) {
	srv := testutil.NewFakeServer()
	defer srv.Close()
	setupCLI(t, srv)

	out, err := execute(t, "", "chat", "what", "is", "due?")
	if err != nil {
		t.Fatalf("chat error: %v", err)
	}
	if !strings.Contains(out, "To-Do Bot:") || !strings.Contains(out, "echo: what is due?") {
		t.Errorf("output = %q", out)
	}
	if got := srv.ChatMessages(); len(got) != 1 || got[0] != "what is due?" {
		t.Errorf("chat messages = %v", got)
	}
}

func TestChatFromStdin(t *testing.T) {
	srv := testutil.NewFakeServer()
	defer srv.Close()
	setupCLI(t, srv)

	out, err := execute(t, "one\n\n  \ntwo\n", "chat")
	if err != nil {
		t.Fatalf("chat error: %v", err)
	}
	got := srv.ChatMessages()
	if len(got) != 2 || got[0] != "one" || got[1] != "two" {
		t.Errorf("chat messages = %v, want [one two]", got)
	}
	if strings.Count(out, "To-Do Bot:") != 2 {
		t.Errorf("expected two replies:\n%s", out)
	}
}

func TestChatFallback(t *testing.T) {
	srv := testutil.NewFakeServer()
	defer srv.Close()
	setupCLI(t, srv)
	srv.ChatStatus = 500

	out, err := execute(t, "", "chat", "hello")
	if err != nil {
		t.Fatalf("chat error: %v", err)
	}
	if !strings.Contains(out, chat.FallbackReply) {
		t.Errorf("output = %q, want fallback reply", out)
	}
}

func TestChatTranscriptInRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	srv := testutil.NewFakeServer()
	defer srv.Close()
	setupCLI(t, srv)
	t.Setenv("TODOAPP_REDIS_URL", "redis://"+mr.Addr())
	t.Setenv("TODOAPP_CHAT_SESSION", "work")

	if _, err := execute(t, "", "chat", "hello"); err != nil {
		t.Fatalf("chat error: %v", err)
	}

	out, err := execute(t, "", "chat", "history")
	if err != nil {
		t.Fatalf("history error: %v", err)
	}
	if !strings.Contains(out, "You:") || !strings.Contains(out, "To-Do Bot:") || !strings.Contains(out, "echo: hello") {
		t.Errorf("history = %q", out)
	}

	out, err = execute(t, "", "chat", "sessions")
	if err != nil {
		t.Fatalf("sessions error: %v", err)
	}
	if !strings.Contains(out, "work") {
		t.Errorf("sessions = %q", out)
	}

	if _, err := execute(t, "", "chat", "clear"); err != nil {
		t.Fatalf("clear error: %v", err)
	}
	out, err = execute(t, "", "chat", "history")
	if err != nil {
		t.Fatalf("history error: %v", err)
	}
	if !strings.Contains(out, "No messages yet") {
		t.Errorf("history after clear = %q", out)
	}
}

func TestChatSessionsRequiresRedis(t *testing.T) {
	setupCLI(t, nil)

	if _, err := execute(t, "", "chat", "sessions"); err == nil {
		t.Error("expected error without redis_url")
	}
}

func TestConfigInitAndPath(t *testing.T) {
	setupCLI(t, nil)

	out, err := execute(t, "", "config", "init")
	if err != nil {
		t.Fatalf("config init error: %v", err)
	}
	if !strings.Contains(out, filepath.Join(".config", "todoapp", "config.yaml")) {
		t.Errorf("output = %q", out)
	}

	if _, err := execute(t, "", "config", "init"); err == nil {
		t.Error("second init without --force should fail")
	}
	if _, err := execute(t, "", "config", "init", "--force"); err != nil {
		t.Errorf("init --force error: %v", err)
	}

	out, err = execute(t, "", "config", "path")
	if err != nil {
		t.Fatalf("config path error: %v", err)
	}
	if !strings.Contains(out, "(found)") {
		t.Errorf("written config not reported as found:\n%s", out)
	}
}

func TestConfigShow(t *testing.T) {
	setupCLI(t, nil)
	t.Setenv("TODOAPP_API_URL", "http://tasks.example:9000")

	out, err := execute(t, "", "config", "show")
	if err != nil {
		t.Fatalf("config show error: %v", err)
	}
	for _, want := range []string{"http://tasks.example:9000", "http://tasks.example:9000/chat", "dashboard"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out, err = execute(t, "", "config", "show", "--yaml")
	if err != nil {
		t.Fatalf("config show --yaml error: %v", err)
	}
	if !strings.Contains(out, "api_url: http://tasks.example:9000") {
		t.Errorf("yaml output = %q", out)
	}
}

func TestConfigShowRedisStatus(t *testing.T) {
	mr := miniredis.RunT(t)
	setupCLI(t, nil)
	t.Setenv("TODOAPP_REDIS_URL", "redis://"+mr.Addr())

	out, err := execute(t, "", "config", "show")
	if err != nil {
		t.Fatalf("config show error: %v", err)
	}
	if !strings.Contains(out, "(connected)") {
		t.Errorf("expected connected redis:\n%s", out)
	}

	mr.Close()
	out, err = execute(t, "", "config", "show")
	if err != nil {
		t.Fatalf("config show error: %v", err)
	}
	if !strings.Contains(out, "(unreachable, chat kept in memory)") {
		t.Errorf("expected unreachable redis:\n%s", out)
	}
}

func TestVersion(t *testing.T) {
	setupCLI(t, nil)

	out, err := execute(t, "", "version")
	if err != nil {
		t.Fatalf("version error: %v", err)
	}
	if !strings.HasPrefix(out, "todo "+Version) {
		t.Errorf("output = %q", out)
	}
}

func TestParseID(t *testing.T) {
	if _, err := parseID("  "); err == nil {
		t.Error("expected error for blank id")
	}
	id, err := parseID(" 7 ")
	if err != nil || id != "7" {
		t.Errorf("parseID(\" 7 \") = %q, %v", id, err)
	}
}
