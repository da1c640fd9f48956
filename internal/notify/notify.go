// Package notify provides OS-native notification functionality.
package notify

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/Jayphen/todoapp/internal/logging"
	"github.com/Jayphen/todoapp/internal/types"
)

// Send sends an OS-native notification with the given title and message.
// It detects the platform and uses the appropriate notification command:
// - macOS: osascript (native AppleScript)
// - Linux: notify-send (libnotify)
//
// This function is non-blocking and fails silently if the notification
// command is not available on the system.
func Send(title, message string) {
	go func() {
		cmd := command(runtime.GOOS, title, message)
		if cmd == nil {
			return
		}
		_ = cmd.Run()
	}()
}

// Start launches the notification command and returns once it is running,
// without waiting for it to finish. The command outlives the caller, so
// short-lived processes use Start where Send could be lost at exit.
func Start(title, message string) error {
	cmd := command(runtime.GOOS, title, message)
	if cmd == nil {
		return nil
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

// command builds the notification command for goos, or nil when the
// platform has none.
func command(goos, title, message string) *exec.Cmd {
	switch goos {
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeAppleScript(message), escapeAppleScript(title))
		return exec.Command("osascript", "-e", script)
	case "linux":
		return exec.Command("notify-send", title, message)
	}
	return nil
}

// Notifier sends task notifications when enabled.
type Notifier struct {
	enabled bool
	send    func(title, message string)
}

// New creates a Notifier that sends in the background. A disabled
// Notifier does nothing.
func New(enabled bool) *Notifier {
	return NewWithSender(enabled, Send)
}

// NewDetached creates a Notifier whose command is already running when
// TaskCompleted returns. The CLI uses it since it exits right after.
func NewDetached(enabled bool) *Notifier {
	return NewWithSender(enabled, func(title, message string) {
		if err := Start(title, message); err != nil {
			logging.WithComponent("notify").WithError(err).Debug("notification not sent")
		}
	})
}

// NewWithSender creates a Notifier that delivers through send.
func NewWithSender(enabled bool, send func(title, message string)) *Notifier {
	return &Notifier{enabled: enabled, send: send}
}

// Enabled reports whether notifications are sent.
func (n *Notifier) Enabled() bool {
	return n != nil && n.enabled
}

// TaskCompleted announces a task that has just been marked done. Tasks
// that are not done are ignored.
func (n *Notifier) TaskCompleted(task types.Task) {
	if !n.Enabled() || !task.IsDone() {
		return
	}
	n.send("Task completed", task.Title)
}

// escapeAppleScript escapes special characters for AppleScript strings.
func escapeAppleScript(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, ch := range s {
		switch ch {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(ch)
		}
	}
	return b.String()
}
