package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Jayphen/todoapp/internal/chat"
	"github.com/Jayphen/todoapp/internal/config"
	"github.com/Jayphen/todoapp/internal/logging"
	"github.com/Jayphen/todoapp/internal/notify"
	"github.com/Jayphen/todoapp/internal/tasklist"
	"github.com/Jayphen/todoapp/internal/tasksource"
	"github.com/Jayphen/todoapp/internal/types"
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// openState connects to the configured task source without loading it.
func openState(cfg *config.Config) (*tasklist.State, error) {
	source, err := tasksource.CreateSourceFromString(cfg.SourceSpec(), cfg.Timeout())
	if err != nil {
		return nil, fmt.Errorf("failed to open task source: %w", err)
	}
	return tasklist.New(source), nil
}

// loadState opens the task source and mirrors its collection. Callers
// close the source when done.
func loadState(ctx context.Context, cfg *config.Config) (*tasklist.State, error) {
	state, err := openState(cfg)
	if err != nil {
		return nil, err
	}
	if err := state.Load(ctx); err != nil {
		_ = state.Source().Close()
		return nil, fmt.Errorf("failed to load tasks: %w", explain(err))
	}
	return state, nil
}

func openRelay(cfg *config.Config) (*chat.Relay, error) {
	assistant, err := chat.NewHTTPAssistant(cfg.ChatEndpoint(), cfg.Timeout())
	if err != nil {
		return nil, fmt.Errorf("invalid chat endpoint: %w", err)
	}
	return chat.NewRelay(assistant, chat.OpenTranscript(cfg.RedisURL, cfg.ChatSession)), nil
}

// newNotifier starts the notification command before returning, since the
// process exits right after a command finishes.
var newNotifier = func(cfg *config.Config) *notify.Notifier {
	return notify.NewDetached(cfg.Notifications)
}

func parseID(s string) (types.TaskID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("task id is required")
	}
	return types.TaskID(s), nil
}

// explain adds a hint for the error classes a user can act on.
func explain(err error) error {
	switch {
	case errors.Is(err, tasksource.ErrUnreachable):
		return fmt.Errorf("%w (is the task service running? check api_url)", err)
	case errors.Is(err, tasksource.ErrTaskNotFound):
		return fmt.Errorf("%w (run 'todo list' to see task ids)", err)
	}
	return err
}

func logCommand(name string) *logging.Logger {
	return logging.WithComponent("cli").WithField("command", name)
}
