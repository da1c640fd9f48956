package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/Jayphen/todoapp/internal/tasklist"
	"github.com/Jayphen/todoapp/internal/types"
)

func newDoneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a task as done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMutation(cmd, "done", args[0], (*tasklist.State).Complete)
		},
	}
}

func newToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip a task between done and todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMutation(cmd, "toggle", args[0], (*tasklist.State).Toggle)
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> [todo|in-progress|done]",
		Short: "Set a task's status",
		Long: `Set a task's status. Without a status the task advances to the next
one: todo, in progress, done, then back to todo.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runMutation(cmd, "status", args[0], (*tasklist.State).Advance)
			}
			status, err := types.ParseStatus(args[1])
			if err != nil {
				return err
			}
			return runMutation(cmd, "status", args[0], func(s *tasklist.State, ctx context.Context, id types.TaskID) (types.Task, error) {
				return s.SetStatus(ctx, id, status)
			})
		},
	}
}

// mutation is a State write keyed by task id.
type mutation func(s *tasklist.State, ctx context.Context, id types.TaskID) (types.Task, error)

func runMutation(cmd *cobra.Command, name, rawID string, fn mutation) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	state, err := loadState(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer state.Source().Close()

	task, err := fn(state, cmd.Context(), id)
	if err != nil {
		return explain(err)
	}

	logCommand(name).WithTaskID(string(task.ID)).WithField("status", string(task.Status)).Info("task status changed")
	newNotifier(cfg).TaskCompleted(task)

	fmt.Fprintf(cmd.OutOrStdout(), "Task %s is now %s: %s\n", task.ID, task.Status.Label(), task.Title)
	return nil
}

func newRemoveCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(cmd, args[0], yes)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Delete without asking for confirmation")

	return cmd
}

func runRemove(cmd *cobra.Command, rawID string, yes bool) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	state, err := loadState(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer state.Source().Close()

	title := string(id)
	if task, ok := state.Get(id); ok {
		title = task.Title
	}

	if !yes {
		confirmed := false
		err := huh.NewConfirm().
			Title(fmt.Sprintf("Delete %q?", title)).
			Affirmative("Delete").
			Negative("Cancel").
			Value(&confirmed).
			Run()
		if err != nil && !errors.Is(err, huh.ErrUserAborted) {
			return fmt.Errorf("confirm: %w", err)
		}
		if !confirmed {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
			return nil
		}
	}

	if err := state.Remove(cmd.Context(), id); err != nil {
		return explain(err)
	}

	logCommand("rm").WithTaskID(string(id)).Info("task removed")
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s: %s\n", id, title)
	return nil
}
