package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/Jayphen/todoapp/internal/tasklist"
	"github.com/Jayphen/todoapp/internal/tasksource"
	"github.com/Jayphen/todoapp/internal/types"
)

// draftFlags are the task fields shared by add and edit.
type draftFlags struct {
	description string
	due         string
	priority    string
	status      string
	interactive bool
}

func (f *draftFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.description, "description", "d", "", "Task description")
	cmd.Flags().StringVar(&f.due, "due", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&f.priority, "priority", "p", "", "Priority (low, medium, high)")
	cmd.Flags().StringVarP(&f.status, "status", "s", "", "Status (todo, in-progress, done)")
	cmd.Flags().BoolVarP(&f.interactive, "interactive", "i", false, "Fill in the task with a form")
}

// apply overrides d with every flag the user set.
func (f *draftFlags) apply(cmd *cobra.Command, d *tasklist.Draft) error {
	flags := cmd.Flags()
	if flags.Changed("description") {
		d.Description = f.description
	}
	if flags.Changed("due") {
		d.DueDate = f.due
	}
	if flags.Changed("priority") {
		p, err := types.ParsePriority(f.priority)
		if err != nil {
			return err
		}
		d.Priority = p
	}
	if flags.Changed("status") {
		s, err := types.ParseStatus(f.status)
		if err != nil {
			return err
		}
		d.Status = s
	}
	return nil
}

func newAddCmd() *cobra.Command {
	var flags draftFlags

	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Create a task",
		Long: `Create a task on the task service.

New tasks default to status todo and priority medium. Without a title,
or with --interactive, a form asks for the fields.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(cmd, args, &flags)
		},
	}
	flags.register(cmd)

	return cmd
}

func runAdd(cmd *cobra.Command, args []string, flags *draftFlags) error {
	draft := tasklist.Draft{
		Title:    strings.Join(args, " "),
		Priority: types.PriorityMedium,
		Status:   types.StatusTodo,
	}
	if err := flags.apply(cmd, &draft); err != nil {
		return err
	}

	if flags.interactive || strings.TrimSpace(draft.Title) == "" {
		if err := runTaskForm("New task", &draft); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return fmt.Errorf("form: %w", err)
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	state, err := openState(cfg)
	if err != nil {
		return err
	}
	defer state.Source().Close()

	task, err := state.Create(cmd.Context(), draft)
	if err != nil {
		return explain(err)
	}

	logCommand("add").WithTaskID(string(task.ID)).Info("task created")
	fmt.Fprintf(cmd.OutOrStdout(), "Created task %s: %s\n", task.ID, task.Title)
	return nil
}

func newEditCmd() *cobra.Command {
	var flags draftFlags
	var title string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a task",
		Long: `Replace a task's fields. Fields without a flag keep their current
value. With --interactive, a form prefilled with the task is shown.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, args[0], title, &flags)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&title, "title", "t", "", "Task title")

	return cmd
}

func runEdit(cmd *cobra.Command, rawID, title string, flags *draftFlags) error {
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

	current, ok := state.Get(id)
	if !ok {
		return explain(fmt.Errorf("task %s: %w", id, tasksource.ErrTaskNotFound))
	}

	draft := tasklist.Draft{
		Title:       current.Title,
		Description: current.Description,
		DueDate:     current.DueDate,
		Priority:    current.Priority,
		Status:      current.Status,
	}
	if cmd.Flags().Changed("title") {
		draft.Title = title
	}
	if err := flags.apply(cmd, &draft); err != nil {
		return err
	}

	if flags.interactive {
		if err := runTaskForm("Edit task "+string(id), &draft); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return fmt.Errorf("form: %w", err)
		}
	}

	task, err := state.Update(cmd.Context(), id, draft)
	if err != nil {
		return explain(err)
	}

	logCommand("edit").WithTaskID(string(task.ID)).Info("task updated")
	fmt.Fprintf(cmd.OutOrStdout(), "Updated task %s: %s\n", task.ID, task.Title)
	return nil
}

// runTaskForm asks for every field of d, starting from its current values.
func runTaskForm(heading string, d *tasklist.Draft) error {
	if d.Priority == types.PriorityUnset {
		d.Priority = types.PriorityMedium
	}
	if !d.Status.Valid() {
		d.Status = types.StatusTodo
	}

	priorities := make([]huh.Option[types.Priority], 0, len(types.Priorities))
	for _, p := range types.Priorities {
		priorities = append(priorities, huh.NewOption(p.Label(), p))
	}
	statuses := make([]huh.Option[types.Status], 0, len(types.Statuses))
	for _, s := range types.Statuses {
		statuses = append(statuses, huh.NewOption(s.Label(), s))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(heading).
				Description("Title").
				Validate(validateTitle).
				Value(&d.Title),
			huh.NewText().
				Title("Description").
				Value(&d.Description),
			huh.NewInput().
				Title("Due date").
				Description("YYYY-MM-DD, blank for none").
				Validate(types.ValidateDueDate).
				Value(&d.DueDate),
			huh.NewSelect[types.Priority]().
				Title("Priority").
				Options(priorities...).
				Value(&d.Priority),
			huh.NewSelect[types.Status]().
				Title("Status").
				Options(statuses...).
				Value(&d.Status),
		),
	).Run()
}

func validateTitle(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("title is required")
	}
	return nil
}
