package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/spf13/cobra"

	"github.com/Jayphen/todoapp/internal/tasklist"
	"github.com/Jayphen/todoapp/internal/tui"
	"github.com/Jayphen/todoapp/internal/types"
)

var (
	listJSON   bool
	listStatus string
	listView   string
	listSort   string
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Long:    `List tasks from the task service in service order.`,
		Args:    cobra.NoArgs,
		RunE:    runList,
	}

	cmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	cmd.Flags().StringVar(&listStatus, "status", "", "Filter by status (todo, in-progress, done)")
	cmd.Flags().StringVar(&listView, "view", "", "Rendering to use (dashboard, legacy)")
	cmd.Flags().StringVar(&listSort, "sort", tasklist.OrderService, "Order (service, priority, due)")

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	filter, err := tasklist.ParseFilter(listStatus)
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

	tasks, err := tasklist.Sort(state.Filter(filter), listSort)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if listJSON {
		if tasks == nil {
			tasks = []types.Task{}
		}
		data, err := json.MarshalIndent(tasks, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	if len(tasks) == 0 {
		fmt.Fprintln(out, tui.EmptyText)
		return nil
	}

	view := listView
	if view == "" {
		view = cfg.View()
	}

	switch view {
	case tui.ViewLegacy:
		printLegacyTable(out, tasks)
	case tui.ViewDashboard:
		printTaskList(out, tasks)
		printSummary(out, state.Summary())
	default:
		return fmt.Errorf("unknown view %q (want dashboard or legacy)", view)
	}
	return nil
}

func printTaskList(w io.Writer, tasks []types.Task) {
	header := fmt.Sprintf("%-6s %-3s %-32s %-8s %-10s %s", "ID", "", "TASK", "PRIORITY", "DUE", "STATUS")
	fmt.Fprintln(w, lipgloss.NewStyle().Bold(true).Foreground(tui.ColorGray).Render(header))
	fmt.Fprintln(w, strings.Repeat("-", 76))

	for _, t := range tasks {
		check := tui.IndicatorUnchecked
		titleStyle := lipgloss.NewStyle()
		if t.IsDone() {
			check = tui.IndicatorChecked
			titleStyle = tui.DoneTitleStyle
		}

		title := ansi.Truncate(t.Title, 32, "…")
		due := t.DueDate
		if due == "" {
			due = "-"
		}

		fmt.Fprintf(w, "%-6s %-3s %s %s %-10s %s\n",
			t.ID,
			check,
			titleStyle.Render(pad(title, 32)),
			tui.GetPriorityStyle(t.Priority).Render(pad(t.Priority.Label(), 8)),
			due,
			tui.GetStatusStyle(t.Status).Render(t.Status.Label()),
		)
		if t.Description != "" && t.Description != t.Title {
			fmt.Fprintf(w, "%-10s %s\n", "", tui.DimStyle.Render(ansi.Truncate(t.Description, 64, "…")))
		}
	}
}

func printSummary(w io.Writer, s tasklist.Summary) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d tasks: %d to do, %d in progress, %d done\n", s.Total, s.Todo, s.InProgress, s.Done)
}

// printLegacyTable renders the table the service's original page showed,
// with statuses in the service's own vocabulary.
func printLegacyTable(w io.Writer, tasks []types.Task) {
	header := fmt.Sprintf("%-6s %-32s %-10s %s", "ID", "TASK", "DUE DATE", "STATUS")
	fmt.Fprintln(w, lipgloss.NewStyle().Bold(true).Foreground(tui.ColorGray).Render(header))
	fmt.Fprintln(w, strings.Repeat("-", 62))

	for _, t := range tasks {
		fmt.Fprintf(w, "%-6s %s %-10s %s\n",
			t.ID,
			pad(ansi.Truncate(t.Title, 32, "…"), 32),
			t.DueDate,
			t.Status.Remote(),
		)
	}
}

// pad right-pads s to width display cells.
func pad(s string, width int) string {
	if n := ansi.StringWidth(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
