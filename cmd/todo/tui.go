package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Jayphen/todoapp/internal/chat"
	"github.com/Jayphen/todoapp/internal/notify"
	"github.com/Jayphen/todoapp/internal/tui"
)

func newTUICmd() *cobra.Command {
	var view string

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Launch the terminal user interface",
		Long: `Launch the interactive task dashboard.

--view legacy starts in the table layout of the service's original page;
press v inside the TUI to switch.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, view)
		},
	}

	cmd.Flags().StringVar(&view, "view", "", "Initial view (dashboard, legacy)")

	return cmd
}

func runTUI(cmd *cobra.Command, view string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if view == "" {
		view = cfg.View()
	}
	if view != tui.ViewDashboard && view != tui.ViewLegacy {
		return fmt.Errorf("unknown view %q (want dashboard or legacy)", view)
	}

	state, err := openState(cfg)
	if err != nil {
		return err
	}
	defer state.Source().Close()

	var relay *chat.Relay
	if r, err := openRelay(cfg); err != nil {
		logCommand("tui").WithError(err).Warn("chat disabled")
	} else {
		relay = r
		defer relay.Close()
	}

	err = tui.Run(tui.Options{
		Version:  Version,
		View:     view,
		State:    state,
		Relay:    relay,
		Notifier: notify.New(cfg.Notifications),
		Context:  cmd.Context(),
	})
	if err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
