package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Jayphen/todoapp/internal/chat"
	"github.com/Jayphen/todoapp/internal/redis"
	"github.com/Jayphen/todoapp/internal/tui"
	"github.com/Jayphen/todoapp/internal/types"
)

func newChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Talk to the To-Do Bot",
		Long: `Send a message to the task service's chat assistant and print the reply.

Without a message, each line read from stdin is sent in turn until EOF.
The transcript is kept in Redis when redis_url is set.`,
		Args: cobra.ArbitraryArgs,
		RunE: runChat,
	}

	cmd.AddCommand(newChatHistoryCmd())
	cmd.AddCommand(newChatClearCmd())
	cmd.AddCommand(newChatSessionsCmd())

	return cmd
}

func newChatHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Print the chat transcript",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRelay(func(relay *chat.Relay) error {
				messages, err := relay.History(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to read transcript: %w", err)
				}
				if len(messages) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No messages yet")
					return nil
				}
				for _, msg := range messages {
					printMessage(cmd.OutOrStdout(), msg)
				}
				return nil
			})
		},
	}
}

func newChatClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the chat transcript",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRelay(func(relay *chat.Relay) error {
				if err := relay.Clear(cmd.Context()); err != nil {
					return fmt.Errorf("failed to clear transcript: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Transcript cleared")
				return nil
			})
		},
	}
}

func newChatSessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List chat transcripts stored in Redis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.RedisURL == "" {
				return fmt.Errorf("redis_url is not set; transcripts are kept in memory")
			}

			client, err := redis.NewClient(cfg.RedisURL)
			if err != nil {
				return fmt.Errorf("failed to connect to redis: %w", err)
			}
			defer client.Close()

			sessions, err := client.Sessions(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list sessions: %w", err)
			}
			for _, s := range sessions {
				marker := " "
				if s == cfg.ChatSession {
					marker = tui.IndicatorSelected
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, s)
			}
			return nil
		},
	}
}

func runChat(cmd *cobra.Command, args []string) error {
	return withRelay(func(relay *chat.Relay) error {
		out := cmd.OutOrStdout()

		if len(args) > 0 {
			return sendChat(cmd.Context(), out, relay, strings.Join(args, " "))
		}

		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			if err := sendChat(cmd.Context(), out, relay, scanner.Text()); err != nil {
				return err
			}
		}
		return scanner.Err()
	})
}

// sendChat relays one message. A failed round trip still prints the
// fallback reply.
func sendChat(ctx context.Context, w io.Writer, relay *chat.Relay, text string) error {
	msg, err := relay.Send(ctx, text)
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		return nil
	case err != nil && msg.Text == "":
		return err
	case err != nil:
		logCommand("chat").WithError(err).Debug("chat reply returned with error")
	}
	printMessage(w, msg)
	return nil
}

func printMessage(w io.Writer, msg types.ChatMessage) {
	style := tui.UserStyle
	if msg.Sender == types.SenderBot {
		style = tui.BotStyle
	}
	fmt.Fprintf(w, "%s %s\n", style.Render(chat.DisplayName(msg.Sender)+":"), msg.Text)
}

func withRelay(fn func(relay *chat.Relay) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	relay, err := openRelay(cfg)
	if err != nil {
		return err
	}
	defer relay.Close()

	return fn(relay)
}
