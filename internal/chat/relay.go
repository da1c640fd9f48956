// Package chat relays free-text messages to the remote assistant and keeps
// the visible transcript.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Jayphen/todoapp/internal/logging"
	"github.com/Jayphen/todoapp/internal/redis"
	"github.com/Jayphen/todoapp/internal/types"
)

const (
	// BotName is how the assistant is shown.
	BotName = "To-Do Bot"

	// FallbackReply is shown in place of a reply when the round trip fails.
	FallbackReply = "Oops! Something went wrong. Please try again."
)

// ErrEmptyMessage is returned when the input is blank.
var ErrEmptyMessage = errors.New("empty message")

// Relay forwards one message at a time and records both sides.
type Relay struct {
	assistant  Assistant
	transcript Transcript
	now        func() time.Time
}

// NewRelay creates a relay. A nil transcript means in-memory.
func NewRelay(assistant Assistant, transcript Transcript) *Relay {
	if transcript == nil {
		transcript = NewMemoryTranscript()
	}
	return &Relay{
		assistant:  assistant,
		transcript: transcript,
		now:        time.Now,
	}
}

// OpenTranscript returns a Redis transcript for session when redisURL is
// set and reachable, otherwise an in-memory one.
func OpenTranscript(redisURL, session string) Transcript {
	if redisURL == "" {
		return NewMemoryTranscript()
	}
	client, err := redis.NewClient(redisURL)
	if err != nil {
		logging.WithComponent("chat").WithError(err).Warn("redis unavailable, keeping chat transcript in memory")
		return NewMemoryTranscript()
	}
	return NewRedisTranscript(client, session)
}

// Send appends the user message, asks the assistant and appends its reply.
// On failure the fallback reply is appended and returned along with the
// error. A transcript that cannot be written does not stop the round trip;
// the reply is still returned together with the recording error.
func (r *Relay) Send(ctx context.Context, text string) (types.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return types.ChatMessage{}, ErrEmptyMessage
	}

	log := logging.WithComponent("chat")

	var recordErr error
	if _, err := r.transcript.Append(ctx, types.ChatMessage{
		Sender:    types.SenderUser,
		Text:      text,
		Timestamp: r.now(),
	}); err != nil {
		log.WithError(err).Warn("failed to record chat message")
		recordErr = fmt.Errorf("record message: %w", err)
	}

	reply, sendErr := r.assistant.Reply(ctx, text)
	if sendErr != nil {
		log.WithError(sendErr).Warn("chat round trip failed")
		reply = FallbackReply
	}

	msg, err := r.transcript.Append(ctx, types.ChatMessage{
		Sender:    types.SenderBot,
		Text:      reply,
		Timestamp: r.now(),
	})
	if err != nil {
		msg = types.ChatMessage{Sender: types.SenderBot, Text: reply, Timestamp: r.now()}
		if recordErr == nil {
			recordErr = fmt.Errorf("record reply: %w", err)
		}
	}
	if sendErr != nil {
		return msg, sendErr
	}
	return msg, recordErr
}

// History returns the transcript in order.
func (r *Relay) History(ctx context.Context) ([]types.ChatMessage, error) {
	return r.transcript.Messages(ctx)
}

// Clear empties the transcript.
func (r *Relay) Clear(ctx context.Context) error {
	return r.transcript.Clear(ctx)
}

// Close releases the transcript store.
func (r *Relay) Close() error {
	return r.transcript.Close()
}

// DisplayName returns the label shown for a message's sender.
func DisplayName(s types.Sender) string {
	if s == types.SenderBot {
		return BotName
	}
	return "You"
}
