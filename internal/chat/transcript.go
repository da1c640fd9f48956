package chat

import (
	"context"
	"sync"

	"github.com/Jayphen/todoapp/internal/redis"
	"github.com/Jayphen/todoapp/internal/types"
)

// Transcript stores the visible conversation. Append assigns the message
// its sequential id.
type Transcript interface {
	Append(ctx context.Context, msg types.ChatMessage) (types.ChatMessage, error)
	Messages(ctx context.Context) ([]types.ChatMessage, error)
	Clear(ctx context.Context) error
	Close() error
}

// MemoryTranscript keeps messages for the lifetime of the process.
type MemoryTranscript struct {
	mu       sync.Mutex
	messages []types.ChatMessage
	nextID   int
}

// NewMemoryTranscript creates an empty in-memory transcript.
func NewMemoryTranscript() *MemoryTranscript {
	return &MemoryTranscript{nextID: 1}
}

func (t *MemoryTranscript) Append(_ context.Context, msg types.ChatMessage) (types.ChatMessage, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	msg.ID = t.nextID
	t.nextID++
	t.messages = append(t.messages, msg)
	return msg, nil
}

func (t *MemoryTranscript) Messages(_ context.Context) ([]types.ChatMessage, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]types.ChatMessage(nil), t.messages...), nil
}

func (t *MemoryTranscript) Clear(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = nil
	t.nextID = 1
	return nil
}

func (t *MemoryTranscript) Close() error { return nil }

// RedisTranscript keeps one named session in Redis.
type RedisTranscript struct {
	client  *redis.Client
	session string
}

// NewRedisTranscript wraps an open client. Close closes the client.
func NewRedisTranscript(client *redis.Client, session string) *RedisTranscript {
	return &RedisTranscript{client: client, session: session}
}

func (t *RedisTranscript) Append(ctx context.Context, msg types.ChatMessage) (types.ChatMessage, error) {
	return t.client.AppendMessage(ctx, t.session, msg)
}

func (t *RedisTranscript) Messages(ctx context.Context) ([]types.ChatMessage, error) {
	return t.client.Messages(ctx, t.session)
}

func (t *RedisTranscript) Clear(ctx context.Context) error {
	return t.client.ClearSession(ctx, t.session)
}

func (t *RedisTranscript) Close() error {
	return t.client.Close()
}
