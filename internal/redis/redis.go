// Package redis stores chat transcripts in Redis so they survive between
// CLI invocations.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Jayphen/todoapp/internal/types"
)

const (
	// ChatKeyPrefix is the Redis key prefix for transcripts.
	ChatKeyPrefix = "todoapp:chat:"
	// ChatSeqPrefix is the key prefix for per-session message id counters.
	ChatSeqPrefix = "todoapp:chatseq:"
	// DefaultRedisURL is used when an empty URL is given.
	DefaultRedisURL = "redis://localhost:6379"
	// MaxMessages is how many messages a transcript keeps.
	MaxMessages = 500
)

// Client wraps a Redis client with transcript operations.
type Client struct {
	rdb *redis.Client
}

// NewClient connects to the Redis server at url and pings it.
func NewClient(url string) (*Client, error) {
	if url == "" {
		url = DefaultRedisURL
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

func chatKey(session string) string {
	return ChatKeyPrefix + session
}

func seqKey(session string) string {
	return ChatSeqPrefix + session
}

// AppendMessage assigns the next sequential id for the session, stores
// the message at the end of its transcript and returns it.
func (c *Client) AppendMessage(ctx context.Context, session string, msg types.ChatMessage) (types.ChatMessage, error) {
	key := chatKey(session)

	id, err := c.rdb.Incr(ctx, seqKey(session)).Result()
	if err != nil {
		return types.ChatMessage{}, fmt.Errorf("failed to allocate message id: %w", err)
	}
	msg.ID = int(id)

	data, err := json.Marshal(msg)
	if err != nil {
		return types.ChatMessage{}, err
	}

	pipe := c.rdb.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, -MaxMessages, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return types.ChatMessage{}, fmt.Errorf("failed to store message: %w", err)
	}

	return msg, nil
}

// Messages returns the session transcript in order. Entries that fail to
// decode are skipped.
func (c *Client) Messages(ctx context.Context, session string) ([]types.ChatMessage, error) {
	values, err := c.rdb.LRange(ctx, chatKey(session), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	messages := make([]types.ChatMessage, 0, len(values))
	for _, val := range values {
		var msg types.ChatMessage
		if err := json.Unmarshal([]byte(val), &msg); err != nil {
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// ClearSession deletes the transcript and resets its id counter.
func (c *Client) ClearSession(ctx context.Context, session string) error {
	return c.rdb.Del(ctx, chatKey(session), seqKey(session)).Err()
}

// Sessions returns the names of every stored transcript, sorted.
func (c *Client) Sessions(ctx context.Context) ([]string, error) {
	keys, err := c.ScanKeys(ctx, ChatKeyPrefix+"*")
	if err != nil {
		return nil, err
	}

	sessions := make([]string, 0, len(keys))
	for _, key := range keys {
		sessions = append(sessions, strings.TrimPrefix(key, ChatKeyPrefix))
	}
	sort.Strings(sessions)
	return sessions, nil
}

// ScanKeys scans for all keys matching a pattern.
func (c *Client) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	var cursor uint64

	for {
		var batch []string
		var err error
		batch, cursor, err = c.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return keys, err
		}

		keys = append(keys, batch...)

		if cursor == 0 {
			break
		}
	}

	return keys, nil
}

// IsAvailable checks if Redis is reachable at url.
func IsAvailable(url string) bool {
	client, err := NewClient(url)
	if err != nil {
		return false
	}
	defer client.Close()
	return true
}
