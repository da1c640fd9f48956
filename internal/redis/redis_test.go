package redis

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/Jayphen/todoapp/internal/types"
)

// setupTestRedis creates a test Redis client with miniredis
func setupTestRedis(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	client := &Client{rdb: rdb}
	return client, mr
}

func TestAppendAndReadMessages(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	inputs := []types.ChatMessage{
		{Sender: types.SenderUser, Text: "what is due today?", Timestamp: now},
		{Sender: types.SenderBot, Text: "Buy milk", Timestamp: now.Add(time.Second)},
		{Sender: types.SenderUser, Text: "thanks", Timestamp: now.Add(2 * time.Second)},
	}

	for i, in := range inputs {
		stored, err := client.AppendMessage(ctx, "default", in)
		if err != nil {
			t.Fatalf("AppendMessage failed: %v", err)
		}
		if stored.ID != i+1 {
			t.Errorf("message %d got id %d, want %d", i, stored.ID, i+1)
		}
	}

	got, err := client.Messages(ctx, "default")
	if err != nil {
		t.Fatalf("Messages failed: %v", err)
	}
	if len(got) != len(inputs) {
		t.Fatalf("expected %d messages, got %d", len(inputs), len(got))
	}
	for i, msg := range got {
		if msg.ID != i+1 {
			t.Errorf("message %d id = %d", i, msg.ID)
		}
		if msg.Sender != inputs[i].Sender || msg.Text != inputs[i].Text {
			t.Errorf("message %d = %+v, want %+v", i, msg, inputs[i])
		}
		if !msg.Timestamp.Equal(inputs[i].Timestamp) {
			t.Errorf("message %d timestamp = %v, want %v", i, msg.Timestamp, inputs[i].Timestamp)
		}
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	ctx := context.Background()

	if _, err := client.AppendMessage(ctx, "home", types.ChatMessage{Sender: types.SenderUser, Text: "a"}); err != nil {
		t.Fatal(err)
	}
	work, err := client.AppendMessage(ctx, "work", types.ChatMessage{Sender: types.SenderUser, Text: "b"})
	if err != nil {
		t.Fatal(err)
	}
	if work.ID != 1 {
		t.Errorf("ids are per session, got %d", work.ID)
	}

	sessions, err := client.Sessions(ctx)
	if err != nil {
		t.Fatalf("Sessions failed: %v", err)
	}
	if len(sessions) != 2 || sessions[0] != "home" || sessions[1] != "work" {
		t.Errorf("Sessions() = %v, want [home work]", sessions)
	}
}

func TestSessionNamesDoNotCollideWithCounters(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	ctx := context.Background()

	for _, session := range []string{"foo", "foo", "foo:seq"} {
		if _, err := client.AppendMessage(ctx, session, types.ChatMessage{Sender: types.SenderUser, Text: session}); err != nil {
			t.Fatalf("AppendMessage(%q) failed: %v", session, err)
		}
	}

	msgs, err := client.Messages(ctx, "foo:seq")
	if err != nil {
		t.Fatalf("Messages failed: %v", err)
	}
	if len(msgs) != 1 || msgs[0].ID != 1 {
		t.Errorf("foo:seq transcript = %+v, want one message with id 1", msgs)
	}

	next, err := client.AppendMessage(ctx, "foo", types.ChatMessage{Sender: types.SenderUser, Text: "third"})
	if err != nil {
		t.Fatal(err)
	}
	if next.ID != 3 {
		t.Errorf("foo counter = %d, want 3", next.ID)
	}

	sessions, err := client.Sessions(ctx)
	if err != nil {
		t.Fatalf("Sessions failed: %v", err)
	}
	if len(sessions) != 2 || sessions[0] != "foo" || sessions[1] != "foo:seq" {
		t.Errorf("Sessions() = %v, want [foo foo:seq]", sessions)
	}

	if err := client.ClearSession(ctx, "foo:seq"); err != nil {
		t.Fatalf("ClearSession failed: %v", err)
	}
	if mr.Exists(ChatSeqPrefix + "foo:seq") {
		t.Error("counter key still exists")
	}
	if msgs, _ := client.Messages(ctx, "foo"); len(msgs) != 3 {
		t.Errorf("clearing foo:seq touched foo: %d messages left", len(msgs))
	}
}

func TestClearSession(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := client.AppendMessage(ctx, "default", types.ChatMessage{Sender: types.SenderUser, Text: "m"}); err != nil {
			t.Fatal(err)
		}
	}

	if err := client.ClearSession(ctx, "default"); err != nil {
		t.Fatalf("ClearSession failed: %v", err)
	}

	if mr.Exists(ChatKeyPrefix + "default") {
		t.Error("transcript key still exists")
	}

	msgs, err := client.Messages(ctx, "default")
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 0 {
		t.Errorf("expected empty transcript, got %d", len(msgs))
	}

	next, err := client.AppendMessage(ctx, "default", types.ChatMessage{Sender: types.SenderUser, Text: "again"})
	if err != nil {
		t.Fatal(err)
	}
	if next.ID != 1 {
		t.Errorf("id counter should restart at 1, got %d", next.ID)
	}
}

func TestMessages_MaxLimit(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	ctx := context.Background()

	total := MaxMessages + 15
	for i := 0; i < total; i++ {
		if _, err := client.AppendMessage(ctx, "long", types.ChatMessage{Sender: types.SenderUser, Text: strconv.Itoa(i)}); err != nil {
			t.Fatalf("AppendMessage failed: %v", err)
		}
	}

	msgs, err := client.Messages(ctx, "long")
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != MaxMessages {
		t.Fatalf("expected %d messages (limit), got %d", MaxMessages, len(msgs))
	}
	if msgs[0].ID != 16 {
		t.Errorf("oldest kept message id = %d, want 16", msgs[0].ID)
	}
	if msgs[len(msgs)-1].ID != total {
		t.Errorf("newest message id = %d, want %d", msgs[len(msgs)-1].ID, total)
	}
}

func TestMessages_SkipsCorrupt(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	ctx := context.Background()

	if _, err := client.AppendMessage(ctx, "default", types.ChatMessage{Sender: types.SenderUser, Text: "ok"}); err != nil {
		t.Fatal(err)
	}
	if _, err := mr.Push(ChatKeyPrefix+"default", "{not json"); err != nil {
		t.Fatal(err)
	}

	msgs, err := client.Messages(ctx, "default")
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || msgs[0].Text != "ok" {
		t.Errorf("Messages() = %+v", msgs)
	}
}

func TestMessages_Empty(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	msgs, err := client.Messages(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("Messages failed: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("Expected 0 messages, got %d", len(msgs))
	}
}

func TestScanKeys(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	ctx := context.Background()

	keys := []string{
		"todoapp:chat:one",
		"todoapp:chat:two",
		"todoapp:chatseq:two",
		"other:key",
	}

	for _, key := range keys {
		err := client.rdb.Set(ctx, key, "value", 0).Err()
		if err != nil {
			t.Fatalf("Failed to set key %s: %v", key, err)
		}
	}

	tests := []struct {
		name     string
		pattern  string
		expected int
	}{
		{"transcripts", "todoapp:chat:*", 2},
		{"counters", "todoapp:chatseq:*", 1},
		{"no matches", "nonexistent:*", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := client.ScanKeys(ctx, tt.pattern)
			if err != nil {
				t.Fatalf("ScanKeys failed: %v", err)
			}

			if len(found) != tt.expected {
				t.Errorf("Expected %d keys, got %d", tt.expected, len(found))
			}
		})
	}
}

func TestNewClient(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()

	client, err := NewClient("redis://" + mr.Addr())
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	defer client.Close()

	if !IsAvailable("redis://" + mr.Addr()) {
		t.Error("IsAvailable returned false for a running server")
	}

	if _, err := NewClient("not a url"); err == nil {
		t.Error("expected error for an invalid URL")
	}
}

func TestClose(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()

	err := client.Close()
	if err != nil {
		t.Errorf("Close failed: %v", err)
	}

	// Verify connection is closed (operations should fail)
	ctx := context.Background()
	err = client.rdb.Ping(ctx).Err()
	if err == nil {
		t.Error("Expected error after closing connection, got nil")
	}
}
