//go:build integration

package queue

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/valkey-io/valkey-go"
)

func setupValkey(t *testing.T) valkey.Client {
	t.Helper()
	addr := os.Getenv("TEST_VALKEY_ADDR")
	if addr == "" {
		t.Skip("TEST_VALKEY_ADDR not set")
	}
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		t.Skipf("valkey not available: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestProducerConsumer(t *testing.T) {
	client := setupValkey(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	consumer := NewConsumer(client, "test-"+uuid.NewString(), logger)
	if err := consumer.EnsureGroup(ctx); err != nil {
		t.Fatalf("EnsureGroup: %v", err)
	}
	// Idempotent.
	if err := consumer.EnsureGroup(ctx); err != nil {
		t.Fatalf("EnsureGroup again: %v", err)
	}

	want := SyncMessage{JobID: uuid.New(), Kind: KindCreate, CourseDir: "/courses/queue-test", Source: SourceLocal, Trigger: "manual"}
	if _, err := NewProducer(client).Enqueue(ctx, want); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	got := make(chan SyncMessage, 1)
	go consumer.Consume(ctx, func(_ context.Context, msg SyncMessage) error {
		if msg.JobID == want.JobID {
			got <- msg
			cancel()
		}
		return nil
	})

	select {
	case msg := <-got:
		if msg.CourseDir != want.CourseDir {
			t.Errorf("course dir = %q", msg.CourseDir)
		}
	case <-time.After(12 * time.Second):
		t.Fatal("message not consumed")
	}
}
