// Package queue carries sync jobs over a Valkey stream.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/valkey-io/valkey-go"
)

const (
	StreamName = "coursesync:jobs"
	GroupName  = "coursesync-workers"
)

// Job kinds.
const (
	KindFull     = "full"     // full sync of a known course
	KindCreate   = "create"   // sync-or-create by directory
	KindQuestion = "question" // incremental single question sync
)

// Job sources.
const (
	SourceLocal  = "local"
	SourceGit    = "git"
	SourceUpload = "upload"
	SourceS3     = "s3"
)

// Job triggers.
const (
	TriggerManual   = "manual"
	TriggerWebhook  = "webhook"
	TriggerSchedule = "schedule"
	TriggerUpload   = "upload"
	TriggerWatch    = "watch"
)

// SyncMessage is the payload enqueued for worker processing.
type SyncMessage struct {
	JobID     uuid.UUID `json:"job_id"`
	Kind      string    `json:"kind"`
	CourseDir string    `json:"course_dir"`
	CourseID  uuid.UUID `json:"course_id,omitempty"`
	QID       string    `json:"qid,omitempty"`
	Source    string    `json:"source"`
	SourceRef string    `json:"source_ref,omitempty"` // git url, object name or s3 prefix
	Trigger   string    `json:"trigger"`
}

// Validate rejects messages a worker could never act on.
func (m SyncMessage) Validate() error {
	if m.JobID == uuid.Nil {
		return errors.New("missing job id")
	}
	if m.CourseDir == "" {
		return errors.New("missing course dir")
	}
	switch m.Kind {
	case KindCreate:
	case KindFull:
		if m.CourseID == uuid.Nil {
			return errors.New("full sync requires a course id")
		}
	case KindQuestion:
		if m.QID == "" {
			return errors.New("question sync requires a qid")
		}
	default:
		return fmt.Errorf("unknown job kind %q", m.Kind)
	}
	return nil
}

// Producer enqueues sync jobs to the Valkey stream.
type Producer struct {
	client valkey.Client
}

func NewProducer(client valkey.Client) *Producer {
	return &Producer{client: client}
}

func (p *Producer) Enqueue(ctx context.Context, msg SyncMessage) (string, error) {
	if err := msg.Validate(); err != nil {
		return "", fmt.Errorf("invalid sync message: %w", err)
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("marshal message: %w", err)
	}

	resp := p.client.Do(ctx, p.client.B().Xadd().
		Key(StreamName).Id("*").
		FieldValue().FieldValue("data", string(data)).
		Build())
	if err := resp.Error(); err != nil {
		return "", fmt.Errorf("xadd: %w", err)
	}

	id, err := resp.ToString()
	if err != nil {
		return "", fmt.Errorf("parse xadd response: %w", err)
	}
	return id, nil
}

// Handler processes one job. A returned error leaves the message pending so
// it is retried when the consumer restarts.
type Handler func(context.Context, SyncMessage) error

// Consumer reads sync jobs from the Valkey stream.
type Consumer struct {
	client     valkey.Client
	consumerID string
	logger     *slog.Logger
}

func NewConsumer(client valkey.Client, consumerID string, logger *slog.Logger) *Consumer {
	return &Consumer{client: client, consumerID: consumerID, logger: logger}
}

// EnsureGroup creates the consumer group if it doesn't exist.
func (c *Consumer) EnsureGroup(ctx context.Context) error {
	resp := c.client.Do(ctx, c.client.B().XgroupCreate().
		Key(StreamName).Group(GroupName).Id("0").Mkstream().Build())
	if err := resp.Error(); err != nil {
		if err.Error() != "BUSYGROUP Consumer Group name already exists" {
			return fmt.Errorf("xgroup create: %w", err)
		}
	}
	return nil
}

// Consume blocks until ctx is done, handing each message to handler and
// ACKing it on success. Messages left pending by a previous crash are
// drained first.
func (c *Consumer) Consume(ctx context.Context, handler Handler) error {
	c.drainPending(ctx, handler)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		resp := c.client.Do(ctx, c.client.B().Xreadgroup().
			Group(GroupName, c.consumerID).
			Count(1).Block(5000).
			Streams().Key(StreamName).Id(">").
			Build())

		if err := resp.Error(); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// BLOCK timeout
			continue
		}

		results, err := resp.AsXRead()
		if err != nil {
			continue
		}

		for _, messages := range results {
			for _, msg := range messages {
				c.processMessage(ctx, msg, handler)
			}
		}
	}
}

func (c *Consumer) drainPending(ctx context.Context, handler Handler) {
	resp := c.client.Do(ctx, c.client.B().Xreadgroup().
		Group(GroupName, c.consumerID).
		Count(10).
		Streams().Key(StreamName).Id("0").
		Build())

	if err := resp.Error(); err != nil {
		c.logger.Warn("drain pending failed", slog.String("error", err.Error()))
		return
	}

	results, err := resp.AsXRead()
	if err != nil {
		return
	}

	for _, messages := range results {
		for _, msg := range messages {
			c.logger.Info("recovering pending message", slog.String("id", msg.ID))
			c.processMessage(ctx, msg, handler)
		}
	}
}

// decodeEntry extracts the SyncMessage from a stream entry.
func decodeEntry(entry valkey.XRangeEntry) (SyncMessage, error) {
	var msg SyncMessage
	data, ok := entry.FieldValues["data"]
	if !ok {
		return msg, errors.New("message missing data field")
	}
	if err := json.Unmarshal([]byte(data), &msg); err != nil {
		return msg, fmt.Errorf("unmarshal message: %w", err)
	}
	if err := msg.Validate(); err != nil {
		return msg, err
	}
	return msg, nil
}

func (c *Consumer) processMessage(ctx context.Context, entry valkey.XRangeEntry, handler Handler) {
	msg, err := decodeEntry(entry)
	if err != nil {
		// Poison messages are dropped.
		c.logger.Error("discarding message", slog.String("error", err.Error()), slog.String("id", entry.ID))
		c.ack(ctx, entry.ID)
		return
	}

	if err := handler(ctx, msg); err != nil {
		c.logger.Error("handle message", slog.String("error", err.Error()),
			slog.String("id", entry.ID),
			slog.String("job_id", msg.JobID.String()))
		return
	}
	c.ack(ctx, entry.ID)
}

func (c *Consumer) ack(ctx context.Context, msgID string) {
	resp := c.client.Do(ctx, c.client.B().Xack().
		Key(StreamName).Group(GroupName).Id(msgID).Build())
	if err := resp.Error(); err != nil {
		c.logger.Error("xack failed", slog.String("error", err.Error()), slog.String("id", msgID))
	}
}
