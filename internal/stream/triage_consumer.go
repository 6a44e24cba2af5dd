package stream

import (
	"context"
	"log"

	"github.com/goccy/go-json"

	"triage_server/adapter/in/worker"
)

// Consumer reads triage jobs from Redis Streams and hands them off.
//
// Evaluation jobs are processed inline so a single consumer applies them in
// stream order; conversation triage jobs fan out to the worker pool.
type Consumer struct {
	stream  *RedisStream
	handler *worker.Handler
	pool    *worker.Pool
	name    string
}

func NewConsumer(stream *RedisStream, handler *worker.Handler, pool *worker.Pool, name string) *Consumer {
	return &Consumer{
		stream:  stream,
		handler: handler,
		pool:    pool,
		name:    name,
	}
}

func (c *Consumer) Start(ctx context.Context) {
	// Create consumer groups
	for _, s := range []string{StreamEvaluations, StreamTriage} {
		if err := c.stream.CreateGroup(ctx, s); err != nil {
			log.Printf("Failed to create group for %s: %v", s, err)
		}
	}

	go c.consumeInline(ctx, StreamEvaluations)
	go c.consumePooled(ctx, StreamTriage)
}

func (c *Consumer) consumeInline(ctx context.Context, stream string) {
	c.stream.Consume(ctx, stream, c.name, func(id string, data []byte) error {
		msg, err := c.decode(id, data)
		if err != nil {
			return err
		}
		return c.handler.Process(ctx, msg)
	})
}

func (c *Consumer) consumePooled(ctx context.Context, stream string) {
	c.stream.Consume(ctx, stream, c.name, func(id string, data []byte) error {
		msg, err := c.decode(id, data)
		if err != nil {
			return err
		}
		c.pool.Submit(msg)
		return nil
	})
}

func (c *Consumer) decode(id string, data []byte) (*worker.Message, error) {
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		log.Printf("Failed to unmarshal job %s: %v", id, err)
		return nil, err
	}

	return &worker.Message{
		ID:        job.ID,
		Type:      job.Type,
		Payload:   job.Payload,
		CreatedAt: job.CreatedAt,
	}, nil
}
