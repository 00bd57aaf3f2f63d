// Package amqp implements the AMQP delta-ingestion transport: a consumer
// that turns queued delta payloads into Update Jobs.
//
// Grounded on cli/consumer.go's Consumer struct in the teacher codebase
// (Dial/Channel/QueueDeclare/Qos, manual-ack StartConsuming loop,
// Nack-with-requeue on processing failure), re-pointed at the Delta
// Router and the Update Handler's coalescing queue instead of CouchDB.
package amqp

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"

	"github.com/mu-semtech/delta-indexer/internal/deltarouter"
	"github.com/mu-semtech/delta-indexer/internal/rdfmodel"
	"github.com/mu-semtech/delta-indexer/internal/updatehandler"
)

// Consumer consumes delta payloads from a durable AMQP queue.
type Consumer struct {
	URL       string
	QueueName string
	Router    *deltarouter.Router
	Queue     *updatehandler.CoalescingQueue
	Logger    *logrus.Entry

	connection *amqp.Connection
	channel    *amqp.Channel
}

// NewConsumer builds a Consumer. Connect must be called before Run.
func NewConsumer(url, queueName string, router *deltarouter.Router, queue *updatehandler.CoalescingQueue, logger *logrus.Entry) *Consumer {
	return &Consumer{URL: url, QueueName: queueName, Router: router, Queue: queue, Logger: logger}
}

// Connect dials the broker, opens a channel, declares the queue durable,
// and applies a QoS of 1 so deltas are acknowledged one at a time.
func (c *Consumer) Connect() error {
	var err error
	c.connection, err = amqp.Dial(c.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to amqp broker: %w", err)
	}

	c.channel, err = c.connection.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.QueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := c.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}
	return nil
}

// Close releases the channel and connection. Safe to call on a Consumer
// that never connected.
func (c *Consumer) Close() {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.connection != nil {
		c.connection.Close()
	}
}

// Run consumes deliveries until ctx is cancelled. Each delivery is routed
// and its resulting jobs enqueued before it is acknowledged; a parse or
// routing failure is logged and the delivery is still acknowledged (spec
// §8 "non-array payload: no index mutation; error logged" — a malformed
// or unroutable message is not worth redelivering). A full coalescing
// queue blocking on Enqueue is the one condition that legitimately stalls
// acknowledgement, providing the backpressure spec §5 calls for.
func (c *Consumer) Run(ctx context.Context) error {
	deliveries, err := c.channel.Consume(
		c.QueueName,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case delivery, ok := <-deliveries:
			if !ok {
				return nil
			}
			c.process(ctx, delivery)
		}
	}
}

func (c *Consumer) process(ctx context.Context, delivery amqp.Delivery) {
	msg, err := rdfmodel.ParseDeltaMessage(delivery.Body)
	if err != nil {
		c.logf("parse delta delivery: %v", err)
		delivery.Ack(false)
		return
	}

	jobs, err := c.Router.Route(ctx, msg)
	if err != nil {
		c.logf("route delta delivery: %v", err)
		delivery.Ack(false)
		return
	}

	for _, job := range jobs {
		if err := c.Queue.Enqueue(ctx, job); err != nil {
			c.logf("enqueue job %s/%s: %v", job.TypeName, job.Subject, err)
			delivery.Nack(false, true)
			return
		}
	}
	delivery.Ack(false)
}

func (c *Consumer) logf(format string, args ...interface{}) {
	if c.Logger != nil {
		c.Logger.Warnf(format, args...)
	}
}
