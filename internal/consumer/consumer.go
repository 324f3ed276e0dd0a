/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements. See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License. You may obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package consumer

import (
	"context"
	"github.com/go-errors/errors"
	"github.com/hashicorp/go-uuid"
	"github.com/nats-io/nats.go"
	"github.com/noctarius/change-ingestor/internal/pipeline"
	"github.com/noctarius/change-ingestor/internal/supporting/logging"
	"github.com/noctarius/change-ingestor/internal/version"
	"github.com/noctarius/change-ingestor/internal/waiting"
	"github.com/noctarius/change-ingestor/spi/broker"
	"github.com/noctarius/change-ingestor/spi/config"
	"time"
)

const (
	defaultBatchSize   = 100
	defaultMaxWait     = 5 * time.Second
	defaultStopTimeout = 30 * time.Second
)

// Processor handles one fetched batch, see pipeline.Pipeline.
type Processor interface {
	Process(ctx context.Context, batch []broker.Message, now time.Time) ([]pipeline.Outcome, error)
}

// Consumer pulls batches from a durable JetStream consumer and hands
// them to the processor. Messages are acknowledged according to their
// outcome.
type Consumer struct {
	config          *config.Config
	processor       Processor
	stream          string
	subject         string
	durable         string
	batchSize       int
	maxWait         time.Duration
	conn            *nats.Conn
	subscription    *nats.Subscription
	cancel          context.CancelFunc
	shutdownAwaiter *waiting.ShutdownAwaiter
	clock           func() time.Time
	logger          *logging.Logger
}

func NewConsumer(
	c *config.Config, processor Processor,
) (*Consumer, error) {

	logger, err := logging.NewLogger("Consumer")
	if err != nil {
		return nil, err
	}

	subject := config.GetOrDefault(c, config.PropertyNatsSubject, "")
	if subject == "" {
		return nil, errors.Errorf("NATS subject must be configured")
	}

	batchSize := config.GetOrDefault(c, config.PropertyNatsFetchBatchSize, defaultBatchSize)
	if batchSize <= 0 {
		return nil, errors.Errorf("NATS fetch batch size must be positive, got %d", batchSize)
	}

	return &Consumer{
		config:          c,
		processor:       processor,
		stream:          config.GetOrDefault(c, config.PropertyNatsStream, ""),
		subject:         subject,
		durable:         config.GetOrDefault(c, config.PropertyNatsConsumerName, version.BinName),
		batchSize:       batchSize,
		maxWait:         config.GetOrDefault(c, config.PropertyNatsFetchMaxWait, defaultMaxWait),
		shutdownAwaiter: waiting.NewShutdownAwaiter(),
		clock:           time.Now,
		logger:          logger,
	}, nil
}

// Start connects to NATS, binds the pull subscription and starts the
// fetch loop in the background.
func (c *Consumer) Start() error {
	instanceId, err := uuid.GenerateUUID()
	if err != nil {
		return errors.Wrap(err, 0)
	}

	conn, err := broker.Connect(c.config, version.BinName+"-"+instanceId)
	if err != nil {
		return err
	}

	jetStreamContext, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return errors.Wrap(err, 0)
	}

	options := make([]nats.SubOpt, 0, 1)
	if c.stream != "" {
		options = append(options, nats.BindStream(c.stream))
	}

	subscription, err := jetStreamContext.PullSubscribe(c.subject, c.durable, options...)
	if err != nil {
		conn.Close()
		return errors.Wrap(err, 0)
	}

	c.conn = conn
	c.subscription = subscription

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	c.logger.Infof("Consuming subject %s with durable consumer %s", c.subject, c.durable)
	go c.run(ctx)
	return nil
}

// Stop ends the fetch loop after the in-flight batch finished and closes
// the connection.
func (c *Consumer) Stop() error {
	if c.conn == nil {
		return nil
	}

	c.shutdownAwaiter.SignalShutdown()
	err := c.shutdownAwaiter.AwaitDone(defaultStopTimeout)
	if err != nil {
		c.logger.Warnf("Fetch loop didn't stop in time, cancelling in-flight batch")
	}
	c.cancel()
	c.conn.Close()
	return err
}

func (c *Consumer) run(
	ctx context.Context,
) {

	defer c.shutdownAwaiter.SignalDone()

	for !c.shutdownAwaiter.ShutdownRequested() {
		msgs, err := c.fetch(ctx)
		if err != nil {
			if isFetchTimeout(err) {
				continue
			}
			if ctx.Err() != nil || errors.Is(err, nats.ErrConnectionClosed) {
				return
			}
			c.logger.Warnf("Fetching from subject %s failed: %s", c.subject, err.Error())
			c.pause()
			continue
		}

		if err := c.handleBatch(ctx, msgs); err != nil {
			c.logger.Errorf("Batch of %d messages failed, requesting redelivery: %s", len(msgs), err.Error())
		}
	}
}

func (c *Consumer) fetch(
	ctx context.Context,
) ([]*nats.Msg, error) {

	fetchCtx, cancel := context.WithTimeout(ctx, c.maxWait)
	defer cancel()
	return c.subscription.Fetch(c.batchSize, nats.Context(fetchCtx))
}

func (c *Consumer) pause() {
	select {
	case <-c.shutdownAwaiter.AwaitShutdownChan():
	case <-time.After(c.maxWait):
	}
}

// handleBatch processes the batch and settles every message. Failed
// messages are terminated, a transient persist failure naks the rest.
func (c *Consumer) handleBatch(
	ctx context.Context, msgs []*nats.Msg,
) error {

	batch := make([]broker.Message, 0, len(msgs))
	settled := make([]*nats.Msg, 0, len(msgs))
	for _, msg := range msgs {
		message, err := broker.FromNatsMsg(msg)
		if err != nil {
			c.logger.Errorf("Terminating message without JetStream metadata on subject %s: %s", msg.Subject, err.Error())
			c.settle(msg.Term, msg)
			continue
		}
		batch = append(batch, message)
		settled = append(settled, msg)
	}

	if len(batch) == 0 {
		return nil
	}

	outcomes, err := c.processor.Process(ctx, batch, c.clock())
	for i, msg := range settled {
		outcome := outcomes[i]
		switch {
		case outcome.Kind == pipeline.Failed:
			c.settle(msg.Term, msg)
		case err != nil:
			c.settle(msg.Nak, msg)
		default:
			c.logger.Verbosef("Acknowledging %s message %s", outcome.Kind, msg.Subject)
			c.settle(msg.Ack, msg)
		}
	}
	return err
}

func (c *Consumer) settle(
	action func(opts ...nats.AckOpt) error, msg *nats.Msg,
) {

	if err := action(); err != nil {
		c.logger.Warnf("Failed to settle message on subject %s: %s", msg.Subject, err.Error())
	}
}

func isFetchTimeout(
	err error,
) bool {

	return errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}
