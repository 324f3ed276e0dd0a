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

package pipeline

import (
	"context"
	"fmt"
	"github.com/cenkalti/backoff/v4"
	"github.com/go-errors/errors"
	"github.com/noctarius/change-ingestor/internal/debezium"
	"github.com/noctarius/change-ingestor/internal/filtering"
	"github.com/noctarius/change-ingestor/internal/stats"
	"github.com/noctarius/change-ingestor/internal/stitching"
	"github.com/noctarius/change-ingestor/internal/supporting/logging"
	"github.com/noctarius/change-ingestor/spi/broker"
	"github.com/noctarius/change-ingestor/spi/changes"
	"github.com/noctarius/change-ingestor/spi/config"
	"github.com/noctarius/change-ingestor/spi/sink"
	"time"
)

const defaultMaxRetries = 8

type BackOffFactory = func() backoff.BackOff

type Option func(p *Pipeline)

// WithBackOff replaces the exponential back-off used for sink retries.
func WithBackOff(
	factory BackOffFactory,
) Option {

	return func(p *Pipeline) {
		p.backOffFactory = factory
	}
}

// Pipeline normalizes fetched batches, correlates context messages,
// filters and persists the surviving data changes.
type Pipeline struct {
	normalizer     *debezium.Normalizer
	stitcher       *stitching.Stitcher
	filter         filtering.Filter
	sink           sink.Sink
	reporter       *stats.Reporter
	backOffFactory BackOffFactory
	logger         *logging.Logger
}

func NewPipeline(
	c *config.Config, normalizer *debezium.Normalizer, stitcher *stitching.Stitcher,
	filter filtering.Filter, sink sink.Sink, reporter *stats.Reporter, options ...Option,
) (*Pipeline, error) {

	logger, err := logging.NewLogger("Pipeline")
	if err != nil {
		return nil, err
	}

	maxRetries := config.GetOrDefault(c, config.PropertySinkRetriesMax, defaultMaxRetries)
	if maxRetries < 0 {
		return nil, errors.Errorf("sink retries must not be negative, got %d", maxRetries)
	}

	p := &Pipeline{
		normalizer: normalizer,
		stitcher:   stitcher,
		filter:     filter,
		sink:       sink,
		reporter:   reporter,
		logger:     logger,
		backOffFactory: func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(maxRetries))
		},
	}
	for _, option := range options {
		option(p)
	}
	return p, nil
}

func (p *Pipeline) Start() error {
	return p.sink.Start()
}

func (p *Pipeline) Stop() error {
	return p.sink.Stop()
}

// Process handles a batch of broker messages. The returned outcomes are
// index aligned with the batch. Messages which can never succeed are
// reported as failed. A non-nil error means a transient failure kept the
// data changes from being persisted and the batch must be redelivered.
func (p *Pipeline) Process(
	ctx context.Context, batch []broker.Message, now time.Time,
) ([]Outcome, error) {

	outcomes := make([]Outcome, len(batch))
	indexes := make(map[*changes.ChangeMessage]int, len(batch))
	normalized := make([]*changes.ChangeMessage, 0, len(batch))

	for i, message := range batch {
		result, err := p.normalizer.FromBrokerMessage(message, now)
		if err != nil {
			p.logger.Errorf(
				"Failed to decode message on subject %s (stream sequence %d): %s",
				message.Subject(), message.StreamSequence(), err.Error(),
			)
			p.reporter.Incr("messages.failed", stats.Tag("reason", failureReason(err)))
			outcomes[i] = Outcome{Kind: Failed, Err: err}
			continue
		}

		changeMessage, ok := result.Message()
		if !ok {
			p.reporter.Incr("messages.skipped")
			outcomes[i] = Outcome{Kind: Skipped}
			continue
		}

		p.reporter.Incr("messages.decoded", stats.Tag("kind", changeMessage.Kind().String()))
		outcomes[i] = Outcome{Kind: Discarded, Message: changeMessage}
		indexes[changeMessage] = i
		normalized = append(normalized, changeMessage)
	}

	accepted := make([]*changes.ChangeMessage, 0, len(normalized))
	for _, changeMessage := range p.stitcher.Stitch(normalized) {
		ok, err := p.filter.Accept(changeMessage)
		if err != nil {
			// evaluation is deterministic, redelivery fails the same way
			p.logger.Errorf("Failed to evaluate filters for %s: %s", changeMessage, err.Error())
			p.reporter.Incr("messages.failed", stats.Tag("reason", "filter"))
			outcomes[indexes[changeMessage]] = Outcome{Kind: Failed, Message: changeMessage, Err: err}
			continue
		}
		if !ok {
			p.logger.Verbosef("Filtered %s", changeMessage)
			p.reporter.Incr("changes.filtered")
			continue
		}
		accepted = append(accepted, changeMessage)
	}

	if len(accepted) == 0 {
		return outcomes, nil
	}

	start := time.Now()
	err := p.persist(ctx, accepted)
	if err == nil {
		p.reporter.Observe("persist.duration", time.Since(start))
		p.reporter.Add("changes.persisted", len(accepted))
		for _, changeMessage := range accepted {
			outcomes[indexes[changeMessage]].Kind = Persisted
		}
		return outcomes, nil
	}

	var permanentError *PermanentPersistError
	if !errors.As(err, &permanentError) {
		p.reporter.Incr("batches.failed")
		return outcomes, err
	}

	p.logger.Warnf("Sink rejected batch of %d changes, persisting one by one: %s", len(accepted), err.Error())
	return outcomes, p.isolate(ctx, accepted, indexes, outcomes)
}

// isolate persists the changes one at a time after the sink permanently
// rejected the whole batch. Rejected changes are marked as failed, any
// transient failure fails the batch.
func (p *Pipeline) isolate(
	ctx context.Context, messages []*changes.ChangeMessage,
	indexes map[*changes.ChangeMessage]int, outcomes []Outcome,
) error {

	for _, changeMessage := range messages {
		index := indexes[changeMessage]
		err := p.persist(ctx, []*changes.ChangeMessage{changeMessage})
		if err == nil {
			p.reporter.Add("changes.persisted", 1)
			outcomes[index].Kind = Persisted
			continue
		}

		var permanentError *PermanentPersistError
		if !errors.As(err, &permanentError) {
			p.reporter.Incr("batches.failed")
			return err
		}

		p.logger.Errorf("Sink rejected %s: %s", changeMessage, err.Error())
		p.reporter.Incr("messages.failed", stats.Tag("reason", "rejected"))
		outcomes[index] = Outcome{Kind: Failed, Message: changeMessage, Err: err}
	}
	return nil
}

func (p *Pipeline) persist(
	ctx context.Context, messages []*changes.ChangeMessage,
) error {

	attempt := 0
	permanent := false
	operation := func() error {
		attempt++
		if err := p.sink.Persist(ctx, messages); err != nil {
			var permanentError *backoff.PermanentError
			permanent = errors.As(err, &permanentError)
			p.logger.Warnf("Persisting %d changes failed (attempt %d): %s", len(messages), attempt, err.Error())
			return err
		}
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(p.backOffFactory(), ctx)); err != nil {
		if permanent {
			return &PermanentPersistError{Cause: err}
		}
		return errors.Errorf("failed to persist %d changes after %d attempts: %s", len(messages), attempt, err.Error())
	}
	return nil
}

func failureReason(
	err error,
) string {

	var decodeError *debezium.DecodeError
	var malformedError *debezium.MalformedEnvelopeError
	var unknownOperation *debezium.UnknownOperationError
	var contextError *debezium.ContextParseError
	var positionError *debezium.PositionParseError

	switch {
	case errors.As(err, &decodeError):
		return "decode"
	case errors.As(err, &malformedError):
		return "malformed"
	case errors.As(err, &unknownOperation):
		return "unknown_operation"
	case errors.As(err, &contextError):
		return "context"
	case errors.As(err, &positionError):
		return "position"
	}
	return fmt.Sprintf("%T", err)
}
