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

package debezium

import (
	"github.com/go-errors/errors"
	"github.com/noctarius/change-ingestor/internal/supporting/logging"
	"github.com/noctarius/change-ingestor/spi/broker"
	"github.com/noctarius/change-ingestor/spi/changes"
	"time"
)

// Result is the outcome of normalizing a broker message. It's either
// skipped (a heartbeat envelope) or carries a ChangeMessage.
type Result struct {
	message *changes.ChangeMessage
}

func (r Result) Skipped() bool {
	return r.message == nil
}

func (r Result) Message() (*changes.ChangeMessage, bool) {
	return r.message, r.message != nil
}

// Normalizer turns broker delivered change envelopes into change
// messages. It holds no mutable state and is safe for concurrent use.
type Normalizer struct {
	markers changes.Markers
	logger  *logging.Logger
}

func NewNormalizer(
	markers changes.Markers,
) (*Normalizer, error) {

	if markers.Context == "" || markers.Heartbeat == "" {
		return nil, errors.Errorf("context and heartbeat markers must not be empty")
	}
	if markers.Context == markers.Heartbeat {
		return nil, errors.Errorf("context and heartbeat markers must differ, both are '%s'", markers.Context)
	}

	logger, err := logging.NewLogger("Normalizer")
	if err != nil {
		return nil, err
	}

	return &Normalizer{
		markers: markers,
		logger:  logger,
	}, nil
}

func (n *Normalizer) Markers() changes.Markers {
	return n.markers
}

// FromBrokerMessage decodes and normalizes a single broker message. The
// given time becomes the record's creation time.
func (n *Normalizer) FromBrokerMessage(
	message broker.Message, now time.Time,
) (Result, error) {

	value, err := Decode(message.Data())
	if err != nil {
		return Result{}, err
	}

	object, ok := value.AsObject()
	if !ok {
		return Result{}, malformed("$", "expected an object but found %s", value.Kind())
	}
	object = unwrapConverterEnvelope(object)

	if isHeartbeatEnvelope(object) {
		n.logger.Debugf(
			"Ignoring heartbeat envelope on subject %s (stream sequence %d)",
			message.Subject(), message.StreamSequence(),
		)
		return Result{}, nil
	}

	envelope, err := ParseEnvelope(object)
	if err != nil {
		return Result{}, err
	}

	operation, err := ClassifyOperation(envelope.OpCode)
	if err != nil {
		return Result{}, err
	}

	var messagePrefix *string
	if operation == changes.MESSAGE {
		if envelope.Message == nil {
			return Result{}, malformed(fieldMessage, "required for operation %s", operation)
		}
		messagePrefix = &envelope.Message.Prefix
	}

	context, err := DecodeContext(envelope.Message, n.markers.Context)
	if err != nil {
		return Result{}, err
	}

	record, err := BuildChangeRecord(envelope, operation, context, now)
	if err != nil {
		return Result{}, err
	}

	changeMessage, err := changes.NewChangeMessage(
		record, message.Subject(), message.StreamSequence(), messagePrefix, n.markers,
	)
	if err != nil {
		return Result{}, err
	}
	return Result{message: changeMessage}, nil
}
