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

package broker

import (
	"github.com/go-errors/errors"
	"github.com/nats-io/nats.go"
)

// Message is a raw message as delivered by the broker.
type Message interface {
	Data() []byte
	Subject() string
	// StreamSequence is assigned by the broker and increases
	// monotonically per subject.
	StreamSequence() uint64
}

type message struct {
	data           []byte
	subject        string
	streamSequence uint64
}

func NewMessage(
	data []byte, subject string, streamSequence uint64,
) Message {

	return &message{
		data:           data,
		subject:        subject,
		streamSequence: streamSequence,
	}
}

func (m *message) Data() []byte {
	return m.data
}

func (m *message) Subject() string {
	return m.subject
}

func (m *message) StreamSequence() uint64 {
	return m.streamSequence
}

// NatsMessage is a Message backed by a JetStream delivered *nats.Msg.
type NatsMessage struct {
	msg            *nats.Msg
	streamSequence uint64
}

// FromNatsMsg adapts a JetStream message. Messages without JetStream
// metadata (plain core NATS) are rejected, since they carry no stream
// sequence.
func FromNatsMsg(
	msg *nats.Msg,
) (*NatsMessage, error) {

	metadata, err := msg.Metadata()
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}

	return &NatsMessage{
		msg:            msg,
		streamSequence: metadata.Sequence.Stream,
	}, nil
}

func (n *NatsMessage) Data() []byte {
	return n.msg.Data
}

func (n *NatsMessage) Subject() string {
	return n.msg.Subject
}

func (n *NatsMessage) StreamSequence() uint64 {
	return n.streamSequence
}

// Msg returns the underlying message, e.g., for acknowledgement.
func (n *NatsMessage) Msg() *nats.Msg {
	return n.msg
}
