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

package nats

import (
	"context"
	"github.com/go-errors/errors"
	"github.com/nats-io/nats.go"
	"github.com/noctarius/change-ingestor/internal/version"
	"github.com/noctarius/change-ingestor/spi/broker"
	"github.com/noctarius/change-ingestor/spi/changes"
	"github.com/noctarius/change-ingestor/spi/config"
	"github.com/noctarius/change-ingestor/spi/encoding"
	"github.com/noctarius/change-ingestor/spi/sink"
)

const headerKey = "key"

func init() {
	sink.RegisterSink(config.NATS, newNatsSink)
}

type natsSink struct {
	client           *nats.Conn
	jetStreamContext nats.JetStreamContext
	topicPrefix      string
	encoder          *encoding.JsonEncoder
}

func newNatsSink(
	c *config.Config,
) (sink.Sink, error) {

	client, err := broker.Connect(c, version.BinName+"-sink")
	if err != nil {
		return nil, err
	}

	jetStreamContext, err := client.JetStream()
	if err != nil {
		client.Close()
		return nil, errors.Wrap(err, 0)
	}

	return &natsSink{
		client:           client,
		jetStreamContext: jetStreamContext,
		topicPrefix:      sink.TopicPrefix(c),
		encoder:          encoding.NewJsonEncoderWithConfig(c),
	}, nil
}

func (n *natsSink) Start() error {
	return nil
}

func (n *natsSink) Stop() error {
	n.client.Close()
	return nil
}

// Persist publishes every change to the subject of its table. Publishes
// are awaited one by one, the stream acknowledgment makes them durable.
func (n *natsSink) Persist(
	ctx context.Context, messages []*changes.ChangeMessage,
) error {

	for _, message := range messages {
		key, document, err := n.encoder.EncodeChange(message)
		if err != nil {
			return err
		}

		header := nats.Header{}
		header.Add(headerKey, string(key))

		if _, err := n.jetStreamContext.PublishMsg(
			&nats.Msg{
				Subject: sink.TopicName(n.topicPrefix, message.Record()),
				Header:  header,
				Data:    document,
			},
			nats.Context(ctx),
		); err != nil {
			return errors.Wrap(err, 0)
		}
	}
	return nil
}
