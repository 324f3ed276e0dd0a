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

package kafka

import (
	"context"
	"crypto/tls"
	"github.com/IBM/sarama"
	"github.com/go-errors/errors"
	"github.com/noctarius/change-ingestor/internal/version"
	"github.com/noctarius/change-ingestor/spi/changes"
	"github.com/noctarius/change-ingestor/spi/config"
	"github.com/noctarius/change-ingestor/spi/encoding"
	"github.com/noctarius/change-ingestor/spi/sink"
)

func init() {
	sink.RegisterSink(config.Kafka, newKafkaSink)
}

type kafkaSink struct {
	producer    sarama.SyncProducer
	topicPrefix string
	encoder     *encoding.JsonEncoder
}

func newKafkaSink(
	c *config.Config,
) (sink.Sink, error) {

	producer, err := sarama.NewSyncProducer(
		config.GetOrDefault(c, config.PropertyKafkaBrokers, []string{"localhost:9092"}), newProducerConfig(c),
	)
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}
	return newKafkaSinkWithProducer(c, producer), nil
}

func newKafkaSinkWithProducer(
	c *config.Config, producer sarama.SyncProducer,
) *kafkaSink {

	return &kafkaSink{
		producer:    producer,
		topicPrefix: sink.TopicPrefix(c),
		encoder:     encoding.NewJsonEncoderWithConfig(c),
	}
}

func newProducerConfig(
	c *config.Config,
) *sarama.Config {

	kafkaConfig := sarama.NewConfig()
	kafkaConfig.ClientID = version.BinName
	kafkaConfig.Producer.Idempotent = config.GetOrDefault(
		c, config.PropertyKafkaIdempotent, false,
	)
	if kafkaConfig.Producer.Idempotent {
		// idempotent producers require exactly one in-flight request and all acks
		kafkaConfig.Net.MaxOpenRequests = 1
		kafkaConfig.Producer.RequiredAcks = sarama.WaitForAll
	} else {
		kafkaConfig.Producer.RequiredAcks = sarama.WaitForLocal
	}
	kafkaConfig.Producer.Return.Successes = true
	kafkaConfig.Producer.Retry.Max = 10

	if config.GetOrDefault(c, config.PropertyKafkaSaslEnabled, false) {
		kafkaConfig.Net.SASL.Enable = true
		kafkaConfig.Net.SASL.User = config.GetOrDefault(
			c, config.PropertyKafkaSaslUser, "",
		)
		kafkaConfig.Net.SASL.Password = config.GetOrDefault(
			c, config.PropertyKafkaSaslPassword, "",
		)
		kafkaConfig.Net.SASL.Mechanism = config.GetOrDefault[sarama.SASLMechanism](
			c, config.PropertyKafkaSaslMechanism, sarama.SASLTypePlaintext,
		)
	}

	if config.GetOrDefault(c, config.PropertyKafkaTlsEnabled, false) {
		kafkaConfig.Net.TLS.Enable = true
		kafkaConfig.Net.TLS.Config = &tls.Config{
			InsecureSkipVerify: config.GetOrDefault(
				c, config.PropertyKafkaTlsSkipVerify, false,
			),
			ClientAuth: config.GetOrDefault(
				c, config.PropertyKafkaTlsClientAuth, tls.NoClientCert,
			),
		}
	}
	return kafkaConfig
}

func (k *kafkaSink) Start() error {
	return nil
}

func (k *kafkaSink) Stop() error {
	return k.producer.Close()
}

// Persist sends all changes in one request, keyed by the row identity
// so changes of the same row land in the same partition.
func (k *kafkaSink) Persist(
	_ context.Context, messages []*changes.ChangeMessage,
) error {

	producerMessages := make([]*sarama.ProducerMessage, 0, len(messages))
	for _, message := range messages {
		key, document, err := k.encoder.EncodeChange(message)
		if err != nil {
			return err
		}

		record := message.Record()
		producerMessage := &sarama.ProducerMessage{
			Topic: sink.TopicName(k.topicPrefix, record),
			Key:   sarama.ByteEncoder(key),
			Value: sarama.ByteEncoder(document),
		}
		if !record.CommittedAt.IsZero() {
			producerMessage.Timestamp = record.CommittedAt
		}
		producerMessages = append(producerMessages, producerMessage)
	}

	if err := k.producer.SendMessages(producerMessages); err != nil {
		return errors.Wrap(err, 0)
	}
	return nil
}
