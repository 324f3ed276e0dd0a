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

package redis

import (
	"context"
	"crypto/tls"
	"github.com/go-errors/errors"
	"github.com/go-redis/redis"
	"github.com/noctarius/change-ingestor/spi/changes"
	"github.com/noctarius/change-ingestor/spi/config"
	"github.com/noctarius/change-ingestor/spi/encoding"
	"github.com/noctarius/change-ingestor/spi/sink"
	"time"
)

func init() {
	sink.RegisterSink(config.Redis, newRedisSink)
}

type redisSink struct {
	client      *redis.Client
	topicPrefix string
	encoder     *encoding.JsonEncoder
}

func newRedisSink(
	c *config.Config,
) (sink.Sink, error) {

	options := &redis.Options{
		Network: config.GetOrDefault(
			c, config.PropertyRedisNetwork, "tcp",
		),
		Addr: config.GetOrDefault(
			c, config.PropertyRedisAddress, "localhost:6379",
		),
		Password: config.GetOrDefault(
			c, config.PropertyRedisPassword, "",
		),
		DB: config.GetOrDefault(
			c, config.PropertyRedisDatabase, 0,
		),
		MaxRetries: config.GetOrDefault(
			c, config.PropertyRedisRetriesMax, 0,
		),
		MinRetryBackoff: time.Duration(config.GetOrDefault(
			c, config.PropertyRedisRetriesBackoffMin, 8,
		)) * time.Millisecond,
		MaxRetryBackoff: time.Duration(config.GetOrDefault(
			c, config.PropertyRedisRetriesBackoffMax, 512,
		)) * time.Millisecond,
		DialTimeout: time.Duration(config.GetOrDefault(
			c, config.PropertyRedisTimeoutDial, 5,
		)) * time.Second,
		ReadTimeout: time.Duration(config.GetOrDefault(
			c, config.PropertyRedisTimeoutRead, 3,
		)) * time.Second,
		WriteTimeout: time.Duration(config.GetOrDefault(
			c, config.PropertyRedisTimeoutWrite, 3,
		)) * time.Second,
		PoolSize: config.GetOrDefault(
			c, config.PropertyRedisPoolsize, 0,
		),
		PoolTimeout: time.Duration(config.GetOrDefault(
			c, config.PropertyRedisTimeoutPool, 4,
		)) * time.Second,
		IdleTimeout: time.Duration(config.GetOrDefault(
			c, config.PropertyRedisTimeoutIdle, 5,
		)) * time.Minute,
	}

	if config.GetOrDefault(c, config.PropertyRedisTlsEnabled, false) {
		options.TLSConfig = &tls.Config{
			InsecureSkipVerify: config.GetOrDefault(
				c, config.PropertyRedisTlsSkipVerify, false,
			),
			ClientAuth: config.GetOrDefault(
				c, config.PropertyRedisTlsClientAuth, tls.NoClientCert,
			),
		}
	}

	return &redisSink{
		client:      redis.NewClient(options),
		topicPrefix: sink.TopicPrefix(c),
		encoder:     encoding.NewJsonEncoderWithConfig(c),
	}, nil
}

func (r *redisSink) Start() error {
	if err := r.client.Ping().Err(); err != nil {
		return errors.Wrap(err, 0)
	}
	return nil
}

func (r *redisSink) Stop() error {
	return r.client.Close()
}

// Persist appends the changes to the per table streams in a single
// pipelined round trip.
func (r *redisSink) Persist(
	ctx context.Context, messages []*changes.ChangeMessage,
) error {

	pipeline := r.client.WithContext(ctx).Pipeline()
	defer pipeline.Close()

	for _, message := range messages {
		key, document, err := r.encoder.EncodeChange(message)
		if err != nil {
			return err
		}

		pipeline.XAdd(&redis.XAddArgs{
			Stream: sink.TopicName(r.topicPrefix, message.Record()),
			Values: map[string]any{
				"key":      string(key),
				"envelope": string(document),
			},
		})
	}

	if _, err := pipeline.Exec(); err != nil {
		return errors.Wrap(err, 0)
	}
	return nil
}
