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
	"github.com/go-redis/redis"
	"github.com/noctarius/change-ingestor/spi/changes"
	"github.com/noctarius/change-ingestor/spi/config"
	"github.com/noctarius/change-ingestor/testsupport/containers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"testing"
	"time"
)

func Test_Redis_Sink_Config_Loading(t *testing.T) {
	s, err := newRedisSink(&config.Config{
		Sink: config.SinkConfig{
			Topic: config.TopicConfig{Prefix: "cdc."},
			Redis: config.RedisConfig{
				Address:  "redis:6380",
				Database: 3,
				Timeouts: config.RedisTimeoutConfig{Read: 7},
				TLS:      config.TLSConfig{Enabled: true, SkipVerify: true},
			},
		},
	})
	require.NoError(t, err)

	redisSink := s.(*redisSink)
	options := redisSink.client.Options()
	assert.Equal(t, "redis:6380", options.Addr)
	assert.Equal(t, 3, options.DB)
	assert.Equal(t, 7*time.Second, options.ReadTimeout)
	assert.Equal(t, 3*time.Second, options.WriteTimeout)
	require.NotNil(t, options.TLSConfig)
	assert.True(t, options.TLSConfig.InsecureSkipVerify)
	assert.Equal(t, "cdc.", redisSink.topicPrefix)
}

func Test_Redis_Sink_Persist(t *testing.T) {
	testcontainers.SkipIfProviderIsNotHealthy(t)

	container, address, err := containers.SetupRedisContainer()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	s, err := newRedisSink(&config.Config{
		Sink: config.SinkConfig{Redis: config.RedisConfig{Address: address}},
	})
	require.NoError(t, err)
	require.NoError(t, s.Start())
	t.Cleanup(func() {
		_ = s.Stop()
	})

	message, err := changes.NewChangeMessage(changes.ChangeRecord{
		PrimaryKey:    changes.NumberOf(1),
		Values:        changes.ObjectOf("id", changes.NumberOf(1)),
		Database:      "d",
		Schema:        "s",
		Table:         "t",
		Operation:     changes.CREATE,
		TransactionId: changes.NumberOf(5),
		Position:      100,
	}, "S", 1, nil, changes.DefaultMarkers())
	require.NoError(t, err)

	require.NoError(t, s.Persist(context.Background(), []*changes.ChangeMessage{message}))

	client := redis.NewClient(&redis.Options{Addr: address, DB: 0, MaxRetries: 1})
	defer client.Close()

	entries, err := client.XRange("changes.d.s.t", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.JSONEq(t, `{"database":"d","schema":"s","table":"t","primary_key":1}`, entries[0].Values["key"].(string))
	assert.Contains(t, entries[0].Values["envelope"], `"position":100`)
}
