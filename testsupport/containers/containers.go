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

package containers

import (
	"context"
	"fmt"
	"github.com/docker/go-connections/nat"
	"github.com/noctarius/change-ingestor/internal/supporting/logging"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"time"
)

const startupTimeout = 2 * time.Minute

// startContainer runs the container request and resolves the mapped
// address of the given port.
func startContainer(
	name string, request testcontainers.ContainerRequest, port nat.Port,
) (testcontainers.Container, string, int, error) {

	logger, err := logging.NewLogger(fmt.Sprintf("testcontainers-%s", name))
	if err != nil {
		return nil, "", 0, err
	}

	request.LogConsumerCfg = &testcontainers.LogConsumerConfig{
		Consumers: []testcontainers.LogConsumer{newLogConsumer(logger)},
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: request,
		Started:          true,
		Logger:           logger,
	})
	if err != nil {
		return nil, "", 0, err
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(context.Background())
		return nil, "", 0, err
	}

	mappedPort, err := container.MappedPort(ctx, port)
	if err != nil {
		_ = container.Terminate(context.Background())
		return nil, "", 0, err
	}

	return container, host, mappedPort.Int(), nil
}

// SetupNatsContainer starts a JetStream enabled NATS server and returns
// its client url.
func SetupNatsContainer() (testcontainers.Container, string, error) {
	container, host, port, err := startContainer("nats", testcontainers.ContainerRequest{
		Image:        "nats:2.10-alpine",
		ExposedPorts: []string{"4222/tcp", "8222/tcp"},
		Cmd:          []string{"--js"},
		WaitingFor:   wait.NewLogStrategy("Server is ready"),
	}, "4222/tcp")
	if err != nil {
		return nil, "", err
	}
	return container, fmt.Sprintf("nats://%s:%d", host, port), nil
}

// SetupPostgresContainer starts a PostgreSQL server and returns its
// connection string.
func SetupPostgresContainer() (testcontainers.Container, string, error) {
	container, host, port, err := startContainer("postgres", testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
			"POSTGRES_DB":       "ingestor",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}, "5432/tcp")
	if err != nil {
		return nil, "", err
	}
	return container, fmt.Sprintf("postgres://postgres:postgres@%s:%d/ingestor?sslmode=disable", host, port), nil
}

// SetupRedisContainer starts a Redis server and returns its address.
func SetupRedisContainer() (testcontainers.Container, string, error) {
	container, host, port, err := startContainer("redis", testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}, "6379/tcp")
	if err != nil {
		return nil, "", err
	}
	return container, fmt.Sprintf("%s:%d", host, port), nil
}
