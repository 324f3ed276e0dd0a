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

package internal

import (
	"github.com/go-errors/errors"
	"github.com/noctarius/change-ingestor/internal/consumer"
	"github.com/noctarius/change-ingestor/internal/pipeline"
	"github.com/noctarius/change-ingestor/internal/stats"
	"github.com/noctarius/change-ingestor/internal/supporting"
	"github.com/noctarius/change-ingestor/internal/supporting/logging"
	"github.com/noctarius/change-ingestor/spi/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func newConfig() *config.Config {
	return &config.Config{
		Nats:  config.NatsConfig{Subject: "cdc.>"},
		Stats: config.StatsConfig{Enabled: supporting.AddrOf(false)},
	}
}

func Test_Ingestor_Wiring(t *testing.T) {
	ingestor, err := NewIngestor(newConfig())
	require.NoError(t, err)

	require.Len(t, ingestor.services, 3)
	assert.IsType(t, &stats.Service{}, ingestor.services[0])
	assert.IsType(t, &pipeline.Pipeline{}, ingestor.services[1])
	assert.IsType(t, &consumer.Consumer{}, ingestor.services[2])
}

type recordingService struct {
	name     string
	startErr error
	events   *[]string
}

func (r *recordingService) Start() error {
	*r.events = append(*r.events, "start "+r.name)
	return r.startErr
}

func (r *recordingService) Stop() error {
	*r.events = append(*r.events, "stop "+r.name)
	return nil
}

func newRecordingIngestor(
	t *testing.T, events *[]string, services ...*recordingService,
) *Ingestor {

	logger, err := logging.NewLogger("Ingestor")
	require.NoError(t, err)

	ingestor := &Ingestor{logger: logger}
	for _, s := range services {
		s.events = events
		ingestor.services = append(ingestor.services, s)
	}
	return ingestor
}

func Test_Ingestor_Start_Failure_Stops_Started_Services(t *testing.T) {
	events := make([]string, 0)
	ingestor := newRecordingIngestor(t, &events,
		&recordingService{name: "stats"},
		&recordingService{name: "pipeline"},
		&recordingService{name: "consumer", startErr: errors.New("nats unreachable")},
	)

	err := ingestor.Start()
	require.Error(t, err)
	assert.Equal(t, []string{
		"start stats", "start pipeline", "start consumer", "stop pipeline", "stop stats",
	}, events)
}

func Test_Ingestor_Stop_Reverse_Order(t *testing.T) {
	events := make([]string, 0)
	ingestor := newRecordingIngestor(t, &events,
		&recordingService{name: "stats"},
		&recordingService{name: "pipeline"},
		&recordingService{name: "consumer"},
	)

	require.NoError(t, ingestor.Start())
	require.NoError(t, ingestor.Stop())
	assert.Equal(t, []string{
		"start stats", "start pipeline", "start consumer", "stop consumer", "stop pipeline", "stop stats",
	}, events)
}

func Test_Ingestor_Unknown_Sink(t *testing.T) {
	c := newConfig()
	c.Sink.Type = "carrier-pigeon"

	_, err := NewIngestor(c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SinkType 'carrier-pigeon' doesn't exist")
}

func Test_Ingestor_Conflicting_Markers(t *testing.T) {
	c := newConfig()
	c.Markers = config.MarkersConfig{Context: "_audit", Heartbeat: "_audit"}

	_, err := NewIngestor(c)
	assert.Error(t, err)
}

func Test_Ingestor_Invalid_Filter(t *testing.T) {
	c := newConfig()
	c.Filters = map[string]config.FilterConfig{
		"broken": {Condition: "table == "},
	}

	_, err := NewIngestor(c)
	assert.Error(t, err)
}
