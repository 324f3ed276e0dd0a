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

package stats

import (
	"context"
	"github.com/go-errors/errors"
	"github.com/noctarius/change-ingestor/internal/supporting/logging"
	"github.com/noctarius/change-ingestor/internal/version"
	"github.com/noctarius/change-ingestor/spi/config"
	"github.com/segmentio/stats/v4"
	"github.com/segmentio/stats/v4/procstats"
	"github.com/segmentio/stats/v4/prometheus"
	"io"
	"net/http"
	"time"
)

const defaultAddress = ":8081"

type Service struct {
	statsEnabled bool
	runtimeStats bool
	handler      *prometheus.Handler
	engine       *stats.Engine
	server       *http.Server
	collector    io.Closer
	logger       *logging.Logger
}

func NewStatsService(
	c *config.Config,
) (*Service, error) {

	logger, err := logging.NewLogger("StatsService")
	if err != nil {
		return nil, err
	}

	statsHandler := &prometheus.Handler{
		TrimPrefix: version.BinName,
	}

	statsEnabled := config.GetOrDefault(c, config.PropertyStatsEnabled, true)
	runtimeStatsEnabled := config.GetOrDefault(c, config.PropertyRuntimeStatsEnabled, true)
	address := config.GetOrDefault(c, config.PropertyStatsAddress, defaultAddress)

	engine := stats.NewEngine(version.BinName, statsHandler)

	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", statsHandler.ServeHTTP)

	return &Service{
		statsEnabled: statsEnabled,
		runtimeStats: runtimeStatsEnabled,
		handler:      statsHandler,
		engine:       engine,
		logger:       logger,
		server: &http.Server{
			Addr:              address,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

func (s *Service) Start() error {
	if !s.statsEnabled {
		return nil
	}

	if s.runtimeStats {
		s.collector = procstats.StartCollector(procstats.NewGoMetricsWith(s.engine))
	}

	s.logger.Infof("Exposing metrics on %s/metrics", s.server.Addr)
	go func() {
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorf("Metrics endpoint stopped: %s", err.Error())
		}
	}()
	return nil
}

func (s *Service) Stop() error {
	if !s.statsEnabled {
		return nil
	}
	if s.collector != nil {
		_ = s.collector.Close()
	}
	s.engine.Flush()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Handler exposes the prometheus handler, mostly for tests.
func (s *Service) Handler() http.Handler {
	return s.handler
}

func (s *Service) NewReporter(
	prefix string,
) *Reporter {

	return &Reporter{
		statsEnabled: s.statsEnabled,
		engine:       s.engine.WithPrefix(prefix),
	}
}

// Reporter records metrics under a component prefix. All methods are
// no-ops if stats are disabled.
type Reporter struct {
	statsEnabled bool
	engine       *stats.Engine
}

func (r *Reporter) Incr(
	name string, tags ...stats.Tag,
) {

	if r.statsEnabled {
		r.engine.Incr(name, tags...)
	}
}

func (r *Reporter) Add(
	name string, value int, tags ...stats.Tag,
) {

	if r.statsEnabled && value != 0 {
		r.engine.Add(name, value, tags...)
	}
}

func (r *Reporter) Observe(
	name string, value time.Duration, tags ...stats.Tag,
) {

	if r.statsEnabled {
		r.engine.Observe(name, value, tags...)
	}
}

// Tag creates a metric tag.
func Tag(
	name, value string,
) stats.Tag {

	return stats.T(name, value)
}
