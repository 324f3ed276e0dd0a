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
	"github.com/noctarius/change-ingestor/internal/debezium"
	"github.com/noctarius/change-ingestor/internal/filtering"
	"github.com/noctarius/change-ingestor/internal/pipeline"
	"github.com/noctarius/change-ingestor/internal/stats"
	"github.com/noctarius/change-ingestor/internal/stitching"
	"github.com/noctarius/change-ingestor/internal/supporting/logging"
	"github.com/noctarius/change-ingestor/spi/changes"
	"github.com/noctarius/change-ingestor/spi/config"
	"github.com/noctarius/change-ingestor/spi/sink"
	"github.com/samber/do"

	// sinks register themselves with the sink registry
	_ "github.com/noctarius/change-ingestor/internal/sinks/awssqs"
	_ "github.com/noctarius/change-ingestor/internal/sinks/kafka"
	_ "github.com/noctarius/change-ingestor/internal/sinks/nats"
	_ "github.com/noctarius/change-ingestor/internal/sinks/postgres"
	_ "github.com/noctarius/change-ingestor/internal/sinks/redis"
	_ "github.com/noctarius/change-ingestor/internal/sinks/stdout"
)

type service interface {
	Start() error
	Stop() error
}

// Ingestor owns the service graph of the worker: the NATS consumer
// feeding the pipeline, the sink it persists to and the stats service.
type Ingestor struct {
	injector *do.Injector
	// services in start order
	services []service
	logger   *logging.Logger
}

func NewIngestor(
	c *config.Config,
) (*Ingestor, error) {

	logger, err := logging.NewLogger("Ingestor")
	if err != nil {
		return nil, err
	}

	injector := newInjector(c)

	statsService, err := do.Invoke[*stats.Service](injector)
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}

	p, err := do.Invoke[*pipeline.Pipeline](injector)
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}

	changeConsumer, err := do.Invoke[*consumer.Consumer](injector)
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}

	return &Ingestor{
		injector: injector,
		services: []service{statsService, p, changeConsumer},
		logger:   logger,
	}, nil
}

func newInjector(
	c *config.Config,
) *do.Injector {

	injector := do.New()

	do.ProvideValue(injector, c)

	do.Provide(injector, func(i *do.Injector) (*stats.Service, error) {
		return stats.NewStatsService(do.MustInvoke[*config.Config](i))
	})

	do.Provide(injector, func(i *do.Injector) (*debezium.Normalizer, error) {
		c := do.MustInvoke[*config.Config](i)
		return debezium.NewNormalizer(changes.Markers{
			Context:   config.GetOrDefault(c, config.PropertyMarkersContext, changes.DefaultContextMarker),
			Heartbeat: config.GetOrDefault(c, config.PropertyMarkersHeartbeat, changes.DefaultHeartbeatMarker),
		})
	})

	do.Provide(injector, func(_ *do.Injector) (*stitching.Stitcher, error) {
		return stitching.NewStitcher()
	})

	do.Provide(injector, func(i *do.Injector) (filtering.Filter, error) {
		return filtering.NewFilter(do.MustInvoke[*config.Config](i).Filters)
	})

	do.Provide(injector, func(i *do.Injector) (sink.Sink, error) {
		c := do.MustInvoke[*config.Config](i)
		return sink.NewSink(config.GetOrDefault(c, config.PropertySink, config.Stdout), c)
	})

	do.Provide(injector, func(i *do.Injector) (*pipeline.Pipeline, error) {
		normalizer, err := do.Invoke[*debezium.Normalizer](i)
		if err != nil {
			return nil, err
		}
		stitcher, err := do.Invoke[*stitching.Stitcher](i)
		if err != nil {
			return nil, err
		}
		filter, err := do.Invoke[filtering.Filter](i)
		if err != nil {
			return nil, err
		}
		s, err := do.Invoke[sink.Sink](i)
		if err != nil {
			return nil, err
		}
		statsService, err := do.Invoke[*stats.Service](i)
		if err != nil {
			return nil, err
		}

		return pipeline.NewPipeline(
			do.MustInvoke[*config.Config](i), normalizer, stitcher,
			filter, s, statsService.NewReporter("pipeline"),
		)
	})

	do.Provide(injector, func(i *do.Injector) (*consumer.Consumer, error) {
		return consumer.NewConsumer(
			do.MustInvoke[*config.Config](i), do.MustInvoke[*pipeline.Pipeline](i),
		)
	})

	return injector
}

// Start brings up the services bottom-up, the consumer starts fetching
// last. Services started before a failing one are stopped again.
func (i *Ingestor) Start() error {
	for index, service := range i.services {
		if err := service.Start(); err != nil {
			_ = i.stop(i.services[:index])
			return err
		}
	}
	i.logger.Infof("Ingestor started")
	return nil
}

// Stop shuts the services down in reverse start order. All services are
// stopped, the first error is returned.
func (i *Ingestor) Stop() error {
	err := i.stop(i.services)
	i.logger.Infof("Ingestor stopped")
	return err
}

func (i *Ingestor) stop(
	services []service,
) error {

	var result error
	for index := len(services) - 1; index >= 0; index-- {
		if err := services[index].Stop(); err != nil {
			i.logger.Warnf("Failed to stop service: %s", err.Error())
			if result == nil {
				result = err
			}
		}
	}
	return result
}
