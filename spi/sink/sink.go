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

package sink

import (
	"context"
	"github.com/noctarius/change-ingestor/spi/changes"
	"github.com/noctarius/change-ingestor/spi/config"
)

// Provider creates a new Sink instance from the configuration
type Provider = func(config *config.Config) (Sink, error)

// Sink persists normalized data change messages. Persist is called with
// the surviving changes of one batch, ordered by stream sequence, and
// either stores all or returns an error. Implementations must tolerate
// redelivery of already persisted changes.
type Sink interface {
	Start() error
	Stop() error
	Persist(
		ctx context.Context, messages []*changes.ChangeMessage,
	) error
}

type SinkFunc func(ctx context.Context, messages []*changes.ChangeMessage) error

func (sf SinkFunc) Start() error {
	return nil
}

func (sf SinkFunc) Stop() error {
	return nil
}

func (sf SinkFunc) Persist(
	ctx context.Context, messages []*changes.ChangeMessage,
) error {

	return sf(ctx, messages)
}
