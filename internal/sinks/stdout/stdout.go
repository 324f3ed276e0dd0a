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

package stdout

import (
	"context"
	"github.com/noctarius/change-ingestor/internal/supporting/logging"
	"github.com/noctarius/change-ingestor/spi/changes"
	"github.com/noctarius/change-ingestor/spi/config"
	"github.com/noctarius/change-ingestor/spi/encoding"
	"github.com/noctarius/change-ingestor/spi/sink"
	"io"
	"os"
)

func init() {
	sink.RegisterSink(config.Stdout, newStdoutSink)
}

// stdoutSink writes one change document per line. Logging should be
// redirected to stderr (--log-to-stderr) when it is used.
type stdoutSink struct {
	writer      io.Writer
	topicPrefix string
	encoder     *encoding.JsonEncoder
	logger      *logging.Logger
}

func newStdoutSink(
	c *config.Config,
) (sink.Sink, error) {

	return newStdoutSinkWithWriter(c, os.Stdout)
}

func newStdoutSinkWithWriter(
	c *config.Config, writer io.Writer,
) (*stdoutSink, error) {

	logger, err := logging.NewLogger("StdoutSink")
	if err != nil {
		return nil, err
	}

	return &stdoutSink{
		writer:      writer,
		topicPrefix: sink.TopicPrefix(c),
		encoder:     encoding.NewJsonEncoderWithConfig(c),
		logger:      logger,
	}, nil
}

func (s *stdoutSink) Start() error {
	return nil
}

func (s *stdoutSink) Stop() error {
	return nil
}

func (s *stdoutSink) Persist(
	_ context.Context, messages []*changes.ChangeMessage,
) error {

	for _, message := range messages {
		data, err := s.encoder.Marshal(encoding.NewChangeDocument(message))
		if err != nil {
			return err
		}
		data = append(data, '\n')
		if _, err := s.writer.Write(data); err != nil {
			return err
		}
		s.logger.Debugf("===> /%s: %s", sink.TopicName(s.topicPrefix, message.Record()), message)
	}
	return nil
}
