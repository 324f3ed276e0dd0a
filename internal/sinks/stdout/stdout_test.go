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
	"bytes"
	"context"
	"github.com/noctarius/change-ingestor/spi/changes"
	"github.com/noctarius/change-ingestor/spi/config"
	"github.com/noctarius/change-ingestor/spi/sink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
)

func Test_Stdout_Sink_Writes_Documents(t *testing.T) {
	buffer := &bytes.Buffer{}
	s, err := newStdoutSinkWithWriter(&config.Config{}, buffer)
	require.NoError(t, err)

	messages := make([]*changes.ChangeMessage, 0)
	for i := 1; i <= 2; i++ {
		message, err := changes.NewChangeMessage(changes.ChangeRecord{
			PrimaryKey: changes.NumberOf(i),
			Values:     changes.ObjectOf("id", changes.NumberOf(i)),
			Database:   "d",
			Schema:     "s",
			Table:      "t",
			Operation:  changes.CREATE,
		}, "S", uint64(i), nil, changes.DefaultMarkers())
		require.NoError(t, err)
		messages = append(messages, message)
	}

	require.NoError(t, s.Persist(context.Background(), messages))

	lines := strings.Split(strings.TrimSpace(buffer.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"values":{"id":1}`)
	assert.Contains(t, lines[1], `"streamSequence":2`)
}

func Test_Stdout_Sink_Registered(t *testing.T) {
	s, err := sink.NewSink(config.Stdout, &config.Config{})
	require.NoError(t, err)
	assert.NoError(t, s.Start())
	assert.NoError(t, s.Stop())
}
