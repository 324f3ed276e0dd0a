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

package debezium

import (
	"encoding/base64"
	"fmt"
	"github.com/noctarius/change-ingestor/spi/broker"
	"github.com/noctarius/change-ingestor/spi/changes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sync"
	"testing"
	"time"
)

var now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newNormalizer(
	t *testing.T,
) *Normalizer {

	normalizer, err := NewNormalizer(changes.DefaultMarkers())
	require.NoError(t, err)
	return normalizer
}

func normalize(
	t *testing.T, payload string,
) (Result, error) {

	return newNormalizer(t).FromBrokerMessage(broker.NewMessage([]byte(payload), "S", 7), now)
}

func mustNormalize(
	t *testing.T, payload string,
) *changes.ChangeMessage {

	result, err := normalize(t, payload)
	require.NoError(t, err)
	message, ok := result.Message()
	require.True(t, ok)
	require.False(t, result.Skipped())
	return message
}

func messageEnvelope(
	prefix, content string,
) string {

	return fmt.Sprintf(
		`{"op":"m","before":null,"after":null,"ts_ms":3000,"message":{"prefix":"%s","content":"%s"},`+
			`"source":{"db":"d","schema":"s","table":"","txId":77,"lsn":"300","ts_ms":2900}}`,
		prefix, content,
	)
}

func Test_Normalize_Update(t *testing.T) {
	message := mustNormalize(t,
		`{"op":"u","before":{"id":1,"name":"a"},"after":{"id":1,"name":"b"},"ts_ms":1000,`+
			`"source":{"db":"d","schema":"s","table":"t","txId":5,"lsn":"100","ts_ms":900}}`,
	)

	record := message.Record()
	assert.True(t, record.PrimaryKey.Equal(changes.NumberOf(1)))
	assert.True(t, record.Values.Equal(changes.ObjectOf("id", changes.NumberOf(1), "name", changes.String("b"))))
	assert.Equal(t, []string{"id", "name"}, record.Values.Keys())
	assert.Equal(t, 0, record.Context.Len())
	assert.Equal(t, "d", record.Database)
	assert.Equal(t, "s", record.Schema)
	assert.Equal(t, "t", record.Table)
	assert.Equal(t, changes.UPDATE, record.Operation)
	assert.Equal(t, time.UnixMilli(900).UTC(), record.CommittedAt)
	assert.Equal(t, time.UnixMilli(1000).UTC(), record.QueuedAt)
	assert.True(t, record.TransactionId.Equal(changes.NumberOf(5)))
	assert.Equal(t, int64(100), record.Position)
	assert.Equal(t, now, record.CreatedAt)

	assert.Equal(t, "S", message.Subject())
	assert.Equal(t, uint64(7), message.StreamSequence())
	_, present := message.MessagePrefix()
	assert.False(t, present)
	assert.Equal(t, changes.DataChange, message.Kind())
}

func Test_Normalize_Delete_Reads_Before(t *testing.T) {
	message := mustNormalize(t,
		`{"op":"d","before":{"id":9},"after":null,"ts_ms":2000,`+
			`"source":{"db":"d","schema":"s","table":"t","txId":6,"lsn":"5","ts_ms":1900}}`,
	)

	record := message.Record()
	assert.Equal(t, changes.DELETE, record.Operation)
	assert.True(t, record.PrimaryKey.Equal(changes.NumberOf(9)))
	assert.NotNil(t, record.Values)
	assert.Equal(t, 0, record.Values.Len())
	assert.Equal(t, int64(5), record.Position)
}

func Test_Normalize_Primary_Key_Selection(t *testing.T) {
	for _, op := range []string{"c", "u", "d", "t"} {
		t.Run(op, func(t *testing.T) {
			message := mustNormalize(t, fmt.Sprintf(
				`{"op":"%s","before":{"id":"before"},"after":{"id":"after"},"ts_ms":1,`+
					`"source":{"db":"d","schema":"s","table":"t","txId":1,"lsn":"1","ts_ms":1}}`, op,
			))

			expected := "after"
			if op == "d" {
				expected = "before"
			}
			assert.True(t, message.Record().PrimaryKey.Equal(changes.String(expected)))
		})
	}
}

func Test_Normalize_Truncate_Without_Images(t *testing.T) {
	message := mustNormalize(t,
		`{"op":"t","ts_ms":1,"source":{"db":"d","schema":"s","table":"t","txId":1,"lsn":10,"ts_ms":1}}`,
	)

	record := message.Record()
	assert.Equal(t, changes.TRUNCATE, record.Operation)
	assert.True(t, record.PrimaryKey.IsNull())
	assert.Equal(t, 0, record.Values.Len())
	assert.Equal(t, int64(10), record.Position)
}

func Test_Normalize_Heartbeat_Envelope_Is_Skipped(t *testing.T) {
	result, err := normalize(t, `{"ts_ms":1700000000000}`)
	require.NoError(t, err)
	assert.True(t, result.Skipped())

	message, ok := result.Message()
	assert.False(t, ok)
	assert.Nil(t, message)
}

func Test_Normalize_Timestamp_With_Other_Keys_Is_No_Heartbeat(t *testing.T) {
	_, err := normalize(t, `{"ts_ms":1700000000000,"op":"x"}`)

	var malformedError *MalformedEnvelopeError
	assert.ErrorAs(t, err, &malformedError)
}

func Test_Normalize_Context_Message(t *testing.T) {
	content := base64.StdEncoding.EncodeToString([]byte(`{"user_id":42}`))
	message := mustNormalize(t, messageEnvelope(changes.DefaultContextMarker, content))

	assert.True(t, message.IsMessage())
	assert.True(t, message.IsContextMessage())
	assert.False(t, message.IsHeartbeatMessage())
	assert.Equal(t, changes.ContextMessage, message.Kind())
	assert.True(t, message.Context().Equal(changes.ObjectOf("user_id", changes.NumberOf(42))))

	prefix, present := message.MessagePrefix()
	assert.True(t, present)
	assert.Equal(t, changes.DefaultContextMarker, prefix)
	assert.True(t, message.TransactionId().Equal(changes.NumberOf(77)))
}

func Test_Normalize_Heartbeat_Message(t *testing.T) {
	message := mustNormalize(t, messageEnvelope(changes.DefaultHeartbeatMarker, ""))

	assert.True(t, message.IsHeartbeatMessage())
	assert.False(t, message.IsContextMessage())
	assert.Equal(t, changes.HeartbeatMessage, message.Kind())
	assert.Equal(t, 0, message.Context().Len())
}

func Test_Normalize_Other_Custom_Message(t *testing.T) {
	content := base64.StdEncoding.EncodeToString([]byte(`not even json`))
	message := mustNormalize(t, messageEnvelope("audit", content))

	assert.Equal(t, changes.OtherCustomMessage, message.Kind())
	assert.Equal(t, 0, message.Context().Len())
}

func Test_Normalize_Message_Without_Block(t *testing.T) {
	_, err := normalize(t,
		`{"op":"m","ts_ms":1,"source":{"db":"d","schema":"s","table":"","txId":1,"lsn":"1","ts_ms":1}}`,
	)

	var malformedError *MalformedEnvelopeError
	require.ErrorAs(t, err, &malformedError)
	assert.Equal(t, "message", malformedError.Field)
}

func Test_Normalize_Corrupt_Context(t *testing.T) {
	testCases := map[string]string{
		"invalid base64": "%%%",
		"invalid utf8":   base64.StdEncoding.EncodeToString([]byte{'{', '"', 0xff, '"', ':', '1', '}'}),
		"invalid json":   base64.StdEncoding.EncodeToString([]byte(`{"user_id":`)),
		"not an object":  base64.StdEncoding.EncodeToString([]byte(`[42]`)),
		"non-standard":   base64.StdEncoding.EncodeToString([]byte(`{"user_id":-inf}`)),
	}

	for name, content := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := normalize(t, messageEnvelope(changes.DefaultContextMarker, content))

			var contextError *ContextParseError
			assert.ErrorAs(t, err, &contextError)
		})
	}
}

func Test_Normalize_Unknown_Operation(t *testing.T) {
	_, err := normalize(t,
		`{"op":"r","after":{"id":1},"ts_ms":1,"source":{"db":"d","schema":"s","table":"t","txId":1,"lsn":"1","ts_ms":1}}`,
	)

	var unknownOperation *UnknownOperationError
	require.ErrorAs(t, err, &unknownOperation)
	assert.Equal(t, "r", unknownOperation.Code)
	assert.Contains(t, err.Error(), "r")
}

func Test_Normalize_Non_Numeric_Position(t *testing.T) {
	for name, lsn := range map[string]string{
		"text":     `"abc"`,
		"partial":  `"100abc"`,
		"fraction": `1.5`,
		"missing":  `null`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := normalize(t, fmt.Sprintf(
				`{"op":"c","after":{"id":1},"ts_ms":1,"source":{"db":"d","schema":"s","table":"t","txId":1,"lsn":%s,"ts_ms":1}}`,
				lsn,
			))

			var positionError *PositionParseError
			assert.ErrorAs(t, err, &positionError)
		})
	}
}

func Test_Normalize_Malformed_Envelopes(t *testing.T) {
	testCases := map[string]struct {
		payload string
		field   string
	}{
		"array":            {`[1,2,3]`, "$"},
		"missing op":       {`{"after":{"id":1},"source":{"db":"d","schema":"s","table":"t","lsn":"1"}}`, "op"},
		"op not a string":  {`{"op":1,"source":{"db":"d","schema":"s","table":"t","lsn":"1"}}`, "op"},
		"missing source":   {`{"op":"c","after":{"id":1}}`, "source"},
		"missing db":       {`{"op":"c","source":{"schema":"s","table":"t","lsn":"1"}}`, "source.db"},
		"missing schema":   {`{"op":"c","source":{"db":"d","table":"t","lsn":"1"}}`, "source.schema"},
		"missing table":    {`{"op":"c","source":{"db":"d","schema":"s","lsn":"1"}}`, "source.table"},
		"after not object": {`{"op":"c","after":"x","source":{"db":"d","schema":"s","table":"t","lsn":"1"}}`, "after"},
		"ts_ms not number": {`{"op":"c","ts_ms":"x","source":{"db":"d","schema":"s","table":"t","lsn":"1"}}`, "ts_ms"},
		"prefix missing":   {`{"op":"m","message":{},"source":{"db":"d","schema":"s","table":"","lsn":"1"}}`, "message.prefix"},
	}

	for name, testCase := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := normalize(t, testCase.payload)

			var malformedError *MalformedEnvelopeError
			require.ErrorAs(t, err, &malformedError)
			assert.Equal(t, testCase.field, malformedError.Field)
		})
	}
}

func Test_Normalize_Invalid_Payload(t *testing.T) {
	for name, payload := range map[string][]byte{
		"truncated json": []byte(`{"op":"c"`),
		"invalid utf8":   {'{', '"', 'o', 'p', '"', ':', '"', 0xc3, 0x28, '"', '}'},
		"empty":          {},
		"nan number":     []byte(`{"op":"c","after":{"id":1,"x":NaN},"ts_ms":1,"source":{"db":"d","schema":"s","table":"t","txId":1,"lsn":"1","ts_ms":1}}`),
		"leading zero":   []byte(`{"op":"c","after":{"id":1,"y":01},"ts_ms":1,"source":{"db":"d","schema":"s","table":"t","txId":1,"lsn":"1","ts_ms":1}}`),
		"bare number":    []byte(`01`),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := newNormalizer(t).FromBrokerMessage(broker.NewMessage(payload, "S", 1), now)

			var decodeError *DecodeError
			assert.ErrorAs(t, err, &decodeError)
		})
	}
}

func Test_Normalize_Converter_Envelope(t *testing.T) {
	message := mustNormalize(t,
		`{"schema":{"type":"struct"},"payload":{"op":"c","after":{"id":3},"ts_ms":1,`+
			`"source":{"db":"d","schema":"s","table":"t","txId":1,"lsn":"42","ts_ms":1}}}`,
	)

	assert.Equal(t, changes.CREATE, message.Operation())
	assert.Equal(t, int64(42), message.Record().Position)

	result, err := normalize(t, `{"schema":{"type":"struct"},"payload":{"ts_ms":1}}`)
	require.NoError(t, err)
	assert.True(t, result.Skipped())
}

func Test_Normalize_Custom_Markers(t *testing.T) {
	normalizer, err := NewNormalizer(changes.Markers{Context: "ctx", Heartbeat: "hb"})
	require.NoError(t, err)

	content := base64.StdEncoding.EncodeToString([]byte(`{"user_id":42}`))
	result, err := normalizer.FromBrokerMessage(broker.NewMessage([]byte(messageEnvelope("ctx", content)), "S", 1), now)
	require.NoError(t, err)

	message, ok := result.Message()
	require.True(t, ok)
	assert.True(t, message.IsContextMessage())
	assert.Equal(t, 1, message.Context().Len())
}

func Test_NewNormalizer_Rejects_Invalid_Markers(t *testing.T) {
	_, err := NewNormalizer(changes.Markers{Context: "", Heartbeat: "hb"})
	assert.Error(t, err)

	_, err = NewNormalizer(changes.Markers{Context: "x", Heartbeat: "x"})
	assert.Error(t, err)
}

func Test_Normalize_Concurrently(t *testing.T) {
	normalizer := newNormalizer(t)

	wg := sync.WaitGroup{}
	errs := make(chan error, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			payload := fmt.Sprintf(
				`{"op":"c","after":{"id":%d},"ts_ms":1,"source":{"db":"d","schema":"s","table":"t","txId":1,"lsn":"%d","ts_ms":1}}`,
				i, i,
			)
			result, err := normalizer.FromBrokerMessage(broker.NewMessage([]byte(payload), "S", uint64(i)), now)
			if err != nil {
				errs <- err
				return
			}
			message, _ := result.Message()
			if message.Record().Position != int64(i) {
				errs <- fmt.Errorf("unexpected position %d for message %d", message.Record().Position, i)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}
