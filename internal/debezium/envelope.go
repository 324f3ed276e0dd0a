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
	"github.com/noctarius/change-ingestor/spi/changes"
	"strconv"
)

const (
	fieldOperation     = "op"
	fieldBefore        = "before"
	fieldAfter         = "after"
	fieldTimestamp     = "ts_ms"
	fieldMessage       = "message"
	fieldSource        = "source"
	fieldPrefix        = "prefix"
	fieldContent       = "content"
	fieldDatabase      = "db"
	fieldSchema        = "schema"
	fieldTable         = "table"
	fieldTransactionId = "txId"
	fieldLsn           = "lsn"
)

// MessageBlock is the embedded logical decoding message of an envelope.
type MessageBlock struct {
	Prefix string
	// Content is the base64 encoded message content, empty if absent.
	Content string
}

type Source struct {
	Database      string
	Schema        string
	Table         string
	TransactionId changes.Value
	// Lsn is the raw log position, either a string or number value.
	Lsn         changes.Value
	CommittedAt *int64
}

// Envelope is the destructured change event envelope. Before, After and
// Message are nil if absent (or null) in the envelope.
type Envelope struct {
	OpCode     string
	Before     *changes.Object
	After      *changes.Object
	ReceivedAt *int64
	Message    *MessageBlock
	Source     Source
}

// ParseEnvelope validates and destructures a (non-heartbeat) envelope.
func ParseEnvelope(
	envelope *changes.Object,
) (*Envelope, error) {

	opCode, err := requiredString(envelope, fieldOperation, fieldOperation)
	if err != nil {
		return nil, err
	}

	before, err := optionalObject(envelope, fieldBefore, fieldBefore)
	if err != nil {
		return nil, err
	}

	after, err := optionalObject(envelope, fieldAfter, fieldAfter)
	if err != nil {
		return nil, err
	}

	receivedAt, err := optionalMillis(envelope, fieldTimestamp, fieldTimestamp)
	if err != nil {
		return nil, err
	}

	message, err := parseMessageBlock(envelope)
	if err != nil {
		return nil, err
	}

	source, err := parseSource(envelope)
	if err != nil {
		return nil, err
	}

	return &Envelope{
		OpCode:     opCode,
		Before:     before,
		After:      after,
		ReceivedAt: receivedAt,
		Message:    message,
		Source:     *source,
	}, nil
}

func parseMessageBlock(
	envelope *changes.Object,
) (*MessageBlock, error) {

	block, err := optionalObject(envelope, fieldMessage, fieldMessage)
	if err != nil || block == nil {
		return nil, err
	}

	prefix, err := requiredString(block, fieldPrefix, "message.prefix")
	if err != nil {
		return nil, err
	}

	content := ""
	if value, present := block.Get(fieldContent); present && !value.IsNull() {
		s, ok := value.AsString()
		if !ok {
			return nil, malformed("message.content", "expected a string but found %s", value.Kind())
		}
		content = s
	}

	return &MessageBlock{
		Prefix:  prefix,
		Content: content,
	}, nil
}

func parseSource(
	envelope *changes.Object,
) (*Source, error) {

	value, present := envelope.Get(fieldSource)
	if !present || value.IsNull() {
		return nil, malformed(fieldSource, "missing")
	}
	source, ok := value.AsObject()
	if !ok {
		return nil, malformed(fieldSource, "expected an object but found %s", value.Kind())
	}

	database, err := requiredString(source, fieldDatabase, "source.db")
	if err != nil {
		return nil, err
	}
	schema, err := requiredString(source, fieldSchema, "source.schema")
	if err != nil {
		return nil, err
	}
	table, err := requiredString(source, fieldTable, "source.table")
	if err != nil {
		return nil, err
	}
	committedAt, err := optionalMillis(source, fieldTimestamp, "source.ts_ms")
	if err != nil {
		return nil, err
	}

	transactionId, _ := source.Get(fieldTransactionId)
	lsn, _ := source.Get(fieldLsn)

	return &Source{
		Database:      database,
		Schema:        schema,
		Table:         table,
		TransactionId: transactionId,
		Lsn:           lsn,
		CommittedAt:   committedAt,
	}, nil
}

func requiredString(
	object *changes.Object, key, field string,
) (string, error) {

	value, present := object.Get(key)
	if !present || value.IsNull() {
		return "", malformed(field, "missing")
	}
	s, ok := value.AsString()
	if !ok {
		return "", malformed(field, "expected a string but found %s", value.Kind())
	}
	return s, nil
}

func optionalObject(
	object *changes.Object, key, field string,
) (*changes.Object, error) {

	value, present := object.Get(key)
	if !present || value.IsNull() {
		return nil, nil
	}
	o, ok := value.AsObject()
	if !ok {
		return nil, malformed(field, "expected an object but found %s", value.Kind())
	}
	return o, nil
}

func optionalMillis(
	object *changes.Object, key, field string,
) (*int64, error) {

	value, present := object.Get(key)
	if !present || value.IsNull() {
		return nil, nil
	}
	text, ok := value.NumberText()
	if !ok {
		return nil, malformed(field, "expected epoch millis but found %s", value.Kind())
	}
	millis, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, malformed(field, "expected epoch millis but found '%s'", text)
	}
	return &millis, nil
}
