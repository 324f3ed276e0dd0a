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

package encoding

import (
	"github.com/noctarius/change-ingestor/spi/changes"
	"time"
)

// ChangeDocument is the wire representation of a change record written
// by the message based sinks.
type ChangeDocument struct {
	PrimaryKey     changes.Value     `json:"primary_key"`
	Values         *changes.Object   `json:"values"`
	Context        *changes.Object   `json:"context"`
	Database       string            `json:"database"`
	Schema         string            `json:"schema"`
	Table          string            `json:"table"`
	Operation      changes.Operation `json:"operation"`
	CommittedAt    *time.Time        `json:"committed_at"`
	QueuedAt       *time.Time        `json:"queued_at"`
	TransactionId  changes.Value     `json:"transaction_id"`
	Position       int64             `json:"position"`
	CreatedAt      time.Time         `json:"created_at"`
	Subject        string            `json:"subject"`
	StreamSequence uint64            `json:"streamSequence"`
}

// ChangeKey identifies the changed row, used as message key.
type ChangeKey struct {
	Database   string        `json:"database"`
	Schema     string        `json:"schema"`
	Table      string        `json:"table"`
	PrimaryKey changes.Value `json:"primary_key"`
}

func NewChangeDocument(
	message *changes.ChangeMessage,
) ChangeDocument {

	record := message.Record()
	return ChangeDocument{
		PrimaryKey:     record.PrimaryKey,
		Values:         nonNilObject(record.Values),
		Context:        nonNilObject(record.Context),
		Database:       record.Database,
		Schema:         record.Schema,
		Table:          record.Table,
		Operation:      record.Operation,
		CommittedAt:    optionalTime(record.CommittedAt),
		QueuedAt:       optionalTime(record.QueuedAt),
		TransactionId:  record.TransactionId,
		Position:       record.Position,
		CreatedAt:      record.CreatedAt,
		Subject:        message.Subject(),
		StreamSequence: message.StreamSequence(),
	}
}

func NewChangeKey(
	record changes.ChangeRecord,
) ChangeKey {

	return ChangeKey{
		Database:   record.Database,
		Schema:     record.Schema,
		Table:      record.Table,
		PrimaryKey: record.PrimaryKey,
	}
}

// EncodeChange encodes key and document of the change message.
func (j *JsonEncoder) EncodeChange(
	message *changes.ChangeMessage,
) (key, document []byte, err error) {

	if key, err = j.Marshal(NewChangeKey(message.Record())); err != nil {
		return nil, nil, err
	}
	if document, err = j.Marshal(NewChangeDocument(message)); err != nil {
		return nil, nil, err
	}
	return key, document, nil
}

func nonNilObject(
	object *changes.Object,
) *changes.Object {

	if object == nil {
		return changes.NewObject()
	}
	return object
}

// optionalTime maps the zero time of absent timestamps to null
func optionalTime(
	t time.Time,
) *time.Time {

	if t.IsZero() {
		return nil
	}
	return &t
}
