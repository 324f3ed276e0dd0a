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
	"strings"
	"time"
)

const fieldId = "id"

// BuildChangeRecord composes the normalized change record from the
// parsed envelope, its classified operation and decoded context.
func BuildChangeRecord(
	envelope *Envelope, operation changes.Operation, context *changes.Object, now time.Time,
) (changes.ChangeRecord, error) {

	position, err := parsePosition(envelope.Source.Lsn)
	if err != nil {
		return changes.ChangeRecord{}, err
	}

	values := envelope.After
	if values == nil {
		values = changes.NewObject()
	}

	if context == nil {
		context = changes.NewObject()
	}

	return changes.ChangeRecord{
		PrimaryKey:    primaryKey(envelope, operation),
		Values:        values,
		Context:       context,
		Database:      envelope.Source.Database,
		Schema:        envelope.Source.Schema,
		Table:         envelope.Source.Table,
		Operation:     operation,
		CommittedAt:   epochMillis(envelope.Source.CommittedAt),
		QueuedAt:      epochMillis(envelope.ReceivedAt),
		TransactionId: envelope.Source.TransactionId,
		Position:      position,
		CreatedAt:     now,
	}, nil
}

// primaryKey reads the id from the before image for deletes and from
// the after image otherwise, null if the image or the id is absent.
func primaryKey(
	envelope *Envelope, operation changes.Operation,
) changes.Value {

	image := envelope.After
	if operation == changes.DELETE {
		image = envelope.Before
	}
	id, _ := image.Get(fieldId)
	return id
}

func parsePosition(
	lsn changes.Value,
) (int64, error) {

	var text string
	switch lsn.Kind() {
	case changes.KindString:
		text, _ = lsn.AsString()
	case changes.KindNumber:
		text, _ = lsn.NumberText()
	default:
		return 0, &PositionParseError{Position: lsn.Text()}
	}

	position, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		return 0, &PositionParseError{Position: text, Cause: err}
	}
	return position, nil
}

func epochMillis(
	millis *int64,
) time.Time {

	if millis == nil {
		return time.Time{}
	}
	return time.UnixMilli(*millis).UTC()
}
