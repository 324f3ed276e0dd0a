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

package changes

import (
	"fmt"
	"github.com/go-errors/errors"
)

// MessageKind is the dispatch classification of a ChangeMessage.
type MessageKind int

const (
	DataChange MessageKind = iota
	ContextMessage
	HeartbeatMessage
	OtherCustomMessage
)

func (mk MessageKind) String() string {
	switch mk {
	case DataChange:
		return "DataChange"
	case ContextMessage:
		return "ContextMessage"
	case HeartbeatMessage:
		return "HeartbeatMessage"
	case OtherCustomMessage:
		return "OtherCustomMessage"
	}
	return fmt.Sprintf("MessageKind(%d)", int(mk))
}

// ChangeMessage wraps a ChangeRecord with the broker metadata of the
// message it was decoded from. Apart from the context, which can be
// replaced as a whole, a ChangeMessage is immutable. It isn't safe to
// call SetContext concurrently with any other method.
type ChangeMessage struct {
	record         ChangeRecord
	subject        string
	streamSequence uint64
	messagePrefix  *string
	markers        Markers
}

// NewChangeMessage creates a new ChangeMessage. The message prefix must be
// given if and only if the record's operation is MESSAGE.
func NewChangeMessage(
	record ChangeRecord, subject string, streamSequence uint64, messagePrefix *string, markers Markers,
) (*ChangeMessage, error) {

	if !record.Operation.Valid() {
		return nil, errors.Errorf("unknown operation '%s'", record.Operation)
	}
	if record.Operation == MESSAGE && messagePrefix == nil {
		return nil, errors.Errorf("message prefix required for operation %s", MESSAGE)
	}
	if record.Operation != MESSAGE && messagePrefix != nil {
		return nil, errors.Errorf("message prefix not allowed for operation %s", record.Operation)
	}

	if record.Values == nil {
		record.Values = NewObject()
	}
	if record.Context == nil {
		record.Context = NewObject()
	}

	var prefix *string
	if messagePrefix != nil {
		p := *messagePrefix
		prefix = &p
	}

	return &ChangeMessage{
		record:         record,
		subject:        subject,
		streamSequence: streamSequence,
		messagePrefix:  prefix,
		markers:        markers,
	}, nil
}

// Record returns a copy of the change record. The contained objects
// are shared and must not be modified.
func (cm *ChangeMessage) Record() ChangeRecord {
	return cm.record
}

func (cm *ChangeMessage) Subject() string {
	return cm.subject
}

func (cm *ChangeMessage) StreamSequence() uint64 {
	return cm.streamSequence
}

func (cm *ChangeMessage) MessagePrefix() (string, bool) {
	if cm.messagePrefix == nil {
		return "", false
	}
	return *cm.messagePrefix, true
}

func (cm *ChangeMessage) Operation() Operation {
	return cm.record.Operation
}

func (cm *ChangeMessage) TransactionId() Value {
	return cm.record.TransactionId
}

func (cm *ChangeMessage) IsMessage() bool {
	return cm.record.Operation == MESSAGE
}

func (cm *ChangeMessage) IsContextMessage() bool {
	return cm.IsMessage() && cm.hasPrefix(cm.markers.Context)
}

func (cm *ChangeMessage) IsHeartbeatMessage() bool {
	return cm.IsMessage() && cm.hasPrefix(cm.markers.Heartbeat)
}

// Kind classifies the message, every message is exactly one kind.
func (cm *ChangeMessage) Kind() MessageKind {
	switch {
	case !cm.IsMessage():
		return DataChange
	case cm.IsContextMessage():
		return ContextMessage
	case cm.IsHeartbeatMessage():
		return HeartbeatMessage
	}
	return OtherCustomMessage
}

func (cm *ChangeMessage) Context() *Object {
	return cm.record.Context
}

// SetContext replaces the context as a whole, no merging takes place.
// A nil context is replaced by an empty object.
func (cm *ChangeMessage) SetContext(
	context *Object,
) *ChangeMessage {

	if context == nil {
		context = NewObject()
	}
	cm.record.Context = context
	return cm
}

func (cm *ChangeMessage) String() string {
	return fmt.Sprintf(
		"ChangeMessage{subject=%s, streamSequence=%d, operation=%s, table=%s, position=%d}",
		cm.subject, cm.streamSequence, cm.record.Operation, cm.record.QualifiedTable(), cm.record.Position,
	)
}

func (cm *ChangeMessage) hasPrefix(
	marker string,
) bool {

	return cm.messagePrefix != nil && *cm.messagePrefix == marker
}
