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

package pipeline

import (
	"fmt"
	"github.com/noctarius/change-ingestor/spi/changes"
)

type OutcomeKind int

const (
	// Persisted data change, handed to the sink
	Persisted OutcomeKind = iota
	// Skipped heartbeat envelope, never became a change message
	Skipped
	// Discarded after normalization, a custom message or filtered change
	Discarded
	// Failed to decode, to evaluate the filters or rejected by the
	// sink, redelivery fails the same way
	Failed
)

func (k OutcomeKind) String() string {
	switch k {
	case Persisted:
		return "persisted"
	case Skipped:
		return "skipped"
	case Discarded:
		return "discarded"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("OutcomeKind(%d)", int(k))
}

// Outcome is the processing result of a single broker message.
type Outcome struct {
	Kind OutcomeKind
	// Message is nil for skipped and undecodable messages
	Message *changes.ChangeMessage
	// Err is the failure of a failed message
	Err error
}

// PermanentPersistError is returned when the sink rejected changes in a
// way retrying can't fix.
type PermanentPersistError struct {
	Cause error
}

func (e *PermanentPersistError) Error() string {
	return fmt.Sprintf("sink permanently rejected changes: %v", e.Cause)
}

func (e *PermanentPersistError) Unwrap() error {
	return e.Cause
}
