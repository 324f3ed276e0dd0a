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

import "fmt"

// DecodeError is returned when the raw payload isn't valid UTF-8 JSON.
type DecodeError struct {
	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode change envelope: %v", e.Cause)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// MalformedEnvelopeError is returned when a required envelope field is
// missing or has an unexpected type.
type MalformedEnvelopeError struct {
	Field  string
	Reason string
}

func (e *MalformedEnvelopeError) Error() string {
	return fmt.Sprintf("malformed change envelope, field '%s': %s", e.Field, e.Reason)
}

// UnknownOperationError is returned for op codes other than c, u, d, t, m.
type UnknownOperationError struct {
	Code string
}

func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("unknown operation: %s", e.Code)
}

// ContextParseError is returned when the content of a context message
// isn't base64 encoded UTF-8 JSON object.
type ContextParseError struct {
	Cause error
}

func (e *ContextParseError) Error() string {
	return fmt.Sprintf("failed to parse context message content: %v", e.Cause)
}

func (e *ContextParseError) Unwrap() error {
	return e.Cause
}

// PositionParseError is returned when the log position (lsn) isn't
// a base 10 integer.
type PositionParseError struct {
	Position string
	Cause    error
}

func (e *PositionParseError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("invalid log position '%s'", e.Position)
	}
	return fmt.Sprintf("invalid log position '%s': %v", e.Position, e.Cause)
}

func (e *PositionParseError) Unwrap() error {
	return e.Cause
}

func malformed(
	field, format string, args ...any,
) error {

	return &MalformedEnvelopeError{
		Field:  field,
		Reason: fmt.Sprintf(format, args...),
	}
}
