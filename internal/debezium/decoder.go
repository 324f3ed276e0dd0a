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

import "github.com/noctarius/change-ingestor/spi/changes"

const (
	fieldConverterSchema  = "schema"
	fieldConverterPayload = "payload"
)

// Decode parses the raw broker payload into a generic JSON value.
func Decode(
	data []byte,
) (changes.Value, error) {

	value, err := changes.ParseValue(data)
	if err != nil {
		return changes.Null(), &DecodeError{Cause: err}
	}
	return value, nil
}

// unwrapConverterEnvelope strips the {"schema": ..., "payload": ...}
// wrapper written by the JSON converter with schemas enabled.
func unwrapConverterEnvelope(
	envelope *changes.Object,
) *changes.Object {

	if envelope.Len() != 2 {
		return envelope
	}
	if _, present := envelope.Get(fieldConverterSchema); !present {
		return envelope
	}
	payload, present := envelope.Get(fieldConverterPayload)
	if !present {
		return envelope
	}
	if object, ok := payload.AsObject(); ok {
		return object
	}
	return envelope
}
