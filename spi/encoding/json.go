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
	"github.com/goccy/go-json"
	"github.com/noctarius/change-ingestor/spi/config"
)

type JsonEncoder struct {
	marshallerFunction func(value any) ([]byte, error)
}

func NewJsonEncoderWithConfig(
	c *config.Config,
) *JsonEncoder {

	customReflection := config.GetOrDefault(c, config.PropertyEncodingReflection, true)
	return NewJsonEncoder(customReflection)
}

// NewJsonEncoder creates an encoder. With custom reflection enabled,
// HTML characters in strings aren't escaped.
func NewJsonEncoder(
	customReflection bool,
) *JsonEncoder {

	marshallerFunction := json.Marshal
	if customReflection {
		marshallerFunction = json.MarshalNoEscape
	}

	return &JsonEncoder{
		marshallerFunction: marshallerFunction,
	}
}

func (j *JsonEncoder) Marshal(
	value any,
) ([]byte, error) {

	return j.marshallerFunction(value)
}
