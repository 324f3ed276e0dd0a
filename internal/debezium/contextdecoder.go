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
	"github.com/noctarius/change-ingestor/spi/changes"
)

// DecodeContext decodes the annotation map of a context message. Blocks
// which are absent or carry another prefix yield an empty object.
func DecodeContext(
	block *MessageBlock, contextMarker string,
) (*changes.Object, error) {

	if block == nil || block.Prefix != contextMarker {
		return changes.NewObject(), nil
	}

	content, err := base64.StdEncoding.DecodeString(block.Content)
	if err != nil {
		return nil, &ContextParseError{Cause: err}
	}

	context, err := changes.ParseObject(content)
	if err != nil {
		return nil, &ContextParseError{Cause: err}
	}
	return context, nil
}
