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

var operationCodes = map[string]changes.Operation{
	"c": changes.CREATE,
	"u": changes.UPDATE,
	"d": changes.DELETE,
	"t": changes.TRUNCATE,
	"m": changes.MESSAGE,
}

// ClassifyOperation maps the single character op code of an envelope
// to its operation. Any other code is an UnknownOperationError.
func ClassifyOperation(
	code string,
) (changes.Operation, error) {

	if operation, present := operationCodes[code]; present {
		return operation, nil
	}
	return "", &UnknownOperationError{Code: code}
}
