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
	"github.com/go-errors/errors"
	"github.com/goccy/go-json"
	"github.com/samber/lo"
)

// Operation is the kind of change described by a change record.
type Operation string

const (
	CREATE   Operation = "CREATE"
	UPDATE   Operation = "UPDATE"
	DELETE   Operation = "DELETE"
	TRUNCATE Operation = "TRUNCATE"
	// MESSAGE is a custom, non-row event carried by a logical
	// decoding message
	MESSAGE Operation = "MESSAGE"
)

var operations = []Operation{CREATE, UPDATE, DELETE, TRUNCATE, MESSAGE}

// Operations returns all known operations.
func Operations() []Operation {
	result := make([]Operation, len(operations))
	copy(result, operations)
	return result
}

func (o Operation) String() string {
	return string(o)
}

func (o Operation) Valid() bool {
	return lo.Contains(operations, o)
}

func (o Operation) MarshalJSON() ([]byte, error) {
	if !o.Valid() {
		return nil, errors.Errorf("unknown operation '%s'", string(o))
	}
	return json.Marshal(string(o))
}

func (o *Operation) UnmarshalJSON(
	data []byte,
) error {

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Wrap(err, 0)
	}
	operation := Operation(s)
	if !operation.Valid() {
		return errors.Errorf("unknown operation '%s'", s)
	}
	*o = operation
	return nil
}
