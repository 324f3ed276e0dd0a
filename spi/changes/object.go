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
	"bytes"
	"github.com/go-errors/errors"
	"github.com/goccy/go-json"
	"github.com/valyala/fastjson"
	"unicode/utf8"
)

// Object is an insertion ordered map of string keys to JSON values.
// A nil *Object is a valid, empty object for all read operations.
type Object struct {
	keys   []string
	values map[string]Value
}

func NewObject() *Object {
	return &Object{
		keys:   make([]string, 0),
		values: make(map[string]Value),
	}
}

// ObjectOf builds an object from alternating key/value pairs.
func ObjectOf(
	pairs ...any,
) *Object {

	if len(pairs)%2 != 0 {
		panic(errors.Errorf("ObjectOf requires key/value pairs, got %d arguments", len(pairs)))
	}
	object := NewObject()
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			panic(errors.Errorf("ObjectOf key at position %d isn't a string", i))
		}
		value, ok := pairs[i+1].(Value)
		if !ok {
			panic(errors.Errorf("ObjectOf value at position %d isn't a Value", i+1))
		}
		object.Set(key, value)
	}
	return object
}

// Set adds or replaces the key. Replacing keeps the original position.
func (o *Object) Set(
	key string, value Value,
) {

	if _, present := o.values[key]; !present {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

func (o *Object) Get(
	key string,
) (Value, bool) {

	if o == nil {
		return Null(), false
	}
	value, present := o.values[key]
	return value, present
}

func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

func (o *Object) Keys() []string {
	if o == nil {
		return []string{}
	}
	keys := make([]string, len(o.keys))
	copy(keys, o.keys)
	return keys
}

// Range iterates the entries in insertion order until fn returns false.
func (o *Object) Range(
	fn func(key string, value Value) bool,
) {

	if o == nil {
		return
	}
	for _, key := range o.keys {
		if !fn(key, o.values[key]) {
			return
		}
	}
}

func (o *Object) Equal(
	other *Object,
) bool {

	if o.Len() != other.Len() {
		return false
	}
	equal := true
	o.Range(func(key string, value Value) bool {
		otherValue, present := other.Get(key)
		equal = present && value.Equal(otherValue)
		return equal
	})
	return equal
}

// Map converts the object into a plain Go map, see Value.Interface.
func (o *Object) Map() map[string]any {
	result := make(map[string]any, o.Len())
	o.Range(func(key string, value Value) bool {
		result[key] = value.Interface()
		return true
	})
	return result
}

func (o *Object) MarshalJSON() ([]byte, error) {
	buffer := &bytes.Buffer{}
	if err := o.writeJSON(buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func (o *Object) UnmarshalJSON(
	data []byte,
) error {

	object, err := ParseObject(data)
	if err != nil {
		return err
	}
	*o = *object
	return nil
}

func (o *Object) writeJSON(
	buffer *bytes.Buffer,
) error {

	buffer.WriteByte('{')
	first := true
	var err error
	o.Range(func(key string, value Value) bool {
		if !first {
			buffer.WriteByte(',')
		}
		first = false

		var keyData []byte
		if keyData, err = json.Marshal(key); err != nil {
			err = errors.Wrap(err, 0)
			return false
		}
		buffer.Write(keyData)
		buffer.WriteByte(':')
		err = value.writeJSON(buffer)
		return err == nil
	})
	if err != nil {
		return err
	}
	buffer.WriteByte('}')
	return nil
}

var parserPool fastjson.ParserPool

// ParseValue parses UTF-8 encoded JSON into a Value, keeping the key
// order of objects. Non-standard JSON is rejected. It is safe for
// concurrent use.
func ParseValue(
	data []byte,
) (Value, error) {

	if !utf8.Valid(data) {
		return Null(), errors.Errorf("input isn't valid UTF-8")
	}

	// The parser is lenient about numbers (NaN, inf, leading zeros)
	// and escapes, only validated input is standard JSON
	if err := fastjson.ValidateBytes(data); err != nil {
		return Null(), errors.Wrap(err, 0)
	}

	parser := parserPool.Get()
	defer parserPool.Put(parser)

	parsed, err := parser.ParseBytes(data)
	if err != nil {
		return Null(), errors.Wrap(err, 0)
	}

	// The parsed tree is owned by the parser and must be
	// fully converted before it's returned to the pool
	return convertValue(parsed)
}

// ParseObject parses UTF-8 encoded JSON which must be a JSON object.
func ParseObject(
	data []byte,
) (*Object, error) {

	value, err := ParseValue(data)
	if err != nil {
		return nil, err
	}
	object, ok := value.AsObject()
	if !ok {
		return nil, errors.Errorf("expected a JSON object but found %s", value.Kind())
	}
	return object, nil
}

func convertValue(
	value *fastjson.Value,
) (Value, error) {

	switch value.Type() {
	case fastjson.TypeNull:
		return Null(), nil
	case fastjson.TypeTrue:
		return Bool(true), nil
	case fastjson.TypeFalse:
		return Bool(false), nil
	case fastjson.TypeNumber:
		return Number(string(value.MarshalTo(nil))), nil
	case fastjson.TypeString:
		s, err := value.StringBytes()
		if err != nil {
			return Null(), errors.Wrap(err, 0)
		}
		return String(string(s)), nil
	case fastjson.TypeArray:
		items, err := value.Array()
		if err != nil {
			return Null(), errors.Wrap(err, 0)
		}
		values := make([]Value, 0, len(items))
		for _, item := range items {
			v, err := convertValue(item)
			if err != nil {
				return Null(), err
			}
			values = append(values, v)
		}
		return Array(values...), nil
	case fastjson.TypeObject:
		o, err := value.Object()
		if err != nil {
			return Null(), errors.Wrap(err, 0)
		}
		object := NewObject()
		var convErr error
		o.Visit(func(key []byte, item *fastjson.Value) {
			if convErr != nil {
				return
			}
			v, err := convertValue(item)
			if err != nil {
				convErr = err
				return
			}
			object.Set(string(key), v)
		})
		if convErr != nil {
			return Null(), convErr
		}
		return ObjectValue(object), nil
	}
	return Null(), errors.Errorf("unsupported JSON type %s", value.Type())
}
