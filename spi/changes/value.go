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
	"strconv"
)

// Kind is the type tag of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	}
	return "unknown"
}

// Value is an immutable JSON value. The zero value is null. Numbers keep
// their textual representation to avoid precision loss on large integers.
type Value struct {
	kind    Kind
	boolean bool
	text    string
	array   []Value
	object  *Object
}

func Null() Value {
	return Value{}
}

func Bool(
	b bool,
) Value {

	return Value{kind: KindBool, boolean: b}
}

// Number creates a number value from its JSON text. The text is not
// validated, use NumberOf for native values.
func Number(
	text string,
) Value {

	return Value{kind: KindNumber, text: text}
}

func NumberOf[N int | int8 | int16 | int32 | int64 | uint | uint8 | uint16 | uint32 | uint64](
	n N,
) Value {

	switch v := any(n).(type) {
	case uint:
		return Number(strconv.FormatUint(uint64(v), 10))
	case uint8:
		return Number(strconv.FormatUint(uint64(v), 10))
	case uint16:
		return Number(strconv.FormatUint(uint64(v), 10))
	case uint32:
		return Number(strconv.FormatUint(uint64(v), 10))
	case uint64:
		return Number(strconv.FormatUint(v, 10))
	}
	return Number(strconv.FormatInt(int64(n), 10))
}

func Float(
	f float64,
) Value {

	return Number(strconv.FormatFloat(f, 'g', -1, 64))
}

func String(
	s string,
) Value {

	return Value{kind: KindString, text: s}
}

func Array(
	values ...Value,
) Value {

	return Value{kind: KindArray, array: values}
}

func ObjectValue(
	object *Object,
) Value {

	if object == nil {
		object = NewObject()
	}
	return Value{kind: KindObject, object: object}
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) IsNull() bool {
	return v.kind == KindNull
}

func (v Value) AsBool() (bool, bool) {
	return v.boolean, v.kind == KindBool
}

func (v Value) AsString() (string, bool) {
	return v.text, v.kind == KindString
}

// NumberText returns the JSON text of a number value.
func (v Value) NumberText() (string, bool) {
	return v.text, v.kind == KindNumber
}

func (v Value) Int64() (int64, error) {
	if v.kind != KindNumber {
		return 0, errors.Errorf("value of kind %s isn't a number", v.kind)
	}
	i, err := strconv.ParseInt(v.text, 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, 0)
	}
	return i, nil
}

func (v Value) Float64() (float64, error) {
	if v.kind != KindNumber {
		return 0, errors.Errorf("value of kind %s isn't a number", v.kind)
	}
	f, err := strconv.ParseFloat(v.text, 64)
	if err != nil {
		return 0, errors.Wrap(err, 0)
	}
	return f, nil
}

func (v Value) AsArray() ([]Value, bool) {
	return v.array, v.kind == KindArray
}

func (v Value) AsObject() (*Object, bool) {
	return v.object, v.kind == KindObject
}

// Text returns the value as plain text, strings unquoted and everything
// else in its JSON representation.
func (v Value) Text() string {
	if v.kind == KindString || v.kind == KindNumber {
		return v.text
	}
	data, _ := v.MarshalJSON()
	return string(data)
}

// Interface converts the value into plain Go values (nil, bool, int64
// or float64, string, []any, map[string]any). Numbers that fit neither
// int64 nor float64 are kept as json.Number.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.boolean
	case KindNumber:
		if i, err := strconv.ParseInt(v.text, 10, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(v.text, 64); err == nil {
			return f
		}
		return json.Number(v.text)
	case KindString:
		return v.text
	case KindArray:
		items := make([]any, 0, len(v.array))
		for _, item := range v.array {
			items = append(items, item.Interface())
		}
		return items
	case KindObject:
		return v.object.Map()
	}
	return nil
}

func (v Value) Equal(
	other Value,
) bool {

	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.boolean == other.boolean
	case KindString:
		return v.text == other.text
	case KindNumber:
		if v.text == other.text {
			return true
		}
		f1, err1 := v.Float64()
		f2, err2 := other.Float64()
		return err1 == nil && err2 == nil && f1 == f2
	case KindArray:
		if len(v.array) != len(other.array) {
			return false
		}
		for i := range v.array {
			if !v.array[i].Equal(other.array[i]) {
				return false
			}
		}
		return true
	case KindObject:
		return v.object.Equal(other.object)
	}
	return false
}

func (v Value) MarshalJSON() ([]byte, error) {
	buffer := &bytes.Buffer{}
	if err := v.writeJSON(buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func (v *Value) UnmarshalJSON(
	data []byte,
) error {

	parsed, err := ParseValue(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func (v Value) writeJSON(
	buffer *bytes.Buffer,
) error {

	switch v.kind {
	case KindNull:
		buffer.WriteString("null")
	case KindBool:
		buffer.WriteString(strconv.FormatBool(v.boolean))
	case KindNumber:
		buffer.WriteString(v.text)
	case KindString:
		data, err := json.Marshal(v.text)
		if err != nil {
			return errors.Wrap(err, 0)
		}
		buffer.Write(data)
	case KindArray:
		buffer.WriteByte('[')
		for i, item := range v.array {
			if i > 0 {
				buffer.WriteByte(',')
			}
			if err := item.writeJSON(buffer); err != nil {
				return err
			}
		}
		buffer.WriteByte(']')
	case KindObject:
		return v.object.writeJSON(buffer)
	default:
		return errors.Errorf("unknown value kind %d", v.kind)
	}
	return nil
}
