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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func Test_ParseValue_Keeps_Key_Order(t *testing.T) {
	value, err := ParseValue([]byte(`{"z":1,"a":"text","m":[true,null,{"y":2,"b":3}]}`))
	require.NoError(t, err)

	object, ok := value.AsObject()
	require.True(t, ok)
	assert.Equal(t, []string{"z", "a", "m"}, object.Keys())

	m, _ := object.Get("m")
	items, ok := m.AsArray()
	require.True(t, ok)
	require.Len(t, items, 3)

	b, ok := items[0].AsBool()
	assert.True(t, ok)
	assert.True(t, b)
	assert.True(t, items[1].IsNull())

	nested, ok := items[2].AsObject()
	require.True(t, ok)
	assert.Equal(t, []string{"y", "b"}, nested.Keys())
}

func Test_ParseValue_Roundtrip_Preserves_Text(t *testing.T) {
	input := `{"id":12345678901234567890,"name":"café \"quoted\"","ratio":1.50,"tags":[],"nested":{}}`

	value, err := ParseValue([]byte(input))
	require.NoError(t, err)

	data, err := value.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"id":12345678901234567890,"name":"café \"quoted\"","ratio":1.50,"tags":[],"nested":{}}`, string(data))
}

func Test_ParseValue_Invalid_Input(t *testing.T) {
	_, err := ParseValue([]byte(`{"id":`))
	assert.Error(t, err)

	_, err = ParseValue([]byte{'"', 0xff, 0xfe, '"'})
	assert.Error(t, err)

	_, err = ParseObject([]byte(`[1,2]`))
	assert.Error(t, err)
}

func Test_ParseValue_Rejects_Non_Standard_Json(t *testing.T) {
	for name, input := range map[string]string{
		"nan":            `{"a":NaN}`,
		"negative inf":   `{"a":-inf}`,
		"infinity":       `[Infinity]`,
		"leading zero":   `01`,
		"trailing dot":   `{"a":1.}`,
		"invalid escape": `{"a":"\q"}`,
		"short unicode":  `"\u12"`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseValue([]byte(input))
			assert.Error(t, err)
		})
	}
}

func Test_Value_Numbers(t *testing.T) {
	i, err := NumberOf(42).Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(42), i)

	_, err = Number("4.2").Int64()
	assert.Error(t, err)

	f, err := Number("4.2").Float64()
	require.NoError(t, err)
	assert.Equal(t, 4.2, f)

	_, err = String("42").Int64()
	assert.Error(t, err)

	assert.Equal(t, "18446744073709551615", NumberOf(uint64(18446744073709551615)).Text())
	assert.True(t, Number("1.0").Equal(Number("1")))
	assert.False(t, Number("1").Equal(String("1")))
}

func Test_Value_Interface(t *testing.T) {
	object := ObjectOf(
		"id", NumberOf(1),
		"price", Float(9.5),
		"name", String("a"),
		"flags", Array(Bool(true), Null()),
	)

	assert.Equal(t, map[string]any{
		"id":    int64(1),
		"price": 9.5,
		"name":  "a",
		"flags": []any{true, nil},
	}, object.Map())
}

func Test_Object_Set_Replaces_In_Place(t *testing.T) {
	object := ObjectOf("a", NumberOf(1), "b", NumberOf(2))
	object.Set("a", NumberOf(3))

	assert.Equal(t, []string{"a", "b"}, object.Keys())
	a, present := object.Get("a")
	assert.True(t, present)
	assert.True(t, a.Equal(NumberOf(3)))

	data, err := object.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"a":3,"b":2}`, string(data))
}

func Test_Object_Nil_Is_Empty(t *testing.T) {
	var object *Object
	assert.Equal(t, 0, object.Len())
	assert.Equal(t, []string{}, object.Keys())
	assert.True(t, object.Equal(NewObject()))

	_, present := object.Get("missing")
	assert.False(t, present)

	data, err := object.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))
}

func Test_Object_Equal_Ignores_Order(t *testing.T) {
	o1 := ObjectOf("a", NumberOf(1), "b", String("x"))
	o2 := ObjectOf("b", String("x"), "a", NumberOf(1))
	o3 := ObjectOf("a", NumberOf(1))

	assert.True(t, o1.Equal(o2))
	assert.False(t, o1.Equal(o3))
}

func Test_Object_UnmarshalJSON(t *testing.T) {
	object := NewObject()
	require.NoError(t, object.UnmarshalJSON([]byte(`{"user_id":42}`)))

	userId, present := object.Get("user_id")
	assert.True(t, present)
	assert.True(t, userId.Equal(NumberOf(42)))
}

func Test_Operation_Json(t *testing.T) {
	data, err := UPDATE.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"UPDATE"`, string(data))

	var operation Operation
	require.NoError(t, operation.UnmarshalJSON([]byte(`"TRUNCATE"`)))
	assert.Equal(t, TRUNCATE, operation)

	assert.Error(t, operation.UnmarshalJSON([]byte(`"UPSERT"`)))
	_, err = Operation("UPSERT").MarshalJSON()
	assert.Error(t, err)
	assert.Len(t, Operations(), 5)
}
