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
package config

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go/ast"
	"go/parser"
	"go/token"
	"reflect"
	"strconv"
	"strings"
	"testing"
)

type propertyConstant struct {
	name string
	path string
}

func readPropertyConstants(
	t *testing.T,
) []propertyConstant {

	file, err := parser.ParseFile(token.NewFileSet(), "./constants.go", nil, 0)
	require.NoError(t, err)

	constants := make([]propertyConstant, 0)
	ast.Inspect(file, func(node ast.Node) bool {
		valueSpec, ok := node.(*ast.ValueSpec)
		if !ok {
			return true
		}
		for i, ident := range valueSpec.Names {
			literal, ok := valueSpec.Values[i].(*ast.BasicLit)
			require.True(t, ok, "%s isn't a literal", ident.Name)
			path, err := strconv.Unquote(literal.Value)
			require.NoError(t, err)
			constants = append(constants, propertyConstant{name: ident.Name, path: path})
		}
		return false
	})
	return constants
}

func Test_Property_Constants_Resolve_To_Fields(
	t *testing.T,
) {

	constants := readPropertyConstants(t)
	require.NotEmpty(t, constants)

	for _, constant := range constants {
		t.Run(constant.name, func(t *testing.T) {
			element := reflect.ValueOf(Config{})
			for _, property := range strings.Split(constant.path, ".") {
				e, ok := findProperty(element, property)
				require.True(t, ok, "segment '%s' of '%s' isn't defined in Config", property, constant.path)
				element = e
			}
			assert.NotEqual(t, reflect.Struct, element.Kind(), "'%s' names a section, not a value", constant.path)
		})
	}
}

func Test_Property_Constants_Unique(
	t *testing.T,
) {

	seen := make(map[string]string)
	for _, constant := range readPropertyConstants(t) {
		if other, present := seen[constant.path]; present {
			t.Errorf("%s and %s share the property '%s'", other, constant.name, constant.path)
		}
		seen[constant.path] = constant.name
	}
}
