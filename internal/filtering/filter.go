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

package filtering

import (
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/go-errors/errors"
	"github.com/noctarius/change-ingestor/spi/changes"
	"github.com/noctarius/change-ingestor/spi/config"
	"github.com/samber/lo"
	"sort"
)

// Filter decides if a data change is persisted.
type Filter interface {
	Accept(message *changes.ChangeMessage) (bool, error)
}

type filterFunc func(message *changes.ChangeMessage) (bool, error)

func (ff filterFunc) Accept(message *changes.ChangeMessage) (bool, error) {
	return ff(message)
}

var acceptAllFilter filterFunc = func(_ *changes.ChangeMessage) (bool, error) {
	return true, nil
}

// NewFilter compiles the named filter definitions into a composite filter
// which accepts a change only if all definitions accept it. Without any
// definitions every change is accepted.
func NewFilter(
	filterDefinitions map[string]config.FilterConfig,
) (Filter, error) {

	if len(filterDefinitions) == 0 {
		return acceptAllFilter, nil
	}

	names := lo.Keys(filterDefinitions)
	sort.Strings(names)

	filters := make([]*changeFilter, 0, len(names))
	for _, name := range names {
		def := filterDefinitions[name]
		if def.Condition == "" {
			return nil, errors.Errorf("filter '%s' has no condition", name)
		}

		defaultValue := true
		if def.DefaultValue != nil {
			defaultValue = *def.DefaultValue
		}

		prog, err := expr.Compile(def.Condition)
		if err != nil {
			return nil, errors.Errorf("filter '%s' failed to compile: %s", name, err.Error())
		}

		filters = append(filters, &changeFilter{
			name:         name,
			defaultValue: defaultValue,
			condition:    def.Condition,
			prog:         prog,
		})
	}
	return compositeFilter(filters), nil
}

var compositeFilter = func(filters []*changeFilter) Filter {
	return filterFunc(func(message *changes.ChangeMessage) (bool, error) {
		env := newEnvironment(message)
		for _, filter := range filters {
			success, err := filter.evaluate(env)
			if err != nil {
				return false, err
			}
			if !success {
				return false, nil
			}
		}
		return true, nil
	})
}

type changeFilter struct {
	name         string
	defaultValue bool
	condition    string
	prog         *vm.Program
}

func (f *changeFilter) evaluate(
	env map[string]any,
) (bool, error) {

	result, err := expr.Run(f.prog, env)
	if err != nil {
		return false, errors.Errorf("filter '%s' failed to evaluate: %s", f.name, err.Error())
	}

	r, ok := result.(bool)
	if !ok {
		return false, errors.Errorf("result of filter «%s» isn't a boolean", f.condition)
	}

	if r {
		return f.defaultValue, nil
	}
	return !f.defaultValue, nil
}

func newEnvironment(
	message *changes.ChangeMessage,
) map[string]any {

	record := message.Record()
	return map[string]any{
		"database":   record.Database,
		"schema":     record.Schema,
		"table":      record.Table,
		"operation":  record.Operation.String(),
		"primaryKey": record.PrimaryKey.Interface(),
		"values":     record.Values.Map(),
		"context":    record.Context.Map(),
	}
}
