// Copyright 2022 Stock Parfait

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package transform reshapes vendor JSON responses into frames: flat rows, a
// column schema and optional metadata. Transformers are pure functions of the
// decoded JSON. Fields absent in the source become explicit nulls; only a
// missing structurally required key is an error.
package transform

import (
	"fmt"

	"github.com/inboard-ai/alphav/frame"
)

// Func transforms a decoded JSON response of a specific endpoint into a frame.
type Func func(js interface{}) (*frame.Frame, error)

// Error is a response that cannot be transformed.
type Error struct {
	Key    string // missing required key, if that is the reason
	Reason string
}

func (e *Error) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("missing required key %q", e.Key)
	}
	return e.Reason
}

func missingKey(key string) *Error {
	return &Error{Key: key}
}

// field is a mapping of a vendor field to an output column.
type field struct {
	Src   string // vendor field name
	Name  string // output column name
	Alias string
	Type  frame.Type
}

func (f field) column() frame.Column {
	return frame.Column{Name: f.Name, Alias: f.Alias, Type: f.Type}
}

func columns(fields []field) frame.Schema {
	res := make(frame.Schema, len(fields))
	for i, f := range fields {
		res[i] = f.column()
	}
	return res
}

func asObject(js interface{}) (map[string]interface{}, error) {
	m, ok := js.(map[string]interface{})
	if !ok {
		return nil, &Error{Reason: fmt.Sprintf("expected a JSON object, got %T", js)}
	}
	return m, nil
}

// asArray returns the array under key, or nil if absent or not an array.
func asArray(m map[string]interface{}, key string) []interface{} {
	a, _ := m[key].([]interface{})
	return a
}

// copyFields adds the fields of the vendor entry to the row. A non-object
// entry yields nulls for all the fields.
func copyFields(row frame.Row, entry interface{}, fields []field) {
	obj, _ := entry.(map[string]interface{})
	for _, f := range fields {
		row[f.Name] = obj[f.Src] // nil for missing fields or a nil obj
	}
}

// symbolMetadata is {"symbol": ...} when the response has a symbol.
func symbolMetadata(m map[string]interface{}) map[string]interface{} {
	s, ok := m["symbol"]
	if !ok {
		return nil
	}
	return map[string]interface{}{"symbol": s}
}
