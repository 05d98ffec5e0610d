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

// Package frame is the tabular representation of normalized API responses: an
// ordered column schema, rows keyed by column name and optional metadata.
package frame

import (
	"fmt"
	"strings"

	"github.com/stockparfait/errors"
	"golang.org/x/exp/slices"
)

// Type of a column's values, a hint for downstream consumers.
type Type string

// Values for Type.
const (
	String Type = "string"
	Number Type = "number"
)

// Column is the schema definition for a single column.
type Column struct {
	Name  string `json:"name"`  // key in each Row
	Alias string `json:"alias"` // display label, may be empty
	Type  Type   `json:"dtype"`
}

// Label is the alias, or the name when there is no alias.
func (c Column) Label() string {
	if c.Alias != "" {
		return c.Alias
	}
	return c.Name
}

// Schema is an ordered list of columns.
type Schema []Column

// Equal tests two schemas for exact equality, including the column ordering.
func (s Schema) Equal(s2 Schema) bool {
	if len(s) != len(s2) {
		return false
	}
	for i, c := range s {
		if c != s2[i] {
			return false
		}
	}
	return true
}

// Names of the columns in order.
func (s Schema) Names() []string {
	res := make([]string, len(s))
	for i, c := range s {
		res[i] = c.Name
	}
	return res
}

// MapColumns creates a map of {column name -> column index} in the schema.
func (s Schema) MapColumns() map[string]int {
	res := make(map[string]int)
	for i, c := range s {
		res[c.Name] = i
	}
	return res
}

// Validate checks that column names are non-empty and unique.
func (s Schema) Validate() error {
	seen := make(map[string]struct{})
	for i, c := range s {
		if c.Name == "" {
			return errors.Reason("column %d has no name", i)
		}
		if _, ok := seen[c.Name]; ok {
			return errors.Reason("duplicate column %s", c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	return nil
}

// String prints a string representation of the schema.
func (s Schema) String() string {
	cols := []string{}
	for _, c := range s {
		cols = append(cols, fmt.Sprintf("%s: %s", c.Name, c.Type))
	}
	return "{" + strings.Join(cols, ", ") + "}"
}

// Row is a single record. Values are as decoded by encoding/json; an absent
// source value is stored as an explicit nil.
type Row map[string]interface{}

// Str returns the value of the column as a string, and "" if it is not a
// string.
func (r Row) Str(column string) string {
	s, _ := r[column].(string)
	return s
}

// Frame is a tabular result: rows, their schema and optional metadata.
type Frame struct {
	Rows     []Row                  `json:"data"`
	Schema   Schema                 `json:"schema"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// New creates an empty frame with the given schema.
func New(schema Schema) *Frame {
	return &Frame{Rows: []Row{}, Schema: schema}
}

// AddRow appends rows to the frame.
func (f *Frame) AddRow(rows ...Row) {
	f.Rows = append(f.Rows, rows...)
}

// Data converts rows to a generic JSON array.
func (f *Frame) Data() []interface{} {
	res := make([]interface{}, len(f.Rows))
	for i, r := range f.Rows {
		res[i] = map[string]interface{}(r)
	}
	return res
}

// SortDescending sorts rows by the string value of the column, most recent
// (lexicographically greatest) first. Rows with equal keys keep their order.
// Non-string values compare as the empty string.
func SortDescending(rows []Row, column string) {
	slices.SortStableFunc(rows, func(a, b Row) bool {
		return a.Str(column) > b.Str(column)
	})
}
