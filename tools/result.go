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

package tools

import (
	"encoding/json"

	"github.com/inboard-ai/alphav/frame"
)

// ResultKind tags the Result union.
type ResultKind string

// Values for ResultKind.
const (
	KindText      ResultKind = "text"
	KindDataFrame ResultKind = "dataframe"
)

// Result of a tool call: either opaque text or a data frame.
type Result struct {
	Kind     ResultKind
	Text     string                 // for KindText
	Data     []interface{}          // rows as a JSON array, for KindDataFrame
	Schema   frame.Schema           // for KindDataFrame
	Metadata map[string]interface{} // optional, for KindDataFrame
}

// NewText creates a text result.
func NewText(s string) *Result {
	return &Result{Kind: KindText, Text: s}
}

// NewDataFrame creates a data frame result from f.
func NewDataFrame(f *frame.Frame) *Result {
	return &Result{
		Kind:     KindDataFrame,
		Data:     f.Data(),
		Schema:   f.Schema,
		Metadata: f.Metadata,
	}
}

// Frame converts a data frame result back to a Frame, and returns nil for a
// text result.
func (r *Result) Frame() *frame.Frame {
	if r.Kind != KindDataFrame {
		return nil
	}
	f := frame.New(r.Schema)
	f.Metadata = r.Metadata
	for _, d := range r.Data {
		if m, ok := d.(map[string]interface{}); ok {
			f.AddRow(frame.Row(m))
		}
	}
	return f
}

type textJSON struct {
	Type ResultKind `json:"type"`
	Text string     `json:"text"`
}

// MarshalJSON implements json.Marshaler.
func (r *Result) MarshalJSON() ([]byte, error) {
	if r.Kind == KindText {
		return json.Marshal(textJSON{Type: KindText, Text: r.Text})
	}
	data := r.Data
	if data == nil {
		data = []interface{}{}
	}
	return json.Marshal(struct {
		Type     ResultKind             `json:"type"`
		Data     []interface{}          `json:"data"`
		Schema   frame.Schema           `json:"schema"`
		Metadata map[string]interface{} `json:"metadata,omitempty"`
	}{r.Kind, data, r.Schema, r.Metadata})
}
