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
	"fmt"

	"github.com/inboard-ai/alphav/av"
)

// Kind of a dispatch failure, identifying the stage that failed.
type Kind string

// Values for Kind.
const (
	MissingField      Kind = "missing field"
	MissingParam      Kind = "missing parameter"
	InvalidParam      Kind = "invalid parameter"
	UnknownTool       Kind = "unknown tool"
	UpstreamError     Kind = "upstream error"
	MalformedResponse Kind = "malformed response"
	TransformError    Kind = "transform error"
)

// Error returned by CallTool.
type Error struct {
	Kind   Kind
	Name   string // envelope field, parameter or tool name
	Value  string // the rejected value for InvalidParam
	Detail string
	Err    error // underlying error, if any
}

func (e *Error) Error() string {
	switch e.Kind {
	case MissingField:
		return fmt.Sprintf("missing field '%s'", e.Name)
	case MissingParam:
		return fmt.Sprintf("missing parameter '%s'", e.Name)
	case InvalidParam:
		return fmt.Sprintf("invalid %s: %s", e.Name, e.Value)
	case UnknownTool:
		return fmt.Sprintf("unknown tool: %s", e.Name)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Err.Error())
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Upstream returns the HTTP failure details for UpstreamError, if available.
func (e *Error) Upstream() *av.UpstreamError {
	ue, _ := e.Err.(*av.UpstreamError)
	return ue
}

// KindOf returns the Kind of a CallTool error, or "" for other errors.
func KindOf(err error) Kind {
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return ""
}
