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

// Package message populates Go structs from generic JSON with per-field
// validation driven by struct tags. It is used for configuration files.
package message

import (
	"encoding/json"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/stockparfait/errors"
)

// Message is a JSON object represented by a struct pointer, e.g.:
//
//   type Watch struct {
//     Tool    string   `json:"tool" required:"true"`
//     Symbols []string `json:"symbols"`
//     Order   string   `json:"order" choices:"ascending,descending" default:"descending"`
//     Rows    int      `json:"rows" default:"1"`
//   }
//
//   func (w *Watch) InitMessage(js interface{}) error {
//     return message.Init(w, js)
//   }
type Message interface {
	// InitMessage populates the message from the generic JSON value as decoded
	// by encoding/json. It checks required fields, sets defaults and rejects
	// unknown fields.
	InitMessage(js interface{}) error
}

var messageType = reflect.TypeOf((*Message)(nil)).Elem()

// field of a message struct with its parsed tags.
type field struct {
	index    int
	goName   string
	jsonName string
	required bool
	dflt     *string
	choices  []string
}

func fieldsOf(t reflect.Type) []field {
	var res []field
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		f := field{index: i, goName: sf.Name, jsonName: sf.Name}
		if tag := strings.Split(sf.Tag.Get("json"), ",")[0]; tag == "-" {
			continue
		} else if tag != "" {
			f.jsonName = tag
		}
		f.required = sf.Tag.Get("required") == "true"
		if d, ok := sf.Tag.Lookup("default"); ok {
			f.dflt = &d
		}
		if c, ok := sf.Tag.Lookup("choices"); ok {
			f.choices = strings.Split(c, ",")
		}
		res = append(res, f)
	}
	return res
}

// Init is the generic implementation of Message.InitMessage. Recognized tags:
//
//   `json:"name" required:"true" default:"value" choices:"one,two"`
//
// Missing optional fields take the default value, or the zero value when
// there is no default; a Message-typed field is then initialized from an empty
// object so its own defaults apply. The choices tag applies to string fields.
func Init(m Message, js interface{}) error {
	rv := reflect.ValueOf(m)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return errors.Reason("message must be a struct pointer, got %T", m)
	}
	obj, ok := js.(map[string]interface{})
	if !ok {
		return errors.Reason("expected a JSON object, got %T", js)
	}
	sv := rv.Elem()
	known := make(map[string]struct{})
	missing := []string{}
	for _, f := range fieldsOf(sv.Type()) {
		known[f.jsonName] = struct{}{}
		fv := sv.Field(f.index)
		jv, ok := obj[f.jsonName]
		switch {
		case ok:
			v, err := convert(jv, fv.Type())
			if err != nil {
				return errors.Annotate(err, "field %s", f.jsonName)
			}
			fv.Set(v)
		case f.required:
			missing = append(missing, f.jsonName)
			continue
		case f.dflt != nil:
			v, err := parse(*f.dflt, fv.Type())
			if err != nil {
				return errors.Annotate(err, "default value of %s", f.jsonName)
			}
			fv.Set(v)
		default:
			v, err := convert(nil, fv.Type())
			if err != nil {
				return errors.Annotate(err, "zero value of %s", f.jsonName)
			}
			fv.Set(v)
		}
		if f.choices != nil {
			if fv.Kind() != reflect.String {
				return errors.Reason("choices for a non-string field %s", f.jsonName)
			}
			if !StringIn(fv.String(), f.choices...) {
				return errors.Reason("%s must be one of [%s], got '%s'",
					f.jsonName, strings.Join(f.choices, ", "), fv.String())
			}
		}
	}
	if len(missing) > 0 {
		return errors.Reason("missing required fields: %s", strings.Join(missing, ", "))
	}
	unknown := []string{}
	for k := range obj {
		if _, ok := known[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		return errors.Reason("unsupported fields for %s: %s",
			sv.Type().Name(), strings.Join(unknown, ", "))
	}
	return nil
}

// convert a generic JSON value to type t. A nil value yields the zero value,
// except for Message types which are initialized from an empty object.
func convert(jv interface{}, t reflect.Type) (reflect.Value, error) {
	var none reflect.Value
	if reflect.PtrTo(t).Implements(messageType) && t.Kind() == reflect.Struct {
		if jv == nil {
			jv = map[string]interface{}{}
		}
		ptr := reflect.New(t)
		if err := ptr.Interface().(Message).InitMessage(jv); err != nil {
			return none, err
		}
		return ptr.Elem(), nil
	}
	if jv == nil {
		return reflect.Zero(t), nil
	}
	switch t.Kind() {
	case reflect.Ptr:
		v, err := convert(jv, t.Elem())
		if err != nil {
			return none, err
		}
		ptr := reflect.New(t.Elem())
		ptr.Elem().Set(v)
		return ptr, nil
	case reflect.String:
		if s, ok := jv.(string); ok {
			return reflect.ValueOf(s).Convert(t), nil
		}
	case reflect.Bool:
		if b, ok := jv.(bool); ok {
			return reflect.ValueOf(b), nil
		}
	case reflect.Int:
		if x, ok := jv.(float64); ok && x == float64(int(x)) {
			return reflect.ValueOf(int(x)), nil
		}
	case reflect.Float64:
		if x, ok := jv.(float64); ok {
			return reflect.ValueOf(x), nil
		}
	case reflect.Slice:
		a, ok := jv.([]interface{})
		if !ok {
			break
		}
		res := reflect.MakeSlice(t, len(a), len(a))
		for i, e := range a {
			v, err := convert(e, t.Elem())
			if err != nil {
				return none, errors.Annotate(err, "element %d", i)
			}
			res.Index(i).Set(v)
		}
		return res, nil
	case reflect.Map:
		m, ok := jv.(map[string]interface{})
		if !ok || t.Key().Kind() != reflect.String {
			break
		}
		res := reflect.MakeMapWithSize(t, len(m))
		for k, e := range m {
			v, err := convert(e, t.Elem())
			if err != nil {
				return none, errors.Annotate(err, "key %s", k)
			}
			res.SetMapIndex(reflect.ValueOf(k), v)
		}
		return res, nil
	case reflect.Interface:
		return reflect.ValueOf(&jv).Elem(), nil
	}
	return none, errors.Reason("cannot convert %T to %s", jv, t)
}

// parse a default value from a struct tag.
func parse(s string, t reflect.Type) (reflect.Value, error) {
	var none reflect.Value
	switch t.Kind() {
	case reflect.Ptr:
		v, err := parse(s, t.Elem())
		if err != nil {
			return none, err
		}
		ptr := reflect.New(t.Elem())
		ptr.Elem().Set(v)
		return ptr, nil
	case reflect.String:
		return reflect.ValueOf(s).Convert(t), nil
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return none, errors.Annotate(err, "invalid bool %s", s)
		}
		return reflect.ValueOf(b), nil
	case reflect.Int:
		x, err := strconv.Atoi(s)
		if err != nil {
			return none, errors.Annotate(err, "invalid int %s", s)
		}
		return reflect.ValueOf(x), nil
	case reflect.Float64:
		x, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return none, errors.Annotate(err, "invalid float64 %s", s)
		}
		return reflect.ValueOf(x), nil
	}
	return none, errors.Reason("default value for %s is not supported", t)
}

// FromJSON parses the JSON text into the message.
func FromJSON(m Message, text []byte) error {
	var js interface{}
	if err := json.Unmarshal(text, &js); err != nil {
		return errors.Annotate(err, "failed to parse JSON")
	}
	return m.InitMessage(js)
}

// FromFile reads the message from a JSON file.
func FromFile(m Message, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return errors.Annotate(err, "failed to read %s", path)
	}
	if err := FromJSON(m, b); err != nil {
		return errors.Annotate(err, "failed to load %s", path)
	}
	return nil
}

// StringIn checks that s equals one of the values.
func StringIn(s string, values ...string) bool {
	for _, v := range values {
		if s == v {
			return true
		}
	}
	return false
}
