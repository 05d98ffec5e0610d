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

package frame

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/stockparfait/errors"
)

// Params are parameters for pretty-printing or CSV export of a Frame.
type Params struct {
	Rows        int  // max. number of rows to write; 0 = unlimited (default)
	NoHeader    bool // whether to print the header, default - yes
	MaxColWidth int  // for WriteText only; 0 = unlimited, otherwise must be >= 4
	Aliases     bool // use column aliases in the header when available
}

// Cell formats a single value for text output. Null is an empty string.
func Cell(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case json.Number:
		return x.String()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func (f *Frame) header(p Params) []string {
	res := make([]string, len(f.Schema))
	for i, c := range f.Schema {
		if p.Aliases {
			res[i] = c.Label()
		} else {
			res[i] = c.Name
		}
	}
	return res
}

func (f *Frame) cells(r Row) []string {
	res := make([]string, len(f.Schema))
	for i, c := range f.Schema {
		res[i] = Cell(r[c.Name])
	}
	return res
}

// rows returns the rows to be written according to p.Rows.
func (f *Frame) rows(p Params) []Row {
	if p.Rows > 0 && p.Rows < len(f.Rows) {
		return f.Rows[:p.Rows]
	}
	return f.Rows
}

// WriteCSV writes the frame to w in CSV format, with columns in schema order.
func (f *Frame) WriteCSV(w io.Writer, p Params) error {
	cw := csv.NewWriter(w)
	if !p.NoHeader {
		if err := cw.Write(f.header(p)); err != nil {
			return errors.Annotate(err, "failed to write header")
		}
	}
	for _, r := range f.rows(p) {
		if err := cw.Write(f.cells(r)); err != nil {
			return errors.Annotate(err, "failed to write row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Annotate(err, "failed to flush written rows")
	}
	return nil
}

// WriteJSON writes the frame as a single JSON object with "data", "schema"
// and optional "metadata" fields.
func (f *Frame) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(f); err != nil {
		return errors.Annotate(err, "failed to write JSON")
	}
	return nil
}

// WriteText writes the frame as right-aligned columns separated by " | ".
// Values wider than p.MaxColWidth are truncated with "..".
func (f *Frame) WriteText(w io.Writer, p Params) error {
	if p.MaxColWidth != 0 && p.MaxColWidth < 4 {
		return errors.Reason("MaxColWidth [%d] must be 0 or >= 4", p.MaxColWidth)
	}
	if len(f.Schema) == 0 {
		return errors.Reason("frame has no columns")
	}
	lines := [][]string{}
	if !p.NoHeader {
		lines = append(lines, f.header(p))
	}
	for _, r := range f.rows(p) {
		lines = append(lines, f.cells(r))
	}

	widths := make([]int, len(f.Schema))
	for _, line := range lines {
		for i, s := range line {
			n := len([]rune(s))
			if p.MaxColWidth > 0 && n > p.MaxColWidth {
				n = p.MaxColWidth
			}
			if n > widths[i] {
				widths[i] = n
			}
		}
	}
	if !p.NoHeader {
		sep := make([]string, len(widths))
		for i, n := range widths {
			sep[i] = strings.Repeat("-", n)
		}
		lines = append(lines[:1], append([][]string{sep}, lines[1:]...)...)
	}

	for _, line := range lines {
		out := make([]string, len(line))
		for i, s := range line {
			if r := []rune(s); len(r) > widths[i] {
				s = string(r[:widths[i]-2]) + ".."
			}
			out[i] = fmt.Sprintf("%[2]*[1]s", s, widths[i])
		}
		if _, err := fmt.Fprintf(w, "%s\n", strings.Join(out, " | ")); err != nil {
			return errors.Annotate(err, "failed to write row")
		}
	}
	return nil
}
