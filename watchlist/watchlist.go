// Copyright 2023 Stock Parfait

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package watchlist runs a single tool over a list of symbols in parallel and
// merges the results into one frame with a leading "symbol" column.
package watchlist

import (
	"context"
	"runtime"
	"strconv"

	"github.com/inboard-ai/alphav/av"
	"github.com/inboard-ai/alphav/frame"
	"github.com/inboard-ai/alphav/message"
	"github.com/inboard-ai/alphav/tools"
	"github.com/stockparfait/errors"
	"github.com/stockparfait/iterator"
	"github.com/stockparfait/logging"
	"golang.org/x/exp/slices"
)

// SymbolColumn is prepended to the tool's columns.
var SymbolColumn = frame.Column{Name: "symbol", Alias: "Symbol", Type: frame.String}

// Config of a watchlist.
type Config struct {
	Tool    string                 `json:"tool" required:"true"`
	Params  map[string]interface{} `json:"params"` // except "symbol"
	Symbols []string               `json:"symbols" required:"true"`
	Rows    int                    `json:"rows" default:"1"` // per symbol; 0 = all
	Columns []string               `json:"columns"`          // default: all
	Sort    string                 `json:"sort"`             // column to sort by
	Order   string                 `json:"order" choices:"ascending,descending" default:"descending"`
	Workers int                    `json:"workers"` // default: 2*NumCPU
}

var _ message.Message = &Config{}

// InitMessage implements message.Message.
func (c *Config) InitMessage(js interface{}) error {
	if err := message.Init(c, js); err != nil {
		return errors.Annotate(err, "failed to parse watchlist config")
	}
	if _, ok := tools.GetToolDetails(c.Tool); !ok {
		return errors.Reason("unknown tool: %s", c.Tool)
	}
	if len(c.Symbols) == 0 {
		return errors.Reason("symbols must not be empty")
	}
	seen := make(map[string]struct{}, len(c.Symbols))
	for _, s := range c.Symbols {
		if _, ok := seen[s]; ok {
			return errors.Reason("duplicate symbol: %s", s)
		}
		seen[s] = struct{}{}
	}
	if _, ok := c.Params["symbol"]; ok {
		return errors.Reason("params must not contain a symbol")
	}
	if c.Rows < 0 {
		return errors.Reason("rows must be >= 0")
	}
	if c.Workers < 0 {
		return errors.Reason("workers must be >= 0")
	}
	return nil
}

// Cell of a sort column: a number if the value parses as one, otherwise a
// string.
type Cell struct {
	IsNumber bool // which field to use as a value
	number   float64
	string   string
}

// NewCell converts a frame value to a Cell. Null is the empty string.
func NewCell(v interface{}) Cell {
	s := frame.Cell(v)
	if x, err := strconv.ParseFloat(s, 64); err == nil {
		return Cell{IsNumber: true, number: x}
	}
	return Cell{string: s}
}

// Less orders all strings before numbers.
func (c Cell) Less(c2 Cell) bool {
	if c.IsNumber != c2.IsNumber {
		return !c.IsNumber
	}
	if c.IsNumber {
		return c.number < c2.number
	}
	return c.string < c2.string
}

// call runs the tool for a single symbol. A failure is logged and yields nil.
func call(ctx context.Context, client *av.Client, c *Config, symbol string) *frame.Frame {
	params := map[string]interface{}{"symbol": symbol}
	for k, v := range c.Params {
		params[k] = v
	}
	res, err := tools.CallTool(ctx, client, map[string]interface{}{
		"tool": c.Tool, "params": params})
	if err != nil {
		logging.Warningf(ctx, "failed to process %s: %s", symbol, err.Error())
		return nil
	}
	return res.Frame()
}

// schema of the merged frame: the symbol column followed by the selected
// columns of the tool.
func schema(c *Config, s frame.Schema) (frame.Schema, error) {
	res := frame.Schema{SymbolColumn}
	if len(c.Columns) == 0 {
		return append(res, s...), nil
	}
	idx := s.MapColumns()
	for _, name := range c.Columns {
		i, ok := idx[name]
		if !ok {
			return nil, errors.Reason("unknown column %s for %s", name, c.Tool)
		}
		res = append(res, s[i])
	}
	if err := res.Validate(); err != nil {
		return nil, errors.Annotate(err, "invalid columns")
	}
	return res, nil
}

// Run calls the tool for every symbol and merges the first c.Rows rows of each
// result, in the order of c.Symbols unless c.Sort is set. Symbols that fail are
// skipped; it is an error if all of them fail.
func Run(ctx context.Context, client *av.Client, c *Config) (*frame.Frame, error) {
	workers := c.Workers
	if workers == 0 {
		workers = 2 * runtime.NumCPU()
	}
	type result struct {
		symbol string
		frame  *frame.Frame
	}
	f := func(symbol string) result {
		return result{symbol: symbol, frame: call(ctx, client, c, symbol)}
	}
	pm := iterator.ParallelMap(ctx, workers, iterator.FromSlice(c.Symbols), f)

	frames := iterator.Reduce[result, map[string]*frame.Frame](
		pm, map[string]*frame.Frame{},
		func(r result, m map[string]*frame.Frame) map[string]*frame.Frame {
			if r.frame != nil {
				m[r.symbol] = r.frame
			}
			return m
		})

	var out *frame.Frame
	for _, symbol := range c.Symbols {
		f, ok := frames[symbol]
		if !ok {
			continue
		}
		if out == nil {
			s, err := schema(c, f.Schema)
			if err != nil {
				return nil, err
			}
			out = frame.New(s)
		}
		for i, r := range f.Rows {
			if c.Rows > 0 && i >= c.Rows {
				break
			}
			row := frame.Row{SymbolColumn.Name: symbol}
			for _, col := range out.Schema[1:] {
				row[col.Name] = r[col.Name]
			}
			out.AddRow(row)
		}
	}
	if out == nil {
		return nil, errors.Reason("%s failed for all %d symbols", c.Tool, len(c.Symbols))
	}
	logging.Infof(ctx, "%s: %d rows for %d of %d symbols",
		c.Tool, len(out.Rows), len(frames), len(c.Symbols))

	if c.Sort != "" {
		if _, ok := out.Schema.MapColumns()[c.Sort]; !ok {
			return nil, errors.Reason("cannot sort by unknown column %s", c.Sort)
		}
		less := func(a, b frame.Row) bool { return NewCell(a[c.Sort]).Less(NewCell(b[c.Sort])) }
		if c.Order == "descending" {
			less = func(a, b frame.Row) bool { return NewCell(b[c.Sort]).Less(NewCell(a[c.Sort])) }
		}
		slices.SortStableFunc(out.Rows, less)
	}
	return out, nil
}
