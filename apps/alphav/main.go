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

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/logging"

	"github.com/inboard-ai/alphav/av"
	"github.com/inboard-ai/alphav/frame"
	"github.com/inboard-ai/alphav/message"
	"github.com/inboard-ai/alphav/tools"
	"github.com/inboard-ai/alphav/watchlist"
)

type Flags struct {
	Conf     string // TOML config file with the API key; default: environment
	LogLevel logging.Level
	// Exactly one of the following must be present.
	List      bool
	Describe  string // tool ID
	Tool      string // tool ID to call with Params
	Quote     string // symbol
	Watchlist string // watchlist config file
	// Tool parameters as a JSON object.
	Params string
	// Only validate Params against the tool's schema.
	Check  bool
	Format string // text, csv or json
	Rows   int    // max. rows to print; 0 = all
}

func parseFlags(args []string) (*Flags, error) {
	var flags Flags
	fs := flag.NewFlagSet("alphav", flag.ExitOnError)
	fs.StringVar(&flags.Conf, "conf", "", "TOML config file with the API key")
	flags.LogLevel = logging.Info
	fs.Var(&flags.LogLevel, "log-level", "Log level: debug, info, warning, error")
	fs.BoolVar(&flags.List, "list", false, "list available tools")
	fs.StringVar(&flags.Describe, "describe", "", "print the definition of the tool")
	fs.StringVar(&flags.Tool, "tool", "", "tool to call")
	fs.StringVar(&flags.Quote, "quote", "", "print the latest quote for the symbol")
	fs.StringVar(&flags.Watchlist, "watchlist", "", "watchlist config file (JSON)")
	fs.StringVar(&flags.Params, "params", "{}", "tool parameters as a JSON object")
	fs.BoolVar(&flags.Check, "check", false,
		"validate -params against the schema of -tool without calling it")
	fs.StringVar(&flags.Format, "format", "text", "output format: text, csv, json")
	fs.IntVar(&flags.Rows, "rows", 0, "max. number of rows to print; 0 = all")

	err := fs.Parse(args)
	if err != nil {
		return nil, err
	}
	kinds := 0
	for _, present := range []bool{
		flags.List, flags.Describe != "", flags.Tool != "", flags.Quote != "",
		flags.Watchlist != "",
	} {
		if present {
			kinds++
		}
	}
	if kinds != 1 {
		return nil, errors.Reason(
			"expected exactly one of -list, -describe, -tool, -quote or -watchlist")
	}
	if flags.Check && flags.Tool == "" {
		return nil, errors.Reason("-check requires -tool")
	}
	if !message.StringIn(flags.Format, "text", "csv", "json") {
		return nil, errors.Reason("-format must be one of text, csv, json; got '%s'",
			flags.Format)
	}
	if flags.Rows < 0 {
		return nil, errors.Reason("-rows must be non-negative, got %d", flags.Rows)
	}
	return &flags, nil
}

func newClient(flags *Flags) (*av.Client, error) {
	c, err := av.LoadConfig(flags.Conf)
	if err != nil {
		return nil, errors.Annotate(err, "failed to load config")
	}
	return c.Client()
}

func writeFrame(f *frame.Frame, flags *Flags, w io.Writer) error {
	p := frame.Params{Rows: flags.Rows}
	switch flags.Format {
	case "csv":
		if err := f.WriteCSV(w, p); err != nil {
			return errors.Annotate(err, "failed to print CSV")
		}
	case "json":
		if err := f.WriteJSON(w); err != nil {
			return errors.Annotate(err, "failed to print JSON")
		}
	default:
		if err := f.WriteText(w, p); err != nil {
			return errors.Annotate(err, "failed to print text")
		}
	}
	return nil
}

func writeJSON(v interface{}, w io.Writer) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Annotate(err, "failed to marshal JSON")
	}
	if _, err := fmt.Fprintln(w, string(b)); err != nil {
		return errors.Annotate(err, "failed to write JSON")
	}
	return nil
}

func toolsFrame() *frame.Frame {
	f := frame.New(frame.Schema{
		{Name: "id", Alias: "ID", Type: frame.String},
		{Name: "name", Alias: "Name", Type: frame.String},
		{Name: "description", Alias: "Description", Type: frame.String},
	})
	for _, t := range tools.ListTools() {
		f.AddRow(frame.Row{"id": t.ID, "name": t.Name, "description": t.Description})
	}
	return f
}

func quoteFrame(q *av.Quote) *frame.Frame {
	f := frame.New(frame.Schema{
		{Name: "symbol", Alias: "Symbol", Type: frame.String},
		{Name: "latest_trading_day", Alias: "Date", Type: frame.String},
		{Name: "price", Alias: "Price", Type: frame.Number},
		{Name: "change", Alias: "Change", Type: frame.Number},
		{Name: "change_percent", Alias: "Change %", Type: frame.String},
		{Name: "volume", Alias: "Volume", Type: frame.Number},
	})
	f.AddRow(frame.Row{
		"symbol":             q.Symbol,
		"latest_trading_day": q.LatestTradingDay,
		"price":              q.Price,
		"change":             q.Change,
		"change_percent":     q.ChangePercent,
		"volume":             q.Volume,
	})
	return f
}

func callTool(ctx context.Context, flags *Flags, w io.Writer) error {
	var params interface{}
	if err := json.Unmarshal([]byte(flags.Params), &params); err != nil {
		return errors.Annotate(err, "failed to parse -params")
	}
	if flags.Check {
		if err := tools.ValidateParams(flags.Tool, params); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "%s: params are valid\n", flags.Tool)
		return err
	}
	client, err := newClient(flags)
	if err != nil {
		return err
	}
	res, err := tools.CallTool(ctx, client, map[string]interface{}{
		"tool": flags.Tool, "params": params})
	if err != nil {
		return errors.Annotate(err, "failed to call %s", flags.Tool)
	}
	if f := res.Frame(); f != nil {
		return writeFrame(f, flags, w)
	}
	_, err = fmt.Fprintln(w, res.Text)
	return err
}

func printData(ctx context.Context, flags *Flags, w io.Writer) error {
	switch {
	case flags.List:
		return writeFrame(toolsFrame(), flags, w)
	case flags.Describe != "":
		t, ok := tools.GetToolDetails(flags.Describe)
		if !ok {
			return errors.Reason("unknown tool: %s", flags.Describe)
		}
		return writeJSON(t, w)
	case flags.Tool != "":
		return callTool(ctx, flags, w)
	case flags.Quote != "":
		client, err := newClient(flags)
		if err != nil {
			return err
		}
		q, err := client.FetchQuote(ctx, flags.Quote)
		if err != nil {
			return errors.Annotate(err, "failed to fetch quote")
		}
		return writeFrame(quoteFrame(q), flags, w)
	case flags.Watchlist != "":
		var c watchlist.Config
		if err := message.FromFile(&c, flags.Watchlist); err != nil {
			return errors.Annotate(err, "failed to load watchlist")
		}
		client, err := newClient(flags)
		if err != nil {
			return err
		}
		f, err := watchlist.Run(ctx, client, &c)
		if err != nil {
			return errors.Annotate(err, "failed to run watchlist")
		}
		return writeFrame(f, flags, w)
	}
	return errors.Reason("nothing to do")
}

func main() {
	ctx := context.Background()
	flags, err := parseFlags(os.Args[1:])
	if err != nil {
		ctx = logging.Use(ctx, logging.DefaultGoLogger(logging.Info))
		logging.Errorf(ctx, "failed to parse flags: %s", err.Error())
		os.Exit(1)
	}
	ctx = logging.Use(ctx, logging.DefaultGoLogger(flags.LogLevel))

	if err := printData(ctx, flags, os.Stdout); err != nil {
		logging.Errorf(ctx, err.Error())
		os.Exit(1)
	}
}
