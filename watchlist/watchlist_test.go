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

package watchlist

import (
	"context"
	"net/url"
	"sync"
	"testing"

	"github.com/inboard-ai/alphav/av"
	"github.com/inboard-ai/alphav/frame"
	"github.com/stockparfait/testutil"

	. "github.com/smartystreets/goconvey/convey"
)

// testTransport responds with a body by symbol, and 404 for unknown symbols.
type testTransport struct {
	mu     sync.Mutex
	bodies map[string]string
	calls  []url.Values
}

func (t *testTransport) Get(ctx context.Context, uri string) (*av.Response, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, u.Query())
	body, ok := t.bodies[u.Query().Get("symbol")]
	if !ok {
		return &av.Response{Status: 404, Body: "not found"}, nil
	}
	return &av.Response{Status: 200, Body: body}, nil
}

func (t *testTransport) Post(ctx context.Context, uri, body string) (*av.Response, error) {
	return t.Get(ctx, uri)
}

func daily(closes ...string) string {
	dates := []string{"2024-01-03", "2024-01-02", "2024-01-01"}
	s := `{"Meta Data": {}, "Time Series (Daily)": {`
	for i, c := range closes {
		if i > 0 {
			s += ", "
		}
		s += `"` + dates[i] + `": {"4. close": "` + c + `", "5. volume": "100"}`
	}
	return s + "}}"
}

func TestWatchlist(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tr := &testTransport{bodies: map[string]string{
		"IBM":  daily("190.5", "189", "188"),
		"MSFT": daily("99.5", "400"),
		"AAPL": daily("185"),
	}}
	client := av.NewClient("key").WithTransport(tr)

	Convey("Config", t, func() {
		Convey("defaults", func() {
			var c Config
			So(c.InitMessage(testutil.JSON(`{
  "tool": "time_series_daily", "symbols": ["IBM"]}`)), ShouldBeNil)
			So(c.Rows, ShouldEqual, 1)
			So(c.Order, ShouldEqual, "descending")
			So(c.Workers, ShouldEqual, 0)
		})

		Convey("errors", func() {
			var c Config
			So(c.InitMessage(testutil.JSON(`{"tool": "foo", "symbols": ["IBM"]}`)),
				ShouldNotBeNil)
			So(c.InitMessage(testutil.JSON(`{"tool": "earnings", "symbols": []}`)),
				ShouldNotBeNil)
			So(c.InitMessage(testutil.JSON(`{"tool": "earnings"}`)), ShouldNotBeNil)
			So(c.InitMessage(testutil.JSON(`{"tool": "earnings", "symbols": ["A"],
  "params": {"symbol": "B"}}`)), ShouldNotBeNil)
			So(c.InitMessage(testutil.JSON(`{"tool": "earnings", "symbols": ["A"],
  "order": "up"}`)), ShouldNotBeNil)
			So(c.InitMessage(testutil.JSON(`{"tool": "earnings", "symbols": ["A"],
  "rows": -1}`)), ShouldNotBeNil)
		})

		Convey("duplicate symbols", func() {
			var c Config
			err := c.InitMessage(testutil.JSON(`{"tool": "earnings",
  "symbols": ["IBM", "MSFT", "IBM"]}`))
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "duplicate symbol: IBM")
		})
	})

	Convey("Cell ordering", t, func() {
		So(NewCell("9").Less(NewCell("10")), ShouldBeTrue)
		So(NewCell("b").Less(NewCell("a")), ShouldBeFalse)
		So(NewCell(nil).Less(NewCell("1")), ShouldBeTrue)
		So(NewCell("1").Less(NewCell("x")), ShouldBeFalse)
	})

	Convey("Run", t, func() {
		Convey("latest row per symbol in config order, skipping failures", func() {
			c := Config{
				Tool:    "time_series_daily",
				Params:  map[string]interface{}{"outputsize": "compact"},
				Symbols: []string{"MSFT", "NOPE", "IBM", "AAPL"},
				Rows:    1,
				Columns: []string{"date", "close"},
				Workers: 2,
			}
			f, err := Run(ctx, client, &c)
			So(err, ShouldBeNil)
			So(f.Schema.Names(), ShouldResemble, []string{"symbol", "date", "close"})
			So(f.Rows, ShouldResemble, []frame.Row{
				{"symbol": "MSFT", "date": "2024-01-03", "close": "99.5"},
				{"symbol": "IBM", "date": "2024-01-03", "close": "190.5"},
				{"symbol": "AAPL", "date": "2024-01-03", "close": "185"},
			})
		})

		Convey("sorted numerically with all rows", func() {
			c := Config{
				Tool:    "time_series_daily",
				Symbols: []string{"MSFT", "IBM"},
				Rows:    0,
				Columns: []string{"close"},
				Sort:    "close",
				Order:   "descending",
				Workers: 1,
			}
			f, err := Run(ctx, client, &c)
			So(err, ShouldBeNil)
			closes := []string{}
			for _, r := range f.Rows {
				closes = append(closes, r.Str("close"))
			}
			So(closes, ShouldResemble, []string{"400", "190.5", "189", "188", "99.5"})

			c.Order = "ascending"
			f, err = Run(ctx, client, &c)
			So(err, ShouldBeNil)
			So(f.Rows[0].Str("close"), ShouldEqual, "99.5")
		})

		Convey("all columns by default", func() {
			c := Config{Tool: "time_series_daily", Symbols: []string{"AAPL"}, Rows: 1}
			f, err := Run(ctx, client, &c)
			So(err, ShouldBeNil)
			So(len(f.Schema), ShouldEqual, 7)
			So(f.Rows[0]["volume"], ShouldEqual, "100")
			So(f.Rows[0]["open"], ShouldBeNil)
		})

		Convey("errors", func() {
			c := Config{Tool: "time_series_daily", Symbols: []string{"NOPE"}}
			_, err := Run(ctx, client, &c)
			So(err, ShouldNotBeNil)

			c = Config{Tool: "time_series_daily", Symbols: []string{"IBM"},
				Columns: []string{"price"}}
			_, err = Run(ctx, client, &c)
			So(err, ShouldNotBeNil)

			c = Config{Tool: "time_series_daily", Symbols: []string{"IBM"}, Sort: "price"}
			_, err = Run(ctx, client, &c)
			So(err, ShouldNotBeNil)
		})
	})
}
