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
	"context"
	"encoding/json"
	"net/url"
	"testing"

	"github.com/inboard-ai/alphav/av"
	"github.com/inboard-ai/alphav/frame"
	"github.com/stockparfait/errors"
	"github.com/stockparfait/testutil"

	. "github.com/smartystreets/goconvey/convey"
)

type testTransport struct {
	resp  *av.Response
	err   error
	calls []string
}

func (t *testTransport) Get(ctx context.Context, uri string) (*av.Response, error) {
	t.calls = append(t.calls, uri)
	return t.resp, t.err
}

func (t *testTransport) Post(ctx context.Context, uri, body string) (*av.Response, error) {
	t.calls = append(t.calls, uri)
	return t.resp, t.err
}

func TestCatalog(t *testing.T) {
	t.Parallel()

	ids := []string{
		"time_series_intraday", "time_series_daily", "time_series_weekly",
		"time_series_monthly", "company_overview", "earnings",
		"earnings_estimates", "income_statement", "balance_sheet", "cash_flow",
	}

	Convey("ListTools lists all tools in order", t, func() {
		got := []string{}
		for _, tool := range ListTools() {
			got = append(got, tool.ID)
			So(tool.Name, ShouldNotEqual, "")
			So(tool.Description, ShouldNotEqual, "")
		}
		So(got, ShouldResemble, ids)
	})

	Convey("GetToolDetails", t, func() {
		for _, id := range ids {
			tool, ok := GetToolDetails(id)
			So(ok, ShouldBeTrue)
			So(tool.ID, ShouldEqual, id)
		}
		for _, id := range []string{"foo", "", "Earnings", "time_series_daily "} {
			_, ok := GetToolDetails(id)
			So(ok, ShouldBeFalse)
		}
		tool, _ := GetToolDetails(CashFlow)
		So(tool.Name, ShouldEqual, "Cash Flow Statement")
	})

	Convey("Descriptors are not shared", t, func() {
		tool, _ := GetToolDetails(TimeSeriesWeekly)
		tool.Schema["type"] = "array"
		tool2, _ := GetToolDetails(TimeSeriesWeekly)
		So(tool2.Schema["type"], ShouldEqual, "object")
	})

	Convey("Schemas compile and validate", t, func() {
		for _, tool := range ListTools() {
			_, err := tool.CompileSchema()
			So(err, ShouldBeNil)
		}
		So(ValidateParams(TimeSeriesIntraday,
			testutil.JSON(`{"symbol": "IBM", "interval": "5min"}`)), ShouldBeNil)
		So(ValidateParams(TimeSeriesIntraday,
			testutil.JSON(`{"symbol": "IBM"}`)), ShouldNotBeNil)
		So(ValidateParams(TimeSeriesDaily,
			testutil.JSON(`{"symbol": "IBM", "outputsize": "huge"}`)), ShouldNotBeNil)
		So(ValidateParams(EarningsEstimates,
			testutil.JSON(`{"symbol": "IBM", "horizon": "12month"}`)), ShouldBeNil)
		So(ValidateParams(EarningsEstimates,
			testutil.JSON(`{"symbol": "IBM", "horizon": "decade"}`)), ShouldNotBeNil)
		So(KindOf(ValidateParams("foo", testutil.JSON(`{}`))), ShouldEqual, UnknownTool)
	})
}

func TestCallTool(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	Convey("Validation fails before any request", t, func() {
		tr := &testTransport{resp: &av.Response{Status: 200, Body: "{}"}}
		client := av.NewClient("key").WithTransport(tr)

		check := func(envelope string, kind Kind, name string) *Error {
			_, err := Call(ctx, client, envelope)
			So(err, ShouldNotBeNil)
			e, ok := err.(*Error)
			So(ok, ShouldBeTrue)
			So(e.Kind, ShouldEqual, kind)
			So(e.Name, ShouldEqual, name)
			So(len(tr.calls), ShouldEqual, 0)
			return e
		}

		check(`{"params": {"symbol": "IBM"}}`, MissingField, "tool")
		check(`{"tool": 5, "params": {}}`, MissingField, "tool")
		check(`{"tool": "earnings"}`, MissingField, "params")
		check(`{"tool": "earnings", "params": null}`, MissingField, "params")
		check(`[]`, MissingField, "tool")
		check(`{"tool": "foo", "params": {}}`, UnknownTool, "foo")
		check(`{"tool": "Earnings", "params": {"symbol": "IBM"}}`, UnknownTool, "Earnings")
		check(`{"tool": "earnings", "params": {}}`, MissingParam, "symbol")
		check(`{"tool": "earnings", "params": {"symbol": 1}}`, MissingParam, "symbol")
		check(`{"tool": "time_series_intraday", "params": {"interval": "5min"}}`,
			MissingParam, "symbol")
		check(`{"tool": "time_series_intraday", "params": {"symbol": "IBM"}}`,
			MissingParam, "interval")
		e := check(`{"tool": "time_series_intraday", "params": {"symbol": "IBM", "interval": "2min"}}`,
			InvalidParam, "interval")
		So(e.Value, ShouldEqual, "2min")
		So(e.Error(), ShouldEqual, "invalid interval: 2min")
		e = check(`{"tool": "time_series_daily", "params": {"symbol": "IBM", "outputsize": "big"}}`,
			InvalidParam, "outputsize")
		So(e.Value, ShouldEqual, "big")
		check(`{"tool": "time_series_intraday", "params": {"symbol": "IBM", "interval": "5min", "outputsize": 100}}`,
			InvalidParam, "outputsize")
	})

	Convey("Envelope text that is not JSON has no tool", t, func() {
		tr := &testTransport{resp: &av.Response{Status: 200, Body: "{}"}}
		_, err := Call(ctx, av.NewClient("key").WithTransport(tr), `{"tool": `)
		So(KindOf(err), ShouldEqual, MissingField)
		So(err.(*Error).Name, ShouldEqual, "tool")
		So(len(tr.calls), ShouldEqual, 0)
	})

	Convey("Missing API key fails without a request", t, func() {
		tr := &testTransport{resp: &av.Response{Status: 200, Body: "{}"}}
		_, err := Call(ctx, av.NewClient("").WithTransport(tr),
			`{"tool": "earnings", "params": {"symbol": "IBM"}}`)
		So(KindOf(err), ShouldEqual, UpstreamError)
		So(err.Error(), ShouldContainSubstring, "API key")
		So(len(tr.calls), ShouldEqual, 0)

		_, err = Call(ctx, nil, `{"tool": "earnings", "params": {"symbol": "IBM"}}`)
		So(KindOf(err), ShouldEqual, UpstreamError)
		So(err.(*Error).Name, ShouldEqual, "earnings")
	})

	Convey("Upstream failures", t, func() {
		Convey("non-2xx status", func() {
			tr := &testTransport{resp: &av.Response{Status: 500, Body: "oops", RequestID: "r42"}}
			_, err := Call(ctx, av.NewClient("key").WithTransport(tr),
				`{"tool": "cash_flow", "params": {"symbol": "IBM"}}`)
			So(KindOf(err), ShouldEqual, UpstreamError)
			ue := err.(*Error).Upstream()
			So(ue, ShouldNotBeNil)
			So(ue.Status, ShouldEqual, 500)
			So(ue.Body, ShouldEqual, "oops")
			So(ue.RequestID, ShouldEqual, "r42")
			So(len(tr.calls), ShouldEqual, 1)
		})

		Convey("transport error", func() {
			tr := &testTransport{err: errors.Reason("no route to host")}
			_, err := Call(ctx, av.NewClient("key").WithTransport(tr),
				`{"tool": "cash_flow", "params": {"symbol": "IBM"}}`)
			So(KindOf(err), ShouldEqual, UpstreamError)
			So(err.Error(), ShouldContainSubstring, "no route to host")
		})

		Convey("malformed JSON", func() {
			tr := &testTransport{resp: &av.Response{Status: 200, Body: "<html>"}}
			_, err := Call(ctx, av.NewClient("key").WithTransport(tr),
				`{"tool": "earnings", "params": {"symbol": "IBM"}}`)
			So(KindOf(err), ShouldEqual, MalformedResponse)
		})

		Convey("missing time series block", func() {
			tr := &testTransport{resp: &av.Response{
				Status: 200, Body: `{"Information": "rate limit"}`}}
			_, err := Call(ctx, av.NewClient("key").WithTransport(tr),
				`{"tool": "time_series_daily", "params": {"symbol": "IBM"}}`)
			So(KindOf(err), ShouldEqual, TransformError)
			So(err.Error(), ShouldContainSubstring, "Time Series (Daily)")
		})
	})

	Convey("Successful calls", t, func() {
		server := testutil.NewTestServer()
		defer server.Close()
		client := av.NewClient("testkey").
			WithBaseURL(server.URL()).
			WithTransport(&av.HTTPTransport{Client: server.Client()})

		Convey("intraday", func() {
			server.ResponseBody = []string{`{
  "Meta Data": {"2. Symbol": "IBM"},
  "Time Series (5min)": {
    "2024-01-02 09:25:00": {"1. open": "1", "2. high": "1", "3. low": "1", "4. close": "1", "5. volume": "10"},
    "2024-01-02 09:30:00": {"1. open": "1.0", "2. high": "2.0", "3. low": "0.5", "4. close": "1.5", "5. volume": "100"}
  }
}`}
			res, err := Call(ctx, client, `{"tool": "time_series_intraday",
  "params": {"symbol": "IBM", "interval": "5min", "outputsize": "full"}}`)
			So(err, ShouldBeNil)
			So(res.Kind, ShouldEqual, KindDataFrame)
			So(server.RequestPath, ShouldEqual, "/query")
			So(server.RequestQuery.Get("function"), ShouldEqual, "TIME_SERIES_INTRADAY")
			So(server.RequestQuery.Get("interval"), ShouldEqual, "5min")
			So(server.RequestQuery.Get("outputsize"), ShouldEqual, "full")
			So(server.RequestQuery.Get("apikey"), ShouldEqual, "testkey")
			So(len(res.Data), ShouldEqual, 2)
			So(res.Data[0].(map[string]interface{})["timestamp"], ShouldEqual, "2024-01-02 09:30:00")
			So(res.Schema.Names(), ShouldResemble, []string{
				"timestamp", "open", "high", "low", "close", "volume"})
			So(res.Metadata["2. Symbol"], ShouldEqual, "IBM")

			f := res.Frame()
			So(len(f.Rows), ShouldEqual, 2)
			So(f.Rows[1]["volume"], ShouldEqual, "10")
		})

		Convey("earnings estimates with horizon", func() {
			server.ResponseBody = []string{`{"symbol": "X", "estimates": []}`}
			res, err := CallTool(ctx, client, testutil.JSON(`{"tool": "earnings_estimates",
  "params": {"symbol": "X", "horizon": "3month"}}`))
			So(err, ShouldBeNil)
			So(server.RequestQuery.Get("function"), ShouldEqual, "EARNINGS_ESTIMATES")
			So(server.RequestQuery.Get("horizon"), ShouldEqual, "3month")
			So(len(res.Data), ShouldEqual, 0)
			So(res.Metadata, ShouldResemble, map[string]interface{}{"symbol": "X"})

			b, err := json.Marshal(res)
			So(err, ShouldBeNil)
			So(testutil.JSON(string(b)), ShouldResemble, testutil.JSON(`{
  "type": "dataframe",
  "data": [],
  "schema": [
    {"name": "date", "alias": "Date", "dtype": "string"},
    {"name": "horizon", "alias": "Horizon", "dtype": "string"},
    {"name": "eps_estimate_average", "alias": "EPS Avg", "dtype": "number"},
    {"name": "eps_estimate_high", "alias": "EPS High", "dtype": "number"},
    {"name": "eps_estimate_low", "alias": "EPS Low", "dtype": "number"},
    {"name": "eps_estimate_analyst_count", "alias": "EPS Analysts", "dtype": "number"},
    {"name": "revenue_estimate_average", "alias": "Revenue Avg", "dtype": "number"},
    {"name": "revenue_estimate_high", "alias": "Revenue High", "dtype": "number"},
    {"name": "revenue_estimate_low", "alias": "Revenue Low", "dtype": "number"},
    {"name": "revenue_estimate_analyst_count", "alias": "Revenue Analysts", "dtype": "number"}
  ],
  "metadata": {"symbol": "X"}
}`))
		})
	})

	Convey("Each tool reaches its endpoint", t, func() {
		functions := map[string]string{
			TimeSeriesWeekly:  "TIME_SERIES_WEEKLY",
			TimeSeriesMonthly: "TIME_SERIES_MONTHLY",
			CompanyOverview:   "OVERVIEW",
			Earnings:          "EARNINGS",
			IncomeStatement:   "INCOME_STATEMENT",
			BalanceSheet:      "BALANCE_SHEET",
			CashFlow:          "CASH_FLOW",
		}
		bodies := map[string]string{
			TimeSeriesWeekly:  `{"Weekly Time Series": {}}`,
			TimeSeriesMonthly: `{"Monthly Time Series": {}}`,
		}
		for tool, fn := range functions {
			body, ok := bodies[tool]
			if !ok {
				body = `{"symbol": "IBM"}`
			}
			tr := &testTransport{resp: &av.Response{Status: 200, Body: body}}
			res, err := CallTool(ctx, av.NewClient("key").WithTransport(tr),
				map[string]interface{}{
					"tool": tool, "params": map[string]interface{}{"symbol": "IBM"}})
			So(err, ShouldBeNil)
			So(len(tr.calls), ShouldEqual, 1)
			u, err := url.Parse(tr.calls[0])
			So(err, ShouldBeNil)
			So(u.Query().Get("function"), ShouldEqual, fn)
			So(u.Query().Get("symbol"), ShouldEqual, "IBM")
			So(res.Frame().Schema.Validate(), ShouldBeNil)
		}
	})

	Convey("Text results", t, func() {
		res := NewText("hello")
		So(res.Frame(), ShouldBeNil)
		b, err := json.Marshal(res)
		So(err, ShouldBeNil)
		So(string(b), ShouldEqual, `{"type":"text","text":"hello"}`)
		So(NewDataFrame(frame.New(frame.Schema{})).Kind, ShouldEqual, KindDataFrame)
	})
}
