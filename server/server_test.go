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

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/inboard-ai/alphav/av"
	"github.com/stockparfait/errors"
	"github.com/stockparfait/logging"
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

func serve(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func TestServer(t *testing.T) {
	t.Parallel()

	Convey("Server", t, func() {
		tr := &testTransport{resp: &av.Response{Status: 200, Body: `{
  "Meta Data": {"2. Symbol": "IBM"},
  "Time Series (Daily)": {
    "2024-01-02": {"1. open": "1", "4. close": "2", "5. volume": "3"}
  }
}`}}
		s := New(av.NewClient("key").WithTransport(tr), Options{LogLevel: logging.Warning})

		Convey("health", func() {
			w := serve(s, http.MethodGet, "/health", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(testutil.JSON(w.Body.String()), ShouldResemble, testutil.JSON(`{"status": "ok"}`))
		})

		Convey("lists tools", func() {
			w := serve(s, http.MethodGet, "/tools", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var tools []map[string]interface{}
			So(json.Unmarshal(w.Body.Bytes(), &tools), ShouldBeNil)
			So(len(tools), ShouldEqual, 10)
			So(tools[0]["id"], ShouldEqual, "time_series_intraday")
		})

		Convey("describes a tool", func() {
			w := serve(s, http.MethodGet, "/tools/earnings", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var tool map[string]interface{}
			So(json.Unmarshal(w.Body.Bytes(), &tool), ShouldBeNil)
			So(tool["id"], ShouldEqual, "earnings")
			So(tool["schema"], ShouldNotBeNil)

			w = serve(s, http.MethodGet, "/tools/foo", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(w.Body.String(), ShouldContainSubstring, "unknown tool: foo")
		})

		Convey("validates params", func() {
			w := serve(s, http.MethodPost, "/tools/time_series_daily/validate",
				`{"symbol": "IBM"}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(testutil.JSON(w.Body.String()), ShouldResemble, testutil.JSON(`{"valid": true}`))

			w = serve(s, http.MethodPost, "/tools/time_series_daily/validate", `{}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"valid":false`)

			w = serve(s, http.MethodPost, "/tools/time_series_daily/validate", `{`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)

			w = serve(s, http.MethodPost, "/tools/foo/validate", `{}`)
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(len(tr.calls), ShouldEqual, 0)
		})

		Convey("calls a tool", func() {
			w := serve(s, http.MethodPost, "/call",
				`{"tool": "time_series_daily", "params": {"symbol": "IBM"}}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(len(tr.calls), ShouldEqual, 1)
			var res map[string]interface{}
			So(json.Unmarshal(w.Body.Bytes(), &res), ShouldBeNil)
			So(res["type"], ShouldEqual, "dataframe")
			So(res["data"], ShouldResemble, []interface{}{
				map[string]interface{}{
					"date": "2024-01-02", "open": "1", "high": nil, "low": nil,
					"close": "2", "volume": "3",
				},
			})
		})

		Convey("invalid calls are bad requests", func() {
			for _, body := range []string{
				`{`,
				`{"params": {}}`,
				`{"tool": "time_series_daily", "params": {}}`,
				`{"tool": "time_series_intraday", "params": {"symbol": "IBM", "interval": "2min"}}`,
				`{"tool": "foo", "params": {"symbol": "IBM"}}`,
			} {
				w := serve(s, http.MethodPost, "/call", body)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			}
			So(len(tr.calls), ShouldEqual, 0)
		})

		Convey("upstream failures are bad gateway", func() {
			tr.resp = &av.Response{Status: 503, Body: "busy", RequestID: "req-1"}
			w := serve(s, http.MethodPost, "/call",
				`{"tool": "earnings", "params": {"symbol": "IBM"}}`)
			So(w.Code, ShouldEqual, http.StatusBadGateway)
			var res map[string]map[string]interface{}
			So(json.Unmarshal(w.Body.Bytes(), &res), ShouldBeNil)
			So(res["error"]["kind"], ShouldEqual, "upstream error")
			So(res["error"]["upstream_status"], ShouldEqual, float64(503))
			So(res["error"]["request_id"], ShouldEqual, "req-1")

			tr.resp = &av.Response{Status: 200, Body: "not json"}
			w = serve(s, http.MethodPost, "/call",
				`{"tool": "earnings", "params": {"symbol": "IBM"}}`)
			So(w.Code, ShouldEqual, http.StatusBadGateway)
			So(w.Body.String(), ShouldContainSubstring, "malformed response")

			tr.resp = &av.Response{Status: 200, Body: `{"Information": "rate limit"}`}
			w = serve(s, http.MethodPost, "/call",
				`{"tool": "time_series_daily", "params": {"symbol": "IBM"}}`)
			So(w.Code, ShouldEqual, http.StatusBadGateway)
			So(w.Body.String(), ShouldContainSubstring, "transform error")

			tr.resp, tr.err = nil, errors.Reason("connection refused")
			w = serve(s, http.MethodPost, "/call",
				`{"tool": "earnings", "params": {"symbol": "IBM"}}`)
			So(w.Code, ShouldEqual, http.StatusBadGateway)
			So(w.Body.String(), ShouldContainSubstring, "connection refused")
		})

		Convey("exports metrics", func() {
			serve(s, http.MethodPost, "/call",
				`{"tool": "time_series_daily", "params": {"symbol": "IBM"}}`)
			serve(s, http.MethodPost, "/call",
				`{"tool": "time_series_daily", "params": {}}`)
			serve(s, http.MethodPost, "/call",
				`{"tool": "foo", "params": {}}`)
			w := serve(s, http.MethodGet, "/metrics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			body := w.Body.String()
			So(body, ShouldContainSubstring,
				`alphav_tool_calls_total{outcome="ok",tool="time_series_daily"} 1`)
			So(body, ShouldContainSubstring,
				`alphav_tool_calls_total{outcome="missing_parameter",tool="time_series_daily"} 1`)
			So(body, ShouldContainSubstring,
				`alphav_tool_calls_total{outcome="unknown_tool",tool="unknown"} 1`)
			So(body, ShouldContainSubstring,
				`alphav_tool_call_duration_seconds_count{tool="time_series_daily"} 2`)
		})
	})

	Convey("StatusOf", t, func() {
		So(StatusOf(errors.Reason("other")), ShouldEqual, http.StatusInternalServerError)
	})
}
