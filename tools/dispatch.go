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
	"fmt"

	"github.com/inboard-ai/alphav/av"
	"github.com/inboard-ai/alphav/transform"
	"github.com/stockparfait/errors"
	"github.com/stockparfait/logging"
)

// call is a validated tool invocation.
type call struct {
	query     *av.Query
	transform transform.Func
}

func withOutputSize(q *av.Query, params map[string]interface{}) (*av.Query, error) {
	v, ok := params["outputsize"]
	if !ok {
		return q, nil
	}
	s, _ := v.(string)
	size, err := av.ParseOutputSize(s)
	if err != nil {
		return nil, &Error{Kind: InvalidParam, Name: "outputsize", Value: fmt.Sprint(v)}
	}
	return q.OutputSize(size), nil
}

// prepare validates the params of the tool and builds the query. It does not
// perform any I/O.
func prepare(tool string, params map[string]interface{}) (*call, error) {
	if _, ok := GetToolDetails(tool); !ok {
		return nil, &Error{Kind: UnknownTool, Name: tool}
	}
	symbol, ok := params["symbol"].(string)
	if !ok {
		return nil, &Error{Kind: MissingParam, Name: "symbol"}
	}
	switch tool {
	case TimeSeriesIntraday:
		s, ok := params["interval"].(string)
		if !ok {
			return nil, &Error{Kind: MissingParam, Name: "interval"}
		}
		interval, err := av.ParseInterval(s)
		if err != nil {
			return nil, &Error{Kind: InvalidParam, Name: "interval", Value: s}
		}
		q, err := withOutputSize(av.Intraday(symbol, interval), params)
		if err != nil {
			return nil, err
		}
		return &call{q, transform.Intraday(string(interval))}, nil
	case TimeSeriesDaily:
		q, err := withOutputSize(av.Daily(symbol), params)
		if err != nil {
			return nil, err
		}
		return &call{q, transform.Daily}, nil
	case TimeSeriesWeekly:
		return &call{av.Weekly(symbol), transform.Weekly}, nil
	case TimeSeriesMonthly:
		return &call{av.Monthly(symbol), transform.Monthly}, nil
	case CompanyOverview:
		return &call{av.CompanyOverview(symbol), transform.CompanyOverview}, nil
	case Earnings:
		return &call{av.Earnings(symbol), transform.Earnings}, nil
	case EarningsEstimates:
		q := av.EarningsEstimates(symbol)
		if h, ok := params["horizon"].(string); ok {
			q = q.Horizon(h)
		}
		return &call{q, transform.EarningsEstimates}, nil
	case IncomeStatement:
		return &call{av.IncomeStatement(symbol), transform.IncomeStatement}, nil
	case BalanceSheet:
		return &call{av.BalanceSheet(symbol), transform.BalanceSheet}, nil
	case CashFlow:
		return &call{av.CashFlow(symbol), transform.CashFlow}, nil
	}
	return nil, errors.Reason("tool %s is listed but not dispatched", tool)
}

// CallTool validates the envelope {"tool": id, "params": {...}}, calls the
// endpoint once and transforms the response into a data frame. No request is
// sent unless the envelope is valid. All failures are *Error.
func CallTool(ctx context.Context, client *av.Client, envelope interface{}) (*Result, error) {
	env, _ := envelope.(map[string]interface{})
	tool, ok := env["tool"].(string)
	if !ok {
		return nil, &Error{Kind: MissingField, Name: "tool"}
	}
	params, ok := env["params"].(map[string]interface{})
	if !ok {
		return nil, &Error{Kind: MissingField, Name: "params"}
	}
	c, err := prepare(tool, params)
	if err != nil {
		if _, ok := err.(*Error); ok {
			return nil, err
		}
		return nil, &Error{Kind: UnknownTool, Name: tool, Err: err}
	}
	if client == nil {
		return nil, &Error{Kind: UpstreamError, Name: tool, Err: errors.Reason("no client")}
	}
	resp, err := client.Get(ctx, c.query)
	if err != nil {
		return nil, &Error{Kind: UpstreamError, Name: tool, Err: err}
	}
	var js interface{}
	if err := json.Unmarshal([]byte(resp.Body), &js); err != nil {
		return nil, &Error{Kind: MalformedResponse, Name: tool, Detail: err.Error()}
	}
	f, err := c.transform(js)
	if err != nil {
		return nil, &Error{Kind: TransformError, Name: tool, Detail: err.Error(), Err: err}
	}
	logging.Debugf(ctx, "%s(%s): %d rows", tool, c.query.Symbol(), len(f.Rows))
	return NewDataFrame(f), nil
}

// Call is a convenience wrapper for CallTool with the envelope given as JSON
// text.
func Call(ctx context.Context, client *av.Client, envelope string) (*Result, error) {
	var js interface{}
	if err := json.Unmarshal([]byte(envelope), &js); err != nil {
		return nil, &Error{Kind: MissingField, Name: "tool", Detail: err.Error(), Err: err}
	}
	return CallTool(ctx, client, js)
}
