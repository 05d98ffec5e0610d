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

package av

import (
	"net/url"

	"github.com/stockparfait/errors"
)

// Function is the endpoint code passed as the "function" query parameter.
type Function string

// Values for Function.
const (
	FuncIntraday          Function = "TIME_SERIES_INTRADAY"
	FuncDaily             Function = "TIME_SERIES_DAILY"
	FuncWeekly            Function = "TIME_SERIES_WEEKLY"
	FuncMonthly           Function = "TIME_SERIES_MONTHLY"
	FuncOverview          Function = "OVERVIEW"
	FuncEarnings          Function = "EARNINGS"
	FuncEarningsEstimates Function = "EARNINGS_ESTIMATES"
	FuncIncomeStatement   Function = "INCOME_STATEMENT"
	FuncBalanceSheet      Function = "BALANCE_SHEET"
	FuncCashFlow          Function = "CASH_FLOW"
	FuncGlobalQuote       Function = "GLOBAL_QUOTE"
)

// Interval between intraday data points.
type Interval string

// Values for Interval.
const (
	OneMin     Interval = "1min"
	FiveMin    Interval = "5min"
	FifteenMin Interval = "15min"
	ThirtyMin  Interval = "30min"
	SixtyMin   Interval = "60min"
)

// Intervals lists all the valid intervals.
var Intervals = []Interval{OneMin, FiveMin, FifteenMin, ThirtyMin, SixtyMin}

// ParseInterval accepts exactly one of the canonical interval tokens.
func ParseInterval(s string) (Interval, error) {
	for _, i := range Intervals {
		if string(i) == s {
			return i, nil
		}
	}
	return "", errors.Reason("invalid interval: %s", s)
}

// OutputSize of time series: compact is the latest 100 data points, full is
// the entire history.
type OutputSize string

// Values for OutputSize.
const (
	Compact OutputSize = "compact"
	Full    OutputSize = "full"
)

// ParseOutputSize accepts "compact" or "full".
func ParseOutputSize(s string) (OutputSize, error) {
	switch OutputSize(s) {
	case Compact, Full:
		return OutputSize(s), nil
	}
	return "", errors.Reason("invalid output size: %s", s)
}

// DataType is the response format.
type DataType string

// Values for DataType.
const (
	JSON DataType = "json"
	CSV  DataType = "csv"
)

// Query is a builder for a single endpoint request.
type Query struct {
	function Function
	symbol   string
	params   [][2]string // optional parameters in the order of addition
}

// NewQuery creates a new query for the endpoint and symbol.
func NewQuery(function Function, symbol string) *Query {
	return &Query{function: function, symbol: symbol}
}

// Copy creates a deep copy of the query. It is primarily used in its builder
// methods.
func (q *Query) Copy() *Query {
	q2 := Query{function: q.function, symbol: q.symbol}
	q2.params = make([][2]string, len(q.params))
	copy(q2.params, q.params)
	return &q2
}

// Function of the query.
func (q *Query) Function() Function { return q.function }

// Symbol of the query.
func (q *Query) Symbol() string { return q.symbol }

// Param sets an arbitrary query parameter, replacing an earlier value of the
// same key. This and other builder methods always create a deep copy of the
// query, leaving the original intact.
func (q *Query) Param(key, value string) *Query {
	q2 := q.Copy()
	for i, p := range q2.params {
		if p[0] == key {
			q2.params[i][1] = value
			return q2
		}
	}
	q2.params = append(q2.params, [2]string{key, value})
	return q2
}

// Interval of intraday data points.
func (q *Query) Interval(i Interval) *Query {
	return q.Param("interval", string(i))
}

// OutputSize of time series.
func (q *Query) OutputSize(s OutputSize) *Query {
	return q.Param("outputsize", string(s))
}

// DataType of the response.
func (q *Query) DataType(t DataType) *Query {
	return q.Param("datatype", string(t))
}

// Horizon of earnings estimates, passed through as is.
func (q *Query) Horizon(h string) *Query {
	return q.Param("horizon", h)
}

// Values converts the query into URL values, excluding the API key.
func (q *Query) Values() url.Values {
	v := make(url.Values)
	v.Set("function", string(q.function))
	if q.symbol != "" {
		v.Set("symbol", q.symbol)
	}
	for _, p := range q.params {
		v.Set(p[0], p[1])
	}
	return v
}

// Intraday time series.
func Intraday(symbol string, interval Interval) *Query {
	return NewQuery(FuncIntraday, symbol).Interval(interval)
}

// Daily time series.
func Daily(symbol string) *Query { return NewQuery(FuncDaily, symbol) }

// Weekly time series.
func Weekly(symbol string) *Query { return NewQuery(FuncWeekly, symbol) }

// Monthly time series.
func Monthly(symbol string) *Query { return NewQuery(FuncMonthly, symbol) }

// CompanyOverview of fundamentals and ratios.
func CompanyOverview(symbol string) *Query { return NewQuery(FuncOverview, symbol) }

// Earnings history, annual and quarterly.
func Earnings(symbol string) *Query { return NewQuery(FuncEarnings, symbol) }

// EarningsEstimates by analysts.
func EarningsEstimates(symbol string) *Query {
	return NewQuery(FuncEarningsEstimates, symbol)
}

// IncomeStatement reports, annual and quarterly.
func IncomeStatement(symbol string) *Query {
	return NewQuery(FuncIncomeStatement, symbol)
}

// BalanceSheet reports, annual and quarterly.
func BalanceSheet(symbol string) *Query {
	return NewQuery(FuncBalanceSheet, symbol)
}

// CashFlow reports, annual and quarterly.
func CashFlow(symbol string) *Query { return NewQuery(FuncCashFlow, symbol) }

// GlobalQuote is the latest price and volume of a symbol.
func GlobalQuote(symbol string) *Query { return NewQuery(FuncGlobalQuote, symbol) }
