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

package transform

import (
	"github.com/inboard-ai/alphav/frame"
)

var ohlcv = []field{
	{Src: "1. open", Name: "open", Alias: "Open", Type: frame.Number},
	{Src: "2. high", Name: "high", Alias: "High", Type: frame.Number},
	{Src: "3. low", Name: "low", Alias: "Low", Type: frame.Number},
	{Src: "4. close", Name: "close", Alias: "Close", Type: frame.Number},
	{Src: "5. volume", Name: "volume", Alias: "Volume", Type: frame.Number},
}

func timeSeriesSchema(dateColumn, alias string) frame.Schema {
	return append(
		frame.Schema{{Name: dateColumn, Alias: alias, Type: frame.String}},
		columns(ohlcv)...)
}

// timeSeries transforms the object under block, keyed by date or timestamp,
// into rows sorted most recent first.
func timeSeries(js interface{}, block, dateColumn, alias string) (*frame.Frame, error) {
	m, err := asObject(js)
	if err != nil {
		return nil, err
	}
	series, ok := m[block].(map[string]interface{})
	if !ok {
		return nil, missingKey(block)
	}
	f := frame.New(timeSeriesSchema(dateColumn, alias))
	if meta, ok := m["Meta Data"].(map[string]interface{}); ok {
		f.Metadata = meta
	}
	for date, entry := range series {
		row := frame.Row{dateColumn: date}
		copyFields(row, entry, ohlcv)
		f.AddRow(row)
	}
	frame.SortDescending(f.Rows, dateColumn)
	return f, nil
}

// IntradayBlock is the response key of the intraday series for the interval.
func IntradayBlock(interval string) string {
	return "Time Series (" + interval + ")"
}

// Intraday creates the transformer for intraday series at the given interval.
func Intraday(interval string) Func {
	block := IntradayBlock(interval)
	return func(js interface{}) (*frame.Frame, error) {
		return timeSeries(js, block, "timestamp", "Timestamp")
	}
}

// Daily time series.
func Daily(js interface{}) (*frame.Frame, error) {
	return timeSeries(js, "Time Series (Daily)", "date", "Date")
}

// Weekly time series.
func Weekly(js interface{}) (*frame.Frame, error) {
	return timeSeries(js, "Weekly Time Series", "week_ending", "Week Ending")
}

// Monthly time series.
func Monthly(js interface{}) (*frame.Frame, error) {
	return timeSeries(js, "Monthly Time Series", "month", "Month")
}
