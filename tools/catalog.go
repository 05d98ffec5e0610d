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

// Package tools exposes the Alpha Vantage endpoints as a fixed catalog of
// tools invoked with a generic JSON envelope {"tool": id, "params": {...}}.
// Results are normalized into frames by the transform package.
package tools

import (
	"bytes"
	"encoding/json"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stockparfait/errors"
)

// Tool IDs.
const (
	TimeSeriesIntraday = "time_series_intraday"
	TimeSeriesDaily    = "time_series_daily"
	TimeSeriesWeekly   = "time_series_weekly"
	TimeSeriesMonthly  = "time_series_monthly"
	CompanyOverview    = "company_overview"
	Earnings           = "earnings"
	EarningsEstimates  = "earnings_estimates"
	IncomeStatement    = "income_statement"
	BalanceSheet       = "balance_sheet"
	CashFlow           = "cash_flow"
)

// ToolInfo describes a tool for discovery.
type ToolInfo struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Schema      map[string]interface{} `json:"schema"` // JSON Schema of the params
}

type props = map[string]interface{}

func paramsSchema(properties props, required ...string) map[string]interface{} {
	p := props{
		"symbol": props{
			"type":        "string",
			"description": "Stock symbol (e.g., 'AAPL')",
		},
	}
	for k, v := range properties {
		p[k] = v
	}
	req := []interface{}{"symbol"}
	for _, r := range required {
		req = append(req, r)
	}
	return map[string]interface{}{
		"type":       "object",
		"properties": p,
		"required":   req,
	}
}

func outputSizeProp() props {
	return props{
		"type":        "string",
		"enum":        []interface{}{"compact", "full"},
		"default":     "compact",
		"description": "Compact returns last 100 data points, full returns all",
	}
}

// ListTools returns the descriptors of all the tools in a fixed order: the
// time series first, then the fundamentals. Each call returns fresh values.
func ListTools() []ToolInfo {
	return []ToolInfo{
		{
			ID:          TimeSeriesIntraday,
			Name:        "Intraday Time Series",
			Description: "Get intraday time series data with specified intervals",
			Schema: paramsSchema(props{
				"interval": props{
					"type":        "string",
					"enum":        []interface{}{"1min", "5min", "15min", "30min", "60min"},
					"description": "Time interval between data points",
				},
				"outputsize": outputSizeProp(),
			}, "interval"),
		},
		{
			ID:          TimeSeriesDaily,
			Name:        "Daily Time Series",
			Description: "Get daily time series data (open, high, low, close, volume)",
			Schema:      paramsSchema(props{"outputsize": outputSizeProp()}),
		},
		{
			ID:          TimeSeriesWeekly,
			Name:        "Weekly Time Series",
			Description: "Get weekly time series data",
			Schema:      paramsSchema(nil),
		},
		{
			ID:          TimeSeriesMonthly,
			Name:        "Monthly Time Series",
			Description: "Get monthly time series data",
			Schema:      paramsSchema(nil),
		},
		{
			ID:   CompanyOverview,
			Name: "Company Overview",
			Description: "Get comprehensive company information including financials, " +
				"ratios, and key metrics",
			Schema: paramsSchema(nil),
		},
		{
			ID:          Earnings,
			Name:        "Earnings",
			Description: "Get quarterly and annual earnings data",
			Schema:      paramsSchema(nil),
		},
		{
			ID:          EarningsEstimates,
			Name:        "Earnings Estimates",
			Description: "Get analysts' earnings estimates and consensus data",
			Schema: paramsSchema(props{
				"horizon": props{
					"type":        "string",
					"enum":        []interface{}{"3month", "6month", "12month", "all"},
					"default":     "all",
					"description": "Time horizon for estimates",
				},
			}),
		},
		{
			ID:          IncomeStatement,
			Name:        "Income Statement",
			Description: "Get annual and quarterly income statements",
			Schema:      paramsSchema(nil),
		},
		{
			ID:          BalanceSheet,
			Name:        "Balance Sheet",
			Description: "Get annual and quarterly balance sheet data",
			Schema:      paramsSchema(nil),
		},
		{
			ID:          CashFlow,
			Name:        "Cash Flow Statement",
			Description: "Get annual and quarterly cash flow data",
			Schema:      paramsSchema(nil),
		},
	}
}

// GetToolDetails looks up the tool by its ID.
func GetToolDetails(id string) (*ToolInfo, bool) {
	for _, t := range ListTools() {
		if t.ID == id {
			t := t
			return &t, true
		}
	}
	return nil, false
}

// CompileSchema compiles the params schema of the tool as JSON Schema draft 7.
func (t *ToolInfo) CompileSchema() (*jsonschema.Schema, error) {
	b, err := json.Marshal(t.Schema)
	if err != nil {
		return nil, errors.Annotate(err, "failed to marshal schema of %s", t.ID)
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7
	res := t.ID + ".json"
	if err := compiler.AddResource(res, bytes.NewReader(b)); err != nil {
		return nil, errors.Annotate(err, "failed to add schema of %s", t.ID)
	}
	s, err := compiler.Compile(res)
	if err != nil {
		return nil, errors.Annotate(err, "failed to compile schema of %s", t.ID)
	}
	return s, nil
}

// ValidateParams checks params against the declared schema of the tool. This
// is stricter than CallTool, which, for instance, passes any horizon through.
func ValidateParams(id string, params interface{}) error {
	t, ok := GetToolDetails(id)
	if !ok {
		return &Error{Kind: UnknownTool, Name: id}
	}
	s, err := t.CompileSchema()
	if err != nil {
		return err
	}
	if err := s.Validate(params); err != nil {
		return errors.Annotate(err, "invalid params for %s", id)
	}
	return nil
}
