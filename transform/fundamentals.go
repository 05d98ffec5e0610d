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

var overviewSchema = frame.Schema{
	{Name: "Symbol", Alias: "Symbol", Type: frame.String},
	{Name: "AssetType", Alias: "Asset Type", Type: frame.String},
	{Name: "Name", Alias: "Name", Type: frame.String},
	{Name: "Exchange", Alias: "Exchange", Type: frame.String},
	{Name: "Currency", Alias: "Currency", Type: frame.String},
	{Name: "Country", Alias: "Country", Type: frame.String},
	{Name: "Sector", Alias: "Sector", Type: frame.String},
	{Name: "Industry", Alias: "Industry", Type: frame.String},
	{Name: "MarketCapitalization", Alias: "Market Cap", Type: frame.Number},
	{Name: "EBITDA", Alias: "EBITDA", Type: frame.Number},
	{Name: "PERatio", Alias: "P/E", Type: frame.Number},
	{Name: "PEGRatio", Alias: "PEG", Type: frame.Number},
	{Name: "BookValue", Alias: "Book Value", Type: frame.Number},
	{Name: "DividendPerShare", Alias: "Dividend/Share", Type: frame.Number},
	{Name: "DividendYield", Alias: "Dividend Yield", Type: frame.Number},
	{Name: "EPS", Alias: "EPS", Type: frame.Number},
	{Name: "RevenueTTM", Alias: "Revenue TTM", Type: frame.Number},
	{Name: "ProfitMargin", Alias: "Profit Margin", Type: frame.Number},
	{Name: "52WeekHigh", Alias: "52W High", Type: frame.Number},
	{Name: "52WeekLow", Alias: "52W Low", Type: frame.Number},
	{Name: "Beta", Alias: "Beta", Type: frame.Number},
	{Name: "AnalystTargetPrice", Alias: "Target Price", Type: frame.Number},
}

// CompanyOverview is a single row with all the fields of the flat response
// object. Only the well-known fields are described by the schema.
func CompanyOverview(js interface{}) (*frame.Frame, error) {
	m, err := asObject(js)
	if err != nil {
		return nil, err
	}
	row := make(frame.Row, len(m))
	for k, v := range m {
		row[k] = v
	}
	for _, c := range overviewSchema {
		if _, ok := row[c.Name]; !ok {
			row[c.Name] = nil
		}
	}
	f := frame.New(overviewSchema)
	f.AddRow(row)
	return f, nil
}

// Report period types.
const (
	Annual    = "annual"
	Quarterly = "quarterly"
)

var periodColumn = frame.Column{Name: "period_type", Alias: "Period", Type: frame.String}

var annualEarnings = []field{
	{Src: "fiscalDateEnding", Name: "fiscal_date_ending", Alias: "Fiscal Date Ending", Type: frame.String},
	{Src: "reportedEPS", Name: "reported_eps", Alias: "Reported EPS", Type: frame.Number},
}

var quarterlyEarnings = append(annualEarnings[:len(annualEarnings):len(annualEarnings)],
	field{Src: "reportedDate", Name: "reported_date", Alias: "Reported Date", Type: frame.String},
	field{Src: "estimatedEPS", Name: "estimated_eps", Alias: "Estimated EPS", Type: frame.Number},
	field{Src: "surprise", Name: "surprise", Alias: "Surprise", Type: frame.Number},
	field{Src: "surprisePercentage", Name: "surprise_percentage", Alias: "Surprise %", Type: frame.Number},
)

// periodRows converts the entries of the vendor array into rows tagged with
// the period type. Fields in all but not in fields are set to null.
func periodRows(entries []interface{}, period string, fields, all []field) []frame.Row {
	rows := make([]frame.Row, 0, len(entries))
	for _, e := range entries {
		row := frame.Row{periodColumn.Name: period}
		for _, f := range all {
			row[f.Name] = nil
		}
		copyFields(row, e, fields)
		rows = append(rows, row)
	}
	return rows
}

// Earnings merges annual and quarterly reported earnings, most recent first.
// Either section may be absent.
func Earnings(js interface{}) (*frame.Frame, error) {
	m, err := asObject(js)
	if err != nil {
		return nil, err
	}
	f := frame.New(append(frame.Schema{periodColumn}, columns(quarterlyEarnings)...))
	f.Metadata = symbolMetadata(m)
	f.AddRow(periodRows(asArray(m, "annualEarnings"), Annual, annualEarnings, quarterlyEarnings)...)
	f.AddRow(periodRows(asArray(m, "quarterlyEarnings"), Quarterly, quarterlyEarnings, quarterlyEarnings)...)
	frame.SortDescending(f.Rows, "fiscal_date_ending")
	return f, nil
}

var estimateFields = []field{
	{Src: "date", Name: "date", Alias: "Date", Type: frame.String},
	{Src: "horizon", Name: "horizon", Alias: "Horizon", Type: frame.String},
	{Src: "eps_estimate_average", Name: "eps_estimate_average", Alias: "EPS Avg", Type: frame.Number},
	{Src: "eps_estimate_high", Name: "eps_estimate_high", Alias: "EPS High", Type: frame.Number},
	{Src: "eps_estimate_low", Name: "eps_estimate_low", Alias: "EPS Low", Type: frame.Number},
	{Src: "eps_estimate_analyst_count", Name: "eps_estimate_analyst_count", Alias: "EPS Analysts", Type: frame.Number},
	{Src: "revenue_estimate_average", Name: "revenue_estimate_average", Alias: "Revenue Avg", Type: frame.Number},
	{Src: "revenue_estimate_high", Name: "revenue_estimate_high", Alias: "Revenue High", Type: frame.Number},
	{Src: "revenue_estimate_low", Name: "revenue_estimate_low", Alias: "Revenue Low", Type: frame.Number},
	{Src: "revenue_estimate_analyst_count", Name: "revenue_estimate_analyst_count", Alias: "Revenue Analysts", Type: frame.Number},
}

// EarningsEstimates lists analyst estimates, most recent date first. A
// response without estimates yields an empty frame.
func EarningsEstimates(js interface{}) (*frame.Frame, error) {
	m, err := asObject(js)
	if err != nil {
		return nil, err
	}
	f := frame.New(columns(estimateFields))
	f.Metadata = symbolMetadata(m)
	for _, e := range asArray(m, "estimates") {
		row := make(frame.Row, len(estimateFields))
		copyFields(row, e, estimateFields)
		f.AddRow(row)
	}
	frame.SortDescending(f.Rows, "date")
	return f, nil
}

func reportField(src, name, alias string, tp frame.Type) field {
	return field{Src: src, Name: name, Alias: alias, Type: tp}
}

var (
	fiscalDate = reportField("fiscalDateEnding", "fiscal_date_ending", "Fiscal Date Ending", frame.String)
	currency   = reportField("reportedCurrency", "reported_currency", "Currency", frame.String)
)

var incomeFields = []field{
	fiscalDate,
	currency,
	reportField("totalRevenue", "total_revenue", "Total Revenue", frame.Number),
	reportField("grossProfit", "gross_profit", "Gross Profit", frame.Number),
	reportField("costOfRevenue", "cost_of_revenue", "Cost of Revenue", frame.Number),
	reportField("operatingIncome", "operating_income", "Operating Income", frame.Number),
	reportField("netIncome", "net_income", "Net Income", frame.Number),
	reportField("ebitda", "ebitda", "EBITDA", frame.Number),
	reportField("ebit", "ebit", "EBIT", frame.Number),
}

var balanceFields = []field{
	fiscalDate,
	currency,
	reportField("totalAssets", "total_assets", "Total Assets", frame.Number),
	reportField("totalCurrentAssets", "total_current_assets", "Current Assets", frame.Number),
	reportField("totalLiabilities", "total_liabilities", "Total Liabilities", frame.Number),
	reportField("totalCurrentLiabilities", "total_current_liabilities", "Current Liabilities", frame.Number),
	reportField("totalShareholderEquity", "total_shareholder_equity", "Shareholder Equity", frame.Number),
	reportField("cashAndCashEquivalentsAtCarryingValue", "cash_and_equivalents", "Cash & Equivalents", frame.Number),
}

var cashFlowFields = []field{
	fiscalDate,
	currency,
	reportField("operatingCashflow", "operating_cashflow", "Operating Cash Flow", frame.Number),
	reportField("capitalExpenditures", "capital_expenditures", "CapEx", frame.Number),
	reportField("cashflowFromInvestment", "cashflow_from_investment", "Investing Cash Flow", frame.Number),
	reportField("cashflowFromFinancing", "cashflow_from_financing", "Financing Cash Flow", frame.Number),
	reportField("netIncome", "net_income", "Net Income", frame.Number),
	reportField("depreciationDepletionAndAmortization", "depreciation_depletion_and_amortization", "D&A", frame.Number),
	reportField("dividendPayout", "dividend_payout", "Dividends", frame.Number),
	reportField("paymentsForRepurchaseOfCommonStock", "payments_for_repurchase_of_common_stock", "Buybacks", frame.Number),
	reportField("changeInCashAndCashEquivalents", "change_in_cash", "Change in Cash", frame.Number),
	reportField("proceedsFromIssuanceOfLongTermDebtAndCapitalSecuritiesNet", "proceeds_from_issuance_of_long_term_debt", "Debt Issued", frame.Number),
}

// reports merges the annual and quarterly reports, most recent first.
func reports(js interface{}, fields []field) (*frame.Frame, error) {
	m, err := asObject(js)
	if err != nil {
		return nil, err
	}
	f := frame.New(append(frame.Schema{periodColumn}, columns(fields)...))
	f.Metadata = symbolMetadata(m)
	f.AddRow(periodRows(asArray(m, "annualReports"), Annual, fields, fields)...)
	f.AddRow(periodRows(asArray(m, "quarterlyReports"), Quarterly, fields, fields)...)
	frame.SortDescending(f.Rows, fiscalDate.Name)
	return f, nil
}

// IncomeStatement reports.
func IncomeStatement(js interface{}) (*frame.Frame, error) {
	return reports(js, incomeFields)
}

// BalanceSheet reports.
func BalanceSheet(js interface{}) (*frame.Frame, error) {
	return reports(js, balanceFields)
}

// CashFlow reports.
func CashFlow(js interface{}) (*frame.Frame, error) {
	return reports(js, cashFlowFields)
}
