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
	"context"

	"github.com/stockparfait/errors"
)

// Quote is the latest trading information of a symbol as returned by the
// GLOBAL_QUOTE endpoint. Numbers are kept as the vendor's decimal strings.
type Quote struct {
	Symbol           string `json:"01. symbol"`
	Open             string `json:"02. open"`
	High             string `json:"03. high"`
	Low              string `json:"04. low"`
	Price            string `json:"05. price"`
	Volume           string `json:"06. volume"`
	LatestTradingDay string `json:"07. latest trading day"`
	PreviousClose    string `json:"08. previous close"`
	Change           string `json:"09. change"`
	ChangePercent    string `json:"10. change percent"`
}

type quoteResponse struct {
	Quote *Quote `json:"Global Quote"`
}

// FetchQuote downloads the latest quote for the symbol.
func (c *Client) FetchQuote(ctx context.Context, symbol string) (*Quote, error) {
	var r quoteResponse
	if err := c.Decode(ctx, GlobalQuote(symbol), &r); err != nil {
		return nil, err
	}
	if r.Quote == nil || r.Quote.Symbol == "" {
		return nil, errors.Reason("no quote for %s", symbol)
	}
	return r.Quote, nil
}
