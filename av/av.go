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
	"encoding/json"
	"sync/atomic"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/logging"
)

type contextKey int

const (
	clientContextKey contextKey = iota
)

// URL is the default base URL of the server. It may be overwritten in tests
// before creating a new client.
var URL = "https://www.alphavantage.co"

// Client for querying Alpha Vantage endpoints. It is never modified after
// creation; the With* methods return modified copies.
type Client struct {
	baseURL   string // the base URL of the server
	apiKey    string // your very own secret key
	transport Transport
}

// NewClient creates a new client with the default base URL and HTTP transport.
func NewClient(apiKey string) *Client {
	return &Client{
		baseURL:   URL,
		apiKey:    apiKey,
		transport: &HTTPTransport{},
	}
}

func (c *Client) copy() *Client {
	c2 := *c
	return &c2
}

// WithKey returns a copy of the client using the given API key.
func (c *Client) WithKey(apiKey string) *Client {
	c2 := c.copy()
	c2.apiKey = apiKey
	return c2
}

// WithTransport returns a copy of the client using the given transport.
func (c *Client) WithTransport(t Transport) *Client {
	c2 := c.copy()
	c2.transport = t
	return c2
}

// WithBaseURL returns a copy of the client sending requests to baseURL.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c2 := c.copy()
	c2.baseURL = baseURL
	return c2
}

// APIKey configured in the client, possibly empty.
func (c *Client) APIKey() string {
	return c.apiKey
}

// GetClient extracts the Client from the context, if any.
func GetClient(ctx context.Context) *Client {
	c, ok := ctx.Value(clientContextKey).(*Client)
	if !ok {
		return nil
	}
	return c
}

// UseClient injects the client into the context.
func UseClient(ctx context.Context, c *Client) context.Context {
	return context.WithValue(ctx, clientContextKey, c)
}

var defaultClient atomic.Pointer[Client]

// Init sets the process-wide default client. It is intended to be called once
// during program start-up; a later call replaces the client for all subsequent
// Default() callers.
func Init(c *Client) {
	defaultClient.Store(c)
}

// Default returns the client set by Init, or nil.
func Default() *Client {
	return defaultClient.Load()
}

// Get executes the query and returns the response. Transport failures and
// non-2xx statuses are reported as *UpstreamError. A client without an API key
// fails before issuing any request.
func (c *Client) Get(ctx context.Context, q *Query) (*Response, error) {
	if c.apiKey == "" {
		return nil, errors.Reason("API key is not set")
	}
	if c.transport == nil {
		return nil, errors.Reason("no transport configured")
	}
	query := q.Values()
	logging.Debugf(ctx, "Alpha Vantage: GET %s?%s", c.baseURL+"/query", query.Encode())
	query.Set("apikey", c.apiKey)
	uri := c.baseURL + "/query?" + query.Encode()

	resp, err := c.transport.Get(ctx, uri)
	if err != nil {
		return nil, &UpstreamError{Err: err}
	}
	if resp.Status < 200 || resp.Status > 299 {
		return nil, &UpstreamError{
			Status:    resp.Status,
			Body:      resp.Body,
			RequestID: resp.RequestID,
		}
	}
	return resp, nil
}

// Raw executes the query and returns the response body unchanged.
func (c *Client) Raw(ctx context.Context, q *Query) (string, error) {
	resp, err := c.Get(ctx, q)
	if err != nil {
		return "", errors.Annotate(err, "%s request failed", q.Function())
	}
	return resp.Body, nil
}

// Decode executes the query and unmarshals the JSON response into v.
func (c *Client) Decode(ctx context.Context, q *Query, v interface{}) error {
	resp, err := c.Get(ctx, q)
	if err != nil {
		return errors.Annotate(err, "%s request failed", q.Function())
	}
	if err := json.Unmarshal([]byte(resp.Body), v); err != nil {
		return errors.Annotate(err, "failed to decode %s response", q.Function())
	}
	return nil
}

// tableKeys are the top-level keys checked by Rows, in order.
var tableKeys = []string{
	"estimates", "results", "annualReports", "quarterlyReports", "data"}

// Rows executes the query and returns the first array found under one of the
// well-known top-level keys (estimates, results, annualReports,
// quarterlyReports, data). If none is present, the response itself must be an
// array.
func (c *Client) Rows(ctx context.Context, q *Query) ([]interface{}, error) {
	var js interface{}
	if err := c.Decode(ctx, q, &js); err != nil {
		return nil, err
	}
	data := js
	if m, ok := js.(map[string]interface{}); ok {
		for _, k := range tableKeys {
			if v, ok := m[k]; ok {
				data = v
				break
			}
		}
	}
	rows, ok := data.([]interface{})
	if !ok {
		return nil, errors.Reason(
			"expected array data for %s, got %s", q.Function(), jsonKind(data))
	}
	return rows, nil
}

func jsonKind(v interface{}) string {
	switch v.(type) {
	case map[string]interface{}:
		return "object"
	case nil:
		return "null"
	default:
		return "other"
	}
}
