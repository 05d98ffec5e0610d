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
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/fetch"
)

// RequestIDHeader is the response header carrying the upstream request ID.
const RequestIDHeader = "X-Request-Id"

// Response of a single HTTP request.
type Response struct {
	Status    int    // HTTP status code
	Body      string // response body, valid UTF-8
	RequestID string // optional, empty when the server sent none
}

// Transport sends a single HTTP request and returns the response regardless of
// its status code. An error is returned only when no response was obtained.
type Transport interface {
	Get(ctx context.Context, uri string) (*Response, error)
	Post(ctx context.Context, uri, body string) (*Response, error)
}

// HTTPTransport is the default Transport based on net/http. A nil Client means
// the client injected in the request context by fetch.UseClient, or
// http.DefaultClient.
type HTTPTransport struct {
	Client *http.Client
}

var _ Transport = &HTTPTransport{}

func (t *HTTPTransport) client(ctx context.Context) *http.Client {
	if t.Client != nil {
		return t.Client
	}
	if c := fetch.GetClient(ctx); c != nil {
		return c
	}
	return http.DefaultClient
}

func (t *HTTPTransport) do(req *http.Request) (*Response, error) {
	resp, err := t.client(req.Context()).Do(req)
	if err != nil {
		return nil, errors.Annotate(err, "failed to send %s %s", req.Method, req.URL.Path)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Annotate(err, "failed to read response body")
	}
	if !utf8.Valid(b) {
		return nil, errors.Reason("response body is not valid UTF-8")
	}
	return &Response{
		Status:    resp.StatusCode,
		Body:      string(b),
		RequestID: resp.Header.Get(RequestIDHeader),
	}, nil
}

// Get implements Transport.
func (t *HTTPTransport) Get(ctx context.Context, uri string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, errors.Annotate(err, "failed to create GET request")
	}
	return t.do(req)
}

// Post implements Transport. The body is sent as JSON.
func (t *HTTPTransport) Post(ctx context.Context, uri, body string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uri, strings.NewReader(body))
	if err != nil {
		return nil, errors.Annotate(err, "failed to create POST request")
	}
	req.Header.Set("Content-Type", "application/json")
	return t.do(req)
}

// UpstreamError is a failure to obtain a successful response from the server:
// either a transport error (Err != nil, Status == 0) or a non-2xx status.
type UpstreamError struct {
	Status    int
	Body      string
	RequestID string
	Err       error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("request failed: %s", e.Err.Error())
	}
	msg := fmt.Sprintf("HTTP status %d: %s", e.Status, e.Body)
	if e.RequestID != "" {
		msg += " (request ID: " + e.RequestID + ")"
	}
	return msg
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
