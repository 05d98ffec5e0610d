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

// Package server exposes the tool catalog and dispatcher over HTTP.
package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stockparfait/logging"

	"github.com/inboard-ai/alphav/av"
	"github.com/inboard-ai/alphav/tools"
)

// MaxBodySize limits request bodies.
const MaxBodySize = 1 << 20

// Options of the server.
type Options struct {
	LogLevel logging.Level
}

// Metrics collected by the server on its own registry.
type Metrics struct {
	Registry *prometheus.Registry
	Calls    *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// NewMetrics creates and registers the server metrics on a new registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		Calls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "alphav_tool_calls_total",
			Help: "Number of tool calls by tool and outcome",
		}, []string{"tool", "outcome"}),
		Duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "alphav_tool_call_duration_seconds",
			Help:    "Tool call latency in seconds, including the upstream request",
			Buckets: prometheus.DefBuckets,
		}, []string{"tool"}),
	}
}

// record a completed call. Unknown tool names share one label value.
func (m *Metrics) record(tool string, err error, d time.Duration) {
	if _, ok := tools.GetToolDetails(tool); !ok {
		tool = "unknown"
	}
	outcome := "ok"
	if err != nil {
		outcome = strings.ReplaceAll(string(tools.KindOf(err)), " ", "_")
		if outcome == "" {
			outcome = "error"
		}
	}
	m.Calls.WithLabelValues(tool, outcome).Inc()
	m.Duration.WithLabelValues(tool).Observe(d.Seconds())
}

// Server is an http.Handler serving the tool catalog and tool calls.
type Server struct {
	client  *av.Client
	opts    Options
	metrics *Metrics
	router  chi.Router
}

var _ http.Handler = &Server{}

// New creates a server calling the upstream API with the client.
func New(client *av.Client, opts Options) *Server {
	s := &Server{
		client:  client,
		opts:    opts,
		metrics: NewMetrics(),
	}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/health", s.health)
	r.Get("/tools", s.listTools)
	r.Get("/tools/{id}", s.describeTool)
	r.Post("/tools/{id}/validate", s.validate)
	r.Post("/call", s.call)
	r.Method(http.MethodGet, "/metrics",
		promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))
	s.router = r
	return s
}

// Metrics of the server.
func (s *Server) Metrics() *Metrics { return s.metrics }

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// logRequests installs a logger in the request context and logs each request
// with its status and latency.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.Use(r.Context(), logging.DefaultGoLogger(s.opts.LogLevel))
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))
		logging.Infof(ctx, "%s %s: %d in %s",
			r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}

type errorJSON struct {
	Kind      string `json:"kind,omitempty"`
	Message   string `json:"message"`
	Status    int    `json:"upstream_status,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// StatusOf maps a tool error to an HTTP status: invalid calls are the
// caller's fault, the rest is a bad gateway.
func StatusOf(err error) int {
	switch tools.KindOf(err) {
	case tools.MissingField, tools.MissingParam, tools.InvalidParam, tools.UnknownTool:
		return http.StatusBadRequest
	case tools.UpstreamError, tools.MalformedResponse, tools.TransformError:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Errorf(r.Context(), "failed to write response: %s", err.Error())
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	e := errorJSON{
		Kind:    string(tools.KindOf(err)),
		Message: err.Error(),
	}
	if te, ok := err.(*tools.Error); ok {
		if ue := te.Upstream(); ue != nil {
			e.Status = ue.Status
			e.RequestID = ue.RequestID
		}
	}
	writeJSON(w, r, status, map[string]interface{}{"error": e})
}

func readBody(w http.ResponseWriter, r *http.Request) (string, error) {
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodySize))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, tools.ListTools())
}

func (s *Server) describeTool(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	t, ok := tools.GetToolDetails(id)
	if !ok {
		writeError(w, r, http.StatusNotFound, &tools.Error{Kind: tools.UnknownTool, Name: id})
		return
	}
	writeJSON(w, r, http.StatusOK, t)
}

// validate checks the request body against the tool's params schema without
// calling the upstream API.
func (s *Server) validate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := tools.GetToolDetails(id); !ok {
		writeError(w, r, http.StatusNotFound, &tools.Error{Kind: tools.UnknownTool, Name: id})
		return
	}
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	var params interface{}
	if err := json.Unmarshal([]byte(body), &params); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if err := tools.ValidateParams(id, params); err != nil {
		writeJSON(w, r, http.StatusOK, map[string]interface{}{
			"valid": false, "error": err.Error()})
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]interface{}{"valid": true})
}

func (s *Server) call(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	var envelope interface{}
	if err := json.Unmarshal([]byte(body), &envelope); err != nil {
		writeError(w, r, http.StatusBadRequest, &tools.Error{
			Kind: tools.MissingField, Name: "tool", Detail: err.Error(), Err: err})
		return
	}
	var tool string
	if m, ok := envelope.(map[string]interface{}); ok {
		tool, _ = m["tool"].(string)
	}
	start := time.Now()
	res, err := tools.CallTool(r.Context(), s.client, envelope)
	s.metrics.record(tool, err, time.Since(start))
	if err != nil {
		logging.Warningf(r.Context(), "call to %q failed: %s", tool, err.Error())
		writeError(w, r, StatusOf(err), err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}
