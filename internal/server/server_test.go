// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dacolabs/usdl/internal/metrics"
	"github.com/dacolabs/usdl/internal/udm"
	"github.com/dacolabs/usdl/internal/usdl"
)

const pointAvro = `{
  "type": "record",
  "name": "Point",
  "fields": [
    {"name": "x", "type": "int"},
    {"name": "label", "type": "string"}
  ]
}`

func newTestServer(t *testing.T) (*Server, *metrics.Collector, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)
	s := New(Options{
		Logger:       zerolog.Nop(),
		Metrics:      m,
		Gatherer:     reg,
		MaxBodyBytes: 1024,
		Render:       usdl.RenderOptions{PrettyPrint: true},
	})
	return s, m, reg
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorDetail {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp.Error
}

func TestHealth(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	_, err := uuid.Parse(rec.Header().Get(HeaderConversionID))
	assert.NoError(t, err)
}

func TestConversionIDIsUnique(t *testing.T) {
	s, _, _ := newTestServer(t)

	a := do(t, s, http.MethodGet, "/health", "").Header().Get(HeaderConversionID)
	b := do(t, s, http.MethodGet, "/health", "").Header().Get(HeaderConversionID)
	assert.NotEqual(t, a, b)
}

func TestParse(t *testing.T) {
	s, m, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/v1/parse/avro", pointAvro)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	tree, err := udm.ParseJSON(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []string{"Point"}, tree.Get(usdl.KeyTypes).Keys)
	assert.True(t, strings.HasSuffix(rec.Body.String(), "\n"), "pretty by default")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConversionsTotal.WithLabelValues(metrics.OpParse, "avro", metrics.StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues(http.MethodPost, "/v1/parse/{format}", "2xx")))
}

func TestParse_Compact(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/v1/parse/avro?pretty=false", pointAvro)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "\n")
}

func TestRender(t *testing.T) {
	s, _, _ := newTestServer(t)
	tree := `{"%types": {"Order": {"%kind": "structure", "%fields": [
		{"%name": "id", "%type": "string", "%field_number": 1}
	]}}}`

	rec := do(t, s, http.MethodPost, "/v1/render/proto", tree)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `syntax = "proto3";`)
	assert.Contains(t, rec.Body.String(), "string id = 1;")
}

func TestConvert(t *testing.T) {
	s, m, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/v1/convert?from=avro&to=xsd", pointAvro)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `<xs:element name="x" type="xs:int"/>`)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConversionsTotal.WithLabelValues(metrics.OpConvert, "xsd", metrics.StatusOK)))
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name         string
		method       string
		target       string
		body         string
		wantStatus   int
		wantKind     string
		wantFunction string
		wantPath     string
		wantMessage  string
	}{
		{
			name:        "unknown format",
			method:      http.MethodPost,
			target:      "/v1/parse/thrift",
			body:        "{}",
			wantStatus:  http.StatusBadRequest,
			wantMessage: `unknown format "thrift"`,
		},
		{
			name:         "malformed source",
			method:       http.MethodPost,
			target:       "/v1/parse/avro",
			body:         `{"type":`,
			wantStatus:   http.StatusBadRequest,
			wantKind:     "MalformedInput",
			wantFunction: "parseAvroSchema",
		},
		{
			name:         "malformed canonical tree",
			method:       http.MethodPost,
			target:       "/v1/render/xsd",
			body:         `not json`,
			wantStatus:   http.StatusBadRequest,
			wantKind:     "MalformedInput",
			wantFunction: "renderXSDSchema",
		},
		{
			name:         "missing field numbers",
			method:       http.MethodPost,
			target:       "/v1/convert?from=avro&to=protobuf",
			body:         pointAvro,
			wantStatus:   http.StatusUnprocessableEntity,
			wantKind:     "MissingRequiredMetadata",
			wantFunction: "renderProtobufSchema",
			wantPath:     "Point.x",
			wantMessage:  "field has no field number",
		},
		{
			name:        "missing target",
			method:      http.MethodPost,
			target:      "/v1/convert?from=avro",
			body:        pointAvro,
			wantStatus:  http.StatusBadRequest,
			wantMessage: "unknown format",
		},
		{
			name:        "bad boolean",
			method:      http.MethodPost,
			target:      "/v1/render/avro?pretty=maybe",
			body:        `{}`,
			wantStatus:  http.StatusBadRequest,
			wantMessage: `invalid pretty value "maybe"`,
		},
		{
			name:        "oversized body",
			method:      http.MethodPost,
			target:      "/v1/parse/avro",
			body:        `{"type":"record","name":"A","doc":"` + strings.Repeat("x", 2048) + `","fields":[]}`,
			wantStatus:  http.StatusRequestEntityTooLarge,
			wantMessage: "request body exceeds 1024 bytes",
		},
		{
			name:        "wrong method",
			method:      http.MethodGet,
			target:      "/v1/parse/avro",
			wantStatus:  http.StatusMethodNotAllowed,
			wantMessage: "method not allowed",
		},
		{
			name:        "unknown route",
			method:      http.MethodGet,
			target:      "/v2/parse",
			wantStatus:  http.StatusNotFound,
			wantMessage: "not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, _ := newTestServer(t)

			rec := do(t, s, tt.method, tt.target, tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			got := decodeError(t, rec)
			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Equal(t, tt.wantFunction, got.Function)
			if tt.wantPath != "" {
				assert.Equal(t, tt.wantPath, got.Path)
			}
			if tt.wantKind == "MissingRequiredMetadata" {
				assert.NotEmpty(t, got.Hint)
			}
			assert.Contains(t, got.Message, tt.wantMessage)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s, _, _ := newTestServer(t)
	do(t, s, http.MethodPost, "/v1/convert?from=avro&to=protobuf", pointAvro)

	rec := do(t, s, http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `usdl_conversions_total{format="protobuf",operation="convert",status="MissingRequiredMetadata"} 1`)
	assert.Contains(t, body, "usdl_http_requests_in_flight 0")
	assert.NotContains(t, body, `route="/metrics"`)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusFor(usdl.ErrMalformedInput))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusFor(usdl.Errorf(usdl.ErrUnsupportedConstruct, "", "x")))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusFor(usdl.ErrUnresolvedTypeReference))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(assert.AnError))
}

func TestNoMetrics(t *testing.T) {
	s := New(Options{Logger: zerolog.Nop(), Gatherer: prometheus.NewRegistry()})

	rec := do(t, s, http.MethodPost, "/v1/parse/avro", pointAvro)
	assert.Equal(t, http.StatusOK, rec.Code)
}
