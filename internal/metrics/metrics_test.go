// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dacolabs/usdl/internal/usdl"
)

func TestNewWithRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	require.NotNil(t, m)
	assert.NotNil(t, m.ConversionsTotal)
	assert.NotNil(t, m.ConversionDuration)
	assert.NotNil(t, m.RequestsTotal)
	assert.NotNil(t, m.RequestDuration)
	assert.NotNil(t, m.RequestsInFlight)

	// a second collector on the same registry collides
	assert.Panics(t, func() { NewWithRegistry(reg) })
}

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"success", nil, StatusOK},
		{"usdl error", usdl.Errorf(usdl.ErrConstraintViolation, "A.b", "bad"), "ConstraintViolation"},
		{"sentinel", usdl.ErrUnsupportedConstruct, "UnsupportedConstruct"},
		{"other", errors.New("disk full"), "Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Status(tt.err))
		})
	}
}

func TestObserveConversion(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	start := time.Now()
	m.ObserveConversion(OpParse, usdl.Avro, start, nil)
	m.ObserveConversion(OpParse, usdl.Avro, start, nil)
	m.ObserveConversion(OpRender, usdl.Protobuf, start, usdl.Errorf(usdl.ErrMissingRequiredMetadata, "A.b", "no number"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ConversionsTotal.WithLabelValues(OpParse, "avro", StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConversionsTotal.WithLabelValues(OpRender, "protobuf", "MissingRequiredMetadata")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.ConversionDuration))

	expected := `
# HELP usdl_conversions_total Total number of schema parse, render and convert operations
# TYPE usdl_conversions_total counter
usdl_conversions_total{format="avro",operation="parse",status="ok"} 2
usdl_conversions_total{format="protobuf",operation="render",status="MissingRequiredMetadata"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "usdl_conversions_total"))
}

func TestNilCollector(t *testing.T) {
	var m *Collector
	assert.NotPanics(t, func() {
		m.ObserveConversion(OpConvert, usdl.XSD, time.Now(), nil)
	})
}
