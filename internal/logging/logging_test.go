// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dacolabs/usdl/internal/config"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.LoggingConfig{Level: "info", Format: config.LogFormatJSON}, &buf)
	require.NoError(t, err)

	logger.Debug().Msg("hidden")
	logger.Info().Str("format", "avro").Msg("converted")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "converted", entry["message"])
	assert.Equal(t, "avro", entry["format"])
	assert.Contains(t, entry, "time")
	assert.NotContains(t, buf.String(), "hidden")
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.LoggingConfig{Level: "debug", Format: config.LogFormatConsole}, &buf)
	require.NoError(t, err)

	logger.Debug().Str("file", "order.avsc").Msg("watching")

	out := buf.String()
	assert.Contains(t, out, "DBG")
	assert.Contains(t, out, "watching")
	assert.Contains(t, out, "file=order.avsc")
	assert.NotContains(t, out, "\x1b[", "colour is off outside a terminal")
}

func TestNew_AutoFormatOutsideTerminal(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.LoggingConfig{}, &buf)
	require.NoError(t, err)

	logger.Info().Msg("ready")
	assert.True(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.LoggingConfig
	}{
		{"level", config.LoggingConfig{Level: "loud"}},
		{"format", config.LoggingConfig{Format: "xml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg, &bytes.Buffer{})
			assert.Error(t, err)
		})
	}
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}
