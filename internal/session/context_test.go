// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package session

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dacolabs/usdl/internal/config"
	"github.com/dacolabs/usdl/internal/usdl"
)

func noEnv(string) string { return "" }

func chdir(t *testing.T, dir string) {
	t.Helper()
	var testDir string
	if dir == "" {
		testDir = t.TempDir()
	} else {
		var err error
		testDir, err = filepath.Abs(dir)
		require.NoError(t, err)
	}
	origDir, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	require.NoError(t, os.Chdir(testDir))
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		dir       string // relative to testdata, empty means use t.TempDir()
		env       map[string]string
		wantErr   error
		wantAddr  string
		wantLevel string
		wantFile  bool
	}{
		{
			name:      "defaults without usdl.yaml",
			dir:       "",
			wantAddr:  ":8080",
			wantLevel: "info",
		},
		{
			name:    "invalid config",
			dir:     "testdata/invalid-config",
			wantErr: ErrInvalidConfig,
		},
		{
			name:      "valid",
			dir:       "testdata/valid",
			wantAddr:  ":9090",
			wantLevel: "warn",
			wantFile:  true,
		},
		{
			name:      "environment wins",
			dir:       "testdata/valid",
			env:       map[string]string{config.EnvAddr: ":7070", config.EnvLogLevel: "debug"},
			wantAddr:  ":7070",
			wantLevel: "debug",
			wantFile:  true,
		},
		{
			name:    "invalid environment",
			dir:     "",
			env:     map[string]string{config.EnvLogFormat: "xml"},
			wantErr: ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t, tt.dir)

			ctx, err := Load(context.Background(), func(k string) string { return tt.env[k] }, &bytes.Buffer{})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			s := From(ctx)
			require.NotNil(t, s)
			assert.Equal(t, tt.wantAddr, s.Config.Server.Addr)
			assert.Equal(t, tt.wantLevel, s.Config.Logging.Level)
			assert.Equal(t, tt.wantFile, s.ConfigPath != "")
		})
	}
}

func TestRenderOptions(t *testing.T) {
	chdir(t, "testdata/valid")

	ctx, err := Load(context.Background(), noEnv, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, usdl.RenderOptions{PreservePattern: true}, From(ctx).RenderOptions())
}

func TestLoggerWritesToStream(t *testing.T) {
	chdir(t, "testdata/valid")

	var buf bytes.Buffer
	ctx, err := Load(context.Background(), noEnv, &buf)
	require.NoError(t, err)

	logger := From(ctx).Logger
	logger.Info().Msg("below threshold")
	logger.Warn().Msg("kept")
	assert.NotContains(t, buf.String(), "below threshold")
	assert.Contains(t, buf.String(), `"message":"kept"`)
}

func TestFrom_NoContextStored(t *testing.T) {
	assert.Nil(t, From(context.Background()))
}

func TestRequireFromCommand(t *testing.T) {
	chdir(t, "")

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	_, err := RequireFromCommand(cmd)
	assert.Error(t, err)

	require.NoError(t, PreRunLoad(noEnv)(cmd, nil))
	s, err := RequireFromCommand(cmd)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Server, s.Config.Server)
	assert.Same(t, s, FromCommand(cmd))
}
