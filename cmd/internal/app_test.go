// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package internal

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dacolabs/usdl/internal/config"
	"github.com/dacolabs/usdl/internal/session"
)

func TestRun(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	require.NoError(t, os.Chdir(dir))

	noEnv := func(string) string { return "" }
	assert.NoError(t, Run(context.Background(), []string{"version", "--short"}, noEnv))
	assert.Error(t, Run(context.Background(), []string{"no-such-command"}, noEnv))

	badEnv := func(k string) string {
		if k == config.EnvLogLevel {
			return "loud"
		}
		return ""
	}
	err := Run(context.Background(), []string{"version"}, badEnv)
	assert.ErrorIs(t, err, session.ErrInvalidConfig)
}
