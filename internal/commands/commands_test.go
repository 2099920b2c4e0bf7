// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package commands

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dacolabs/usdl/internal/config"
	"github.com/dacolabs/usdl/internal/session"
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

// inTempDir runs the test from an empty directory so no usdl.yaml leaks in.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	require.NoError(t, os.Chdir(dir))
	return dir
}

func writeFile(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(name, []byte(content), 0o600))
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd(func(string) string { return "" })
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestParse(t *testing.T) {
	inTempDir(t)
	writeFile(t, "point.avsc", pointAvro)

	out, err := execute(t, "", "parse", "point.avsc", "--pretty=false")
	require.NoError(t, err)

	tree, err := udm.ParseJSON([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, []string{"Point"}, tree.Get(usdl.KeyTypes).Keys)
	assert.NotContains(t, out, "\n")
}

func TestParse_Stdin(t *testing.T) {
	inTempDir(t)

	out, err := execute(t, pointAvro, "parse", "-", "--format", "avro")
	require.NoError(t, err)
	assert.Contains(t, out, `"Point"`)

	_, err = execute(t, pointAvro, "parse", "-")
	assert.ErrorContains(t, err, "explicit format")
}

func TestParse_UnknownExtension(t *testing.T) {
	inTempDir(t)
	writeFile(t, "point.txt", pointAvro)

	_, err := execute(t, "", "parse", "point.txt")
	assert.Error(t, err)
}

func TestConvert(t *testing.T) {
	inTempDir(t)
	writeFile(t, "point.avsc", pointAvro)

	out, err := execute(t, "", "convert", "point.avsc", "--to", "xsd", "-o", "out/point.xsd")
	require.NoError(t, err)
	assert.Contains(t, out, "out/point.xsd")

	data, err := os.ReadFile(filepath.Join("out", "point.xsd"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `<xs:element name="x" type="xs:int"/>`)
}

func TestConvert_Errors(t *testing.T) {
	inTempDir(t)
	writeFile(t, "point.avsc", pointAvro)

	tests := []struct {
		name    string
		args    []string
		wantIs  error
		wantMsg string
	}{
		{
			name:    "missing target without a terminal",
			args:    []string{"convert", "point.avsc"},
			wantMsg: "--to is required",
		},
		{
			name:    "unknown target",
			args:    []string{"convert", "point.avsc", "--to", "thrift"},
			wantMsg: `unknown format "thrift"`,
		},
		{
			name:    "missing file",
			args:    []string{"convert", "nope.avsc", "--to", "xsd"},
			wantMsg: "failed to read nope.avsc",
		},
		{
			name:    "avro has no field numbers",
			args:    []string{"convert", "point.avsc", "--to", "protobuf"},
			wantIs:  usdl.ErrMissingRequiredMetadata,
			wantMsg: "renderProtobufSchema: missing required metadata at Point.x",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "", tt.args...)
			require.Error(t, err)
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			}
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestParseThenRender(t *testing.T) {
	inTempDir(t)
	writeFile(t, "point.avsc", pointAvro)

	_, err := execute(t, "", "parse", "point.avsc", "-o", "point.usdl.json")
	require.NoError(t, err)

	out, err := execute(t, "", "render", "point.usdl.json", "--to", "jsonschema")
	require.NoError(t, err)
	assert.Contains(t, out, `"$schema": "https://json-schema.org/draft/2020-12/schema"`)
	assert.Contains(t, out, `"Point"`)
}

func TestRender_MalformedTree(t *testing.T) {
	inTempDir(t)
	writeFile(t, "bad.usdl.json", `{"%types": `)

	_, err := execute(t, "", "render", "bad.usdl.json", "--to", "avro")
	require.Error(t, err)
	assert.ErrorIs(t, err, usdl.ErrMalformedInput)
	assert.Contains(t, err.Error(), "renderAvroSchema")
}

func TestValidate(t *testing.T) {
	inTempDir(t)
	writeFile(t, "point.avsc", pointAvro)
	writeFile(t, "order.usdl.json", `{"%types": {"Order": {"%kind": "structure", "%fields": [
		{"%name": "id", "%type": "string", "%field_number": 1}
	]}}}`)
	writeFile(t, "bad.usdl.json", `{"%types": {"Choice": {"%kind": "union", "%members": ["string"]}}}`)

	out, err := execute(t, "", "validate", "order.usdl.json", "--target", "protobuf")
	require.NoError(t, err)
	assert.Contains(t, out, "order.usdl.json is valid")
	assert.Contains(t, out, "protobuf")

	out, err = execute(t, "", "validate", "point.avsc")
	require.NoError(t, err)
	assert.Contains(t, out, "Types: 1")

	_, err = execute(t, "", "validate", "point.avsc", "--target", "protobuf")
	assert.ErrorIs(t, err, usdl.ErrMissingRequiredMetadata)

	_, err = execute(t, "", "validate", "bad.usdl.json")
	assert.ErrorIs(t, err, usdl.ErrConstraintViolation)
}

func TestDiff(t *testing.T) {
	inTempDir(t)
	writeFile(t, "point.avsc", pointAvro)
	writeFile(t, "renamed.avsc", strings.Replace(pointAvro, `"label"`, `"name"`, 1))
	_, err := execute(t, "", "parse", "point.avsc", "-o", "point.usdl.json")
	require.NoError(t, err)

	out, err := execute(t, "", "diff", "point.avsc", "point.usdl.json")
	require.NoError(t, err)
	assert.Equal(t, "no differences\n", out)

	out, err = execute(t, "", "diff", "point.avsc", "renamed.avsc")
	assert.ErrorIs(t, err, ErrSchemasDiffer)
	assert.Contains(t, out, "--- point.avsc\n+++ renamed.avsc\n")
	assert.Contains(t, out, `-          "%name": "label",`)
	assert.Contains(t, out, `+          "%name": "name",`)
	assert.NotContains(t, out, "\x1b[", "no colour outside a terminal")
}

func TestInit(t *testing.T) {
	dir := inTempDir(t)

	_, err := execute(t, "", "init")
	assert.ErrorContains(t, err, "--non-interactive")

	out, err := execute(t, "", "init", "--non-interactive")
	require.NoError(t, err)
	assert.Contains(t, out, "Initialization completed")

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	_, err = execute(t, "", "init", "--non-interactive")
	assert.ErrorContains(t, err, "already exists")
}

func TestInvalidConfig(t *testing.T) {
	inTempDir(t)
	writeFile(t, config.FileName, "version: 2\n")

	_, err := execute(t, "", "version")
	assert.ErrorIs(t, err, session.ErrInvalidConfig)
}

func TestConfigDefaultsApply(t *testing.T) {
	inTempDir(t)
	writeFile(t, config.FileName, "version: 1\nrender:\n  prettyPrint: false\n")
	writeFile(t, "point.avsc", pointAvro)

	out, err := execute(t, "", "parse", "point.avsc")
	require.NoError(t, err)
	assert.NotContains(t, out, "\n", "render.prettyPrint: false gives compact output")

	out, err = execute(t, "", "parse", "point.avsc", "--pretty")
	require.NoError(t, err)
	assert.Contains(t, out, "\n")
}

func TestVersion(t *testing.T) {
	inTempDir(t)

	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "usdl version "))

	out, err = execute(t, "", "version", "--short")
	require.NoError(t, err)
	assert.NotContains(t, out, "usdl")
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "point.avsc")
	dst := filepath.Join(dir, "point.xsd")
	writeFile(t, src, pointAvro)

	var logs bytes.Buffer
	s := &session.Context{Config: config.Default(), Logger: zerolog.New(&logs)}
	cmd := newWatchCmd()
	cmd.SetIn(strings.NewReader(""))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- runWatch(ctx, cmd, s, src, &watchOptions{to: "xsd", output: dst})
	}()

	contains := func(want string) func() bool {
		return func() bool {
			data, err := os.ReadFile(dst) //nolint:gosec // test file path
			return err == nil && strings.Contains(string(data), want)
		}
	}
	require.Eventually(t, contains(`name="label"`), 5*time.Second, 20*time.Millisecond)

	writeFile(t, src, strings.Replace(pointAvro, `"label"`, `"title"`, 1))
	require.Eventually(t, contains(`name="title"`), 5*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.Contains(t, logs.String(), "watching schema for changes")
	assert.Contains(t, logs.String(), "converted schema")
}

func TestWatch_RejectsBadTargets(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "point.avsc")
	s := &session.Context{Config: config.Default(), Logger: zerolog.Nop()}
	cmd := newWatchCmd()

	err := runWatch(context.Background(), cmd, s, src, &watchOptions{to: "xsd", output: src})
	assert.ErrorContains(t, err, "must differ")

	err = runWatch(context.Background(), cmd, s, "-", &watchOptions{to: "xsd", output: "out.xsd"})
	assert.ErrorContains(t, err, "stdin")
}

func TestServeHandler(t *testing.T) {
	s := &session.Context{Config: config.Default(), Logger: zerolog.Nop()}
	h := newServer(s).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/convert?from=avro&to=xsd", strings.NewReader(pointAvro)))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "go_goroutines")
	assert.Contains(t, rec.Body.String(), "usdl_conversions_total")
}
