// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/dacolabs/usdl/internal/metrics"
	"github.com/dacolabs/usdl/internal/schemafn"
	"github.com/dacolabs/usdl/internal/udm"
	"github.com/dacolabs/usdl/internal/usdl"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failure. Kind, Function, Path and Hint are empty
// for failures outside the conversion functions.
type ErrorDetail struct {
	Kind     string `json:"kind,omitempty"`
	Function string `json:"function,omitempty"`
	Path     string `json:"path,omitempty"`
	Message  string `json:"message"`
	Hint     string `json:"hint,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) parse(w http.ResponseWriter, r *http.Request) {
	f, ok := formatParam(w, chi.URLParam(r, "format"))
	if !ok {
		return
	}
	pretty, ok := boolParam(w, r, "pretty", s.opts.Render.PrettyPrint)
	if !ok {
		return
	}
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	start := time.Now()
	tree, err := schemafn.Parse(f, body)
	s.opts.Metrics.ObserveConversion(metrics.OpParse, f, start, err)
	if err != nil {
		writeConversionError(w, err)
		return
	}

	out, err := udm.ToJSON(tree, pretty)
	if err != nil {
		writeStatusError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeBody(w, "application/json", out)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request) {
	f, ok := formatParam(w, chi.URLParam(r, "format"))
	if !ok {
		return
	}
	opts, ok := s.renderOptions(w, r)
	if !ok {
		return
	}
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	start := time.Now()
	out, err := renderTree(f, body, opts)
	s.opts.Metrics.ObserveConversion(metrics.OpRender, f, start, err)
	if err != nil {
		writeConversionError(w, err)
		return
	}
	writeBody(w, contentType(f), out)
}

func renderTree(f usdl.Format, body []byte, opts usdl.RenderOptions) ([]byte, error) {
	tree, err := udm.ParseJSON(body)
	if err != nil {
		return nil, usdl.WithFunc(err, schemafn.RenderFuncName(f))
	}
	return schemafn.Render(f, tree, opts)
}

func (s *Server) convert(w http.ResponseWriter, r *http.Request) {
	from, ok := formatParam(w, r.URL.Query().Get("from"))
	if !ok {
		return
	}
	to, ok := formatParam(w, r.URL.Query().Get("to"))
	if !ok {
		return
	}
	opts, ok := s.renderOptions(w, r)
	if !ok {
		return
	}
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	start := time.Now()
	out, err := schemafn.Convert(from, to, body, opts)
	s.opts.Metrics.ObserveConversion(metrics.OpConvert, to, start, err)
	if err != nil {
		writeConversionError(w, err)
		return
	}
	writeBody(w, contentType(to), out)
}

func (s *Server) renderOptions(w http.ResponseWriter, r *http.Request) (usdl.RenderOptions, bool) {
	pretty, ok := boolParam(w, r, "pretty", s.opts.Render.PrettyPrint)
	if !ok {
		return usdl.RenderOptions{}, false
	}
	preserve, ok := boolParam(w, r, "preservePattern", s.opts.Render.PreservePattern)
	if !ok {
		return usdl.RenderOptions{}, false
	}
	return usdl.RenderOptions{PrettyPrint: pretty, PreservePattern: preserve}, true
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	if s.opts.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeStatusError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return nil, false
		}
		writeStatusError(w, http.StatusBadRequest, fmt.Sprintf("failed to read request body: %v", err))
		return nil, false
	}
	return body, true
}

func formatParam(w http.ResponseWriter, name string) (usdl.Format, bool) {
	f, err := usdl.ParseFormat(name)
	if err != nil {
		writeStatusError(w, http.StatusBadRequest, err.Error())
		return 0, false
	}
	return f, true
}

func boolParam(w http.ResponseWriter, r *http.Request, name string, def bool) (bool, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		writeStatusError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s value %q", name, raw))
		return false, false
	}
	return v, true
}

func contentType(f usdl.Format) string {
	switch f {
	case usdl.XSD:
		return "application/xml"
	case usdl.Protobuf:
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}

// StatusFor maps a conversion error to its HTTP status.
func StatusFor(err error) int {
	if errors.Is(err, usdl.ErrMalformedInput) {
		return http.StatusBadRequest
	}
	if usdl.KindName(err) != "" {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeConversionError(w http.ResponseWriter, err error) {
	detail := ErrorDetail{Kind: usdl.KindName(err), Message: err.Error()}
	var ue *usdl.Error
	if errors.As(err, &ue) {
		detail.Function = ue.Func
		detail.Path = ue.Path
		detail.Hint = ue.Hint
		detail.Message = ue.Message
		if ue.Err != nil {
			if detail.Message != "" {
				detail.Message += ": "
			}
			detail.Message += ue.Err.Error()
		}
		if detail.Message == "" {
			detail.Message = ue.Kind.Error()
		}
	}
	writeJSON(w, StatusFor(err), ErrorResponse{Error: detail})
}

func writeStatusError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Message: msg}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	out, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(out)
}

func writeBody(w http.ResponseWriter, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
