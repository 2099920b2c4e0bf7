// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package protobuf

import (
	"strings"

	"github.com/dacolabs/usdl/internal/usdl"
)

// resolver maps proto type names to the simple names their declarations are
// hoisted under. Relative names are searched from the innermost enclosing
// scope outwards; a leading dot makes a name absolute.
type resolver struct {
	// fully qualified name -> hoisted simple name
	names map[string]string
	// simple name -> fully qualified name that claimed it
	owners map[string]string
}

func newResolver() *resolver {
	return &resolver{
		names:  make(map[string]string),
		owners: make(map[string]string),
	}
}

func (r *resolver) declare(full string) (string, error) {
	simple := usdl.SimpleName(full)
	if _, ok := r.names[full]; ok {
		return "", usdl.Errorf(usdl.ErrUnresolvedTypeReference, full, "%s is declared more than once", full)
	}
	if other, ok := r.owners[simple]; ok {
		return "", usdl.Errorf(usdl.ErrUnresolvedTypeReference, full, "%s and %s both hoist to %q", other, full, simple).
			WithHint("rename one of the declarations; nested messages and enums share one flat namespace")
	}
	r.names[full] = simple
	r.owners[simple] = full
	return simple, nil
}

func (r *resolver) lookup(scope, ref string) (string, bool) {
	if strings.HasPrefix(ref, ".") {
		name, ok := r.names[ref[1:]]
		return name, ok
	}
	for {
		if name, ok := r.names[qualify(scope, ref)]; ok {
			return name, true
		}
		if scope == "" {
			return "", false
		}
		scope = parentScope(scope)
	}
}

func qualify(scope, name string) string {
	if scope == "" {
		return name
	}
	return scope + "." + name
}

func parentScope(scope string) string {
	if i := strings.LastIndexByte(scope, '.'); i >= 0 {
		return scope[:i]
	}
	return ""
}
