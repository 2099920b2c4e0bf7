// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package udm

import (
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// ParseYAML decodes a single YAML document, keeping mapping key order.
// Aliases are expanded; non-scalar and non-string mapping keys are rejected.
func ParseYAML(data []byte) (*Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	if doc.Kind == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrSyntax)
	}
	return fromYAMLNode(&doc, "", 0)
}

// maxAliasDepth bounds alias expansion so that self-referencing anchors fail
// instead of recursing forever.
const maxAliasDepth = 64

func fromYAMLNode(n *yaml.Node, path string, depth int) (*Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Null(), nil
		}
		return fromYAMLNode(n.Content[0], path, depth)
	case yaml.AliasNode:
		if depth >= maxAliasDepth {
			return nil, fmt.Errorf("%w: alias nesting too deep at %s", ErrSyntax, displayPath(path))
		}
		return fromYAMLNode(n.Alias, path, depth+1)
	case yaml.MappingNode:
		obj := NewObject()
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode, valNode := n.Content[i], n.Content[i+1]
			if keyNode.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("%w: non-scalar mapping key at line %d", ErrSyntax, keyNode.Line)
			}
			key := keyNode.Value
			if keyNode.Tag == "!!merge" {
				return nil, fmt.Errorf("%w: merge keys are not supported (line %d)", ErrSyntax, keyNode.Line)
			}
			if obj.Has(key) {
				return nil, fmt.Errorf("%w: duplicate key %q at line %d", ErrSyntax, key, keyNode.Line)
			}
			val, err := fromYAMLNode(valNode, joinPath(path, key), depth)
			if err != nil {
				return nil, err
			}
			obj.Keys = append(obj.Keys, key)
			obj.Values = append(obj.Values, val)
		}
		return obj, nil
	case yaml.SequenceNode:
		arr := NewArray()
		for i, c := range n.Content {
			val, err := fromYAMLNode(c, fmt.Sprintf("%s[%d]", path, i), depth)
			if err != nil {
				return nil, err
			}
			arr.Items = append(arr.Items, val)
		}
		return arr, nil
	case yaml.ScalarNode:
		return fromYAMLScalar(n)
	default:
		return nil, fmt.Errorf("%w: unsupported YAML node at line %d", ErrSyntax, n.Line)
	}
}

func fromYAMLScalar(n *yaml.Node) (*Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return Null(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrSyntax, n.Line, err)
		}
		return Bool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrSyntax, n.Line, err)
		}
		return Int(i), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrSyntax, n.Line, err)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: line %d: %q has no JSON representation", ErrSyntax, n.Line, n.Value)
		}
		return Float(f), nil
	default:
		return String(n.Value), nil
	}
}
