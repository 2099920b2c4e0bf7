// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package udm

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"
)

// ErrSyntax is returned for JSON or YAML text that cannot be decoded.
var ErrSyntax = errors.New("syntax error")

// ParseJSON decodes a single JSON document, keeping object key order.
// Duplicate object keys and trailing data are rejected.
func ParseJSON(data []byte) (*Value, error) {
	// The token walk below does not check separators.
	if !json.Valid(data) {
		var discard any
		if err := json.Unmarshal(data, &discard); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
		}
		return nil, fmt.Errorf("%w: invalid JSON", ErrSyntax)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec, "")
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected data after top-level value", ErrSyntax)
	}
	return v, nil
}

func decodeValue(dec *json.Decoder, path string) (*Value, error) {
	token, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: unexpected end of input", ErrSyntax)
		}
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}

	switch t := token.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := NewObject()
			for dec.More() {
				keyToken, err := dec.Token()
				if err != nil {
					return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
				}
				key, ok := keyToken.(string)
				if !ok {
					return nil, fmt.Errorf("%w: object key at %s is not a string", ErrSyntax, displayPath(path))
				}
				if obj.Has(key) {
					return nil, fmt.Errorf("%w: duplicate key %q at %s", ErrSyntax, key, displayPath(path))
				}
				val, err := decodeValue(dec, joinPath(path, key))
				if err != nil {
					return nil, err
				}
				obj.Keys = append(obj.Keys, key)
				obj.Values = append(obj.Values, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
			}
			return obj, nil
		case '[':
			arr := NewArray()
			for i := 0; dec.More(); i++ {
				val, err := decodeValue(dec, fmt.Sprintf("%s[%d]", path, i))
				if err != nil {
					return nil, err
				}
				arr.Items = append(arr.Items, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
			}
			return arr, nil
		default:
			return nil, fmt.Errorf("%w: unexpected %q at %s", ErrSyntax, rune(t), displayPath(path))
		}
	case string:
		return String(t), nil
	case json.Number:
		return Number(t.String()), nil
	case bool:
		return Bool(t), nil
	case nil:
		return Null(), nil
	default:
		return nil, fmt.Errorf("%w: unexpected token %v at %s", ErrSyntax, t, displayPath(path))
	}
}

// ToJSON encodes v. Pretty output uses two-space indentation and ends with a
// newline; compact output has neither.
func ToJSON(v *Value, pretty bool) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v); err != nil {
		return nil, err
	}
	if !pretty {
		return buf.Bytes(), nil
	}
	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return nil, fmt.Errorf("failed to indent JSON: %w", err)
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// MarshalJSON implements json.Marshaler.
func (v *Value) MarshalJSON() ([]byte, error) {
	return ToJSON(v, false)
}

func writeJSON(buf *bytes.Buffer, v *Value) error {
	if v == nil {
		buf.WriteString("null")
		return nil
	}
	switch v.Kind {
	case NullKind:
		buf.WriteString("null")
	case BoolKind:
		if v.Bool {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case NumberKind:
		if !json.Valid([]byte(v.Number)) {
			return fmt.Errorf("invalid number literal %q", v.Number)
		}
		buf.WriteString(v.Number)
	case StringKind:
		return writeString(buf, v.String)
	case ArrayKind:
		buf.WriteByte('[')
		for i, it := range v.Items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, it); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case ObjectKind:
		buf.WriteByte('{')
		for i, k := range v.Keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeJSON(buf, v.Values[i]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unknown value kind %d", v.Kind)
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	b, err := json.MarshalNoEscape(s)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func displayPath(path string) string {
	if path == "" {
		return "document root"
	}
	return path
}
