// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package metadata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bureau-foundation/spiral/lib/atomicfile"
)

var (
	startMarker = []byte(StartMarker)
	endMarker   = []byte(EndMarker)
)

// Encode serializes doc as a compilable C source unit defining a
// character array named variable. Keys are sorted and the JSON is
// indented, so the same document always yields the same text.
func Encode(doc any, variable string) (string, error) {
	if variable == "" {
		return "", errors.New("metadata variable name is empty")
	}
	text, err := CanonicalJSON(doc)
	if err != nil {
		return "", err
	}
	// '!' only occurs inside JSON strings, so escaping every one keeps
	// both markers out of the region interior.
	text = strings.ReplaceAll(text, "!", `\u0021`)

	var builder strings.Builder
	builder.WriteString("char *")
	builder.WriteString(variable)
	builder.WriteString(" = \"")
	builder.WriteString(StartMarker)
	builder.WriteString("\\\n")
	for line := range strings.SplitSeq(escapeLiteral(text), "\n") {
		builder.WriteString(line)
		builder.WriteString("\\\n")
	}
	builder.WriteString(EndMarker)
	builder.WriteString("\";\n")
	return builder.String(), nil
}

// WriteSourceFile encodes doc and atomically writes the result to
// path.
func WriteSourceFile(path string, doc any, variable string) error {
	source, err := Encode(doc, variable)
	if err != nil {
		return fmt.Errorf("encoding metadata for %s: %w", path, err)
	}
	return atomicfile.Write(path, []byte(source), 0o644)
}

// CanonicalJSON renders v as indented JSON with map and struct keys in
// sorted order and without HTML escaping.
func CanonicalJSON(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshaling metadata: %w", err)
	}

	// Round-tripping through a generic value sorts struct fields the
	// same way encoding/json sorts map keys. UseNumber keeps integer
	// and float literals exactly as they were written.
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var generic any
	if err := decoder.Decode(&generic); err != nil {
		return "", fmt.Errorf("normalizing metadata: %w", err)
	}

	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(generic); err != nil {
		return "", fmt.Errorf("marshaling metadata: %w", err)
	}
	return strings.TrimSuffix(buffer.String(), "\n"), nil
}

// Decode looks for a metadata region in raw and unmarshals its JSON
// interior into v. It returns false with a nil error when raw has no
// start marker. A region that cannot be parsed, or that has no end
// marker, yields a *MalformedMetadataError.
func Decode(raw []byte, v any) (bool, error) {
	body, offset, found, err := extract(raw)
	if !found || err != nil {
		return found, err
	}
	if err := unmarshal(body, v); err != nil {
		return true, &MalformedMetadataError{Offset: offset, Err: err}
	}
	return true, nil
}

// unmarshal decodes generic targets with UseNumber so integers wider
// than a float64 mantissa survive.
func unmarshal(body []byte, v any) error {
	if _, generic := v.(*any); !generic {
		return json.Unmarshal(body, v)
	}
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(v); err != nil {
		return err
	}
	if len(bytes.TrimSpace(body[decoder.InputOffset():])) != 0 {
		return errors.New("trailing data after metadata document")
	}
	return nil
}

// Extract returns the JSON text of the metadata region in raw, with
// any C literal escaping removed.
func Extract(raw []byte) ([]byte, bool, error) {
	body, _, found, err := extract(raw)
	return body, found, err
}

func extract(raw []byte) ([]byte, int, bool, error) {
	start := bytes.Index(raw, startMarker)
	if start < 0 {
		return nil, 0, false, nil
	}
	body := raw[start+len(startMarker):]
	end := bytes.Index(body, endMarker)
	if end < 0 {
		return nil, start, true, &MalformedMetadataError{Offset: start, Err: errors.New("end marker not found")}
	}
	body = body[:end]

	if isSourceForm(body) {
		unescaped, err := unescapeLiteral(body)
		if err != nil {
			return nil, start, true, &MalformedMetadataError{Offset: start, Err: err}
		}
		return unescaped, start, true, nil
	}
	return body, start, true, nil
}

// isSourceForm reports whether body is still escaped C literal text.
// Compiled JSON never begins with a backslash.
func isSourceForm(body []byte) bool {
	return bytes.HasPrefix(body, []byte("\\\n")) || bytes.HasPrefix(body, []byte("\\\r\n"))
}

// escapeLiteral makes text safe inside a C string literal. Backslashes
// go first so the escapes added for quotes are not doubled.
func escapeLiteral(text string) string {
	text = strings.ReplaceAll(text, `\`, `\\`)
	return strings.ReplaceAll(text, `"`, `\"`)
}

// unescapeLiteral undoes what the C preprocessor and compiler do to
// the literal: line continuations vanish and simple escapes resolve.
func unescapeLiteral(body []byte) ([]byte, error) {
	out := make([]byte, 0, len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' {
			out = append(out, c)
			continue
		}
		i++
		if i >= len(body) {
			return nil, errors.New("dangling escape at end of region")
		}
		switch body[i] {
		case '\n':
		case '\r':
			if i+1 < len(body) && body[i+1] == '\n' {
				i++
			}
		case '"', '\\', '\'', '?':
			out = append(out, body[i])
		case 'n':
			out = append(out, '\n')
		case 't':
			out = append(out, '\t')
		default:
			return nil, fmt.Errorf("unsupported escape \\%c at byte %d", body[i], i)
		}
	}
	return out, nil
}
