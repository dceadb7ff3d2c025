package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// RawPayload is the wire shape returned by the remote report service. Exactly
// one of the table fields (Headers, Rows) or Sections is expected. An empty
// but present list is a shape of its own, so the fields encode as null rather
// than being omitted.
type RawPayload struct {
	Headers  []string     `json:"headers"`
	Rows     []RawRow     `json:"rows"`
	Sections []RawSection `json:"sections"`
}

type RawRow struct {
	Key    string  `json:"key,omitempty"`
	Values []Value `json:"values"`
}

type RawSection struct {
	Title   string   `json:"title"`
	Headers []string `json:"headers"`
	Rows    []RawRow `json:"rows"`
}

// Shape is the detected layout of a payload.
type Shape int

const (
	ShapeUnknown Shape = iota
	ShapeTable
	ShapeSectioned
)

func (p *RawPayload) Shape() Shape {
	switch {
	case p == nil:
		return ShapeUnknown
	case len(p.Sections) > 0:
		return ShapeSectioned
	case p.Headers != nil:
		return ShapeTable
	case p.Sections != nil:
		return ShapeSectioned
	default:
		return ShapeUnknown
	}
}

// NewRawRow is a convenience for building payloads in code.
func NewRawRow(values ...string) RawRow {
	row := RawRow{Values: make([]Value, len(values))}
	for i, v := range values {
		row.Values[i] = Value(v)
	}
	return row
}

// Value is a cell value as text. The remote service may send strings, numbers,
// booleans or null; all arrive here as their textual form, null as "".
type Value string

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*v = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Value(s)
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("false")):
		*v = Value(data)
	case data[0] == '{' || data[0] == '[':
		*v = Value(data)
	default:
		if _, err := strconv.ParseFloat(string(data), 64); err != nil {
			return fmt.Errorf("unsupported cell value %s", data)
		}
		*v = Value(data)
	}
	return nil
}

// DecodePayload reads a JSON payload.
func DecodePayload(r io.Reader) (*RawPayload, error) {
	var p RawPayload
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to decode report payload: %w", err)
	}
	return &p, nil
}
