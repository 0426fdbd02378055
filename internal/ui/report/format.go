package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/imamik/cephprobe/internal/readiness"
)

// Format is an output format.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat parses an output format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatTable, nil
	}
	return "", fmt.Errorf("unknown output format %q (want table, json or yaml)", s)
}

// Write renders r to w in the given format. color only affects tables.
func Write(w io.Writer, r *readiness.Report, f Format, color bool) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatYAML:
		return WriteYAML(w, r)
	default:
		return WriteTable(w, r, color)
	}
}

// WriteJSON writes r as indented JSON.
func WriteJSON(w io.Writer, r *readiness.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// WriteYAML writes r as YAML using the JSON field names.
func WriteYAML(w io.Writer, r *readiness.Report) error {
	data, err := Marshal(r, FormatYAML)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Marshal encodes r for export. Tables are not an export format.
func Marshal(r *readiness.Report, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode report: %w", err)
		}
		return append(data, '\n'), nil
	case FormatYAML:
		data, err := yaml.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("failed to encode report: %w", err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("format %q cannot be exported", f)
}

// ContentType returns the media type for an export format.
func ContentType(f Format) string {
	if f == FormatYAML {
		return "application/yaml"
	}
	return "application/json"
}
