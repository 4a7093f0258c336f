// Package output renders command results in the selected format.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Format selects how structured results are rendered.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat parses the value of the --output flag.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json, or yaml)", s)
	}
}

// Writer renders values in a fixed format.
type Writer struct {
	format Format
	w      io.Writer
}

// NewWriter creates a writer rendering to w in the given format.
func NewWriter(w io.Writer, format Format) *Writer {
	return &Writer{format: format, w: w}
}

// Format returns the writer's configured format.
func (w *Writer) Format() Format {
	return w.format
}

// Write renders a structured value. In text mode the value's String method is
// used when it has one.
func (w *Writer) Write(v any) error {
	switch w.format {
	case FormatJSON:
		enc := json.NewEncoder(w.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			enc.Close()
			return err
		}
		// Close flushes; a truncated document must not report success.
		return enc.Close()
	default:
		if s, ok := v.(fmt.Stringer); ok {
			_, err := fmt.Fprintln(w.w, s.String())
			return err
		}
		_, err := fmt.Fprintf(w.w, "%+v\n", v)
		return err
	}
}

// Line prints a plain progress line. Only text mode prints it, so JSON and
// YAML output stay machine-parseable.
func (w *Writer) Line(format string, args ...any) {
	if w.format != FormatText {
		return
	}
	_, _ = fmt.Fprintf(w.w, format+"\n", args...)
}
