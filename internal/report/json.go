package report

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/nao1215/anteater/internal/model"
)

// JSONWriter outputs reports as one JSON document followed by a newline.
// URLs are written verbatim: '&', '<' and '>' are not escaped.
type JSONWriter struct {
	baseWriter

	// prefix and indent are passed to json.Encoder.SetIndent. Both empty
	// means compact output.
	prefix string
	indent string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent indents nested values with indent, each line starting with
// prefix.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.prefix = prefix
		w.indent = indent
	}
}

// WithPrettyPrint is WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter. Output is compact unless an indent
// option is given.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the bare report.
func (w *JSONWriter) Write(report *model.CrawlReport) (int, error) {
	return w.encode(report)
}

// encode buffers the document so that a marshal error writes nothing.
func (w *JSONWriter) encode(v any) (int, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent(w.prefix, w.indent)
	if err := enc.Encode(v); err != nil {
		return 0, err
	}
	return w.output.Write(buf.Bytes())
}

// JSONReport is the document written by FullJSONWriter: the report plus
// the version of anteater that produced it.
type JSONReport struct {
	Version string             `json:"version"`
	Report  *model.CrawlReport `json:"report"`
}

// FullJSONWriter outputs reports wrapped in a JSONReport.
type FullJSONWriter struct {
	*JSONWriter
	version string
}

// NewFullJSONWriter creates a FullJSONWriter stamping version into every
// document.
func NewFullJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// Write outputs the wrapped report.
func (w *FullJSONWriter) Write(report *model.CrawlReport) (int, error) {
	return w.encode(JSONReport{Version: w.version, Report: report})
}
