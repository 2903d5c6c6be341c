// Package output renders CLI command results as tables, JSON, or YAML.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Format selects how a command renders its result.
type Format string

const (
	// FormatTable renders a human-readable table. This is the default.
	FormatTable Format = "table"
	// FormatJSON renders indented JSON, suitable for piping into jq.
	FormatJSON Format = "json"
	// FormatYAML renders YAML.
	FormatYAML Format = "yaml"
)

// ParseFormat parses the value of a --output flag.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "table", "":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("invalid output format: %q (valid: table, json, yaml)", s)
	}
}

func (f Format) String() string {
	return string(f)
}

// Printer writes command results to a writer in one configured format.
type Printer struct {
	out    io.Writer
	format Format
	color  bool
}

// NewPrinter creates a Printer writing to out.
func NewPrinter(out io.Writer, format Format, color bool) *Printer {
	return &Printer{out: out, format: format, color: color}
}

// DefaultPrinter writes tables to stdout with color enabled.
func DefaultPrinter() *Printer {
	return NewPrinter(os.Stdout, FormatTable, true)
}

// Format returns the printer's output format.
func (p *Printer) Format() Format {
	return p.format
}

// Writer returns the underlying writer, for renderers that need it directly.
func (p *Printer) Writer() io.Writer {
	return p.out
}

// Print renders data in the configured format. Table format requires data
// to implement TableRenderer; anything else falls back to JSON so that a
// missing renderer degrades to something usable instead of an error.
func (p *Printer) Print(data any) error {
	switch p.format {
	case FormatTable:
		if renderer, ok := data.(TableRenderer); ok {
			return PrintTable(p.out, renderer)
		}
		return PrintJSON(p.out, data)
	case FormatJSON:
		return PrintJSON(p.out, data)
	case FormatYAML:
		return PrintYAML(p.out, data)
	default:
		return fmt.Errorf("unknown format: %s", p.format)
	}
}

// Println prints a plain message line.
func (p *Printer) Println(args ...any) {
	_, _ = fmt.Fprintln(p.out, args...)
}

// Printf prints a formatted message.
func (p *Printer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format, args...)
}

// Success prints msg in green when color is enabled.
func (p *Printer) Success(msg string) {
	p.colored("\033[32m", msg)
}

// Error prints msg in red when color is enabled.
func (p *Printer) Error(msg string) {
	p.colored("\033[31m", msg)
}

// Warning prints msg in yellow when color is enabled.
func (p *Printer) Warning(msg string) {
	p.colored("\033[33m", msg)
}

func (p *Printer) colored(code, msg string) {
	if p.color {
		_, _ = fmt.Fprintf(p.out, "%s%s\033[0m\n", code, msg)
		return
	}
	_, _ = fmt.Fprintln(p.out, msg)
}
