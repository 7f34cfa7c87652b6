package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"contextcraft/internal/result"
)

// errReported marks a failure that has already been written to the output.
var errReported = errors.New("command failed")

// Format selects how command output is rendered.
type Format int

const (
	FormatText Format = iota
	FormatJSON
	FormatYAML
)

// Output handles formatted output for the CLI.
type Output struct {
	writer io.Writer
	format Format
}

// NewOutput creates a new Output instance from the global flags.
func NewOutput(cmd *cobra.Command) *Output {
	format := FormatText
	if yamlMode, _ := cmd.Flags().GetBool("yaml"); yamlMode {
		format = FormatYAML
	}
	if jsonMode, _ := cmd.Flags().GetBool("json"); jsonMode {
		format = FormatJSON
	}
	return &Output{writer: cmd.OutOrStdout(), format: format}
}

// IsStructured reports whether JSON or YAML output is selected.
func (o *Output) IsStructured() bool {
	return o.format != FormatText
}

// Structured writes data as JSON or YAML according to the selected format.
func (o *Output) Structured(data any) error {
	if o.format == FormatYAML {
		return o.YAML(data)
	}
	return o.JSON(data)
}

// JSON outputs data as JSON.
func (o *Output) JSON(data any) error {
	encoder := json.NewEncoder(o.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// YAML outputs data as YAML. The value goes through its JSON encoding first
// so field names and custom marshalers match the JSON output.
func (o *Output) YAML(data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}

	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return err
	}
	resetStyle(&node)

	enc := yaml.NewEncoder(o.writer)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return err
	}
	return enc.Close()
}

// resetStyle drops the flow style yaml.v3 keeps from the JSON source.
func resetStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		resetStyle(c)
	}
}

// Println prints a message with newline.
func (o *Output) Println(args ...any) {
	fmt.Fprintln(o.writer, args...)
}

// Printf prints a formatted message.
func (o *Output) Printf(format string, args ...any) {
	fmt.Fprintf(o.writer, format, args...)
}

// Success prints a success message in green.
func (o *Output) Success(format string, args ...any) {
	o.colored(color.New(color.FgGreen), format, args...)
}

// Error prints an error message in red.
func (o *Output) Error(format string, args ...any) {
	o.colored(color.New(color.FgRed), format, args...)
}

// Warning prints a warning message in yellow.
func (o *Output) Warning(format string, args ...any) {
	o.colored(color.New(color.FgYellow), format, args...)
}

// Info prints an info message in cyan.
func (o *Output) Info(format string, args ...any) {
	o.colored(color.New(color.FgCyan), format, args...)
}

// Bold prints a bold message.
func (o *Output) Bold(format string, args ...any) {
	o.colored(color.New(color.Bold), format, args...)
}

// Dim prints a dimmed message.
func (o *Output) Dim(format string, args ...any) {
	o.colored(color.New(color.Faint), format, args...)
}

func (o *Output) colored(c *color.Color, format string, args ...any) {
	c.Fprintln(o.writer, fmt.Sprintf(format, args...))
}

// PnL colors a value by its sign.
func (o *Output) PnL(value float64, text string) string {
	switch {
	case value > 0:
		return color.GreenString(text)
	case value < 0:
		return color.RedString(text)
	}
	return text
}

// Table represents a simple table for output.
type Table struct {
	headers []string
	rows    [][]string
	output  *Output
}

// NewTable creates a new table.
func NewTable(output *Output, headers ...string) *Table {
	return &Table{headers: headers, output: output}
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Render renders the table.
func (t *Table) Render() {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = len(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && visibleLen(cell) > widths[i] {
				widths[i] = visibleLen(cell)
			}
		}
	}

	header := make([]string, len(t.headers))
	for i, h := range t.headers {
		header[i] = PadRight(h, widths[i])
	}
	t.output.Bold("%s", strings.Join(header, "  "))

	for _, row := range t.rows {
		cells := make([]string, 0, len(row))
		for i, cell := range row {
			if i < len(widths) {
				cells = append(cells, cell+strings.Repeat(" ", widths[i]-visibleLen(cell)))
			}
		}
		t.output.Println(strings.TrimRight(strings.Join(cells, "  "), " "))
	}
}

// visibleLen is the rune count of s without ANSI escape sequences.
func visibleLen(s string) int {
	n := 0
	inEscape := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEscape = true
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		default:
			n++
		}
	}
	return n
}

// render writes r as an envelope in structured mode, or hands the value to
// text. A failed Result is reported and turned into errReported so the
// process exits non-zero.
func render[T any](o *Output, r result.Result[T], text func(T)) error {
	if o.IsStructured() {
		if err := o.Structured(r); err != nil {
			return err
		}
		if !r.OK() {
			return errReported
		}
		return nil
	}

	v, ok := r.Value()
	if !ok {
		f := r.Failure()
		o.Error("✗ %s: %s", f.Kind, f.Message)
		return errReported
	}
	text(v)
	return nil
}
