// Package output renders command results as styled text, markdown or JSON.
//
// Output adapts to the environment: a terminal gets styled tables, a pipe
// gets markdown (agent-friendly), and --output json forces machine-readable
// output.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Mode selects the output format.
type Mode string

const (
	ModeAuto     Mode = "auto"
	ModeText     Mode = "text"
	ModeMarkdown Mode = "markdown"
	ModeJSON     Mode = "json"
)

// Renderer writes command output in the selected mode.
type Renderer struct {
	out  io.Writer
	err  io.Writer
	mode Mode
	env  *termenv.Output
}

// NewRenderer creates a renderer. ModeAuto resolves to text on a terminal
// and markdown otherwise.
func NewRenderer(out, errW io.Writer, mode Mode) *Renderer {
	if mode == "" {
		mode = ModeAuto
	}
	return &Renderer{
		out:  out,
		err:  errW,
		mode: mode,
		env:  termenv.NewOutput(out),
	}
}

// EffectiveMode resolves ModeAuto against the output destination.
func (r *Renderer) EffectiveMode() Mode {
	if r.mode != ModeAuto {
		return r.mode
	}
	if f, ok := r.out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return ModeText
	}
	return ModeMarkdown
}

// Out returns the underlying output writer.
func (r *Renderer) Out() io.Writer {
	return r.out
}

// Header prints a section heading. Level 1 is the page title.
func (r *Renderer) Header(level int, text string) {
	switch r.EffectiveMode() {
	case ModeMarkdown:
		_, _ = fmt.Fprintf(r.out, "\n%s %s\n\n", strings.Repeat("#", level), text)
	case ModeJSON:
		// Headings have no place in JSON output.
	default:
		styled := r.env.String(text).Bold()
		_, _ = fmt.Fprintf(r.out, "\n%s\n", styled)
		if level == 1 {
			_, _ = fmt.Fprintln(r.out, strings.Repeat("=", len(text)))
		}
	}
}

// Table renders a header row and data rows in the effective mode.
// JSON mode emits an array of objects keyed by header.
func (r *Renderer) Table(headers []string, rows [][]string) {
	switch r.EffectiveMode() {
	case ModeJSON:
		out := make([]map[string]string, 0, len(rows))
		for _, row := range rows {
			obj := make(map[string]string, len(headers))
			for i, h := range headers {
				if i < len(row) {
					obj[h] = row[i]
				}
			}
			out = append(out, obj)
		}
		r.JSON(out)
	case ModeMarkdown:
		t := r.newTable(headers, rows)
		t.RenderMarkdown()
	default:
		t := r.newTable(headers, rows)
		t.SetStyle(table.StyleLight)
		t.Render()
	}
}

func (r *Renderer) newTable(headers []string, rows [][]string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)

	headerRow := make(table.Row, len(headers))
	for i, h := range headers {
		headerRow[i] = h
	}
	t.AppendHeader(headerRow)

	for _, row := range rows {
		tr := make(table.Row, len(row))
		for i, cell := range row {
			tr[i] = cell
		}
		t.AppendRow(tr)
	}
	return t
}

// JSON writes v as indented JSON regardless of mode.
func (r *Renderer) JSON(v any) {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// Printf writes formatted text to the output stream.
func (r *Renderer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

// Println writes a line to the output stream.
func (r *Renderer) Println(args ...any) {
	_, _ = fmt.Fprintln(r.out, args...)
}

// Successf writes a success line, green on terminals.
func (r *Renderer) Successf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if r.EffectiveMode() == ModeText {
		msg = r.env.String(msg).Foreground(r.env.Color("2")).String()
	}
	_, _ = fmt.Fprintln(r.out, msg)
}

// Errorf writes an error line to the error stream, red on terminals.
func (r *Renderer) Errorf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if r.EffectiveMode() == ModeText {
		msg = r.env.String(msg).Foreground(r.env.Color("1")).String()
	}
	_, _ = fmt.Fprintln(r.err, msg)
}
