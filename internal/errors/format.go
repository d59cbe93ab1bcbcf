package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ANSI escape sequences.
const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorCyan  = "\033[36m"
	colorWhite = "\033[37m"
	colorGray  = "\033[90m"
	colorBold  = "\033[1m"
)

var colorEnabled = true

// DisableColors turns off ANSI sequences in Format and Fprint.
func DisableColors() { colorEnabled = false }

// EnableColors turns ANSI sequences back on.
func EnableColors() { colorEnabled = true }

func color(code, text string) string {
	if !colorEnabled {
		return text
	}
	return code + text + colorReset
}

func red(text string) string   { return color(colorRed, text) }
func cyan(text string) string  { return color(colorCyan, text) }
func white(text string) string { return color(colorWhite, text) }
func gray(text string) string  { return color(colorGray, text) }
func bold(text string) string  { return color(colorBold, text) }

const detailWidth = 70

// Format renders the error for a terminal: a headline, the offending
// lines of routes.yaml or modules.yaml when known, the detail, the
// underlying cause and a hint.
func (e *WaypointError) Format() string {
	var b strings.Builder

	b.WriteString("\n")
	if e.Code != "" {
		fmt.Fprintf(&b, "%s%s%s", red(bold("ERROR ")), white(bold(e.Code+": ")), white(e.Message))
	} else {
		fmt.Fprintf(&b, "%s%s", red(bold("ERROR: ")), white(e.Message))
	}
	b.WriteString("\n\n")

	if e.Location != nil {
		fmt.Fprintf(&b, "  %s\n\n", cyan(e.Location.String()))
		if len(e.Context) > 0 {
			e.writeExcerpt(&b)
			b.WriteString("\n")
		}
	}

	if e.Detail != "" {
		for _, line := range wrapText(e.Detail, detailWidth) {
			fmt.Fprintf(&b, "  %s\n", line)
		}
		b.WriteString("\n")
	}

	if cause := e.cause(); cause != "" {
		fmt.Fprintf(&b, "  %s%s\n\n", gray("Caused by: "), cause)
	}

	if e.Suggestion != "" {
		fmt.Fprintf(&b, "  %s%s\n\n", cyan("Hint: "), e.Suggestion)
	}
	return b.String()
}

// writeExcerpt prints Context centered on Location.Line, marking that line
// and, when known, the column.
func (e *WaypointError) writeExcerpt(b *strings.Builder) {
	first := e.Location.Line - len(e.Context)/2
	for i, line := range e.Context {
		n := first + i
		if n != e.Location.Line {
			fmt.Fprintf(b, "    %4d%s%s\n", n, gray(" │ "), line)
			continue
		}
		fmt.Fprintf(b, "  %s%4d%s%s\n", red("→ "), n, gray(" │ "), line)
		if e.Location.Column > 0 {
			fmt.Fprintf(b, "       %s%s%s\n", gray("│ "), strings.Repeat(" ", e.Location.Column-1), red("^"))
		}
	}
}

// cause returns the wrapped error's message unless the detail already
// carries it or it is itself a WaypointError shown elsewhere.
func (e *WaypointError) cause() string {
	if e.Wrapped == nil {
		return ""
	}
	var inner *WaypointError
	if errors.As(e.Wrapped, &inner) {
		return inner.FormatCompact()
	}
	msg := e.Wrapped.Error()
	if strings.Contains(e.Detail, msg) {
		return ""
	}
	return msg
}

// FormatCompact returns "file:line: CODE: message", omitting what is
// unknown. The dev server overlay and log lines use it.
func (e *WaypointError) FormatCompact() string {
	var parts []string
	if e.Location != nil {
		parts = append(parts, e.Location.String())
	}
	if e.Code != "" {
		parts = append(parts, e.Code)
	}
	parts = append(parts, e.Message)
	return strings.Join(parts, ": ")
}

type jsonLocation struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column,omitempty"`
}

type jsonError struct {
	Code       string        `json:"code,omitempty"`
	Category   Category      `json:"category"`
	Message    string        `json:"message"`
	Detail     string        `json:"detail,omitempty"`
	Location   *jsonLocation `json:"location,omitempty"`
	Suggestion string        `json:"suggestion,omitempty"`
	Cause      string        `json:"cause,omitempty"`
}

// FormatJSON returns the error as a single-line JSON object.
func (e *WaypointError) FormatJSON() string {
	out := jsonError{
		Code:       e.Code,
		Category:   e.Category,
		Message:    e.Message,
		Detail:     e.Detail,
		Suggestion: e.Suggestion,
		Cause:      e.cause(),
	}
	if e.Location != nil {
		out.Location = &jsonLocation{File: e.Location.File, Line: e.Location.Line, Column: e.Location.Column}
	}
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Sprintf(`{"message":%q}`, e.Message)
	}
	return string(data)
}

// wrapText breaks text into lines of at most width bytes at word
// boundaries. Words longer than width get a line of their own.
func wrapText(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	lines := []string{words[0]}
	for _, word := range words[1:] {
		last := &lines[len(lines)-1]
		if len(*last)+1+len(word) > width {
			lines = append(lines, word)
			continue
		}
		*last += " " + word
	}
	return lines
}

// Fprint writes err to w: WaypointErrors in full, anything else as a
// one-line ERROR.
func Fprint(w io.Writer, err error) {
	var we *WaypointError
	if errors.As(err, &we) {
		fmt.Fprint(w, we.Format())
		return
	}
	fmt.Fprintf(w, "\n%s %s\n\n", red(bold("ERROR:")), err.Error())
}

// PrintError prints err to stderr.
func PrintError(err error) {
	Fprint(os.Stderr, err)
}
