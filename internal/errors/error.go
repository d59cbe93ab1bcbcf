package errors

import (
	"bufio"
	"errors"
	"fmt"
	"os"
)

// Category represents the type of error.
type Category string

const (
	CategoryConfig  Category = "config"
	CategoryRoute   Category = "route"
	CategoryBuild   Category = "build"
	CategoryPublish Category = "publish"
	CategoryCLI     Category = "cli"
)

// Location is a position in a source file.
type Location struct {
	File   string
	Line   int
	Column int
}

// String returns the location as file:line[:column].
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// WaypointError is a structured error with a code, location and hints.
type WaypointError struct {
	// Code is a unique error identifier (e.g., "E201").
	Code string

	// Category groups related codes.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail explains this occurrence.
	Detail string

	// Location is where in a source file the error occurred.
	Location *Location

	// Context contains source lines around Location.
	Context []string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *WaypointError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *WaypointError) Unwrap() error {
	return e.Wrapped
}

// Is matches another *WaypointError with the same code, so callers can
// write errors.Is(err, errors.New("E301")).
func (e *WaypointError) Is(target error) bool {
	t, ok := target.(*WaypointError)
	return ok && t.Code != "" && t.Code == e.Code
}

// WithLocation adds a source location and reads the surrounding lines.
func (e *WaypointError) WithLocation(file string, line, column int) *WaypointError {
	e.Location = &Location{File: file, Line: line, Column: column}
	e.Context = readContextLines(file, line, 5)
	return e
}

// WithSuggestion adds a fix suggestion.
func (e *WaypointError) WithSuggestion(s string) *WaypointError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation.
func (e *WaypointError) WithDetail(d string) *WaypointError {
	e.Detail = d
	return e
}

// WithDetailf adds a formatted detail.
func (e *WaypointError) WithDetailf(format string, args ...any) *WaypointError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// Wrap wraps another error.
func (e *WaypointError) Wrap(err error) *WaypointError {
	e.Wrapped = err
	return e
}

// readContextLines reads lines around targetLine from a file.
func readContextLines(filename string, targetLine, contextSize int) []string {
	file, err := os.Open(filename)
	if err != nil {
		return nil
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	lineNum := 0
	startLine := targetLine - contextSize/2
	endLine := targetLine + contextSize/2

	for scanner.Scan() {
		lineNum++
		if lineNum >= startLine && lineNum <= endLine {
			lines = append(lines, scanner.Text())
		}
		if lineNum > endLine {
			break
		}
	}
	return lines
}

// New creates a WaypointError from a registered code.
func New(code string) *WaypointError {
	template, ok := registry[code]
	if !ok {
		return &WaypointError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &WaypointError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Suggestion: template.Suggestion,
	}
}

// Newf creates an uncoded error with a formatted message.
func Newf(category Category, format string, args ...any) *WaypointError {
	return &WaypointError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError returns err if it already is a *WaypointError, otherwise wraps
// it under code.
func FromError(err error, code string) *WaypointError {
	if err == nil {
		return nil
	}
	var we *WaypointError
	if errors.As(err, &we) {
		return we
	}
	return New(code).WithDetail(err.Error()).Wrap(err)
}

// Code returns the code of the first *WaypointError in err's chain.
func Code(err error) string {
	var we *WaypointError
	if errors.As(err, &we) {
		return we.Code
	}
	return ""
}
