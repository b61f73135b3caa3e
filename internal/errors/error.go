package errors

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Category represents the area an error originates from.
type Category string

const (
	CategoryRuntime   Category = "runtime"
	CategoryScheduler Category = "scheduler"
	CategoryStorage   Category = "storage"
	CategoryConfig    Category = "config"
	CategoryExport    Category = "export"
	CategoryCLI       Category = "cli"
)

// Location represents a source code location.
type Location struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column,omitempty"`
}

// String returns the location as a formatted string.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// ParseLocation parses "file:line" or "file:line:column".
// It returns nil if s has no line number.
func ParseLocation(s string) *Location {
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return nil
	}
	// Try file:line:column first, then file:line.
	if len(parts) >= 3 {
		line, errLine := strconv.Atoi(parts[len(parts)-2])
		col, errCol := strconv.Atoi(parts[len(parts)-1])
		if errLine == nil && errCol == nil && line > 0 {
			return &Location{File: strings.Join(parts[:len(parts)-2], ":"), Line: line, Column: col}
		}
	}
	line, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil || line <= 0 {
		return nil
	}
	return &Location{File: strings.Join(parts[:len(parts)-1], ":"), Line: line}
}

// ReactiveError is a structured error with an optional node reference,
// source location and fix suggestion.
type ReactiveError struct {
	// Code is a unique error identifier (e.g., "R001").
	Code string

	// Category is the error area.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Node is the handle of the node involved, if any.
	Node string

	// Label is the debug label of the node, if any.
	Label string

	// Location is where the node was created (debug builds only).
	Location *Location

	// Context contains source lines around Location.
	Context []string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *ReactiveError) Error() string {
	var b strings.Builder
	if e.Code != "" {
		b.WriteString(e.Code)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Node != "" {
		fmt.Fprintf(&b, " (node %s", e.Node)
		if e.Label != "" {
			fmt.Fprintf(&b, " %q", e.Label)
		}
		if e.Location != nil {
			fmt.Fprintf(&b, " defined at %s", e.Location)
		}
		b.WriteString(")")
	}
	return b.String()
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *ReactiveError) Unwrap() error {
	return e.Wrapped
}

// WithNode records the node involved in the error.
func (e *ReactiveError) WithNode(handle, label string) *ReactiveError {
	e.Node = handle
	e.Label = label
	return e
}

// WithLocation adds a source location and reads the surrounding lines.
func (e *ReactiveError) WithLocation(file string, line, column int) *ReactiveError {
	e.Location = &Location{File: file, Line: line, Column: column}
	e.Context = readContextLines(file, line, 5)
	return e
}

// WithLocationString is WithLocation for a "file:line" string.
// Unparseable strings are ignored.
func (e *ReactiveError) WithLocationString(s string) *ReactiveError {
	loc := ParseLocation(s)
	if loc == nil {
		return e
	}
	return e.WithLocation(loc.File, loc.Line, loc.Column)
}

// WithSuggestion adds a fix suggestion to the error.
func (e *ReactiveError) WithSuggestion(s string) *ReactiveError {
	e.Suggestion = s
	return e
}

// WithDetail replaces the detailed explanation.
func (e *ReactiveError) WithDetail(d string) *ReactiveError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *ReactiveError) Wrap(err error) *ReactiveError {
	e.Wrapped = err
	return e
}

// readContextLines reads lines around the specified line number from a file.
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

// New creates a ReactiveError from a registered error code.
func New(code string) *ReactiveError {
	template, ok := registry[code]
	if !ok {
		return &ReactiveError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &ReactiveError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
	}
}

// Newf creates a new ReactiveError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *ReactiveError {
	return &ReactiveError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a ReactiveError. Errors that already
// contain a ReactiveError are returned as that error.
func FromError(err error, code string) *ReactiveError {
	if err == nil {
		return nil
	}
	var re *ReactiveError
	if errors.As(err, &re) {
		return re
	}
	return New(code).Wrap(err)
}

// CodeOf returns the code of the first ReactiveError in err's chain.
func CodeOf(err error) string {
	var re *ReactiveError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}
