package errors

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

// Category groups codes by the part of nimble that raises them.
type Category string

const (
	CategoryTemplate Category = "template"
	CategoryRender   Category = "render"
	CategoryProtocol Category = "protocol"
	CategoryConfig   Category = "config"
	CategoryIO       Category = "io"
	CategoryCLI      Category = "cli"
)

const docBase = "https://nimble-go.dev/docs/errors/"

// Line is a numbered source line.
type Line struct {
	Number int
	Text   string
}

// Location is a position in a template or config file.
type Location struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column,omitempty"`

	// Excerpt is the source around Line. Empty if the file was unreadable.
	Excerpt []Line `json:"-"`
}

func (l *Location) String() string {
	if l == nil {
		return ""
	}
	s := l.File + ":" + strconv.Itoa(l.Line)
	if l.Column > 0 {
		s += ":" + strconv.Itoa(l.Column)
	}
	return s
}

// Error is a coded error. New fills Category, Message and Detail from the
// catalog; the With methods add what only the caller knows.
type Error struct {
	Code     string
	Category Category
	Message  string
	Detail   string
	Hint     string
	Location *Location
	Cause    error
}

// New returns the catalog error for code. Unknown codes keep the code with a
// generic message.
func New(code string) *Error {
	e := &Error{Code: code, Message: "Unknown error"}
	if c, ok := catalog[code]; ok {
		e.Category, e.Message, e.Detail = c.category, c.message, c.detail
	}
	return e
}

func (e *Error) Error() string {
	parts := make([]string, 0, 3)
	if e.Code != "" {
		parts = append(parts, e.Code)
	}
	parts = append(parts, e.Message)
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *Error) Unwrap() error { return e.Cause }

// DocURL links to the page for a catalog code, or is empty.
func (e *Error) DocURL() string {
	if _, ok := catalog[e.Code]; !ok {
		return ""
	}
	return docBase + e.Code
}

func (e *Error) WithDetail(detail string) *Error {
	e.Detail = detail
	return e
}

func (e *Error) WithHint(hint string) *Error {
	e.Hint = hint
	return e
}

func (e *Error) Wrap(cause error) *Error {
	e.Cause = cause
	return e
}

// At records a file position and the two lines either side of it.
func (e *Error) At(file string, line, column int) *Error {
	e.Location = &Location{File: file, Line: line, Column: column, Excerpt: excerpt(file, line, 2)}
	return e
}

func excerpt(file string, line, radius int) []Line {
	f, err := os.Open(file)
	if err != nil {
		return nil
	}
	defer f.Close()

	var out []Line
	s := bufio.NewScanner(f)
	for n := 1; n <= line+radius && s.Scan(); n++ {
		if n >= line-radius {
			out = append(out, Line{Number: n, Text: s.Text()})
		}
	}
	return out
}
