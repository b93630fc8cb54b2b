package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type palette struct {
	err, title, loc, gutter, mark, hint, link lipgloss.Style
}

func newPalette(r *lipgloss.Renderer) palette {
	fg := func(c string) lipgloss.Style { return r.NewStyle().Foreground(lipgloss.Color(c)) }
	return palette{
		err:    fg("9").Bold(true),
		title:  r.NewStyle().Bold(true),
		loc:    fg("6"),
		gutter: fg("8"),
		mark:   fg("9"),
		hint:   fg("6"),
		link:   fg("4").Underline(true),
	}
}

// Render formats e for a terminal. r decides whether styles emit color.
func (e *Error) Render(r *lipgloss.Renderer) string {
	p := newPalette(r)
	var b strings.Builder

	b.WriteString("\n" + p.err.Render("ERROR") + " " + p.title.Render(e.Error()) + "\n\n")

	if loc := e.Location; loc != nil {
		b.WriteString("  " + p.loc.Render(loc.String()) + "\n\n")
		for _, l := range loc.Excerpt {
			mark := "  "
			if l.Number == loc.Line {
				mark = p.mark.Render("→ ")
			}
			fmt.Fprintf(&b, "  %s%4d%s%s\n", mark, l.Number, p.gutter.Render(" │ "), l.Text)
			if l.Number == loc.Line && loc.Column > 0 {
				b.WriteString("       " + p.gutter.Render("│ ") + strings.Repeat(" ", loc.Column-1) + p.mark.Render("^") + "\n")
			}
		}
		if len(loc.Excerpt) > 0 {
			b.WriteString("\n")
		}
	}

	if e.Detail != "" {
		for _, line := range wrapText(e.Detail, 70) {
			b.WriteString("  " + line + "\n")
		}
		b.WriteString("\n")
	}
	if e.Hint != "" {
		b.WriteString("  " + p.hint.Render("Hint: ") + e.Hint + "\n\n")
	}
	if url := e.DocURL(); url != "" {
		b.WriteString("  " + p.gutter.Render("Learn more: ") + p.link.Render(url) + "\n")
	}
	return b.String()
}

// FormatCompact is the single-line form: location, then the error.
func (e *Error) FormatCompact() string {
	if e.Location == nil {
		return e.Error()
	}
	return e.Location.String() + ": " + e.Error()
}

// MarshalJSON encodes the error with its cause flattened to a string.
func (e *Error) MarshalJSON() ([]byte, error) {
	out := struct {
		Code     string    `json:"code,omitempty"`
		Category Category  `json:"category"`
		Message  string    `json:"message"`
		Detail   string    `json:"detail,omitempty"`
		Hint     string    `json:"hint,omitempty"`
		Location *Location `json:"location,omitempty"`
		Cause    string    `json:"cause,omitempty"`
		DocURL   string    `json:"docUrl,omitempty"`
	}{
		Code: e.Code, Category: e.Category, Message: e.Message, Detail: e.Detail,
		Hint: e.Hint, Location: e.Location, DocURL: e.DocURL(),
	}
	if e.Cause != nil {
		out.Cause = e.Cause.Error()
	}
	return json.Marshal(out)
}

func wrapText(text string, width int) []string {
	var lines []string
	var cur []string
	n := 0
	for _, word := range strings.Fields(text) {
		if n > 0 && n+1+len(word) > width {
			lines = append(lines, strings.Join(cur, " "))
			cur, n = cur[:0], 0
		}
		if n > 0 {
			n++
		}
		cur = append(cur, word)
		n += len(word)
	}
	if len(cur) > 0 {
		lines = append(lines, strings.Join(cur, " "))
	}
	return lines
}

// Print writes err to w, rendered when it is an *Error. Color is used only
// when w is a terminal that supports it.
func Print(w io.Writer, err error) {
	r := lipgloss.NewRenderer(w)
	var e *Error
	if errors.As(err, &e) {
		fmt.Fprint(w, e.Render(r))
		return
	}
	fmt.Fprintf(w, "\n%s %s\n\n", newPalette(r).err.Render("ERROR:"), err.Error())
}
