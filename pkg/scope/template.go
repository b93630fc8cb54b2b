package scope

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

// exprMarker matches {{{ raw }}} (group 1) or {{ escaped }} (group 2).
var exprMarker = regexp.MustCompile(`\{\{\{\s*(.+?)\s*\}\}\}|\{\{\s*(.+?)\s*\}\}`)

// interpolate evaluates the expressions of tmpl in a single pass. Values are
// inserted as text and never scanned for markers themselves.
func interpolate(tmpl string, eval func(string) (any, error)) (string, error) {
	matches := exprMarker.FindAllStringSubmatchIndex(tmpl, -1)
	if len(matches) == 0 {
		return tmpl, nil
	}

	var b strings.Builder
	b.Grow(len(tmpl))
	last := 0
	for _, m := range matches {
		b.WriteString(tmpl[last:m[0]])
		last = m[1]

		raw := m[2] >= 0
		expr := tmpl[m[4]:m[5]]
		if raw {
			expr = tmpl[m[2]:m[3]]
		}
		v, err := eval(expr)
		if err != nil {
			return "", fmt.Errorf("interpolate: %w", err)
		}
		s := stringify(v)
		if !raw {
			s = html.EscapeString(s)
		}
		b.WriteString(s)
	}
	b.WriteString(tmpl[last:])
	return b.String(), nil
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []any:
		parts := make([]string, len(x))
		for i, p := range x {
			parts[i] = stringify(p)
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(x)
	}
}
