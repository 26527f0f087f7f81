package host

import (
	"errors"
	"strings"
)

// ErrUnmatchedBrace is returned by SplitList for an unbalanced open brace.
var ErrUnmatchedBrace = errors.New("unmatched open brace in list")

// ErrUnmatchedQuote is returned by SplitList for an unterminated quote.
var ErrUnmatchedQuote = errors.New("unmatched open quote in list")

// FormatList joins elements into a Tcl list, quoting where needed so that
// SplitList returns the original elements.
func FormatList(elems []string) string {
	var b strings.Builder
	for i, e := range elems {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(QuoteElement(e))
	}
	return b.String()
}

// QuoteElement returns e in a form that reads back as one list element.
func QuoteElement(e string) string {
	if e == "" {
		return "{}"
	}
	if !needsQuoting(e) {
		return e
	}
	if bracesBalanced(e) && !strings.HasSuffix(e, `\`) {
		return "{" + e + "}"
	}
	var b strings.Builder
	for _, r := range e {
		switch r {
		case ' ', '\t', '{', '}', '[', ']', '$', ';', '"', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func needsQuoting(e string) bool {
	if e[0] == '#' {
		return true
	}
	return strings.ContainsAny(e, " \t\n\r{}[]$;\"\\")
}

func bracesBalanced(e string) bool {
	depth := 0
	for i := 0; i < len(e); i++ {
		switch e[i] {
		case '\\':
			i++
		case '{':
			depth++
		case '}':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

// SplitList parses a Tcl list into its elements.
func SplitList(s string) ([]string, error) {
	var out []string
	i := 0
	for {
		for i < len(s) && isListSpace(s[i]) {
			i++
		}
		if i >= len(s) {
			return out, nil
		}
		switch s[i] {
		case '{':
			depth := 1
			start := i + 1
			i++
			for i < len(s) && depth > 0 {
				switch s[i] {
				case '\\':
					i++
				case '{':
					depth++
				case '}':
					depth--
				}
				i++
			}
			if depth > 0 {
				return nil, ErrUnmatchedBrace
			}
			out = append(out, s[start:i-1])
		case '"':
			var b strings.Builder
			i++
			closed := false
			for i < len(s) {
				if s[i] == '"' {
					closed = true
					i++
					break
				}
				if s[i] == '\\' && i+1 < len(s) {
					b.WriteString(unescape(s[i+1]))
					i += 2
					continue
				}
				b.WriteByte(s[i])
				i++
			}
			if !closed {
				return nil, ErrUnmatchedQuote
			}
			out = append(out, b.String())
		default:
			var b strings.Builder
			for i < len(s) && !isListSpace(s[i]) {
				if s[i] == '\\' && i+1 < len(s) {
					b.WriteString(unescape(s[i+1]))
					i += 2
					continue
				}
				b.WriteByte(s[i])
				i++
			}
			out = append(out, b.String())
		}
	}
}

func isListSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func unescape(c byte) string {
	switch c {
	case 'n':
		return "\n"
	case 't':
		return "\t"
	case 'r':
		return "\r"
	}
	return string(c)
}
