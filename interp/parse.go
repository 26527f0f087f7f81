package interp

import (
	"errors"
	"strings"
)

// returnSignal carries the value of a return command out of a body.
type returnSignal struct {
	value string
}

func (r *returnSignal) Error() string { return "invoked \"return\" outside of a proc" }

// eval runs script in f, one command at a time.
func (f *Frame) eval(script string) (string, error) {
	prev := f.interp.active
	f.interp.active = f
	defer func() { f.interp.active = prev }()
	p := &parser{src: script, f: f}
	return p.run()
}

// parser substitutes and runs commands from src. A nested parser runs the
// body of a [command substitution] and stops at its closing bracket.
type parser struct {
	src    string
	pos    int
	f      *Frame
	nested bool
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte { return p.src[p.pos] }

func (p *parser) run() (string, error) {
	result := ""
	for {
		words, done, err := p.command()
		if err != nil {
			return "", err
		}
		if len(words) > 0 {
			if result, err = p.f.invoke(words); err != nil {
				return "", err
			}
		}
		if done {
			return result, nil
		}
	}
}

// command reads the words of the next command. done reports that the
// script (or bracketed script) has ended.
func (p *parser) command() (words []string, done bool, err error) {
	p.skipSeparators()
	if p.eof() {
		if p.nested {
			return nil, true, errors.New("missing close-bracket")
		}
		return nil, true, nil
	}
	if p.nested && p.peek() == ']' {
		p.pos++
		return nil, true, nil
	}
	for {
		p.skipBlanks()
		if p.eof() {
			if p.nested {
				return nil, true, errors.New("missing close-bracket")
			}
			return words, true, nil
		}
		switch c := p.peek(); {
		case c == '\n' || c == ';':
			p.pos++
			return words, false, nil
		case c == ']' && p.nested:
			p.pos++
			return words, true, nil
		}
		w, err := p.word()
		if err != nil {
			return nil, true, err
		}
		words = append(words, w)
	}
}

// skipSeparators skips blank lines, semicolons and comments between
// commands.
func (p *parser) skipSeparators() {
	for !p.eof() {
		switch p.peek() {
		case ' ', '\t', '\r', '\n', ';':
			p.pos++
		case '#':
			for !p.eof() && p.peek() != '\n' {
				if p.peek() == '\\' && p.pos+1 < len(p.src) {
					p.pos++
				}
				p.pos++
			}
		default:
			return
		}
	}
}

// skipBlanks skips spaces and escaped newlines inside a command.
func (p *parser) skipBlanks() {
	for !p.eof() {
		c := p.peek()
		switch {
		case c == ' ' || c == '\t' || c == '\r':
			p.pos++
		case c == '\\' && p.pos+1 < len(p.src) && p.src[p.pos+1] == '\n':
			p.pos += 2
		default:
			return
		}
	}
}

func (p *parser) word() (string, error) {
	switch p.peek() {
	case '{':
		return p.braced()
	case '"':
		return p.quoted()
	default:
		return p.bare()
	}
}

func (p *parser) braced() (string, error) {
	start := p.pos + 1
	depth := 0
	for ; !p.eof(); p.pos++ {
		switch p.peek() {
		case '\\':
			p.pos++
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				w := p.src[start:p.pos]
				p.pos++
				if !p.atWordEnd() {
					return "", errors.New("extra characters after close-brace")
				}
				return w, nil
			}
		}
	}
	return "", errors.New("missing close-brace")
}

func (p *parser) quoted() (string, error) {
	p.pos++
	var b strings.Builder
	for !p.eof() {
		c := p.peek()
		if c == '"' {
			p.pos++
			if !p.atWordEnd() {
				return "", errors.New("extra characters after close-quote")
			}
			return b.String(), nil
		}
		if err := p.substOne(&b); err != nil {
			return "", err
		}
	}
	return "", errors.New("missing \"")
}

func (p *parser) bare() (string, error) {
	var b strings.Builder
	for !p.atWordEnd() {
		if err := p.substOne(&b); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

func (p *parser) atWordEnd() bool {
	if p.eof() {
		return true
	}
	switch p.peek() {
	case ' ', '\t', '\r', '\n', ';':
		return true
	case ']':
		return p.nested
	}
	return false
}

// substOne consumes one character or one substitution into b.
func (p *parser) substOne(b *strings.Builder) error {
	switch p.peek() {
	case '$':
		return p.substVar(b)
	case '[':
		return p.substCmd(b)
	case '\\':
		p.backslash(b)
		return nil
	}
	b.WriteByte(p.peek())
	p.pos++
	return nil
}

func (p *parser) backslash(b *strings.Builder) {
	p.pos++
	if p.eof() {
		b.WriteByte('\\')
		return
	}
	c := p.peek()
	p.pos++
	switch c {
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case '\n':
		b.WriteByte(' ')
	default:
		b.WriteByte(c)
	}
}

func isNameByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func (p *parser) substVar(b *strings.Builder) error {
	p.pos++
	if p.eof() {
		b.WriteByte('$')
		return nil
	}
	var name string
	if p.peek() == '{' {
		end := strings.IndexByte(p.src[p.pos:], '}')
		if end < 0 {
			return errors.New("missing close-brace for variable name")
		}
		name = p.src[p.pos+1 : p.pos+end]
		p.pos += end + 1
	} else {
		start := p.pos
		for !p.eof() {
			if isNameByte(p.peek()) {
				p.pos++
			} else if strings.HasPrefix(p.src[p.pos:], "::") {
				p.pos += 2
			} else {
				break
			}
		}
		name = p.src[start:p.pos]
		if name == "" {
			b.WriteByte('$')
			return nil
		}
		if !p.eof() && p.peek() == '(' {
			key, err := p.index()
			if err != nil {
				return err
			}
			name += "(" + key + ")"
		}
	}
	val, err := p.f.Var(name)
	if err != nil {
		return err
	}
	b.WriteString(val)
	return nil
}

// index reads a substituted array index up to the closing paren.
func (p *parser) index() (string, error) {
	p.pos++
	var b strings.Builder
	for !p.eof() {
		if p.peek() == ')' {
			p.pos++
			return b.String(), nil
		}
		if err := p.substOne(&b); err != nil {
			return "", err
		}
	}
	return "", errors.New("missing )")
}

func (p *parser) substCmd(b *strings.Builder) error {
	p.pos++
	sub := &parser{src: p.src, pos: p.pos, f: p.f, nested: true}
	res, err := sub.run()
	if err != nil {
		return err
	}
	p.pos = sub.pos
	b.WriteString(res)
	return nil
}
