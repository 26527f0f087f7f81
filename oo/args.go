package oo

import (
	"fmt"
	"strings"

	"github.com/chazu/incr/host"
)

// Arg is one formal parameter. A trailing parameter named "args" collects
// the remaining actual arguments as a list.
type Arg struct {
	Name       string
	Default    string
	HasDefault bool
}

// ArgSpec is an ordered parameter list.
type ArgSpec struct {
	Args []Arg
}

// Req returns a required parameter.
func Req(name string) Arg { return Arg{Name: name} }

// Opt returns an optional parameter with a default.
func Opt(name, def string) Arg { return Arg{Name: name, Default: def, HasDefault: true} }

// Args builds an ArgSpec.
func Args(args ...Arg) *ArgSpec { return &ArgSpec{Args: args} }

// ParseArgSpec parses a Tcl-style argument list such as "a {b 2} args".
func ParseArgSpec(s string) (*ArgSpec, error) {
	elems, err := host.SplitList(s)
	if err != nil {
		return nil, err
	}
	spec := &ArgSpec{Args: make([]Arg, 0, len(elems))}
	seen := make(map[string]bool, len(elems))
	for _, e := range elems {
		parts, err := host.SplitList(e)
		if err != nil {
			return nil, err
		}
		var a Arg
		switch len(parts) {
		case 1:
			a = Req(parts[0])
		case 2:
			a = Opt(parts[0], parts[1])
		default:
			return nil, fmt.Errorf("too many fields in argument specifier %q", e)
		}
		if a.Name == "" {
			return nil, fmt.Errorf("argument with no name")
		}
		if strings.Contains(a.Name, "::") {
			return nil, fmt.Errorf("bad argument name %q", a.Name)
		}
		if seen[a.Name] {
			return nil, fmt.Errorf("argument %q appears more than once", a.Name)
		}
		seen[a.Name] = true
		spec.Args = append(spec.Args, a)
	}
	return spec, nil
}

// Variadic reports whether the last parameter is "args".
func (s *ArgSpec) Variadic() bool {
	return s != nil && len(s.Args) > 0 && s.Args[len(s.Args)-1].Name == "args"
}

// MinArgs returns the number of required parameters.
func (s *ArgSpec) MinArgs() int {
	if s == nil {
		return 0
	}
	n := 0
	for i, a := range s.Args {
		if a.HasDefault || (a.Name == "args" && i == len(s.Args)-1) {
			continue
		}
		n++
	}
	return n
}

// MaxArgs returns the largest accepted count, or -1 if unbounded.
func (s *ArgSpec) MaxArgs() int {
	if s == nil {
		return 0
	}
	if s.Variadic() {
		return -1
	}
	return len(s.Args)
}

// Accepts reports whether n actual arguments fit the list.
func (s *ArgSpec) Accepts(n int) bool {
	hi := s.MaxArgs()
	return n >= s.MinArgs() && (hi < 0 || n <= hi)
}

// Usage returns the argument part of a usage message, e.g. "a ?b? ?arg arg ...?".
func (s *ArgSpec) Usage() string {
	if s == nil {
		return ""
	}
	words := make([]string, 0, len(s.Args))
	for i, a := range s.Args {
		switch {
		case a.Name == "args" && i == len(s.Args)-1:
			words = append(words, "?arg arg ...?")
		case a.HasDefault:
			words = append(words, "?"+a.Name+"?")
		default:
			words = append(words, a.Name)
		}
	}
	return strings.Join(words, " ")
}

// String returns the list form accepted by ParseArgSpec.
func (s *ArgSpec) String() string {
	if s == nil {
		return ""
	}
	elems := make([]string, len(s.Args))
	for i, a := range s.Args {
		if a.HasDefault {
			elems[i] = host.FormatList([]string{a.Name, a.Default})
		} else {
			elems[i] = a.Name
		}
	}
	return host.FormatList(elems)
}

// Equivalent reports whether other may replace s as the parameter list of
// an already declared member. Parameter names and default values may
// change; which positions are required or optional may not. A trailing
// "args" in s accepts any remainder.
func (s *ArgSpec) Equivalent(other *ArgSpec) bool {
	if s == nil || other == nil {
		return s.MinArgs() == other.MinArgs() && s.MaxArgs() == other.MaxArgs()
	}
	for i, a := range s.Args {
		if a.Name == "args" && i == len(s.Args)-1 {
			return true
		}
		if i >= len(other.Args) {
			return false
		}
		b := other.Args[i]
		if b.Name == "args" && i == len(other.Args)-1 {
			return false
		}
		if a.HasDefault != b.HasDefault {
			return false
		}
	}
	return len(other.Args) == len(s.Args)
}

// bind maps actual arguments onto the parameters.
func (s *ArgSpec) bind(actual []string) []host.Binding {
	if s == nil {
		return nil
	}
	out := make([]host.Binding, 0, len(s.Args))
	for i, a := range s.Args {
		var v string
		switch {
		case a.Name == "args" && i == len(s.Args)-1:
			if i < len(actual) {
				v = host.FormatList(actual[i:])
			}
		case i < len(actual):
			v = actual[i]
		default:
			v = a.Default
		}
		out = append(out, host.Binding{Name: a.Name, Value: v})
	}
	return out
}
