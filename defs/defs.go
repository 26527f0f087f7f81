// Package defs reads declarative class definitions from YAML, checks them
// against a CUE schema and applies them to a runtime.
package defs

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tliron/commonlog"
	"gopkg.in/yaml.v3"

	"github.com/chazu/incr/oo"
)

var log = commonlog.GetLogger("incr.defs")

// File is one definitions document.
type File struct {
	Classes []ClassDef `yaml:"classes" cbor:"classes"`

	// Path is the file the definitions came from, if any.
	Path string `yaml:"-" cbor:"-"`
}

// ClassDef describes a class and everything it declares.
type ClassDef struct {
	Name        string          `yaml:"name" cbor:"name"`
	Kind        string          `yaml:"kind,omitempty" cbor:"kind,omitempty"`
	Inherit     []string        `yaml:"inherit,omitempty" cbor:"inherit,omitempty"`
	Variables   []VariableDef   `yaml:"variables,omitempty" cbor:"variables,omitempty"`
	Components  []ComponentDef  `yaml:"components,omitempty" cbor:"components,omitempty"`
	Options     []OptionDef     `yaml:"options,omitempty" cbor:"options,omitempty"`
	Methods     []MethodDef     `yaml:"methods,omitempty" cbor:"methods,omitempty"`
	Constructor *ConstructorDef `yaml:"constructor,omitempty" cbor:"constructor,omitempty"`
	Destructor  *string         `yaml:"destructor,omitempty" cbor:"destructor,omitempty"`
	Delegates   []DelegateDef   `yaml:"delegates,omitempty" cbor:"delegates,omitempty"`
}

// VariableDef describes an instance or common variable.
type VariableDef struct {
	Name       string  `yaml:"name" cbor:"name"`
	Protection string  `yaml:"protection,omitempty" cbor:"protection,omitempty"`
	Common     bool    `yaml:"common,omitempty" cbor:"common,omitempty"`
	Default    *string `yaml:"default,omitempty" cbor:"default,omitempty"`
	Config     string  `yaml:"config,omitempty" cbor:"config,omitempty"`
}

// MethodDef describes a method, or a proc when Proc is set. A nil Args
// declares the member without a parameter list; a nil Body leaves it to
// be autoloaded.
type MethodDef struct {
	Name       string   `yaml:"name" cbor:"name"`
	Protection string   `yaml:"protection,omitempty" cbor:"protection,omitempty"`
	Proc       bool     `yaml:"proc,omitempty" cbor:"proc,omitempty"`
	Args       *ArgList `yaml:"args,omitempty" cbor:"args,omitempty"`
	Body       *string  `yaml:"body,omitempty" cbor:"body,omitempty"`
}

// ConstructorDef describes a constructor and its initialization code.
type ConstructorDef struct {
	Args *ArgList `yaml:"args,omitempty" cbor:"args,omitempty"`
	Init string   `yaml:"init,omitempty" cbor:"init,omitempty"`
	Body *string  `yaml:"body,omitempty" cbor:"body,omitempty"`
}

// OptionDef describes an option of an extended class.
type OptionDef struct {
	Name      string `yaml:"name" cbor:"name"`
	Default   string `yaml:"default,omitempty" cbor:"default,omitempty"`
	ReadOnly  bool   `yaml:"readonly,omitempty" cbor:"readonly,omitempty"`
	Cget      string `yaml:"cget,omitempty" cbor:"cget,omitempty"`
	Configure string `yaml:"configure,omitempty" cbor:"configure,omitempty"`
	Validate  string `yaml:"validate,omitempty" cbor:"validate,omitempty"`
}

// ComponentDef describes a component of an extended class.
type ComponentDef struct {
	Name       string `yaml:"name" cbor:"name"`
	Protection string `yaml:"protection,omitempty" cbor:"protection,omitempty"`
}

// DelegateDef forwards a method or an option to a component. Exactly one
// of Method and Option is set.
type DelegateDef struct {
	Method string   `yaml:"method,omitempty" cbor:"method,omitempty"`
	Option string   `yaml:"option,omitempty" cbor:"option,omitempty"`
	To     string   `yaml:"to" cbor:"to"`
	As     string   `yaml:"as,omitempty" cbor:"as,omitempty"`
	Using  string   `yaml:"using,omitempty" cbor:"using,omitempty"`
	Except []string `yaml:"except,omitempty" cbor:"except,omitempty"`
}

// Arg is one parameter. A nil Default makes it required.
type Arg struct {
	Name    string  `yaml:"name" cbor:"name"`
	Default *string `yaml:"default,omitempty" cbor:"default,omitempty"`
}

// ArgList is a parameter list. In YAML it is either a Tcl-style string
// such as "a {b 2} args" or a sequence of names and {name, default}
// mappings.
type ArgList []Arg

func (al *ArgList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		spec, err := oo.ParseArgSpec(value.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", value.Line, err)
		}
		*al = FromArgSpec(spec)
		return nil
	case yaml.SequenceNode:
		out := make(ArgList, 0, len(value.Content))
		for _, n := range value.Content {
			switch n.Kind {
			case yaml.ScalarNode:
				out = append(out, Arg{Name: n.Value})
			case yaml.MappingNode:
				var a Arg
				if err := n.Decode(&a); err != nil {
					return err
				}
				out = append(out, a)
			default:
				return fmt.Errorf("line %d: argument must be a name or a {name, default} mapping", n.Line)
			}
		}
		*al = out
		return nil
	}
	return fmt.Errorf("line %d: args must be a string or a sequence", value.Line)
}

// MarshalYAML writes the compact string form.
func (al ArgList) MarshalYAML() (any, error) {
	return al.Spec().String(), nil
}

// Spec converts the list to an oo.ArgSpec.
func (al ArgList) Spec() *oo.ArgSpec {
	args := make([]oo.Arg, len(al))
	for i, a := range al {
		if a.Default != nil {
			args[i] = oo.Opt(a.Name, *a.Default)
		} else {
			args[i] = oo.Req(a.Name)
		}
	}
	return oo.Args(args...)
}

// FromArgSpec converts an oo.ArgSpec. A nil spec gives a nil list.
func FromArgSpec(spec *oo.ArgSpec) ArgList {
	if spec == nil {
		return nil
	}
	out := make(ArgList, len(spec.Args))
	for i, a := range spec.Args {
		out[i] = Arg{Name: a.Name}
		if a.HasDefault {
			def := a.Default
			out[i].Default = &def
		}
	}
	return out
}

// ErrEmpty is returned for documents without content.
var ErrEmpty = errors.New("definitions document is empty")

// Parse decodes and validates a definitions document. source names the
// document in errors.
func Parse(data []byte, source string) (*File, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s: %w", source, ErrEmpty)
	}
	if err := Validate(raw); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	var f File
	if err := decoder.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: %w", source, ErrEmpty)
		}
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	if err := f.check(); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return &f, nil
}

// LoadFile reads and parses a definitions file.
func LoadFile(path string) (*File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", abs, err)
	}
	f, err := Parse(data, abs)
	if err != nil {
		return nil, err
	}
	f.Path = abs
	return f, nil
}

// Marshal writes f as YAML.
func Marshal(f *File) ([]byte, error) {
	var b bytes.Buffer
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// check covers the rules the schema cannot express: unique names
// within a class, and extended-only features.
func (f *File) check() error {
	var issues []string
	seen := make(map[string]bool)
	for _, c := range f.Classes {
		if seen[c.Name] {
			issues = append(issues, fmt.Sprintf("class %q defined more than once", c.Name))
		}
		seen[c.Name] = true
		kind := c.Kind
		if kind == "" {
			kind = "class"
		}
		if kind == "class" && (len(c.Options) > 0 || len(c.Components) > 0 || len(c.Delegates) > 0) {
			issues = append(issues, fmt.Sprintf("class %q: options, components and delegates need an extended kind", c.Name))
		}
		names := make(map[string]bool)
		for _, v := range c.Variables {
			if names[v.Name] {
				issues = append(issues, fmt.Sprintf("class %q: %q declared more than once", c.Name, v.Name))
			}
			names[v.Name] = true
		}
		members := make(map[string]bool)
		for _, m := range c.Methods {
			if members[m.Name] {
				issues = append(issues, fmt.Sprintf("class %q: %q declared more than once", c.Name, m.Name))
			}
			members[m.Name] = true
		}
	}
	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

// ValidationError collects definition problems.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	var b bytes.Buffer
	b.WriteString("invalid class definitions:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}
