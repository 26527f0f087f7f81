package interp

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chazu/incr/host"
)

var errNoSuchVar = errors.New("no such variable")

// Frame is one activation: the global frame or a body run by Evaluate.
// It implements host.Scope.
type Frame struct {
	interp   *Interp
	ns       string
	locals   map[string]*Var
	resolver host.Resolver
	level    int
	name     string
}

var _ host.Scope = (*Frame)(nil)

// Namespace returns the frame's current namespace.
func (f *Frame) Namespace() string { return f.ns }

// Level is 0 for the global frame.
func (f *Frame) Level() int { return f.level }

// Name is the request name the frame was created for.
func (f *Frame) Name() string { return f.name }

// Interp returns the owning interpreter.
func (f *Frame) Interp() *Interp { return f.interp }

// Eval runs script in this frame. A return inside script ends it early
// and yields the returned value.
func (f *Frame) Eval(script string) (string, error) {
	res, err := f.eval(script)
	var ret *returnSignal
	if errors.As(err, &ret) {
		return ret.value, nil
	}
	return res, err
}

// Invoke runs a command from already-split words.
func (f *Frame) Invoke(words ...string) (string, error) {
	if len(words) == 0 {
		return "", nil
	}
	prev := f.interp.active
	f.interp.active = f
	defer func() { f.interp.active = prev }()
	return f.invoke(words)
}

func (f *Frame) invoke(words []string) (string, error) {
	full, cmd := f.interp.lookupCommand(f.ns, words[0], f.resolver)
	if cmd == nil {
		return "", fmt.Errorf("invalid command name %q", words[0])
	}
	return cmd.fn(&host.Call{Name: words[0], FullName: full, Args: words[1:], Namespace: f.ns})
}

// splitElem splits "name(key)" into name and key.
func splitElem(name string) (string, string, bool) {
	if !strings.HasSuffix(name, ")") {
		return name, "", false
	}
	open := strings.IndexByte(name, '(')
	if open <= 0 {
		return name, "", false
	}
	return name[:open], name[open+1 : len(name)-1], true
}

// lookup finds the storage for name: locals, then the resolver, then
// namespace variables. Only the global frame sees unqualified namespace
// variables.
func (f *Frame) lookup(name string, create bool) (host.Slot, error) {
	qualified := strings.Contains(name, "::")
	if f.level > 0 && !qualified {
		if v, ok := f.locals[name]; ok {
			return v, nil
		}
	}
	if f.resolver != nil && !strings.HasPrefix(name, "::") {
		if tok, ok := f.resolver.CompileVar(f.ns, name); ok {
			return tok.Slot()
		}
	}
	if qualified || f.level == 0 {
		ns, tail := splitQualified(qualify(f.ns, name))
		if v, ok := f.interp.findVar(ns, tail); ok {
			return v, nil
		}
		if !create {
			return nil, errNoSuchVar
		}
		if !f.interp.NamespaceExists(ns) {
			return nil, errors.New("parent namespace doesn't exist")
		}
		return f.interp.CreateVar(ns, tail)
	}
	if !create {
		return nil, errNoSuchVar
	}
	v := newVar(name)
	f.locals[name] = v
	return v, nil
}

// Var reads a variable or array element.
func (f *Frame) Var(name string) (string, error) {
	base, key, elem := splitElem(name)
	slot, err := f.lookup(base, false)
	if err != nil {
		return "", fmt.Errorf("can't read %q: %w", name, err)
	}
	if !elem {
		return slot.Get()
	}
	arr, ok := slot.(host.Array)
	if !ok {
		return "", fmt.Errorf("can't read %q: variable isn't array", name)
	}
	return arr.GetElem(key)
}

// SetVar assigns a variable or array element, creating it if needed.
func (f *Frame) SetVar(name, value string) error {
	base, key, elem := splitElem(name)
	slot, err := f.lookup(base, true)
	if err != nil {
		return fmt.Errorf("can't set %q: %w", name, err)
	}
	if !elem {
		return slot.Set(value)
	}
	arr, ok := slot.(host.Array)
	if !ok {
		return fmt.Errorf("can't set %q: variable isn't array", name)
	}
	return arr.SetElem(key, value)
}

// UnsetVar removes a scalar or array variable.
func (f *Frame) UnsetVar(name string) error {
	if _, _, elem := splitElem(name); elem {
		return fmt.Errorf("can't unset %q: element unset not supported", name)
	}
	slot, err := f.lookup(name, false)
	if err != nil {
		return fmt.Errorf("can't unset %q: %w", name, err)
	}
	if f.level > 0 {
		delete(f.locals, name)
	}
	return slot.Unset()
}

// linkGlobal makes name in this frame refer to the global variable of the
// same name.
func (f *Frame) linkGlobal(name string) error {
	if f.level == 0 {
		return nil
	}
	slot, err := f.interp.CreateVar("::", name)
	if err != nil {
		return err
	}
	f.locals[name] = slot.(*Var)
	return nil
}
