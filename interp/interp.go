// Package interp is an in-memory Tcl-style host for the object runtime.
//
// It keeps a namespace tree with scalar and array variables, a flat table
// of fully-qualified commands with rename/delete traces, a frame stack, and
// a small script evaluator (words, braces, quotes, $ and [] substitution)
// with a handful of builtin commands. Bodies can also be bound to Go
// functions with DefineScript, which the tests use to observe calls.
package interp

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/chazu/incr/host"
)

// DefaultMaxDepth bounds nested evaluations.
const DefaultMaxDepth = 1000

// ScriptFunc is a Go implementation of a body. It runs in the frame the
// evaluator created for the body.
type ScriptFunc func(f *Frame) (string, error)

// Namespace holds the variables of one namespace path.
type Namespace struct {
	path string
	vars map[string]*Var
}

// Path returns the fully-qualified namespace path.
func (ns *Namespace) Path() string { return ns.path }

type command struct {
	name   string
	fn     host.CommandFunc
	traces *host.CommandTraces
}

// Interp implements host.Host.
type Interp struct {
	namespaces map[string]*Namespace
	commands   map[string]*command
	scripts    map[string]ScriptFunc
	frames     []*Frame
	global     *Frame
	active     *Frame

	// Stdout receives output from the puts builtin.
	Stdout io.Writer
	// MaxDepth bounds nested evaluations; zero means DefaultMaxDepth.
	MaxDepth int
}

var _ host.Host = (*Interp)(nil)

// New creates an interpreter with the global namespace and builtins.
func New() *Interp {
	i := &Interp{
		namespaces: make(map[string]*Namespace),
		commands:   make(map[string]*command),
		scripts:    make(map[string]ScriptFunc),
		Stdout:     os.Stdout,
	}
	i.namespaces["::"] = &Namespace{path: "::", vars: make(map[string]*Var)}
	i.global = &Frame{interp: i, ns: "::", locals: make(map[string]*Var)}
	i.active = i.global
	i.registerBuiltins()
	return i
}

// DefineScript binds body text to a Go function. When a request's body
// matches exactly, fn runs instead of the script evaluator.
func (i *Interp) DefineScript(body string, fn ScriptFunc) {
	i.scripts[body] = fn
}

// Eval runs script in the global frame.
func (i *Interp) Eval(script string) (string, error) {
	res, err := i.run(i.global, script)
	var ret *returnSignal
	if errors.As(err, &ret) {
		return ret.value, nil
	}
	return res, err
}

// GlobalVar returns the value of a global variable.
func (i *Interp) GlobalVar(name string) (string, error) {
	return i.global.Var(name)
}

// SetGlobalVar assigns a global variable.
func (i *Interp) SetGlobalVar(name, value string) error {
	return i.global.SetVar(name, value)
}

// Depth returns the number of active evaluation frames.
func (i *Interp) Depth() int { return len(i.frames) }

// ---------------------------------------------------------------------------
// Namespaces and variables
// ---------------------------------------------------------------------------

// normalize returns a canonical absolute namespace path.
func normalize(path string) string {
	path = strings.TrimSuffix(path, "::")
	if path == "" {
		return "::"
	}
	if !strings.HasPrefix(path, "::") {
		path = "::" + path
	}
	return path
}

// qualify joins ns and a relative name.
func qualify(ns, name string) string {
	if strings.HasPrefix(name, "::") {
		return name
	}
	if ns == "::" || ns == "" {
		return "::" + name
	}
	return ns + "::" + name
}

// splitQualified splits "::a::b::c" into "::a::b" and "c".
func splitQualified(name string) (string, string) {
	idx := strings.LastIndex(name, "::")
	if idx < 0 {
		return "", name
	}
	ns := name[:idx]
	if ns == "" {
		ns = "::"
	}
	return ns, name[idx+2:]
}

// CreateNamespace creates path and its parents.
func (i *Interp) CreateNamespace(path string) error {
	path = normalize(path)
	for p := path; p != "::"; {
		if _, ok := i.namespaces[p]; !ok {
			i.namespaces[p] = &Namespace{path: p, vars: make(map[string]*Var)}
		}
		p, _ = splitQualified(p)
	}
	return nil
}

// NamespaceExists reports whether path exists.
func (i *Interp) NamespaceExists(path string) bool {
	_, ok := i.namespaces[normalize(path)]
	return ok
}

// DeleteNamespace removes path, its children and their commands. Delete
// traces fire after all namespaces are gone, in name order.
func (i *Interp) DeleteNamespace(path string) error {
	path = normalize(path)
	if path == "::" {
		return errors.New("can't delete the global namespace")
	}
	if _, ok := i.namespaces[path]; !ok {
		return fmt.Errorf("namespace %q not found", path)
	}
	prefix := path + "::"
	for p := range i.namespaces {
		if p == path || strings.HasPrefix(p, prefix) {
			delete(i.namespaces, p)
		}
	}
	var doomed []string
	for name := range i.commands {
		if strings.HasPrefix(name, prefix) {
			doomed = append(doomed, name)
		}
	}
	sort.Strings(doomed)
	for _, name := range doomed {
		// A trace from an earlier deletion may already have removed it.
		if _, ok := i.commands[name]; ok {
			_ = i.DeleteCommand(name)
		}
	}
	return nil
}

func (i *Interp) namespace(ns string) (*Namespace, error) {
	n, ok := i.namespaces[normalize(ns)]
	if !ok {
		return nil, fmt.Errorf("namespace %q not found", ns)
	}
	return n, nil
}

// CreateVar returns a scalar variable, creating it unset if needed.
func (i *Interp) CreateVar(ns, name string) (host.Slot, error) {
	n, err := i.namespace(ns)
	if err != nil {
		return nil, err
	}
	if v, ok := n.vars[name]; ok {
		return v, nil
	}
	v := newVar(name)
	n.vars[name] = v
	return v, nil
}

// CreateArray returns an array variable, creating it if needed.
func (i *Interp) CreateArray(ns, name string) (host.Array, error) {
	n, err := i.namespace(ns)
	if err != nil {
		return nil, err
	}
	if v, ok := n.vars[name]; ok {
		if !v.isArray {
			return nil, fmt.Errorf("variable %q isn't array", name)
		}
		return v, nil
	}
	v := newArray(name)
	n.vars[name] = v
	return v, nil
}

// FindVar looks up an existing variable.
func (i *Interp) FindVar(ns, name string) (host.Slot, bool) {
	v, ok := i.findVar(ns, name)
	if !ok {
		return nil, false
	}
	return v, true
}

func (i *Interp) findVar(ns, name string) (*Var, bool) {
	n, ok := i.namespaces[normalize(ns)]
	if !ok {
		return nil, false
	}
	v, ok := n.vars[name]
	return v, ok
}

// ---------------------------------------------------------------------------
// Commands
// ---------------------------------------------------------------------------

// CreateCommand registers fn under a fully-qualified name. An existing
// command of that name is replaced without firing its delete trace.
func (i *Interp) CreateCommand(fullName string, fn host.CommandFunc, traces *host.CommandTraces) error {
	fullName = qualify("::", fullName)
	ns, _ := splitQualified(fullName)
	if !i.NamespaceExists(ns) {
		return fmt.Errorf("can't create command %q: unknown namespace", fullName)
	}
	i.commands[fullName] = &command{name: fullName, fn: fn, traces: traces}
	return nil
}

// DeleteCommand removes a command and fires its delete trace.
func (i *Interp) DeleteCommand(fullName string) error {
	fullName = qualify("::", fullName)
	cmd, ok := i.commands[fullName]
	if !ok {
		return fmt.Errorf("can't delete %q: command doesn't exist", fullName)
	}
	delete(i.commands, fullName)
	if cmd.traces != nil && cmd.traces.OnDelete != nil {
		cmd.traces.OnDelete(fullName)
	}
	return nil
}

// RenameCommand renames a command. An empty newName deletes it.
func (i *Interp) RenameCommand(oldName, newName string) error {
	oldName = qualify("::", oldName)
	if newName == "" {
		return i.DeleteCommand(oldName)
	}
	cmd, ok := i.commands[oldName]
	if !ok {
		return fmt.Errorf("can't rename %q: command doesn't exist", oldName)
	}
	newName = qualify("::", newName)
	if _, exists := i.commands[newName]; exists {
		return fmt.Errorf("can't rename to %q: command already exists", newName)
	}
	delete(i.commands, oldName)
	cmd.name = newName
	i.commands[newName] = cmd
	if cmd.traces != nil && cmd.traces.OnRename != nil {
		cmd.traces.OnRename(oldName, newName)
	}
	return nil
}

// CommandExists reports whether a fully-qualified command exists.
func (i *Interp) CommandExists(fullName string) bool {
	_, ok := i.commands[qualify("::", fullName)]
	return ok
}

// Commands returns all command names in sorted order.
func (i *Interp) Commands() []string {
	names := make([]string, 0, len(i.commands))
	for name := range i.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// InvokeCommand runs words[0] resolved relative to ns.
func (i *Interp) InvokeCommand(ns string, words []string) (string, error) {
	if len(words) == 0 {
		return "", nil
	}
	full, cmd := i.lookupCommand(normalize(ns), words[0], nil)
	if cmd == nil {
		return "", fmt.Errorf("invalid command name %q", words[0])
	}
	return cmd.fn(&host.Call{Name: words[0], FullName: full, Args: words[1:], Namespace: normalize(ns)})
}

// lookupCommand resolves name: resolver first, then the namespace, then
// the global namespace.
func (i *Interp) lookupCommand(ns, name string, resolver host.Resolver) (string, *command) {
	if resolver != nil && !strings.HasPrefix(name, "::") {
		if full, ok := resolver.ResolveCommand(ns, name); ok {
			if cmd, ok := i.commands[full]; ok {
				return full, cmd
			}
		}
	}
	if strings.HasPrefix(name, "::") {
		return name, i.commands[name]
	}
	if ns != "::" {
		full := ns + "::" + name
		if cmd, ok := i.commands[full]; ok {
			return full, cmd
		}
	}
	full := "::" + name
	return full, i.commands[full]
}

// ---------------------------------------------------------------------------
// Evaluation
// ---------------------------------------------------------------------------

// Evaluate runs req.Body in a new frame.
func (i *Interp) Evaluate(req *host.Request) (string, error) {
	max := i.MaxDepth
	if max == 0 {
		max = DefaultMaxDepth
	}
	if len(i.frames) >= max {
		return "", errors.New("too many nested evaluations (infinite loop?)")
	}
	f := &Frame{
		interp:   i,
		ns:       normalize(req.Namespace),
		locals:   make(map[string]*Var, len(req.Locals)),
		resolver: req.Resolver,
		level:    len(i.frames) + 1,
		name:     req.Name,
	}
	for _, b := range req.Locals {
		v := newVar(b.Name)
		v.value, v.set = b.Value, true
		f.locals[b.Name] = v
	}
	i.frames = append(i.frames, f)
	defer func() { i.frames = i.frames[:len(i.frames)-1] }()

	var result string
	var err error
	if req.PreCall != nil {
		err = req.PreCall(f)
	}
	if err == nil {
		result, err = i.run(f, req.Body)
		var ret *returnSignal
		if errors.As(err, &ret) {
			result, err = ret.value, nil
		}
	}
	if req.PostCall != nil {
		err = req.PostCall(f, err)
	}
	if err != nil {
		return "", err
	}
	return result, nil
}

// run evaluates body in f, preferring a bound Go script.
func (i *Interp) run(f *Frame, body string) (string, error) {
	if fn, ok := i.scripts[body]; ok {
		prev := i.active
		i.active = f
		defer func() { i.active = prev }()
		return fn(f)
	}
	return f.eval(body)
}
