package oo

import (
	"fmt"
	"strings"

	"github.com/chazu/incr/host"
)

// ClassKind selects the optional subsystems a class supports.
type ClassKind int

const (
	KindClass ClassKind = iota
	KindType
	KindWidget
	KindWidgetAdaptor
	KindExtendedClass
)

var kindNames = [...]string{"class", "type", "widget", "widgetadaptor", "extendedclass"}

func (k ClassKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("ClassKind(%d)", int(k))
}

// ParseClassKind maps a kind name back to its value.
func ParseClassKind(s string) (ClassKind, error) {
	for i, n := range kindNames {
		if n == s {
			return ClassKind(i), nil
		}
	}
	return KindClass, fmt.Errorf("unknown class kind %q", s)
}

// Extended reports whether options, components and delegation are
// available.
func (k ClassKind) Extended() bool { return k != KindClass }

// ---------------------------------------------------------------------------
// Class
// ---------------------------------------------------------------------------

// Class is a class definition. Its namespace has the same name as its
// command.
type Class struct {
	rt       *Runtime
	name     string
	fullName string
	kind     ClassKind

	bases    []*Class
	derived  []*Class
	heritage []*Class

	members     map[string]*Member
	memberOrder []string
	variables   map[string]*Variable
	varOrder    []string
	commons     map[*Variable]host.Slot
	initHelper  *Member

	resolveCmds map[string]*Member
	resolveVars map[string]*VarLookup

	options          map[string]*Option
	optionOrder      []string
	components       map[string]*Component
	delegatedMethods []*Delegation
	delegatedOptions []*Delegation

	autoNum  int
	builtin  bool
	deleting bool
	refs     refs
}

func newClass(r *Runtime, fullName string, kind ClassKind) *Class {
	_, tail := splitName(fullName)
	return &Class{
		rt:          r,
		name:        tail,
		fullName:    fullName,
		kind:        kind,
		members:     make(map[string]*Member),
		variables:   make(map[string]*Variable),
		commons:     make(map[*Variable]host.Slot),
		resolveCmds: make(map[string]*Member),
		resolveVars: make(map[string]*VarLookup),
		options:     make(map[string]*Option),
		components:  make(map[string]*Component),
	}
}

// Name returns the simple class name.
func (c *Class) Name() string { return c.name }

// FullName returns the fully-qualified class name.
func (c *Class) FullName() string { return c.fullName }

// Namespace returns the class namespace.
func (c *Class) Namespace() string { return c.fullName }

// Kind returns the class kind.
func (c *Class) Kind() ClassKind { return c.kind }

// Bases returns the direct base classes in declaration order.
func (c *Class) Bases() []*Class { return append([]*Class(nil), c.bases...) }

// Derived returns the classes that list c as a direct base.
func (c *Class) Derived() []*Class { return append([]*Class(nil), c.derived...) }

// Heritage returns c and all its ancestors, most specific first.
func (c *Class) Heritage() []*Class { return append([]*Class(nil), c.heritage...) }

// IsA reports whether other is c or one of its ancestors.
func (c *Class) IsA(other *Class) bool {
	for _, h := range c.heritage {
		if h == other {
			return true
		}
	}
	return false
}

// Member returns a member declared by c itself.
func (c *Class) Member(name string) *Member { return c.members[name] }

// Variable returns a variable declared by c itself.
func (c *Class) Variable(name string) *Variable { return c.variables[name] }

// Members returns the members declared by c in declaration order.
func (c *Class) Members() []*Member {
	out := make([]*Member, 0, len(c.memberOrder))
	for _, n := range c.memberOrder {
		out = append(out, c.members[n])
	}
	return out
}

// Variables returns the variables declared by c in declaration order.
func (c *Class) Variables() []*Variable {
	out := make([]*Variable, 0, len(c.varOrder))
	for _, n := range c.varOrder {
		out = append(out, c.variables[n])
	}
	return out
}

// InitCode returns the constructor's initialization code, if any.
func (c *Class) InitCode() string {
	if c.initHelper == nil {
		return ""
	}
	return c.initHelper.code.body
}

// Deleted reports whether the class has been deleted.
func (c *Class) Deleted() bool { return !c.refs.alive() }

func (c *Class) String() string { return c.fullName }

// computeHeritage walks bases depth first, left to right, keeping the
// first visit of each class.
func computeHeritage(c *Class) []*Class {
	var out []*Class
	seen := make(map[*Class]bool)
	var walk func(*Class)
	walk = func(k *Class) {
		if seen[k] {
			return
		}
		seen[k] = true
		out = append(out, k)
		for _, b := range k.bases {
			walk(b)
		}
	}
	walk(c)
	return out
}

// inheritPath returns the base chain from c down to target, or nil.
func inheritPath(c, target *Class) []string {
	if c == target {
		return []string{c.name}
	}
	for _, b := range c.bases {
		if p := inheritPath(b, target); p != nil {
			return append([]string{c.name}, p...)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Registry
// ---------------------------------------------------------------------------

// DefineClass creates a class with the given direct bases. Nothing is
// registered if any check fails.
func (r *Runtime) DefineClass(name string, bases []string, kind ClassKind) (*Class, error) {
	full := qualify("::", name)
	ns, tail := splitName(full)
	if tail == "" {
		return nil, errorf(ErrDefinition, "bad class name %q", name)
	}
	if _, exists := r.classes[full]; exists {
		return nil, errorf(ErrDuplicate, "class %q already exists", name)
	}
	if r.host.CommandExists(full) {
		return nil, errorf(ErrDuplicate, "command %q already exists in namespace %q", tail, ns)
	}

	c := newClass(r, full, kind)
	seen := make(map[*Class]bool, len(bases))
	for _, bn := range bases {
		if qualify(ns, bn) == full || qualify("::", bn) == full {
			return nil, errorf(ErrDefinition, "class %q cannot inherit from itself", tail)
		}
		b, err := r.findClassIn(ns, bn, r.autoload)
		if err != nil {
			return nil, err
		}
		if seen[b] {
			return nil, errorf(ErrDefinition, "class %q cannot inherit base class %q more than once", tail, b.name)
		}
		seen[b] = true
		c.bases = append(c.bases, b)
	}
	for i, b := range c.bases {
		for j, other := range c.bases {
			if i == j || !other.IsA(b) {
				continue
			}
			path := append([]string{tail}, inheritPath(other, b)...)
			return nil, errorf(ErrDefinition, "class %q inherits base class %q more than once:\n  %s",
				tail, b.name, strings.Join(path, "->"))
		}
	}
	c.heritage = computeHeritage(c)

	if err := r.host.CreateNamespace(full); err != nil {
		return nil, err
	}
	if err := r.host.CreateCommand(full, r.classCommand(c), &host.CommandTraces{
		OnDelete: func(string) {
			if err := r.DeleteClass(c); err != nil {
				log.Warningf("deleting class %s: %s", c.fullName, err)
			}
		},
	}); err != nil {
		_ = r.host.DeleteNamespace(full)
		return nil, err
	}

	for _, b := range c.bases {
		b.derived = append(b.derived, c)
	}
	r.classes[full] = c
	r.classOrder = append(r.classOrder, c)

	c.addVariable(&Variable{name: "this", protection: Protected, flags: varThis})
	if kind.Extended() {
		c.addVariable(&Variable{name: "options", protection: Protected, flags: varOptions})
	}
	c.buildVirtualTables()

	log.Debugf("defined %s %s heritage=%v", kind, full, c.heritage)
	return c, nil
}

// FindClass looks up a class by name. Relative names are tried against
// the global namespace. With autoload the autoloader is asked for the
// fully-qualified name on a miss.
func (r *Runtime) FindClass(name string, autoload bool) (*Class, error) {
	return r.findClassIn("::", name, autoload)
}

func (r *Runtime) findClassIn(ns, name string, autoload bool) (*Class, error) {
	lookup := func() *Class {
		if c, ok := r.classes[qualify(ns, name)]; ok {
			return c
		}
		if c, ok := r.classes[qualify("::", name)]; ok {
			return c
		}
		return nil
	}
	if c := lookup(); c != nil {
		return c, nil
	}
	if autoload && r.autoloader != nil {
		found, err := r.autoloader.Autoload(qualify("::", name))
		if err != nil {
			return nil, err
		}
		if found {
			if c := lookup(); c != nil {
				return c, nil
			}
		}
	}
	return nil, errorf(ErrNotFound, "class %q not found", name)
}

// classForNamespace returns the class whose namespace is ns.
func (r *Runtime) classForNamespace(ns string) *Class {
	if r.builtin != nil && ns == r.builtin.fullName {
		return r.builtin
	}
	return r.classes[ns]
}

// DeleteClass deletes c. Derived classes go first, then live objects of
// c in creation order. If an object's destructor fails the class and any
// remaining objects are left in place.
func (r *Runtime) DeleteClass(c *Class) error {
	if c.deleting || !c.refs.alive() {
		return nil
	}
	c.deleting = true
	c.refs.preserve()
	defer c.refs.release()

	for _, d := range append([]*Class(nil), c.derived...) {
		if err := r.DeleteClass(d); err != nil {
			c.deleting = false
			return err
		}
	}
	for _, o := range r.Objects() {
		if o.class != c {
			continue
		}
		if err := r.DeleteObject(o); err != nil {
			c.deleting = false
			return fmt.Errorf("%w\n    (while deleting class %q)", err, c.name)
		}
	}

	delete(r.classes, c.fullName)
	for i, k := range r.classOrder {
		if k == c {
			r.classOrder = append(r.classOrder[:i], r.classOrder[i+1:]...)
			break
		}
	}
	for _, b := range c.bases {
		for i, d := range b.derived {
			if d == c {
				b.derived = append(b.derived[:i], b.derived[i+1:]...)
				break
			}
		}
	}
	for _, m := range c.members {
		if m.command != "" && r.host.CommandExists(m.command) {
			_ = r.host.DeleteCommand(m.command)
		}
	}
	if r.host.CommandExists(c.fullName) {
		_ = r.host.DeleteCommand(c.fullName)
	}
	log.Debugf("deleted class %s", c.fullName)

	c.refs.eventuallyFree(func() {
		if r.host.NamespaceExists(c.fullName) {
			_ = r.host.DeleteNamespace(c.fullName)
		}
		for _, m := range c.members {
			m.code.refs.eventuallyFree(m.code.discard)
		}
		c.commons = make(map[*Variable]host.Slot)
	})
	return nil
}
