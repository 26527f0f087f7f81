package oo

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chazu/incr/host"
)

// CanAccess reports whether code running in fromNs may call m. Private
// members are reachable only from the declaring class. Protected members
// are reachable from classes that inherit the declaring class, and from a
// base class whose own entry for the name is not private, so base code
// can call its overrides.
func (r *Runtime) CanAccess(m *Member, fromNs string) bool {
	switch m.protection {
	case Public:
		return true
	case Private:
		return fromNs == m.class.fullName
	}
	fc := r.classForNamespace(fromNs)
	if fc == nil {
		return false
	}
	if fc.IsA(m.class) {
		return true
	}
	if m.class.IsA(fc) {
		if e, ok := fc.resolveCmds[m.name]; ok && e.protection != Private {
			return true
		}
	}
	return false
}

// Invoke calls m on o from code running in fromNs. o may be nil for
// procs.
func (r *Runtime) Invoke(m *Member, o *Object, fromNs string, args []string) (string, error) {
	if !r.CanAccess(m, fromNs) {
		return "", errorf(ErrAccess, "can't access %q: %s function", m.name, m.protection)
	}
	return r.call(m, o, fromNs, args)
}

func errNoObjectContext() error {
	return errorf(ErrAccess, "cannot access object-specific info without an object context")
}

// call runs m without the protection check.
func (r *Runtime) call(m *Member, o *Object, fromNs string, args []string) (string, error) {
	if m.IsCommon() {
		o = nil
	} else if o == nil {
		return "", errNoObjectContext()
	}
	if !m.code.implemented {
		if err := r.autoloadMember(m); err != nil {
			return "", err
		}
	}
	code := m.code
	if code.args != nil && !code.args.Accepts(len(args)) {
		return "", r.usageError(m, o)
	}

	constructing := false
	if m.IsConstructor() {
		if o.constructed == nil {
			return "", errorf(ErrAccess, "constructor for class %q can only be called during construction", m.class.fullName)
		}
		if o.constructed[m.class] {
			return "", nil
		}
		constructing = true
	}

	code.refs.preserve()
	defer code.refs.release()
	m.class.refs.preserve()
	defer m.class.refs.release()
	if o != nil {
		o.refs.preserve()
		defer o.refs.release()
	}

	var ctx *CallContext
	pre := func(s host.Scope) error {
		ctx = r.pushContext(m, o, fromNs)
		if !constructing {
			return nil
		}
		if h := m.class.initHelper; h != nil && h.code.body != "" {
			var err error
			if s != nil {
				_, err = s.Eval(h.code.body)
			} else {
				_, err = r.host.Evaluate(&host.Request{
					Name:      h.fullName,
					Namespace: m.class.fullName,
					Body:      h.code.body,
					Locals:    code.args.bind(args),
					Resolver:  r,
				})
			}
			if err != nil {
				return err
			}
		}
		return r.constructBases(o, m.class)
	}
	post := func(err error) error {
		if ctx != nil {
			r.popContext(ctx)
		}
		if err == nil && constructing && o.constructed != nil {
			o.constructed[m.class] = true
		}
		return err
	}

	if code.native != nil {
		err := pre(nil)
		var res string
		if err == nil {
			res, err = code.native(&Invocation{Runtime: r, Object: o, Member: m, Namespace: fromNs, Args: args})
		}
		if err = post(err); err != nil {
			return "", err
		}
		return res, nil
	}
	return r.host.Evaluate(&host.Request{
		Name:      m.fullName,
		Namespace: m.class.fullName,
		Body:      code.body,
		Locals:    code.args.bind(args),
		Resolver:  r,
		PreCall:   pre,
		PostCall:  func(_ host.Scope, err error) error { return post(err) },
	})
}

func (r *Runtime) autoloadMember(m *Member) error {
	if r.canAutoload() {
		if _, err := r.autoloader.Autoload(m.fullName); err != nil {
			return err
		}
	}
	if !m.code.implemented {
		return errorf(ErrNotFound, "member function %q is not defined and cannot be autoloaded", m.fullName)
	}
	return nil
}

func (r *Runtime) usageError(m *Member, o *Object) error {
	prefix := m.fullName
	if o != nil && !m.IsCommon() && !m.IsConstructor() && o.name != "" {
		prefix = displayName(o.name) + " " + m.name
	}
	if u := m.usageArgs(); u != "" {
		prefix += " " + u
	}
	return errorf(ErrWrongArgs, "wrong # args: should be \"%s\"", prefix)
}

// ---------------------------------------------------------------------------
// Host commands
// ---------------------------------------------------------------------------

// memberCommand handles "<class>::<name>". Called by its simple name from
// inside an object context it runs the object's most specific override.
func (r *Runtime) memberCommand(m *Member) host.CommandFunc {
	return func(call *host.Call) (string, error) {
		var o *Object
		if ctx := r.ActiveContext(); ctx != nil {
			o = ctx.object
		}
		target := m
		if o != nil && !m.IsConstructor() && !strings.Contains(call.Name, "::") && o.class.IsA(m.class) {
			if vm, ok := o.class.resolveCmds[m.name]; ok {
				target = vm
			}
		}
		if !target.IsCommon() && !target.class.builtin && (o == nil || !o.class.IsA(target.class)) {
			return "", errNoObjectContext()
		}
		return r.Invoke(target, o, call.Namespace, call.Args)
	}
}

func callableFromObject(m *Member) bool {
	return m.flags&(memberConstructor|memberDestructor|memberInitHelper) == 0
}

// objectCommand handles "obj method ?arg ...?".
func (r *Runtime) objectCommand(o *Object) host.CommandFunc {
	return func(call *host.Call) (string, error) {
		if len(call.Args) == 0 {
			return "", errorf(ErrWrongArgs, "wrong # args: should be \"%s option ?arg arg ...?\"", call.Name)
		}
		method, rest := call.Args[0], call.Args[1:]
		if m, ok := o.class.resolveCmds[method]; ok && callableFromObject(m) && r.CanAccess(m, call.Namespace) {
			return r.Invoke(m, o, call.Namespace, rest)
		}
		if d := o.delegates[method]; d != nil {
			return r.forwardMethod(o, d, method, rest)
		}
		if d := o.wildcard; d != nil && !d.excepts(method) {
			return r.forwardMethod(o, d, method, rest)
		}
		return "", r.badOption(o, method, call.Namespace)
	}
}

// badOption lists the methods the caller could have used.
func (r *Runtime) badOption(o *Object, method, fromNs string) error {
	seen := make(map[string]string)
	for name, m := range o.class.resolveCmds {
		if strings.Contains(name, "::") || !callableFromObject(m) || !r.CanAccess(m, fromNs) {
			continue
		}
		seen[name] = m.usageArgs()
	}
	for name := range o.delegates {
		if _, ok := seen[name]; !ok {
			seen[name] = "?arg arg ...?"
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "bad option %q: should be one of...", method)
	obj := displayName(o.name)
	for _, n := range names {
		line := obj + " " + n
		if u := seen[n]; u != "" {
			line += " " + u
		}
		b.WriteString("\n  " + line)
	}
	return errorf(ErrNotFound, "%s", b.String())
}
