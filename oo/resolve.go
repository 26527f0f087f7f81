package oo

import (
	"strings"

	"github.com/chazu/incr/host"
)

// CompileVar resolves name as seen from code in namespace ns. Only class
// namespaces resolve; fully-qualified names are left to the host.
func (r *Runtime) CompileVar(ns, name string) (host.VarToken, bool) {
	if strings.HasPrefix(name, "::") {
		return nil, false
	}
	c := r.classes[ns]
	if c == nil {
		return nil, false
	}
	lookup, ok := c.resolveVars[name]
	if !ok || !lookup.Accessible {
		return nil, false
	}
	if lookup.Common {
		return commonToken{lookup.Var}, true
	}
	return &instanceToken{rt: r, class: c, v: lookup.Var}, true
}

// ResolveCommand maps a member name used in a class namespace to the
// member command's full name.
func (r *Runtime) ResolveCommand(ns, name string) (string, bool) {
	if strings.HasPrefix(name, "::") {
		return "", false
	}
	c := r.classes[ns]
	if c == nil {
		return "", false
	}
	m, ok := c.resolveCmds[name]
	if !ok || m.command == "" {
		return "", false
	}
	return m.command, true
}

type commonToken struct {
	v *Variable
}

func (t commonToken) Slot() (host.Slot, error) {
	slot, ok := t.v.class.commons[t.v]
	if !ok {
		return nil, errorf(ErrNotFound, "common variable %q no longer exists", t.v.fullName)
	}
	return slot, nil
}

// instanceToken binds to the active object's storage when used.
type instanceToken struct {
	rt    *Runtime
	class *Class
	v     *Variable
}

func (t *instanceToken) Slot() (host.Slot, error) {
	ctx := t.rt.ActiveContext()
	if ctx == nil || ctx.object == nil {
		return nil, errNoObjectContext()
	}
	o := ctx.object
	v := t.v
	if o.class != t.class {
		key := strings.TrimPrefix(v.class.fullName, "::") + "::" + v.name
		lookup, ok := o.class.resolveVars[key]
		if !ok {
			return nil, errorf(ErrAccess, "can't access %q: object %q is not a %s", v.name, displayName(o.name), v.class.fullName)
		}
		v = lookup.Var
	}
	return t.rt.objectSlot(o, v)
}
