package oo

import (
	"strings"

	"github.com/google/uuid"

	"github.com/chazu/incr/host"
)

// Object is a live instance. It is reached through its access command
// and stays allocated while a call or construction holds a reference.
type Object struct {
	ID uuid.UUID

	rt    *Runtime
	class *Class
	name  string

	vars      map[*Variable]host.Slot
	storageNs string
	optionsNs string

	constructed  map[*Class]bool
	destructed   map[*Class]bool
	contextCache map[*Member]*CallContext

	delegates       map[string]*Delegation
	wildcard        *Delegation
	optionDelegates map[string]*Delegation
	optionWildcard  *Delegation

	deleted        bool
	fullyDestroyed bool
	renamed        bool
	handleGone     bool
	freed          bool
	refs           refs
}

// Name returns the fully-qualified access command name, or "" once the
// command is gone.
func (o *Object) Name() string { return o.name }

// Class returns the most-derived class.
func (o *Object) Class() *Class { return o.class }

// IsA reports whether o is an instance of c or a class derived from it.
func (o *Object) IsA(c *Class) bool { return o.class.IsA(c) }

// Exists reports whether the object is still registered.
func (o *Object) Exists() bool { return o.name != "" && !o.handleGone }

// Renamed reports whether the access command was renamed since creation.
func (o *Object) Renamed() bool { return o.renamed }

// Freed reports whether the object's storage has been released.
func (o *Object) Freed() bool { return o.freed }

// Var reads a variable visible from the object's class. The name may be
// qualified.
func (o *Object) Var(name string) (string, error) {
	slot, err := o.slotByName(name)
	if err != nil {
		return "", err
	}
	return slot.Get()
}

// SetVar assigns a variable visible from the object's class.
func (o *Object) SetVar(name, value string) error {
	slot, err := o.slotByName(name)
	if err != nil {
		return err
	}
	return slot.Set(value)
}

func (o *Object) slotByName(name string) (host.Slot, error) {
	lookup, ok := o.class.resolveVars[name]
	if !ok {
		return nil, errorf(ErrNotFound, "variable %q not found in class %q", name, o.class.fullName)
	}
	return o.rt.objectSlot(o, lookup.Var)
}

// classStorageNs returns the per-object namespace for c's instance
// variables.
func (o *Object) classStorageNs(c *Class) string {
	return o.storageNs + "::" + strings.TrimPrefix(c.fullName, "::")
}

// objectSlot returns the storage for v in o, creating it on first use.
func (r *Runtime) objectSlot(o *Object, v *Variable) (host.Slot, error) {
	if o.freed {
		return nil, errorf(ErrNotFound, "object storage has been released")
	}
	if v.common {
		return v.class.commons[v], nil
	}
	if slot, ok := o.vars[v]; ok {
		return slot, nil
	}
	var slot host.Slot
	switch {
	case v.flags&varThis != 0:
		slot = thisSlot{o}
	case v.flags&varOptions != 0:
		if err := r.host.CreateNamespace(o.optionsNs); err != nil {
			return nil, err
		}
		arr, err := r.host.CreateArray(o.optionsNs, "options")
		if err != nil {
			return nil, err
		}
		slot = arr
	default:
		ns := o.classStorageNs(v.class)
		if err := r.host.CreateNamespace(ns); err != nil {
			return nil, err
		}
		s, err := r.host.CreateVar(ns, v.name)
		if err != nil {
			return nil, err
		}
		slot = s
	}
	o.vars[v] = slot
	return slot, nil
}

// optionsArray returns the options array of an extended object.
func (r *Runtime) optionsArray(o *Object) (host.Array, error) {
	v := o.class.resolveVars["options"]
	if v == nil || v.Var.flags&varOptions == 0 {
		return nil, errorf(ErrNotFound, "class %q has no options", o.class.fullName)
	}
	slot, err := r.objectSlot(o, v.Var)
	if err != nil {
		return nil, err
	}
	return slot.(host.Array), nil
}

// initStorage aliases common variables for every class in the heritage,
// then initializes instance variables with their defaults.
func (r *Runtime) initStorage(o *Object) error {
	for _, h := range o.class.heritage {
		for v, slot := range h.commons {
			o.vars[v] = slot
		}
	}
	for i := len(o.class.heritage) - 1; i >= 0; i-- {
		h := o.class.heritage[i]
		for _, vn := range h.varOrder {
			v := h.variables[vn]
			if v.common {
				continue
			}
			slot, err := r.objectSlot(o, v)
			if err != nil {
				return err
			}
			if v.flags&(varThis|varOptions) != 0 {
				continue
			}
			if def, ok := v.Default(); ok {
				if err := slot.Set(def); err != nil {
					return err
				}
			} else if v.flags&varComponent != 0 {
				if err := slot.Set(""); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// freeStorage releases the object's namespaces.
func (r *Runtime) freeStorage(o *Object) {
	if o.freed {
		return
	}
	o.freed = true
	for _, ns := range []string{o.storageNs, o.optionsNs} {
		if r.host.NamespaceExists(ns) {
			_ = r.host.DeleteNamespace(ns)
		}
	}
	o.vars = nil
	o.contextCache = nil
	log.Debugf("released storage of object %s", o.ID)
}

// thisSlot computes the object's current access name on every read.
type thisSlot struct {
	o *Object
}

func (s thisSlot) Get() (string, error) { return s.o.name, nil }

func (s thisSlot) Set(string) error {
	return errorf(ErrAccess, "can't set %q: variable is read-only", "this")
}

func (s thisSlot) Unset() error {
	return errorf(ErrAccess, "can't unset %q: variable is read-only", "this")
}

// FindObject returns the live object whose access command is name.
// Relative names are resolved against the global namespace.
func (r *Runtime) FindObject(name string) (*Object, bool) {
	full := qualify("::", name)
	for _, o := range r.objects {
		if o.name == full {
			return o, true
		}
	}
	return nil, false
}

func (r *Runtime) unregister(o *Object) {
	for i, k := range r.objects {
		if k == o {
			r.objects = append(r.objects[:i], r.objects[i+1:]...)
			return
		}
	}
}
