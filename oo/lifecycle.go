package oo

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/chazu/incr/host"
)

// ---------------------------------------------------------------------------
// Construction
// ---------------------------------------------------------------------------

// autoName replaces "#auto" in name with the class name, first letter
// lowered, and the next free counter value.
func (r *Runtime) autoName(c *Class, ns, name string) string {
	first, size := utf8.DecodeRuneInString(c.name)
	base := string(unicode.ToLower(first)) + c.name[size:]
	for {
		candidate := strings.Replace(name, "#auto", base+strconv.Itoa(c.autoNum), 1)
		c.autoNum++
		if !r.host.CommandExists(qualify(ns, candidate)) {
			return candidate
		}
	}
}

// CreateObject creates an instance of c named name and runs its
// constructors with args. Relative names are created in the global
// namespace.
func (r *Runtime) CreateObject(c *Class, name string, args []string) (*Object, error) {
	return r.createObjectIn(c, "::", name, args)
}

func (r *Runtime) createObjectIn(c *Class, ns, name string, args []string) (*Object, error) {
	if c.deleting || !c.refs.alive() {
		return nil, errorf(ErrNotFound, "class %q is being deleted", c.fullName)
	}
	if strings.Contains(name, "#auto") {
		name = r.autoName(c, ns, name)
	}
	full := qualify(ns, name)
	cmdNs, tail := splitName(full)
	if r.host.CommandExists(full) {
		return nil, errorf(ErrDuplicate, "command %q already exists in namespace %q", tail, cmdNs)
	}

	c.refs.preserve()
	defer c.refs.release()

	id := uuid.New()
	o := &Object{
		ID:           id,
		rt:           r,
		class:        c,
		name:         full,
		vars:         make(map[*Variable]host.Slot),
		storageNs:    r.storageNs + "::vars::" + id.String(),
		optionsNs:    r.storageNs + "::options::" + id.String(),
		contextCache: make(map[*Member]*CallContext),
	}
	o.refs.preserve()
	defer o.refs.release()

	if err := r.host.CreateCommand(full, r.objectCommand(o), &host.CommandTraces{
		OnRename: func(oldName, newName string) { r.objectRenamed(o, newName) },
		OnDelete: func(string) { r.objectHandleDeleted(o) },
	}); err != nil {
		return nil, err
	}
	r.objects = append(r.objects, o)
	log.Debugf("creating %s %s", c.fullName, full)

	o.constructed = make(map[*Class]bool)
	err := r.initStorage(o)
	if err == nil && c.kind.Extended() {
		err = r.initOptions(o)
	}
	if err == nil {
		err = r.constructClass(o, c, args)
	}
	if err == nil && o.Exists() {
		err = r.installDelegates(o)
	}
	if err == nil && !o.Exists() {
		err = errorf(ErrNotFound, "object %q deleted during construction", displayName(full))
	}

	if err != nil {
		cerr := &ConstructError{Object: displayName(full), Err: err}
		if o.name != "" && r.host.CommandExists(o.name) {
			if terr := r.host.DeleteCommand(o.name); terr != nil && terr.Error() != err.Error() {
				cerr.Teardown = terr
			}
		}
		o.constructed = nil
		log.Debugf("construction of %s failed: %s", full, err)
		return nil, cerr
	}
	o.constructed = nil
	return o, nil
}

// constructClass runs the constructor of c, or constructs its bases
// directly when it has none.
func (r *Runtime) constructClass(o *Object, c *Class, args []string) error {
	if ctor := c.members["constructor"]; ctor != nil {
		_, err := r.call(ctor, o, c.fullName, args)
		return err
	}
	if len(args) > 0 {
		return errorf(ErrWrongArgs, "wrong # args: should be \"%s name\"", c.fullName)
	}
	if err := r.constructBases(o, c); err != nil {
		return err
	}
	o.constructed[c] = true
	return nil
}

// constructBases runs the constructors of c's bases that have not run
// yet, last declared first, with no arguments.
func (r *Runtime) constructBases(o *Object, c *Class) error {
	for i := len(c.bases) - 1; i >= 0; i-- {
		b := c.bases[i]
		if o.constructed == nil || o.constructed[b] {
			continue
		}
		if err := r.constructClass(o, b, nil); err != nil {
			return err
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Destruction
// ---------------------------------------------------------------------------

// DeleteObject destroys o explicitly. If a destructor fails the object
// stays alive and the error is returned.
func (r *Runtime) DeleteObject(o *Object) error {
	if o.destructed != nil {
		return ErrDestructing
	}
	if o.fullyDestroyed {
		return nil
	}
	o.refs.preserve()
	defer o.refs.release()

	o.deleted = true
	if err := r.destruct(o, false); err != nil {
		o.deleted = false
		return err
	}
	r.unregister(o)
	if o.name != "" && r.host.CommandExists(o.name) {
		return r.host.DeleteCommand(o.name)
	}
	return nil
}

// destruct runs every destructor in the heritage once: the most-derived
// class first, then each base in declaration order. With ignoreErrors
// destructor failures are logged and destruction carries on.
func (r *Runtime) destruct(o *Object, ignoreErrors bool) error {
	if o.fullyDestroyed {
		return nil
	}
	if o.destructed != nil {
		if ignoreErrors {
			return nil
		}
		return ErrDestructing
	}
	o.refs.preserve()
	defer o.refs.release()

	o.destructed = make(map[*Class]bool)
	err := r.destructClass(o, o.class, ignoreErrors)
	o.destructed = nil
	if err != nil {
		return err
	}
	o.fullyDestroyed = true
	log.Debugf("destructed %s", o.ID)
	return nil
}

func (r *Runtime) destructClass(o *Object, c *Class, ignoreErrors bool) error {
	if o.destructed[c] {
		return nil
	}
	// During a failed construction only constructed classes are torn down.
	ran := o.constructed == nil || o.constructed[c]
	if d := c.members["destructor"]; d != nil && ran {
		if _, err := r.call(d, o, c.fullName, nil); err != nil {
			if !ignoreErrors {
				return err
			}
			log.Warningf("ignoring error in destructor %s: %s", d.fullName, err)
		}
	}
	o.destructed[c] = true
	for _, b := range c.bases {
		if err := r.destructClass(o, b, ignoreErrors); err != nil {
			return err
		}
	}
	return nil
}

// objectHandleDeleted runs when the access command disappears, whether
// by DeleteObject, rename to "" or namespace deletion.
func (r *Runtime) objectHandleDeleted(o *Object) {
	if o.handleGone {
		return
	}
	o.handleGone = true
	if o.renamed {
		log.Debugf("access command %s of object %s deleted after rename", o.name, o.ID)
	}
	if !o.deleted {
		o.deleted = true
		_ = r.destruct(o, true)
	}
	o.name = ""
	r.unregister(o)
	o.refs.eventuallyFree(func() { r.freeStorage(o) })
}

func (r *Runtime) objectRenamed(o *Object, newName string) {
	o.name = newName
	o.renamed = true
	log.Debugf("object %s renamed to %s", o.ID, newName)
}

// classCommand creates objects: "Class objName ?arg ...?".
func (r *Runtime) classCommand(c *Class) host.CommandFunc {
	return func(call *host.Call) (string, error) {
		if len(call.Args) == 0 {
			return "", errorf(ErrWrongArgs, "wrong # args: should be \"%s objectName ?arg arg ...?\"", call.Name)
		}
		o, err := r.createObjectIn(c, call.Namespace, call.Args[0], call.Args[1:])
		if err != nil {
			return "", err
		}
		ns, tail := splitName(o.name)
		if strings.HasPrefix(call.Args[0], "::") || ns != "::" {
			return o.name, nil
		}
		return tail, nil
	}
}
