package oo

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chazu/incr/host"
)

type builtinDef struct {
	name  string
	usage string
	fn    func(r *Runtime, inv *Invocation) (string, error)
}

var builtinMethods = []builtinDef{
	{"cget", "-option", (*Runtime).builtinCget},
	{"configure", "?-option? ?value -option value...?", (*Runtime).builtinConfigure},
	{"info", "option ?arg arg ...?", (*Runtime).builtinInfo},
	{"isa", "className", (*Runtime).builtinIsa},
}

// installBuiltins creates the internal class whose methods every class
// inherits after its own members.
func (r *Runtime) installBuiltins() error {
	b := newClass(r, r.storageNs+"::builtin", KindClass)
	b.builtin = true
	b.heritage = []*Class{b}
	if err := r.host.CreateNamespace(b.fullName); err != nil {
		return err
	}
	for _, def := range builtinMethods {
		fn := def.fn
		m := &Member{
			name:       def.name,
			class:      b,
			protection: Public,
			flags:      memberBuiltin,
			usage:      def.usage,
			code: &MemberCode{
				native:      func(inv *Invocation) (string, error) { return fn(r, inv) },
				implemented: true,
			},
		}
		if err := r.addMember(b, m); err != nil {
			return err
		}
	}
	r.builtin = b
	return nil
}

// evalInObject runs script in c's namespace with o as the active object.
func (r *Runtime) evalInObject(o *Object, c *Class, script string) (string, error) {
	ctx := r.pushContext(nil, o, c.fullName)
	defer r.popContext(ctx)
	return r.host.Evaluate(&host.Request{
		Name:      c.fullName,
		Namespace: c.fullName,
		Body:      script,
		Resolver:  r,
	})
}

// callMethod runs a method the class itself names, such as an option
// hook, without a protection check.
func (r *Runtime) callMethod(o *Object, name string, args ...string) (string, error) {
	m, ok := o.class.resolveCmds[name]
	if !ok {
		return "", errorf(ErrNotFound, "method %q is not defined in class %q", name, o.class.fullName)
	}
	return r.call(m, o, o.class.fullName, args)
}

// publicVar returns the public instance variable configured as -name.
func (o *Object) publicVar(name string) *Variable {
	lookup, ok := o.class.resolveVars[name]
	if !ok {
		return nil
	}
	v := lookup.Var
	if v.protection != Public || v.common || v.flags != 0 {
		return nil
	}
	return v
}

func errUnknownOption(name string) error {
	return errorf(ErrNotFound, "unknown option %q", name)
}

// ---------------------------------------------------------------------------
// cget / configure
// ---------------------------------------------------------------------------

func (r *Runtime) builtinCget(inv *Invocation) (string, error) {
	o := inv.Object
	if len(inv.Args) != 1 {
		return "", errorf(ErrWrongArgs, "wrong # args: should be \"%s cget -option\"", displayName(o.name))
	}
	name := inv.Args[0]
	if !strings.HasPrefix(name, "-") {
		return "", errUnknownOption(name)
	}
	if opt := o.class.findOption(name); opt != nil {
		if opt.CgetMethod != "" {
			return r.callMethod(o, opt.CgetMethod, name)
		}
		arr, err := r.optionsArray(o)
		if err != nil {
			return "", err
		}
		return arr.GetElem(name)
	}
	if d := o.delegatedOption(name); d != nil {
		return r.forwardOption(o, d, "cget", name)
	}
	v := o.publicVar(name[1:])
	if v == nil {
		return "", errUnknownOption(name)
	}
	slot, err := r.objectSlot(o, v)
	if err != nil {
		return "", err
	}
	val, _ := slot.Get()
	return val, nil
}

// configEntry is one {-name default current} triplet.
type configEntry struct {
	name, def, cur string
}

func (r *Runtime) configEntries(o *Object) ([]configEntry, error) {
	var out []configEntry
	seen := make(map[string]bool)
	for _, h := range o.class.heritage {
		for _, vn := range h.varOrder {
			v := o.publicVar(vn)
			if v == nil || v.class != h || seen[vn] {
				continue
			}
			seen[vn] = true
			slot, err := r.objectSlot(o, v)
			if err != nil {
				return nil, err
			}
			def, _ := v.Default()
			cur, _ := slot.Get()
			out = append(out, configEntry{"-" + vn, def, cur})
		}
	}
	if opts := o.class.allOptions(); len(opts) > 0 {
		for _, opt := range opts {
			cur, err := r.builtinCget(&Invocation{Runtime: r, Object: o, Args: []string{opt.Name}})
			if err != nil {
				return nil, err
			}
			out = append(out, configEntry{opt.Name, opt.Default, cur})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out, nil
}

func (r *Runtime) builtinConfigure(inv *Invocation) (string, error) {
	o := inv.Object
	args := inv.Args
	switch len(args) {
	case 0:
		entries, err := r.configEntries(o)
		if err != nil {
			return "", err
		}
		elems := make([]string, len(entries))
		for i, e := range entries {
			elems[i] = host.FormatList([]string{e.name, e.def, e.cur})
		}
		return host.FormatList(elems), nil
	case 1:
		entries, err := r.configEntries(o)
		if err != nil {
			return "", err
		}
		for _, e := range entries {
			if e.name == args[0] {
				return host.FormatList([]string{e.name, e.def, e.cur}), nil
			}
		}
		if d := o.delegatedOption(args[0]); d != nil {
			return r.forwardOption(o, d, "configure", args[0])
		}
		return "", errUnknownOption(args[0])
	}
	if len(args)%2 != 0 {
		return "", errorf(ErrWrongArgs, "value for %q missing", args[len(args)-1])
	}
	for i := 0; i < len(args); i += 2 {
		if err := r.configureOne(o, args[i], args[i+1]); err != nil {
			return "", err
		}
	}
	return "", nil
}

func (r *Runtime) configureOne(o *Object, name, value string) error {
	if !strings.HasPrefix(name, "-") {
		return errUnknownOption(name)
	}
	if opt := o.class.findOption(name); opt != nil {
		if opt.ReadOnly && o.constructed == nil {
			return errorf(ErrAccess, "option %q can only be set at instance creation", name)
		}
		if opt.ValidateMethod != "" {
			if _, err := r.callMethod(o, opt.ValidateMethod, name, value); err != nil {
				return err
			}
		}
		if opt.ConfigureMethod != "" {
			_, err := r.callMethod(o, opt.ConfigureMethod, name, value)
			return err
		}
		arr, err := r.optionsArray(o)
		if err != nil {
			return err
		}
		return arr.SetElem(name, value)
	}
	if d := o.delegatedOption(name); d != nil {
		_, err := r.forwardOption(o, d, "configure", name, value)
		return err
	}
	v := o.publicVar(name[1:])
	if v == nil {
		return errUnknownOption(name)
	}
	slot, err := r.objectSlot(o, v)
	if err != nil {
		return err
	}
	old, getErr := slot.Get()
	if err := slot.Set(value); err != nil {
		return err
	}
	if v.config == "" {
		return nil
	}
	if _, err := r.evalInObject(o, v.class, v.config); err != nil {
		if getErr == nil {
			_ = slot.Set(old)
		} else {
			_ = slot.Unset()
		}
		return fmt.Errorf("%w\n    (error in configuration of public variable %q)", err, v.fullName)
	}
	return nil
}

// ---------------------------------------------------------------------------
// isa / info
// ---------------------------------------------------------------------------

func (r *Runtime) builtinIsa(inv *Invocation) (string, error) {
	o := inv.Object
	if len(inv.Args) != 1 {
		return "", errorf(ErrWrongArgs, "wrong # args: should be \"%s isa className\"", displayName(o.name))
	}
	c, err := r.findClassIn(inv.Namespace, inv.Args[0], false)
	if err != nil {
		return "", err
	}
	if o.IsA(c) {
		return "1", nil
	}
	return "0", nil
}

func classNames(classes []*Class) string {
	names := make([]string, len(classes))
	for i, c := range classes {
		names[i] = c.fullName
	}
	return host.FormatList(names)
}

func (r *Runtime) builtinInfo(inv *Invocation) (string, error) {
	o := inv.Object
	args := inv.Args
	if len(args) == 0 {
		return "", errorf(ErrWrongArgs, "wrong # args: should be \"%s info option ?arg arg ...?\"", displayName(o.name))
	}
	c := o.class
	switch args[0] {
	case "class":
		return c.fullName, nil
	case "heritage":
		return classNames(c.heritage), nil
	case "inherit":
		return classNames(c.bases), nil
	case "function":
		if len(args) == 1 {
			return host.FormatList(tableTargets(c, true)), nil
		}
		m, ok := c.resolveCmds[args[1]]
		if !ok {
			return "", errorf(ErrNotFound, "%q isn't a member function in class %q", args[1], c.fullName)
		}
		return host.FormatList([]string{
			m.protection.String(), m.Kind(), m.fullName, m.code.args.String(), m.code.body,
		}), nil
	case "variable":
		if len(args) == 1 {
			return host.FormatList(tableTargets(c, false)), nil
		}
		lookup, ok := c.resolveVars[args[1]]
		if !ok {
			return "", errorf(ErrNotFound, "%q isn't a variable in class %q", args[1], c.fullName)
		}
		v := lookup.Var
		def, _ := v.Default()
		cur := "<undefined>"
		if slot, err := r.objectSlot(o, v); err == nil {
			if val, err := slot.Get(); err == nil {
				cur = val
			}
		}
		return host.FormatList([]string{v.protection.String(), v.Kind(), v.fullName, def, cur}), nil
	}
	return "", errorf(ErrNotFound, "bad option %q: should be one of class, function, heritage, inherit, variable", args[0])
}

// tableTargets lists the distinct full names in c's member or variable
// table.
func tableTargets(c *Class, members bool) []string {
	seen := make(map[string]bool)
	if members {
		for _, m := range c.resolveCmds {
			seen[m.fullName] = true
		}
	} else {
		for _, l := range c.resolveVars {
			seen[l.Var.fullName] = true
		}
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
