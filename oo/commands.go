package oo

import (
	"path"
	"strings"

	"github.com/chazu/incr/host"
)

// installAdminCommands registers "delete", "find" and "is" in the
// storage namespace.
func (r *Runtime) installAdminCommands() error {
	cmds := map[string]host.CommandFunc{
		"delete": r.cmdDelete,
		"find":   r.cmdFind,
		"is":     r.cmdIs,
	}
	for name, fn := range cmds {
		if err := r.host.CreateCommand(r.storageNs+"::"+name, fn, nil); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runtime) lookupObject(ns, name string) (*Object, error) {
	if o, ok := r.FindObject(qualify(ns, name)); ok {
		return o, nil
	}
	if o, ok := r.FindObject(qualify("::", name)); ok {
		return o, nil
	}
	return nil, errorf(ErrNotFound, "object %q not found", name)
}

// cmdDelete: delete object|class name ?name ...?
func (r *Runtime) cmdDelete(call *host.Call) (string, error) {
	if len(call.Args) < 1 {
		return "", errorf(ErrWrongArgs, "wrong # args: should be \"%s object|class name ?name ...?\"", call.Name)
	}
	names := call.Args[1:]
	switch call.Args[0] {
	case "object":
		for _, n := range names {
			o, err := r.lookupObject(call.Namespace, n)
			if err != nil {
				return "", err
			}
			if err := r.DeleteObject(o); err != nil {
				return "", err
			}
		}
	case "class":
		for _, n := range names {
			c, err := r.findClassIn(call.Namespace, n, false)
			if err != nil {
				return "", err
			}
			if err := r.DeleteClass(c); err != nil {
				return "", err
			}
		}
	default:
		return "", errorf(ErrNotFound, "bad option %q: should be class or object", call.Args[0])
	}
	return "", nil
}

// cmdFind: find classes ?pattern? | find objects ?-class c? ?-isa c? ?pattern?
func (r *Runtime) cmdFind(call *host.Call) (string, error) {
	if len(call.Args) < 1 {
		return "", errorf(ErrWrongArgs, "wrong # args: should be \"%s classes|objects ?arg ...?\"", call.Name)
	}
	rest := call.Args[1:]
	switch call.Args[0] {
	case "classes":
		pattern := "*"
		if len(rest) > 1 {
			return "", errorf(ErrWrongArgs, "wrong # args: should be \"%s classes ?pattern?\"", call.Name)
		}
		if len(rest) == 1 {
			pattern = rest[0]
		}
		var out []string
		for _, c := range r.classOrder {
			if globMatch(pattern, c.name) || globMatch(pattern, c.fullName) {
				out = append(out, c.fullName)
			}
		}
		return host.FormatList(out), nil
	case "objects":
		var class, isa *Class
		pattern := "*"
		for len(rest) > 0 {
			switch {
			case (rest[0] == "-class" || rest[0] == "-isa") && len(rest) >= 2:
				c, err := r.findClassIn(call.Namespace, rest[1], false)
				if err != nil {
					return "", err
				}
				if rest[0] == "-class" {
					class = c
				} else {
					isa = c
				}
				rest = rest[2:]
			case len(rest) == 1 && !strings.HasPrefix(rest[0], "-"):
				pattern = rest[0]
				rest = nil
			default:
				return "", errorf(ErrWrongArgs, "wrong # args: should be \"%s objects ?-class className? ?-isa className? ?pattern?\"", call.Name)
			}
		}
		var out []string
		for _, o := range r.objects {
			if class != nil && o.class != class {
				continue
			}
			if isa != nil && !o.IsA(isa) {
				continue
			}
			if globMatch(pattern, displayName(o.name)) || globMatch(pattern, o.name) {
				out = append(out, o.name)
			}
		}
		return host.FormatList(out), nil
	}
	return "", errorf(ErrNotFound, "bad option %q: should be classes or objects", call.Args[0])
}

// cmdIs: is object ?-class c? name | is class name
func (r *Runtime) cmdIs(call *host.Call) (string, error) {
	usage := errorf(ErrWrongArgs, "wrong # args: should be \"%s object|class ?-class className? name\"", call.Name)
	if len(call.Args) < 2 {
		return "", usage
	}
	yes := func(b bool) (string, error) {
		if b {
			return "1", nil
		}
		return "0", nil
	}
	switch call.Args[0] {
	case "class":
		if len(call.Args) != 2 {
			return "", usage
		}
		_, err := r.findClassIn(call.Namespace, call.Args[1], false)
		return yes(err == nil)
	case "object":
		args := call.Args[1:]
		var class *Class
		if args[0] == "-class" {
			if len(args) != 3 {
				return "", usage
			}
			c, err := r.findClassIn(call.Namespace, args[1], false)
			if err != nil {
				return "", err
			}
			class = c
			args = args[2:]
		}
		if len(args) != 1 {
			return "", usage
		}
		o, err := r.lookupObject(call.Namespace, args[0])
		if err != nil {
			return yes(false)
		}
		return yes(class == nil || o.IsA(class))
	}
	return "", errorf(ErrNotFound, "bad option %q: should be class or object", call.Args[0])
}

// globMatch applies a shell glob. Malformed patterns match nothing.
func globMatch(pattern, s string) bool {
	ok, err := path.Match(pattern, s)
	return err == nil && ok
}
