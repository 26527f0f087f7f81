package interp

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/incr/host"
)

type builtinFunc func(i *Interp, f *Frame, args []string) (string, error)

var builtins = map[string]builtinFunc{
	"append":    builtinAppend,
	"catch":     builtinCatch,
	"concat":    builtinConcat,
	"error":     builtinError,
	"eval":      builtinEval,
	"global":    builtinGlobal,
	"incr":      builtinIncr,
	"lappend":   builtinLappend,
	"lindex":    builtinLindex,
	"list":      builtinList,
	"llength":   builtinLlength,
	"namespace": builtinNamespace,
	"puts":      builtinPuts,
	"rename":    builtinRename,
	"return":    builtinReturn,
	"set":       builtinSet,
	"unset":     builtinUnset,
}

func (i *Interp) registerBuiltins() {
	for name, fn := range builtins {
		i.commands["::"+name] = &command{
			name: "::" + name,
			fn: func(call *host.Call) (string, error) {
				return fn(i, i.active, call.Args)
			},
		}
	}
}

func wrongArgs(usage string) error {
	return fmt.Errorf("wrong # args: should be \"%s\"", usage)
}

func builtinSet(_ *Interp, f *Frame, args []string) (string, error) {
	switch len(args) {
	case 1:
		return f.Var(args[0])
	case 2:
		if err := f.SetVar(args[0], args[1]); err != nil {
			return "", err
		}
		return args[1], nil
	}
	return "", wrongArgs("set varName ?newValue?")
}

func builtinUnset(_ *Interp, f *Frame, args []string) (string, error) {
	for _, name := range args {
		if err := f.UnsetVar(name); err != nil {
			return "", err
		}
	}
	return "", nil
}

func builtinIncr(_ *Interp, f *Frame, args []string) (string, error) {
	if len(args) < 1 || len(args) > 2 {
		return "", wrongArgs("incr varName ?increment?")
	}
	by := 1
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return "", fmt.Errorf("expected integer but got %q", args[1])
		}
		by = n
	}
	cur := 0
	if val, err := f.Var(args[0]); err == nil {
		n, err := strconv.Atoi(val)
		if err != nil {
			return "", fmt.Errorf("expected integer but got %q", val)
		}
		cur = n
	}
	out := strconv.Itoa(cur + by)
	return out, f.SetVar(args[0], out)
}

func builtinAppend(_ *Interp, f *Frame, args []string) (string, error) {
	if len(args) < 1 {
		return "", wrongArgs("append varName ?value ...?")
	}
	cur, _ := f.Var(args[0])
	cur += strings.Join(args[1:], "")
	return cur, f.SetVar(args[0], cur)
}

func builtinLappend(_ *Interp, f *Frame, args []string) (string, error) {
	if len(args) < 1 {
		return "", wrongArgs("lappend varName ?value ...?")
	}
	var elems []string
	if cur, err := f.Var(args[0]); err == nil {
		if elems, err = host.SplitList(cur); err != nil {
			return "", err
		}
	}
	out := host.FormatList(append(elems, args[1:]...))
	return out, f.SetVar(args[0], out)
}

func builtinList(_ *Interp, _ *Frame, args []string) (string, error) {
	return host.FormatList(args), nil
}

func builtinConcat(_ *Interp, _ *Frame, args []string) (string, error) {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		if a = strings.TrimSpace(a); a != "" {
			parts = append(parts, a)
		}
	}
	return strings.Join(parts, " "), nil
}

func builtinLlength(_ *Interp, _ *Frame, args []string) (string, error) {
	if len(args) != 1 {
		return "", wrongArgs("llength list")
	}
	elems, err := host.SplitList(args[0])
	if err != nil {
		return "", err
	}
	return strconv.Itoa(len(elems)), nil
}

func builtinLindex(_ *Interp, _ *Frame, args []string) (string, error) {
	if len(args) != 2 {
		return "", wrongArgs("lindex list index")
	}
	elems, err := host.SplitList(args[0])
	if err != nil {
		return "", err
	}
	idx, err := strconv.Atoi(args[1])
	if args[1] == "end" {
		idx, err = len(elems)-1, nil
	}
	if err != nil {
		return "", fmt.Errorf("bad index %q", args[1])
	}
	if idx < 0 || idx >= len(elems) {
		return "", nil
	}
	return elems[idx], nil
}

func builtinReturn(_ *Interp, _ *Frame, args []string) (string, error) {
	switch len(args) {
	case 0:
		return "", &returnSignal{}
	case 1:
		return "", &returnSignal{value: args[0]}
	}
	return "", wrongArgs("return ?value?")
}

func builtinError(_ *Interp, _ *Frame, args []string) (string, error) {
	if len(args) != 1 {
		return "", wrongArgs("error message")
	}
	return "", errors.New(args[0])
}

// builtinCatch returns 0 on success, 1 on error and 2 on return.
func builtinCatch(_ *Interp, f *Frame, args []string) (string, error) {
	if len(args) < 1 || len(args) > 2 {
		return "", wrongArgs("catch script ?resultVarName?")
	}
	res, err := f.eval(args[0])
	code := "0"
	var ret *returnSignal
	switch {
	case errors.As(err, &ret):
		code, res = "2", ret.value
	case err != nil:
		code, res = "1", err.Error()
	}
	if len(args) == 2 {
		if err := f.SetVar(args[1], res); err != nil {
			return "", err
		}
	}
	return code, nil
}

func builtinEval(_ *Interp, f *Frame, args []string) (string, error) {
	if len(args) == 0 {
		return "", wrongArgs("eval arg ?arg ...?")
	}
	script, _ := builtinConcat(nil, nil, args)
	return f.eval(script)
}

func builtinGlobal(_ *Interp, f *Frame, args []string) (string, error) {
	for _, name := range args {
		if err := f.linkGlobal(name); err != nil {
			return "", err
		}
	}
	return "", nil
}

func builtinNamespace(_ *Interp, f *Frame, args []string) (string, error) {
	if len(args) == 1 && args[0] == "current" {
		return f.ns, nil
	}
	return "", wrongArgs("namespace current")
}

func builtinPuts(i *Interp, _ *Frame, args []string) (string, error) {
	newline := true
	if len(args) > 0 && args[0] == "-nonewline" {
		newline = false
		args = args[1:]
	}
	if len(args) != 1 {
		return "", wrongArgs("puts ?-nonewline? string")
	}
	out := args[0]
	if newline {
		out += "\n"
	}
	_, err := writeOut(i, out)
	return "", err
}

func writeOut(i *Interp, s string) (int, error) {
	if i.Stdout == nil {
		return len(s), nil
	}
	return fmt.Fprint(i.Stdout, s)
}

func builtinRename(i *Interp, f *Frame, args []string) (string, error) {
	if len(args) != 2 {
		return "", wrongArgs("rename oldName newName")
	}
	full, cmd := i.lookupCommand(f.ns, args[0], f.resolver)
	if cmd == nil {
		return "", fmt.Errorf("can't rename %q: command doesn't exist", args[0])
	}
	newName := args[1]
	if newName != "" {
		newName = qualify(f.ns, newName)
	}
	return "", i.RenameCommand(full, newName)
}
