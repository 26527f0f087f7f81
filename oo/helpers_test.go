package oo

import (
	"io"
	"strings"
	"testing"

	"github.com/chazu/incr/interp"
)

func newQuietInterp() *interp.Interp {
	in := interp.New()
	in.Stdout = io.Discard
	return in
}

func newTestRuntime(t *testing.T) (*Runtime, *interp.Interp) {
	t.Helper()
	in := newQuietInterp()
	r, err := New(in, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r, in
}

func mustClass(t *testing.T, r *Runtime, name string, bases ...string) *Class {
	t.Helper()
	c, err := r.DefineClass(name, bases, KindClass)
	if err != nil {
		t.Fatalf("DefineClass(%s): %v", name, err)
	}
	return c
}

func mustArgs(t *testing.T, spec string) *ArgSpec {
	t.Helper()
	a, err := ParseArgSpec(spec)
	if err != nil {
		t.Fatalf("ParseArgSpec(%q): %v", spec, err)
	}
	return a
}

func mustMethod(t *testing.T, r *Runtime, c *Class, name, args, body string) *Member {
	t.Helper()
	m, err := r.CreateMember(c, name, MemberSpec{Args: mustArgs(t, args), Body: Body(body)})
	if err != nil {
		t.Fatalf("CreateMember(%s): %v", name, err)
	}
	return m
}

func mustMember(t *testing.T, r *Runtime, c *Class, name string, spec MemberSpec) *Member {
	t.Helper()
	m, err := r.CreateMember(c, name, spec)
	if err != nil {
		t.Fatalf("CreateMember(%s): %v", name, err)
	}
	return m
}

func mustDestructor(t *testing.T, r *Runtime, c *Class, body string) *Member {
	t.Helper()
	return mustMember(t, r, c, "destructor", MemberSpec{Body: Body(body)})
}

func mustVar(t *testing.T, r *Runtime, c *Class, name string, spec VariableSpec) *Variable {
	t.Helper()
	v, err := r.CreateVariable(c, name, spec)
	if err != nil {
		t.Fatalf("CreateVariable(%s): %v", name, err)
	}
	return v
}

func mustObject(t *testing.T, r *Runtime, c *Class, name string, args ...string) *Object {
	t.Helper()
	o, err := r.CreateObject(c, name, args)
	if err != nil {
		t.Fatalf("CreateObject(%s): %v", name, err)
	}
	return o
}

func mustEval(t *testing.T, in *interp.Interp, script string) string {
	t.Helper()
	res, err := in.Eval(script)
	if err != nil {
		t.Fatalf("Eval(%q): %v", script, err)
	}
	return res
}

func evalErr(t *testing.T, in *interp.Interp, script string) error {
	t.Helper()
	_, err := in.Eval(script)
	if err == nil {
		t.Fatalf("Eval(%q) should fail", script)
	}
	return err
}

func str(s string) *string { return &s }

// logOf returns the global ::log list as words.
func logOf(t *testing.T, in *interp.Interp) string {
	t.Helper()
	v, err := in.GlobalVar("log")
	if err != nil {
		return ""
	}
	return v
}

func wantErrContains(t *testing.T, err error, want string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error containing %q, got nil", want)
	}
	if !strings.Contains(err.Error(), want) {
		t.Errorf("error = %q, want containing %q", err, want)
	}
}
