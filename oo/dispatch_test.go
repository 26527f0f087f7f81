package oo

import (
	"errors"
	"strconv"
	"testing"

	"github.com/chazu/incr/interp"
)

func TestVirtualDispatch(t *testing.T) {
	r, in := newTestRuntime(t)
	a := mustClass(t, r, "A")
	b := mustClass(t, r, "B", "A")
	mustMethod(t, r, a, "m", "", "return A")
	mustMethod(t, r, a, "callM", "", "return [m]")
	mustMethod(t, r, a, "callAM", "", "return [A::m]")
	mustMethod(t, r, b, "m", "", "return B")
	mustObject(t, r, b, "b1")
	mustObject(t, r, a, "a1")

	tests := []struct{ script, want string }{
		{"b1 m", "B"},
		{"b1 callM", "B"},
		{"b1 callAM", "A"},
		{"b1 A::m", "A"},
		{"a1 callM", "A"},
	}
	for _, tt := range tests {
		if got := mustEval(t, in, tt.script); got != tt.want {
			t.Errorf("%s = %q, want %q", tt.script, got, tt.want)
		}
	}
}

func TestProtection(t *testing.T) {
	r, in := newTestRuntime(t)
	a := mustClass(t, r, "A")
	b := mustClass(t, r, "B", "A")
	u := mustClass(t, r, "U")
	p := mustMember(t, r, a, "p", MemberSpec{Protection: Private, Args: Args(), Body: Body("return private")})
	q := mustMember(t, r, a, "q", MemberSpec{Protection: Protected, Args: Args(), Body: Body("return protected")})
	mustMethod(t, r, a, "callP", "", "p")
	mustMethod(t, r, b, "tryP", "", "p")
	mustMethod(t, r, b, "tryQ", "", "q")
	mustMethod(t, r, u, "tryQ", "obj", "$obj q")
	b1 := mustObject(t, r, b, "b1")
	mustObject(t, r, u, "u1")

	if got := mustEval(t, in, "b1 callP"); got != "private" {
		t.Errorf("private from own class = %q", got)
	}
	if got := mustEval(t, in, "b1 tryQ"); got != "protected" {
		t.Errorf("protected from subclass = %q", got)
	}
	err := evalErr(t, in, "b1 tryP")
	if err.Error() != `can't access "p": private function` || !errors.Is(err, ErrAccess) {
		t.Errorf("private from subclass: %v", err)
	}
	evalErr(t, in, "u1 tryQ b1")
	if _, err := r.Invoke(q, b1, "::", nil); err == nil ||
		err.Error() != `can't access "q": protected function` {
		t.Errorf("protected from global: %v", err)
	}
	if _, err := r.Invoke(p, b1, "::B", nil); err == nil {
		t.Error("private from subclass namespace should fail")
	}
	if !r.CanAccess(q, "::B") || r.CanAccess(q, "::U") || !r.CanAccess(p, "::A") {
		t.Error("CanAccess wrong")
	}
	err = evalErr(t, in, "b1 q")
	wantErrContains(t, err, `bad option "q": should be one of...`)
}

func TestProtectedOverrideCalledFromBase(t *testing.T) {
	r, in := newTestRuntime(t)
	a := mustClass(t, r, "A")
	b := mustClass(t, r, "B", "A")
	mustMember(t, r, a, "hook", MemberSpec{Protection: Protected, Args: Args(), Body: Body("return base")})
	mustMember(t, r, b, "hook", MemberSpec{Protection: Protected, Args: Args(), Body: Body("return derived")})
	mustMethod(t, r, a, "run", "", "hook")
	mustObject(t, r, b, "b1")

	if got := mustEval(t, in, "b1 run"); got != "derived" {
		t.Errorf("run = %q, want derived", got)
	}
}

func TestArityErrors(t *testing.T) {
	r, in := newTestRuntime(t)
	a := mustClass(t, r, "A")
	mustMethod(t, r, a, "m", "a {b 2} args", "return $a-$b-$args")
	mustMember(t, r, a, "pr", MemberSpec{Common: true, Args: mustArgs(t, "x"), Body: Body("return $x")})
	mustObject(t, r, a, "a1")

	if got := mustEval(t, in, "a1 m 1"); got != "1-2-" {
		t.Errorf("m 1 = %q", got)
	}
	if got := mustEval(t, in, "a1 m 1 3 4 5"); got != "1-3-4 5" {
		t.Errorf("m 1 3 4 5 = %q", got)
	}
	err := evalErr(t, in, "a1 m")
	if err.Error() != `wrong # args: should be "a1 m a ?b? ?arg arg ...?"` || !errors.Is(err, ErrWrongArgs) {
		t.Errorf("arity error = %q", err)
	}
	err = evalErr(t, in, "A::pr")
	if err.Error() != `wrong # args: should be "::A::pr x"` {
		t.Errorf("proc arity error = %q", err)
	}
	if got := mustEval(t, in, "A::pr 5"); got != "5" {
		t.Errorf("proc = %q", got)
	}
}

func TestMethodNeedsObjectContext(t *testing.T) {
	r, in := newTestRuntime(t)
	a := mustClass(t, r, "A")
	mustMethod(t, r, a, "m", "", "return 1")
	err := evalErr(t, in, "A::m")
	if err.Error() != "cannot access object-specific info without an object context" {
		t.Errorf("err = %q", err)
	}
	m := a.Member("m")
	if _, err := r.Invoke(m, nil, "::", nil); err == nil {
		t.Error("Invoke without object should fail")
	}
}

func TestSignatureStability(t *testing.T) {
	r, in := newTestRuntime(t)
	a := mustClass(t, r, "A")
	m := mustMethod(t, r, a, "m", "a {b 2}", "return $a+$b")
	mustObject(t, r, a, "a1")

	if err := r.ChangeMemberBody(m, mustArgs(t, "x {y 9}"), "return $x*$y"); err != nil {
		t.Fatalf("compatible change rejected: %v", err)
	}
	if got := mustEval(t, in, "a1 m 3"); got != "3*9" {
		t.Errorf("after change m 3 = %q, want 3*9", got)
	}
	err := r.ChangeMemberBody(m, mustArgs(t, "x"), "return bad")
	want := `argument list changed for function "::A::m": should be "a ?b?"`
	if err == nil || err.Error() != want {
		t.Fatalf("err = %v, want %q", err, want)
	}
	if got := mustEval(t, in, "a1 m 3 4"); got != "3*4" {
		t.Errorf("original should stay installed, got %q", got)
	}
}

func TestBodyChangeDuringCall(t *testing.T) {
	r, in := newTestRuntime(t)
	a := mustClass(t, r, "A")
	m := mustMethod(t, r, a, "m", "", "redefine-then-continue")
	old := m.Code()
	var discardedDuring bool
	in.DefineScript("redefine-then-continue", func(f *interp.Frame) (string, error) {
		if err := r.ChangeMemberBody(m, nil, "return new"); err != nil {
			return "", err
		}
		discardedDuring = old.Discarded()
		return "old", nil
	})
	mustObject(t, r, a, "a1")

	if got := mustEval(t, in, "a1 m"); got != "old" {
		t.Errorf("first call = %q", got)
	}
	if discardedDuring {
		t.Error("running code was discarded")
	}
	if !old.Discarded() {
		t.Error("replaced code should be discarded after the call")
	}
	if got := mustEval(t, in, "a1 m"); got != "new" {
		t.Errorf("second call = %q", got)
	}
}

type memberAutoloader struct {
	r     *Runtime
	calls int
}

func (a *memberAutoloader) Autoload(name string) (bool, error) {
	a.calls++
	c, err := a.r.FindClass("A", false)
	if err != nil {
		return false, err
	}
	if name == "::A::lazy" {
		return true, a.r.ChangeMemberBody(c.Member("lazy"), nil, "return loaded")
	}
	return false, nil
}

func TestMemberAutoload(t *testing.T) {
	r, in := newTestRuntime(t)
	a := mustClass(t, r, "A")
	mustMember(t, r, a, "lazy", MemberSpec{Args: Args()})
	mustMember(t, r, a, "never", MemberSpec{Args: Args()})
	mustObject(t, r, a, "a1")

	err := evalErr(t, in, "a1 lazy")
	if err.Error() != `member function "::A::lazy" is not defined and cannot be autoloaded` {
		t.Errorf("without autoloader: %q", err)
	}
	al := &memberAutoloader{r: r}
	r.SetAutoloader(al)
	if got := mustEval(t, in, "a1 lazy"); got != "loaded" {
		t.Errorf("lazy = %q", got)
	}
	mustEval(t, in, "a1 lazy")
	if al.calls != 1 {
		t.Errorf("autoloader called %d times, want 1", al.calls)
	}
	evalErr(t, in, "a1 never")
}

func TestNativeMember(t *testing.T) {
	r, in := newTestRuntime(t)
	a := mustClass(t, r, "A")
	mustVar(t, r, a, "n", VariableSpec{Default: str("40")})
	r.RegisterNative("add", func(inv *Invocation) (string, error) {
		v, err := inv.Object.Var("n")
		if err != nil {
			return "", err
		}
		n, _ := strconv.Atoi(v)
		k, _ := strconv.Atoi(inv.Args[0])
		return inv.Eval("set n " + strconv.Itoa(n+k))
	})
	mustMember(t, r, a, "add", MemberSpec{Args: mustArgs(t, "k"), Body: Body("@add")})
	o := mustObject(t, r, a, "a1")

	if got := mustEval(t, in, "a1 add 2"); got != "42" {
		t.Errorf("add = %q", got)
	}
	if v, _ := o.Var("n"); v != "42" {
		t.Errorf("n = %q", v)
	}
	evalErr(t, in, "a1 add")
}

func TestContextCache(t *testing.T) {
	r, in := newTestRuntime(t)
	a := mustClass(t, r, "A")
	m := mustMethod(t, r, a, "rec", "n", "recurse")
	var seen []*CallContext
	var depths []int
	in.DefineScript("recurse", func(f *interp.Frame) (string, error) {
		ctx := r.ActiveContext()
		seen = append(seen, ctx)
		depths = append(depths, ctx.Refs())
		n, _ := f.Var("n")
		if n == "0" {
			return "", nil
		}
		return f.Invoke("rec", "0")
	})
	o := mustObject(t, r, a, "a1")

	mustEval(t, in, "a1 rec 1")
	if len(seen) != 2 {
		t.Fatalf("calls = %d", len(seen))
	}
	// The outer call came from ::, the inner from ::A, so no reuse.
	if seen[0] == seen[1] {
		t.Error("contexts from different namespaces must not be shared")
	}
	if seen[0].Member() != m || seen[0].Object() != o || seen[0].Namespace() != "::" {
		t.Errorf("outer context = %+v", seen[0])
	}
	if seen[1].Namespace() != "::A" {
		t.Errorf("inner context namespace = %q, want the calling namespace ::A", seen[1].Namespace())
	}
	if o.CachedContexts() != 0 || r.ContextDepth() != 0 {
		t.Errorf("cache=%d depth=%d after calls", o.CachedContexts(), r.ContextDepth())
	}

	// Same namespace recursion shares the cached context.
	seen, depths = nil, nil
	in.DefineScript("recurse", func(f *interp.Frame) (string, error) {
		ctx := r.ActiveContext()
		seen = append(seen, ctx)
		depths = append(depths, ctx.Refs())
		n, _ := f.Var("n")
		if n == "0" {
			return "", nil
		}
		return r.Invoke(m, o, "::", []string{"0"})
	})
	mustEval(t, in, "a1 rec 1")
	if len(seen) != 2 || seen[0] != seen[1] {
		t.Fatal("same-namespace recursion should reuse the context")
	}
	if depths[0] != 1 || depths[1] != 2 {
		t.Errorf("refs = %v, want [1 2]", depths)
	}
}

func TestEmptyBodyIsImplemented(t *testing.T) {
	r, in := newTestRuntime(t)
	a := mustClass(t, r, "A")
	noop := mustMethod(t, r, a, "noop", "", "")
	mustMember(t, r, a, "missing", MemberSpec{Args: Args()})
	mustObject(t, r, a, "a1")

	if !noop.Implemented() {
		t.Fatal("empty body should count as implemented")
	}
	if got := mustEval(t, in, "a1 noop"); got != "" {
		t.Errorf("noop = %q, want empty", got)
	}
	wantErrContains(t, evalErr(t, in, "a1 missing"),
		`member function "::A::missing" is not defined and cannot be autoloaded`)

	if err := r.ChangeMemberBody(a.Member("missing"), nil, ""); err != nil {
		t.Fatal(err)
	}
	if got := mustEval(t, in, "a1 missing"); got != "" {
		t.Errorf("missing after empty body = %q, want empty", got)
	}
}
