package oo

import "testing"

func TestMostSpecificOverrideWins(t *testing.T) {
	r, _ := newTestRuntime(t)
	top := mustClass(t, r, "Top")
	mid := mustClass(t, r, "Mid", "Top")
	other := mustClass(t, r, "Other")
	leaf := mustClass(t, r, "Leaf", "Mid", "Other")

	mustMethod(t, r, top, "m", "", "return top")
	mustMethod(t, r, other, "m", "", "return other")
	midM := mustMethod(t, r, mid, "m", "", "return mid")
	otherOnly := mustMethod(t, r, other, "o", "", "")

	if m, _ := leaf.ResolveMember("m"); m != midM {
		t.Errorf("m resolves to %s, want ::Mid::m", m.FullName())
	}
	if m, _ := leaf.ResolveMember("Top::m"); m.Class() != top {
		t.Errorf("Top::m resolves to %s", m.FullName())
	}
	if m, _ := leaf.ResolveMember("o"); m != otherOnly {
		t.Error("o should resolve to Other::o")
	}
	if m, _ := top.ResolveMember("m"); m.Class() != top {
		t.Error("base tables must not see derived members")
	}
}

func TestTablesRebuildInDerivedClasses(t *testing.T) {
	r, _ := newTestRuntime(t)
	a := mustClass(t, r, "A")
	b := mustClass(t, r, "B", "A")
	c := mustClass(t, r, "C", "B")

	if _, ok := c.ResolveMember("late"); ok {
		t.Fatal("late should not resolve yet")
	}
	mustMethod(t, r, a, "late", "", "")
	mustVar(t, r, a, "lv", VariableSpec{})
	if _, ok := c.ResolveMember("late"); !ok {
		t.Error("member added to A not visible from C")
	}
	if _, ok := c.ResolveVar("A::lv"); !ok {
		t.Error("variable added to A not visible from C")
	}
	mustMethod(t, r, b, "late", "", "")
	if m, _ := c.ResolveMember("late"); m.Class() != b {
		t.Error("override in B should win in C")
	}
}

func TestQualifiedNames(t *testing.T) {
	got := qualifiedNames("::ns::A", "x")
	want := []string{"x", "A::x", "ns::A::x"}
	if len(got) != len(want) {
		t.Fatalf("qualifiedNames = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("qualifiedNames[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestPrivateVariableAccessibility(t *testing.T) {
	r, _ := newTestRuntime(t)
	a := mustClass(t, r, "A")
	b := mustClass(t, r, "B", "A")
	mustVar(t, r, a, "secret", VariableSpec{Protection: Private})

	if l, _ := a.ResolveVar("secret"); !l.Accessible {
		t.Error("private variable should be accessible from its class")
	}
	l, ok := b.ResolveVar("secret")
	if !ok || l.Accessible {
		t.Errorf("private variable from subclass: ok=%v accessible=%v", ok, l != nil && l.Accessible)
	}
	if _, ok := r.CompileVar("::B", "secret"); ok {
		t.Error("CompileVar should not resolve an inaccessible variable")
	}
	if _, ok := r.CompileVar("::A", "secret"); !ok {
		t.Error("CompileVar should resolve from the declaring class")
	}
}

func TestCommonVisibleOnlyUnderDeclaringNames(t *testing.T) {
	r, _ := newTestRuntime(t)
	a := mustClass(t, r, "A")
	sub := mustClass(t, r, "Sub", "A")
	mustVar(t, r, a, "count", VariableSpec{Common: true, Default: str("0")})

	for _, name := range []string{"count", "A::count"} {
		l, ok := sub.ResolveVar(name)
		if !ok || !l.Common {
			t.Errorf("%s should resolve to the common variable", name)
		}
	}
	if _, ok := sub.ResolveVar("Sub::count"); ok {
		t.Error("Sub::count should not resolve")
	}
}

func TestBuiltinsResolveLastAndCanBeOverridden(t *testing.T) {
	r, _ := newTestRuntime(t)
	a := mustClass(t, r, "A")
	for _, name := range []string{"cget", "configure", "isa", "info"} {
		m, ok := a.ResolveMember(name)
		if !ok || !m.Class().builtin {
			t.Errorf("%s should resolve to the builtin", name)
		}
	}
	mine := mustMethod(t, r, a, "info", "args", "return mine")
	if m, _ := a.ResolveMember("info"); m != mine {
		t.Error("user info should override the builtin")
	}
}

func TestVirtualTableListing(t *testing.T) {
	r, _ := newTestRuntime(t)
	a := mustClass(t, r, "A")
	mustMethod(t, r, a, "m", "", "")
	mustVar(t, r, a, "v", VariableSpec{})

	rows := a.VirtualTable()
	var sawMethod, sawVar bool
	for i, row := range rows {
		if i > 0 && rows[i-1].Name > row.Name {
			t.Errorf("rows not sorted at %d", i)
		}
		if row.Name == "A::m" && row.Kind == "method" && row.Target == "::A::m" {
			sawMethod = true
		}
		if row.Name == "v" && row.Kind == "variable" && row.Target == "::A::v" {
			sawVar = true
		}
	}
	if !sawMethod || !sawVar {
		t.Errorf("missing rows: method=%v var=%v", sawMethod, sawVar)
	}
}
