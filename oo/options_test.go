package oo

import (
	"fmt"
	"testing"
)

func newButtonClass(t *testing.T, r *Runtime) *Class {
	t.Helper()
	b, err := r.DefineClass("Button", nil, KindType)
	if err != nil {
		t.Fatal(err)
	}
	r.RegisterNative("checkSize", func(inv *Invocation) (string, error) {
		v := inv.Args[1]
		for _, ch := range v {
			if ch < '0' || ch > '9' {
				return "", fmt.Errorf("bad size %q", v)
			}
		}
		return "", nil
	})
	specs := []OptionSpec{
		{Name: "-text", Default: "hi"},
		{Name: "-id", Default: "0", ReadOnly: true},
		{Name: "-size", ValidateMethod: "checkSize"},
		{Name: "-color", ConfigureMethod: "setColor", CgetMethod: "getColor"},
	}
	for _, s := range specs {
		if _, err := r.AddOption(b, s); err != nil {
			t.Fatalf("AddOption(%s): %v", s.Name, err)
		}
	}
	mustMember(t, r, b, "checkSize", MemberSpec{Protection: Private, Args: mustArgs(t, "option value"), Body: Body("@checkSize")})
	mustMember(t, r, b, "setColor", MemberSpec{Protection: Private, Args: mustArgs(t, "option value"),
		Body: Body("lappend ::log $option=$value; set options($option) $value")})
	mustMember(t, r, b, "getColor", MemberSpec{Protection: Private, Args: mustArgs(t, "option"),
		Body: Body("set c $options(-color); return color:$c")})
	mustMethod(t, r, b, "show", "", "return $options(-text)")
	if _, err := r.DefineConstructor(b, mustArgs(t, "args"), "", Body("eval configure $args")); err != nil {
		t.Fatal(err)
	}
	return b
}

func TestOptions(t *testing.T) {
	r, in := newTestRuntime(t)
	b := newButtonClass(t, r)
	mustObject(t, r, b, "b1", "-id", "7", "-text", "go")

	tests := []struct{ script, want string }{
		{"b1 cget -id", "7"},
		{"b1 cget -text", "go"},
		{"b1 show", "go"},
		{"b1 configure -text", "-text hi go"},
	}
	for _, tt := range tests {
		if got := mustEval(t, in, tt.script); got != tt.want {
			t.Errorf("%s = %q, want %q", tt.script, got, tt.want)
		}
	}

	err := evalErr(t, in, "b1 configure -id 9")
	wantErrContains(t, err, `option "-id" can only be set at instance creation`)
	if got := mustEval(t, in, "b1 cget -id"); got != "7" {
		t.Errorf("readonly option changed to %q", got)
	}

	mustEval(t, in, "b1 configure -size 12")
	err = evalErr(t, in, "b1 configure -size big")
	wantErrContains(t, err, `bad size "big"`)
	if got := mustEval(t, in, "b1 cget -size"); got != "12" {
		t.Errorf("-size = %q after failed validation", got)
	}

	mustEval(t, in, "b1 configure -color red")
	if got := logOf(t, in); got != "-color=red" {
		t.Errorf("configure method log = %q", got)
	}
	if got := mustEval(t, in, "b1 cget -color"); got != "color:red" {
		t.Errorf("cget method = %q", got)
	}

	want := "{-color {} color:red} {-id 0 7} {-size {} 12} {-text hi go}"
	if got := mustEval(t, in, "b1 configure"); got != want {
		t.Errorf("configure =\n%s\nwant\n%s", got, want)
	}
	wantErrContains(t, evalErr(t, in, "b1 cget -nope"), `unknown option "-nope"`)
}

func TestOptionsRequireExtendedClass(t *testing.T) {
	r, _ := newTestRuntime(t)
	c := mustClass(t, r, "Plain")
	_, err := r.AddOption(c, OptionSpec{Name: "-x"})
	if err == nil || err.Error() != `"option" is only available in extended classes` {
		t.Errorf("AddOption on plain class: %v", err)
	}
	if _, err := r.AddComponent(c, "part", ComponentSpec{}); err == nil {
		t.Error("AddComponent on plain class should fail")
	}

	e, err := r.DefineClass("Ext", nil, KindWidget)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.AddOption(e, OptionSpec{Name: "x"}); err == nil {
		t.Error("option names must start with -")
	}
	if _, err := r.AddOption(e, OptionSpec{Name: "-x"}); err != nil {
		t.Fatal(err)
	}
	if _, err := r.AddOption(e, OptionSpec{Name: "-x"}); err == nil {
		t.Error("duplicate option accepted")
	}
}

func newCarClasses(t *testing.T, r *Runtime) *Class {
	t.Helper()
	eng := mustClass(t, r, "Engine")
	mustVar(t, r, eng, "speed", VariableSpec{Protection: Public, Default: str("0")})
	mustMethod(t, r, eng, "start", "", "return started")
	mustMethod(t, r, eng, "stop", "", "return stopped")
	mustMethod(t, r, eng, "rpm", "n", "return rpm$n")
	mustMethod(t, r, eng, "report", "args", "return $args")

	car, err := r.DefineClass("Car", nil, KindWidgetAdaptor)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.AddComponent(car, "engine", ComponentSpec{}); err != nil {
		t.Fatal(err)
	}
	delegates := []DelegateSpec{
		{Name: "go", Component: "engine", As: "start"},
		{Name: "describe", Component: "engine", Using: "%c report %n %m"},
		{Name: "spin", Component: "engine", Using: "%c rpm"},
		{Name: "which", Component: "engine", Using: "list %c %s"},
		{Name: "*", Component: "engine", Except: []string{"stop"}},
	}
	for _, d := range delegates {
		if _, err := r.DelegateMethod(car, d); err != nil {
			t.Fatalf("DelegateMethod(%s): %v", d.Name, err)
		}
	}
	if _, err := r.DelegateOption(car, DelegateSpec{Name: "-speed", Component: "engine"}); err != nil {
		t.Fatal(err)
	}
	mustMethod(t, r, car, "rpm", "n", "return own$n")
	if _, err := r.DefineConstructor(car, Args(), "", Body("set engine [Engine #auto]")); err != nil {
		t.Fatal(err)
	}
	return car
}

func TestComponentsAndDelegation(t *testing.T) {
	r, in := newTestRuntime(t)
	car := newCarClasses(t, r)
	mustObject(t, r, car, "c1")

	tests := []struct{ script, want string }{
		{"c1 engine", "::Car::engine0"},
		{"c1 engine start", "started"},
		{"c1 go", "started"},
		{"c1 start", "started"},
		{"c1 describe x y", "Car describe x y"},
		{"c1 spin 5", "rpm5"},
		{"c1 which", "engine ::c1"},
		{"c1 rpm 3", "own3"},
	}
	for _, tt := range tests {
		if got := mustEval(t, in, tt.script); got != tt.want {
			t.Errorf("%s = %q, want %q", tt.script, got, tt.want)
		}
	}
	wantErrContains(t, evalErr(t, in, "c1 stop"), `bad option "stop"`)

	mustEval(t, in, "c1 configure -speed 9")
	if got := mustEval(t, in, "c1 cget -speed"); got != "9" {
		t.Errorf("delegated -speed = %q", got)
	}
	if got := mustEval(t, in, "::Car::engine0 cget -speed"); got != "9" {
		t.Errorf("engine -speed = %q", got)
	}
}

func TestUnsetComponent(t *testing.T) {
	r, in := newTestRuntime(t)
	c, err := r.DefineClass("Shell", nil, KindType)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.AddComponent(c, "inner", ComponentSpec{}); err != nil {
		t.Fatal(err)
	}
	if _, err := r.DelegateMethod(c, DelegateSpec{Name: "ping", Component: "inner"}); err != nil {
		t.Fatal(err)
	}
	if _, err := r.DelegateMethod(c, DelegateSpec{Name: "ping", Component: "inner"}); err == nil {
		t.Error("duplicate delegation accepted")
	}
	if _, err := r.DelegateMethod(c, DelegateSpec{Name: "x", Component: "missing"}); err == nil {
		t.Error("delegation to unknown component accepted")
	}
	mustObject(t, r, c, "s1")

	wantErrContains(t, evalErr(t, in, "s1 ping"), `component "inner" is not set`)
	wantErrContains(t, evalErr(t, in, "s1 inner"), `component "inner" is not set`)
}

func TestExpandUsing(t *testing.T) {
	r, _ := newTestRuntime(t)
	c := mustClass(t, r, "W")
	o := mustObject(t, r, c, "w1")
	got := expandUsing("%c  do-%m %n %t %s 100%% %q", o, "comp", "run")
	want := []string{"comp", "do-run", "W", "::W", "::w1", "100%", "%q"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("expandUsing = %q, want %q", got, want)
	}
}
