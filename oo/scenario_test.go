package oo

import (
	"errors"
	"testing"
)

func defineAnimals(t *testing.T, r *Runtime) (*Class, *Class) {
	t.Helper()
	animal := mustClass(t, r, "Animal")
	mustVar(t, r, animal, "count", VariableSpec{Common: true, Default: str("0")})
	if _, err := r.DefineConstructor(animal, Args(), "", Body("incr count")); err != nil {
		t.Fatal(err)
	}
	mustMethod(t, r, animal, "speak", "", "return ...")
	mustMethod(t, r, animal, "talk", "", "speak")
	dog := mustClass(t, r, "Dog", "Animal")
	mustMethod(t, r, dog, "speak", "", "return woof")
	return animal, dog
}

func TestAnimalScenario(t *testing.T) {
	r, in := newTestRuntime(t)
	defineAnimals(t, r)
	mustEval(t, in, "Dog d1; Dog d2")

	if got := mustEval(t, in, "set ::Animal::count"); got != "2" {
		t.Errorf("count = %q, want 2", got)
	}
	tests := []struct{ script, want string }{
		{"d1 speak", "woof"},
		{"d2 speak", "woof"},
		{"d1 talk", "woof"},
		{"d2 Animal::speak", "..."},
	}
	for _, tt := range tests {
		if got := mustEval(t, in, tt.script); got != tt.want {
			t.Errorf("%s = %q, want %q", tt.script, got, tt.want)
		}
	}
}

func TestDeleteBaseClassCascades(t *testing.T) {
	r, in := newTestRuntime(t)
	animal, dog := defineAnimals(t, r)
	mustDestructor(t, r, dog, "lappend ::log dtor-$this")
	mustDestructor(t, r, animal, "lappend ::log base-$this")
	mustEval(t, in, "Animal a1; Dog d1")

	if err := r.DeleteClass(animal); err != nil {
		t.Fatalf("DeleteClass: %v", err)
	}
	if got := logOf(t, in); got != "dtor-::d1 base-::d1 base-::a1" {
		t.Errorf("destructor log = %q", got)
	}
	if len(r.Classes()) != 0 || len(r.Objects()) != 0 {
		t.Errorf("left %d classes, %d objects", len(r.Classes()), len(r.Objects()))
	}
	for _, cmd := range []string{"::d1", "::a1", "::Dog", "::Animal", "::Animal::speak"} {
		if in.CommandExists(cmd) {
			t.Errorf("command %s survived", cmd)
		}
	}
	if in.NamespaceExists("::Animal") {
		t.Error("class namespace survived")
	}
	if _, err := r.FindClass("Dog", false); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindClass(Dog) = %v", err)
	}
	if !dog.Deleted() || !animal.Deleted() {
		t.Error("classes not marked deleted")
	}
}

func TestDeleteClassAbortsOnDestructorError(t *testing.T) {
	r, in := newTestRuntime(t)
	animal, dog := defineAnimals(t, r)
	mustDestructor(t, r, dog, "error nope")
	mustEval(t, in, "Dog d1")

	err := r.DeleteClass(animal)
	if err == nil || err.Error() != "nope\n    (while deleting class \"Dog\")" {
		t.Fatalf("err = %v", err)
	}
	if _, ok := r.FindObject("d1"); !ok {
		t.Error("d1 should survive a failed delete")
	}
	if got := mustEval(t, in, "d1 speak"); got != "woof" {
		t.Errorf("speak after failed delete = %q", got)
	}
	if dog.Deleted() || animal.Deleted() {
		t.Error("classes marked deleted after failure")
	}
}

func TestDeleteClassByRenamingCommand(t *testing.T) {
	r, in := newTestRuntime(t)
	defineAnimals(t, r)
	mustEval(t, in, "Dog d1")
	mustEval(t, in, "rename Animal {}")
	if len(r.Classes()) != 0 {
		t.Errorf("classes = %v", r.Classes())
	}
	if in.CommandExists("::d1") {
		t.Error("instance survived its class")
	}
}

func TestRuntimeClose(t *testing.T) {
	r, in := newTestRuntime(t)
	defineAnimals(t, r)
	other := mustClass(t, r, "Other")
	mustObject(t, r, other, "o1")
	mustEval(t, in, "Dog d1")
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
	if len(r.Classes()) != 0 || len(r.Objects()) != 0 {
		t.Errorf("Close left %d classes, %d objects", len(r.Classes()), len(r.Objects()))
	}
}
