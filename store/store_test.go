package store

import (
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/chazu/incr/defs"
	"github.com/chazu/incr/interp"
	"github.com/chazu/incr/oo"
)

const zoo = `
classes:
  - name: Animal
    variables:
      - name: count
        common: true
        default: 0
    constructor:
      body: incr count
    methods:
      - name: speak
        body: return ...
      - name: describe
  - name: Dog
    inherit: [Animal]
    methods:
      - name: speak
        body: return woof
`

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "sub", "classes.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newRuntime(t *testing.T) (*oo.Runtime, *interp.Interp) {
	t.Helper()
	in := interp.New()
	in.Stdout = io.Discard
	r, err := oo.New(in, nil)
	if err != nil {
		t.Fatal(err)
	}
	return r, in
}

func TestSaveLoadClass(t *testing.T) {
	s := openTemp(t)
	def := &defs.ClassDef{
		Name:    "Point",
		Inherit: []string{"::Base"},
		Methods: []defs.MethodDef{{Name: "x", Body: oo.Body("return 1")}},
	}
	if err := s.SaveClass(def); err != nil {
		t.Fatal(err)
	}
	got, err := s.LoadClass("Point")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "::Point" || len(got.Inherit) != 1 || got.Methods[0].Body == nil || *got.Methods[0].Body != "return 1" {
		t.Errorf("loaded %+v", got)
	}
	if def.Name != "Point" {
		t.Error("SaveClass modified its argument")
	}

	if _, err := s.LoadClass("::Missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing class err = %v", err)
	}

	def.Methods[0].Body = oo.Body("return 2")
	if err := s.SaveClass(def); err != nil {
		t.Fatal(err)
	}
	got, _ = s.LoadClass("::Point")
	if got.Methods[0].Body == nil || *got.Methods[0].Body != "return 2" {
		t.Errorf("replaced body = %v", got.Methods[0].Body)
	}
}

func TestClassNamesAndDelete(t *testing.T) {
	s := openTemp(t)
	for _, n := range []string{"B", "A", "::C"} {
		if err := s.SaveClass(&defs.ClassDef{Name: n}); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.SaveBody("::A::m", nil, "return"); err != nil {
		t.Fatal(err)
	}
	names, err := s.ClassNames()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 3 || names[0] != "::A" || names[2] != "::C" {
		t.Errorf("names = %v", names)
	}
	if err := s.DeleteClass("A"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.LoadBody("::A::m"); !errors.Is(err, ErrNotFound) {
		t.Errorf("body of deleted class: %v", err)
	}
	names, _ = s.ClassNames()
	if len(names) != 2 {
		t.Errorf("names after delete = %v", names)
	}
}

func TestWireRoundTrip(t *testing.T) {
	def := "7"
	args := defs.ArgList{{Name: "a"}, {Name: "b", Default: &def}}
	in := &defs.ClassDef{
		Name:        "::W",
		Kind:        "type",
		Constructor: &defs.ConstructorDef{Args: &args, Init: "set x 1"},
		Options:     []defs.OptionDef{{Name: "-o", Default: "d", ReadOnly: true}},
	}
	data, err := MarshalClass(in)
	if err != nil {
		t.Fatal(err)
	}
	again, err := MarshalClass(in)
	if err != nil || string(again) != string(data) {
		t.Error("encoding is not deterministic")
	}
	out, err := UnmarshalClass(data)
	if err != nil {
		t.Fatal(err)
	}
	if out.Constructor == nil || out.Constructor.Args.Spec().String() != "a {b 7}" {
		t.Errorf("constructor = %+v", out.Constructor)
	}
	if !out.Options[0].ReadOnly || out.Kind != "type" {
		t.Errorf("decoded %+v", out)
	}
	if _, err := UnmarshalClass([]byte{0xff}); err == nil {
		t.Error("garbage decoded")
	}
}

func TestAutoloadClasses(t *testing.T) {
	s := openTemp(t)
	f, err := defs.Parse([]byte(zoo), "zoo.yaml")
	if err != nil {
		t.Fatal(err)
	}
	r1, _ := newRuntime(t)
	if _, err := defs.Apply(r1, f); err != nil {
		t.Fatal(err)
	}
	n, err := s.SaveRuntime(r1)
	if err != nil || n != 2 {
		t.Fatalf("SaveRuntime = %d, %v", n, err)
	}

	r2, in := newRuntime(t)
	NewAutoloader(s, r2).Install()
	dog, err := r2.FindClass("Dog", true)
	if err != nil {
		t.Fatalf("FindClass(Dog): %v", err)
	}
	if len(r2.Classes()) != 2 {
		t.Errorf("classes = %v, want base loaded too", r2.Classes())
	}
	if _, err := r2.CreateObject(dog, "d1", nil); err != nil {
		t.Fatal(err)
	}
	if got, err := in.Eval("d1 speak"); err != nil || got != "woof" {
		t.Errorf("d1 speak = %q, %v", got, err)
	}
	if _, err := r2.FindClass("Cat", true); !errors.Is(err, oo.ErrNotFound) {
		t.Errorf("FindClass(Cat) = %v", err)
	}
}

func TestAutoloadBody(t *testing.T) {
	s := openTemp(t)
	r, in := newRuntime(t)
	f, err := defs.Parse([]byte(zoo), "zoo.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := defs.Apply(r, f); err != nil {
		t.Fatal(err)
	}
	args := defs.ArgList{}
	if err := s.SaveBody("::Animal::describe", &args, "return [speak]-animal"); err != nil {
		t.Fatal(err)
	}
	NewAutoloader(s, r).Install()

	if _, err := in.Eval("Dog d1"); err != nil {
		t.Fatal(err)
	}
	got, err := in.Eval("d1 describe")
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if got != "woof-animal" {
		t.Errorf("describe = %q", got)
	}
	if err := s.SaveBody("nocolons", nil, ""); err == nil {
		t.Error("SaveBody accepted a name without a class")
	}
}

func TestOpenMemory(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if err := s.SaveClass(&defs.ClassDef{Name: "M"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.LoadClass("M"); err != nil {
		t.Error(err)
	}
}
