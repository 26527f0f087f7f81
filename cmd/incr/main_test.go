package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const zoo = `
classes:
  - name: Animal
    variables:
      - name: sound
        protection: public
        default: "..."
    methods:
      - name: speak
        body: return $sound
  - name: Dog
    inherit: [Animal]
    methods:
      - name: speak
        body: return woof
`

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
}

// newEnv sets up a project dir with incr.toml and one definitions file.
func newEnv(t *testing.T, create bool) *env {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "incr.toml"), "[store]\npath = \"classes.db\"\n[defs]\nfiles = [\"zoo.yaml\"]\n")
	writeFile(t, filepath.Join(dir, "zoo.yaml"), zoo)
	e, err := setup(&cliOptions{configDir: dir}, create)
	if err != nil {
		t.Fatal(err)
	}
	e.in.Stdout = io.Discard
	t.Cleanup(e.close)
	return e
}

func TestParseOptions(t *testing.T) {
	tests := []struct {
		argv  []string
		cmd   string
		class string
		defs  []string
	}{
		{[]string{"check", "a.yaml", "b.yaml"}, "check", "", []string{"a.yaml", "b.yaml"}},
		{[]string{"vtable", "Dog", "zoo.yaml"}, "vtable", "Dog", []string{"zoo.yaml"}},
		{[]string{"heritage", "-v", "Dog"}, "heritage", "Dog", nil},
		{[]string{"shell", "--no-color"}, "shell", "", nil},
	}
	for _, tt := range tests {
		cmd, opts, err := parseOptions(tt.argv)
		if err != nil {
			t.Fatalf("%v: %v", tt.argv, err)
		}
		if cmd != tt.cmd || opts.class != tt.class {
			t.Errorf("%v: got %s %q", tt.argv, cmd, opts.class)
		}
		if strings.Join(opts.defs, ",") != strings.Join(tt.defs, ",") {
			t.Errorf("%v: defs = %v", tt.argv, opts.defs)
		}
		if opts.configDir != "." {
			t.Errorf("%v: config dir = %q", tt.argv, opts.configDir)
		}
	}
}

func TestComplete(t *testing.T) {
	tests := []struct {
		script string
		want   bool
	}{
		{"set x 1\n", true},
		{"set x {\n", false},
		{"set x {a [b]}\n", true},
		{"set x \\{\n", true},
		{"puts [list a\n", false},
	}
	for _, tt := range tests {
		if got := complete(tt.script); got != tt.want {
			t.Errorf("complete(%q) = %v", tt.script, got)
		}
	}
}

func TestSetupAppliesDefinitions(t *testing.T) {
	e := newEnv(t, false)
	if len(e.order) != 1 || e.applied[e.order[0]] != 2 {
		t.Fatalf("applied = %v", e.applied)
	}
	if e.store != nil {
		t.Error("store opened without create")
	}
	if _, err := e.rt.FindClass("Dog", false); err != nil {
		t.Fatal(err)
	}
}

type scriptReader struct{ lines []string }

func (r *scriptReader) ReadLine(string) (string, error) {
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

func (r *scriptReader) Close() error { return nil }

func TestShell(t *testing.T) {
	e := newEnv(t, false)
	var out bytes.Buffer
	sh := &shell{env: e, styles: newStyles(true), out: &out}
	err := sh.run(&scriptReader{lines: []string{
		"Dog d1",
		"d1 speak",
		"set x {a",
		"b}",
		":objects",
		":classes",
		"d1 fly",
		":bogus",
		":quit",
		"d1 speak",
	}})
	if err != nil {
		t.Fatal(err)
	}
	got := out.String()
	for _, want := range []string{
		"d1\nwoof\na\nb\n",
		"::d1 ::Dog\n",
		"::Animal\n::Dog\n",
		`error: bad option "fly"`,
		`unknown shell command ":bogus"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Count(got, "woof") != 1 {
		t.Errorf("input after :quit was evaluated:\n%s", got)
	}
}

func TestVTableView(t *testing.T) {
	e := newEnv(t, false)
	c, err := e.rt.FindClass("Dog", false)
	if err != nil {
		t.Fatal(err)
	}
	view := vtableView(c, newStyles(true))
	for _, want := range []string{"NAME", "::Dog::speak", "Animal::speak", "::Animal::sound"} {
		if !strings.Contains(view, want) {
			t.Errorf("vtable missing %q:\n%s", want, view)
		}
	}
}

func TestExportAndSave(t *testing.T) {
	e := newEnv(t, true)
	var out bytes.Buffer
	stdout = &out
	defer func() { stdout = os.Stdout }()

	if err := runExport(e, &cliOptions{}, newStyles(true)); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "name: ::Dog") {
		t.Errorf("export:\n%s", out.String())
	}

	if err := runExport(e, &cliOptions{save: true}, newStyles(true)); err != nil {
		t.Fatal(err)
	}
	names, err := e.store.ClassNames()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(names, " ") != "::Animal ::Dog" {
		t.Errorf("stored classes = %v", names)
	}
}
