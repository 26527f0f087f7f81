package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/chazu/incr/defs"
	"github.com/chazu/incr/oo"
)

var stdout io.Writer = os.Stdout

func runCheck(e *env, _ *cliOptions, st *styles) error {
	total := 0
	for _, path := range e.order {
		n := e.applied[path]
		total += n
		fmt.Fprintf(stdout, "%s %s %s\n", st.ok.Render("ok"), path, st.muted.Render(fmt.Sprintf("(%d classes)", n)))
	}
	fmt.Fprintln(stdout, st.muted.Render(fmt.Sprintf("%d classes defined", total)))
	return nil
}

func runHeritage(e *env, opts *cliOptions, st *styles) error {
	c, err := e.rt.FindClass(opts.class, true)
	if err != nil {
		return err
	}
	printHeritage(stdout, c, st)
	return nil
}

func printHeritage(w io.Writer, c *oo.Class, st *styles) {
	for i, h := range c.Heritage() {
		name := h.FullName()
		if i == 0 {
			name = st.header.Render(name)
		}
		fmt.Fprintf(w, "%s %s\n", name, st.muted.Render(h.Kind().String()))
	}
	var walk func(*oo.Class, string)
	walk = func(cl *oo.Class, indent string) {
		for _, b := range cl.Bases() {
			fmt.Fprintf(w, "%s%s\n", indent, b.FullName())
			walk(b, indent+"  ")
		}
	}
	if len(c.Bases()) > 0 {
		fmt.Fprintln(w, st.muted.Render("inheritance:"))
		walk(c, "  ")
	}
}

func runVTable(e *env, opts *cliOptions, st *styles) error {
	c, err := e.rt.FindClass(opts.class, true)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, vtableView(c, st))
	return nil
}

// vtableView renders the resolution tables of c.
func vtableView(c *oo.Class, st *styles) string {
	rows := make([][]string, 0)
	for _, e := range c.VirtualTable() {
		access := "yes"
		if !e.Accessible {
			access = "no"
		}
		rows = append(rows, []string{e.Name, e.Kind, e.Target, e.Protection.String(), access})
	}
	t := table.New().
		Headers("NAME", "KIND", "TARGET", "PROTECTION", "ACCESSIBLE").
		Rows(rows...)
	if st.plain {
		return t.Border(lipgloss.HiddenBorder()).String()
	}
	return t.Border(lipgloss.RoundedBorder()).
		BorderStyle(st.muted).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return st.header.Padding(0, 1)
			}
			if rows[row][4] == "no" {
				return st.muted.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).String()
}

func runExport(e *env, opts *cliOptions, st *styles) error {
	f := defs.ExportAll(e.rt)
	if opts.save {
		if e.store == nil {
			return fmt.Errorf("no class store configured")
		}
		n, err := e.store.SaveRuntime(e.rt)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, st.muted.Render(fmt.Sprintf("saved %d classes to %s", n, e.store.Path())))
		return nil
	}
	data, err := defs.Marshal(f)
	if err != nil {
		return err
	}
	_, err = stdout.Write(data)
	return err
}

// objectList formats live objects as "name class" lines.
func objectList(rt *oo.Runtime) string {
	var b strings.Builder
	for _, o := range rt.Objects() {
		fmt.Fprintf(&b, "%s %s\n", o.Name(), o.Class().FullName())
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func classList(rt *oo.Runtime) string {
	names := make([]string, 0)
	for _, c := range rt.Classes() {
		names = append(names, c.FullName())
	}
	return strings.Join(names, "\n")
}
