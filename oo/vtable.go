package oo

import (
	"sort"
	"strings"
)

// VarLookup is a resolution table entry for a variable.
type VarLookup struct {
	Var *Variable
	// Accessible is false when Var is private to another class.
	Accessible bool
	Common     bool
}

// qualifiedNames returns name plus every qualified form through the
// declaring class: "x", "A::x", "ns::A::x".
func qualifiedNames(classFull, name string) []string {
	parts := strings.Split(strings.TrimPrefix(classFull, "::"), "::")
	out := []string{name}
	for i := len(parts) - 1; i >= 0; i-- {
		out = append(out, strings.Join(parts[i:], "::")+"::"+name)
	}
	return out
}

// buildVirtualTables flattens the members and variables of c's heritage,
// most specific first, then rebuilds every derived class.
func (c *Class) buildVirtualTables() {
	c.resolveVars = make(map[string]*VarLookup)
	c.resolveCmds = make(map[string]*Member)

	for _, h := range c.heritage {
		for _, vn := range h.varOrder {
			v := h.variables[vn]
			lookup := &VarLookup{
				Var:        v,
				Accessible: v.protection != Private || h == c,
				Common:     v.common,
			}
			for _, key := range qualifiedNames(h.fullName, vn) {
				if _, taken := c.resolveVars[key]; !taken {
					c.resolveVars[key] = lookup
				}
			}
		}
		for _, mn := range h.memberOrder {
			m := h.members[mn]
			if m.flags&memberInitHelper != 0 {
				continue
			}
			for _, key := range qualifiedNames(h.fullName, mn) {
				if _, taken := c.resolveCmds[key]; !taken {
					c.resolveCmds[key] = m
				}
			}
		}
	}
	if b := c.rt.builtin; b != nil && b != c {
		for _, mn := range b.memberOrder {
			if _, taken := c.resolveCmds[mn]; !taken {
				c.resolveCmds[mn] = b.members[mn]
			}
		}
	}

	for _, d := range c.derived {
		d.buildVirtualTables()
	}
}

// ResolveMember returns the most specific member visible from c under
// name, which may be qualified.
func (c *Class) ResolveMember(name string) (*Member, bool) {
	m, ok := c.resolveCmds[name]
	return m, ok
}

// ResolveVar returns the most specific variable visible from c under
// name, which may be qualified.
func (c *Class) ResolveVar(name string) (*VarLookup, bool) {
	v, ok := c.resolveVars[name]
	return v, ok
}

// TableEntry is one row of a class's resolution tables.
type TableEntry struct {
	Name       string
	Kind       string
	Target     string
	Protection Protection
	Accessible bool
}

// VirtualTable lists both resolution tables sorted by name, members
// before variables.
func (c *Class) VirtualTable() []TableEntry {
	out := make([]TableEntry, 0, len(c.resolveCmds)+len(c.resolveVars))
	for name, m := range c.resolveCmds {
		out = append(out, TableEntry{
			Name:       name,
			Kind:       m.Kind(),
			Target:     m.fullName,
			Protection: m.protection,
			Accessible: m.protection != Private || m.class == c,
		})
	}
	for name, l := range c.resolveVars {
		out = append(out, TableEntry{
			Name:       name,
			Kind:       l.Var.Kind(),
			Target:     l.Var.fullName,
			Protection: l.Var.protection,
			Accessible: l.Accessible,
		})
	}
	rank := func(kind string) int {
		if kind == "method" || kind == "proc" {
			return 0
		}
		return 1
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return rank(out[i].Kind) < rank(out[j].Kind)
	})
	return out
}
