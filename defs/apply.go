package defs

import (
	"fmt"

	"github.com/chazu/incr/oo"
)

// Apply defines every class of f in document order, so bases must come
// before the classes that inherit them unless an autoloader supplies
// them. On error the classes defined so far stay defined.
func Apply(r *oo.Runtime, f *File) ([]*oo.Class, error) {
	var out []*oo.Class
	for i := range f.Classes {
		c, err := ApplyClass(r, &f.Classes[i])
		if err != nil {
			return out, err
		}
		out = append(out, c)
	}
	return out, nil
}

// ApplyClass defines one class. A class that fails part way is deleted
// again.
func ApplyClass(r *oo.Runtime, def *ClassDef) (*oo.Class, error) {
	kind := oo.KindClass
	if def.Kind != "" {
		k, err := oo.ParseClassKind(def.Kind)
		if err != nil {
			return nil, err
		}
		kind = k
	}
	c, err := r.DefineClass(def.Name, def.Inherit, kind)
	if err != nil {
		return nil, err
	}
	if err := populate(r, c, def); err != nil {
		if derr := r.DeleteClass(c); derr != nil {
			log.Warningf("could not remove partly defined class %s: %s", c.FullName(), derr)
		}
		return nil, fmt.Errorf("class %q: %w", def.Name, err)
	}
	log.Debugf("defined class %s from definitions", c.FullName())
	return c, nil
}

func argSpec(al *ArgList) *oo.ArgSpec {
	if al == nil {
		return nil
	}
	return al.Spec()
}

func populate(r *oo.Runtime, c *oo.Class, def *ClassDef) error {
	for _, v := range def.Variables {
		prot, err := oo.ParseProtection(v.Protection)
		if err != nil {
			return err
		}
		if _, err := r.CreateVariable(c, v.Name, oo.VariableSpec{
			Protection: prot,
			Common:     v.Common,
			Default:    v.Default,
			Config:     v.Config,
		}); err != nil {
			return err
		}
	}
	for _, comp := range def.Components {
		prot, err := oo.ParseProtection(comp.Protection)
		if err != nil {
			return err
		}
		if _, err := r.AddComponent(c, comp.Name, oo.ComponentSpec{Protection: prot}); err != nil {
			return err
		}
	}
	for _, opt := range def.Options {
		if _, err := r.AddOption(c, oo.OptionSpec{
			Name:            opt.Name,
			Default:         opt.Default,
			ReadOnly:        opt.ReadOnly,
			CgetMethod:      opt.Cget,
			ConfigureMethod: opt.Configure,
			ValidateMethod:  opt.Validate,
		}); err != nil {
			return err
		}
	}
	for _, m := range def.Methods {
		prot, err := oo.ParseProtection(m.Protection)
		if err != nil {
			return err
		}
		if _, err := r.CreateMember(c, m.Name, oo.MemberSpec{
			Protection: prot,
			Common:     m.Proc,
			Args:       argSpec(m.Args),
			Body:       m.Body,
		}); err != nil {
			return err
		}
	}
	if ctor := def.Constructor; ctor != nil {
		if _, err := r.DefineConstructor(c, argSpec(ctor.Args), ctor.Init, ctor.Body); err != nil {
			return err
		}
	}
	if def.Destructor != nil {
		if _, err := r.CreateMember(c, "destructor", oo.MemberSpec{Body: def.Destructor}); err != nil {
			return err
		}
	}
	for _, d := range def.Delegates {
		spec := oo.DelegateSpec{Component: d.To, As: d.As, Using: d.Using, Except: d.Except}
		var err error
		if d.Option != "" {
			spec.Name = d.Option
			_, err = r.DelegateOption(c, spec)
		} else {
			spec.Name = d.Method
			_, err = r.DelegateMethod(c, spec)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Export describes c as a ClassDef. Members and variables the runtime
// created implicitly are left out.
func Export(c *oo.Class) ClassDef {
	def := ClassDef{Name: c.FullName()}
	if c.Kind() != oo.KindClass {
		def.Kind = c.Kind().String()
	}
	for _, b := range c.Bases() {
		def.Inherit = append(def.Inherit, b.FullName())
	}
	for _, v := range c.Variables() {
		if v.Implicit() {
			continue
		}
		vd := VariableDef{
			Name:       v.Name(),
			Protection: v.Protection().String(),
			Common:     v.IsCommon(),
			Config:     v.Config(),
		}
		if d, ok := v.Default(); ok {
			vd.Default = &d
		}
		def.Variables = append(def.Variables, vd)
	}
	for _, comp := range c.Components() {
		def.Components = append(def.Components, ComponentDef{
			Name:       comp.Name(),
			Protection: comp.Protection().String(),
		})
	}
	for _, opt := range c.Options() {
		def.Options = append(def.Options, OptionDef{
			Name:      opt.Name,
			Default:   opt.Default,
			ReadOnly:  opt.ReadOnly,
			Cget:      opt.CgetMethod,
			Configure: opt.ConfigureMethod,
			Validate:  opt.ValidateMethod,
		})
	}
	for _, m := range c.Members() {
		switch {
		case m.Implicit():
			continue
		case m.IsConstructor():
			def.Constructor = &ConstructorDef{Init: c.InitCode(), Body: bodyOf(m)}
			if m.Args() != nil {
				args := FromArgSpec(m.Args())
				def.Constructor.Args = &args
			}
			continue
		case m.IsDestructor():
			def.Destructor = bodyOf(m)
			continue
		}
		md := MethodDef{
			Name:       m.Name(),
			Protection: m.Protection().String(),
			Proc:       m.IsCommon(),
			Body:       bodyOf(m),
		}
		if m.Args() != nil {
			args := FromArgSpec(m.Args())
			md.Args = &args
		}
		def.Methods = append(def.Methods, md)
	}
	for _, d := range c.DelegatedMethods() {
		def.Delegates = append(def.Delegates, DelegateDef{
			Method: d.Name, To: d.Component, As: d.As, Using: d.Using, Except: d.Except,
		})
	}
	for _, d := range c.DelegatedOptions() {
		def.Delegates = append(def.Delegates, DelegateDef{
			Option: d.Name, To: d.Component, As: d.As, Except: d.Except,
		})
	}
	return def
}

// bodyOf returns the body of m, or nil when m is not implemented.
func bodyOf(m *oo.Member) *string {
	if !m.Implemented() {
		return nil
	}
	return oo.Body(m.Body())
}

// ExportAll describes every class of r in definition order.
func ExportAll(r *oo.Runtime) *File {
	f := &File{}
	for _, c := range r.Classes() {
		f.Classes = append(f.Classes, Export(c))
	}
	return f
}
