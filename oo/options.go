package oo

import (
	"strings"

	"github.com/chazu/incr/host"
)

// ---------------------------------------------------------------------------
// Options
// ---------------------------------------------------------------------------

// OptionSpec describes an option of an extended class. The method fields
// name members called as "method option ?value?" to read, store or check
// the option.
type OptionSpec struct {
	Name            string
	Default         string
	ReadOnly        bool
	CgetMethod      string
	ConfigureMethod string
	ValidateMethod  string
}

// Option is an option declared by a class.
type Option struct {
	OptionSpec
	class *Class
}

// Class returns the declaring class.
func (opt *Option) Class() *Class { return opt.class }

// Options returns the options c declares, in declaration order.
func (c *Class) Options() []*Option {
	out := make([]*Option, 0, len(c.optionOrder))
	for _, n := range c.optionOrder {
		out = append(out, c.options[n])
	}
	return out
}

func requireExtended(c *Class, what string) error {
	if !c.kind.Extended() {
		return errorf(ErrDefinition, "%q is only available in extended classes", what)
	}
	return nil
}

// AddOption declares an option on an extended class.
func (r *Runtime) AddOption(c *Class, spec OptionSpec) (*Option, error) {
	if err := requireExtended(c, "option"); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(spec.Name, "-") || len(spec.Name) < 2 {
		return nil, errorf(ErrDefinition, "bad option name %q: must start with \"-\"", spec.Name)
	}
	if _, exists := c.options[spec.Name]; exists {
		return nil, errorf(ErrDuplicate, "option %q already defined in class %q", spec.Name, c.fullName)
	}
	opt := &Option{OptionSpec: spec, class: c}
	c.options[spec.Name] = opt
	c.optionOrder = append(c.optionOrder, spec.Name)
	return opt, nil
}

// findOption returns the most specific declaration of name in c's
// heritage.
func (c *Class) findOption(name string) *Option {
	for _, h := range c.heritage {
		if opt, ok := h.options[name]; ok {
			return opt
		}
	}
	return nil
}

// allOptions returns every option visible from c, most specific
// declaration per name, in heritage order.
func (c *Class) allOptions() []*Option {
	var out []*Option
	seen := make(map[string]bool)
	for _, h := range c.heritage {
		for _, n := range h.optionOrder {
			if seen[n] {
				continue
			}
			seen[n] = true
			out = append(out, h.options[n])
		}
	}
	return out
}

// initOptions stores option defaults in the object's options array.
func (r *Runtime) initOptions(o *Object) error {
	opts := o.class.allOptions()
	if len(opts) == 0 {
		return nil
	}
	arr, err := r.optionsArray(o)
	if err != nil {
		return err
	}
	for _, opt := range opts {
		if err := arr.SetElem(opt.Name, opt.Default); err != nil {
			return err
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Components
// ---------------------------------------------------------------------------

// ComponentSpec describes a component. Protection applies to the
// forwarding method; the variable is always protected.
type ComponentSpec struct {
	Protection Protection
}

// Component is an instance variable holding a delegation target plus a
// method of the same name forwarding to it.
type Component struct {
	name     string
	class    *Class
	variable *Variable
	method   *Member
}

// Name returns the component name.
func (comp *Component) Name() string { return comp.name }

// Variable returns the variable holding the component's command name.
func (comp *Component) Variable() *Variable { return comp.variable }

// Protection returns the protection of the forwarding method.
func (comp *Component) Protection() Protection { return comp.method.protection }

// Components returns the components c declares, in declaration order.
func (c *Class) Components() []*Component {
	var out []*Component
	for _, vn := range c.varOrder {
		if comp, ok := c.components[vn]; ok {
			out = append(out, comp)
		}
	}
	return out
}

// AddComponent declares a component on an extended class.
func (r *Runtime) AddComponent(c *Class, name string, spec ComponentSpec) (*Component, error) {
	if err := requireExtended(c, "component"); err != nil {
		return nil, err
	}
	if _, exists := c.components[name]; exists {
		return nil, errorf(ErrDuplicate, "component %q already defined in class %q", name, c.fullName)
	}
	v, err := r.CreateVariable(c, name, VariableSpec{Protection: Protected})
	if err != nil {
		return nil, err
	}
	v.flags |= varComponent
	comp := &Component{name: name, class: c, variable: v}

	native := "component " + c.fullName + "::" + name
	r.RegisterNative(native, func(inv *Invocation) (string, error) {
		target, err := r.componentValue(inv.Object, comp)
		if err != nil {
			return "", err
		}
		if len(inv.Args) == 0 {
			return target, nil
		}
		return r.host.InvokeCommand("::", append([]string{target}, inv.Args...))
	})
	m, err := r.CreateMember(c, name, MemberSpec{Protection: spec.Protection, Body: Body("@" + native)})
	if err != nil {
		return nil, err
	}
	m.flags |= memberComponent
	comp.method = m
	c.components[name] = comp
	return comp, nil
}

// findComponent looks name up through c's heritage.
func (c *Class) findComponent(name string) *Component {
	for _, h := range c.heritage {
		if comp, ok := h.components[name]; ok {
			return comp
		}
	}
	return nil
}

func (r *Runtime) componentValue(o *Object, comp *Component) (string, error) {
	slot, err := r.objectSlot(o, comp.variable)
	if err != nil {
		return "", err
	}
	val, _ := slot.Get()
	if val == "" {
		return "", errorf(ErrNotFound, "component %q is not set", comp.name)
	}
	return val, nil
}

// ---------------------------------------------------------------------------
// Delegation
// ---------------------------------------------------------------------------

// DelegateSpec describes a delegated method or option. Name "*" delegates
// everything not excepted. As renames the target; Using replaces the
// whole forwarded command with a pattern taking %c (component), %m
// (method), %n (class name), %s (object), %t (class full name) and %%.
type DelegateSpec struct {
	Name      string
	Component string
	As        string
	Using     string
	Except    []string
}

// Delegation is an installed DelegateSpec.
type Delegation struct {
	DelegateSpec
	class     *Class
	component *Component
	option    bool
}

// DelegatedMethods returns c's method delegations in declaration order.
func (c *Class) DelegatedMethods() []*Delegation {
	return append([]*Delegation(nil), c.delegatedMethods...)
}

// DelegatedOptions returns c's option delegations in declaration order.
func (c *Class) DelegatedOptions() []*Delegation {
	return append([]*Delegation(nil), c.delegatedOptions...)
}

func (d *Delegation) excepts(name string) bool {
	for _, e := range d.Except {
		if e == name {
			return true
		}
	}
	return false
}

func (r *Runtime) newDelegation(c *Class, spec DelegateSpec, option bool) (*Delegation, error) {
	what := "delegate method"
	if option {
		what = "delegate option"
	}
	if err := requireExtended(c, what); err != nil {
		return nil, err
	}
	comp := c.findComponent(spec.Component)
	if comp == nil {
		return nil, errorf(ErrNotFound, "component %q is not defined in class %q", spec.Component, c.fullName)
	}
	if spec.Name == "" {
		return nil, errorf(ErrDefinition, "missing delegation name")
	}
	if option && spec.Name != "*" && !strings.HasPrefix(spec.Name, "-") {
		return nil, errorf(ErrDefinition, "bad option name %q: must start with \"-\"", spec.Name)
	}
	list := c.delegatedMethods
	if option {
		list = c.delegatedOptions
	}
	for _, d := range list {
		if d.Name == spec.Name {
			return nil, errorf(ErrDuplicate, "%s %q already defined in class %q", what, spec.Name, c.fullName)
		}
	}
	return &Delegation{DelegateSpec: spec, class: c, component: comp, option: option}, nil
}

// DelegateMethod forwards a method, or every method with "*", to a
// component.
func (r *Runtime) DelegateMethod(c *Class, spec DelegateSpec) (*Delegation, error) {
	d, err := r.newDelegation(c, spec, false)
	if err != nil {
		return nil, err
	}
	c.delegatedMethods = append(c.delegatedMethods, d)
	return d, nil
}

// DelegateOption forwards an option, or every option with "*", to a
// component.
func (r *Runtime) DelegateOption(c *Class, spec DelegateSpec) (*Delegation, error) {
	d, err := r.newDelegation(c, spec, true)
	if err != nil {
		return nil, err
	}
	c.delegatedOptions = append(c.delegatedOptions, d)
	return d, nil
}

// installDelegates sets up o's forwarded methods and options after
// construction, when components hold their targets. Methods the class
// defines itself are never shadowed.
func (r *Runtime) installDelegates(o *Object) error {
	o.delegates = make(map[string]*Delegation)
	o.optionDelegates = make(map[string]*Delegation)
	for _, h := range o.class.heritage {
		for _, d := range h.delegatedMethods {
			if d.Name != "*" {
				if _, defined := o.class.resolveCmds[d.Name]; !defined && o.delegates[d.Name] == nil {
					o.delegates[d.Name] = d
				}
				continue
			}
			if o.wildcard == nil {
				o.wildcard = d
			}
			for _, name := range r.componentMethods(o, d) {
				if _, defined := o.class.resolveCmds[name]; defined || d.excepts(name) || o.delegates[name] != nil {
					continue
				}
				o.delegates[name] = d
			}
		}
		for _, d := range h.delegatedOptions {
			if d.Name == "*" {
				if o.optionWildcard == nil {
					o.optionWildcard = d
				}
				continue
			}
			if o.optionDelegates[d.Name] == nil && o.class.findOption(d.Name) == nil {
				o.optionDelegates[d.Name] = d
			}
		}
	}
	return nil
}

// componentMethods lists the public methods of the object held by d's
// component, when it holds one of ours.
func (r *Runtime) componentMethods(o *Object, d *Delegation) []string {
	target, err := r.componentValue(o, d.component)
	if err != nil {
		return nil
	}
	co, ok := r.FindObject(target)
	if !ok {
		return nil
	}
	var names []string
	for name, m := range co.class.resolveCmds {
		if strings.Contains(name, "::") || !callableFromObject(m) || m.protection != Public || m.class.builtin {
			continue
		}
		names = append(names, name)
	}
	return names
}

// expandUsing substitutes the %-placeholders of a using pattern. %c is
// the component name.
func expandUsing(pattern string, o *Object, component, method string) []string {
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		ch := pattern[i]
		if ch != '%' || i+1 == len(pattern) {
			b.WriteByte(ch)
			continue
		}
		i++
		switch pattern[i] {
		case 'c':
			b.WriteString(component)
		case 'm':
			b.WriteString(method)
		case 'n':
			b.WriteString(o.class.name)
		case 's':
			b.WriteString(o.name)
		case 't':
			b.WriteString(o.class.fullName)
		case '%':
			b.WriteByte('%')
		default:
			b.WriteByte('%')
			b.WriteByte(pattern[i])
		}
	}
	return strings.Fields(b.String())
}

// forwardWords builds the command a delegation without a using pattern
// runs for name.
func (r *Runtime) forwardWords(o *Object, d *Delegation, name string) ([]string, error) {
	target, err := r.componentValue(o, d.component)
	if err != nil {
		return nil, err
	}
	as := []string{name}
	if d.As != "" && d.Name != "*" {
		if as, err = host.SplitList(d.As); err != nil {
			return nil, err
		}
	}
	return append([]string{target}, as...), nil
}

// forwardMethod runs a delegated method. A using pattern names the
// component by %c, so its command runs with o active in the class that
// declares the component.
func (r *Runtime) forwardMethod(o *Object, d *Delegation, method string, args []string) (string, error) {
	o.refs.preserve()
	defer o.refs.release()
	if d.Using != "" {
		if _, err := r.componentValue(o, d.component); err != nil {
			return "", err
		}
		words := append(expandUsing(d.Using, o, d.component.name, method), args...)
		return r.evalInObject(o, d.component.class, host.FormatList(words))
	}
	words, err := r.forwardWords(o, d, method)
	if err != nil {
		return "", err
	}
	return r.host.InvokeCommand("::", append(words, args...))
}

// delegatedOption returns the delegation serving option name, if any.
func (o *Object) delegatedOption(name string) *Delegation {
	if d := o.optionDelegates[name]; d != nil {
		return d
	}
	if d := o.optionWildcard; d != nil && !d.excepts(name) {
		return d
	}
	return nil
}

// forwardOption runs "component cget|configure target ?value?".
func (r *Runtime) forwardOption(o *Object, d *Delegation, op, option string, value ...string) (string, error) {
	target, err := r.componentValue(o, d.component)
	if err != nil {
		return "", err
	}
	name := option
	if d.As != "" && d.Name != "*" {
		name = d.As
	}
	words := append([]string{target, op, name}, value...)
	return r.host.InvokeCommand("::", words)
}
