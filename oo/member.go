package oo

import (
	"strings"

	"github.com/chazu/incr/host"
)

// Protection is the access level of a member or variable.
type Protection int

const (
	// DefaultProtection selects public for members and protected for
	// variables.
	DefaultProtection Protection = iota
	Public
	Protected
	Private
)

func (p Protection) String() string {
	switch p {
	case Public:
		return "public"
	case Protected:
		return "protected"
	case Private:
		return "private"
	}
	return "default"
}

// ParseProtection maps "public", "protected" or "private" to its value.
// The empty string gives DefaultProtection.
func ParseProtection(s string) (Protection, error) {
	switch s {
	case "":
		return DefaultProtection, nil
	case "public":
		return Public, nil
	case "protected":
		return Protected, nil
	case "private":
		return Private, nil
	}
	return DefaultProtection, errorf(ErrDefinition, "bad protection level %q", s)
}

type memberFlags int

const (
	memberCommon memberFlags = 1 << iota
	memberConstructor
	memberDestructor
	memberInitHelper
	memberBuiltin
	memberComponent
)

// NativeFunc implements a member in Go. Bodies of the form "@name" select
// the function registered under name.
type NativeFunc func(inv *Invocation) (string, error)

// Invocation describes one call of a native member.
type Invocation struct {
	Runtime *Runtime
	Object  *Object
	Member  *Member
	// Namespace is the caller's namespace.
	Namespace string
	Args      []string
}

// Eval runs script in the member's class namespace with the call's
// object context still active.
func (inv *Invocation) Eval(script string) (string, error) {
	return inv.Runtime.host.Evaluate(&host.Request{
		Name:      inv.Member.fullName,
		Namespace: inv.Member.class.fullName,
		Body:      script,
		Resolver:  inv.Runtime,
	})
}

// ---------------------------------------------------------------------------
// MemberCode
// ---------------------------------------------------------------------------

// MemberCode is one implementation of a member. A call keeps the code it
// started with even if the body is replaced while it runs.
type MemberCode struct {
	args        *ArgSpec
	body        string
	native      NativeFunc
	implemented bool
	discarded   bool
	refs        refs
}

// Args returns the effective parameter list. Nil means any arguments.
func (mc *MemberCode) Args() *ArgSpec { return mc.args }

// Body returns the body text.
func (mc *MemberCode) Body() string { return mc.body }

// Implemented reports whether the code can run.
func (mc *MemberCode) Implemented() bool { return mc.implemented }

// Discarded reports whether the code was replaced and no call uses it.
func (mc *MemberCode) Discarded() bool { return mc.discarded }

func (mc *MemberCode) discard() { mc.discarded = true }

// newMemberCode builds code for body. A nil body leaves the member
// unimplemented; an empty one is a script that returns "".
func (r *Runtime) newMemberCode(args *ArgSpec, body *string) (*MemberCode, error) {
	mc := &MemberCode{args: args}
	if body == nil {
		return mc, nil
	}
	mc.body = *body
	mc.implemented = true
	if strings.HasPrefix(mc.body, "@") {
		fn, ok := r.natives[mc.body[1:]]
		if !ok {
			return nil, errorf(ErrNotFound, "no registered native function %q", mc.body[1:])
		}
		mc.native = fn
	} else if mc.args == nil {
		mc.args = &ArgSpec{}
	}
	return mc, nil
}

// ---------------------------------------------------------------------------
// Member
// ---------------------------------------------------------------------------

// Member is a method, proc, constructor or destructor.
type Member struct {
	name         string
	fullName     string
	class        *Class
	protection   Protection
	flags        memberFlags
	declaredArgs *ArgSpec
	code         *MemberCode
	command      string
	usage        string
	refs         refs
}

// MemberSpec describes a member to create. A nil Args means the member is
// declared without a parameter list; the body definition supplies it
// later. A nil Body means the member is not implemented yet and is
// autoloaded on first call.
type MemberSpec struct {
	Protection Protection
	Common     bool
	Args       *ArgSpec
	Body       *string
}

// Body returns a pointer to text for use in MemberSpec.
func Body(text string) *string { return &text }

// Name returns the simple member name.
func (m *Member) Name() string { return m.name }

// FullName returns "<class>::<name>".
func (m *Member) FullName() string { return m.fullName }

// Class returns the declaring class.
func (m *Member) Class() *Class { return m.class }

// Protection returns the access level.
func (m *Member) Protection() Protection { return m.protection }

// IsCommon reports whether the member is a proc.
func (m *Member) IsCommon() bool { return m.flags&memberCommon != 0 }

// IsConstructor reports whether the member is the class constructor.
func (m *Member) IsConstructor() bool { return m.flags&memberConstructor != 0 }

// IsDestructor reports whether the member is the class destructor.
func (m *Member) IsDestructor() bool { return m.flags&memberDestructor != 0 }

// Implicit reports whether the runtime created the member itself, such
// as a component's forwarding method or the constructor init code.
func (m *Member) Implicit() bool {
	return m.flags&(memberInitHelper|memberComponent|memberBuiltin) != 0
}

// Code returns the current implementation.
func (m *Member) Code() *MemberCode { return m.code }

// Args returns the effective parameter list.
func (m *Member) Args() *ArgSpec { return m.code.args }

// Body returns the current body text.
func (m *Member) Body() string { return m.code.body }

// Implemented reports whether the member has runnable code.
func (m *Member) Implemented() bool { return m.code.implemented }

// Kind is "method" or "proc".
func (m *Member) Kind() string {
	if m.IsCommon() {
		return "proc"
	}
	return "method"
}

// usageArgs is the argument part of the member's usage string.
func (m *Member) usageArgs() string {
	if m.usage != "" {
		return m.usage
	}
	if m.code.args == nil {
		return "?arg arg ...?"
	}
	return m.code.args.Usage()
}

func validMemberName(name string) bool {
	return name != "" && !strings.Contains(name, "::")
}

// CreateMember adds a member to c. The names "constructor" and
// "destructor" are special.
func (r *Runtime) CreateMember(c *Class, name string, spec MemberSpec) (*Member, error) {
	if !validMemberName(name) {
		return nil, errorf(ErrDefinition, "bad member name %q", name)
	}
	if _, exists := c.members[name]; exists {
		return nil, errorf(ErrDuplicate, "%q already defined in class %q", name, c.fullName)
	}
	if name == "destructor" && spec.Args != nil && len(spec.Args.Args) > 0 {
		return nil, errorf(ErrDefinition, "%q cannot have arguments", name)
	}
	code, err := r.newMemberCode(spec.Args, spec.Body)
	if err != nil {
		return nil, err
	}
	m := &Member{
		name:         name,
		class:        c,
		protection:   spec.Protection,
		declaredArgs: spec.Args,
		code:         code,
	}
	if m.protection == DefaultProtection {
		m.protection = Public
	}
	switch {
	case spec.Common:
		m.flags |= memberCommon
	case name == "constructor":
		m.flags |= memberConstructor
	case name == "destructor":
		m.flags |= memberDestructor
		if code.args == nil {
			code.args = &ArgSpec{}
		}
	}
	if err := r.addMember(c, m); err != nil {
		return nil, err
	}
	c.buildVirtualTables()
	log.Debugf("created %s %s", m.Kind(), m.fullName)
	return m, nil
}

// addMember registers m in c and installs its member command.
func (r *Runtime) addMember(c *Class, m *Member) error {
	m.fullName = c.fullName + "::" + m.name
	if m.flags&(memberInitHelper|memberDestructor) == 0 {
		if err := r.host.CreateCommand(m.fullName, r.memberCommand(m), nil); err != nil {
			return err
		}
		m.command = m.fullName
	}
	c.members[m.name] = m
	c.memberOrder = append(c.memberOrder, m.name)
	return nil
}

// DefineConstructor creates the constructor of c. A non-empty init runs in
// the constructor's argument scope before any base class is constructed.
// A constructor with init code and a nil body gets an empty body.
func (r *Runtime) DefineConstructor(c *Class, args *ArgSpec, init string, body *string) (*Member, error) {
	if body == nil && init != "" {
		body = Body("")
	}
	m, err := r.CreateMember(c, "constructor", MemberSpec{Args: args, Body: body})
	if err != nil {
		return nil, err
	}
	if init == "" {
		return m, nil
	}
	code, err := r.newMemberCode(args, &init)
	if err != nil {
		return nil, err
	}
	helper := &Member{
		name:       "___constructor_init",
		class:      c,
		protection: Protected,
		flags:      memberInitHelper,
		code:       code,
	}
	if err := r.addMember(c, helper); err != nil {
		return nil, err
	}
	c.initHelper = helper
	return m, nil
}

// ChangeMemberBody replaces the implementation of m. If m was declared
// with a parameter list, args must be equivalent to it; otherwise the
// original code stays installed. A nil args keeps the current list. The
// new body always counts as implemented, even when empty.
func (r *Runtime) ChangeMemberBody(m *Member, args *ArgSpec, body string) error {
	if m.declaredArgs != nil && args != nil && !m.declaredArgs.Equivalent(args) {
		return errorf(ErrWrongArgs, "argument list changed for function %q: should be %q",
			m.fullName, m.declaredArgs.Usage())
	}
	if args == nil {
		args = m.code.args
	}
	code, err := r.newMemberCode(args, &body)
	if err != nil {
		return err
	}
	if m.IsDestructor() && code.args != nil && len(code.args.Args) > 0 {
		return errorf(ErrDefinition, "%q cannot have arguments", m.name)
	}
	if m.IsDestructor() && code.args == nil {
		code.args = &ArgSpec{}
	}
	old := m.code
	m.code = code
	old.refs.eventuallyFree(old.discard)
	log.Debugf("changed body of %s", m.fullName)
	return nil
}
