package oo

type varFlags int

const (
	varThis varFlags = 1 << iota
	varOptions
	varComponent
)

// Variable is an instance or common variable declared by a class.
type Variable struct {
	name       string
	fullName   string
	class      *Class
	protection Protection
	common     bool
	def        *string
	config     string
	flags      varFlags
}

// VariableSpec describes a variable to create. Config is code run by
// configure after the variable changes; only public variables take it.
type VariableSpec struct {
	Protection Protection
	Common     bool
	Default    *string
	Config     string
}

// Name returns the simple variable name.
func (v *Variable) Name() string { return v.name }

// FullName returns "<class>::<name>".
func (v *Variable) FullName() string { return v.fullName }

// Class returns the declaring class.
func (v *Variable) Class() *Class { return v.class }

// Protection returns the access level.
func (v *Variable) Protection() Protection { return v.protection }

// IsCommon reports whether the variable is shared by all instances.
func (v *Variable) IsCommon() bool { return v.common }

// Default returns the initial value, if any.
func (v *Variable) Default() (string, bool) {
	if v.def == nil {
		return "", false
	}
	return *v.def, true
}

// Implicit reports whether the runtime created the variable, as for
// "this", "options" and component variables.
func (v *Variable) Implicit() bool { return v.flags != 0 }

// Config returns the configuration code.
func (v *Variable) Config() string { return v.config }

// Kind is "variable" or "common".
func (v *Variable) Kind() string {
	if v.common {
		return "common"
	}
	return "variable"
}

func (c *Class) addVariable(v *Variable) {
	v.class = c
	v.fullName = c.fullName + "::" + v.name
	c.variables[v.name] = v
	c.varOrder = append(c.varOrder, v.name)
}

// CreateVariable adds a variable to c. Common variables get their storage
// in the class namespace immediately.
func (r *Runtime) CreateVariable(c *Class, name string, spec VariableSpec) (*Variable, error) {
	if !validMemberName(name) {
		return nil, errorf(ErrDefinition, "bad variable name %q", name)
	}
	if _, exists := c.variables[name]; exists {
		return nil, errorf(ErrDuplicate, "variable name %q already defined in class %q", name, c.fullName)
	}
	v := &Variable{
		name:       name,
		protection: spec.Protection,
		common:     spec.Common,
		def:        spec.Default,
		config:     spec.Config,
	}
	if v.protection == DefaultProtection {
		v.protection = Protected
	}
	if v.config != "" && v.protection != Public {
		return nil, errorf(ErrDefinition, "can't define configuration code for non-public variable %q", name)
	}
	if v.common {
		slot, err := r.host.CreateVar(c.fullName, name)
		if err != nil {
			return nil, err
		}
		if v.def != nil {
			if err := slot.Set(*v.def); err != nil {
				return nil, err
			}
		}
		c.commons[v] = slot
	}
	c.addVariable(v)
	c.buildVirtualTables()
	log.Debugf("created %s %s", v.Kind(), v.fullName)
	return v, nil
}

// ChangeConfigCode replaces the configuration code of a public variable.
func (r *Runtime) ChangeConfigCode(v *Variable, code string) error {
	if v.protection != Public || v.common {
		return errorf(ErrDefinition, "option %q is not a public configuration option", v.fullName)
	}
	v.config = code
	return nil
}
