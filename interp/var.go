package interp

import (
	"fmt"
	"sort"
)

// Var is a scalar or array variable. It implements host.Slot and
// host.Array.
type Var struct {
	name    string
	value   string
	set     bool
	isArray bool
	elems   map[string]string
}

func newVar(name string) *Var {
	return &Var{name: name}
}

func newArray(name string) *Var {
	return &Var{name: name, isArray: true, elems: make(map[string]string)}
}

// Name returns the variable name as created.
func (v *Var) Name() string { return v.name }

// IsArray reports whether the variable holds elements.
func (v *Var) IsArray() bool { return v.isArray }

// Get returns the scalar value.
func (v *Var) Get() (string, error) {
	if v.isArray {
		return "", fmt.Errorf("can't read %q: variable is array", v.name)
	}
	if !v.set {
		return "", fmt.Errorf("can't read %q: no such variable", v.name)
	}
	return v.value, nil
}

// Set assigns the scalar value.
func (v *Var) Set(value string) error {
	if v.isArray {
		return fmt.Errorf("can't set %q: variable is array", v.name)
	}
	v.value = value
	v.set = true
	return nil
}

// Unset clears the value. Arrays lose all elements but stay arrays.
func (v *Var) Unset() error {
	v.value = ""
	v.set = false
	if v.isArray {
		v.elems = make(map[string]string)
	}
	return nil
}

// GetElem returns one array element.
func (v *Var) GetElem(key string) (string, error) {
	if !v.isArray {
		return "", fmt.Errorf("can't read \"%s(%s)\": variable isn't array", v.name, key)
	}
	val, ok := v.elems[key]
	if !ok {
		return "", fmt.Errorf("can't read \"%s(%s)\": no such element in array", v.name, key)
	}
	return val, nil
}

// SetElem assigns one array element. An unset scalar becomes an array.
func (v *Var) SetElem(key, value string) error {
	if !v.isArray {
		if v.set {
			return fmt.Errorf("can't set \"%s(%s)\": variable isn't array", v.name, key)
		}
		v.isArray = true
		v.elems = make(map[string]string)
	}
	v.elems[key] = value
	return nil
}

// Keys returns element names in sorted order.
func (v *Var) Keys() []string {
	keys := make([]string, 0, len(v.elems))
	for k := range v.elems {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
