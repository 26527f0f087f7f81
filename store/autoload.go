package store

import (
	"errors"
	"strings"

	"github.com/chazu/incr/defs"
	"github.com/chazu/incr/oo"
)

// Autoloader defines stored classes and installs stored member bodies
// when the runtime asks for them.
type Autoloader struct {
	store *Store
	rt    *oo.Runtime
}

// NewAutoloader returns an autoloader for rt backed by s.
func NewAutoloader(s *Store, rt *oo.Runtime) *Autoloader {
	return &Autoloader{store: s, rt: rt}
}

// Install makes a the runtime's autoloader.
func (a *Autoloader) Install() { a.rt.SetAutoloader(a) }

// Autoload handles a fully-qualified class or member name. It reports
// false when the store knows nothing about name.
func (a *Autoloader) Autoload(name string) (bool, error) {
	if ok, err := a.loadClass(name); ok || err != nil {
		return ok, err
	}
	return a.loadBody(name)
}

func (a *Autoloader) loadClass(name string) (bool, error) {
	def, err := a.store.LoadClass(name)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if _, err := defs.ApplyClass(a.rt, def); err != nil {
		return false, err
	}
	log.Infof("autoloaded class %s", def.Name)
	return true, nil
}

func (a *Autoloader) loadBody(name string) (bool, error) {
	idx := strings.LastIndex(name, "::")
	if idx <= 0 {
		return false, nil
	}
	args, body, err := a.store.LoadBody(name)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	c, err := a.rt.FindClass(name[:idx], false)
	if err != nil {
		return false, nil
	}
	m := c.Member(name[idx+2:])
	if m == nil {
		return false, nil
	}
	var spec *oo.ArgSpec
	if args != nil {
		spec = args.Spec()
	}
	if err := a.rt.ChangeMemberBody(m, spec, body); err != nil {
		return false, err
	}
	log.Debugf("autoloaded body of %s", name)
	return true, nil
}
