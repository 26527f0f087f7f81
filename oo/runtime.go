package oo

import (
	"strings"

	"github.com/tliron/commonlog"

	"github.com/chazu/incr/host"
)

var log = commonlog.GetLogger("incr.oo")

// DefaultStorageNamespace holds object storage, builtins and the admin
// commands unless Config overrides it.
const DefaultStorageNamespace = "::incr"

// Config holds runtime configuration.
type Config struct {
	// StorageNamespace is the host namespace for per-object storage and
	// the admin commands.
	StorageNamespace string
	// Autoload enables the autoloader for missing classes and members.
	Autoload bool
	// Autoloader is consulted when Autoload is set.
	Autoloader host.Autoloader
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		StorageNamespace: DefaultStorageNamespace,
		Autoload:         true,
	}
}

// Runtime is the per-interpreter object system: class registry, live
// objects, native hooks and the call context stack.
type Runtime struct {
	host       host.Host
	storageNs  string
	autoload   bool
	autoloader host.Autoloader

	classes    map[string]*Class
	classOrder []*Class
	objects    []*Object
	natives    map[string]NativeFunc
	stack      []*CallContext
	builtin    *Class
}

var _ host.Resolver = (*Runtime)(nil)

// New creates a runtime on h and installs the builtin methods and admin
// commands.
func New(h host.Host, cfg *Config) (*Runtime, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	ns := cfg.StorageNamespace
	if ns == "" {
		ns = DefaultStorageNamespace
	}
	if !strings.HasPrefix(ns, "::") {
		ns = "::" + ns
	}

	r := &Runtime{
		host:       h,
		storageNs:  ns,
		autoload:   cfg.Autoload,
		autoloader: cfg.Autoloader,
		classes:    make(map[string]*Class),
		natives:    make(map[string]NativeFunc),
	}
	for _, p := range []string{ns, ns + "::vars", ns + "::options"} {
		if err := h.CreateNamespace(p); err != nil {
			return nil, err
		}
	}
	if err := r.installBuiltins(); err != nil {
		return nil, err
	}
	if err := r.installAdminCommands(); err != nil {
		return nil, err
	}
	log.Debugf("runtime ready in %s", ns)
	return r, nil
}

// Host returns the host the runtime runs on.
func (r *Runtime) Host() host.Host { return r.host }

// StorageNamespace returns the namespace holding object storage.
func (r *Runtime) StorageNamespace() string { return r.storageNs }

// SetAutoloader replaces the autoloader.
func (r *Runtime) SetAutoloader(a host.Autoloader) { r.autoloader = a }

// RegisterNative makes fn available to member bodies written as "@name".
func (r *Runtime) RegisterNative(name string, fn NativeFunc) {
	r.natives[name] = fn
}

// Classes returns the registered classes in definition order.
func (r *Runtime) Classes() []*Class {
	return append([]*Class(nil), r.classOrder...)
}

// Objects returns the live objects in creation order.
func (r *Runtime) Objects() []*Object {
	return append([]*Object(nil), r.objects...)
}

// Close deletes every class, newest first, destroying their objects.
func (r *Runtime) Close() error {
	for len(r.classOrder) > 0 {
		c := r.classOrder[len(r.classOrder)-1]
		if err := r.DeleteClass(c); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runtime) canAutoload() bool {
	return r.autoload && r.autoloader != nil
}

// qualify resolves name against ns.
func qualify(ns, name string) string {
	if strings.HasPrefix(name, "::") {
		return name
	}
	if ns == "" || ns == "::" {
		return "::" + name
	}
	return ns + "::" + name
}

// splitName splits "::a::b::c" into "::a::b" and "c".
func splitName(full string) (string, string) {
	idx := strings.LastIndex(full, "::")
	if idx < 0 {
		return "::", full
	}
	ns := full[:idx]
	if ns == "" {
		ns = "::"
	}
	return ns, full[idx+2:]
}

// displayName trims the global qualifier from names in the global
// namespace.
func displayName(full string) string {
	if ns, tail := splitName(full); ns == "::" {
		return tail
	}
	return full
}
