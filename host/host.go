// Package host declares the collaborators the object runtime needs from
// the interpreter it extends.
//
// The runtime never evaluates code itself. It relies on:
//   - an Evaluator to run method bodies in a fresh call frame
//   - a namespace/variable substrate for per-class and per-object storage
//   - a command substrate for object access handles and member commands
//   - an optional Autoloader for members and classes defined lazily
//
// Package interp provides an in-memory implementation used by tests and
// the incr command.
package host

// ---------------------------------------------------------------------------
// Variable storage
// ---------------------------------------------------------------------------

// Slot is a single variable storage location.
type Slot interface {
	// Get returns the current value, or an error if the variable is unset.
	Get() (string, error)
	Set(value string) error
	Unset() error
}

// Array is a slot that also supports element addressing.
type Array interface {
	Slot
	GetElem(key string) (string, error)
	SetElem(key, value string) error
	// Keys returns the element names in sorted order.
	Keys() []string
}

// Namespaces is the namespace/variable substrate.
type Namespaces interface {
	// CreateNamespace creates path and any missing parents. Creating an
	// existing namespace is not an error.
	CreateNamespace(path string) error
	NamespaceExists(path string) bool
	// DeleteNamespace removes path, its children, their variables and
	// their commands.
	DeleteNamespace(path string) error

	// CreateVar returns the scalar variable name in ns, creating it
	// (unset) if needed.
	CreateVar(ns, name string) (Slot, error)
	// CreateArray returns the array variable name in ns, creating it if
	// needed.
	CreateArray(ns, name string) (Array, error)
	// FindVar looks up an existing variable without creating it.
	FindVar(ns, name string) (Slot, bool)
}

// ---------------------------------------------------------------------------
// Commands
// ---------------------------------------------------------------------------

// Call describes one command invocation.
type Call struct {
	// Name is the command word exactly as written by the caller.
	Name string
	// FullName is the fully-qualified name the word resolved to.
	FullName string
	Args     []string
	// Namespace is the caller's current namespace.
	Namespace string
}

// CommandFunc implements a command.
type CommandFunc func(call *Call) (string, error)

// CommandTraces are lifecycle callbacks for a command. Either field may be
// nil.
type CommandTraces struct {
	// OnRename runs after the command is renamed to a non-empty name.
	OnRename func(oldName, newName string)
	// OnDelete runs after the command is removed, whether by explicit
	// deletion, rename to the empty string, or namespace deletion.
	OnDelete func(name string)
}

// Commands is the command substrate.
type Commands interface {
	CreateCommand(fullName string, fn CommandFunc, traces *CommandTraces) error
	DeleteCommand(fullName string) error
	// RenameCommand renames a command; an empty newName deletes it.
	RenameCommand(oldName, newName string) error
	CommandExists(fullName string) bool
	// InvokeCommand runs words[0] with the remaining words as arguments,
	// resolving the command name relative to ns.
	InvokeCommand(ns string, words []string) (string, error)
}

// ---------------------------------------------------------------------------
// Evaluation
// ---------------------------------------------------------------------------

// Binding is a local variable bound in a new call frame.
type Binding struct {
	Name  string
	Value string
}

// Scope is a live call frame handed to call hooks.
type Scope interface {
	Namespace() string
	// Eval runs script in this frame, with its locals visible.
	Eval(script string) (string, error)
	Var(name string) (string, error)
	SetVar(name, value string) error
}

// VarToken is the result of compiling a variable reference. It is bound to
// concrete storage only when Slot is called, so one token may be reused
// across calls on different objects.
type VarToken interface {
	Slot() (Slot, error)
}

// Resolver supplies name resolution for frames in class namespaces. It is
// consulted after compiled locals and before namespace lookup.
type Resolver interface {
	CompileVar(ns, name string) (VarToken, bool)
	ResolveCommand(ns, name string) (string, bool)
}

// Request asks the evaluator to run Body in a fresh frame.
type Request struct {
	// Name identifies the body in error traces.
	Name      string
	Namespace string
	Body      string
	Locals    []Binding
	Resolver  Resolver
	// PreCall runs after locals are bound and before the body.
	PreCall func(s Scope) error
	// PostCall runs after the body with its error, and may replace it.
	PostCall func(s Scope, err error) error
}

// Evaluator runs bodies. It must support nested Evaluate calls.
type Evaluator interface {
	Evaluate(req *Request) (string, error)
}

// Autoloader loads a missing class or member implementation by its
// fully-qualified name. It reports whether it found anything.
type Autoloader interface {
	Autoload(fullName string) (bool, error)
}

// Host bundles the substrate the runtime is built on.
type Host interface {
	Namespaces
	Commands
	Evaluator
}
