// Package oo implements a class-based object system on top of a Tcl-style
// host interpreter.
//
// A Runtime owns the class registry, the live objects and the call context
// stack. Classes support multiple inheritance; every class keeps flattened
// resolution tables mapping short and qualified names to the most specific
// member or variable visible from it, rebuilt whenever the hierarchy or a
// member list changes. Objects are reached through an access command in
// the host; deleting or renaming that command away destroys the object.
//
// Method bodies are run by the host evaluator. While a body runs, the
// runtime acts as the frame's resolver so instance variables, common
// variables and member calls resolve through the active call context.
//
// Extended class kinds (type, widget, widgetadaptor, extendedclass) add
// options, components and delegation.
package oo
