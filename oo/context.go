package oo

// CallContext is the object, member and namespace of one active call.
// The namespace is the one the call was made from, not the member's class
// namespace, and the per-object cache is keyed on it: recursive calls from
// the same calling namespace share a cached context.
type CallContext struct {
	object    *Object
	member    *Member
	namespace string
	refs      int
	cached    bool
}

// Object returns the acting object, or nil for procs.
func (ctx *CallContext) Object() *Object { return ctx.object }

// Member returns the running member.
func (ctx *CallContext) Member() *Member { return ctx.member }

// Namespace returns the caller namespace the context was created for.
func (ctx *CallContext) Namespace() string { return ctx.namespace }

// Refs returns the number of active calls sharing the context.
func (ctx *CallContext) Refs() int { return ctx.refs }

// ActiveContext returns the innermost call context, or nil.
func (r *Runtime) ActiveContext() *CallContext {
	if len(r.stack) == 0 {
		return nil
	}
	return r.stack[len(r.stack)-1]
}

// ContextDepth returns the number of contexts on the stack.
func (r *Runtime) ContextDepth() int { return len(r.stack) }

func (r *Runtime) pushContext(m *Member, o *Object, ns string) *CallContext {
	var ctx *CallContext
	if o != nil && m != nil && o.contextCache != nil {
		if cached := o.contextCache[m]; cached != nil && cached.namespace == ns {
			ctx = cached
		}
	}
	if ctx == nil {
		ctx = &CallContext{object: o, member: m, namespace: ns}
		if o != nil && m != nil && o.contextCache != nil && o.contextCache[m] == nil {
			o.contextCache[m] = ctx
			ctx.cached = true
		}
	}
	ctx.refs++
	r.stack = append(r.stack, ctx)
	return ctx
}

func (r *Runtime) popContext(ctx *CallContext) {
	for i := len(r.stack) - 1; i >= 0; i-- {
		if r.stack[i] == ctx {
			r.stack = append(r.stack[:i], r.stack[i+1:]...)
			break
		}
	}
	ctx.refs--
	if ctx.refs == 0 && ctx.cached {
		if o := ctx.object; o != nil && o.contextCache != nil && o.contextCache[ctx.member] == ctx {
			delete(o.contextCache, ctx.member)
		}
		ctx.cached = false
	}
}

// CachedContexts returns how many contexts o has cached.
func (o *Object) CachedContexts() int { return len(o.contextCache) }
