package oo

// refs is a preserve/release counter. Storage handed to eventuallyFree is
// released once the count drops to zero.
type refs struct {
	count int
	dead  bool
	free  func()
}

func (r *refs) preserve() { r.count++ }

func (r *refs) release() {
	r.count--
	if r.count <= 0 && r.free != nil {
		free := r.free
		r.free = nil
		free()
	}
}

// eventuallyFree runs free now if nothing holds a reference, otherwise on
// the last release. Later calls are ignored.
func (r *refs) eventuallyFree(free func()) {
	if r.dead {
		return
	}
	r.dead = true
	if r.count <= 0 {
		free()
		return
	}
	r.free = free
}

// alive reports whether eventuallyFree has not been called.
func (r *refs) alive() bool { return !r.dead }
