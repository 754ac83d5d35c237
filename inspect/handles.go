package inspect

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/sysdream/fino/introspect"
)

// ErrInvalidHandle is the panic value of Registry.Resolve for handles that
// were never issued.
var ErrInvalidHandle = errors.New("inspect: invalid handle")

// NoObject is the handle of nil.
const NoObject = -1

// identity is the dedup key of a registered value: its address for
// reference kinds, its contents for plain comparable values.
type identity struct {
	typ  reflect.Type
	addr uintptr
	len  int
	cap  int
	val  any
}

func identityOf(v any) (identity, bool) {
	rv := reflect.ValueOf(v)
	id := identity{typ: rv.Type()}
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.UnsafePointer:
		id.addr = rv.Pointer()
	case reflect.Slice:
		id.addr, id.len, id.cap = rv.Pointer(), rv.Len(), rv.Cap()
	case reflect.Func:
		return identity{}, false
	default:
		if !rv.Comparable() {
			return identity{}, false
		}
		id.val = v
	}
	return id, true
}

// Registry maps integer handles to live values. Handles are issued in order
// and never renumbered; removed values leave a nil slot behind. The registry
// does no locking of its own.
type Registry struct {
	slots []any
	index map[identity]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[identity]int)}
}

// Push registers v and returns its handle. A value already registered keeps
// its handle; nil yields NoObject and changes nothing.
func (r *Registry) Push(v any) int {
	if introspect.IsNil(v) {
		return NoObject
	}
	id, keyed := identityOf(v)
	if keyed {
		if h, ok := r.index[id]; ok {
			return h
		}
	}
	h := len(r.slots)
	r.slots = append(r.slots, v)
	if keyed {
		r.index[id] = h
	}
	return h
}

// Resolve returns the value of h, nil for a removed one. It panics with
// ErrInvalidHandle if h was never issued.
func (r *Registry) Resolve(h int) any {
	if h < 0 || h >= len(r.slots) {
		panic(fmt.Errorf("%w: %d", ErrInvalidHandle, h))
	}
	return r.slots[h]
}

// Remove clears the slot of v. Other handles are not affected. Removing a
// value that is not registered does nothing.
func (r *Registry) Remove(v any) {
	if introspect.IsNil(v) {
		return
	}
	id, keyed := identityOf(v)
	if !keyed {
		return
	}
	h, ok := r.index[id]
	if !ok {
		return
	}
	delete(r.index, id)
	r.slots[h] = nil
}

// Len returns the number of handles issued so far.
func (r *Registry) Len() int {
	return len(r.slots)
}

// Each calls fn for every handle in order, removed ones included.
func (r *Registry) Each(fn func(h int, v any)) {
	for h, v := range r.slots {
		fn(h, v)
	}
}
