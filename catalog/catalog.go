// Package catalog is the explicit type table behind fino's introspection.
//
// Go reflection can enumerate the fields and methods of a live value, but it
// cannot find a type by name, list constructors, declare overloads or nest
// types. Inspected applications fill those gaps by registering their types
// here, usually from generated init code (see cmd/finogen).
package catalog

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"
)

var (
	// ErrNilType is returned when a nil reflect.Type is registered.
	ErrNilType = errors.New("catalog: nil type")
	// ErrEmptyName is returned when a type is registered under an empty name.
	ErrEmptyName = errors.New("catalog: empty name")
	// ErrConflictingRegistration means a name is already bound to another type.
	ErrConflictingRegistration = errors.New("catalog: conflicting type registration")
	// ErrTypeNotFound means no type is known under the requested name.
	ErrTypeNotFound = errors.New("catalog: type not found")
	// ErrBadConstructor is returned for constructors that are not functions
	// returning the registered type (optionally followed by an error).
	ErrBadConstructor = errors.New("catalog: invalid constructor")
	// ErrBadMethod is returned for methods whose first parameter is not the
	// registered type or a pointer to it.
	ErrBadMethod = errors.New("catalog: invalid method")
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Constructor is a registered function producing a value of a type.
type Constructor struct {
	Name string
	Func reflect.Value
}

// Method is a registered function invoked with a receiver as its first
// argument. Registered methods let a type expose several members under one
// name, which Go declarations cannot express.
type Method struct {
	Name string
	Func reflect.Value
}

// Nested is a type registered as declared inside another one.
type Nested struct {
	Name string
	Type reflect.Type
}

type entry struct {
	name    string
	typ     reflect.Type
	ctors   []Constructor
	methods []Method
	nested  []Nested
}

// Catalog maps names to types and holds per-type registrations.
// It is safe for concurrent use.
type Catalog struct {
	mu      sync.RWMutex
	byName  map[string]reflect.Type
	entries map[reflect.Type]*entry
	ifaces  []reflect.Type
	gen     atomic.Uint64
}

// New returns a catalog pre-populated with Go's predeclared types.
func New() *Catalog {
	c := &Catalog{
		byName:  make(map[string]reflect.Type),
		entries: make(map[reflect.Type]*entry),
	}
	for name, t := range builtins {
		c.byName[name] = t
	}
	return c
}

// Default is the process-wide catalog used by generated registration code.
var Default = New()

// TypeOf returns the reflect.Type of T, including interface types.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Option adds registrations to a type.
type Option func(*entry) error

// Named overrides the default name (the type's String form, e.g. "demo.Activity").
func Named(name string) Option {
	return func(e *entry) error {
		if name == "" {
			return ErrEmptyName
		}
		e.name = name
		return nil
	}
}

// WithConstructor registers fn as a constructor. fn must return the type or
// a pointer to it, optionally followed by an error.
func WithConstructor(name string, fn any) Option {
	return func(e *entry) error {
		fv := reflect.ValueOf(fn)
		if fv.Kind() != reflect.Func || fv.IsNil() {
			return fmt.Errorf("%w: %s is not a function", ErrBadConstructor, name)
		}
		ft := fv.Type()
		switch {
		case ft.NumOut() == 1:
		case ft.NumOut() == 2 && ft.Out(1) == errorType:
		default:
			return fmt.Errorf("%w: %s must return (T) or (T, error)", ErrBadConstructor, name)
		}
		if out := ft.Out(0); out != e.typ && out != reflect.PointerTo(e.typ) {
			return fmt.Errorf("%w: %s returns %s, not %s", ErrBadConstructor, name, out, e.typ)
		}
		e.ctors = append(e.ctors, Constructor{Name: name, Func: fv})
		return nil
	}
}

// WithMethod registers fn as a method of the type. The first parameter of
// fn receives the target, either by value or by pointer.
func WithMethod(name string, fn any) Option {
	return func(e *entry) error {
		fv := reflect.ValueOf(fn)
		if fv.Kind() != reflect.Func || fv.IsNil() {
			return fmt.Errorf("%w: %s is not a function", ErrBadMethod, name)
		}
		ft := fv.Type()
		if ft.NumIn() == 0 {
			return fmt.Errorf("%w: %s takes no receiver", ErrBadMethod, name)
		}
		if in := ft.In(0); in != e.typ && in != reflect.PointerTo(e.typ) {
			return fmt.Errorf("%w: %s receives %s, not %s", ErrBadMethod, name, in, e.typ)
		}
		e.methods = append(e.methods, Method{Name: name, Func: fv})
		return nil
	}
}

// WithNested records types declared inside the registered one. Nested types
// are registered under their own names as well.
func WithNested(name string, t reflect.Type) Option {
	return func(e *entry) error {
		if t == nil {
			return ErrNilType
		}
		e.nested = append(e.nested, Nested{Name: name, Type: base(t)})
		return nil
	}
}

// Register adds t (or the type t points to) to the catalog. Registering the
// same type again appends the new options; binding its name to a different
// type fails with ErrConflictingRegistration.
func (c *Catalog) Register(t reflect.Type, opts ...Option) error {
	if t == nil {
		return ErrNilType
	}
	t = base(t)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[t]
	if !ok {
		e = &entry{name: t.String(), typ: t}
	}
	staged := *e
	staged.ctors = append([]Constructor(nil), e.ctors...)
	staged.methods = append([]Method(nil), e.methods...)
	staged.nested = append([]Nested(nil), e.nested...)
	for _, opt := range opts {
		if err := opt(&staged); err != nil {
			return err
		}
	}

	names := []string{staged.name, t.String()}
	if t.PkgPath() != "" {
		names = append(names, t.PkgPath()+"."+t.Name())
	}
	for _, n := range staged.nested {
		if old, taken := c.byName[n.Type.String()]; taken && old != n.Type {
			return fmt.Errorf("%w: %q", ErrConflictingRegistration, n.Type.String())
		}
	}
	for _, name := range names {
		if old, taken := c.byName[name]; taken && old != t {
			return fmt.Errorf("%w: %q is bound to %s", ErrConflictingRegistration, name, old)
		}
	}

	for _, name := range names {
		c.byName[name] = t
	}
	for _, n := range staged.nested {
		c.byName[n.Type.String()] = n.Type
	}
	*e = staged
	if !ok {
		c.entries[t] = e
		if t.Kind() == reflect.Interface {
			c.ifaces = append(c.ifaces, t)
		}
	}
	c.gen.Add(1)
	return nil
}

// MustRegister is Register for init code; it panics on error.
func (c *Catalog) MustRegister(t reflect.Type, opts ...Option) {
	if err := c.Register(t, opts...); err != nil {
		panic(err)
	}
}

// Lookup resolves a type name. Besides registered and predeclared names it
// understands the "*T" and "[]T" forms.
func (c *Catalog) Lookup(name string) (reflect.Type, error) {
	c.mu.RLock()
	t, ok := c.byName[name]
	c.mu.RUnlock()
	if ok {
		return t, nil
	}
	switch {
	case len(name) > 1 && name[0] == '*':
		elem, err := c.Lookup(name[1:])
		if err != nil {
			return nil, err
		}
		return reflect.PointerTo(elem), nil
	case len(name) > 2 && name[:2] == "[]":
		elem, err := c.Lookup(name[2:])
		if err != nil {
			return nil, err
		}
		return reflect.SliceOf(elem), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrTypeNotFound, name)
}

// NameOf returns the display name of t: the registered name when there is
// one, otherwise its String form. Pointer types keep their "*" prefix.
func (c *Catalog) NameOf(t reflect.Type) string {
	if t == nil {
		return "null"
	}
	if t.Kind() == reflect.Pointer {
		return "*" + c.NameOf(t.Elem())
	}
	c.mu.RLock()
	e, ok := c.entries[t]
	c.mu.RUnlock()
	if ok {
		return e.name
	}
	return t.String()
}

// Constructors returns the constructors registered for t in registration order.
func (c *Catalog) Constructors(t reflect.Type) []Constructor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.entries[base(t)]; ok {
		return append([]Constructor(nil), e.ctors...)
	}
	return nil
}

// Methods returns the methods registered for t in registration order.
func (c *Catalog) Methods(t reflect.Type) []Method {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.entries[base(t)]; ok {
		return append([]Method(nil), e.methods...)
	}
	return nil
}

// Nested returns the types registered as declared inside t.
func (c *Catalog) Nested(t reflect.Type) []Nested {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.entries[base(t)]; ok {
		return append([]Nested(nil), e.nested...)
	}
	return nil
}

// Interfaces returns every registered interface type, sorted by name.
func (c *Catalog) Interfaces() []reflect.Type {
	c.mu.RLock()
	out := append([]reflect.Type(nil), c.ifaces...)
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// Generation changes every time a registration succeeds. Caches derived from
// the catalog compare it to detect staleness.
func (c *Catalog) Generation() uint64 {
	return c.gen.Load()
}

func base(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
