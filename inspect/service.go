// Package inspect is the inspection façade: every operation a remote caller
// can perform on the live values of this process, addressed by handle and
// field path.
package inspect

import (
	"errors"
	"reflect"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/sysdream/fino/catalog"
	"github.com/sysdream/fino/introspect"
	"github.com/sysdream/fino/loop"
	"github.com/sysdream/fino/macro"
)

var log = commonlog.GetLogger("fino.inspect")

// Sentinels returned in place of handles.
const (
	// NoMatch is returned by InvokeByName when no method of that name
	// accepts the arguments.
	NoMatch = -2

	// ConstructFailed means the constructor ran and failed.
	ConstructFailed = -1
	// ConstructShapeMismatch means no constructor accepts the arguments.
	ConstructShapeMismatch = -2
	// ConstructFault means the type could not be resolved or another fault
	// occurred.
	ConstructFault = -3
)

// Service runs inspection operations one at a time on its own loop. Its
// methods must not be called from functions running on that loop.
type Service struct {
	loop     *loop.Loop
	ownsLoop bool
	roots    *Registry
	in       *introspect.Introspector
	iv       *introspect.Invoker
	macros   *macro.Registry

	cat       *catalog.Catalog
	fallback  introspect.Executor
	macroOpts []macro.Option
}

// Option configures a Service.
type Option func(*Service)

// WithCatalog resolves type names, constructors and overloads through c
// instead of catalog.Default.
func WithCatalog(c *catalog.Catalog) Option {
	return func(s *Service) { s.cat = c }
}

// WithExecutor sets where failed calls on values without an owning
// executor of their own are resubmitted.
func WithExecutor(ex introspect.Executor) Option {
	return func(s *Service) { s.fallback = ex }
}

// WithLoop runs the service on l instead of a private loop. The service
// does not stop l on Close.
func WithLoop(l *loop.Loop) Option {
	return func(s *Service) { s.loop = l }
}

// WithMacros configures the macro registry (store, policy, loaders).
func WithMacros(opts ...macro.Option) Option {
	return func(s *Service) { s.macroOpts = append(s.macroOpts, opts...) }
}

// New creates a Service with an empty root registry.
func New(opts ...Option) *Service {
	s := &Service{roots: NewRegistry()}
	for _, opt := range opts {
		opt(s)
	}
	if s.cat == nil {
		s.cat = catalog.Default
	}
	if s.loop == nil {
		s.loop = loop.New("fino.inspect")
		s.ownsLoop = true
	}
	s.in = introspect.New(s.cat)
	s.iv = introspect.NewInvoker(s.in, s.fallback)
	s.macros = macro.NewRegistry(s.iv, s.macroOpts...)
	return s
}

// Close stops the service loop if the service created it.
func (s *Service) Close() {
	if s.ownsLoop {
		s.loop.Stop()
	}
}

// Introspector returns the introspector the service lists members with.
func (s *Service) Introspector() *introspect.Introspector {
	return s.in
}

// run executes fn on the service loop. Panics, including ErrInvalidHandle,
// come back as errors.
func run[T any](s *Service, fn func() (T, error)) (T, error) {
	type outcome struct {
		val T
		err error
	}
	v, err := s.loop.Do(func() any {
		val, err := fn()
		return outcome{val, err}
	})
	if err != nil {
		var zero T
		return zero, err
	}
	o := v.(outcome)
	return o.val, o.err
}

func (s *Service) at(h int, path []int) any {
	return s.in.Resolve(s.roots.Resolve(h), path)
}

func (s *Service) args(handles []int) []any {
	out := make([]any, len(handles))
	for i, h := range handles {
		if h >= 0 {
			out[i] = s.roots.Resolve(h)
		}
	}
	return out
}

func (s *Service) push(v any) int {
	return s.roots.Push(v)
}

// ---------------------------------------------------------------------------
// Roots
// ---------------------------------------------------------------------------

// Attach registers a root value on behalf of the host and returns its
// handle.
func (s *Service) Attach(v any) (int, error) {
	return run(s, func() (int, error) {
		h := s.push(v)
		log.Debugf("attached %s as %d", s.in.TypeName(v), h)
		return h, nil
	})
}

// Detach clears the handle of a root value the host no longer owns.
func (s *Service) Detach(v any) error {
	_, err := run(s, func() (struct{}, error) {
		s.roots.Remove(v)
		return struct{}{}, nil
	})
	return err
}

// ListRoots describes every handle as "text:typeName".
func (s *Service) ListRoots() ([]string, error) {
	return run(s, func() ([]string, error) {
		out := make([]string, 0, s.roots.Len())
		s.roots.Each(func(_ int, v any) {
			out = append(out, s.in.Describe(v))
		})
		return out, nil
	})
}

// FilterRoots returns the handles whose value is an instance of typeName.
func (s *Service) FilterRoots(typeName string) ([]int, error) {
	return run(s, func() ([]int, error) {
		t, err := s.cat.Lookup(typeName)
		if err != nil {
			log.Debugf("filter roots: %v", err)
			return []int{}, nil
		}
		out := []int{}
		s.roots.Each(func(h int, v any) {
			if s.in.IsInstance(v, t) {
				out = append(out, h)
			}
		})
		return out, nil
	})
}

// ---------------------------------------------------------------------------
// Members
// ---------------------------------------------------------------------------

// ListFields describes the fields of the value at path.
func (s *Service) ListFields(h int, path []int) ([]string, error) {
	return run(s, func() ([]string, error) {
		fields := s.in.Fields(s.at(h, path))
		out := make([]string, len(fields))
		for i, f := range fields {
			out[i] = s.in.DescribeField(f)
		}
		return out, nil
	})
}

// ListMethods describes the methods of the value at path.
func (s *Service) ListMethods(h int, path []int) ([]string, error) {
	return run(s, func() ([]string, error) {
		methods := s.in.Methods(s.at(h, path))
		out := make([]string, len(methods))
		for i, m := range methods {
			out[i] = s.in.DescribeMethod(m)
		}
		return out, nil
	})
}

// ListNestedTypes describes the types registered as nested in the value at
// path.
func (s *Service) ListNestedTypes(h int, path []int) ([]string, error) {
	return run(s, func() ([]string, error) {
		nested := s.in.NestedTypes(s.at(h, path))
		out := make([]string, len(nested))
		for i, n := range nested {
			out[i] = s.in.DescribeNested(n)
		}
		return out, nil
	})
}

// ListConstructors describes the constructors of the named type. Unknown
// names yield an empty list.
func (s *Service) ListConstructors(typeName string) ([]string, error) {
	return run(s, func() ([]string, error) {
		ctors, err := s.in.ConstructorsByName(typeName)
		if err != nil {
			log.Debugf("list constructors: %v", err)
		}
		return s.describeConstructors(ctors), nil
	})
}

// ListConstructorsAt describes the constructors of the type named by the
// value at path: a reflect.Type or a type name.
func (s *Service) ListConstructorsAt(h int, path []int) ([]string, error) {
	return run(s, func() ([]string, error) {
		t := s.typeOf(s.at(h, path))
		return s.describeConstructors(s.in.Constructors(t)), nil
	})
}

func (s *Service) describeConstructors(ctors []introspect.Constructor) []string {
	out := make([]string, len(ctors))
	for i, c := range ctors {
		out[i] = s.in.DescribeConstructor(c)
	}
	return out
}

func (s *Service) typeOf(v any) reflect.Type {
	switch x := v.(type) {
	case reflect.Type:
		return x
	case string:
		t, err := s.cat.Lookup(x)
		if err != nil {
			log.Debugf("type of %q: %v", x, err)
			return nil
		}
		return t
	}
	return nil
}

// ResolveTypeName names the runtime type of the value at path, or "null".
func (s *Service) ResolveTypeName(h int, path []int) (string, error) {
	return run(s, func() (string, error) {
		return s.in.TypeName(s.at(h, path)), nil
	})
}

// AllAncestorTypeNames names the type of the value at path, its embedded
// ancestors and the catalog interfaces it implements.
func (s *Service) AllAncestorTypeNames(h int, path []int) ([]string, error) {
	return run(s, func() ([]string, error) {
		out := s.in.AncestorTypeNames(s.at(h, path))
		if out == nil {
			out = []string{}
		}
		return out, nil
	})
}

// MethodName returns the name of method i of the value at path, or "".
func (s *Service) MethodName(h int, path []int, i int) (string, error) {
	return run(s, func() (string, error) {
		methods := s.in.Methods(s.at(h, path))
		if i < 0 || i >= len(methods) {
			return "", nil
		}
		return methods[i].Name, nil
	})
}

// MethodParams names the parameter types of method i of the value at path.
func (s *Service) MethodParams(h int, path []int, i int) ([]string, error) {
	return run(s, func() ([]string, error) {
		methods := s.in.Methods(s.at(h, path))
		if i < 0 || i >= len(methods) {
			return []string{}, nil
		}
		return s.in.ParamNames(methods[i]), nil
	})
}

// ---------------------------------------------------------------------------
// Paths
// ---------------------------------------------------------------------------

// ReadPath renders the value at path and the fields leading to it as
// "text:field,field,...".
func (s *Service) ReadPath(h int, path []int) (string, error) {
	return run(s, func() (string, error) {
		v, visited := s.in.Browse(s.roots.Resolve(h), path)
		names := make([]string, len(visited))
		for i, f := range visited {
			names[i] = f.Name
		}
		return introspect.Text(v) + introspect.Separator + strings.Join(names, ","), nil
	})
}

// ReadValue renders the value at path as text.
func (s *Service) ReadValue(h int, path []int) (string, error) {
	return run(s, func() (string, error) {
		return introspect.Text(s.at(h, path)), nil
	})
}

// WritePath stores the value of handle value (nil when negative) into the
// field the last selector of path names. Writes that cannot happen are
// ignored.
func (s *Service) WritePath(h int, path []int, value int) error {
	_, err := run(s, func() (struct{}, error) {
		root := s.roots.Resolve(h)
		var v any
		if value >= 0 {
			v = s.roots.Resolve(value)
		}
		if len(path) == 0 {
			return struct{}{}, nil
		}
		parent := s.in.Resolve(root, path[:len(path)-1])
		fields := s.in.Fields(parent)
		if sel := path[len(path)-1]; sel >= 0 && sel < len(fields) {
			s.in.WriteField(fields[sel], parent, v)
		}
		return struct{}{}, nil
	})
	return err
}

// PushResolved registers the value at path and returns its handle.
func (s *Service) PushResolved(h int, path []int) (int, error) {
	return run(s, func() (int, error) {
		return s.push(s.at(h, path)), nil
	})
}

// PushString registers a string literal.
func (s *Service) PushString(v string) (int, error) {
	return run(s, func() (int, error) { return s.push(v), nil })
}

// PushInt registers an integer literal.
func (s *Service) PushInt(v int64) (int, error) {
	return run(s, func() (int, error) { return s.push(int(v)), nil })
}

// PushBool registers a boolean literal.
func (s *Service) PushBool(v bool) (int, error) {
	return run(s, func() (int, error) { return s.push(v), nil })
}

// ---------------------------------------------------------------------------
// Invocation
// ---------------------------------------------------------------------------

// Invoke calls method i of the value at path with the values of args
// (negative handles are nil) and returns the handle of the result. Calls
// that fail or return nothing yield NoObject; arguments that do not fit the
// method are reported as an error wrapping introspect.ErrArgumentShape.
func (s *Service) Invoke(h int, path []int, i int, args []int) (int, error) {
	return run(s, func() (int, error) {
		target := s.at(h, path)
		params := s.args(args)
		methods := s.in.Methods(target)
		if i < 0 || i >= len(methods) {
			log.Debugf("invoke: no method %d on %s", i, s.in.TypeName(target))
			return NoObject, nil
		}
		out, err := s.iv.Invoke(target, methods[i], params)
		if errors.Is(err, introspect.ErrArgumentShape) {
			return NoObject, err
		}
		if err != nil {
			log.Debugf("invoke: %v", err)
			return NoObject, nil
		}
		return s.push(out), nil
	})
}

// InvokeByName calls the first method called name that accepts args.
// Returns NoMatch when there is none and NoObject when the call produced
// nothing.
func (s *Service) InvokeByName(h int, path []int, name string, args []int) (int, error) {
	return run(s, func() (int, error) {
		out, err := s.iv.InvokeByName(s.at(h, path), name, s.args(args))
		switch {
		case errors.Is(err, introspect.ErrMethodNotFound):
			return NoMatch, nil
		case err != nil:
			log.Debugf("invoke by name: %v", err)
			return NoObject, nil
		}
		return s.push(out), nil
	})
}

// Construct builds a value of the named type with the first constructor
// accepting args. Failures are reported as ConstructFailed,
// ConstructShapeMismatch or ConstructFault.
func (s *Service) Construct(typeName string, args []int) (int, error) {
	return run(s, func() (int, error) {
		t, err := s.cat.Lookup(typeName)
		if err != nil {
			log.Debugf("construct: %v", err)
			return ConstructFault, nil
		}
		return s.construct(t, s.args(args)), nil
	})
}

// ConstructAt is Construct with the type given by the value at path, either
// a reflect.Type or a type name.
func (s *Service) ConstructAt(h int, path []int, args []int) (int, error) {
	return run(s, func() (int, error) {
		t := s.typeOf(s.at(h, path))
		if t == nil {
			return ConstructFault, nil
		}
		return s.construct(t, s.args(args)), nil
	})
}

func (s *Service) construct(t reflect.Type, args []any) int {
	out, err := s.iv.Construct(t, args)
	switch {
	case err == nil:
		return s.push(out)
	case errors.Is(err, introspect.ErrInstantiation):
		log.Debugf("construct: %v", err)
		return ConstructFailed
	case errors.Is(err, introspect.ErrArgumentShape), errors.Is(err, introspect.ErrNoConstructor):
		log.Debugf("construct: %v", err)
		return ConstructShapeMismatch
	}
	log.Debugf("construct: %v", err)
	return ConstructFault
}

// ---------------------------------------------------------------------------
// Sequences
// ---------------------------------------------------------------------------

// IsSequence reports whether the value at path is an array, slice or
// iterable.
func (s *Service) IsSequence(h int, path []int) (bool, error) {
	return run(s, func() (bool, error) {
		return introspect.IsSequence(s.at(h, path)), nil
	})
}

// Enumerate describes every element of the sequence at path.
func (s *Service) Enumerate(h int, path []int) ([]string, error) {
	return run(s, func() ([]string, error) {
		out := s.in.Enumerate(s.at(h, path))
		if out == nil {
			out = []string{}
		}
		return out, nil
	})
}

// ItemAt registers element i of the sequence at path and returns its
// handle, NoObject when there is no such element.
func (s *Service) ItemAt(h int, path []int, i int) (int, error) {
	return run(s, func() (int, error) {
		item, ok := introspect.ItemAt(s.at(h, path), i)
		if !ok {
			return NoObject, nil
		}
		return s.push(item), nil
	})
}

// ---------------------------------------------------------------------------
// Macros
// ---------------------------------------------------------------------------

// ListMacros names the loaded macros in registry order.
func (s *Service) ListMacros() ([]string, error) {
	return run(s, func() ([]string, error) {
		return s.macros.Names(), nil
	})
}

// FilterMacros returns the indices of the macros applicable to the value at
// path.
func (s *Service) FilterMacros(h int, path []int) ([]int, error) {
	return run(s, func() ([]int, error) {
		out := s.macros.Applicable(s.at(h, path))
		if out == nil {
			out = []int{}
		}
		return out, nil
	})
}

// MacroParams names the parameter types of macro i.
func (s *Service) MacroParams(i int) ([]string, error) {
	return run(s, func() ([]string, error) {
		params, err := s.macros.Params(i)
		if err != nil || params == nil {
			return []string{}, nil
		}
		return params, nil
	})
}

// MacroDescription returns the description of macro i.
func (s *Service) MacroDescription(i int) (string, error) {
	return run(s, func() (string, error) {
		d, _ := s.macros.Description(i)
		return d, nil
	})
}

// RunMacro runs macro i on the value at path and returns the handle of its
// result, NoObject when it failed or produced nothing.
func (s *Service) RunMacro(i int, h int, path []int, args []int) (int, error) {
	return run(s, func() (int, error) {
		out, err := s.macros.Run(i, s.at(h, path), s.args(args))
		if err != nil {
			log.Debugf("run macro: %v", err)
			return NoObject, nil
		}
		return s.push(out), nil
	})
}

// LoadMacro loads code as macro name, replacing any macro of that name.
// Returns its index, NoObject when loading failed.
func (s *Service) LoadMacro(name string, code []byte) (int, error) {
	return run(s, func() (int, error) {
		i, err := s.macros.Load(name, code)
		if err != nil {
			return NoObject, nil
		}
		return i, nil
	})
}
