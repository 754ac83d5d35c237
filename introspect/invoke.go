package introspect

import (
	"errors"
	"fmt"
	"reflect"
)

// Executor runs functions on an execution context without waiting for them.
type Executor interface {
	Post(fn func())
}

// Affine is implemented by values that may only be used from one execution
// context, such as objects owned by a UI loop.
type Affine interface {
	Executor() Executor
}

// Invoker calls methods and constructors on live values.
//
// A call that fails for any reason other than its argument shape is posted
// once more to the target's owning context (its Affine executor, or Fallback)
// and its outcome is dropped: the caller sees a nil result.
type Invoker struct {
	*Introspector
	Fallback Executor
}

// NewInvoker returns an Invoker over in. fallback may be nil.
func NewInvoker(in *Introspector, fallback Executor) *Invoker {
	return &Invoker{Introspector: in, Fallback: fallback}
}

// Invoke calls m on target. ErrArgumentShape is returned when args do not
// fit m; any other failure yields (nil, nil) after resubmission.
func (iv *Invoker) Invoke(target any, m Method, args []any) (any, error) {
	if IsNil(target) {
		return nil, ErrNilTarget
	}
	in, err := bind(m.Func.Type(), 1, args)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, m.Name)
	}
	out, err := iv.call(target, m, in)
	if err == nil {
		return out, nil
	}
	log.Debugf("invoke %s: %v", m.Name, err)
	iv.resubmit(target, func() {
		if _, err := iv.call(target, m, in); err != nil {
			log.Debugf("resubmitted %s: %v", m.Name, err)
		}
	})
	return nil, nil
}

// InvokeByName calls the first method named name, in listing order, whose
// parameters accept args. ErrMethodNotFound is returned when none does.
func (iv *Invoker) InvokeByName(target any, name string, args []any) (any, error) {
	if IsNil(target) {
		return nil, ErrNilTarget
	}
	for _, m := range iv.Methods(target) {
		if m.Name != name {
			continue
		}
		out, err := iv.Invoke(target, m, args)
		if errors.Is(err, ErrArgumentShape) {
			continue
		}
		return out, err
	}
	return nil, fmt.Errorf("%w: %s", ErrMethodNotFound, name)
}

// Construct builds a value of t with the first constructor accepting args.
func (iv *Invoker) Construct(t reflect.Type, args []any) (out any, err error) {
	ctors := iv.Constructors(t)
	if len(ctors) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoConstructor, iv.cat.NameOf(t))
	}
	for _, c := range ctors {
		if !c.Func.IsValid() {
			if len(args) != 0 {
				continue
			}
			return reflect.New(c.Type).Interface(), nil
		}
		in, err := bind(c.Func.Type(), 0, args)
		if err != nil {
			continue
		}
		return construct(c, in)
	}
	return nil, fmt.Errorf("%w: no constructor of %s takes %d arguments", ErrArgumentShape, iv.cat.NameOf(t), len(args))
}

func construct(c Constructor, in []reflect.Value) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("%w: %s: %v", ErrInstantiation, c.Name, r)
		}
	}()
	out, err = results(c.Func.Call(in))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInstantiation, c.Name, err)
	}
	if IsNil(out) {
		return nil, fmt.Errorf("%w: %s returned nil", ErrInstantiation, c.Name)
	}
	return out, nil
}

func (iv *Invoker) call(target any, m Method, in []reflect.Value) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("%s panicked: %v", m.Name, r)
		}
	}()
	recv, err := iv.receiver(target, m)
	if err != nil {
		return nil, err
	}
	return results(m.Func.Call(append([]reflect.Value{recv}, in...)))
}

// receiver finds the value of m's level inside target, shaped as the first
// parameter of m.Func.
func (iv *Invoker) receiver(target any, m Method) (reflect.Value, error) {
	levels := iv.Levels(target)
	if m.level >= len(levels) {
		return reflect.Value{}, fmt.Errorf("%s does not belong to %T", m.Name, target)
	}
	lv := levels[m.level]
	want := m.Func.Type().In(0)

	rv := reflect.ValueOf(target)
	if lv.Index == nil && rv.Type() == want {
		return rv, nil
	}
	base := addressable(indirect(rv))
	if !base.IsValid() {
		return reflect.Value{}, ErrNilTarget
	}
	fv := base
	if lv.Index != nil {
		var err error
		if fv, err = base.FieldByIndexErr(lv.Index); err != nil {
			return reflect.Value{}, err
		}
		fv = unlock(fv)
	}
	switch {
	case fv.Type() == want:
		if fv.Kind() == reflect.Pointer && fv.IsNil() {
			return reflect.Value{}, ErrNilTarget
		}
		return fv, nil
	case fv.Kind() == reflect.Pointer && fv.Type().Elem() == want:
		if fv.IsNil() {
			return reflect.Value{}, ErrNilTarget
		}
		return fv.Elem(), nil
	case fv.CanAddr() && reflect.PointerTo(fv.Type()) == want:
		return fv.Addr(), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %s as receiver %s", fv.Type(), want)
}

func (iv *Invoker) resubmit(target any, fn func()) {
	ex := iv.Fallback
	if a, ok := target.(Affine); ok {
		if own := a.Executor(); own != nil {
			ex = own
		}
	}
	if ex == nil {
		return
	}
	ex.Post(func() {
		defer func() {
			if r := recover(); r != nil {
				log.Debugf("resubmitted call panicked: %v", r)
			}
		}()
		fn()
	})
}

// bind checks args against the parameters of ft starting at skip and
// converts them to call values.
func bind(ft reflect.Type, skip int, args []any) ([]reflect.Value, error) {
	fixed := ft.NumIn() - skip
	if ft.IsVariadic() {
		fixed--
		if len(args) < fixed {
			return nil, ErrArgumentShape
		}
	} else if len(args) != fixed {
		return nil, ErrArgumentShape
	}
	out := make([]reflect.Value, len(args))
	for i, a := range args {
		var pt reflect.Type
		if i < fixed {
			pt = ft.In(skip + i)
		} else {
			pt = ft.In(ft.NumIn() - 1).Elem()
		}
		v, err := coerce(a, pt)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// results strips a trailing error result and collapses the rest.
func results(out []reflect.Value) (any, error) {
	if n := len(out); n > 0 && out[n-1].Type() == errorType {
		if !out[n-1].IsNil() {
			return nil, out[n-1].Interface().(error)
		}
		out = out[:n-1]
	}
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		return out[0].Interface(), nil
	}
	vals := make([]any, len(out))
	for i, v := range out {
		vals[i] = v.Interface()
	}
	return vals, nil
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()
