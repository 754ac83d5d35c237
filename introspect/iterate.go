package introspect

import "reflect"

// Iterator yields the elements of a sequence one at a time.
type Iterator interface {
	Next() (any, bool)
}

// Iterable is implemented by collections that can be walked from the start
// any number of times.
type Iterable interface {
	Iterator() Iterator
}

// IsSequence reports whether v is an array or slice, an Iterable, or a
// range-over-func sequence (func(yield func(T) bool)).
func IsSequence(v any) bool {
	if IsNil(v) {
		return false
	}
	if _, ok := v.(Iterable); ok {
		return true
	}
	rv := indirect(reflect.ValueOf(v))
	if !rv.IsValid() {
		return false
	}
	switch rv.Kind() {
	case reflect.Array, reflect.Slice:
		return true
	case reflect.Func:
		return isSeq(rv.Type())
	}
	return false
}

// Enumerate renders every element of v as "text:typeName". Iterables are
// consumed in a single forward pass.
func (in *Introspector) Enumerate(v any) []string {
	var out []string
	walk(v, func(_ int, item any) bool {
		out = append(out, in.Describe(item))
		return true
	})
	return out
}

// ItemAt returns element i of v. Arrays and slices are indexed directly;
// other sequences are iterated again from the start, skipping i elements.
func ItemAt(v any, i int) (any, bool) {
	if i < 0 || IsNil(v) {
		return nil, false
	}
	if _, ok := v.(Iterable); !ok {
		rv := indirect(reflect.ValueOf(v))
		if rv.IsValid() && (rv.Kind() == reflect.Array || rv.Kind() == reflect.Slice) {
			if i >= rv.Len() {
				return nil, false
			}
			return element(addressable(rv).Index(i)), true
		}
	}
	var (
		item  any
		found bool
	)
	walk(v, func(n int, x any) bool {
		if n == i {
			item, found = x, true
			return false
		}
		return true
	})
	return item, found
}

// walk feeds the elements of v to fn until fn returns false.
func walk(v any, fn func(int, any) bool) {
	if IsNil(v) {
		return
	}
	if it, ok := v.(Iterable); ok {
		iter := it.Iterator()
		if iter == nil {
			return
		}
		for n := 0; ; n++ {
			x, ok := iter.Next()
			if !ok || !fn(n, x) {
				return
			}
		}
	}
	rv := indirect(reflect.ValueOf(v))
	if !rv.IsValid() {
		return
	}
	switch rv.Kind() {
	case reflect.Array, reflect.Slice:
		rv = addressable(rv)
		for n := 0; n < rv.Len(); n++ {
			if !fn(n, element(rv.Index(n))) {
				return
			}
		}
	case reflect.Func:
		if !isSeq(rv.Type()) {
			return
		}
		n := 0
		yield := reflect.MakeFunc(rv.Type().In(0), func(args []reflect.Value) []reflect.Value {
			more := fn(n, args[0].Interface())
			n++
			return []reflect.Value{reflect.ValueOf(more)}
		})
		rv.Call([]reflect.Value{yield})
	}
}

// element returns an array or slice element, as a pointer when it is a
// struct so that it stays the live element.
func element(ev reflect.Value) any {
	ev = unlock(ev)
	if ev.Kind() == reflect.Struct && ev.CanAddr() {
		return ev.Addr().Interface()
	}
	return ev.Interface()
}

func isSeq(ft reflect.Type) bool {
	if ft.NumIn() != 1 || ft.NumOut() != 0 {
		return false
	}
	yt := ft.In(0)
	return yt.Kind() == reflect.Func && yt.NumIn() == 1 && yt.NumOut() == 1 && yt.Out(0).Kind() == reflect.Bool
}
