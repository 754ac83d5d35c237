package introspect

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/davecgh/go-spew/spew"
)

// Separator joins the parts of the strings returned to remote callers.
const Separator = ":"

// IsNil reports whether v is nil or a nil pointer, map, slice, func,
// channel or interface.
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func,
		reflect.Chan, reflect.Interface, reflect.UnsafePointer:
		return rv.IsNil()
	}
	return false
}

// Text renders v the way a remote caller sees it. Values that fmt cannot
// print in bounded time, such as a map holding itself, are rendered down to
// a fixed depth instead.
func Text(v any) string {
	if IsNil(v) {
		return "null"
	}
	if !printable(reflect.ValueOf(v)) {
		return shallow.Sprint(v)
	}
	return fmt.Sprint(v)
}

var shallow = spew.ConfigState{
	MaxDepth:                3,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

const maxPrintNodes = 1 << 16

type printKey struct {
	ptr uintptr
	len int
	typ reflect.Type
}

type printWalk struct {
	open  map[printKey]bool
	nodes int
}

// printable reports whether fmt.Sprint terminates on rv in reasonable time:
// no map or slice it reaches contains itself and it is not huge. fmt prints
// the target of a top-level pointer but only the address of nested ones.
func printable(rv reflect.Value) bool {
	if rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	w := printWalk{open: map[printKey]bool{}}
	return w.visit(rv)
}

func (w *printWalk) visit(rv reflect.Value) bool {
	if w.nodes++; w.nodes > maxPrintNodes {
		return false
	}
	switch rv.Kind() {
	case reflect.Interface:
		return rv.IsNil() || w.visit(rv.Elem())
	case reflect.Map:
		if rv.IsNil() {
			return true
		}
		k := printKey{rv.Pointer(), 0, rv.Type()}
		if w.open[k] {
			return false
		}
		w.open[k] = true
		defer delete(w.open, k)
		it := rv.MapRange()
		for it.Next() {
			if !w.visit(it.Key()) || !w.visit(it.Value()) {
				return false
			}
		}
	case reflect.Slice:
		if rv.IsNil() {
			return true
		}
		k := printKey{rv.Pointer(), rv.Len(), rv.Type()}
		if w.open[k] {
			return false
		}
		w.open[k] = true
		defer delete(w.open, k)
		if scalar(rv.Type().Elem()) {
			return true
		}
		for i := 0; i < rv.Len(); i++ {
			if !w.visit(rv.Index(i)) {
				return false
			}
		}
	case reflect.Array:
		if scalar(rv.Type().Elem()) {
			return true
		}
		for i := 0; i < rv.Len(); i++ {
			if !w.visit(rv.Index(i)) {
				return false
			}
		}
	case reflect.Struct:
		for i := 0; i < rv.NumField(); i++ {
			if !w.visit(rv.Field(i)) {
				return false
			}
		}
	}
	return true
}

// TypeName returns the display name of v's runtime type, or "null".
func (in *Introspector) TypeName(v any) string {
	if IsNil(v) {
		return "null"
	}
	return in.cat.NameOf(reflect.TypeOf(v))
}

// Describe renders v as "text:typeName".
func (in *Introspector) Describe(v any) string {
	return Text(v) + Separator + in.TypeName(v)
}

func scalar(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Interface, reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		return false
	}
	return true
}

// signature renders a function type, dropping the first skip parameters.
func (in *Introspector) signature(ft reflect.Type, skip int) string {
	var b strings.Builder
	b.WriteByte('(')
	for i := skip; i < ft.NumIn(); i++ {
		if i > skip {
			b.WriteString(", ")
		}
		if ft.IsVariadic() && i == ft.NumIn()-1 {
			b.WriteString("..." + in.cat.NameOf(ft.In(i).Elem()))
			continue
		}
		b.WriteString(in.cat.NameOf(ft.In(i)))
	}
	b.WriteByte(')')
	switch ft.NumOut() {
	case 0:
	case 1:
		b.WriteString(" " + in.cat.NameOf(ft.Out(0)))
	default:
		b.WriteString(" (")
		for i := 0; i < ft.NumOut(); i++ {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(in.cat.NameOf(ft.Out(i)))
		}
		b.WriteByte(')')
	}
	return b.String()
}
