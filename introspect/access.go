package introspect

import (
	"math"
	"reflect"
	"unsafe"
)

// Resolve walks path from root, one field read per selector. A nil value or
// a selector outside the current field list ends the walk with nil.
func (in *Introspector) Resolve(root any, path Path) any {
	cur := root
	for _, sel := range path {
		if IsNil(cur) {
			return nil
		}
		fields := in.Fields(cur)
		if sel < 0 || sel >= len(fields) {
			return nil
		}
		cur = in.ReadField(fields[sel], cur)
	}
	if IsNil(cur) {
		return nil
	}
	return cur
}

// Browse is Resolve that also returns the descriptors of the fields it went
// through, for rendering a path. The walk stops where Resolve would.
func (in *Introspector) Browse(root any, path Path) (any, []Field) {
	cur := root
	visited := make([]Field, 0, len(path))
	for _, sel := range path {
		if IsNil(cur) {
			return nil, visited
		}
		fields := in.Fields(cur)
		if sel < 0 || sel >= len(fields) {
			return nil, visited
		}
		visited = append(visited, fields[sel])
		cur = in.ReadField(fields[sel], cur)
	}
	if IsNil(cur) {
		return nil, visited
	}
	return cur, visited
}

// ReadField returns the value of f in v, or nil if it cannot be read.
// Unexported fields are readable. Struct-valued fields of addressable values
// are returned as pointers so later writes reach the live object.
func (in *Introspector) ReadField(f Field, v any) (out any) {
	defer func() {
		if r := recover(); r != nil {
			log.Debugf("read %s: %v", f.Name, r)
			out = nil
		}
	}()
	fv, ok := fieldValue(f, v)
	if !ok {
		return nil
	}
	if fv.Kind() == reflect.Struct && fv.CanAddr() {
		return fv.Addr().Interface()
	}
	return fv.Interface()
}

// WriteField stores value into f of target. It never fails loudly: a field
// that cannot be written (unreachable, non-addressable target, mismatched
// type) is left untouched. A nil value clears pointer, map, slice, func,
// channel and interface fields and is ignored for every other kind.
func (in *Introspector) WriteField(f Field, target, value any) {
	defer func() {
		if r := recover(); r != nil {
			log.Debugf("write %s: %v", f.Name, r)
		}
	}()
	rv := indirect(reflect.ValueOf(target))
	if !rv.IsValid() || rv.Kind() != reflect.Struct || !rv.CanAddr() {
		log.Debugf("write %s: target is not addressable", f.Name)
		return
	}
	fv, err := rv.FieldByIndexErr(f.Index)
	if err != nil {
		log.Debugf("write %s: %v", f.Name, err)
		return
	}
	fv = unlock(fv)
	var nv reflect.Value
	if value == nil {
		if !nillable(fv.Kind()) {
			log.Debugf("write %s: nil into %s", f.Name, fv.Type())
			return
		}
		nv = reflect.Zero(fv.Type())
	} else if nv, err = coerce(value, fv.Type()); err != nil {
		log.Debugf("write %s: %v", f.Name, err)
		return
	}
	fv.Set(nv)
}

// FieldByName reads the first field called name in v's field list.
func (in *Introspector) FieldByName(v any, name string) (any, bool) {
	for _, f := range in.Fields(v) {
		if f.Name == name {
			return in.ReadField(f, v), true
		}
	}
	return nil, false
}

// fieldValue locates f inside v, copying non-addressable values so that
// unexported fields can be exported through unsafe.
func fieldValue(f Field, v any) (reflect.Value, bool) {
	rv := addressable(indirect(reflect.ValueOf(v)))
	if !rv.IsValid() || rv.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}
	fv, err := rv.FieldByIndexErr(f.Index)
	if err != nil {
		return reflect.Value{}, false
	}
	return unlock(fv), true
}

func indirect(rv reflect.Value) reflect.Value {
	for rv.IsValid() && rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return reflect.Value{}
		}
		rv = rv.Elem()
	}
	return rv
}

func addressable(rv reflect.Value) reflect.Value {
	if !rv.IsValid() || rv.CanAddr() {
		return rv
	}
	tmp := reflect.New(rv.Type()).Elem()
	tmp.Set(rv)
	return tmp
}

// unlock clears the read-only flag reflect puts on values reached through
// unexported fields.
func unlock(fv reflect.Value) reflect.Value {
	if fv.CanInterface() || !fv.CanAddr() {
		return fv
	}
	return reflect.NewAt(fv.Type(), unsafe.Pointer(fv.UnsafeAddr())).Elem()
}

func nillable(k reflect.Kind) bool {
	switch k {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice,
		reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return true
	}
	return false
}

// coerce adapts v to t: direct assignment, dereferencing a pointer whose
// element fits, or a lossless numeric conversion.
func coerce(v any, t reflect.Type) (reflect.Value, error) {
	if IsNil(v) {
		if nillable(t.Kind()) {
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, ErrArgumentShape
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}
	if rv.Kind() == reflect.Pointer && rv.Elem().Type().AssignableTo(t) {
		return rv.Elem(), nil
	}
	if cv, ok := convertNumber(rv, t); ok {
		return cv, nil
	}
	if rv.Kind() == reflect.String && t.Kind() == reflect.String {
		return rv.Convert(t), nil
	}
	if rv.Kind() == reflect.Bool && t.Kind() == reflect.Bool {
		return rv.Convert(t), nil
	}
	return reflect.Value{}, ErrArgumentShape
}

func convertNumber(rv reflect.Value, t reflect.Type) (reflect.Value, bool) {
	zero := reflect.Zero(t)
	switch {
	case isInt(rv.Kind()) && isInt(t.Kind()):
		if zero.OverflowInt(rv.Int()) {
			return reflect.Value{}, false
		}
	case isInt(rv.Kind()) && isUint(t.Kind()):
		if rv.Int() < 0 || zero.OverflowUint(uint64(rv.Int())) {
			return reflect.Value{}, false
		}
	case isUint(rv.Kind()) && isInt(t.Kind()):
		if rv.Uint() > math.MaxInt64 || zero.OverflowInt(int64(rv.Uint())) {
			return reflect.Value{}, false
		}
	case isUint(rv.Kind()) && isUint(t.Kind()):
		if zero.OverflowUint(rv.Uint()) {
			return reflect.Value{}, false
		}
	case isFloat(rv.Kind()) && isFloat(t.Kind()):
		if zero.OverflowFloat(rv.Float()) {
			return reflect.Value{}, false
		}
	case (isInt(rv.Kind()) || isUint(rv.Kind())) && isFloat(t.Kind()):
	default:
		return reflect.Value{}, false
	}
	return rv.Convert(t), true
}

func isInt(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isUint(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uintptr
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}
