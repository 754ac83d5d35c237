// Package introspect walks and manipulates live Go values through
// reflection: member listing over a value's embedding ancestry, field paths,
// field access, method and constructor invocation, and sequence iteration.
//
// Struct-valued fields and struct elements of arrays and slices are handed
// out as pointers to the live storage, so a field declared as T is reported
// with the type name *T by TypeName and the ancestry listings.
package introspect

import (
	"errors"
	"reflect"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/tliron/commonlog"

	"github.com/sysdream/fino/catalog"
)

var log = commonlog.GetLogger("fino.introspect")

var (
	// ErrArgumentShape means the arguments do not fit a member's parameters.
	ErrArgumentShape = errors.New("introspect: argument shape mismatch")
	// ErrMethodNotFound means no method of that name accepts the arguments.
	ErrMethodNotFound = errors.New("introspect: method not found")
	// ErrNoConstructor means the type has no constructor at all.
	ErrNoConstructor = errors.New("introspect: no constructor")
	// ErrInstantiation means a constructor failed or produced nothing.
	ErrInstantiation = errors.New("introspect: instantiation failed")
	// ErrNilTarget is returned when a member is used on a nil value.
	ErrNilTarget = errors.New("introspect: nil target")
)

// Path is an ordered list of field selectors, each an index into the field
// list of the value reached so far.
type Path []int

// Level is one step of a type's ancestry: the type itself, then every struct
// embedded in it, breadth-first in field order.
type Level struct {
	Type reflect.Type
	// Index leads from the root struct to the embedded field holding this
	// level; nil for the root level.
	Index []int
	// Addressable levels use the pointer method set.
	Addressable bool
}

// Field describes a struct field reachable from a root value.
type Field struct {
	Name      string
	Declaring reflect.Type
	Type      reflect.Type
	Index     []int
	Exported  bool
	Embedded  bool
}

// Method describes a callable member. Func takes the receiver first.
type Method struct {
	Name       string
	Declaring  reflect.Type
	Func       reflect.Value
	Registered bool
	level      int
}

// Constructor describes a way to build a value of a type. A zero Func is the
// synthetic zero-value constructor of struct types.
type Constructor struct {
	Name string
	Type reflect.Type
	Func reflect.Value
}

// NestedType describes a type registered as declared inside a level.
type NestedType struct {
	Name      string
	Declaring reflect.Type
	Type      reflect.Type
}

type typeInfo struct {
	gen     uint64
	levels  []Level
	fields  []Field
	methods []Method
	nested  []NestedType
}

// Introspector lists members of live values. Results are cached per runtime
// type until the catalog changes.
type Introspector struct {
	cat   *catalog.Catalog
	cache sync.Map // reflect.Type -> *typeInfo
}

// New returns an Introspector resolving names through c
// (catalog.Default when c is nil).
func New(c *catalog.Catalog) *Introspector {
	if c == nil {
		c = catalog.Default
	}
	return &Introspector{cat: c}
}

// Catalog returns the catalog used for names, constructors and overloads.
func (in *Introspector) Catalog() *catalog.Catalog {
	return in.cat
}

// Levels returns the ancestry of v's runtime type, most-derived first.
func (in *Introspector) Levels(v any) []Level {
	if IsNil(v) {
		return nil
	}
	return in.info(reflect.TypeOf(v)).levels
}

// Fields lists the fields of v: each level's own fields, most-derived level
// first. Embedded structs that form a level are not listed themselves.
func (in *Introspector) Fields(v any) []Field {
	if IsNil(v) {
		return nil
	}
	return in.info(reflect.TypeOf(v)).fields
}

// Methods lists the methods of v: each level's own exported methods sorted
// by name, followed by the methods registered for it in the catalog.
func (in *Introspector) Methods(v any) []Method {
	if IsNil(v) {
		return nil
	}
	return in.info(reflect.TypeOf(v)).methods
}

// NestedTypes lists the types registered as nested in each level of v.
func (in *Introspector) NestedTypes(v any) []NestedType {
	if IsNil(v) {
		return nil
	}
	return in.info(reflect.TypeOf(v)).nested
}

// Constructors lists the registered constructors of t followed, for struct
// types, by the zero-value constructor "new".
func (in *Introspector) Constructors(t reflect.Type) []Constructor {
	if t == nil {
		return nil
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	var out []Constructor
	for _, c := range in.cat.Constructors(t) {
		out = append(out, Constructor{Name: c.Name, Type: t, Func: c.Func})
	}
	if t.Kind() == reflect.Struct {
		out = append(out, Constructor{Name: "new", Type: t})
	}
	return out
}

// ConstructorsByName resolves name through the catalog and lists its
// constructors. Unknown names yield catalog.ErrTypeNotFound.
func (in *Introspector) ConstructorsByName(name string) ([]Constructor, error) {
	t, err := in.cat.Lookup(name)
	if err != nil {
		return nil, err
	}
	return in.Constructors(t), nil
}

// IsInstance reports whether v is assignable to t, counting a struct type
// embedded anywhere in v's ancestry as a supertype.
func (in *Introspector) IsInstance(v any, t reflect.Type) bool {
	if IsNil(v) || t == nil {
		return false
	}
	rt := reflect.TypeOf(v)
	if rt.AssignableTo(t) {
		return true
	}
	want, ptr := t, false
	if want.Kind() == reflect.Pointer {
		want, ptr = want.Elem(), true
	}
	if want.Kind() != reflect.Struct || (ptr && rt.Kind() != reflect.Pointer) {
		return false
	}
	for _, lv := range in.info(rt).levels {
		if lv.Type == want {
			return true
		}
	}
	return false
}

// InstanceOf is IsInstance with the type resolved by name.
func (in *Introspector) InstanceOf(v any, typeName string) bool {
	t, err := in.cat.Lookup(typeName)
	if err != nil {
		return false
	}
	return in.IsInstance(v, t)
}

// AncestorTypeNames names v's runtime type, every level of its ancestry and
// every catalog interface it implements.
func (in *Introspector) AncestorTypeNames(v any) []string {
	if IsNil(v) {
		return nil
	}
	rt := reflect.TypeOf(v)
	seen := map[string]bool{}
	var out []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	add(in.cat.NameOf(rt))
	for _, lv := range in.info(rt).levels {
		add(in.cat.NameOf(lv.Type))
	}
	var ifaces []string
	for _, it := range in.cat.Interfaces() {
		if rt.Implements(it) {
			ifaces = append(ifaces, in.cat.NameOf(it))
		}
	}
	sort.Strings(ifaces)
	for _, name := range ifaces {
		add(name)
	}
	return out
}

func (in *Introspector) info(rt reflect.Type) *typeInfo {
	gen := in.cat.Generation()
	if cached, ok := in.cache.Load(rt); ok {
		if ti := cached.(*typeInfo); ti.gen == gen {
			return ti
		}
	}
	ti := in.build(rt)
	ti.gen = gen
	in.cache.Store(rt, ti)
	return ti
}

func (in *Introspector) build(rt reflect.Type) *typeInfo {
	root, addressable := rt, false
	for root.Kind() == reflect.Pointer {
		root, addressable = root.Elem(), true
	}

	ti := &typeInfo{levels: []Level{{Type: root, Addressable: addressable}}}
	type key struct {
		level, field int
	}
	isLevel := map[key]bool{}
	seen := map[reflect.Type]bool{root: true}
	for i := 0; i < len(ti.levels); i++ {
		lv := ti.levels[i]
		if lv.Type.Kind() != reflect.Struct {
			continue
		}
		for j := 0; j < lv.Type.NumField(); j++ {
			et, viaPtr := embeddedStruct(lv.Type.Field(j))
			if et == nil || seen[et] {
				continue
			}
			seen[et] = true
			isLevel[key{i, j}] = true
			ti.levels = append(ti.levels, Level{
				Type:        et,
				Index:       appendIndex(lv.Index, j),
				Addressable: viaPtr || lv.Addressable,
			})
		}
	}

	for i, lv := range ti.levels {
		if lv.Type.Kind() == reflect.Struct {
			for j := 0; j < lv.Type.NumField(); j++ {
				if isLevel[key{i, j}] {
					continue
				}
				sf := lv.Type.Field(j)
				ti.fields = append(ti.fields, Field{
					Name:      sf.Name,
					Declaring: lv.Type,
					Type:      sf.Type,
					Index:     appendIndex(lv.Index, j),
					Exported:  sf.IsExported(),
					Embedded:  sf.Anonymous,
				})
			}
		}
		ti.methods = append(ti.methods, ownMethods(lv, i)...)
		for _, m := range in.cat.Methods(lv.Type) {
			ti.methods = append(ti.methods, Method{
				Name:       m.Name,
				Declaring:  lv.Type,
				Func:       m.Func,
				Registered: true,
				level:      i,
			})
		}
		for _, n := range in.cat.Nested(lv.Type) {
			ti.nested = append(ti.nested, NestedType{Name: n.Name, Declaring: lv.Type, Type: n.Type})
		}
	}
	return ti
}

// ownMethods returns the exported methods declared on the level's type
// itself, leaving out those promoted from embedded fields.
func ownMethods(lv Level, level int) []Method {
	recv := lv.Type
	if lv.Addressable {
		recv = reflect.PointerTo(lv.Type)
	}
	inherited := promotedNames(lv.Type)
	var out []Method
	for i := 0; i < recv.NumMethod(); i++ {
		m := recv.Method(i)
		if inherited[m.Name] && !declaredOn(lv.Type, m.Name) {
			continue
		}
		out = append(out, Method{Name: m.Name, Declaring: lv.Type, Func: m.Func, level: level})
	}
	return out
}

// promotedNames collects the method names reachable through embedded fields.
func promotedNames(t reflect.Type) map[string]bool {
	names := map[string]bool{}
	if t.Kind() != reflect.Struct {
		return names
	}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.Anonymous {
			continue
		}
		ft := sf.Type
		if ft.Kind() != reflect.Pointer && ft.Kind() != reflect.Interface {
			ft = reflect.PointerTo(ft)
		}
		for j := 0; j < ft.NumMethod(); j++ {
			names[ft.Method(j).Name] = true
		}
	}
	return names
}

// declaredOn reports whether name is implemented by t itself rather than by
// a compiler-generated promotion wrapper.
func declaredOn(t reflect.Type, name string) bool {
	if m, ok := t.MethodByName(name); ok {
		return !generated(m.Func)
	}
	if m, ok := reflect.PointerTo(t).MethodByName(name); ok {
		return !generated(m.Func)
	}
	return false
}

func generated(fn reflect.Value) bool {
	f := runtime.FuncForPC(fn.Pointer())
	if f == nil {
		return false
	}
	file, _ := f.FileLine(f.Entry())
	return strings.HasPrefix(file, "<autogenerated>")
}

func embeddedStruct(sf reflect.StructField) (reflect.Type, bool) {
	if !sf.Anonymous {
		return nil, false
	}
	t, viaPtr := sf.Type, false
	if t.Kind() == reflect.Pointer {
		t, viaPtr = t.Elem(), true
	}
	if t.Kind() != reflect.Struct {
		return nil, false
	}
	return t, viaPtr
}

func appendIndex(prefix []int, i int) []int {
	out := make([]int, len(prefix), len(prefix)+1)
	copy(out, prefix)
	return append(out, i)
}

func (f Field) qualifiers() string {
	q := "unexported"
	if f.Exported {
		q = "exported"
	}
	if f.Embedded {
		q += " embedded"
	}
	return q
}

// Params returns the parameter types, receiver excluded.
func (m Method) Params() []reflect.Type {
	ft := m.Func.Type()
	out := make([]reflect.Type, 0, ft.NumIn()-1)
	for i := 1; i < ft.NumIn(); i++ {
		out = append(out, ft.In(i))
	}
	return out
}

// Params returns the parameter types of the constructor.
func (c Constructor) Params() []reflect.Type {
	if !c.Func.IsValid() {
		return nil
	}
	ft := c.Func.Type()
	out := make([]reflect.Type, 0, ft.NumIn())
	for i := 0; i < ft.NumIn(); i++ {
		out = append(out, ft.In(i))
	}
	return out
}

// DescribeField renders f as "name:qualifiers type" using catalog names.
func (in *Introspector) DescribeField(f Field) string {
	return f.Name + Separator + f.qualifiers() + " " + in.cat.NameOf(f.Type)
}

// DescribeMethod renders m as "name:func (recv) name(params) results".
func (in *Introspector) DescribeMethod(m Method) string {
	ft := m.Func.Type()
	return m.Name + Separator + "func (" + in.cat.NameOf(ft.In(0)) + ") " + m.Name + in.signature(ft, 1)
}

// DescribeConstructor renders c as "name:func(params) result".
func (in *Introspector) DescribeConstructor(c Constructor) string {
	if !c.Func.IsValid() {
		return c.Name + Separator + "func() " + in.cat.NameOf(reflect.PointerTo(c.Type))
	}
	return c.Name + Separator + "func" + in.signature(c.Func.Type(), 0)
}

// DescribeNested renders n as "name:kind type".
func (in *Introspector) DescribeNested(n NestedType) string {
	return n.Name + Separator + n.Type.Kind().String() + " " + in.cat.NameOf(n.Type)
}

// ParamNames names the parameter types of a method.
func (in *Introspector) ParamNames(m Method) []string {
	params := m.Params()
	out := make([]string, len(params))
	for i, p := range params {
		out[i] = in.cat.NameOf(p)
	}
	return out
}
