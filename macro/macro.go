// Package macro holds named extension units loaded at runtime from code
// bytes: Go plugins or CUE macro scripts.
package macro

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("fino.macro")

var (
	// ErrLoad wraps every failure of Registry.Load.
	ErrLoad = errors.New("macro: load failed")
	// ErrNoMacro means a macro index is out of range.
	ErrNoMacro = errors.New("macro: no such macro")
	// ErrRun wraps a failure raised by a macro's Run.
	ErrRun = errors.New("macro: run failed")
)

// Macro is a loaded extension unit.
type Macro interface {
	Description() string
	// Applies reports whether the macro can run against target.
	Applies(target any) bool
	// Params names the types of the arguments Run expects.
	Params() []string
	Run(target any, params []any) (any, error)
}

// Host gives macros access to live values. *introspect.Invoker satisfies it.
type Host interface {
	InvokeByName(target any, name string, args []any) (any, error)
	FieldByName(v any, name string) (any, bool)
	InstanceOf(v any, typeName string) bool
}

// Unit is a code payload handed to a Loader.
type Unit struct {
	Name   string
	Kind   Kind
	Digest string
	// Path is where the store wrote the code, empty without a store.
	Path string
	Code []byte
}

// Loader materializes a Macro from a unit.
type Loader interface {
	Load(u Unit, host Host) (Macro, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(u Unit, host Host) (Macro, error)

func (f LoaderFunc) Load(u Unit, host Host) (Macro, error) { return f(u, host) }

type entry struct {
	name  string
	unit  Unit
	macro Macro
}

// Registry is an ordered, name-unique collection of macros.
type Registry struct {
	mu      sync.RWMutex
	host    Host
	store   *Store
	policy  *Policy
	loaders map[Kind]Loader
	entries []entry
}

// Option configures a Registry.
type Option func(*Registry)

// WithStore persists every loaded unit in s.
func WithStore(s *Store) Option {
	return func(r *Registry) { r.store = s }
}

// WithPolicy checks every unit against p before loading it.
func WithPolicy(p *Policy) Option {
	return func(r *Registry) { r.policy = p }
}

// WithLoader replaces the loader used for kind.
func WithLoader(kind Kind, l Loader) Option {
	return func(r *Registry) { r.loaders[kind] = l }
}

// NewRegistry creates an empty registry whose macros act through host.
// Go plugins and CUE scripts are loadable by default under a permissive
// policy.
func NewRegistry(host Host, opts ...Option) *Registry {
	r := &Registry{
		host:   host,
		policy: NewPermissivePolicy(),
		loaders: map[Kind]Loader{
			KindPlugin: PluginLoader{},
			KindScript: ScriptLoader{},
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load checks, persists and loads code as the macro name. On success the
// macro replaces any previous one of that name at the same index; on failure
// the registry is unchanged and the error wraps ErrLoad.
func (r *Registry) Load(name string, code []byte) (int, error) {
	if name == "" {
		return -1, fmt.Errorf("%w: empty name", ErrLoad)
	}
	sum := sha256.Sum256(code)
	u := Unit{
		Name:   name,
		Kind:   Sniff(code),
		Digest: hex.EncodeToString(sum[:]),
		Code:   code,
	}
	if err := r.policy.Check(u); err != nil {
		return -1, fmt.Errorf("%w: %s: %w", ErrLoad, name, err)
	}
	var id int64
	if r.store != nil {
		var err error
		if id, err = r.store.Save(&u); err != nil {
			return -1, fmt.Errorf("%w: %s: %w", ErrLoad, name, err)
		}
	}
	m, err := r.materialize(u)
	if r.store != nil {
		r.store.MarkLoaded(id, err)
	}
	if err != nil {
		log.Warningf("%v", err)
		return -1, err
	}
	return r.install(u, m), nil
}

func (r *Registry) materialize(u Unit) (m Macro, err error) {
	loader, ok := r.loaders[u.Kind]
	if !ok || loader == nil {
		return nil, fmt.Errorf("%w: %s: no loader for %s units", ErrLoad, u.Name, u.Kind)
	}
	defer func() {
		if p := recover(); p != nil {
			m, err = nil, fmt.Errorf("%w: %s: %v", ErrLoad, u.Name, p)
		}
	}()
	m, err = loader.Load(u, r.host)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, u.Name, err)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: %s: loader produced no macro", ErrLoad, u.Name)
	}
	return m, nil
}

func (r *Registry) install(u Unit, m Macro) int {
	u.Code = nil
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.entries {
		if r.entries[i].name == u.Name {
			r.entries[i] = entry{name: u.Name, unit: u, macro: m}
			log.Infof("reloaded macro %s (%s)", u.Name, u.Kind)
			return i
		}
	}
	r.entries = append(r.entries, entry{name: u.Name, unit: u, macro: m})
	log.Infof("loaded macro %s (%s)", u.Name, u.Kind)
	return len(r.entries) - 1
}

// Names lists macro names in registry order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.name
	}
	return out
}

// Len returns the number of macros.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Unit returns the unit macro i was loaded from, without its code.
func (r *Registry) Unit(i int) (Unit, error) {
	e, err := r.at(i)
	return e.unit, err
}

// Applicable returns, in registry order, the indices of the macros that
// accept target. A predicate that panics counts as a refusal.
func (r *Registry) Applicable(target any) []int {
	r.mu.RLock()
	entries := append([]entry(nil), r.entries...)
	r.mu.RUnlock()
	var out []int
	for i, e := range entries {
		if applies(e, target) {
			out = append(out, i)
		}
	}
	return out
}

func applies(e entry, target any) (ok bool) {
	defer func() {
		if p := recover(); p != nil {
			log.Debugf("%s: applicability check panicked: %v", e.name, p)
			ok = false
		}
	}()
	return e.macro.Applies(target)
}

// Params returns the parameter type names of macro i. A panic in the macro
// is returned as an error wrapping ErrRun.
func (r *Registry) Params(i int) (params []string, err error) {
	e, err := r.at(i)
	if err != nil {
		return nil, err
	}
	defer func() {
		if p := recover(); p != nil {
			params, err = nil, fmt.Errorf("%w: %s: params: %v", ErrRun, e.name, p)
		}
	}()
	return e.macro.Params(), nil
}

// Description returns the description of macro i. A panic in the macro is
// returned as an error wrapping ErrRun.
func (r *Registry) Description(i int) (desc string, err error) {
	e, err := r.at(i)
	if err != nil {
		return "", err
	}
	defer func() {
		if p := recover(); p != nil {
			desc, err = "", fmt.Errorf("%w: %s: description: %v", ErrRun, e.name, p)
		}
	}()
	return e.macro.Description(), nil
}

// Run executes macro i. Panics are returned as errors wrapping ErrRun.
func (r *Registry) Run(i int, target any, params []any) (out any, err error) {
	e, err := r.at(i)
	if err != nil {
		return nil, err
	}
	defer func() {
		if p := recover(); p != nil {
			out, err = nil, fmt.Errorf("%w: %s: %v", ErrRun, e.name, p)
		}
	}()
	out, err = e.macro.Run(target, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRun, e.name, err)
	}
	return out, nil
}

func (r *Registry) at(i int) (entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i < 0 || i >= len(r.entries) {
		return entry{}, fmt.Errorf("%w: %d", ErrNoMacro, i)
	}
	return r.entries[i], nil
}
