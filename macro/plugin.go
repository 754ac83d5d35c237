package macro

import (
	"errors"
	"fmt"
	"plugin"
)

// PluginSymbol is the constructor every macro plugin exports:
//
//	func NewMacro() macro.Macro
const PluginSymbol = "NewMacro"

// PluginLoader opens units with the Go plugin package. The unit must have
// been written to disk by a Store; each load uses a fresh file since a
// plugin path can only be opened once per process.
type PluginLoader struct{}

func (PluginLoader) Load(u Unit, _ Host) (Macro, error) {
	if u.Path == "" {
		return nil, errors.New("plugin units need a store to be loaded from")
	}
	p, err := plugin.Open(u.Path)
	if err != nil {
		return nil, fmt.Errorf("opening plugin: %w", err)
	}
	sym, err := p.Lookup(PluginSymbol)
	if err != nil {
		return nil, err
	}
	var m Macro
	switch ctor := sym.(type) {
	case func() Macro:
		m = ctor()
	case *func() Macro:
		m = (*ctor)()
	default:
		return nil, fmt.Errorf("symbol %s has type %T, want func() macro.Macro", PluginSymbol, sym)
	}
	if m == nil {
		return nil, fmt.Errorf("%s returned nil", PluginSymbol)
	}
	return m, nil
}
