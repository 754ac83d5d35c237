package gowrap

import (
	"fmt"
	"go/types"

	"golang.org/x/tools/go/packages"
)

// IntrospectPackage loads a Go package by import path and returns its API model.
// The includeFilter, if non-nil, restricts which exported type names are
// included.
func IntrospectPackage(importPath string, includeFilter map[string]bool) (*PackageModel, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedTypes | packages.NeedSyntax,
	}

	pkgs, err := packages.Load(cfg, importPath)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", importPath, err)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("no packages found for %s", importPath)
	}
	if len(pkgs[0].Errors) > 0 {
		return nil, fmt.Errorf("package errors: %v", pkgs[0].Errors)
	}

	pkg := pkgs[0]
	if pkg.Types == nil {
		return nil, fmt.Errorf("type information not available for %s", importPath)
	}

	model := &PackageModel{
		ImportPath: pkg.PkgPath,
		Name:       pkg.Name,
	}

	scope := pkg.Types.Scope()
	var funcs []*types.Func
	for _, name := range scope.Names() {
		obj := scope.Lookup(name)
		if !obj.Exported() {
			continue
		}
		switch o := obj.(type) {
		case *types.Func:
			funcs = append(funcs, o)
		case *types.TypeName:
			if includeFilter != nil && !includeFilter[name] {
				continue
			}
			if tm := extractType(o, pkg.Types); tm != nil {
				model.Types = append(model.Types, *tm)
			}
		}
	}

	// Constructors are attached once every type is known.
	for _, fn := range funcs {
		name, ok := constructs(fn, pkg.Types)
		if !ok {
			continue
		}
		if tm := model.Type(name); tm != nil {
			tm.Constructors = append(tm.Constructors, functionModelFromSig(fn.Name(), fn.Type().(*types.Signature), false, ""))
		}
	}

	return model, nil
}

func extractType(tn *types.TypeName, pkg *types.Package) *TypeModel {
	if tn.IsAlias() {
		return nil
	}
	named, ok := tn.Type().(*types.Named)
	if !ok || named.TypeParams().Len() > 0 {
		return nil
	}

	tm := &TypeModel{
		Name:   tn.Name(),
		GoType: tn.Type(),
	}

	switch u := named.Underlying().(type) {
	case *types.Struct:
		tm.Kind = KindStruct
		for i := 0; i < u.NumFields(); i++ {
			f := u.Field(i)
			if f.Exported() {
				tm.Fields = append(tm.Fields, FieldModel{
					Name:     f.Name(),
					GoType:   f.Type(),
					TypeStr:  types.TypeString(f.Type(), qualifier(pkg)),
					Embedded: f.Embedded(),
				})
			}
		}
	case *types.Interface:
		tm.Kind = KindInterface
		// Type-set constraints cannot be used as values.
		if !u.IsMethodSet() {
			return nil
		}
		return tm
	}

	// Collect pointer-receiver methods
	mset := types.NewMethodSet(types.NewPointer(named))
	for i := 0; i < mset.Len(); i++ {
		sel := mset.At(i)
		fn, ok := sel.Obj().(*types.Func)
		if !ok || !fn.Exported() {
			continue
		}
		// Only include methods directly defined on this type (not promoted)
		if len(sel.Index()) > 1 {
			continue
		}
		sig := fn.Type().(*types.Signature)
		tm.Methods = append(tm.Methods, functionModelFromSig(fn.Name(), sig, true, "*"+tn.Name()))
	}

	return tm
}

// constructs reports the type fn builds: a non-generic function returning
// T or *T of pkg, optionally followed by an error.
func constructs(fn *types.Func, pkg *types.Package) (string, bool) {
	sig := fn.Type().(*types.Signature)
	if sig.TypeParams().Len() > 0 || sig.Variadic() {
		return "", false
	}
	results := sig.Results()
	switch {
	case results.Len() == 1:
	case results.Len() == 2 && isErrorType(results.At(1).Type()):
	default:
		return "", false
	}
	t := results.At(0).Type()
	if p, ok := t.(*types.Pointer); ok {
		t = p.Elem()
	}
	named, ok := t.(*types.Named)
	if !ok || named.Obj().Pkg() != pkg {
		return "", false
	}
	if _, isIface := named.Underlying().(*types.Interface); isIface {
		return "", false
	}
	return named.Obj().Name(), true
}

func functionModelFromSig(name string, sig *types.Signature, isMethod bool, recvType string) FunctionModel {
	fm := FunctionModel{
		Name:     name,
		IsMethod: isMethod,
		RecvType: recvType,
	}

	params := sig.Params()
	for i := 0; i < params.Len(); i++ {
		p := params.At(i)
		fm.Params = append(fm.Params, ParamModel{
			Name:    p.Name(),
			GoType:  p.Type(),
			TypeStr: p.Type().String(),
		})
	}

	results := sig.Results()
	for i := 0; i < results.Len(); i++ {
		r := results.At(i)
		fm.Results = append(fm.Results, ParamModel{
			Name:    r.Name(),
			GoType:  r.Type(),
			TypeStr: r.Type().String(),
		})
	}

	if results.Len() > 0 && isErrorType(results.At(results.Len()-1).Type()) {
		fm.ReturnsErr = true
	}

	return fm
}

func isErrorType(t types.Type) bool {
	return types.Identical(t, types.Universe.Lookup("error").Type())
}

func qualifier(pkg *types.Package) types.Qualifier {
	return func(other *types.Package) string {
		if other == pkg {
			return ""
		}
		return other.Name()
	}
}
