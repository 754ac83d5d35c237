package gowrap

import (
	"bytes"
	"fmt"

	"github.com/dave/jennifer/jen"
)

// CatalogPath is the import path of the catalog package generated code
// registers into.
const CatalogPath = "github.com/sysdream/fino/catalog"

// GenOptions controls GenerateRegistration.
type GenOptions struct {
	// Package is the name of the generated package. Defaults to
	// WrapperPackageName of the model's import path.
	Package string
	// ImportPath of the generated package. When it equals the model's
	// import path the generated file lives inside the inspected package.
	ImportPath string
	// Prefix replaces the package name in registered type names.
	Prefix string
	// NoInit omits the init function registering into catalog.Default.
	NoInit bool
}

// GenerateRegistration returns Go source declaring Register(c), which adds
// every type of model to c with its constructors.
func GenerateRegistration(model *PackageModel, opts GenOptions) (string, error) {
	pkgName := opts.Package
	if pkgName == "" {
		pkgName = WrapperPackageName(model.ImportPath)
	}
	var f *jen.File
	if opts.ImportPath != "" {
		f = jen.NewFilePathName(opts.ImportPath, pkgName)
	} else {
		f = jen.NewFile(pkgName)
	}
	f.HeaderComment("Code generated by finogen. DO NOT EDIT.")
	f.ImportName(model.ImportPath, model.Name)
	f.ImportName(CatalogPath, "catalog")

	if !opts.NoInit {
		f.Func().Id("init").Params().Block(
			jen.Id("Register").Call(jen.Qual(CatalogPath, "Default")),
		)
		f.Line()
	}

	var stmts []jen.Code
	for _, tm := range model.Types {
		stmts = append(stmts, registration(model, tm, opts.Prefix))
	}
	f.Commentf("Register adds the types of package %s to c.", model.ImportPath)
	f.Func().Id("Register").Params(jen.Id("c").Op("*").Qual(CatalogPath, "Catalog")).Block(stmts...)

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return "", fmt.Errorf("render registration for %s: %w", model.ImportPath, err)
	}
	return buf.String(), nil
}

func registration(model *PackageModel, tm TypeModel, prefix string) jen.Code {
	args := []jen.Code{
		jen.Qual(CatalogPath, "TypeOf").Types(jen.Qual(model.ImportPath, tm.Name)).Call(),
		jen.Qual(CatalogPath, "Named").Call(jen.Lit(CatalogName(prefix, model.Name, tm.Name))),
	}
	for _, ctor := range tm.Constructors {
		args = append(args, jen.Qual(CatalogPath, "WithConstructor").Call(
			jen.Lit(ctor.Name), jen.Qual(model.ImportPath, ctor.Name)))
	}
	return jen.Id("c").Dot("MustRegister").Custom(jen.Options{
		Open:      "(",
		Close:     ")",
		Separator: ",",
		Multi:     true,
	}, args...)
}
