// finogen generates the catalog registrations that make a package's types
// reachable by name from a fino inspection server.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sysdream/fino/gowrap"
)

func main() {
	output := flag.String("o", "", "Output file (default stdout)")
	pkgName := flag.String("pkg", "", "Package name of the generated file (default wrap_<name>)")
	importPath := flag.String("import", "", "Import path of the generated package, when it is the wrapped package itself")
	prefix := flag.String("prefix", "", "Name prefix replacing the package name in registered type names")
	include := flag.String("include", "", "Comma-separated type names to register (default all)")
	noInit := flag.Bool("no-init", false, "Do not register into catalog.Default from init")
	list := flag.Bool("list", false, "Print the package model instead of generating code")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: finogen [options] <import path>\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  finogen encoding/json                          # Print registrations for encoding/json\n")
		fmt.Fprintf(os.Stderr, "  finogen -o wrap/json/json.go encoding/json     # Write them to a file\n")
		fmt.Fprintf(os.Stderr, "  finogen -pkg app -import example.com/app -o app/fino_gen.go example.com/app\n")
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	var filter map[string]bool
	if *include != "" {
		filter = make(map[string]bool)
		for _, name := range strings.Split(*include, ",") {
			filter[strings.TrimSpace(name)] = true
		}
	}

	model, err := gowrap.IntrospectPackage(flag.Arg(0), filter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *list {
		printModel(model)
		return
	}

	code, err := gowrap.GenerateRegistration(model, gowrap.GenOptions{
		Package:    *pkgName,
		ImportPath: *importPath,
		Prefix:     *prefix,
		NoInit:     *noInit,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *output == "" {
		fmt.Print(code)
		return
	}
	if err := os.MkdirAll(filepath.Dir(*output), 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*output, []byte(code), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %d types of %s to %s\n", len(model.Types), model.ImportPath, *output)
}

func printModel(model *gowrap.PackageModel) {
	fmt.Printf("package %s (%s)\n", model.Name, model.ImportPath)
	for _, tm := range model.Types {
		fmt.Printf("\n%s %s\n", tm.Kind, tm.Name)
		for _, f := range tm.Fields {
			fmt.Printf("  field  %s %s\n", f.Name, f.TypeStr)
		}
		for _, m := range tm.Methods {
			fmt.Printf("  method %s\n", signature(m))
		}
		for _, c := range tm.Constructors {
			fmt.Printf("  ctor   %s\n", signature(c))
		}
	}
}

func signature(fm gowrap.FunctionModel) string {
	params := make([]string, len(fm.Params))
	for i, p := range fm.Params {
		params[i] = p.TypeStr
	}
	results := make([]string, len(fm.Results))
	for i, r := range fm.Results {
		results[i] = r.TypeStr
	}
	s := fm.Name + "(" + strings.Join(params, ", ") + ")"
	switch len(results) {
	case 0:
	case 1:
		s += " " + results[0]
	default:
		s += " (" + strings.Join(results, ", ") + ")"
	}
	return s
}
