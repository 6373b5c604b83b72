// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/bureau-foundation/packed/lib/packerr"
)

// Reference is one call of the lookup function found in source.
type Reference struct {
	// Path is the unquoted string literal argument.
	Path string

	// Position is the call's file:line:column.
	Position token.Position
}

// Package is the result of scanning a package directory for
// references.
type Package struct {
	// Name is the package clause shared by the scanned files.
	Name string

	// References are ordered by position (file name, then offset).
	References []Reference
}

// FindReferences parses the Go files in dir, test files included, and
// returns every call of funcName. A call whose argument is not a single
// string literal is an error at the call position: the resolver cannot
// know at generation time which asset it would load. Files generated by
// the resolver itself are skipped.
//
// Test files in the package itself contribute references like any
// other file. The lookup function is package-local, so a call from an
// external test package (package <name>_test) can never reach the
// generated function and is reported as an error.
func FindReferences(dir, funcName string) (*Package, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, packerr.Wrap(packerr.KindLookup, dir, err)
	}

	fileSet := token.NewFileSet()
	var files, testFiles []*ast.File
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !isSourceFile(name) {
			continue
		}
		path := filepath.Join(dir, name)
		file, err := parser.ParseFile(fileSet, path, nil, parser.SkipObjectResolution)
		if err != nil {
			return nil, packerr.Wrap(packerr.KindLookup, path, err)
		}
		if isTestFile(name) {
			testFiles = append(testFiles, file)
		} else {
			files = append(files, file)
		}
	}

	result := &Package{Name: packageName(files, testFiles)}
	if result.Name == "" {
		return nil, packerr.New(packerr.KindLookup, dir, "no Go source files")
	}

	var errs []error
	for _, file := range append(files, testFiles...) {
		external := file.Name.Name == result.Name+"_test" &&
			isTestFile(fileSet.Position(file.Package).Filename)
		if file.Name.Name != result.Name && !external {
			return nil, packerr.New(packerr.KindLookup, dir,
				"multiple packages in one directory: %s and %s", result.Name, file.Name.Name)
		}
		ast.Inspect(file, func(node ast.Node) bool {
			call, ok := node.(*ast.CallExpr)
			if !ok {
				return true
			}
			ident, ok := call.Fun.(*ast.Ident)
			if !ok || ident.Name != funcName {
				return true
			}
			position := fileSet.Position(call.Pos())
			if external {
				errs = append(errs, packerr.New(packerr.KindLookup, position.String(),
					"%s is not visible to external test package %s; call it from package %s",
					funcName, file.Name.Name, result.Name))
				return true
			}
			reference, err := literalArgument(call, funcName)
			if err != nil {
				errs = append(errs, packerr.Wrap(packerr.KindLookup, position.String(), err))
				return true
			}
			reference.Position = position
			result.References = append(result.References, reference)
			return true
		})
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	sort.SliceStable(result.References, func(i, j int) bool {
		a, b := result.References[i].Position, result.References[j].Position
		if a.Filename != b.Filename {
			return a.Filename < b.Filename
		}
		return a.Offset < b.Offset
	})
	return result, nil
}

// packageName returns the package clause of the first non-test file.
// A directory holding only test files takes its name from them, with
// any external test suffix removed.
func packageName(files, testFiles []*ast.File) string {
	if len(files) > 0 {
		return files[0].Name.Name
	}
	if len(testFiles) > 0 {
		return strings.TrimSuffix(testFiles[0].Name.Name, "_test")
	}
	return ""
}

func literalArgument(call *ast.CallExpr, funcName string) (Reference, error) {
	if len(call.Args) != 1 {
		return Reference{}, fmt.Errorf("%s takes exactly one argument, got %d", funcName, len(call.Args))
	}
	literal, ok := call.Args[0].(*ast.BasicLit)
	if !ok || literal.Kind != token.STRING {
		return Reference{}, fmt.Errorf("%s argument must be a string literal", funcName)
	}
	value, err := strconv.Unquote(literal.Value)
	if err != nil {
		return Reference{}, fmt.Errorf("%s argument: %w", funcName, err)
	}
	return Reference{Path: value}, nil
}

// isSourceFile reports whether a file name is a Go file the go tool
// would consider and the resolver did not write.
func isSourceFile(name string) bool {
	return strings.HasSuffix(name, ".go") &&
		!strings.HasPrefix(name, "_") && !strings.HasPrefix(name, ".") &&
		!strings.HasPrefix(name, GeneratedPrefix)
}

func isTestFile(name string) bool {
	return strings.HasSuffix(name, "_test.go")
}
