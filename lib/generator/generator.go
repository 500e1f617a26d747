// Package generator writes HXEncode/HXDecode methods for component state
// structs so sealed state skips reflection-driven msgpack encoding.
//
// A struct opts in with a marker comment:
//
//	//hxview:state
//	type counterState struct {
//		Count int    `json:"count"`
//		Label string `json:"label,omitempty"`
//	}
//
// Map keys come from the hx tag, then the json tag, then the lowercased
// field name. hx:"-" (or json:"-") excludes a field.
package generator

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
)

const (
	// Marker is the comment directive that selects a state struct.
	Marker = "//hxview:state"
	// Suffix is appended to the source file's base name for output.
	Suffix = "_hx.go"
)

// Options configures the generator.
type Options struct {
	DryRun bool
	// Out receives one line per written or removed file. Defaults to
	// os.Stdout.
	Out io.Writer
}

// Generator generates state codecs.
type Generator struct {
	opts Options
	fset *token.FileSet
}

// New creates a new generator.
func New(opts Options) *Generator {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	return &Generator{
		opts: opts,
		fset: token.NewFileSet(),
	}
}

// Generate generates code for the given package patterns.
func (g *Generator) Generate(patterns ...string) error {
	packages, err := findPackages(patterns)
	if err != nil {
		return err
	}
	for _, pkg := range packages {
		if err := g.generatePackage(pkg); err != nil {
			return fmt.Errorf("package %s: %w", pkg, err)
		}
	}
	return nil
}

// Clean removes generated files for the given package patterns.
func (g *Generator) Clean(patterns ...string) error {
	packages, err := findPackages(patterns)
	if err != nil {
		return err
	}
	for _, pkg := range packages {
		if err := g.cleanPackage(pkg); err != nil {
			return fmt.Errorf("package %s: %w", pkg, err)
		}
	}
	return nil
}

// findPackages resolves package patterns to directory paths. A trailing
// /... walks the tree, skipping hidden, vendor and testdata directories.
func findPackages(patterns []string) ([]string, error) {
	var packages []string
	for _, pattern := range patterns {
		root, recursive := strings.CutSuffix(pattern, "/...")
		if !recursive {
			packages = append(packages, pattern)
			continue
		}
		if root == "" {
			root = "."
		}
		err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			base := d.Name()
			if path != root && (strings.HasPrefix(base, ".") || strings.HasPrefix(base, "_") ||
				base == "vendor" || base == "testdata") {
				return filepath.SkipDir
			}
			if hasGoFiles(path) {
				packages = append(packages, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return packages, nil
}

func hasGoFiles(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if !entry.IsDir() && isSource(entry.Name()) {
			return true
		}
	}
	return false
}

// isSource reports whether name is a non-test, non-generated Go file.
func isSource(name string) bool {
	return strings.HasSuffix(name, ".go") &&
		!strings.HasSuffix(name, "_test.go") &&
		!strings.HasSuffix(name, Suffix)
}

// generatePackage writes one output file per source file that declares at
// least one marked struct.
func (g *Generator) generatePackage(pkgPath string) error {
	pkgs, err := parser.ParseDir(g.fset, pkgPath, func(info os.FileInfo) bool {
		return isSource(info.Name())
	}, parser.ParseComments)
	if err != nil {
		return err
	}

	for pkgName, pkg := range pkgs {
		files := make([]string, 0, len(pkg.Files))
		for name := range pkg.Files {
			files = append(files, name)
		}
		sort.Strings(files)

		for _, name := range files {
			states, err := FindStates(pkg.Files[name])
			if err != nil {
				return fmt.Errorf("%s: %w", filepath.Base(name), err)
			}
			if len(states) == 0 {
				continue
			}
			if err := g.generateFile(pkgPath, pkgName, name, states); err != nil {
				return err
			}
		}
	}
	return nil
}

// cleanPackage removes generated files from a package.
func (g *Generator) cleanPackage(pkgPath string) error {
	entries, err := os.ReadDir(pkgPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), Suffix) {
			continue
		}
		path := filepath.Join(pkgPath, entry.Name())
		fmt.Fprintf(g.opts.Out, "removing %s\n", path)
		if g.opts.DryRun {
			continue
		}
		if err := os.Remove(path); err != nil {
			return err
		}
	}
	return nil
}

// StateInfo describes one marked struct.
type StateInfo struct {
	TypeName string
	Fields   []Field
}

// Field is one encoded struct field.
type Field struct {
	Name      string
	Type      string
	Key       string
	OmitEmpty bool
}

// FindStates returns the marked structs declared in file, in source order.
func FindStates(file *ast.File) ([]*StateInfo, error) {
	var states []*StateInfo

	for _, decl := range file.Decls {
		genDecl, ok := decl.(*ast.GenDecl)
		if !ok || genDecl.Tok != token.TYPE {
			continue
		}
		for _, spec := range genDecl.Specs {
			typeSpec, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			// a marker on a grouped type() block only applies to a lone spec
			marked := hasMarker(typeSpec.Doc) || (len(genDecl.Specs) == 1 && hasMarker(genDecl.Doc))
			if !marked {
				continue
			}
			if typeSpec.TypeParams != nil {
				return nil, fmt.Errorf("%s: generic state types are not supported", typeSpec.Name.Name)
			}
			structType, ok := typeSpec.Type.(*ast.StructType)
			if !ok {
				return nil, fmt.Errorf("%s: %s marks a non-struct type", typeSpec.Name.Name, Marker)
			}
			fields, err := structFields(structType)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", typeSpec.Name.Name, err)
			}
			states = append(states, &StateInfo{TypeName: typeSpec.Name.Name, Fields: fields})
		}
	}
	return states, nil
}

func hasMarker(doc *ast.CommentGroup) bool {
	if doc == nil {
		return false
	}
	for _, c := range doc.List {
		if strings.TrimSpace(c.Text) == Marker {
			return true
		}
	}
	return false
}

func structFields(st *ast.StructType) ([]Field, error) {
	var fields []Field
	seen := make(map[string]string)

	for _, field := range st.Fields.List {
		if len(field.Names) == 0 {
			return nil, fmt.Errorf("embedded field %s is not supported", typeToString(field.Type))
		}
		var tag string
		if field.Tag != nil {
			tag = strings.Trim(field.Tag.Value, "`")
		}
		typ := typeToString(field.Type)

		for _, name := range field.Names {
			if !name.IsExported() {
				continue
			}
			key, omitEmpty, exclude := parseTag(reflect.StructTag(tag), name.Name)
			if exclude {
				continue
			}
			if kindOf(typ) == kindUnsupported {
				return nil, fmt.Errorf("field %s: type %s is not supported, exclude it with hx:\"-\"", name.Name, typ)
			}
			if prev, dup := seen[key]; dup {
				return nil, fmt.Errorf("fields %s and %s share key %q", prev, name.Name, key)
			}
			seen[key] = name.Name
			fields = append(fields, Field{Name: name.Name, Type: typ, Key: key, OmitEmpty: omitEmpty})
		}
	}
	return fields, nil
}

// parseTag resolves the map key for a field from its hx or json tag.
func parseTag(tag reflect.StructTag, fieldName string) (key string, omitEmpty, exclude bool) {
	value, ok := tag.Lookup("hx")
	if !ok {
		value, ok = tag.Lookup("json")
	}
	if !ok {
		return strings.ToLower(fieldName), false, false
	}
	if value == "-" {
		return "", false, true
	}
	parts := strings.Split(value, ",")
	key = parts[0]
	if key == "" {
		key = strings.ToLower(fieldName)
	}
	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			omitEmpty = true
		}
	}
	return key, omitEmpty, false
}

// typeToString converts an AST type to a string representation.
func typeToString(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return "*" + typeToString(t.X)
	case *ast.SelectorExpr:
		return typeToString(t.X) + "." + t.Sel.Name
	case *ast.ArrayType:
		if t.Len == nil {
			return "[]" + typeToString(t.Elt)
		}
		return "[...]" + typeToString(t.Elt)
	case *ast.MapType:
		return "map[" + typeToString(t.Key) + "]" + typeToString(t.Value)
	case *ast.IndexExpr:
		return typeToString(t.X) + "[" + typeToString(t.Index) + "]"
	default:
		return fmt.Sprintf("%T", expr)
	}
}

type fieldKind int

const (
	kindUnsupported fieldKind = iota
	kindString
	kindBool
	kindInt
	kindUint
	kindFloat
	kindTime
	kindStrings
)

func kindOf(typ string) fieldKind {
	switch typ {
	case "string":
		return kindString
	case "bool":
		return kindBool
	case "int", "int8", "int16", "int32", "int64":
		return kindInt
	case "uint", "uint8", "uint16", "uint32", "uint64":
		return kindUint
	case "float32", "float64":
		return kindFloat
	case "time.Time":
		return kindTime
	case "[]string":
		return kindStrings
	default:
		return kindUnsupported
	}
}
