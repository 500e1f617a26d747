package generator

import (
	"bytes"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

// generateFile writes the *_hx.go file for the states found in source.
func (g *Generator) generateFile(pkgPath, pkgName, source string, states []*StateInfo) error {
	baseName := strings.TrimSuffix(filepath.Base(source), ".go")
	outputFile := filepath.Join(pkgPath, baseName+Suffix)

	fmt.Fprintf(g.opts.Out, "generating %s\n", outputFile)
	if g.opts.DryRun {
		return nil
	}

	code, err := Render(pkgName, filepath.Base(source), states)
	if err != nil {
		return err
	}
	return os.WriteFile(outputFile, code, 0o644)
}

// Render returns the formatted source of a generated file.
func Render(pkgName, source string, states []*StateInfo) ([]byte, error) {
	data := struct {
		Package   string
		Source    string
		States    []*StateInfo
		NeedsTime bool
	}{
		Package: pkgName,
		Source:  source,
		States:  states,
	}
	for _, s := range states {
		for _, f := range s.Fields {
			if kindOf(f.Type) == kindTime {
				data.NeedsTime = true
			}
		}
	}

	var buf bytes.Buffer
	if err := hxTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}
	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format source: %w", err)
	}
	return formatted, nil
}

// encodeField generates the statement that stores one field in m.
func encodeField(f Field) string {
	value := "s." + f.Name
	if kindOf(f.Type) == kindTime {
		value = "s." + f.Name + ".Format(time.RFC3339Nano)"
	}
	store := fmt.Sprintf("m[%q] = %s", f.Key, value)
	if !f.OmitEmpty {
		return store
	}

	var cond string
	switch kindOf(f.Type) {
	case kindString:
		cond = fmt.Sprintf(`s.%s != ""`, f.Name)
	case kindBool:
		cond = "s." + f.Name
	case kindInt, kindUint, kindFloat:
		cond = fmt.Sprintf("s.%s != 0", f.Name)
	case kindTime:
		cond = fmt.Sprintf("!s.%s.IsZero()", f.Name)
	case kindStrings:
		cond = fmt.Sprintf("len(s.%s) > 0", f.Name)
	default:
		return store
	}
	return fmt.Sprintf("if %s {\n%s\n}", cond, store)
}

// decodeField generates the statement that reads one field back from m.
func decodeField(f Field) string {
	switch kindOf(f.Type) {
	case kindString, kindBool:
		return fmt.Sprintf("if v, ok := m[%q].(%s); ok {\ns.%s = v\n}", f.Key, f.Type, f.Name)
	case kindInt:
		return fmt.Sprintf("if v, ok := m[%q]; ok {\ns.%s = %s(encoding.Int64(v))\n}", f.Key, f.Name, f.Type)
	case kindUint:
		return fmt.Sprintf("if v, ok := m[%q]; ok {\ns.%s = %s(encoding.Uint64(v))\n}", f.Key, f.Name, f.Type)
	case kindFloat:
		return fmt.Sprintf("if v, ok := m[%q]; ok {\ns.%s = %s(encoding.Float64(v))\n}", f.Key, f.Name, f.Type)
	case kindTime:
		return fmt.Sprintf("if v, ok := m[%q]; ok {\ns.%s = encoding.Time(v)\n}", f.Key, f.Name)
	case kindStrings:
		return fmt.Sprintf("if v, ok := m[%q]; ok {\ns.%s = encoding.Strings(v)\n}", f.Key, f.Name)
	default:
		return ""
	}
}

var hxTemplate = template.Must(template.New("hx").Funcs(template.FuncMap{
	"encodeField": encodeField,
	"decodeField": decodeField,
}).Parse(`// Code generated by hxview generate. DO NOT EDIT.
// Source: {{.Source}}

package {{.Package}}

import (
{{- if .NeedsTime}}
	"time"
{{end}}
	"github.com/pthm/hxview/lib/encoding"
)
{{range .States}}
var (
	_ encoding.Encodable = {{.TypeName}}{}
	_ encoding.Decodable = (*{{.TypeName}})(nil)
)

// HXEncode implements encoding.Encodable.
func (s {{.TypeName}}) HXEncode() map[string]any {
	m := make(map[string]any, {{len .Fields}})
{{- range .Fields}}
	{{encodeField .}}
{{- end}}
	return m
}

// HXDecode implements encoding.Decodable.
func (s *{{.TypeName}}) HXDecode(m map[string]any) error {
{{- range .Fields}}
	{{decodeField .}}
{{- end}}
	return nil
}
{{end}}`))
