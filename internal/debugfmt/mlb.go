package debugfmt

import (
	"fmt"
	"io"

	"github.com/wiz-lang/wiz/internal/ast"
	"github.com/wiz-lang/wiz/internal/symtab"
)

// MlbFormat writes Mesen's .mlb label file: one `T:hex:name` line per
// type character of each addressable definition, T identifying program
// code/const data (P), low RAM (R), save RAM (S and W, so two lines), or
// skipped hardware/extern (G).
type MlbFormat struct{}

// labelTypes returns the Mesen type-character string for def, or "" if
// def has no address or its address doesn't fall into a categorized
// region.
func labelTypes(def *symtab.Definition) string {
	switch def.Kind {
	case symtab.KindFunc:
		return "P"
	case symtab.KindVar:
		if def.Address == nil {
			return ""
		}
		abs, ok := def.Address.Absolute()
		if !ok {
			return ""
		}
		switch {
		case abs < 0x800:
			return "R"
		case abs >= 0x6000 && abs < 0x8000:
			return "SW"
		case def.Qualifiers.Any(ast.QualExtern):
			return "G"
		case def.Qualifiers.Any(ast.QualConst):
			return "P"
		}
	}
	return ""
}

// isOutputRelative mirrors labelTypes' classification: program labels
// (func, or const var past low RAM/save RAM) are written relative to
// the finished output file; everything else uses the raw absolute
// address.
func isOutputRelative(def *symtab.Definition) bool {
	switch def.Kind {
	case symtab.KindFunc:
		return true
	case symtab.KindVar:
		if def.Address == nil {
			return false
		}
		abs, ok := def.Address.Absolute()
		if !ok {
			return false
		}
		if abs < 0x800 || (abs >= 0x6000 && abs < 0x8000) {
			return false
		}
		if def.Qualifiers.Any(ast.QualExtern) {
			return false
		}
		return def.Qualifiers.Any(ast.QualConst)
	}
	return false
}

func (MlbFormat) Generate(ctx *Context, w io.Writer) error {
	for _, def := range ctx.Definitions {
		if def.Address == nil {
			continue
		}
		types := labelTypes(def)
		if types == "" || types == "G" {
			continue
		}
		abs, ok := def.Address.Absolute()
		if !ok {
			continue
		}
		var value int64
		if isOutputRelative(def) {
			offset, ok := ctx.Output.GetOutputOffset(*def.Address)
			if !ok {
				continue
			}
			value = offset - ctx.FileHeaderPrefixSize
		} else {
			value = abs
		}

		name := qualifiedName(def)
		for _, t := range types {
			if _, err := fmt.Fprintf(w, "%c:%s:%s\n", t, toHex(value), name); err != nil {
				return err
			}
		}
	}
	return nil
}
