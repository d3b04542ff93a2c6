package debugfmt

import (
	"fmt"
	"io"

	"github.com/wiz-lang/wiz/internal/ast"
	"github.com/wiz-lang/wiz/internal/symtab"
)

// RgbdsFormat writes an RGBDS-compatible .sym file: one `BB:OOOO name`
// line per addressable, non-extern definition, de-duplicated by the
// resolved address.
type RgbdsFormat struct{}

func rgbdsOutputRelative(def *symtab.Definition) bool {
	switch def.Kind {
	case symtab.KindFunc:
		return true
	case symtab.KindVar:
		return def.Qualifiers.Any(ast.QualConst)
	}
	return false
}

func (RgbdsFormat) Generate(ctx *Context, w io.Writer) error {
	for _, def := range ctx.Definitions {
		if def.Address == nil {
			continue
		}
		if def.Qualifiers.Any(ast.QualExtern) {
			continue
		}
		value, ok := resolveSymAddress(ctx, def, rgbdsOutputRelative(def))
		if !ok {
			continue
		}
		if !ctx.claim(value, def) {
			continue
		}

		addressString := padHex(value, 6)
		addressString = addressString[:2] + ":" + addressString[2:]
		if _, err := fmt.Fprintf(w, "%s %s\n", addressString, qualifiedName(def)); err != nil {
			return err
		}
	}
	return nil
}

// resolveSymAddress is the shared address computation RGBDS and WLA
// both build their symbol line around: an output-relative offset minus
// the file header, or else the raw absolute address.
func resolveSymAddress(ctx *Context, def *symtab.Definition, outputRelative bool) (int64, bool) {
	if outputRelative {
		offset, ok := ctx.Output.GetOutputOffset(*def.Address)
		if !ok {
			return 0, false
		}
		value := offset - ctx.FileHeaderPrefixSize
		if value < 0 {
			value = 0
		}
		return value, true
	}
	return def.Address.Absolute()
}
