package debugfmt

import (
	"fmt"
	"io"

	"github.com/wiz-lang/wiz/internal/ast"
)

// WlaFormat writes a WLA-DX-compatible .sym file: a `[labels]` header
// followed by `BB:AAAA name` lines. SNES outputs never go
// output-relative (their bank index comes from the address's own upper
// byte instead), unlike every other target.
type WlaFormat struct{}

func (WlaFormat) Generate(ctx *Context, w io.Writer) error {
	if _, err := io.WriteString(w, "[labels]\n"); err != nil {
		return err
	}

	snes := isSnesRelated(ctx.Output.FormatName)
	for _, def := range ctx.Definitions {
		if def.Address == nil {
			continue
		}
		if def.Qualifiers.Any(ast.QualExtern) {
			continue
		}
		outputRelative := !snes && rgbdsOutputRelative(def)
		value, ok := resolveSymAddress(ctx, def, outputRelative)
		if !ok {
			continue
		}
		if !ctx.claim(value, def) {
			continue
		}

		abs, _ := def.Address.Absolute()
		var bankIndex int64
		if outputRelative && ctx.DebugBankSize > 0 {
			bankIndex = value / ctx.DebugBankSize
		} else {
			bankIndex = abs >> 16
		}

		addressString := padHex(bankIndex&0xFF, 2) + ":" + padHex(abs&0xFFFF, 4)
		if _, err := fmt.Fprintf(w, "%s %s\n", addressString, qualifiedName(def)); err != nil {
			return err
		}
	}
	return nil
}
