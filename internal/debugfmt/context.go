// Package debugfmt implements the symbol-file formatters: MLB (Mesen),
// RGBDS .sym, and WLA .sym. Each walks the finalized definitions list
// and writes one line per addressable label to an io.Writer the caller
// has already opened.
package debugfmt

import (
	"io"

	"github.com/wiz-lang/wiz/internal/format"
	"github.com/wiz-lang/wiz/internal/symtab"
)

// Context is the state a debug Formatter needs: the finished output
// layout (so a label's address can be translated to an output-relative
// file offset) and the full set of named, addressable definitions.
type Context struct {
	Output      *format.OutputFormatContext
	Definitions []*symtab.Definition

	// DebugBankSize is the divisor WLA's bank-index column uses for a
	// non-SNES output-relative address; 0 disables the bank-index
	// split (used by formats with no banked address space).
	DebugBankSize int64

	// FileHeaderPrefixSize is the number of leading header bytes an
	// output-relative address must have subtracted before it reads as
	// a load address (16 for iNES, 0 for a headerless image).
	FileHeaderPrefixSize int64

	addressOwnership map[int64]*symtab.Definition
}

// NewContext builds a Context over a finished OutputFormatContext.
func NewContext(output *format.OutputFormatContext, defs []*symtab.Definition, debugBankSize, fileHeaderPrefixSize int64) *Context {
	return &Context{
		Output: output, Definitions: defs,
		DebugBankSize: debugBankSize, FileHeaderPrefixSize: fileHeaderPrefixSize,
		addressOwnership: make(map[int64]*symtab.Definition),
	}
}

// claim records that value is now owned by def, returning false if
// some earlier definition already claimed it (used to de-duplicate
// entries at the same address, matching the RGBDS/WLA formatters'
// "first definition wins" rule).
func (c *Context) claim(value int64, def *symtab.Definition) bool {
	if _, taken := c.addressOwnership[value]; taken {
		return false
	}
	c.addressOwnership[value] = def
	return true
}

// Formatter is one symbol-file format.
type Formatter interface {
	Generate(ctx *Context, w io.Writer) error
}

func isSnesRelated(formatName string) bool {
	return formatName == "sfc" || formatName == "smc"
}
