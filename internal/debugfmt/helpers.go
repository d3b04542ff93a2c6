package debugfmt

import (
	"fmt"
	"strings"

	"github.com/wiz-lang/wiz/internal/symtab"
)

// qualifiedName renders def's dotted path with the characters that
// would otherwise collide with a debug format's own field separators
// replaced out.
func qualifiedName(def *symtab.Definition) string {
	name := def.QualifiedName()
	name = strings.ReplaceAll(name, "$", "__")
	name = strings.ReplaceAll(name, "%", "__")
	return name
}

func toHex(v int64) string { return fmt.Sprintf("%X", v) }

func padHex(v int64, width int) string {
	s := toHex(v)
	for len(s) < width {
		s = "0" + s
	}
	return s
}
