package symtab

import "fmt"

// NameGenerator produces fresh "%<hex>%" names for anonymous scopes.
// The counter is a field of the compiler instance rather than process-
// global state, so callers hold one instance per compilation
// (internal/compiler embeds one in its Compiler type).
type NameGenerator struct {
	next int
}

// Next returns the next "%<hex>%" name in sequence.
func (g *NameGenerator) Next() string {
	name := fmt.Sprintf("%%%x%%", g.next)
	g.next++
	return name
}
