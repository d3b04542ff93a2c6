// Package bank implements the placement and emission layer: named
// address regions with per-byte ownership bookkeeping.
package bank

import (
	"fmt"

	"github.com/wiz-lang/wiz/internal/ast"
)

// Kind mirrors ast.BankKind; duplicated here (rather than importing
// internal/ast's BankKind directly into the hot reserve/write path) so
// bank stays usable by a hypothetical second front end that doesn't
// share internal/ast's exact enum — conversion is a single switch at
// the compiler's pass-3 entry point (internal/compiler).
type Kind int

const (
	KindNone Kind = iota
	KindUninitializedRam
	KindInitializedRam
	KindProgramRom
	KindDataRom
	KindCharacterRom
)

// FromASTKind converts the AST-level bank kind tag.
func FromASTKind(k ast.BankKind) Kind {
	switch k {
	case ast.BankKindUninitializedRam:
		return KindUninitializedRam
	case ast.BankKindInitializedRam:
		return KindInitializedRam
	case ast.BankKindProgramRom:
		return KindProgramRom
	case ast.BankKindDataRom:
		return KindDataRom
	case ast.BankKindCharacterRom:
		return KindCharacterRom
	default:
		return KindNone
	}
}

// IsStored reports whether this kind carries a byte buffer.
func (k Kind) IsStored() bool {
	switch k {
	case KindProgramRom, KindDataRom, KindCharacterRom, KindInitializedRam:
		return true
	default:
		return false
	}
}

// IsWritable reports whether reserveRam (and, for all stored kinds,
// writes) are accepted.
func (k Kind) IsWritable() bool {
	switch k {
	case KindUninitializedRam, KindInitializedRam:
		return true
	default:
		return false
	}
}

func (k Kind) String() string {
	switch k {
	case KindUninitializedRam:
		return "uninitialized RAM"
	case KindInitializedRam:
		return "initialized RAM"
	case KindProgramRom:
		return "program ROM"
	case KindDataRom:
		return "data ROM"
	case KindCharacterRom:
		return "character ROM"
	default:
		return "none"
	}
}

// Address is an optional (relative, absolute, owning bank) triple.
// Absolute is valid only when the owning bank has a fixed origin.
type Address struct {
	Relative int64
	Bank     *Bank
}

// Absolute returns (absoluteAddress, true) when the owning bank has a
// fixed origin, else (0, false).
func (a Address) Absolute() (int64, bool) {
	if a.Bank == nil || !a.Bank.hasOrigin {
		return 0, false
	}
	return a.Bank.origin + a.Relative, true
}

// Describe renders the human-readable address form used in every bank
// diagnostic: "absolute address 0xHHHH" when the bank has a fixed
// origin, else "relative position N".
func (a Address) Describe() string {
	if abs, ok := a.Absolute(); ok {
		return fmt.Sprintf("absolute address 0x%X", abs)
	}
	return fmt.Sprintf("relative position %d", a.Relative)
}

// Bank is a named address region with ownership bookkeeping.
type Bank struct {
	Name     string
	Kind     Kind
	Capacity int64
	PadValue byte

	hasOrigin bool
	origin    int64

	relativePosition int64

	// data is nil for non-stored kinds.
	data []byte

	// owners[offset] is 0 (free) or a 1-based index into ownerNodes.
	owners     []int
	ownerNodes []any
	ownerIDs   map[any]int
}

// New constructs a Bank with the given capacity, ready to use.
func New(name string, kind Kind, capacity int64, padValue byte) *Bank {
	b := &Bank{
		Name:     name,
		Kind:     kind,
		Capacity: capacity,
		PadValue: padValue,
		owners:   make([]int, capacity),
		ownerIDs: make(map[any]int),
	}
	if kind.IsStored() {
		b.data = make([]byte, capacity)
		for i := range b.data {
			b.data[i] = padValue
		}
	}
	return b
}

// SetOrigin fixes the bank's origin directly (used when a `bank` decl
// supplies an explicit origin rather than deriving it from the first
// seek).
func (b *Bank) SetOrigin(origin int64) {
	b.hasOrigin = true
	b.origin = origin
}

// HasOrigin reports whether the bank's origin is fixed yet.
func (b *Bank) HasOrigin() bool { return b.hasOrigin }

// Origin returns the fixed origin, or 0 if none.
func (b *Bank) Origin() int64 { return b.origin }

// RelativePosition returns the current write cursor.
func (b *Bank) RelativePosition() int64 { return b.relativePosition }

// CurrentAddress returns the Address at the current cursor.
func (b *Bank) CurrentAddress() Address { return Address{Relative: b.relativePosition, Bank: b} }

// Data returns the raw backing buffer (nil for non-stored kinds). The
// slice is owned by the Bank; callers must not retain mutable aliases
// past bank teardown.
func (b *Bank) Data() []byte { return b.data }

func (b *Bank) ownerIDFor(node any, create bool) (int, bool) {
	if id, ok := b.ownerIDs[node]; ok {
		return id, true
	}
	if !create {
		return 0, false
	}
	b.ownerNodes = append(b.ownerNodes, node)
	id := len(b.ownerNodes)
	b.ownerIDs[node] = id
	return id, true
}

// OwnerOf returns the node that owns the byte at offset, or nil if free.
func (b *Bank) OwnerOf(offset int64) any {
	if offset < 0 || offset >= int64(len(b.owners)) {
		return nil
	}
	id := b.owners[offset]
	if id == 0 {
		return nil
	}
	return b.ownerNodes[id-1]
}

// CalculateUsedSize returns the highest ownership-tagged offset + 1, or
// 0 if no byte has ever been reserved.
func (b *Bank) CalculateUsedSize() int64 {
	for i := len(b.owners) - 1; i >= 0; i-- {
		if b.owners[i] != 0 {
			return int64(i) + 1
		}
	}
	return 0
}

// Rewind resets the write cursor to 0 without clearing ownership.
func (b *Bank) Rewind() { b.relativePosition = 0 }

// SeekRelative moves the write cursor to an already-reserved relative
// offset without touching ownership, used by the compiler driver to
// write an initializer immediately after reserving its range.
func (b *Bank) SeekRelative(pos int64) { b.relativePosition = pos }
