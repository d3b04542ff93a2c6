package bank

import (
	"fmt"

	"github.com/wiz-lang/wiz/internal/ast"
	"github.com/wiz-lang/wiz/internal/diag"
)

// describeNode renders a human-readable name for an ownership-key node
// in diagnostics. Nodes are typically *symtab.Definition (which carries
// DefName) or any ast.DefHandle; anything else falls back to %v.
func describeNode(node any) string {
	if h, ok := node.(ast.DefHandle); ok {
		return h.DefName()
	}
	return fmt.Sprintf("%v", node)
}

// ReserveRam reserves size bytes for node, requiring a writable bank
// (requires a writable kind; else an error naming the readonly bank).
// A nil return means success.
func (b *Bank) ReserveRam(description string, node any, loc ast.Location, size int64) *diag.Diagnostic {
	if !b.Kind.IsWritable() {
		return &diag.Diagnostic{Severity: diag.SeverityFatal, Loc: loc,
			Message: fmt.Sprintf("cannot reserve RAM for '%s' in readonly bank '%s'", description, b.Name)}
	}
	return b.reserve(description, node, loc, size)
}

// ReserveRom reserves size bytes for node, requiring a stored bank
// (requires a stored kind; else an error naming the volatile bank).
func (b *Bank) ReserveRom(description string, node any, loc ast.Location, size int64) *diag.Diagnostic {
	if !b.Kind.IsStored() {
		return &diag.Diagnostic{Severity: diag.SeverityFatal, Loc: loc,
			Message: fmt.Sprintf("cannot reserve ROM for '%s' in volatile bank '%s'", description, b.Name)}
	}
	return b.reserve(description, node, loc, size)
}

func (b *Bank) reserve(description string, node any, loc ast.Location, size int64) *diag.Diagnostic {
	rp := b.relativePosition
	if rp+size > b.Capacity {
		return &diag.Diagnostic{Severity: diag.SeverityFatal, Loc: loc,
			Message: fmt.Sprintf("'%s' exceeds the capacity of bank '%s' (%s, need %d more bytes, %d available)",
				description, b.Name, (Address{Relative: rp, Bank: b}).Describe(), size, b.Capacity-rp)}
	}
	ownerID, _ := b.ownerIDFor(node, true)
	for i := rp; i < rp+size; i++ {
		existing := b.owners[i]
		if existing != 0 && existing != ownerID {
			prevNode := b.ownerNodes[existing-1]
			d := diag.Diagnostic{Severity: diag.SeverityError, Loc: loc,
				Message: fmt.Sprintf("overlap conflict: '%s' at %s in bank '%s'",
					description, (Address{Relative: i, Bank: b}).Describe(), b.Name)}
			d = d.Note(loc, "previously reserved here by '%s'", describeNode(prevNode))
			return &d
		}
		b.owners[i] = ownerID
	}
	b.relativePosition = rp + size
	return nil
}

// Write copies values into the bank at the current cursor, requiring
// that node previously reserved every byte being written.
func (b *Bank) Write(description string, node any, loc ast.Location, values []byte) *diag.Diagnostic {
	rp := b.relativePosition
	if rp+int64(len(values)) > b.Capacity {
		return &diag.Diagnostic{Severity: diag.SeverityFatal, Loc: loc,
			Message: fmt.Sprintf("write of '%s' exceeds the capacity of bank '%s'", description, b.Name)}
	}
	ownerID, known := b.ownerIDFor(node, false)
	if !known {
		return &diag.Diagnostic{Severity: diag.SeverityInternal, Loc: loc,
			Message: fmt.Sprintf("internal error: '%s' was never reserved in bank '%s'", description, b.Name)}
	}
	for i := int64(0); i < int64(len(values)); i++ {
		off := rp + i
		if b.owners[off] != ownerID {
			var prevDesc string
			if prevID := b.owners[off]; prevID != 0 {
				prevDesc = describeNode(b.ownerNodes[prevID-1])
			} else {
				prevDesc = "<nothing>"
			}
			return &diag.Diagnostic{Severity: diag.SeverityInternal, Loc: loc,
				Message: fmt.Sprintf("write conflict: byte at %s in bank '%s' is owned by '%s', not '%s'",
					(Address{Relative: off, Bank: b}).Describe(), b.Name, prevDesc, description)}
		}
	}
	if b.data != nil {
		copy(b.data[rp:rp+int64(len(values))], values)
	}
	b.relativePosition = rp + int64(len(values))
	return nil
}

// AbsoluteSeek moves the write cursor to an absolute address. If the
// bank has no origin yet, the first seek adopts dest as the origin.
func (b *Bank) AbsoluteSeek(dest int64, loc ast.Location) *diag.Diagnostic {
	if !b.hasOrigin {
		b.hasOrigin = true
		b.origin = dest
		b.relativePosition = 0
		return nil
	}
	if dest < b.origin || dest >= b.origin+b.Capacity {
		return &diag.Diagnostic{Severity: diag.SeverityFatal, Loc: loc,
			Message: fmt.Sprintf("seek to 0x%X is out of range for bank '%s' (0x%X..0x%X)", dest, b.Name, b.origin, b.origin+b.Capacity)}
	}
	b.relativePosition = dest - b.origin
	return nil
}
