// Package numeric implements the compiler's compile-time numeric algebra:
// a checked 128-bit signed integer type used for constant folding,
// address arithmetic, and diagnostic rendering.
//
// No third-party library in the retrieval pack offers fixed-width
// 128-bit checked arithmetic (see DESIGN.md), so this package is built
// on math/big, bounding every result to the signed 128-bit range and
// reporting Overflow/DivideByZero the way a hardware ALU would.
package numeric

import "math/big"

// Status is the result of a checked arithmetic operation.
type Status int

const (
	Success Status = iota
	Overflow
	DivideByZero
)

func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case Overflow:
		return "overflow"
	case DivideByZero:
		return "divide by zero"
	default:
		return "unknown"
	}
}

const bitWidth = 128

var (
	minInt128 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), bitWidth-1))
	maxInt128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), bitWidth-1), big.NewInt(1))
	mask128   = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), bitWidth), big.NewInt(1))
)

// Int128 is an immutable 128-bit signed integer value.
type Int128 struct {
	v *big.Int
}

// Zero is the additive identity.
var Zero = FromInt64(0)

// One is the multiplicative identity.
var One = FromInt64(1)

// FromInt64 constructs an Int128 from a machine int64.
func FromInt64(v int64) Int128 {
	return Int128{v: big.NewInt(v)}
}

// FromBigInt constructs an Int128 from a big.Int, clamping has no effect:
// callers that may exceed the range should check InRange first.
func FromBigInt(v *big.Int) Int128 {
	return Int128{v: new(big.Int).Set(v)}
}

// InRange reports whether v fits in the signed 128-bit range.
func InRange(v *big.Int) bool {
	return v.Cmp(minInt128) >= 0 && v.Cmp(maxInt128) <= 0
}

func (a Int128) big() *big.Int {
	if a.v == nil {
		return big.NewInt(0)
	}
	return a.v
}

func checked(v *big.Int) (Int128, Status) {
	if !InRange(v) {
		return Int128{}, Overflow
	}
	return Int128{v: v}, Success
}

// Add returns a+b, checked.
func (a Int128) Add(b Int128) (Int128, Status) {
	return checked(new(big.Int).Add(a.big(), b.big()))
}

// Sub returns a-b, checked.
func (a Int128) Sub(b Int128) (Int128, Status) {
	return checked(new(big.Int).Sub(a.big(), b.big()))
}

// Mul returns a*b, checked.
func (a Int128) Mul(b Int128) (Int128, Status) {
	return checked(new(big.Int).Mul(a.big(), b.big()))
}

// Div returns truncated a/b (sign matches mathematical truncation toward zero).
func (a Int128) Div(b Int128) (Int128, Status) {
	if b.big().Sign() == 0 {
		return Int128{}, DivideByZero
	}
	q := new(big.Int).Quo(a.big(), b.big())
	return checked(q)
}

// Mod returns the remainder of truncated division; sign matches the dividend.
func (a Int128) Mod(b Int128) (Int128, Status) {
	if b.big().Sign() == 0 {
		return Int128{}, DivideByZero
	}
	r := new(big.Int).Rem(a.big(), b.big())
	return checked(r)
}

// normalizeShift saturates large shift counts instead of wrapping them.
func normalizeShift(n Int128) uint {
	if n.big().Sign() < 0 {
		return 0
	}
	if n.big().Cmp(big.NewInt(bitWidth)) >= 0 {
		return bitWidth
	}
	return uint(n.big().Int64())
}

// Shl is a checked left shift; Overflow is reported when bits are shifted
// out of the 128-bit magnitude.
func (a Int128) Shl(n Int128) (Int128, Status) {
	shift := normalizeShift(n)
	if shift >= bitWidth {
		if a.big().Sign() == 0 {
			return Zero, Success
		}
		return Int128{}, Overflow
	}
	shifted := new(big.Int).Lsh(a.big(), shift)
	back := new(big.Int).Rsh(shifted, shift)
	if back.Cmp(a.big()) != 0 {
		return Int128{}, Overflow
	}
	return checked(shifted)
}

// Shr is an arithmetic (sign-preserving) right shift; shifts at or beyond
// the bit width saturate to 0 or -1 depending on sign.
func (a Int128) Shr(n Int128) Int128 {
	shift := normalizeShift(n)
	if shift >= bitWidth {
		if a.big().Sign() < 0 {
			return FromInt64(-1)
		}
		return Zero
	}
	return Int128{v: new(big.Int).Rsh(a.big(), shift)}
}

// LogicalShr is an unsigned (logical) right shift over the 128-bit
// two's-complement bit pattern.
func (a Int128) LogicalShr(n Int128) Int128 {
	shift := normalizeShift(n)
	u := a.toUnsigned()
	if shift >= bitWidth {
		return Zero
	}
	shifted := new(big.Int).Rsh(u, shift)
	return Int128{v: fromUnsigned(shifted)}
}

func (a Int128) toUnsigned() *big.Int {
	v := a.big()
	if v.Sign() >= 0 {
		return new(big.Int).Set(v)
	}
	return new(big.Int).And(v, mask128)
}

func fromUnsigned(u *big.Int) *big.Int {
	v := new(big.Int).Set(u)
	if v.Cmp(maxInt128) > 0 {
		v.Sub(v, new(big.Int).Lsh(big.NewInt(1), bitWidth))
	}
	return v
}

func (a Int128) bitwise(b Int128, op func(z, x, y *big.Int) *big.Int) Int128 {
	x, y := a.toUnsigned(), b.toUnsigned()
	z := op(new(big.Int), x, y)
	z.And(z, mask128)
	return Int128{v: fromUnsigned(z)}
}

// And returns the bitwise AND of the 128-bit representations.
func (a Int128) And(b Int128) Int128 { return a.bitwise(b, (*big.Int).And) }

// Or returns the bitwise OR.
func (a Int128) Or(b Int128) Int128 { return a.bitwise(b, (*big.Int).Or) }

// Xor returns the bitwise XOR.
func (a Int128) Xor(b Int128) Int128 { return a.bitwise(b, (*big.Int).Xor) }

// Not returns the bitwise complement.
func (a Int128) Not() Int128 {
	z := new(big.Int).Not(a.toUnsigned())
	z.And(z, mask128)
	return Int128{v: fromUnsigned(z)}
}

// Neg returns -a, checked (overflows only for the minimum representable value).
func (a Int128) Neg() (Int128, Status) {
	return checked(new(big.Int).Neg(a.big()))
}

// Cmp implements a total order: -1, 0, or 1.
func (a Int128) Cmp(b Int128) int {
	return a.big().Cmp(b.big())
}

// IsZero reports whether the value is zero.
func (a Int128) IsZero() bool { return a.big().Sign() == 0 }

// Sign returns -1, 0, or 1.
func (a Int128) Sign() int { return a.big().Sign() }

// Int64 truncates to a machine int64 (used once range has been proven safe
// by the caller, e.g. array sizes and shift counts).
func (a Int128) Int64() int64 { return a.big().Int64() }

// Uint64 truncates the low 64 bits, used by encoders writing raw bytes.
func (a Int128) Uint64() uint64 {
	u := a.toUnsigned()
	low := new(big.Int).And(u, new(big.Int).SetUint64(^uint64(0)))
	return low.Uint64()
}

// FitsSigned reports whether a fits in a signed integer of bits width.
func (a Int128) FitsSigned(bits uint) bool {
	if bits >= bitWidth {
		return true
	}
	lim := new(big.Int).Lsh(big.NewInt(1), bits-1)
	lo := new(big.Int).Neg(lim)
	hi := new(big.Int).Sub(lim, big.NewInt(1))
	return a.big().Cmp(lo) >= 0 && a.big().Cmp(hi) <= 0
}

// FitsUnsigned reports whether a fits in an unsigned integer of bits width.
func (a Int128) FitsUnsigned(bits uint) bool {
	if a.big().Sign() < 0 {
		return false
	}
	if bits >= bitWidth {
		return true
	}
	hi := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), bits), big.NewInt(1))
	return a.big().Cmp(hi) <= 0
}

// String renders the value in base 10, used for diagnostics.
func (a Int128) String() string {
	return a.ToBase(10)
}

// ToBase renders the value in the given base for diagnostic messages.
func (a Int128) ToBase(base int) string {
	return a.big().Text(base)
}
