package numeric

import (
	"math/big"
	"testing"
)

func TestAdd_NoOverflow(t *testing.T) {
	a, b := FromInt64(100), FromInt64(27)
	r, status := a.Add(b)
	if status != Success {
		t.Fatalf("status = %v, want Success", status)
	}
	if r.Cmp(FromInt64(127)) != 0 {
		t.Fatalf("100+27 = %v, want 127", r)
	}
}

func TestAdd_OverflowAtMax(t *testing.T) {
	_, status := FromBigInt(maxInt128).Add(One)
	if status != Overflow {
		t.Fatalf("status = %v, want Overflow", status)
	}
}

func TestSub_OverflowAtMin(t *testing.T) {
	_, status := FromBigInt(minInt128).Sub(One)
	if status != Overflow {
		t.Fatalf("status = %v, want Overflow", status)
	}
}

func TestMul_Overflow(t *testing.T) {
	big64 := new(big.Int).Lsh(big.NewInt(1), 70)
	a := FromBigInt(big64)
	_, status := a.Mul(a)
	if status != Overflow {
		t.Fatalf("status = %v, want Overflow", status)
	}
}

func TestDiv_ByZero(t *testing.T) {
	_, status := FromInt64(10).Div(Zero)
	if status != DivideByZero {
		t.Fatalf("status = %v, want DivideByZero", status)
	}
}

func TestDiv_TruncatesTowardZero(t *testing.T) {
	r, status := FromInt64(-7).Div(FromInt64(2))
	if status != Success {
		t.Fatalf("status = %v, want Success", status)
	}
	if r.Cmp(FromInt64(-3)) != 0 {
		t.Fatalf("-7/2 = %v, want -3", r)
	}
}

func TestShlThenShr_RoundTrips(t *testing.T) {
	a := FromInt64(5)
	n := FromInt64(10)
	shifted, status := a.Shl(n)
	if status != Success {
		t.Fatalf("shl status = %v", status)
	}
	back := shifted.Shr(n)
	if back.Cmp(a) != 0 {
		t.Fatalf("(a shl n) shr n = %v, want %v", back, a)
	}
}

func TestShl_SaturatesOnLargeCount(t *testing.T) {
	_, status := FromInt64(1).Shl(FromInt64(200))
	if status != Overflow {
		t.Fatalf("status = %v, want Overflow", status)
	}
	r, status := Zero.Shl(FromInt64(200))
	if status != Success || !r.IsZero() {
		t.Fatalf("0 shl huge = %v/%v, want 0/Success", r, status)
	}
}

func TestShr_NegativeSaturatesToMinusOne(t *testing.T) {
	r := FromInt64(-5).Shr(FromInt64(200))
	if r.Cmp(FromInt64(-1)) != 0 {
		t.Fatalf("-5 shr huge = %v, want -1", r)
	}
}

func TestLogicalShr_IsUnsigned(t *testing.T) {
	r := FromInt64(-1).LogicalShr(FromInt64(124))
	if r.Cmp(FromInt64(15)) != 0 {
		t.Fatalf("-1 (all ones) logical-shr 124 = %v, want 15", r)
	}
}

func TestBitwiseNot_Involution(t *testing.T) {
	a := FromInt64(0x1234)
	if a.Not().Not().Cmp(a) != 0 {
		t.Fatalf("not(not(a)) != a")
	}
}

func TestFitsSigned(t *testing.T) {
	if !FromInt64(127).FitsSigned(8) {
		t.Fatalf("127 should fit in int8")
	}
	if FromInt64(128).FitsSigned(8) {
		t.Fatalf("128 should not fit in int8")
	}
	if !FromInt64(-128).FitsSigned(8) {
		t.Fatalf("-128 should fit in int8")
	}
}

func TestApplyArithmetic_DivideByZeroReported(t *testing.T) {
	_, status := ApplyArithmetic(OpDiv, FromInt64(1), Zero)
	if status != DivideByZero {
		t.Fatalf("status = %v, want DivideByZero", status)
	}
}

func TestApplyCompare_Ordering(t *testing.T) {
	if !ApplyCompare(OpLt, FromInt64(1), FromInt64(2)) {
		t.Fatalf("1 < 2 should be true")
	}
	if ApplyCompare(OpGe, FromInt64(1), FromInt64(2)) {
		t.Fatalf("1 >= 2 should be false")
	}
}
