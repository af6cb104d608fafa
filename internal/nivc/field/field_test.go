package field

import (
	"math/big"
	"testing"
)

func TestScalarArithmetic(t *testing.T) {
	a := NewScalar(7)
	b := NewScalar(5)

	if got := a.Add(b); !got.Equal(NewScalar(12)) {
		t.Errorf("Add() = %v, want 12", got)
	}
	if got := a.Sub(b); !got.Equal(NewScalar(2)) {
		t.Errorf("Sub() = %v, want 2", got)
	}
	if got := a.Mul(b); !got.Equal(NewScalar(35)) {
		t.Errorf("Mul() = %v, want 35", got)
	}
}

func TestScalarInvert(t *testing.T) {
	a := NewScalar(9)
	inv := a.Invert()
	if got := a.Mul(inv); !got.Equal(NewScalar(1)) {
		t.Errorf("a * a.Invert() = %v, want 1", got)
	}
}

func TestScalarInvertZeroPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Invert() of zero scalar did not panic")
		}
	}()
	NewScalar(0).Invert()
}

func TestScalarBytesRoundTrip(t *testing.T) {
	a := NewScalar(123456789)
	b := ScalarFromBytes(a.Bytes())
	if !a.Equal(b) {
		t.Errorf("ScalarFromBytes(a.Bytes()) = %v, want %v", b, a)
	}
}

func TestScalarFromBigInt(t *testing.T) {
	x := big.NewInt(424242)
	s := NewScalarFromBigInt(x)
	if s.BigInt().Cmp(x) != 0 {
		t.Errorf("BigInt() = %v, want %v", s.BigInt(), x)
	}
}

func TestDualScalarArithmetic(t *testing.T) {
	a := NewDualScalar(3)
	b := NewDualScalar(4)
	if got := a.Add(b); got != NewDualScalar(7) {
		t.Errorf("Add() = %v, want 7", got)
	}
	if got := a.Mul(b); got != NewDualScalar(12) {
		t.Errorf("Mul() = %v, want 12", got)
	}
}
