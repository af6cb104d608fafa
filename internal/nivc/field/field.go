// Package field is the adapter boundary (component A) between the rest of
// the engine and the concrete cryptography: the primary scalar field F used
// by the execution/MCC step circuits, the dual field F' of the companion
// curve in the folding cycle, algebraic hashing, and the Folding capability
// itself (see folding.go).
package field

import (
	"math/big"

	bn254fr "github.com/consensys/gnark-crypto/ecc/bn254/fr"
	bw6761fr "github.com/consensys/gnark-crypto/ecc/bw6-761/fr"
	goldilocks "github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

// Scalar is an element of the primary curve's scalar field F (BN254).
// All public-instance scalars and step transcript digests live in F.
type Scalar struct {
	v bn254fr.Element
}

// DualScalar is an element of the dual field F' (BW6-761), the companion
// curve of the BN254 cycle. No circuit in this engine is built over it: all
// step circuits and proofs are over BN254.
type DualScalar struct {
	v bw6761fr.Element
}

// NewScalar builds a primary-field scalar from a uint64.
func NewScalar(x uint64) Scalar {
	var s Scalar
	s.v.SetUint64(x)
	return s
}

// NewScalarFromBigInt reduces an arbitrary big.Int into F.
func NewScalarFromBigInt(x *big.Int) Scalar {
	var s Scalar
	s.v.SetBigInt(x)
	return s
}

// ScalarFromGoldilocks lifts a Goldilocks-field element (the field of
// hash.go's Digest) into the primary circuit field F. Safe because
// Goldilocks' modulus is far smaller than F's.
func ScalarFromGoldilocks(g goldilocks.Element) Scalar {
	return NewScalar(g.Value())
}

func (s Scalar) Add(o Scalar) Scalar {
	var r Scalar
	r.v.Add(&s.v, &o.v)
	return r
}

func (s Scalar) Sub(o Scalar) Scalar {
	var r Scalar
	r.v.Sub(&s.v, &o.v)
	return r
}

func (s Scalar) Mul(o Scalar) Scalar {
	var r Scalar
	r.v.Mul(&s.v, &o.v)
	return r
}

// Invert returns the multiplicative inverse of s. Panics on zero, matching
// the field-axiom violation it represents; callers in this engine never
// invert a witnessed zero outside of a constrained circuit gadget.
func (s Scalar) Invert() Scalar {
	var r Scalar
	if s.v.IsZero() {
		panic("field: invert of zero scalar")
	}
	r.v.Inverse(&s.v)
	return r
}

func (s Scalar) Equal(o Scalar) bool {
	return s.v.Equal(&o.v)
}

func (s Scalar) IsZero() bool {
	return s.v.IsZero()
}

// Bytes returns the canonical little-endian fixed-width encoding used by
// the persisted public-instance / proof wire format (spec §6).
func (s Scalar) Bytes() []byte {
	b := s.v.Bytes()
	reversed := make([]byte, len(b))
	for i, c := range b {
		reversed[len(b)-1-i] = c
	}
	return reversed
}

// ScalarFromBytes decodes a little-endian fixed-width scalar as written by Bytes.
func ScalarFromBytes(b []byte) Scalar {
	reversed := make([]byte, len(b))
	for i, c := range b {
		reversed[len(b)-1-i] = c
	}
	var s Scalar
	s.v.SetBytes(reversed)
	return s
}

func (s Scalar) BigInt() *big.Int {
	var out big.Int
	s.v.BigInt(&out)
	return &out
}

func (s Scalar) String() string {
	return s.v.String()
}

func (d DualScalar) Add(o DualScalar) DualScalar {
	var r DualScalar
	r.v.Add(&d.v, &o.v)
	return r
}

func (d DualScalar) Mul(o DualScalar) DualScalar {
	var r DualScalar
	r.v.Mul(&d.v, &o.v)
	return r
}

func NewDualScalar(x uint64) DualScalar {
	var d DualScalar
	d.v.SetUint64(x)
	return d
}
