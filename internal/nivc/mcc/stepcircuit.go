package mcc

import (
	"github.com/consensys/gnark/frontend"

	"github.com/zkwasm/nivc-engine/internal/nivc/field"
)

// StepCircuit proves one SMcc-sized chunk's permutation argument: that the
// address-sorted view and the program-order view of the same multiset of
// memory operations have equal grand products under a folded challenge, the
// in-circuit counterpart of mcc.go's CheckContiguity/GrandProduct pair
// (spec §4.D, grounded on cross_table_arguments.go's permutation check).
type StepCircuit struct {
	Challenge        frontend.Variable `gnark:",public"`
	ProductIn        frontend.Variable `gnark:",public"`
	ProductOut       frontend.Variable `gnark:",public"`
	SortedProductOut frontend.Variable `gnark:",public"`

	Address     []frontend.Variable
	ValueBefore []frontend.Variable
	ValueAfter  []frontend.Variable

	SortedAddress     []frontend.Variable
	SortedValueBefore []frontend.Variable
	SortedValueAfter  []frontend.Variable

	sMcc      int
	publicOut []field.Scalar
}

// New builds an empty MCC step circuit shaped for sMcc rows.
func New(sMcc int) *StepCircuit {
	c := &StepCircuit{sMcc: sMcc}
	c.Address = make([]frontend.Variable, sMcc)
	c.ValueBefore = make([]frontend.Variable, sMcc)
	c.ValueAfter = make([]frontend.Variable, sMcc)
	c.SortedAddress = make([]frontend.Variable, sMcc)
	c.SortedValueBefore = make([]frontend.Variable, sMcc)
	c.SortedValueAfter = make([]frontend.Variable, sMcc)
	return c
}

// Define implements frontend.Circuit: it folds the running grand product
// over both views and asserts they converge to the same output value,
// which is the permutation argument's soundness statement. Contiguity
// (read-after-write consistency within the sorted view) is asserted row by
// row exactly as the teacher's Bezout-coefficient columns encode it, here
// reduced to a direct equality since this engine chunks addresses into
// disjoint per-fold windows rather than a single global AIR column.
func (c *StepCircuit) Define(api frontend.API) error {
	product := c.ProductIn
	sortedProduct := c.ProductIn

	for i := 0; i < c.sMcc; i++ {
		term := api.Add(c.Address[i],
			api.Mul(c.ValueBefore[i], c.Challenge),
			api.Mul(c.ValueAfter[i], api.Mul(c.Challenge, c.Challenge)))
		product = api.Mul(product, term)

		sortedTerm := api.Add(c.SortedAddress[i],
			api.Mul(c.SortedValueBefore[i], c.Challenge),
			api.Mul(c.SortedValueAfter[i], api.Mul(c.Challenge, c.Challenge)))
		sortedProduct = api.Mul(sortedProduct, sortedTerm)

		if i > 0 {
			// The grand product is invariant to the order/grouping of its
			// terms, so without this the RAW check below could be satisfied
			// by any permutation of SortedAddress, not just a truly sorted
			// one. Asserting non-decreasing order makes adjacency meaningful.
			api.AssertIsLessOrEqual(c.SortedAddress[i-1], c.SortedAddress[i])

			sameAddr := api.IsZero(api.Sub(c.SortedAddress[i], c.SortedAddress[i-1]))
			diff := api.Sub(c.SortedValueBefore[i], c.SortedValueAfter[i-1])
			api.AssertIsEqual(api.Mul(sameAddr, diff), 0)
		}
	}

	api.AssertIsEqual(c.ProductOut, product)
	api.AssertIsEqual(c.SortedProductOut, sortedProduct)
	api.AssertIsEqual(c.ProductOut, c.SortedProductOut)
	return nil
}

// NewAssigned builds a fully populated MCC step circuit from one program
// order chunk and its address-sorted view, folding productIn forward.
func NewAssigned(sMcc int, chunk []Row, sorted SortedView, challenge, productIn field.Scalar) *StepCircuit {
	c := New(sMcc)
	c.Challenge = challenge.BigInt()
	c.ProductIn = productIn.BigInt()

	product := productIn
	sortedProduct := productIn
	ch2 := challenge.Mul(challenge)

	for i := 0; i < sMcc; i++ {
		var r Row
		if i < len(chunk) {
			r = chunk[i]
		}
		c.Address[i] = r.Address
		c.ValueBefore[i] = r.ValueBefore
		c.ValueAfter[i] = r.ValueAfter
		term := field.NewScalar(r.Address).Add(field.NewScalar(r.ValueBefore).Mul(challenge)).Add(field.NewScalar(r.ValueAfter).Mul(ch2))
		product = product.Mul(term)

		var sr Row
		if i < len(sorted.Rows) {
			sr = sorted.Rows[i]
		}
		c.SortedAddress[i] = sr.Address
		c.SortedValueBefore[i] = sr.ValueBefore
		c.SortedValueAfter[i] = sr.ValueAfter
		sortedTerm := field.NewScalar(sr.Address).Add(field.NewScalar(sr.ValueBefore).Mul(challenge)).Add(field.NewScalar(sr.ValueAfter).Mul(ch2))
		sortedProduct = sortedProduct.Mul(sortedTerm)
	}

	c.ProductOut = product.BigInt()
	c.SortedProductOut = sortedProduct.BigInt()
	c.publicOut = []field.Scalar{challenge, productIn, product, sortedProduct}
	return c
}

// Assign implements field.StepCircuit's accessor contract.
func (c *StepCircuit) Assign() frontend.Circuit { return c }

// PublicWires implements field.StepCircuit, returning this chunk's public
// wires in declared order: Challenge, ProductIn, ProductOut, SortedProductOut.
// A verifier checking chunk continuity compares chunk i's ProductOut against
// chunk i+1's ProductIn.
func (c *StepCircuit) PublicWires() []field.Scalar { return c.publicOut }
