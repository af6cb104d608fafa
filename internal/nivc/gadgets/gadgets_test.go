package gadgets

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/test"
)

// wrapperCircuit exposes a fixed-arity StepWitness shape to frontend.Compile
// so a single gadget can be exercised without routing it through the full
// opcode-selector dispatch stepcircuit builds (mirrors how stepcircuit.go's
// ExecutionStepCircuit itself carries unexported non-Variable fields like
// table/sExec alongside exported wire fields).
type wrapperCircuit struct {
	Pop0, Pop1, Pop2 frontend.Variable `gnark:",public"`
	Pushed0          frontend.Variable `gnark:",public"`

	MemAddr    frontend.Variable `gnark:",public"`
	MemBefore  frontend.Variable `gnark:",public"`
	MemAfter   frontend.Variable `gnark:",public"`
	MemIsWrite frontend.Variable `gnark:",public"`

	gadget Gadget
	nPops  int
}

func (c *wrapperCircuit) Define(api frontend.API) error {
	w := StepWitness{
		Pops:   []frontend.Variable{c.Pop0, c.Pop1, c.Pop2}[:c.nPops],
		Pushed: []frontend.Variable{c.Pushed0},
		MemOps: []MemOpWire{{
			Address:     c.MemAddr,
			ValueBefore: c.MemBefore,
			ValueAfter:  c.MemAfter,
			IsWrite:     c.MemIsWrite,
		}},
	}
	return c.gadget.Constrain(api, frontend.Variable(1), w)
}

func circuitFor(g Gadget, nPops int, pop0, pop1, pop2, pushed0 int64) *wrapperCircuit {
	return &wrapperCircuit{
		Pop0: pop0, Pop1: pop1, Pop2: pop2,
		Pushed0: pushed0,
		gadget:  g,
		nPops:   nPops,
	}
}

func TestAddGadgetSolves(t *testing.T) {
	assert := test.NewAssert(t)
	c := circuitFor(addGadget{}, 2, 3, 4, 0, 7)
	assert.NoError(test.IsSolved(c, c, ecc.BN254.ScalarField()))
}

func TestAddGadgetRejectsWrongSum(t *testing.T) {
	assert := test.NewAssert(t)
	c := circuitFor(addGadget{}, 2, 3, 4, 0, 8)
	assert.Error(test.IsSolved(c, c, ecc.BN254.ScalarField()))
}

func TestSubGadgetSolves(t *testing.T) {
	assert := test.NewAssert(t)
	c := circuitFor(subGadget{}, 2, 9, 4, 0, 5)
	assert.NoError(test.IsSolved(c, c, ecc.BN254.ScalarField()))
}

func TestMulGadgetSolves(t *testing.T) {
	assert := test.NewAssert(t)
	c := circuitFor(mulGadget{}, 2, 6, 7, 0, 42)
	assert.NoError(test.IsSolved(c, c, ecc.BN254.ScalarField()))
}

func TestEqGadgetSolvesEqual(t *testing.T) {
	assert := test.NewAssert(t)
	c := circuitFor(eqGadget{}, 2, 5, 5, 0, 1)
	assert.NoError(test.IsSolved(c, c, ecc.BN254.ScalarField()))
}

func TestEqGadgetRejectsWrongBit(t *testing.T) {
	assert := test.NewAssert(t)
	c := circuitFor(eqGadget{}, 2, 5, 5, 0, 0)
	assert.Error(test.IsSolved(c, c, ecc.BN254.ScalarField()))
}

func TestNeGadgetSolves(t *testing.T) {
	assert := test.NewAssert(t)
	c := circuitFor(eqGadget{negate: true}, 2, 5, 6, 0, 1)
	assert.NoError(test.IsSolved(c, c, ecc.BN254.ScalarField()))
}

func TestLtGadgetSolves(t *testing.T) {
	assert := test.NewAssert(t)
	c := circuitFor(ltGadget{}, 2, 3, 9, 0, 1)
	assert.NoError(test.IsSolved(c, c, ecc.BN254.ScalarField()))
}

func TestLtGadgetRejectsWrongDirection(t *testing.T) {
	assert := test.NewAssert(t)
	c := circuitFor(ltGadget{}, 2, 9, 3, 0, 1)
	assert.Error(test.IsSolved(c, c, ecc.BN254.ScalarField()))
}

func TestLeGadgetSolvesOnEqualOperands(t *testing.T) {
	assert := test.NewAssert(t)
	c := circuitFor(ltGadget{orEqual: true}, 2, 4, 4, 0, 1)
	assert.NoError(test.IsSolved(c, c, ecc.BN254.ScalarField()))
}

func TestBitwiseAndGadgetSolves(t *testing.T) {
	assert := test.NewAssert(t)
	c := circuitFor(bitwiseGadget{width: 8, op: bitAnd}, 2, 0b1100, 0b1010, 0, 0b1000)
	assert.NoError(test.IsSolved(c, c, ecc.BN254.ScalarField()))
}

func TestBitwiseOrGadgetSolves(t *testing.T) {
	assert := test.NewAssert(t)
	c := circuitFor(bitwiseGadget{width: 8, op: bitOr}, 2, 0b1100, 0b1010, 0, 0b1110)
	assert.NoError(test.IsSolved(c, c, ecc.BN254.ScalarField()))
}

func TestBitwiseXorGadgetRejectsWrongResult(t *testing.T) {
	assert := test.NewAssert(t)
	c := circuitFor(bitwiseGadget{width: 8, op: bitXor}, 2, 0b1100, 0b1010, 0, 0b1111)
	assert.Error(test.IsSolved(c, c, ecc.BN254.ScalarField()))
}

// Shl(5, 3) == 40; exercises the one-hot selector over candidate shift
// amounts the fixed shiftGadget now implements instead of passing bits
// through unchanged.
func TestShiftGadgetShiftsLeft(t *testing.T) {
	assert := test.NewAssert(t)
	c := circuitFor(shiftGadget{width: 8, direction: 1}, 2, 5, 3, 0, 40)
	assert.NoError(test.IsSolved(c, c, ecc.BN254.ScalarField()))
}

// ShrU(40, 3) == 5.
func TestShiftGadgetShiftsRight(t *testing.T) {
	assert := test.NewAssert(t)
	c := circuitFor(shiftGadget{width: 8, direction: -1}, 2, 40, 3, 0, 5)
	assert.NoError(test.IsSolved(c, c, ecc.BN254.ScalarField()))
}

// Rotl8(0b00000001, 7) == 0b10000000.
func TestShiftGadgetRotatesLeft(t *testing.T) {
	assert := test.NewAssert(t)
	c := circuitFor(shiftGadget{width: 8, direction: 1, rotate: true}, 2, 0b00000001, 7, 0, 0b10000000)
	assert.NoError(test.IsSolved(c, c, ecc.BN254.ScalarField()))
}

// Rotr8(0b10000000, 1) == 0b01000000.
func TestShiftGadgetRotatesRight(t *testing.T) {
	assert := test.NewAssert(t)
	c := circuitFor(shiftGadget{width: 8, direction: -1, rotate: true}, 2, 0b10000000, 1, 0, 0b01000000)
	assert.NoError(test.IsSolved(c, c, ecc.BN254.ScalarField()))
}

func TestShiftGadgetRejectsWrongAmount(t *testing.T) {
	assert := test.NewAssert(t)
	c := circuitFor(shiftGadget{width: 8, direction: 1}, 2, 5, 3, 0, 41)
	assert.Error(test.IsSolved(c, c, ecc.BN254.ScalarField()))
}

func TestSelectGadgetPicksFirstWhenConditionTrue(t *testing.T) {
	assert := test.NewAssert(t)
	c := circuitFor(selectGadget{}, 3, 1, 11, 22, 11)
	assert.NoError(test.IsSolved(c, c, ecc.BN254.ScalarField()))
}

func TestSelectGadgetPicksSecondWhenConditionFalse(t *testing.T) {
	assert := test.NewAssert(t)
	c := circuitFor(selectGadget{}, 3, 0, 11, 22, 22)
	assert.NoError(test.IsSolved(c, c, ecc.BN254.ScalarField()))
}

func TestSelectGadgetRejectsNonBooleanCondition(t *testing.T) {
	assert := test.NewAssert(t)
	c := circuitFor(selectGadget{}, 3, 2, 11, 22, 11)
	assert.Error(test.IsSolved(c, c, ecc.BN254.ScalarField()))
}

// memWrapperCircuit exercises load/store gadgets, whose Pushed[0] is tied to
// the single MemOpWire rather than a second Pops entry.
type memWrapperCircuit struct {
	Pop0, Pop1 frontend.Variable `gnark:",public"`
	Pushed0    frontend.Variable `gnark:",public"`
	MemAddr    frontend.Variable `gnark:",public"`
	MemBefore  frontend.Variable `gnark:",public"`
	MemAfter   frontend.Variable `gnark:",public"`
	MemIsWrite frontend.Variable `gnark:",public"`

	gadget Gadget
}

func (c *memWrapperCircuit) Define(api frontend.API) error {
	w := StepWitness{
		Pops:   []frontend.Variable{c.Pop0, c.Pop1},
		Pushed: []frontend.Variable{c.Pushed0},
		MemOps: []MemOpWire{{
			Address:     c.MemAddr,
			ValueBefore: c.MemBefore,
			ValueAfter:  c.MemAfter,
			IsWrite:     c.MemIsWrite,
		}},
	}
	return c.gadget.Constrain(api, frontend.Variable(1), w)
}

func TestLoadGadgetSolves(t *testing.T) {
	assert := test.NewAssert(t)
	c := &memWrapperCircuit{
		Pop0: 0, Pop1: 0, Pushed0: 9,
		MemAddr: 4, MemBefore: 9, MemAfter: 9, MemIsWrite: 0,
		gadget: loadGadget{},
	}
	assert.NoError(test.IsSolved(c, c, ecc.BN254.ScalarField()))
}

func TestLoadGadgetRejectsMutation(t *testing.T) {
	assert := test.NewAssert(t)
	c := &memWrapperCircuit{
		Pop0: 0, Pop1: 0, Pushed0: 10,
		MemAddr: 4, MemBefore: 9, MemAfter: 10, MemIsWrite: 0,
		gadget: loadGadget{},
	}
	assert.Error(test.IsSolved(c, c, ecc.BN254.ScalarField()))
}

func TestStoreGadgetSolves(t *testing.T) {
	assert := test.NewAssert(t)
	c := &memWrapperCircuit{
		Pop0: 4, Pop1: 7, Pushed0: 0,
		MemAddr: 4, MemBefore: 0, MemAfter: 7, MemIsWrite: 1,
		gadget: storeGadget{},
	}
	assert.NoError(test.IsSolved(c, c, ecc.BN254.ScalarField()))
}

// gatedOffCircuit constrains storeGadget through gate == 0, the shape the
// step circuit's opcode selector produces for every gadget except the one
// matching a step's actual opcode. storeGadget's IsWrite == 1 assertion
// would fail unconditionally against a read (IsWrite == 0) if it weren't
// gated: this is the exact defect the gate parameter closes.
type gatedOffCircuit struct {
	Pop0, Pop1 frontend.Variable `gnark:",public"`
	Pushed0    frontend.Variable `gnark:",public"`
	MemAddr    frontend.Variable `gnark:",public"`
	MemBefore  frontend.Variable `gnark:",public"`
	MemAfter   frontend.Variable `gnark:",public"`
	MemIsWrite frontend.Variable `gnark:",public"`
}

func (c *gatedOffCircuit) Define(api frontend.API) error {
	w := StepWitness{
		Pops:   []frontend.Variable{c.Pop0, c.Pop1},
		Pushed: []frontend.Variable{c.Pushed0},
		MemOps: []MemOpWire{{
			Address:     c.MemAddr,
			ValueBefore: c.MemBefore,
			ValueAfter:  c.MemAfter,
			IsWrite:     c.MemIsWrite,
		}},
	}
	return storeGadget{}.Constrain(api, frontend.Variable(0), w)
}

func TestGateZeroSatisfiesEvenWithMismatchedStoreWitness(t *testing.T) {
	assert := test.NewAssert(t)
	c := &gatedOffCircuit{
		Pop0: 4, Pop1: 7, Pushed0: 0,
		MemAddr: 4, MemBefore: 0, MemAfter: 0, MemIsWrite: 0,
	}
	assert.NoError(test.IsSolved(c, c, ecc.BN254.ScalarField()))
}

func TestStoreGadgetRejectsReadFlag(t *testing.T) {
	assert := test.NewAssert(t)
	c := &memWrapperCircuit{
		Pop0: 4, Pop1: 7, Pushed0: 0,
		MemAddr: 4, MemBefore: 0, MemAfter: 7, MemIsWrite: 0,
		gadget: storeGadget{},
	}
	assert.Error(test.IsSolved(c, c, ecc.BN254.ScalarField()))
}
