package stepcircuit

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/test"

	"github.com/zkwasm/nivc-engine/internal/nivc/field"
	"github.com/zkwasm/nivc-engine/internal/nivc/tracer"
	"github.com/zkwasm/nivc-engine/internal/nivc/wasmmod"
)

// TestExecutionStepCircuitSolvesAddStep exercises the one-hot selector
// dispatch across every registered opcode tag for a single i32.add step,
// confirming every unselected gadget's guarded constraints stay satisfied
// alongside the selected addGadget's real one.
func TestExecutionStepCircuitSolvesAddStep(t *testing.T) {
	assert := test.NewAssert(t)

	steps := []tracer.TraceStep{{
		Opcode:   wasmmod.OpI32Add,
		PCBefore: 0,
		PCAfter:  1,
		Pushed:   []uint64{7},
	}}

	c := NewAssigned(1, steps, 0, 0, 42)
	assert.NoError(test.IsSolved(c, c, ecc.BN254.ScalarField()))
}

// TestExecutionStepCircuitSolvesPaddedChunk confirms a chunk shorter than
// sExec is padded with NopStep the same way tracer.ExecutionTrace.PadTo pads
// a trace tail, and that the padding steps solve under the nopGadget.
func TestExecutionStepCircuitSolvesPaddedChunk(t *testing.T) {
	assert := test.NewAssert(t)

	steps := []tracer.TraceStep{{
		Opcode:   wasmmod.OpI32Add,
		PCBefore: 0,
		PCAfter:  1,
		Pushed:   []uint64{7},
	}}

	c := NewAssigned(3, steps, 0, 0, 42)
	assert.NoError(test.IsSolved(c, c, ecc.BN254.ScalarField()))
}

// TestExecutionStepCircuitRejectsWrongDigest confirms the folded running
// digest is actually checked, not left as a free public wire.
func TestExecutionStepCircuitRejectsWrongDigest(t *testing.T) {
	assert := test.NewAssert(t)

	steps := []tracer.TraceStep{{
		Opcode:   wasmmod.OpI32Add,
		PCBefore: 0,
		PCAfter:  1,
		Pushed:   []uint64{7},
	}}

	c := NewAssigned(1, steps, 0, 0, 42)
	c.DigestOut = uint64(0)
	assert.Error(test.IsSolved(c, c, ecc.BN254.ScalarField()))
}

// TestExecutionStepCircuitPublicWires confirms PublicWires returns all five
// declared public wires, in order, so a verifier checking chunk continuity
// can read ProgramDigest/DigestIn/MemopDigestIn/DigestOut/MemopDigestOut
// directly rather than having only the two outputs.
func TestExecutionStepCircuitPublicWires(t *testing.T) {
	steps := []tracer.TraceStep{{Opcode: wasmmod.OpNop}}
	c := NewAssigned(1, steps, 5, 9, 1)
	wires := c.PublicWires()
	if len(wires) != 5 {
		t.Fatalf("PublicWires() has %d entries, want 5", len(wires))
	}
	if !wires[0].Equal(field.NewScalar(1)) {
		t.Errorf("wires[0] (ProgramDigest) = %v, want 1", wires[0])
	}
	if !wires[1].Equal(field.NewScalar(5)) {
		t.Errorf("wires[1] (DigestIn) = %v, want 5", wires[1])
	}
	if !wires[2].Equal(field.NewScalar(9)) {
		t.Errorf("wires[2] (MemopDigestIn) = %v, want 9", wires[2])
	}
}
