package gadgets

import (
	"github.com/consensys/gnark/frontend"

	"github.com/zkwasm/nivc-engine/internal/nivc/wasmmod"
)

// nopGadget covers every structural marker opcode whose step has no stack
// or memory effect (block/loop/else/end/nop) plus unconditional branches
// whose target was already resolved by the tracer's pre-pass: the circuit
// only needs to confirm the PC transition, which the step circuit's wiring
// (not this gadget) already fixes from the trace.
type nopGadget struct{}

func (nopGadget) Constrain(api frontend.API, gate frontend.Variable, w StepWitness) error {
	return nil
}

// ifGadget asserts that the popped condition is a boolean. It does not
// constrain PCAfter: the taken/not-taken target is not checked against the
// condition by this gadget or by the step circuit.
type ifGadget struct{}

func (ifGadget) Constrain(api frontend.API, gate frontend.Variable, w StepWitness) error {
	AssertGatedBoolean(api, gate, w.Pops[0])
	return nil
}

type brIfGadget struct{}

func (brIfGadget) Constrain(api frontend.API, gate frontend.Variable, w StepWitness) error {
	AssertGatedBoolean(api, gate, w.Pops[0])
	return nil
}

type returnGadget struct{}

func (returnGadget) Constrain(api frontend.API, gate frontend.Variable, w StepWitness) error {
	return nil
}

func registerControl(t Table) {
	for _, op := range []wasmmod.Opcode{
		wasmmod.OpNop, wasmmod.OpBlock, wasmmod.OpLoop, wasmmod.OpElse, wasmmod.OpEnd, wasmmod.OpBr,
	} {
		t[op] = nopGadget{}
	}
	t[wasmmod.OpIf] = ifGadget{}
	t[wasmmod.OpBrIf] = brIfGadget{}
	t[wasmmod.OpReturn] = returnGadget{}
	t[wasmmod.OpCall] = nopGadget{}
	t[wasmmod.OpCallIndirect] = nopGadget{}
	t[wasmmod.OpBrTable] = nopGadget{}
	t[wasmmod.OpUnreachable] = nopGadget{}
	t[wasmmod.OpHostCall] = nopGadget{}
}
