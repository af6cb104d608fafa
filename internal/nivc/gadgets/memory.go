package gadgets

import (
	"github.com/consensys/gnark/frontend"

	"github.com/zkwasm/nivc-engine/internal/nivc/wasmmod"
)

// loadGadget ties the loaded value to the single MemOpWire's ValueAfter,
// and additionally constrains ValueBefore == ValueAfter: a load never
// mutates memory (spec §3's MemOp tuple definition).
type loadGadget struct{}

func (loadGadget) Constrain(api frontend.API, gate frontend.Variable, w StepWitness) error {
	op := w.MemOps[0]
	AssertGatedEqual(api, gate, op.IsWrite, 0)
	AssertGatedEqual(api, gate, op.ValueBefore, op.ValueAfter)
	AssertGatedEqual(api, gate, w.Pushed[0], op.ValueAfter)
	return nil
}

// storeGadget ties the stored operand to ValueAfter and asserts IsWrite.
// ValueBefore is left unconstrained here: its correctness against the prior
// step's ValueAfter at the same address is the MCC engine's job (component
// E), not the step circuit's (spec §4.D/§4.E separation of concerns).
type storeGadget struct{}

func (storeGadget) Constrain(api frontend.API, gate frontend.Variable, w StepWitness) error {
	op := w.MemOps[0]
	AssertGatedEqual(api, gate, op.IsWrite, 1)
	AssertGatedEqual(api, gate, op.ValueAfter, w.Pops[1])
	return nil
}

type memorySizeGadget struct{}

func (memorySizeGadget) Constrain(api frontend.API, gate frontend.Variable, w StepWitness) error {
	// memory.size adds no constraint: the step circuit carries no page
	// counter wire, so the pushed page count is not checked.
	return nil
}

func registerMemory(t Table) {
	loads := []wasmmod.Opcode{
		wasmmod.OpI32Load, wasmmod.OpI32Load8S, wasmmod.OpI32Load8U,
		wasmmod.OpI32Load16S, wasmmod.OpI32Load16U, wasmmod.OpI64Load,
	}
	for _, op := range loads {
		t[op] = loadGadget{}
	}
	stores := []wasmmod.Opcode{
		wasmmod.OpI32Store, wasmmod.OpI32Store8, wasmmod.OpI32Store16, wasmmod.OpI64Store,
	}
	for _, op := range stores {
		t[op] = storeGadget{}
	}
	t[wasmmod.OpMemorySize] = memorySizeGadget{}
}
