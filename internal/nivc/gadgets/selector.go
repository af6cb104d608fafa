package gadgets

import (
	"github.com/consensys/gnark/frontend"

	"github.com/zkwasm/nivc-engine/internal/nivc/wasmmod"
)

// selectGadget constrains select(cond, a, b): a two-way mux built from
// api.Select, gnark's native ternary gadget, asserting cond is boolean
// first so the mux cannot be satisfied by an out-of-range selector value.
type selectGadget struct{}

func (selectGadget) Constrain(api frontend.API, gate frontend.Variable, w StepWitness) error {
	cond := w.Pops[0]
	a, b := w.Pops[1], w.Pops[2]
	AssertGatedBoolean(api, gate, cond)
	AssertGatedEqual(api, gate, w.Pushed[0], api.Select(cond, a, b))
	return nil
}

type dropGadget struct{}

func (dropGadget) Constrain(api frontend.API, gate frontend.Variable, w StepWitness) error {
	return nil
}

type localGadget struct{}

func (localGadget) Constrain(api frontend.API, gate frontend.Variable, w StepWitness) error {
	// local.get/set/tee move a value between the operand stack and the
	// frame's local slots. The step circuit has no local-slot wires, so
	// neither this gadget nor the step circuit checks the moved value.
	return nil
}

type globalGadget struct{}

func (globalGadget) Constrain(api frontend.API, gate frontend.Variable, w StepWitness) error {
	return nil
}

type constGadget struct{}

func (constGadget) Constrain(api frontend.API, gate frontend.Variable, w StepWitness) error {
	// The step circuit does not carry the instruction's immediate, so the
	// pushed constant is not checked against the program.
	return nil
}

func registerSelector(t Table) {
	t[wasmmod.OpSelect] = selectGadget{}
	t[wasmmod.OpDrop] = dropGadget{}
	t[wasmmod.OpLocalGet] = localGadget{}
	t[wasmmod.OpLocalSet] = localGadget{}
	t[wasmmod.OpLocalTee] = localGadget{}
	t[wasmmod.OpGlobalGet] = globalGadget{}
	t[wasmmod.OpGlobalSet] = globalGadget{}
	t[wasmmod.OpI32Const] = constGadget{}
	t[wasmmod.OpI64Const] = constGadget{}
	t[wasmmod.OpMemoryGrow] = dropGadget{}
}
