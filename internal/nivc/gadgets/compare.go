package gadgets

import (
	"github.com/consensys/gnark/frontend"

	"github.com/zkwasm/nivc-engine/internal/nivc/wasmmod"
)

// eqGadget/ltGadget constrain comparison opcodes using frontend.API's
// boolean-producing comparators, the same pattern the teacher's lookup
// tables use for range membership (protocols/lookup.go): the result wire
// must be exactly the 0/1 api.IsZero / api.Cmp output, not merely "truthy".
type eqGadget struct{ negate bool }

func (g eqGadget) Constrain(api frontend.API, gate frontend.Variable, w StepWitness) error {
	isEq := api.IsZero(api.Sub(w.Pops[0], w.Pops[1]))
	if g.negate {
		AssertGatedEqual(api, gate, w.Pushed[0], api.Sub(1, isEq))
	} else {
		AssertGatedEqual(api, gate, w.Pushed[0], isEq)
	}
	return nil
}

type eqzGadget struct{}

func (eqzGadget) Constrain(api frontend.API, gate frontend.Variable, w StepWitness) error {
	AssertGatedEqual(api, gate, w.Pushed[0], api.IsZero(w.Pops[0]))
	return nil
}

// ltGadget delegates to api.Cmp, which the gnark frontend implements via
// bit-decomposition under the hood; this gadget only fixes the polarity of
// the returned comparison bit. swap exchanges the two operands first, which
// turns lt/le into gt/ge.
type ltGadget struct{ orEqual, swap bool }

func (g ltGadget) Constrain(api frontend.API, gate frontend.Variable, w StepWitness) error {
	a, b := w.Pops[0], w.Pops[1]
	if g.swap {
		a, b = b, a
	}
	cmp := api.Cmp(a, b) // -1, 0, or 1
	isLt := api.IsZero(api.Add(cmp, 1))
	if g.orEqual {
		isEq := api.IsZero(cmp)
		AssertGatedEqual(api, gate, w.Pushed[0], api.Or(isLt, isEq))
	} else {
		AssertGatedEqual(api, gate, w.Pushed[0], isLt)
	}
	return nil
}

func registerCompare(t Table) {
	t[wasmmod.OpI32Eq] = eqGadget{}
	t[wasmmod.OpI64Eq] = eqGadget{}
	t[wasmmod.OpI32Ne] = eqGadget{negate: true}
	t[wasmmod.OpI64Ne] = eqGadget{negate: true}
	t[wasmmod.OpI32Eqz] = eqzGadget{}
	t[wasmmod.OpI64Eqz] = eqzGadget{}
	t[wasmmod.OpI32LtU] = ltGadget{}
	t[wasmmod.OpI64LtU] = ltGadget{}
	t[wasmmod.OpI32LeU] = ltGadget{orEqual: true}
	t[wasmmod.OpI64LeU] = ltGadget{orEqual: true}
	t[wasmmod.OpI32GtU] = ltGadget{swap: true}
	t[wasmmod.OpI64GtU] = ltGadget{swap: true}
	t[wasmmod.OpI32GeU] = ltGadget{orEqual: true, swap: true}
	t[wasmmod.OpI64GeU] = ltGadget{orEqual: true, swap: true}
}
