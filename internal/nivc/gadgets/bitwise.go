package gadgets

import (
	"github.com/consensys/gnark/frontend"

	"github.com/zkwasm/nivc-engine/internal/nivc/wasmmod"
)

// bitwiseGadget constrains AND/OR/XOR by decomposing both operands to bits
// via api.ToBinary (gnark's bit-decomposition gadget, the same primitive the
// teacher's u32 lookup tables build range checks from) and recomposing the
// bitwise-combined bits with api.FromBinary.
type bitwiseGadget struct {
	width int
	op    func(api frontend.API, a, b frontend.Variable) frontend.Variable
}

func (g bitwiseGadget) Constrain(api frontend.API, gate frontend.Variable, w StepWitness) error {
	// Operands are scaled by gate before decomposition so the implicit
	// range check of ToBinary holds trivially when gate == 0.
	aBits := api.ToBinary(api.Mul(gate, w.Pops[0]), g.width)
	bBits := api.ToBinary(api.Mul(gate, w.Pops[1]), g.width)
	outBits := make([]frontend.Variable, g.width)
	for i := 0; i < g.width; i++ {
		outBits[i] = g.op(api, aBits[i], bBits[i])
	}
	AssertGatedEqual(api, gate, w.Pushed[0], api.FromBinary(outBits...))
	return nil
}

func bitAnd(api frontend.API, a, b frontend.Variable) frontend.Variable { return api.And(a, b) }
func bitOr(api frontend.API, a, b frontend.Variable) frontend.Variable  { return api.Or(a, b) }
func bitXor(api frontend.API, a, b frontend.Variable) frontend.Variable { return api.Xor(a, b) }

// shiftGadget constrains a left/right shift or rotate by a data-dependent
// amount: the operand is bit-decomposed, and every candidate rotation/shift
// amount in [0,width) is tried behind a one-hot selector over the reduced
// shift amount (WASM's shift opcodes mask the amount to width-1 before
// shifting, same as the tracer's execArith `b32 & 31` / `b & 63`). Covers
// Shl/ShrU and the Rotl/Rotr family with one parameterized gadget.
type shiftGadget struct {
	width     int
	direction int // +1 left, -1 right
	rotate    bool
}

func (g shiftGadget) Constrain(api frontend.API, gate frontend.Variable, w StepWitness) error {
	bits := api.ToBinary(api.Mul(gate, w.Pops[0]), g.width)
	// The amount is decomposed to 64 bits and only its low log2(width) bits
	// are kept, which is the tracer's `& (width-1)` mask.
	shiftBits := api.ToBinary(api.Mul(gate, w.Pops[1]), 64)[:log2Ceil(g.width)]
	n := api.FromBinary(shiftBits...)

	var result frontend.Variable = frontend.Variable(0)
	for k := 0; k < g.width; k++ {
		sel := api.IsZero(api.Sub(n, k))
		candidate := api.FromBinary(rotateOrShiftBits(bits, k, g.direction > 0, g.rotate, g.width)...)
		result = api.Add(result, api.Mul(sel, candidate))
	}
	AssertGatedEqual(api, gate, w.Pushed[0], result)
	return nil
}

// rotateOrShiftBits returns the bit array (LSB-first, matching api.ToBinary)
// for rotating or shifting bits by k positions in the given direction,
// zero-filling vacated positions when rotate is false.
func rotateOrShiftBits(bits []frontend.Variable, k int, leftward, rotate bool, width int) []frontend.Variable {
	out := make([]frontend.Variable, width)
	for i := 0; i < width; i++ {
		var srcIdx int
		zero := false
		if leftward {
			srcIdx = i - k
			if srcIdx < 0 {
				if rotate {
					srcIdx += width
				} else {
					zero = true
				}
			}
		} else {
			srcIdx = i + k
			if srcIdx >= width {
				if rotate {
					srcIdx -= width
				} else {
					zero = true
				}
			}
		}
		if zero {
			out[i] = frontend.Variable(0)
		} else {
			out[i] = bits[srcIdx]
		}
	}
	return out
}

// log2Ceil returns the number of bits needed to represent values in
// [0,width), used to decompose a shift/rotate amount down to its
// width-relevant low bits.
func log2Ceil(width int) int {
	n := 0
	for (1 << uint(n)) < width {
		n++
	}
	return n
}

func registerBitwise(t Table) {
	t[wasmmod.OpI32And] = bitwiseGadget{width: 32, op: bitAnd}
	t[wasmmod.OpI64And] = bitwiseGadget{width: 64, op: bitAnd}
	t[wasmmod.OpI32Or] = bitwiseGadget{width: 32, op: bitOr}
	t[wasmmod.OpI64Or] = bitwiseGadget{width: 64, op: bitOr}
	t[wasmmod.OpI32Xor] = bitwiseGadget{width: 32, op: bitXor}
	t[wasmmod.OpI64Xor] = bitwiseGadget{width: 64, op: bitXor}
	t[wasmmod.OpI32Shl] = shiftGadget{width: 32, direction: 1}
	t[wasmmod.OpI64Shl] = shiftGadget{width: 64, direction: 1}
	t[wasmmod.OpI32ShrU] = shiftGadget{width: 32, direction: -1}
	t[wasmmod.OpI64ShrU] = shiftGadget{width: 64, direction: -1}
	t[wasmmod.OpI32Rotl] = shiftGadget{width: 32, direction: 1, rotate: true}
	t[wasmmod.OpI64Rotl] = shiftGadget{width: 64, direction: 1, rotate: true}
	t[wasmmod.OpI32Rotr] = shiftGadget{width: 32, direction: -1, rotate: true}
	t[wasmmod.OpI64Rotr] = shiftGadget{width: 64, direction: -1, rotate: true}
}
