// Package gadgets implements component C: one constraint gadget per opcode
// tag in wasmmod.Opcode's closed variant (spec §9 redesign guidance), each
// built from gnark's frontend.API rather than a hand-rolled R1CS builder.
package gadgets

import (
	"github.com/consensys/gnark/frontend"

	"github.com/zkwasm/nivc-engine/internal/nivc/wasmmod"
)

// Wire is the circuit-side operand stack entry: a single field element. i32
// values are range-checked to 32 bits at the point they are produced; i64
// values are range-checked to 64 bits. This mirrors the teacher's lookup_8bit
// range-check approach, generalized from bytes to opcode-specific widths.
type Wire = frontend.Variable

// MemOpWire is the circuit counterpart of tracer.MemOp.
type MemOpWire struct {
	Address     Wire
	ValueBefore Wire
	ValueAfter  Wire
	IsWrite     Wire // boolean: 1 if a write, 0 if a read
}

// StepWitness is the per-opcode operand/result/memory view a gadget
// constrains. Pops/Pushed are fixed-capacity slices sized to the opcode
// family's maximum arity; unused slots are zero and unconstrained by the
// caller (the gadget itself decides how many it actually needs).
type StepWitness struct {
	Pops     []Wire
	Pushed   []Wire
	MemOps   []MemOpWire
	PCBefore Wire
	PCAfter  Wire
}

// Gadget constrains one opcode tag's state transition. Each opcode in the
// table Register builds has exactly one entry. The signed opcodes
// (lt_s, gt_s, le_s, ge_s, rem_s, shr_s for i32 and i64) and the
// floating-point tags have no entry; a step carrying one of them fails the
// step circuit's one-hot selector check.
type Gadget interface {
	// Constrain asserts api-level constraints tying w.Pops to w.Pushed (and,
	// for memory opcodes, to w.MemOps), gated by gate: every assertion must
	// be routed through AssertGatedEqual/AssertGatedBoolean rather than
	// api.AssertIsEqual/AssertIsBoolean directly, so a step whose opcode
	// tag does not match this gadget (gate == 0) is trivially satisfied
	// regardless of the witness values it's fed. It must not branch on
	// witness values; any data-dependent behavior is expressed as
	// arithmetic selectors.
	Constrain(api frontend.API, gate frontend.Variable, w StepWitness) error
}

// AssertGatedEqual asserts a == b only when gate == 1; when gate == 0 the
// assertion is trivially satisfied regardless of a and b. This is how the
// step circuit's one-hot opcode selector (internal/nivc/stepcircuit) gates
// every gadget's constraints without needing a per-gadget no-op branch.
func AssertGatedEqual(api frontend.API, gate, a, b frontend.Variable) {
	api.AssertIsEqual(api.Mul(gate, api.Sub(a, b)), 0)
}

// AssertGatedBoolean asserts v is boolean only when gate == 1.
func AssertGatedBoolean(api frontend.API, gate, v frontend.Variable) {
	api.AssertIsEqual(api.Mul(gate, api.Mul(v, api.Sub(v, 1))), 0)
}

// Table maps every opcode tag to its gadget. Built once by Register and
// shared read-only across step circuits.
type Table map[wasmmod.Opcode]Gadget

// Register builds the full opcode -> gadget table. A step circuit composing
// S_exec steps looks up this table once per step and multiplexes between
// every entry with a one-hot selector (internal/nivc/stepcircuit), so the
// circuit shape does not depend on which opcode a given trace step used.
func Register() Table {
	t := make(Table, wasmmod.NumOpcodes)
	registerArithmetic(t)
	registerCompare(t)
	registerBitwise(t)
	registerMemory(t)
	registerControl(t)
	registerSelector(t)
	return t
}
