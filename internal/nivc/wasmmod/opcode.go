package wasmmod

// Opcode is the closed tagged variant over the WASM opcode families this
// engine proves (spec §9 redesign guidance: "a closed tagged variant over
// the opcode set plus a per-tag gadget table" rather than virtual-method
// dispatch). Every non-floating-point opcode below has one executor in
// internal/nivc/tracer; internal/nivc/gadgets has one gadget for each of
// them except the signed lt/gt/le/ge, rem_s and shr_s opcodes.
type Opcode uint16

const (
	OpUnreachable Opcode = iota
	OpNop
	OpBlock
	OpLoop
	OpIf
	OpElse
	OpEnd
	OpBr
	OpBrIf
	OpBrTable
	OpReturn
	OpCall
	OpCallIndirect

	OpDrop
	OpSelect

	OpLocalGet
	OpLocalSet
	OpLocalTee
	OpGlobalGet
	OpGlobalSet

	OpI32Load
	OpI32Load8S
	OpI32Load8U
	OpI32Load16S
	OpI32Load16U
	OpI64Load
	OpI32Store
	OpI32Store8
	OpI32Store16
	OpI64Store
	OpMemorySize
	OpMemoryGrow

	OpI32Const
	OpI64Const

	OpI32Eqz
	OpI32Eq
	OpI32Ne
	OpI32LtS
	OpI32LtU
	OpI32GtS
	OpI32GtU
	OpI32LeS
	OpI32LeU
	OpI32GeS
	OpI32GeU

	OpI64Eqz
	OpI64Eq
	OpI64Ne
	OpI64LtS
	OpI64LtU
	OpI64GtS
	OpI64GtU
	OpI64LeS
	OpI64LeU
	OpI64GeS
	OpI64GeU

	OpI32Add
	OpI32Sub
	OpI32Mul
	OpI32DivS
	OpI32DivU
	OpI32RemS
	OpI32RemU
	OpI32And
	OpI32Or
	OpI32Xor
	OpI32Shl
	OpI32ShrS
	OpI32ShrU
	OpI32Rotl
	OpI32Rotr

	OpI64Add
	OpI64Sub
	OpI64Mul
	OpI64DivS
	OpI64DivU
	OpI64RemS
	OpI64RemU
	OpI64And
	OpI64Or
	OpI64Xor
	OpI64Shl
	OpI64ShrS
	OpI64ShrU
	OpI64Rotl
	OpI64Rotr

	// Floating point is parsed (so a module containing it can be inspected)
	// but never executed: f32/f64 opcodes reachable through direct calls
	// are refused with UnsupportedOpcode by the tracer's pre-pass, before
	// any step is traced (spec §9 open questions).
	OpF32Const
	OpF64Const
	OpF32Unsupported
	OpF64Unsupported

	// OpHostCall represents an imported host-I/O call. The tracer dispatches
	// the now and exit selectors only and records each call's argument and
	// result hashes in the step's HostStepRecord; those hashes are not part
	// of memop_hash.
	OpHostCall

	opcodeCount
)

// NumOpcodes is the size of the closed opcode tag set, used to size the
// per-tag gadget table and the one-hot selector in the step circuit.
const NumOpcodes = int(opcodeCount)

// StackEffect returns (pops, pushes) for opcodes whose effect does not
// depend on witness data; opcodes whose effect is data-dependent (call,
// call_indirect, br_table, select) are handled specially by the tracer and
// return (0, 0) here.
func (op Opcode) StackEffect() (pops, pushes int) {
	switch op {
	case OpI32Const, OpI64Const, OpF32Const, OpF64Const,
		OpLocalGet, OpGlobalGet, OpMemorySize:
		return 0, 1
	case OpDrop, OpLocalSet, OpGlobalSet, OpIf, OpBrIf:
		return 1, 0
	case OpI32Eqz, OpI64Eqz, OpMemoryGrow:
		return 1, 1
	case OpI32Add, OpI32Sub, OpI32Mul, OpI32DivS, OpI32DivU, OpI32RemS, OpI32RemU,
		OpI32And, OpI32Or, OpI32Xor, OpI32Shl, OpI32ShrS, OpI32ShrU, OpI32Rotl, OpI32Rotr,
		OpI64Add, OpI64Sub, OpI64Mul, OpI64DivS, OpI64DivU, OpI64RemS, OpI64RemU,
		OpI64And, OpI64Or, OpI64Xor, OpI64Shl, OpI64ShrS, OpI64ShrU, OpI64Rotl, OpI64Rotr,
		OpI32Eq, OpI32Ne, OpI32LtS, OpI32LtU, OpI32GtS, OpI32GtU, OpI32LeS, OpI32LeU, OpI32GeS, OpI32GeU,
		OpI64Eq, OpI64Ne, OpI64LtS, OpI64LtU, OpI64GtS, OpI64GtU, OpI64LeS, OpI64LeU, OpI64GeS, OpI64GeU:
		return 2, 1
	case OpLocalTee:
		return 1, 1
	case OpI32Load, OpI32Load8S, OpI32Load8U, OpI32Load16S, OpI32Load16U, OpI64Load:
		return 1, 1
	case OpI32Store, OpI32Store8, OpI32Store16, OpI64Store:
		return 2, 0
	case OpUnreachable, OpNop, OpBlock, OpLoop, OpElse, OpEnd,
		OpBr, OpReturn:
		return 0, 0
	default:
		return 0, 0
	}
}

// String names the opcode for logging and error messages.
func (op Opcode) String() string {
	if names, ok := opcodeNames[op]; ok {
		return names
	}
	return "unknown"
}

var opcodeNames = map[Opcode]string{
	OpUnreachable: "unreachable", OpNop: "nop", OpBlock: "block", OpLoop: "loop",
	OpIf: "if", OpElse: "else", OpEnd: "end", OpBr: "br", OpBrIf: "br_if",
	OpBrTable: "br_table", OpReturn: "return", OpCall: "call",
	OpCallIndirect: "call_indirect", OpDrop: "drop", OpSelect: "select",
	OpLocalGet: "local.get", OpLocalSet: "local.set", OpLocalTee: "local.tee",
	OpGlobalGet: "global.get", OpGlobalSet: "global.set",
	OpI32Load: "i32.load", OpI32Store: "i32.store", OpMemorySize: "memory.size",
	OpMemoryGrow: "memory.grow", OpI32Const: "i32.const", OpI64Const: "i64.const",
	OpI32Add: "i32.add", OpI32Sub: "i32.sub", OpI32Mul: "i32.mul",
	OpI32DivS: "i32.div_s", OpI32DivU: "i32.div_u", OpI32RemS: "i32.rem_s", OpI32RemU: "i32.rem_u",
	OpI64Add: "i64.add", OpI64Sub: "i64.sub", OpI64Mul: "i64.mul",
	OpF32Unsupported: "f32.*", OpF64Unsupported: "f64.*", OpHostCall: "host_call",
}
