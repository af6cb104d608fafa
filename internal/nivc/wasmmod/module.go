// Package wasmmod declares the contract the engine requires of a validated
// WASM module. Per spec §1/§6, parsing module bytes (binary or text `wat`)
// is explicitly out of scope and treated as an external collaborator: this
// package defines only the interface a parser's output must satisfy, never
// a parser itself.
package wasmmod

// ValueType is one of WASM's four numeric value types. Floating-point types
// are represented so a Module can be inspected, but the tracer refuses to
// execute a reachable floating-point opcode (spec §9 open questions).
type ValueType byte

const (
	I32 ValueType = iota
	I64
	F32
	F64
)

// FuncType is a function signature.
type FuncType struct {
	Params  []ValueType
	Results []ValueType
}

// Function is one function body: its signature index and its decoded
// instruction stream, already branch-resolved by the external parser's
// validation pass (spec §4.B: "translate to a single step that updates pc
// according to the resolved target computed ahead of time by a pre-pass").
type Function struct {
	TypeIndex    int
	Locals       []ValueType
	Instructions []Instr
}

// Instr is one decoded WASM instruction. Opcode is the numeric WASM opcode;
// Args carries the operands a particular opcode needs (branch targets,
// local/global indices, memory offsets, constants), already resolved.
type Instr struct {
	Opcode Opcode
	Args   []int64
}

// Memory describes one linear memory's initial/maximum page counts.
type Memory struct {
	InitialPages uint32
	MaximumPages uint32 // 0 means unbounded
}

// Global describes one module global.
type Global struct {
	Type    ValueType
	Mutable bool
	Init    int64
}

// Table describes one table (used by call_indirect).
type Table struct {
	InitialSize uint32
	MaximumSize uint32
	Elements    []uint32 // function indices, 0xFFFFFFFF = hole
}

// Import/Export describe the module's linkage surface, required so the
// engine can validate that every import is satisfiable by the supplied
// host-I/O shim before tracing begins (spec §4.B LinkError).
type Import struct {
	Module, Name string
	TypeIndex    int
}

type Export struct {
	Name string
	Kind ExportKind
	Idx  int
}

type ExportKind byte

const (
	ExportFunc ExportKind = iota
	ExportMemory
	ExportGlobal
	ExportTable
)

// Module is the validated, engine-facing view of a WASM module. An external
// parser (out of scope, spec §1) produces one of these from module bytes;
// the tracer (component B) only ever consumes this interface.
type Module interface {
	Types() []FuncType
	Functions() []Function
	Memories() []Memory
	Globals() []Global
	Tables() []Table
	Imports() []Import
	Exports() []Export

	// EntryResolution resolves an exported function name to its function
	// index, or ok=false if no such export exists.
	EntryResolution(name string) (idx int, ok bool)

	// Digest is a content digest of the module, the module_digest field of
	// the public instance (spec §3).
	Digest() [32]byte
}
