package tracer

import "github.com/zkwasm/nivc-engine/internal/nivc/wasmmod"

const wordSize = 4 // bytes per i32 memory word; i64 ops span two words

// frame is one call-stack entry: the return address and the function's
// local variable slots. Only the tracer keeps this stack; the step circuit
// has no frame-stack wires.
type frame struct {
	returnPC int
	locals   []uint64
}

// state is the concrete (non-circuit) machine state the tracer runs.
// Deterministic by construction: every field is a pure function of the
// module bytes and the input/host-I/O sequence (spec §4.B).
type state struct {
	module   wasmmod.Module
	fn       *wasmmod.Function
	pc       int
	stack    []uint64
	frames   []frame
	globals  []uint64
	memory   []byte // linear memory, byte-addressed
	pages    uint32
	maxPages uint32

	cycle uint64
}

func newState(mod wasmmod.Module, fnIdx int, args []uint64) (*state, error) {
	fns := mod.Functions()
	if fnIdx < 0 || fnIdx >= len(fns) {
		return nil, &ModuleInvalidError{Reason: "entry function index out of range"}
	}
	fn := &fns[fnIdx]

	globals := make([]uint64, len(mod.Globals()))
	for i, g := range mod.Globals() {
		globals[i] = uint64(g.Init)
	}

	var mem []byte
	var pages, maxPages uint32
	if mems := mod.Memories(); len(mems) > 0 {
		pages = mems[0].InitialPages
		maxPages = mems[0].MaximumPages
		mem = make([]byte, int(pages)*65536)
	}

	locals := make([]uint64, len(fn.Locals)+len(args))
	copy(locals, args)

	return &state{
		module:   mod,
		fn:       fn,
		pc:       0,
		stack:    make([]uint64, 0, 64),
		frames:   []frame{{returnPC: -1, locals: locals}},
		globals:  globals,
		memory:   mem,
		pages:    pages,
		maxPages: maxPages,
	}, nil
}

func (s *state) push(v uint64) { s.stack = append(s.stack, v) }

func (s *state) pop() (uint64, error) {
	if len(s.stack) == 0 {
		return 0, &ResourceExhaustedError{Reason: "operand stack underflow"}
	}
	v := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	return v, nil
}

func (s *state) curFrame() *frame { return &s.frames[len(s.frames)-1] }

func (s *state) readMem(addr, size uint64) (uint64, bool) {
	if addr+size > uint64(len(s.memory)) {
		return 0, false
	}
	var v uint64
	for i := uint64(0); i < size; i++ {
		v |= uint64(s.memory[addr+i]) << (8 * i)
	}
	return v, true
}

func (s *state) writeMem(addr, size, v uint64) bool {
	if addr+size > uint64(len(s.memory)) {
		return false
	}
	for i := uint64(0); i < size; i++ {
		s.memory[addr+i] = byte(v >> (8 * i))
	}
	return true
}
