// Package tracer implements component B: a small, deterministic WASM
// structural interpreter that records an ordered step trace (spec §4.B).
package tracer

import (
	"fmt"

	"golang.org/x/crypto/sha3"

	"github.com/zkwasm/nivc-engine/internal/nivc/hostio"
	"github.com/zkwasm/nivc-engine/internal/nivc/wasmmod"
)

// Invocation is spec §3's (entry function name, ordered argument values,
// optional host-I/O channels) tuple.
type Invocation struct {
	EntryFunction string
	Args          []uint64
	Host          hostio.Shim // nil if the module has no imports to satisfy
}

// maxCycles bounds runaway execution; exceeding it is ResourceExhausted,
// never a silent infinite loop (spec §4.B failure cases).
const maxCycles = 10_000_000

// CheckSupported performs the static reachability pre-pass spec §4.C/§9
// describe: it walks every function reachable from entryIdx through direct
// calls and refuses (UnsupportedOpcodeError) if a floating-point opcode is
// reached, without ever starting to trace. Targets of call_indirect are not
// walked.
func CheckSupported(mod wasmmod.Module, entryIdx int) error {
	fns := mod.Functions()
	visited := make(map[int]bool)
	var walk func(idx int) error
	walk = func(idx int) error {
		if visited[idx] || idx < 0 || idx >= len(fns) {
			return nil
		}
		visited[idx] = true
		for _, ins := range fns[idx].Instructions {
			switch ins.Opcode {
			case wasmmod.OpF32Const, wasmmod.OpF64Const,
				wasmmod.OpF32Unsupported, wasmmod.OpF64Unsupported:
				return &UnsupportedOpcodeError{Opcode: ins.Opcode}
			case wasmmod.OpCall:
				if len(ins.Args) > 0 {
					if err := walk(int(ins.Args[0])); err != nil {
						return err
					}
				}
			}
		}
		return nil
	}
	return walk(entryIdx)
}

// Run executes mod per invocation and returns the ordered step trace and
// memory-op log the NIVC driver chunks into execution/MCC folds (spec
// §4.B's run(module, invocation) -> (trace, memops, outcome) contract).
func Run(mod wasmmod.Module, inv Invocation) (*ExecutionTrace, *MemoryOpLog, error) {
	entryIdx, ok := mod.EntryResolution(inv.EntryFunction)
	if !ok {
		return nil, nil, &ModuleInvalidError{Reason: fmt.Sprintf("no export named %q", inv.EntryFunction)}
	}
	if err := validateLinkage(mod, inv.Host); err != nil {
		return nil, nil, err
	}
	if err := CheckSupported(mod, entryIdx); err != nil {
		return nil, nil, err
	}

	st, err := newState(mod, entryIdx, inv.Args)
	if err != nil {
		return nil, nil, err
	}

	trace := &ExecutionTrace{}
	memlog := &MemoryOpLog{}
	liveAddresses := make(map[uint64]bool)

	for {
		if st.cycle > maxCycles {
			return nil, nil, &ResourceExhaustedError{Reason: "exceeded maximum cycle budget"}
		}
		if st.pc >= len(st.fn.Instructions) {
			// Implicit function end behaves like an explicit `return`.
			step, halted, trapped, err := st.execReturn(st.cycle)
			if err != nil {
				return nil, nil, err
			}
			trace.Steps = append(trace.Steps, step)
			memlog.Append(step.MemOps)
			recordLive(liveAddresses, step.MemOps)
			if halted {
				trace.Outcome = Outcome{Values: snapshotStack(st)}
				break
			}
			if trapped {
				trace.Outcome = Outcome{Trapped: true, Trap: TrapUnreachable}
				break
			}
			st.cycle++
			continue
		}

		ins := st.fn.Instructions[st.pc]
		step, outcome, err := st.step(ins, inv.Host)
		if err != nil {
			return nil, nil, err
		}
		trace.Steps = append(trace.Steps, step)
		memlog.Append(step.MemOps)
		recordLive(liveAddresses, step.MemOps)

		if outcome != nil {
			trace.Outcome = *outcome
			break
		}
		st.cycle++
	}

	sorted := sortedAddresses(liveAddresses)
	memlog.PrependInit(sorted)
	finalValues := finalValuesOf(st)
	memlog.AppendFinal(finalValues, sorted)

	return trace, memlog, nil
}

func validateLinkage(mod wasmmod.Module, host hostio.Shim) error {
	for _, imp := range mod.Imports() {
		if host == nil {
			return &LinkError{Import: imp.Module + "." + imp.Name}
		}
	}
	return nil
}

func recordLive(live map[uint64]bool, ops []MemOp) {
	for _, op := range ops {
		live[op.Address] = true
	}
}

func sortedAddresses(live map[uint64]bool) []uint64 {
	out := make([]uint64, 0, len(live))
	for a := range live {
		out = append(out, a)
	}
	// Simple insertion sort: address spans in these traces are small
	// relative to S_mcc batch sizes; the MCC engine re-sorts authoritatively
	// for the permutation argument (see internal/nivc/mcc).
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

func finalValuesOf(st *state) map[uint64]uint64 {
	vals := make(map[uint64]uint64)
	for addr := 0; addr+4 <= len(st.memory); addr += 4 {
		v, _ := st.readMem(uint64(addr), 4)
		if v != 0 {
			vals[uint64(addr)] = v
		}
	}
	return vals
}

func snapshotStack(st *state) []int64 {
	out := make([]int64, len(st.stack))
	for i, v := range st.stack {
		out[i] = int64(v)
	}
	return out
}

// step executes exactly one opcode, recording its pre-state PC and the
// resulting stack delta / mem ops (spec §4.B per-step rules), returning a
// non-nil *Outcome only once the machine has halted or trapped.
func (s *state) step(ins wasmmod.Instr, host hostio.Shim) (TraceStep, *Outcome, error) {
	pcBefore := s.pc
	step := TraceStep{PCBefore: pcBefore, Opcode: ins.Opcode, StepIndex: s.cycle}

	switch ins.Opcode {
	case wasmmod.OpUnreachable:
		step.PCAfter = pcBefore
		return step, &Outcome{Trapped: true, Trap: TrapUnreachable}, nil

	case wasmmod.OpNop, wasmmod.OpBlock, wasmmod.OpLoop, wasmmod.OpElse, wasmmod.OpEnd:
		s.pc++
		step.PCAfter = s.pc
		return step, nil, nil

	case wasmmod.OpIf:
		cond, err := s.pop()
		if err != nil {
			return step, nil, err
		}
		step.Pops = 1
		if cond == 0 && len(ins.Args) > 0 {
			s.pc = int(ins.Args[0])
		} else {
			s.pc++
		}
		step.PCAfter = s.pc
		return step, nil, nil

	case wasmmod.OpBr:
		s.pc = int(ins.Args[0])
		step.PCAfter = s.pc
		return step, nil, nil

	case wasmmod.OpBrIf:
		cond, err := s.pop()
		if err != nil {
			return step, nil, err
		}
		step.Pops = 1
		if cond != 0 {
			s.pc = int(ins.Args[0])
		} else {
			s.pc++
		}
		step.PCAfter = s.pc
		return step, nil, nil

	case wasmmod.OpBrTable:
		idx, err := s.pop()
		if err != nil {
			return step, nil, err
		}
		step.Pops = 1
		targets := ins.Args
		if len(targets) == 0 {
			return step, nil, &ModuleInvalidError{Reason: "br_table with no targets"}
		}
		if int(idx) >= len(targets)-1 {
			s.pc = int(targets[len(targets)-1]) // default target
		} else {
			s.pc = int(targets[idx])
		}
		step.PCAfter = s.pc
		return step, nil, nil

	case wasmmod.OpReturn:
		return s.execReturnStep(step)

	case wasmmod.OpCall:
		return s.execCall(step, int(ins.Args[0]))

	case wasmmod.OpCallIndirect:
		return s.execCallIndirect(step, ins)

	case wasmmod.OpDrop:
		if _, err := s.pop(); err != nil {
			return step, nil, err
		}
		step.Pops = 1
		s.pc++
		step.PCAfter = s.pc
		return step, nil, nil

	case wasmmod.OpSelect:
		cond, err := s.pop()
		if err != nil {
			return step, nil, err
		}
		b, err := s.pop()
		if err != nil {
			return step, nil, err
		}
		a, err := s.pop()
		if err != nil {
			return step, nil, err
		}
		var result uint64
		if cond != 0 {
			result = a
		} else {
			result = b
		}
		s.push(result)
		step.Pops, step.Pushed = 3, []uint64{result}
		s.pc++
		step.PCAfter = s.pc
		return step, nil, nil

	case wasmmod.OpLocalGet:
		f := s.curFrame()
		idx := int(ins.Args[0])
		if idx < 0 || idx >= len(f.locals) {
			return step, nil, &TypeMismatchError{Reason: "local index out of range"}
		}
		v := f.locals[idx]
		s.push(v)
		step.Pushed = []uint64{v}
		s.pc++
		step.PCAfter = s.pc
		return step, nil, nil

	case wasmmod.OpLocalSet, wasmmod.OpLocalTee:
		v, err := s.pop()
		if err != nil {
			return step, nil, err
		}
		f := s.curFrame()
		idx := int(ins.Args[0])
		if idx < 0 || idx >= len(f.locals) {
			return step, nil, &TypeMismatchError{Reason: "local index out of range"}
		}
		f.locals[idx] = v
		step.Pops = 1
		if ins.Opcode == wasmmod.OpLocalTee {
			s.push(v)
			step.Pushed = []uint64{v}
		}
		s.pc++
		step.PCAfter = s.pc
		return step, nil, nil

	case wasmmod.OpGlobalGet:
		idx := int(ins.Args[0])
		if idx < 0 || idx >= len(s.globals) {
			return step, nil, &TypeMismatchError{Reason: "global index out of range"}
		}
		v := s.globals[idx]
		s.push(v)
		step.Pushed = []uint64{v}
		s.pc++
		step.PCAfter = s.pc
		return step, nil, nil

	case wasmmod.OpGlobalSet:
		v, err := s.pop()
		if err != nil {
			return step, nil, err
		}
		idx := int(ins.Args[0])
		if idx < 0 || idx >= len(s.globals) {
			return step, nil, &TypeMismatchError{Reason: "global index out of range"}
		}
		s.globals[idx] = v
		step.Pops = 1
		s.pc++
		step.PCAfter = s.pc
		return step, nil, nil

	case wasmmod.OpI32Const:
		v := uint64(uint32(ins.Args[0]))
		s.push(v)
		step.Pushed = []uint64{v}
		s.pc++
		step.PCAfter = s.pc
		return step, nil, nil

	case wasmmod.OpI64Const:
		v := uint64(ins.Args[0])
		s.push(v)
		step.Pushed = []uint64{v}
		s.pc++
		step.PCAfter = s.pc
		return step, nil, nil

	case wasmmod.OpMemorySize:
		s.push(uint64(s.pages))
		step.Pushed = []uint64{uint64(s.pages)}
		s.pc++
		step.PCAfter = s.pc
		return step, nil, nil

	case wasmmod.OpMemoryGrow:
		return s.execMemoryGrow(step)

	case wasmmod.OpHostCall:
		return s.execHostCall(step, ins, host)

	default:
		if isLoad(ins.Opcode) {
			return s.execLoad(step, ins)
		}
		if isStore(ins.Opcode) {
			return s.execStore(step, ins)
		}
		return s.execArith(step, ins)
	}
}

func (s *state) execReturnStep(step TraceStep) (TraceStep, *Outcome, error) {
	result, halted, trapped, err := s.execReturn(s.cycle)
	if err != nil {
		return result, nil, err
	}
	if halted {
		return result, &Outcome{Values: snapshotStack(s)}, nil
	}
	if trapped {
		return result, &Outcome{Trapped: true, Trap: TrapUnreachable}, nil
	}
	return result, nil, nil
}

func (s *state) execReturn(cycle uint64) (TraceStep, bool, bool, error) {
	step := TraceStep{PCBefore: s.pc, Opcode: wasmmod.OpReturn, StepIndex: cycle}
	f := s.curFrame()
	ret := f.returnPC
	s.frames = s.frames[:len(s.frames)-1]
	if ret < 0 || len(s.frames) == 0 {
		step.PCAfter = s.pc
		return step, true, false, nil
	}
	s.pc = ret
	step.PCAfter = s.pc
	return step, false, false, nil
}

func (s *state) execCall(step TraceStep, target int) (TraceStep, *Outcome, error) {
	fns := s.module.Functions()
	if target < 0 || target >= len(fns) {
		return step, nil, &TypeMismatchError{Reason: "call target out of range"}
	}
	callee := &fns[target]
	nargs := len(s.module.Types()[callee.TypeIndex].Params)
	args := make([]uint64, 0, nargs)
	for i := 0; i < nargs; i++ {
		v, err := s.pop()
		if err != nil {
			return step, nil, err
		}
		args = append(args, v)
	}
	// args were popped in reverse order
	for i, j := 0, len(args)-1; i < j; i, j = i+1, j-1 {
		args[i], args[j] = args[j], args[i]
	}
	step.Pops = nargs

	if len(s.frames) >= 1024 {
		step.PCAfter = step.PCBefore
		return step, &Outcome{Trapped: true, Trap: TrapStackOverflow}, nil
	}

	locals := make([]uint64, len(callee.Locals)+nargs)
	copy(locals, args)

	s.frames = append(s.frames, frame{returnPC: s.pc + 1, locals: locals})
	prevFn := s.fn
	s.fn = callee
	s.pc = 0
	step.PCAfter = 0
	_ = prevFn
	return step, nil, nil
}

func (s *state) execCallIndirect(step TraceStep, ins wasmmod.Instr) (TraceStep, *Outcome, error) {
	idx, err := s.pop()
	if err != nil {
		return step, nil, err
	}
	step.Pops = 1
	step.PCAfter = step.PCBefore
	tables := s.module.Tables()
	if len(tables) == 0 {
		return step, &Outcome{Trapped: true, Trap: TrapIndirectCallOutOfBounds}, nil
	}
	tbl := tables[0]
	if idx >= uint64(len(tbl.Elements)) {
		return step, &Outcome{Trapped: true, Trap: TrapIndirectCallOutOfBounds}, nil
	}
	fnIdx := tbl.Elements[int(idx)]
	if fnIdx == 0xFFFFFFFF {
		return step, &Outcome{Trapped: true, Trap: TrapIndirectCallOutOfBounds}, nil
	}
	expectedType := int(ins.Args[0])
	fns := s.module.Functions()
	if int(fnIdx) >= len(fns) || fns[int(fnIdx)].TypeIndex != expectedType {
		return step, &Outcome{Trapped: true, Trap: TrapIndirectCallTypeMismatch}, nil
	}
	return s.execCall(step, int(fnIdx))
}

func (s *state) execMemoryGrow(step TraceStep) (TraceStep, *Outcome, error) {
	delta, err := s.pop()
	if err != nil {
		return step, nil, err
	}
	step.Pops = 1
	old := s.pages
	newPages := old + uint32(delta)
	if s.maxPages != 0 && newPages > s.maxPages {
		s.push(^uint64(0)) // -1
		step.Pushed = []uint64{^uint64(0)}
		s.pc++
		step.PCAfter = s.pc
		return step, nil, nil
	}
	s.memory = append(s.memory, make([]byte, int(delta)*65536)...)
	s.pages = newPages
	s.push(uint64(old))
	step.Pushed = []uint64{uint64(old)}
	s.pc++
	step.PCAfter = s.pc
	return step, nil, nil
}

func (s *state) execHostCall(step TraceStep, ins wasmmod.Instr, host hostio.Shim) (TraceStep, *Outcome, error) {
	if host == nil {
		return step, nil, &LinkError{Import: "host"}
	}
	argc := int(ins.Args[0])
	args := make([]uint64, argc)
	for i := argc - 1; i >= 0; i-- {
		v, err := s.pop()
		if err != nil {
			return step, nil, err
		}
		args[i] = v
	}
	step.Pops = argc

	argBytes := encodeUints(args)
	result, err := dispatchHost(host, int(ins.Args[1]), args)
	if err != nil {
		return step, nil, err
	}
	resultBytes := encodeUints(result)
	for _, v := range result {
		s.push(v)
	}
	step.Pushed = result

	// sha3, not crypto/sha256: matches the teacher's own channel.go hash
	// choice for its Fiat-Shamir transcript mixing.
	argsHash := sha3.Sum256(argBytes)
	resultHash := sha3.Sum256(resultBytes)
	step.HostCall = &HostStepRecord{Name: "host", ArgsHash: argsHash, ResultHash: resultHash}

	s.pc++
	step.PCAfter = s.pc
	return step, nil, nil
}

func dispatchHost(host hostio.Shim, selector int, args []uint64) ([]uint64, error) {
	switch selector {
	case 0: // now
		return []uint64{uint64(host.Now())}, nil
	case 1: // exit
		host.Exit(int32(args[0]))
		return nil, nil
	default:
		return nil, &ModuleInvalidError{Reason: "unknown host call selector"}
	}
}

func encodeUints(vs []uint64) []byte {
	out := make([]byte, len(vs)*8)
	for i, v := range vs {
		for b := 0; b < 8; b++ {
			out[i*8+b] = byte(v >> (8 * b))
		}
	}
	return out
}
