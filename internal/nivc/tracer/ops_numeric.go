package tracer

import "github.com/zkwasm/nivc-engine/internal/nivc/wasmmod"

func isLoad(op wasmmod.Opcode) bool {
	switch op {
	case wasmmod.OpI32Load, wasmmod.OpI32Load8S, wasmmod.OpI32Load8U,
		wasmmod.OpI32Load16S, wasmmod.OpI32Load16U, wasmmod.OpI64Load:
		return true
	}
	return false
}

func isStore(op wasmmod.Opcode) bool {
	switch op {
	case wasmmod.OpI32Store, wasmmod.OpI32Store8, wasmmod.OpI32Store16, wasmmod.OpI64Store:
		return true
	}
	return false
}

func loadWidth(op wasmmod.Opcode) (size uint64, signExtend bool) {
	switch op {
	case wasmmod.OpI32Load8S:
		return 1, true
	case wasmmod.OpI32Load8U:
		return 1, false
	case wasmmod.OpI32Load16S:
		return 2, true
	case wasmmod.OpI32Load16U:
		return 2, false
	case wasmmod.OpI32Load:
		return 4, false
	case wasmmod.OpI64Load:
		return 8, false
	}
	return 4, false
}

func storeWidth(op wasmmod.Opcode) uint64 {
	switch op {
	case wasmmod.OpI32Store8:
		return 1
	case wasmmod.OpI32Store16:
		return 2
	case wasmmod.OpI32Store:
		return 4
	case wasmmod.OpI64Store:
		return 8
	}
	return 4
}

// memWords splits a [addr, addr+size) access into word-aligned sub-spans, at
// most MaxMemOpsPerStep of them, matching the tracer's "i64 ops span two
// words" convention (state.go) and trace.go's per-step MemOp bound.
func memWords(addr, size uint64) [][2]uint64 {
	if size <= wordSize {
		return [][2]uint64{{addr, size}}
	}
	return [][2]uint64{{addr, wordSize}, {addr + wordSize, size - wordSize}}
}

func signExtend(v, size uint64) uint64 {
	switch size {
	case 1:
		if v&0x80 != 0 {
			return v | ^uint64(0xFF)
		}
	case 2:
		if v&0x8000 != 0 {
			return v | ^uint64(0xFFFF)
		}
	}
	return v
}

func (s *state) execLoad(step TraceStep, ins wasmmod.Instr) (TraceStep, *Outcome, error) {
	base, err := s.pop()
	if err != nil {
		return step, nil, err
	}
	step.Pops = 1
	offset := uint64(0)
	if len(ins.Args) > 0 {
		offset = uint64(ins.Args[0])
	}
	addr := base + offset
	size, signed := loadWidth(ins.Opcode)

	var result uint64
	var shift uint64
	for _, span := range memWords(addr, size) {
		v, ok := s.readMem(span[0], span[1])
		if !ok {
			step.PCAfter = step.PCBefore
			return step, &Outcome{Trapped: true, Trap: TrapOutOfBoundsMemory}, nil
		}
		step.MemOps = append(step.MemOps, MemOp{Address: span[0], ValueBefore: v, ValueAfter: v, IsWrite: false})
		result |= v << shift
		shift += span[1] * 8
	}
	if signed {
		result = signExtend(result, size)
	}
	s.push(result)
	step.Pushed = []uint64{result}
	s.pc++
	step.PCAfter = s.pc
	return step, nil, nil
}

func (s *state) execStore(step TraceStep, ins wasmmod.Instr) (TraceStep, *Outcome, error) {
	v, err := s.pop()
	if err != nil {
		return step, nil, err
	}
	base, err := s.pop()
	if err != nil {
		return step, nil, err
	}
	step.Pops = 2
	offset := uint64(0)
	if len(ins.Args) > 0 {
		offset = uint64(ins.Args[0])
	}
	addr := base + offset
	size := storeWidth(ins.Opcode)

	shift := uint64(0)
	for _, span := range memWords(addr, size) {
		before, ok := s.readMem(span[0], span[1])
		if !ok {
			step.PCAfter = step.PCBefore
			return step, &Outcome{Trapped: true, Trap: TrapOutOfBoundsMemory}, nil
		}
		word := (v >> shift) & widthMask(span[1])
		if !s.writeMem(span[0], span[1], word) {
			step.PCAfter = step.PCBefore
			return step, &Outcome{Trapped: true, Trap: TrapOutOfBoundsMemory}, nil
		}
		step.MemOps = append(step.MemOps, MemOp{Address: span[0], ValueBefore: before, ValueAfter: word, IsWrite: true})
		shift += span[1] * 8
	}
	s.pc++
	step.PCAfter = s.pc
	return step, nil, nil
}

func widthMask(size uint64) uint64 {
	if size >= 8 {
		return ^uint64(0)
	}
	return (uint64(1) << (size * 8)) - 1
}

// execArith handles every numeric comparison, bitwise and arithmetic opcode
// (spec §4.C's "arithmetic" and "compare" gadget families). Traps are raised
// for division by zero and the INT_MIN / -1 signed-overflow edge case rather
// than letting Go's runtime panic.
func (s *state) execArith(step TraceStep, ins wasmmod.Instr) (TraceStep, *Outcome, error) {
	pops, _ := ins.Opcode.StackEffect()
	if pops == 1 {
		a, err := s.pop()
		if err != nil {
			return step, nil, err
		}
		step.Pops = 1
		var r uint64
		switch ins.Opcode {
		case wasmmod.OpI32Eqz:
			r = boolToU64(uint32(a) == 0)
		case wasmmod.OpI64Eqz:
			r = boolToU64(a == 0)
		default:
			return step, nil, &TypeMismatchError{Reason: "unrecognized unary opcode"}
		}
		s.push(r)
		step.Pushed = []uint64{r}
		s.pc++
		step.PCAfter = s.pc
		return step, nil, nil
	}

	b, err := s.pop()
	if err != nil {
		return step, nil, err
	}
	a, err := s.pop()
	if err != nil {
		return step, nil, err
	}
	step.Pops = 2

	r, trap, err := evalBinary(ins.Opcode, a, b)
	if err != nil {
		return step, nil, err
	}
	if trap != NoTrap {
		step.PCAfter = step.PCBefore
		return step, &Outcome{Trapped: true, Trap: trap}, nil
	}
	s.push(r)
	step.Pushed = []uint64{r}
	s.pc++
	step.PCAfter = s.pc
	return step, nil, nil
}

func boolToU64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func evalBinary(op wasmmod.Opcode, a, b uint64) (uint64, TrapKind, error) {
	a32, b32 := uint32(a), uint32(b)
	s32a, s32b := int32(a32), int32(b32)
	s64a, s64b := int64(a), int64(b)

	switch op {
	case wasmmod.OpI32Add:
		return uint64(a32 + b32), NoTrap, nil
	case wasmmod.OpI32Sub:
		return uint64(a32 - b32), NoTrap, nil
	case wasmmod.OpI32Mul:
		return uint64(a32 * b32), NoTrap, nil
	case wasmmod.OpI32DivS:
		if s32b == 0 {
			return 0, TrapDivideByZero, nil
		}
		if s32a == -2147483648 && s32b == -1 {
			return 0, TrapIntegerOverflow, nil
		}
		return uint64(uint32(s32a / s32b)), NoTrap, nil
	case wasmmod.OpI32DivU:
		if b32 == 0 {
			return 0, TrapDivideByZero, nil
		}
		return uint64(a32 / b32), NoTrap, nil
	case wasmmod.OpI32RemS:
		if s32b == 0 {
			return 0, TrapDivideByZero, nil
		}
		if s32a == -2147483648 && s32b == -1 {
			return 0, NoTrap, nil
		}
		return uint64(uint32(s32a % s32b)), NoTrap, nil
	case wasmmod.OpI32RemU:
		if b32 == 0 {
			return 0, TrapDivideByZero, nil
		}
		return uint64(a32 % b32), NoTrap, nil
	case wasmmod.OpI32And:
		return uint64(a32 & b32), NoTrap, nil
	case wasmmod.OpI32Or:
		return uint64(a32 | b32), NoTrap, nil
	case wasmmod.OpI32Xor:
		return uint64(a32 ^ b32), NoTrap, nil
	case wasmmod.OpI32Shl:
		return uint64(a32 << (b32 & 31)), NoTrap, nil
	case wasmmod.OpI32ShrS:
		return uint64(uint32(s32a >> (b32 & 31))), NoTrap, nil
	case wasmmod.OpI32ShrU:
		return uint64(a32 >> (b32 & 31)), NoTrap, nil
	case wasmmod.OpI32Rotl:
		n := b32 & 31
		return uint64(a32<<n | a32>>(32-n)), NoTrap, nil
	case wasmmod.OpI32Rotr:
		n := b32 & 31
		return uint64(a32>>n | a32<<(32-n)), NoTrap, nil
	case wasmmod.OpI32Eq:
		return boolToU64(a32 == b32), NoTrap, nil
	case wasmmod.OpI32Ne:
		return boolToU64(a32 != b32), NoTrap, nil
	case wasmmod.OpI32LtS:
		return boolToU64(s32a < s32b), NoTrap, nil
	case wasmmod.OpI32LtU:
		return boolToU64(a32 < b32), NoTrap, nil
	case wasmmod.OpI32GtS:
		return boolToU64(s32a > s32b), NoTrap, nil
	case wasmmod.OpI32GtU:
		return boolToU64(a32 > b32), NoTrap, nil
	case wasmmod.OpI32LeS:
		return boolToU64(s32a <= s32b), NoTrap, nil
	case wasmmod.OpI32LeU:
		return boolToU64(a32 <= b32), NoTrap, nil
	case wasmmod.OpI32GeS:
		return boolToU64(s32a >= s32b), NoTrap, nil
	case wasmmod.OpI32GeU:
		return boolToU64(a32 >= b32), NoTrap, nil

	case wasmmod.OpI64Add:
		return a + b, NoTrap, nil
	case wasmmod.OpI64Sub:
		return a - b, NoTrap, nil
	case wasmmod.OpI64Mul:
		return a * b, NoTrap, nil
	case wasmmod.OpI64DivS:
		if s64b == 0 {
			return 0, TrapDivideByZero, nil
		}
		if s64a == -9223372036854775808 && s64b == -1 {
			return 0, TrapIntegerOverflow, nil
		}
		return uint64(s64a / s64b), NoTrap, nil
	case wasmmod.OpI64DivU:
		if b == 0 {
			return 0, TrapDivideByZero, nil
		}
		return a / b, NoTrap, nil
	case wasmmod.OpI64RemS:
		if s64b == 0 {
			return 0, TrapDivideByZero, nil
		}
		if s64a == -9223372036854775808 && s64b == -1 {
			return 0, NoTrap, nil
		}
		return uint64(s64a % s64b), NoTrap, nil
	case wasmmod.OpI64RemU:
		if b == 0 {
			return 0, TrapDivideByZero, nil
		}
		return a % b, NoTrap, nil
	case wasmmod.OpI64And:
		return a & b, NoTrap, nil
	case wasmmod.OpI64Or:
		return a | b, NoTrap, nil
	case wasmmod.OpI64Xor:
		return a ^ b, NoTrap, nil
	case wasmmod.OpI64Shl:
		return a << (b & 63), NoTrap, nil
	case wasmmod.OpI64ShrS:
		return uint64(s64a >> (b & 63)), NoTrap, nil
	case wasmmod.OpI64ShrU:
		return a >> (b & 63), NoTrap, nil
	case wasmmod.OpI64Rotl:
		n := b & 63
		return a<<n | a>>(64-n), NoTrap, nil
	case wasmmod.OpI64Rotr:
		n := b & 63
		return a>>n | a<<(64-n), NoTrap, nil
	case wasmmod.OpI64Eq:
		return boolToU64(a == b), NoTrap, nil
	case wasmmod.OpI64Ne:
		return boolToU64(a != b), NoTrap, nil
	case wasmmod.OpI64LtS:
		return boolToU64(s64a < s64b), NoTrap, nil
	case wasmmod.OpI64LtU:
		return boolToU64(a < b), NoTrap, nil
	case wasmmod.OpI64GtS:
		return boolToU64(s64a > s64b), NoTrap, nil
	case wasmmod.OpI64GtU:
		return boolToU64(a > b), NoTrap, nil
	case wasmmod.OpI64LeS:
		return boolToU64(s64a <= s64b), NoTrap, nil
	case wasmmod.OpI64LeU:
		return boolToU64(a <= b), NoTrap, nil
	case wasmmod.OpI64GeS:
		return boolToU64(s64a >= s64b), NoTrap, nil
	case wasmmod.OpI64GeU:
		return boolToU64(a >= b), NoTrap, nil
	}
	return 0, NoTrap, &TypeMismatchError{Reason: "unrecognized binary opcode"}
}
