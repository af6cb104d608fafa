package tracer

import "github.com/zkwasm/nivc-engine/internal/nivc/wasmmod"

// MemOp is one memory read or write, the atomic unit of spec §3's mem_ops
// tuple: (address, value_before, value_after, is_write). K bounds how many
// of these one TraceStep may carry; an opcode touching more than K is split
// across multiple steps by the tracer (spec §3).
type MemOp struct {
	Address     uint64
	ValueBefore uint64
	ValueAfter  uint64
	IsWrite     bool
}

// MaxMemOpsPerStep is K from spec §3.
const MaxMemOpsPerStep = 2

// TraceStep is the atomic unit of proving (spec §3): a record of one
// opcode's state transition, carrying a stack delta instead of a full
// stack snapshot (spec §4.B: "the interpreter never stores whole stack
// snapshots, only deltas").
type TraceStep struct {
	PCBefore  int
	PCAfter   int
	Opcode    wasmmod.Opcode
	Pops      int
	Pushed    []uint64
	MemOps    []MemOp
	StepIndex uint64
	HostCall  *HostStepRecord // non-nil only for OpHostCall steps
}

// HostStepRecord is the opaque host-I/O record kept on a host-call step
// instead of ordinary memory operations. The step circuit does not read it,
// so it is not folded into memop_hash.
type HostStepRecord struct {
	Name       string
	ArgsHash   [32]byte
	ResultHash [32]byte
}

// ExecutionTrace is the finite non-empty ordered sequence of trace steps,
// padded at the tail with NO-OP steps until len ≡ 0 (mod S_exec) (spec §3).
type ExecutionTrace struct {
	Steps    []TraceStep
	Outcome  Outcome
	PaddedTo int
}

// NopStep is the deterministic padding step appended to satisfy the
// S_exec-alignment invariant. Its pre/post state are identical by
// construction (no stack or memory effect), mirroring spec §4.B's
// description of a trap step's post-state equaling its pre-state.
func NopStep(pc int, index uint64) TraceStep {
	return TraceStep{
		PCBefore:  pc,
		PCAfter:   pc,
		Opcode:    wasmmod.OpNop,
		StepIndex: index,
	}
}

// PadTo pads the trace tail with NopStep until its length is a multiple of
// sExec, preserving the invariant that the last non-pad step leaves the
// machine in a terminal state (spec §3).
func (t *ExecutionTrace) PadTo(sExec int) {
	if sExec <= 0 {
		return
	}
	lastPC := 0
	if n := len(t.Steps); n > 0 {
		lastPC = t.Steps[n-1].PCAfter
	}
	for len(t.Steps)%sExec != 0 {
		idx := uint64(len(t.Steps))
		t.Steps = append(t.Steps, NopStep(lastPC, idx))
	}
	t.PaddedTo = len(t.Steps)
}

// MemoryOpLog is the flattened, globally timestamped stream of mem_ops
// across the trace, in program order (spec §3). The MCC engine (component
// E) additionally produces an address-sorted view of this same log; that
// view is NOT stored here — see internal/nivc/mcc.
type MemoryOpLog struct {
	Entries  []TimestampedMemOp
	PaddedTo int
}

// TimestampedMemOp tags one MemOp with its global monotone timestamp.
type TimestampedMemOp struct {
	Timestamp uint64
	MemOp
}

// Append records the mem_ops of one trace step into the log in program
// order, advancing the global timestamp by one per entry.
func (l *MemoryOpLog) Append(ops []MemOp) {
	for _, op := range ops {
		l.Entries = append(l.Entries, TimestampedMemOp{
			Timestamp: uint64(len(l.Entries)),
			MemOp:     op,
		})
	}
}

// PrependInit adds the synthetic init pass: one (addr, 0, 0, write) per
// live address, before any program-order entry, per spec §3. liveAddresses
// must be in a deterministic order (the tracer sorts by address) so the
// resulting log is reproducible.
func (l *MemoryOpLog) PrependInit(liveAddresses []uint64) {
	init := make([]TimestampedMemOp, len(liveAddresses))
	for i, addr := range liveAddresses {
		init[i] = TimestampedMemOp{
			Timestamp: uint64(i),
			MemOp:     MemOp{Address: addr, ValueBefore: 0, ValueAfter: 0, IsWrite: true},
		}
	}
	shifted := make([]TimestampedMemOp, len(l.Entries))
	for i, e := range l.Entries {
		shifted[i] = TimestampedMemOp{Timestamp: e.Timestamp + uint64(len(init)), MemOp: e.MemOp}
	}
	l.Entries = append(init, shifted...)
}

// AppendFinal adds the synthetic final pass: one read per live address,
// carrying its last-known value, per spec §3.
func (l *MemoryOpLog) AppendFinal(finalValues map[uint64]uint64, liveAddressesSorted []uint64) {
	base := uint64(len(l.Entries))
	for i, addr := range liveAddressesSorted {
		v := finalValues[addr]
		l.Entries = append(l.Entries, TimestampedMemOp{
			Timestamp: base + uint64(i),
			MemOp:     MemOp{Address: addr, ValueBefore: v, ValueAfter: v, IsWrite: false},
		})
	}
}

// PadTo pads the tail of the log with repeated no-op reads of the last
// entry's address until the length is a multiple of sMcc (spec §3).
func (l *MemoryOpLog) PadTo(sMcc int) {
	if sMcc <= 0 || len(l.Entries) == 0 {
		return
	}
	last := l.Entries[len(l.Entries)-1]
	for len(l.Entries)%sMcc != 0 {
		l.Entries = append(l.Entries, TimestampedMemOp{
			Timestamp: uint64(len(l.Entries)),
			MemOp:     MemOp{Address: last.Address, ValueBefore: last.ValueAfter, ValueAfter: last.ValueAfter, IsWrite: false},
		})
	}
	l.PaddedTo = len(l.Entries)
}
