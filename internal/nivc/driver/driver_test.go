package driver

import (
	"context"
	"testing"

	"github.com/zkwasm/nivc-engine/internal/nivc/field"
	"github.com/zkwasm/nivc-engine/internal/nivc/setup"
	"github.com/zkwasm/nivc-engine/internal/nivc/tracer"
	"github.com/zkwasm/nivc-engine/internal/nivc/wasmmod"
)

// tinyParams compiles both step-circuit shapes at the smallest fold width,
// keeping this package's real Groth16 setup/prove/verify cost bounded while
// still exercising the full driver state machine end to end.
func tinyParams(t *testing.T) *setup.PublicParams {
	t.Helper()
	params, err := setup.Setup(setup.DefaultConfig().WithSExec(1).WithSMcc(1))
	if err != nil {
		t.Fatalf("setup.Setup() failed: %v", err)
	}
	return params
}

func TestDriverFullLifecycle(t *testing.T) {
	params := tinyParams(t)
	d := New(params, field.NewNonHidingFolding())
	d.Init()

	chunk := []tracer.TraceStep{{Opcode: wasmmod.OpNop, PCBefore: 0, PCAfter: 0}}
	if err := d.ExecFold(chunk, 1); err != nil {
		t.Fatalf("ExecFold() failed: %v", err)
	}

	memChunk := []tracer.TimestampedMemOp{
		{Timestamp: 0, MemOp: tracer.MemOp{Address: 1, ValueBefore: 0, ValueAfter: 5, IsWrite: true}},
	}
	if err := d.MccFold(memChunk); err != nil {
		t.Fatalf("MccFold() failed: %v", err)
	}

	if err := d.Join(); err != nil {
		t.Fatalf("Join() failed: %v", err)
	}

	execSnark, mccSnark, err := d.Compress(context.Background())
	if err != nil {
		t.Fatalf("Compress() failed: %v", err)
	}
	if execSnark == nil || mccSnark == nil {
		t.Fatal("Compress() returned a nil snark")
	}
	if len(execSnark.Proofs) != 1 || len(execSnark.ChunkWires) != 1 {
		t.Fatalf("exec snark chunk history has wrong length: %+v", execSnark)
	}
	if len(mccSnark.Proofs) != 1 || len(mccSnark.ChunkWires) != 1 {
		t.Fatalf("mcc snark chunk history has wrong length: %+v", mccSnark)
	}
	if len(execSnark.ChunkWires[0]) == 0 {
		t.Error("exec snark chunk has no public wires")
	}
	if len(mccSnark.ChunkWires[0]) == 0 {
		t.Error("mcc snark chunk has no public wires")
	}
}

func TestExecFoldBeforeInitFails(t *testing.T) {
	params := tinyParams(t)
	d := New(params, field.NewNonHidingFolding())
	chunk := []tracer.TraceStep{{Opcode: wasmmod.OpNop}}
	if err := d.ExecFold(chunk, 1); err == nil {
		t.Error("ExecFold() before Init() should fail")
	}
}

func TestMccFoldBeforeInitFails(t *testing.T) {
	params := tinyParams(t)
	d := New(params, field.NewNonHidingFolding())
	memChunk := []tracer.TimestampedMemOp{{MemOp: tracer.MemOp{Address: 1}}}
	if err := d.MccFold(memChunk); err == nil {
		t.Error("MccFold() before Init() should fail")
	}
}

func TestJoinBeforeFoldingFails(t *testing.T) {
	params := tinyParams(t)
	d := New(params, field.NewNonHidingFolding())
	if err := d.Join(); err == nil {
		t.Error("Join() before both sides folded should fail")
	}
}

func TestMccFoldRejectsInconsistentMemory(t *testing.T) {
	params := tinyParams(t)
	d := New(params, field.NewNonHidingFolding())
	d.Init()

	memChunk := []tracer.TimestampedMemOp{
		{Timestamp: 0, MemOp: tracer.MemOp{Address: 1, ValueBefore: 0, ValueAfter: 5, IsWrite: true}},
		{Timestamp: 1, MemOp: tracer.MemOp{Address: 1, ValueBefore: 999, ValueAfter: 999, IsWrite: false}},
	}
	if err := d.MccFold(memChunk); err == nil {
		t.Error("MccFold() with a read disagreeing with the prior write should fail")
	}
}
