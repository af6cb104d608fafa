package nivcengine

import (
	"context"
	"testing"

	"github.com/zkwasm/nivc-engine/internal/nivc/wasmmod"
)

// fixtureModule is the minimal wasmmod.Module this package's tests build
// programs against, mirroring cmd/nivc-prover's jsonModule adapter shape.
type fixtureModule struct {
	functions []wasmmod.Function
	exports   []wasmmod.Export
}

func (m *fixtureModule) Types() []wasmmod.FuncType     { return nil }
func (m *fixtureModule) Functions() []wasmmod.Function { return m.functions }
func (m *fixtureModule) Memories() []wasmmod.Memory    { return nil }
func (m *fixtureModule) Globals() []wasmmod.Global     { return nil }
func (m *fixtureModule) Tables() []wasmmod.Table       { return nil }
func (m *fixtureModule) Imports() []wasmmod.Import     { return nil }
func (m *fixtureModule) Exports() []wasmmod.Export     { return m.exports }
func (m *fixtureModule) Digest() [32]byte              { return [32]byte{0x42} }

func (m *fixtureModule) EntryResolution(name string) (int, bool) {
	for _, e := range m.exports {
		if e.Name == name && e.Kind == wasmmod.ExportFunc {
			return e.Idx, true
		}
	}
	return 0, false
}

func addTwoFixture() *fixtureModule {
	return &fixtureModule{
		functions: []wasmmod.Function{{
			Instructions: []wasmmod.Instr{
				{Opcode: wasmmod.OpLocalGet, Args: []int64{0}},
				{Opcode: wasmmod.OpLocalGet, Args: []int64{1}},
				{Opcode: wasmmod.OpI32Add},
				{Opcode: wasmmod.OpReturn},
			},
		}},
		exports: []wasmmod.Export{{Name: "add", Kind: wasmmod.ExportFunc, Idx: 0}},
	}
}

// tinyConfig keeps Setup/Prove's real Groth16 cost bounded for this package's
// end-to-end test, the same tradeoff internal/nivc/driver's own tests make.
func tinyConfig() *Config {
	return DefaultConfig().WithSExec(1).WithSMcc(1)
}

func TestProveAndVerifyRoundTrip(t *testing.T) {
	params, err := Setup(tinyConfig())
	if err != nil {
		t.Fatalf("Setup() failed: %v", err)
	}

	proof, err := Prove(context.Background(), params, addTwoFixture(), Invocation{
		EntryFunction: "add",
		Args:          []uint64{3, 4},
	}, nil)
	if err != nil {
		t.Fatalf("Prove() failed: %v", err)
	}
	if proof.Instance.Outcome.Trapped {
		t.Fatalf("Prove() outcome trapped: %+v", proof.Instance.Outcome)
	}
	if len(proof.Instance.Outcome.Values) != 1 || proof.Instance.Outcome.Values[0] != 7 {
		t.Errorf("Prove() result = %v, want [7]", proof.Instance.Outcome.Values)
	}

	ok, err := Verify(params, proof)
	if err != nil {
		t.Fatalf("Verify() failed: %v", err)
	}
	if !ok {
		t.Error("Verify() returned false for a freshly produced proof")
	}
}

func TestVerifyRejectsMismatchedParams(t *testing.T) {
	params, err := Setup(tinyConfig())
	if err != nil {
		t.Fatalf("Setup() failed: %v", err)
	}
	proof, err := Prove(context.Background(), params, addTwoFixture(), Invocation{
		EntryFunction: "add",
		Args:          []uint64{1, 2},
	}, nil)
	if err != nil {
		t.Fatalf("Prove() failed: %v", err)
	}

	otherParams, err := Setup(tinyConfig())
	if err != nil {
		t.Fatalf("Setup() failed: %v", err)
	}

	ok, err := Verify(otherParams, proof)
	if err == nil || ok {
		t.Error("Verify() should reject a proof against a different parameter set's digest")
	}
}

// TestVerifyRejectsCorruptedProof confirms Verify performs a real
// cryptographic check rather than only comparing the public-parameters
// digest: flipping a byte inside a chunk's serialized Groth16 proof must
// make Verify fail, not silently accept.
func TestVerifyRejectsCorruptedProof(t *testing.T) {
	params, err := Setup(tinyConfig())
	if err != nil {
		t.Fatalf("Setup() failed: %v", err)
	}
	proof, err := Prove(context.Background(), params, addTwoFixture(), Invocation{
		EntryFunction: "add",
		Args:          []uint64{3, 4},
	}, nil)
	if err != nil {
		t.Fatalf("Prove() failed: %v", err)
	}
	if len(proof.ExecProof) == 0 || len(proof.ExecProof[0].ProofBytes) == 0 {
		t.Fatal("exec proof has no chunk proof bytes to corrupt")
	}

	corrupted := make([]byte, len(proof.ExecProof[0].ProofBytes))
	copy(corrupted, proof.ExecProof[0].ProofBytes)
	corrupted[0] ^= 0xFF
	proof.ExecProof[0].ProofBytes = corrupted

	ok, err := Verify(params, proof)
	if err == nil || ok {
		t.Error("Verify() should reject a proof with a corrupted exec chunk proof")
	}
}

// TestVerifyRejectsTamperedStepCount confirms a StepCount that disagrees
// with the number of folded exec chunks actually submitted is rejected,
// rather than being accepted because Verify never looked at it.
func TestVerifyRejectsTamperedStepCount(t *testing.T) {
	params, err := Setup(tinyConfig())
	if err != nil {
		t.Fatalf("Setup() failed: %v", err)
	}
	proof, err := Prove(context.Background(), params, addTwoFixture(), Invocation{
		EntryFunction: "add",
		Args:          []uint64{3, 4},
	}, nil)
	if err != nil {
		t.Fatalf("Prove() failed: %v", err)
	}

	proof.Instance.StepCount++

	ok, err := Verify(params, proof)
	if err == nil || ok {
		t.Error("Verify() should reject a tampered StepCount")
	}
}

func TestProveFailsOnMissingEntry(t *testing.T) {
	params, err := Setup(tinyConfig())
	if err != nil {
		t.Fatalf("Setup() failed: %v", err)
	}
	_, err = Prove(context.Background(), params, &fixtureModule{}, Invocation{EntryFunction: "missing"}, nil)
	if err == nil {
		t.Fatal("Prove() with a missing entry export should fail")
	}
	engErr, ok := err.(*EngineError)
	if !ok {
		t.Fatalf("error type = %T, want *EngineError", err)
	}
	if engErr.Code != ErrModule {
		t.Errorf("EngineError.Code = %v, want ErrModule", engErr.Code)
	}
}

func TestDigestIsDeterministic(t *testing.T) {
	params, err := Setup(tinyConfig())
	if err != nil {
		t.Fatalf("Setup() failed: %v", err)
	}
	a, err := Digest(params)
	if err != nil {
		t.Fatalf("Digest() failed: %v", err)
	}
	b, err := Digest(params)
	if err != nil {
		t.Fatalf("Digest() failed: %v", err)
	}
	if a != b {
		t.Error("Digest() is not deterministic for the same params")
	}
}
