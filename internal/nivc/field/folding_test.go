package field

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
)

// trivialStepCircuit proves X*X == Y, the minimal frontend.Circuit shape
// exercising Folding's contract without needing a real execution or MCC
// step circuit wired in.
type trivialStepCircuit struct {
	X frontend.Variable `gnark:",public"`
	Y frontend.Variable `gnark:",public"`

	x, y int64
}

func (c *trivialStepCircuit) Define(api frontend.API) error {
	api.AssertIsEqual(api.Mul(c.X, c.X), c.Y)
	return nil
}

func (c *trivialStepCircuit) Assign() frontend.Circuit {
	return &trivialStepCircuit{X: c.x, Y: c.y}
}

func (c *trivialStepCircuit) PublicWires() []Scalar {
	return []Scalar{NewScalar(uint64(c.x)), NewScalar(uint64(c.y))}
}

func setupTrivial(t *testing.T) (groth16.ProvingKey, groth16.VerifyingKey) {
	t.Helper()
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &trivialStepCircuit{})
	if err != nil {
		t.Fatalf("compiling trivial step circuit: %v", err)
	}
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		t.Fatalf("groth16 setup: %v", err)
	}
	return pk, vk
}

func TestNonHidingFoldAndFinalize(t *testing.T) {
	pk, vk := setupTrivial(t)
	folder := NewNonHidingFolding()
	acc := folder.New(pk, vk, ecc.BN254)

	next, err := folder.Fold(acc, &trivialStepCircuit{x: 3, y: 9})
	if err != nil {
		t.Fatalf("Fold() failed: %v", err)
	}

	snark, err := folder.Finalize(next)
	if err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}
	if len(snark.Proofs) != 1 || len(snark.PublicWitnesses) != 1 || len(snark.ChunkWires) != 1 {
		t.Fatalf("Snark chunk history has wrong length: %+v", snark)
	}
	if len(snark.ChunkWires[0]) != 2 {
		t.Errorf("ChunkWires[0] has %d entries, want 2", len(snark.ChunkWires[0]))
	}
}

// TestNonHidingFoldAccumulatesChunkHistory folds twice and checks Finalize
// returns both chunks' proofs, not only the most recent one (the defect a
// single-proof-per-accumulator Snark would have: every earlier chunk would
// be silently dropped rather than represented in the final artifact).
func TestNonHidingFoldAccumulatesChunkHistory(t *testing.T) {
	pk, vk := setupTrivial(t)
	folder := NewNonHidingFolding()
	acc := folder.New(pk, vk, ecc.BN254)

	acc, err := folder.Fold(acc, &trivialStepCircuit{x: 3, y: 9})
	if err != nil {
		t.Fatalf("first Fold() failed: %v", err)
	}
	acc, err = folder.Fold(acc, &trivialStepCircuit{x: 5, y: 25})
	if err != nil {
		t.Fatalf("second Fold() failed: %v", err)
	}

	snark, err := folder.Finalize(acc)
	if err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}
	if len(snark.Proofs) != 2 || len(snark.PublicWitnesses) != 2 || len(snark.ChunkWires) != 2 {
		t.Fatalf("Snark chunk history has wrong length, want 2 of each: %+v", snark)
	}
	if !snark.ChunkWires[0][0].Equal(NewScalar(3)) || !snark.ChunkWires[1][0].Equal(NewScalar(5)) {
		t.Errorf("chunk wires out of order: %+v", snark.ChunkWires)
	}
}

func TestFoldNilAccumulatorFails(t *testing.T) {
	folder := NewNonHidingFolding()
	if _, err := folder.Fold(nil, &trivialStepCircuit{x: 1, y: 1}); err == nil {
		t.Error("Fold(nil, ...) should fail")
	}
}

func TestFinalizeBeforeFoldFails(t *testing.T) {
	pk, vk := setupTrivial(t)
	folder := NewNonHidingFolding()
	acc := folder.New(pk, vk, ecc.BN254)
	if _, err := folder.Finalize(acc); err == nil {
		t.Error("Finalize() before any Fold() should fail")
	}
}

func TestHidingFoldAndFinalize(t *testing.T) {
	pk, vk := setupTrivial(t)
	folder := NewHidingFolding()
	acc := folder.New(pk, vk, ecc.BN254)

	next, err := folder.Fold(acc, &trivialStepCircuit{x: 4, y: 16})
	if err != nil {
		t.Fatalf("Fold() failed: %v", err)
	}
	if _, err := folder.Finalize(next); err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}
}
