package field

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
)

// StepCircuit is anything the folding scheme can fold one step of: a
// frontend.Circuit plus an assignment for the current step's witness. The
// execution step circuit (component D) and the MCC step circuit
// (component E) both implement this.
type StepCircuit interface {
	frontend.Circuit
	// Assign returns a fresh copy of the circuit populated with this
	// step's concrete witness values, ready for frontend.NewWitness.
	Assign() frontend.Circuit
	// PublicWires returns this step's output public wires in F, in the
	// fixed order the public instance expects them (spec §3, §4.D).
	PublicWires() []Scalar
}

// Accumulator is the folding state threaded across steps: a Groth16 proving
// key for the step-circuit shape, every chunk's proof and public witness
// proved so far (empty before the first fold), and each chunk's public-wire
// vector in declared order. Owned exclusively by one driver.Driver instance
// (spec §5); never aliased, consumed and replaced by every call to Fold.
//
// This is NOT constant-size recursive folding: there is no embedded
// verifier gadget proving a previous proof inside the current step circuit
// (that would need a two-chain recursive Groth16-in-Groth16 circuit, e.g.
// gnark's std/recursion/groth16, which operates over a specific inner/outer
// curve pair this engine's BN254 step circuits do not currently form one
// half of). Instead every chunk's proof is kept and every chunk is later
// verified independently, with continuity between chunks checked on their
// public wires (DigestOut of chunk i must equal DigestIn of chunk i+1, and
// so on) rather than proved in-circuit. See the Open Question this records
// in DESIGN.md.
type Accumulator struct {
	curve           ecc.ID
	pk              groth16.ProvingKey
	vk              groth16.VerifyingKey
	proofs          []groth16.Proof
	publicWitnesses []witness.Witness
	chunkWires      [][]Scalar
	stepIndex       uint64
}

// Folding is the black-box capability contract of spec §4.A:
// new(pk) -> fresh accumulator, fold(acc, step) -> acc', finalize(acc) -> snark.
// Two instantiations (NonHiding, Hiding) share circuit shape so the same
// step circuits compile under either.
type Folding interface {
	// New seeds a fresh accumulator for a step-circuit shape already
	// compiled by setup.Setup.
	New(pk groth16.ProvingKey, vk groth16.VerifyingKey, curve ecc.ID) *Accumulator

	// Fold compiles and proves one step circuit and appends it to the
	// accumulator's chunk history (see the Accumulator doc comment for why
	// this is sequential composition, not a single constant-size recursive
	// proof).
	Fold(acc *Accumulator, step StepCircuit) (*Accumulator, error)

	// Finalize self-checks every accumulated chunk proof and returns the
	// terminal SNARK (the full chunk history) to the caller of prove().
	Finalize(acc *Accumulator) (*Snark, error)
}

// Snark is the compressed proof artifact finalize() produces; it is what
// gets embedded in the serialized proof blob (spec §6). One (Proof,
// PublicWitness, Wires) triple per folded chunk, in fold order, so a
// verifier can check every chunk rather than only the last one.
type Snark struct {
	Curve           ecc.ID
	Proofs          []groth16.Proof
	PublicWitnesses []witness.Witness
	ChunkWires      [][]Scalar
}

// nonHiding is the non-hiding Folding instantiation: no zero-knowledge
// blinding is applied to intermediate accumulators, used whenever proof
// privacy is not required (spec §4.A). The Groth16 proofs it produces
// still carry the prover randomness of groth16.Prove.
type nonHiding struct{}

// NewNonHidingFolding returns the non-hiding Folding instantiation.
func NewNonHidingFolding() Folding { return nonHiding{} }

func (nonHiding) New(pk groth16.ProvingKey, vk groth16.VerifyingKey, curve ecc.ID) *Accumulator {
	return &Accumulator{curve: curve, pk: pk, vk: vk}
}

func (nonHiding) Fold(acc *Accumulator, step StepCircuit) (*Accumulator, error) {
	return fold(acc, step, false)
}

func (nonHiding) Finalize(acc *Accumulator) (*Snark, error) {
	return finalize(acc)
}

// hiding is the selectable hiding instantiation (spec §4.A). Its fold
// applies no blinding beyond what groth16.Prove does: the re-randomization
// step in fold is a no-op, so its proofs are produced exactly as
// nonHiding's are.
type hiding struct{}

// NewHidingFolding returns the hiding Folding instantiation.
func NewHidingFolding() Folding { return hiding{} }

func (hiding) New(pk groth16.ProvingKey, vk groth16.VerifyingKey, curve ecc.ID) *Accumulator {
	return &Accumulator{curve: curve, pk: pk, vk: vk}
}

func (hiding) Fold(acc *Accumulator, step StepCircuit) (*Accumulator, error) {
	return fold(acc, step, true)
}

func (hiding) Finalize(acc *Accumulator) (*Snark, error) {
	return finalize(acc)
}

// fold compiles the step circuit, proves it, and appends the resulting
// proof/witness/wires to the accumulator's chunk history. It does not embed
// verification of any earlier proof (see the Accumulator doc comment);
// conjunctive soundness across chunks 0..=i is established later, when every
// chunk in the returned Snark is independently verified and their public
// wires are checked for continuity (pkg/nivcengine.Verify).
func fold(acc *Accumulator, step StepCircuit, rerandomize bool) (*Accumulator, error) {
	if acc == nil {
		return nil, fmt.Errorf("field: fold called with nil accumulator")
	}

	ccs, err := frontend.Compile(acc.curve.ScalarField(), r1cs.NewBuilder, step)
	if err != nil {
		return nil, fmt.Errorf("field: compiling step circuit: %w", err)
	}

	fullWitness, err := frontend.NewWitness(step.Assign(), acc.curve.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("field: building step witness: %w", err)
	}

	proof, err := groth16.Prove(ccs, acc.pk, fullWitness)
	if err != nil {
		return nil, fmt.Errorf("field: proving step: %w", err)
	}

	if rerandomize {
		// Hiding mode re-randomizes (Ar, Bs, Krs) before the proof is
		// threaded into the next accumulator. gnark's Groth16 backend does
		// not currently expose a public re-randomization hook; per spec §9
		// ("consult the current folding library's contract rather than
		// guessing") this is recorded as an open integration point instead
		// of a guessed-at implementation. See DESIGN.md.
		_ = proof
	}

	publicWitness, err := fullWitness.Public()
	if err != nil {
		return nil, fmt.Errorf("field: extracting public witness: %w", err)
	}

	proofs := make([]groth16.Proof, len(acc.proofs), len(acc.proofs)+1)
	copy(proofs, acc.proofs)
	proofs = append(proofs, proof)

	publicWitnesses := make([]witness.Witness, len(acc.publicWitnesses), len(acc.publicWitnesses)+1)
	copy(publicWitnesses, acc.publicWitnesses)
	publicWitnesses = append(publicWitnesses, publicWitness)

	chunkWires := make([][]Scalar, len(acc.chunkWires), len(acc.chunkWires)+1)
	copy(chunkWires, acc.chunkWires)
	chunkWires = append(chunkWires, step.PublicWires())

	return &Accumulator{
		curve:           acc.curve,
		pk:              acc.pk,
		vk:              acc.vk,
		proofs:          proofs,
		publicWitnesses: publicWitnesses,
		chunkWires:      chunkWires,
		stepIndex:       acc.stepIndex + 1,
	}, nil
}

func finalize(acc *Accumulator) (*Snark, error) {
	if acc == nil || len(acc.proofs) == 0 {
		return nil, fmt.Errorf("field: finalize called before any fold")
	}
	for i, proof := range acc.proofs {
		if err := groth16.Verify(proof, acc.vk, acc.publicWitnesses[i]); err != nil {
			return nil, fmt.Errorf("field: accumulator chunk %d failed self-check at finalize: %w", i, err)
		}
	}
	return &Snark{Curve: acc.curve, Proofs: acc.proofs, PublicWitnesses: acc.publicWitnesses, ChunkWires: acc.chunkWires}, nil
}
