package nivcengine

import (
	"github.com/zkwasm/nivc-engine/internal/nivc/hostio"
	"github.com/zkwasm/nivc-engine/internal/nivc/setup"
	"github.com/zkwasm/nivc-engine/internal/nivc/wasmmod"
)

// Module is the validated WASM module contract. Parsing module bytes is out
// of scope for this engine; callers supply an implementation of this
// interface (internal/nivc/wasmmod.Module).
type Module = wasmmod.Module

// HostShim answers the host-I/O calls a traced program may import.
type HostShim = hostio.Shim

// Invocation names the exported entry function and its ordered argument
// values for one proof run.
type Invocation struct {
	EntryFunction string
	Args          []uint64
}

// Config is the engine's sizing and security configuration, mirrored on
// internal/nivc/setup.Config.
type Config = setup.Config

// DefaultConfig returns the engine's default configuration.
func DefaultConfig() *Config { return setup.DefaultConfig() }

// PublicParams is the compiled parameter set Setup produces and Prove/Verify
// consume.
type PublicParams = setup.PublicParams

// Outcome is the terminal result of the traced program: either a normal
// return with result values, or a trap naming its kind.
type Outcome struct {
	Trapped bool
	Trap    string
	Values  []int64
}

// PublicInstance is every value a verifier checks a Proof against, without
// needing the witness: the module digest, the public parameters digest, the
// invocation's public input/output, and the trace's step count (spec
// §3/§6). The per-chunk transcript digests are not here; they travel in
// each ChunkProof's Wires.
type PublicInstance struct {
	ModuleDigest [32]byte
	ParamsDigest [32]byte
	Invocation   Invocation
	Outcome      Outcome
	StepCount    uint64
}

// ChunkProof is one folded chunk's self-contained Groth16 artifact: the
// proof bytes, the proof's own public witness (needed by groth16.Verify),
// and that chunk's public wires in declared circuit order (needed to check
// continuity against the neighboring chunks, since a Groth16 public witness
// alone does not expose its individual field elements without re-parsing
// against the circuit shape). Verify reconstructs nothing from the witness
// beyond checking it proves; continuity is checked directly off Wires.
type ChunkProof struct {
	ProofBytes   []byte
	WitnessBytes []byte
	Wires        [][]byte
}

// Proof is the compressed artifact Prove returns: the full per-chunk
// history of both terminal SNARKs (execution side, MCC side) plus the
// public instance they attest to. Every chunk is verified independently by
// Verify, not only the last one (spec §3/§8).
type Proof struct {
	Instance  PublicInstance
	ExecProof []ChunkProof
	MccProof  []ChunkProof
}
