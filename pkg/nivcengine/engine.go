package nivcengine

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"
	"github.com/rs/zerolog/log"

	"github.com/zkwasm/nivc-engine/internal/nivc/driver"
	"github.com/zkwasm/nivc-engine/internal/nivc/field"
	"github.com/zkwasm/nivc-engine/internal/nivc/setup"
	"github.com/zkwasm/nivc-engine/internal/nivc/tracer"
)

// Setup compiles the execution and MCC step-circuit shapes and runs
// Groth16's trusted setup for both (spec §4.G). Each call draws fresh
// Groth16 keys, so two calls with the same cfg yield parameter sets with
// different digests.
func Setup(cfg *Config) (*PublicParams, error) {
	params, err := setup.Setup(cfg)
	if err != nil {
		return nil, &EngineError{Code: ErrModule, Message: "setup failed", Cause: err}
	}
	return params, nil
}

// Digest returns the public-parameters digest embedded in every proof's
// public instance.
func Digest(params *PublicParams) ([32]byte, error) {
	d, err := params.Digest()
	if err != nil {
		return [32]byte{}, &EngineError{Code: ErrModule, Message: "computing params digest", Cause: err}
	}
	return d, nil
}

// Prove traces mod running inv, chunks the resulting execution trace and
// memory-op log into SExec/SMcc-sized folds, and folds them through the
// NIVC driver into a compressed Proof (spec §4.F/§6). A nil host shim is
// only valid for a module with no imports.
func Prove(ctx context.Context, params *PublicParams, mod Module, inv Invocation, host HostShim) (*Proof, error) {
	trace, memlog, err := tracer.Run(mod, tracer.Invocation{
		EntryFunction: inv.EntryFunction,
		Args:          inv.Args,
		Host:          host,
	})
	if err != nil {
		return nil, classifyTraceError(err)
	}

	trace.PadTo(params.SExec)
	memlog.PadTo(params.SMcc)

	moduleDigest := mod.Digest()
	programDigest := digestOfModule(moduleDigest)

	d := driver.New(params, field.NewNonHidingFolding())
	d.Init()

	for i := 0; i < len(trace.Steps); i += params.SExec {
		end := i + params.SExec
		if end > len(trace.Steps) {
			end = len(trace.Steps)
		}
		if err := d.ExecFold(trace.Steps[i:end], programDigest); err != nil {
			return nil, &EngineError{Code: ErrWitnessInconsistent, Message: "exec fold failed", Cause: err}
		}
	}

	for i := 0; i < len(memlog.Entries); i += params.SMcc {
		end := i + params.SMcc
		if end > len(memlog.Entries) {
			end = len(memlog.Entries)
		}
		if err := d.MccFold(memlog.Entries[i:end]); err != nil {
			return nil, &EngineError{Code: ErrWitnessInconsistent, Message: "mcc fold failed", Cause: err}
		}
	}

	if err := d.Join(); err != nil {
		return nil, &EngineError{Code: ErrWitnessInconsistent, Message: "join failed", Cause: err}
	}

	execSnark, mccSnark, err := d.Compress(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &EngineError{Code: ErrCancelled, Message: "proof run cancelled", Cause: ctx.Err()}
		}
		return nil, &EngineError{Code: ErrInvalidProof, Message: "compression failed", Cause: err}
	}

	paramsDigest, err := Digest(params)
	if err != nil {
		return nil, err
	}

	log.Info().Int("exec_folds", len(trace.Steps)/params.SExec).
		Int("mcc_folds", len(memlog.Entries)/params.SMcc).
		Msg("proof run complete")

	execChunks, err := toChunkProofs(execSnark)
	if err != nil {
		return nil, &EngineError{Code: ErrInvalidProof, SubKind: InvalidProofExec, Message: "serializing exec snark", Cause: err}
	}
	mccChunks, err := toChunkProofs(mccSnark)
	if err != nil {
		return nil, &EngineError{Code: ErrInvalidProof, SubKind: InvalidProofMcc, Message: "serializing mcc snark", Cause: err}
	}

	return &Proof{
		Instance: PublicInstance{
			ModuleDigest: moduleDigest,
			ParamsDigest: paramsDigest,
			Invocation:   inv,
			Outcome:      toOutcome(trace.Outcome),
			StepCount:    uint64(len(trace.Steps)),
		},
		ExecProof: execChunks,
		MccProof:  mccChunks,
	}, nil
}

func serializeProof(p interface {
	WriteTo(w io.Writer) (int64, error)
}) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := p.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// toChunkProofs serializes one side's full chunk history (every folded
// proof, its own public witness, and its public wires) into the wire-level
// ChunkProof slice a Proof carries, so Verify can later check every chunk
// rather than only the last one.
func toChunkProofs(snark *field.Snark) ([]ChunkProof, error) {
	chunks := make([]ChunkProof, len(snark.Proofs))
	for i, proof := range snark.Proofs {
		proofBytes, err := serializeProof(proof)
		if err != nil {
			return nil, fmt.Errorf("serializing chunk %d proof: %w", i, err)
		}
		witnessBytes, err := snark.PublicWitnesses[i].MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("serializing chunk %d witness: %w", i, err)
		}
		wires := make([][]byte, len(snark.ChunkWires[i]))
		for j, w := range snark.ChunkWires[i] {
			wires[j] = w.Bytes()
		}
		chunks[i] = ChunkProof{ProofBytes: proofBytes, WitnessBytes: witnessBytes, Wires: wires}
	}
	return chunks, nil
}

// decodeWires decodes one ChunkProof's public wires back into field scalars
// in declared circuit order.
func decodeWires(cp ChunkProof) []field.Scalar {
	out := make([]field.Scalar, len(cp.Wires))
	for i, b := range cp.Wires {
		out[i] = field.ScalarFromBytes(b)
	}
	return out
}

// verifyChunkProof deserializes and cryptographically verifies one chunk's
// Groth16 proof against its own public witness, the only way to actually
// know the chunk's claimed wires are attested to by a valid proof (spec §8:
// a corrupted or fabricated chunk must fail Verify).
func verifyChunkProof(curve ecc.ID, vk groth16.VerifyingKey, cp ChunkProof) error {
	proof := groth16.NewProof(curve)
	if _, err := proof.ReadFrom(bytes.NewReader(cp.ProofBytes)); err != nil {
		return fmt.Errorf("decoding proof: %w", err)
	}
	wit, err := witness.New(curve.ScalarField())
	if err != nil {
		return fmt.Errorf("allocating witness: %w", err)
	}
	if err := wit.UnmarshalBinary(cp.WitnessBytes); err != nil {
		return fmt.Errorf("decoding witness: %w", err)
	}
	if err := groth16.Verify(proof, vk, wit); err != nil {
		return fmt.Errorf("groth16 verify: %w", err)
	}
	return nil
}

// verifyExecSide cryptographically verifies every exec chunk and checks
// that chunk i's DigestIn/MemopDigestIn equal chunk i-1's DigestOut/
// MemopDigestOut (chunk 0 must start from the genesis digests), the
// continuity check that stands in for an embedded recursive verifier (see
// field.Accumulator's doc comment).
func verifyExecSide(params *PublicParams, chunks []ChunkProof) error {
	expectedDigestIn := field.NewScalar(0)
	expectedMemopDigestIn := field.NewScalar(0)
	for i, cp := range chunks {
		if err := verifyChunkProof(params.Curve, params.ExecVK, cp); err != nil {
			return fmt.Errorf("chunk %d: %w", i, err)
		}
		wires := decodeWires(cp)
		if len(wires) != 5 {
			return fmt.Errorf("chunk %d: malformed public wires", i)
		}
		digestIn, memopDigestIn, digestOut, memopDigestOut := wires[1], wires[2], wires[3], wires[4]
		if !digestIn.Equal(expectedDigestIn) {
			return fmt.Errorf("chunk %d: digest continuity broken", i)
		}
		if !memopDigestIn.Equal(expectedMemopDigestIn) {
			return fmt.Errorf("chunk %d: memop digest continuity broken", i)
		}
		expectedDigestIn, expectedMemopDigestIn = digestOut, memopDigestOut
	}
	return nil
}

// verifyMccSide cryptographically verifies every mcc chunk and checks that
// chunk i's ProductIn equals chunk i-1's ProductOut (chunk 0 must start from
// the genesis product of 1), mirroring verifyExecSide for the permutation
// argument's running product.
func verifyMccSide(params *PublicParams, chunks []ChunkProof) error {
	expectedProductIn := field.NewScalar(1)
	for i, cp := range chunks {
		if err := verifyChunkProof(params.Curve, params.MccVK, cp); err != nil {
			return fmt.Errorf("chunk %d: %w", i, err)
		}
		wires := decodeWires(cp)
		if len(wires) != 4 {
			return fmt.Errorf("chunk %d: malformed public wires", i)
		}
		productIn, productOut := wires[1], wires[2]
		if !productIn.Equal(expectedProductIn) {
			return fmt.Errorf("chunk %d: product continuity broken", i)
		}
		expectedProductIn = productOut
	}
	return nil
}

// Verify cryptographically checks every folded chunk's Groth16 proof on
// both sides, checks digest/product continuity across chunks, and checks
// that the claimed StepCount and public-parameters digest match (spec §4.F's
// join invariant and §8's soundness properties). Unlike a digest-only check,
// this rejects a tampered StepCount, a corrupted proof byte, or a chunk
// whose digests don't chain to its neighbors. It does not bind
// Instance.Outcome.Values into any circuit's public wires yet (recorded as
// an Open Question in DESIGN.md): tampering with the claimed return values
// alone is not caught by this Verify.
func Verify(params *PublicParams, proof *Proof) (bool, error) {
	paramsDigest, err := Digest(params)
	if err != nil {
		return false, err
	}
	if paramsDigest != proof.Instance.ParamsDigest {
		return false, &EngineError{
			Code:    ErrInvalidProof,
			SubKind: InvalidProofJoin,
			Message: "public parameters digest mismatch",
		}
	}

	if len(proof.ExecProof) == 0 || uint64(len(proof.ExecProof))*uint64(params.SExec) != proof.Instance.StepCount {
		return false, &EngineError{
			Code:    ErrInvalidProof,
			SubKind: InvalidProofExec,
			Message: "step count does not match the number of folded exec chunks",
		}
	}

	if err := verifyExecSide(params, proof.ExecProof); err != nil {
		return false, &EngineError{Code: ErrInvalidProof, SubKind: InvalidProofExec, Message: "exec proof verification failed", Cause: err}
	}
	if err := verifyMccSide(params, proof.MccProof); err != nil {
		return false, &EngineError{Code: ErrInvalidProof, SubKind: InvalidProofMcc, Message: "mcc proof verification failed", Cause: err}
	}
	return true, nil
}

func classifyTraceError(err error) error {
	switch err.(type) {
	case *tracer.ModuleInvalidError, *tracer.LinkError, *tracer.TypeMismatchError:
		return &EngineError{Code: ErrModule, Message: "module validation failed", Cause: err}
	case *tracer.UnsupportedOpcodeError:
		return &EngineError{Code: ErrUnsupportedOpcode, Message: "unsupported opcode reachable from entry", Cause: err}
	case *tracer.ResourceExhaustedError:
		return &EngineError{Code: ErrResourceExhausted, Message: "resource budget exceeded", Cause: err}
	default:
		return &EngineError{Code: ErrModule, Message: "trace failed", Cause: err}
	}
}

func toOutcome(o tracer.Outcome) Outcome {
	return Outcome{Trapped: o.Trapped, Trap: o.Trap.String(), Values: o.Values}
}

func digestOfModule(d [32]byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(d[i]) << (8 * i)
	}
	return v
}
