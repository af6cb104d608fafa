package setup

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"

	"github.com/zkwasm/nivc-engine/internal/nivc/field"
	"github.com/zkwasm/nivc-engine/internal/nivc/mcc"
	"github.com/zkwasm/nivc-engine/internal/nivc/stepcircuit"
)

// magic and version identify the persisted public-parameters wire format
// (spec §6): 4-byte magic, 2-byte version, length-prefixed sections.
var magic = [4]byte{'N', 'I', 'V', 'C'}

const formatVersion uint16 = 1

// PublicParams is everything Setup produces: one compiled Groth16 key pair
// per step-circuit shape, both on the primary curve of the folding cycle,
// plus the sizing Config they were compiled for. Not deterministic: each
// Setup call draws fresh Groth16 toxic waste, so two calls with the same
// Config produce different keys and a different Digest. Only the KZG
// commitment SRS is fixed.
type PublicParams struct {
	Curve ecc.ID
	SExec int
	SMcc  int

	ExecPK groth16.ProvingKey
	ExecVK groth16.VerifyingKey
	MccPK  groth16.ProvingKey
	MccVK  groth16.VerifyingKey

	// Commit binds MCC fold columns before the driver derives the
	// permutation-argument challenge from them (spec §4.D's Fiat-Shamir
	// requirement that γ depend on the committed columns, not a fixed
	// constant).
	Commit *field.CommitmentScheme
}

// Setup compiles both step-circuit shapes and runs Groth16's trusted setup
// for each (spec §4.G). The curve is fixed to BN254; nothing is compiled
// over the dual BW6-761 field, since field.Folding composes chunk proofs
// sequentially rather than recursively.
func Setup(cfg *Config) (*PublicParams, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("setup: invalid config: %w", err)
	}

	curve := ecc.BN254

	execCircuit := stepcircuit.New(cfg.SExec)
	execCCS, err := frontend.Compile(curve.ScalarField(), r1cs.NewBuilder, execCircuit)
	if err != nil {
		return nil, fmt.Errorf("setup: compiling exec step circuit: %w", err)
	}
	execPK, execVK, err := groth16.Setup(execCCS)
	if err != nil {
		return nil, fmt.Errorf("setup: exec groth16 setup: %w", err)
	}

	mccCircuit := mcc.New(cfg.SMcc)
	mccCCS, err := frontend.Compile(curve.ScalarField(), r1cs.NewBuilder, mccCircuit)
	if err != nil {
		return nil, fmt.Errorf("setup: compiling mcc step circuit: %w", err)
	}
	mccPK, mccVK, err := groth16.Setup(mccCCS)
	if err != nil {
		return nil, fmt.Errorf("setup: mcc groth16 setup: %w", err)
	}

	commit, err := field.NewCommitmentScheme(uint64(cfg.SMcc))
	if err != nil {
		return nil, fmt.Errorf("setup: deriving commitment scheme: %w", err)
	}

	return &PublicParams{
		Curve:  curve,
		SExec:  cfg.SExec,
		SMcc:   cfg.SMcc,
		ExecPK: execPK,
		ExecVK: execVK,
		MccPK:  mccPK,
		MccVK:  mccVK,
		Commit: commit,
	}, nil
}

// Digest computes the public-parameters digest embedded in every public
// instance (spec §3/§6): Poseidon-style chained hashing (approximated here
// with the primary field's own arithmetic, since the verifying keys are
// already F-typed commitments) over the serialized verifying keys.
func (p *PublicParams) Digest() ([32]byte, error) {
	var buf bytes.Buffer
	if _, err := p.ExecVK.WriteTo(&buf); err != nil {
		return [32]byte{}, fmt.Errorf("setup: serializing exec vk: %w", err)
	}
	if _, err := p.MccVK.WriteTo(&buf); err != nil {
		return [32]byte{}, fmt.Errorf("setup: serializing mcc vk: %w", err)
	}
	return digestBytes(buf.Bytes()), nil
}

func digestBytes(b []byte) [32]byte {
	var acc field.Scalar = field.NewScalar(uint64(len(b)))
	for i := 0; i+8 <= len(b); i += 8 {
		word := binary.LittleEndian.Uint64(b[i : i+8])
		acc = acc.Add(field.NewScalar(word)).Mul(field.NewScalar(0x1000003))
	}
	var out [32]byte
	copy(out[:], acc.Bytes())
	return out
}

// WriteTo serializes PublicParams per spec §6's wire format: 4-byte magic,
// 2-byte version, then one length-prefixed section per verifying/proving
// key, little-endian throughout (gnark's own WriteTo already emits
// compressed group elements in its native encoding; this wrapper only adds
// the outer framing).
func (p *PublicParams) WriteTo(w *bytes.Buffer) error {
	w.Write(magic[:])
	binary.Write(w, binary.LittleEndian, formatVersion)
	binary.Write(w, binary.LittleEndian, uint32(p.SExec))
	binary.Write(w, binary.LittleEndian, uint32(p.SMcc))

	if err := writeSection(w, p.ExecPK); err != nil {
		return err
	}
	if err := writeSection(w, p.ExecVK); err != nil {
		return err
	}
	if err := writeSection(w, p.MccPK); err != nil {
		return err
	}
	if err := writeSection(w, p.MccVK); err != nil {
		return err
	}
	return nil
}

type writerTo interface {
	WriteTo(w io.Writer) (int64, error)
}

func writeSection(w *bytes.Buffer, section writerTo) error {
	var inner bytes.Buffer
	if _, err := section.WriteTo(&inner); err != nil {
		return fmt.Errorf("setup: serializing section: %w", err)
	}
	binary.Write(w, binary.LittleEndian, uint32(inner.Len()))
	w.Write(inner.Bytes())
	return nil
}
