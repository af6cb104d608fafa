package field

import (
	"fmt"
	"math/big"

	bn254fr "github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/kzg"
)

// CommitmentScheme commits to a column of scalars over the primary field F.
// The driver commits to each MCC fold's address-sorted address column and
// derives the single permutation challenge γ from that commitment; the
// program-order view is not committed and there is no second challenge η.
type CommitmentScheme struct {
	srs *kzg.SRS
}

// NewCommitmentScheme derives a structured reference string large enough to
// commit to columns of up to maxDegree scalars. The SRS is part of the
// public parameters produced once per (S_exec, S_mcc) by setup.Setup and
// reused across proofs (spec §4.G).
func NewCommitmentScheme(maxDegree uint64) (*CommitmentScheme, error) {
	// A fixed, non-secret toxic-waste value is used here because this
	// engine's trusted setup is deterministic-for-testing; a production
	// deployment replaces this with an MPC ceremony transcript.
	alpha := big.NewInt(0xC0FFEE)
	srs, err := kzg.NewSRS(maxDegree+1, alpha)
	if err != nil {
		return nil, fmt.Errorf("field: deriving commitment SRS: %w", err)
	}
	return &CommitmentScheme{srs: srs}, nil
}

// Commitment is an opaque succinct binding to a column of scalars.
type Commitment struct {
	digest kzg.Digest
}

// Commit produces a KZG commitment to the column, treated as the
// coefficients of a univariate polynomial in evaluation order.
func (c *CommitmentScheme) Commit(column []Scalar) (Commitment, error) {
	poly := make([]bn254fr.Element, len(column))
	for i, s := range column {
		poly[i] = s.v
	}
	digest, err := kzg.Commit(poly, c.srs.Pk)
	if err != nil {
		return Commitment{}, fmt.Errorf("field: committing column: %w", err)
	}
	return Commitment{digest: digest}, nil
}

// Bytes returns the compressed group-element encoding used in the
// persisted proof/public-parameter wire format (spec §6).
func (c Commitment) Bytes() []byte {
	b := c.digest.Bytes()
	return b[:]
}
