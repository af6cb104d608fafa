// Package driver implements component F: the NIVC state machine that
// interleaves execution folds and MCC folds by kind (never in time), owns a
// single accumulator per kind, and compresses both into a terminal SNARK
// pair (spec §4.F), grounded on the teacher's STARK/Prover orchestration
// (internal/vybium-starks-vm/protocols/{stark,prover,verifier}.go)
// generalized from one monolithic AIR to two interleavable step kinds.
package driver

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/zkwasm/nivc-engine/internal/nivc/field"
	"github.com/zkwasm/nivc-engine/internal/nivc/mcc"
	"github.com/zkwasm/nivc-engine/internal/nivc/setup"
	"github.com/zkwasm/nivc-engine/internal/nivc/stepcircuit"
	"github.com/zkwasm/nivc-engine/internal/nivc/tracer"
)

// Driver threads one execution accumulator and one MCC accumulator across
// the lifetime of a single proof run. Neither accumulator is ever aliased:
// every Exec/Mcc fold call consumes the current value and replaces it with
// the new one, matching spec §9's single-owner discipline.
type Driver struct {
	params *setup.PublicParams
	folder field.Folding

	execAcc *field.Accumulator
	mccAcc  *field.Accumulator

	digest       uint64
	memopDigest  uint64
	mccProductIn field.Scalar
	challenge    field.Scalar

	execFolds int
	mccFolds  int
}

// New constructs a driver bound to one set of compiled public parameters
// and a folding instantiation (NonHiding or Hiding, spec §4.A).
func New(params *setup.PublicParams, folder field.Folding) *Driver {
	return &Driver{
		params:       params,
		folder:       folder,
		mccProductIn: field.NewScalar(1),
	}
}

// Init seeds both accumulators, the NIVC state machine's entry transition
// (spec §4.F).
func (d *Driver) Init() {
	d.execAcc = d.folder.New(d.params.ExecPK, d.params.ExecVK, d.params.Curve)
	d.mccAcc = d.folder.New(d.params.MccPK, d.params.MccVK, d.params.Curve)
}

// ExecFold folds one SExec-sized chunk of the execution trace (spec §4.F's
// exec_fold(i) transition).
func (d *Driver) ExecFold(chunk []tracer.TraceStep, programDigest uint64) error {
	if d.execAcc == nil {
		return fmt.Errorf("driver: ExecFold called before Init")
	}
	circuit := stepcircuit.NewAssigned(d.params.SExec, chunk, d.digest, d.memopDigest, programDigest)
	next, err := d.folder.Fold(d.execAcc, circuit)
	if err != nil {
		return fmt.Errorf("driver: exec fold %d: %w", d.execFolds, err)
	}
	d.execAcc = next
	d.digest = circuit.DigestOut.(uint64)
	d.memopDigest = circuit.MemopDigestOut.(uint64)
	d.execFolds++
	log.Debug().Int("fold", d.execFolds).Msg("exec fold complete")
	return nil
}

// MccFold folds one SMcc-sized chunk of the memory-op log (spec §4.F's
// mcc_fold(j) transition). CheckContiguity runs first as a fast native
// pre-check; a failure here means the trace itself is inconsistent and is
// surfaced as WitnessInconsistent rather than spent on an unsatisfiable
// proving attempt.
func (d *Driver) MccFold(chunk []tracer.TimestampedMemOp) error {
	if d.mccAcc == nil {
		return fmt.Errorf("driver: MccFold called before Init")
	}
	rows := mcc.RowsFromChunk(chunk)
	sorted := mcc.BuildSortedView(chunk)
	if !mcc.CheckContiguity(sorted) {
		return fmt.Errorf("driver: mcc fold %d: memory read-after-write inconsistency", d.mccFolds)
	}

	challenge, err := d.deriveChallenge(sorted)
	if err != nil {
		return fmt.Errorf("driver: mcc fold %d: deriving challenge: %w", d.mccFolds, err)
	}
	d.challenge = challenge

	circuit := mcc.NewAssigned(d.params.SMcc, rows, sorted, d.challenge, d.mccProductIn)
	next, err := d.folder.Fold(d.mccAcc, circuit)
	if err != nil {
		return fmt.Errorf("driver: mcc fold %d: %w", d.mccFolds, err)
	}
	d.mccAcc = next
	d.mccProductIn = circuit.PublicWires()[2]
	d.mccFolds++
	log.Debug().Int("fold", d.mccFolds).Msg("mcc fold complete")
	return nil
}

// deriveChallenge commits to this fold's address-sorted column and derives
// the permutation-argument challenge γ from the commitment bytes (a
// Fiat-Shamir transform), so γ is bound to the fold's actual data rather
// than a fixed constant (spec §4.D). Grounded on the teacher's proof_stream.go
// Fiat-Shamir challenge derivation, generalized from a transcript of Merkle
// roots to a single KZG commitment per fold.
func (d *Driver) deriveChallenge(sorted mcc.SortedView) (field.Scalar, error) {
	if len(sorted.Rows) == 0 {
		return field.NewScalar(0xC001D00D), nil
	}
	column := make([]field.Scalar, len(sorted.Rows))
	for i, r := range sorted.Rows {
		column[i] = field.NewScalar(r.Address)
	}
	commitment, err := d.params.Commit.Commit(column)
	if err != nil {
		return field.Scalar{}, err
	}
	return field.ScalarFromBytes(commitment.Bytes()), nil
}

// Join is the gate between folding and compression (spec §4.F's join
// transition): it checks that both sides have been initialised and have
// folded at least one chunk. It does not compare the execution side's
// folded memop digest with the MCC side's folded product.
func (d *Driver) Join() error {
	if d.execAcc == nil || d.mccAcc == nil || d.execFolds == 0 || d.mccFolds == 0 {
		return fmt.Errorf("driver: Join called before both sides folded")
	}
	return nil
}

// Compress finalizes both accumulators into their terminal SNARKs (spec
// §4.F's compress transition), running the two Finalize calls concurrently
// via errgroup (spec §5, grounded on utils/channel.go's worker-pool
// pattern generalized to a bounded errgroup).
func (d *Driver) Compress(ctx context.Context) (execSnark, mccSnark *field.Snark, err error) {
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := d.folder.Finalize(d.execAcc)
		if err != nil {
			return fmt.Errorf("driver: compress exec: %w", err)
		}
		execSnark = s
		return nil
	})
	g.Go(func() error {
		s, err := d.folder.Finalize(d.mccAcc)
		if err != nil {
			return fmt.Errorf("driver: compress mcc: %w", err)
		}
		mccSnark = s
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return execSnark, mccSnark, nil
}
