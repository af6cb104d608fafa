// Package mcc implements component E: the memory consistency check engine,
// grounded on the teacher's RAM table permutation and Bezout contiguity
// argument (internal/vybium-starks-vm/vm/ram_table.go), generalized from a
// STARK AIR table to a per-fold gnark circuit input.
package mcc

import (
	"sort"

	"github.com/zkwasm/nivc-engine/internal/nivc/field"
	"github.com/zkwasm/nivc-engine/internal/nivc/tracer"
)

// Row is one address-sorted memory-consistency row: the teacher's
// (clk, instruction_type, ram_pointer, ram_value) tuple generalized to this
// engine's (address, value_before, value_after, is_write) MemOp shape, plus
// the timestamp the program-order log carried (spec §3, §4.D).
type Row struct {
	Timestamp   uint64
	Address     uint64
	ValueBefore uint64
	ValueAfter  uint64
	IsWrite     bool
}

// SortedView is the address-sorted, then-timestamp-sorted view of a
// MemoryOpLog chunk the MCC engine's permutation argument checks against
// the program-order view the execution side already committed to (spec
// §4.D's "two views of the same multiset").
type SortedView struct {
	Rows []Row
}

// RowsFromChunk converts one MemoryOpLog chunk to program-order Rows,
// without sorting — the counterpart view to BuildSortedView.
func RowsFromChunk(chunk []tracer.TimestampedMemOp) []Row {
	rows := make([]Row, len(chunk))
	for i, e := range chunk {
		rows[i] = Row{
			Timestamp:   e.Timestamp,
			Address:     e.Address,
			ValueBefore: e.ValueBefore,
			ValueAfter:  e.ValueAfter,
			IsWrite:     e.IsWrite,
		}
	}
	return rows
}

// BuildSortedView sorts one MemoryOpLog chunk's entries by (address,
// timestamp), the same key order the teacher's RAM table sorts by before
// computing inverseRampDiff (ram_table.go's contiguity argument).
func BuildSortedView(chunk []tracer.TimestampedMemOp) SortedView {
	rows := make([]Row, len(chunk))
	for i, e := range chunk {
		rows[i] = Row{
			Timestamp:   e.Timestamp,
			Address:     e.Address,
			ValueBefore: e.ValueBefore,
			ValueAfter:  e.ValueAfter,
			IsWrite:     e.IsWrite,
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Address != rows[j].Address {
			return rows[i].Address < rows[j].Address
		}
		return rows[i].Timestamp < rows[j].Timestamp
	})
	return SortedView{Rows: rows}
}

// CheckContiguity verifies, outside the circuit, that every consecutive
// same-address pair in the sorted view satisfies read-after-write
// consistency (ValueAfter of row i equals ValueBefore of row i+1 whenever
// addresses match), the property the teacher's Bezout-relation contiguity
// argument proves algebraically in-circuit (ram_table.go's formalDerivative
// / bezoutCoeff columns). This function is the reference check the MCC step
// circuit's constraints must imply; it never substitutes for them.
func CheckContiguity(v SortedView) bool {
	for i := 1; i < len(v.Rows); i++ {
		prev, cur := v.Rows[i-1], v.Rows[i]
		if prev.Address != cur.Address {
			continue
		}
		if prev.ValueAfter != cur.ValueBefore {
			return false
		}
	}
	return true
}

// GrandProduct computes the permutation-argument running product over one
// sorted chunk using a random linear combination challenge, the field-level
// generalization of the teacher's runningProductRAMP column (ram_table.go).
func GrandProduct(v SortedView, challenge field.Scalar) field.Scalar {
	acc := field.NewScalar(1)
	for _, r := range v.Rows {
		term := field.NewScalar(r.Address)
		term = term.Add(field.NewScalar(r.ValueBefore).Mul(challenge))
		term = term.Add(field.NewScalar(r.ValueAfter).Mul(challenge).Mul(challenge))
		acc = acc.Mul(term)
	}
	return acc
}

// GrandProductProgramOrder computes the matching running product over the
// program-order (unsorted) view of the same chunk; a correct MCC fold
// asserts the two products are equal, which is the permutation argument's
// soundness statement (spec §4.D, grounded on cross_table_arguments.go's
// permutation-check pattern between the Processor and RAM tables).
func GrandProductProgramOrder(chunk []tracer.TimestampedMemOp, challenge field.Scalar) field.Scalar {
	acc := field.NewScalar(1)
	for _, e := range chunk {
		term := field.NewScalar(e.Address)
		term = term.Add(field.NewScalar(e.ValueBefore).Mul(challenge))
		term = term.Add(field.NewScalar(e.ValueAfter).Mul(challenge).Mul(challenge))
		acc = acc.Mul(term)
	}
	return acc
}
