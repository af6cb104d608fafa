package field

import (
	goldilocks "github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	goldihash "github.com/vybium/vybium-crypto/pkg/vybium-crypto/hash"
)

// Digest is the output of the out-of-circuit Poseidon hash over the
// Goldilocks field. The tracer and the step circuits do not use it: the
// execution step circuit chains its uint64 digests with its own
// prev*31 + ... rule (stepcircuit.hashStep/hashMemOp).
type Digest = goldilocks.Element

// HashToField is the Poseidon-style algebraic hash over the Goldilocks
// field.
func HashToField(elems []goldilocks.Element) Digest {
	if len(elems) == 0 {
		return goldilocks.Zero
	}
	return goldihash.PoseidonHash(elems)
}

// ChainDigest folds a new batch of elements into a running digest:
// out = H(prev, elem_0, elem_1, ...). Neither the execution step circuit
// nor the MCC engine uses this rule.
func ChainDigest(prev Digest, elems ...goldilocks.Element) Digest {
	batch := make([]goldilocks.Element, 0, len(elems)+1)
	batch = append(batch, prev)
	batch = append(batch, elems...)
	return HashToField(batch)
}

// DigestFromUint64s is a convenience constructor used when hashing small
// integer tuples (addresses, opcodes, flags) without an intermediate
// goldilocks.Element slice at call sites.
func DigestFromUint64s(xs ...uint64) Digest {
	elems := make([]goldilocks.Element, len(xs))
	for i, x := range xs {
		elems[i] = goldilocks.New(x)
	}
	return HashToField(elems)
}
