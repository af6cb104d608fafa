package field

import (
	"testing"

	goldilocks "github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

func TestHashToFieldEmpty(t *testing.T) {
	if got := HashToField(nil); got != goldilocks.Zero {
		t.Errorf("HashToField(nil) = %v, want zero", got)
	}
}

func TestChainDigestDeterministic(t *testing.T) {
	prev := DigestFromUint64s(1, 2, 3)
	a := ChainDigest(prev, goldilocks.New(4))
	b := ChainDigest(prev, goldilocks.New(4))
	if a != b {
		t.Errorf("ChainDigest is not deterministic: %v != %v", a, b)
	}
}

func TestChainDigestSensitiveToInput(t *testing.T) {
	prev := DigestFromUint64s(1, 2, 3)
	a := ChainDigest(prev, goldilocks.New(4))
	b := ChainDigest(prev, goldilocks.New(5))
	if a == b {
		t.Error("ChainDigest produced equal output for different inputs")
	}
}
