package field

import "testing"

func TestCommitmentSchemeCommitDeterministic(t *testing.T) {
	scheme, err := NewCommitmentScheme(8)
	if err != nil {
		t.Fatalf("NewCommitmentScheme() failed: %v", err)
	}

	column := []Scalar{NewScalar(1), NewScalar(2), NewScalar(3)}

	a, err := scheme.Commit(column)
	if err != nil {
		t.Fatalf("Commit() failed: %v", err)
	}
	b, err := scheme.Commit(column)
	if err != nil {
		t.Fatalf("Commit() failed: %v", err)
	}

	if string(a.Bytes()) != string(b.Bytes()) {
		t.Error("Commit() is not deterministic for the same column")
	}
}

func TestCommitmentSchemeDistinguishesColumns(t *testing.T) {
	scheme, err := NewCommitmentScheme(8)
	if err != nil {
		t.Fatalf("NewCommitmentScheme() failed: %v", err)
	}

	a, err := scheme.Commit([]Scalar{NewScalar(1), NewScalar(2)})
	if err != nil {
		t.Fatalf("Commit() failed: %v", err)
	}
	b, err := scheme.Commit([]Scalar{NewScalar(1), NewScalar(3)})
	if err != nil {
		t.Fatalf("Commit() failed: %v", err)
	}

	if string(a.Bytes()) == string(b.Bytes()) {
		t.Error("Commit() produced equal commitments for different columns")
	}
}
