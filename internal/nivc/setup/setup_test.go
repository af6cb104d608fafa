package setup

import "testing"

func TestDefaultConfigValidates(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v, want nil", err)
	}
}

func TestConfigValidateRejectsNonPositiveSExec(t *testing.T) {
	c := DefaultConfig().WithSExec(0)
	if err := c.Validate(); err == nil {
		t.Error("Validate() accepted SExec == 0")
	}
}

func TestConfigValidateRejectsNonPositiveSMcc(t *testing.T) {
	c := DefaultConfig().WithSMcc(-1)
	if err := c.Validate(); err == nil {
		t.Error("Validate() accepted a negative SMcc")
	}
}

func TestConfigValidateRejectsUnknownHashFunction(t *testing.T) {
	c := DefaultConfig()
	c.HashFunction = "sha256"
	if err := c.Validate(); err == nil {
		t.Error("Validate() accepted a hash function other than poseidon")
	}
}

func TestConfigFluentSettersChain(t *testing.T) {
	c := DefaultConfig().WithSExec(4).WithSMcc(8).WithSecurityLevel(100).WithChallengeRepeats(2)
	if c.SExec != 4 || c.SMcc != 8 || c.SecurityLevel != 100 || c.ChallengeRepeats != 2 {
		t.Errorf("chained setters produced %+v", c)
	}
}

func TestConfigCloneIsIndependent(t *testing.T) {
	c := DefaultConfig()
	clone := c.Clone()
	clone.WithSExec(999)
	if c.SExec == 999 {
		t.Error("Clone() aliased the original config")
	}
}

// TestSetupProducesUsablePublicParams compiles both step-circuit shapes at
// the smallest possible fold widths and runs a real Groth16 trusted setup
// for each, keeping the cost of this test bounded while still exercising
// the full Setup path including the commitment scheme wiring.
func TestSetupProducesUsablePublicParams(t *testing.T) {
	cfg := DefaultConfig().WithSExec(1).WithSMcc(1)
	params, err := Setup(cfg)
	if err != nil {
		t.Fatalf("Setup() failed: %v", err)
	}
	if params.ExecPK == nil || params.ExecVK == nil {
		t.Error("Setup() left the exec key pair nil")
	}
	if params.MccPK == nil || params.MccVK == nil {
		t.Error("Setup() left the mcc key pair nil")
	}
	if params.Commit == nil {
		t.Error("Setup() left the commitment scheme nil")
	}

	digest, err := params.Digest()
	if err != nil {
		t.Fatalf("Digest() failed: %v", err)
	}
	if digest == ([32]byte{}) {
		t.Error("Digest() returned the zero digest")
	}
}

func TestSetupRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig().WithSExec(0)
	if _, err := Setup(cfg); err == nil {
		t.Error("Setup() accepted an invalid config")
	}
}
