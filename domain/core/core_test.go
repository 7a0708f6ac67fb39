package core

import (
	"errors"
	"testing"
)

func TestParseModelID(t *testing.T) {
	valid := []string{"porter", "simple_chain", "m2", "a__b"}
	for _, s := range valid {
		if _, err := ParseModelID(s); err != nil {
			t.Errorf("ParseModelID(%q) failed: %v", s, err)
		}
	}

	invalid := []string{"", "Porter", "2cities", "bad-slug", "spaced id", "_lead"}
	for _, s := range invalid {
		_, err := ParseModelID(s)
		if err == nil {
			t.Errorf("ParseModelID(%q) should fail", s)
			continue
		}
		if !errors.Is(err, ErrIdentity) {
			t.Errorf("ParseModelID(%q) error should wrap the identity sentinel, got: %v", s, err)
		}
	}
}

func TestParseVariableID(t *testing.T) {
	if _, err := ParseVariableID("SupplierPower"); err != nil {
		t.Fatalf("ParseVariableID failed: %v", err)
	}
	for _, s := range []string{"", "   "} {
		if _, err := ParseVariableID(s); !errors.Is(err, ErrIdentity) {
			t.Errorf("ParseVariableID(%q) should wrap the identity sentinel, got: %v", s, err)
		}
	}
}

func TestComputeModelFingerprint_OrderIndependent(t *testing.T) {
	a := ComputeModelFingerprint("m", "1.0.0",
		[]string{"x", "y", "z"},
		[][2]string{{"x", "y"}, {"y", "z"}},
		[]string{"y", "z"})
	b := ComputeModelFingerprint("m", "1.0.0",
		[]string{"z", "x", "y"},
		[][2]string{{"y", "z"}, {"x", "y"}},
		[]string{"z", "y"})
	if a != b {
		t.Error("fingerprint must not depend on input ordering")
	}

	c := ComputeModelFingerprint("m", "1.0.0",
		[]string{"x", "y"},
		[][2]string{{"x", "y"}},
		nil)
	if a == c {
		t.Error("structurally different models must fingerprint differently")
	}
}

func TestComputeStreamSeed(t *testing.T) {
	s1 := ComputeStreamSeed(42, "m", "0")
	s2 := ComputeStreamSeed(42, "m", "0")
	if s1 != s2 {
		t.Error("identical (seed, parts) must derive identical stream seeds")
	}
	if ComputeStreamSeed(42, "m", "1") == s1 {
		t.Error("distinct sample indexes must derive distinct streams")
	}
	if ComputeStreamSeed(43, "m", "0") == s1 {
		t.Error("distinct base seeds must derive distinct streams")
	}
}
