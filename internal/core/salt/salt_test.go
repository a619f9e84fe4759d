package salt

import (
	"testing"

	"github.com/artpar/anchor/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

var (
	caller      = domain.MustParseAddress("0x1111111111111111111111111111111111111111")
	otherCaller = domain.MustParseAddress("0x2222222222222222222222222222222222222222")
)

// =============================================================================
// Determinism
// =============================================================================

func TestDerive_Pure(t *testing.T) {
	first := Derive(caller, "1.0.0-Token")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Derive(caller, "1.0.0-Token"))
	}
}

func TestDeriveWithSuffix_Pure(t *testing.T) {
	first := DeriveWithSuffix(caller, "1.0.0-Token", "usdc")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, DeriveWithSuffix(caller, "1.0.0-Token", "usdc"))
	}
}

// =============================================================================
// Layout
// =============================================================================

func TestDerive_Layout(t *testing.T) {
	s := Derive(caller, "1.0.0-Token")

	assert.Equal(t, caller[:], s[:20], "salt must start with the caller identity")
	assert.Equal(t, CrosschainAllowed, s[20], "byte 20 is the protection flag")

	var zeroTail [11]byte
	assert.NotEqual(t, zeroTail[:], s[21:], "entropy tail must be populated")
}

// =============================================================================
// Distinctness
// =============================================================================

func TestDerive_DistinctInputsDistinctSalts(t *testing.T) {
	base := Derive(caller, "1.0.0-Token")

	tests := []struct {
		name string
		got  domain.Salt
	}{
		{"different-version", Derive(caller, "1.0.1-Token")},
		{"different-name", Derive(caller, "1.0.0-Vault")},
		{"different-caller", Derive(otherCaller, "1.0.0-Token")},
		{"with-suffix", DeriveWithSuffix(caller, "1.0.0-Token", "usdc")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, base, tt.got)
		})
	}
}

func TestDeriveWithSuffix_DistinctSuffixes(t *testing.T) {
	a := DeriveWithSuffix(caller, "1.0.0-Token", "usdc")
	b := DeriveWithSuffix(caller, "1.0.0-Token", "dai")
	assert.NotEqual(t, a, b)
}

func TestDeriveWithSuffix_EmptySuffixMatchesPlain(t *testing.T) {
	assert.Equal(t, Derive(caller, "1.0.0-Token"), DeriveWithSuffix(caller, "1.0.0-Token", ""))
}
