package release

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Minimal(t *testing.T) {
	plan, err := Parse([]byte(`
artifacts:
  - payload: out/Token.bin
`))
	require.NoError(t, err)
	assert.Equal(t, "", plan.Environment)
	require.Len(t, plan.Artifacts, 1)
	assert.Equal(t, "out/Token.bin", plan.Artifacts[0].Payload)
	assert.Equal(t, "", plan.Artifacts[0].Suffix)
	assert.False(t, plan.Artifacts[0].TransferOwnership)
}

func TestParse_Full(t *testing.T) {
	plan, err := Parse([]byte(`
environment: "10"
artifacts:
  - payload: out/Token.bin
    transfer_ownership: true
  - payload: out/Token.bin
    suffix: usdc
  - payload: out/Vault.bin
`))
	require.NoError(t, err)
	assert.Equal(t, "10", plan.Environment)
	require.Len(t, plan.Artifacts, 3)
	assert.True(t, plan.Artifacts[0].TransferOwnership)
	assert.Equal(t, "usdc", plan.Artifacts[1].Suffix)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"empty", "", ErrEmptyPlan},
		{"invalid-yaml", "artifacts: [", ErrInvalidYAML},
		{"no-artifacts", "environment: \"1\"", ErrNoArtifacts},
		{"empty-artifact-list", "artifacts: []", ErrNoArtifacts},
		{"missing-payload", "artifacts:\n  - suffix: a", ErrMissingPayload},
		{"duplicate-plain", "artifacts:\n  - payload: a.bin\n  - payload: a.bin", ErrDuplicateSuffix},
		{"duplicate-suffixed", "artifacts:\n  - payload: a.bin\n    suffix: x\n  - payload: a.bin\n    suffix: x", ErrDuplicateSuffix},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParse_SameSuffixDifferentPayloadAllowed(t *testing.T) {
	_, err := Parse([]byte(`
artifacts:
  - payload: a.bin
    suffix: x
  - payload: b.bin
    suffix: x
`))
	assert.NoError(t, err)
}

func TestParse_SamePayloadDistinctSuffixesAllowed(t *testing.T) {
	_, err := Parse([]byte(`
artifacts:
  - payload: a.bin
  - payload: a.bin
    suffix: usdc
  - payload: a.bin
    suffix: dai
`))
	assert.NoError(t, err)
}
