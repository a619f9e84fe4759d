package verify

import (
	"testing"

	"github.com/artpar/anchor/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck_NoPublishedRecord(t *testing.T) {
	v, err := Check("1.0.0-Token", nil, false, []byte(`{"a":1}`), false)
	require.NoError(t, err)
	assert.Equal(t, VerdictFirstRecord, v)
	assert.True(t, v.NeedsWrite())
}

func TestCheck_IdenticalContent(t *testing.T) {
	content := []byte(`{"a":1}`)
	v, err := Check("1.0.0-Token", content, true, content, false)
	require.NoError(t, err)
	assert.Equal(t, VerdictMatch, v)
	assert.False(t, v.NeedsWrite())
}

func TestCheck_MismatchWithoutOverride(t *testing.T) {
	_, err := Check("1.0.0-Token", []byte(`{"a":1}`), true, []byte(`{"a":2}`), false)
	assert.ErrorIs(t, err, domain.ErrVerificationMismatch)
}

func TestCheck_MismatchWithOverride(t *testing.T) {
	v, err := Check("1.0.0-Token", []byte(`{"a":1}`), true, []byte(`{"a":2}`), true)
	require.NoError(t, err)
	assert.Equal(t, VerdictDivergent, v)
	assert.True(t, v.NeedsWrite())
}

func TestCheck_TableDriven(t *testing.T) {
	tests := []struct {
		name      string
		published string
		exists    bool
		fresh     string
		override  bool
		want      Verdict
		wantErr   bool
	}{
		{"first-record", "", false, "X", false, VerdictFirstRecord, false},
		{"first-record-override-irrelevant", "", false, "X", true, VerdictFirstRecord, false},
		{"match", "X", true, "X", false, VerdictMatch, false},
		{"match-override-irrelevant", "X", true, "X", true, VerdictMatch, false},
		{"drift-fail-closed", "X", true, "Y", false, "", true},
		{"drift-override", "X", true, "Y", true, VerdictDivergent, false},
		{"empty-published-still-compares", "", true, "Y", false, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Check("key", []byte(tt.published), tt.exists, []byte(tt.fresh), tt.override)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrVerificationMismatch)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}
}
