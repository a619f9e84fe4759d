package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"with-prefix", "0x00000000000000000000000000000000000000ff", false},
		{"without-prefix", "00000000000000000000000000000000000000ff", false},
		{"uppercase-prefix", "0X00000000000000000000000000000000000000FF", false},
		{"too-short", "0x1234", true},
		{"too-long", "0x00000000000000000000000000000000000000ff00", true},
		{"not-hex", "0x00000000000000000000000000000000000000zz", true},
		{"empty", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := ParseAddress(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAddress)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "0x00000000000000000000000000000000000000ff", addr.String())
		})
	}
}

func TestAddress_IsZero(t *testing.T) {
	assert.True(t, Address{}.IsZero())
	assert.False(t, MustParseAddress("0x00000000000000000000000000000000000000ff").IsZero())
}

func TestAddress_JSONRoundTrip(t *testing.T) {
	addr := MustParseAddress("0xdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef")

	data, err := json.Marshal(addr)
	require.NoError(t, err)
	assert.Equal(t, `"0xdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef"`, string(data))

	var back Address
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, addr, back)
}

func TestSalt_String(t *testing.T) {
	var s Salt
	s[31] = 0x01
	assert.Equal(t, "0x0000000000000000000000000000000000000000000000000000000000000001", s.String())
}
