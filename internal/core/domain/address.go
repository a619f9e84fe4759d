package domain

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// =============================================================================
// Address
// =============================================================================

// Address is a 20-byte account identifier on an execution environment.
type Address [20]byte

// ParseAddress parses a hex address with or without a "0x" prefix.
func ParseAddress(s string) (Address, error) {
	var a Address
	raw := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(raw) != 2*len(a) {
		return a, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return a, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	copy(a[:], b)
	return a, nil
}

// MustParseAddress parses a hex address and panics on failure.
// Intended for constants and tests.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// IsZero reports whether the address is all zeroes.
func (a Address) IsZero() bool {
	return a == Address{}
}

// String returns the 0x-prefixed lowercase hex form.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// MarshalText implements encoding.TextMarshaler so addresses render as
// hex strings in JSON ledgers.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// =============================================================================
// Salt
// =============================================================================

// Salt is the fixed 32-byte value that, together with the caller
// identity, fully determines a factory deployment address.
type Salt [32]byte

// String returns the 0x-prefixed lowercase hex form.
func (s Salt) String() string {
	return "0x" + hex.EncodeToString(s[:])
}
