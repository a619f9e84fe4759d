package chain

import (
	"context"
	"fmt"

	"github.com/artpar/anchor/internal/core/domain"
	"golang.org/x/crypto/sha3"
)

// The factory deploys through a fixed intermediate proxy, which makes
// the final address a function of (factory, salt) alone, independent
// of the payload. proxyInitCodeHash is the keccak-256 of that proxy's
// init code.
var proxyInitCodeHash = [32]byte{
	0x21, 0xc3, 0x5d, 0xbe, 0x1b, 0x34, 0x4a, 0x24,
	0x88, 0xcf, 0x33, 0x21, 0xd6, 0xce, 0x54, 0x2f,
	0x8e, 0x9f, 0x30, 0x55, 0x44, 0xff, 0x09, 0xe4,
	0x99, 0x3a, 0x62, 0x31, 0x9a, 0x49, 0x7c, 0x1f,
}

// ComputeAddress precomputes the deterministic deployment address for
// a salt. The computation is local and pure; no gateway call is made,
// so addresses can be derived offline and ahead of any broadcast.
//
// The salt must embed the caller identity in its first 20 bytes; the
// factory enforces the same restriction on-environment, and refusing
// early keeps the mismatch a reversible error.
func (c *Client) ComputeAddress(_ context.Context, salt domain.Salt, caller domain.Address) (domain.Address, error) {
	var embedded domain.Address
	copy(embedded[:], salt[:20])
	if embedded != caller {
		return domain.Address{}, fmt.Errorf("%w: salt %s, caller %s",
			ErrSaltCallerMismatch, salt, caller)
	}

	// Proxy address: keccak256(0xff ++ factory ++ salt ++ hash(proxy init code))[12:]
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte{0xff})
	h.Write(c.factory[:])
	h.Write(salt[:])
	h.Write(proxyInitCodeHash[:])
	proxyDigest := h.Sum(nil)

	var proxy domain.Address
	copy(proxy[:], proxyDigest[12:])

	// Final address: the proxy's first (and only) creation,
	// keccak256(rlp([proxy, 1]))[12:].
	h = sha3.NewLegacyKeccak256()
	h.Write([]byte{0xd6, 0x94})
	h.Write(proxy[:])
	h.Write([]byte{0x01})
	digest := h.Sum(nil)

	var addr domain.Address
	copy(addr[:], digest[12:])
	return addr, nil
}
