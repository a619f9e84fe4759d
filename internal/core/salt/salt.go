// Package salt derives deterministic 32-byte factory salts from a
// caller identity and an artifact's deployment key.
//
// The salt layout matches what the deterministic factory expects:
//
//	bytes  0..19  caller identity (restricts who may redeploy the salt)
//	byte   20     cross-environment protection flag (fixed: allowed)
//	bytes 21..31  low 11 bytes of keccak-256 of the deployment key
//
// Identical inputs always yield an identical salt, and therefore an
// identical precomputed address from the factory.
package salt

import (
	"github.com/artpar/anchor/internal/core/domain"
	"golang.org/x/crypto/sha3"
)

// CrosschainAllowed is the protection flag byte embedded in every
// derived salt. The factory interprets it as "this salt may be reused
// on any environment", which is what keeps addresses identical across
// chains for the same version.
const CrosschainAllowed byte = 0x00

// entropyBytes is how much of the keccak digest fits after the caller
// identity and the protection flag.
const entropyBytes = 11

// Derive computes the salt for a plain deployment of version.
func Derive(caller domain.Address, version string) domain.Salt {
	return fromKey(caller, domain.DeploymentKey(version, ""))
}

// DeriveWithSuffix computes the salt for a suffixed deployment, used
// when the same code is deployed more than once per environment.
func DeriveWithSuffix(caller domain.Address, version, suffix string) domain.Salt {
	return fromKey(caller, domain.DeploymentKey(version, suffix))
}

// fromKey is the shared derivation both entry points factor through.
func fromKey(caller domain.Address, key string) domain.Salt {
	var s domain.Salt
	copy(s[:20], caller[:])
	s[20] = CrosschainAllowed

	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(key))
	digest := h.Sum(nil)
	copy(s[21:], digest[len(digest)-entropyBytes:])

	return s
}
