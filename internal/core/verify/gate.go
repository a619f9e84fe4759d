// Package verify contains the pure decision logic of the verification
// gate: comparing freshly generated verification content against the
// previously published record for a deployment key.
//
// The gate is the primary safety mechanism of a deployment run. It is
// evaluated before any broadcast, so refusing here is always cheap and
// reversible. The filesystem side (reading the canonical record,
// writing canonical or divergent copies) lives in internal/shell/records.
package verify

import (
	"bytes"
	"fmt"

	"github.com/artpar/anchor/internal/core/domain"
)

// =============================================================================
// Gate Verdicts
// =============================================================================

// Verdict classifies the relationship between fresh verification
// content and the published record.
type Verdict string

const (
	// VerdictFirstRecord means no record has been published yet; the
	// fresh content becomes the canonical record after a successful
	// deployment.
	VerdictFirstRecord Verdict = "first_record"

	// VerdictMatch means the published record is byte-identical to the
	// fresh content; nothing needs to be written.
	VerdictMatch Verdict = "match"

	// VerdictDivergent means the content differs and the operator
	// explicitly overrode the gate; the fresh content must be written
	// to a timestamp-qualified sibling, never over the canonical record.
	VerdictDivergent Verdict = "divergent"
)

// NeedsWrite reports whether this verdict requires persisting the
// fresh content after a successful deployment.
func (v Verdict) NeedsWrite() bool {
	return v == VerdictFirstRecord || v == VerdictDivergent
}

// =============================================================================
// Gate Decision
// =============================================================================

// Check compares fresh verification content against the published
// record for key.
//
//   - no published record: pass with VerdictFirstRecord
//   - byte-identical record: pass with VerdictMatch
//   - differing record, override unset: ErrVerificationMismatch (fatal)
//   - differing record, override set: pass with VerdictDivergent
//
// Check is pure; it never touches the filesystem.
func Check(key string, published []byte, publishedExists bool, fresh []byte, override bool) (Verdict, error) {
	if !publishedExists {
		return VerdictFirstRecord, nil
	}
	if bytes.Equal(published, fresh) {
		return VerdictMatch, nil
	}
	if !override {
		return "", fmt.Errorf("%w: key %s (set force override to deploy anyway)",
			domain.ErrVerificationMismatch, key)
	}
	return VerdictDivergent, nil
}
