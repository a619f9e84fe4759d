package deploy

import (
	"context"
	"time"

	"github.com/artpar/anchor/internal/core/domain"
)

// =============================================================================
// External Collaborator Ports
// =============================================================================

// AddressFactory is the deterministic factory on the target
// environment. ComputeAddress is pure precomputation; DeployAt is the
// one irreversible operation of a deploy call and must land the
// payload at exactly the precomputed address.
type AddressFactory interface {
	ComputeAddress(ctx context.Context, salt domain.Salt, caller domain.Address) (domain.Address, error)
	DeployAt(ctx context.Context, salt domain.Salt, payload []byte) (domain.Address, error)
}

// Environment probes the current execution environment.
type Environment interface {
	// CodePresent reports whether code already exists at an address,
	// which makes a deploy call a safe no-op.
	CodePresent(ctx context.Context, address domain.Address) (bool, error)
}

// VersionProber instantiates a build payload in an isolated sandbox
// (no persistent effect, no broadcast) and returns the version string
// its version capability reports.
type VersionProber interface {
	ProbeVersion(ctx context.Context, payload []byte) (string, error)
}

// VerificationProducer generates the canonical build-input document
// for an artifact name, used for third-party verification.
type VerificationProducer interface {
	Generate(ctx context.Context, name string) ([]byte, error)
}

// OwnershipHandle is a deployed instance whose administrative owner
// can be queried and, with a privileged call, replaced.
type OwnershipHandle interface {
	Owner(ctx context.Context) (domain.Address, error)
	TransferOwnership(ctx context.Context, newOwner domain.Address) error
}

// =============================================================================
// History Port
// =============================================================================

// RunRecorder receives cross-run deployment history. Implemented by
// the sqlite history store; a run works fine without one.
type RunRecorder interface {
	BeginRun(ctx context.Context, runID, environmentID, host string, startedAt time.Time) error
	RecordOutcome(ctx context.Context, runID, key string, address domain.Address, state domain.DeployState, deployed bool) error
	FinishRun(ctx context.Context, runID string, finishedAt time.Time, deployed, skipped int) error
}
