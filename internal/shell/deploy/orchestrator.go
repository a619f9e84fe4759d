// Package deploy runs the deployment state machine: address
// precomputation, idempotency probing, the fail-closed verification
// gate, the single irreversible broadcast, ledger bookkeeping and
// ownership handoff.
//
// Execution is single-threaded and strictly sequential: one deploy
// call completes or aborts before the next begins. Once a broadcast is
// issued there is no rollback path, so every local, reversible check
// runs to completion before it.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/artpar/anchor/internal/core/domain"
	"github.com/artpar/anchor/internal/core/ledger"
	"github.com/artpar/anchor/internal/core/ownership"
	"github.com/artpar/anchor/internal/core/salt"
	"github.com/artpar/anchor/internal/core/verify"
	"github.com/artpar/anchor/internal/shell/records"
	"github.com/google/uuid"
)

// =============================================================================
// Configuration
// =============================================================================

var (
	// ErrMissingCaller is returned when constructing an orchestrator
	// without a caller identity.
	ErrMissingCaller = errors.New("caller identity is required")

	// ErrMissingEnvironment is returned when constructing an
	// orchestrator without an environment identifier.
	ErrMissingEnvironment = errors.New("environment identifier is required")
)

// Config is the immutable per-run configuration. It is supplied once
// at construction and never read from ambient state.
type Config struct {
	// EnvironmentID identifies the target execution environment.
	EnvironmentID string

	// Host is a short alias for the gateway host, used in diff ledger
	// filenames.
	Host string

	// Caller is the identity deployments are issued under. It prefixes
	// every derived salt.
	Caller domain.Address

	// TargetOwner receives administrative control on managed
	// environments. Zero downgrades handoff to a warning.
	TargetOwner domain.Address

	// ManagedEnvironments lists the production-like environment IDs
	// subject to ownership handoff.
	ManagedEnvironments []string

	// ForceOverride lets a run proceed past a verification mismatch.
	// The divergent content is then persisted next to, never over, the
	// published record.
	ForceOverride bool
}

// =============================================================================
// Orchestrator
// =============================================================================

// Orchestrator drives deployments for one run against one environment.
type Orchestrator struct {
	cfg      Config
	policy   ownership.Policy
	factory  AddressFactory
	env      Environment
	prober   VersionProber
	producer VerificationProducer
	records  *records.Store
	ledger   *ledger.Ledger
	history  RunRecorder // optional
	logger   *slog.Logger

	runID     string
	startedAt time.Time
	deployed  int
	skipped   int
}

// New creates an orchestrator. history may be nil.
func New(cfg Config, factory AddressFactory, env Environment, prober VersionProber,
	producer VerificationProducer, recordStore *records.Store, history RunRecorder,
	logger *slog.Logger) (*Orchestrator, error) {

	if cfg.Caller.IsZero() {
		return nil, ErrMissingCaller
	}
	if cfg.EnvironmentID == "" {
		return nil, ErrMissingEnvironment
	}
	if cfg.Host == "" {
		cfg.Host = "local"
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		cfg:      cfg,
		policy:   ownership.NewPolicy(cfg.TargetOwner, cfg.ManagedEnvironments),
		factory:  factory,
		env:      env,
		prober:   prober,
		producer: producer,
		records:  recordStore,
		ledger:   ledger.New(),
		history:  history,
		logger:   logger,
		runID:    uuid.New().String(),
	}, nil
}

// RunID returns this run's unique identifier.
func (o *Orchestrator) RunID() string {
	return o.runID
}

// Start marks the beginning of the run and registers it with the
// history store. Must be called before the first Deploy.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.startedAt = time.Now().UTC()
	o.logger.Info("starting deployment run",
		"run_id", o.runID,
		"environment", o.cfg.EnvironmentID,
		"caller", o.cfg.Caller.String(),
		"force_override", o.cfg.ForceOverride,
	)
	if o.history != nil {
		if err := o.history.BeginRun(ctx, o.runID, o.cfg.EnvironmentID, o.cfg.Host, o.startedAt); err != nil {
			return fmt.Errorf("failed to begin history run: %w", err)
		}
	}
	return nil
}

// =============================================================================
// Deploy
// =============================================================================

// Result is the outcome of one deploy call.
type Result struct {
	Key      string
	Address  domain.Address
	Deployed bool
	State    domain.DeployState
}

// Deploy deploys a build payload at its deterministic address. Safe to
// call repeatedly: an address that already carries code is skipped.
func (o *Orchestrator) Deploy(ctx context.Context, payload []byte) (Result, error) {
	return o.deploy(ctx, payload, "")
}

// DeployWithSalt deploys a payload under a suffixed deployment key,
// for multiple instances of identical code on one environment. Same
// procedure as Deploy, parameterized by the suffix.
func (o *Orchestrator) DeployWithSalt(ctx context.Context, payload []byte, suffix string) (Result, error) {
	return o.deploy(ctx, payload, suffix)
}

func (o *Orchestrator) deploy(ctx context.Context, payload []byte, suffix string) (Result, error) {
	state := domain.StateInit

	// 1. Extract name and version from the payload's version capability.
	version, err := o.prober.ProbeVersion(ctx, payload)
	if err != nil {
		return o.abort(ctx, &state, "", fmt.Errorf("failed to probe artifact version: %w", err))
	}
	meta, err := domain.ParseArtifactVersion(version)
	if err != nil {
		return o.abort(ctx, &state, "", err)
	}
	key := domain.DeploymentKey(meta.VersionAndVariant, suffix)
	deploySalt := salt.DeriveWithSuffix(o.cfg.Caller, meta.VersionAndVariant, suffix)

	// 2. Precompute the deterministic address. No chain mutation.
	address, err := o.factory.ComputeAddress(ctx, deploySalt, o.cfg.Caller)
	if err != nil {
		return o.abort(ctx, &state, key, fmt.Errorf("failed to compute address for %s: %w", key, err))
	}
	o.transition(&state, domain.StateAddressComputed)

	// 3. Record the computed address regardless of the outcome.
	o.ledger.RecordComputed(key, address)

	// 4. Idempotency probe: code already present means nothing to do.
	present, err := o.env.CodePresent(ctx, address)
	if err != nil {
		return o.abort(ctx, &state, key, fmt.Errorf("failed to probe code at %s: %w", address, err))
	}
	if present {
		return o.skip(ctx, &state, key, address, "code already present")
	}

	// 5. Verification gate. A mismatch without override aborts here,
	// before any broadcast is attempted.
	fresh, err := o.producer.Generate(ctx, meta.Name)
	if err != nil {
		return o.abort(ctx, &state, key, fmt.Errorf("failed to generate verification content for %s: %w", meta.Name, err))
	}
	published, exists, err := o.records.ReadVerification(key)
	if err != nil {
		return o.abort(ctx, &state, key, err)
	}
	verdict, err := verify.Check(key, published, exists, fresh, o.cfg.ForceOverride)
	if err != nil {
		return o.abort(ctx, &state, key, err)
	}
	o.transition(&state, domain.StateGatePassed)

	// 6. Broadcast. Irreversible from here on.
	o.transition(&state, domain.StateBroadcast)
	o.logger.Info("broadcasting deployment",
		"run_id", o.runID,
		"key", key,
		"address", address.String(),
		"salt", deploySalt.String(),
	)
	got, err := o.factory.DeployAt(ctx, deploySalt, payload)
	if err != nil {
		// A racing run may have won this salt. If code now sits at the
		// predicted address the rejection is a successful no-op, not a
		// failure.
		if present, probeErr := o.env.CodePresent(ctx, address); probeErr == nil && present {
			return o.skip(ctx, &state, key, address, "lost deployment race, code present")
		}
		return Result{Key: key, Address: address, State: state},
			fmt.Errorf("broadcast failed for %s: %w", key, err)
	}

	// 7. The factory must land on the precomputed address. Anything
	// else is a systemic inconsistency, never swallowed or retried.
	if got != address {
		return Result{Key: key, Address: address, State: state},
			fmt.Errorf("%w: computed %s, deployed %s (key %s)",
				domain.ErrAddressMismatch, address, got, key)
	}
	o.transition(&state, domain.StateDeployed)

	// 8. Bookkeeping: ledger, verification record, notification.
	o.ledger.RecordDeployed(key, address)
	o.transition(&state, domain.StateLedgerUpdated)

	if _, err := o.records.WriteVerification(key, fresh, verdict); err != nil {
		return Result{Key: key, Address: address, Deployed: true, State: state}, err
	}

	o.transition(&state, domain.StateDone)
	o.deployed++
	o.recordHistory(ctx, key, address, state, true)
	o.logger.Info("deployed",
		"run_id", o.runID,
		"key", key,
		"address", address.String(),
		"verdict", string(verdict),
	)
	return Result{Key: key, Address: address, Deployed: true, State: state}, nil
}

// skip finishes a deploy call that found its work already done.
func (o *Orchestrator) skip(ctx context.Context, state *domain.DeployState, key string, address domain.Address, reason string) (Result, error) {
	o.transition(state, domain.StateSkipped)
	o.transition(state, domain.StateDone)
	o.skipped++
	o.recordHistory(ctx, key, address, domain.StateSkipped, false)
	o.logger.Info("skipping deployment",
		"run_id", o.runID,
		"key", key,
		"address", address.String(),
		"reason", reason,
	)
	return Result{Key: key, Address: address, Deployed: false, State: domain.StateDone}, nil
}

// abort terminates a deploy call before any irreversible action.
func (o *Orchestrator) abort(ctx context.Context, state *domain.DeployState, key string, err error) (Result, error) {
	o.transition(state, domain.StateAborted)
	if key != "" {
		o.recordHistory(ctx, key, domain.Address{}, domain.StateAborted, false)
	}
	o.logger.Error("deployment aborted",
		"run_id", o.runID,
		"key", key,
		"error", err,
	)
	return Result{Key: key, State: domain.StateAborted}, err
}

// transition advances the state machine. The transition table is the
// single source of truth; a rejected transition is a bug in this
// package, not an operational condition.
func (o *Orchestrator) transition(state *domain.DeployState, to domain.DeployState) {
	if err := domain.ValidateTransition(*state, to); err != nil {
		panic(fmt.Sprintf("deploy: illegal transition %s -> %s", *state, to))
	}
	*state = to
}

func (o *Orchestrator) recordHistory(ctx context.Context, key string, address domain.Address, state domain.DeployState, deployed bool) {
	if o.history == nil {
		return
	}
	if err := o.history.RecordOutcome(ctx, o.runID, key, address, state, deployed); err != nil {
		// History is bookkeeping; a failed write must not fail a run
		// whose broadcast already happened.
		o.logger.Warn("failed to record deployment history",
			"run_id", o.runID,
			"key", key,
			"error", err,
		)
	}
}

// =============================================================================
// Ownership Handoff
// =============================================================================

// ApplyOwnership hands administrative control of an instance to the
// configured target owner on managed environments. Idempotent:
// repeated calls converge to at most one transfer in total.
func (o *Orchestrator) ApplyOwnership(ctx context.Context, handle OwnershipHandle) error {
	if !o.policy.Classify(o.cfg.EnvironmentID) {
		o.logger.Info("ownership unchanged on unmanaged environment",
			"environment", o.cfg.EnvironmentID,
		)
		return nil
	}

	if o.cfg.TargetOwner.IsZero() {
		o.logger.Warn("managed environment has no target owner configured, skipping handoff",
			"environment", o.cfg.EnvironmentID,
		)
		return nil
	}

	current, err := handle.Owner(ctx)
	if err != nil {
		return fmt.Errorf("failed to query current owner: %w", err)
	}

	plan := o.policy.PlanHandoff(o.cfg.EnvironmentID, current)
	switch plan.Action {
	case ownership.ActionTransfer:
		if err := handle.TransferOwnership(ctx, o.cfg.TargetOwner); err != nil {
			return fmt.Errorf("failed to transfer ownership: %w", err)
		}
		o.logger.Info("ownership transferred",
			"environment", o.cfg.EnvironmentID,
			"from", current.String(),
			"to", o.cfg.TargetOwner.String(),
		)
	default:
		o.logger.Info("ownership unchanged", "reason", plan.Reason)
	}
	return nil
}

// =============================================================================
// Finalize
// =============================================================================

// Finalize writes the run's ledgers and closes out the history run.
// The cumulative ledger is always written; the diff ledger only when
// this run deployed something.
func (o *Orchestrator) Finalize(ctx context.Context) (records.LedgerPaths, error) {
	paths, err := o.records.WriteLedger(o.cfg.EnvironmentID, o.cfg.Host, o.ledger)
	if err != nil {
		return records.LedgerPaths{}, err
	}

	if o.history != nil {
		if err := o.history.FinishRun(ctx, o.runID, time.Now().UTC(), o.deployed, o.skipped); err != nil {
			o.logger.Warn("failed to finish history run", "run_id", o.runID, "error", err)
		}
	}

	o.logger.Info("run finalized",
		"run_id", o.runID,
		"environment", o.cfg.EnvironmentID,
		"deployed", o.deployed,
		"skipped", o.skipped,
		"all_ledger", paths.AllPath,
		"diff_ledger", paths.DiffPath,
	)
	return paths, nil
}
