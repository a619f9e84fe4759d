// Package ownership decides whether and how administrative control of
// a deployed instance is handed to a designated owner.
//
// Handoff only happens on managed (production-like) environments.
// Membership in the managed set is static configuration, read-only for
// the duration of a run. The decision logic here is pure; the single
// privileged transfer call is issued by the orchestrator.
package ownership

import (
	"fmt"

	"github.com/artpar/anchor/internal/core/domain"
)

// =============================================================================
// Environment Classification
// =============================================================================

// Policy holds the static ownership configuration for a run.
type Policy struct {
	// TargetOwner is the address that should own instances on managed
	// environments. May be zero, which downgrades handoff to a warning.
	TargetOwner domain.Address

	// ManagedEnvironments is the set of environment identifiers that
	// are production-like and subject to handoff.
	ManagedEnvironments map[string]bool
}

// NewPolicy builds a Policy from a target owner and a list of managed
// environment identifiers.
func NewPolicy(targetOwner domain.Address, managedEnvs []string) Policy {
	managed := make(map[string]bool, len(managedEnvs))
	for _, env := range managedEnvs {
		managed[env] = true
	}
	return Policy{TargetOwner: targetOwner, ManagedEnvironments: managed}
}

// Classify reports whether an environment is managed.
func (p Policy) Classify(environmentID string) bool {
	return p.ManagedEnvironments[environmentID]
}

// =============================================================================
// Handoff Planning
// =============================================================================

// HandoffAction is what the orchestrator should do for one instance.
type HandoffAction string

const (
	// ActionNone means nothing to do; Reason says why.
	ActionNone HandoffAction = "none"

	// ActionWarn means nothing to do, but the situation deserves a
	// warning (managed environment with no target owner configured).
	ActionWarn HandoffAction = "warn"

	// ActionTransfer means issue exactly one ownership-transfer call.
	ActionTransfer HandoffAction = "transfer"
)

// HandoffPlan is the result of planning an ownership handoff.
type HandoffPlan struct {
	Action HandoffAction
	Reason string
}

// PlanHandoff determines the handoff action for an instance on the
// given environment, from its current owner.
//
// The plan converges: once ownership matches the target, every later
// call yields ActionNone, so repeated application performs at most one
// transfer in total.
func (p Policy) PlanHandoff(environmentID string, currentOwner domain.Address) HandoffPlan {
	if !p.Classify(environmentID) {
		return HandoffPlan{
			Action: ActionNone,
			Reason: fmt.Sprintf("environment %s is not managed, ownership left with deployer", environmentID),
		}
	}

	if p.TargetOwner.IsZero() {
		return HandoffPlan{
			Action: ActionWarn,
			Reason: fmt.Sprintf("environment %s is managed but no target owner is configured", environmentID),
		}
	}

	if currentOwner == p.TargetOwner {
		return HandoffPlan{
			Action: ActionNone,
			Reason: fmt.Sprintf("owner already %s", p.TargetOwner),
		}
	}

	return HandoffPlan{
		Action: ActionTransfer,
		Reason: fmt.Sprintf("transferring ownership from %s to %s", currentOwner, p.TargetOwner),
	}
}
