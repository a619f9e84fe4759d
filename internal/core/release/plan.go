// Package release contains pure functions for parsing release plans.
//
// A release plan is the operator-facing YAML document naming the
// artifacts of one deployment run:
//
//	environment: "10"
//	artifacts:
//	  - payload: out/Token.bin
//	  - payload: out/Token.bin
//	    suffix: usdc
//	    transfer_ownership: true
//
// Parsing and validation are pure; reading the plan file and the
// payload files is the caller's job.
package release

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	ErrEmptyPlan       = errors.New("release plan is empty")
	ErrInvalidYAML     = errors.New("invalid YAML syntax")
	ErrNoArtifacts     = errors.New("release plan must list at least one artifact")
	ErrMissingPayload  = errors.New("artifact must name a payload file")
	ErrDuplicateSuffix = errors.New("duplicate payload/suffix pair")
)

// =============================================================================
// Plan Types
// =============================================================================

// Artifact is one deployable entry of a release plan.
type Artifact struct {
	// Payload is the path to the build payload, relative to the plan
	// file's directory.
	Payload string `yaml:"payload"`

	// Suffix distinguishes multiple deployments of identical code on
	// one environment. Empty for plain deployments.
	Suffix string `yaml:"suffix"`

	// TransferOwnership requests an ownership handoff for this
	// instance after the run's deployments complete. Only takes effect
	// on managed environments.
	TransferOwnership bool `yaml:"transfer_ownership"`
}

// Plan is a parsed release plan.
type Plan struct {
	// Environment optionally pins the plan to one environment ID; the
	// orchestrator refuses to run the plan elsewhere.
	Environment string `yaml:"environment"`

	Artifacts []Artifact `yaml:"artifacts"`
}

// =============================================================================
// Parsing
// =============================================================================

// Parse parses and validates a release plan document.
func Parse(data []byte) (Plan, error) {
	if len(data) == 0 {
		return Plan{}, ErrEmptyPlan
	}

	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return Plan{}, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	if err := plan.Validate(); err != nil {
		return Plan{}, err
	}
	return plan, nil
}

// Validate checks plan invariants: at least one artifact, every
// artifact names a payload, and no payload/suffix pair repeats (which
// would derive the same salt twice).
func (p Plan) Validate() error {
	if len(p.Artifacts) == 0 {
		return ErrNoArtifacts
	}

	seen := make(map[string]bool, len(p.Artifacts))
	for i, a := range p.Artifacts {
		if a.Payload == "" {
			return fmt.Errorf("%w: artifacts[%d]", ErrMissingPayload, i)
		}
		id := a.Payload + "\x00" + a.Suffix
		if seen[id] {
			return fmt.Errorf("%w: artifacts[%d] (%s, suffix %q)", ErrDuplicateSuffix, i, a.Payload, a.Suffix)
		}
		seen[id] = true
	}
	return nil
}
