package domain

// =============================================================================
// Deployment State Machine
// =============================================================================

// DeployState tracks a single deploy call through the orchestrator.
type DeployState string

const (
	StateInit            DeployState = "init"
	StateAddressComputed DeployState = "address_computed"
	StateSkipped         DeployState = "skipped"
	StateGatePassed      DeployState = "gate_passed"
	StateBroadcast       DeployState = "broadcast"
	StateDeployed        DeployState = "deployed"
	StateLedgerUpdated   DeployState = "ledger_updated"
	StateDone            DeployState = "done"
	StateAborted         DeployState = "aborted"
)

// validTransitions defines the allowed state transitions. Aborted is
// reachable from every state before the broadcast; once a broadcast is
// issued there is no rollback path.
var validTransitions = map[DeployState][]DeployState{
	StateInit:            {StateAddressComputed, StateAborted},
	StateAddressComputed: {StateSkipped, StateGatePassed, StateAborted},
	StateSkipped:         {StateDone},
	StateGatePassed:      {StateBroadcast, StateAborted},
	StateBroadcast:       {StateDeployed, StateSkipped},
	StateDeployed:        {StateLedgerUpdated},
	StateLedgerUpdated:   {StateDone},
	StateDone:            {}, // Terminal state
	StateAborted:         {}, // Terminal state
}

// ValidateTransition checks if a state transition is valid.
func ValidateTransition(from, to DeployState) error {
	allowed, exists := validTransitions[from]
	if !exists {
		return ErrInvalidTransition
	}

	for _, s := range allowed {
		if s == to {
			return nil
		}
	}

	return ErrInvalidTransition
}

// Terminal reports whether a state has no outgoing transitions.
func (s DeployState) Terminal() bool {
	return len(validTransitions[s]) == 0
}
