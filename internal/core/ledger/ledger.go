// Package ledger accumulates the deployment records of a single
// orchestrator run.
//
// Two views are kept: "diff" holds only the keys newly deployed this
// run, "all" holds every key whose address was computed this run,
// deployed or skipped. The split lets a consumer distinguish "what
// changed" from "the full current picture" without re-diffing history.
// Persistence to disk is handled by internal/shell/records.
package ledger

import "github.com/artpar/anchor/internal/core/domain"

// Ledger is the run-scoped record of computed and deployed addresses.
// It is created at orchestrator start, mutated once per deploy call,
// and discarded after finalize. Not safe for concurrent use; runs are
// strictly sequential.
type Ledger struct {
	diff   map[string]domain.Address
	all    map[string]domain.Address
	hasNew bool
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{
		diff: make(map[string]domain.Address),
		all:  make(map[string]domain.Address),
	}
}

// RecordComputed records a precomputed address for key. Called for
// every deploy attempt, whether it goes on to deploy or skips. Last
// write wins per key.
func (l *Ledger) RecordComputed(key string, address domain.Address) {
	l.all[key] = address
}

// RecordDeployed records that key was newly deployed at address this
// run. Implies RecordComputed for the same pair.
func (l *Ledger) RecordDeployed(key string, address domain.Address) {
	l.all[key] = address
	l.diff[key] = address
	l.hasNew = true
}

// HasNewDeployments reports whether any deployment happened this run.
// Equivalent to Diff() being non-empty.
func (l *Ledger) HasNewDeployments() bool {
	return l.hasNew
}

// Diff returns a copy of the newly-deployed records.
func (l *Ledger) Diff() map[string]domain.Address {
	return copyRecords(l.diff)
}

// All returns a copy of every record computed this run.
func (l *Ledger) All() map[string]domain.Address {
	return copyRecords(l.all)
}

func copyRecords(src map[string]domain.Address) map[string]domain.Address {
	out := make(map[string]domain.Address, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
