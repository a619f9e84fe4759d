// Package domain contains the core value types for deterministic
// deployments: artifact metadata, deployment keys, addresses and salts,
// the per-artifact deployment state machine, and the error taxonomy.
//
// Everything in this package is pure data and pure functions; all I/O
// (gateway calls, ledger files, history store) lives in internal/shell.
package domain
