package history

import (
	"time"

	"github.com/artpar/anchor/internal/core/domain"
)

// =============================================================================
// History Types
// =============================================================================

// Run is one orchestrator invocation against one environment.
type Run struct {
	ID            string     `json:"id"`
	EnvironmentID string     `json:"environment_id"`
	Host          string     `json:"host"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
	DeployedCount int        `json:"deployed_count"`
	SkippedCount  int        `json:"skipped_count"`
}

// Record is the per-key outcome of one deploy call within a run.
type Record struct {
	RunID     string             `json:"run_id"`
	Key       string             `json:"key"`
	Address   domain.Address     `json:"address"`
	State     domain.DeployState `json:"state"`
	Deployed  bool               `json:"deployed"`
	CreatedAt time.Time          `json:"created_at"`
}

// =============================================================================
// Options
// =============================================================================

// ListOptions defines pagination options.
type ListOptions struct {
	Limit  int
	Offset int
}

// Normalize ensures list options have valid values.
func (o ListOptions) Normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = 100
	}
	if o.Limit > 1000 {
		o.Limit = 1000
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}
