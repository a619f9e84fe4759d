// Package records persists the on-disk artifacts of a deployment run:
// the diff and cumulative ledger files and the verification records
// used by the fail-closed verification gate.
//
// Layout under {root}/{subfolder}:
//
//	{envID}-{host}-{timestamp}.json        diff ledger (only when non-empty)
//	{envID}-latest.json                    cumulative ledger (always)
//	standard-json-inputs/{key}.json        canonical verification record
//	standard-json-inputs/{key}-{ts}.json   divergent copy (override only)
//
// Files are unlocked; runs are rare operator-triggered events, not a
// continuously running service.
package records

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/artpar/anchor/internal/core/domain"
	"github.com/artpar/anchor/internal/core/ledger"
	"github.com/artpar/anchor/internal/core/verify"
)

// verificationDir holds the canonical compiler-input documents used by
// third-party verification services.
const verificationDir = "standard-json-inputs"

// =============================================================================
// Store
// =============================================================================

// Store reads and writes run records below a single directory.
type Store struct {
	dir    string
	logger *slog.Logger
	now    func() time.Time
}

// NewStore creates the record store for {root}/{subfolder}, creating
// the directory tree if needed.
func NewStore(root, subfolder string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dir := filepath.Join(root, subfolder)
	if err := os.MkdirAll(filepath.Join(dir, verificationDir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create records directory: %w", err)
	}
	return &Store{dir: dir, logger: logger, now: time.Now}, nil
}

// Dir returns the store's base directory.
func (s *Store) Dir() string {
	return s.dir
}

// =============================================================================
// Verification Records
// =============================================================================

// canonicalPath is the immutable location of key's published record.
func (s *Store) canonicalPath(key string) string {
	return filepath.Join(s.dir, verificationDir, key+".json")
}

// ReadVerification returns the published verification record for key,
// and whether one exists.
func (s *Store) ReadVerification(key string) ([]byte, bool, error) {
	content, err := os.ReadFile(s.canonicalPath(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read verification record %s: %w", key, err)
	}
	return content, true, nil
}

// WriteVerification persists fresh verification content according to
// the gate verdict and returns the path written, or "" when the
// verdict needs no write.
//
// A divergent write goes to a timestamp-qualified sibling; the
// canonical record is never overwritten once published.
func (s *Store) WriteVerification(key string, content []byte, verdict verify.Verdict) (string, error) {
	var path string
	switch verdict {
	case verify.VerdictFirstRecord:
		path = s.canonicalPath(key)
	case verify.VerdictDivergent:
		path = filepath.Join(s.dir, verificationDir,
			fmt.Sprintf("%s-%d.json", key, s.now().UTC().Unix()))
		s.logger.Warn("writing divergent verification record",
			"key", key,
			"path", path,
		)
	default:
		return "", nil
	}

	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("failed to write verification record %s: %w", key, err)
	}
	return path, nil
}

// =============================================================================
// Ledger Files
// =============================================================================

// LedgerPaths reports where Finalize wrote the run's ledgers.
// DiffPath is empty when the run deployed nothing.
type LedgerPaths struct {
	DiffPath string
	AllPath  string
}

// WriteLedger persists a run ledger for one environment. The
// cumulative file is rewritten unconditionally; the diff file is only
// written when the run actually deployed something.
func (s *Store) WriteLedger(envID, host string, led *ledger.Ledger) (LedgerPaths, error) {
	var paths LedgerPaths

	paths.AllPath = filepath.Join(s.dir, fmt.Sprintf("%s-latest.json", envID))
	if err := writeAddressFile(paths.AllPath, led.All()); err != nil {
		return LedgerPaths{}, err
	}

	if !led.HasNewDeployments() {
		s.logger.Info("no new deployments, skipping diff ledger", "environment", envID)
		return paths, nil
	}

	paths.DiffPath = filepath.Join(s.dir,
		fmt.Sprintf("%s-%s-%d.json", envID, host, s.now().UTC().Unix()))
	if err := writeAddressFile(paths.DiffPath, led.Diff()); err != nil {
		return LedgerPaths{}, err
	}
	return paths, nil
}

func writeAddressFile(path string, records map[string]domain.Address) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal ledger: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write ledger %s: %w", path, err)
	}
	return nil
}

// ReadLedgerFile loads a previously written ledger file. Used by tests
// and by operators inspecting past runs programmatically.
func ReadLedgerFile(path string) (map[string]domain.Address, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger %s: %w", path, err)
	}
	var out map[string]domain.Address
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse ledger %s: %w", path, err)
	}
	return out, nil
}
