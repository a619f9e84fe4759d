package records

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/artpar/anchor/internal/core/domain"
	"github.com/artpar/anchor/internal/core/ledger"
	"github.com/artpar/anchor/internal/core/verify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var addrA = domain.MustParseAddress("0x000000000000000000000000000000000000000a")

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), "deployments", nil)
	require.NoError(t, err)
	// Deterministic timestamps for path assertions.
	s.now = func() time.Time { return time.Unix(1700000000, 0) }
	return s
}

// =============================================================================
// Verification Record Tests
// =============================================================================

func TestReadVerification_Missing(t *testing.T) {
	s := newTestStore(t)

	_, exists, err := s.ReadVerification("1.0.0-Token")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestWriteVerification_FirstRecord(t *testing.T) {
	s := newTestStore(t)

	path, err := s.WriteVerification("1.0.0-Token", []byte(`{"x":1}`), verify.VerdictFirstRecord)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Dir(), "standard-json-inputs", "1.0.0-Token.json"), path)

	content, exists, err := s.ReadVerification("1.0.0-Token")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, []byte(`{"x":1}`), content)
}

func TestWriteVerification_MatchWritesNothing(t *testing.T) {
	s := newTestStore(t)

	path, err := s.WriteVerification("1.0.0-Token", []byte(`{"x":1}`), verify.VerdictMatch)
	require.NoError(t, err)
	assert.Empty(t, path)

	_, exists, err := s.ReadVerification("1.0.0-Token")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestWriteVerification_DivergentPreservesCanonical(t *testing.T) {
	s := newTestStore(t)

	_, err := s.WriteVerification("1.0.0-Token", []byte(`X`), verify.VerdictFirstRecord)
	require.NoError(t, err)

	path, err := s.WriteVerification("1.0.0-Token", []byte(`Y`), verify.VerdictDivergent)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Dir(), "standard-json-inputs", "1.0.0-Token-1700000000.json"), path)

	divergent, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte(`Y`), divergent)

	canonical, exists, err := s.ReadVerification("1.0.0-Token")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, []byte(`X`), canonical, "canonical record must stay untouched")
}

// =============================================================================
// Ledger File Tests
// =============================================================================

func TestWriteLedger_WithDeployments(t *testing.T) {
	s := newTestStore(t)

	led := ledger.New()
	led.RecordComputed("1.0.0-Token", addrA)
	led.RecordDeployed("1.0.0-Token", addrA)

	paths, err := s.WriteLedger("10", "mainnet-gw", led)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Dir(), "10-latest.json"), paths.AllPath)
	assert.Equal(t, filepath.Join(s.Dir(), "10-mainnet-gw-1700000000.json"), paths.DiffPath)

	all, err := ReadLedgerFile(paths.AllPath)
	require.NoError(t, err)
	assert.Equal(t, map[string]domain.Address{"1.0.0-Token": addrA}, all)

	diff, err := ReadLedgerFile(paths.DiffPath)
	require.NoError(t, err)
	assert.Equal(t, map[string]domain.Address{"1.0.0-Token": addrA}, diff)
}

func TestWriteLedger_NoDeployments(t *testing.T) {
	s := newTestStore(t)

	led := ledger.New()
	led.RecordComputed("1.0.0-Token", addrA)

	paths, err := s.WriteLedger("10", "mainnet-gw", led)
	require.NoError(t, err)
	assert.Empty(t, paths.DiffPath, "diff file must be absent when nothing deployed")

	// Cumulative file is still written.
	all, err := ReadLedgerFile(paths.AllPath)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	entries, err := filepath.Glob(filepath.Join(s.Dir(), "10-mainnet-gw-*.json"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriteLedger_LatestOverwritten(t *testing.T) {
	s := newTestStore(t)

	led := ledger.New()
	led.RecordComputed("1.0.0-Token", addrA)

	_, err := s.WriteLedger("10", "gw", led)
	require.NoError(t, err)

	led.RecordComputed("1.0.0-Vault", addrA)
	paths, err := s.WriteLedger("10", "gw", led)
	require.NoError(t, err)

	all, err := ReadLedgerFile(paths.AllPath)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

// =============================================================================
// FileProducer Tests
// =============================================================================

func TestFileProducer(t *testing.T) {
	buildDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(buildDir, "Token.json"), []byte(`{"sources":{}}`), 0o644))

	p := NewFileProducer(buildDir)

	content, err := p.Generate(context.Background(), "Token")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"sources":{}}`), content)

	_, err = p.Generate(context.Background(), "Missing")
	assert.Error(t, err)
}
