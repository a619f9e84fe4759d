package ledger

import (
	"fmt"
	"testing"

	"github.com/artpar/anchor/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

var (
	addrA = domain.MustParseAddress("0x000000000000000000000000000000000000000a")
	addrB = domain.MustParseAddress("0x000000000000000000000000000000000000000b")
)

func TestNew_Empty(t *testing.T) {
	l := New()

	assert.Empty(t, l.Diff())
	assert.Empty(t, l.All())
	assert.False(t, l.HasNewDeployments())
}

func TestRecordComputed_OnlyAll(t *testing.T) {
	l := New()
	l.RecordComputed("1.0.0-Token", addrA)

	assert.Empty(t, l.Diff())
	assert.Equal(t, map[string]domain.Address{"1.0.0-Token": addrA}, l.All())
	assert.False(t, l.HasNewDeployments())
}

func TestRecordDeployed_BothViews(t *testing.T) {
	l := New()
	l.RecordComputed("1.0.0-Token", addrA)
	l.RecordDeployed("1.0.0-Token", addrA)

	assert.Equal(t, map[string]domain.Address{"1.0.0-Token": addrA}, l.Diff())
	assert.Equal(t, map[string]domain.Address{"1.0.0-Token": addrA}, l.All())
	assert.True(t, l.HasNewDeployments())
}

func TestRecordComputed_LastWriteWins(t *testing.T) {
	l := New()
	l.RecordComputed("1.0.0-Token", addrA)
	l.RecordComputed("1.0.0-Token", addrB)

	assert.Equal(t, addrB, l.All()["1.0.0-Token"])
	assert.Len(t, l.All(), 1)
}

func TestLedger_MixedRun(t *testing.T) {
	// N deploy calls, M of which deploy: diff has M entries, all has N.
	l := New()
	const n, m = 5, 2
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("1.0.%d-Token", i)
		l.RecordComputed(key, addrA)
		if i < m {
			l.RecordDeployed(key, addrA)
		}
	}

	assert.Len(t, l.Diff(), m)
	assert.Len(t, l.All(), n)
	assert.True(t, l.HasNewDeployments())
}

func TestSnapshots_AreCopies(t *testing.T) {
	l := New()
	l.RecordDeployed("1.0.0-Token", addrA)

	diff := l.Diff()
	diff["1.0.0-Token"] = addrB
	delete(diff, "1.0.0-Token")

	assert.Equal(t, addrA, l.Diff()["1.0.0-Token"])
}
