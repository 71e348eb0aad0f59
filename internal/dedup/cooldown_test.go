package dedup

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trafficmind/violation-core/internal/rules"
)

func TestAllowSuppressesWithinCooldown(t *testing.T) {
	tbl := NewTable(10000)

	require.True(t, tbl.Allow(1, rules.RedLight, 0))
	require.False(t, tbl.Allow(1, rules.RedLight, 5000), "must suppress within the cooldown window")
	require.True(t, tbl.Allow(1, rules.RedLight, 10000), "must allow once the cooldown has fully elapsed")
}

func TestAllowIsPerTrackAndKind(t *testing.T) {
	tbl := NewTable(10000)

	require.True(t, tbl.Allow(1, rules.RedLight, 0))
	require.True(t, tbl.Allow(1, rules.WrongWay, 0), "a different kind for the same track is independent")
	require.True(t, tbl.Allow(2, rules.RedLight, 0), "a different track for the same kind is independent")
}

func TestSuppressedCandidatesDoNotExtendTheWindow(t *testing.T) {
	tbl := NewTable(10000)

	require.True(t, tbl.Allow(1, rules.RedLight, 0))
	require.False(t, tbl.Allow(1, rules.RedLight, 3000))
	require.False(t, tbl.Allow(1, rules.RedLight, 6000))
	// Window is measured from the first accepted report at t=0, not from
	// the suppressed candidates at t=3000/6000.
	require.True(t, tbl.Allow(1, rules.RedLight, 10001))
}

func TestEvictDropsAllKindsForATrack(t *testing.T) {
	tbl := NewTable(10000)
	tbl.Allow(1, rules.RedLight, 0)
	tbl.Allow(1, rules.WrongWay, 0)

	tbl.Evict(1)

	require.True(t, tbl.Allow(1, rules.RedLight, 500), "evicted track's cooldown must reset immediately")
	require.True(t, tbl.Allow(1, rules.WrongWay, 500))
}
