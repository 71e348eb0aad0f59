// Package dedup implements the temporal deduplication policy of :
// a candidate violation is suppressed if the same (track_id, kind) pair
// reported within the cooldown window, but the underlying rule state always
// advances regardless, so the state machine never thrashes.
package dedup

import (
	"sync"

	"github.com/trafficmind/violation-core/internal/rules"
)

type key struct {
	trackID uint64
	kind    rules.Kind
}

// Table is a per-stream cooldown map. Safe for concurrent use, though in
// practice only the single frame-processing goroutine touches it.
type Table struct {
	mu         sync.Mutex
	lastReport map[key]int64
	cooldownMs int64
}

// NewTable builds a cooldown table with the given window.
func NewTable(cooldownMs int64) *Table {
	return &Table{lastReport: make(map[key]int64), cooldownMs: cooldownMs}
}

// Allow reports whether a violation of kind for trackID at nowMs should be
// emitted. It always records nowMs as the new "last report" time when
// allowing, and never records anything on suppression — the existing
// timestamp is left untouched so the cooldown window is measured from the
// last *accepted* report, not from every suppressed candidate.
func (t *Table) Allow(trackID uint64, kind rules.Kind, nowMs int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	k := key{trackID: trackID, kind: kind}
	last, ok := t.lastReport[k]
	if ok && nowMs-last < t.cooldownMs {
		return false
	}
	t.lastReport[k] = nowMs
	return true
}

// Evict drops every cooldown entry for trackID. Nothing in this module
// calls it: vehicle.Store's idle sweep removes vehicle state only, so the
// cooldown entries of swept vehicles stay in the table.
func (t *Table) Evict(trackID uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for k := range t.lastReport {
		if k.trackID == trackID {
			delete(t.lastReport, k)
		}
	}
}
