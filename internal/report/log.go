package report

import (
	"bytes"
	"encoding/json"
	"sync"

	"github.com/klauspost/compress/gzip"

	"github.com/trafficmind/violation-core/internal/rules"
)

// Log keeps an in-memory record of every violation the Reporter has
// successfully submitted, for summary and export; records whose submit
// fails are not added.
type Log struct {
	mu      sync.Mutex
	records []Record
	counts  map[rules.Kind]int
}

// NewLog builds an empty Log.
func NewLog() *Log {
	return &Log{counts: make(map[rules.Kind]int)}
}

// Record appends rec and updates its per-kind count.
func (l *Log) Record(rec Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
	l.counts[rec.Kind]++
}

// Summary is a point-in-time count-by-kind snapshot.
type Summary struct {
	Total  int
	ByKind map[rules.Kind]int
}

// Summarize returns the current per-kind counts.
func (l *Log) Summarize() Summary {
	l.mu.Lock()
	defer l.mu.Unlock()
	byKind := make(map[rules.Kind]int, len(l.counts))
	total := 0
	for k, v := range l.counts {
		byKind[k] = v
		total += v
	}
	return Summary{Total: total, ByKind: byKind}
}

// Export serializes every retained record as gzip-compressed JSON.
func (l *Log) Export() ([]byte, error) {
	l.mu.Lock()
	records := make([]Record, len(l.records))
	copy(records, l.records)
	l.mu.Unlock()

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if err := json.NewEncoder(gw).Encode(records); err != nil {
		gw.Close()
		return nil, err
	}
	if err := gw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
