// Package report implements the asynchronous reporting pipeline: upload the
// snapshot, submit a structured record, and never block the frame loop on
// either.
package report

import (
	"strconv"
	"time"

	"github.com/trafficmind/violation-core/internal/rules"
	"github.com/trafficmind/violation-core/internal/vehicle"
)

// Record is the complete, ready-to-submit violation: a rules.Violation
// plus the fields dedup/evidence attach before handing it to the Reporter.
type Record struct {
	ID           string
	Kind         rules.Kind
	TrackID      uint64
	Direction    string
	TurnType     rules.TurnType
	Class        vehicle.Class
	Confidence   float32
	OccurredAt   time.Time
	SnapshotPath string
	Extra        string

	// BackendID is filled in once the records service accepts the Submit
	// call; zero until then.
	BackendID int
}

// SyntheticPlate is "un_" + track_id, since plate recognition is out of
// scope for this core.
func SyntheticPlate(trackID uint64) string {
	return "un_" + strconv.FormatUint(trackID, 10)
}
