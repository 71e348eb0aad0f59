// Package stream wires one intersection's ROI model, vehicle store, signal
// supervisor, rule engine, dedup table, evidence capture, and reporter into
// the single ProcessFrame entry point the outer video loop calls once per
// decoded frame.
package stream

import (
	"context"
	"image"
	"time"

	"github.com/trafficmind/violation-core/internal/config"
	"github.com/trafficmind/violation-core/internal/dedup"
	"github.com/trafficmind/violation-core/internal/evidence"
	"github.com/trafficmind/violation-core/internal/logging"
	"github.com/trafficmind/violation-core/internal/report"
	"github.com/trafficmind/violation-core/internal/roiconfig"
	"github.com/trafficmind/violation-core/internal/rules"
	"github.com/trafficmind/violation-core/internal/signal"
	"github.com/trafficmind/violation-core/internal/vehicle"
)

// Violation is the confirmed, caller-facing output of one ProcessFrame call:
// a rules.Violation that survived dedup and got a snapshot (if one could be
// captured).
type Violation struct {
	rules.Violation
	ID           string
	SnapshotPath string
}

// Stream owns everything for one video source: its own vehicle state store
// and cooldown table, plus shared handles to
// the process-wide signal supervisor and reporter.
type Stream struct {
	IntersectionID int

	roi       *roiconfig.Model
	store     *vehicle.Store
	cooldown  *dedup.Table
	engine    *rules.Engine
	signals   *signal.Supervisor
	reporter  Reporter
	evidence  evidence.Options
	thresholds config.Thresholds
}

// Reporter is the narrow surface Stream needs from internal/report.Reporter,
// so tests can substitute a stub.
type Reporter interface {
	Enqueue(rec report.Record) error
}

// New builds a Stream for one intersection. roi and signals are typically
// shared across the process's streams list only when genuinely the same
// physical intersection; normally each Stream gets its own.
func New(cfg config.Config, roi *roiconfig.Model, signals *signal.Supervisor, reporter Reporter) *Stream {
	th := rules.Thresholds{
		MotionMinPx:            int(cfg.Thresholds.MotionMinPx),
		EnteringLookbackMs:     cfg.Thresholds.EnteringLookbackMs,
		WrongWayInThresholdPx:  int(cfg.Thresholds.WrongWayInThresholdPx),
		WrongWayOutThresholdPx: int(cfg.Thresholds.WrongWayOutThresholdPx),
		SolidLineProximityPx:   int(cfg.Thresholds.SolidLineProximityPx),
	}
	return &Stream{
		IntersectionID: cfg.IntersectionID,
		roi:            roi,
		store:          vehicle.NewStore(),
		cooldown:       dedup.NewTable(cfg.Thresholds.CooldownMs),
		engine:         rules.NewEngine(roi, th),
		signals:        signals,
		reporter:       reporter,
		thresholds:     cfg.Thresholds,
		evidence: evidence.Options{
			ScreenshotDir: cfg.Evidence.ScreenshotDir,
			ExpandRatio:   cfg.Evidence.ExpandRatio,
			MinCanvasSide: cfg.Evidence.MinCanvasSide,
		},
	}
}

// RunIdleSweep starts the store's background eviction loop; see
// vehicle.Store.RunIdleSweep. Intended to be launched once per Stream
// alongside the process's signal refresher and reporter worker.
func (s *Stream) RunIdleSweep(ctx context.Context, nowMsFn func() int64) {
	s.store.RunIdleSweep(ctx, nowMsFn, s.thresholds.VehicleIdleTimeoutMs, 2*time.Second)
}

// ProcessFrame runs the full per-frame pipeline: ingest tracks,
// evaluate all four rules per track, dedup, capture evidence, and hand
// confirmed violations to the reporter. It never returns an error to the
// caller; failures are logged and
// the frame advances.
func (s *Stream) ProcessFrame(tracks []vehicle.Track, frame image.Image, timestampMs int64) []Violation {
	log := logging.For("stream")
	s.store.Ingest(tracks, timestampMs, s.thresholds.TrajectoryWindowMs)

	sigTable := s.signals.Snapshot()

	var confirmed []Violation
	for _, track := range tracks {
		st, ok := s.store.Get(track.TrackID)
		if !ok {
			continue
		}
		candidates := s.engine.Evaluate(sigTable, st, track, timestampMs)
		for _, v := range candidates {
			if !s.cooldown.Allow(v.TrackID, v.Kind, timestampMs) {
				continue
			}
			out := s.finalize(log, frame, v, timestampMs)
			confirmed = append(confirmed, out)
		}
	}
	return confirmed
}

func (s *Stream) finalize(log logField, frame image.Image, v *rules.Violation, nowMs int64) Violation {
	id := report.NewCorrelationID()

	snapshotPath := ""
	if frame != nil {
		path, err := evidence.Capture(s.evidence, frame, v.BBox, id, string(v.Kind))
		if err != nil {
			log.Warn("snapshot capture failed, reporting without evidence: " + err.Error())
		} else {
			snapshotPath = path
		}
	}

	rec := report.Record{
		ID:           id,
		Kind:         v.Kind,
		TrackID:      v.TrackID,
		Direction:    string(v.Direction),
		TurnType:     v.TurnType,
		Class:        v.Class,
		Confidence:   v.Confidence,
		OccurredAt:   time.UnixMilli(nowMs),
		SnapshotPath: snapshotPath,
		Extra:        v.Extra,
	}
	if err := s.reporter.Enqueue(rec); err != nil {
		log.Warn("reporter queue full, violation retained locally: " + err.Error())
	}

	return Violation{Violation: *v, ID: id, SnapshotPath: snapshotPath}
}

// logField is the narrow logging surface finalize needs.
type logField interface {
	Warn(args ...interface{})
}
