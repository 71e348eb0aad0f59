package signal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/trafficmind/violation-core/internal/logging"
	"github.com/trafficmind/violation-core/internal/roiconfig"
)

// upstreamDirectionPhase mirrors the plain per-direction JSON GET response
// from the upstream signal source.
type upstreamDirectionPhase struct {
	StraightPhase string `json:"straightPhase"`
	LeftTurnPhase string `json:"leftTurnPhase"`
}

var errUpstreamNotConfigured = fmt.Errorf("signal: no upstream URL configured")

func errUpstreamStatus(code int) error {
	return fmt.Errorf("signal: upstream returned status %d", code)
}

// Supervisor owns the current Table and refreshes it on a background tick;
// construct with NewSupervisor.
type Supervisor struct {
	mu     sync.Mutex
	mode   Mode
	table  Table
	frozen bool

	upstreamURL string
	httpClient  *http.Client
}

// NewSupervisor builds a Supervisor in the given mode, starting from an
// all-RED table.
func NewSupervisor(mode Mode, upstreamURL string, upstreamTimeout time.Duration) *Supervisor {
	return &Supervisor{
		mode:        mode,
		table:       NewTable(),
		upstreamURL: upstreamURL,
		httpClient:  &http.Client{Timeout: upstreamTimeout},
	}
}

// Snapshot returns a consistent by-value copy of the current phase table.
func (s *Supervisor) Snapshot() Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneTable(s.table)
}

func cloneTable(t Table) Table {
	out := NewTable()
	for _, d := range roiconfig.Directions {
		out.phases[d] = t.phases[d]
	}
	return out
}

// Mode reports the currently configured source mode.
func (s *Supervisor) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetMode switches the source mode at runtime.
func (s *Supervisor) SetMode(m Mode) {
	s.mu.Lock()
	s.mode = m
	s.mu.Unlock()
}

// SetThrough sets one direction's through phase; only meaningful in MANUAL
// mode. A no-op while frozen.
func (s *Supervisor) SetThrough(d roiconfig.Direction, p Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frozen {
		return
	}
	s.table.set(d, Through, p)
}

// SetLeftTurn sets one direction's left-turn phase; only meaningful in
// MANUAL mode. A no-op while frozen.
func (s *Supervisor) SetLeftTurn(d roiconfig.Direction, p Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frozen {
		return
	}
	s.table.set(d, LeftTurn, p)
}

// Freeze makes SetThrough, SetLeftTurn and ApplySignalCode no-ops until
// Resume is called; calls made while frozen are discarded, not replayed.
func (s *Supervisor) Freeze() {
	s.mu.Lock()
	s.frozen = true
	s.mu.Unlock()
}

// Resume un-suspends the effect of SetThrough/SetLeftTurn.
func (s *Supervisor) Resume() {
	s.mu.Lock()
	s.frozen = false
	s.mu.Unlock()
}

// ApplySignalCode decodes a 4-character signal code (e.g. "ETWT") via
// ParseSignalCode and applies it as a MANUAL-mode override.
func (s *Supervisor) ApplySignalCode(code string) {
	greenThrough, greenLeft := ParseSignalCode(code)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frozen {
		return
	}
	for _, d := range roiconfig.Directions {
		through := Red
		if greenThrough[d] {
			through = Green
		}
		left := Red
		if greenLeft[d] {
			left = Green
		}
		s.table.set(d, Through, through)
		s.table.set(d, LeftTurn, left)
	}
}

// Run starts the refresh loop on an absolute schedule: each tick's target
// time is start + n*interval so overruns are logged, not accumulated. Run
// blocks until ctx is cancelled.
func (s *Supervisor) Run(ctx context.Context, interval time.Duration) error {
	log := logging.For("signal-supervisor")
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		start := time.Now()
		var n int64 = 1
		for {
			target := start.Add(time.Duration(n) * interval)
			wait := time.Until(target)
			if wait < 0 {
				log.WithField("overrun_ms", -wait.Milliseconds()).Warn("signal refresh tick overran its interval")
				wait = 0
			}
			timer := time.NewTimer(wait)
			select {
			case <-groupCtx.Done():
				timer.Stop()
				return nil
			case <-timer.C:
			}
			s.tick(groupCtx, log)
			n++
		}
	})

	return group.Wait()
}

func (s *Supervisor) tick(ctx context.Context, log *logrus.Entry) {
	switch s.Mode() {
	case Authoritative:
		if err := s.refreshAuthoritative(ctx); err != nil {
			log.WithField("error", err.Error()).Warn("authoritative signal refresh failed, leaving state unchanged")
		}
	case Simulation:
		s.applySimulation(time.Now())
	case Auto:
		if err := s.refreshAuthoritative(ctx); err != nil {
			log.WithField("error", err.Error()).Warn("authoritative signal refresh failed, falling back to simulation")
			s.applySimulation(time.Now())
		}
	case Manual:
		// no-op; state only changes through explicit set calls.
	}
}

func (s *Supervisor) refreshAuthoritative(ctx context.Context) error {
	if s.upstreamURL == "" {
		return errUpstreamNotConfigured
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.upstreamURL, nil)
	if err != nil {
		return err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errUpstreamStatus(resp.StatusCode)
	}
	var payload map[string]upstreamDirectionPhase
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range roiconfig.Directions {
		dp, ok := payload[string(d)]
		if !ok {
			continue
		}
		s.table.set(d, Through, Phase(dp.StraightPhase))
		s.table.set(d, LeftTurn, Phase(dp.LeftTurnPhase))
	}
	return nil
}

// applySimulation computes a deterministic 60-second cycle and applies it
// to both the NS (North, South) and EW (East, West) axes.
func (s *Supervisor) applySimulation(now time.Time) {
	pos := int(now.Unix() % 60)
	ns, ew := simulationCycle(pos)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range []roiconfig.Direction{roiconfig.North, roiconfig.South} {
		s.table.set(d, Through, ns.Through)
		s.table.set(d, LeftTurn, ns.LeftTurn)
	}
	for _, d := range []roiconfig.Direction{roiconfig.East, roiconfig.West} {
		s.table.set(d, Through, ew.Through)
		s.table.set(d, LeftTurn, ew.LeftTurn)
	}
}

// simulationCycle maps a position in [0,60) to the through/left-turn phase
// pair for both axes of the fixed-time fallback cycle.
func simulationCycle(pos int) (ns, ew DirectionPhase) {
	switch {
	case pos < 20:
		return DirectionPhase{Through: Green, LeftTurn: Red}, DirectionPhase{Through: Red, LeftTurn: Red}
	case pos < 23:
		return DirectionPhase{Through: Yellow, LeftTurn: Red}, DirectionPhase{Through: Red, LeftTurn: Red}
	case pos < 43:
		return DirectionPhase{Through: Red, LeftTurn: Red}, DirectionPhase{Through: Green, LeftTurn: Green}
	case pos < 46:
		return DirectionPhase{Through: Red, LeftTurn: Red}, DirectionPhase{Through: Yellow, LeftTurn: Yellow}
	case pos < 50:
		return DirectionPhase{Through: Red, LeftTurn: Green}, DirectionPhase{Through: Red, LeftTurn: Red}
	case pos < 53:
		return DirectionPhase{Through: Red, LeftTurn: Yellow}, DirectionPhase{Through: Red, LeftTurn: Red}
	default:
		return DirectionPhase{Through: Red, LeftTurn: Red}, DirectionPhase{Through: Red, LeftTurn: Red}
	}
}
