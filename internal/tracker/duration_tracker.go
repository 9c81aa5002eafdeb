package tracker

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iOT-Capston-Design-Project/master-node/internal/models"
)

// ErrInvariant reports corrupted tracker state. The orchestrator treats it
// as fatal: it indicates a bug, not an external fault.
var ErrInvariant = errors.New("duration tracker invariant violation")

// DurationTracker accumulates sustained-pressure duration per body region
// across cycles. A region resets to zero the cycle its pressure drops below
// the sustained floor (regions absent from the readings count as released).
//
// Elapsed time comes from the timestamp delta between consecutive Record
// calls, not a fixed cycle period, so the tracker stays correct under jitter
// or dropped cycles. A delta larger than maxGap is clamped to maxGap.
//
// Single writer (the orchestrator calls Record); Snapshot is safe to call
// concurrently and returns a consistent point-in-time copy.
type DurationTracker struct {
	mu             sync.Mutex
	sustainedFloor float64
	maxGap         time.Duration
	states         map[models.BodyRegion]*regionState
	lastRecord     time.Time
	logger         *zap.Logger
}

type regionState struct {
	accumulated float64
	lastSeen    *time.Time
}

// NewDurationTracker creates a tracker with all regions at zero exposure
func NewDurationTracker(sustainedFloor float64, maxGap time.Duration, logger *zap.Logger) *DurationTracker {
	states := make(map[models.BodyRegion]*regionState, len(models.AllRegions()))
	for _, region := range models.AllRegions() {
		states[region] = &regionState{}
	}
	return &DurationTracker{
		sustainedFloor: sustainedFloor,
		maxGap:         maxGap,
		states:         states,
		logger:         logger,
	}
}

// Record applies one cycle's readings at the given cycle timestamp
func (t *DurationTracker) Record(at time.Time, readings []models.PressureReading) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	elapsed := 0.0
	if !t.lastRecord.IsZero() {
		delta := at.Sub(t.lastRecord)
		if delta < 0 {
			// clock went backwards; contribute nothing this cycle
			t.logger.Warn("Negative cycle timestamp delta, ignoring elapsed time",
				zap.Time("previous", t.lastRecord),
				zap.Time("current", at),
			)
			delta = 0
		}
		if delta > t.maxGap {
			t.logger.Warn("Cycle gap exceeds maximum, clamping",
				zap.Duration("gap", delta),
				zap.Duration("max_gap", t.maxGap),
			)
			delta = t.maxGap
		}
		elapsed = delta.Seconds()
	}
	t.lastRecord = at

	byRegion := make(map[models.BodyRegion]models.PressureReading, len(readings))
	for _, r := range readings {
		byRegion[r.Region] = r
	}

	for _, region := range models.AllRegions() {
		st := t.states[region]
		reading, ok := byRegion[region]
		if ok && reading.Pressure >= t.sustainedFloor {
			st.accumulated += elapsed
			seen := at
			st.lastSeen = &seen
		} else {
			st.accumulated = 0
			st.lastSeen = nil
		}
		if st.accumulated < 0 {
			return ErrInvariant
		}
	}

	return nil
}

// Snapshot returns a read-only copy of all region exposures, ordered by region
func (t *DurationTracker) Snapshot() []models.RegionExposure {
	t.mu.Lock()
	defer t.mu.Unlock()

	exposures := make([]models.RegionExposure, 0, len(t.states))
	for _, region := range models.AllRegions() {
		st := t.states[region]
		exp := models.RegionExposure{
			Region:             region,
			AccumulatedSeconds: st.accumulated,
		}
		if st.lastSeen != nil {
			seen := *st.lastSeen
			exp.LastSeenAboveFloor = &seen
		}
		exposures = append(exposures, exp)
	}
	return exposures
}

// Durations returns accumulated seconds keyed by region (for the cycle log)
func (t *DurationTracker) Durations() map[models.BodyRegion]float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	durations := make(map[models.BodyRegion]float64, len(t.states))
	for region, st := range t.states {
		durations[region] = st.accumulated
	}
	return durations
}

// Reset clears all exposure state
func (t *DurationTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, st := range t.states {
		st.accumulated = 0
		st.lastSeen = nil
	}
	t.lastRecord = time.Time{}
}
