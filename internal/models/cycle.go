package models

import "time"

// Sink names used in cycle results and logs
const (
	SinkLog      = "log"
	SinkActuator = "actuator"
	SinkNotifier = "notifier"
)

// SinkOutcome success/failure of one sink dispatch within a cycle
type SinkOutcome struct {
	Sink    string `json:"sink"`
	Success bool   `json:"success"`
	Skipped bool   `json:"skipped,omitempty"` // dispatch gated off this cycle
	Error   string `json:"error,omitempty"`
}

// CycleLog payload handed to the log sink (one row per cycle)
type CycleLog struct {
	DeviceID       string                 `json:"device_id"`
	CycleID        string                 `json:"cycle_id"`
	Posture        Posture                `json:"posture"`
	Readings       []PressureReading      `json:"readings"`
	Durations      map[BodyRegion]float64 `json:"durations"` // accumulated seconds
	ReliefRequired bool                   `json:"relief_required"`
	AlertSent      bool                   `json:"alert_sent"`
	Heatmap        *PressureMatrix        `json:"heatmap,omitempty"`
	Timestamp      time.Time              `json:"timestamp"`
}

// CycleResult pure value assembled by the orchestrator for each cycle.
// Handed to the presentation boundary, not retained.
type CycleResult struct {
	CycleID      string            `json:"cycle_id"`
	Posture      Posture           `json:"posture"`
	Readings     []PressureReading `json:"readings"`
	Exposures    []RegionExposure  `json:"exposures"`
	Signal       ControlSignal     `json:"signal"`
	Alert        *AlertMessage     `json:"alert,omitempty"`
	AlertSent    bool              `json:"alert_sent"`
	SinkOutcomes []SinkOutcome     `json:"sink_outcomes"`
	Timestamp    time.Time         `json:"timestamp"`
}

// OutcomeFor returns the outcome recorded for the named sink, if any
func (r *CycleResult) OutcomeFor(sink string) (SinkOutcome, bool) {
	for _, o := range r.SinkOutcomes {
		if o.Sink == sink {
			return o, true
		}
	}
	return SinkOutcome{}, false
}
