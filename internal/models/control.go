package models

// ControlAction actuator action kind
type ControlAction string

const (
	ActionInflate ControlAction = "inflate"
	ActionDeflate ControlAction = "deflate"
	ActionNone    ControlAction = "none"
)

// ControlSignal relief actuation command for the control node.
// Recomputed fresh every cycle, never persisted.
type ControlSignal struct {
	TargetZones []int         `json:"target_zones"` // sorted, unique
	Action      ControlAction `json:"action"`
	Intensity   int           `json:"intensity"` // 0 ~ 100
}

// SameTarget reports whether two signals address the same zones with the
// same action (intensity is compared separately by the dispatch gate).
func (s ControlSignal) SameTarget(other ControlSignal) bool {
	if s.Action != other.Action || len(s.TargetZones) != len(other.TargetZones) {
		return false
	}
	for i, z := range s.TargetZones {
		if other.TargetZones[i] != z {
			return false
		}
	}
	return true
}
