package models

import "time"

// BodyRegion a named body area tracked for pressure exposure
type BodyRegion string

const (
	RegionOcciput    BodyRegion = "occiput"
	RegionScapula    BodyRegion = "scapula"
	RegionRightElbow BodyRegion = "right_elbow"
	RegionLeftElbow  BodyRegion = "left_elbow"
	RegionHip        BodyRegion = "hip"
	RegionRightHeel  BodyRegion = "right_heel"
	RegionLeftHeel   BodyRegion = "left_heel"
)

// AllRegions returns every tracked body region in lexicographic order
func AllRegions() []BodyRegion {
	return []BodyRegion{
		RegionHip,
		RegionLeftElbow,
		RegionLeftHeel,
		RegionOcciput,
		RegionRightElbow,
		RegionRightHeel,
		RegionScapula,
	}
}

// PressureMatrix one decoded sensor-matrix snapshot (row-major cells)
type PressureMatrix struct {
	DeviceID  string    `json:"device_id"`
	Rows      int       `json:"rows"`
	Cols      int       `json:"cols"`
	Cells     []float64 `json:"cells"`
	Seq       uint64    `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
}

// At returns the cell value at (row, col); out-of-range reads return 0
func (m *PressureMatrix) At(row, col int) float64 {
	if row < 0 || row >= m.Rows || col < 0 || col >= m.Cols {
		return 0
	}
	idx := row*m.Cols + col
	if idx >= len(m.Cells) {
		return 0
	}
	return m.Cells[idx]
}

// PressureReading per-region pressure for one cycle (unique per region, immutable)
type PressureReading struct {
	Region    BodyRegion `json:"region"`
	Pressure  float64    `json:"pressure"` // >= 0
	Timestamp time.Time  `json:"timestamp"`
}

// RegionExposure accumulated sustained-pressure duration for one region.
// Owned exclusively by the duration tracker; snapshots are read-only copies.
type RegionExposure struct {
	Region             BodyRegion `json:"region"`
	AccumulatedSeconds float64    `json:"accumulated_seconds"` // >= 0
	LastSeenAboveFloor *time.Time `json:"last_seen_above_floor,omitempty"`
}
