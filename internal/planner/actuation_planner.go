package planner

import (
	"sort"

	"github.com/iOT-Capston-Design-Project/master-node/internal/models"
)

// regionZones fixed mapping from body region to actuator zone identifiers
var regionZones = map[models.BodyRegion][]int{
	models.RegionOcciput:    {1},
	models.RegionScapula:    {2},
	models.RegionRightElbow: {3},
	models.RegionLeftElbow:  {4},
	models.RegionHip:        {5},
	models.RegionRightHeel:  {6},
	models.RegionLeftHeel:   {7},
}

// ActuationPlanner maps current pressure readings to a relief command.
// Pure: identical readings always yield an identical signal.
type ActuationPlanner struct {
	reliefLevel    float64 // region at or above this selects its zones
	comfortCeiling float64 // aggregate selected pressure above this deflates
	pressureScale  float64 // pressure mapped to intensity 100
}

// NewActuationPlanner creates a planner with the given pressure levels
func NewActuationPlanner(reliefLevel, comfortCeiling, pressureScale float64) *ActuationPlanner {
	return &ActuationPlanner{
		reliefLevel:    reliefLevel,
		comfortCeiling: comfortCeiling,
		pressureScale:  pressureScale,
	}
}

// Generate computes the relief signal for one cycle's readings
func (p *ActuationPlanner) Generate(readings []models.PressureReading) models.ControlSignal {
	zoneSet := make(map[int]bool)
	var aggregate float64
	var maxPressure float64

	for _, r := range readings {
		if r.Pressure < p.reliefLevel {
			continue
		}
		for _, zone := range regionZones[r.Region] {
			zoneSet[zone] = true
		}
		aggregate += r.Pressure
		if r.Pressure > maxPressure {
			maxPressure = r.Pressure
		}
	}

	if len(zoneSet) == 0 {
		return models.ControlSignal{
			TargetZones: []int{},
			Action:      models.ActionNone,
			Intensity:   0,
		}
	}

	zones := make([]int, 0, len(zoneSet))
	for zone := range zoneSet {
		zones = append(zones, zone)
	}
	sort.Ints(zones)

	action := models.ActionInflate
	if aggregate > p.comfortCeiling {
		action = models.ActionDeflate
	}

	return models.ControlSignal{
		TargetZones: zones,
		Action:      action,
		Intensity:   p.intensity(maxPressure),
	}
}

// intensity maps how far the peak pressure exceeds the relief level onto
// 0..100, linearly up to the pressure scale
func (p *ActuationPlanner) intensity(pressure float64) int {
	if pressure <= p.reliefLevel {
		return 0
	}
	span := p.pressureScale - p.reliefLevel
	if span <= 0 {
		return 100
	}
	v := int((pressure - p.reliefLevel) / span * 100)
	if v > 100 {
		return 100
	}
	if v < 0 {
		return 0
	}
	return v
}
