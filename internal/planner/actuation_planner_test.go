package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iOT-Capston-Design-Project/master-node/internal/models"
)

func newTestPlanner() *ActuationPlanner {
	return NewActuationPlanner(300, 1500, 1000)
}

func testReadings(vals map[models.BodyRegion]float64) []models.PressureReading {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	out := make([]models.PressureReading, 0, len(vals))
	// fixed iteration order so tests are stable
	for _, region := range models.AllRegions() {
		if p, ok := vals[region]; ok {
			out = append(out, models.PressureReading{Region: region, Pressure: p, Timestamp: at})
		}
	}
	return out
}

func TestGenerate_NoZonesBelowReliefLevel(t *testing.T) {
	p := newTestPlanner()

	signal := p.Generate(testReadings(map[models.BodyRegion]float64{
		models.RegionHip:     100,
		models.RegionScapula: 299,
	}))

	assert.Empty(t, signal.TargetZones)
	assert.Equal(t, models.ActionNone, signal.Action)
	assert.Equal(t, 0, signal.Intensity)
}

func TestGenerate_SelectsZonesAtOrAboveReliefLevel(t *testing.T) {
	p := newTestPlanner()

	signal := p.Generate(testReadings(map[models.BodyRegion]float64{
		models.RegionOcciput:   300, // exactly at the relief level counts
		models.RegionHip:       450,
		models.RegionRightHeel: 200,
	}))

	assert.Equal(t, []int{1, 5}, signal.TargetZones)
	assert.Equal(t, models.ActionInflate, signal.Action)
}

func TestGenerate_DeflatesAboveComfortCeiling(t *testing.T) {
	p := newTestPlanner()

	// aggregate selected pressure 900 + 800 = 1700 > 1500 ceiling
	signal := p.Generate(testReadings(map[models.BodyRegion]float64{
		models.RegionHip:     900,
		models.RegionScapula: 800,
	}))

	assert.Equal(t, models.ActionDeflate, signal.Action)
	assert.Equal(t, []int{2, 5}, signal.TargetZones)
}

func TestGenerate_IntensityLinearAndClamped(t *testing.T) {
	p := newTestPlanner()

	// 650 is halfway between relief level 300 and scale 1000
	signal := p.Generate(testReadings(map[models.BodyRegion]float64{
		models.RegionHip: 650,
	}))
	assert.Equal(t, 50, signal.Intensity)

	// beyond the scale clamps to 100
	signal = p.Generate(testReadings(map[models.BodyRegion]float64{
		models.RegionHip: 5000,
	}))
	assert.Equal(t, 100, signal.Intensity)
}

func TestGenerate_Deterministic(t *testing.T) {
	p := newTestPlanner()
	vals := map[models.BodyRegion]float64{
		models.RegionOcciput:   320,
		models.RegionScapula:   510,
		models.RegionHip:       780,
		models.RegionLeftHeel:  305,
		models.RegionRightHeel: 12,
	}

	first := p.Generate(testReadings(vals))
	for i := 0; i < 10; i++ {
		again := p.Generate(testReadings(vals))
		require.Equal(t, first, again)
	}
}

func TestGenerate_ZonesSorted(t *testing.T) {
	p := newTestPlanner()

	signal := p.Generate(testReadings(map[models.BodyRegion]float64{
		models.RegionLeftHeel:   400,
		models.RegionOcciput:    400,
		models.RegionRightElbow: 400,
	}))

	assert.Equal(t, []int{1, 3, 7}, signal.TargetZones)
}
