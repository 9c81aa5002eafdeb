package detection

import (
	"github.com/iOT-Capston-Design-Project/master-node/internal/models"
)

// rect fractional area of the mattress matrix, rows top-to-bottom
// (head at row 0), columns left-to-right from the patient's perspective
type rect struct {
	r0, c0 float64 // inclusive fractions
	r1, c1 float64 // exclusive fractions
}

// regionRects where each body region contacts the mattress in supine
// position, as fractions of the matrix so any sensor resolution works
var regionRects = map[models.BodyRegion]rect{
	models.RegionOcciput:    {0.000, 0.375, 0.125, 0.625},
	models.RegionScapula:    {0.125, 0.1875, 0.3125, 0.8125},
	models.RegionLeftElbow:  {0.3125, 0.0625, 0.4375, 0.25},
	models.RegionRightElbow: {0.3125, 0.75, 0.4375, 0.9375},
	models.RegionHip:        {0.5625, 0.25, 0.8125, 0.75},
	models.RegionLeftHeel:   {0.875, 0.25, 1.0, 0.4375},
	models.RegionRightHeel:  {0.875, 0.5625, 1.0, 0.75},
}

// cellBounds converts a fractional rect to cell index bounds for a matrix
func (re rect) cellBounds(rows, cols int) (r0, c0, r1, c1 int) {
	r0 = int(re.r0 * float64(rows))
	c0 = int(re.c0 * float64(cols))
	r1 = int(re.r1 * float64(rows))
	c1 = int(re.c1 * float64(cols))
	if r1 > rows {
		r1 = rows
	}
	if c1 > cols {
		c1 = cols
	}
	return
}

// sumIn totals the matrix cells inside a fractional rect
func sumIn(m *models.PressureMatrix, re rect) float64 {
	r0, c0, r1, c1 := re.cellBounds(m.Rows, m.Cols)
	var total float64
	for r := r0; r < r1; r++ {
		for c := c0; c < c1; c++ {
			total += m.At(r, c)
		}
	}
	return total
}
