package detection

import (
	"context"

	"go.uber.org/zap"

	"github.com/iOT-Capston-Design-Project/master-node/internal/models"
)

// PressureAnalyzer derives per-region pressure readings from a matrix,
// given the classified posture
type PressureAnalyzer interface {
	Analyze(ctx context.Context, matrix *models.PressureMatrix, posture models.Posture) ([]models.PressureReading, error)
}

// expectedRegions body regions that bear load in each posture; regions not
// listed are reported as absent for that posture
var expectedRegions = map[models.PostureType][]models.BodyRegion{
	models.PostureSupine: {
		models.RegionOcciput,
		models.RegionScapula,
		models.RegionLeftElbow,
		models.RegionRightElbow,
		models.RegionHip,
		models.RegionLeftHeel,
		models.RegionRightHeel,
	},
	models.PostureProne: {
		models.RegionLeftElbow,
		models.RegionRightElbow,
		models.RegionHip,
	},
	models.PostureLeftLateral: {
		models.RegionLeftElbow,
		models.RegionHip,
		models.RegionLeftHeel,
	},
	models.PostureRightLateral: {
		models.RegionRightElbow,
		models.RegionHip,
		models.RegionRightHeel,
	},
	// unknown posture still covers every region so tracking cannot miss
	// sustained load while the classifier is undecided
	models.PostureUnknown: {
		models.RegionOcciput,
		models.RegionScapula,
		models.RegionLeftElbow,
		models.RegionRightElbow,
		models.RegionHip,
		models.RegionLeftHeel,
		models.RegionRightHeel,
	},
}

// RegionAnalyzer sums matrix cells inside each region's mattress area
type RegionAnalyzer struct {
	logger *zap.Logger
}

// NewRegionAnalyzer creates the default region-sum analyzer
func NewRegionAnalyzer(logger *zap.Logger) *RegionAnalyzer {
	return &RegionAnalyzer{logger: logger}
}

// Analyze produces one reading per region expected for the posture, in the
// canonical region order
func (a *RegionAnalyzer) Analyze(ctx context.Context, matrix *models.PressureMatrix, posture models.Posture) ([]models.PressureReading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	expected := make(map[models.BodyRegion]bool)
	for _, region := range expectedRegions[posture.Type] {
		expected[region] = true
	}

	readings := make([]models.PressureReading, 0, len(expected))
	for _, region := range models.AllRegions() {
		if !expected[region] {
			continue
		}
		readings = append(readings, models.PressureReading{
			Region:    region,
			Pressure:  sumIn(matrix, regionRects[region]),
			Timestamp: matrix.Timestamp,
		})
	}

	a.logger.Debug("Pressure analyzed",
		zap.String("posture", string(posture.Type)),
		zap.Int("regions", len(readings)),
	)
	return readings, nil
}
