package detection

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/iOT-Capston-Design-Project/master-node/internal/models"
)

// PostureClassifier maps a pressure matrix to a posture classification
type PostureClassifier interface {
	Classify(ctx context.Context, matrix *models.PressureMatrix) (models.Posture, error)
}

// minConfidence below this similarity the posture is reported as unknown
const minConfidence = 0.3

// weighted template areas for one posture
type template []struct {
	area   rect
	weight float64
}

// postureTemplates expected pressure distribution per posture
var postureTemplates = map[models.PostureType]template{
	models.PostureSupine: {
		{rect{0.000, 0.375, 0.125, 0.625}, 1.0},    // occiput
		{rect{0.125, 0.1875, 0.3125, 0.8125}, 0.8}, // scapula
		{rect{0.3125, 0.25, 0.5625, 0.75}, 0.4},    // back / lumbar
		{rect{0.5625, 0.25, 0.8125, 0.75}, 1.0},    // hip
		{rect{0.875, 0.25, 1.0, 0.4375}, 0.7},      // left heel
		{rect{0.875, 0.5625, 1.0, 0.75}, 0.7},      // right heel
	},
	models.PostureProne: {
		{rect{0.000, 0.3125, 0.25, 0.6875}, 0.9}, // face / chest
		{rect{0.3125, 0.25, 0.625, 0.75}, 1.0},   // abdomen
		{rect{0.75, 0.25, 0.875, 0.4375}, 0.6},   // left knee
		{rect{0.75, 0.5625, 0.875, 0.75}, 0.6},   // right knee
	},
	models.PostureLeftLateral: {
		{rect{0.125, 0.125, 0.3125, 0.375}, 1.0}, // left shoulder
		{rect{0.3125, 0.0625, 0.4375, 0.25}, 0.8}, // left elbow
		{rect{0.5625, 0.125, 0.8125, 0.375}, 1.0}, // left hip
		{rect{0.8125, 0.125, 1.0, 0.3125}, 0.7},  // left knee / foot
	},
	models.PostureRightLateral: {
		{rect{0.125, 0.625, 0.3125, 0.875}, 1.0},  // right shoulder
		{rect{0.3125, 0.75, 0.4375, 0.9375}, 0.8}, // right elbow
		{rect{0.5625, 0.625, 0.8125, 0.875}, 1.0}, // right hip
		{rect{0.8125, 0.6875, 1.0, 0.875}, 0.7},   // right knee / foot
	},
}

// PatternClassifier scores the normalized matrix against per-posture
// pressure templates using cosine similarity. The highest-scoring posture
// wins; similarity below minConfidence reports unknown.
type PatternClassifier struct {
	logger *zap.Logger
}

// NewPatternClassifier creates the default pattern-similarity classifier
func NewPatternClassifier(logger *zap.Logger) *PatternClassifier {
	return &PatternClassifier{logger: logger}
}

// Classify scores the matrix against each posture template
func (c *PatternClassifier) Classify(ctx context.Context, matrix *models.PressureMatrix) (models.Posture, error) {
	if err := ctx.Err(); err != nil {
		return models.Posture{}, err
	}

	normalized := normalize(matrix)

	best := models.PostureUnknown
	bestScore := 0.0
	// fixed evaluation order keeps ties deterministic
	for _, pt := range []models.PostureType{
		models.PostureSupine,
		models.PostureProne,
		models.PostureLeftLateral,
		models.PostureRightLateral,
	} {
		score := similarity(matrix, normalized, postureTemplates[pt])
		if score > bestScore {
			best = pt
			bestScore = score
		}
	}

	if bestScore < minConfidence {
		best = models.PostureUnknown
	}

	c.logger.Debug("Posture classified",
		zap.String("posture", string(best)),
		zap.Float64("confidence", bestScore),
	)

	return models.Posture{
		Type:       best,
		Confidence: bestScore,
		Timestamp:  matrix.Timestamp,
	}, nil
}

// normalize scales cells into [0,1]
func normalize(m *models.PressureMatrix) []float64 {
	minVal := math.Inf(1)
	maxVal := math.Inf(-1)
	for _, v := range m.Cells {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	out := make([]float64, len(m.Cells))
	if len(m.Cells) == 0 || maxVal == minVal {
		return out
	}
	span := maxVal - minVal
	for i, v := range m.Cells {
		out[i] = (v - minVal) / span
	}
	return out
}

// similarity computes cosine similarity between the normalized matrix and
// the template rendered at the matrix resolution
func similarity(m *models.PressureMatrix, normalized []float64, tpl template) float64 {
	pattern := make([]float64, len(normalized))
	for _, area := range tpl {
		r0, c0, r1, c1 := area.area.cellBounds(m.Rows, m.Cols)
		for r := r0; r < r1; r++ {
			for c := c0; c < c1; c++ {
				idx := r*m.Cols + c
				if idx < len(pattern) && area.weight > pattern[idx] {
					pattern[idx] = area.weight
				}
			}
		}
	}

	var dot, normA, normB float64
	for i := range normalized {
		dot += normalized[i] * pattern[i]
		normA += normalized[i] * normalized[i]
		normB += pattern[i] * pattern[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
