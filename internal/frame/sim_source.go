package frame

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/iOT-Capston-Design-Project/master-node/internal/models"
)

// SimSource generates synthetic supine-pattern frames for test mode, so the
// full cycle path can run without a sensor node attached.
type SimSource struct {
	deviceID string
	rows     int
	cols     int
	seq      atomic.Uint64
	logger   *zap.Logger
}

// NewSimSource creates a 16x16 simulated frame source
func NewSimSource(deviceID string, logger *zap.Logger) *SimSource {
	return &SimSource{
		deviceID: deviceID,
		rows:     16,
		cols:     16,
		logger:   logger,
	}
}

// Acquire synthesizes one frame with pressure on the supine contact points
func (s *SimSource) Acquire(ctx context.Context) (*models.PressureMatrix, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seq := s.seq.Add(1)
	cells := make([]float64, s.rows*s.cols)

	fill := func(r0, r1, c0, c1 int, value float64) {
		for r := r0; r < r1; r++ {
			for c := c0; c < c1; c++ {
				cells[r*s.cols+c] = value
			}
		}
	}

	// occiput, scapula, hip and heels, with slight oscillation so durations
	// and control signals vary between cycles
	wobble := float64(seq%10) * 5
	fill(0, 2, 6, 10, 350+wobble)
	fill(2, 5, 3, 13, 280+wobble)
	fill(9, 13, 4, 12, 420+wobble)
	fill(14, 16, 4, 7, 310+wobble)
	fill(14, 16, 9, 12, 305+wobble)

	return &models.PressureMatrix{
		DeviceID:  s.deviceID,
		Rows:      s.rows,
		Cols:      s.cols,
		Cells:     cells,
		Seq:       seq,
		Timestamp: time.Now(),
	}, nil
}
