package frame

import (
	"context"
	"errors"

	"github.com/iOT-Capston-Design-Project/master-node/internal/models"
)

// Source supplies one decoded pressure-matrix snapshot per cycle
type Source interface {
	Acquire(ctx context.Context) (*models.PressureMatrix, error)
}

// Acquisition failures (cycle-local: the orchestrator skips the cycle)
var (
	ErrNoFrame    = errors.New("no frame received from sensor node")
	ErrStaleFrame = errors.New("latest frame is older than the freshness bound")
)
