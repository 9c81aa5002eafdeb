package settings

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/iOT-Capston-Design-Project/master-node/internal/models"
)

// Source fetches patient settings from the remote backend
type Source interface {
	Fetch(ctx context.Context, deviceID string) (*models.PatientSettings, error)
}

// Cache holds the last successfully fetched patient settings.
// Current never blocks and returns the last-known-good snapshot (or the
// configured defaults before the first successful refresh). Refresh may
// block on network I/O and runs on its own schedule; a failed refresh
// leaves the previous snapshot untouched and never delays cycle processing.
type Cache struct {
	source   Source
	deviceID string
	current  atomic.Value // models.PatientSettings
	logger   *zap.Logger
}

// NewCache creates a cache seeded with default settings
func NewCache(source Source, deviceID string, defaults models.PatientSettings, logger *zap.Logger) *Cache {
	c := &Cache{
		source:   source,
		deviceID: deviceID,
		logger:   logger,
	}
	c.current.Store(defaults)
	return c
}

// Current returns the current settings snapshot without blocking
func (c *Cache) Current() models.PatientSettings {
	return c.current.Load().(models.PatientSettings)
}

// Refresh fetches settings from the source and replaces the snapshot
// atomically on success
func (c *Cache) Refresh(ctx context.Context) error {
	fetched, err := c.source.Fetch(ctx, c.deviceID)
	if err != nil {
		// keep serving the previous snapshot
		c.logger.Warn("Settings refresh failed, retaining previous snapshot",
			zap.String("device_id", c.deviceID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to refresh settings: %w", err)
	}

	c.current.Store(*fetched)

	c.logger.Info("Patient settings refreshed",
		zap.String("patient_id", fetched.PatientID),
		zap.Int("alert_threshold_seconds", fetched.AlertThresholdSeconds),
		zap.Float64("pressure_threshold", fetched.PressureThreshold),
	)
	return nil
}
