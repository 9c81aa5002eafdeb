package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/iOT-Capston-Design-Project/master-node/internal/models"
)

// DayLogsRepository maintains the per-day accumulated exposure row used by
// the daily report view. One row per device per calendar day.
type DayLogsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDayLogsRepository creates the day logs repository
func NewDayLogsRepository(db *sql.DB, logger *zap.Logger) *DayLogsRepository {
	return &DayLogsRepository{
		db:     db,
		logger: logger,
	}
}

// UpsertDayLog replaces the day's duration snapshot for a device. The
// tracker already accumulates, so the latest snapshot is authoritative.
func (r *DayLogsRepository) UpsertDayLog(ctx context.Context, deviceID string, day time.Time, durations map[models.BodyRegion]float64, alertCount int) error {
	if deviceID == "" {
		return fmt.Errorf("device_id is required")
	}

	payload, err := json.Marshal(durations)
	if err != nil {
		return fmt.Errorf("failed to marshal durations: %w", err)
	}

	query := `
		INSERT INTO day_logs (
			device_id,
			log_date,
			durations,
			alert_count,
			updated_at
		) VALUES (
			$1, $2, $3, $4, CURRENT_TIMESTAMP
		)
		ON CONFLICT (device_id, log_date) DO UPDATE SET
			durations = EXCLUDED.durations,
			alert_count = day_logs.alert_count + EXCLUDED.alert_count,
			updated_at = CURRENT_TIMESTAMP
	`

	_, err = r.db.ExecContext(ctx,
		query,
		deviceID,
		day.Format("2006-01-02"),
		payload,
		alertCount,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert day log: %w", err)
	}

	return nil
}
