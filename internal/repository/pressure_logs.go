package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/iOT-Capston-Design-Project/master-node/internal/models"
)

// PressureLogsRepository persists per-cycle pressure logs
type PressureLogsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPressureLogsRepository creates the pressure logs repository
func NewPressureLogsRepository(db *sql.DB, logger *zap.Logger) *PressureLogsRepository {
	return &PressureLogsRepository{
		db:     db,
		logger: logger,
	}
}

// InsertCycleLog appends one cycle's structured record
func (r *PressureLogsRepository) InsertCycleLog(ctx context.Context, log *models.CycleLog) error {
	if log == nil {
		return fmt.Errorf("log is required")
	}
	if log.DeviceID == "" {
		return fmt.Errorf("device_id is required")
	}
	if log.CycleID == "" {
		return fmt.Errorf("cycle_id is required")
	}

	readings, err := json.Marshal(log.Readings)
	if err != nil {
		return fmt.Errorf("failed to marshal readings: %w", err)
	}
	durations, err := json.Marshal(log.Durations)
	if err != nil {
		return fmt.Errorf("failed to marshal durations: %w", err)
	}
	heatmap, err := json.Marshal(log.Heatmap)
	if err != nil {
		return fmt.Errorf("failed to marshal heatmap: %w", err)
	}

	query := `
		INSERT INTO pressure_logs (
			device_id,
			cycle_id,
			posture,
			posture_confidence,
			readings,
			durations,
			relief_required,
			alert_sent,
			heatmap,
			created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
	`

	_, err = r.db.ExecContext(ctx,
		query,
		log.DeviceID,
		log.CycleID,
		string(log.Posture.Type),
		log.Posture.Confidence,
		readings,
		durations,
		log.ReliefRequired,
		log.AlertSent,
		heatmap,
		log.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert cycle log: %w", err)
	}

	return nil
}
