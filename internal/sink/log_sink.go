package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/iOT-Capston-Design-Project/master-node/internal/models"
)

// CycleLogStore persistence interface for per-cycle logs
type CycleLogStore interface {
	InsertCycleLog(ctx context.Context, log *models.CycleLog) error
}

// DayLogStore persistence interface for per-day accumulated rows
type DayLogStore interface {
	UpsertDayLog(ctx context.Context, deviceID string, day time.Time, durations map[models.BodyRegion]float64, alertCount int) error
}

// LogSinkOptions Redis mirror settings
type LogSinkOptions struct {
	RealtimeKeyPrefix string
	RealtimeSuffix    string
	RealtimeTTL       time.Duration
	StreamName        string
	StreamMaxLen      int64
}

// realtimeState JSON document mirrored to Redis for dashboard reads
type realtimeState struct {
	DeviceID  string                        `json:"device_id"`
	CycleID   string                        `json:"cycle_id"`
	Posture   models.Posture                `json:"posture"`
	Durations map[models.BodyRegion]float64 `json:"durations"`
	Heatmap   *models.PressureMatrix        `json:"heatmap,omitempty"`
	UpdatedAt time.Time                     `json:"updated_at"`
}

// LogSink persists the cycle log to PostgreSQL, maintains the day totals
// row, and mirrors the latest state to Redis for realtime consumers. The
// Redis mirror is best effort: mirror failures are logged but do not fail
// the sink once the database write has landed.
type LogSink struct {
	cycleLogs CycleLogStore
	dayLogs   DayLogStore
	rdb       *redis.Client
	opts      LogSinkOptions
	retry     RetryPolicy
	logger    *zap.Logger
}

// NewLogSink creates the log sink
func NewLogSink(cycleLogs CycleLogStore, dayLogs DayLogStore, rdb *redis.Client, opts LogSinkOptions, retry RetryPolicy, logger *zap.Logger) *LogSink {
	return &LogSink{
		cycleLogs: cycleLogs,
		dayLogs:   dayLogs,
		rdb:       rdb,
		opts:      opts,
		retry:     retry,
		logger:    logger,
	}
}

// Write uploads one cycle log
func (s *LogSink) Write(ctx context.Context, log *models.CycleLog) error {
	err := s.retry.Do(ctx, s.logger, models.SinkLog, func(ctx context.Context) error {
		return s.cycleLogs.InsertCycleLog(ctx, log)
	})
	if err != nil {
		return fmt.Errorf("failed to upload cycle log: %w", err)
	}

	alertCount := 0
	if log.AlertSent {
		alertCount = 1
	}
	if err := s.dayLogs.UpsertDayLog(ctx, log.DeviceID, log.Timestamp, log.Durations, alertCount); err != nil {
		return fmt.Errorf("failed to update day log: %w", err)
	}

	s.mirror(ctx, log)
	return nil
}

// mirror updates the realtime key and appends to the cycle stream
func (s *LogSink) mirror(ctx context.Context, log *models.CycleLog) {
	if s.rdb == nil {
		return
	}

	state := realtimeState{
		DeviceID:  log.DeviceID,
		CycleID:   log.CycleID,
		Posture:   log.Posture,
		Durations: log.Durations,
		Heatmap:   log.Heatmap,
		UpdatedAt: log.Timestamp,
	}
	payload, err := json.Marshal(state)
	if err != nil {
		s.logger.Warn("Failed to marshal realtime state", zap.Error(err))
		return
	}

	key := s.opts.RealtimeKeyPrefix + log.DeviceID + s.opts.RealtimeSuffix
	if err := s.rdb.Set(ctx, key, payload, s.opts.RealtimeTTL).Err(); err != nil {
		s.logger.Warn("Failed to update realtime cache",
			zap.String("key", key),
			zap.Error(err),
		)
	}

	if s.opts.StreamName == "" {
		return
	}
	err = s.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: s.opts.StreamName,
		MaxLen: s.opts.StreamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"device_id": log.DeviceID,
			"cycle_id":  log.CycleID,
			"posture":   string(log.Posture.Type),
			"payload":   payload,
		},
	}).Err()
	if err != nil {
		s.logger.Warn("Failed to append cycle stream entry",
			zap.String("stream", s.opts.StreamName),
			zap.Error(err),
		)
	}
}
