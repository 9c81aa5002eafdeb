package presentation

import (
	"go.uber.org/zap"

	"github.com/iOT-Capston-Design-Project/master-node/internal/models"
)

// Presenter receives each completed cycle result. Implementations must not
// retain the result beyond the call.
type Presenter interface {
	Present(result *models.CycleResult)
}

// LogPresenter renders cycle results as structured log lines
type LogPresenter struct {
	logger *zap.Logger
}

// NewLogPresenter creates the default presenter
func NewLogPresenter(logger *zap.Logger) *LogPresenter {
	return &LogPresenter{logger: logger}
}

// Present logs one cycle summary
func (p *LogPresenter) Present(result *models.CycleResult) {
	if result == nil {
		return
	}

	failed := 0
	for _, o := range result.SinkOutcomes {
		if !o.Success {
			failed++
		}
	}

	fields := []zap.Field{
		zap.String("cycle_id", result.CycleID),
		zap.String("posture", string(result.Posture.Type)),
		zap.Float64("confidence", result.Posture.Confidence),
		zap.String("action", string(result.Signal.Action)),
		zap.Ints("target_zones", result.Signal.TargetZones),
		zap.Int("intensity", result.Signal.Intensity),
		zap.Bool("alert_sent", result.AlertSent),
		zap.Int("failed_sinks", failed),
	}
	if result.Alert != nil {
		fields = append(fields,
			zap.String("alert_event_id", result.Alert.EventID),
			zap.String("alert_region", string(result.Alert.Region)),
		)
	}

	if failed > 0 {
		p.logger.Warn("Cycle completed with sink failures", fields...)
		return
	}
	p.logger.Info("Cycle completed", fields...)
}
