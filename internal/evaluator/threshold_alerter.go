package evaluator

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iOT-Capston-Design-Project/master-node/internal/models"
)

// regionDisplayNames human-readable region names for alert bodies
var regionDisplayNames = map[models.BodyRegion]string{
	models.RegionOcciput:    "occiput",
	models.RegionScapula:    "scapula",
	models.RegionRightElbow: "right elbow",
	models.RegionLeftElbow:  "left elbow",
	models.RegionHip:        "hip",
	models.RegionRightHeel:  "right heel",
	models.RegionLeftHeel:   "left heel",
}

// ThresholdAlerter compares current readings and accumulated durations
// against the patient-settings snapshot and emits at most one alert per
// cycle. A region that triggered must not re-trigger within the alert
// threshold window (cooldown), so a persisting condition does not alert
// every cycle.
//
// Called only from the orchestrator's cycle goroutine; cooldown state is
// not shared elsewhere.
type ThresholdAlerter struct {
	lastAlert map[models.BodyRegion]time.Time
	logger    *zap.Logger
}

// NewThresholdAlerter creates an alerter with empty cooldown state
func NewThresholdAlerter(logger *zap.Logger) *ThresholdAlerter {
	return &ThresholdAlerter{
		lastAlert: make(map[models.BodyRegion]time.Time),
		logger:    logger,
	}
}

// Check returns an alert when a region exceeds both the pressure threshold
// and the duration threshold, or nil. When several regions qualify, the one
// with the greatest accumulated duration wins; ties go to the
// lexicographically smallest region.
func (a *ThresholdAlerter) Check(
	settings models.PatientSettings,
	readings []models.PressureReading,
	exposures []models.RegionExposure,
	now time.Time,
) *models.AlertMessage {
	pressureByRegion := make(map[models.BodyRegion]float64, len(readings))
	for _, r := range readings {
		pressureByRegion[r.Region] = r.Pressure
	}

	threshold := float64(settings.AlertThresholdSeconds)

	var winner *models.RegionExposure
	// exposures arrive ordered by region, so keeping the first candidate on
	// equal durations implements the lexicographic tie-break
	for i := range exposures {
		exp := &exposures[i]
		if pressureByRegion[exp.Region] < settings.PressureThreshold {
			continue
		}
		if exp.AccumulatedSeconds < threshold {
			continue
		}
		if winner == nil || exp.AccumulatedSeconds > winner.AccumulatedSeconds {
			winner = exp
		}
	}

	if winner == nil {
		return nil
	}

	cooldown := time.Duration(settings.AlertThresholdSeconds) * time.Second
	if last, ok := a.lastAlert[winner.Region]; ok && now.Sub(last) < cooldown {
		a.logger.Debug("Region in alert cooldown, suppressing",
			zap.String("region", string(winner.Region)),
			zap.Time("last_alert", last),
		)
		return nil
	}
	a.lastAlert[winner.Region] = now

	name := regionDisplayNames[winner.Region]
	if name == "" {
		name = string(winner.Region)
	}
	held := time.Duration(winner.AccumulatedSeconds) * time.Second

	alert := &models.AlertMessage{
		EventID:     uuid.New().String(),
		PatientID:   settings.PatientID,
		Region:      winner.Region,
		Title:       "Pressure relief required",
		Body:        fmt.Sprintf("Sustained pressure on %s for %s (threshold %s)", name, held, cooldown),
		Priority:    "high",
		TriggeredAt: now,
	}

	a.logger.Info("Alert triggered",
		zap.String("event_id", alert.EventID),
		zap.String("region", string(winner.Region)),
		zap.Float64("accumulated_seconds", winner.AccumulatedSeconds),
	)

	return alert
}
