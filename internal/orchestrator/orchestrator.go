package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iOT-Capston-Design-Project/master-node/internal/detection"
	"github.com/iOT-Capston-Design-Project/master-node/internal/frame"
	"github.com/iOT-Capston-Design-Project/master-node/internal/models"
	"github.com/iOT-Capston-Design-Project/master-node/internal/tracker"
)

// LogWriter uploads one cycle log
type LogWriter interface {
	Write(ctx context.Context, log *models.CycleLog) error
}

// ControlSender dispatches a control signal; skipped reports a gated-off send
type ControlSender interface {
	Send(ctx context.Context, signal models.ControlSignal) (skipped bool, err error)
}

// Notifier delivers an alert to caregivers
type Notifier interface {
	Notify(ctx context.Context, alert *models.AlertMessage) error
}

// SettingsProvider returns the current patient-settings snapshot without blocking
type SettingsProvider interface {
	Current() models.PatientSettings
}

// ExposureTracker accumulates sustained-pressure durations across cycles
type ExposureTracker interface {
	Record(at time.Time, readings []models.PressureReading) error
	Snapshot() []models.RegionExposure
	Durations() map[models.BodyRegion]float64
}

// AlertChecker evaluates readings and exposures against patient settings
type AlertChecker interface {
	Check(settings models.PatientSettings, readings []models.PressureReading, exposures []models.RegionExposure, now time.Time) *models.AlertMessage
}

// SignalPlanner derives the relief command from the cycle's readings
type SignalPlanner interface {
	Generate(readings []models.PressureReading) models.ControlSignal
}

// Options orchestrator tuning
type Options struct {
	DeviceID    string
	SinkTimeout time.Duration
}

// Orchestrator runs the per-cycle pipeline: acquire a frame, classify
// posture, derive per-region readings, update exposure durations, evaluate
// the alert rule, plan actuation, then dispatch the three sinks
// concurrently. Sink and collaborator failures are cycle-local; only a
// tracker invariant violation aborts the run.
//
// A failed acquisition, classification or analysis skips the whole cycle
// without touching tracker state, so the elapsed time flows into the next
// successful cycle (bounded by the tracker's gap clamp).
type Orchestrator struct {
	opts       Options
	source     frame.Source
	classifier detection.PostureClassifier
	analyzer   detection.PressureAnalyzer
	tracker    ExposureTracker
	alerter    AlertChecker
	planner    SignalPlanner
	settings   SettingsProvider
	logSink    LogWriter
	actuator   ControlSender
	notifier   Notifier
	logger     *zap.Logger

	inFlight sync.WaitGroup

	now func() time.Time
}

// New creates an orchestrator over the given collaborators
func New(
	opts Options,
	source frame.Source,
	classifier detection.PostureClassifier,
	analyzer detection.PressureAnalyzer,
	exposureTracker ExposureTracker,
	alerter AlertChecker,
	signalPlanner SignalPlanner,
	settings SettingsProvider,
	logSink LogWriter,
	actuator ControlSender,
	notifier Notifier,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		opts:       opts,
		source:     source,
		classifier: classifier,
		analyzer:   analyzer,
		tracker:    exposureTracker,
		alerter:    alerter,
		planner:    signalPlanner,
		settings:   settings,
		logSink:    logSink,
		actuator:   actuator,
		notifier:   notifier,
		logger:     logger,
		now:        time.Now,
	}
}

// RunCycle executes one cycle. It returns (nil, nil) when the cycle was
// skipped (no fresh frame, classification or analysis failure) and a
// non-nil error only for fatal state corruption.
func (o *Orchestrator) RunCycle(ctx context.Context) (*models.CycleResult, error) {
	cycleStart := o.now()
	cycleID := uuid.New().String()

	// 1. acquire the latest frame
	matrix, err := o.source.Acquire(ctx)
	if err != nil {
		o.logger.Warn("Frame acquisition failed, skipping cycle",
			zap.String("cycle_id", cycleID),
			zap.Error(err),
		)
		return nil, nil
	}

	// 2. classify posture
	posture, err := o.classifier.Classify(ctx, matrix)
	if err != nil {
		o.logger.Warn("Posture classification failed, skipping cycle",
			zap.String("cycle_id", cycleID),
			zap.Error(err),
		)
		return nil, nil
	}

	// 3. derive per-region readings
	readings, err := o.analyzer.Analyze(ctx, matrix, posture)
	if err != nil {
		o.logger.Warn("Pressure analysis failed, skipping cycle",
			zap.String("cycle_id", cycleID),
			zap.Error(err),
		)
		return nil, nil
	}

	// 4. update exposure durations
	if err := o.tracker.Record(cycleStart, readings); err != nil {
		if errors.Is(err, tracker.ErrInvariant) {
			return nil, err
		}
		o.logger.Error("Duration tracking failed",
			zap.String("cycle_id", cycleID),
			zap.Error(err),
		)
		return nil, nil
	}
	exposures := o.tracker.Snapshot()

	// 5. evaluate alert rule and plan actuation on the same snapshot
	settings := o.settings.Current()
	alert := o.alerter.Check(settings, readings, exposures, cycleStart)
	signal := o.planner.Generate(readings)

	cycleLog := &models.CycleLog{
		DeviceID:       o.opts.DeviceID,
		CycleID:        cycleID,
		Posture:        posture,
		Readings:       readings,
		Durations:      o.tracker.Durations(),
		ReliefRequired: signal.Action != models.ActionNone,
		AlertSent:      alert != nil,
		Heatmap:        matrix,
		Timestamp:      cycleStart,
	}

	// 6. dispatch the three sinks concurrently; one slow or failing sink
	// must not hold back the others
	outcomes := o.dispatch(ctx, cycleLog, signal, alert)

	result := &models.CycleResult{
		CycleID:      cycleID,
		Posture:      posture,
		Readings:     readings,
		Exposures:    exposures,
		Signal:       signal,
		Alert:        alert,
		AlertSent:    alert != nil,
		SinkOutcomes: outcomes,
		Timestamp:    cycleStart,
	}

	o.logger.Debug("Cycle complete",
		zap.String("cycle_id", cycleID),
		zap.String("posture", string(posture.Type)),
		zap.Duration("took", o.now().Sub(cycleStart)),
	)
	return result, nil
}

// dispatch fans the cycle out to the sinks and joins the results. The join
// is bounded: each dispatch runs under its own sink timeout.
func (o *Orchestrator) dispatch(ctx context.Context, cycleLog *models.CycleLog, signal models.ControlSignal, alert *models.AlertMessage) []models.SinkOutcome {
	results := make(chan models.SinkOutcome, 3)

	o.run(ctx, models.SinkLog, results, func(ctx context.Context) (bool, error) {
		return false, o.logSink.Write(ctx, cycleLog)
	})

	o.run(ctx, models.SinkActuator, results, func(ctx context.Context) (bool, error) {
		return o.actuator.Send(ctx, signal)
	})

	o.run(ctx, models.SinkNotifier, results, func(ctx context.Context) (bool, error) {
		if alert == nil {
			return true, nil
		}
		return false, o.notifier.Notify(ctx, alert)
	})

	outcomes := make([]models.SinkOutcome, 0, 3)
	for i := 0; i < 3; i++ {
		outcomes = append(outcomes, <-results)
	}
	return outcomes
}

// run executes one sink dispatch in its own goroutine under the sink timeout
func (o *Orchestrator) run(ctx context.Context, name string, results chan<- models.SinkOutcome, op func(context.Context) (bool, error)) {
	o.inFlight.Add(1)
	go func() {
		defer o.inFlight.Done()

		sinkCtx, cancel := context.WithTimeout(ctx, o.opts.SinkTimeout)
		defer cancel()

		skipped, err := op(sinkCtx)
		outcome := models.SinkOutcome{
			Sink:    name,
			Success: err == nil,
			Skipped: skipped,
		}
		if err != nil {
			outcome.Error = err.Error()
			o.logger.Error("Sink dispatch failed",
				zap.String("sink", name),
				zap.Error(err),
			)
		}
		results <- outcome
	}()
}

// Drain waits up to grace for in-flight sink dispatches to finish
func (o *Orchestrator) Drain(grace time.Duration) bool {
	done := make(chan struct{})
	go func() {
		o.inFlight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(grace):
		o.logger.Warn("Shutdown grace elapsed with sink dispatches still in flight",
			zap.Duration("grace", grace),
		)
		return false
	}
}
