package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iOT-Capston-Design-Project/master-node/internal/models"
	"github.com/iOT-Capston-Design-Project/master-node/internal/tracker"
)

// ---------- fakes ----------

type fakeSource struct {
	matrix *models.PressureMatrix
	err    error
}

func (f *fakeSource) Acquire(ctx context.Context) (*models.PressureMatrix, error) {
	return f.matrix, f.err
}

type fakeClassifier struct {
	posture models.Posture
	err     error
}

func (f *fakeClassifier) Classify(ctx context.Context, matrix *models.PressureMatrix) (models.Posture, error) {
	return f.posture, f.err
}

type fakeAnalyzer struct {
	readings []models.PressureReading
	err      error
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, matrix *models.PressureMatrix, posture models.Posture) ([]models.PressureReading, error) {
	return f.readings, f.err
}

type fakeTracker struct {
	recordErr error
	recorded  int
}

func (f *fakeTracker) Record(at time.Time, readings []models.PressureReading) error {
	f.recorded++
	return f.recordErr
}
func (f *fakeTracker) Snapshot() []models.RegionExposure        { return nil }
func (f *fakeTracker) Durations() map[models.BodyRegion]float64 { return nil }

type fakeAlerter struct {
	alert *models.AlertMessage
}

func (f *fakeAlerter) Check(settings models.PatientSettings, readings []models.PressureReading, exposures []models.RegionExposure, now time.Time) *models.AlertMessage {
	return f.alert
}

type fakePlanner struct {
	signal models.ControlSignal
}

func (f *fakePlanner) Generate(readings []models.PressureReading) models.ControlSignal {
	return f.signal
}

type fakeSettings struct{}

func (fakeSettings) Current() models.PatientSettings {
	return models.PatientSettings{
		PatientID:             "patient-9",
		AlertThresholdSeconds: 7200,
		PressureThreshold:     300,
	}
}

type fakeLogWriter struct {
	mu    sync.Mutex
	logs  []*models.CycleLog
	err   error
	block <-chan struct{}
}

func (f *fakeLogWriter) Write(ctx context.Context, log *models.CycleLog) error {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.logs = append(f.logs, log)
	return nil
}

type fakeSender struct {
	mu      sync.Mutex
	signals []models.ControlSignal
	skipped bool
	err     error
}

func (f *fakeSender) Send(ctx context.Context, signal models.ControlSignal) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if f.skipped {
		return true, nil
	}
	f.signals = append(f.signals, signal)
	return false, nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	alerts []*models.AlertMessage
	err    error
}

func (f *fakeNotifier) Notify(ctx context.Context, alert *models.AlertMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.alerts = append(f.alerts, alert)
	return nil
}

// ---------- fixtures ----------

type fixture struct {
	source     *fakeSource
	classifier *fakeClassifier
	analyzer   *fakeAnalyzer
	tracker    ExposureTracker
	alerter    *fakeAlerter
	planner    *fakePlanner
	logSink    *fakeLogWriter
	actuator   *fakeSender
	notifier   *fakeNotifier
}

func testMatrix() *models.PressureMatrix {
	return &models.PressureMatrix{
		DeviceID:  "bed-042",
		Rows:      2,
		Cols:      2,
		Cells:     []float64{400, 0, 0, 0},
		Seq:       1,
		Timestamp: time.Now(),
	}
}

func newFixture() *fixture {
	return &fixture{
		source:     &fakeSource{matrix: testMatrix()},
		classifier: &fakeClassifier{posture: models.Posture{Type: models.PostureSupine, Confidence: 0.8}},
		analyzer: &fakeAnalyzer{readings: []models.PressureReading{
			{Region: models.RegionHip, Pressure: 400},
		}},
		tracker:  tracker.NewDurationTracker(50, 30*time.Second, zap.NewNop()),
		alerter:  &fakeAlerter{},
		planner:  &fakePlanner{signal: models.ControlSignal{TargetZones: []int{5}, Action: models.ActionInflate, Intensity: 40}},
		logSink:  &fakeLogWriter{},
		actuator: &fakeSender{},
		notifier: &fakeNotifier{},
	}
}

func (f *fixture) orchestrator() *Orchestrator {
	return New(
		Options{DeviceID: "bed-042", SinkTimeout: 200 * time.Millisecond},
		f.source, f.classifier, f.analyzer, f.tracker, f.alerter, f.planner,
		fakeSettings{}, f.logSink, f.actuator, f.notifier,
		zap.NewNop(),
	)
}

// ---------- tests ----------

func TestRunCycle_HappyPath(t *testing.T) {
	f := newFixture()
	o := f.orchestrator()

	result, err := o.RunCycle(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, models.PostureSupine, result.Posture.Type)
	assert.NotEmpty(t, result.CycleID)
	assert.Len(t, result.SinkOutcomes, 3)

	logOutcome, ok := result.OutcomeFor(models.SinkLog)
	require.True(t, ok)
	assert.True(t, logOutcome.Success)

	actuatorOutcome, ok := result.OutcomeFor(models.SinkActuator)
	require.True(t, ok)
	assert.True(t, actuatorOutcome.Success)

	// no alert this cycle, notifier dispatch skipped
	notifierOutcome, ok := result.OutcomeFor(models.SinkNotifier)
	require.True(t, ok)
	assert.True(t, notifierOutcome.Success)
	assert.True(t, notifierOutcome.Skipped)

	require.Len(t, f.logSink.logs, 1)
	assert.Equal(t, result.CycleID, f.logSink.logs[0].CycleID)
	assert.True(t, f.logSink.logs[0].ReliefRequired)
	require.Len(t, f.actuator.signals, 1)
	assert.Empty(t, f.notifier.alerts)
}

func TestRunCycle_AcquisitionFailureSkipsCycle(t *testing.T) {
	f := newFixture()
	f.source.err = errors.New("no fresh frame")
	ft := &fakeTracker{}
	f.tracker = ft
	o := f.orchestrator()

	result, err := o.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Nil(t, result)

	// tracker untouched, sinks not dispatched
	assert.Equal(t, 0, ft.recorded)
	assert.Empty(t, f.logSink.logs)
	assert.Empty(t, f.actuator.signals)
}

func TestRunCycle_ClassifierFailureSkipsCycle(t *testing.T) {
	f := newFixture()
	f.classifier.err = errors.New("model broke")
	ft := &fakeTracker{}
	f.tracker = ft
	o := f.orchestrator()

	result, err := o.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Equal(t, 0, ft.recorded)
	assert.Empty(t, f.logSink.logs)
}

func TestRunCycle_AnalyzerFailureSkipsCycle(t *testing.T) {
	f := newFixture()
	f.analyzer.err = errors.New("bad matrix")
	ft := &fakeTracker{}
	f.tracker = ft
	o := f.orchestrator()

	result, err := o.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Equal(t, 0, ft.recorded)
}

func TestRunCycle_InvariantViolationIsFatal(t *testing.T) {
	f := newFixture()
	f.tracker = &fakeTracker{recordErr: tracker.ErrInvariant}
	o := f.orchestrator()

	result, err := o.RunCycle(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, tracker.ErrInvariant)
	assert.Nil(t, result)
	assert.Empty(t, f.logSink.logs)
}

func TestRunCycle_SinkFailureIsIsolated(t *testing.T) {
	f := newFixture()
	f.logSink.err = errors.New("db down")
	o := f.orchestrator()

	result, err := o.RunCycle(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result)

	logOutcome, _ := result.OutcomeFor(models.SinkLog)
	assert.False(t, logOutcome.Success)
	assert.Contains(t, logOutcome.Error, "db down")

	// the other sinks still ran
	actuatorOutcome, _ := result.OutcomeFor(models.SinkActuator)
	assert.True(t, actuatorOutcome.Success)
	require.Len(t, f.actuator.signals, 1)
}

func TestRunCycle_AlertDispatchesNotifier(t *testing.T) {
	f := newFixture()
	f.alerter.alert = &models.AlertMessage{
		EventID:  "evt-1",
		Region:   models.RegionHip,
		Priority: "high",
	}
	o := f.orchestrator()

	result, err := o.RunCycle(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.AlertSent)
	require.NotNil(t, result.Alert)
	assert.Equal(t, "evt-1", result.Alert.EventID)

	notifierOutcome, _ := result.OutcomeFor(models.SinkNotifier)
	assert.True(t, notifierOutcome.Success)
	assert.False(t, notifierOutcome.Skipped)
	require.Len(t, f.notifier.alerts, 1)

	require.Len(t, f.logSink.logs, 1)
	assert.True(t, f.logSink.logs[0].AlertSent)
}

func TestRunCycle_ActuatorGatingSurfacesAsSkipped(t *testing.T) {
	f := newFixture()
	f.actuator.skipped = true
	o := f.orchestrator()

	result, err := o.RunCycle(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result)

	outcome, _ := result.OutcomeFor(models.SinkActuator)
	assert.True(t, outcome.Success)
	assert.True(t, outcome.Skipped)
}

func TestRunCycle_SlowSinkBoundedByTimeout(t *testing.T) {
	f := newFixture()
	f.logSink.block = make(chan struct{}) // never closed
	o := f.orchestrator()

	start := time.Now()
	result, err := o.RunCycle(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Less(t, time.Since(start), 2*time.Second)

	logOutcome, _ := result.OutcomeFor(models.SinkLog)
	assert.False(t, logOutcome.Success)
}

func TestRunCycle_DurationsAccumulateAcrossCycles(t *testing.T) {
	f := newFixture()
	o := f.orchestrator()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	now := base
	o.now = func() time.Time { return now }

	_, err := o.RunCycle(context.Background())
	require.NoError(t, err)

	now = base.Add(5 * time.Second)
	result, err := o.RunCycle(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result)

	var hip models.RegionExposure
	for _, exp := range result.Exposures {
		if exp.Region == models.RegionHip {
			hip = exp
		}
	}
	assert.Equal(t, 5.0, hip.AccumulatedSeconds)
}

func TestDrain_WaitsForInFlightDispatches(t *testing.T) {
	f := newFixture()
	o := f.orchestrator()

	_, err := o.RunCycle(context.Background())
	require.NoError(t, err)

	assert.True(t, o.Drain(time.Second))
}
