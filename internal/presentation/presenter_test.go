package presentation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/iOT-Capston-Design-Project/master-node/internal/models"
)

func TestPresent_LogsCycleSummary(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	p := NewLogPresenter(zap.New(core))

	p.Present(&models.CycleResult{
		CycleID: "cycle-1",
		Posture: models.Posture{Type: models.PostureSupine, Confidence: 0.8},
		Signal:  models.ControlSignal{TargetZones: []int{5}, Action: models.ActionInflate, Intensity: 40},
		SinkOutcomes: []models.SinkOutcome{
			{Sink: models.SinkLog, Success: true},
			{Sink: models.SinkActuator, Success: true},
			{Sink: models.SinkNotifier, Success: true, Skipped: true},
		},
	})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zap.InfoLevel, entry.Level)
	assert.Equal(t, "Cycle completed", entry.Message)

	fields := entry.ContextMap()
	assert.Equal(t, "cycle-1", fields["cycle_id"])
	assert.Equal(t, "supine", fields["posture"])
}

func TestPresent_WarnsOnSinkFailures(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	p := NewLogPresenter(zap.New(core))

	p.Present(&models.CycleResult{
		CycleID: "cycle-2",
		SinkOutcomes: []models.SinkOutcome{
			{Sink: models.SinkLog, Success: false, Error: "db down"},
			{Sink: models.SinkActuator, Success: true},
		},
	})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zap.WarnLevel, entry.Level)
	assert.Equal(t, int64(1), entry.ContextMap()["failed_sinks"])
}

func TestPresent_NilResultIgnored(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	p := NewLogPresenter(zap.New(core))

	p.Present(nil)
	assert.Equal(t, 0, logs.Len())
}
