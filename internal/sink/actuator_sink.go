package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iOT-Capston-Design-Project/master-node/internal/models"
)

// Publisher the outbound MQTT capability the actuator sink needs
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// ActuatorSinkOptions dispatch gating thresholds
type ActuatorSinkOptions struct {
	Topic             string
	QoS               byte
	IntensityStep     int
	MinResendInterval time.Duration
}

// controlPayload wire format published to the actuator node
type controlPayload struct {
	TargetZones []int     `json:"target_zones"`
	Action      string    `json:"action"`
	Intensity   int       `json:"intensity"`
	Timestamp   time.Time `json:"timestamp"`
}

// ActuatorSink publishes control signals to the actuator node's control
// topic. Dispatch is gated so the actuator is not hammered with repeats:
// a signal goes out only when it differs meaningfully from the last one
// sent (zones, action, or intensity by at least IntensityStep) or when
// MinResendInterval has elapsed since the last send.
type ActuatorSink struct {
	publisher Publisher
	opts      ActuatorSinkOptions
	retry     RetryPolicy
	logger    *zap.Logger

	mu         sync.Mutex
	lastSignal *models.ControlSignal
	lastSentAt time.Time

	now func() time.Time
}

// NewActuatorSink creates the actuator sink
func NewActuatorSink(publisher Publisher, opts ActuatorSinkOptions, retry RetryPolicy, logger *zap.Logger) *ActuatorSink {
	return &ActuatorSink{
		publisher: publisher,
		opts:      opts,
		retry:     retry,
		logger:    logger,
		now:       time.Now,
	}
}

// Send dispatches a control signal; skipped reports gated-off dispatches
func (s *ActuatorSink) Send(ctx context.Context, signal models.ControlSignal) (skipped bool, err error) {
	s.mu.Lock()
	if !s.shouldSendLocked(signal) {
		s.mu.Unlock()
		s.logger.Debug("Control signal unchanged, dispatch skipped",
			zap.String("action", string(signal.Action)),
			zap.Int("intensity", signal.Intensity),
		)
		return true, nil
	}
	s.mu.Unlock()

	payload, err := json.Marshal(controlPayload{
		TargetZones: signal.TargetZones,
		Action:      string(signal.Action),
		Intensity:   signal.Intensity,
		Timestamp:   s.now(),
	})
	if err != nil {
		return false, fmt.Errorf("failed to marshal control signal: %w", err)
	}

	err = s.retry.Do(ctx, s.logger, models.SinkActuator, func(ctx context.Context) error {
		return s.publisher.Publish(s.opts.Topic, s.opts.QoS, false, payload)
	})
	if err != nil {
		return false, fmt.Errorf("failed to dispatch control signal: %w", err)
	}

	s.mu.Lock()
	sent := signal
	s.lastSignal = &sent
	s.lastSentAt = s.now()
	s.mu.Unlock()

	s.logger.Info("Control signal dispatched",
		zap.Ints("target_zones", signal.TargetZones),
		zap.String("action", string(signal.Action)),
		zap.Int("intensity", signal.Intensity),
	)
	return false, nil
}

// shouldSendLocked gating rule; caller holds s.mu
func (s *ActuatorSink) shouldSendLocked(signal models.ControlSignal) bool {
	if s.lastSignal == nil {
		return true
	}
	if s.opts.MinResendInterval > 0 && s.now().Sub(s.lastSentAt) >= s.opts.MinResendInterval {
		return true
	}
	if !signal.SameTarget(*s.lastSignal) {
		return true
	}
	if math.Abs(float64(signal.Intensity-s.lastSignal.Intensity)) >= float64(s.opts.IntensityStep) {
		return true
	}
	return false
}
