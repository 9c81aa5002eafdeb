package frame

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iOT-Capston-Design-Project/master-node/internal/models"
	"github.com/iOT-Capston-Design-Project/master-node/internal/mqtt"
)

// Broker is the subset of the MQTT client the frame source needs
// (interface so unit tests can inject a fake)
type Broker interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topics ...string) error
}

// framePayload wire format published by the sensor node
type framePayload struct {
	Rows      int       `json:"rows"`
	Cols      int       `json:"cols"`
	Cells     []float64 `json:"cells"`
	Seq       uint64    `json:"seq"`
	Timestamp int64     `json:"timestamp"` // unix milliseconds
}

// MQTTSource keeps the latest pressure matrix published by the sensor node.
// Acquire hands out that frame as long as it is fresh; an old or missing
// frame fails acquisition for the cycle without crashing the loop.
type MQTTSource struct {
	broker   Broker
	topic    string
	qos      byte
	deviceID string
	maxAge   time.Duration
	logger   *zap.Logger

	mu         sync.Mutex
	latest     *models.PressureMatrix
	receivedAt time.Time

	now func() time.Time
}

// NewMQTTSource creates a frame source for the sensor node's frame topic
func NewMQTTSource(broker Broker, topic string, qos byte, deviceID string, maxAge time.Duration, logger *zap.Logger) *MQTTSource {
	return &MQTTSource{
		broker:   broker,
		topic:    topic,
		qos:      qos,
		deviceID: deviceID,
		maxAge:   maxAge,
		logger:   logger,
		now:      time.Now,
	}
}

// Start subscribes to the frame topic
func (s *MQTTSource) Start() error {
	if err := s.broker.Subscribe(s.topic, s.qos, s.handleMessage); err != nil {
		return fmt.Errorf("failed to subscribe to frame topic: %w", err)
	}

	s.logger.Info("Frame source started",
		zap.String("topic", s.topic),
	)
	return nil
}

// Stop unsubscribes from the frame topic
func (s *MQTTSource) Stop() {
	if err := s.broker.Unsubscribe(s.topic); err != nil {
		s.logger.Error("Failed to unsubscribe from frame topic", zap.Error(err))
	}
}

// handleMessage decodes and stores one published frame
func (s *MQTTSource) handleMessage(topic string, payload []byte) error {
	var p framePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("failed to unmarshal frame payload: %w", err)
	}

	if p.Rows <= 0 || p.Cols <= 0 {
		return fmt.Errorf("invalid frame dimensions: %dx%d", p.Rows, p.Cols)
	}
	if len(p.Cells) != p.Rows*p.Cols {
		return fmt.Errorf("frame cell count %d does not match %dx%d", len(p.Cells), p.Rows, p.Cols)
	}

	// sensor glitches can report negative values; clamp to zero
	cells := make([]float64, len(p.Cells))
	for i, v := range p.Cells {
		if v < 0 {
			v = 0
		}
		cells[i] = v
	}

	matrix := &models.PressureMatrix{
		DeviceID:  s.deviceID,
		Rows:      p.Rows,
		Cols:      p.Cols,
		Cells:     cells,
		Seq:       p.Seq,
		Timestamp: time.UnixMilli(p.Timestamp),
	}

	s.mu.Lock()
	s.latest = matrix
	s.receivedAt = s.now()
	s.mu.Unlock()

	s.logger.Debug("Frame received",
		zap.Uint64("seq", p.Seq),
		zap.Int("rows", p.Rows),
		zap.Int("cols", p.Cols),
	)
	return nil
}

// Acquire returns the latest fresh frame
func (s *MQTTSource) Acquire(ctx context.Context) (*models.PressureMatrix, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.latest == nil {
		return nil, ErrNoFrame
	}
	if age := s.now().Sub(s.receivedAt); age > s.maxAge {
		return nil, fmt.Errorf("%w: age %s", ErrStaleFrame, age)
	}
	return s.latest, nil
}
