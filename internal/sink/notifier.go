package sink

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/iOT-Capston-Design-Project/master-node/internal/models"
)

// Notifier delivers relief alerts to caregivers
type Notifier interface {
	Notify(ctx context.Context, alert *models.AlertMessage) error
}

// pushRequest wire format of the push gateway
type pushRequest struct {
	EventID   string `json:"event_id"`
	PatientID string `json:"patient_id"`
	Region    string `json:"region"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Priority  string `json:"priority"`
}

// PushNotifier posts alerts to the cloud push gateway
type PushNotifier struct {
	client *resty.Client
	path   string
	retry  RetryPolicy
	logger *zap.Logger
}

// NewPushNotifier creates the push notifier on a configured resty client
func NewPushNotifier(client *resty.Client, path string, retry RetryPolicy, logger *zap.Logger) *PushNotifier {
	return &PushNotifier{
		client: client,
		path:   path,
		retry:  retry,
		logger: logger,
	}
}

// Notify posts one alert
func (n *PushNotifier) Notify(ctx context.Context, alert *models.AlertMessage) error {
	if alert == nil {
		return fmt.Errorf("alert is required")
	}

	req := pushRequest{
		EventID:   alert.EventID,
		PatientID: alert.PatientID,
		Region:    string(alert.Region),
		Title:     alert.Title,
		Body:      alert.Body,
		Priority:  alert.Priority,
	}

	err := n.retry.Do(ctx, n.logger, models.SinkNotifier, func(ctx context.Context) error {
		resp, err := n.client.R().
			SetContext(ctx).
			SetBody(req).
			Post(n.path)
		if err != nil {
			return fmt.Errorf("failed to post alert: %w", err)
		}
		if resp.IsError() {
			return fmt.Errorf("push gateway returned status %d", resp.StatusCode())
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to notify alert %s: %w", alert.EventID, err)
	}

	n.logger.Info("Alert notification delivered",
		zap.String("event_id", alert.EventID),
		zap.String("region", string(alert.Region)),
	)
	return nil
}
