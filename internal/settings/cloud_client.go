package settings

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/iOT-Capston-Design-Project/master-node/internal/models"
)

// settingsResponse patient settings payload from the cloud API
type settingsResponse struct {
	PatientID             string  `json:"patient_id"`
	AlertThresholdSeconds int     `json:"alert_threshold_seconds"`
	PressureThreshold     float64 `json:"pressure_threshold"`
}

// CloudClient patient-settings API client
type CloudClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewCloudClient creates a settings API client
func NewCloudClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *CloudClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("apikey", apiKey).
		SetAuthToken(apiKey)

	return &CloudClient{
		httpClient: client,
		logger:     logger,
	}
}

// Fetch retrieves the patient settings registered for a device
func (c *CloudClient) Fetch(ctx context.Context, deviceID string) (*models.PatientSettings, error) {
	var out settingsResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&out).
		SetPathParam("device_id", deviceID).
		Get("/devices/{device_id}/settings")

	if err != nil {
		return nil, fmt.Errorf("failed to call settings API: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("settings API returned status %d", resp.StatusCode())
	}

	if out.AlertThresholdSeconds <= 0 {
		return nil, fmt.Errorf("invalid settings: alert_threshold_seconds must be positive, got %d", out.AlertThresholdSeconds)
	}
	if out.PressureThreshold < 0 {
		return nil, fmt.Errorf("invalid settings: pressure_threshold must not be negative, got %f", out.PressureThreshold)
	}

	return &models.PatientSettings{
		PatientID:             out.PatientID,
		AlertThresholdSeconds: out.AlertThresholdSeconds,
		PressureThreshold:     out.PressureThreshold,
		FetchedAt:             time.Now(),
	}, nil
}
