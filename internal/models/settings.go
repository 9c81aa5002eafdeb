package models

import "time"

// PatientSettings per-patient alert thresholds fetched from the cloud backend.
// Replaced atomically by the settings cache on successful refresh; a stale
// copy stays valid until replaced, never partially updated.
type PatientSettings struct {
	PatientID             string    `json:"patient_id"`
	AlertThresholdSeconds int       `json:"alert_threshold_seconds"` // > 0
	PressureThreshold     float64   `json:"pressure_threshold"`      // >= 0
	FetchedAt             time.Time `json:"fetched_at,omitempty"`
}
