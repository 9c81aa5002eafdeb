package models

import "time"

// AlertMessage push notification emitted when a region exceeds its
// pressure and duration thresholds. At most one per region per cooldown
// window to avoid alert storms.
type AlertMessage struct {
	EventID     string     `json:"event_id"`
	PatientID   string     `json:"patient_id"`
	Region      BodyRegion `json:"region"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	Priority    string     `json:"priority"` // "high" | "normal"
	TriggeredAt time.Time  `json:"triggered_at"`
}
