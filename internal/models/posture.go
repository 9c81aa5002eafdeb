package models

import "time"

// PostureType patient posture classification
type PostureType string

const (
	PostureSupine       PostureType = "supine"
	PostureProne        PostureType = "prone"
	PostureLeftLateral  PostureType = "left_lateral"
	PostureRightLateral PostureType = "right_lateral"
	PostureUnknown      PostureType = "unknown"
)

// Posture classification result for one cycle (produced by the classifier, immutable)
type Posture struct {
	Type       PostureType `json:"type"`
	Confidence float64     `json:"confidence"` // 0.0 ~ 1.0
	Timestamp  time.Time   `json:"timestamp"`
}
