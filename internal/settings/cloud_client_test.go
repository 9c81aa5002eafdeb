package settings

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCloudClient_Fetch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/devices/bed-042/settings", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"patient_id":"patient-1","alert_threshold_seconds":600,"pressure_threshold":250}`))
	}))
	defer server.Close()

	client := NewCloudClient(server.URL, "test-key", 5*time.Second, zap.NewNop())

	got, err := client.Fetch(context.Background(), "bed-042")
	require.NoError(t, err)
	assert.Equal(t, "patient-1", got.PatientID)
	assert.Equal(t, 600, got.AlertThresholdSeconds)
	assert.Equal(t, 250.0, got.PressureThreshold)
	assert.False(t, got.FetchedAt.IsZero())
}

func TestCloudClient_Fetch_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewCloudClient(server.URL, "test-key", 5*time.Second, zap.NewNop())

	_, err := client.Fetch(context.Background(), "bed-042")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestCloudClient_Fetch_RejectsInvalidThreshold(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"patient_id":"patient-1","alert_threshold_seconds":0,"pressure_threshold":250}`))
	}))
	defer server.Close()

	client := NewCloudClient(server.URL, "test-key", 5*time.Second, zap.NewNop())

	_, err := client.Fetch(context.Background(), "bed-042")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alert_threshold_seconds")
}
