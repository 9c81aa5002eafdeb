package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config master-node configuration
type Config struct {
	// DeviceID identifies this bed unit against the cloud backend
	DeviceID string

	Database struct {
		Host     string
		Port     int
		User     string
		Password string
		Database string
		SSLMode  string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	MQTT struct {
		Broker       string
		ClientID     string
		Username     string
		Password     string
		QoS          byte
		FrameTopic   string // sensor node publishes decoded pressure matrices here
		ControlTopic string // control node consumes relief commands here
	}

	Cloud struct {
		BaseURL string // patient settings API
		APIKey  string
		PushURL string // push notification endpoint
		Timeout time.Duration
	}

	Cycle struct {
		Interval                time.Duration // cycle driver tick
		SustainedFloor          float64       // pressure below this means the region is released
		MaxGap                  time.Duration // elapsed-time clamp for stalls / clock anomalies
		FrameMaxAge             time.Duration // frames older than this fail acquisition
		SettingsRefreshInterval time.Duration
		SinkTimeout             time.Duration // per-sink dispatch timeout
		ShutdownGrace           time.Duration // bound on draining in-flight dispatches
	}

	Planner struct {
		ReliefLevel       float64 // region at or above this selects its zones
		ComfortCeiling    float64 // aggregate pressure above this deflates instead of inflates
		PressureScale     float64 // pressure mapped to intensity 100
		IntensityStep     int     // intensity delta considered a meaningful change
		MinResendInterval time.Duration
	}

	Sink struct {
		RetryAttempts  int
		RetryBaseDelay time.Duration
		RetryMaxDelay  time.Duration
	}

	Cache struct {
		RealtimeKeyPrefix string // realtime state key prefix, e.g. "bed:device:"
		RealtimeSuffix    string // e.g. ":realtime"
		RealtimeTTL       int    // seconds
		StreamName        string // cycle log stream for downstream consumers
	}

	Defaults struct {
		AlertThresholdSeconds int
		PressureThreshold     float64
	}

	Log struct {
		Level  string
		Format string
	}

	// TestMode swaps the MQTT frame source for a simulated one
	TestMode bool
}

// Load reads configuration from environment variables with defaults
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.DeviceID = getEnv("DEVICE_ID", "")

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "bedcare")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "master-node-"+cfg.DeviceID)
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.QoS = byte(getEnvInt("MQTT_QOS", 1))
	cfg.MQTT.FrameTopic = getEnv("MQTT_FRAME_TOPIC", "bed/"+cfg.DeviceID+"/frame")
	cfg.MQTT.ControlTopic = getEnv("MQTT_CONTROL_TOPIC", "bed/"+cfg.DeviceID+"/control")

	cfg.Cloud.BaseURL = getEnv("CLOUD_BASE_URL", "")
	cfg.Cloud.APIKey = getEnv("CLOUD_API_KEY", "")
	cfg.Cloud.PushURL = getEnv("PUSH_URL", "")
	cfg.Cloud.Timeout = getEnvDuration("CLOUD_TIMEOUT_SECONDS", 10*time.Second)

	cfg.Cycle.Interval = getEnvDuration("CYCLE_INTERVAL_SECONDS", 1*time.Second)
	cfg.Cycle.SustainedFloor = getEnvFloat("SUSTAINED_FLOOR", 50)
	cfg.Cycle.MaxGap = getEnvDuration("MAX_GAP_SECONDS", 30*time.Second)
	cfg.Cycle.FrameMaxAge = getEnvDuration("FRAME_MAX_AGE_SECONDS", 5*time.Second)
	cfg.Cycle.SettingsRefreshInterval = getEnvDuration("SETTINGS_REFRESH_SECONDS", 60*time.Second)
	cfg.Cycle.SinkTimeout = getEnvDuration("SINK_TIMEOUT_SECONDS", 5*time.Second)
	cfg.Cycle.ShutdownGrace = getEnvDuration("SHUTDOWN_GRACE_SECONDS", 10*time.Second)

	cfg.Planner.ReliefLevel = getEnvFloat("PLANNER_RELIEF_LEVEL", 300)
	cfg.Planner.ComfortCeiling = getEnvFloat("PLANNER_COMFORT_CEILING", 1500)
	cfg.Planner.PressureScale = getEnvFloat("PLANNER_PRESSURE_SCALE", 1000)
	cfg.Planner.IntensityStep = getEnvInt("PLANNER_INTENSITY_STEP", 10)
	cfg.Planner.MinResendInterval = getEnvDuration("PLANNER_MIN_RESEND_SECONDS", 30*time.Second)

	cfg.Sink.RetryAttempts = getEnvInt("SINK_RETRY_ATTEMPTS", 3)
	cfg.Sink.RetryBaseDelay = time.Duration(getEnvInt("SINK_RETRY_BASE_MS", 100)) * time.Millisecond
	cfg.Sink.RetryMaxDelay = time.Duration(getEnvInt("SINK_RETRY_MAX_MS", 2000)) * time.Millisecond

	cfg.Cache.RealtimeKeyPrefix = getEnv("CACHE_REALTIME_PREFIX", "bed:device:")
	cfg.Cache.RealtimeSuffix = ":realtime"
	cfg.Cache.RealtimeTTL = getEnvInt("CACHE_REALTIME_TTL", 30)
	cfg.Cache.StreamName = getEnv("CACHE_STREAM_NAME", "bed:cycle:stream")

	cfg.Defaults.AlertThresholdSeconds = getEnvInt("DEFAULT_ALERT_THRESHOLD_SECONDS", 7200)
	cfg.Defaults.PressureThreshold = getEnvFloat("DEFAULT_PRESSURE_THRESHOLD", 300)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.TestMode = getEnvBool("TEST_MODE", false)

	return cfg, nil
}

// Validate checks required fields
func (c *Config) Validate() error {
	if c.DeviceID == "" {
		return fmt.Errorf("DEVICE_ID is required")
	}
	if c.Cloud.BaseURL == "" {
		return fmt.Errorf("CLOUD_BASE_URL is required")
	}
	if c.Cloud.APIKey == "" {
		return fmt.Errorf("CLOUD_API_KEY is required")
	}
	if c.Cycle.Interval <= 0 {
		return fmt.Errorf("CYCLE_INTERVAL_SECONDS must be positive")
	}
	if c.Defaults.AlertThresholdSeconds <= 0 {
		return fmt.Errorf("DEFAULT_ALERT_THRESHOLD_SECONDS must be positive")
	}
	if c.Defaults.PressureThreshold < 0 {
		return fmt.Errorf("DEFAULT_PRESSURE_THRESHOLD must not be negative")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvDuration reads a whole-second environment value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return defaultValue
}
