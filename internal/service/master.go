package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-resty/resty/v2"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/iOT-Capston-Design-Project/master-node/internal/config"
	"github.com/iOT-Capston-Design-Project/master-node/internal/detection"
	"github.com/iOT-Capston-Design-Project/master-node/internal/evaluator"
	"github.com/iOT-Capston-Design-Project/master-node/internal/frame"
	"github.com/iOT-Capston-Design-Project/master-node/internal/models"
	"github.com/iOT-Capston-Design-Project/master-node/internal/mqtt"
	"github.com/iOT-Capston-Design-Project/master-node/internal/orchestrator"
	"github.com/iOT-Capston-Design-Project/master-node/internal/planner"
	"github.com/iOT-Capston-Design-Project/master-node/internal/presentation"
	"github.com/iOT-Capston-Design-Project/master-node/internal/repository"
	"github.com/iOT-Capston-Design-Project/master-node/internal/settings"
	"github.com/iOT-Capston-Design-Project/master-node/internal/sink"
	"github.com/iOT-Capston-Design-Project/master-node/internal/tracker"
)

// MasterService wires all layers of the bed unit and drives the cycle and
// settings-refresh loops
type MasterService struct {
	config      *config.Config
	db          *sql.DB
	redisClient *redis.Client
	mqttClient  *mqtt.Client
	logger      *zap.Logger

	frameSource   frame.Source
	mqttSource    *frame.MQTTSource
	settingsCache *settings.Cache
	orchestrator  *orchestrator.Orchestrator
	presenter     presentation.Presenter
}

// NewMasterService creates the service and all its components
func NewMasterService(cfg *config.Config, logger *zap.Logger) (*MasterService, error) {
	// 1. connect to the database
	db, err := sql.Open("postgres", buildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// 2. connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	// 3. frame source and actuator transport; test mode runs without a broker
	var (
		mqttClient  *mqtt.Client
		mqttSource  *frame.MQTTSource
		frameSource frame.Source
		publisher   sink.Publisher
	)
	if cfg.TestMode {
		frameSource = frame.NewSimSource(cfg.DeviceID, logger)
		publisher = &loggingPublisher{logger: logger}
		logger.Info("Test mode enabled, using simulated frame source")
	} else {
		mqttClient, err = mqtt.NewClient(mqtt.Options{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect MQTT: %w", err)
		}
		mqttSource = frame.NewMQTTSource(mqttClient, cfg.MQTT.FrameTopic, cfg.MQTT.QoS, cfg.DeviceID, cfg.Cycle.FrameMaxAge, logger)
		frameSource = mqttSource
		publisher = mqttClient
	}

	// 4. repository layer
	pressureLogs := repository.NewPressureLogsRepository(db, logger)
	dayLogs := repository.NewDayLogsRepository(db, logger)

	// 5. settings cache over the cloud API
	cloudClient := settings.NewCloudClient(cfg.Cloud.BaseURL, cfg.Cloud.APIKey, cfg.Cloud.Timeout, logger)
	defaults := models.PatientSettings{
		AlertThresholdSeconds: cfg.Defaults.AlertThresholdSeconds,
		PressureThreshold:     cfg.Defaults.PressureThreshold,
	}
	settingsCache := settings.NewCache(cloudClient, cfg.DeviceID, defaults, logger)

	// 6. sinks
	retryPolicy := sink.RetryPolicy{
		Attempts:  cfg.Sink.RetryAttempts,
		BaseDelay: cfg.Sink.RetryBaseDelay,
		MaxDelay:  cfg.Sink.RetryMaxDelay,
	}
	logSink := sink.NewLogSink(pressureLogs, dayLogs, redisClient, sink.LogSinkOptions{
		RealtimeKeyPrefix: cfg.Cache.RealtimeKeyPrefix,
		RealtimeSuffix:    cfg.Cache.RealtimeSuffix,
		RealtimeTTL:       time.Duration(cfg.Cache.RealtimeTTL) * time.Second,
		StreamName:        cfg.Cache.StreamName,
		StreamMaxLen:      1000,
	}, retryPolicy, logger)
	actuatorSink := sink.NewActuatorSink(publisher, sink.ActuatorSinkOptions{
		Topic:             cfg.MQTT.ControlTopic,
		QoS:               cfg.MQTT.QoS,
		IntensityStep:     cfg.Planner.IntensityStep,
		MinResendInterval: cfg.Planner.MinResendInterval,
	}, retryPolicy, logger)
	pushClient := resty.New().
		SetBaseURL(cfg.Cloud.PushURL).
		SetTimeout(cfg.Cloud.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("apikey", cfg.Cloud.APIKey).
		SetAuthToken(cfg.Cloud.APIKey)
	notifier := sink.NewPushNotifier(pushClient, "/push", retryPolicy, logger)

	// 7. cycle pipeline
	orch := orchestrator.New(
		orchestrator.Options{
			DeviceID:    cfg.DeviceID,
			SinkTimeout: cfg.Cycle.SinkTimeout,
		},
		frameSource,
		detection.NewPatternClassifier(logger),
		detection.NewRegionAnalyzer(logger),
		tracker.NewDurationTracker(cfg.Cycle.SustainedFloor, cfg.Cycle.MaxGap, logger),
		evaluator.NewThresholdAlerter(logger),
		planner.NewActuationPlanner(cfg.Planner.ReliefLevel, cfg.Planner.ComfortCeiling, cfg.Planner.PressureScale),
		settingsCache,
		logSink,
		actuatorSink,
		notifier,
		logger,
	)

	return &MasterService{
		config:        cfg,
		db:            db,
		redisClient:   redisClient,
		mqttClient:    mqttClient,
		logger:        logger,
		frameSource:   frameSource,
		mqttSource:    mqttSource,
		settingsCache: settingsCache,
		orchestrator:  orch,
		presenter:     presentation.NewLogPresenter(logger),
	}, nil
}

// Start runs the cycle loop until the context is cancelled or a fatal error
// occurs. The settings refresh loop runs alongside it.
func (s *MasterService) Start(ctx context.Context) error {
	s.logger.Info("Starting master node",
		zap.String("device_id", s.config.DeviceID),
		zap.Duration("cycle_interval", s.config.Cycle.Interval),
	)

	// seed patient settings; the cache keeps serving defaults on failure
	if err := s.settingsCache.Refresh(ctx); err != nil {
		s.logger.Warn("Initial settings fetch failed, using defaults", zap.Error(err))
	}

	if s.mqttSource != nil {
		if err := s.mqttSource.Start(); err != nil {
			return fmt.Errorf("failed to start frame source: %w", err)
		}
	}

	go s.refreshLoop(ctx)

	ticker := time.NewTicker(s.config.Cycle.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			result, err := s.orchestrator.RunCycle(ctx)
			if err != nil {
				return fmt.Errorf("cycle pipeline failed: %w", err)
			}
			if result != nil {
				s.presenter.Present(result)
			}
		}
	}
}

// refreshLoop periodically re-fetches patient settings
func (s *MasterService) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(s.config.Cycle.SettingsRefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// failure keeps the previous snapshot; already logged by the cache
			_ = s.settingsCache.Refresh(ctx)
		}
	}
}

// Stop drains in-flight sink dispatches and releases connections
func (s *MasterService) Stop() error {
	s.logger.Info("Stopping master node")

	s.orchestrator.Drain(s.config.Cycle.ShutdownGrace)

	if s.mqttSource != nil {
		s.mqttSource.Stop()
	}
	if s.mqttClient != nil {
		s.mqttClient.Disconnect()
	}
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close database", zap.Error(err))
	}
	if err := s.redisClient.Close(); err != nil {
		s.logger.Error("Failed to close redis", zap.Error(err))
	}

	return nil
}

// buildDSN assembles the PostgreSQL connection string
func buildDSN(cfg *config.Config) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Database,
		cfg.Database.SSLMode,
	)
}

// loggingPublisher stands in for the MQTT publisher in test mode
type loggingPublisher struct {
	logger *zap.Logger
}

func (p *loggingPublisher) Publish(topic string, qos byte, retained bool, payload []byte) error {
	p.logger.Info("Control signal (test mode)",
		zap.String("topic", topic),
		zap.ByteString("payload", payload),
	)
	return nil
}
