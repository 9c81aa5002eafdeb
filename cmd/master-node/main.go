package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/iOT-Capston-Design-Project/master-node/internal/config"
	"github.com/iOT-Capston-Design-Project/master-node/internal/logger"
	"github.com/iOT-Capston-Design-Project/master-node/internal/service"
)

func main() {
	// 1. load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("Invalid config: %v", err))
	}

	// 2. initialize logging
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "master-node")
	if err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer log.Sync()

	// 3. create the service
	masterService, err := service.NewMasterService(cfg, log)
	if err != nil {
		log.Fatal("Failed to create master service",
			zap.Error(err),
		)
	}
	defer masterService.Stop()

	// 4. context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 5. run the cycle loop
	serviceErrChan := make(chan error, 1)
	go func() {
		if err := masterService.Start(ctx); err != nil {
			serviceErrChan <- err
		}
	}()

	// 6. wait for a signal or a fatal pipeline error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info("Received signal, shutting down",
			zap.String("signal", sig.String()),
		)
		cancel()
	case err := <-serviceErrChan:
		log.Fatal("Service error",
			zap.Error(err),
		)
	}

	log.Info("Master node stopped")
}
