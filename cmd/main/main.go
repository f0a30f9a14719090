package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trader-gateway/src/config"
	"trader-gateway/src/dispatcher"
	"trader-gateway/src/logger"
	"trader-gateway/src/server"
)

func main() {
	// 1. Parse command line flags
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	flag.Parse()

	// 2. Load config
	conf, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// 3. Setup Logger
	if err := logger.Setup(conf.LogLevel); err != nil {
		fmt.Printf("Error setting up logger: %v\n", err)
		os.Exit(1)
	}
	appLogger := logger.NewLogger(conf.MConfig, conf.Name)

	// 4. Setup Components
	db, err := setupDatabase(conf.MConfig, appLogger)
	if err != nil {
		os.Exit(1)
	}

	disp := dispatcher.NewCommandDispatcher(
		conf.Trader,
		db,
		appLogger.Named("Dispatcher"),
		dispatcher.WithTimeout(conf.CommandTimeout()),
	)
	disp.Start()

	srv := server.NewFastAPIServer(conf.MConfig, disp, db, appLogger.Named("FastAPIServer"))

	// 5. Start Servers
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	grpcServer := startServers(srv, disp, conf, appLogger)
	refresher := setupSessionRefresher(ctx, disp, conf.MConfig, appLogger)

	appLogger.Info("Gateway ready, trading server at %s:%d", conf.Trader.Host, conf.Trader.Port)
	<-ctx.Done()

	// 6. Graceful shutdown
	appLogger.Info("Shutting down...")
	if refresher != nil {
		refresher.Stop()
	}
	if err := srv.Stop(); err != nil {
		appLogger.Warning("Server stop: %v", err)
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	disp.Shutdown(shutdownCtx)

	if db != nil {
		if err := db.Close(); err != nil {
			appLogger.Warning("Database close: %v", err)
		}
	}
	appLogger.Info("Shutdown complete.")
}
