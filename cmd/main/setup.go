package main

import (
	"context"
	"time"

	"trader-gateway/src/interfaces"
	"trader-gateway/src/logger"
	"trader-gateway/src/models"
	"trader-gateway/src/storage"
	"trader-gateway/src/utils"
)

// -----------------------------------------------------------------------------

// setupDatabase opens the configured store. A "none" store yields a nil
// database and the gateway runs without persistence.
func setupDatabase(config *models.MConfig, appLogger *logger.Logger) (interfaces.IDatabase, error) {
	dbLogger := logger.NewLogger(config, "Storage")
	db, err := storage.NewDatabase(config, dbLogger)
	if err != nil {
		appLogger.Critical("Failed to init db: %v", err)
		return nil, err
	}
	if db == nil {
		appLogger.Warning("Storage disabled, records are not persisted")
	}
	return db, nil
}

// -----------------------------------------------------------------------------

// setupSessionRefresher starts the periodic POSREFRESH / GET BP loop when
// enabled in config.
func setupSessionRefresher(ctx context.Context, submitter interfaces.ICommandSubmitter, config *models.MConfig, appLogger *logger.Logger) *utils.SessionRefresher {
	if !config.Session.Enabled {
		return nil
	}
	schedLogger := logger.NewLogger(config, "MarketScheduler")
	scheduler := utils.NewMarketScheduler(config.Session.Symbols, schedLogger)

	interval := time.Duration(config.Session.RefreshIntervalSeconds) * time.Second
	refresher := utils.NewSessionRefresher(submitter, scheduler, interval, logger.NewLogger(config, "SessionRefresher"))
	refresher.Start(ctx)

	appLogger.Info("Session refresher every %s on markets %v", interval, scheduler.MICs())
	return refresher
}
