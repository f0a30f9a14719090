package storage

import (
	"trader-gateway/src/helpers"
	"trader-gateway/src/interfaces"
	"trader-gateway/src/logger"
	"trader-gateway/src/models"
)

// NewDatabase picks the backend from cfg.Storage.DBType and initializes it.
// "none" returns a nil database: records are then only streamed, not stored.
func NewDatabase(cfg *models.MConfig, log *logger.Logger) (interfaces.IDatabase, error) {
	var (
		db  interfaces.IDatabase
		err error
	)

	switch cfg.Storage.DBType {
	case "none":
		log.Warning("Storage disabled, records are not persisted")
		return nil, nil
	case "postgres":
		db, err = NewPostgresDB(cfg, log)
	default:
		// Default to SQLite
		db, err = NewAsyncSQLiteDB(cfg, log)
	}
	if err != nil {
		return nil, helpers.NewDatabaseError("failed to init db", err)
	}

	if err := db.Initialize(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
