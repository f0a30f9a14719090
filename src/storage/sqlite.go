package storage

import (
	"database/sql"

	"trader-gateway/src/helpers"
	"trader-gateway/src/logger"
	"trader-gateway/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

type AsyncSQLiteDB struct {
	*sqlStore
	Config *models.MConfig
}

// -----------------------------------------------------------------------------

func NewAsyncSQLiteDB(cfg *models.MConfig, log *logger.Logger) (*AsyncSQLiteDB, error) {
	return &AsyncSQLiteDB{
		sqlStore: &sqlStore{
			Logger:      log,
			qualify:     func(table string) string { return table },
			doubleType:  "REAL",
			integerType: "INTEGER",
		},
		Config: cfg,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Initialize() error {
	dsn := d.Config.Storage.DBPath

	// Open DB
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return helpers.NewDatabaseError("open sqlite "+dsn, err)
	}

	if err := db.Ping(); err != nil {
		return helpers.NewDatabaseError("ping sqlite "+dsn, err)
	}

	// A single connection serializes writers
	db.SetMaxOpenConns(1)
	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000;"); err != nil {
		d.Logger.Warning("Failed to set busy timeout: %v", err)
	}

	if err := d.createTables(); err != nil {
		return err
	}
	d.Logger.Info("SQLite initialized successfully (Path: %s)", dsn)
	return nil
}
