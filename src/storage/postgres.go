package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"trader-gateway/src/helpers"
	"trader-gateway/src/logger"
	"trader-gateway/src/models"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------

// PostgresDB keeps every table in a schema named after the executable.
type PostgresDB struct {
	*sqlStore
	Config *models.MConfig
	Schema string
}

// -----------------------------------------------------------------------------

func NewPostgresDB(cfg *models.MConfig, log *logger.Logger) (*PostgresDB, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable name: %w", err)
	}
	name := filepath.Base(exe)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	return newPostgresDB(cfg, name, log), nil
}

func newPostgresDB(cfg *models.MConfig, schema string, log *logger.Logger) *PostgresDB {
	return &PostgresDB{
		sqlStore: &sqlStore{
			Logger:      log,
			qualify:     func(table string) string { return fmt.Sprintf(`"%s"."%s"`, schema, table) },
			numbered:    true,
			doubleType:  "DOUBLE PRECISION",
			integerType: "BIGINT",
		},
		Config: cfg,
		Schema: schema,
	}
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Initialize() error {
	dsn := d.Config.Storage.DBConnectionString
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return helpers.NewDatabaseError("open postgres", err)
	}

	if err := db.Ping(); err != nil {
		return helpers.NewDatabaseError("ping postgres", err)
	}

	d.DB = db

	// Create Schema
	if _, err := d.DB.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema)); err != nil {
		return helpers.NewDatabaseError("failed to create schema "+d.Schema, err)
	}

	if err := d.createTables(); err != nil {
		return err
	}

	d.Logger.Info("PostgresDB initialized successfully (Schema: %s)", d.Schema)
	return nil
}
