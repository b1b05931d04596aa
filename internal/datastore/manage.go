package datastore

import (
	"log"
	"os"
	"time"

	"github.com/pipewatch/pipewatch-go/internal/logging"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DefaultSlowQueryThreshold defines the duration after which a query is
// considered slow. Dashboard aggregates scan whole tables, so the threshold
// is generous.
const DefaultSlowQueryThreshold = 1 * time.Second

// createGormLogger configures and returns a new GORM logger instance.
func createGormLogger() gormlogger.Interface {
	return gormlogger.New(
		log.New(os.Stderr, "", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             DefaultSlowQueryThreshold,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)
}

// performAutoMigration automates database migrations with error handling.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	migrationStart := time.Now()
	log := logging.ForService("datastore")

	if debug && log != nil {
		log.Debug("Starting database migration", "db_type", dbType, "target", connectionInfo)
	}

	if err := db.AutoMigrate(
		&Pipeline{},
		&PipelineObject{},
		&Inspection{},
		&RepairWork{},
		&MediaItem{},
	); err != nil {
		return err
	}

	if debug && log != nil {
		log.Debug("Database migration completed successfully",
			"db_type", dbType,
			"total_duration", time.Since(migrationStart))
	}

	return nil
}
