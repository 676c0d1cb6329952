package database

import (
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func getLogger() logger.Interface {
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			// Snapshot upserts are chatty; only slow queries and errors
			// are worth a line.
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true, // KV misses are the normal case
			ParameterizedQueries:      true,
			Colorful:                  false,
		},
	)
}

// configureConnectionPool sizes the pool for the KV store workload: snapshot
// upserts from the consumer goroutine plus occasional session restores.
func configureConnectionPool(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return nil
}

// NewGormDBFromDSN opens the postgres connection backing the durable KV
// store. Used only when STORE_BACKEND=postgres.
func NewGormDBFromDSN(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: getLogger(),
	})
	if err != nil {
		return nil, err
	}

	if err := configureConnectionPool(db); err != nil {
		return nil, err
	}

	return db, nil
}
