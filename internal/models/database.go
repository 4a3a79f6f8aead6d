package models

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DB is the database used by the backend.
var DB *gorm.DB

// Connect opens the database and configures the connection pool.
//
// If DB_HOST is set, a postgresql database is used. Otherwise, the
// backend falls back to a local sqlite database at the given DSN.
func Connect(dsn string) error {
	config := &gorm.Config{
		Logger: &logger{
			Logger: log.Logger,
		},
		// Set generated timestamps in UTC
		NowFunc: func() time.Time {
			return time.Now().In(time.UTC)
		},
		TranslateError: true,
	}

	var db *gorm.DB
	var err error

	host, ok := os.LookupEnv("DB_HOST")
	if ok {
		log.Debug().Msg("DB_HOST is set, using postgresql")
		pgDSN := fmt.Sprintf("host=%s user=%s password=%s dbname=%s", host, os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"), os.Getenv("DB_NAME"))
		db, err = gorm.Open(postgres.Open(pgDSN), config)
	} else {
		log.Debug().Msg("DB_HOST is not set, using sqlite database")
		db, err = gorm.Open(sqlite.Open(fmt.Sprintf("%s?_pragma=foreign_keys(1)", dsn)), config)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database object: %w", err)
	}

	// Get new connections after one hour
	sqlDB.SetConnMaxLifetime(time.Hour)

	if !ok {
		// sqlite only supports a single writer. This is done to
		// prevent SQLITE_BUSY errors.
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetMaxOpenConns(1)
	}

	err = db.Callback().Query().After("*").Register("cofrinho:after_query", generalCallback)
	if err != nil {
		return err
	}

	err = db.Callback().Create().After("*").Register("cofrinho:after_create", generalCallback)
	if err != nil {
		return err
	}

	err = db.Callback().Update().After("*").Register("cofrinho:after_update", generalCallback)
	if err != nil {
		return err
	}

	err = db.Callback().Delete().After("*").Register("cofrinho:after_delete", generalCallback)
	if err != nil {
		return err
	}

	DB = db
	return nil
}

// Migrate migrates all models in the registry.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Registry...)
}

// generalCallback rewrites driver errors that users will see into
// messages that do not leak database internals.
func generalCallback(db *gorm.DB) {
	if db.Error == nil {
		return
	}

	if errors.Is(db.Error, gorm.ErrRecordNotFound) {
		db.Error = ErrResourceNotFound
		return
	}

	if errors.Is(db.Error, gorm.ErrDuplicatedKey) {
		db.Error = fmt.Errorf("%w: a resource with these unique values already exists", ErrConflict)
		return
	}

	if errors.Is(db.Error, gorm.ErrForeignKeyViolated) {
		db.Error = fmt.Errorf("%w: a resource you referenced does not exist", ErrResourceNotFound)
	}
}
