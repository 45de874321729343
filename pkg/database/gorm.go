package database

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options tunes the gorm session. The zero value logs SQL at Warn level.
type Options struct {
	LogLevel logger.LogLevel
}

func getLogger(level logger.LogLevel) logger.Interface {
	if level == 0 {
		level = logger.Warn
	}
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags), // io writer
		logger.Config{
			SlowThreshold:             time.Second, // Slow SQL threshold
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true, // Don't include params in the SQL log
			Colorful:                  true,
		},
	)
}

func configureConnectionPool(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return nil
}

// IsSQLiteDSN reports whether dsn targets the embedded sqlite driver
// (sqlite://path, file:..., or :memory:).
func IsSQLiteDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "sqlite://") ||
		strings.HasPrefix(dsn, "file:") ||
		dsn == ":memory:"
}

func dialector(dsn string) gorm.Dialector {
	if IsSQLiteDSN(dsn) {
		return sqlite.Open(strings.TrimPrefix(dsn, "sqlite://"))
	}
	return postgres.Open(dsn)
}

// NewGormDBFromDSN picks the postgres or sqlite dialect from the DSN shape.
func NewGormDBFromDSN(dsn string, opts Options) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database DSN is empty")
	}

	db, err := gorm.Open(dialector(dsn), &gorm.Config{
		Logger:         getLogger(opts.LogLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	if err := configureConnectionPool(db); err != nil {
		return nil, err
	}

	return db, nil
}

func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
