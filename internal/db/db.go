package db

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	// The following blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ldelattre/microgest/internal/applog"
	"github.com/ldelattre/microgest/internal/models"
)

// ConnectAndMigrate opens the configured database and brings the schema up
// to date. Postgres DSNs get the retry loop (the container may still be
// starting); sqlite paths open directly.
func ConnectAndMigrate(rawDSN string) (*gorm.DB, error) {
	dsn := NormalizeDSN(rawDSN)
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_DSN est vide, vérifiez la configuration de l'environnement")
	}
	log := applog.Default.WithComponent("db")

	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "1" {
		logLevel = logger.Info
	}
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}

	var db *gorm.DB
	var err error
	if IsPostgresDSN(dsn) {
		for i := 0; i < 10; i++ {
			db, err = gorm.Open(postgres.Open(dsn), cfg)
			if err == nil {
				break
			}
			log.Warn("retrying DB connection", "error", err)
			time.Sleep(2 * time.Second)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to connect database after retries: %w", err)
		}
	} else {
		db, err = gorm.Open(sqlite.Open(dsn), cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
	}

	if pingErr := db.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}
	log.Info("connected", "dsn", maskDSN(dsn))

	// MIGRATIONS=1 runs sql migrations via golang-migrate (postgres only);
	// otherwise AutoMigrate keeps the dev loop short.
	if v := strings.ToLower(os.Getenv("MIGRATIONS")); (v == "1" || v == "true" || v == "yes") && IsPostgresDSN(dsn) {
		if err := runSQLMigrations(dsn); err != nil {
			return nil, fmt.Errorf("sql migrations failed: %w", err)
		}
	} else {
		if err := AutoMigrate(db); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// AutoMigrate creates/updates all application tables. Exported so tests can
// reuse the exact production schema on in-memory sqlite.
func AutoMigrate(db *gorm.DB) error {
	modelsToMigrate := []interface{}{
		&models.User{}, &models.Client{}, &models.Project{}, &models.CatalogItem{},
		&models.Quote{}, &models.Invoice{}, &models.LineItem{},
		&models.TimeEntry{}, &models.Expense{},
		&models.NumberSequence{}, &models.IdempotencyRecord{},
	}
	for _, m := range modelsToMigrate {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	return nil
}

func maskDSN(dsn string) string {
	masked := dsn
	if strings.Contains(masked, "password=") {
		re := regexp.MustCompile(`(password=)([^\s]+)`)
		masked = re.ReplaceAllString(masked, `${1}***`)
	}
	if re := regexp.MustCompile(`(://[^:/@]+:)([^@]+)@`); re.MatchString(masked) {
		masked = re.ReplaceAllString(masked, `${1}***@`)
	}
	return masked
}

// runSQLMigrations executes migrations in ./migrations using golang-migrate file source.
func runSQLMigrations(dsn string) error {
	m, err := migrate.New("file://migrations", dsn)
	if err != nil {
		return err
	}
	if err = m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}
