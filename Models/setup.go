package Models

import (
	"os"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Connect opens the database and runs migrations. The path comes from
// DB_PATH, defaulting to a local sqlite file.
func Connect() {
	path := os.Getenv("DB_PATH")
	if path == "" {
		path = "database.db"
	}

	connection, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("failed to open database")
	}
	DB = connection

	if err := Migrate(DB); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	log.Info().Str("path", path).Msg("database ready")
}

// Migrate creates the schema. Kept separate from Connect so tests can run it
// against their own in-memory databases.
func Migrate(db *gorm.DB) error {
	// 1. Base records with no dependencies
	if err := db.AutoMigrate(
		&User{},
		&Department{},
		&Employee{},
		&TaskTemplate{},
	); err != nil {
		return err
	}

	// 2. Simple foreign key relationships
	if err := db.AutoMigrate(
		&TaskSchedule{},
		&TaskCycle{},
	); err != nil {
		return err
	}

	// 3. Work items and their append-only logs
	return db.AutoMigrate(
		&TaskInstance{},
		&TaskProgressEvent{},
		&TaskApproval{},
		&TaskAssignment{},
	)
}
