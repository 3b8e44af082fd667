package db

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/PixelPath7/vive-sano/configs"
	"github.com/PixelPath7/vive-sano/internal/logger"
	"github.com/PixelPath7/vive-sano/internal/models"
)

var DB *gorm.DB

func Init(cfg config.DatabaseConfig) {

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=%s",
		cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port, cfg.TimeZone,
	)

	var err error

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.NewGormLogger(log.Logger),
	})

	if err != nil {
		log.Fatal().Err(err).Str("host", cfg.Host).Msg("failed to connect to database")
	}

	if err := Migrate(DB); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	log.Info().Str("host", cfg.Host).Str("database", cfg.Name).Msg("database connected and migrated")
}

func Migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

func SetTestDB(testDB *gorm.DB) {
	DB = testDB
}
