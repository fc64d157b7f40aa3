package db

import (
	"fmt"

	"courses-backend/models"
	"courses-backend/utils"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func InitDB(dsn string) error {
	if dsn == "" {
		utils.LogError(nil, "Variable DB_URL non définie")
		return fmt.Errorf("database URL is not configured")
	}

	var err error
	// Utilisation du logger GORM harmonisé
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         utils.GetGormLogger(),
		TranslateError: true,
	})
	if err != nil {
		utils.LogError(err, "Error connecting to the database")
		return fmt.Errorf("could not connect to the database: %w", err)
	}

	// gen_random_uuid() is built in from PostgreSQL 13, pgcrypto covers older servers
	if err := DB.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error; err != nil {
		utils.LogWarn("Unable to create pgcrypto extension: " + err.Error())
	}

	err = DB.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.Lesson{},
		&models.Payment{},
		&models.Subscription{},
	)
	if err != nil {
		utils.LogError(err, "Error migrating database")
		return fmt.Errorf("could not migrate database: %w", err)
	}

	utils.LogSuccess("Database connection successful")
	return nil
}

func Close() {
	if DB == nil {
		return
	}
	if sqlDB, err := DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
