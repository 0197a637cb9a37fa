package config

import (
	"log"

	"github.com/abenezerk/predict-backend/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// SetupDatabase connects to DB and runs migrations
func SetupDatabase(dsn string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("[FATAL] Failed to connect to DB: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Game{},
		&models.Answer{},
		&models.Vote{},
		&models.Transfer{},
	); err != nil {
		log.Fatalf("[FATAL] Migration failed: %v", err)
	}

	DB = db
	log.Println("✅ Database migration completed")
	return db
}
