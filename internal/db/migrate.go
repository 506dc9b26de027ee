package db

import (
	"mt4-journal/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil {
		return nil
	}
	return db.Gorm.AutoMigrate(
		&models.Account{},
		&models.Statement{},
		&models.Trade{},
	)
}
