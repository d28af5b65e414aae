package app

import (
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aquaregwatch/regwatch/config"
	"github.com/aquaregwatch/regwatch/lib/models"
)

func NewDatabase(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	log.Sugar().Infow("database opened", "path", cfg.DatabasePath)

	if err := db.AutoMigrate(
		&models.Snapshot{},
		&models.ChangeEvent{},
	); err != nil {
		return nil, err
	}
	return db, nil
}
