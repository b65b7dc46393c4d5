package db

import (
	"ortus/internal/config"
	"ortus/internal/domain/model"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect はDBに接続して *gorm.DB を返す。
func Connect(cfg config.Config) (*gorm.DB, error) {
	level := logger.Info
	if cfg.IsProd() {
		level = logger.Warn
	}

	gdb, err := gorm.Open(postgres.Open(cfg.PostgresDSN()), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}
	return gdb, nil
}

// Migrate はテーブルを作成・更新する。
func Migrate(gdb *gorm.DB) error {
	err := gdb.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.ProductSize{},
		&model.Order{},
		&model.OrderItem{},
		&model.AuditLog{},
	)
	return errors.Wrap(err, "auto migrate")
}
