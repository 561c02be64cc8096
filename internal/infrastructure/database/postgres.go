package database

import (
	"fmt"

	"healthsync-aggregator/config"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewPostgresConnection opens the operational store
func NewPostgresConnection(cfg config.DBConfig) (*gorm.DB, error) {
	db, err := open(cfg, false)
	if err != nil {
		return nil, err
	}

	logrus.Infof("Successfully connected to source database %s:%s/%s", cfg.Host, cfg.Port, cfg.Name)
	return db, nil
}

// NewWarehouseConnection opens the analytical warehouse. The simple query
// protocol is used because Redshift does not support every extended
// protocol message pgx sends.
func NewWarehouseConnection(cfg config.DBConfig) (*gorm.DB, error) {
	db, err := open(cfg, true)
	if err != nil {
		return nil, err
	}

	logrus.Infof("Successfully connected to warehouse %s:%s/%s", cfg.Host, cfg.Port, cfg.Name)
	return db, nil
}

func open(cfg config.DBConfig, simpleProtocol bool) (*gorm.DB, error) {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port, sslMode,
	)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: simpleProtocol,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database %s: %w", cfg.Name, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// One run uses each connection serially
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetMaxOpenConns(4)

	return db, nil
}

// Close releases the pool behind db. A nil db is ignored.
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
