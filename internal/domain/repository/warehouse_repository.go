package repository

import (
	"context"
	"time"

	"healthsync-aggregator/internal/domain/entity"

	"gorm.io/gorm"
)

// WarehouseSchemaRepository creates the warehouse target tables
type WarehouseSchemaRepository interface {
	EnsureSchema(ctx context.Context, db *gorm.DB) error
}

// WarehouseRepository writes one table's aggregate rows stamped with an aggregation date
type WarehouseRepository interface {
	Load(ctx context.Context, db *gorm.DB, table entity.WarehouseTable, rows []entity.WarehouseRow, aggregationDate time.Time) (int, error)
}
