package repository

import (
	"context"
	"fmt"

	"healthsync-aggregator/internal/domain/entity"
	domainRepo "healthsync-aggregator/internal/domain/repository"

	"gorm.io/gorm"
)

type warehouseSchemaRepository struct {
	tables []entity.WarehouseTable
}

func NewWarehouseSchemaRepository() domainRepo.WarehouseSchemaRepository {
	return &warehouseSchemaRepository{tables: entity.WarehouseTables()}
}

// EnsureSchema creates every missing target table in a single transaction.
// A failing statement rolls back the statements already issued.
func (r *warehouseSchemaRepository) EnsureSchema(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range r.tables {
			if err := tx.Exec(table.DDL).Error; err != nil {
				return fmt.Errorf("create table %s: %w", table.Name, err)
			}
		}
		return nil
	})
}
