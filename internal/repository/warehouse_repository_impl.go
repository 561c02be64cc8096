package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"healthsync-aggregator/internal/domain/entity"
	domainRepo "healthsync-aggregator/internal/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrEmptyTableSpec   = errors.New("warehouse table must have a name and columns")
	ErrColumnMismatch   = errors.New("row values do not match table columns")
	ErrInvalidWriteMode = errors.New("invalid warehouse write mode")
)

// WriteMode selects how a day's snapshot replaces an earlier one
type WriteMode string

const (
	// WriteModeReplace deletes the day's rows before inserting. It relies on
	// no warehouse-side constraint enforcement, which suits Redshift.
	WriteModeReplace WriteMode = "replace"
	// WriteModeUpsert uses INSERT ... ON CONFLICT on the table's primary key.
	WriteModeUpsert WriteMode = "upsert"
)

func ParseWriteMode(s string) (WriteMode, error) {
	switch WriteMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", WriteModeReplace:
		return WriteModeReplace, nil
	case WriteModeUpsert:
		return WriteModeUpsert, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidWriteMode, s)
	}
}

type warehouseRepository struct {
	mode WriteMode
}

func NewWarehouseRepository(mode WriteMode) domainRepo.WarehouseRepository {
	return &warehouseRepository{mode: mode}
}

// Load writes rows into table inside one transaction, filling every column
// but the last from the row and the last from aggregationDate. Nothing is
// committed unless every row is written. An empty row set is a no-op.
func (r *warehouseRepository) Load(ctx context.Context, db *gorm.DB, table entity.WarehouseTable, rows []entity.WarehouseRow, aggregationDate time.Time) (int, error) {
	if table.Name == "" || len(table.Columns) < 2 {
		return 0, ErrEmptyTableSpec
	}
	if len(rows) == 0 {
		return 0, nil
	}

	valueColumns := table.Columns[:len(table.Columns)-1]
	dateColumn := table.Columns[len(table.Columns)-1]

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if r.mode == WriteModeReplace {
			err := tx.Exec("DELETE FROM ? WHERE ? = ?",
				clause.Table{Name: table.Name}, clause.Column{Name: dateColumn}, aggregationDate).Error
			if err != nil {
				return fmt.Errorf("clear %s snapshot: %w", table.Name, err)
			}
		}

		for i, row := range rows {
			values := row.WarehouseValues()
			if len(values) != len(valueColumns) {
				return fmt.Errorf("row %d of %s: %w: got %d values for %d columns",
					i, table.Name, ErrColumnMismatch, len(values), len(valueColumns))
			}

			record := make(map[string]interface{}, len(table.Columns))
			for j, column := range valueColumns {
				record[column] = values[j]
			}
			record[dateColumn] = aggregationDate

			if err := r.insert(tx, table, record).Error; err != nil {
				return fmt.Errorf("insert row %d into %s: %w", i, table.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (r *warehouseRepository) insert(tx *gorm.DB, table entity.WarehouseTable, record map[string]interface{}) *gorm.DB {
	q := tx.Table(table.Name)
	if r.mode == WriteModeUpsert {
		q = q.Clauses(upsertClause(table))
	}
	return q.Create(record)
}

func upsertClause(table entity.WarehouseTable) clause.OnConflict {
	key := table.PrimaryKey()
	conflict := make([]clause.Column, len(key))
	for i, c := range key {
		conflict[i] = clause.Column{Name: c}
	}

	updates := table.ValueColumns()
	if len(updates) == 0 {
		return clause.OnConflict{Columns: conflict, DoNothing: true}
	}
	return clause.OnConflict{Columns: conflict, DoUpdates: clause.AssignmentColumns(updates)}
}
