package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"healthsync-aggregator/internal/domain/entity"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testAggregationDate = time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

func setupWarehouseDB(t *testing.T) *gorm.DB {
	db := setupTestDB(t)
	require.NoError(t, NewWarehouseSchemaRepository().EnsureSchema(context.Background(), db))
	return db
}

func doctorRows(t *testing.T, counts map[string]int64) []entity.WarehouseRow {
	var rows []entity.WarehouseRow
	for id, n := range counts {
		row, err := entity.NewDoctorAppointmentAggregate(id, "Dr. "+id, "Cardiology", n)
		require.NoError(t, err)
		rows = append(rows, *row)
	}
	return rows
}

func countRows(t *testing.T, db *gorm.DB, table string) int64 {
	var n int64
	require.NoError(t, db.Table(table).Count(&n).Error)
	return n
}

// badRow reports fewer values than the doctor table has columns
type badRow struct{}

func (badRow) WarehouseValues() []interface{} { return []interface{}{"only-one"} }

func TestParseWriteMode(t *testing.T) {
	mode, err := ParseWriteMode("")
	require.NoError(t, err)
	assert.Equal(t, WriteModeReplace, mode)

	mode, err = ParseWriteMode(" UPSERT ")
	require.NoError(t, err)
	assert.Equal(t, WriteModeUpsert, mode)

	_, err = ParseWriteMode("merge")
	assert.True(t, errors.Is(err, ErrInvalidWriteMode))
}

func TestWarehouseRepository_Load(t *testing.T) {
	for _, mode := range []WriteMode{WriteModeReplace, WriteModeUpsert} {
		t.Run(string(mode), func(t *testing.T) {
			ctx := context.Background()

			t.Run("inserts rows stamped with the aggregation date", func(t *testing.T) {
				db := setupWarehouseDB(t)
				repo := NewWarehouseRepository(mode)

				n, err := repo.Load(ctx, db, entity.DoctorAppointmentsTable, doctorRows(t, map[string]int64{"D1": 2, "D2": 1}), testAggregationDate)
				require.NoError(t, err)
				assert.Equal(t, 2, n)

				var stored []entity.DoctorAppointmentAggregate
				require.NoError(t, db.Order("doctor_id").Find(&stored).Error)
				require.Len(t, stored, 2)
				for _, row := range stored {
					assert.True(t, row.AggregationDate.Equal(testAggregationDate))
				}
				assert.Equal(t, "D1", stored[0].DoctorID)
				assert.Equal(t, int64(2), stored[0].AppointmentCount)
			})

			t.Run("re-running on the same day does not duplicate rows", func(t *testing.T) {
				db := setupWarehouseDB(t)
				repo := NewWarehouseRepository(mode)
				rows := doctorRows(t, map[string]int64{"D1": 2, "D2": 1})

				_, err := repo.Load(ctx, db, entity.DoctorAppointmentsTable, rows, testAggregationDate)
				require.NoError(t, err)
				_, err = repo.Load(ctx, db, entity.DoctorAppointmentsTable, rows, testAggregationDate)
				require.NoError(t, err)

				assert.Equal(t, int64(2), countRows(t, db, entity.DoctorAppointmentsTable.Name))
			})

			t.Run("same-day re-run overwrites counts", func(t *testing.T) {
				db := setupWarehouseDB(t)
				repo := NewWarehouseRepository(mode)

				_, err := repo.Load(ctx, db, entity.DoctorAppointmentsTable, doctorRows(t, map[string]int64{"D1": 2}), testAggregationDate)
				require.NoError(t, err)
				_, err = repo.Load(ctx, db, entity.DoctorAppointmentsTable, doctorRows(t, map[string]int64{"D1": 7}), testAggregationDate)
				require.NoError(t, err)

				var stored entity.DoctorAppointmentAggregate
				require.NoError(t, db.Where("doctor_id = ?", "D1").First(&stored).Error)
				assert.Equal(t, int64(7), stored.AppointmentCount)
			})

			t.Run("a different day appends a new snapshot", func(t *testing.T) {
				db := setupWarehouseDB(t)
				repo := NewWarehouseRepository(mode)
				rows := doctorRows(t, map[string]int64{"D1": 2})

				_, err := repo.Load(ctx, db, entity.DoctorAppointmentsTable, rows, testAggregationDate)
				require.NoError(t, err)
				_, err = repo.Load(ctx, db, entity.DoctorAppointmentsTable, rows, testAggregationDate.AddDate(0, 0, 1))
				require.NoError(t, err)

				assert.Equal(t, int64(2), countRows(t, db, entity.DoctorAppointmentsTable.Name))
			})

			t.Run("row failure rolls back the whole batch", func(t *testing.T) {
				db := setupWarehouseDB(t)
				repo := NewWarehouseRepository(mode)

				rows := doctorRows(t, map[string]int64{"D1": 2})
				rows = append(rows, badRow{})

				_, err := repo.Load(ctx, db, entity.DoctorAppointmentsTable, rows, testAggregationDate)
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrColumnMismatch))

				assert.Equal(t, int64(0), countRows(t, db, entity.DoctorAppointmentsTable.Name))
			})

			t.Run("empty row set is a no-op", func(t *testing.T) {
				db := setupWarehouseDB(t)
				repo := NewWarehouseRepository(mode)

				_, err := repo.Load(ctx, db, entity.DoctorAppointmentsTable, doctorRows(t, map[string]int64{"D1": 2}), testAggregationDate)
				require.NoError(t, err)

				n, err := repo.Load(ctx, db, entity.DoctorAppointmentsTable, nil, testAggregationDate)
				require.NoError(t, err)
				assert.Equal(t, 0, n)
				// the earlier snapshot is untouched
				assert.Equal(t, int64(1), countRows(t, db, entity.DoctorAppointmentsTable.Name))
			})
		})
	}
}

func TestWarehouseRepository_LoadFrequencyAndSymptoms(t *testing.T) {
	db := setupWarehouseDB(t)
	repo := NewWarehouseRepository(WriteModeReplace)
	ctx := context.Background()

	freq, err := entity.NewAppointmentFrequencyAggregate(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 2)
	require.NoError(t, err)
	_, err = repo.Load(ctx, db, entity.AppointmentFrequencyTable, []entity.WarehouseRow{*freq}, testAggregationDate)
	require.NoError(t, err)

	fever, _ := entity.NewSymptomSpecialtyAggregate("Cardiology", "fever", 1)
	cough, _ := entity.NewSymptomSpecialtyAggregate("Cardiology", "cough", 1)
	_, err = repo.Load(ctx, db, entity.SymptomsBySpecialtyTable, []entity.WarehouseRow{*fever, *cough}, testAggregationDate)
	require.NoError(t, err)

	var storedFreq []entity.AppointmentFrequencyAggregate
	require.NoError(t, db.Find(&storedFreq).Error)
	require.Len(t, storedFreq, 1)
	assert.Equal(t, 2024, storedFreq[0].Date.Year())
	assert.Equal(t, int64(2), storedFreq[0].AppointmentCount)

	assert.Equal(t, int64(2), countRows(t, db, entity.SymptomsBySpecialtyTable.Name))
}

func TestWarehouseRepository_RejectsEmptyTableSpec(t *testing.T) {
	db := setupWarehouseDB(t)
	repo := NewWarehouseRepository(WriteModeReplace)

	_, err := repo.Load(context.Background(), db, entity.WarehouseTable{}, doctorRows(t, map[string]int64{"D1": 1}), testAggregationDate)
	assert.True(t, errors.Is(err, ErrEmptyTableSpec))
}

func TestWarehouseRepository_InsertFailureRollsBack(t *testing.T) {
	db, mock := newMockWarehouse(t)
	repo := NewWarehouseRepository(WriteModeReplace)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "doctor_appointments_agg" WHERE "aggregation_date" = \$1`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO "doctor_appointments_agg"`).
		WillReturnError(errors.New("value too long for type character varying(255)"))
	mock.ExpectRollback()

	_, err := repo.Load(context.Background(), db, entity.DoctorAppointmentsTable, doctorRows(t, map[string]int64{"D1": 1}), testAggregationDate)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert row 0 into doctor_appointments_agg")
	assert.NoError(t, mock.ExpectationsWereMet())
}
