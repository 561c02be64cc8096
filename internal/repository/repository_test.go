package repository

import (
	"testing"

	"healthsync-aggregator/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens an in-memory SQLite database pinned to one connection
// so every query sees the same database.
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	return db
}

func setupSourceDB(t *testing.T) *gorm.DB {
	db := setupTestDB(t)
	require.NoError(t, db.AutoMigrate(&entity.Appointment{}, &entity.Doctor{}))
	return db
}

func seedAppointment(t *testing.T, db *gorm.DB, doctorID, date string, symptoms ...string) entity.Appointment {
	appointment := entity.Appointment{
		ID:              uuid.New(),
		PatientID:       uuid.NewString(),
		DoctorID:        doctorID,
		AppointmentDate: date,
		AppointmentTime: "09:30",
		Symptoms:        symptoms,
		Status:          entity.AppointmentStatusScheduled,
	}
	require.NoError(t, db.Create(&appointment).Error)
	return appointment
}
