package usecase

import (
	"io"
	"testing"

	"healthsync-aggregator/internal/domain/entity"
	"healthsync-aggregator/internal/repository"
	"healthsync-aggregator/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// setupTestDB opens an in-memory SQLite database pinned to one connection
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

func seedDoctor(t *testing.T, db *gorm.DB, name, specialty string) *entity.Doctor {
	doctor := &entity.Doctor{ID: uuid.New(), Name: name, Specialty: specialty}
	require.NoError(t, db.Create(doctor).Error)
	return doctor
}

func seedAppointment(t *testing.T, db *gorm.DB, doctorID, date string, symptoms ...string) {
	appointment := &entity.Appointment{
		ID:              uuid.New(),
		PatientID:       uuid.NewString(),
		DoctorID:        doctorID,
		AppointmentDate: date,
		Symptoms:        symptoms,
		Status:          entity.AppointmentStatusScheduled,
	}
	require.NoError(t, db.Create(appointment).Error)
}

func newAggregation(db *gorm.DB, log *logrus.Logger, batchSize int) AggregationUsecase {
	resolver := service.NewDoctorResolver(db, log, repository.NewDoctorRepository(), nil)
	return NewAggregationUsecase(db, log, repository.NewAppointmentRepository(), resolver, batchSize)
}
