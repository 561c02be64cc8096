package repository

import (
	"healthsync-aggregator/internal/domain/entity"

	"gorm.io/gorm"
)

// AppointmentRepository is a read-only view over operational appointments
type AppointmentRepository interface {
	CountByDoctor(db *gorm.DB) ([]entity.DoctorAppointmentCount, error)
	CountByDate(db *gorm.DB) ([]entity.DateAppointmentCount, error)
	FindInBatches(db *gorm.DB, batchSize int, fn func(batch []entity.Appointment) error) error
}
