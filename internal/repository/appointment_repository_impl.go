package repository

import (
	"healthsync-aggregator/internal/domain/entity"
	domainRepo "healthsync-aggregator/internal/domain/repository"

	"gorm.io/gorm"
)

// DefaultBatchSize is used when a non-positive batch size is requested
const DefaultBatchSize = 500

type appointmentRepository struct{}

func NewAppointmentRepository() domainRepo.AppointmentRepository {
	return &appointmentRepository{}
}

func (r *appointmentRepository) CountByDoctor(db *gorm.DB) ([]entity.DoctorAppointmentCount, error) {
	var counts []entity.DoctorAppointmentCount
	err := db.Model(&entity.Appointment{}).
		Select("doctor_id, COUNT(*) AS appointment_count").
		Group("doctor_id").
		Order("doctor_id").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *appointmentRepository) CountByDate(db *gorm.DB) ([]entity.DateAppointmentCount, error) {
	var counts []entity.DateAppointmentCount
	err := db.Model(&entity.Appointment{}).
		Select("appointment_date, COUNT(*) AS appointment_count").
		Group("appointment_date").
		Order("appointment_date ASC").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// FindInBatches streams appointments ordered by primary key. Only the
// columns needed for aggregation are loaded.
func (r *appointmentRepository) FindInBatches(db *gorm.DB, batchSize int, fn func(batch []entity.Appointment) error) error {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	var batch []entity.Appointment
	return db.Model(&entity.Appointment{}).
		Select("id", "doctor_id", "appointment_date", "symptoms").
		FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
			return fn(batch)
		}).Error
}
