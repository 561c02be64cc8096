package repository

import (
	"healthsync-aggregator/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DoctorRepository is a read-only lookup over the doctor directory
type DoctorRepository interface {
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.Doctor, error)
}
