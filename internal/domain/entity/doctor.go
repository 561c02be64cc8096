package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Doctor is a read-only view of the doctor directory
type Doctor struct {
	ID              uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string                      `gorm:"type:varchar(100);not null" json:"name"`
	Specialty       string                      `gorm:"type:varchar(100);not null;index" json:"specialty"`
	Email           string                      `gorm:"type:varchar(255)" json:"email"`
	Phone           string                      `gorm:"type:varchar(50)" json:"phone,omitempty"`
	ExperienceYears int                         `json:"experience_years,omitempty"`
	ConsultationFee decimal.Decimal             `gorm:"type:numeric(12,2)" json:"consultation_fee"`
	Languages       datatypes.JSONSlice[string] `json:"languages,omitempty"`
	CreatedAt       time.Time                   `json:"created_at"`
	UpdatedAt       time.Time                   `json:"updated_at"`
}

func (Doctor) TableName() string {
	return "doctors"
}
