package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AppointmentStatus mirrors the lifecycle written by the appointment service
type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
)

// AppointmentDateLayout is the ISO date format appointment dates are stored in
const AppointmentDateLayout = "2006-01-02"

// Appointment is a read-only view of an operational appointment record.
// DoctorID is kept as the raw string written by the source service; it is
// not guaranteed to be a valid doctor identifier.
type Appointment struct {
	ID              uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	PatientID       string                      `gorm:"type:varchar(255);not null;index" json:"patient_id"`
	DoctorID        string                      `gorm:"type:varchar(255);not null;index" json:"doctor_id"`
	AppointmentDate string                      `gorm:"type:varchar(10);not null;index" json:"appointment_date"`
	AppointmentTime string                      `gorm:"type:varchar(5)" json:"appointment_time"`
	Symptoms        datatypes.JSONSlice[string] `json:"symptoms"`
	Status          AppointmentStatus           `gorm:"type:varchar(20);not null;default:'scheduled'" json:"status"`
	Notes           string                      `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt       time.Time                   `json:"created_at"`
	UpdatedAt       time.Time                   `json:"updated_at"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// DoctorAppointmentCount is one group of appointments sharing a doctor id
type DoctorAppointmentCount struct {
	DoctorID         string
	AppointmentCount int64
}

// DateAppointmentCount is one group of appointments sharing a calendar date
type DateAppointmentCount struct {
	AppointmentDate  string
	AppointmentCount int64
}
