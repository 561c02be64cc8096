package entity

import (
	"errors"
	"fmt"
	"time"

	"healthsync-aggregator/pkg/validator"
)

// UnknownDoctorValue replaces name and specialty of doctors that cannot be resolved
const UnknownDoctorValue = "Unknown"

// ErrZeroDate is returned when an aggregate is built with a zero calendar date
var ErrZeroDate = errors.New("date must not be zero")

var rowValidator = validator.NewValidator()

// WarehouseRow is a single aggregate row ready to be written to the warehouse.
// WarehouseValues returns the values of every table column except the
// trailing aggregation_date, in table column order.
type WarehouseRow interface {
	WarehouseValues() []interface{}
}

// DoctorAppointmentAggregate is the number of appointments held by one doctor
type DoctorAppointmentAggregate struct {
	DoctorID         string    `gorm:"column:doctor_id;primaryKey" json:"doctor_id" validate:"required,max=255"`
	DoctorName       string    `gorm:"column:doctor_name" json:"doctor_name" validate:"required,max=255"`
	Specialty        string    `gorm:"column:specialty" json:"specialty" validate:"required,max=255"`
	AppointmentCount int64     `gorm:"column:appointment_count" json:"appointment_count" validate:"gte=1"`
	AggregationDate  time.Time `gorm:"column:aggregation_date;type:date;primaryKey" json:"aggregation_date"`
}

func (DoctorAppointmentAggregate) TableName() string {
	return DoctorAppointmentsTable.Name
}

// NewDoctorAppointmentAggregate builds a validated row. Empty name or
// specialty degrade to UnknownDoctorValue.
func NewDoctorAppointmentAggregate(doctorID, doctorName, specialty string, count int64) (*DoctorAppointmentAggregate, error) {
	if doctorName == "" {
		doctorName = UnknownDoctorValue
	}
	if specialty == "" {
		specialty = UnknownDoctorValue
	}

	row := &DoctorAppointmentAggregate{
		DoctorID:         doctorID,
		DoctorName:       doctorName,
		Specialty:        specialty,
		AppointmentCount: count,
	}
	if err := rowValidator.Validate(row); err != nil {
		return nil, fmt.Errorf("invalid doctor appointment aggregate %q: %w", doctorID, rowValidator.Describe(err))
	}
	return row, nil
}

func (a DoctorAppointmentAggregate) WarehouseValues() []interface{} {
	return []interface{}{a.DoctorID, a.DoctorName, a.Specialty, a.AppointmentCount}
}

// AppointmentFrequencyAggregate is the number of appointments on one calendar date
type AppointmentFrequencyAggregate struct {
	Date             time.Time `gorm:"column:date;type:date;primaryKey" json:"date"`
	AppointmentCount int64     `gorm:"column:appointment_count" json:"appointment_count" validate:"gte=1"`
	AggregationDate  time.Time `gorm:"column:aggregation_date;type:date;primaryKey" json:"aggregation_date"`
}

func (AppointmentFrequencyAggregate) TableName() string {
	return AppointmentFrequencyTable.Name
}

func NewAppointmentFrequencyAggregate(date time.Time, count int64) (*AppointmentFrequencyAggregate, error) {
	if date.IsZero() {
		return nil, fmt.Errorf("invalid appointment frequency aggregate: %w", ErrZeroDate)
	}

	row := &AppointmentFrequencyAggregate{
		Date:             date,
		AppointmentCount: count,
	}
	if err := rowValidator.Validate(row); err != nil {
		return nil, fmt.Errorf("invalid appointment frequency aggregate %s: %w", date.Format(AppointmentDateLayout), rowValidator.Describe(err))
	}
	return row, nil
}

func (a AppointmentFrequencyAggregate) WarehouseValues() []interface{} {
	return []interface{}{a.Date, a.AppointmentCount}
}

// SymptomSpecialtyAggregate counts how often a symptom was reported to doctors of a specialty
type SymptomSpecialtyAggregate struct {
	Specialty       string    `gorm:"column:specialty;primaryKey" json:"specialty" validate:"required,max=255"`
	Symptom         string    `gorm:"column:symptom;primaryKey" json:"symptom" validate:"required,max=255"`
	OccurrenceCount int64     `gorm:"column:occurrence_count" json:"occurrence_count" validate:"gte=1"`
	AggregationDate time.Time `gorm:"column:aggregation_date;type:date;primaryKey" json:"aggregation_date"`
}

func (SymptomSpecialtyAggregate) TableName() string {
	return SymptomsBySpecialtyTable.Name
}

func NewSymptomSpecialtyAggregate(specialty, symptom string, count int64) (*SymptomSpecialtyAggregate, error) {
	row := &SymptomSpecialtyAggregate{
		Specialty:       specialty,
		Symptom:         symptom,
		OccurrenceCount: count,
	}
	if err := rowValidator.Validate(row); err != nil {
		return nil, fmt.Errorf("invalid symptom aggregate (%q, %q): %w", specialty, symptom, rowValidator.Describe(err))
	}
	return row, nil
}

func (a SymptomSpecialtyAggregate) WarehouseValues() []interface{} {
	return []interface{}{a.Specialty, a.Symptom, a.OccurrenceCount}
}
