package entity

import "time"

// Aggregation job names
const (
	JobDoctorAppointments   = "doctor_appointments"
	JobAppointmentFrequency = "appointment_frequency"
	JobSymptomsBySpecialty  = "symptoms_by_specialty"
)

// JobResult carries either the rows produced by one aggregation job or the
// reason it failed. A failed job never carries rows.
type JobResult[T WarehouseRow] struct {
	Job  string
	Rows []T
	Err  error
}

// Failed reports whether the job could not produce its rows
func (r JobResult[T]) Failed() bool {
	return r.Err != nil
}

// WarehouseRows returns the job's rows as loader input
func (r JobResult[T]) WarehouseRows() []WarehouseRow {
	if r.Failed() {
		return nil
	}
	rows := make([]WarehouseRow, len(r.Rows))
	for i, row := range r.Rows {
		rows[i] = row
	}
	return rows
}

// JobStatus is the outcome of one aggregate-then-load pair
type JobStatus string

const (
	JobStatusLoaded            JobStatus = "loaded"
	JobStatusEmpty             JobStatus = "empty"
	JobStatusAggregationFailed JobStatus = "aggregation_failed"
	JobStatusLoadFailed        JobStatus = "load_failed"
)

// JobReport summarises one job of a run
type JobReport struct {
	Job      string
	Table    string
	Status   JobStatus
	Rows     int
	Err      error
	Duration time.Duration
}

// Succeeded reports whether the job finished without error
func (r JobReport) Succeeded() bool {
	return r.Status == JobStatusLoaded || r.Status == JobStatusEmpty
}

// RunReport summarises one aggregation run
type RunReport struct {
	AggregationDate time.Time
	StartedAt       time.Time
	FinishedAt      time.Time
	Jobs            []JobReport
}

// FailedJobs returns the reports of jobs that did not complete
func (r *RunReport) FailedJobs() []JobReport {
	var failed []JobReport
	for _, j := range r.Jobs {
		if !j.Succeeded() {
			failed = append(failed, j)
		}
	}
	return failed
}

// Complete reports whether every job succeeded
func (r *RunReport) Complete() bool {
	return len(r.FailedJobs()) == 0
}
