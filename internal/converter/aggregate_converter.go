package converter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"healthsync-aggregator/internal/domain/entity"
)

// NormalizeDoctorID trims a source doctor id and maps a blank one to
// entity.UnknownDoctorValue
func NormalizeDoctorID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return entity.UnknownDoctorValue
	}
	return id
}

// MergeDoctorCounts sums groups whose ids normalise to the same doctor id so
// each warehouse key appears once. Groups keep their first-seen order.
func MergeDoctorCounts(counts []entity.DoctorAppointmentCount) []entity.DoctorAppointmentCount {
	merged := make([]entity.DoctorAppointmentCount, 0, len(counts))
	index := make(map[string]int, len(counts))
	for _, c := range counts {
		id := NormalizeDoctorID(c.DoctorID)
		if i, ok := index[id]; ok {
			merged[i].AppointmentCount += c.AppointmentCount
			continue
		}
		index[id] = len(merged)
		merged = append(merged, entity.DoctorAppointmentCount{DoctorID: id, AppointmentCount: c.AppointmentCount})
	}
	return merged
}

// DoctorCountToAggregate converts one doctor group into a warehouse row.
// A nil doctor degrades name and specialty to entity.UnknownDoctorValue, and
// a blank doctor id is reported under entity.UnknownDoctorValue so its
// appointments are still counted.
func DoctorCountToAggregate(count entity.DoctorAppointmentCount, doctor *entity.Doctor) (*entity.DoctorAppointmentAggregate, error) {
	doctorID := NormalizeDoctorID(count.DoctorID)

	name, specialty := entity.UnknownDoctorValue, entity.UnknownDoctorValue
	if doctor != nil {
		name, specialty = doctor.Name, doctor.Specialty
	}

	return entity.NewDoctorAppointmentAggregate(doctorID, name, specialty, count.AppointmentCount)
}

// DateCountsToAggregates converts date groups into warehouse rows ordered by
// ascending date. Groups that parse to the same date are summed. An
// unparsable date fails the whole conversion.
func DateCountsToAggregates(counts []entity.DateAppointmentCount) ([]entity.AppointmentFrequencyAggregate, error) {
	totals := make(map[time.Time]int64, len(counts))
	for _, c := range counts {
		date, err := time.Parse(entity.AppointmentDateLayout, strings.TrimSpace(c.AppointmentDate))
		if err != nil {
			return nil, fmt.Errorf("parse appointment date %q: %w", c.AppointmentDate, err)
		}
		totals[date] += c.AppointmentCount
	}

	rows := make([]entity.AppointmentFrequencyAggregate, 0, len(totals))
	for date, n := range totals {
		row, err := entity.NewAppointmentFrequencyAggregate(date, n)
		if err != nil {
			return nil, err
		}
		rows = append(rows, *row)
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Date.Before(rows[j].Date)
	})
	return rows, nil
}

// SymptomKey groups symptom occurrences
type SymptomKey struct {
	Specialty string
	Symptom   string
}

// SymptomCountsToAggregates converts grouped symptom occurrences into
// warehouse rows ordered by descending count, then specialty and symptom.
func SymptomCountsToAggregates(counts map[SymptomKey]int64) ([]entity.SymptomSpecialtyAggregate, error) {
	rows := make([]entity.SymptomSpecialtyAggregate, 0, len(counts))
	for key, n := range counts {
		row, err := entity.NewSymptomSpecialtyAggregate(key.Specialty, key.Symptom, n)
		if err != nil {
			return nil, err
		}
		rows = append(rows, *row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].OccurrenceCount != rows[j].OccurrenceCount {
			return rows[i].OccurrenceCount > rows[j].OccurrenceCount
		}
		if rows[i].Specialty != rows[j].Specialty {
			return rows[i].Specialty < rows[j].Specialty
		}
		return rows[i].Symptom < rows[j].Symptom
	})
	return rows, nil
}
