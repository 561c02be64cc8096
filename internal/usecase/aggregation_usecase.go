package usecase

import (
	"context"
	"fmt"
	"strings"

	"healthsync-aggregator/internal/converter"
	"healthsync-aggregator/internal/domain/entity"
	"healthsync-aggregator/internal/domain/repository"
	"healthsync-aggregator/internal/service"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AggregationUsecase computes the warehouse aggregates from the operational
// store. Every job reads the source independently; a failing job reports its
// error in the result instead of returning rows.
type AggregationUsecase interface {
	AggregateDoctorAppointments(ctx context.Context) entity.JobResult[entity.DoctorAppointmentAggregate]
	AggregateAppointmentFrequency(ctx context.Context) entity.JobResult[entity.AppointmentFrequencyAggregate]
	AggregateSymptomsBySpecialty(ctx context.Context) entity.JobResult[entity.SymptomSpecialtyAggregate]
}

type aggregationUsecase struct {
	db              *gorm.DB
	log             *logrus.Logger
	appointmentRepo repository.AppointmentRepository
	doctorResolver  service.DoctorResolver
	batchSize       int
}

func NewAggregationUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	doctorResolver service.DoctorResolver,
	batchSize int,
) AggregationUsecase {
	return &aggregationUsecase{
		db:              db,
		log:             log,
		appointmentRepo: appointmentRepo,
		doctorResolver:  doctorResolver,
		batchSize:       batchSize,
	}
}

// AggregateDoctorAppointments counts appointments per doctor id. Doctors that
// cannot be resolved keep their count with an unknown name and specialty.
func (u *aggregationUsecase) AggregateDoctorAppointments(ctx context.Context) entity.JobResult[entity.DoctorAppointmentAggregate] {
	result := entity.JobResult[entity.DoctorAppointmentAggregate]{Job: entity.JobDoctorAppointments}
	u.log.Info("Starting doctor appointments aggregation")

	counts, err := u.appointmentRepo.CountByDoctor(u.db.WithContext(ctx))
	if err != nil {
		return failJob(u.log, result, fmt.Errorf("count appointments by doctor: %w", err))
	}
	counts = converter.MergeDoctorCounts(counts)
	u.log.Infof("Found %d doctor appointment groups", len(counts))

	rows := make([]entity.DoctorAppointmentAggregate, 0, len(counts))
	unresolved := 0
	for _, c := range counts {
		var doctor *entity.Doctor
		if c.DoctorID != entity.UnknownDoctorValue {
			doctor, _ = u.doctorResolver.Resolve(ctx, c.DoctorID)
		}
		if doctor == nil {
			unresolved++
		}

		row, err := converter.DoctorCountToAggregate(c, doctor)
		if err != nil {
			return failJob(u.log, result, err)
		}
		rows = append(rows, *row)
	}

	if unresolved > 0 {
		u.log.Warnf("%d doctor ids could not be resolved and were reported as %s", unresolved, entity.UnknownDoctorValue)
	}
	u.log.Infof("Successfully aggregated %d doctor records", len(rows))

	result.Rows = rows
	return result
}

// AggregateAppointmentFrequency counts appointments per calendar date in ascending date order
func (u *aggregationUsecase) AggregateAppointmentFrequency(ctx context.Context) entity.JobResult[entity.AppointmentFrequencyAggregate] {
	result := entity.JobResult[entity.AppointmentFrequencyAggregate]{Job: entity.JobAppointmentFrequency}
	u.log.Info("Starting appointment frequency aggregation")

	counts, err := u.appointmentRepo.CountByDate(u.db.WithContext(ctx))
	if err != nil {
		return failJob(u.log, result, fmt.Errorf("count appointments by date: %w", err))
	}

	rows, err := converter.DateCountsToAggregates(counts)
	if err != nil {
		return failJob(u.log, result, err)
	}
	u.log.Infof("Successfully aggregated %d frequency records", len(rows))

	result.Rows = rows
	return result
}

// AggregateSymptomsBySpecialty counts every symptom of an appointment once
// against the treating doctor's specialty. Appointments whose doctor cannot
// be resolved are left out.
func (u *aggregationUsecase) AggregateSymptomsBySpecialty(ctx context.Context) entity.JobResult[entity.SymptomSpecialtyAggregate] {
	result := entity.JobResult[entity.SymptomSpecialtyAggregate]{Job: entity.JobSymptomsBySpecialty}
	u.log.Info("Starting symptoms by specialty aggregation")

	counts := make(map[converter.SymptomKey]int64)
	scanned, dropped := 0, 0

	err := u.appointmentRepo.FindInBatches(u.db.WithContext(ctx), u.batchSize, func(batch []entity.Appointment) error {
		for _, appointment := range batch {
			scanned++

			doctor, ok := u.doctorResolver.Resolve(ctx, appointment.DoctorID)
			if !ok {
				dropped++
				continue
			}

			specialty := strings.TrimSpace(doctor.Specialty)
			if specialty == "" {
				specialty = entity.UnknownDoctorValue
			}

			for _, symptom := range uniqueSymptoms(appointment.Symptoms) {
				counts[converter.SymptomKey{Specialty: specialty, Symptom: symptom}]++
			}
		}
		return ctx.Err()
	})
	if err != nil {
		return failJob(u.log, result, fmt.Errorf("scan appointments: %w", err))
	}

	if dropped > 0 {
		u.log.Warnf("Skipped %d of %d appointments with unresolvable doctors", dropped, scanned)
	}

	rows, err := converter.SymptomCountsToAggregates(counts)
	if err != nil {
		return failJob(u.log, result, err)
	}
	u.log.Infof("Successfully aggregated %d symptom records", len(rows))

	result.Rows = rows
	return result
}

// failJob records err on the result and discards any partial rows
func failJob[T entity.WarehouseRow](log *logrus.Logger, result entity.JobResult[T], err error) entity.JobResult[T] {
	log.WithField("job", result.Job).Errorf("Error in %s aggregation: %+v", result.Job, err)
	result.Rows = nil
	result.Err = err
	return result
}

// uniqueSymptoms trims symptom tags and drops blanks and repeats
func uniqueSymptoms(symptoms []string) []string {
	seen := make(map[string]struct{}, len(symptoms))
	out := make([]string, 0, len(symptoms))
	for _, s := range symptoms {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
