package usecase

import (
	"context"
	"fmt"
	"time"

	"healthsync-aggregator/internal/domain/entity"
	"healthsync-aggregator/internal/domain/repository"
	"healthsync-aggregator/internal/infrastructure/metrics"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("healthsync-aggregator/usecase")

// PipelineUsecase runs one aggregation pass: it ensures the warehouse schema
// and then aggregates and loads every job in turn. A schema failure aborts
// the run; a failing job is logged and skipped.
type PipelineUsecase interface {
	Run(ctx context.Context) (*entity.RunReport, error)
}

// Clock returns the current wall-clock time
type Clock func() time.Time

type pipelineJob struct {
	name      string
	table     entity.WarehouseTable
	aggregate func(ctx context.Context) ([]entity.WarehouseRow, error)
}

type pipelineUsecase struct {
	warehouseDB   *gorm.DB
	log           *logrus.Logger
	schemaRepo    repository.WarehouseSchemaRepository
	warehouseRepo repository.WarehouseRepository
	aggregation   AggregationUsecase
	metrics       *metrics.RunMetrics
	clock         Clock
	location      *time.Location
}

// NewPipelineUsecase creates the run orchestrator. runMetrics may be nil;
// clock defaults to time.Now and location to time.Local.
func NewPipelineUsecase(
	warehouseDB *gorm.DB,
	log *logrus.Logger,
	schemaRepo repository.WarehouseSchemaRepository,
	warehouseRepo repository.WarehouseRepository,
	aggregation AggregationUsecase,
	runMetrics *metrics.RunMetrics,
	clock Clock,
	location *time.Location,
) PipelineUsecase {
	if clock == nil {
		clock = time.Now
	}
	if location == nil {
		location = time.Local
	}
	return &pipelineUsecase{
		warehouseDB:   warehouseDB,
		log:           log,
		schemaRepo:    schemaRepo,
		warehouseRepo: warehouseRepo,
		aggregation:   aggregation,
		metrics:       runMetrics,
		clock:         clock,
		location:      location,
	}
}

// AggregationDate returns the calendar date of t in loc, as midnight UTC
func AggregationDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (u *pipelineUsecase) Run(ctx context.Context) (*entity.RunReport, error) {
	startedAt := u.clock()
	report := &entity.RunReport{
		AggregationDate: AggregationDate(startedAt, u.location),
		StartedAt:       startedAt,
	}

	ctx, span := tracer.Start(ctx, "aggregation.run")
	defer span.End()
	span.SetAttributes(attribute.String("aggregation.date", report.AggregationDate.Format(entity.AppointmentDateLayout)))

	u.log.Infof("Starting data aggregation process for %s", report.AggregationDate.Format(entity.AppointmentDateLayout))

	if err := u.schemaRepo.EnsureSchema(ctx, u.warehouseDB); err != nil {
		u.log.Errorf("Failed to create warehouse tables: %+v", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "ensure schema")
		report.FinishedAt = u.clock()
		return report, fmt.Errorf("ensure warehouse schema: %w", err)
	}
	u.log.Info("Successfully created/verified warehouse tables")

	for _, job := range u.jobs() {
		jobReport := u.runJob(ctx, job, report.AggregationDate)
		report.Jobs = append(report.Jobs, jobReport)
		if u.metrics != nil {
			u.metrics.ObserveJob(jobReport)
		}
	}

	report.FinishedAt = u.clock()
	if u.metrics != nil {
		u.metrics.ObserveRun(report)
	}

	if failed := report.FailedJobs(); len(failed) > 0 {
		span.SetStatus(codes.Error, "partial run")
		u.log.Warnf("Data aggregation finished with %d of %d jobs failed", len(failed), len(report.Jobs))
	} else {
		u.log.Info("Data aggregation completed successfully")
	}
	return report, nil
}

func (u *pipelineUsecase) jobs() []pipelineJob {
	return []pipelineJob{
		{
			name:  entity.JobDoctorAppointments,
			table: entity.DoctorAppointmentsTable,
			aggregate: func(ctx context.Context) ([]entity.WarehouseRow, error) {
				r := u.aggregation.AggregateDoctorAppointments(ctx)
				return r.WarehouseRows(), r.Err
			},
		},
		{
			name:  entity.JobAppointmentFrequency,
			table: entity.AppointmentFrequencyTable,
			aggregate: func(ctx context.Context) ([]entity.WarehouseRow, error) {
				r := u.aggregation.AggregateAppointmentFrequency(ctx)
				return r.WarehouseRows(), r.Err
			},
		},
		{
			name:  entity.JobSymptomsBySpecialty,
			table: entity.SymptomsBySpecialtyTable,
			aggregate: func(ctx context.Context) ([]entity.WarehouseRow, error) {
				r := u.aggregation.AggregateSymptomsBySpecialty(ctx)
				return r.WarehouseRows(), r.Err
			},
		},
	}
}

// runJob aggregates and loads one job. Errors and panics are captured in the
// returned report and never propagate to the caller.
func (u *pipelineUsecase) runJob(ctx context.Context, job pipelineJob, aggregationDate time.Time) (report entity.JobReport) {
	report = entity.JobReport{Job: job.name, Table: job.table.Name}
	log := u.log.WithFields(logrus.Fields{"job": job.name, "table": job.table.Name})
	startedAt := u.clock()

	ctx, span := tracer.Start(ctx, "aggregation.job")
	span.SetAttributes(attribute.String("job", job.name), attribute.String("table", job.table.Name))

	failStatus := entity.JobStatusAggregationFailed
	defer func() {
		if rec := recover(); rec != nil {
			report.Status = failStatus
			report.Rows = 0
			report.Err = fmt.Errorf("panic in %s: %v", job.name, rec)
			log.Errorf("Job panicked, skipping: %v", rec)
		}
		if report.Err != nil {
			span.RecordError(report.Err)
			span.SetStatus(codes.Error, string(report.Status))
		}
		span.SetAttributes(attribute.Int("rows", report.Rows))
		span.End()
		report.Duration = u.clock().Sub(startedAt)
	}()

	rows, err := job.aggregate(ctx)
	if err != nil {
		log.Warnf("Aggregation failed, skipping load: %+v", err)
		report.Status = entity.JobStatusAggregationFailed
		report.Err = err
		return report
	}

	if len(rows) == 0 {
		log.Warnf("No data to save for table %s", job.table.Name)
		report.Status = entity.JobStatusEmpty
		return report
	}

	failStatus = entity.JobStatusLoadFailed
	log.Infof("Saving %d records to %s", len(rows), job.table.Name)
	n, err := u.warehouseRepo.Load(ctx, u.warehouseDB, job.table, rows, aggregationDate)
	if err != nil {
		log.Errorf("Error saving to warehouse table %s: %+v", job.table.Name, err)
		report.Status = entity.JobStatusLoadFailed
		report.Err = err
		return report
	}

	log.Infof("Successfully saved data to %s", job.table.Name)
	report.Status = entity.JobStatusLoaded
	report.Rows = n
	return report
}
