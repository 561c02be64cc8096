package bootstrap

import (
	"context"
	"fmt"
	"os"
	"time"

	"healthsync-aggregator/config"
	"healthsync-aggregator/internal/domain/entity"
	"healthsync-aggregator/internal/infrastructure/cache"
	"healthsync-aggregator/internal/infrastructure/database"
	"healthsync-aggregator/internal/infrastructure/metrics"
	"healthsync-aggregator/internal/infrastructure/tracing"
	"healthsync-aggregator/internal/repository"
	"healthsync-aggregator/internal/service"
	"healthsync-aggregator/internal/usecase"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	metricsPushTimeout  = 10 * time.Second
	tracingFlushTimeout = 5 * time.Second
)

// App holds all dependencies of one aggregation run
type App struct {
	Config      *config.Config
	Log         *logrus.Logger
	SourceDB    *gorm.DB
	WarehouseDB *gorm.DB
	RedisClient *redis.Client
	Metrics     *metrics.RunMetrics
	Pipeline    usecase.PipelineUsecase

	shutdownTracing tracing.ShutdownFunc
}

// New creates a new App with both stores connected. Anything acquired
// before a failure is released before the error is returned.
func New() (*App, error) {
	app := &App{Log: logrus.StandardLogger()}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	app.Config = cfg

	setupLogger(app.Log, cfg.App.LogLevel)
	app.Log.Info("Configuration loaded successfully")

	shutdown, err := tracing.InitTracing(app.Log, cfg.App, cfg.Tracing)
	if err != nil {
		app.Log.Warnf("Tracing disabled: %+v", err)
	}
	app.shutdownTracing = shutdown

	if err := app.connect(); err != nil {
		app.Close()
		return nil, err
	}

	pipeline, err := app.initializePipeline()
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Pipeline = pipeline

	return app, nil
}

// setupLogger configures the logrus logger
func setupLogger(log *logrus.Logger, level string) {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
}

func (app *App) connect() error {
	app.Log.Info("Connecting to source database...")
	sourceDB, err := database.NewPostgresConnection(app.Config.SourceDB)
	if err != nil {
		return fmt.Errorf("failed to connect to source database: %w", err)
	}
	app.SourceDB = sourceDB

	app.Log.Info("Connecting to warehouse...")
	warehouseDB, err := database.NewWarehouseConnection(app.Config.WarehouseDB)
	if err != nil {
		return fmt.Errorf("failed to connect to warehouse: %w", err)
	}
	app.WarehouseDB = warehouseDB

	// The doctor cache is optional; the run proceeds without it
	redisClient, err := cache.NewRedisClient(app.Config.Redis)
	if err != nil {
		app.Log.Warnf("Doctor cache disabled: %+v", err)
	}
	app.RedisClient = redisClient

	return nil
}

// initializePipeline wires repositories, services and usecases
func (app *App) initializePipeline() (usecase.PipelineUsecase, error) {
	cfg := app.Config

	writeMode, err := repository.ParseWriteMode(cfg.Aggregation.WriteMode)
	if err != nil {
		return nil, err
	}

	location, err := cfg.Aggregation.Location()
	if err != nil {
		return nil, fmt.Errorf("invalid aggregation timezone %q: %w", cfg.Aggregation.Timezone, err)
	}

	// Initialize repositories
	appointmentRepo := repository.NewAppointmentRepository()
	doctorRepo := repository.NewDoctorRepository()
	schemaRepo := repository.NewWarehouseSchemaRepository()
	warehouseRepo := repository.NewWarehouseRepository(writeMode)

	// Initialize services
	var doctorCache service.DoctorCache
	if app.RedisClient != nil {
		doctorCache = service.NewRedisDoctorCache(app.RedisClient, app.Log, cfg.Redis.TTL)
	}
	doctorResolver := service.NewDoctorResolver(app.SourceDB, app.Log, doctorRepo, doctorCache)

	app.Metrics = metrics.NewRunMetrics()

	// Initialize usecases
	aggregationUsecase := usecase.NewAggregationUsecase(app.SourceDB, app.Log, appointmentRepo, doctorResolver, cfg.Aggregation.BatchSize)
	return usecase.NewPipelineUsecase(app.WarehouseDB, app.Log, schemaRepo, warehouseRepo, aggregationUsecase, app.Metrics, time.Now, location), nil
}

// Run performs one aggregation run and releases every connection before
// returning. Only a fatal failure is returned; failed jobs are reported in
// the log.
func (app *App) Run() error {
	defer app.Close()

	ctx := context.Background()
	if timeout := app.Config.Aggregation.RunTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	report, err := app.Pipeline.Run(ctx)
	app.pushMetrics()
	if err != nil {
		return err
	}

	app.logReport(report)
	return nil
}

func (app *App) logReport(report *entity.RunReport) {
	for _, job := range report.Jobs {
		fields := logrus.Fields{
			"job":      job.Job,
			"table":    job.Table,
			"status":   job.Status,
			"rows":     job.Rows,
			"duration": job.Duration.String(),
		}
		if job.Err != nil {
			app.Log.WithFields(fields).Warnf("Job did not complete: %v", job.Err)
			continue
		}
		app.Log.WithFields(fields).Info("Job completed")
	}
}

func (app *App) pushMetrics() {
	url := app.Config.Metrics.PushgatewayURL
	if url == "" || app.Metrics == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), metricsPushTimeout)
	defer cancel()
	if err := app.Metrics.Push(ctx, url, app.Config.Metrics.JobName); err != nil {
		app.Log.Warnf("Failed to push run metrics: %+v", err)
	}
}

// Close releases every acquired connection. Failures are logged, never
// returned, and Close is safe to call more than once.
func (app *App) Close() {
	if err := database.Close(app.SourceDB); err != nil {
		app.Log.Errorf("Error closing source database: %+v", err)
	}
	app.SourceDB = nil

	if err := database.Close(app.WarehouseDB); err != nil {
		app.Log.Errorf("Error closing warehouse: %+v", err)
	}
	app.WarehouseDB = nil

	if app.RedisClient != nil {
		if err := app.RedisClient.Close(); err != nil {
			app.Log.Errorf("Error closing Redis: %+v", err)
		}
		app.RedisClient = nil
	}

	if app.shutdownTracing != nil {
		ctx, cancel := context.WithTimeout(context.Background(), tracingFlushTimeout)
		defer cancel()
		if err := app.shutdownTracing(ctx); err != nil {
			app.Log.Errorf("Error flushing traces: %+v", err)
		}
		app.shutdownTracing = nil
	}

	app.Log.Info("Cleaned up database connections")
}
