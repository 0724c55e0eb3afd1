package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectoinject/ectocontainer"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/Ramsey-B/clover/config"
	banktransactionrepo "github.com/Ramsey-B/clover/internal/repositories/banktransaction"
	invoicerepo "github.com/Ramsey-B/clover/internal/repositories/invoice"
	matchresultrepo "github.com/Ramsey-B/clover/internal/repositories/matchresult"
	reconciliationrunrepo "github.com/Ramsey-B/clover/internal/repositories/reconciliationrun"
	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/middleware"
	"github.com/Ramsey-B/clover/pkg/processor"
	"github.com/Ramsey-B/clover/pkg/reconcile"
	banktransactionroutes "github.com/Ramsey-B/clover/pkg/routes/banktransaction"
	"github.com/Ramsey-B/clover/pkg/routes/health"
	invoiceroutes "github.com/Ramsey-B/clover/pkg/routes/invoice"
	matchresultroutes "github.com/Ramsey-B/clover/pkg/routes/matchresult"
	reconciliationroutes "github.com/Ramsey-B/clover/pkg/routes/reconciliation"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const version = "0.1.0"

func main() {
	_ = godotenv.Load()

	var cfg config.Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		panic(fmt.Errorf("failed to load config: %w", err))
	}

	zapLogger, err := zap.NewProduction()
	if cfg.PrettyLogs {
		zapLogger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	logger := zapadapter.NewZapEctoLogger(zapLogger, nil)

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error("Service exited with error")
		os.Exit(1)
	}
}

func run(cfg config.Config, logger ectologger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	tracing.SetTracer(tp.Tracer(cfg.AppName))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	// Database
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseUserName, cfg.DatabasePassword, cfg.DatabaseName, cfg.DatabaseSSLMode)
	sqlxDB, err := sqlx.Connect(cfg.DatabaseDriver, dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer sqlxDB.Close()
	sqlxDB.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
	sqlxDB.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)
	sqlxDB.SetConnMaxLifetime(cfg.DatabaseConnMaxLifetime)

	driver, err := migratepg.WithInstance(sqlxDB.DB, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}
	migrations := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
	})
	if err := migrations.Migrate(cfg.DatabaseName, driver); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	db := database.NewDatabaseInstance(sqlxDB, logger)

	// Repositories
	txnRepo := banktransactionrepo.NewRepository(db, logger)
	invRepo := invoicerepo.NewRepository(db, logger)
	resultRepo := matchresultrepo.NewRepository(db, logger)
	runRepo := reconciliationrunrepo.NewRepository(db, logger)

	// Engine
	engine, err := reconcile.NewEngine(logger, reconcile.Config{
		Weights: reconcile.Weights{
			Amount:      cfg.AmountWeight,
			Date:        cfg.DateWeight,
			Reference:   cfg.ReferenceWeight,
			Party:       cfg.PartyWeight,
			Description: cfg.DescriptionWeight,
		},
		TaxRates: cfg.TaxRates,
	})
	if err != nil {
		return err
	}

	// Kafka
	producer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      cfg.KafkaBrokers,
		Topic:        cfg.KafkaOutputTopic,
		BatchSize:    cfg.KafkaBatchSize,
		BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
		RequiredAcks: cfg.KafkaRequiredAcks,
		Compression:  cfg.KafkaCompression,
	}, logger)
	defer producer.Close()
	emitter := events.NewEmitter(producer, logger)

	service := reconcile.NewService(logger, engine, txnRepo, invRepo, resultRepo, runRepo, emitter)

	var consumer *kafka.Consumer
	if cfg.KafkaConsumerEnabled {
		proc := processor.NewProcessor(logger, service)
		consumer = kafka.NewConsumer(cfg, logger, proc.HandleMessage)
		if err := consumer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start consumer: %w", err)
		}
		defer func() { _ = consumer.Stop() }()
	}

	// DI container for route handlers
	container, err := ectoinject.NewDIDefaultContainer()
	if err != nil {
		return fmt.Errorf("failed to create DI container: %w", err)
	}
	if err := registerDependencies(container, logger, db, service, txnRepo, invRepo, resultRepo, runRepo); err != nil {
		return err
	}

	// HTTP server
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))

	var consumerHealth interface{ Health() bool }
	if consumer != nil {
		consumerHealth = consumer
	}
	checker := health.NewChecker(sqlxDB, consumerHealth, version)
	checker.RegisterRoutes(e)

	api := e.Group("/api/v1")
	banktransactionroutes.Register(api.Group("/transactions"))
	invoiceroutes.Register(api.Group("/invoices"))
	reconciliationroutes.Register(api.Group("/reconciliation"))
	matchresultroutes.Register(api.Group("/matches"))

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		if err := e.Start(addr); err != nil {
			logger.WithError(err).Info("HTTP server stopped")
		}
	}()
	checker.SetReady(true)

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func registerDependencies(
	container ectocontainer.DIContainer,
	logger ectologger.Logger,
	db database.DB,
	service *reconcile.Service,
	txnRepo *banktransactionrepo.Repository,
	invRepo *invoicerepo.Repository,
	resultRepo *matchresultrepo.Repository,
	runRepo *reconciliationrunrepo.Repository,
) error {
	if err := ectoinject.RegisterInstance[ectologger.Logger](container, logger); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[database.DB](container, db); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*reconcile.Service](container, service); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*banktransactionrepo.Repository](container, txnRepo); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*invoicerepo.Repository](container, invRepo); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*matchresultrepo.Repository](container, resultRepo); err != nil {
		return err
	}
	return ectoinject.RegisterInstance[*reconciliationrunrepo.Repository](container, runRepo)
}
