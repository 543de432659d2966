// Package server wires the time capsule server together: database, media
// storage, mail, the notification sweep, the REST API and the gRPC health
// endpoint. It also owns the process lifecycle and graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/timecapsule/internal/logging"
	"github.com/dmitrijs2005/timecapsule/internal/server/config"
	"github.com/dmitrijs2005/timecapsule/internal/server/filestore"
	"github.com/dmitrijs2005/timecapsule/internal/server/httpserver"
	"github.com/dmitrijs2005/timecapsule/internal/server/lifecycle"
	"github.com/dmitrijs2005/timecapsule/internal/server/mailer"
	"github.com/dmitrijs2005/timecapsule/internal/server/notify"
	"github.com/dmitrijs2005/timecapsule/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/timecapsule/internal/server/services"
	"github.com/dmitrijs2005/timecapsule/internal/server/sweep"

	gs "github.com/dmitrijs2005/timecapsule/internal/server/grpc"
)

const dbConnectTimeout = 10 * time.Second

type App struct {
	config    *config.Config
	logger    logging.Logger
	db        *sql.DB
	http      *httpserver.HTTPServer
	grpc      *gs.GRPCServer
	scheduler *sweep.Scheduler
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, cfg.LogLevel)

	db, err := repomanager.OpenPostgres(ctx, cfg.DatabaseDSN, dbConnectTimeout)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	store, err := newFileStore(ctx, cfg, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	transport, err := newMailTransport(cfg, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	clock := lifecycle.SystemClock{}
	grpcServer := gs.NewGRPCServer(cfg.GRPCAddr, logger)

	dispatcher := notify.NewDispatcher(transport, cfg.MailFrom, cfg.FrontendURL, logger)
	scheduler := sweep.NewScheduler(db, rm, dispatcher, clock, sweep.Options{
		Schedule:   cfg.SweepSchedule,
		OnStart:    cfg.SweepOnStart,
		Timeout:    cfg.SweepTimeout,
		StatusHook: grpcServer.SetSweepServing,
	}, logger)

	capsules := services.NewCapsuleService(db, rm, store, clock, services.Limits{
		MaxFileSize: cfg.MaxFileSize,
		MaxFiles:    cfg.MaxFiles,
	}, logger)
	accounts := services.NewAccountService(db, rm)

	httpServer := httpserver.New(cfg.HTTPAddr, httpserver.Deps{
		Capsules:       capsules,
		Accounts:       accounts,
		SecretKey:      []byte(cfg.SecretKey),
		MaxUploadBytes: maxUploadBytes(cfg),
	}, logger)

	return &App{
		config:    cfg,
		logger:    logger,
		db:        db,
		http:      httpServer,
		grpc:      grpcServer,
		scheduler: scheduler,
	}, nil
}

// maxUploadBytes bounds a whole create request: every file at the size
// limit plus room for the text fields and multipart framing.
func maxUploadBytes(cfg *config.Config) int64 {
	return cfg.MaxFileSize*int64(cfg.MaxFiles) + 1<<20
}

func newFileStore(ctx context.Context, cfg *config.Config, logger logging.Logger) (filestore.Store, error) {
	switch cfg.StorageBackend {
	case config.StorageS3:
		s, err := filestore.NewS3Store(ctx, filestore.S3Config{
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Endpoint:  cfg.S3BaseEndpoint,
			Bucket:    cfg.S3Bucket,
			Prefix:    cfg.UploadsDir,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("file store init error: %w", err)
		}
		return s, nil
	case config.StorageLocal:
		root, prefix := "", cfg.UploadsDir
		if filepath.IsAbs(prefix) {
			root, prefix = filepath.Dir(prefix), filepath.Base(prefix)
		}
		s, err := filestore.NewLocalStore(root, prefix, logger)
		if err != nil {
			return nil, fmt.Errorf("file store init error: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

func newMailTransport(cfg *config.Config, logger logging.Logger) (mailer.Transport, error) {
	if cfg.SMTPHost == "" {
		logger.Warn(context.Background(), "EMAIL_HOST is not set, notification mail will only be logged")
		return mailer.NewLogTransport(logger), nil
	}
	t, err := mailer.NewSMTPTransport(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		Secure:   cfg.SMTPSecure,
		Timeout:  cfg.MailTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("mailer init error: %w", err)
	}
	return t, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// run starts fn and cancels the whole app if it fails.
func (app *App) run(ctx context.Context, cancelFunc context.CancelFunc, wg *sync.WaitGroup, name string, fn func(context.Context) error) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := fn(ctx); err != nil {
			app.logger.Error(ctx, "component stopped with error", "component", name, "error", err)
			cancelFunc()
		}
	}()
}

// Run blocks until a termination signal arrives or a component fails, then
// waits for every component to stop and closes the database.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup
	app.run(ctx, cancelFunc, &wg, "http", app.http.Run)
	app.run(ctx, cancelFunc, &wg, "grpc", app.grpc.Run)
	app.run(ctx, cancelFunc, &wg, "sweep", app.scheduler.Run)

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "failed to close database", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
